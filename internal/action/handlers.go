package action

import (
	"context"

	"github.com/nidhogg/cogkernel/internal/adapters"
	"github.com/nidhogg/cogkernel/internal/ingestion"
	"go.uber.org/zap"
)

// NewWikiEnrichHandler builds the "wiki_enrich" named handler: fetch a
// knowledge summary keyed by the firing Action node's own name (or, when
// that node has no name, by ac.Focus, which is a node id), extract
// triples from that summary, and graft them into the graph exactly as the
// ingestion pipeline's normal path would. This mirrors the original
// wiki-enrichment prototype's behavior of treating a fetched summary as a
// fresh piece of text to ingest, rather than inventing a separate code
// path for it.
//
// Both the summary fetch and the triple extraction block on network I/O,
// so this handler is two-phase like kernel.InjectText: read the keyword
// under the caller's lock, release it for the blocking calls, then
// re-acquire before touching the graph or activation again.
func NewWikiEnrichHandler(fetcher adapters.SummaryFetcher, extractor adapters.TripleExtractor, logger *zap.Logger) Handler {
	return func(ctx context.Context, ac *Context) error {
		node := ac.Graph.GetNode(ac.NodeID)
		keyword := node.Name()
		if keyword == "" {
			keyword = ac.Focus
		}
		if keyword == "" {
			return nil
		}

		ac.Locker.Unlock()
		summary := fetcher.Fetch(ctx, keyword)
		var triples []adapters.Triple
		if summary != "" {
			triples = extractor.Extract(ctx, summary)
		}
		ac.Locker.Lock()

		if summary == "" {
			return nil
		}
		if len(triples) == 0 {
			if logger != nil {
				logger.Debug("wiki_enrich fetched a summary but extracted no triples",
					zap.String("keyword", keyword))
			}
			return nil
		}

		pipeline := ingestion.New(ingestion.NoopEnricher{}, logger)
		pipeline.Mutate(ac.Graph, ac.Activation, summary, triples)
		return nil
	}
}
