// Package ingestion implements the text-to-graph pipeline: the fallback
// tokenization path when no triples come back from the LM backend, and the
// normal path that grafts extracted triples into the graph and injects
// activation at the affected nodes. The package is lock-free by design —
// the kernel holds ingestion under its single coarse lock, with the
// extractor/summary-fetcher calls carved out to run unlocked, so the kernel
// (not this package) owns sequencing around the I/O boundary.
package ingestion

import (
	"strings"
	"time"

	"github.com/nidhogg/cogkernel/internal/activation"
	"github.com/nidhogg/cogkernel/internal/adapters"
	"github.com/nidhogg/cogkernel/internal/graph"
	"go.uber.org/zap"
)

const (
	clearThreshold   = 0.1
	fallbackInject   = 0.8
	tripleInject     = 1.0
	tripleEdgeWeight = 0.7
	spreadPasses     = 2
)

// Enricher schedules a best-effort, non-blocking knowledge-summary lookup
// for a newly created concept node. Implementations must not block the
// caller — enrichment is never on the critical path.
type Enricher interface {
	EnrichAsync(nodeID, keyword string)
}

// NoopEnricher discards every request, matching the degraded "no
// enrichment" mode a no-op SummaryFetcher implies.
type NoopEnricher struct{}

func (NoopEnricher) EnrichAsync(nodeID, keyword string) {}

// Pipeline holds the pure ingestion logic. It does not own a lock; the
// kernel sequences PrepareForInput / Mutate around the unlocked
// extractor call.
type Pipeline struct {
	Enricher Enricher
	Logger   *zap.Logger
}

// New creates a Pipeline. A nil enricher is replaced with NoopEnricher.
func New(enricher Enricher, logger *zap.Logger) *Pipeline {
	if enricher == nil {
		enricher = NoopEnricher{}
	}
	return &Pipeline{Enricher: enricher, Logger: logger}
}

// Blank reports whether text is empty or all whitespace.
func Blank(text string) bool {
	return strings.TrimSpace(text) == ""
}

// PrepareForInput performs the pre-I/O locked steps: clear stale
// background energy and snap the mode to fully focused. Call this while
// holding the kernel lock, before the unlocked
// extractor call.
func PrepareForInput(am *activation.Manager) {
	am.ClearBelow(clearThreshold)
	am.SetMode(1.0)
}

// Mutate applies either the fallback or normal path for the given
// (already-extracted) triples, then spreads twice. Call this while holding
// the kernel lock again, after the unlocked extractor call.
func (p *Pipeline) Mutate(g *graph.Graph, am *activation.Manager, text string, triples []adapters.Triple) {
	if len(triples) == 0 {
		p.fallback(g, am, text)
	} else {
		p.normal(g, am, triples)
	}
	for i := 0; i < spreadPasses; i++ {
		am.Spread()
	}
}

// fallback tokenizes text on whitespace, takes up to the first two tokens,
// and injects each as a (possibly newly created) Concept node.
func (p *Pipeline) fallback(g *graph.Graph, am *activation.Manager, text string) {
	tokens := strings.Fields(text)
	if len(tokens) > 2 {
		tokens = tokens[:2]
	}
	for _, tok := range tokens {
		id := UpsertConcept(g, tok, "unknown_input", p.Enricher)
		am.Inject(id, fallbackInject, "unknown_input")
	}
}

// normal grafts each triple's head/tail nodes and relation edge into the
// graph and injects activation into both endpoints.
func (p *Pipeline) normal(g *graph.Graph, am *activation.Manager, triples []adapters.Triple) {
	for _, t := range triples {
		headID := UpsertConcept(g, t.Head, "llm_triple", p.Enricher)
		tailID := UpsertConcept(g, t.Tail, "llm_triple", p.Enricher)

		_ = g.AddEdge(&graph.Edge{
			Src:      headID,
			Dst:      tailID,
			Relation: strings.ToUpper(t.Relation),
			Weight:   tripleEdgeWeight,
		})

		am.Inject(headID, tripleInject, "input")
		am.Inject(tailID, tripleInject, "input")
	}
}

// UpsertConcept looks up a Concept node by normalized name, creating one
// with default attributes if absent, and scheduling best-effort enrichment
// for newly created nodes. It is exported so the action package's
// named-handler registry can reuse it for the same create-or-reuse
// semantics (the wiki_enrich handler reuses it, for instance).
func UpsertConcept(g *graph.Graph, rawName, source string, enricher Enricher) string {
	name := graph.Normalize(rawName)
	if id := g.FindByName(name); id != "" {
		return id
	}

	id := graph.GenerateID(graph.Concept, name)
	n, err := graph.NewNode(id, graph.Concept, 0.5, graph.Semantic)
	if err != nil {
		return ""
	}
	now := time.Now().Unix()
	n.Attributes[graph.AttrName] = name
	n.Attributes[graph.AttrCreatedAt] = now
	n.Attributes[graph.AttrLastAccessed] = now
	n.Attributes[graph.AttrSource] = source
	if err := g.AddNode(n); err != nil {
		// Raced with a concurrent insert of the same id; fall back to
		// whatever is there (callers hold the kernel lock, so in
		// practice this path is unreachable, but stay defensive).
		return id
	}

	if enricher != nil {
		enricher.EnrichAsync(id, name)
	}
	return id
}
