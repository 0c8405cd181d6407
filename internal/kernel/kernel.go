// Package kernel composes the graph, activation manager, ingestion
// pipeline, action executor, and cognitive loop under a single coarse
// lock. Every public method here follows the same shape: acquire the
// lock, mutate in-memory state, release the lock, then perform any I/O
// (persistence, adapter calls) unlocked.
package kernel

import (
	"context"
	"sync"
	"time"

	"github.com/nidhogg/cogkernel/internal/action"
	"github.com/nidhogg/cogkernel/internal/activation"
	"github.com/nidhogg/cogkernel/internal/adapters"
	"github.com/nidhogg/cogkernel/internal/cognitive"
	"github.com/nidhogg/cogkernel/internal/graph"
	"github.com/nidhogg/cogkernel/internal/ingestion"
	"go.uber.org/zap"
)

// Config holds the tunables a deployment wires the kernel up with.
type Config struct {
	DumpPath        string
	TickInterval    time.Duration
	StatusQueue     int
	ActionThreshold float64
}

// Kernel is the top-level cognitive engine: one graph, one activation
// manager, protected by one mutex, driven by one background tick loop.
type Kernel struct {
	mu sync.Mutex

	graph      *graph.Graph
	activation *activation.Manager
	ingestion  *ingestion.Pipeline
	executor   *action.Executor
	loop       *cognitive.Loop

	extractor adapters.TripleExtractor
	summaries adapters.SummaryFetcher

	dumpPath string
	logger   *zap.Logger
}

// New assembles a Kernel from its collaborators. g may be freshly loaded
// from disk (graph.Load) or empty (graph.New).
func New(g *graph.Graph, extractor adapters.TripleExtractor, summaries adapters.SummaryFetcher, registry *action.Registry, cfg Config, logger *zap.Logger) *Kernel {
	am := activation.New(g, nil, logger)

	k := &Kernel{
		graph:      g,
		activation: am,
		extractor:  extractor,
		summaries:  summaries,
		dumpPath:   cfg.DumpPath,
		logger:     logger,
	}
	k.ingestion = ingestion.New(k, logger)

	evaluator := action.NewEvaluator(func(format string, args ...interface{}) {
		if logger != nil {
			logger.Sugar().Infof(format, args...)
		}
	})
	k.executor = action.NewExecutor(registry, evaluator, cfg.ActionThreshold, &k.mu, logger)
	k.loop = cognitive.New(g, am, k.executor, &k.mu, cfg.TickInterval, cfg.StatusQueue, logger)

	return k
}

// Start begins the background cognitive loop.
func (k *Kernel) Start() { k.loop.Start() }

// Stop halts the background cognitive loop.
func (k *Kernel) Stop() { k.loop.Stop() }

// Statuses returns the channel of published cognitive-tick statuses.
func (k *Kernel) Statuses() <-chan cognitive.StatusRecord { return k.loop.Statuses() }

// EnrichAsync implements ingestion.Enricher: it fetches a knowledge summary
// for keyword in the background and, if one comes back, re-acquires the
// lock just long enough to record its length on the node. The fetch itself
// runs fully unlocked, so enrichment never sits on the ingestion critical
// path.
func (k *Kernel) EnrichAsync(nodeID, keyword string) {
	if k.summaries == nil {
		return
	}
	go func() {
		summary := k.summaries.Fetch(context.Background(), keyword)
		if summary == "" {
			return
		}
		k.mu.Lock()
		defer k.mu.Unlock()
		n := k.graph.GetNode(nodeID)
		if n == nil {
			return
		}
		n.Attributes[graph.AttrEnrichedFromWiki] = true
		n.Attributes[graph.AttrWikiSummaryLength] = len(summary)
	}()
}

// InjectText runs the full ingestion sequence for text: lock, clear stale
// energy and focus the mode, unlock, call the (possibly slow) triple
// extractor, lock again, graft the result into the graph and spread twice,
// unlock, then best-effort persist a snapshot — all per the lock/I-O
// sequencing ingestion.Pipeline expects its caller to enforce.
func (k *Kernel) InjectText(ctx context.Context, text string) {
	if ingestion.Blank(text) {
		return
	}

	k.mu.Lock()
	ingestion.PrepareForInput(k.activation)
	k.mu.Unlock()

	var triples []adapters.Triple
	if k.extractor != nil {
		triples = k.extractor.Extract(ctx, text)
	}

	k.mu.Lock()
	k.ingestion.Mutate(k.graph, k.activation, text, triples)
	snapshot := k.graph.Clone()
	k.mu.Unlock()

	if k.dumpPath == "" {
		return
	}
	if err := snapshot.Save(k.dumpPath); err != nil && k.logger != nil {
		k.logger.Warn("failed to persist graph snapshot after ingestion", zap.Error(err))
	}
}

// Snapshot returns a deep copy of the current graph, safe to read or save
// without holding the kernel lock.
func (k *Kernel) Snapshot() *graph.Graph {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.graph.Clone()
}

// Save persists the current graph state to path (or the configured dump
// path if empty).
func (k *Kernel) Save(path string) error {
	if path == "" {
		path = k.dumpPath
	}
	return k.Snapshot().Save(path)
}

// Status returns a point-in-time view of mode, top node, and active count
// without waiting for the next scheduled tick.
func (k *Kernel) Status() cognitive.StatusRecord {
	k.mu.Lock()
	defer k.mu.Unlock()
	top := k.activation.GetTop()
	return cognitive.StatusRecord{
		Mode:          k.activation.Mode(),
		TopNodeID:     top,
		TopActivation: k.activation.GetActivation(top),
		ActiveCount:   k.activation.ActiveCount(),
	}
}
