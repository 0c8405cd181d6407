package action

import (
	"context"
	"path"
	"strings"
	"sync"

	"github.com/nidhogg/cogkernel/internal/activation"
	"github.com/nidhogg/cogkernel/internal/graph"
	"go.uber.org/zap"
)

const (
	// DefaultThreshold is the activation level an Action node must reach
	// before it becomes eligible to fire.
	DefaultThreshold = 0.1
	// PinValue is the activation an Action node is set to immediately
	// after firing, so it does not fire again on the very next tick.
	PinValue = 0.05
)

var scriptExtensions = []string{".py", ".sh", ".js", ".go"}

// Result records the outcome of one fired action.
type Result struct {
	NodeID string
	Err    error
}

// noopLocker is used when an Executor is built without a shared lock (e.g.
// in tests that never touch I/O-bound handlers), so Context.Locker is
// always safe to call.
type noopLocker struct{}

func (noopLocker) Lock()   {}
func (noopLocker) Unlock() {}

// Executor selects eligible Action nodes and runs their code each tick.
type Executor struct {
	Registry  *Registry
	Evaluator *Evaluator
	Threshold float64
	Locker    sync.Locker
	Logger    *zap.Logger
}

// NewExecutor creates an Executor. registry and evaluator must not be nil;
// a zero threshold is replaced with DefaultThreshold. locker is handed to
// every Context so a handler that needs to block on I/O (e.g. wiki_enrich)
// can release the caller's lock for the duration of the call; a nil locker
// is replaced with a no-op.
func NewExecutor(registry *Registry, evaluator *Evaluator, threshold float64, locker sync.Locker, logger *zap.Logger) *Executor {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if locker == nil {
		locker = noopLocker{}
	}
	return &Executor{Registry: registry, Evaluator: evaluator, Threshold: threshold, Locker: locker, Logger: logger}
}

// RunEligible scans every node, runs the code of each Action node at or
// above threshold, and pins it to PinValue regardless of outcome. An
// Action node whose code is empty or whitespace is logged and skipped
// entirely: it neither fires nor is pinned. Errors from individual actions
// are isolated: one failing action never prevents the rest from running,
// and is only reported in the returned slice.
func (e *Executor) RunEligible(ctx context.Context, g *graph.Graph, am *activation.Manager, focus, text string) []Result {
	var results []Result
	for _, id := range g.NodeIDs() {
		n := g.GetNode(id)
		if n == nil || n.Type != graph.Action {
			continue
		}
		if am.GetActivation(id) < e.Threshold {
			continue
		}

		code := n.Code()
		if strings.TrimSpace(code) == "" {
			if e.Logger != nil {
				e.Logger.Warn("action has empty code, skipping", zap.String("node_id", id))
			}
			continue
		}

		ac := &Context{Graph: g, Activation: am, NodeID: id, Focus: focus, Text: text, Locker: e.Locker}
		err := e.fire(ctx, code, ac)
		am.Pin(id, PinValue)

		if err != nil && e.Logger != nil {
			e.Logger.Warn("action fire failed", zap.String("node_id", id), zap.Error(err))
		}
		results = append(results, Result{NodeID: id, Err: err})
	}
	return results
}

// fire dispatches code to a named handler if it looks like a bare handler
// reference, otherwise runs it as an inline fragment.
func (e *Executor) fire(ctx context.Context, code string, ac *Context) error {
	if name, ok := handlerName(code); ok {
		h, found := e.Registry.Lookup(name)
		if !found {
			return &unknownHandlerError{name: name}
		}
		return h(ctx, ac)
	}
	return e.Evaluator.Run(code, ac)
}

type unknownHandlerError struct{ name string }

func (e *unknownHandlerError) Error() string { return "unknown action handler " + e.name }

// handlerName reports whether code is a bare reference to a named handler —
// no whitespace, no call/statement syntax — as opposed to an inline
// fragment. A recognized script extension or directory path is stripped to
// the bare stem, since action.Code may carry over either convention from
// the source this behavior was modeled on.
func handlerName(code string) (string, bool) {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return "", false
	}
	if strings.ContainsAny(trimmed, " \t\n;()") {
		return "", false
	}
	base := path.Base(trimmed)
	for _, ext := range scriptExtensions {
		if strings.HasSuffix(base, ext) {
			base = strings.TrimSuffix(base, ext)
			break
		}
	}
	if base == "" || base == "." {
		return "", false
	}
	return base, true
}
