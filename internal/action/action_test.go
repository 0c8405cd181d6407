package action

import (
	"context"
	"sync"
	"testing"

	"github.com/nidhogg/cogkernel/internal/activation"
	"github.com/nidhogg/cogkernel/internal/adapters"
	"github.com/nidhogg/cogkernel/internal/graph"
)

func buildGraphWithAction(t *testing.T, code string) (*graph.Graph, *activation.Manager, string) {
	t.Helper()
	g := graph.New(nil)
	am := activation.New(g, nil, nil)

	concept, err := graph.NewNode("Concept_Cat_aaaaaaaa", graph.Concept, 0.5, graph.Semantic)
	if err != nil {
		t.Fatal(err)
	}
	concept.Attributes[graph.AttrName] = "Cat"
	if err := g.AddNode(concept); err != nil {
		t.Fatal(err)
	}

	act, err := graph.NewNode("Action_Speak_bbbbbbbb", graph.Action, 0.5, graph.Semantic)
	if err != nil {
		t.Fatal(err)
	}
	act.Attributes[graph.AttrName] = "Speak"
	act.Attributes[graph.AttrCode] = code
	if err := g.AddNode(act); err != nil {
		t.Fatal(err)
	}

	return g, am, act.ID
}

func TestRunEligibleSkipsBelowThreshold(t *testing.T) {
	g, am, actID := buildGraphWithAction(t, `print("hi")`)
	am.Inject(actID, 0.05, "input")

	reg := NewRegistry()
	eval := NewEvaluator(nil)
	ex := NewExecutor(reg, eval, DefaultThreshold, nil, nil)

	results := ex.RunEligible(context.Background(), g, am, "", "")
	if len(results) != 0 {
		t.Fatalf("got %d results, want 0 (below threshold)", len(results))
	}
	if am.GetActivation(actID) != 0.05 {
		t.Fatalf("got activation %v, want untouched 0.05", am.GetActivation(actID))
	}
}

func TestRunEligibleFiresInlineFragmentAndPins(t *testing.T) {
	g, am, actID := buildGraphWithAction(t, `inject("Concept_Cat_aaaaaaaa", 0.5, "action")`)
	am.Inject(actID, 0.5, "input")

	reg := NewRegistry()
	eval := NewEvaluator(nil)
	ex := NewExecutor(reg, eval, DefaultThreshold, nil, nil)

	results := ex.RunEligible(context.Background(), g, am, "", "")
	if len(results) != 1 || results[0].Err != nil {
		t.Fatalf("got %+v, want one successful result", results)
	}
	if got := am.GetActivation("Concept_Cat_aaaaaaaa"); got != 0.5 {
		t.Fatalf("got activation %v, want 0.5 injected by the fragment", got)
	}
	if got := am.GetActivation(actID); got != PinValue {
		t.Fatalf("got action activation %v, want pinned to %v", got, PinValue)
	}
}

func TestRunEligibleDispatchesNamedHandler(t *testing.T) {
	g, am, actID := buildGraphWithAction(t, "greet")
	am.Inject(actID, 0.5, "input")

	var called bool
	reg := NewRegistry()
	reg.Register("greet", func(ctx context.Context, ac *Context) error {
		called = true
		return nil
	})
	eval := NewEvaluator(nil)
	ex := NewExecutor(reg, eval, DefaultThreshold, nil, nil)

	results := ex.RunEligible(context.Background(), g, am, "", "")
	if len(results) != 1 || results[0].Err != nil {
		t.Fatalf("got %+v, want one successful result", results)
	}
	if !called {
		t.Fatal("expected the registered handler to run")
	}
}

func TestRunEligibleUnknownHandlerIsIsolated(t *testing.T) {
	g, am, actID := buildGraphWithAction(t, "nonexistent_handler")
	am.Inject(actID, 0.5, "input")

	reg := NewRegistry()
	eval := NewEvaluator(nil)
	ex := NewExecutor(reg, eval, DefaultThreshold, nil, nil)

	results := ex.RunEligible(context.Background(), g, am, "", "")
	if len(results) != 1 || results[0].Err == nil {
		t.Fatalf("got %+v, want one failed result", results)
	}
	if got := am.GetActivation(actID); got != PinValue {
		t.Fatalf("got %v, want pinned to %v even on failure", got, PinValue)
	}
}

func TestHandlerNameStripsScriptExtensionAndPath(t *testing.T) {
	cases := map[string]struct {
		name string
		ok   bool
	}{
		"greet":                  {"greet", true},
		"scripts/greet.py":       {"greet", true},
		"greet.sh":               {"greet", true},
		`inject("a", 1.0, "x")`:  {"", false},
		"print(\"a\"); print(1)": {"", false},
		"":                       {"", false},
	}
	for in, want := range cases {
		name, ok := handlerName(in)
		if ok != want.ok || (ok && name != want.name) {
			t.Errorf("handlerName(%q) = (%q, %v), want (%q, %v)", in, name, ok, want.name, want.ok)
		}
	}
}

func TestEvaluatorRunsMultipleStatements(t *testing.T) {
	g := graph.New(nil)
	am := activation.New(g, nil, nil)
	n, _ := graph.NewNode("Concept_X_aaaaaaaa", graph.Concept, 0.5, graph.Semantic)
	n.Attributes[graph.AttrName] = "X"
	g.AddNode(n)

	var logged []string
	eval := NewEvaluator(func(format string, args ...interface{}) {
		logged = append(logged, format)
	})
	ac := &Context{Graph: g, Activation: am, NodeID: "", Focus: "", Text: ""}
	err := eval.Run(`inject("Concept_X_aaaaaaaa", 0.3, "action"); set_mode(-0.1); print("done")`, ac)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if am.GetActivation("Concept_X_aaaaaaaa") != 0.3 {
		t.Fatalf("got %v, want 0.3", am.GetActivation("Concept_X_aaaaaaaa"))
	}
	if len(logged) != 1 {
		t.Fatalf("got %d log calls, want 1", len(logged))
	}
}

func TestRunEligibleSkipsEmptyCodeWithoutPinning(t *testing.T) {
	g, am, actID := buildGraphWithAction(t, "   ")
	am.Inject(actID, 0.5, "input")

	reg := NewRegistry()
	eval := NewEvaluator(nil)
	ex := NewExecutor(reg, eval, DefaultThreshold, nil, nil)

	results := ex.RunEligible(context.Background(), g, am, "", "")
	if len(results) != 0 {
		t.Fatalf("got %d results, want 0 (empty code is skipped, not fired)", len(results))
	}
	if got := am.GetActivation(actID); got != 0.5 {
		t.Fatalf("got activation %v, want untouched 0.5 (empty code must not be pinned)", got)
	}
}

type lockProbeFetcher struct {
	mu          *sync.Mutex
	wasUnlocked bool
}

func (f *lockProbeFetcher) Fetch(ctx context.Context, keyword string) string {
	f.wasUnlocked = f.mu.TryLock()
	if f.wasUnlocked {
		f.mu.Unlock()
	}
	return "a short summary"
}

func TestWikiEnrichHandlerReleasesLockDuringFetch(t *testing.T) {
	g, am, actID := buildGraphWithAction(t, "wiki_enrich")
	am.Inject(actID, 0.5, "input")

	var mu sync.Mutex
	fetcher := &lockProbeFetcher{mu: &mu}
	reg := NewRegistry()
	reg.Register("wiki_enrich", NewWikiEnrichHandler(fetcher, adapters.NoopTripleExtractor{}, nil))
	eval := NewEvaluator(nil)
	ex := NewExecutor(reg, eval, DefaultThreshold, &mu, nil)

	mu.Lock()
	results := ex.RunEligible(context.Background(), g, am, "", "")
	mu.Unlock()

	if len(results) != 1 || results[0].Err != nil {
		t.Fatalf("got %+v, want one successful result", results)
	}
	if !fetcher.wasUnlocked {
		t.Fatal("expected the handler to release the lock before calling Fetch")
	}
}

func TestWikiEnrichHandlerSkipsWhenSummaryEmpty(t *testing.T) {
	g, am, actID := buildGraphWithAction(t, "wiki_enrich")
	am.Inject(actID, 0.5, "input")

	reg := NewRegistry()
	reg.Register("wiki_enrich", NewWikiEnrichHandler(adapters.NoopSummaryFetcher{}, adapters.NoopTripleExtractor{}, nil))
	eval := NewEvaluator(nil)
	ex := NewExecutor(reg, eval, DefaultThreshold, nil, nil)

	results := ex.RunEligible(context.Background(), g, am, "", "")
	if len(results) != 1 || results[0].Err != nil {
		t.Fatalf("got %+v, want one successful (no-op) result", results)
	}
	if g.NodeCount() != 2 {
		t.Fatalf("got %d nodes, want unchanged 2 (no enrichment happened)", g.NodeCount())
	}
}
