package cognitive

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/nidhogg/cogkernel/internal/action"
	"github.com/nidhogg/cogkernel/internal/activation"
	"github.com/nidhogg/cogkernel/internal/graph"
)

func newTestLoop(t *testing.T) (*Loop, *graph.Graph, *activation.Manager) {
	t.Helper()
	g := graph.New(nil)
	n, err := graph.NewNode("Concept_X_aaaaaaaa", graph.Concept, 0.5, graph.Semantic)
	if err != nil {
		t.Fatal(err)
	}
	n.Attributes[graph.AttrName] = "X"
	if err := g.AddNode(n); err != nil {
		t.Fatal(err)
	}
	am := activation.New(g, nil, nil)
	reg := action.NewRegistry()
	eval := action.NewEvaluator(nil)

	var mu sync.Mutex
	executor := action.NewExecutor(reg, eval, action.DefaultThreshold, &mu, nil)
	l := New(g, am, executor, &mu, 10*time.Millisecond, 4, nil)
	return l, g, am
}

func TestTickDiffuseRegimeDrifts(t *testing.T) {
	l, _, am := newTestLoop(t)
	am.SetMode(0) // ensure diffuse
	status := l.tick(context.Background())
	if status.Mode >= actionDispatchThreshold {
		t.Fatalf("expected mode to stay diffuse after relaxation, got %v", status.Mode)
	}
	if status.DriftDescription == "" {
		t.Fatal("expected a drift description from the diffuse-regime tick")
	}
}

func TestTickFocusedRegimeDispatchesActions(t *testing.T) {
	l, g, am := newTestLoop(t)
	act, err := graph.NewNode("Action_Fire_bbbbbbbb", graph.Action, 0.5, graph.Semantic)
	if err != nil {
		t.Fatal(err)
	}
	act.Attributes[graph.AttrName] = "Fire"
	act.Attributes[graph.AttrCode] = `print("firing")`
	if err := g.AddNode(act); err != nil {
		t.Fatal(err)
	}
	am.SetMode(1.0)
	am.Inject(act.ID, 0.5, "input")

	status := l.tick(context.Background())
	if status.Mode < actionDispatchThreshold {
		t.Fatalf("expected mode to remain focused after relaxation, got %v", status.Mode)
	}
	if status.ActionsFired != 1 {
		t.Fatalf("got %d actions fired, want 1", status.ActionsFired)
	}
	if am.GetActivation(act.ID) != action.PinValue {
		t.Fatalf("got %v, want pinned to %v", am.GetActivation(act.ID), action.PinValue)
	}
}

func TestStartStopAndPublish(t *testing.T) {
	l, _, _ := newTestLoop(t)
	l.Start()
	select {
	case status := <-l.Statuses():
		if status.Tick < 1 {
			t.Fatalf("got tick %d, want >= 1", status.Tick)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a published status")
	}
	l.Stop()
}

func TestStatusRecordStringIdleWhenNothingHappened(t *testing.T) {
	s := StatusRecord{Tick: 3, Mode: 0.1, TopNodeID: "", TopActivation: 0, ActiveCount: 0}
	got := s.String()
	if got == "" {
		t.Fatal("expected non-empty status line")
	}
	if want := "tick=3 mode=0.10 top=-(0.00) active=0 idle"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
