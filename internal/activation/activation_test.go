package activation

import (
	"math/rand"
	"testing"

	"github.com/nidhogg/cogkernel/internal/graph"
)

func buildChain(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New(nil)
	for _, id := range []string{"a", "b", "c"} {
		n, err := graph.NewNode(id, graph.Concept, 0.5, graph.Semantic)
		if err != nil {
			t.Fatal(err)
		}
		n.Attributes[graph.AttrName] = id
		if err := g.AddNode(n); err != nil {
			t.Fatal(err)
		}
	}
	g.AddEdge(&graph.Edge{Src: "a", Dst: "b", Relation: "NEXT", Weight: 1.0})
	g.AddEdge(&graph.Edge{Src: "b", Dst: "c", Relation: "NEXT", Weight: 1.0})
	return g
}

func TestInjectIgnoresMissingNode(t *testing.T) {
	g := buildChain(t)
	m := New(g, rand.New(rand.NewSource(1)), nil)
	m.Inject("nonexistent", 1.0, "input")
	if m.GetActivation("nonexistent") != 0 {
		t.Fatal("expected injection into missing node to be ignored")
	}
}

func TestSpreadCapAndThreshold(t *testing.T) {
	g := buildChain(t)
	m := New(g, rand.New(rand.NewSource(1)), nil)
	m.Inject("a", 10.0, "input") // large enough to push b over the 2.0 cap
	m.Spread()

	if got := m.GetActivation("b"); got != activationCap {
		t.Fatalf("got %v, want capped at %v", got, activationCap)
	}
	// c has not received anything yet: spread is a single synchronous step
	// reading the pre-step snapshot, so b's newly-added energy has not
	// propagated to c in this same call.
	if got := m.GetActivation("c"); got != 0 {
		t.Fatalf("got %v, want 0 (single relaxation step)", got)
	}
}

func TestSpreadAppliesEachParallelEdgesOwnWeight(t *testing.T) {
	g := graph.New(nil)
	for _, id := range []string{"a", "b"} {
		n, err := graph.NewNode(id, graph.Concept, 0.5, graph.Semantic)
		if err != nil {
			t.Fatal(err)
		}
		n.Attributes[graph.AttrName] = id
		if err := g.AddNode(n); err != nil {
			t.Fatal(err)
		}
	}
	g.AddEdge(&graph.Edge{Src: "a", Dst: "b", Relation: "LIKES", Weight: 1.0})
	g.AddEdge(&graph.Edge{Src: "a", Dst: "b", Relation: "NEAR", Weight: 0.2})

	m := New(g, rand.New(rand.NewSource(1)), nil)
	m.Inject("a", 1.0, "input")
	m.Spread()

	// Two out-edges, so d=2: 1.0*1.0*spread/2 + 1.0*0.2*spread/2, summed in
	// float64 in edge order, as Spread does.
	spread := float64(diffuseSpread)
	want := 1.0*1.0*spread/2 + 1.0*0.2*spread/2
	if got := m.GetActivation("b"); got != want {
		t.Fatalf("got %v, want %v (each parallel edge contributing its own weight)", got, want)
	}
}

func TestDecayRemovesNonPositive(t *testing.T) {
	g := buildChain(t)
	m := New(g, rand.New(rand.NewSource(1)), nil)
	m.Inject("a", 0.05, "input")
	m.Decay() // effective diffuse decay is 0.10 > 0.05
	if m.GetActivation("a") != 0 {
		t.Fatalf("expected activation removed after decay, got %v", m.GetActivation("a"))
	}
	if _, ok := m.sources["a"]; ok {
		t.Fatal("expected source entry removed alongside activation")
	}
}

func TestSetModeClampsAndAdjustsParams(t *testing.T) {
	g := buildChain(t)
	m := New(g, rand.New(rand.NewSource(1)), nil)

	m.SetMode(2.0)
	if m.Mode() != 1.0 {
		t.Fatalf("got mode %v, want clamped to 1.0", m.Mode())
	}
	if m.decay != focusedDecay {
		t.Fatalf("got decay %v, want focused %v", m.decay, focusedDecay)
	}

	m.SetMode(-10.0)
	if m.Mode() != 0 {
		t.Fatalf("got mode %v, want clamped to 0", m.Mode())
	}
	if m.decay != diffuseDecay {
		t.Fatalf("got decay %v, want diffuse %v (the %v floor never binds for mode in [0,1])", m.decay, diffuseDecay, minDecay)
	}
}

func TestClearBelow(t *testing.T) {
	g := buildChain(t)
	m := New(g, rand.New(rand.NewSource(1)), nil)
	m.Inject("a", 0.05, "input")
	m.Inject("b", 0.5, "input")
	m.ClearBelow(0.1)
	if m.GetActivation("a") != 0 {
		t.Fatal("expected low activation cleared")
	}
	if m.GetActivation("b") != 0.5 {
		t.Fatal("expected activation above threshold to survive")
	}
}

func TestGetTop(t *testing.T) {
	g := buildChain(t)
	m := New(g, rand.New(rand.NewSource(1)), nil)
	if m.GetTop() != "" {
		t.Fatal("expected no top node when empty")
	}
	m.Inject("a", 0.5, "input")
	m.Inject("b", 1.5, "input")
	if top := m.GetTop(); top != "b" {
		t.Fatalf("got top %q, want b", top)
	}
}

func TestDriftAboveFocusedThresholdIsNoOp(t *testing.T) {
	g := buildChain(t)
	m := New(g, rand.New(rand.NewSource(1)), nil)
	m.SetMode(1.0) // fully focused
	if desc := m.Drift(); desc != "" {
		t.Fatalf("expected no drift in focused mode, got %q", desc)
	}
}

func TestDriftInjectsSomething(t *testing.T) {
	g := buildChain(t)
	m := New(g, rand.New(rand.NewSource(42)), nil)
	// mode starts at 0 (diffuse); run several drifts and confirm at least
	// one produces a dmn_assoc or dmn_random source entry somewhere.
	found := false
	for i := 0; i < 25; i++ {
		m.Drift()
	}
	for _, id := range g.NodeIDs() {
		src := m.Sources(id)
		if src["dmn_assoc"] > 0 || src["dmn_random"] > 0 {
			found = true
		}
	}
	if !found {
		t.Fatal("expected at least one dmn_assoc/dmn_random injection across 25 drifts")
	}
}

func TestSourcePathReachesOriginAndClearsFirstRelation(t *testing.T) {
	g := buildChain(t)
	m := New(g, rand.New(rand.NewSource(1)), nil)
	m.Inject("a", 1.0, "input")
	m.Spread() // a -> b carries "input"? no: spread doesn't touch sources.

	// Directly construct a provenance chain: a was injected with "input".
	path := m.SourcePath("a")
	if len(path) == 0 {
		t.Fatal("expected non-empty path")
	}
	if path[0].Relation != "" {
		t.Fatalf("expected first element's relation cleared, got %q", path[0].Relation)
	}
}
