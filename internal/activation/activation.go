// Package activation implements the spreading-activation dynamics engine:
// per-node activation scalars, source attribution, propagation, decay,
// associative drift, and the focused/diffuse mode parameter.
package activation

import (
	"math/rand"

	"github.com/nidhogg/cogkernel/internal/graph"
	"go.uber.org/zap"
)

const (
	diffuseDecay   = 0.10
	focusedDecay   = 0.20
	diffuseSpread  = 0.80
	focusedSpread  = 0.40
	minDecay       = 0.08
	activationCap  = 2.0
	spreadMinFlow  = 0.01
	driftThreshold = 0.4
	driftAssocBase = 0.2
	driftRandom    = 0.4
	driftRandomP   = 0.1
)

// Manager holds the activation state for a graph. It never mutates the
// graph itself — only the activation and sources maps. The graph
// exclusively owns nodes and edges; the manager holds a non-owning
// reference.
type Manager struct {
	g *graph.Graph

	activation map[string]float64
	sources    map[string]map[string]float64

	mode  float64 // 0 = diffuse, 1 = focused
	decay float64
	spread float64

	rng *rand.Rand

	logger *zap.Logger
}

// New creates a Manager bound to g, starting in the diffuse regime.
func New(g *graph.Graph, rng *rand.Rand, logger *zap.Logger) *Manager {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	m := &Manager{
		g:          g,
		activation: make(map[string]float64),
		sources:    make(map[string]map[string]float64),
		rng:        rng,
		logger:     logger,
	}
	m.recomputeParams()
	return m
}

func (m *Manager) recomputeParams() {
	d := diffuseDecay + (focusedDecay-diffuseDecay)*m.mode
	if d < minDecay {
		d = minDecay
	}
	m.decay = d
	m.spread = diffuseSpread - (diffuseSpread-focusedSpread)*m.mode
}

// Mode returns the current mode parameter in [0,1].
func (m *Manager) Mode() float64 { return m.mode }

// SetMode adjusts mode by delta, clamped to [0,1], and recomputes the
// decay/spread parameters from the new mode.
func (m *Manager) SetMode(delta float64) {
	m.mode += delta
	if m.mode < 0 {
		m.mode = 0
	}
	if m.mode > 1 {
		m.mode = 1
	}
	m.recomputeParams()
}

// Inject adds strength to node_id's activation and records the source tag's
// contribution. A missing node is silently ignored.
func (m *Manager) Inject(nodeID string, strength float64, sourceTag string) {
	if !m.g.HasNode(nodeID) {
		return
	}
	m.activation[nodeID] += strength
	if m.sources[nodeID] == nil {
		m.sources[nodeID] = make(map[string]float64)
	}
	m.sources[nodeID][sourceTag] += strength
}

// ClearBelow removes activations strictly less than threshold, along with
// their source entries. Used to reset stale background energy on new input.
func (m *Manager) ClearBelow(threshold float64) {
	for id, a := range m.activation {
		if a < threshold {
			delete(m.activation, id)
			delete(m.sources, id)
		}
	}
}

// GetActivation returns the current activation of id, or 0 if absent.
func (m *Manager) GetActivation(id string) float64 {
	return m.activation[id]
}

// Sources returns a copy of the source-tag contribution map for id, for
// inspection (e.g. by tests verifying drift provenance). Returns nil if id
// has no recorded sources.
func (m *Manager) Sources(id string) map[string]float64 {
	src := m.sources[id]
	if src == nil {
		return nil
	}
	out := make(map[string]float64, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

// Pin overwrites id's activation with value (rather than adding to it),
// clearing nothing else. Used by the action executor to pin a fired action
// below its firing threshold so it does not re-fire on the very next tick.
func (m *Manager) Pin(nodeID string, value float64) {
	if !m.g.HasNode(nodeID) {
		return
	}
	m.activation[nodeID] = value
}

// ActiveCount returns the number of nodes with a nonzero activation entry.
func (m *Manager) ActiveCount() int { return len(m.activation) }

// GetTop returns the id with maximum current activation, or "" if no node
// is active. Ties are broken deterministically by iterating node ids in
// graph insertion order and keeping the first strict maximum seen.
func (m *Manager) GetTop() string {
	best := ""
	bestVal := 0.0
	first := true
	for _, id := range m.g.NodeIDs() {
		a, ok := m.activation[id]
		if !ok {
			continue
		}
		if first || a > bestVal {
			best = id
			bestVal = a
			first = false
		}
	}
	return best
}

// Spread performs one synchronous relaxation step: for every active node
// with out-edges, flow is pushed across each individual edge proportional
// to that edge's own weight and split evenly across the node's out-degree
// (parallel edges to the same destination each contribute their own
// weight), scaled by the current spread factor. Flows at or below 0.01 are
// discarded. The step reads from a
// snapshot of pre-step activations so within-step updates never feed back
// into the same pass, and afterwards caps every activation at 2.0. Source
// attribution is untouched — only Inject and Drift update it.
func (m *Manager) Spread() {
	snapshot := make(map[string]float64, len(m.activation))
	for id, a := range m.activation {
		snapshot[id] = a
	}

	contrib := make(map[string]float64)
	for id, a := range snapshot {
		edges := m.g.OutEdges(id)
		d := len(edges)
		if d == 0 {
			continue
		}
		for _, e := range edges {
			flow := a * e.Weight * m.spread / float64(d)
			if flow <= spreadMinFlow {
				continue
			}
			contrib[e.Dst] += flow
		}
	}

	for dst, flow := range contrib {
		v := m.activation[dst] + flow
		if v > activationCap {
			v = activationCap
		}
		m.activation[dst] = v
	}
	for id, v := range m.activation {
		if v > activationCap {
			m.activation[id] = activationCap
		}
	}
}

// Decay subtracts the effective decay rate from every active node, removing
// entries that fall to or below zero. It never creates new activation
// entries.
func (m *Manager) Decay() {
	for id, a := range m.activation {
		v := a - m.decay
		if v <= 0 {
			delete(m.activation, id)
			delete(m.sources, id)
			continue
		}
		m.activation[id] = v
	}
}

// Drift injects a small amount of associative or random activation,
// simulating default-mode wandering. Only meaningful when mode <= 0.4;
// callers are expected to gate on that, but Drift also
// refuses to act above the focused threshold as a second line of defense.
// Returns a short description of what happened, or "" if nothing fired.
func (m *Manager) Drift() string {
	if m.mode > driftThreshold {
		return ""
	}

	top := m.GetTop()
	if top != "" && m.rng.Float64() >= driftRandomP {
		neighbors := m.g.OutEdges(top)
		if len(neighbors) > 0 {
			e := neighbors[m.rng.Intn(len(neighbors))]
			energy := driftAssocBase * (1.0 - m.mode)
			m.Inject(e.Dst, energy, "dmn_assoc")
			return "assoc: " + top + " -> " + e.Dst
		}
	}

	ids := m.g.NodeIDs()
	if len(ids) == 0 {
		return ""
	}
	pick := ids[m.rng.Intn(len(ids))]
	m.Inject(pick, driftRandom, "dmn_random")
	return "random: " + pick
}

// SourcePath reconstructs the provenance chain for id: repeatedly follow
// the source with the greatest recorded contribution, looking up the
// relation on the edge from that source to the current node (defaulting to
// RELATED_TO if none exists), stopping on a cycle or when no sources
// remain. The result is reversed so it reads origin-to-target, and the
// first element's relation is cleared (it has no preceding edge).
func (m *Manager) SourcePath(id string) []SourceStep {
	var chain []SourceStep
	visited := make(map[string]bool)
	current := id

	for {
		if visited[current] {
			break
		}
		visited[current] = true

		best := bestSource(m.sources[current])
		if best == "" {
			break
		}
		relation := m.relationBetween(best, current)
		chain = append(chain, SourceStep{NodeID: current, Relation: relation})
		current = best
	}
	// Include the origin node itself, with no incoming relation.
	chain = append(chain, SourceStep{NodeID: current, Relation: ""})

	// Reverse in place.
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	if len(chain) > 0 {
		chain[0].Relation = ""
	}
	return chain
}

// SourceStep is one hop in a provenance chain: the node and the relation
// of the edge leading into it from the previous step.
type SourceStep struct {
	NodeID   string
	Relation string
}

func bestSource(sources map[string]float64) string {
	best := ""
	bestVal := 0.0
	first := true
	for src, v := range sources {
		if first || v > bestVal {
			best = src
			bestVal = v
			first = false
		}
	}
	return best
}

func (m *Manager) relationBetween(src, dst string) string {
	for _, e := range m.g.OutEdges(src) {
		if e.Dst == dst {
			return e.Relation
		}
	}
	return "RELATED_TO"
}
