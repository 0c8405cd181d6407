package graph

import "go.uber.org/zap"

// Graph is a directed, typed multigraph with adjacency indices kept
// consistent by construction. It is not internally synchronized: per
// the kernel serializes all graph access under a single coarse lock shared
// with the activation manager, so Graph itself stays a plain value type the
// way an in-process cache would.
type Graph struct {
	nodes    map[string]*Node
	outEdges map[string][]*Edge
	inEdges  map[string][]*Edge
	order    []string // node ids in insertion order, for deterministic primary election

	logger *zap.Logger
}

// New creates an empty graph.
func New(logger *zap.Logger) *Graph {
	return &Graph{
		nodes:    make(map[string]*Node),
		outEdges: make(map[string][]*Edge),
		inEdges:  make(map[string][]*Edge),
		logger:   logger,
	}
}

// AddNode inserts n, failing with ErrDuplicateID if its id is already present.
func (g *Graph) AddNode(n *Node) error {
	if _, exists := g.nodes[n.ID]; exists {
		return ErrDuplicateID
	}
	g.nodes[n.ID] = n
	g.order = append(g.order, n.ID)
	return nil
}

// AddEdge inserts e, failing with ErrMissingEndpoint if either endpoint is
// absent. Inserting an edge that duplicates an existing (src,dst,relation)
// triple is a silent no-op that returns nil.
func (g *Graph) AddEdge(e *Edge) error {
	if _, ok := g.nodes[e.Src]; !ok {
		return ErrMissingEndpoint
	}
	if _, ok := g.nodes[e.Dst]; !ok {
		return ErrMissingEndpoint
	}
	for _, existing := range g.outEdges[e.Src] {
		if existing.Dst == e.Dst && existing.Relation == e.Relation {
			return nil
		}
	}
	g.outEdges[e.Src] = append(g.outEdges[e.Src], e)
	g.inEdges[e.Dst] = append(g.inEdges[e.Dst], e)
	return nil
}

// GetNode returns the node with the given id, or nil if absent.
func (g *Graph) GetNode(id string) *Node {
	return g.nodes[id]
}

// HasNode reports whether id is present.
func (g *Graph) HasNode(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// Neighbors returns the destination ids of id's outgoing edges, in the
// order the edges were added.
func (g *Graph) Neighbors(id string) []string {
	edges := g.outEdges[id]
	out := make([]string, len(edges))
	for i, e := range edges {
		out[i] = e.Dst
	}
	return out
}

// OutEdges returns the outgoing edges of id, in insertion order.
func (g *Graph) OutEdges(id string) []*Edge {
	return g.outEdges[id]
}

// InEdges returns the incoming edges of id, in insertion order.
func (g *Graph) InEdges(id string) []*Edge {
	return g.inEdges[id]
}

// GetEdgeWeight returns the weight of the first edge from src to dst
// (any relation), or 0 if none exists.
func (g *Graph) GetEdgeWeight(src, dst string) float64 {
	for _, e := range g.outEdges[src] {
		if e.Dst == dst {
			return e.Weight
		}
	}
	return 0
}

// NodeIDs returns all node ids in insertion order.
func (g *Graph) NodeIDs() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// FindByName returns the id of the first node (by insertion order) whose
// attributes.name matches name after normalization, or "" if none.
func (g *Graph) FindByName(name string) string {
	target := Normalize(name)
	for _, id := range g.order {
		n := g.nodes[id]
		if Normalize(n.Name()) == target {
			return id
		}
	}
	return ""
}

// MergeByName groups nodes by normalized name and, within each group of
// size >1, elects the first-inserted node as primary, rewrites every
// in-edge and out-edge of the duplicates to reference the primary
// (preserving relation and weight), then deletes the duplicates. It is
// idempotent: a second call on an already-merged graph is a no-op.
func (g *Graph) MergeByName() {
	groups := make(map[string][]string)
	for _, id := range g.order {
		n := g.nodes[id]
		norm := Normalize(n.Name())
		if norm == "" {
			continue
		}
		groups[norm] = append(groups[norm], id)
	}

	for norm, ids := range groups {
		if len(ids) < 2 {
			continue
		}
		primary := ids[0]
		for _, dup := range ids[1:] {
			g.migrateEdges(dup, primary)
			g.deleteNode(dup)
		}
		if g.logger != nil {
			g.logger.Info("merged duplicate nodes by name",
				zap.String("name", norm),
				zap.String("primary", primary),
				zap.Int("duplicates", len(ids)-1))
		}
	}
}

// migrateEdges rewrites every edge touching dup to touch primary instead,
// preserving relation and weight, and skipping triples that would become
// duplicates of an edge primary already has.
func (g *Graph) migrateEdges(dup, primary string) {
	for _, e := range g.outEdges[dup] {
		dst := e.Dst
		if dst == dup {
			dst = primary
		}
		_ = g.AddEdge(&Edge{Src: primary, Dst: dst, Relation: e.Relation, Weight: e.Weight})
	}
	for _, e := range g.inEdges[dup] {
		if e.Src == dup {
			continue // self-loop already handled via outEdges
		}
		_ = g.AddEdge(&Edge{Src: e.Src, Dst: primary, Relation: e.Relation, Weight: e.Weight})
	}
}

// deleteNode removes a node and all edges touching it, along with its
// adjacency entries. Used only by MergeByName and the editor surface.
func (g *Graph) deleteNode(id string) {
	delete(g.nodes, id)
	delete(g.outEdges, id)
	delete(g.inEdges, id)

	for src, edges := range g.outEdges {
		filtered := edges[:0]
		for _, e := range edges {
			if e.Dst != id {
				filtered = append(filtered, e)
			}
		}
		g.outEdges[src] = filtered
	}
	for dst, edges := range g.inEdges {
		filtered := edges[:0]
		for _, e := range edges {
			if e.Src != id {
				filtered = append(filtered, e)
			}
		}
		g.inEdges[dst] = filtered
	}

	for i, oid := range g.order {
		if oid == id {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
}

// DeleteNode removes a node (and edges touching it) from the graph. It is
// the editor-facing deletion entry point; nothing in this module calls it.
func (g *Graph) DeleteNode(id string) {
	g.deleteNode(id)
}

// Clone returns a deep copy of g, safe to read, mutate, or persist
// independently of the original. Used to take a point-in-time snapshot
// while holding a lock, so the actual Save I/O can run unlocked.
func (g *Graph) Clone() *Graph {
	out := &Graph{
		nodes:    make(map[string]*Node, len(g.nodes)),
		outEdges: make(map[string][]*Edge, len(g.outEdges)),
		inEdges:  make(map[string][]*Edge, len(g.inEdges)),
		order:    make([]string, len(g.order)),
		logger:   g.logger,
	}
	copy(out.order, g.order)

	for id, n := range g.nodes {
		attrs := make(map[string]interface{}, len(n.Attributes))
		for k, v := range n.Attributes {
			attrs[k] = v
		}
		out.nodes[id] = &Node{
			ID:         n.ID,
			Type:       n.Type,
			BaseWeight: n.BaseWeight,
			MemoryType: n.MemoryType,
			Attributes: attrs,
		}
	}
	for src, edges := range g.outEdges {
		cp := make([]*Edge, len(edges))
		for i, e := range edges {
			ec := *e
			cp[i] = &ec
		}
		out.outEdges[src] = cp
	}
	for dst, edges := range g.inEdges {
		cp := make([]*Edge, len(edges))
		for i, e := range edges {
			ec := *e
			cp[i] = &ec
		}
		out.inEdges[dst] = cp
	}
	return out
}
