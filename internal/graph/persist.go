package graph

import (
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"
)

// dumpFile mirrors the on-disk full-dump JSON shape.
type dumpFile struct {
	Nodes []dumpNode `json:"nodes"`
	Edges []dumpEdge `json:"edges"`
}

type dumpNode struct {
	ID         string                 `json:"id"`
	Type       string                 `json:"type"`
	BaseWeight float64                `json:"base_weight"`
	MemoryType string                 `json:"memory_type"`
	Attributes map[string]interface{} `json:"attributes"`
}

type dumpEdge struct {
	Src      string  `json:"src"`
	Dst      string  `json:"dst"`
	Relation string  `json:"relation"`
	Weight   float64 `json:"weight"`
}

// Save writes a full JSON dump of the graph to path. Every node is emitted
// once (in insertion order) and every edge once, by iterating out-adjacency
// in node order.
func (g *Graph) Save(path string) error {
	dump := dumpFile{
		Nodes: make([]dumpNode, 0, len(g.nodes)),
		Edges: make([]dumpEdge, 0),
	}
	for _, id := range g.order {
		n := g.nodes[id]
		dump.Nodes = append(dump.Nodes, dumpNode{
			ID:         n.ID,
			Type:       string(n.Type),
			BaseWeight: n.BaseWeight,
			MemoryType: string(n.MemoryType),
			Attributes: n.Attributes,
		})
		for _, e := range g.outEdges[id] {
			dump.Edges = append(dump.Edges, dumpEdge{
				Src: e.Src, Dst: e.Dst, Relation: e.Relation, Weight: e.Weight,
			})
		}
	}

	data, err := json.MarshalIndent(dump, "", "  ")
	if err != nil {
		return fmt.Errorf("graph: marshal dump: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("graph: write %s: %w", path, err)
	}
	return nil
}

// Load reads a full JSON dump from path and returns a populated graph.
// A missing file yields an empty graph and a logged warning, not an error.
// Unlike AddNode via NewNode, Load does not enforce the node-type
// whitelist, so graphs written by a newer build with additional node
// types still round-trip.
func Load(path string, logger *zap.Logger) (*Graph, error) {
	g := New(logger)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if logger != nil {
				logger.Warn("graph dump not found, starting empty", zap.String("path", path))
			}
			return g, nil
		}
		return nil, fmt.Errorf("graph: read %s: %w", path, err)
	}

	var dump dumpFile
	if err := json.Unmarshal(data, &dump); err != nil {
		return nil, fmt.Errorf("graph: parse %s: %w", path, err)
	}

	for _, dn := range dump.Nodes {
		attrs := dn.Attributes
		if attrs == nil {
			attrs = make(map[string]interface{})
		}
		n := &Node{
			ID:         dn.ID,
			Type:       NodeType(dn.Type),
			BaseWeight: dn.BaseWeight,
			MemoryType: MemoryType(dn.MemoryType),
			Attributes: attrs,
		}
		if err := g.AddNode(n); err != nil {
			return nil, fmt.Errorf("graph: load node %s: %w", dn.ID, err)
		}
	}
	for _, de := range dump.Edges {
		e := &Edge{Src: de.Src, Dst: de.Dst, Relation: de.Relation, Weight: de.Weight}
		if err := g.AddEdge(e); err != nil {
			return nil, fmt.Errorf("graph: load edge %s->%s: %w", de.Src, de.Dst, err)
		}
	}

	if logger != nil {
		logger.Info("graph loaded",
			zap.String("path", path),
			zap.Int("nodes", len(dump.Nodes)),
			zap.Int("edges", len(dump.Edges)))
	}
	return g, nil
}
