// Package graph implements the typed knowledge-graph store: nodes and
// edges, adjacency indices, JSON persistence, and name-based lookup/merge.
package graph

import "errors"

// NodeType is one of the whitelisted node kinds.
type NodeType string

const (
	Concept     NodeType = "Concept"
	Event       NodeType = "Event"
	Action      NodeType = "Action"
	Rule        NodeType = "Rule"
	Emotion     NodeType = "Emotion"
	Personality NodeType = "Personality"
)

// MemoryType distinguishes generic semantic facts from episodic events.
type MemoryType string

const (
	Semantic MemoryType = "semantic"
	Episodic MemoryType = "episodic"
)

// ErrInvalidNodeType is returned by NewNode when the type is not whitelisted.
var ErrInvalidNodeType = errors.New("graph: invalid node type")

// ErrDuplicateID is returned by Graph.AddNode for an id already present.
var ErrDuplicateID = errors.New("graph: duplicate node id")

// ErrMissingEndpoint is returned by Graph.AddEdge when src or dst is absent.
var ErrMissingEndpoint = errors.New("graph: missing edge endpoint")

var validNodeTypes = map[NodeType]bool{
	Concept:     true,
	Event:       true,
	Action:      true,
	Rule:        true,
	Emotion:     true,
	Personality: true,
}

// Reserved attribute keys with defined semantics.
const (
	AttrName               = "name"
	AttrCreatedAt           = "created_at"
	AttrLastAccessed        = "last_accessed"
	AttrWeight              = "weight"
	AttrSource              = "source"
	AttrCode                = "code"
	AttrEnrichedFromWiki    = "enriched_from_wiki"
	AttrWikiSummaryLength   = "wiki_summary_length"
)

// Node is a graph vertex. Attributes is a heterogeneous scalar bag; see the
// Attr* constants above for keys with reserved meaning.
type Node struct {
	ID         string                 `json:"id"`
	Type       NodeType               `json:"type"`
	BaseWeight float64                `json:"base_weight"`
	MemoryType MemoryType             `json:"memory_type"`
	Attributes map[string]interface{} `json:"attributes"`
}

// NewNode constructs a Node, enforcing the node-type whitelist. Use this
// constructor for programmatically created nodes; Load bypasses the check
// to remain forward-compatible with graphs written by a newer build.
func NewNode(id string, typ NodeType, baseWeight float64, memType MemoryType) (*Node, error) {
	if !validNodeTypes[typ] {
		return nil, ErrInvalidNodeType
	}
	return &Node{
		ID:         id,
		Type:       typ,
		BaseWeight: baseWeight,
		MemoryType: memType,
		Attributes: make(map[string]interface{}),
	}, nil
}

// Name returns the node's "name" attribute, or "" if unset or not a string.
func (n *Node) Name() string {
	if n == nil || n.Attributes == nil {
		return ""
	}
	if v, ok := n.Attributes[AttrName]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Code returns the node's "code" attribute (meaningful only on Action nodes).
func (n *Node) Code() string {
	if n == nil || n.Attributes == nil {
		return ""
	}
	if v, ok := n.Attributes[AttrCode]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
