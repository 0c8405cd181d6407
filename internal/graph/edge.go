package graph

// Edge is a directed, weighted, relation-labeled connection between two
// node ids. Relation strings are data, not an enum.
type Edge struct {
	Src      string  `json:"src"`
	Dst      string  `json:"dst"`
	Relation string  `json:"relation"`
	Weight   float64 `json:"weight"`
}
