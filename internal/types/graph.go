package types

// Node kinds in the journalist↔beat graph.
const (
	NodeJournalist = "journalist"
	NodeBeat       = "beat"
)

// Node is a vertex in the bipartite journalist↔beat graph.
type Node struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Kind  string `json:"kind"`
}

// Edge connects a journalist node to its beat node.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// NetworkGraph is the derived, read-only relationship graph. It is rebuilt
// from the final profile set and never mutated incrementally.
type NetworkGraph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}
