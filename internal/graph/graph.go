// Package graph derives the journalist-to-beat bipartite graph from a set
// of aggregated profiles. Construction is deterministic: the same profiles
// in any order produce byte-identical output.
package graph

import (
	"sort"

	"newstrace/internal/types"
)

// Build returns the bipartite graph for the given profiles: one node per
// journalist, one node per referenced beat, and one edge per
// journalist-beat pairing. Node and edge slices are sorted by ID so output
// is stable regardless of input order. Empty input yields empty (non-nil)
// slices.
func Build(profiles []types.JournalistProfile) *types.NetworkGraph {
	journalists := make(map[string]struct{})
	beats := make(map[string]struct{})
	edges := make(map[[2]string]struct{})

	for _, p := range profiles {
		if p.Name == "" || p.Beat == "" {
			continue
		}
		journalists[p.Name] = struct{}{}
		beats[p.Beat] = struct{}{}
		edges[[2]string{journalistID(p.Name), beatID(p.Beat)}] = struct{}{}
	}

	g := &types.NetworkGraph{
		Nodes: make([]types.Node, 0, len(journalists)+len(beats)),
		Edges: make([]types.Edge, 0, len(edges)),
	}

	for name := range journalists {
		g.Nodes = append(g.Nodes, types.Node{
			ID:    journalistID(name),
			Label: name,
			Kind:  types.NodeJournalist,
		})
	}
	for beat := range beats {
		g.Nodes = append(g.Nodes, types.Node{
			ID:    beatID(beat),
			Label: beat,
			Kind:  types.NodeBeat,
		})
	}
	sort.Slice(g.Nodes, func(i, j int) bool { return g.Nodes[i].ID < g.Nodes[j].ID })

	for e := range edges {
		g.Edges = append(g.Edges, types.Edge{From: e[0], To: e[1]})
	}
	sort.Slice(g.Edges, func(i, j int) bool {
		if g.Edges[i].From != g.Edges[j].From {
			return g.Edges[i].From < g.Edges[j].From
		}
		return g.Edges[i].To < g.Edges[j].To
	})

	return g
}

func journalistID(name string) string { return "j:" + name }

func beatID(beat string) string { return "b:" + beat }
