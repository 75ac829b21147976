package graph

import (
	"math/rand"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newstrace/internal/types"
)

func sampleProfiles() []types.JournalistProfile {
	return []types.JournalistProfile{
		{Name: "Jane Doe", Beat: "World", ArticlesCount: 3},
		{Name: "John Smith", Beat: "Politics", ArticlesCount: 2},
		{Name: "Ana Reyes", Beat: "World", ArticlesCount: 1},
	}
}

func TestBuildBipartite(t *testing.T) {
	g := Build(sampleProfiles())

	// 3 journalists + 2 distinct beats.
	require.Len(t, g.Nodes, 5)
	require.Len(t, g.Edges, 3)

	kinds := map[string]int{}
	for _, n := range g.Nodes {
		kinds[n.Kind]++
	}
	assert.Equal(t, 3, kinds[types.NodeJournalist])
	assert.Equal(t, 2, kinds[types.NodeBeat])

	// Every edge runs journalist -> beat.
	nodesByID := map[string]types.Node{}
	for _, n := range g.Nodes {
		nodesByID[n.ID] = n
	}
	for _, e := range g.Edges {
		assert.Equal(t, types.NodeJournalist, nodesByID[e.From].Kind, "edge %v", e)
		assert.Equal(t, types.NodeBeat, nodesByID[e.To].Kind, "edge %v", e)
	}
}

func TestBuildDeterministicAcrossPermutations(t *testing.T) {
	profiles := sampleProfiles()
	want := Build(profiles)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 10; i++ {
		shuffled := append([]types.JournalistProfile(nil), profiles...)
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})
		got := Build(shuffled)
		if !reflect.DeepEqual(want, got) {
			t.Fatalf("permutation %d produced different graph:\nwant %+v\ngot  %+v", i, want, got)
		}
	}
}

func TestBuildSharedBeatSingleNode(t *testing.T) {
	g := Build([]types.JournalistProfile{
		{Name: "A B", Beat: "World"},
		{Name: "C D", Beat: "World"},
	})

	beats := 0
	for _, n := range g.Nodes {
		if n.Kind == types.NodeBeat {
			beats++
		}
	}
	assert.Equal(t, 1, beats)
	assert.Len(t, g.Edges, 2)
}

func TestBuildEmpty(t *testing.T) {
	g := Build(nil)
	assert.NotNil(t, g.Nodes)
	assert.NotNil(t, g.Edges)
	assert.Empty(t, g.Nodes)
	assert.Empty(t, g.Edges)
}

func TestBuildSkipsIncompleteProfiles(t *testing.T) {
	g := Build([]types.JournalistProfile{
		{Name: "", Beat: "World"},
		{Name: "Jane Doe", Beat: ""},
		{Name: "Jane Doe", Beat: "World"},
	})
	assert.Len(t, g.Nodes, 2)
	assert.Len(t, g.Edges, 1)
}
