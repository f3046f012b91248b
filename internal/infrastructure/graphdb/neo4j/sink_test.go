package neo4j

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/uniao/internal/domain/entities"
	"github.com/ersonp/uniao/internal/infrastructure/config"
)

func sampleGraph() *entities.Graph {
	return &entities.Graph{
		UnionID: "u1",
		Nodes: []entities.Node{
			{ID: "union:u1", Kind: entities.NodeUnion, Label: "Ana & Bruno", EntityID: "u1",
				Intents: []entities.Intent{{Kind: entities.IntentOpenSettings, TargetID: "u1"}}},
			{ID: "member:m1", Kind: entities.NodeMember, Label: "Lia", EntityID: "m1",
				Details: map[string]string{"age": "10"}},
			{ID: "asset:a1", Kind: entities.NodeAsset, Label: "House", EntityID: "a1",
				Details: map[string]string{"total_paid": "100"}},
		},
		Edges: []entities.Edge{
			{ID: "has_member:union:u1->member:m1", Kind: entities.EdgeHasMember, Source: "union:u1", Target: "member:m1"},
			{ID: "owns_asset:union:u1->asset:a1", Kind: entities.EdgeOwnsAsset, Source: "union:u1", Target: "asset:a1"},
			{ID: "earmarked_for:asset:a1->member:m1", Kind: entities.EdgeEarmarkedFor, Source: "asset:a1", Target: "member:m1"},
		},
	}
}

func TestSink_Publish(t *testing.T) {
	client := NewMemoryClient()
	sink := NewSink(client, nil)

	require.NoError(t, sink.Publish(context.Background(), sampleGraph()))

	calls := client.WriteCalls()
	// delete, three node kinds, three edge kinds
	require.Len(t, calls, 7)

	assert.Contains(t, calls[0].Query, "DETACH DELETE")
	assert.Equal(t, "u1", calls[0].Params["union_id"])

	assert.Contains(t, calls[1].Query, "SET x:Union")
	nodes, ok := calls[2].Params["nodes"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, nodes, 1)
	assert.Equal(t, "member:m1", nodes[0]["id"])
	assert.Equal(t, map[string]any{"detail_age": "10"}, nodes[0]["details"])

	rootNodes := calls[1].Params["nodes"].([]map[string]any)
	assert.Equal(t, []string{"open_settings:u1"}, rootNodes[0]["intents"])

	var relTypes []string
	for _, c := range calls[4:] {
		for _, rel := range []string{"EARMARKED_FOR", "HAS_MEMBER", "OWNS_ASSET"} {
			if strings.Contains(c.Query, ":"+rel+" ") {
				relTypes = append(relTypes, rel)
			}
		}
	}
	assert.Equal(t, []string{"EARMARKED_FOR", "HAS_MEMBER", "OWNS_ASSET"}, relTypes)
}

func TestSink_Publish_Errors(t *testing.T) {
	t.Run("missing union id", func(t *testing.T) {
		sink := NewSink(NewMemoryClient(), nil)
		assert.Error(t, sink.Publish(context.Background(), &entities.Graph{}))
		assert.Error(t, sink.Publish(context.Background(), nil))
	})

	t.Run("client failure", func(t *testing.T) {
		client := NewMemoryClient().WithError(errors.New("connection refused"))
		err := NewSink(client, nil).Publish(context.Background(), sampleGraph())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "clearing previous projection")
	})

	t.Run("unknown edge kind", func(t *testing.T) {
		g := sampleGraph()
		g.Edges = append(g.Edges, entities.Edge{ID: "x", Kind: "loves", Source: "member:m1", Target: "asset:a1"})
		err := NewSink(NewMemoryClient(), nil).Publish(context.Background(), g)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "loves")
	})
}

func TestSink_Counts(t *testing.T) {
	client := NewMemoryClient()
	client.PushReadResult(Result{Records: []Record{{"nodes": int64(3), "edges": int64(3)}}})
	sink := NewSink(client, nil)

	nodes, edges, err := sink.Counts(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), nodes)
	assert.Equal(t, int64(3), edges)
	require.Len(t, client.ReadCalls(), 1)
	assert.Equal(t, "u1", client.ReadCalls()[0].Params["union_id"])

	nodes, edges, err = sink.Counts(context.Background(), "u1")
	require.NoError(t, err)
	assert.Zero(t, nodes)
	assert.Zero(t, edges)
}

func TestSink_Ping(t *testing.T) {
	client := NewMemoryClient().WithConnectivityError(errors.New("down"))
	assert.EqualError(t, NewSink(client, nil).Ping(context.Background()), "down")
}

func TestNewClient_MissingURI(t *testing.T) {
	_, err := NewClient(context.Background(), config.Neo4jConfig{})
	assert.ErrorIs(t, err, ErrMissingURI)
}

func TestNodeKindLabel(t *testing.T) {
	assert.Equal(t, "Asset", nodeKindLabel(entities.NodeAsset))
	assert.Equal(t, "RealEstate", nodeKindLabel("real_estate"))
}
