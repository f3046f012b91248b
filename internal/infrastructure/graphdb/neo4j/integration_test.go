package neo4j

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/uniao/internal/infrastructure/config"
)

// liveSink connects to the Neo4j named by UNIAO_NEO4J_TEST_URI. The test is
// skipped unless INTEGRATION_TEST=1.
func liveSink(t *testing.T) *Sink {
	t.Helper()
	if os.Getenv("INTEGRATION_TEST") != "1" {
		t.Skip("set INTEGRATION_TEST=1 to run against a live Neo4j")
	}
	uri := os.Getenv("UNIAO_NEO4J_TEST_URI")
	if uri == "" {
		uri = "neo4j://localhost:7687"
	}

	client, err := NewClient(context.Background(), config.Neo4jConfig{
		URI:      uri,
		Username: os.Getenv("UNIAO_NEO4J_TEST_USERNAME"),
		Password: os.Getenv("UNIAO_NEO4J_TEST_PASSWORD"),
	})
	require.NoError(t, err)

	sink := NewSink(client, nil)
	t.Cleanup(func() { _ = sink.Close(context.Background()) })
	return sink
}

func TestSink_Integration_PublishReplaces(t *testing.T) {
	sink := liveSink(t)
	ctx := t.Context()

	require.NoError(t, sink.Ping(ctx))

	g := sampleGraph()
	require.NoError(t, sink.Publish(ctx, g))
	// A second publish replaces the projection instead of duplicating it.
	require.NoError(t, sink.Publish(ctx, g))

	nodes, edges, err := sink.Counts(ctx, g.UnionID)
	require.NoError(t, err)
	assert.Equal(t, int64(len(g.Nodes)), nodes)
	assert.Equal(t, int64(len(g.Edges)), edges)

	empty := *g
	empty.Nodes = empty.Nodes[:1]
	empty.Edges = nil
	require.NoError(t, sink.Publish(ctx, &empty))

	nodes, edges, err = sink.Counts(ctx, g.UnionID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), nodes)
	assert.Equal(t, int64(0), edges)
}
