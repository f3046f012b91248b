package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/uniao/internal/domain/entities"
	"github.com/ersonp/uniao/internal/domain/services"
)

func testGraph() *entities.Graph {
	g := services.BuildGraph(testLedger().Union, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC))
	return &g
}

func TestRenderTree(t *testing.T) {
	var buf bytes.Buffer
	err := renderTree(&buf, testGraph())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.NotEmpty(t, lines)
	assert.Equal(t, "Ana & Bruno [union]", lines[0])

	result := buf.String()
	assert.Contains(t, result, "├── Ana [partner]")
	assert.Contains(t, result, "├── Bruno [partner]")
	assert.Contains(t, result, "├── Wallet [wallet]")
	assert.Contains(t, result, "├── Lia [member]")
	assert.Contains(t, result, "├── Beach house [asset]")
	assert.Contains(t, result, "│   └── for Lia [member]")
	assert.Contains(t, result, "└── Bitcoin [asset]")
}

func TestRenderTree_EmptyGraph(t *testing.T) {
	var buf bytes.Buffer
	err := renderTree(&buf, &entities.Graph{})
	require.NoError(t, err)
	assert.Equal(t, "(empty graph)\n", buf.String())
}

func TestRenderDOT(t *testing.T) {
	var buf bytes.Buffer
	err := renderDOT(&buf, testGraph())
	require.NoError(t, err)

	result := buf.String()
	assert.True(t, strings.HasPrefix(result, "digraph \"union-1\" {\n"))
	assert.Contains(t, result, `"union:union-1" [label="Ana & Bruno", shape=doublecircle];`)
	assert.Contains(t, result, `"wallet:union-1" [label="Wallet", shape=cylinder];`)
	assert.Contains(t, result, `"asset:asset-house" -> "member:member-lia" [label="earmarked_for"];`)
	assert.True(t, strings.HasSuffix(result, "}\n"))
}

func TestRenderGraph(t *testing.T) {
	tests := []struct {
		name    string
		format  string
		wantErr bool
	}{
		{name: "tree", format: "tree"},
		{name: "json", format: "json"},
		{name: "dot", format: "dot"},
		{name: "unknown", format: "svg", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := renderGraph(&buf, testGraph(), tt.format)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, buf.String())
		})
	}
}

func TestRenderGraph_JSON(t *testing.T) {
	var buf bytes.Buffer
	err := renderGraph(&buf, testGraph(), "json")
	require.NoError(t, err)

	var parsed entities.Graph
	require.NoError(t, json.Unmarshal(buf.Bytes(), &parsed))
	assert.Equal(t, "union-1", parsed.UnionID)
	assert.NotNil(t, parsed.Node("member:member-lia"))
}
