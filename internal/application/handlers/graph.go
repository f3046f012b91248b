package handlers

import (
	"context"
	"fmt"

	"github.com/ersonp/uniao/internal/domain/entities"
	"github.com/ersonp/uniao/internal/domain/services"
)

// ProjectionCounter reports what a published projection holds.
type ProjectionCounter interface {
	Counts(ctx context.Context, unionID string) (nodes, edges int64, err error)
}

// GraphHandler derives and publishes union graphs.
type GraphHandler struct {
	graph    *services.GraphService
	registry *services.RegistryService
	counter  ProjectionCounter
}

// NewGraphHandler creates a new graph handler. counter may be nil when
// publication is disabled.
func NewGraphHandler(graph *services.GraphService, registry *services.RegistryService, counter ProjectionCounter) *GraphHandler {
	return &GraphHandler{
		graph:    graph,
		registry: registry,
		counter:  counter,
	}
}

// PublishResult contains the result of a publication.
type PublishResult struct {
	Graph          entities.Graph
	StoredNodes    int64
	StoredEdges    int64
	CountsVerified bool
}

// HandleShow derives the session's union graph.
func (h *GraphHandler) HandleShow(ctx context.Context, session entities.Session) (*entities.Graph, error) {
	union, err := h.registry.LoadUnion(ctx, session)
	if err != nil {
		return nil, err
	}
	g := h.graph.Build(union)
	return &g, nil
}

// HandlePublish derives the graph, replaces the published projection and
// reads back what was stored.
func (h *GraphHandler) HandlePublish(ctx context.Context, session entities.Session) (*PublishResult, error) {
	union, err := h.registry.LoadUnion(ctx, session)
	if err != nil {
		return nil, err
	}
	g, err := h.graph.Publish(ctx, union)
	if err != nil {
		return nil, err
	}

	result := &PublishResult{Graph: g}
	if h.counter == nil {
		return result, nil
	}
	nodes, edges, err := h.counter.Counts(ctx, union.ID)
	if err != nil {
		return nil, fmt.Errorf("verifying projection: %w", err)
	}
	result.StoredNodes = nodes
	result.StoredEdges = edges
	result.CountsVerified = true
	return result, nil
}
