package neo4j

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/ersonp/uniao/internal/domain/entities"
	"github.com/ersonp/uniao/internal/domain/ports"
)

// nodeLabel is carried by every projected node next to its kind label.
const nodeLabel = "UniaoNode"

// relationshipTypes maps edge kinds to Cypher relationship types. Types cannot
// be query parameters, so only these are ever interpolated.
var relationshipTypes = map[entities.EdgeKind]string{
	entities.EdgeHasPartner:   "HAS_PARTNER",
	entities.EdgeHasMember:    "HAS_MEMBER",
	entities.EdgeHasWallet:    "HAS_WALLET",
	entities.EdgeOwnsAsset:    "OWNS_ASSET",
	entities.EdgeEarmarkedFor: "EARMARKED_FOR",
}

var _ ports.GraphSink = (*Sink)(nil)

// Sink implements ports.GraphSink by replacing a union's projection in Neo4j.
type Sink struct {
	client Client
	logger *zap.Logger
}

// NewSink creates a sink over a graph client.
func NewSink(client Client, logger *zap.Logger) *Sink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sink{client: client, logger: logger.Named("neo4j")}
}

// Publish deletes the union's previous nodes, then merges the new nodes and
// edges. Node and edge identifiers are stable, so publishing the same graph
// twice leaves the database unchanged.
func (s *Sink) Publish(ctx context.Context, g *entities.Graph) error {
	if g == nil || g.UnionID == "" {
		return fmt.Errorf("publishing graph: union id is required")
	}

	deleteQuery := `MATCH (n:` + nodeLabel + ` {union_id: $union_id}) DETACH DELETE n`
	if _, err := s.client.ExecuteWrite(ctx, deleteQuery, map[string]any{"union_id": g.UnionID}); err != nil {
		return fmt.Errorf("clearing previous projection: %w", err)
	}

	for _, kind := range nodeKinds(g) {
		query := `
			UNWIND $nodes AS n
			MERGE (x:` + nodeLabel + ` {id: n.id})
			SET x:` + nodeKindLabel(kind) + `,
				x.kind = n.kind,
				x.label = n.label,
				x.entity_id = n.entity_id,
				x.union_id = $union_id,
				x.intents = n.intents
			SET x += n.details
		`
		params := map[string]any{"union_id": g.UnionID, "nodes": nodeParams(g, kind)}
		if _, err := s.client.ExecuteWrite(ctx, query, params); err != nil {
			return fmt.Errorf("merging %s nodes: %w", kind, err)
		}
	}

	edgesByKind := make(map[entities.EdgeKind][]map[string]any)
	for _, e := range g.Edges {
		edgesByKind[e.Kind] = append(edgesByKind[e.Kind], map[string]any{
			"id":     e.ID,
			"source": e.Source,
			"target": e.Target,
		})
	}
	kinds := make([]entities.EdgeKind, 0, len(edgesByKind))
	for kind := range edgesByKind {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })

	for _, kind := range kinds {
		relType, ok := relationshipTypes[kind]
		if !ok {
			return fmt.Errorf("publishing graph: unsupported edge kind %q", kind)
		}
		query := `
			UNWIND $edges AS e
			MATCH (s:` + nodeLabel + ` {id: e.source}), (t:` + nodeLabel + ` {id: e.target})
			MERGE (s)-[r:` + relType + ` {id: e.id}]->(t)
		`
		if _, err := s.client.ExecuteWrite(ctx, query, map[string]any{"edges": edgesByKind[kind]}); err != nil {
			return fmt.Errorf("merging %s edges: %w", kind, err)
		}
	}

	s.logger.Debug("projection replaced",
		zap.String("union_id", g.UnionID),
		zap.Int("nodes", len(g.Nodes)),
		zap.Int("edges", len(g.Edges)),
	)
	return nil
}

// Counts returns the number of projected nodes and relationships of a union.
func (s *Sink) Counts(ctx context.Context, unionID string) (nodes, edges int64, err error) {
	query := `
		MATCH (n:` + nodeLabel + ` {union_id: $union_id})
		OPTIONAL MATCH (n)-[r]->()
		RETURN count(DISTINCT n) AS nodes, count(r) AS edges
	`
	res, err := s.client.ExecuteRead(ctx, query, map[string]any{"union_id": unionID})
	if err != nil {
		return 0, 0, fmt.Errorf("counting projection: %w", err)
	}
	if len(res.Records) == 0 {
		return 0, 0, nil
	}
	rec := res.Records[0]
	nodes, _ = rec["nodes"].(int64)
	edges, _ = rec["edges"].(int64)
	return nodes, edges, nil
}

// Ping verifies the database is reachable.
func (s *Sink) Ping(ctx context.Context) error {
	return s.client.VerifyConnectivity(ctx)
}

// Close releases the underlying client.
func (s *Sink) Close(ctx context.Context) error {
	return s.client.Close(ctx)
}

func nodeKinds(g *entities.Graph) []entities.NodeKind {
	seen := make(map[entities.NodeKind]bool)
	var kinds []entities.NodeKind
	for _, n := range g.Nodes {
		if !seen[n.Kind] {
			seen[n.Kind] = true
			kinds = append(kinds, n.Kind)
		}
	}
	return kinds
}

func nodeParams(g *entities.Graph, kind entities.NodeKind) []map[string]any {
	var out []map[string]any
	for _, n := range g.Nodes {
		if n.Kind != kind {
			continue
		}
		details := make(map[string]any, len(n.Details))
		for k, v := range n.Details {
			details["detail_"+k] = v
		}
		intents := make([]string, 0, len(n.Intents))
		for _, in := range n.Intents {
			intents = append(intents, string(in.Kind)+":"+in.TargetID)
		}
		out = append(out, map[string]any{
			"id":        n.ID,
			"kind":      string(n.Kind),
			"label":     n.Label,
			"entity_id": n.EntityID,
			"details":   details,
			"intents":   intents,
		})
	}
	return out
}

// nodeKindLabel turns a node kind into a Cypher label, e.g. asset -> Asset.
func nodeKindLabel(kind entities.NodeKind) string {
	parts := strings.Split(string(kind), "_")
	for i, p := range parts {
		if p != "" {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, "")
}
