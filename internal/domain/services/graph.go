package services

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ersonp/uniao/internal/domain/entities"
	"github.com/ersonp/uniao/internal/domain/ports"
)

// Node ID helpers. IDs mirror entity IDs so they are stable across rebuilds.
func UnionNodeID(unionID string) string   { return "union:" + unionID }
func WalletNodeID(unionID string) string  { return "wallet:" + unionID }
func MemberNodeID(memberID string) string { return "member:" + memberID }
func AssetNodeID(assetID string) string   { return "asset:" + assetID }

// PartnerNodeID identifies the n-th partner name segment of a union.
func PartnerNodeID(unionID string, n int) string {
	return "partner:" + unionID + ":" + strconv.Itoa(n)
}

// BuildGraph projects a union into nodes and edges. It is a pure function of
// its inputs: every call returns a fresh graph, and equal inputs give equal
// graphs. asOf is used for release status details on asset nodes.
func BuildGraph(union *entities.Union, asOf time.Time) entities.Graph {
	g := entities.Graph{UnionID: union.ID}
	rootID := UnionNodeID(union.ID)

	g.Nodes = append(g.Nodes, entities.Node{
		ID:       rootID,
		Kind:     entities.NodeUnion,
		Label:    union.DisplayName,
		EntityID: union.ID,
		Intents: []entities.Intent{
			{Kind: entities.IntentOpenAcquisition, TargetID: union.ID},
			{Kind: entities.IntentOpenMemberAdd, TargetID: union.ID},
			{Kind: entities.IntentOpenSettings, TargetID: union.ID},
		},
	})

	for i, name := range union.PartnerNames() {
		id := PartnerNodeID(union.ID, i)
		g.Nodes = append(g.Nodes, entities.Node{
			ID:       id,
			Kind:     entities.NodePartner,
			Label:    name,
			EntityID: union.ID,
			Intents:  []entities.Intent{{Kind: entities.IntentOpenAcquisition, TargetID: union.ID}},
		})
		g.Edges = append(g.Edges, newEdge(entities.EdgeHasPartner, rootID, id))
	}

	walletID := WalletNodeID(union.ID)
	digital := union.DigitalAssets()
	g.Nodes = append(g.Nodes, entities.Node{
		ID:       walletID,
		Kind:     entities.NodeWallet,
		Label:    "Wallet",
		EntityID: union.ID,
		Details:  map[string]string{"digital_assets": strconv.Itoa(len(digital))},
		Intents:  []entities.Intent{{Kind: entities.IntentOpenAcquisition, TargetID: union.ID}},
	})
	g.Edges = append(g.Edges, newEdge(entities.EdgeHasWallet, rootID, walletID))

	members := sortedMembers(union.Members)
	for i := range members {
		m := &members[i]
		id := MemberNodeID(m.ID)
		details := map[string]string{"relationship": string(m.Relationship)}
		if age, ok := CurrentAge(m, asOf); ok {
			details["age"] = strconv.Itoa(age)
		}
		g.Nodes = append(g.Nodes, entities.Node{
			ID:       id,
			Kind:     entities.NodeMember,
			Label:    m.Name,
			EntityID: m.ID,
			Details:  details,
			Intents:  []entities.Intent{{Kind: entities.IntentOpenAcquisition, TargetID: m.ID}},
		})
		g.Edges = append(g.Edges, newEdge(entities.EdgeHasMember, rootID, id))
	}

	assets := sortedAssets(union.Assets)
	for i := range assets {
		a := &assets[i]
		id := AssetNodeID(a.ID)
		g.Nodes = append(g.Nodes, entities.Node{
			ID:       id,
			Kind:     entities.NodeAsset,
			Label:    a.Name,
			EntityID: a.ID,
			Details:  assetDetails(union, a, asOf),
		})
		g.Edges = append(g.Edges, newEdge(entities.EdgeOwnsAsset, rootID, id))

		if a.AssignedMemberID != "" && union.FindMember(a.AssignedMemberID) != nil {
			g.Edges = append(g.Edges, newEdge(entities.EdgeEarmarkedFor, id, MemberNodeID(a.AssignedMemberID)))
		}
	}

	return g
}

func newEdge(kind entities.EdgeKind, source, target string) entities.Edge {
	return entities.Edge{
		ID:     string(kind) + ":" + source + "->" + target,
		Kind:   kind,
		Source: source,
		Target: target,
	}
}

func assetDetails(union *entities.Union, a *entities.Asset, asOf time.Time) map[string]string {
	totals := Aggregate(a)
	details := map[string]string{
		"kind":         string(a.Kind),
		"type":         a.SubType(),
		"transactions": strconv.Itoa(totals.TransactionCount),
		"total_paid":   totals.TotalPaid.String(),
	}
	if a.IsDigital() {
		details["total_quantity"] = totals.TotalQuantity.String()
	}
	if len(totals.Anomalies) > 0 {
		details["anomalies"] = strconv.Itoa(len(totals.Anomalies))
	}
	if a.ReleaseCondition != nil {
		status := EvaluateRelease(a, union.FindMember(a.AssignedMemberID), asOf)
		details["release"] = string(status.State)
		details["release_age"] = strconv.Itoa(status.TargetAge)
	}
	return details
}

func sortedMembers(in []entities.Member) []entities.Member {
	out := append([]entities.Member(nil), in...)
	sort.SliceStable(out, func(i, j int) bool {
		ni, nj := strings.ToLower(out[i].Name), strings.ToLower(out[j].Name)
		if ni != nj {
			return ni < nj
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func sortedAssets(in []entities.Asset) []entities.Asset {
	out := append([]entities.Asset(nil), in...)
	sort.SliceStable(out, func(i, j int) bool {
		ni, nj := strings.ToLower(out[i].Name), strings.ToLower(out[j].Name)
		if ni != nj {
			return ni < nj
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// GraphService derives a union's graph and publishes it to a sink.
type GraphService struct {
	sink   ports.GraphSink
	logger *zap.Logger
	nowFn  func() time.Time
}

// NewGraphService creates a new GraphService. sink may be nil when
// publication is disabled.
func NewGraphService(sink ports.GraphSink, logger *zap.Logger) *GraphService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GraphService{
		sink:   sink,
		logger: logger.Named("graph"),
		nowFn:  time.Now,
	}
}

// WithClock overrides the time provider (used primarily in tests).
func (s *GraphService) WithClock(nowFn func() time.Time) {
	if nowFn != nil {
		s.nowFn = nowFn
	}
}

// Build derives the graph as of now.
func (s *GraphService) Build(union *entities.Union) entities.Graph {
	return BuildGraph(union, s.nowFn())
}

// Publish derives the graph and replaces the union's published projection.
func (s *GraphService) Publish(ctx context.Context, union *entities.Union) (entities.Graph, error) {
	g := s.Build(union)
	if s.sink == nil {
		return g, fmt.Errorf("publishing graph: no graph sink configured")
	}
	if err := s.sink.Publish(ctx, &g); err != nil {
		return g, fmt.Errorf("publishing graph: %w", err)
	}
	s.logger.Info("graph published",
		zap.String("union_id", union.ID),
		zap.Int("nodes", len(g.Nodes)),
		zap.Int("edges", len(g.Edges)),
	)
	return g, nil
}
