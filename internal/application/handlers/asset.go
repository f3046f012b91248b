package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ersonp/uniao/internal/domain/entities"
	"github.com/ersonp/uniao/internal/domain/services"
)

// AssetHandler handles asset queries and assignment.
type AssetHandler struct {
	registry *services.RegistryService
}

// NewAssetHandler creates a new asset handler.
func NewAssetHandler(registry *services.RegistryService) *AssetHandler {
	return &AssetHandler{registry: registry}
}

// AssetView is an asset with its derived figures on a date.
type AssetView struct {
	Asset      entities.Asset
	Totals     services.Totals
	Member     *entities.Member
	Release    services.ReleaseStatus
	MemberName string
}

// AssetFilter narrows a listing. Empty fields match everything.
type AssetFilter struct {
	Kind     string
	MemberID string
}

// HandleList returns the union's assets with totals and release status.
func (h *AssetHandler) HandleList(
	ctx context.Context,
	session entities.Session,
	filter AssetFilter,
	asOf time.Time,
) ([]AssetView, error) {
	union, err := h.registry.LoadUnion(ctx, session)
	if err != nil {
		return nil, err
	}

	var kind entities.AssetKind
	if strings.TrimSpace(filter.Kind) != "" {
		if kind, err = entities.ParseAssetKind(filter.Kind); err != nil {
			return nil, err
		}
	}

	views := make([]AssetView, 0, len(union.Assets))
	for i := range union.Assets {
		asset := &union.Assets[i]
		if kind != "" && asset.Kind != kind {
			continue
		}
		if filter.MemberID != "" && asset.AssignedMemberID != filter.MemberID {
			continue
		}
		views = append(views, viewAsset(union, asset, asOf))
	}
	return views, nil
}

// HandleShow returns one asset with its derived figures.
func (h *AssetHandler) HandleShow(ctx context.Context, session entities.Session, assetID string, asOf time.Time) (*AssetView, error) {
	union, err := h.registry.LoadUnion(ctx, session)
	if err != nil {
		return nil, err
	}
	asset := union.FindAsset(assetID)
	if asset == nil {
		return nil, fmt.Errorf("asset %s: %w", assetID, entities.ErrNotFound)
	}
	view := viewAsset(union, asset, asOf)
	return &view, nil
}

// HandleAssign earmarks an asset for a member, or clears the assignment
// when memberID is empty.
func (h *AssetHandler) HandleAssign(ctx context.Context, session entities.Session, assetID, memberID string) (*entities.Asset, error) {
	return h.registry.AssignAssetToMember(ctx, session, assetID, strings.TrimSpace(memberID))
}

func viewAsset(union *entities.Union, asset *entities.Asset, asOf time.Time) AssetView {
	view := AssetView{
		Asset:  *asset,
		Totals: services.Aggregate(asset),
	}
	if asset.AssignedMemberID != "" {
		view.Member = union.FindMember(asset.AssignedMemberID)
		if view.Member != nil {
			view.MemberName = view.Member.Name
		}
	}
	view.Release = services.EvaluateRelease(asset, view.Member, asOf)
	return view
}
