package handlers

import (
	"context"
	"time"

	"github.com/ersonp/uniao/internal/domain/entities"
	"github.com/ersonp/uniao/internal/domain/services"
)

// ReleaseHandler handles release condition use cases.
type ReleaseHandler struct {
	release  *services.ReleaseService
	registry *services.RegistryService
}

// NewReleaseHandler creates a new release handler.
func NewReleaseHandler(release *services.ReleaseService, registry *services.RegistryService) *ReleaseHandler {
	return &ReleaseHandler{
		release:  release,
		registry: registry,
	}
}

// ReleaseView is the evaluated release condition of one asset.
type ReleaseView struct {
	AssetID    string
	AssetName  string
	MemberName string
	Status     services.ReleaseStatus
}

// HandleSet sets the release age of an asset. A blank age clears it.
func (h *ReleaseHandler) HandleSet(ctx context.Context, session entities.Session, assetID, age string) (*entities.Asset, error) {
	targetAge, err := services.ParseTargetAge(age)
	if err != nil {
		return nil, err
	}
	return h.release.SetCondition(ctx, session, assetID, targetAge)
}

// HandleClear removes the release condition of an asset.
func (h *ReleaseHandler) HandleClear(ctx context.Context, session entities.Session, assetID string) (*entities.Asset, error) {
	return h.release.SetCondition(ctx, session, assetID, nil)
}

// HandleStatus evaluates one asset, or every asset carrying a condition
// when assetID is empty, as of asOf.
func (h *ReleaseHandler) HandleStatus(
	ctx context.Context,
	session entities.Session,
	assetID string,
	asOf time.Time,
) ([]ReleaseView, error) {
	if assetID != "" {
		status, err := h.release.Status(ctx, session, assetID, asOf)
		if err != nil {
			return nil, err
		}
		return []ReleaseView{{AssetID: assetID, Status: status}}, nil
	}

	union, err := h.registry.LoadUnion(ctx, session)
	if err != nil {
		return nil, err
	}
	var views []ReleaseView
	for i := range union.Assets {
		asset := &union.Assets[i]
		if asset.ReleaseCondition == nil {
			continue
		}
		view := ReleaseView{AssetID: asset.ID, AssetName: asset.Name}
		member := union.FindMember(asset.AssignedMemberID)
		if member != nil {
			view.MemberName = member.Name
		}
		view.Status = services.EvaluateRelease(asset, member, asOf)
		views = append(views, view)
	}
	return views, nil
}
