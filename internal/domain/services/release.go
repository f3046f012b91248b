package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ersonp/uniao/internal/domain/entities"
	"github.com/ersonp/uniao/internal/domain/ports"
)

// CanSetCondition reports whether an age condition can be attached for member.
func CanSetCondition(member *entities.Member) bool {
	return member.HasBirthDate()
}

// CurrentAge returns the member's age in whole years on asOf. The second
// result is false when the birth date is unknown.
func CurrentAge(member *entities.Member, asOf time.Time) (int, bool) {
	if !member.HasBirthDate() {
		return 0, false
	}
	by, bm, bd := member.BirthDate.Date()
	ay, am, ad := asOf.Date()

	age := ay - by
	if am < bm || (am == bm && ad < bd) {
		age--
	}
	if age < 0 {
		age = 0
	}
	return age, true
}

// IsSatisfied reports whether the member has reached the condition's target age on asOf.
func IsSatisfied(cond *entities.ReleaseCondition, member *entities.Member, asOf time.Time) bool {
	if cond == nil {
		return false
	}
	age, ok := CurrentAge(member, asOf)
	return ok && age >= cond.TargetAge
}

// ParseTargetAge parses user input for a release age. Blank input means
// "no condition" and returns nil.
func ParseTargetAge(s string) (*int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	age, err := strconv.Atoi(s)
	if err != nil {
		return nil, entities.NewFieldError("releaseAge", entities.ErrInvalidAge, "target age %q is not a whole number", s)
	}
	if _, err := entities.NewAgeCondition(age); err != nil {
		return nil, err
	}
	return &age, nil
}

// ApplyCondition sets or clears the release condition of asset. Clearing is
// always allowed. Setting requires a valid age and an assigned member with a
// birth date. The asset is left untouched on failure.
func ApplyCondition(asset *entities.Asset, member *entities.Member, targetAge *int) error {
	if targetAge == nil {
		asset.ReleaseCondition = nil
		return nil
	}

	cond, err := entities.NewAgeCondition(*targetAge)
	if err != nil {
		return err
	}

	if asset.AssignedMemberID == "" || member == nil {
		return entities.NewFieldError("releaseAge", entities.ErrMemberBirthDateMissing,
			"asset has no assigned member to release to")
	}
	if member.ID != asset.AssignedMemberID {
		return entities.NewFieldError("assignedMemberId", entities.ErrUnknownMember,
			"member %s is not the asset's assigned member", member.ID)
	}
	if !CanSetCondition(member) {
		return entities.NewFieldError("releaseAge", entities.ErrMemberBirthDateMissing,
			"%s has no birth date", member.Name)
	}

	asset.ReleaseCondition = cond
	return nil
}

// ReleaseState summarizes a release condition for display.
type ReleaseState string

const (
	ReleaseNone        ReleaseState = "none"
	ReleaseUnavailable ReleaseState = "unavailable"
	ReleasePending     ReleaseState = "pending"
	ReleaseReleased    ReleaseState = "released"
)

// ReleaseStatus is the evaluated release condition of an asset on a date.
type ReleaseStatus struct {
	State          ReleaseState `json:"state"`
	TargetAge      int          `json:"target_age,omitempty"`
	CurrentAge     *int         `json:"current_age,omitempty"`
	YearsRemaining int          `json:"years_remaining,omitempty"`
}

// EvaluateRelease computes the release status of asset for its assigned member.
func EvaluateRelease(asset *entities.Asset, member *entities.Member, asOf time.Time) ReleaseStatus {
	cond := asset.ReleaseCondition
	if cond == nil {
		return ReleaseStatus{State: ReleaseNone}
	}
	status := ReleaseStatus{TargetAge: cond.TargetAge}
	age, ok := CurrentAge(member, asOf)
	if !ok {
		status.State = ReleaseUnavailable
		return status
	}
	status.CurrentAge = &age
	if age >= cond.TargetAge {
		status.State = ReleaseReleased
		return status
	}
	status.State = ReleasePending
	status.YearsRemaining = cond.TargetAge - age
	return status
}

// ReleaseService persists release condition changes.
type ReleaseService struct {
	store  ports.Store
	logger *zap.Logger
	nowFn  func() time.Time
}

// NewReleaseService creates a new ReleaseService.
func NewReleaseService(store ports.Store, logger *zap.Logger) *ReleaseService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReleaseService{
		store:  store,
		logger: logger.Named("release"),
		nowFn:  time.Now,
	}
}

// WithClock overrides the time provider (used primarily in tests).
func (s *ReleaseService) WithClock(nowFn func() time.Time) {
	if nowFn != nil {
		s.nowFn = nowFn
	}
}

// SetCondition sets (targetAge non-nil) or clears (nil) an asset's release
// condition. On failure the stored condition is unchanged.
func (s *ReleaseService) SetCondition(
	ctx context.Context,
	session entities.Session,
	assetID string,
	targetAge *int,
) (*entities.Asset, error) {
	asset, err := loadOwnedAsset(ctx, s.store, session, assetID)
	if err != nil {
		return nil, err
	}

	var member *entities.Member
	if targetAge != nil && asset.AssignedMemberID != "" {
		member, err = s.assignedMember(ctx, asset)
		if err != nil {
			return nil, err
		}
	}

	updated := *asset
	if err := ApplyCondition(&updated, member, targetAge); err != nil {
		return nil, err
	}

	if err := s.store.UpdateReleaseCondition(ctx, asset.ID, targetAge); err != nil {
		return nil, fmt.Errorf("updating release condition: %w: %w", entities.ErrPersistenceFailure, err)
	}

	if targetAge == nil {
		s.logger.Info("release condition cleared", zap.String("asset_id", asset.ID))
	} else {
		s.logger.Info("release condition set",
			zap.String("asset_id", asset.ID),
			zap.Int("target_age", *targetAge),
		)
	}

	updated.UpdatedAt = s.nowFn().UTC()
	return &updated, nil
}

// Status evaluates the release condition of an asset as of asOf.
func (s *ReleaseService) Status(
	ctx context.Context,
	session entities.Session,
	assetID string,
	asOf time.Time,
) (ReleaseStatus, error) {
	asset, err := loadOwnedAsset(ctx, s.store, session, assetID)
	if err != nil {
		return ReleaseStatus{}, err
	}
	var member *entities.Member
	if asset.AssignedMemberID != "" {
		member, err = s.assignedMember(ctx, asset)
		if err != nil {
			return ReleaseStatus{}, err
		}
	}
	return EvaluateRelease(asset, member, asOf), nil
}

// loadOwnedAsset fetches an asset and verifies it belongs to the session's union.
func loadOwnedAsset(ctx context.Context, store ports.Store, session entities.Session, assetID string) (*entities.Asset, error) {
	if !session.Valid() {
		return nil, entities.ErrUnauthenticated
	}
	asset, err := store.FindAsset(ctx, assetID)
	if err != nil {
		return nil, fmt.Errorf("finding asset %s: %w", assetID, err)
	}
	if asset.UnionID != session.UnionID {
		return nil, fmt.Errorf("finding asset %s: %w", assetID, entities.ErrNotFound)
	}
	return asset, nil
}

// assignedMember resolves the member an asset is earmarked for. A member that
// no longer resolves within the asset's union is ErrUnknownMember.
func (s *ReleaseService) assignedMember(ctx context.Context, asset *entities.Asset) (*entities.Member, error) {
	member, err := s.store.FindMember(ctx, asset.AssignedMemberID)
	if errors.Is(err, entities.ErrNotFound) || (err == nil && member.UnionID != asset.UnionID) {
		return nil, entities.NewFieldError(FieldAssignedTo, entities.ErrUnknownMember,
			"member %s does not belong to this union", asset.AssignedMemberID)
	}
	if err != nil {
		return nil, fmt.Errorf("finding assigned member: %w: %w", entities.ErrPersistenceFailure, err)
	}
	return member, nil
}
