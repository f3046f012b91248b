package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ersonp/uniao/internal/domain/entities"
	"github.com/ersonp/uniao/internal/domain/ports"
)

// MemberDraft holds the editable fields of a member.
type MemberDraft struct {
	Name          string                `json:"name"`
	Relationship  entities.Relationship `json:"relationship"`
	BirthDate     *time.Time            `json:"birth_date,omitempty"`
	WalletAddress string                `json:"wallet_address,omitempty"`
}

// RegistryService manages unions, members, assets and transactions.
type RegistryService struct {
	store  ports.Store
	logger *zap.Logger
	nowFn  func() time.Time
	newID  func() string
}

// NewRegistryService creates a new RegistryService.
func NewRegistryService(store ports.Store, logger *zap.Logger) *RegistryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegistryService{
		store:  store,
		logger: logger.Named("registry"),
		nowFn:  time.Now,
		newID:  uuid.NewString,
	}
}

// WithClock overrides the time provider (used primarily in tests).
func (s *RegistryService) WithClock(nowFn func() time.Time) {
	if nowFn != nil {
		s.nowFn = nowFn
	}
}

// NewID returns a fresh client-side identifier.
func (s *RegistryService) NewID() string {
	return s.newID()
}

// CreateUnion creates a union. An empty id is generated.
func (s *RegistryService) CreateUnion(ctx context.Context, id, displayName string) (*entities.Union, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, entities.NewFieldError("displayName", nil, "display name is required")
	}
	if id == "" {
		id = s.newID()
	}
	union := &entities.Union{
		ID:          id,
		DisplayName: displayName,
		CreatedAt:   s.nowFn().UTC(),
	}
	if err := s.store.SaveUnion(ctx, union); err != nil {
		return nil, fmt.Errorf("saving union: %w: %w", entities.ErrPersistenceFailure, err)
	}
	s.logger.Info("union created", zap.String("union_id", union.ID))
	return union, nil
}

// RenameUnion changes the display name of the session's union.
func (s *RegistryService) RenameUnion(ctx context.Context, session entities.Session, displayName string) (*entities.Union, error) {
	if !session.Valid() {
		return nil, entities.ErrUnauthenticated
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, entities.NewFieldError("displayName", nil, "display name is required")
	}
	union, err := s.store.FindUnion(ctx, session.UnionID)
	if err != nil {
		return nil, fmt.Errorf("finding union: %w", err)
	}
	union.DisplayName = displayName
	if err := s.store.SaveUnion(ctx, union); err != nil {
		return nil, fmt.Errorf("saving union: %w: %w", entities.ErrPersistenceFailure, err)
	}
	return union, nil
}

// LoadUnion returns the session's union with its members and assets.
func (s *RegistryService) LoadUnion(ctx context.Context, session entities.Session) (*entities.Union, error) {
	if !session.Valid() {
		return nil, entities.ErrUnauthenticated
	}

	var (
		union   *entities.Union
		members []entities.Member
		assets  []entities.Asset
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		union, err = s.store.FindUnion(gctx, session.UnionID)
		if err != nil {
			return fmt.Errorf("finding union: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		members, err = s.store.ListMembers(gctx, session.UnionID)
		if err != nil {
			return fmt.Errorf("listing members: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		assets, err = s.store.ListAssets(gctx, session.UnionID)
		if err != nil {
			return fmt.Errorf("listing assets: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	union.Members = members
	union.Assets = assets
	return union, nil
}

// loadUnionMembers returns the union with members only.
func (s *RegistryService) loadUnionMembers(ctx context.Context, session entities.Session) (*entities.Union, error) {
	if !session.Valid() {
		return nil, entities.ErrUnauthenticated
	}
	var (
		union   *entities.Union
		members []entities.Member
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		union, err = s.store.FindUnion(gctx, session.UnionID)
		if err != nil {
			return fmt.Errorf("finding union: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		members, err = s.store.ListMembers(gctx, session.UnionID)
		if err != nil {
			return fmt.Errorf("listing members: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	union.Members = members
	return union, nil
}

// CreateMember adds a member to the session's union.
func (s *RegistryService) CreateMember(ctx context.Context, session entities.Session, draft MemberDraft) (*entities.Member, error) {
	if !session.Valid() {
		return nil, entities.ErrUnauthenticated
	}
	now := s.nowFn()
	if err := s.validateMember(&draft, now); err != nil {
		return nil, err
	}
	now = now.UTC()

	member := &entities.Member{
		ID:            s.newID(),
		UnionID:       session.UnionID,
		Name:          strings.TrimSpace(draft.Name),
		Relationship:  draft.Relationship,
		BirthDate:     draft.BirthDate,
		WalletAddress: strings.TrimSpace(draft.WalletAddress),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if member.Relationship == "" {
		member.Relationship = entities.RelationshipOther
	}

	id, err := s.store.CreateMember(ctx, session.UnionID, member)
	if err != nil {
		return nil, fmt.Errorf("creating member: %w: %w", entities.ErrPersistenceFailure, err)
	}
	member.ID = id

	s.logger.Info("member created",
		zap.String("union_id", session.UnionID),
		zap.String("member_id", member.ID),
		zap.String("wallet_address", member.WalletAddress),
	)
	return member, nil
}

// UpdateMember replaces the editable fields of a member. Removing the birth
// date of a member with release conditions is allowed; those conditions then
// evaluate as unavailable.
func (s *RegistryService) UpdateMember(
	ctx context.Context,
	session entities.Session,
	memberID string,
	draft MemberDraft,
) (*entities.Member, error) {
	if !session.Valid() {
		return nil, entities.ErrUnauthenticated
	}
	member, err := s.store.FindMember(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("finding member %s: %w", memberID, err)
	}
	if member.UnionID != session.UnionID {
		return nil, fmt.Errorf("finding member %s: %w", memberID, entities.ErrUnknownMember)
	}

	now := s.nowFn()
	if err := s.validateMember(&draft, now); err != nil {
		return nil, err
	}
	now = now.UTC()

	member.Name = strings.TrimSpace(draft.Name)
	if draft.Relationship != "" {
		member.Relationship = draft.Relationship
	}
	member.BirthDate = draft.BirthDate
	member.WalletAddress = strings.TrimSpace(draft.WalletAddress)
	member.UpdatedAt = now

	if err := s.store.UpdateMember(ctx, member); err != nil {
		return nil, fmt.Errorf("updating member: %w: %w", entities.ErrPersistenceFailure, err)
	}
	return member, nil
}

func (s *RegistryService) validateMember(draft *MemberDraft, now time.Time) error {
	name := strings.TrimSpace(draft.Name)
	if name == "" {
		return entities.NewFieldError(FieldName, nil, "name is required")
	}
	if len([]rune(name)) > maxNameLength {
		return entities.NewFieldError(FieldName, nil, "name must be %d characters or less", maxNameLength)
	}
	if draft.BirthDate != nil && afterDay(*draft.BirthDate, now) {
		return entities.NewFieldError("birthDate", nil, "birth date cannot be in the future")
	}
	return nil
}

// CreateAsset validates and stores an asset with its initial transactions.
// Submitting a draft whose ID already exists returns the stored asset
// without creating a second one.
func (s *RegistryService) CreateAsset(ctx context.Context, session entities.Session, draft AssetDraft) (*entities.Asset, error) {
	union, err := s.loadUnionMembers(ctx, session)
	if err != nil {
		return nil, err
	}

	if draft.ID != "" {
		existing, err := s.store.FindAsset(ctx, draft.ID)
		switch {
		case err == nil && existing.UnionID == session.UnionID:
			s.logger.Debug("asset already stored", zap.String("asset_id", draft.ID))
			return existing, nil
		case err == nil:
			return nil, entities.NewFieldError("id", nil, "asset id %s is taken", draft.ID)
		case !errors.Is(err, entities.ErrNotFound):
			return nil, fmt.Errorf("finding asset: %w: %w", entities.ErrPersistenceFailure, err)
		}
	}

	now := s.nowFn()
	if err := ValidateAssetDraft(union, &draft, now); err != nil {
		return nil, err
	}
	now = now.UTC()

	asset := s.buildAsset(union, &draft, now)
	if err := asset.CheckKind(); err != nil {
		return nil, err
	}

	id, err := s.store.CreateAsset(ctx, session.UnionID, asset)
	if errors.Is(err, entities.ErrConflict) {
		return nil, entities.NewFieldError(FieldTransactions, entities.ErrConflict,
			"a transaction id is already recorded on another asset")
	}
	if err != nil {
		return nil, fmt.Errorf("creating asset: %w: %w", entities.ErrPersistenceFailure, err)
	}
	asset.ID = id

	s.logger.Info("asset created",
		zap.String("union_id", session.UnionID),
		zap.String("asset_id", asset.ID),
		zap.String("kind", string(asset.Kind)),
		zap.Int("transactions", len(asset.Transactions)),
	)
	return asset, nil
}

// AddTransaction appends a transaction to an existing asset. Submitting a
// draft whose ID is already recorded on the asset returns the stored
// transaction; an ID recorded on another asset is rejected.
func (s *RegistryService) AddTransaction(
	ctx context.Context,
	session entities.Session,
	assetID string,
	draft TransactionDraft,
) (*entities.Transaction, error) {
	union, err := s.loadUnionMembers(ctx, session)
	if err != nil {
		return nil, err
	}
	asset, err := loadOwnedAsset(ctx, s.store, session, assetID)
	if err != nil {
		return nil, err
	}
	return s.addTransaction(ctx, union, asset, draft, s.nowFn())
}

// addTransaction records a draft against an asset the caller already loaded.
// The stored transaction is appended to asset.Transactions. Date rules read
// calendar days in now's location.
func (s *RegistryService) addTransaction(
	ctx context.Context,
	union *entities.Union,
	asset *entities.Asset,
	draft TransactionDraft,
	now time.Time,
) (*entities.Transaction, error) {
	if draft.ID != "" {
		for i := range asset.Transactions {
			if asset.Transactions[i].ID == draft.ID {
				stored := asset.Transactions[i]
				return &stored, nil
			}
		}
	}

	if err := ValidateTransactionDraft(union, asset, &draft, now); err != nil {
		return nil, err
	}

	tx := s.buildTransaction(union, asset.ID, &draft, now.UTC())
	if err := asset.AcceptTransaction(&tx); err != nil {
		return nil, err
	}

	id, err := s.store.CreateTransaction(ctx, asset.ID, &tx)
	if errors.Is(err, entities.ErrConflict) {
		return nil, entities.NewFieldError("id", entities.ErrConflict,
			"transaction id %s is already recorded on another asset", tx.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("creating transaction: %w: %w", entities.ErrPersistenceFailure, err)
	}
	tx.ID = id
	asset.Transactions = append(asset.Transactions, tx)

	s.logger.Info("transaction added",
		zap.String("asset_id", asset.ID),
		zap.String("transaction_id", tx.ID),
	)
	return &tx, nil
}

// AssignAssetToMember earmarks an asset for a member, or clears the
// assignment when memberID is empty. Any release condition is cleared when
// the assigned member changes since it was checked against the old member.
func (s *RegistryService) AssignAssetToMember(
	ctx context.Context,
	session entities.Session,
	assetID, memberID string,
) (*entities.Asset, error) {
	asset, err := loadOwnedAsset(ctx, s.store, session, assetID)
	if err != nil {
		return nil, err
	}

	if memberID != "" {
		member, err := s.store.FindMember(ctx, memberID)
		if err != nil && !errors.Is(err, entities.ErrNotFound) {
			return nil, fmt.Errorf("finding member: %w: %w", entities.ErrPersistenceFailure, err)
		}
		if member == nil || member.UnionID != session.UnionID {
			return nil, entities.NewFieldError(FieldAssignedTo, entities.ErrUnknownMember,
				"member %s does not belong to this union", memberID)
		}
	}

	if memberID == asset.AssignedMemberID {
		return asset, nil
	}

	if asset.ReleaseCondition != nil {
		if err := s.store.UpdateReleaseCondition(ctx, asset.ID, nil); err != nil {
			return nil, fmt.Errorf("clearing release condition: %w: %w", entities.ErrPersistenceFailure, err)
		}
		asset.ReleaseCondition = nil
	}
	if err := s.store.UpdateAssetAssignment(ctx, asset.ID, memberID); err != nil {
		return nil, fmt.Errorf("updating assignment: %w: %w", entities.ErrPersistenceFailure, err)
	}
	asset.AssignedMemberID = memberID
	asset.UpdatedAt = s.nowFn().UTC()

	s.logger.Info("asset assignment changed",
		zap.String("asset_id", asset.ID),
		zap.String("member_id", memberID),
	)
	return asset, nil
}

func (s *RegistryService) buildAsset(union *entities.Union, draft *AssetDraft, now time.Time) *entities.Asset {
	id := draft.ID
	if id == "" {
		id = s.newID()
	}
	asset := &entities.Asset{
		ID:               id,
		UnionID:          union.ID,
		Name:             strings.TrimSpace(draft.Name),
		Kind:             draft.Kind,
		AssignedMemberID: draft.AssignedMemberID,
		Notes:            strings.TrimSpace(draft.Notes),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	switch draft.Kind {
	case entities.AssetKindDigital:
		asset.Digital = &entities.DigitalDetails{Type: draft.DigitalType}
	case entities.AssetKindPhysical:
		asset.Physical = &entities.PhysicalDetails{
			Type:     draft.PhysicalType,
			Address:  strings.TrimSpace(draft.Address),
			Document: strings.TrimSpace(draft.Document),
		}
	}
	if draft.ReleaseAge != nil {
		asset.ReleaseCondition = &entities.ReleaseCondition{
			Type:      entities.ReleaseConditionAge,
			TargetAge: *draft.ReleaseAge,
		}
	}
	for i := range draft.Transactions {
		asset.Transactions = append(asset.Transactions, s.buildTransaction(union, asset.ID, &draft.Transactions[i], now))
	}
	return asset
}

// buildTransaction converts a validated draft. Partner names take the
// union's spelling. Contributions are only kept when both partners acquired.
func (s *RegistryService) buildTransaction(
	union *entities.Union,
	assetID string,
	draft *TransactionDraft,
	now time.Time,
) entities.Transaction {
	id := draft.ID
	if id == "" {
		id = s.newID()
	}
	acq := entities.ParseAcquirer(draft.Acquirer)
	if acq.Kind == entities.AcquirerPartner {
		acq.Partner = canonicalPartner(union, acq.Partner)
	}

	tx := entities.Transaction{
		ID:         id,
		AssetID:    assetID,
		AcquiredAt: draft.AcquiredAt.UTC(),
		Quantity:   draft.Quantity,
		AmountPaid: draft.AmountPaid,
		Acquirer:   acq,
		Notes:      strings.TrimSpace(draft.Notes),
		CreatedAt:  now,
	}
	if acq.Kind == entities.AcquirerBoth {
		for _, c := range draft.Contributions {
			if !c.Amount.Valid {
				continue
			}
			tx.Contributions = append(tx.Contributions, entities.Contribution{
				Partner: canonicalPartner(union, c.Partner),
				Amount:  c.Amount.Decimal,
			})
		}
	}
	return tx
}

func canonicalPartner(union *entities.Union, name string) string {
	name = strings.TrimSpace(name)
	if union == nil {
		return name
	}
	for _, p := range union.PartnerNames() {
		if strings.EqualFold(p, name) {
			return p
		}
	}
	return name
}
