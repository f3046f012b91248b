package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/uniao/internal/domain/entities"
	"github.com/ersonp/uniao/internal/domain/mocks"
)

var testNow = time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dayPtr(y int, m time.Month, d int) *time.Time {
	t := day(y, m, d)
	return &t
}

func dec(s string) decimal.NullDecimal {
	return entities.NewDecimal(decimal.RequireFromString(s))
}

func intPtr(v int) *int { return &v }

const (
	testUnionID   = "union-1"
	memberLia     = "member-lia"
	memberRui     = "member-rui"
	otherUnionID  = "union-2"
	memberOutside = "member-outside"
)

// seedStore returns a store holding "Ana & Bruno" with two members: Lia,
// born 2015-05-10, and Rui, with no birth date. A second union has one member.
func seedStore() *mocks.Store {
	store := mocks.NewStore()
	store.Unions[testUnionID] = &entities.Union{ID: testUnionID, DisplayName: "Ana & Bruno"}
	store.Unions[otherUnionID] = &entities.Union{ID: otherUnionID, DisplayName: "Carla"}
	store.Members[memberLia] = &entities.Member{
		ID: memberLia, UnionID: testUnionID, Name: "Lia",
		Relationship: entities.RelationshipChild, BirthDate: dayPtr(2015, time.May, 10),
	}
	store.Members[memberRui] = &entities.Member{
		ID: memberRui, UnionID: testUnionID, Name: "Rui",
		Relationship: entities.RelationshipRelative,
	}
	store.Members[memberOutside] = &entities.Member{
		ID: memberOutside, UnionID: otherUnionID, Name: "Outsider",
	}
	return store
}

func testSession(t *testing.T) entities.Session {
	t.Helper()
	session, err := entities.NewSession(testUnionID, "user-1")
	require.NoError(t, err)
	return session
}

func newTestRegistry(t *testing.T) (*RegistryService, *mocks.Store, entities.Session) {
	t.Helper()
	store := seedStore()
	svc := NewRegistryService(store, nil)
	svc.WithClock(fixedClock)
	return svc, store, testSession(t)
}

func physicalDraft() AssetDraft {
	return AssetDraft{
		ID:           "asset-house",
		Name:         "Beach House",
		Kind:         entities.AssetKindPhysical,
		PhysicalType: entities.PhysicalTypeRealEstate,
		Address:      "Rua do Mar 1",
		Transactions: []TransactionDraft{{
			ID:         "tx-house-1",
			AcquiredAt: day(2024, time.June, 1),
			AmountPaid: dec("250000"),
			Acquirer:   "both",
			Contributions: []ContributionDraft{
				{Partner: "ana", Amount: dec("150000")},
				{Partner: "Bruno", Amount: dec("100000")},
			},
		}},
	}
}

func digitalDraft() AssetDraft {
	return AssetDraft{
		ID:          "asset-btc",
		Name:        "Bitcoin",
		Kind:        entities.AssetKindDigital,
		DigitalType: entities.DigitalTypeCrypto,
		Transactions: []TransactionDraft{{
			ID:         "tx-btc-1",
			AcquiredAt: day(2024, time.January, 10),
			Quantity:   dec("0.5"),
			AmountPaid: dec("20000"),
			Acquirer:   "Ana",
		}},
	}
}

func TestRegistryService_CreateUnion(t *testing.T) {
	store := mocks.NewStore()
	svc := NewRegistryService(store, nil)
	svc.WithClock(fixedClock)

	union, err := svc.CreateUnion(context.Background(), "", "Ana & Bruno")
	require.NoError(t, err)
	assert.NotEmpty(t, union.ID)
	assert.Equal(t, []string{"Ana", "Bruno"}, union.PartnerNames())
	assert.Contains(t, store.Unions, union.ID)

	_, err = svc.CreateUnion(context.Background(), "", "   ")
	assert.ErrorIs(t, err, entities.ErrValidation)
}

func TestRegistryService_RequiresSession(t *testing.T) {
	svc, _, _ := newTestRegistry(t)
	ctx := context.Background()

	_, err := svc.LoadUnion(ctx, entities.Session{})
	assert.ErrorIs(t, err, entities.ErrUnauthenticated)

	_, err = svc.CreateMember(ctx, entities.Session{}, MemberDraft{Name: "Lia"})
	assert.ErrorIs(t, err, entities.ErrUnauthenticated)

	_, err = svc.CreateAsset(ctx, entities.Session{}, physicalDraft())
	assert.ErrorIs(t, err, entities.ErrUnauthenticated)
}

func TestRegistryService_CreateMember(t *testing.T) {
	tests := []struct {
		name     string
		draft    MemberDraft
		wantName string
		wantRel  entities.Relationship
		wantErr  string
	}{
		{
			name:     "valid member",
			draft:    MemberDraft{Name: "  Tomas ", Relationship: entities.RelationshipChild, BirthDate: dayPtr(2020, time.January, 1)},
			wantName: "Tomas",
			wantRel:  entities.RelationshipChild,
		},
		{
			name:     "relationship defaults to other",
			draft:    MemberDraft{Name: "Zé"},
			wantName: "Zé",
			wantRel:  entities.RelationshipOther,
		},
		{
			name:    "missing name",
			draft:   MemberDraft{Name: " "},
			wantErr: "name is required",
		},
		{
			name:    "birth date in the future",
			draft:   MemberDraft{Name: "Future", BirthDate: dayPtr(2030, time.January, 1)},
			wantErr: "birth date cannot be in the future",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store, session := newTestRegistry(t)

			member, err := svc.CreateMember(context.Background(), session, tt.draft)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.ErrorIs(t, err, entities.ErrValidation)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, member.ID)
			assert.Equal(t, testUnionID, member.UnionID)
			assert.Equal(t, tt.wantName, member.Name)
			assert.Equal(t, tt.wantRel, member.Relationship)
			assert.Contains(t, store.Members, member.ID)
		})
	}
}

func TestRegistryService_CreateMember_PersistenceFailure(t *testing.T) {
	svc, store, session := newTestRegistry(t)
	store.Err = errors.New("disk full")

	_, err := svc.CreateMember(context.Background(), session, MemberDraft{Name: "Tomas"})
	require.Error(t, err)
	assert.ErrorIs(t, err, entities.ErrPersistenceFailure)
	assert.Contains(t, err.Error(), "disk full")
}

func TestRegistryService_UpdateMember(t *testing.T) {
	svc, store, session := newTestRegistry(t)
	ctx := context.Background()

	updated, err := svc.UpdateMember(ctx, session, memberRui, MemberDraft{
		Name:      "Rui Costa",
		BirthDate: dayPtr(1990, time.February, 3),
	})
	require.NoError(t, err)
	assert.Equal(t, "Rui Costa", updated.Name)
	assert.Equal(t, entities.RelationshipRelative, updated.Relationship)
	assert.True(t, store.Members[memberRui].HasBirthDate())

	_, err = svc.UpdateMember(ctx, session, memberOutside, MemberDraft{Name: "Mine now"})
	assert.ErrorIs(t, err, entities.ErrUnknownMember)

	_, err = svc.UpdateMember(ctx, session, "missing", MemberDraft{Name: "Nobody"})
	assert.ErrorIs(t, err, entities.ErrNotFound)
}

func TestRegistryService_CreateAsset(t *testing.T) {
	svc, store, session := newTestRegistry(t)

	asset, err := svc.CreateAsset(context.Background(), session, physicalDraft())
	require.NoError(t, err)

	assert.Equal(t, "asset-house", asset.ID)
	assert.Equal(t, testUnionID, asset.UnionID)
	require.NoError(t, asset.CheckKind())
	assert.Equal(t, "Rua do Mar 1", asset.Physical.Address)
	require.Len(t, asset.Transactions, 1)

	tx := asset.Transactions[0]
	assert.Equal(t, entities.AcquirerBoth, tx.Acquirer.Kind)
	require.Len(t, tx.Contributions, 2)
	assert.Equal(t, "Ana", tx.Contributions[0].Partner, "partner names take the union's spelling")
	assert.Equal(t, 1, store.CreateAssetCalls)
}

func TestRegistryService_CreateAsset_KindMismatch(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(d *AssetDraft)
		field  string
	}{
		{
			name:   "physical draft carrying a quantity",
			mutate: func(d *AssetDraft) { d.Transactions[0].Quantity = dec("1") },
			field:  FieldQuantity,
		},
		{
			name: "digital draft carrying an address",
			mutate: func(d *AssetDraft) {
				d.Kind = entities.AssetKindDigital
				d.PhysicalType = ""
				d.DigitalType = entities.DigitalTypeNFT
				d.Transactions[0].Quantity = dec("1")
			},
			field: FieldAddress,
		},
		{
			name:   "unknown kind",
			mutate: func(d *AssetDraft) { d.Kind = "vapour" },
			field:  FieldKind,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store, session := newTestRegistry(t)
			draft := physicalDraft()
			tt.mutate(&draft)

			_, err := svc.CreateAsset(context.Background(), session, draft)
			require.Error(t, err)
			assert.ErrorIs(t, err, entities.ErrInvalidAssetKind)
			fe, ok := entities.AsFieldError(err)
			require.True(t, ok)
			assert.Equal(t, tt.field, fe.Field)
			assert.Equal(t, 0, store.CreateAssetCalls)
		})
	}
}

func TestRegistryService_CreateAsset_DigitalNeedsQuantity(t *testing.T) {
	svc, _, session := newTestRegistry(t)
	draft := digitalDraft()
	draft.Transactions[0].Quantity = decimal.NullDecimal{}

	_, err := svc.CreateAsset(context.Background(), session, draft)
	require.Error(t, err)
	fe, ok := entities.AsFieldError(err)
	require.True(t, ok)
	assert.Equal(t, FieldQuantity, fe.Field)
}

func TestRegistryService_CreateAsset_NeedsTransaction(t *testing.T) {
	svc, _, session := newTestRegistry(t)
	draft := digitalDraft()
	draft.Transactions = nil

	_, err := svc.CreateAsset(context.Background(), session, draft)
	assert.ErrorIs(t, err, entities.ErrValidation)
}

func TestRegistryService_CreateAsset_Idempotent(t *testing.T) {
	svc, store, session := newTestRegistry(t)
	ctx := context.Background()

	first, err := svc.CreateAsset(ctx, session, digitalDraft())
	require.NoError(t, err)

	second, err := svc.CreateAsset(ctx, session, digitalDraft())
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, store.Assets, 1)
	assert.Len(t, store.Assets[first.ID].Transactions, 1)
	assert.Equal(t, 1, store.CreateAssetCalls)
}

func TestRegistryService_CreateAsset_PersistenceFailure(t *testing.T) {
	svc, store, session := newTestRegistry(t)
	store.CreateAssetErr = errors.New("connection reset")

	_, err := svc.CreateAsset(context.Background(), session, digitalDraft())
	require.Error(t, err)
	assert.ErrorIs(t, err, entities.ErrPersistenceFailure)
	assert.Empty(t, store.Assets)
}

func TestRegistryService_CreateAsset_WithRelease(t *testing.T) {
	svc, _, session := newTestRegistry(t)
	ctx := context.Background()

	draft := physicalDraft()
	draft.AssignedMemberID = memberLia
	draft.ReleaseAge = intPtr(18)
	asset, err := svc.CreateAsset(ctx, session, draft)
	require.NoError(t, err)
	require.NotNil(t, asset.ReleaseCondition)
	assert.Equal(t, 18, asset.ReleaseCondition.TargetAge)

	draft = digitalDraft()
	draft.AssignedMemberID = memberRui
	draft.ReleaseAge = intPtr(25)
	_, err = svc.CreateAsset(ctx, session, draft)
	assert.ErrorIs(t, err, entities.ErrMemberBirthDateMissing)

	draft = digitalDraft()
	draft.AssignedMemberID = memberOutside
	_, err = svc.CreateAsset(ctx, session, draft)
	assert.ErrorIs(t, err, entities.ErrUnknownMember)
}

func TestRegistryService_AddTransaction(t *testing.T) {
	svc, store, session := newTestRegistry(t)
	ctx := context.Background()

	_, err := svc.CreateAsset(ctx, session, digitalDraft())
	require.NoError(t, err)

	draft := TransactionDraft{
		ID:            "tx-btc-2",
		AcquiredAt:    day(2024, time.February, 1),
		Quantity:      dec("1.5"),
		Acquirer:      "bruno",
		Contributions: []ContributionDraft{{Partner: "Ana", Amount: dec("10")}},
	}
	tx, err := svc.AddTransaction(ctx, session, "asset-btc", draft)
	require.NoError(t, err)
	assert.Equal(t, "Bruno", tx.Acquirer.Partner)
	assert.Empty(t, tx.Contributions, "contributions only apply when both partners acquired")

	again, err := svc.AddTransaction(ctx, session, "asset-btc", draft)
	require.NoError(t, err)
	assert.Equal(t, tx.ID, again.ID)
	assert.Len(t, store.Assets["asset-btc"].Transactions, 2)
	assert.Equal(t, 1, store.CreateTransactionCalls)

	totals := Aggregate(store.Assets["asset-btc"])
	assert.True(t, decimal.RequireFromString("2").Equal(totals.TotalQuantity))
}

func TestRegistryService_AddTransaction_Rejections(t *testing.T) {
	tests := []struct {
		name  string
		draft TransactionDraft
		want  error
		field string
	}{
		{
			name:  "physical asset with quantity",
			draft: TransactionDraft{AcquiredAt: day(2024, time.July, 1), Quantity: dec("2")},
			want:  entities.ErrInvalidAssetKind,
			field: FieldQuantity,
		},
		{
			name:  "unknown partner",
			draft: TransactionDraft{AcquiredAt: day(2024, time.July, 1), Acquirer: "Carla"},
			want:  entities.ErrValidation,
			field: FieldAcquirer,
		},
		{
			name:  "future date",
			draft: TransactionDraft{AcquiredAt: day(2027, time.July, 1)},
			want:  entities.ErrValidation,
			field: FieldAcquiredAt,
		},
		{
			name:  "negative amount",
			draft: TransactionDraft{AcquiredAt: day(2024, time.July, 1), AmountPaid: dec("-1")},
			want:  entities.ErrValidation,
			field: FieldAmountPaid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store, session := newTestRegistry(t)
			ctx := context.Background()
			_, err := svc.CreateAsset(ctx, session, physicalDraft())
			require.NoError(t, err)

			_, err = svc.AddTransaction(ctx, session, "asset-house", tt.draft)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			fe, ok := entities.AsFieldError(err)
			require.True(t, ok)
			assert.Equal(t, tt.field, fe.Field)
			assert.Equal(t, 0, store.CreateTransactionCalls)
		})
	}
}

func TestRegistryService_AddTransaction_OtherUnionAsset(t *testing.T) {
	svc, store, session := newTestRegistry(t)
	store.Assets["foreign"] = &entities.Asset{
		ID: "foreign", UnionID: otherUnionID, Name: "Car", Kind: entities.AssetKindPhysical,
		Physical: &entities.PhysicalDetails{Type: entities.PhysicalTypeVehicle},
	}

	_, err := svc.AddTransaction(context.Background(), session, "foreign", TransactionDraft{AcquiredAt: day(2024, time.July, 1)})
	assert.ErrorIs(t, err, entities.ErrNotFound)
}

func ethDraft() AssetDraft {
	draft := digitalDraft()
	draft.ID = "asset-eth"
	draft.Name = "Ethereum"
	draft.Transactions[0].ID = "tx-eth-1"
	draft.Transactions[0].Quantity = dec("1")
	return draft
}

func TestRegistryService_AddTransaction_IDOnOtherAsset(t *testing.T) {
	svc, _, session := newTestRegistry(t)
	ctx := context.Background()
	_, err := svc.CreateAsset(ctx, session, digitalDraft())
	require.NoError(t, err)
	_, err = svc.CreateAsset(ctx, session, ethDraft())
	require.NoError(t, err)

	_, err = svc.AddTransaction(ctx, session, "asset-eth", TransactionDraft{
		ID:         "tx-btc-1",
		AcquiredAt: day(2024, time.May, 1),
		Quantity:   dec("7"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, entities.ErrConflict)
	assert.NotErrorIs(t, err, entities.ErrPersistenceFailure)
	fe, ok := entities.AsFieldError(err)
	require.True(t, ok)
	assert.Equal(t, "id", fe.Field)

	union, err := svc.LoadUnion(ctx, session)
	require.NoError(t, err)
	eth := union.FindAsset("asset-eth")
	require.NotNil(t, eth)
	require.Len(t, eth.Transactions, 1)
	assertDecimal(t, "1", Aggregate(eth).TotalQuantity)
}

func TestRegistryService_CreateAsset_TransactionIDOnOtherAsset(t *testing.T) {
	svc, store, session := newTestRegistry(t)
	ctx := context.Background()
	_, err := svc.CreateAsset(ctx, session, digitalDraft())
	require.NoError(t, err)

	draft := ethDraft()
	draft.Transactions[0].ID = "tx-btc-1"
	_, err = svc.CreateAsset(ctx, session, draft)
	assert.ErrorIs(t, err, entities.ErrConflict)
	assert.NotContains(t, store.Assets, "asset-eth")
}

func TestRegistryService_AddTransaction_LocalCalendarDay(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	saoPaulo := time.FixedZone("BRT", -3*60*60)

	tests := []struct {
		name    string
		now     time.Time
		date    string
		wantErr bool
	}{
		{name: "today east of UTC before UTC midnight", now: time.Date(2024, time.June, 2, 8, 0, 0, 0, tokyo), date: "2024-06-02"},
		{name: "tomorrow east of UTC", now: time.Date(2024, time.June, 2, 8, 0, 0, 0, tokyo), date: "2024-06-03", wantErr: true},
		{name: "today west of UTC after UTC midnight", now: time.Date(2024, time.June, 2, 22, 0, 0, 0, saoPaulo), date: "2024-06-02"},
		{name: "tomorrow west of UTC after UTC midnight", now: time.Date(2024, time.June, 2, 22, 0, 0, 0, saoPaulo), date: "2024-06-03", wantErr: true},
		{name: "today in UTC", now: time.Date(2024, time.June, 2, 0, 0, 0, 0, time.UTC), date: "2024-06-02"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, session := newTestRegistry(t)
			ctx := context.Background()
			_, err := svc.CreateAsset(ctx, session, physicalDraft())
			require.NoError(t, err)
			svc.WithClock(func() time.Time { return tt.now })

			acquiredAt, err := ParseDate(tt.date)
			require.NoError(t, err)
			_, err = svc.AddTransaction(ctx, session, "asset-house", TransactionDraft{AcquiredAt: acquiredAt})
			if tt.wantErr {
				fe, ok := entities.AsFieldError(err)
				require.True(t, ok, "expected a field error, got %v", err)
				assert.Equal(t, FieldAcquiredAt, fe.Field)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestRegistryService_AssignAssetToMember(t *testing.T) {
	svc, store, session := newTestRegistry(t)
	ctx := context.Background()

	draft := physicalDraft()
	draft.AssignedMemberID = memberLia
	draft.ReleaseAge = intPtr(21)
	_, err := svc.CreateAsset(ctx, session, draft)
	require.NoError(t, err)

	t.Run("unknown member", func(t *testing.T) {
		_, err := svc.AssignAssetToMember(ctx, session, "asset-house", "ghost")
		assert.ErrorIs(t, err, entities.ErrUnknownMember)
		assert.Equal(t, memberLia, store.Assets["asset-house"].AssignedMemberID)
	})

	t.Run("member of another union", func(t *testing.T) {
		_, err := svc.AssignAssetToMember(ctx, session, "asset-house", memberOutside)
		assert.ErrorIs(t, err, entities.ErrUnknownMember)
	})

	t.Run("same member is a no-op", func(t *testing.T) {
		asset, err := svc.AssignAssetToMember(ctx, session, "asset-house", memberLia)
		require.NoError(t, err)
		assert.NotNil(t, asset.ReleaseCondition)
		assert.Equal(t, 0, store.UpdateAssignmentCalls)
	})

	t.Run("reassigning clears the release condition", func(t *testing.T) {
		asset, err := svc.AssignAssetToMember(ctx, session, "asset-house", memberRui)
		require.NoError(t, err)
		assert.Equal(t, memberRui, asset.AssignedMemberID)
		assert.Nil(t, asset.ReleaseCondition)
		assert.Nil(t, store.Assets["asset-house"].ReleaseCondition)
	})

	t.Run("clearing the assignment", func(t *testing.T) {
		asset, err := svc.AssignAssetToMember(ctx, session, "asset-house", "")
		require.NoError(t, err)
		assert.Empty(t, asset.AssignedMemberID)
		assert.Empty(t, store.Assets["asset-house"].AssignedMemberID)
	})
}

func TestRegistryService_LoadUnion(t *testing.T) {
	svc, _, session := newTestRegistry(t)
	ctx := context.Background()

	_, err := svc.CreateAsset(ctx, session, physicalDraft())
	require.NoError(t, err)
	_, err = svc.CreateAsset(ctx, session, digitalDraft())
	require.NoError(t, err)

	union, err := svc.LoadUnion(ctx, session)
	require.NoError(t, err)
	assert.Equal(t, "Ana & Bruno", union.DisplayName)
	assert.Len(t, union.Members, 2)
	assert.Len(t, union.Assets, 2)
	assert.Len(t, union.DigitalAssets(), 1)
}

func TestRegistryService_LoadUnion_Missing(t *testing.T) {
	svc, _, _ := newTestRegistry(t)
	session, err := entities.NewSession("nope", "")
	require.NoError(t, err)

	_, err = svc.LoadUnion(context.Background(), session)
	assert.ErrorIs(t, err, entities.ErrNotFound)
}
