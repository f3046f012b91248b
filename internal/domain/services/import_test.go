package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/uniao/internal/domain/entities"
	"github.com/ersonp/uniao/internal/infrastructure/parsers"
)

func newImportFixture(t *testing.T) (*ImportService, *RegistryService, entities.Session) {
	t.Helper()
	registry, _, session := newTestRegistry(t)
	_, err := registry.CreateAsset(context.Background(), session, digitalDraft())
	require.NoError(t, err)
	return NewImportService(registry, nil), registry, session
}

func TestImportService_Import_ValidRows(t *testing.T) {
	service, registry, session := newImportFixture(t)
	ctx := context.Background()

	rows := []parsers.RawTransaction{
		{ID: "imp-1", AcquiredAt: "2024-02-01", Quantity: "0,25", AmountPaid: "9000", Acquirer: "bruno", LineNum: 2},
		{ID: "imp-2", AcquiredAt: "2024-03-01T09:30:00Z", Quantity: "0.25", Acquirer: "both", LineNum: 3,
			Contributions: []parsers.RawContribution{{Partner: "Ana", Amount: "100"}, {Partner: "Bruno", Amount: ""}}},
	}

	result, err := service.Import(ctx, session, "asset-btc", rows, ImportOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, 0, result.Skipped)
	assert.Empty(t, result.Errors)

	union, err := registry.LoadUnion(ctx, session)
	require.NoError(t, err)
	asset := union.FindAsset("asset-btc")
	require.NotNil(t, asset)
	assert.Len(t, asset.Transactions, 3)
	assertDecimal(t, "1", Aggregate(asset).TotalQuantity)
}

func TestImportService_Import_RowErrors(t *testing.T) {
	service, _, session := newImportFixture(t)

	rows := []parsers.RawTransaction{
		{AcquiredAt: "", Quantity: "1"},
		{AcquiredAt: "01/02/2024", Quantity: "1"},
		{AcquiredAt: "2024-02-01", Quantity: "lots"},
		{AcquiredAt: "2024-02-01"},
		{AcquiredAt: "2024-02-01", Quantity: "1", Acquirer: "Carla"},
		{AcquiredAt: "2024-02-01", Quantity: "1", Acquirer: "both",
			Contributions: []parsers.RawContribution{{Partner: "Ana", Amount: "x"}}},
	}

	result, err := service.Import(context.Background(), session, "asset-btc", rows, ImportOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Imported)
	require.Len(t, result.Errors, 6)

	fields := make([]string, 0, len(result.Errors))
	for _, e := range result.Errors {
		fields = append(fields, e.Field)
	}
	assert.Equal(t, []string{"acquired_at", "acquired_at", "quantity", FieldQuantity, FieldAcquirer, "contributions"}, fields)
	assert.Equal(t, 1, result.Errors[0].Line, "line falls back to the row position")
	assert.Contains(t, result.Errors[1].Error(), "line 2")
}

func TestImportService_Import_SkipsRecordedIDs(t *testing.T) {
	service, _, session := newImportFixture(t)

	rows := []parsers.RawTransaction{
		{ID: "tx-btc-1", AcquiredAt: "2024-01-10", Quantity: "0.5"},
		{ID: "imp-1", AcquiredAt: "2024-02-01", Quantity: "1"},
		{ID: "imp-1", AcquiredAt: "2024-02-01", Quantity: "1"},
	}

	result, err := service.Import(context.Background(), session, "asset-btc", rows, ImportOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 2, result.Skipped)
}

func TestImportService_Import_LoadsOnce(t *testing.T) {
	registry, store, session := newTestRegistry(t)
	ctx := context.Background()
	_, err := registry.CreateAsset(ctx, session, digitalDraft())
	require.NoError(t, err)
	store.FindAssetCalls, store.ListMembersCalls = 0, 0

	rows := []parsers.RawTransaction{
		{ID: "imp-1", AcquiredAt: "2024-02-01", Quantity: "1"},
		{ID: "imp-2", AcquiredAt: "2024-02-02", Quantity: "2"},
		{ID: "imp-3", AcquiredAt: "2024-02-03", Quantity: "3"},
	}
	result, err := NewImportService(registry, nil).Import(ctx, session, "asset-btc", rows, ImportOptions{})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Imported)
	assert.Equal(t, 1, store.FindAssetCalls)
	assert.Equal(t, 1, store.ListMembersCalls)
	assert.Equal(t, 3, store.CreateTransactionCalls)
	assert.Len(t, store.Assets["asset-btc"].Transactions, 4)
}

func TestImportService_Import_IDOnOtherAsset(t *testing.T) {
	service, registry, session := newImportFixture(t)
	ctx := context.Background()
	_, err := registry.CreateAsset(ctx, session, ethDraft())
	require.NoError(t, err)

	rows := []parsers.RawTransaction{
		{ID: "tx-btc-1", AcquiredAt: "2024-02-01", Quantity: "7", LineNum: 2},
		{ID: "imp-eth", AcquiredAt: "2024-02-01", Quantity: "1", LineNum: 3},
	}
	result, err := service.Import(ctx, session, "asset-eth", rows, ImportOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 2, result.Errors[0].Line)
	assert.Equal(t, "id", result.Errors[0].Field)

	union, err := registry.LoadUnion(ctx, session)
	require.NoError(t, err)
	assert.Len(t, union.FindAsset("asset-eth").Transactions, 2)
	assert.Len(t, union.FindAsset("asset-btc").Transactions, 1)
}

func TestImportService_Import_DryRun(t *testing.T) {
	service, registry, session := newImportFixture(t)
	ctx := context.Background()

	rows := []parsers.RawTransaction{{AcquiredAt: "2024-02-01", Quantity: "1"}}
	result, err := service.Import(ctx, session, "asset-btc", rows, ImportOptions{DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)

	union, err := registry.LoadUnion(ctx, session)
	require.NoError(t, err)
	assert.Len(t, union.FindAsset("asset-btc").Transactions, 1)
}

func TestImportService_Import_PersistenceFailure(t *testing.T) {
	registry, store, session := newTestRegistry(t)
	_, err := registry.CreateAsset(context.Background(), session, digitalDraft())
	require.NoError(t, err)
	store.CreateTransactionErr = errors.New("locked")

	service := NewImportService(registry, nil)
	rows := []parsers.RawTransaction{{AcquiredAt: "2024-02-01", Quantity: "1", LineNum: 4}}
	_, err = service.Import(context.Background(), session, "asset-btc", rows, ImportOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, entities.ErrPersistenceFailure)
	assert.Contains(t, err.Error(), "line 4")
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-06-01")
	require.NoError(t, err)
	assert.Equal(t, day(2024, time.June, 1), d)

	d, err = ParseDate("2024-06-01T10:00:00-03:00")
	require.NoError(t, err)
	assert.Equal(t, 13, d.UTC().Hour())

	_, err = ParseDate("June 1st")
	assert.Error(t, err)
}
