package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ersonp/uniao/internal/domain/entities"
)

const assetColumns = `id, union_id, name, kind, sub_type, address, document,
	assigned_member_id, release_age, notes, created_at, updated_at`

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// CreateAsset stores an asset together with its initial transactions in one
// database transaction. Re-submitting an existing asset ID is a no-op.
func (r *Repository) CreateAsset(ctx context.Context, unionID string, asset *entities.Asset) (string, error) {
	id := asset.ID
	if id == "" {
		id = generateUUID()
	}
	now := timeNow().UTC()
	createdAt, updatedAt := asset.CreatedAt, asset.UpdatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}

	var address, document string
	if asset.Physical != nil {
		address, document = asset.Physical.Address, asset.Physical.Document
	}
	var releaseAge sql.NullInt64
	if asset.ReleaseCondition != nil {
		releaseAge = sql.NullInt64{Int64: int64(asset.ReleaseCondition.TargetAge), Valid: true}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	query := `
		INSERT OR IGNORE INTO assets (` + assetColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := tx.ExecContext(ctx, query,
		id,
		unionID,
		asset.Name,
		string(asset.Kind),
		asset.SubType(),
		address,
		document,
		nullString(asset.AssignedMemberID),
		releaseAge,
		asset.Notes,
		createdAt,
		updatedAt,
	)
	if err != nil {
		return "", fmt.Errorf("inserting asset: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return "", fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return id, nil
	}

	for i := range asset.Transactions {
		txID, inserted, err := insertTransaction(ctx, tx, id, &asset.Transactions[i])
		if err != nil {
			return "", err
		}
		if !inserted {
			return "", fmt.Errorf("transaction %s: %w", txID, entities.ErrConflict)
		}
	}

	details := map[string]any{"name": asset.Name, "kind": string(asset.Kind), "transactions": len(asset.Transactions)}
	if err := logAction(ctx, tx, "asset_created", id, details); err != nil {
		return "", err
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing asset: %w", err)
	}
	return id, nil
}

// CreateTransaction appends a transaction to an asset. Re-submitting an
// existing transaction ID for the same asset is a no-op; an ID recorded on
// another asset fails with ErrConflict.
func (r *Repository) CreateTransaction(ctx context.Context, assetID string, t *entities.Transaction) (string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM assets WHERE id = ?`, assetID).Scan(&exists)
	if err != nil {
		return "", fmt.Errorf("checking asset: %w", err)
	}
	if exists == 0 {
		return "", fmt.Errorf("asset %s: %w", assetID, entities.ErrNotFound)
	}

	id, inserted, err := insertTransaction(ctx, tx, assetID, t)
	if err != nil {
		return "", err
	}
	if !inserted {
		var owner string
		err := tx.QueryRowContext(ctx, `SELECT asset_id FROM transactions WHERE id = ?`, id).Scan(&owner)
		if err != nil {
			return "", fmt.Errorf("checking transaction owner: %w", err)
		}
		if owner != assetID {
			return "", fmt.Errorf("transaction %s is recorded on asset %s: %w", id, owner, entities.ErrConflict)
		}
		return id, nil
	}
	if err := touchAsset(ctx, tx, assetID); err != nil {
		return "", err
	}
	if err := logAction(ctx, tx, "transaction_added", assetID, map[string]any{"transaction_id": id}); err != nil {
		return "", err
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing transaction: %w", err)
	}
	return id, nil
}

// insertTransaction writes a transaction and its contributions. An ID that is
// already stored leaves the existing row and its contributions untouched and
// reports inserted as false.
func insertTransaction(ctx context.Context, db execer, assetID string, t *entities.Transaction) (id string, inserted bool, err error) {
	id = t.ID
	if id == "" {
		id = generateUUID()
	}
	createdAt := t.CreatedAt
	if createdAt.IsZero() {
		createdAt = timeNow().UTC()
	}

	query := `
		INSERT OR IGNORE INTO transactions
			(id, asset_id, acquired_at, quantity, amount_paid, acquirer_kind, acquirer_partner, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := db.ExecContext(ctx, query,
		id,
		assetID,
		t.AcquiredAt.UTC().Format(time.RFC3339Nano),
		t.Quantity,
		t.AmountPaid,
		string(t.Acquirer.Kind),
		t.Acquirer.Partner,
		t.Notes,
		createdAt,
	)
	if err != nil {
		return "", false, fmt.Errorf("inserting transaction: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return "", false, fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return id, false, nil
	}

	for i, c := range t.Contributions {
		_, err = db.ExecContext(ctx,
			`INSERT INTO contributions (transaction_id, position, partner, amount) VALUES (?, ?, ?, ?)`,
			id, i, c.Partner, c.Amount.String(),
		)
		if err != nil {
			return "", false, fmt.Errorf("inserting contribution: %w", err)
		}
	}
	return id, true, nil
}

// UpdateReleaseCondition sets the age condition, or clears it when targetAge is nil.
func (r *Repository) UpdateReleaseCondition(ctx context.Context, assetID string, targetAge *int) error {
	var age sql.NullInt64
	details := map[string]any{"target_age": nil}
	if targetAge != nil {
		age = sql.NullInt64{Int64: int64(*targetAge), Valid: true}
		details["target_age"] = *targetAge
	}

	return r.updateAsset(ctx, assetID, "release_condition_changed", details,
		`UPDATE assets SET release_age = ?, updated_at = ? WHERE id = ?`,
		age, timeNow().UTC(), assetID,
	)
}

// UpdateAssetAssignment sets or clears (empty memberID) the earmarked member.
func (r *Repository) UpdateAssetAssignment(ctx context.Context, assetID, memberID string) error {
	return r.updateAsset(ctx, assetID, "assignment_changed", map[string]any{"member_id": memberID},
		`UPDATE assets SET assigned_member_id = ?, updated_at = ? WHERE id = ?`,
		nullString(memberID), timeNow().UTC(), assetID,
	)
}

func (r *Repository) updateAsset(ctx context.Context, assetID, action string, details map[string]any, query string, args ...any) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating asset: %w", err)
	}
	if err := requireAffected(result, "asset", assetID); err != nil {
		return err
	}
	if err := logAction(ctx, tx, action, assetID, details); err != nil {
		return err
	}
	return tx.Commit()
}

func touchAsset(ctx context.Context, db execer, assetID string) error {
	if _, err := db.ExecContext(ctx, `UPDATE assets SET updated_at = ? WHERE id = ?`, timeNow().UTC(), assetID); err != nil {
		return fmt.Errorf("touching asset: %w", err)
	}
	return nil
}

// FindAsset returns an asset with its transactions.
func (r *Repository) FindAsset(ctx context.Context, assetID string) (*entities.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets WHERE id = ?`

	asset, err := scanAsset(r.db.QueryRowContext(ctx, query, assetID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("asset %s: %w", assetID, entities.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	assets := []entities.Asset{*asset}
	if err := r.attachTransactions(ctx, assets, `t.asset_id = ?`, assetID); err != nil {
		return nil, err
	}
	return &assets[0], nil
}

// ListAssets lists a union's assets with their transactions, ordered by name.
func (r *Repository) ListAssets(ctx context.Context, unionID string) ([]entities.Asset, error) {
	query := `
		SELECT ` + assetColumns + `
		FROM assets
		WHERE union_id = ?
		ORDER BY name COLLATE NOCASE ASC, id ASC
	`
	rows, err := r.db.QueryContext(ctx, query, unionID)
	if err != nil {
		return nil, fmt.Errorf("querying assets: %w", err)
	}

	var assets []entities.Asset
	for rows.Next() {
		asset, err := scanAsset(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		assets = append(assets, *asset)
	}
	// The pool holds one connection; release it before the next query.
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating assets: %w", err)
	}
	if len(assets) == 0 {
		return assets, nil
	}

	if err := r.attachTransactions(ctx, assets, `a.union_id = ?`, unionID); err != nil {
		return nil, err
	}
	return assets, nil
}

// attachTransactions loads the transactions and contributions matching filter
// and appends them to their assets in insertion order.
func (r *Repository) attachTransactions(ctx context.Context, assets []entities.Asset, filter string, arg any) error {
	byID := make(map[string]*entities.Asset, len(assets))
	for i := range assets {
		byID[assets[i].ID] = &assets[i]
	}

	txs, err := r.queryTransactions(ctx, filter, arg)
	if err != nil {
		return err
	}
	contributions, err := r.queryContributions(ctx, filter, arg)
	if err != nil {
		return err
	}

	for _, t := range txs {
		asset, ok := byID[t.AssetID]
		if !ok {
			continue
		}
		t.Contributions = contributions[t.ID]
		asset.Transactions = append(asset.Transactions, t)
	}
	return nil
}

func (r *Repository) queryTransactions(ctx context.Context, filter string, arg any) ([]entities.Transaction, error) {
	query := `
		SELECT t.id, t.asset_id, t.acquired_at, t.quantity, t.amount_paid,
			t.acquirer_kind, t.acquirer_partner, t.notes, t.created_at
		FROM transactions t
		JOIN assets a ON a.id = t.asset_id
		WHERE ` + filter + `
		ORDER BY t.rowid ASC
	`
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("querying transactions: %w", err)
	}
	defer rows.Close()

	var result []entities.Transaction
	for rows.Next() {
		var t entities.Transaction
		var acquiredAt, acquirerKind string
		if err := rows.Scan(
			&t.ID,
			&t.AssetID,
			&acquiredAt,
			&t.Quantity,
			&t.AmountPaid,
			&acquirerKind,
			&t.Acquirer.Partner,
			&t.Notes,
			&t.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}
		t.Acquirer.Kind = entities.AcquirerKind(acquirerKind)
		t.AcquiredAt, err = time.Parse(time.RFC3339Nano, acquiredAt)
		if err != nil {
			return nil, fmt.Errorf("parsing acquired_at of transaction %s: %w", t.ID, err)
		}
		result = append(result, t)
	}
	return result, rows.Err()
}

func (r *Repository) queryContributions(ctx context.Context, filter string, arg any) (map[string][]entities.Contribution, error) {
	query := `
		SELECT c.transaction_id, c.partner, c.amount
		FROM contributions c
		JOIN transactions t ON t.id = c.transaction_id
		JOIN assets a ON a.id = t.asset_id
		WHERE ` + filter + `
		ORDER BY c.transaction_id, c.position
	`
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("querying contributions: %w", err)
	}
	defer rows.Close()

	result := make(map[string][]entities.Contribution)
	for rows.Next() {
		var txID, partner, amount string
		if err := rows.Scan(&txID, &partner, &amount); err != nil {
			return nil, fmt.Errorf("scanning contribution: %w", err)
		}
		d, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("parsing contribution of transaction %s: %w", txID, err)
		}
		result[txID] = append(result[txID], entities.Contribution{Partner: partner, Amount: d})
	}
	return result, rows.Err()
}

func scanAsset(row rowScanner) (*entities.Asset, error) {
	var asset entities.Asset
	var kind, subType, address, document string
	var assigned sql.NullString
	var releaseAge sql.NullInt64

	err := row.Scan(
		&asset.ID,
		&asset.UnionID,
		&asset.Name,
		&kind,
		&subType,
		&address,
		&document,
		&assigned,
		&releaseAge,
		&asset.Notes,
		&asset.CreatedAt,
		&asset.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scanning asset: %w", err)
	}

	asset.Kind = entities.AssetKind(kind)
	switch asset.Kind {
	case entities.AssetKindDigital:
		asset.Digital = &entities.DigitalDetails{Type: entities.DigitalType(subType)}
	case entities.AssetKindPhysical:
		asset.Physical = &entities.PhysicalDetails{
			Type:     entities.PhysicalType(subType),
			Address:  address,
			Document: document,
		}
	}
	asset.AssignedMemberID = assigned.String
	if releaseAge.Valid {
		asset.ReleaseCondition = &entities.ReleaseCondition{
			Type:      entities.ReleaseConditionAge,
			TargetAge: int(releaseAge.Int64),
		}
	}
	return &asset, nil
}

func nullString(s string) sql.NullString {
	s = strings.TrimSpace(s)
	return sql.NullString{String: s, Valid: s != ""}
}
