// Package sqlite provides a SQLite implementation of the ports.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/ersonp/uniao/internal/domain/entities"
	"github.com/ersonp/uniao/internal/domain/ports"
)

// birthDateLayout is the storage format of member birth dates.
const birthDateLayout = time.DateOnly

// generateUUID returns a new UUID string.
func generateUUID() string {
	return uuid.New().String()
}

// timeNow returns the current time (can be mocked in tests).
var timeNow = time.Now

var _ ports.Store = (*Repository)(nil)

// Repository implements ports.Store using SQLite.
type Repository struct {
	db   *sql.DB
	path string
}

// NewRepository opens the SQLite database at path.
func NewRepository(path string) (*Repository, error) {
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	// Pragmas are per connection and :memory: databases are per connection,
	// so the pool holds exactly one.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	return &Repository{
		db:   db,
		path: path,
	}, nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Path returns the database file path.
func (r *Repository) Path() string {
	return r.path
}

// EnsureSchema creates the database schema if it doesn't exist.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS unions (
		id TEXT PRIMARY KEY,
		display_name TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS members (
		id TEXT PRIMARY KEY,
		union_id TEXT NOT NULL REFERENCES unions(id),
		name TEXT NOT NULL,
		relationship TEXT NOT NULL,
		birth_date TEXT,
		wallet_address TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_members_union ON members(union_id);

	-- Digital assets leave address and document empty; kind never changes.
	CREATE TABLE IF NOT EXISTS assets (
		id TEXT PRIMARY KEY,
		union_id TEXT NOT NULL REFERENCES unions(id),
		name TEXT NOT NULL,
		kind TEXT NOT NULL CHECK (kind IN ('digital', 'physical')),
		sub_type TEXT NOT NULL,
		address TEXT NOT NULL DEFAULT '',
		document TEXT NOT NULL DEFAULT '',
		assigned_member_id TEXT,
		release_age INTEGER,
		notes TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_assets_union ON assets(union_id);

	-- Amounts are decimal strings so sums stay exact.
	CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		asset_id TEXT NOT NULL REFERENCES assets(id),
		acquired_at TEXT NOT NULL,
		quantity TEXT,
		amount_paid TEXT,
		acquirer_kind TEXT NOT NULL DEFAULT '',
		acquirer_partner TEXT NOT NULL DEFAULT '',
		notes TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_transactions_asset ON transactions(asset_id);

	CREATE TABLE IF NOT EXISTS contributions (
		transaction_id TEXT NOT NULL REFERENCES transactions(id),
		position INTEGER NOT NULL,
		partner TEXT NOT NULL,
		amount TEXT NOT NULL,
		PRIMARY KEY (transaction_id, position)
	);

	CREATE TABLE IF NOT EXISTS audit_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		action TEXT NOT NULL,
		entity_id TEXT,
		details TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_audit_log_entity ON audit_log(entity_id);
	CREATE INDEX IF NOT EXISTS idx_audit_log_action ON audit_log(action);
	`

	_, err := r.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// SaveUnion creates a union or renames an existing one.
func (r *Repository) SaveUnion(ctx context.Context, union *entities.Union) error {
	createdAt := union.CreatedAt
	if createdAt.IsZero() {
		createdAt = timeNow().UTC()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	query := `
		INSERT INTO unions (id, display_name, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			display_name = excluded.display_name
	`
	if _, err := tx.ExecContext(ctx, query, union.ID, union.DisplayName, createdAt); err != nil {
		return fmt.Errorf("saving union: %w", err)
	}
	if err := logAction(ctx, tx, "union_saved", union.ID, map[string]any{"display_name": union.DisplayName}); err != nil {
		return err
	}
	return tx.Commit()
}

// FindUnion returns the union row without members or assets.
func (r *Repository) FindUnion(ctx context.Context, unionID string) (*entities.Union, error) {
	query := `SELECT id, display_name, created_at FROM unions WHERE id = ?`

	var union entities.Union
	err := r.db.QueryRowContext(ctx, query, unionID).Scan(&union.ID, &union.DisplayName, &union.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("union %s: %w", unionID, entities.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scanning union: %w", err)
	}
	return &union, nil
}
