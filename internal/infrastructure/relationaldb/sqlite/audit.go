package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// AuditEntry is one recorded change to a union, member or asset.
type AuditEntry struct {
	ID        int64          `json:"id"`
	Action    string         `json:"action"`
	EntityID  string         `json:"entity_id,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// logAction records an action in the audit log as part of the caller's transaction.
func logAction(ctx context.Context, db execer, action, entityID string, details map[string]any) error {
	var detailsJSON sql.NullString
	if details != nil {
		data, err := json.Marshal(details)
		if err != nil {
			return fmt.Errorf("marshaling details: %w", err)
		}
		detailsJSON = sql.NullString{String: string(data), Valid: true}
	}

	query := `INSERT INTO audit_log (action, entity_id, details, created_at) VALUES (?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, query, action, nullString(entityID), detailsJSON, timeNow().UTC())
	if err != nil {
		return fmt.Errorf("logging action: %w", err)
	}
	return nil
}

// FindAuditLog returns the audit entries of an entity, newest first.
func (r *Repository) FindAuditLog(ctx context.Context, entityID string) ([]AuditEntry, error) {
	query := `
		SELECT id, action, entity_id, details, created_at
		FROM audit_log
		WHERE entity_id = ?
		ORDER BY id DESC
	`
	rows, err := r.db.QueryContext(ctx, query, entityID)
	if err != nil {
		return nil, fmt.Errorf("querying audit log: %w", err)
	}
	defer rows.Close()

	var entries []AuditEntry
	for rows.Next() {
		var entry AuditEntry
		var id, details sql.NullString

		if err := rows.Scan(&entry.ID, &entry.Action, &id, &details, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning audit entry: %w", err)
		}
		entry.EntityID = id.String

		if details.Valid && details.String != "" {
			if err := json.Unmarshal([]byte(details.String), &entry.Details); err != nil {
				return nil, fmt.Errorf("unmarshaling details: %w", err)
			}
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
