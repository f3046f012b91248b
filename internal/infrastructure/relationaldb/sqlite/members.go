package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ersonp/uniao/internal/domain/entities"
)

const memberColumns = `id, union_id, name, relationship, birth_date, wallet_address, created_at, updated_at`

// CreateMember stores a new member and returns its ID.
func (r *Repository) CreateMember(ctx context.Context, unionID string, member *entities.Member) (string, error) {
	id := member.ID
	if id == "" {
		id = generateUUID()
	}
	now := timeNow().UTC()
	createdAt, updatedAt := member.CreatedAt, member.UpdatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	query := `
		INSERT INTO members (` + memberColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = tx.ExecContext(ctx, query,
		id,
		unionID,
		member.Name,
		string(member.Relationship),
		formatBirthDate(member.BirthDate),
		member.WalletAddress,
		createdAt,
		updatedAt,
	)
	if err != nil {
		return "", fmt.Errorf("inserting member: %w", err)
	}
	if err := logAction(ctx, tx, "member_created", id, map[string]any{"name": member.Name}); err != nil {
		return "", err
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing member: %w", err)
	}
	return id, nil
}

// UpdateMember replaces the editable fields of a member.
func (r *Repository) UpdateMember(ctx context.Context, member *entities.Member) error {
	updatedAt := member.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = timeNow().UTC()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	query := `
		UPDATE members
		SET name = ?, relationship = ?, birth_date = ?, wallet_address = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := tx.ExecContext(ctx, query,
		member.Name,
		string(member.Relationship),
		formatBirthDate(member.BirthDate),
		member.WalletAddress,
		updatedAt,
		member.ID,
	)
	if err != nil {
		return fmt.Errorf("updating member: %w", err)
	}
	if err := requireAffected(result, "member", member.ID); err != nil {
		return err
	}
	if err := logAction(ctx, tx, "member_updated", member.ID, map[string]any{"name": member.Name}); err != nil {
		return err
	}
	return tx.Commit()
}

// FindMember returns a member by ID.
func (r *Repository) FindMember(ctx context.Context, memberID string) (*entities.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE id = ?`

	member, err := scanMember(r.db.QueryRowContext(ctx, query, memberID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("member %s: %w", memberID, entities.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return member, nil
}

// ListMembers lists a union's members ordered by name.
func (r *Repository) ListMembers(ctx context.Context, unionID string) ([]entities.Member, error) {
	query := `
		SELECT ` + memberColumns + `
		FROM members
		WHERE union_id = ?
		ORDER BY name COLLATE NOCASE ASC, id ASC
	`
	rows, err := r.db.QueryContext(ctx, query, unionID)
	if err != nil {
		return nil, fmt.Errorf("querying members: %w", err)
	}
	defer rows.Close()

	var result []entities.Member
	for rows.Next() {
		member, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *member)
	}
	return result, rows.Err()
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanMember(row rowScanner) (*entities.Member, error) {
	var member entities.Member
	var relationship string
	var birthDate sql.NullString

	err := row.Scan(
		&member.ID,
		&member.UnionID,
		&member.Name,
		&relationship,
		&birthDate,
		&member.WalletAddress,
		&member.CreatedAt,
		&member.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scanning member: %w", err)
	}

	member.Relationship = entities.Relationship(relationship)
	if birthDate.Valid && birthDate.String != "" {
		t, err := time.Parse(birthDateLayout, birthDate.String)
		if err != nil {
			return nil, fmt.Errorf("parsing birth date of member %s: %w", member.ID, err)
		}
		member.BirthDate = &t
	}
	return &member, nil
}

func formatBirthDate(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(birthDateLayout), Valid: true}
}

// requireAffected maps an update that touched no row to entities.ErrNotFound.
func requireAffected(result sql.Result, kind, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, entities.ErrNotFound)
	}
	return nil
}
