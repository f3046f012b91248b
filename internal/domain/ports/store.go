// Package ports defines interfaces for external service communication.
package ports

import (
	"context"

	"github.com/ersonp/uniao/internal/domain/entities"
)

// Store is the persistence collaborator. Each call is independent; no
// multi-entity transactionality is required of implementations.
type Store interface {
	// EnsureSchema creates the storage schema if it doesn't exist.
	EnsureSchema(ctx context.Context) error

	// Close releases the underlying connection.
	Close() error

	// Union operations

	// SaveUnion creates or renames a union.
	SaveUnion(ctx context.Context, union *entities.Union) error

	// FindUnion returns the union row without members or assets.
	// Returns entities.ErrNotFound if it does not exist.
	FindUnion(ctx context.Context, unionID string) (*entities.Union, error)

	// Member operations

	// CreateMember stores a new member and returns its ID.
	CreateMember(ctx context.Context, unionID string, member *entities.Member) (string, error)

	// UpdateMember replaces the editable fields of a member.
	UpdateMember(ctx context.Context, member *entities.Member) error

	// FindMember returns a member by ID, or entities.ErrNotFound.
	FindMember(ctx context.Context, memberID string) (*entities.Member, error)

	// ListMembers lists a union's members ordered by name.
	ListMembers(ctx context.Context, unionID string) ([]entities.Member, error)

	// Asset operations

	// CreateAsset stores an asset together with its initial transactions and
	// returns its ID. Re-submitting an existing asset ID is a no-op.
	CreateAsset(ctx context.Context, unionID string, asset *entities.Asset) (string, error)

	// CreateTransaction appends a transaction to an asset and returns its ID.
	// Re-submitting an existing transaction ID is a no-op.
	CreateTransaction(ctx context.Context, assetID string, tx *entities.Transaction) (string, error)

	// UpdateReleaseCondition sets the age condition, or clears it when targetAge is nil.
	UpdateReleaseCondition(ctx context.Context, assetID string, targetAge *int) error

	// UpdateAssetAssignment sets or clears (empty memberID) the earmarked member.
	UpdateAssetAssignment(ctx context.Context, assetID, memberID string) error

	// FindAsset returns an asset with its transactions, or entities.ErrNotFound.
	FindAsset(ctx context.Context, assetID string) (*entities.Asset, error)

	// ListAssets lists a union's assets with their transactions, ordered by name.
	ListAssets(ctx context.Context, unionID string) ([]entities.Asset, error)
}
