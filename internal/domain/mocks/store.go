package mocks

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/ersonp/uniao/internal/domain/entities"
)

// Store is an in-memory implementation of ports.Store.
type Store struct {
	mu sync.Mutex

	Unions  map[string]*entities.Union
	Members map[string]*entities.Member
	Assets  map[string]*entities.Asset

	// Err is returned by every method when set. The per-method errors below
	// take precedence for their method.
	Err                  error
	CreateAssetErr       error
	CreateTransactionErr error
	UpdateReleaseErr     error

	CreateAssetCalls       int
	CreateTransactionCalls int
	UpdateReleaseCalls     int
	UpdateAssignmentCalls  int
	FindAssetCalls         int
	ListMembersCalls       int
}

// NewStore creates a new mock Store.
func NewStore() *Store {
	return &Store{
		Unions:  make(map[string]*entities.Union),
		Members: make(map[string]*entities.Member),
		Assets:  make(map[string]*entities.Asset),
	}
}

// EnsureSchema returns the configured error.
func (m *Store) EnsureSchema(_ context.Context) error {
	return m.Err
}

// Close is a no-op.
func (m *Store) Close() error {
	return nil
}

// SaveUnion stores the union row.
func (m *Store) SaveUnion(_ context.Context, union *entities.Union) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	u := *union
	u.Members, u.Assets = nil, nil
	m.Unions[u.ID] = &u
	return nil
}

// FindUnion returns the union row.
func (m *Store) FindUnion(_ context.Context, unionID string) (*entities.Union, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	u, ok := m.Unions[unionID]
	if !ok {
		return nil, entities.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

// CreateMember stores a member.
func (m *Store) CreateMember(_ context.Context, unionID string, member *entities.Member) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return "", m.Err
	}
	cp := *member
	cp.UnionID = unionID
	m.Members[cp.ID] = &cp
	return cp.ID, nil
}

// UpdateMember replaces a member.
func (m *Store) UpdateMember(_ context.Context, member *entities.Member) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if _, ok := m.Members[member.ID]; !ok {
		return entities.ErrNotFound
	}
	cp := *member
	m.Members[cp.ID] = &cp
	return nil
}

// FindMember returns a member by ID.
func (m *Store) FindMember(_ context.Context, memberID string) (*entities.Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	mem, ok := m.Members[memberID]
	if !ok {
		return nil, entities.ErrNotFound
	}
	cp := *mem
	return &cp, nil
}

// ListMembers lists a union's members by name.
func (m *Store) ListMembers(_ context.Context, unionID string) ([]entities.Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ListMembersCalls++
	if m.Err != nil {
		return nil, m.Err
	}
	var out []entities.Member
	for _, mem := range m.Members {
		if mem.UnionID == unionID {
			out = append(out, *mem)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out, nil
}

// CreateAsset stores an asset. An existing ID is left untouched.
func (m *Store) CreateAsset(_ context.Context, unionID string, asset *entities.Asset) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateAssetCalls++
	if m.CreateAssetErr != nil {
		return "", m.CreateAssetErr
	}
	if m.Err != nil {
		return "", m.Err
	}
	if _, ok := m.Assets[asset.ID]; ok {
		return asset.ID, nil
	}
	for i := range asset.Transactions {
		if m.transactionOwner(asset.Transactions[i].ID) != "" {
			return "", fmt.Errorf("transaction %s: %w", asset.Transactions[i].ID, entities.ErrConflict)
		}
	}
	cp := copyAsset(asset)
	cp.UnionID = unionID
	m.Assets[cp.ID] = cp
	return cp.ID, nil
}

// transactionOwner returns the asset holding txID, or "". Callers hold mu.
func (m *Store) transactionOwner(txID string) string {
	for id, asset := range m.Assets {
		if asset.HasTransaction(txID) {
			return id
		}
	}
	return ""
}

// CreateTransaction appends a transaction. An existing ID is left untouched
// when it belongs to assetID and rejected with ErrConflict otherwise.
func (m *Store) CreateTransaction(_ context.Context, assetID string, tx *entities.Transaction) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateTransactionCalls++
	if m.CreateTransactionErr != nil {
		return "", m.CreateTransactionErr
	}
	if m.Err != nil {
		return "", m.Err
	}
	asset, ok := m.Assets[assetID]
	if !ok {
		return "", entities.ErrNotFound
	}
	if owner := m.transactionOwner(tx.ID); owner != "" {
		if owner != assetID {
			return "", fmt.Errorf("transaction %s is recorded on asset %s: %w", tx.ID, owner, entities.ErrConflict)
		}
		return tx.ID, nil
	}
	cp := *tx
	cp.AssetID = assetID
	cp.Contributions = append([]entities.Contribution(nil), tx.Contributions...)
	asset.Transactions = append(asset.Transactions, cp)
	return cp.ID, nil
}

// UpdateReleaseCondition sets or clears an asset's release condition.
func (m *Store) UpdateReleaseCondition(_ context.Context, assetID string, targetAge *int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpdateReleaseCalls++
	if m.UpdateReleaseErr != nil {
		return m.UpdateReleaseErr
	}
	if m.Err != nil {
		return m.Err
	}
	asset, ok := m.Assets[assetID]
	if !ok {
		return entities.ErrNotFound
	}
	if targetAge == nil {
		asset.ReleaseCondition = nil
		return nil
	}
	asset.ReleaseCondition = &entities.ReleaseCondition{Type: entities.ReleaseConditionAge, TargetAge: *targetAge}
	return nil
}

// UpdateAssetAssignment sets or clears the assigned member.
func (m *Store) UpdateAssetAssignment(_ context.Context, assetID, memberID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpdateAssignmentCalls++
	if m.Err != nil {
		return m.Err
	}
	asset, ok := m.Assets[assetID]
	if !ok {
		return entities.ErrNotFound
	}
	asset.AssignedMemberID = memberID
	return nil
}

// FindAsset returns an asset by ID.
func (m *Store) FindAsset(_ context.Context, assetID string) (*entities.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FindAssetCalls++
	if m.Err != nil {
		return nil, m.Err
	}
	asset, ok := m.Assets[assetID]
	if !ok {
		return nil, entities.ErrNotFound
	}
	return copyAsset(asset), nil
}

// ListAssets lists a union's assets by name.
func (m *Store) ListAssets(_ context.Context, unionID string) ([]entities.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var out []entities.Asset
	for _, a := range m.Assets {
		if a.UnionID == unionID {
			out = append(out, *copyAsset(a))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out, nil
}

func copyAsset(a *entities.Asset) *entities.Asset {
	cp := *a
	if a.Digital != nil {
		d := *a.Digital
		cp.Digital = &d
	}
	if a.Physical != nil {
		p := *a.Physical
		cp.Physical = &p
	}
	if a.ReleaseCondition != nil {
		rc := *a.ReleaseCondition
		cp.ReleaseCondition = &rc
	}
	cp.Transactions = make([]entities.Transaction, len(a.Transactions))
	for i, tx := range a.Transactions {
		tx.Contributions = append([]entities.Contribution(nil), tx.Contributions...)
		cp.Transactions[i] = tx
	}
	return &cp
}
