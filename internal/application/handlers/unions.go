// Package handlers contains application use case handlers.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/ersonp/uniao/internal/domain/entities"
	"github.com/ersonp/uniao/internal/domain/ports"
	"github.com/ersonp/uniao/internal/domain/services"
	"github.com/ersonp/uniao/internal/infrastructure/config"
)

// StoreOpener opens the store backed by the database file at path.
type StoreOpener func(path string) (ports.Store, error)

// UnionsHandler manages profiles: the local names that open a union.
type UnionsHandler struct {
	basePath  string
	openStore StoreOpener
	logger    *zap.Logger
}

// NewUnionsHandler creates a new unions handler rooted at basePath.
func NewUnionsHandler(basePath string, openStore StoreOpener, logger *zap.Logger) *UnionsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UnionsHandler{
		basePath:  basePath,
		openStore: openStore,
		logger:    logger,
	}
}

// CreateUnionOptions describes a new profile.
type CreateUnionOptions struct {
	Profile     string
	Partners    []string
	Description string
}

// CreateUnionResult contains the result of creating a profile.
type CreateUnionResult struct {
	Profile       string
	UnionID       string
	DisplayName   string
	ConfigPath    string
	DatabasePath  string
	ConfigCreated bool
}

// ProfileInfo describes a configured profile.
type ProfileInfo struct {
	Name         string
	UnionID      string
	Description  string
	DatabasePath string
}

// HandleCreate writes the default config if needed, creates the union in a
// fresh database and registers the profile.
func (h *UnionsHandler) HandleCreate(ctx context.Context, opts CreateUnionOptions) (*CreateUnionResult, error) {
	if len(opts.Partners) == 0 || len(opts.Partners) > 2 {
		return nil, fmt.Errorf("a union needs one or two partner names, got %d", len(opts.Partners))
	}
	second := ""
	if len(opts.Partners) == 2 {
		second = opts.Partners[1]
	}
	displayName := entities.ComposeDisplayName(opts.Partners[0], second)

	profile := config.SanitizeProfileName(opts.Profile)
	result := &CreateUnionResult{
		Profile:     profile,
		DisplayName: displayName,
		ConfigPath:  config.ConfigFilePath(h.basePath),
	}

	if !config.Exists(h.basePath) {
		if err := config.WriteDefault(h.basePath); err != nil {
			return nil, fmt.Errorf("writing default config: %w", err)
		}
		result.ConfigCreated = true
	}

	cfg, err := config.Load(h.basePath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	unions, err := config.LoadUnions(h.basePath)
	if err != nil {
		return nil, fmt.Errorf("loading unions: %w", err)
	}
	if unions.Exists(profile) {
		return nil, fmt.Errorf("union %q already exists", profile)
	}

	result.DatabasePath = cfg.SQLitePathForUnion(h.basePath, profile)
	if err := os.MkdirAll(filepath.Dir(result.DatabasePath), 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	union, err := h.createUnion(ctx, result.DatabasePath, displayName)
	if err != nil {
		return nil, err
	}
	result.UnionID = union.ID

	unions.Add(profile, config.UnionEntry{UnionID: union.ID, Description: opts.Description})
	if err := unions.Save(h.basePath); err != nil {
		return nil, fmt.Errorf("saving unions: %w", err)
	}

	h.logger.Info("profile created",
		zap.String("profile", profile),
		zap.String("union_id", union.ID),
	)
	return result, nil
}

func (h *UnionsHandler) createUnion(ctx context.Context, dbPath, displayName string) (_ *entities.Union, err error) {
	store, err := h.openStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	defer func() {
		if cerr := store.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing store: %w", cerr)
		}
	}()

	if err := store.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensuring schema: %w", err)
	}

	registry := services.NewRegistryService(store, h.logger)
	return registry.CreateUnion(ctx, "", displayName)
}

// HandleList returns the configured profiles sorted by name.
func (h *UnionsHandler) HandleList() ([]ProfileInfo, error) {
	unions, err := config.LoadUnions(h.basePath)
	if err != nil {
		return nil, fmt.Errorf("loading unions: %w", err)
	}

	var cfg *config.Config
	if config.Exists(h.basePath) {
		if cfg, err = config.Load(h.basePath); err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	}

	profiles := make([]ProfileInfo, 0, len(unions.Unions))
	for _, name := range unions.Names() {
		entry := unions.Unions[name]
		profiles = append(profiles, ProfileInfo{
			Name:         name,
			UnionID:      entry.UnionID,
			Description:  entry.Description,
			DatabasePath: cfg.SQLitePathForUnion(h.basePath, name),
		})
	}
	return profiles, nil
}

// HandleDelete unregisters a profile. With purge, the profile's data
// directory is removed as well.
func (h *UnionsHandler) HandleDelete(profile string, purge bool) error {
	profile = config.SanitizeProfileName(profile)
	unions, err := config.LoadUnions(h.basePath)
	if err != nil {
		return fmt.Errorf("loading unions: %w", err)
	}
	if _, err := unions.Get(profile); err != nil {
		return err
	}

	unions.Remove(profile)
	if err := unions.Save(h.basePath); err != nil {
		return fmt.Errorf("saving unions: %w", err)
	}

	if purge {
		dir := config.UnionDir(h.basePath, profile)
		if err := os.RemoveAll(dir); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("removing %s: %w", dir, err)
		}
	}

	h.logger.Info("profile deleted", zap.String("profile", profile), zap.Bool("purged", purge))
	return nil
}

// OpenSession resolves a profile to the session of its union.
func (h *UnionsHandler) OpenSession(profile string) (entities.Session, error) {
	profile = config.SanitizeProfileName(profile)
	unions, err := config.LoadUnions(h.basePath)
	if err != nil {
		return entities.Session{}, fmt.Errorf("loading unions: %w", err)
	}
	entry, err := unions.Get(profile)
	if err != nil {
		return entities.Session{}, err
	}
	return entities.NewSession(entry.UnionID, profile)
}
