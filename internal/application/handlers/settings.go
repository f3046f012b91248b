package handlers

import (
	"context"
	"fmt"

	"github.com/ersonp/uniao/internal/domain/entities"
	"github.com/ersonp/uniao/internal/domain/services"
)

// SettingsHandler handles changes to the union itself.
type SettingsHandler struct {
	registry *services.RegistryService
}

// NewSettingsHandler creates a new settings handler.
func NewSettingsHandler(registry *services.RegistryService) *SettingsHandler {
	return &SettingsHandler{registry: registry}
}

// HandleRename sets the union's partner names. Contributions already recorded
// keep the partner names they were committed with.
func (h *SettingsHandler) HandleRename(ctx context.Context, session entities.Session, partners []string) (*entities.Union, error) {
	if len(partners) == 0 || len(partners) > 2 {
		return nil, fmt.Errorf("a union needs one or two partner names, got %d", len(partners))
	}
	second := ""
	if len(partners) == 2 {
		second = partners[1]
	}
	return h.registry.RenameUnion(ctx, session, entities.ComposeDisplayName(partners[0], second))
}
