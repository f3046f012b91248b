package ports

import (
	"context"

	"github.com/ersonp/uniao/internal/domain/entities"
)

// GraphSink receives derived union graphs for external visualization.
type GraphSink interface {
	// Publish replaces the previously published projection of the union.
	Publish(ctx context.Context, graph *entities.Graph) error
}
