package picks

import (
	"context"

	"github.com/google/uuid"
)

// CreateParams describes a new pick to persist.
type CreateParams struct {
	CapperID   uuid.UUID
	Event      string
	Line       string
	Sport      string
	Confidence int32
	Analysis   string
}

// Store persists picks.
type Store interface {
	Create(ctx context.Context, params CreateParams) (*Pick, error)

	// ListByCapper returns the capper's picks newest first.
	ListByCapper(ctx context.Context, capperID uuid.UUID) ([]Pick, error)
}
