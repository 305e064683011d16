package denials

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, d *Denial) error
	GetByID(ctx context.Context, id uuid.UUID) (*Denial, error)
	Update(ctx context.Context, d *Denial) error
	List(ctx context.Context, status ResolutionStatus, limit, offset int) ([]*Denial, int, error)
	ListByClaim(ctx context.Context, claimID uuid.UUID) ([]*Denial, error)
}

// UserDirectory answers role lookups for assignment checks.
type UserDirectory interface {
	GetRoles(ctx context.Context, userID string) ([]string, error)
}
