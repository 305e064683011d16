package remittance

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, r *Remittance) error
	GetByID(ctx context.Context, id uuid.UUID) (*Remittance, error)
	GetByNumber(ctx context.Context, number string) (*Remittance, error)
	Update(ctx context.Context, r *Remittance) error
	List(ctx context.Context, status ProcessingStatus, limit, offset int) ([]*Remittance, int, error)

	CreateDetail(ctx context.Context, d *ClaimDetail) error
	ListDetails(ctx context.Context, remittanceID uuid.UUID) ([]*ClaimDetail, error)
}
