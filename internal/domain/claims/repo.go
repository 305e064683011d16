package claims

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Repository interface {
	Create(ctx context.Context, c *Claim) error
	GetByID(ctx context.Context, id uuid.UUID) (*Claim, error)
	GetByClaimNumber(ctx context.Context, number string) (*Claim, error)
	Update(ctx context.Context, c *Claim) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error
	UpdateAggregates(ctx context.Context, id uuid.UUID, totalPaid, patientResponsibility decimal.Decimal) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, status Status, limit, offset int) ([]*Claim, int, error)
	// Line items
	CreateLineItems(ctx context.Context, claimID uuid.UUID, items []*LineItem) error
	GetLineItems(ctx context.Context, claimID uuid.UUID) ([]*LineItem, error)
	ReplaceLineItems(ctx context.Context, claimID uuid.UUID, items []*LineItem) error
	DeleteLineItems(ctx context.Context, claimID uuid.UUID) error
}
