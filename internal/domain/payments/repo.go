package payments

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Repository interface {
	Create(ctx context.Context, p *Posting) error
	GetByID(ctx context.Context, id uuid.UUID) (*Posting, error)
	Update(ctx context.Context, p *Posting) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByClaim(ctx context.Context, claimID uuid.UUID) ([]*Posting, error)

	// SumByClaim returns the signed payment total (insurance, patient and
	// refund postings) and the adjustment total for a claim.
	SumByClaim(ctx context.Context, claimID uuid.UUID) (paid, adjustments decimal.Decimal, err error)
}
