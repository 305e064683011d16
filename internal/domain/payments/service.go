package payments

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/revcycle/rcm/internal/domain/claims"
	"github.com/revcycle/rcm/internal/platform/db"
	"github.com/revcycle/rcm/internal/platform/errs"
)

// ClaimStore is the slice of the claims repository the payments engine
// needs. The claim's paid and responsibility columns are written only
// through RecomputeAggregates.
type ClaimStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*claims.Claim, error)
	UpdateAggregates(ctx context.Context, id uuid.UUID, totalPaid, patientResponsibility decimal.Decimal) error
}

type Service struct {
	repo     Repository
	claims   ClaimStore
	tx       db.TxRunner
	autoPost bool
}

func NewService(repo Repository, claimStore ClaimStore, tx db.TxRunner, autoPost bool) *Service {
	return &Service{repo: repo, claims: claimStore, tx: tx, autoPost: autoPost}
}

func validatePosting(p *Posting) error {
	if !p.Type.Valid() {
		return fmt.Errorf("invalid posting_type %q: %w", p.Type, errs.ErrValidation)
	}
	if !p.Method.Valid() {
		return fmt.Errorf("invalid method %q: %w", p.Method, errs.ErrValidation)
	}
	if p.Amount.IsZero() {
		return fmt.Errorf("amount must be nonzero: %w", errs.ErrValidation)
	}
	switch p.Type {
	case TypeInsurance, TypePatient:
		if p.Amount.IsNegative() {
			return fmt.Errorf("%s postings must carry a positive amount: %w", p.Type, errs.ErrValidation)
		}
	case TypeRefund:
		if p.Amount.IsPositive() {
			return fmt.Errorf("refund postings must carry a negative amount: %w", errs.ErrValidation)
		}
	}
	return nil
}

// Post records a manual posting against a claim and recomputes the claim's
// totals in the same transaction. The ERA method is reserved for remittance
// processing.
func (s *Service) Post(ctx context.Context, p *Posting) error {
	if _, err := s.claims.GetByID(ctx, p.ClaimID); err != nil {
		return fmt.Errorf("claim %s: %w", p.ClaimID, errs.ErrNotFound)
	}
	if err := validatePosting(p); err != nil {
		return err
	}
	if p.Method == MethodERA {
		return fmt.Errorf("ERA postings are created by remittance processing: %w", errs.ErrValidation)
	}
	if p.PostedBy.Kind == "" {
		p.PostedBy = SystemActor()
	}
	if p.PostedDate.IsZero() {
		p.PostedDate = time.Now()
	}
	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, p); err != nil {
			return fmt.Errorf("create posting: %v: %w", err, errs.ErrPersistence)
		}
		return s.RecomputeAggregates(ctx, p.ClaimID)
	})
}

// Update edits a manual posting. Postings written by remittance processing
// are locked.
func (s *Service) Update(ctx context.Context, id uuid.UUID, upd *Posting) (*Posting, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("posting %s: %w", id, errs.ErrNotFound)
	}
	if existing.Locked() {
		return nil, fmt.Errorf("posting %s is part of the remittance audit trail: %w", id, errs.ErrStateConflict)
	}
	if err := validatePosting(upd); err != nil {
		return nil, err
	}
	if upd.Method == MethodERA {
		return nil, fmt.Errorf("ERA postings are created by remittance processing: %w", errs.ErrValidation)
	}

	existing.Type = upd.Type
	existing.Method = upd.Method
	existing.Amount = upd.Amount
	existing.Reference = upd.Reference
	existing.Notes = upd.Notes
	if !upd.PostedDate.IsZero() {
		existing.PostedDate = upd.PostedDate
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, existing); err != nil {
			return fmt.Errorf("update posting: %v: %w", err, errs.ErrPersistence)
		}
		return s.RecomputeAggregates(ctx, existing.ClaimID)
	})
	if err != nil {
		return nil, err
	}
	return existing, nil
}

// Delete removes a manual posting and recomputes the claim's totals.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("posting %s: %w", id, errs.ErrNotFound)
	}
	if existing.Locked() {
		return fmt.Errorf("posting %s is part of the remittance audit trail: %w", id, errs.ErrStateConflict)
	}
	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Delete(ctx, id); err != nil {
			return fmt.Errorf("delete posting: %v: %w", err, errs.ErrPersistence)
		}
		return s.RecomputeAggregates(ctx, existing.ClaimID)
	})
}

// AutoPostFromRemittance writes a system insurance posting for a matched
// remittance detail. Returns false without posting when auto-posting is
// disabled or the paid amount is not positive. Runs inside the caller's
// per-detail transaction.
func (s *Service) AutoPostFromRemittance(ctx context.Context, claimID, remittanceID uuid.UUID, paid decimal.Decimal, reference string, checkDate *time.Time) (bool, error) {
	if !s.autoPost {
		return false, nil
	}
	if !paid.IsPositive() {
		return false, nil
	}
	postedDate := time.Now()
	if checkDate != nil {
		postedDate = *checkDate
	}
	p := &Posting{
		ClaimID:      claimID,
		RemittanceID: &remittanceID,
		Type:         TypeInsurance,
		Method:       MethodERA,
		Amount:       paid,
		PostedDate:   postedDate,
		Reference:    reference,
		PostedBy:     SystemActor(),
	}
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, p); err != nil {
			return fmt.Errorf("create posting: %v: %w", err, errs.ErrPersistence)
		}
		return s.RecomputeAggregates(ctx, claimID)
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// RecomputeAggregates derives total_paid and patient_responsibility from the
// claim's postings. Responsibility never drops below zero.
func (s *Service) RecomputeAggregates(ctx context.Context, claimID uuid.UUID) error {
	c, err := s.claims.GetByID(ctx, claimID)
	if err != nil {
		return fmt.Errorf("claim %s: %w", claimID, errs.ErrNotFound)
	}
	paid, adjustments, err := s.repo.SumByClaim(ctx, claimID)
	if err != nil {
		return fmt.Errorf("sum postings: %v: %w", err, errs.ErrPersistence)
	}
	responsibility := c.TotalCharges.Sub(paid).Sub(adjustments)
	if responsibility.IsNegative() {
		responsibility = decimal.Zero
	}
	if err := s.claims.UpdateAggregates(ctx, claimID, paid, responsibility); err != nil {
		return fmt.Errorf("update aggregates: %v: %w", err, errs.ErrPersistence)
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Posting, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("posting %s: %w", id, errs.ErrNotFound)
	}
	return p, nil
}

func (s *Service) ListByClaim(ctx context.Context, claimID uuid.UUID) ([]*Posting, error) {
	return s.repo.ListByClaim(ctx, claimID)
}
