package remittance

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/revcycle/rcm/internal/domain/claims"
	"github.com/revcycle/rcm/internal/domain/denials"
	"github.com/revcycle/rcm/internal/platform/db"
	"github.com/revcycle/rcm/internal/platform/era"
	"github.com/revcycle/rcm/internal/platform/errs"
)

// ClaimResolver matches remittance details to stored claims and applies the
// payer status mapping. Implemented by the claims service.
type ClaimResolver interface {
	GetByClaimNumber(ctx context.Context, number string) (*claims.Claim, error)
	ApplyRemittanceStatus(ctx context.Context, id uuid.UUID, payerCode string) (claims.Status, error)
}

// AutoPoster writes system payment postings for matched details. Implemented
// by the payments service.
type AutoPoster interface {
	AutoPostFromRemittance(ctx context.Context, claimID, remittanceID uuid.UUID, paid decimal.Decimal, reference string, checkDate *time.Time) (bool, error)
}

// DenialOpener opens denial records for details carrying a denial status
// code. Implemented by the denials service.
type DenialOpener interface {
	CreateFromRemittance(ctx context.Context, claimID, remittanceID uuid.UUID, code string, denialDate time.Time) (*denials.Denial, error)
}

type Service struct {
	repo     Repository
	claims   ClaimResolver
	payments AutoPoster
	denials  DenialOpener
	tx       db.TxRunner
	log      zerolog.Logger
}

func NewService(repo Repository, claimResolver ClaimResolver, poster AutoPoster, denialOpener DenialOpener, tx db.TxRunner, log zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		claims:   claimResolver,
		payments: poster,
		denials:  denialOpener,
		tx:       tx,
		log:      log,
	}
}

// Ingest parses a remittance file and runs it through the posting pipeline.
//
// A file that does not parse is still recorded, with status ERROR and no
// details, so billers can see what landed; the parse error is returned.
// A remittance number seen before is rejected before anything is posted.
// Otherwise every claim detail is processed in its own transaction: a
// failing detail is logged and counted, and its siblings proceed. The
// remittance ends POSTED with processed and failed counts.
func (s *Service) Ingest(ctx context.Context, fileName, content string) (*Remittance, error) {
	parsed, err := era.Parse(content)
	if err != nil {
		msg := err.Error()
		rem := &Remittance{
			FileName:         fileName,
			ProcessingStatus: StatusError,
			ErrorMessage:     &msg,
		}
		if createErr := s.repo.Create(ctx, rem); createErr != nil {
			return nil, fmt.Errorf("record failed remittance: %v: %w", createErr, errs.ErrPersistence)
		}
		s.log.Warn().Str("file", fileName).Err(err).Msg("remittance failed to parse")
		return rem, err
	}

	if parsed.Header.RemittanceNumber != "" {
		if existing, err := s.repo.GetByNumber(ctx, parsed.Header.RemittanceNumber); err == nil && existing != nil {
			return nil, fmt.Errorf("remittance %s already processed: %w",
				parsed.Header.RemittanceNumber, errs.ErrStateConflict)
		}
	}

	rem := &Remittance{
		RemittanceNumber: parsed.Header.RemittanceNumber,
		PayerID:          parsed.Header.PayerID,
		PayerName:        parsed.Header.PayerName,
		CheckNumber:      parsed.Header.CheckNumber,
		CheckDate:        parsed.Header.CheckDate,
		CheckAmount:      parsed.Header.CheckAmount,
		FileName:         fileName,
		ProcessingStatus: StatusReceived,
		ClaimCount:       len(parsed.Claims),
	}
	if err := s.repo.Create(ctx, rem); err != nil {
		return nil, fmt.Errorf("create remittance: %v: %w", err, errs.ErrPersistence)
	}

	rem.ProcessingStatus = StatusProcessing
	if err := s.repo.Update(ctx, rem); err != nil {
		return nil, fmt.Errorf("update remittance: %v: %w", err, errs.ErrPersistence)
	}

	for _, detail := range parsed.Claims {
		matched, posted, err := s.processDetail(ctx, rem, detail)
		if err != nil {
			rem.FailedCount++
			s.log.Warn().
				Str("remittance", rem.RemittanceNumber).
				Str("claim_number", detail.ClaimNumber).
				Err(err).
				Msg("remittance detail failed")
			continue
		}
		if matched {
			rem.MatchedCount++
		}
		if posted {
			rem.PostedCount++
		}
	}

	rem.ProcessingStatus = StatusPosted
	if err := s.repo.Update(ctx, rem); err != nil {
		return nil, fmt.Errorf("finish remittance: %v: %w", err, errs.ErrPersistence)
	}

	s.log.Info().
		Str("remittance", rem.RemittanceNumber).
		Int("claims", rem.ClaimCount).
		Int("matched", rem.MatchedCount).
		Int("posted", rem.PostedCount).
		Int("failed", rem.FailedCount).
		Msg("remittance processed")
	return rem, nil
}

// processDetail records one claim detail and, when it matches a stored
// claim, posts the payment and applies the status mapping. All writes for
// one detail share a transaction.
func (s *Service) processDetail(ctx context.Context, rem *Remittance, detail era.ClaimDetail) (matched, posted bool, err error) {
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		d := &ClaimDetail{
			RemittanceID:          rem.ID,
			ClaimNumber:           detail.ClaimNumber,
			PatientName:           detail.PatientName,
			ServiceDateFrom:       detail.ServiceDateFrom,
			ServiceDateTo:         detail.ServiceDateTo,
			ChargeAmount:          detail.ChargeAmount,
			PaidAmount:            detail.PaidAmount,
			PatientResponsibility: detail.PatientResponsibility,
			StatusCode:            detail.StatusCode,
			StatusDescription:     detail.StatusDescription,
		}

		cl, lookupErr := s.claims.GetByClaimNumber(ctx, detail.ClaimNumber)
		if lookupErr == nil && cl != nil {
			d.ClaimID = &cl.ID
		}

		if err := s.repo.CreateDetail(ctx, d); err != nil {
			return fmt.Errorf("create detail: %v: %w", err, errs.ErrPersistence)
		}
		if d.ClaimID == nil {
			// Unmatched details are recorded but never touch a claim.
			return nil
		}
		matched = true

		wasPosted, err := s.payments.AutoPostFromRemittance(ctx, cl.ID, rem.ID, detail.PaidAmount, rem.CheckNumber, rem.CheckDate)
		if err != nil {
			return err
		}
		posted = wasPosted

		if _, err := s.claims.ApplyRemittanceStatus(ctx, cl.ID, detail.StatusCode); err != nil {
			return err
		}

		if denials.IsDenialCode(detail.StatusCode) {
			denialDate := time.Now()
			if rem.CheckDate != nil {
				denialDate = *rem.CheckDate
			}
			if _, err := s.denials.CreateFromRemittance(ctx, cl.ID, rem.ID, detail.StatusCode, denialDate); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return false, false, err
	}
	return matched, posted, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Remittance, error) {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("remittance %s: %w", id, errs.ErrNotFound)
	}
	return m, nil
}

func (s *Service) List(ctx context.Context, status ProcessingStatus, limit, offset int) ([]*Remittance, int, error) {
	return s.repo.List(ctx, status, limit, offset)
}

func (s *Service) ListDetails(ctx context.Context, id uuid.UUID) ([]*ClaimDetail, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, fmt.Errorf("remittance %s: %w", id, errs.ErrNotFound)
	}
	return s.repo.ListDetails(ctx, id)
}
