package claims

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/revcycle/rcm/internal/platform/clearinghouse"
	"github.com/revcycle/rcm/internal/platform/db"
	"github.com/revcycle/rcm/internal/platform/errs"
)

// AggregateRecomputer recomputes a claim's paid/responsibility totals from
// its postings. Implemented by the payments engine; optional so the claims
// service stays usable without it.
type AggregateRecomputer interface {
	RecomputeAggregates(ctx context.Context, claimID uuid.UUID) error
}

type Service struct {
	repo    Repository
	gateway clearinghouse.Gateway
	tx      db.TxRunner
	agg     AggregateRecomputer
}

func NewService(repo Repository, gateway clearinghouse.Gateway, tx db.TxRunner) *Service {
	return &Service{repo: repo, gateway: gateway, tx: tx}
}

// SetAggregateRecomputer attaches the payments engine. Must be called before
// remittance-driven status updates are applied.
func (s *Service) SetAggregateRecomputer(agg AggregateRecomputer) {
	s.agg = agg
}

func validateLineItems(items []*LineItem) error {
	if len(items) == 0 {
		return fmt.Errorf("at least one line item is required: %w", errs.ErrValidation)
	}
	for i, li := range items {
		if li.ProcedureCode == "" {
			return fmt.Errorf("line %d: procedure_code is required: %w", i+1, errs.ErrValidation)
		}
		if !li.ChargeAmount.IsPositive() {
			return fmt.Errorf("line %d: charge_amount must be positive: %w", i+1, errs.ErrValidation)
		}
		if li.ServiceDate.IsZero() {
			return fmt.Errorf("line %d: service_date is required: %w", i+1, errs.ErrValidation)
		}
		if li.Units <= 0 {
			li.Units = 1
		}
	}
	return nil
}

// Create stores a new claim with its line items. Total charges are summed
// from the lines; any total supplied by the caller is ignored. The claim
// starts in DRAFT.
func (s *Service) Create(ctx context.Context, c *Claim, items []*LineItem) error {
	if c.ClaimNumber == "" {
		return fmt.Errorf("claim_number is required: %w", errs.ErrValidation)
	}
	if c.ServiceDateFrom.IsZero() {
		return fmt.Errorf("service_date_from is required: %w", errs.ErrValidation)
	}
	if err := validateLineItems(items); err != nil {
		return err
	}
	if existing, err := s.repo.GetByClaimNumber(ctx, c.ClaimNumber); err == nil && existing != nil {
		return fmt.Errorf("claim number %s already exists: %w", c.ClaimNumber, errs.ErrStateConflict)
	}

	c.Status = StatusDraft
	c.TotalCharges = SumCharges(items)
	c.TotalPaid = decimal.Zero
	c.PatientResponsibility = c.TotalCharges

	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, c); err != nil {
			return fmt.Errorf("create claim: %v: %w", err, errs.ErrPersistence)
		}
		if err := s.repo.CreateLineItems(ctx, c.ID, items); err != nil {
			return fmt.Errorf("create line items: %v: %w", err, errs.ErrPersistence)
		}
		return nil
	})
}

// Update replaces a claim's mutable fields and its full line-item set in one
// transaction. Only DRAFT and READY claims can be updated.
func (s *Service) Update(ctx context.Context, id uuid.UUID, c *Claim, items []*LineItem) error {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("claim %s: %w", id, errs.ErrNotFound)
	}
	if !existing.Status.Editable() {
		return fmt.Errorf("claim %s is %s and cannot be updated: %w", id, existing.Status, errs.ErrStateConflict)
	}
	if err := validateLineItems(items); err != nil {
		return err
	}

	c.ID = existing.ID
	c.ClaimNumber = existing.ClaimNumber
	c.Status = existing.Status
	c.TotalCharges = SumCharges(items)
	c.TotalPaid = existing.TotalPaid

	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, c); err != nil {
			return fmt.Errorf("update claim: %v: %w", err, errs.ErrPersistence)
		}
		if err := s.repo.ReplaceLineItems(ctx, c.ID, items); err != nil {
			return fmt.Errorf("replace line items: %v: %w", err, errs.ErrPersistence)
		}
		if s.agg != nil {
			return s.agg.RecomputeAggregates(ctx, c.ID)
		}
		// Without the payments engine attached, fall back to the no-postings form.
		resp := c.TotalCharges.Sub(c.TotalPaid)
		if resp.IsNegative() {
			resp = decimal.Zero
		}
		return s.repo.UpdateAggregates(ctx, c.ID, c.TotalPaid, resp)
	})
}

// MarkReady moves a reviewed DRAFT claim to READY.
func (s *Service) MarkReady(ctx context.Context, id uuid.UUID) error {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("claim %s: %w", id, errs.ErrNotFound)
	}
	if c.Status != StatusDraft {
		return fmt.Errorf("claim %s is %s, only DRAFT claims can be marked ready: %w", id, c.Status, errs.ErrStateConflict)
	}
	return s.repo.UpdateStatus(ctx, id, StatusReady)
}

// Submit validates the claim, sends it to the clearinghouse, and moves it to
// SUBMITTED only after the gateway accepts it. A gateway failure leaves the
// claim untouched.
func (s *Service) Submit(ctx context.Context, id uuid.UUID) (*Claim, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("claim %s: %w", id, errs.ErrNotFound)
	}
	if !c.Status.Editable() {
		return nil, fmt.Errorf("claim %s is %s and cannot be submitted: %w", id, c.Status, errs.ErrStateConflict)
	}

	items, err := s.repo.GetLineItems(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load line items: %v: %w", err, errs.ErrPersistence)
	}
	if err := validateForSubmission(c, items); err != nil {
		return nil, err
	}

	result, err := s.gateway.Submit(ctx, buildPayload(c, items))
	if err != nil {
		return nil, err
	}

	now := time.Now()
	c.Status = StatusSubmitted
	c.SubmissionDate = &now
	c.ExternalTrackingID = &result.TrackingID
	if result.Status != "" {
		c.ExternalStatus = &result.Status
	}
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("record submission: %v: %w", err, errs.ErrPersistence)
	}
	return c, nil
}

// CheckStatus polls the clearinghouse for a submitted claim and records the
// external status.
func (s *Service) CheckStatus(ctx context.Context, id uuid.UUID) (*clearinghouse.StatusResult, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("claim %s: %w", id, errs.ErrNotFound)
	}
	if c.ExternalTrackingID == nil {
		return nil, fmt.Errorf("claim %s has not been submitted: %w", id, errs.ErrStateConflict)
	}
	result, err := s.gateway.CheckStatus(ctx, *c.ExternalTrackingID)
	if err != nil {
		return nil, err
	}
	if result.Status != "" {
		c.ExternalStatus = &result.Status
		if err := s.repo.Update(ctx, c); err != nil {
			return nil, fmt.Errorf("record external status: %v: %w", err, errs.ErrPersistence)
		}
	}
	return result, nil
}

// ApplyRemittanceStatus maps a payer status code to a claim status and writes
// it, then recomputes the money aggregates from postings. Called by
// remittance processing inside its per-detail transaction.
func (s *Service) ApplyRemittanceStatus(ctx context.Context, id uuid.UUID, payerCode string) (Status, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return "", fmt.Errorf("claim %s: %w", id, errs.ErrNotFound)
	}
	target := StatusForPayerCode(payerCode)
	if err := s.repo.UpdateStatus(ctx, id, target); err != nil {
		return "", fmt.Errorf("update status: %v: %w", err, errs.ErrPersistence)
	}
	if s.agg != nil {
		if err := s.agg.RecomputeAggregates(ctx, id); err != nil {
			return "", err
		}
	}
	return target, nil
}

// Delete removes a DRAFT claim and its line items atomically.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("claim %s: %w", id, errs.ErrNotFound)
	}
	if c.Status != StatusDraft {
		return fmt.Errorf("claim %s is %s, only DRAFT claims can be deleted: %w", id, c.Status, errs.ErrStateConflict)
	}
	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.repo.DeleteLineItems(ctx, id); err != nil {
			return fmt.Errorf("delete line items: %v: %w", err, errs.ErrPersistence)
		}
		if err := s.repo.Delete(ctx, id); err != nil {
			return fmt.Errorf("delete claim: %v: %w", err, errs.ErrPersistence)
		}
		return nil
	})
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Claim, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("claim %s: %w", id, errs.ErrNotFound)
	}
	return c, nil
}

func (s *Service) GetByClaimNumber(ctx context.Context, number string) (*Claim, error) {
	c, err := s.repo.GetByClaimNumber(ctx, number)
	if err != nil {
		return nil, fmt.Errorf("claim %s: %w", number, errs.ErrNotFound)
	}
	return c, nil
}

func (s *Service) GetLineItems(ctx context.Context, claimID uuid.UUID) ([]*LineItem, error) {
	return s.repo.GetLineItems(ctx, claimID)
}

func (s *Service) List(ctx context.Context, status Status, limit, offset int) ([]*Claim, int, error) {
	if status != "" && !status.Valid() {
		return nil, 0, fmt.Errorf("invalid status %q: %w", status, errs.ErrValidation)
	}
	return s.repo.List(ctx, status, limit, offset)
}

// validateForSubmission checks the identifiers a payer requires before a
// claim may leave the building.
func validateForSubmission(c *Claim, items []*LineItem) error {
	required := []struct {
		name  string
		value string
	}{
		{"billing_provider_npi", c.BillingProviderNPI},
		{"rendering_provider_npi", c.RenderingProviderNPI},
		{"primary_diagnosis", c.PrimaryDiagnosis},
		{"place_of_service", c.PlaceOfService},
		{"patient_first_name", c.PatientFirstName},
		{"patient_last_name", c.PatientLastName},
		{"payer_id", c.PayerID},
		{"policy_number", c.PolicyNumber},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("%s is required for submission: %w", r.name, errs.ErrValidation)
		}
	}
	if c.PatientDOB == nil {
		return fmt.Errorf("patient_dob is required for submission: %w", errs.ErrValidation)
	}
	return validateLineItems(items)
}

func buildPayload(c *Claim, items []*LineItem) *clearinghouse.ClaimPayload {
	p := &clearinghouse.ClaimPayload{
		ClaimNumber:     c.ClaimNumber,
		ClaimType:       c.ClaimType,
		ServiceDateFrom: c.ServiceDateFrom.Format("2006-01-02"),
		ServiceDateTo:   c.ServiceDateTo.Format("2006-01-02"),
		TotalCharges:    c.TotalCharges.StringFixed(2),
		Patient: clearinghouse.PatientInfo{
			FirstName: c.PatientFirstName,
			LastName:  c.PatientLastName,
			Gender:    c.PatientGender,
			MemberID:  c.PatientMemberID,
		},
		Insurance: clearinghouse.InsuranceInfo{
			PayerID:      c.PayerID,
			PayerName:    c.PayerName,
			PolicyNumber: c.PolicyNumber,
			GroupNumber:  c.GroupNumber,
		},
		Provider: clearinghouse.ProviderInfo{
			BillingNPI:     c.BillingProviderNPI,
			RenderingNPI:   c.RenderingProviderNPI,
			PlaceOfService: c.PlaceOfService,
		},
	}
	if c.PatientDOB != nil {
		p.Patient.DateOfBirth = c.PatientDOB.Format("2006-01-02")
	}
	for _, li := range items {
		p.Lines = append(p.Lines, clearinghouse.LineInfo{
			ProcedureCode:     li.ProcedureCode,
			Modifiers:         li.Modifiers,
			DiagnosisPointers: li.DiagnosisPointers,
			ServiceDate:       li.ServiceDate.Format("2006-01-02"),
			Units:             li.Units,
			ChargeAmount:      li.ChargeAmount.StringFixed(2),
		})
	}
	return p
}
