package denials

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/revcycle/rcm/internal/platform/era"
	"github.com/revcycle/rcm/internal/platform/errs"
)

// assignableRoles are the roles allowed to work a denial.
var assignableRoles = map[string]bool{
	"admin":             true,
	"billing":           true,
	"denial_specialist": true,
}

// updateTargets are the statuses a denial can be moved to directly.
var updateTargets = map[ResolutionStatus]bool{
	StatusAppealed:   true,
	StatusCorrected:  true,
	StatusWrittenOff: true,
	StatusResolved:   true,
}

type Service struct {
	repo  Repository
	users UserDirectory
}

func NewService(repo Repository, users UserDirectory) *Service {
	return &Service{repo: repo, users: users}
}

// CreateFromRemittance opens a denial for a claim whose remittance detail
// carried a denial status code. Category, priority and deadlines come from
// the classifier.
func (s *Service) CreateFromRemittance(ctx context.Context, claimID, remittanceID uuid.UUID, code string, denialDate time.Time) (*Denial, error) {
	if denialDate.IsZero() {
		denialDate = time.Now()
	}
	cls := Classify(code, denialDate)
	d := &Denial{
		ClaimID:           claimID,
		RemittanceID:      &remittanceID,
		DenialDate:        denialDate,
		ReasonCode:        code,
		ReasonDescription: era.StatusDescription(code),
		Category:          cls.Category,
		Priority:          cls.Priority,
		ResolutionStatus:  StatusOpen,
		AppealDeadline:    cls.AppealDeadline,
		FollowUpDate:      cls.FollowUpDate,
	}
	if err := s.repo.Create(ctx, d); err != nil {
		return nil, fmt.Errorf("create denial: %v: %w", err, errs.ErrPersistence)
	}
	return d, nil
}

// Assign hands a denial to a user and moves it to IN_PROGRESS. The assignee
// must hold a role permitted to work denials.
func (s *Service) Assign(ctx context.Context, id uuid.UUID, userID string) (*Denial, error) {
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("denial %s: %w", id, errs.ErrNotFound)
	}
	roles, err := s.users.GetRoles(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("user %s: %w", userID, errs.ErrNotFound)
	}
	allowed := false
	for _, r := range roles {
		if assignableRoles[r] {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, fmt.Errorf("user %s cannot be assigned denials: %w", userID, errs.ErrForbiddenRole)
	}

	d.AssignedTo = &userID
	d.ResolutionStatus = StatusInProgress
	if err := s.repo.Update(ctx, d); err != nil {
		return nil, fmt.Errorf("assign denial: %v: %w", err, errs.ErrPersistence)
	}
	return d, nil
}

// UpdateInput carries the mutable fields of a denial. Nil fields are left
// untouched.
type UpdateInput struct {
	ResolutionStatus *ResolutionStatus `json:"resolution_status,omitempty"`
	ResolutionNotes  *string           `json:"resolution_notes,omitempty"`
	Priority         *Priority         `json:"priority,omitempty"`
	FollowUpDate     *time.Time        `json:"follow_up_date,omitempty"`
}

// Update applies workflow changes. The resolution date is written exactly
// once, on the first move into RESOLVED.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (*Denial, error) {
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("denial %s: %w", id, errs.ErrNotFound)
	}

	if in.ResolutionStatus != nil {
		target := *in.ResolutionStatus
		if !updateTargets[target] {
			return nil, fmt.Errorf("cannot move denial to %q: %w", target, errs.ErrValidation)
		}
		if target == StatusResolved && d.ResolutionStatus != StatusResolved && d.ResolutionDate == nil {
			now := time.Now()
			d.ResolutionDate = &now
		}
		d.ResolutionStatus = target
	}
	if in.ResolutionNotes != nil {
		d.ResolutionNotes = *in.ResolutionNotes
	}
	if in.Priority != nil {
		d.Priority = *in.Priority
	}
	if in.FollowUpDate != nil {
		d.FollowUpDate = *in.FollowUpDate
	}

	if err := s.repo.Update(ctx, d); err != nil {
		return nil, fmt.Errorf("update denial: %v: %w", err, errs.ErrPersistence)
	}
	return d, nil
}

// AssignResult is the per-item outcome of a bulk assignment.
type AssignResult struct {
	DenialID uuid.UUID `json:"denial_id"`
	Assigned bool      `json:"assigned"`
	Error    string    `json:"error,omitempty"`
}

// BulkAssign assigns a batch of denials to one user. Items fail
// independently; one bad id never aborts the rest.
func (s *Service) BulkAssign(ctx context.Context, ids []uuid.UUID, userID string) []AssignResult {
	results := make([]AssignResult, 0, len(ids))
	for _, id := range ids {
		res := AssignResult{DenialID: id}
		if _, err := s.Assign(ctx, id, userID); err != nil {
			res.Error = err.Error()
		} else {
			res.Assigned = true
		}
		results = append(results, res)
	}
	return results
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Denial, error) {
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("denial %s: %w", id, errs.ErrNotFound)
	}
	return d, nil
}

func (s *Service) List(ctx context.Context, status ResolutionStatus, limit, offset int) ([]*Denial, int, error) {
	if status != "" && !status.Valid() {
		return nil, 0, fmt.Errorf("invalid status %q: %w", status, errs.ErrValidation)
	}
	return s.repo.List(ctx, status, limit, offset)
}

func (s *Service) ListByClaim(ctx context.Context, claimID uuid.UUID) ([]*Denial, error) {
	return s.repo.ListByClaim(ctx, claimID)
}
