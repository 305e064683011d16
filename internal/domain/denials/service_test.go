package denials

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/revcycle/rcm/internal/platform/errs"
)

type mockRepo struct {
	items map[uuid.UUID]*Denial
}

func newMockRepo() *mockRepo {
	return &mockRepo{items: make(map[uuid.UUID]*Denial)}
}

func (m *mockRepo) Create(_ context.Context, d *Denial) error {
	d.ID = uuid.New()
	d.CreatedAt = time.Now()
	m.items[d.ID] = d
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Denial, error) {
	d, ok := m.items[id]
	if !ok {
		return nil, fmt.Errorf("no rows")
	}
	cp := *d
	return &cp, nil
}

func (m *mockRepo) Update(_ context.Context, d *Denial) error {
	if _, ok := m.items[d.ID]; !ok {
		return fmt.Errorf("no rows")
	}
	m.items[d.ID] = d
	return nil
}

func (m *mockRepo) List(_ context.Context, status ResolutionStatus, limit, offset int) ([]*Denial, int, error) {
	var result []*Denial
	for _, d := range m.items {
		if status == "" || d.ResolutionStatus == status {
			result = append(result, d)
		}
	}
	return result, len(result), nil
}

func (m *mockRepo) ListByClaim(_ context.Context, claimID uuid.UUID) ([]*Denial, error) {
	var result []*Denial
	for _, d := range m.items {
		if d.ClaimID == claimID {
			result = append(result, d)
		}
	}
	return result, nil
}

type mockUserDir struct {
	roles map[string][]string
}

func (m *mockUserDir) GetRoles(_ context.Context, userID string) ([]string, error) {
	roles, ok := m.roles[userID]
	if !ok {
		return nil, fmt.Errorf("no rows")
	}
	return roles, nil
}

func newTestService() (*Service, *mockRepo, *mockUserDir) {
	repo := newMockRepo()
	users := &mockUserDir{roles: map[string][]string{
		"specialist": {"denial_specialist"},
		"biller":     {"billing"},
		"nurse":      {"nurse"},
	}}
	return NewService(repo, users), repo, users
}

func TestCreateFromRemittance(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()
	claimID, remitID := uuid.New(), uuid.New()
	denialDate := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	d, err := svc.CreateFromRemittance(ctx, claimID, remitID, "4", denialDate)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.ResolutionStatus != StatusOpen {
		t.Errorf("status = %s, want OPEN", d.ResolutionStatus)
	}
	if d.ReasonCode != "4" || d.ReasonDescription != "Denied" {
		t.Errorf("reason = %s/%s, want 4/Denied", d.ReasonCode, d.ReasonDescription)
	}
	if !d.AppealDeadline.Equal(denialDate.AddDate(0, 0, 90)) {
		t.Errorf("appeal deadline = %v, want denial date + 90d", d.AppealDeadline)
	}
	if !d.FollowUpDate.Equal(denialDate.AddDate(0, 0, 14)) {
		t.Errorf("follow-up = %v, want denial date + 14d", d.FollowUpDate)
	}
	if d.RemittanceID == nil || *d.RemittanceID != remitID {
		t.Error("remittance id not recorded")
	}
	if len(repo.items) != 1 {
		t.Errorf("got %d denials, want 1", len(repo.items))
	}
}

func TestAssign(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()
	d, err := svc.CreateFromRemittance(ctx, uuid.New(), uuid.New(), "4", time.Now())
	if err != nil {
		t.Fatal(err)
	}

	got, err := svc.Assign(ctx, d.ID, "specialist")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ResolutionStatus != StatusInProgress {
		t.Errorf("status = %s, want IN_PROGRESS", got.ResolutionStatus)
	}
	if got.AssignedTo == nil || *got.AssignedTo != "specialist" {
		t.Errorf("assigned_to = %v, want specialist", got.AssignedTo)
	}
	if repo.items[d.ID].ResolutionStatus != StatusInProgress {
		t.Error("assignment not persisted")
	}
}

func TestAssign_ForbiddenRole(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()
	d, err := svc.CreateFromRemittance(ctx, uuid.New(), uuid.New(), "4", time.Now())
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Assign(ctx, d.ID, "nurse"); !errors.Is(err, errs.ErrForbiddenRole) {
		t.Errorf("error = %v, want ErrForbiddenRole", err)
	}
	if repo.items[d.ID].AssignedTo != nil {
		t.Error("denial assigned despite forbidden role")
	}

	if _, err := svc.Assign(ctx, d.ID, "ghost"); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("unknown user error = %v, want ErrNotFound", err)
	}
}

func TestUpdate_ResolutionDateSetOnce(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()
	d, err := svc.CreateFromRemittance(ctx, uuid.New(), uuid.New(), "4", time.Now())
	if err != nil {
		t.Fatal(err)
	}

	resolved := StatusResolved
	first, err := svc.Update(ctx, d.ID, UpdateInput{ResolutionStatus: &resolved})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.ResolutionDate == nil {
		t.Fatal("resolution_date not set on first RESOLVED")
	}
	firstDate := *first.ResolutionDate

	appealed := StatusAppealed
	if _, err := svc.Update(ctx, d.ID, UpdateInput{ResolutionStatus: &appealed}); err != nil {
		t.Fatal(err)
	}
	second, err := svc.Update(ctx, d.ID, UpdateInput{ResolutionStatus: &resolved})
	if err != nil {
		t.Fatal(err)
	}
	if second.ResolutionDate == nil || !second.ResolutionDate.Equal(firstDate) {
		t.Errorf("resolution_date = %v, want original %v", second.ResolutionDate, firstDate)
	}
	if repo.items[d.ID].ResolutionStatus != StatusResolved {
		t.Error("final status not persisted")
	}
}

func TestUpdate_RejectsDirectOpenTransition(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	d, err := svc.CreateFromRemittance(ctx, uuid.New(), uuid.New(), "4", time.Now())
	if err != nil {
		t.Fatal(err)
	}

	for _, target := range []ResolutionStatus{StatusOpen, StatusInProgress, "BOGUS"} {
		st := target
		if _, err := svc.Update(ctx, d.ID, UpdateInput{ResolutionStatus: &st}); !errors.Is(err, errs.ErrValidation) {
			t.Errorf("target %s: error = %v, want ErrValidation", target, err)
		}
	}
}

func TestBulkAssign_MixedResults(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	d1, err := svc.CreateFromRemittance(ctx, uuid.New(), uuid.New(), "4", time.Now())
	if err != nil {
		t.Fatal(err)
	}
	d2, err := svc.CreateFromRemittance(ctx, uuid.New(), uuid.New(), "23", time.Now())
	if err != nil {
		t.Fatal(err)
	}
	missing := uuid.New()

	results := svc.BulkAssign(ctx, []uuid.UUID{d1.ID, missing, d2.ID}, "biller")
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	if !results[0].Assigned || results[0].Error != "" {
		t.Errorf("first item: %+v, want assigned", results[0])
	}
	if results[1].Assigned || results[1].Error == "" {
		t.Errorf("missing item: %+v, want failure", results[1])
	}
	if !results[2].Assigned {
		t.Errorf("third item: %+v, want assigned despite earlier failure", results[2])
	}
}
