package payments

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/revcycle/rcm/internal/domain/claims"
	"github.com/revcycle/rcm/internal/platform/errs"
)

type mockRepo struct {
	items map[uuid.UUID]*Posting
}

func newMockRepo() *mockRepo {
	return &mockRepo{items: make(map[uuid.UUID]*Posting)}
}

func (m *mockRepo) Create(_ context.Context, p *Posting) error {
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	m.items[p.ID] = p
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Posting, error) {
	p, ok := m.items[id]
	if !ok {
		return nil, fmt.Errorf("no rows")
	}
	cp := *p
	return &cp, nil
}

func (m *mockRepo) Update(_ context.Context, p *Posting) error {
	if _, ok := m.items[p.ID]; !ok {
		return fmt.Errorf("no rows")
	}
	m.items[p.ID] = p
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.items, id)
	return nil
}

func (m *mockRepo) ListByClaim(_ context.Context, claimID uuid.UUID) ([]*Posting, error) {
	var result []*Posting
	for _, p := range m.items {
		if p.ClaimID == claimID {
			result = append(result, p)
		}
	}
	return result, nil
}

func (m *mockRepo) SumByClaim(_ context.Context, claimID uuid.UUID) (decimal.Decimal, decimal.Decimal, error) {
	paid, adjustments := decimal.Zero, decimal.Zero
	for _, p := range m.items {
		if p.ClaimID != claimID {
			continue
		}
		if p.Type == TypeAdjustment {
			adjustments = adjustments.Add(p.Amount)
		} else {
			paid = paid.Add(p.Amount)
		}
	}
	return paid, adjustments, nil
}

type mockClaimStore struct {
	items map[uuid.UUID]*claims.Claim
}

func newMockClaimStore() *mockClaimStore {
	return &mockClaimStore{items: make(map[uuid.UUID]*claims.Claim)}
}

func (m *mockClaimStore) GetByID(_ context.Context, id uuid.UUID) (*claims.Claim, error) {
	c, ok := m.items[id]
	if !ok {
		return nil, fmt.Errorf("no rows")
	}
	return c, nil
}

func (m *mockClaimStore) UpdateAggregates(_ context.Context, id uuid.UUID, paid, respons decimal.Decimal) error {
	c, ok := m.items[id]
	if !ok {
		return fmt.Errorf("no rows")
	}
	c.TotalPaid = paid
	c.PatientResponsibility = respons
	return nil
}

type passTx struct{}

func (passTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func amt(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func newTestService(autoPost bool) (*Service, *mockRepo, *mockClaimStore, uuid.UUID) {
	repo := newMockRepo()
	store := newMockClaimStore()
	claimID := uuid.New()
	store.items[claimID] = &claims.Claim{
		ID:                    claimID,
		ClaimNumber:           "CLM1001",
		Status:                claims.StatusSubmitted,
		TotalCharges:          amt("500.00"),
		TotalPaid:             decimal.Zero,
		PatientResponsibility: amt("500.00"),
	}
	return NewService(repo, store, passTx{}, autoPost), repo, store, claimID
}

func TestPost_RecomputesClaimTotals(t *testing.T) {
	svc, _, store, claimID := newTestService(true)
	ctx := context.Background()

	err := svc.Post(ctx, &Posting{
		ClaimID:  claimID,
		Type:     TypeInsurance,
		Method:   MethodCheck,
		Amount:   amt("300.00"),
		PostedBy: UserActor("u1"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err = svc.Post(ctx, &Posting{
		ClaimID:  claimID,
		Type:     TypeAdjustment,
		Method:   MethodCheck,
		Amount:   amt("120.00"),
		PostedBy: UserActor("u1"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	c := store.items[claimID]
	if c.TotalPaid.StringFixed(2) != "300.00" {
		t.Errorf("total_paid = %s, want 300.00", c.TotalPaid)
	}
	if c.PatientResponsibility.StringFixed(2) != "80.00" {
		t.Errorf("patient_responsibility = %s, want 80.00", c.PatientResponsibility)
	}
}

func TestPost_RefundReducesPaid(t *testing.T) {
	svc, _, store, claimID := newTestService(true)
	ctx := context.Background()

	if err := svc.Post(ctx, &Posting{ClaimID: claimID, Type: TypeInsurance, Method: MethodEFT, Amount: amt("500.00"), PostedBy: UserActor("u1")}); err != nil {
		t.Fatal(err)
	}
	if err := svc.Post(ctx, &Posting{ClaimID: claimID, Type: TypeRefund, Method: MethodCheck, Amount: amt("-100.00"), PostedBy: UserActor("u1")}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	c := store.items[claimID]
	if c.TotalPaid.StringFixed(2) != "400.00" {
		t.Errorf("total_paid = %s, want 400.00", c.TotalPaid)
	}
	if c.PatientResponsibility.StringFixed(2) != "100.00" {
		t.Errorf("patient_responsibility = %s, want 100.00", c.PatientResponsibility)
	}
}

func TestPost_ResponsibilityNeverNegative(t *testing.T) {
	svc, _, store, claimID := newTestService(true)
	ctx := context.Background()

	if err := svc.Post(ctx, &Posting{ClaimID: claimID, Type: TypeInsurance, Method: MethodEFT, Amount: amt("999.99"), PostedBy: UserActor("u1")}); err != nil {
		t.Fatal(err)
	}
	if !store.items[claimID].PatientResponsibility.IsZero() {
		t.Errorf("patient_responsibility = %s, want 0 on overpayment", store.items[claimID].PatientResponsibility)
	}
}

func TestPost_Validation(t *testing.T) {
	svc, _, _, claimID := newTestService(true)
	ctx := context.Background()

	cases := []struct {
		name string
		p    *Posting
		want error
	}{
		{"unknown claim", &Posting{ClaimID: uuid.New(), Type: TypeInsurance, Method: MethodCheck, Amount: amt("10.00")}, errs.ErrNotFound},
		{"zero amount", &Posting{ClaimID: claimID, Type: TypeInsurance, Method: MethodCheck, Amount: decimal.Zero}, errs.ErrValidation},
		{"negative insurance", &Posting{ClaimID: claimID, Type: TypeInsurance, Method: MethodCheck, Amount: amt("-10.00")}, errs.ErrValidation},
		{"positive refund", &Posting{ClaimID: claimID, Type: TypeRefund, Method: MethodCheck, Amount: amt("10.00")}, errs.ErrValidation},
		{"bad type", &Posting{ClaimID: claimID, Type: "BONUS", Method: MethodCheck, Amount: amt("10.00")}, errs.ErrValidation},
		{"bad method", &Posting{ClaimID: claimID, Type: TypeInsurance, Method: "WIRE", Amount: amt("10.00")}, errs.ErrValidation},
		{"manual ERA", &Posting{ClaimID: claimID, Type: TypeInsurance, Method: MethodERA, Amount: amt("10.00")}, errs.ErrValidation},
	}
	for _, tc := range cases {
		tc.p.PostedBy = UserActor("u1")
		if err := svc.Post(ctx, tc.p); !errors.Is(err, tc.want) {
			t.Errorf("%s: error = %v, want %v", tc.name, err, tc.want)
		}
	}
}

func TestUpdateAndDelete_LockedPostings(t *testing.T) {
	svc, repo, _, claimID := newTestService(true)
	ctx := context.Background()

	era := &Posting{
		ClaimID:    claimID,
		Type:       TypeInsurance,
		Method:     MethodERA,
		Amount:     amt("300.00"),
		PostedDate: time.Now(),
		PostedBy:   SystemActor(),
	}
	if err := repo.Create(ctx, era); err != nil {
		t.Fatal(err)
	}

	upd := &Posting{Type: TypeInsurance, Method: MethodCheck, Amount: amt("200.00")}
	if _, err := svc.Update(ctx, era.ID, upd); !errors.Is(err, errs.ErrStateConflict) {
		t.Errorf("update error = %v, want ErrStateConflict", err)
	}
	if err := svc.Delete(ctx, era.ID); !errors.Is(err, errs.ErrStateConflict) {
		t.Errorf("delete error = %v, want ErrStateConflict", err)
	}
	if repo.items[era.ID].Amount.StringFixed(2) != "300.00" {
		t.Errorf("locked posting was modified")
	}
}

func TestUpdate_ManualPosting(t *testing.T) {
	svc, repo, store, claimID := newTestService(true)
	ctx := context.Background()

	p := &Posting{ClaimID: claimID, Type: TypePatient, Method: MethodCash, Amount: amt("50.00"), PostedBy: UserActor("u1")}
	if err := svc.Post(ctx, p); err != nil {
		t.Fatal(err)
	}

	got, err := svc.Update(ctx, p.ID, &Posting{Type: TypePatient, Method: MethodCreditCard, Amount: amt("75.00")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Amount.StringFixed(2) != "75.00" || got.Method != MethodCreditCard {
		t.Errorf("got amount %s method %s, want 75.00 CREDIT_CARD", got.Amount, got.Method)
	}
	if repo.items[p.ID].Amount.StringFixed(2) != "75.00" {
		t.Errorf("stored amount = %s, want 75.00", repo.items[p.ID].Amount)
	}
	if store.items[claimID].TotalPaid.StringFixed(2) != "75.00" {
		t.Errorf("total_paid = %s, want 75.00", store.items[claimID].TotalPaid)
	}
}

func TestDelete_ManualPostingRecomputes(t *testing.T) {
	svc, _, store, claimID := newTestService(true)
	ctx := context.Background()

	p := &Posting{ClaimID: claimID, Type: TypeInsurance, Method: MethodCheck, Amount: amt("200.00"), PostedBy: UserActor("u1")}
	if err := svc.Post(ctx, p); err != nil {
		t.Fatal(err)
	}
	if err := svc.Delete(ctx, p.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	c := store.items[claimID]
	if !c.TotalPaid.IsZero() {
		t.Errorf("total_paid = %s, want 0 after delete", c.TotalPaid)
	}
	if c.PatientResponsibility.StringFixed(2) != "500.00" {
		t.Errorf("patient_responsibility = %s, want 500.00", c.PatientResponsibility)
	}
}

func TestAutoPostFromRemittance(t *testing.T) {
	svc, repo, store, claimID := newTestService(true)
	ctx := context.Background()
	remitID := uuid.New()
	checkDate := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	posted, err := svc.AutoPostFromRemittance(ctx, claimID, remitID, amt("350.00"), "CHK100045", &checkDate)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !posted {
		t.Fatal("expected a posting")
	}
	if len(repo.items) != 1 {
		t.Fatalf("got %d postings, want 1", len(repo.items))
	}
	for _, p := range repo.items {
		if p.Method != MethodERA || p.Type != TypeInsurance {
			t.Errorf("got %s/%s, want INSURANCE/ERA", p.Type, p.Method)
		}
		if !p.PostedBy.IsSystem() {
			t.Error("posting not attributed to the system")
		}
		if p.RemittanceID == nil || *p.RemittanceID != remitID {
			t.Error("remittance id not recorded")
		}
		if !p.PostedDate.Equal(checkDate) {
			t.Errorf("posted_date = %v, want check date", p.PostedDate)
		}
	}
	if store.items[claimID].TotalPaid.StringFixed(2) != "350.00" {
		t.Errorf("total_paid = %s, want 350.00", store.items[claimID].TotalPaid)
	}
}

func TestAutoPostFromRemittance_Skipped(t *testing.T) {
	ctx := context.Background()

	// Flag off.
	svc, repo, _, claimID := newTestService(false)
	posted, err := svc.AutoPostFromRemittance(ctx, claimID, uuid.New(), amt("350.00"), "CHK1", nil)
	if err != nil || posted {
		t.Errorf("flag off: posted=%v err=%v, want false nil", posted, err)
	}
	if len(repo.items) != 0 {
		t.Error("flag off: posting was written")
	}

	// Zero paid amount.
	svc, repo, _, claimID = newTestService(true)
	posted, err = svc.AutoPostFromRemittance(ctx, claimID, uuid.New(), decimal.Zero, "CHK1", nil)
	if err != nil || posted {
		t.Errorf("zero paid: posted=%v err=%v, want false nil", posted, err)
	}
	if len(repo.items) != 0 {
		t.Error("zero paid: posting was written")
	}
}
