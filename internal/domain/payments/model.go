package payments

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PostingType string

const (
	TypeInsurance  PostingType = "INSURANCE"
	TypePatient    PostingType = "PATIENT"
	TypeAdjustment PostingType = "ADJUSTMENT"
	TypeRefund     PostingType = "REFUND"
)

func (t PostingType) Valid() bool {
	switch t {
	case TypeInsurance, TypePatient, TypeAdjustment, TypeRefund:
		return true
	}
	return false
}

type PostingMethod string

const (
	MethodCheck      PostingMethod = "CHECK"
	MethodEFT        PostingMethod = "EFT"
	MethodCreditCard PostingMethod = "CREDIT_CARD"
	MethodCash       PostingMethod = "CASH"
	MethodERA        PostingMethod = "ERA"
)

func (m PostingMethod) Valid() bool {
	switch m {
	case MethodCheck, MethodEFT, MethodCreditCard, MethodCash, MethodERA:
		return true
	}
	return false
}

type ActorKind string

const (
	ActorSystem ActorKind = "system"
	ActorUser   ActorKind = "user"
)

// Actor records who created a posting. System postings come from remittance
// processing and are immutable.
type Actor struct {
	Kind   ActorKind `json:"kind"`
	UserID *string   `json:"user_id,omitempty"`
}

func SystemActor() Actor { return Actor{Kind: ActorSystem} }

func UserActor(userID string) Actor {
	return Actor{Kind: ActorUser, UserID: &userID}
}

func (a Actor) IsSystem() bool { return a.Kind == ActorSystem }

// Posting is a single money movement against a claim. Amounts are signed:
// refunds and reversals carry negative amounts.
type Posting struct {
	ID           uuid.UUID       `json:"id"`
	ClaimID      uuid.UUID       `json:"claim_id"`
	RemittanceID *uuid.UUID      `json:"remittance_id,omitempty"`
	Type         PostingType     `json:"posting_type"`
	Method       PostingMethod   `json:"method"`
	Amount       decimal.Decimal `json:"amount"`
	PostedDate   time.Time       `json:"posted_date"`
	Reference    string          `json:"reference,omitempty"`
	Notes        string          `json:"notes,omitempty"`
	PostedBy     Actor           `json:"posted_by"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Locked reports whether the posting may no longer be edited or deleted.
// ERA postings and anything written by the system are part of the
// remittance audit trail.
func (p *Posting) Locked() bool {
	return p.Method == MethodERA || p.PostedBy.IsSystem()
}
