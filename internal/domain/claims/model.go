package claims

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of a claim.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusReady     Status = "READY"
	StatusSubmitted Status = "SUBMITTED"
	StatusAccepted  Status = "ACCEPTED"
	StatusRejected  Status = "REJECTED"
	StatusPaid      Status = "PAID"
	StatusDenied    Status = "DENIED"
	StatusAppealed  Status = "APPEALED"
	StatusClosed    Status = "CLOSED"
)

var validStatuses = map[Status]bool{
	StatusDraft: true, StatusReady: true, StatusSubmitted: true,
	StatusAccepted: true, StatusRejected: true, StatusPaid: true,
	StatusDenied: true, StatusAppealed: true, StatusClosed: true,
}

func (s Status) Valid() bool { return validStatuses[s] }

// Editable reports whether a claim in this status may still be modified.
// Structure becomes immutable once submitted.
func (s Status) Editable() bool { return s == StatusDraft || s == StatusReady }

// payerCodeStatus maps CLP claim status codes from a remittance to the target
// claim status. Unmapped codes fall back to SUBMITTED so an unknown
// adjudication never flips a claim into a terminal state.
var payerCodeStatus = map[string]Status{
	"1":  StatusPaid,
	"2":  StatusPaid,
	"3":  StatusPaid,
	"19": StatusPaid,
	"20": StatusPaid,
	"21": StatusPaid,
	"4":  StatusDenied,
	"23": StatusRejected,
	"25": StatusAccepted,
}

// StatusForPayerCode resolves a payer claim status code to a claim status.
func StatusForPayerCode(code string) Status {
	if s, ok := payerCodeStatus[code]; ok {
		return s
	}
	return StatusSubmitted
}

// Claim is a reimbursement request for one patient encounter. Patient,
// insurance and provider data are plain descriptor fields; their CRUD lives
// outside this system.
type Claim struct {
	ID          uuid.UUID `json:"id"`
	ClaimNumber string    `json:"claim_number"`
	ClaimType   string    `json:"claim_type"`
	Status      Status    `json:"status"`

	PatientFirstName string     `json:"patient_first_name"`
	PatientLastName  string     `json:"patient_last_name"`
	PatientDOB       *time.Time `json:"patient_dob,omitempty"`
	PatientGender    string     `json:"patient_gender,omitempty"`
	PatientMemberID  string     `json:"patient_member_id,omitempty"`

	PayerID                string  `json:"payer_id"`
	PayerName              string  `json:"payer_name"`
	PolicyNumber           string  `json:"policy_number"`
	GroupNumber            string  `json:"group_number,omitempty"`
	SecondaryPayerID       *string `json:"secondary_payer_id,omitempty"`
	SecondaryPolicyNumber  *string `json:"secondary_policy_number,omitempty"`

	BillingProviderNPI   string `json:"billing_provider_npi"`
	RenderingProviderNPI string `json:"rendering_provider_npi"`
	PlaceOfService       string `json:"place_of_service"`
	PrimaryDiagnosis     string `json:"primary_diagnosis"`

	ServiceDateFrom time.Time `json:"service_date_from"`
	ServiceDateTo   time.Time `json:"service_date_to"`

	// TotalCharges is derived from line items and never trusted from input.
	TotalCharges          decimal.Decimal `json:"total_charges"`
	TotalPaid             decimal.Decimal `json:"total_paid"`
	PatientResponsibility decimal.Decimal `json:"patient_responsibility"`

	SubmissionDate     *time.Time `json:"submission_date,omitempty"`
	ExternalTrackingID *string    `json:"external_tracking_id,omitempty"`
	ExternalStatus     *string    `json:"external_status,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LineItem is one billed procedure within a claim. Line items are replaced
// wholesale on claim update.
type LineItem struct {
	ID                uuid.UUID       `json:"id"`
	ClaimID           uuid.UUID       `json:"claim_id"`
	ProcedureCode     string          `json:"procedure_code"`
	Modifiers         []string        `json:"modifiers,omitempty"`
	DiagnosisPointers []int           `json:"diagnosis_pointers,omitempty"`
	ServiceDate       time.Time       `json:"service_date"`
	Units             int             `json:"units"`
	ChargeAmount      decimal.Decimal `json:"charge_amount"`
	AllowedAmount     decimal.Decimal `json:"allowed_amount"`
	PaidAmount        decimal.Decimal `json:"paid_amount"`
	AdjustmentAmount  decimal.Decimal `json:"adjustment_amount"`
	Status            string          `json:"status"`
	CreatedAt         time.Time       `json:"created_at"`
}

// SumCharges returns the authoritative charge total for a set of line items.
func SumCharges(items []*LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, li := range items {
		total = total.Add(li.ChargeAmount)
	}
	return total
}
