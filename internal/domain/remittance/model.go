package remittance

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ProcessingStatus string

const (
	StatusReceived   ProcessingStatus = "RECEIVED"
	StatusProcessing ProcessingStatus = "PROCESSING"
	StatusPosted     ProcessingStatus = "POSTED"
	StatusError      ProcessingStatus = "ERROR"
)

// Remittance is one ingested payer remittance file.
type Remittance struct {
	ID               uuid.UUID        `json:"id"`
	RemittanceNumber string           `json:"remittance_number,omitempty"`
	PayerID          string           `json:"payer_id,omitempty"`
	PayerName        string           `json:"payer_name,omitempty"`
	CheckNumber      string           `json:"check_number,omitempty"`
	CheckDate        *time.Time       `json:"check_date,omitempty"`
	CheckAmount      decimal.Decimal  `json:"check_amount"`
	FileName         string           `json:"file_name"`
	ProcessingStatus ProcessingStatus `json:"processing_status"`
	ClaimCount       int              `json:"claim_count"`
	MatchedCount     int              `json:"matched_count"`
	PostedCount      int              `json:"posted_count"`
	FailedCount      int              `json:"failed_count"`
	ErrorMessage     *string          `json:"error_message,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// ClaimDetail is one adjudicated claim reported inside a remittance. Rows
// are written once during processing and never mutated.
type ClaimDetail struct {
	ID                    uuid.UUID       `json:"id"`
	RemittanceID          uuid.UUID       `json:"remittance_id"`
	ClaimID               *uuid.UUID      `json:"claim_id,omitempty"`
	ClaimNumber           string          `json:"claim_number"`
	PatientName           string          `json:"patient_name,omitempty"`
	ServiceDateFrom       *time.Time      `json:"service_date_from,omitempty"`
	ServiceDateTo         *time.Time      `json:"service_date_to,omitempty"`
	ChargeAmount          decimal.Decimal `json:"charge_amount"`
	PaidAmount            decimal.Decimal `json:"paid_amount"`
	PatientResponsibility decimal.Decimal `json:"patient_responsibility"`
	StatusCode            string          `json:"status_code"`
	StatusDescription     string          `json:"status_description"`
	CreatedAt             time.Time       `json:"created_at"`
}
