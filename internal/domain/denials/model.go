package denials

import (
	"time"

	"github.com/google/uuid"
)

type Category string

const (
	CategoryTechnical     Category = "TECHNICAL"
	CategoryClinical      Category = "CLINICAL"
	CategoryAuthorization Category = "AUTHORIZATION"
	CategoryEligibility   Category = "ELIGIBILITY"
	CategoryDuplicate     Category = "DUPLICATE"
	CategoryOther         Category = "OTHER"
)

type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

type ResolutionStatus string

const (
	StatusOpen       ResolutionStatus = "OPEN"
	StatusInProgress ResolutionStatus = "IN_PROGRESS"
	StatusAppealed   ResolutionStatus = "APPEALED"
	StatusCorrected  ResolutionStatus = "CORRECTED"
	StatusWrittenOff ResolutionStatus = "WRITTEN_OFF"
	StatusResolved   ResolutionStatus = "RESOLVED"
)

func (s ResolutionStatus) Valid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusAppealed, StatusCorrected, StatusWrittenOff, StatusResolved:
		return true
	}
	return false
}

type Denial struct {
	ID                uuid.UUID        `json:"id"`
	ClaimID           uuid.UUID        `json:"claim_id"`
	RemittanceID      *uuid.UUID       `json:"remittance_id,omitempty"`
	DenialDate        time.Time        `json:"denial_date"`
	ReasonCode        string           `json:"reason_code"`
	ReasonDescription string           `json:"reason_description"`
	Category          Category         `json:"category"`
	Priority          Priority         `json:"priority"`
	AssignedTo        *string          `json:"assigned_to,omitempty"`
	ResolutionStatus  ResolutionStatus `json:"resolution_status"`
	ResolutionNotes   string           `json:"resolution_notes,omitempty"`
	ResolutionDate    *time.Time       `json:"resolution_date,omitempty"`
	AppealDeadline    time.Time        `json:"appeal_deadline"`
	FollowUpDate      time.Time        `json:"follow_up_date"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}
