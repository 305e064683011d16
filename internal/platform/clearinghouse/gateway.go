// Package clearinghouse is the outbound client for claim submission and
// status checks. The rest of the system consumes only the Gateway interface.
package clearinghouse

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/revcycle/rcm/internal/platform/errs"
)

// Gateway submits claims and polls adjudication status.
type Gateway interface {
	Submit(ctx context.Context, payload *ClaimPayload) (*SubmitResult, error)
	CheckStatus(ctx context.Context, trackingID string) (*StatusResult, error)
}

// ClaimPayload is the wire contract for claim submission. Field names belong
// to the gateway, not to the internal model.
type ClaimPayload struct {
	ClaimNumber     string        `json:"claim_number"`
	ClaimType       string        `json:"claim_type"`
	ServiceDateFrom string        `json:"service_date_from"`
	ServiceDateTo   string        `json:"service_date_to"`
	TotalCharges    string        `json:"total_charges"`
	Patient         PatientInfo   `json:"patient"`
	Insurance       InsuranceInfo `json:"insurance"`
	Provider        ProviderInfo  `json:"provider"`
	Lines           []LineInfo    `json:"service_lines"`
}

type PatientInfo struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	DateOfBirth string `json:"date_of_birth"`
	Gender      string `json:"gender"`
	MemberID    string `json:"member_id"`
}

type InsuranceInfo struct {
	PayerID      string `json:"payer_id"`
	PayerName    string `json:"payer_name"`
	PolicyNumber string `json:"policy_number"`
	GroupNumber  string `json:"group_number,omitempty"`
}

type ProviderInfo struct {
	BillingNPI     string `json:"billing_npi"`
	RenderingNPI   string `json:"rendering_npi"`
	TaxID          string `json:"tax_id,omitempty"`
	PlaceOfService string `json:"place_of_service"`
}

type LineInfo struct {
	ProcedureCode     string   `json:"procedure_code"`
	Modifiers         []string `json:"modifiers,omitempty"`
	DiagnosisPointers []int    `json:"diagnosis_pointers,omitempty"`
	ServiceDate       string   `json:"service_date"`
	Units             int      `json:"units"`
	ChargeAmount      string   `json:"charge_amount"`
}

// SubmitResult is the gateway's acknowledgment of a submitted claim.
type SubmitResult struct {
	TrackingID string `json:"tracking_id"`
	Status     string `json:"status"`
	Message    string `json:"message"`
}

// StatusResult reports the adjudication status of a previously submitted claim.
type StatusResult struct {
	TrackingID string            `json:"tracking_id"`
	Status     string            `json:"status"`
	Details    map[string]string `json:"details,omitempty"`
}

// HTTPGateway talks to a clearinghouse over HTTPS with an API key.
type HTTPGateway struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPGateway creates a gateway client. The timeout bounds every outbound
// call; a timed-out call is reported as a failure and left to the caller to
// retry.
func NewHTTPGateway(baseURL, apiKey string, timeout time.Duration) *HTTPGateway {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPGateway{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

func (g *HTTPGateway) Submit(ctx context.Context, payload *ClaimPayload) (*SubmitResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode claim payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/claims", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build submit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("submit claim %s: %v: %w", payload.ClaimNumber, err, errs.ErrExternal)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("submit claim %s: gateway returned status %d: %w", payload.ClaimNumber, resp.StatusCode, errs.ErrExternal)
	}

	var result SubmitResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode submit response: %v: %w", err, errs.ErrExternal)
	}
	return &result, nil
}

func (g *HTTPGateway) CheckStatus(ctx context.Context, trackingID string) (*StatusResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/claims/"+trackingID+"/status", nil)
	if err != nil {
		return nil, fmt.Errorf("build status request: %w", err)
	}
	req.Header.Set("X-API-Key", g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("check status %s: %v: %w", trackingID, err, errs.ErrExternal)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("check status %s: gateway returned status %d: %w", trackingID, resp.StatusCode, errs.ErrExternal)
	}

	var result StatusResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode status response: %v: %w", err, errs.ErrExternal)
	}
	return &result, nil
}
