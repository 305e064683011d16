package claims

import (
	"context"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/revcycle/rcm/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const claimCols = `id, claim_number, claim_type, status,
	patient_first_name, patient_last_name, patient_dob, patient_gender, patient_member_id,
	payer_id, payer_name, policy_number, group_number,
	secondary_payer_id, secondary_policy_number,
	billing_provider_npi, rendering_provider_npi, place_of_service, primary_diagnosis,
	service_date_from, service_date_to,
	total_charges, total_paid, patient_responsibility,
	submission_date, external_tracking_id, external_status,
	created_at, updated_at`

func scanClaim(row pgx.Row) (*Claim, error) {
	var c Claim
	err := row.Scan(&c.ID, &c.ClaimNumber, &c.ClaimType, &c.Status,
		&c.PatientFirstName, &c.PatientLastName, &c.PatientDOB, &c.PatientGender, &c.PatientMemberID,
		&c.PayerID, &c.PayerName, &c.PolicyNumber, &c.GroupNumber,
		&c.SecondaryPayerID, &c.SecondaryPolicyNumber,
		&c.BillingProviderNPI, &c.RenderingProviderNPI, &c.PlaceOfService, &c.PrimaryDiagnosis,
		&c.ServiceDateFrom, &c.ServiceDateTo,
		&c.TotalCharges, &c.TotalPaid, &c.PatientResponsibility,
		&c.SubmissionDate, &c.ExternalTrackingID, &c.ExternalStatus,
		&c.CreatedAt, &c.UpdatedAt)
	return &c, err
}

func (r *repoPG) Create(ctx context.Context, c *Claim) error {
	c.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO claim (id, claim_number, claim_type, status,
			patient_first_name, patient_last_name, patient_dob, patient_gender, patient_member_id,
			payer_id, payer_name, policy_number, group_number,
			secondary_payer_id, secondary_policy_number,
			billing_provider_npi, rendering_provider_npi, place_of_service, primary_diagnosis,
			service_date_from, service_date_to,
			total_charges, total_paid, patient_responsibility)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24)`,
		c.ID, c.ClaimNumber, c.ClaimType, c.Status,
		c.PatientFirstName, c.PatientLastName, c.PatientDOB, c.PatientGender, c.PatientMemberID,
		c.PayerID, c.PayerName, c.PolicyNumber, c.GroupNumber,
		c.SecondaryPayerID, c.SecondaryPolicyNumber,
		c.BillingProviderNPI, c.RenderingProviderNPI, c.PlaceOfService, c.PrimaryDiagnosis,
		c.ServiceDateFrom, c.ServiceDateTo,
		c.TotalCharges, c.TotalPaid, c.PatientResponsibility)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Claim, error) {
	return scanClaim(r.conn(ctx).QueryRow(ctx, `SELECT `+claimCols+` FROM claim WHERE id = $1`, id))
}

func (r *repoPG) GetByClaimNumber(ctx context.Context, number string) (*Claim, error) {
	return scanClaim(r.conn(ctx).QueryRow(ctx, `SELECT `+claimCols+` FROM claim WHERE claim_number = $1`, number))
}

func (r *repoPG) Update(ctx context.Context, c *Claim) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE claim SET claim_type=$2, status=$3,
			patient_first_name=$4, patient_last_name=$5, patient_dob=$6, patient_gender=$7, patient_member_id=$8,
			payer_id=$9, payer_name=$10, policy_number=$11, group_number=$12,
			secondary_payer_id=$13, secondary_policy_number=$14,
			billing_provider_npi=$15, rendering_provider_npi=$16, place_of_service=$17, primary_diagnosis=$18,
			service_date_from=$19, service_date_to=$20,
			total_charges=$21,
			submission_date=$22, external_tracking_id=$23, external_status=$24,
			updated_at=NOW()
		WHERE id = $1`,
		c.ID, c.ClaimType, c.Status,
		c.PatientFirstName, c.PatientLastName, c.PatientDOB, c.PatientGender, c.PatientMemberID,
		c.PayerID, c.PayerName, c.PolicyNumber, c.GroupNumber,
		c.SecondaryPayerID, c.SecondaryPolicyNumber,
		c.BillingProviderNPI, c.RenderingProviderNPI, c.PlaceOfService, c.PrimaryDiagnosis,
		c.ServiceDateFrom, c.ServiceDateTo,
		c.TotalCharges,
		c.SubmissionDate, c.ExternalTrackingID, c.ExternalStatus)
	return err
}

func (r *repoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE claim SET status=$2, updated_at=NOW() WHERE id = $1`, id, status)
	return err
}

func (r *repoPG) UpdateAggregates(ctx context.Context, id uuid.UUID, totalPaid, patientResponsibility decimal.Decimal) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE claim SET total_paid=$2, patient_responsibility=$3, updated_at=NOW() WHERE id = $1`,
		id, totalPaid, patientResponsibility)
	return err
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM claim WHERE id = $1`, id)
	return err
}

func (r *repoPG) List(ctx context.Context, status Status, limit, offset int) ([]*Claim, int, error) {
	where := ``
	args := []interface{}{}
	if status != "" {
		where = ` WHERE status = $1`
		args = append(args, status)
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM claim`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	n := len(args)
	query := `SELECT ` + claimCols + ` FROM claim` + where +
		` ORDER BY created_at DESC LIMIT $` + strconv.Itoa(n+1) + ` OFFSET $` + strconv.Itoa(n+2)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Claim
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, c)
	}
	return items, total, rows.Err()
}

const lineCols = `id, claim_id, procedure_code, modifiers, diagnosis_pointers,
	service_date, units, charge_amount, allowed_amount, paid_amount, adjustment_amount,
	status, created_at`

func scanLineItem(row pgx.Row) (*LineItem, error) {
	var li LineItem
	err := row.Scan(&li.ID, &li.ClaimID, &li.ProcedureCode, &li.Modifiers, &li.DiagnosisPointers,
		&li.ServiceDate, &li.Units, &li.ChargeAmount, &li.AllowedAmount, &li.PaidAmount, &li.AdjustmentAmount,
		&li.Status, &li.CreatedAt)
	return &li, err
}

func (r *repoPG) CreateLineItems(ctx context.Context, claimID uuid.UUID, items []*LineItem) error {
	for _, li := range items {
		li.ID = uuid.New()
		li.ClaimID = claimID
		if li.Status == "" {
			li.Status = "BILLED"
		}
		_, err := r.conn(ctx).Exec(ctx, `
			INSERT INTO claim_line_item (id, claim_id, procedure_code, modifiers, diagnosis_pointers,
				service_date, units, charge_amount, allowed_amount, paid_amount, adjustment_amount, status)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
			li.ID, li.ClaimID, li.ProcedureCode, li.Modifiers, li.DiagnosisPointers,
			li.ServiceDate, li.Units, li.ChargeAmount, li.AllowedAmount, li.PaidAmount, li.AdjustmentAmount, li.Status)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *repoPG) GetLineItems(ctx context.Context, claimID uuid.UUID) ([]*LineItem, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+lineCols+` FROM claim_line_item WHERE claim_id = $1 ORDER BY created_at, id`, claimID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*LineItem
	for rows.Next() {
		li, err := scanLineItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, li)
	}
	return items, rows.Err()
}

// ReplaceLineItems deletes all existing lines and inserts the new set. The
// caller is responsible for wrapping this in a transaction with the claim
// update.
func (r *repoPG) ReplaceLineItems(ctx context.Context, claimID uuid.UUID, items []*LineItem) error {
	if err := r.DeleteLineItems(ctx, claimID); err != nil {
		return err
	}
	return r.CreateLineItems(ctx, claimID, items)
}

func (r *repoPG) DeleteLineItems(ctx context.Context, claimID uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM claim_line_item WHERE claim_id = $1`, claimID)
	return err
}
