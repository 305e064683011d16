package remittance

import (
	"context"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

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

const remitCols = `id, remittance_number, payer_id, payer_name, check_number, check_date,
	check_amount, file_name, processing_status, claim_count, matched_count, posted_count,
	failed_count, error_message, created_at, updated_at`

func scanRemittance(row pgx.Row) (*Remittance, error) {
	var m Remittance
	err := row.Scan(&m.ID, &m.RemittanceNumber, &m.PayerID, &m.PayerName, &m.CheckNumber, &m.CheckDate,
		&m.CheckAmount, &m.FileName, &m.ProcessingStatus, &m.ClaimCount, &m.MatchedCount, &m.PostedCount,
		&m.FailedCount, &m.ErrorMessage, &m.CreatedAt, &m.UpdatedAt)
	return &m, err
}

func (r *repoPG) Create(ctx context.Context, m *Remittance) error {
	m.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO remittance (id, remittance_number, payer_id, payer_name, check_number, check_date,
			check_amount, file_name, processing_status, claim_count, matched_count, posted_count,
			failed_count, error_message)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		m.ID, m.RemittanceNumber, m.PayerID, m.PayerName, m.CheckNumber, m.CheckDate,
		m.CheckAmount, m.FileName, m.ProcessingStatus, m.ClaimCount, m.MatchedCount, m.PostedCount,
		m.FailedCount, m.ErrorMessage)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Remittance, error) {
	return scanRemittance(r.conn(ctx).QueryRow(ctx, `SELECT `+remitCols+` FROM remittance WHERE id = $1`, id))
}

func (r *repoPG) GetByNumber(ctx context.Context, number string) (*Remittance, error) {
	return scanRemittance(r.conn(ctx).QueryRow(ctx,
		`SELECT `+remitCols+` FROM remittance WHERE remittance_number = $1`, number))
}

func (r *repoPG) Update(ctx context.Context, m *Remittance) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE remittance SET processing_status=$2, claim_count=$3, matched_count=$4,
			posted_count=$5, failed_count=$6, error_message=$7, updated_at=NOW()
		WHERE id = $1`,
		m.ID, m.ProcessingStatus, m.ClaimCount, m.MatchedCount, m.PostedCount, m.FailedCount, m.ErrorMessage)
	return err
}

func (r *repoPG) List(ctx context.Context, status ProcessingStatus, limit, offset int) ([]*Remittance, int, error) {
	where := ``
	args := []interface{}{}
	if status != "" {
		where = ` WHERE processing_status = $1`
		args = append(args, status)
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM remittance`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	n := len(args)
	query := `SELECT ` + remitCols + ` FROM remittance` + where +
		` ORDER BY created_at DESC LIMIT $` + strconv.Itoa(n+1) + ` OFFSET $` + strconv.Itoa(n+2)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Remittance
	for rows.Next() {
		m, err := scanRemittance(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, m)
	}
	return items, total, rows.Err()
}

const detailCols = `id, remittance_id, claim_id, claim_number, patient_name,
	service_date_from, service_date_to, charge_amount, paid_amount, patient_responsibility,
	status_code, status_description, created_at`

func (r *repoPG) CreateDetail(ctx context.Context, d *ClaimDetail) error {
	d.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO remittance_claim_detail (id, remittance_id, claim_id, claim_number, patient_name,
			service_date_from, service_date_to, charge_amount, paid_amount, patient_responsibility,
			status_code, status_description)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		d.ID, d.RemittanceID, d.ClaimID, d.ClaimNumber, d.PatientName,
		d.ServiceDateFrom, d.ServiceDateTo, d.ChargeAmount, d.PaidAmount, d.PatientResponsibility,
		d.StatusCode, d.StatusDescription)
	return err
}

func (r *repoPG) ListDetails(ctx context.Context, remittanceID uuid.UUID) ([]*ClaimDetail, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+detailCols+` FROM remittance_claim_detail WHERE remittance_id = $1 ORDER BY created_at, id`,
		remittanceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*ClaimDetail
	for rows.Next() {
		var d ClaimDetail
		if err := rows.Scan(&d.ID, &d.RemittanceID, &d.ClaimID, &d.ClaimNumber, &d.PatientName,
			&d.ServiceDateFrom, &d.ServiceDateTo, &d.ChargeAmount, &d.PaidAmount, &d.PatientResponsibility,
			&d.StatusCode, &d.StatusDescription, &d.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, &d)
	}
	return items, rows.Err()
}
