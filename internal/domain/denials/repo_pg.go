package denials

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

const denialCols = `id, claim_id, remittance_id, denial_date, reason_code, reason_description,
	category, priority, assigned_to, resolution_status, resolution_notes, resolution_date,
	appeal_deadline, follow_up_date, created_at, updated_at`

func scanDenial(row pgx.Row) (*Denial, error) {
	var d Denial
	err := row.Scan(&d.ID, &d.ClaimID, &d.RemittanceID, &d.DenialDate, &d.ReasonCode, &d.ReasonDescription,
		&d.Category, &d.Priority, &d.AssignedTo, &d.ResolutionStatus, &d.ResolutionNotes, &d.ResolutionDate,
		&d.AppealDeadline, &d.FollowUpDate, &d.CreatedAt, &d.UpdatedAt)
	return &d, err
}

func (r *repoPG) Create(ctx context.Context, d *Denial) error {
	d.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO denial (id, claim_id, remittance_id, denial_date, reason_code, reason_description,
			category, priority, assigned_to, resolution_status, resolution_notes, resolution_date,
			appeal_deadline, follow_up_date)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		d.ID, d.ClaimID, d.RemittanceID, d.DenialDate, d.ReasonCode, d.ReasonDescription,
		d.Category, d.Priority, d.AssignedTo, d.ResolutionStatus, d.ResolutionNotes, d.ResolutionDate,
		d.AppealDeadline, d.FollowUpDate)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Denial, error) {
	return scanDenial(r.conn(ctx).QueryRow(ctx, `SELECT `+denialCols+` FROM denial WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, d *Denial) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE denial SET category=$2, priority=$3, assigned_to=$4, resolution_status=$5,
			resolution_notes=$6, resolution_date=$7, appeal_deadline=$8, follow_up_date=$9,
			updated_at=NOW()
		WHERE id = $1`,
		d.ID, d.Category, d.Priority, d.AssignedTo, d.ResolutionStatus,
		d.ResolutionNotes, d.ResolutionDate, d.AppealDeadline, d.FollowUpDate)
	return err
}

func (r *repoPG) List(ctx context.Context, status ResolutionStatus, limit, offset int) ([]*Denial, int, error) {
	where := ``
	args := []interface{}{}
	if status != "" {
		where = ` WHERE resolution_status = $1`
		args = append(args, status)
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM denial`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	n := len(args)
	query := `SELECT ` + denialCols + ` FROM denial` + where +
		` ORDER BY denial_date DESC, created_at DESC LIMIT $` + strconv.Itoa(n+1) + ` OFFSET $` + strconv.Itoa(n+2)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Denial
	for rows.Next() {
		d, err := scanDenial(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, d)
	}
	return items, total, rows.Err()
}

func (r *repoPG) ListByClaim(ctx context.Context, claimID uuid.UUID) ([]*Denial, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+denialCols+` FROM denial WHERE claim_id = $1 ORDER BY denial_date DESC`, claimID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Denial
	for rows.Next() {
		d, err := scanDenial(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	return items, rows.Err()
}

type userDirPG struct{ pool *pgxpool.Pool }

// NewUserDirectoryPG reads roles from the app_user table.
func NewUserDirectoryPG(pool *pgxpool.Pool) UserDirectory { return &userDirPG{pool: pool} }

func (r *userDirPG) GetRoles(ctx context.Context, userID string) ([]string, error) {
	var roles []string
	err := r.pool.QueryRow(ctx, `SELECT roles FROM app_user WHERE id = $1`, userID).Scan(&roles)
	if err != nil {
		return nil, err
	}
	return roles, nil
}
