package payments

import (
	"context"

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

const postingCols = `id, claim_id, remittance_id, posting_type, method, amount,
	posted_date, reference, notes, posted_by_kind, posted_by_user, created_at, updated_at`

func scanPosting(row pgx.Row) (*Posting, error) {
	var p Posting
	err := row.Scan(&p.ID, &p.ClaimID, &p.RemittanceID, &p.Type, &p.Method, &p.Amount,
		&p.PostedDate, &p.Reference, &p.Notes, &p.PostedBy.Kind, &p.PostedBy.UserID,
		&p.CreatedAt, &p.UpdatedAt)
	return &p, err
}

func (r *repoPG) Create(ctx context.Context, p *Posting) error {
	p.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO payment_posting (id, claim_id, remittance_id, posting_type, method, amount,
			posted_date, reference, notes, posted_by_kind, posted_by_user)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		p.ID, p.ClaimID, p.RemittanceID, p.Type, p.Method, p.Amount,
		p.PostedDate, p.Reference, p.Notes, p.PostedBy.Kind, p.PostedBy.UserID)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Posting, error) {
	return scanPosting(r.conn(ctx).QueryRow(ctx,
		`SELECT `+postingCols+` FROM payment_posting WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, p *Posting) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE payment_posting SET posting_type=$2, method=$3, amount=$4,
			posted_date=$5, reference=$6, notes=$7, updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.Type, p.Method, p.Amount, p.PostedDate, p.Reference, p.Notes)
	return err
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM payment_posting WHERE id = $1`, id)
	return err
}

func (r *repoPG) ListByClaim(ctx context.Context, claimID uuid.UUID) ([]*Posting, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+postingCols+` FROM payment_posting WHERE claim_id = $1 ORDER BY posted_date, created_at`, claimID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Posting
	for rows.Next() {
		p, err := scanPosting(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

func (r *repoPG) SumByClaim(ctx context.Context, claimID uuid.UUID) (decimal.Decimal, decimal.Decimal, error) {
	var paid, adjustments decimal.Decimal
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COALESCE(SUM(amount) FILTER (WHERE posting_type <> 'ADJUSTMENT'), 0),
		       COALESCE(SUM(amount) FILTER (WHERE posting_type = 'ADJUSTMENT'), 0)
		FROM payment_posting WHERE claim_id = $1`, claimID).Scan(&paid, &adjustments)
	return paid, adjustments, err
}
