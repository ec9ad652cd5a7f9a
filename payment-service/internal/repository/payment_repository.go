package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/eaglemart/platform/shared/errs"
	"github.com/eaglemart/platform/shared/models"
	"github.com/eaglemart/platform/shared/store"
)

const paymentNotFound = "Payment not found"

const paymentColumns = `id, amount, currency, payment_method, status, provider_ref, created_at, updated_at`

type PaymentRepository struct {
	db store.DBTX
}

func NewPaymentRepository(db store.DBTX) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) WithTx(tx store.DBTX) *PaymentRepository {
	return &PaymentRepository{db: tx}
}

func (r *PaymentRepository) Create(ctx context.Context, p *models.Payment) error {
	query := `INSERT INTO payments (` + paymentColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.Amount, p.Currency, p.PaymentMethod, p.Status, nullString(p.ProviderRef), p.CreatedAt, p.UpdatedAt,
	)
	return store.Classify(err, paymentNotFound)
}

// Update rewrites the client-editable fields. provider_ref is owned by the
// provider flow and is returned unchanged.
func (r *PaymentRepository) Update(ctx context.Context, p *models.Payment) error {
	query := `
		UPDATE payments
		SET amount = $2, currency = $3, payment_method = $4, status = $5, updated_at = $6
		WHERE id = $1
		RETURNING provider_ref, created_at
	`
	var ref sql.NullString
	err := r.db.QueryRowContext(ctx, query,
		p.ID, p.Amount, p.Currency, p.PaymentMethod, p.Status, p.UpdatedAt,
	).Scan(&ref, &p.CreatedAt)
	if err != nil {
		return store.Classify(err, paymentNotFound)
	}
	p.ProviderRef = ref.String
	p.CreatedAt = p.CreatedAt.UTC()
	return nil
}

// SetStatusByProviderRef moves the payment created for a provider intent to
// status and returns the updated row.
func (r *PaymentRepository) SetStatusByProviderRef(ctx context.Context, ref, status string, at time.Time) (*models.Payment, error) {
	query := `
		UPDATE payments
		SET status = $2, updated_at = $3
		WHERE provider_ref = $1
		RETURNING ` + paymentColumns
	p, err := scanPayment(r.db.QueryRowContext(ctx, query, ref, status, at))
	if err != nil {
		return nil, store.Classify(err, paymentNotFound)
	}
	return p, nil
}

func (r *PaymentRepository) Delete(ctx context.Context, id string) (*models.Payment, error) {
	query := `DELETE FROM payments WHERE id = $1 RETURNING ` + paymentColumns
	p, err := scanPayment(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, store.Classify(err, paymentNotFound)
	}
	return p, nil
}

func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	p, err := scanPayment(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, store.Classify(err, paymentNotFound)
	}
	return p, nil
}

func (r *PaymentRepository) List(ctx context.Context) ([]*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errs.Wrap(errs.ErrPersistence, "", err)
	}
	defer rows.Close()

	payments := []*models.Payment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, errs.Wrap(errs.ErrPersistence, "", err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(errs.ErrPersistence, "", err)
	}
	return payments, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPayment(row rowScanner) (*models.Payment, error) {
	var p models.Payment
	var ref sql.NullString
	if err := row.Scan(&p.ID, &p.Amount, &p.Currency, &p.PaymentMethod, &p.Status, &ref, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.ProviderRef = ref.String
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return &p, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}
