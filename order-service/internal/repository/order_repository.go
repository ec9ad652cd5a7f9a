package repository

import (
	"context"

	"github.com/eaglemart/platform/shared/errs"
	"github.com/eaglemart/platform/shared/models"
	"github.com/eaglemart/platform/shared/store"
)

const orderNotFound = "Order not found"

const orderColumns = `id, user_id, product_id, quantity, total_amount, status, created_at, updated_at`

// OrderRepository reads and writes orders. Bind it to a transaction with
// WithTx for writes.
type OrderRepository struct {
	db store.DBTX
}

func NewOrderRepository(db store.DBTX) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) WithTx(tx store.DBTX) *OrderRepository {
	return &OrderRepository{db: tx}
}

func (r *OrderRepository) Create(ctx context.Context, o *models.Order) error {
	query := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		o.ID, o.UserID, o.ProductID, o.Quantity, o.TotalAmount, o.Status, o.CreatedAt, o.UpdatedAt,
	)
	return store.Classify(err, orderNotFound)
}

// Update writes quantity, amount and status and reloads the immutable
// columns into o.
func (r *OrderRepository) Update(ctx context.Context, o *models.Order) error {
	query := `
		UPDATE orders
		SET quantity = $2, total_amount = $3, status = $4, updated_at = $5
		WHERE id = $1
		RETURNING user_id, product_id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		o.ID, o.Quantity, o.TotalAmount, o.Status, o.UpdatedAt,
	).Scan(&o.UserID, &o.ProductID, &o.CreatedAt)
	if err != nil {
		return store.Classify(err, orderNotFound)
	}
	o.CreatedAt = o.CreatedAt.UTC()
	return nil
}

func (r *OrderRepository) Delete(ctx context.Context, id string) (*models.Order, error) {
	query := `DELETE FROM orders WHERE id = $1 RETURNING ` + orderColumns
	o, err := scanOrder(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, store.Classify(err, orderNotFound)
	}
	return o, nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	o, err := scanOrder(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, store.Classify(err, orderNotFound)
	}
	return o, nil
}

// List returns every order, or only userID's orders when it is set.
func (r *OrderRepository) List(ctx context.Context, userID string) ([]*models.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE ($1 = '' OR user_id = $1)
		ORDER BY created_at, id
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, errs.Wrap(errs.ErrPersistence, "", err)
	}
	defer rows.Close()

	orders := []*models.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, errs.Wrap(errs.ErrPersistence, "", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(errs.ErrPersistence, "", err)
	}
	return orders, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*models.Order, error) {
	var o models.Order
	err := row.Scan(&o.ID, &o.UserID, &o.ProductID, &o.Quantity, &o.TotalAmount, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	o.CreatedAt = o.CreatedAt.UTC()
	o.UpdatedAt = o.UpdatedAt.UTC()
	return &o, nil
}
