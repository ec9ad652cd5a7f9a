package repository

import (
	"context"
	"database/sql"

	"github.com/eaglemart/platform/shared/models"
	"github.com/eaglemart/platform/shared/store"
)

const productNotFound = "Product not found"

// ProductWriteRepository handles all state-mutating operations for products.
// Bind it to a transaction with WithTx.
type ProductWriteRepository struct {
	db store.DBTX
}

func NewProductWriteRepository(db store.DBTX) *ProductWriteRepository {
	return &ProductWriteRepository{db: db}
}

func (r *ProductWriteRepository) WithTx(tx store.DBTX) *ProductWriteRepository {
	return &ProductWriteRepository{db: tx}
}

func (r *ProductWriteRepository) Create(ctx context.Context, p *models.Product) error {
	query := `
		INSERT INTO products (id, name, description, price, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.Name, nullString(p.Description), p.Price, p.CreatedAt, p.UpdatedAt,
	)
	return store.Classify(err, productNotFound)
}

// Update replaces the mutable fields and fills in CreatedAt from the row.
func (r *ProductWriteRepository) Update(ctx context.Context, p *models.Product) error {
	query := `
		UPDATE products
		SET name = $2, description = $3, price = $4, updated_at = $5
		WHERE id = $1
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		p.ID, p.Name, nullString(p.Description), p.Price, p.UpdatedAt,
	).Scan(&p.CreatedAt)
	if err != nil {
		return store.Classify(err, productNotFound)
	}
	p.CreatedAt = p.CreatedAt.UTC()
	return nil
}

// Delete removes the row and returns it as it was.
func (r *ProductWriteRepository) Delete(ctx context.Context, id string) (*models.Product, error) {
	query := `
		DELETE FROM products
		WHERE id = $1
		RETURNING id, name, description, price, created_at, updated_at
	`
	p, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, store.Classify(err, productNotFound)
	}
	return p, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*models.Product, error) {
	var p models.Product
	var description sql.NullString
	if err := row.Scan(&p.ID, &p.Name, &description, &p.Price, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Description = description.String
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
