package repository

import (
	"context"
	"database/sql"

	"github.com/eaglemart/platform/shared/errs"
	"github.com/eaglemart/platform/shared/models"
	"github.com/eaglemart/platform/shared/store"
)

const itemNotFound = "Inventory item not found"

const itemColumns = `id, product_id, quantity, location, created_at, updated_at`

type InventoryRepository struct {
	db store.DBTX
}

func NewInventoryRepository(db store.DBTX) *InventoryRepository {
	return &InventoryRepository{db: db}
}

func (r *InventoryRepository) WithTx(tx store.DBTX) *InventoryRepository {
	return &InventoryRepository{db: tx}
}

func (r *InventoryRepository) Create(ctx context.Context, item *models.InventoryItem) error {
	query := `INSERT INTO inventory_items (` + itemColumns + `) VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.ExecContext(ctx, query,
		item.ID, item.ProductID, item.Quantity, nullString(item.Location), item.CreatedAt, item.UpdatedAt,
	)
	return store.Classify(err, itemNotFound)
}

func (r *InventoryRepository) Update(ctx context.Context, item *models.InventoryItem) error {
	query := `
		UPDATE inventory_items
		SET product_id = $2, quantity = $3, location = $4, updated_at = $5
		WHERE id = $1
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		item.ID, item.ProductID, item.Quantity, nullString(item.Location), item.UpdatedAt,
	).Scan(&item.CreatedAt)
	if err != nil {
		return store.Classify(err, itemNotFound)
	}
	item.CreatedAt = item.CreatedAt.UTC()
	return nil
}

func (r *InventoryRepository) Delete(ctx context.Context, id string) (*models.InventoryItem, error) {
	query := `DELETE FROM inventory_items WHERE id = $1 RETURNING ` + itemColumns
	item, err := scanItem(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, store.Classify(err, itemNotFound)
	}
	return item, nil
}

func (r *InventoryRepository) GetByID(ctx context.Context, id string) (*models.InventoryItem, error) {
	query := `SELECT ` + itemColumns + ` FROM inventory_items WHERE id = $1`
	item, err := scanItem(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, store.Classify(err, itemNotFound)
	}
	return item, nil
}

// List returns every item, or only those stocking productID when it is set.
func (r *InventoryRepository) List(ctx context.Context, productID string) ([]*models.InventoryItem, error) {
	query := `
		SELECT ` + itemColumns + `
		FROM inventory_items
		WHERE ($1 = '' OR product_id = $1)
		ORDER BY created_at, id
	`
	rows, err := r.db.QueryContext(ctx, query, productID)
	if err != nil {
		return nil, errs.Wrap(errs.ErrPersistence, "", err)
	}
	defer rows.Close()

	items := []*models.InventoryItem{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, errs.Wrap(errs.ErrPersistence, "", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(errs.ErrPersistence, "", err)
	}
	return items, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*models.InventoryItem, error) {
	var item models.InventoryItem
	var location sql.NullString
	if err := row.Scan(&item.ID, &item.ProductID, &item.Quantity, &location, &item.CreatedAt, &item.UpdatedAt); err != nil {
		return nil, err
	}
	item.Location = location.String
	item.CreatedAt = item.CreatedAt.UTC()
	item.UpdatedAt = item.UpdatedAt.UTC()
	return &item, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}
