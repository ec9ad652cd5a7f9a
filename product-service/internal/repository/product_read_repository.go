package repository

import (
	"context"
	"time"

	"github.com/eaglemart/platform/shared/errs"
	"github.com/eaglemart/platform/shared/models"
	sharedredis "github.com/eaglemart/platform/shared/redis"
	"github.com/eaglemart/platform/shared/store"
	goredis "github.com/redis/go-redis/v9"
)

const productViewKeyPrefix = "product:view:"

// ProductReadRepository serves product reads from Redis first, falling back
// to PostgreSQL on a miss. A nil Redis client disables the cache.
type ProductReadRepository struct {
	db    store.DBTX
	cache *sharedredis.ViewCache[models.Product]
}

func NewProductReadRepository(db store.DBTX, redisClient *goredis.Client, ttl time.Duration) *ProductReadRepository {
	r := &ProductReadRepository{db: db}
	if redisClient != nil {
		r.cache = sharedredis.NewViewCache[models.Product](redisClient, productViewKeyPrefix, ttl)
	}
	return r
}

func (r *ProductReadRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	if p, ok := r.cache.Get(ctx, id); ok {
		return p, nil
	}

	query := `
		SELECT id, name, description, price, created_at, updated_at
		FROM products
		WHERE id = $1
	`
	p, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, store.Classify(err, productNotFound)
	}

	r.cache.Set(ctx, p.ID, p)
	return p, nil
}

func (r *ProductReadRepository) List(ctx context.Context) ([]*models.Product, error) {
	query := `
		SELECT id, name, description, price, created_at, updated_at
		FROM products
		ORDER BY created_at, id
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errs.Wrap(errs.ErrPersistence, "", err)
	}
	defer rows.Close()

	products := []*models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, errs.Wrap(errs.ErrPersistence, "", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(errs.ErrPersistence, "", err)
	}
	return products, nil
}

// CacheProduct refreshes the cached view after a committed write.
func (r *ProductReadRepository) CacheProduct(ctx context.Context, p *models.Product) {
	r.cache.Set(ctx, p.ID, p)
}

func (r *ProductReadRepository) InvalidateProduct(ctx context.Context, id string) {
	r.cache.Delete(ctx, id)
}
