package command

import (
	"context"
	"database/sql"
	"time"

	"github.com/eaglemart/platform/product-service/internal/repository"
	"github.com/eaglemart/platform/shared/cqrs"
	"github.com/eaglemart/platform/shared/errs"
	"github.com/eaglemart/platform/shared/events"
	"github.com/eaglemart/platform/shared/models"
	"github.com/eaglemart/platform/shared/store"
	"github.com/eaglemart/platform/shared/utils"
)

// ProductCommandService writes products to PostgreSQL and publishes each
// change to the products topic before committing it. The cache is refreshed
// only after the commit.
type ProductCommandService struct {
	db        *sql.DB
	writeRepo *repository.ProductWriteRepository
	readRepo  *repository.ProductReadRepository
	publisher events.Publisher
	now       func() time.Time
}

func NewProductCommandService(
	db *sql.DB,
	readRepo *repository.ProductReadRepository,
	publisher events.Publisher,
) *ProductCommandService {
	return &ProductCommandService{
		db:        db,
		writeRepo: repository.NewProductWriteRepository(db),
		readRepo:  readRepo,
		publisher: publisher,
		now:       time.Now,
	}
}

func (s *ProductCommandService) CreateProduct(ctx context.Context, cmd cqrs.CreateProductCommand) (*models.Product, error) {
	id, err := utils.GenerateID("prd")
	if err != nil {
		return nil, errs.Wrap(errs.ErrPersistence, "", err)
	}
	now := store.Timestamp(s.now())
	product := &models.Product{
		ID:          id,
		Name:        cmd.Name,
		Description: cmd.Description,
		Price:       cmd.Price,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = store.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.writeRepo.WithTx(tx).Create(ctx, product); err != nil {
			return err
		}
		return s.publish(ctx, events.OpCreate, product)
	})
	if err != nil {
		return nil, err
	}
	s.readRepo.CacheProduct(ctx, product)
	return product, nil
}

func (s *ProductCommandService) UpdateProduct(ctx context.Context, cmd cqrs.UpdateProductCommand) (*models.Product, error) {
	product := &models.Product{
		ID:          cmd.ProductID,
		Name:        cmd.Name,
		Description: cmd.Description,
		Price:       cmd.Price,
		UpdatedAt:   store.Timestamp(s.now()),
	}

	err := store.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.writeRepo.WithTx(tx).Update(ctx, product); err != nil {
			return err
		}
		return s.publish(ctx, events.OpUpdate, product)
	})
	if err != nil {
		return nil, err
	}
	s.readRepo.CacheProduct(ctx, product)
	return product, nil
}

func (s *ProductCommandService) DeleteProduct(ctx context.Context, cmd cqrs.DeleteProductCommand) error {
	err := store.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		product, err := s.writeRepo.WithTx(tx).Delete(ctx, cmd.ProductID)
		if err != nil {
			return err
		}
		return s.publish(ctx, events.OpDelete, product)
	})
	if err != nil {
		return err
	}
	s.readRepo.InvalidateProduct(ctx, cmd.ProductID)
	return nil
}

func (s *ProductCommandService) publish(ctx context.Context, op events.Operation, p *models.Product) error {
	_, err := s.publisher.Publish(ctx, events.ProductsTopic, events.MutationEvent{
		EntityKind: events.KindProduct,
		Operation:  op,
		EntityID:   p.ID,
		Payload:    productPayload(p),
	})
	return err
}

func productPayload(p *models.Product) events.ProductPayload {
	return events.ProductPayload{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}
