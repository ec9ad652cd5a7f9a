package query

import (
	"context"

	"github.com/eaglemart/platform/product-service/internal/repository"
	"github.com/eaglemart/platform/shared/cqrs"
	"github.com/eaglemart/platform/shared/models"
)

// ProductQueryService reads products through the cached read repository.
type ProductQueryService struct {
	readRepo *repository.ProductReadRepository
}

func NewProductQueryService(readRepo *repository.ProductReadRepository) *ProductQueryService {
	return &ProductQueryService{readRepo: readRepo}
}

func (s *ProductQueryService) GetProduct(ctx context.Context, q cqrs.GetProductQuery) (*models.Product, error) {
	return s.readRepo.GetByID(ctx, q.ProductID)
}

func (s *ProductQueryService) ListProducts(ctx context.Context) ([]*models.Product, error) {
	return s.readRepo.List(ctx)
}
