package query

import (
	"context"

	"github.com/eaglemart/platform/inventory-service/internal/repository"
	"github.com/eaglemart/platform/shared/cqrs"
	"github.com/eaglemart/platform/shared/models"
)

type InventoryQueryService struct {
	repo *repository.InventoryRepository
}

func NewInventoryQueryService(repo *repository.InventoryRepository) *InventoryQueryService {
	return &InventoryQueryService{repo: repo}
}

func (s *InventoryQueryService) GetItem(ctx context.Context, q cqrs.GetInventoryItemQuery) (*models.InventoryItem, error) {
	return s.repo.GetByID(ctx, q.ItemID)
}

func (s *InventoryQueryService) ListItems(ctx context.Context, q cqrs.ListInventoryQuery) ([]*models.InventoryItem, error) {
	return s.repo.List(ctx, q.ProductID)
}
