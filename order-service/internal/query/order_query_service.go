package query

import (
	"context"

	"github.com/eaglemart/platform/order-service/internal/repository"
	"github.com/eaglemart/platform/shared/cqrs"
	"github.com/eaglemart/platform/shared/models"
)

type OrderQueryService struct {
	repo *repository.OrderRepository
}

func NewOrderQueryService(repo *repository.OrderRepository) *OrderQueryService {
	return &OrderQueryService{repo: repo}
}

func (s *OrderQueryService) GetOrder(ctx context.Context, q cqrs.GetOrderQuery) (*models.Order, error) {
	return s.repo.GetByID(ctx, q.OrderID)
}

func (s *OrderQueryService) ListOrders(ctx context.Context, q cqrs.ListOrdersQuery) ([]*models.Order, error) {
	return s.repo.List(ctx, q.UserID)
}
