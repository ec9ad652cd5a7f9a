package query

import (
	"context"

	"github.com/eaglemart/platform/payment-service/internal/repository"
	"github.com/eaglemart/platform/shared/cqrs"
	"github.com/eaglemart/platform/shared/models"
)

type PaymentQueryService struct {
	repo *repository.PaymentRepository
}

func NewPaymentQueryService(repo *repository.PaymentRepository) *PaymentQueryService {
	return &PaymentQueryService{repo: repo}
}

func (s *PaymentQueryService) GetPayment(ctx context.Context, q cqrs.GetPaymentQuery) (*models.Payment, error) {
	return s.repo.GetByID(ctx, q.PaymentID)
}

func (s *PaymentQueryService) ListPayments(ctx context.Context) ([]*models.Payment, error) {
	return s.repo.List(ctx)
}
