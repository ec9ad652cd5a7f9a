package query

import (
	"context"

	"github.com/eaglemart/platform/notification-service/internal/repository"
	"github.com/eaglemart/platform/shared/cqrs"
	"github.com/eaglemart/platform/shared/models"
)

type NotificationQueryService struct {
	repo *repository.NotificationRepository
}

func NewNotificationQueryService(repo *repository.NotificationRepository) *NotificationQueryService {
	return &NotificationQueryService{repo: repo}
}

func (s *NotificationQueryService) GetEmail(ctx context.Context, q cqrs.GetNotificationQuery) (*models.EmailNotification, error) {
	return s.repo.GetEmail(ctx, q.NotificationID)
}

func (s *NotificationQueryService) ListEmails(ctx context.Context) ([]*models.EmailNotification, error) {
	return s.repo.ListEmails(ctx)
}

func (s *NotificationQueryService) GetSMS(ctx context.Context, q cqrs.GetNotificationQuery) (*models.SMSNotification, error) {
	return s.repo.GetSMS(ctx, q.NotificationID)
}

func (s *NotificationQueryService) ListSMS(ctx context.Context) ([]*models.SMSNotification, error) {
	return s.repo.ListSMS(ctx)
}
