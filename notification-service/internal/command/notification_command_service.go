package command

import (
	"context"
	"database/sql"
	"time"

	"github.com/eaglemart/platform/notification-service/internal/repository"
	"github.com/eaglemart/platform/notification-service/internal/sender"
	"github.com/eaglemart/platform/shared/cqrs"
	"github.com/eaglemart/platform/shared/errs"
	"github.com/eaglemart/platform/shared/events"
	"github.com/eaglemart/platform/shared/models"
	"github.com/eaglemart/platform/shared/store"
	"github.com/eaglemart/platform/shared/utils"
)

const deliveryFailed = "Notification delivery failed"

// NotificationCommandService delivers a notification first and records it
// only once delivery succeeded, so every stored row was actually sent.
type NotificationCommandService struct {
	db        *sql.DB
	repo      *repository.NotificationRepository
	sender    sender.Sender
	publisher events.Publisher
	now       func() time.Time
}

func NewNotificationCommandService(db *sql.DB, s sender.Sender, publisher events.Publisher) *NotificationCommandService {
	return &NotificationCommandService{
		db:        db,
		repo:      repository.NewNotificationRepository(db),
		sender:    s,
		publisher: publisher,
		now:       time.Now,
	}
}

func (s *NotificationCommandService) SendEmail(ctx context.Context, cmd cqrs.SendEmailCommand) (*models.EmailNotification, error) {
	id, err := utils.GenerateID("eml")
	if err != nil {
		return nil, errs.Wrap(errs.ErrPersistence, "", err)
	}
	if err := s.sender.SendEmail(ctx, cmd.RecipientEmail, cmd.Subject, cmd.Message); err != nil {
		return nil, errs.Wrap(errs.ErrUpstream, deliveryFailed, err)
	}
	n := &models.EmailNotification{
		ID:             id,
		RecipientEmail: cmd.RecipientEmail,
		Subject:        cmd.Subject,
		Message:        cmd.Message,
		CreatedAt:      store.Timestamp(s.now()),
	}
	err = store.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.repo.WithTx(tx).CreateEmail(ctx, n); err != nil {
			return err
		}
		return s.publishEmail(ctx, events.OpCreate, n)
	})
	if err != nil {
		return nil, err
	}
	return n, nil
}

func (s *NotificationCommandService) DeleteEmail(ctx context.Context, cmd cqrs.DeleteNotificationCommand) error {
	return store.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		n, err := s.repo.WithTx(tx).DeleteEmail(ctx, cmd.NotificationID)
		if err != nil {
			return err
		}
		return s.publishEmail(ctx, events.OpDelete, n)
	})
}

func (s *NotificationCommandService) SendSMS(ctx context.Context, cmd cqrs.SendSMSCommand) (*models.SMSNotification, error) {
	id, err := utils.GenerateID("sms")
	if err != nil {
		return nil, errs.Wrap(errs.ErrPersistence, "", err)
	}
	if err := s.sender.SendSMS(ctx, cmd.PhoneNumber, cmd.Message); err != nil {
		return nil, errs.Wrap(errs.ErrUpstream, deliveryFailed, err)
	}
	n := &models.SMSNotification{
		ID:          id,
		PhoneNumber: cmd.PhoneNumber,
		Message:     cmd.Message,
		CreatedAt:   store.Timestamp(s.now()),
	}
	err = store.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.repo.WithTx(tx).CreateSMS(ctx, n); err != nil {
			return err
		}
		return s.publishSMS(ctx, events.OpCreate, n)
	})
	if err != nil {
		return nil, err
	}
	return n, nil
}

func (s *NotificationCommandService) DeleteSMS(ctx context.Context, cmd cqrs.DeleteNotificationCommand) error {
	return store.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		n, err := s.repo.WithTx(tx).DeleteSMS(ctx, cmd.NotificationID)
		if err != nil {
			return err
		}
		return s.publishSMS(ctx, events.OpDelete, n)
	})
}

func (s *NotificationCommandService) publishEmail(ctx context.Context, op events.Operation, n *models.EmailNotification) error {
	_, err := s.publisher.Publish(ctx, events.NotificationsTopic, events.MutationEvent{
		EntityKind: events.KindEmailNotification,
		Operation:  op,
		EntityID:   n.ID,
		Payload: events.EmailNotificationPayload{
			ID:             n.ID,
			RecipientEmail: n.RecipientEmail,
			Subject:        n.Subject,
			Message:        n.Message,
			CreatedAt:      n.CreatedAt,
		},
	})
	return err
}

func (s *NotificationCommandService) publishSMS(ctx context.Context, op events.Operation, n *models.SMSNotification) error {
	_, err := s.publisher.Publish(ctx, events.NotificationsTopic, events.MutationEvent{
		EntityKind: events.KindSMSNotification,
		Operation:  op,
		EntityID:   n.ID,
		Payload: events.SMSNotificationPayload{
			ID:          n.ID,
			PhoneNumber: n.PhoneNumber,
			Message:     n.Message,
			CreatedAt:   n.CreatedAt,
		},
	})
	return err
}
