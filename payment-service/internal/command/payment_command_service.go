package command

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/eaglemart/platform/payment-service/internal/provider"
	"github.com/eaglemart/platform/payment-service/internal/repository"
	"github.com/eaglemart/platform/shared/cqrs"
	"github.com/eaglemart/platform/shared/errs"
	"github.com/eaglemart/platform/shared/events"
	"github.com/eaglemart/platform/shared/models"
	"github.com/eaglemart/platform/shared/store"
	"github.com/eaglemart/platform/shared/utils"
)

// PaymentProvider creates intents with the payment provider and verifies
// its webhook callbacks.
type PaymentProvider interface {
	CreateIntent(ctx context.Context, amount float64, currency string) (*provider.Intent, error)
	ParseWebhook(payload []byte, signature string) (*provider.WebhookEvent, error)
}

const providerMethod = "stripe"

type PaymentCommandService struct {
	db        *sql.DB
	repo      *repository.PaymentRepository
	publisher events.Publisher
	provider  PaymentProvider
	logger    *slog.Logger
	now       func() time.Time
}

func NewPaymentCommandService(db *sql.DB, publisher events.Publisher, p PaymentProvider, logger *slog.Logger) *PaymentCommandService {
	return &PaymentCommandService{
		db:        db,
		repo:      repository.NewPaymentRepository(db),
		publisher: publisher,
		provider:  p,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *PaymentCommandService) CreatePayment(ctx context.Context, cmd cqrs.CreatePaymentCommand) (*models.Payment, error) {
	payment, err := s.newPayment(cmd.Amount, cmd.Currency, cmd.PaymentMethod, "")
	if err != nil {
		return nil, err
	}
	if err := s.insert(ctx, payment); err != nil {
		return nil, err
	}
	return payment, nil
}

func (s *PaymentCommandService) UpdatePayment(ctx context.Context, cmd cqrs.UpdatePaymentCommand) (*models.Payment, error) {
	payment := &models.Payment{
		ID:            cmd.PaymentID,
		Amount:        cmd.Amount,
		Currency:      cmd.Currency,
		PaymentMethod: cmd.PaymentMethod,
		Status:        cmd.Status,
		UpdatedAt:     store.Timestamp(s.now()),
	}
	err := store.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.repo.WithTx(tx).Update(ctx, payment); err != nil {
			return err
		}
		return s.publish(ctx, events.OpUpdate, payment)
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

func (s *PaymentCommandService) DeletePayment(ctx context.Context, cmd cqrs.DeletePaymentCommand) error {
	return store.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		payment, err := s.repo.WithTx(tx).Delete(ctx, cmd.PaymentID)
		if err != nil {
			return err
		}
		return s.publish(ctx, events.OpDelete, payment)
	})
}

// CreatePaymentIntent asks the provider for an intent and records a pending
// payment referencing it. An intent whose row fails to persist is left to
// expire at the provider.
func (s *PaymentCommandService) CreatePaymentIntent(ctx context.Context, cmd cqrs.CreatePaymentIntentCommand) (*models.PaymentIntentView, error) {
	intent, err := s.provider.CreateIntent(ctx, cmd.Amount, cmd.Currency)
	if err != nil {
		return nil, err
	}
	method := cmd.PaymentMethod
	if method == "" {
		method = providerMethod
	}
	payment, err := s.newPayment(cmd.Amount, cmd.Currency, method, intent.ID)
	if err != nil {
		return nil, err
	}
	if err := s.insert(ctx, payment); err != nil {
		return nil, err
	}
	return &models.PaymentIntentView{Payment: payment, ClientSecret: intent.ClientSecret}, nil
}

// HandleProviderWebhook verifies a callback and applies intent outcomes to
// the matching payment. Events for unknown intents are acknowledged and
// ignored so the provider stops redelivering them.
func (s *PaymentCommandService) HandleProviderWebhook(ctx context.Context, cmd cqrs.HandleProviderWebhookCommand) error {
	event, err := s.provider.ParseWebhook(cmd.Payload, cmd.Signature)
	if err != nil {
		return err
	}

	var status string
	switch event.Type {
	case provider.EventIntentSucceeded:
		status = models.PaymentSucceeded
	case provider.EventIntentFailed:
		status = models.PaymentFailed
	default:
		s.logger.Info("unhandled provider event", slog.String("type", event.Type), slog.String("event_id", event.ID))
		return nil
	}

	err = store.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		payment, err := s.repo.WithTx(tx).SetStatusByProviderRef(ctx, event.IntentID, status, store.Timestamp(s.now()))
		if err != nil {
			return err
		}
		return s.publish(ctx, events.OpUpdate, payment)
	})
	if errors.Is(err, errs.ErrNotFound) {
		s.logger.Warn("provider event for unknown intent",
			slog.String("type", event.Type), slog.String("intent_id", event.IntentID))
		return nil
	}
	return err
}

func (s *PaymentCommandService) newPayment(amount float64, currency, method, ref string) (*models.Payment, error) {
	id, err := utils.GenerateID("pay")
	if err != nil {
		return nil, errs.Wrap(errs.ErrPersistence, "", err)
	}
	now := store.Timestamp(s.now())
	return &models.Payment{
		ID:            id,
		Amount:        amount,
		Currency:      currency,
		PaymentMethod: method,
		Status:        models.PaymentPending,
		ProviderRef:   ref,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

func (s *PaymentCommandService) insert(ctx context.Context, payment *models.Payment) error {
	return store.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.repo.WithTx(tx).Create(ctx, payment); err != nil {
			return err
		}
		return s.publish(ctx, events.OpCreate, payment)
	})
}

func (s *PaymentCommandService) publish(ctx context.Context, op events.Operation, p *models.Payment) error {
	_, err := s.publisher.Publish(ctx, events.PaymentsTopic, events.MutationEvent{
		EntityKind: events.KindPayment,
		Operation:  op,
		EntityID:   p.ID,
		Payload: events.PaymentPayload{
			ID:            p.ID,
			Amount:        p.Amount,
			Currency:      p.Currency,
			PaymentMethod: p.PaymentMethod,
			Status:        p.Status,
			ProviderRef:   p.ProviderRef,
			UpdatedAt:     p.UpdatedAt,
		},
	})
	return err
}
