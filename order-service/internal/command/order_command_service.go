package command

import (
	"context"
	"database/sql"
	"time"

	"github.com/eaglemart/platform/order-service/internal/repository"
	"github.com/eaglemart/platform/shared/cqrs"
	"github.com/eaglemart/platform/shared/errs"
	"github.com/eaglemart/platform/shared/events"
	"github.com/eaglemart/platform/shared/models"
	"github.com/eaglemart/platform/shared/store"
	"github.com/eaglemart/platform/shared/utils"
)

// OrderCommandService writes orders and publishes every change to the orders
// topic inside the same transaction.
type OrderCommandService struct {
	db        *sql.DB
	repo      *repository.OrderRepository
	publisher events.Publisher
	now       func() time.Time
}

func NewOrderCommandService(db *sql.DB, publisher events.Publisher) *OrderCommandService {
	return &OrderCommandService{
		db:        db,
		repo:      repository.NewOrderRepository(db),
		publisher: publisher,
		now:       time.Now,
	}
}

func (s *OrderCommandService) CreateOrder(ctx context.Context, cmd cqrs.CreateOrderCommand) (*models.Order, error) {
	id, err := utils.GenerateID("ord")
	if err != nil {
		return nil, errs.Wrap(errs.ErrPersistence, "", err)
	}
	now := store.Timestamp(s.now())
	order := &models.Order{
		ID:          id,
		UserID:      cmd.UserID,
		ProductID:   cmd.ProductID,
		Quantity:    cmd.Quantity,
		TotalAmount: cmd.TotalAmount,
		Status:      models.OrderPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = store.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.repo.WithTx(tx).Create(ctx, order); err != nil {
			return err
		}
		return s.publish(ctx, events.OpCreate, order)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *OrderCommandService) UpdateOrder(ctx context.Context, cmd cqrs.UpdateOrderCommand) (*models.Order, error) {
	order := &models.Order{
		ID:          cmd.OrderID,
		Quantity:    cmd.Quantity,
		TotalAmount: cmd.TotalAmount,
		Status:      cmd.Status,
		UpdatedAt:   store.Timestamp(s.now()),
	}
	err := store.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.repo.WithTx(tx).Update(ctx, order); err != nil {
			return err
		}
		return s.publish(ctx, events.OpUpdate, order)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *OrderCommandService) DeleteOrder(ctx context.Context, cmd cqrs.DeleteOrderCommand) error {
	return store.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		order, err := s.repo.WithTx(tx).Delete(ctx, cmd.OrderID)
		if err != nil {
			return err
		}
		return s.publish(ctx, events.OpDelete, order)
	})
}

func (s *OrderCommandService) publish(ctx context.Context, op events.Operation, o *models.Order) error {
	_, err := s.publisher.Publish(ctx, events.OrdersTopic, events.MutationEvent{
		EntityKind: events.KindOrder,
		Operation:  op,
		EntityID:   o.ID,
		Payload: events.OrderPayload{
			ID:          o.ID,
			UserID:      o.UserID,
			ProductID:   o.ProductID,
			Quantity:    o.Quantity,
			TotalAmount: o.TotalAmount,
			Status:      o.Status,
			CreatedAt:   o.CreatedAt,
			UpdatedAt:   o.UpdatedAt,
		},
	})
	return err
}
