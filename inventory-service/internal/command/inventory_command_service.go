package command

import (
	"context"
	"database/sql"
	"time"

	"github.com/eaglemart/platform/inventory-service/internal/repository"
	"github.com/eaglemart/platform/shared/cqrs"
	"github.com/eaglemart/platform/shared/errs"
	"github.com/eaglemart/platform/shared/events"
	"github.com/eaglemart/platform/shared/models"
	"github.com/eaglemart/platform/shared/store"
	"github.com/eaglemart/platform/shared/utils"
)

// InventoryCommandService records stock levels and publishes each change to
// the inventory topic before committing it.
type InventoryCommandService struct {
	db        *sql.DB
	repo      *repository.InventoryRepository
	publisher events.Publisher
	now       func() time.Time
}

func NewInventoryCommandService(db *sql.DB, publisher events.Publisher) *InventoryCommandService {
	return &InventoryCommandService{
		db:        db,
		repo:      repository.NewInventoryRepository(db),
		publisher: publisher,
		now:       time.Now,
	}
}

func (s *InventoryCommandService) CreateItem(ctx context.Context, cmd cqrs.CreateInventoryItemCommand) (*models.InventoryItem, error) {
	id, err := utils.GenerateID("inv")
	if err != nil {
		return nil, errs.Wrap(errs.ErrPersistence, "", err)
	}
	now := store.Timestamp(s.now())
	item := &models.InventoryItem{
		ID:        id,
		ProductID: cmd.ProductID,
		Quantity:  cmd.Quantity,
		Location:  cmd.Location,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err = store.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.repo.WithTx(tx).Create(ctx, item); err != nil {
			return err
		}
		return s.publish(ctx, events.OpCreate, item)
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *InventoryCommandService) UpdateItem(ctx context.Context, cmd cqrs.UpdateInventoryItemCommand) (*models.InventoryItem, error) {
	item := &models.InventoryItem{
		ID:        cmd.ItemID,
		ProductID: cmd.ProductID,
		Quantity:  cmd.Quantity,
		Location:  cmd.Location,
		UpdatedAt: store.Timestamp(s.now()),
	}
	err := store.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.repo.WithTx(tx).Update(ctx, item); err != nil {
			return err
		}
		return s.publish(ctx, events.OpUpdate, item)
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *InventoryCommandService) DeleteItem(ctx context.Context, cmd cqrs.DeleteInventoryItemCommand) error {
	return store.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		item, err := s.repo.WithTx(tx).Delete(ctx, cmd.ItemID)
		if err != nil {
			return err
		}
		return s.publish(ctx, events.OpDelete, item)
	})
}

func (s *InventoryCommandService) publish(ctx context.Context, op events.Operation, item *models.InventoryItem) error {
	_, err := s.publisher.Publish(ctx, events.InventoryTopic, events.MutationEvent{
		EntityKind: events.KindInventoryItem,
		Operation:  op,
		EntityID:   item.ID,
		Payload: events.InventoryItemPayload{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Location:  item.Location,
			UpdatedAt: item.UpdatedAt,
		},
	})
	return err
}
