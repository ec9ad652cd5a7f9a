package command

import (
	"context"
	"database/sql"
	"time"

	"github.com/eaglemart/platform/shared/cqrs"
	"github.com/eaglemart/platform/shared/errs"
	"github.com/eaglemart/platform/shared/events"
	"github.com/eaglemart/platform/shared/models"
	"github.com/eaglemart/platform/shared/store"
	"github.com/eaglemart/platform/shared/utils"
	"github.com/eaglemart/platform/user-service/internal/repository"
)

const credentialsTaken = "User with these credentials already exists"

// UserCommandService registers users and lets them edit or delete their own
// profile. Every change is published to the users topic before it commits;
// the password hash never leaves the service.
type UserCommandService struct {
	db        *sql.DB
	repo      *repository.UserRepository
	publisher events.Publisher
	hash      func(string) (string, error)
	now       func() time.Time
}

func NewUserCommandService(db *sql.DB, publisher events.Publisher) *UserCommandService {
	return &UserCommandService{
		db:        db,
		repo:      repository.NewUserRepository(db),
		publisher: publisher,
		hash:      utils.HashPassword,
		now:       time.Now,
	}
}

func (s *UserCommandService) RegisterUser(ctx context.Context, cmd cqrs.RegisterUserCommand) (*models.User, error) {
	taken, err := s.repo.CredentialsTaken(ctx, cmd.Username, cmd.Email, "")
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, errs.New(errs.ErrConflict, credentialsTaken)
	}

	passwordHash, err := s.hash(cmd.Password)
	if err != nil {
		return nil, errs.Wrap(errs.ErrPersistence, "", err)
	}
	id, err := utils.GenerateID("usr")
	if err != nil {
		return nil, errs.Wrap(errs.ErrPersistence, "", err)
	}
	now := store.Timestamp(s.now())
	user := &models.User{
		ID:           id,
		Username:     cmd.Username,
		Email:        cmd.Email,
		PasswordHash: passwordHash,
		PhoneNumber:  cmd.PhoneNumber,
		Address:      cmd.Address,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// The unique indexes still catch a registration racing this one.
	err = store.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.repo.WithTx(tx).Create(ctx, user); err != nil {
			return err
		}
		return s.publish(ctx, events.OpCreate, user)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserCommandService) UpdateUser(ctx context.Context, cmd cqrs.UpdateUserCommand) (*models.User, error) {
	if cmd.RequestingUserID != cmd.UserID {
		return nil, errs.New(errs.ErrForbidden, "You can only update your own user details")
	}
	taken, err := s.repo.CredentialsTaken(ctx, cmd.Username, cmd.Email, cmd.UserID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, errs.New(errs.ErrConflict, credentialsTaken)
	}

	user := &models.User{
		ID:          cmd.UserID,
		Username:    cmd.Username,
		Email:       cmd.Email,
		PhoneNumber: cmd.PhoneNumber,
		Address:     cmd.Address,
		UpdatedAt:   store.Timestamp(s.now()),
	}
	err = store.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.repo.WithTx(tx).Update(ctx, user); err != nil {
			return err
		}
		return s.publish(ctx, events.OpUpdate, user)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserCommandService) DeleteUser(ctx context.Context, cmd cqrs.DeleteUserCommand) error {
	if cmd.RequestingUserID != cmd.UserID {
		return errs.New(errs.ErrForbidden, "You can only delete your own account")
	}
	return store.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		user, err := s.repo.WithTx(tx).SoftDelete(ctx, cmd.UserID)
		if err != nil {
			return err
		}
		return s.publish(ctx, events.OpDelete, user)
	})
}

func (s *UserCommandService) publish(ctx context.Context, op events.Operation, u *models.User) error {
	_, err := s.publisher.Publish(ctx, events.UsersTopic, events.MutationEvent{
		EntityKind: events.KindUser,
		Operation:  op,
		EntityID:   u.ID,
		Payload: events.UserPayload{
			ID:          u.ID,
			Username:    u.Username,
			Email:       u.Email,
			PhoneNumber: u.PhoneNumber,
			Address:     u.Address,
			CreatedAt:   u.CreatedAt,
			UpdatedAt:   u.UpdatedAt,
		},
	})
	return err
}
