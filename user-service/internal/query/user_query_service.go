package query

import (
	"context"

	"github.com/eaglemart/platform/shared/cqrs"
	"github.com/eaglemart/platform/shared/errs"
	"github.com/eaglemart/platform/shared/models"
	"github.com/eaglemart/platform/user-service/internal/repository"
)

type UserQueryService struct {
	repo *repository.UserRepository
}

func NewUserQueryService(repo *repository.UserRepository) *UserQueryService {
	return &UserQueryService{repo: repo}
}

// GetUser returns the caller's own profile. Asking for anyone else is
// forbidden whether or not that user exists.
func (s *UserQueryService) GetUser(ctx context.Context, q cqrs.GetUserQuery) (*models.User, error) {
	if q.UserID != q.RequestingUserID {
		return nil, errs.New(errs.ErrForbidden, "You can only access your own user details")
	}
	return s.repo.GetByID(ctx, q.UserID)
}
