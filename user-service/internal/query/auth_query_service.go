package query

import (
	"context"
	"errors"
	"sync"

	"github.com/eaglemart/platform/shared/auth"
	"github.com/eaglemart/platform/shared/cqrs"
	"github.com/eaglemart/platform/shared/errs"
	"github.com/eaglemart/platform/shared/models"
	"github.com/eaglemart/platform/shared/utils"
	"github.com/eaglemart/platform/user-service/internal/repository"
)

const badCredentials = "Incorrect username or password"

// dummyHash is compared against when the username is unknown so a failed
// login costs one bcrypt comparison either way.
var dummyHash = sync.OnceValue(func() string {
	h, _ := utils.HashPassword("unknown-user-placeholder")
	return h
})

// AuthQueryService exchanges credentials for an access token. It mutates no
// state, so there is no command side.
type AuthQueryService struct {
	repo   *repository.UserRepository
	tokens *auth.TokenManager
}

func NewAuthQueryService(repo *repository.UserRepository, tokens *auth.TokenManager) *AuthQueryService {
	return &AuthQueryService{repo: repo, tokens: tokens}
}

func (s *AuthQueryService) Login(ctx context.Context, cmd cqrs.LoginCommand) (*models.TokenResponse, error) {
	user, err := s.repo.GetByUsername(ctx, cmd.Username)
	if err != nil {
		if !errors.Is(err, errs.ErrNotFound) {
			return nil, err
		}
		utils.CheckPassword(cmd.Password, dummyHash())
		return nil, errs.New(errs.ErrUnauthenticated, badCredentials)
	}
	if !utils.CheckPassword(cmd.Password, user.PasswordHash) {
		return nil, errs.New(errs.ErrUnauthenticated, badCredentials)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, errs.Wrap(errs.ErrPersistence, "", err)
	}
	return &models.TokenResponse{
		AccessToken: token.Token,
		TokenType:   "bearer",
		ExpiresIn:   int64(token.ExpiresAt.Sub(token.IssuedAt).Seconds()),
	}, nil
}
