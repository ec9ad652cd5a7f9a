package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eaglemart/platform/shared/cqrs"
	"github.com/eaglemart/platform/shared/middleware"
	"github.com/eaglemart/platform/shared/models"
)

// UserCommander defines the write-side operations used by UserHandler.
type UserCommander interface {
	RegisterUser(context.Context, cqrs.RegisterUserCommand) (*models.User, error)
	UpdateUser(context.Context, cqrs.UpdateUserCommand) (*models.User, error)
	DeleteUser(context.Context, cqrs.DeleteUserCommand) error
}

// UserQuerier defines the read-side operations used by UserHandler.
type UserQuerier interface {
	GetUser(context.Context, cqrs.GetUserQuery) (*models.User, error)
}

// Authenticator exchanges credentials for a token.
type Authenticator interface {
	Login(context.Context, cqrs.LoginCommand) (*models.TokenResponse, error)
}

// UserHandler routes requests to the command or query service as appropriate.
type UserHandler struct {
	commands UserCommander
	queries  UserQuerier
	auth     Authenticator
}

type RegisterUserRequest struct {
	Username    string `json:"username" validate:"required,min=3,max=50"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
	PhoneNumber string `json:"phone_number" validate:"max=32"`
	Address     string `json:"address" validate:"max=255"`
}

type UpdateUserRequest struct {
	Username    string `json:"username" validate:"required,min=3,max=50"`
	Email       string `json:"email" validate:"required,email"`
	PhoneNumber string `json:"phone_number" validate:"max=32"`
	Address     string `json:"address" validate:"max=255"`
}

// LoginRequest binds both the OAuth2 password form and a JSON body.
type LoginRequest struct {
	Username string `json:"username" form:"username" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

func NewUserHandler(commands UserCommander, queries UserQuerier, auth Authenticator) *UserHandler {
	return &UserHandler{commands: commands, queries: queries, auth: auth}
}

// RegisterRoutes mounts the public registration and login endpoints and the
// profile endpoints behind requireAuth.
func (h *UserHandler) RegisterRoutes(r gin.IRouter, requireAuth gin.HandlerFunc) {
	r.POST("/token", h.Login)

	users := r.Group("/users")
	users.POST("/", h.RegisterUser)
	users.POST("/register", h.RegisterUser)

	protected := users.Group("", requireAuth)
	protected.GET("/me", h.GetMe)
	protected.GET("/:userId", h.GetUser)
	protected.PUT("/:userId", h.UpdateUser)
	protected.DELETE("/:userId", h.DeleteUser)
}

func (h *UserHandler) RegisterUser(c *gin.Context) {
	var req RegisterUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithBindError(c)
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	user, err := h.commands.RegisterUser(c.Request.Context(), cqrs.RegisterUserCommand{
		Username:    req.Username,
		Email:       req.Email,
		Password:    req.Password,
		PhoneNumber: req.PhoneNumber,
		Address:     req.Address,
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

func (h *UserHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		middleware.RespondWithBindError(c)
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	token, err := h.auth.Login(c.Request.Context(), cqrs.LoginCommand{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, token)
}

func (h *UserHandler) GetMe(c *gin.Context) {
	requestingUserID, _ := middleware.GetUserID(c)
	h.getUser(c, requestingUserID, requestingUserID)
}

func (h *UserHandler) GetUser(c *gin.Context) {
	requestingUserID, _ := middleware.GetUserID(c)
	h.getUser(c, c.Param("userId"), requestingUserID)
}

func (h *UserHandler) getUser(c *gin.Context, userID, requestingUserID string) {
	user, err := h.queries.GetUser(c.Request.Context(), cqrs.GetUserQuery{
		UserID:           userID,
		RequestingUserID: requestingUserID,
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) UpdateUser(c *gin.Context) {
	requestingUserID, _ := middleware.GetUserID(c)

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithBindError(c)
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	user, err := h.commands.UpdateUser(c.Request.Context(), cqrs.UpdateUserCommand{
		UserID:           c.Param("userId"),
		RequestingUserID: requestingUserID,
		Username:         req.Username,
		Email:            req.Email,
		PhoneNumber:      req.PhoneNumber,
		Address:          req.Address,
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) DeleteUser(c *gin.Context) {
	requestingUserID, _ := middleware.GetUserID(c)

	err := h.commands.DeleteUser(c.Request.Context(), cqrs.DeleteUserCommand{
		UserID:           c.Param("userId"),
		RequestingUserID: requestingUserID,
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}
