package handler

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/eaglemart/platform/shared/cqrs"
	"github.com/eaglemart/platform/shared/middleware"
	"github.com/eaglemart/platform/shared/models"
)

// maxWebhookBody caps provider callbacks; Stripe events are well below it.
const maxWebhookBody = 64 << 10

type PaymentCommander interface {
	CreatePayment(context.Context, cqrs.CreatePaymentCommand) (*models.Payment, error)
	UpdatePayment(context.Context, cqrs.UpdatePaymentCommand) (*models.Payment, error)
	DeletePayment(context.Context, cqrs.DeletePaymentCommand) error
	CreatePaymentIntent(context.Context, cqrs.CreatePaymentIntentCommand) (*models.PaymentIntentView, error)
	HandleProviderWebhook(context.Context, cqrs.HandleProviderWebhookCommand) error
}

type PaymentQuerier interface {
	GetPayment(context.Context, cqrs.GetPaymentQuery) (*models.Payment, error)
	ListPayments(context.Context) ([]*models.Payment, error)
}

type PaymentHandler struct {
	commands PaymentCommander
	queries  PaymentQuerier
}

type CreatePaymentRequest struct {
	Amount        float64 `json:"amount" validate:"gt=0,money"`
	Currency      string  `json:"currency" validate:"required,len=3"`
	PaymentMethod string  `json:"payment_method" validate:"required,max=50"`
}

type UpdatePaymentRequest struct {
	Amount        float64 `json:"amount" validate:"gt=0,money"`
	Currency      string  `json:"currency" validate:"required,len=3"`
	PaymentMethod string  `json:"payment_method" validate:"required,max=50"`
	Status        string  `json:"status" validate:"required,oneof=pending succeeded failed"`
}

// StripePaymentRequest starts a card payment; currency defaults to usd.
type StripePaymentRequest struct {
	Amount   float64 `json:"amount" validate:"gt=0,money"`
	Currency string  `json:"currency" validate:"omitempty,len=3"`
}

func NewPaymentHandler(commands PaymentCommander, queries PaymentQuerier) *PaymentHandler {
	return &PaymentHandler{commands: commands, queries: queries}
}

func (h *PaymentHandler) RegisterRoutes(r gin.IRouter) {
	payments := r.Group("/payments")
	payments.POST("/", h.CreatePayment)
	payments.POST("/stripe/", h.CreateStripePayment)
	payments.GET("/", h.ListPayments)
	payments.GET("/:paymentId", h.GetPayment)
	payments.PUT("/:paymentId", h.UpdatePayment)
	payments.DELETE("/:paymentId", h.DeletePayment)

	r.POST("/webhooks/stripe", h.StripeWebhook)
}

func bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		middleware.RespondWithBindError(c)
		return false
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return false
	}
	return true
}

func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	var req CreatePaymentRequest
	if !bind(c, &req) {
		return
	}
	payment, err := h.commands.CreatePayment(c.Request.Context(), cqrs.CreatePaymentCommand{
		Amount:        req.Amount,
		Currency:      strings.ToLower(req.Currency),
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, payment)
}

func (h *PaymentHandler) CreateStripePayment(c *gin.Context) {
	var req StripePaymentRequest
	if !bind(c, &req) {
		return
	}
	currency := strings.ToLower(req.Currency)
	if currency == "" {
		currency = "usd"
	}
	view, err := h.commands.CreatePaymentIntent(c.Request.Context(), cqrs.CreatePaymentIntentCommand{
		Amount:   req.Amount,
		Currency: currency,
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (h *PaymentHandler) StripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid payload")
		return
	}
	err = h.commands.HandleProviderWebhook(c.Request.Context(), cqrs.HandleProviderWebhookCommand{
		Payload:   payload,
		Signature: c.GetHeader("Stripe-Signature"),
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *PaymentHandler) ListPayments(c *gin.Context) {
	payments, err := h.queries.ListPayments(c.Request.Context())
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, payments)
}

func (h *PaymentHandler) GetPayment(c *gin.Context) {
	payment, err := h.queries.GetPayment(c.Request.Context(), cqrs.GetPaymentQuery{PaymentID: c.Param("paymentId")})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, payment)
}

func (h *PaymentHandler) UpdatePayment(c *gin.Context) {
	var req UpdatePaymentRequest
	if !bind(c, &req) {
		return
	}
	payment, err := h.commands.UpdatePayment(c.Request.Context(), cqrs.UpdatePaymentCommand{
		PaymentID:     c.Param("paymentId"),
		Amount:        req.Amount,
		Currency:      strings.ToLower(req.Currency),
		PaymentMethod: req.PaymentMethod,
		Status:        req.Status,
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, payment)
}

func (h *PaymentHandler) DeletePayment(c *gin.Context) {
	if err := h.commands.DeletePayment(c.Request.Context(), cqrs.DeletePaymentCommand{PaymentID: c.Param("paymentId")}); err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Payment deleted successfully"})
}
