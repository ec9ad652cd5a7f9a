package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eaglemart/platform/shared/cqrs"
	"github.com/eaglemart/platform/shared/middleware"
	"github.com/eaglemart/platform/shared/models"
)

type NotificationCommander interface {
	SendEmail(context.Context, cqrs.SendEmailCommand) (*models.EmailNotification, error)
	DeleteEmail(context.Context, cqrs.DeleteNotificationCommand) error
	SendSMS(context.Context, cqrs.SendSMSCommand) (*models.SMSNotification, error)
	DeleteSMS(context.Context, cqrs.DeleteNotificationCommand) error
}

type NotificationQuerier interface {
	GetEmail(context.Context, cqrs.GetNotificationQuery) (*models.EmailNotification, error)
	ListEmails(context.Context) ([]*models.EmailNotification, error)
	GetSMS(context.Context, cqrs.GetNotificationQuery) (*models.SMSNotification, error)
	ListSMS(context.Context) ([]*models.SMSNotification, error)
}

type NotificationHandler struct {
	commands NotificationCommander
	queries  NotificationQuerier
}

type EmailRequest struct {
	RecipientEmail string `json:"recipient_email" validate:"required,email"`
	Subject        string `json:"subject" validate:"required,max=255"`
	Message        string `json:"message" validate:"required"`
}

type SMSRequest struct {
	PhoneNumber string `json:"phone_number" validate:"required,max=32"`
	Message     string `json:"message" validate:"required,max=1600"`
}

func NewNotificationHandler(commands NotificationCommander, queries NotificationQuerier) *NotificationHandler {
	return &NotificationHandler{commands: commands, queries: queries}
}

// RegisterRoutes mounts email notifications on /notifications and SMS on
// /sms. Sent notifications cannot be edited, so there is no PUT.
func (h *NotificationHandler) RegisterRoutes(r gin.IRouter) {
	email := r.Group("/notifications")
	email.POST("/", h.SendEmail)
	email.GET("/", h.ListEmails)
	email.GET("/:notificationId", h.GetEmail)
	email.DELETE("/:notificationId", h.DeleteEmail)

	sms := r.Group("/sms")
	sms.POST("/", h.SendSMS)
	sms.GET("/", h.ListSMS)
	sms.GET("/:notificationId", h.GetSMS)
	sms.DELETE("/:notificationId", h.DeleteSMS)
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

func (h *NotificationHandler) SendEmail(c *gin.Context) {
	var req EmailRequest
	if !bind(c, &req) {
		return
	}
	n, err := h.commands.SendEmail(c.Request.Context(), cqrs.SendEmailCommand{
		RecipientEmail: req.RecipientEmail,
		Subject:        req.Subject,
		Message:        req.Message,
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, n)
}

func (h *NotificationHandler) ListEmails(c *gin.Context) {
	list, err := h.queries.ListEmails(c.Request.Context())
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *NotificationHandler) GetEmail(c *gin.Context) {
	n, err := h.queries.GetEmail(c.Request.Context(), cqrs.GetNotificationQuery{NotificationID: c.Param("notificationId")})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, n)
}

func (h *NotificationHandler) DeleteEmail(c *gin.Context) {
	if err := h.commands.DeleteEmail(c.Request.Context(), cqrs.DeleteNotificationCommand{NotificationID: c.Param("notificationId")}); err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Notification deleted successfully"})
}

func (h *NotificationHandler) SendSMS(c *gin.Context) {
	var req SMSRequest
	if !bind(c, &req) {
		return
	}
	n, err := h.commands.SendSMS(c.Request.Context(), cqrs.SendSMSCommand{
		PhoneNumber: req.PhoneNumber,
		Message:     req.Message,
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, n)
}

func (h *NotificationHandler) ListSMS(c *gin.Context) {
	list, err := h.queries.ListSMS(c.Request.Context())
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *NotificationHandler) GetSMS(c *gin.Context) {
	n, err := h.queries.GetSMS(c.Request.Context(), cqrs.GetNotificationQuery{NotificationID: c.Param("notificationId")})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, n)
}

func (h *NotificationHandler) DeleteSMS(c *gin.Context) {
	if err := h.commands.DeleteSMS(c.Request.Context(), cqrs.DeleteNotificationCommand{NotificationID: c.Param("notificationId")}); err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "SMS notification deleted successfully"})
}
