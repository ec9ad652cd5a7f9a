package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eaglemart/platform/shared/cqrs"
	"github.com/eaglemart/platform/shared/middleware"
	"github.com/eaglemart/platform/shared/models"
)

type OrderCommander interface {
	CreateOrder(context.Context, cqrs.CreateOrderCommand) (*models.Order, error)
	UpdateOrder(context.Context, cqrs.UpdateOrderCommand) (*models.Order, error)
	DeleteOrder(context.Context, cqrs.DeleteOrderCommand) error
}

type OrderQuerier interface {
	GetOrder(context.Context, cqrs.GetOrderQuery) (*models.Order, error)
	ListOrders(context.Context, cqrs.ListOrdersQuery) ([]*models.Order, error)
}

type OrderHandler struct {
	commands OrderCommander
	queries  OrderQuerier
}

type CreateOrderRequest struct {
	UserID      string  `json:"user_id" validate:"required"`
	ProductID   string  `json:"product_id" validate:"required"`
	Quantity    int     `json:"quantity" validate:"gt=0"`
	TotalAmount float64 `json:"total_amount" validate:"gte=0,money"`
}

type UpdateOrderRequest struct {
	Quantity    int     `json:"quantity" validate:"gt=0"`
	TotalAmount float64 `json:"total_amount" validate:"gte=0,money"`
	Status      string  `json:"status" validate:"required,oneof=pending paid shipped cancelled"`
}

func NewOrderHandler(commands OrderCommander, queries OrderQuerier) *OrderHandler {
	return &OrderHandler{commands: commands, queries: queries}
}

func (h *OrderHandler) RegisterRoutes(r gin.IRouter) {
	orders := r.Group("/orders")
	orders.POST("/", h.CreateOrder)
	orders.GET("/", h.ListOrders)
	orders.GET("/:orderId", h.GetOrder)
	orders.PUT("/:orderId", h.UpdateOrder)
	orders.DELETE("/:orderId", h.DeleteOrder)
}

func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithBindError(c)
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	order, err := h.commands.CreateOrder(c.Request.Context(), cqrs.CreateOrderCommand{
		UserID:      req.UserID,
		ProductID:   req.ProductID,
		Quantity:    req.Quantity,
		TotalAmount: req.TotalAmount,
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

// ListOrders accepts an optional user_id query parameter.
func (h *OrderHandler) ListOrders(c *gin.Context) {
	orders, err := h.queries.ListOrders(c.Request.Context(), cqrs.ListOrdersQuery{
		UserID: c.Query("user_id"),
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	order, err := h.queries.GetOrder(c.Request.Context(), cqrs.GetOrderQuery{OrderID: c.Param("orderId")})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) UpdateOrder(c *gin.Context) {
	var req UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithBindError(c)
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	order, err := h.commands.UpdateOrder(c.Request.Context(), cqrs.UpdateOrderCommand{
		OrderID:     c.Param("orderId"),
		Quantity:    req.Quantity,
		TotalAmount: req.TotalAmount,
		Status:      req.Status,
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) DeleteOrder(c *gin.Context) {
	if err := h.commands.DeleteOrder(c.Request.Context(), cqrs.DeleteOrderCommand{OrderID: c.Param("orderId")}); err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order deleted successfully"})
}
