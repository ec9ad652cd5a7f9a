package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eaglemart/platform/shared/cqrs"
	"github.com/eaglemart/platform/shared/middleware"
	"github.com/eaglemart/platform/shared/models"
)

type InventoryCommander interface {
	CreateItem(context.Context, cqrs.CreateInventoryItemCommand) (*models.InventoryItem, error)
	UpdateItem(context.Context, cqrs.UpdateInventoryItemCommand) (*models.InventoryItem, error)
	DeleteItem(context.Context, cqrs.DeleteInventoryItemCommand) error
}

type InventoryQuerier interface {
	GetItem(context.Context, cqrs.GetInventoryItemQuery) (*models.InventoryItem, error)
	ListItems(context.Context, cqrs.ListInventoryQuery) ([]*models.InventoryItem, error)
}

type InventoryHandler struct {
	commands InventoryCommander
	queries  InventoryQuerier
}

// InventoryItemRequest uses a pointer so that an explicit zero stock level
// is accepted while a missing one is not.
type InventoryItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  *int   `json:"quantity" validate:"required,gte=0"`
	Location  string `json:"location" validate:"max=255"`
}

func NewInventoryHandler(commands InventoryCommander, queries InventoryQuerier) *InventoryHandler {
	return &InventoryHandler{commands: commands, queries: queries}
}

func (h *InventoryHandler) RegisterRoutes(r gin.IRouter) {
	inventory := r.Group("/inventory")
	inventory.POST("/", h.CreateItem)
	inventory.GET("/", h.ListItems)
	inventory.GET("/:itemId", h.GetItem)
	inventory.PUT("/:itemId", h.UpdateItem)
	inventory.DELETE("/:itemId", h.DeleteItem)
}

func bindItem(c *gin.Context) (*InventoryItemRequest, bool) {
	var req InventoryItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithBindError(c)
		return nil, false
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return nil, false
	}
	return &req, true
}

func (h *InventoryHandler) CreateItem(c *gin.Context) {
	req, ok := bindItem(c)
	if !ok {
		return
	}
	item, err := h.commands.CreateItem(c.Request.Context(), cqrs.CreateInventoryItemCommand{
		ProductID: req.ProductID,
		Quantity:  *req.Quantity,
		Location:  req.Location,
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// ListItems accepts an optional product_id query parameter.
func (h *InventoryHandler) ListItems(c *gin.Context) {
	items, err := h.queries.ListItems(c.Request.Context(), cqrs.ListInventoryQuery{ProductID: c.Query("product_id")})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *InventoryHandler) GetItem(c *gin.Context) {
	item, err := h.queries.GetItem(c.Request.Context(), cqrs.GetInventoryItemQuery{ItemID: c.Param("itemId")})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *InventoryHandler) UpdateItem(c *gin.Context) {
	req, ok := bindItem(c)
	if !ok {
		return
	}
	item, err := h.commands.UpdateItem(c.Request.Context(), cqrs.UpdateInventoryItemCommand{
		ItemID:    c.Param("itemId"),
		ProductID: req.ProductID,
		Quantity:  *req.Quantity,
		Location:  req.Location,
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *InventoryHandler) DeleteItem(c *gin.Context) {
	if err := h.commands.DeleteItem(c.Request.Context(), cqrs.DeleteInventoryItemCommand{ItemID: c.Param("itemId")}); err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Inventory item deleted successfully"})
}
