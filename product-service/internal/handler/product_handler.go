package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eaglemart/platform/shared/cqrs"
	"github.com/eaglemart/platform/shared/middleware"
	"github.com/eaglemart/platform/shared/models"
)

// ProductCommander defines the write-side operations used by ProductHandler.
type ProductCommander interface {
	CreateProduct(context.Context, cqrs.CreateProductCommand) (*models.Product, error)
	UpdateProduct(context.Context, cqrs.UpdateProductCommand) (*models.Product, error)
	DeleteProduct(context.Context, cqrs.DeleteProductCommand) error
}

// ProductQuerier defines the read-side operations used by ProductHandler.
type ProductQuerier interface {
	GetProduct(context.Context, cqrs.GetProductQuery) (*models.Product, error)
	ListProducts(context.Context) ([]*models.Product, error)
}

// ProductHandler routes requests to the command or query service as appropriate.
type ProductHandler struct {
	commands ProductCommander
	queries  ProductQuerier
}

type ProductRequest struct {
	Name        string  `json:"name" validate:"required,max=255"`
	Description string  `json:"description" validate:"max=2000"`
	Price       float64 `json:"price" validate:"gt=0,money"`
}

func NewProductHandler(commands ProductCommander, queries ProductQuerier) *ProductHandler {
	return &ProductHandler{commands: commands, queries: queries}
}

// RegisterRoutes mounts the product endpoints on r.
func (h *ProductHandler) RegisterRoutes(r gin.IRouter) {
	products := r.Group("/products")
	products.POST("/", h.CreateProduct)
	products.GET("/", h.ListProducts)
	products.GET("/:productId", h.GetProduct)
	products.PUT("/:productId", h.UpdateProduct)
	products.DELETE("/:productId", h.DeleteProduct)
}

func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithBindError(c)
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	product, err := h.commands.CreateProduct(c.Request.Context(), cqrs.CreateProductCommand{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, product)
}

func (h *ProductHandler) ListProducts(c *gin.Context) {
	products, err := h.queries.ListProducts(c.Request.Context())
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *ProductHandler) GetProduct(c *gin.Context) {
	product, err := h.queries.GetProduct(c.Request.Context(), cqrs.GetProductQuery{
		ProductID: c.Param("productId"),
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithBindError(c)
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	product, err := h.commands.UpdateProduct(c.Request.Context(), cqrs.UpdateProductCommand{
		ProductID:   c.Param("productId"),
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	err := h.commands.DeleteProduct(c.Request.Context(), cqrs.DeleteProductCommand{
		ProductID: c.Param("productId"),
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
}
