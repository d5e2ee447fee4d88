package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/flashsale/checkout/internal/apperr"
	"github.com/flashsale/checkout/internal/cache"
	"github.com/flashsale/checkout/internal/db"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

type ProductsHandler struct {
	queries *db.Queries
	cache   *cache.ProductCache
	logger  zerolog.Logger
}

func NewProductsHandler(pool *pgxpool.Pool, productCache *cache.ProductCache, logger zerolog.Logger) *ProductsHandler {
	return &ProductsHandler{queries: db.New(pool), cache: productCache, logger: logger}
}

type productResponse struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	Price          string `json:"price"`
	AvailableStock int    `json:"available_stock"`
	InStock        bool   `json:"in_stock"`
}

// GetProduct implements GET /products/{id}. Stale reads from the cache are
// tolerated; the write paths never consult it.
func (h *ProductsHandler) GetProduct(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid product id"})
		return
	}

	product, err := h.lookupProduct(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, apperr.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": apperr.ErrProductNotFound.Error()})
			return
		}
		respondError(c, h.logger, "get product", apperr.ErrInternal.WithCause(err))
		return
	}

	respondData(c, http.StatusOK, productResponse{
		ID:             product.ID,
		Name:           product.Name,
		Description:    product.Description,
		Price:          product.Price.StringFixed(2),
		AvailableStock: product.Stock,
		InStock:        product.Stock > 0,
	})
}

func (h *ProductsHandler) lookupProduct(ctx context.Context, id int64) (db.Product, error) {
	if cached, ok := h.cache.Get(ctx, id); ok {
		return cached, nil
	}

	product, err := h.queries.GetProduct(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return db.Product{}, apperr.ErrProductNotFound
	}
	if err != nil {
		return db.Product{}, err
	}

	_ = h.cache.Set(ctx, product)
	return product, nil
}
