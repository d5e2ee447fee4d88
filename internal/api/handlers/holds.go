package handlers

import (
	"errors"
	"net/http"

	"github.com/flashsale/checkout/internal/apperr"
	"github.com/flashsale/checkout/internal/db"
	"github.com/flashsale/checkout/internal/holds"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

type HoldsHandler struct {
	manager *holds.Manager
	queries *db.Queries
	logger  zerolog.Logger
}

func NewHoldsHandler(pool *pgxpool.Pool, manager *holds.Manager, logger zerolog.Logger) *HoldsHandler {
	return &HoldsHandler{manager: manager, queries: db.New(pool), logger: logger}
}

type createHoldRequest struct {
	ProductID int64 `json:"product_id" binding:"required,min=1"`
	Quantity  int   `json:"quantity" binding:"required,min=1"`
}

type createHoldResponse struct {
	HoldID    int64  `json:"hold_id"`
	ExpiresAt string `json:"expires_at"`
}

// CreateHold implements POST /holds. Non-positive quantity and a
// nonexistent product_id are rejected at the edge with 422, before the
// manager's transaction ever opens.
func (h *HoldsHandler) CreateHold(c *gin.Context) {
	var req createHoldRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	if _, err := h.queries.GetProduct(ctx, req.ProductID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": apperr.ErrProductNotFound.Error()})
			return
		}
		respondError(c, h.logger, "create hold", apperr.ErrInternal.WithCause(err))
		return
	}

	hold, err := h.manager.CreateHold(ctx, req.ProductID, req.Quantity)
	if err != nil {
		respondError(c, h.logger, "create hold", err)
		return
	}

	respondData(c, http.StatusCreated, createHoldResponse{
		HoldID:    hold.ID,
		ExpiresAt: hold.ExpiresAt.Format(rfc3339Milli),
	})
}

const rfc3339Milli = "2006-01-02T15:04:05.000Z07:00"
