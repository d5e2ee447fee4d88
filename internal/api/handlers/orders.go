package handlers

import (
	"errors"
	"net/http"

	"github.com/flashsale/checkout/internal/apperr"
	"github.com/flashsale/checkout/internal/db"
	"github.com/flashsale/checkout/internal/orders"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

type OrdersHandler struct {
	manager *orders.Manager
	queries *db.Queries
	logger  zerolog.Logger
}

func NewOrdersHandler(pool *pgxpool.Pool, manager *orders.Manager, logger zerolog.Logger) *OrdersHandler {
	return &OrdersHandler{manager: manager, queries: db.New(pool), logger: logger}
}

type createOrderRequest struct {
	HoldID int64 `json:"hold_id" binding:"required,min=1"`
}

type orderResponse struct {
	OrderID    int64  `json:"order_id"`
	ProductID  int64  `json:"product_id"`
	Quantity   int    `json:"quantity"`
	TotalPrice string `json:"total_price"`
	Status     string `json:"status"`
	CreatedAt  string `json:"created_at"`
}

// CreateOrder implements POST /orders. A nonexistent hold_id is rejected
// at the edge with 422, before the manager's transaction ever opens; a
// hold that exists but is no longer usable (expired, already used, or
// otherwise not active) surfaces as a 400 business error from the manager
// itself.
func (h *OrdersHandler) CreateOrder(c *gin.Context) {
	var req createOrderRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	if _, err := h.queries.GetHold(ctx, req.HoldID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": apperr.ErrHoldNotFound.Error()})
			return
		}
		respondError(c, h.logger, "create order", apperr.ErrInternal.WithCause(err))
		return
	}

	order, err := h.manager.CreateOrderFromHold(ctx, req.HoldID)
	if err != nil {
		respondError(c, h.logger, "create order", err)
		return
	}

	respondData(c, http.StatusCreated, orderResponse{
		OrderID:    order.ID,
		ProductID:  order.ProductID,
		Quantity:   order.Quantity,
		TotalPrice: order.TotalPrice.StringFixed(2),
		Status:     string(order.Status),
		CreatedAt:  order.CreatedAt.Format(rfc3339Milli),
	})
}
