package api

import (
	"net/http"

	"groupbuy-service/internal/middleware"
	"groupbuy-service/internal/service"

	"github.com/gin-gonic/gin"
)

// listOrders lists orders visible to the caller
func (h *Handler) listOrders(c *gin.Context) {
	orders, err := h.orders.ListOrders(c.Request.Context(), service.ListOrdersFilter{
		Role:        middleware.UserRole(c),
		RequesterID: middleware.UserID(c),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// getOrder returns a single order visible to the caller
func (h *Handler) getOrder(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	order, err := h.orders.GetOrder(c.Request.Context(), id, middleware.UserID(c), middleware.UserRole(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

type advanceOrderRequest struct {
	Status string `json:"status" binding:"required"`
}

// advanceOrderStatus moves an order one step along the fulfilment chain;
// only the supplier owning the parent deal gets here past the role gate,
// and the service still checks ownership of the specific deal.
func (h *Handler) advanceOrderStatus(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req advanceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	order, err := h.orders.AdvanceOrderStatus(c.Request.Context(), id, middleware.UserID(c), req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}
