package api

import (
	"net/http"
	"strconv"

	"groupbuy-service/internal/middleware"
	"groupbuy-service/internal/service"

	"github.com/gin-gonic/gin"
)

// startDeal starts a deal for the calling supplier
func (h *Handler) startDeal(c *gin.Context) {
	var req service.StartDealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	deal, err := h.deals.StartDeal(c.Request.Context(), middleware.UserID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, deal)
}

// listDeals lists deals visible to the caller
func (h *Handler) listDeals(c *gin.Context) {
	filter := service.ListDealsFilter{
		Status:      c.Query("status"),
		Role:        middleware.UserRole(c),
		RequesterID: middleware.UserID(c),
	}
	if v := c.Query("supplier_id"); v != "" {
		filter.SupplierID, _ = strconv.ParseInt(v, 10, 64)
	}

	deals, err := h.deals.ListDeals(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deals": deals})
}

// getDeal returns a single deal visible to the caller
func (h *Handler) getDeal(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	deal, err := h.deals.GetDeal(c.Request.Context(), id, middleware.UserID(c), middleware.UserRole(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, deal)
}

// getDealProgress serves the deal's progress counters
func (h *Handler) getDealProgress(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	progress, err := h.orders.GetProgress(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, progress)
}

// approveDeal opens a deal to vendor joins; admin-only
func (h *Handler) approveDeal(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	deal, err := h.deals.ApproveDeal(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, deal)
}

// rejectDeal terminally rejects a deal; admin-only
func (h *Handler) rejectDeal(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	deal, err := h.deals.RejectDeal(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, deal)
}

// toggleDealPause flips a deal between active and paused
func (h *Handler) toggleDealPause(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	deal, err := h.deals.ToggleDealPause(c.Request.Context(), id, middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, deal)
}

// joinDeal commits the calling vendor's quantity to a deal
func (h *Handler) joinDeal(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req service.JoinDealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	req.DealID = id
	req.VendorID = middleware.UserID(c)
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = c.GetHeader("Idempotency-Key")
	}

	resp, err := h.orders.JoinDeal(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// listDealParticipants lists the orders committed against a deal
func (h *Handler) listDealParticipants(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	orders, err := h.orders.ListOrders(c.Request.Context(), service.ListOrdersFilter{
		Role:        middleware.UserRole(c),
		RequesterID: middleware.UserID(c),
		DealID:      id,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}
