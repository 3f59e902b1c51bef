package api

import (
	"net/http"

	"groupbuy-service/internal/models"

	"github.com/gin-gonic/gin"
)

// listUsers lists users, optionally filtered by role
func (h *Handler) listUsers(c *gin.Context) {
	users, err := h.admin.ListUsers(c.Request.Context(), models.Role(c.Query("role")))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

type verifyRequest struct {
	Verified *bool `json:"verified" binding:"required"`
}

// verifyUser flips a user's verification flag
func (h *Handler) verifyUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if err := h.admin.VerifyUser(c.Request.Context(), id, *req.Verified); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "verified": *req.Verified})
}

// verifyProduct flips a product's verification flag
func (h *Handler) verifyProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if err := h.catalog.VerifyProduct(c.Request.Context(), id, *req.Verified); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "verified": *req.Verified})
}

// dashboardMetrics serves entity counts for the admin dashboard
func (h *Handler) dashboardMetrics(c *gin.Context) {
	metrics, err := h.admin.GetDashboardMetrics(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, metrics)
}
