package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	defaultResultsLimit = 50
	maxResultsLimit     = 200
)

func (h *Handler) Me(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":   userID,
		"name": c.GetString("user_name"),
	})
}

// MyResults lists the caller's most recent recorded results.
func (h *Handler) MyResults(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	if h.Results == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "results are not recorded"})
		return
	}

	limit := defaultResultsLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = min(n, maxResultsLimit)
	}

	results, err := h.Results.ListByPlayer(c.Request.Context(), userID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get results"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}
