package handlers

import (
	"net/http"
	"strconv"

	"riskdash/internal/database"

	"github.com/gin-gonic/gin"
)

const (
	defaultAuditLimit = 200
	maxAuditLimit     = 1000
)

// ListAuditLogs returns the latest dispatch records, newest first.
// ?model= narrows to one model.
func ListAuditLogs(c *gin.Context) {
	limit := defaultAuditLimit
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			render(c, http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, maxAuditLimit)
	}

	logs, err := database.ListAuditLogs(c.Query("model"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	render(c, http.StatusOK, gin.H{
		"enabled": database.DB != nil,
		"logs":    logs,
	})
}
