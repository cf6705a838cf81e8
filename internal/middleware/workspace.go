package middleware

import (
	"net/http"

	"riskdash/internal/workspace"

	"github.com/gin-gonic/gin"
)

const (
	WorkspaceKey   = "Workspace"
	CoordinatorKey = "Coordinator"
)

func InjectWorkspace(reg *workspace.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(WorkspaceKey, reg)
		c.Next()
	}
}

// RequireModel resolves :modelId to its loaded coordinator.
func RequireModel() gin.HandlerFunc {
	return func(c *gin.Context) {
		reg, ok := c.MustGet(WorkspaceKey).(*workspace.Registry)
		if !ok {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "workspace not configured"})
			return
		}

		coord, err := reg.Get(c.Param("modelId"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.Set(CoordinatorKey, coord)
		c.Next()
	}
}
