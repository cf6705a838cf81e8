package handlers

import (
	"net/http"

	"riskdash/internal/coordinator"
	"riskdash/internal/engine"

	"github.com/gin-gonic/gin"
)

func modelSummary(co *coordinator.Coordinator, rm *engine.ReadModel) gin.H {
	return gin.H{
		"modelId":    co.ModelID(),
		"generation": rm.Generation,
		"threats":    len(rm.ThreatOrder),
		"strategies": len(rm.Strategies),
		"stats":      co.Stats(),
	}
}

// ListModels returns the IDs of every loaded model.
func ListModels(c *gin.Context) {
	render(c, http.StatusOK, gin.H{"models": registry(c).IDs()})
}

// LoadModel fetches a model from the risk server, or refreshes it if it is
// already loaded.
func LoadModel(c *gin.Context) {
	co, err := registry(c).Load(c.Request.Context(), c.Param("modelId"))
	if err != nil {
		respondError(c, err)
		return
	}
	render(c, http.StatusOK, modelSummary(co, co.ReadModel()))
}

// ReloadModel is the explicit user refresh; it clears every error indicator.
func ReloadModel(c *gin.Context) {
	co := coord(c)
	rm, err := co.Reload(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	render(c, http.StatusOK, modelSummary(co, rm))
}

func DropModel(c *gin.Context) {
	if err := registry(c).Drop(c.Param("modelId")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
