package handlers

import (
	"net/http"

	"riskdash/internal/engine"

	"github.com/gin-gonic/gin"
)

type toggleRequest struct {
	URI            string `json:"uri" binding:"required"`
	Proposed       *bool  `json:"proposed" binding:"required"`
	WorkInProgress bool   `json:"workInProgress"`
}

type uriRequest struct {
	URI string `json:"uri" binding:"required"`
}

type csgRequest struct {
	CSG string `json:"csg" binding:"required"`
}

// ====== ASSETS & CONTROL SETS ======

func ListAssets(c *gin.Context) {
	render(c, http.StatusOK, gin.H{"assets": coord(c).Assets()})
}

func ListControlSets(c *gin.Context) {
	co := coord(c)
	render(c, http.StatusOK, gin.H{
		"controlSets": co.ControlSets(),
		"stats":       co.Stats(),
	})
}

// controlSetResponse is the answer to every single-control-set edit: the
// optimistic state plus the recomputed threats.
func controlSetResponse(c *gin.Context, uri string, rm *engine.ReadModel) {
	st, _ := coord(c).ControlSet(uri)
	render(c, http.StatusAccepted, gin.H{
		"generation": rm.Generation,
		"controlSet": st,
		"threats":    rm.Ordered(),
	})
}

func ToggleControlSet(c *gin.Context) {
	var req toggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		render(c, http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.WorkInProgress && !*req.Proposed {
		render(c, http.StatusBadRequest, gin.H{"error": "workInProgress requires proposed"})
		return
	}

	rm, err := coord(c).Toggle(c.Request.Context(), req.URI, *req.Proposed, req.WorkInProgress)
	if err != nil {
		respondError(c, err)
		return
	}
	controlSetResponse(c, req.URI, rm)
}

func RetryControlSet(c *gin.Context) {
	var req uriRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		render(c, http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rm, err := coord(c).Retry(c.Request.Context(), req.URI)
	if err != nil {
		respondError(c, err)
		return
	}
	controlSetResponse(c, req.URI, rm)
}

func AbandonControlSet(c *gin.Context) {
	var req uriRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		render(c, http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rm, err := coord(c).Abandon(req.URI)
	if err != nil {
		respondError(c, err)
		return
	}
	st, _ := coord(c).ControlSet(req.URI)
	render(c, http.StatusOK, gin.H{
		"generation": rm.Generation,
		"controlSet": st,
		"threats":    rm.Ordered(),
	})
}

// ====== BATCH ======

func batchResponse(c *gin.Context, rm *engine.ReadModel, sent []string) {
	if sent == nil {
		sent = []string{}
	}
	render(c, http.StatusAccepted, gin.H{
		"generation": rm.Generation,
		"dispatched": sent,
		"threats":    rm.Ordered(),
	})
}

func AssertAllCSG(c *gin.Context) {
	var req csgRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		render(c, http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rm, sent, err := coord(c).AssertAll(c.Request.Context(), req.CSG)
	if err != nil {
		respondError(c, err)
		return
	}
	batchResponse(c, rm, sent)
}

func RemoveAllCSG(c *gin.Context) {
	var req csgRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		render(c, http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rm, sent, err := coord(c).RemoveAll(c.Request.Context(), req.CSG)
	if err != nil {
		respondError(c, err)
		return
	}
	batchResponse(c, rm, sent)
}

func RemoveAllControls(c *gin.Context) {
	rm, sent, err := coord(c).RemoveAllControls(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	batchResponse(c, rm, sent)
}
