package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"riskdash/internal/engine"

	"github.com/gin-gonic/gin"
)

// ====== THREATS ======

// ListThreats returns threat views in model order, optionally filtered by
// ?status= and ?triggered=.
func ListThreats(c *gin.Context) {
	rm := coord(c).ReadModel()

	var status engine.Status
	if s := c.Query("status"); s != "" {
		status = engine.Status(strings.ToUpper(s))
		switch status {
		case engine.StatusUnmanaged, engine.StatusMitigated, engine.StatusBlocked, engine.StatusAccepted:
		default:
			render(c, http.StatusBadRequest, gin.H{"error": "unknown status " + s})
			return
		}
	}

	var triggered *bool
	if s := c.Query("triggered"); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			render(c, http.StatusBadRequest, gin.H{"error": "triggered must be a boolean"})
			return
		}
		triggered = &b
	}

	out := make([]engine.ThreatStatusView, 0, len(rm.ThreatOrder))
	for _, v := range rm.Ordered() {
		if status != "" && v.Status != status {
			continue
		}
		if triggered != nil && v.Triggered != *triggered {
			continue
		}
		out = append(out, v)
	}

	render(c, http.StatusOK, gin.H{
		"generation": rm.Generation,
		"threats":    out,
	})
}

// ShowThreat takes the threat URI as ?uri= since URIs contain '#'.
func ShowThreat(c *gin.Context) {
	uri := c.Query("uri")
	if uri == "" {
		render(c, http.StatusBadRequest, gin.H{"error": "uri is required"})
		return
	}

	rm := coord(c).ReadModel()
	v, ok := rm.Threats[uri]
	if !ok {
		render(c, http.StatusNotFound, gin.H{"error": "threat not in model"})
		return
	}
	render(c, http.StatusOK, gin.H{
		"generation": rm.Generation,
		"threat":     v,
	})
}

// ====== CONTROL STRATEGIES ======

func ListCSGs(c *gin.Context) {
	rm := coord(c).ReadModel()
	render(c, http.StatusOK, gin.H{
		"generation": rm.Generation,
		"strategies": rm.Strategies,
	})
}
