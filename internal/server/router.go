package server

import (
	"net/http"

	"riskdash/internal/config"
	"riskdash/internal/handlers"
	"riskdash/internal/middleware"
	"riskdash/internal/workspace"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(cfg *config.Config, reg *workspace.Registry) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.SessionSecret))
	r.Use(sessions.Sessions("riskdash_session", store))

	r.Use(middleware.InjectWorkspace(reg))

	r.GET("/", handlers.IndexPage)

	// ====== MODELS ======
	r.GET("/models", handlers.ListModels)
	r.POST("/models/:modelId/load", handlers.LoadModel)

	m := r.Group("/models/:modelId")
	m.Use(middleware.RequireModel(), middleware.TrackModel())

	m.POST("/reload", handlers.ReloadModel)
	m.DELETE("", handlers.DropModel)

	// ====== THREATS & COMPLIANCE ======
	m.GET("/threats", handlers.ListThreats)
	m.GET("/threat", handlers.ShowThreat)
	m.GET("/csgs", handlers.ListCSGs)
	m.GET("/compliance", handlers.ComplianceSummary)
	m.GET("/compliance/explorer", handlers.ComplianceExplorer)

	// ====== CONTROLS ======
	m.GET("/assets", handlers.ListAssets)
	m.GET("/controlsets", handlers.ListControlSets)
	m.PATCH("/controlsets", handlers.ToggleControlSet)
	m.POST("/controlsets/retry", handlers.RetryControlSet)
	m.POST("/controlsets/abandon", handlers.AbandonControlSet)
	m.POST("/csgs/assert-all", handlers.AssertAllCSG)
	m.POST("/csgs/remove-all", handlers.RemoveAllCSG)
	m.POST("/controls/remove-all", handlers.RemoveAllControls)

	// ====== AUDIT ======
	r.GET("/audit", handlers.ListAuditLogs)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// HEALTHCHECK
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	return r
}
