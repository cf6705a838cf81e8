package handlers

import (
	"net/http"
	"slices"

	"riskdash/internal/middleware"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// IndexPage tells the UI which model this browser looked at last.
func IndexPage(c *gin.Context) {
	sess := sessions.Default(c)
	last, _ := sess.Get(middleware.SessionModelKey).(string)
	loaded := registry(c).IDs()

	render(c, http.StatusOK, gin.H{
		"modelId": last,
		"loaded":  last != "" && slices.Contains(loaded, last),
		"models":  loaded,
	})
}
