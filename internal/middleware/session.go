package middleware

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const SessionModelKey = "model_id"

// TrackModel remembers the last model each browser looked at. It runs after
// RequireModel, so only loaded models are recorded.
func TrackModel() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id := c.Param("modelId"); id != "" {
			sess := sessions.Default(c)
			if prev, _ := sess.Get(SessionModelKey).(string); prev != id {
				sess.Set(SessionModelKey, id)
				_ = sess.Save()
			}
		}
		c.Next()
	}
}
