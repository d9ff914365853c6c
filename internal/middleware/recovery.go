package middleware

import (
	"net/http"

	"github.com/dfryer1193/mailmanifest/api"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// HandlePanics logs the recovered value and answers with a generic 500.
func HandlePanics() gin.RecoveryFunc {
	return func(c *gin.Context, recovered any) {
		event := log.Error().Str("method", c.Request.Method).Str("path", c.Request.URL.Path)
		if err, ok := recovered.(error); ok {
			event = event.Err(err)
		} else {
			event = event.Interface("panic", recovered)
		}
		event.Msg("Recovered from panic")

		c.AbortWithStatusJSON(http.StatusInternalServerError, api.ErrorResponse{Error: "internal server error"})
	}
}
