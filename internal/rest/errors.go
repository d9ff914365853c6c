package rest

import (
	"errors"
	"net/http"

	"github.com/dfryer1193/mailmanifest/api"
	catalog "github.com/dfryer1193/mailmanifest/catalog/domain"
	contactapp "github.com/dfryer1193/mailmanifest/contact/application"
	"github.com/dfryer1193/mailmanifest/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// writeError maps the error taxonomy to a status. Server side failures are logged
// with their cause and answered with the generic message only.
func writeError(c *gin.Context, err error, generic string) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, catalog.ErrInvalidInput), errors.Is(err, contactapp.ErrInvalidSubmission):
		status = http.StatusBadRequest
	case errors.Is(err, catalog.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, middleware.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, middleware.ErrForbidden):
		status = http.StatusForbidden
	}

	_ = c.Error(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg(generic)
		c.AbortWithStatusJSON(status, api.ErrorResponse{Error: generic})
		return
	}
	c.AbortWithStatusJSON(status, api.ErrorResponse{Error: err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, api.ErrorResponse{Error: msg})
}
