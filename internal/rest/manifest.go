package rest

import (
	"net/http"

	"github.com/dfryer1193/mailmanifest/api"
	"github.com/gin-gonic/gin"
)

func (h *handlers) GetManifest(c *gin.Context) {
	m, err := h.images.Manifest(c.Request.Context())
	if err != nil {
		writeError(c, err, "Failed to fetch manifest")
		return
	}
	c.JSON(http.StatusOK, toAPIManifest(m))
}

func (h *handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, api.HealthResponse{Status: "OK"})
}
