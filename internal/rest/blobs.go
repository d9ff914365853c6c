package rest

import (
	"net/http"
	"strings"

	"github.com/dfryer1193/mailmanifest/api"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// GetBlob streams decrypted blob bytes. With a verifier configured the link must
// carry a valid, unexpired signature.
func (h *handlers) GetBlob(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")

	if h.verifier != nil {
		if err := h.verifier.Verify(key, c.Query("expires"), c.Query("signature")); err != nil {
			log.Debug().Err(err).Str("key", key).Msg("Rejected blob link")
			c.AbortWithStatusJSON(http.StatusForbidden, api.ErrorResponse{Error: err.Error()})
			return
		}
	}

	blob, err := h.blobs.Open(c.Request.Context(), key)
	if err != nil {
		writeError(c, err, "Failed to fetch image")
		return
	}

	c.Header("Cache-Control", "private, max-age=300")
	c.Data(http.StatusOK, blob.ContentType, blob.Content)
}
