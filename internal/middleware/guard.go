package middleware

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/dfryer1193/mailmanifest/api"
	"github.com/dfryer1193/mailmanifest/internal/metrics"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const DefaultGuardHeader = "X-API-KEY"

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

// Guard decides whether a request may mutate the catalog.
type Guard interface {
	Verify(header http.Header) error
}

// HeaderKeyGuard compares one request header against a shared secret.
type HeaderKeyGuard struct {
	header string
	secret []byte
}

func NewHeaderKeyGuard(header, secret string) (*HeaderKeyGuard, error) {
	if secret == "" {
		return nil, errors.New("guard secret cannot be empty")
	}
	if header == "" {
		header = DefaultGuardHeader
	}
	return &HeaderKeyGuard{
		header: http.CanonicalHeaderKey(header),
		secret: []byte(secret),
	}, nil
}

func (g *HeaderKeyGuard) Header() string {
	return g.header
}

func (g *HeaderKeyGuard) Verify(header http.Header) error {
	presented := strings.TrimSpace(header.Get(g.header))
	if presented == "" {
		return ErrUnauthorized
	}
	if subtle.ConstantTimeCompare([]byte(presented), g.secret) != 1 {
		return ErrForbidden
	}
	return nil
}

// RequireGuard aborts the request before any handler runs when the guard rejects it.
// m may be nil.
func RequireGuard(g Guard, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := g.Verify(c.Request.Header)
		if err == nil {
			c.Next()
			return
		}

		status := http.StatusForbidden
		reason := "forbidden"
		if errors.Is(err, ErrUnauthorized) {
			status = http.StatusUnauthorized
			reason = "missing_credential"
			if hk, ok := g.(*HeaderKeyGuard); ok {
				c.Header("WWW-Authenticate", `ApiKey header="`+hk.Header()+`"`)
			}
		}
		if m != nil {
			m.RecordGuardRejection(reason)
		}

		log.Warn().
			Str("path", c.Request.URL.Path).
			Str("client_ip", c.ClientIP()).
			Str("reason", reason).
			Msg("Rejected guarded request")
		c.AbortWithStatusJSON(status, api.ErrorResponse{Error: err.Error()})
	}
}
