package rest

import (
	"context"
	"net/http"
	"time"

	catalogapp "github.com/dfryer1193/mailmanifest/catalog/application"
	catalog "github.com/dfryer1193/mailmanifest/catalog/domain"
	contact "github.com/dfryer1193/mailmanifest/contact/domain"
	"github.com/dfryer1193/mailmanifest/internal/metrics"
	"github.com/dfryer1193/mailmanifest/internal/middleware"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const DefaultMaxUploadBytes = 10 << 20

// ImageCatalog is the catalog service as seen by the handlers.
type ImageCatalog interface {
	Create(ctx context.Context, up catalogapp.Upload) (*catalog.ImageView, error)
	Get(ctx context.Context, id string) (*catalog.ImageView, error)
	List(ctx context.Context) ([]catalog.ImageView, error)
	Update(ctx context.Context, id string, description *string, tags []string) (*catalog.ImageView, error)
	Delete(ctx context.Context, id string) error
	Manifest(ctx context.Context) (catalogapp.Manifest, error)
}

type ContactSubmitter interface {
	Submit(ctx context.Context, sub contact.Submission) (string, error)
}

type BlobReader interface {
	Open(ctx context.Context, key string) (*catalog.Blob, error)
}

// URLVerifier checks signed blob links.
type URLVerifier interface {
	Verify(key, expires, signature string) error
}

type Dependencies struct {
	Images  ImageCatalog
	Contact ContactSubmitter
	Blobs   BlobReader
	// Verifier is nil when blob links are public
	Verifier URLVerifier
	Guard    middleware.Guard
	// Metrics and ContactLimiter are optional
	Metrics        *metrics.Metrics
	ContactLimiter *middleware.RateLimiter
	CORSOrigins    []string
	MaxUploadBytes int64
}

type handlers struct {
	images         ImageCatalog
	contact        ContactSubmitter
	blobs          BlobReader
	verifier       URLVerifier
	metrics        *metrics.Metrics
	maxUploadBytes int64
}

// NewRouter builds the engine with recovery, request logging and CORS, then mounts the API.
func NewRouter(deps Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.CustomRecovery(middleware.HandlePanics()))
	router.Use(middleware.RequestLogger(deps.Metrics))
	if len(deps.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     deps.CORSOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", guardHeader(deps.Guard)},
			AllowCredentials: true,
			MaxAge:           time.Hour,
		}))
	}

	NewApi(router, deps)
	return router
}

func NewApi(router *gin.Engine, deps Dependencies) {
	h := &handlers{
		images:         deps.Images,
		contact:        deps.Contact,
		blobs:          deps.Blobs,
		verifier:       deps.Verifier,
		metrics:        deps.Metrics,
		maxUploadBytes: deps.MaxUploadBytes,
	}
	if h.maxUploadBytes <= 0 {
		h.maxUploadBytes = DefaultMaxUploadBytes
	}
	guarded := middleware.RequireGuard(deps.Guard, deps.Metrics)

	router.GET("/health", h.Health)

	contactRoute := []gin.HandlerFunc{h.PostContact}
	if deps.ContactLimiter != nil {
		contactRoute = append([]gin.HandlerFunc{deps.ContactLimiter.Middleware()}, contactRoute...)
	}
	router.POST("/contact", contactRoute...)

	router.GET("/images", h.ListImages)
	router.GET("/image/:id", h.GetImage)
	router.POST("/image", guarded, h.CreateImage)
	router.PUT("/image/:id", guarded, h.UpdateImage)
	router.DELETE("/image/:id", guarded, h.DeleteImage)

	router.GET("/manifest", h.GetManifest)
	router.PUT("/manifest/:id", guarded, h.UpdateImage)
	router.DELETE("/manifest/:id", guarded, h.DeleteImage)

	router.GET("/blobs/*key", h.GetBlob)

	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}
}

func guardHeader(g middleware.Guard) string {
	if hk, ok := g.(*middleware.HeaderKeyGuard); ok {
		return hk.Header()
	}
	return middleware.DefaultGuardHeader
}
