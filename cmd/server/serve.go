package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	catalogapp "github.com/dfryer1193/mailmanifest/catalog/application"
	"github.com/dfryer1193/mailmanifest/catalog/blobstore"
	catalog "github.com/dfryer1193/mailmanifest/catalog/domain"
	"github.com/dfryer1193/mailmanifest/catalog/persistence"
	contactapp "github.com/dfryer1193/mailmanifest/contact/application"
	contact "github.com/dfryer1193/mailmanifest/contact/domain"
	"github.com/dfryer1193/mailmanifest/contact/mail"
	"github.com/dfryer1193/mailmanifest/internal/metrics"
	"github.com/dfryer1193/mailmanifest/internal/middleware"
	"github.com/dfryer1193/mailmanifest/internal/rest"
	"github.com/dfryer1193/mailmanifest/shared/badgerdb"
	"github.com/dfryer1193/mailmanifest/shared/config"
	"github.com/dfryer1193/mailmanifest/shared/db/sqlite"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		return serve(cfg)
	},
}

func init() {
	serveCmd.Flags().Int("port", 8080, "port to listen on (PORT)")
	_ = settings.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
}

func serve(cfg *config.Config) error {
	repo, closeRepo, err := openCatalog(cfg.Catalog)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeRepo(); err != nil {
			log.Error().Err(err).Msg("Failed to close catalog store")
		}
	}()

	mode, err := blobstore.ParseURLMode(cfg.Blob.URLMode)
	if err != nil {
		return err
	}
	blobs, err := blobstore.NewDiskStore(blobstore.Config{
		Root:          cfg.Blob.Dir,
		Secret:        []byte(cfg.Blob.Secret),
		URLMode:       mode,
		PublicBaseURL: cfg.Blob.PublicBaseURL,
		BaseURL:       cfg.Server.BaseURL,
		URLTTL:        cfg.Blob.URLTTL,
	})
	if err != nil {
		return fmt.Errorf("failed to open blob store: %w", err)
	}

	guard, err := middleware.NewHeaderKeyGuard(cfg.Guard.Header, cfg.Guard.APIKey)
	if err != nil {
		return err
	}

	m, err := metrics.New()
	if err != nil {
		return err
	}

	mailer, err := newMailer(cfg.Mail)
	if err != nil {
		return err
	}

	deps := rest.Dependencies{
		Images:         catalogapp.NewImageService(repo, blobs),
		Contact:        contactapp.NewContactService(mailer, contactapp.NewEmailRenderer(), cfg.Mail.To, m),
		Blobs:          blobs,
		Guard:          guard,
		Metrics:        m,
		ContactLimiter: middleware.NewRateLimiter(cfg.Contact.RateLimit, cfg.Contact.RateWindow),
		CORSOrigins:    cfg.Server.CORSAllowedOrigins,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
	}
	if mode == blobstore.URLModeSigned {
		deps.Verifier = blobs.Signer()
	}

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           rest.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.Server.Port).Str("catalog", cfg.Catalog.Driver).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	case <-quit:
	}

	log.Info().Msg("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	log.Info().Msg("Server stopped")
	return nil
}

func openCatalog(cfg config.CatalogConfig) (catalog.ImageRepository, func() error, error) {
	switch cfg.Driver {
	case config.DriverBadger:
		db, err := badgerdb.Open(cfg.BadgerDir)
		if err != nil {
			return nil, nil, err
		}
		return persistence.NewBadgerImageRepository(db), db.Close, nil
	default:
		sqlDB := sqlite.NewSQLiteDB(sqlite.NewSQLiteConfig(cfg.SQLitePath))
		if err := sqlDB.Connect(); err != nil {
			return nil, nil, fmt.Errorf("failed to open catalog database: %w", err)
		}
		return persistence.NewImageRepository(sqlDB.DB()), sqlDB.Close, nil
	}
}

func newMailer(cfg config.MailConfig) (contact.Mailer, error) {
	if cfg.URL == "" {
		log.Warn().Msg("MAIL_URL not set; contact emails will be logged, not sent")
		return mail.NewLogMailer(cfg.From), nil
	}
	return mail.NewShoutrrrMailer(cfg.URL, cfg.From, cfg.HTML)
}
