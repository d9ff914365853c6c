// Package config loads service settings from defaults, an optional YAML file
// and the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DriverSQLite = "sqlite"
	DriverBadger = "badger"
)

type Config struct {
	Server  ServerConfig
	Log     LogConfig
	Catalog CatalogConfig
	Blob    BlobConfig
	Guard   GuardConfig
	Mail    MailConfig
	Contact ContactConfig
}

type ServerConfig struct {
	Port               int
	BaseURL            string
	CORSAllowedOrigins []string
	MaxUploadBytes     int64
}

type LogConfig struct {
	Level  string
	Format string // json or console
}

type CatalogConfig struct {
	Driver     string
	SQLitePath string
	BadgerDir  string
}

type BlobConfig struct {
	Dir           string
	Secret        string
	URLMode       string
	PublicBaseURL string
	URLTTL        time.Duration
}

type GuardConfig struct {
	Header string
	APIKey string
}

type MailConfig struct {
	URL  string // shoutrrr smtp:// url; empty logs instead of sending
	From string
	To   string
	// HTML sends the rendered HTML body instead of plain text
	HTML bool
}

type ContactConfig struct {
	RateLimit  int
	RateWindow time.Duration
}

type envBinding struct {
	key    string
	envVar string
}

var envBindings = []envBinding{
	{"server.port", "PORT"},
	{"server.baseurl", "BASE_URL"},
	{"server.corsallowedorigins", "CORS_ALLOWED_ORIGINS"},
	{"server.maxuploadbytes", "MAX_UPLOAD_BYTES"},
	{"log.level", "LOG_LEVEL"},
	{"log.format", "LOG_FORMAT"},
	{"catalog.driver", "CATALOG_DRIVER"},
	{"catalog.sqlitepath", "SQLITE_DB_PATH"},
	{"catalog.badgerdir", "BADGER_DIR"},
	{"blob.dir", "BLOB_DIR"},
	{"blob.secret", "BLOB_SECRET"},
	{"blob.urlmode", "BLOB_URL_MODE"},
	{"blob.publicbaseurl", "BLOB_PUBLIC_BASE_URL"},
	{"blob.urlttl", "BLOB_URL_TTL"},
	{"guard.header", "GUARD_HEADER"},
	{"guard.apikey", "ADMIN_API_KEY"},
	{"mail.url", "MAIL_URL"},
	{"mail.from", "MAIL_FROM"},
	{"mail.to", "MAIL_TO"},
	{"mail.html", "MAIL_HTML"},
	{"contact.ratelimit", "CONTACT_RATE_LIMIT"},
	{"contact.ratewindow", "CONTACT_RATE_WINDOW"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.baseurl", "http://localhost:8080")
	v.SetDefault("server.corsallowedorigins", []string{"http://localhost:3000"})
	v.SetDefault("server.maxuploadbytes", 10<<20)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("catalog.driver", DriverSQLite)
	v.SetDefault("catalog.sqlitepath", "./manifest.db")
	v.SetDefault("catalog.badgerdir", "./data/catalog")
	v.SetDefault("blob.dir", "./data/blobs")
	v.SetDefault("blob.urlmode", "signed")
	v.SetDefault("blob.urlttl", time.Hour)
	v.SetDefault("guard.header", "X-API-KEY")
	v.SetDefault("mail.from", "noreply@onpointgaragedoors.com")
	v.SetDefault("mail.to", "info@onpointgaragedoors.com")
	v.SetDefault("mail.html", false)
	v.SetDefault("contact.ratelimit", 5)
	v.SetDefault("contact.ratewindow", 10*time.Minute)
}

// Load reads configuration into a fresh viper instance. configFile may be empty.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if v == nil {
		v = viper.New()
	}
	setDefaults(v)

	for _, b := range envBindings {
		if err := v.BindEnv(b.key, b.envVar); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", b.envVar, err)
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:               v.GetInt("server.port"),
			BaseURL:            strings.TrimRight(v.GetString("server.baseurl"), "/"),
			CORSAllowedOrigins: splitList(v.GetStringSlice("server.corsallowedorigins")),
			MaxUploadBytes:     v.GetInt64("server.maxuploadbytes"),
		},
		Log: LogConfig{
			Level:  strings.ToLower(v.GetString("log.level")),
			Format: strings.ToLower(v.GetString("log.format")),
		},
		Catalog: CatalogConfig{
			Driver:     strings.ToLower(v.GetString("catalog.driver")),
			SQLitePath: v.GetString("catalog.sqlitepath"),
			BadgerDir:  v.GetString("catalog.badgerdir"),
		},
		Blob: BlobConfig{
			Dir:           v.GetString("blob.dir"),
			Secret:        v.GetString("blob.secret"),
			URLMode:       strings.ToLower(v.GetString("blob.urlmode")),
			PublicBaseURL: v.GetString("blob.publicbaseurl"),
			URLTTL:        v.GetDuration("blob.urlttl"),
		},
		Guard: GuardConfig{
			Header: v.GetString("guard.header"),
			APIKey: v.GetString("guard.apikey"),
		},
		Mail: MailConfig{
			URL:  v.GetString("mail.url"),
			From: v.GetString("mail.from"),
			To:   v.GetString("mail.to"),
			HTML: v.GetBool("mail.html"),
		},
		Contact: ContactConfig{
			RateLimit:  v.GetInt("contact.ratelimit"),
			RateWindow: v.GetDuration("contact.ratewindow"),
		},
	}

	return cfg, nil
}

// Validate reports every problem that would stop the server from starting.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Server.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("MAX_UPLOAD_BYTES must be positive"))
	}
	if c.Guard.APIKey == "" {
		errs = append(errs, errors.New("ADMIN_API_KEY is required"))
	}
	if len(c.Blob.Secret) < 16 {
		errs = append(errs, errors.New("BLOB_SECRET must be at least 16 characters"))
	}
	switch c.Blob.URLMode {
	case "signed":
	case "public":
		if c.Blob.PublicBaseURL == "" {
			errs = append(errs, errors.New("BLOB_PUBLIC_BASE_URL is required when BLOB_URL_MODE is public"))
		}
	default:
		errs = append(errs, fmt.Errorf("BLOB_URL_MODE must be signed or public, got %q", c.Blob.URLMode))
	}
	switch c.Catalog.Driver {
	case DriverSQLite, DriverBadger:
	default:
		errs = append(errs, fmt.Errorf("CATALOG_DRIVER must be sqlite or badger, got %q", c.Catalog.Driver))
	}
	if c.Log.Format != "json" && c.Log.Format != "console" {
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Log.Format))
	}

	return errors.Join(errs...)
}

// splitList accepts both YAML lists and comma separated env values
func splitList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
