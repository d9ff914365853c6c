package main

import (
	"os"
	"strings"

	"github.com/dfryer1193/mailmanifest/shared/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	configFile string
	settings   = viper.New()
)

var rootCmd = &cobra.Command{
	Use:           "mailmanifest",
	Short:         "Contact relay and image manifest API",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "optional YAML config file")
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

// loadConfig reads settings and configures the global logger from them.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(settings, configFile)
	if err != nil {
		return nil, err
	}
	setupLogging(cfg.Log)
	return cfg, nil
}

func setupLogging(cfg config.LogConfig) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs

	if cfg.Format == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}
