package main

import (
	"fmt"

	"github.com/dfryer1193/mailmanifest/shared/config"
	"github.com/dfryer1193/mailmanifest/shared/db/sqlite"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending catalog schema migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		if cfg.Catalog.Driver != config.DriverSQLite {
			log.Info().Str("driver", cfg.Catalog.Driver).Msg("Catalog driver has no schema; nothing to migrate")
			return nil
		}

		sqlDB := sqlite.NewSQLiteDB(sqlite.NewSQLiteConfig(cfg.Catalog.SQLitePath))
		if err := sqlDB.Connect(); err != nil {
			return fmt.Errorf("failed to migrate %s: %w", sqlDB.Path(), err)
		}
		defer sqlDB.Close()

		version, err := sqlite.SchemaVersion(sqlDB.DB())
		if err != nil {
			return err
		}
		log.Info().Str("path", sqlDB.Path()).Int("version", version).Msg("Catalog schema up to date")
		return nil
	},
}
