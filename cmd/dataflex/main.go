// Command dataflex runs the agent marketplace API and its maintenance tasks.
package main

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/neomorfeo/dataflex/internal/adapter/otel"
	"github.com/neomorfeo/dataflex/internal/adapter/sqlite"
	"github.com/neomorfeo/dataflex/internal/config"
	"github.com/neomorfeo/dataflex/internal/logging"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "0.1.0"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

// loader reads the configuration selected by the global flags and installs
// the default logger.
type loader func() (*config.Config, error)

func newRootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "dataflex",
		Short:        "Dataflex agent marketplace",
		Long:         `Dataflex serves the agent marketplace API and provides schema, seed and admin tooling.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file (default: ./config.yaml or ./configs/config.yaml)")

	load := func() (*config.Config, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		logging.Init(logging.Options{Level: cfg.Logger.Level, Format: cfg.Logger.Format})
		return cfg, nil
	}

	root.AddCommand(
		newServeCommand(load),
		newMigrateCommand(load),
		newSeedCommand(load),
		newAdminCommand(load),
	)

	return root
}

// openStore opens the database, instrumented when telemetry is enabled.
func openStore(cfg *config.Config) (*sql.DB, error) {
	if cfg.Telemetry.Enabled {
		return otel.OpenDB(cfg.Database.Path)
	}
	return sqlite.Open(cfg.Database.Path)
}
