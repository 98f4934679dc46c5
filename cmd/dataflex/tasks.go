package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/neomorfeo/dataflex/internal/adapter/identity"
	"github.com/neomorfeo/dataflex/internal/adapter/sqlite"
	"github.com/neomorfeo/dataflex/internal/app"
	"github.com/neomorfeo/dataflex/internal/config"
)

func newMigrateCommand(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}

			db, err := sqlite.Open(cfg.Database.Path)
			if err != nil {
				return fmt.Errorf("database: %w", err)
			}
			defer db.Close()

			v, err := sqlite.MigrationVersion(db)
			if err != nil {
				return err
			}
			slog.InfoContext(cmd.Context(), "schema up to date", "path", cfg.Database.Path, "version", v)
			return nil
		},
	}
}

func newSeedCommand(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Install the default subscription plans and bundle catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}

			db, err := sqlite.Open(cfg.Database.Path)
			if err != nil {
				return fmt.Errorf("database: %w", err)
			}
			defer db.Close()

			plans, products, err := app.Seed(cmd.Context(), sqlite.NewCatalogRepository(db))
			if err != nil {
				return err
			}
			slog.InfoContext(cmd.Context(), "catalog seeded", "plans", plans, "products", products)
			return nil
		},
	}
}

func newAdminCommand(load loader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage admin accounts",
	}

	var email, password, name string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create an admin account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}

			db, err := sqlite.Open(cfg.Database.Path)
			if err != nil {
				return fmt.Errorf("database: %w", err)
			}
			defer db.Close()

			auth, err := newAuthService(cfg, app.Repositories{
				Agents:  sqlite.NewAgentRepository(db),
				Orders:  sqlite.NewOrderRepository(db),
				Catalog: sqlite.NewCatalogRepository(db),
				Admins:  sqlite.NewAdminRepository(db),
			}, sqlite.NewIdentityRepository(db))
			if err != nil {
				return err
			}

			admin, err := auth.CreateAdmin(cmd.Context(), email, password, name)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "admin %s created for %s\n", admin.ID, admin.Email)
			return nil
		},
	}
	create.Flags().StringVar(&email, "email", "", "Sign-in email")
	create.Flags().StringVar(&password, "password", "", "Sign-in password (at least 6 characters)")
	create.Flags().StringVar(&name, "name", "", "Full name")
	_ = create.MarkFlagRequired("email")
	_ = create.MarkFlagRequired("password")

	cmd.AddCommand(create)
	return cmd
}

func newIdentityProvider(cfg *config.Config, store identity.Store) (*identity.Provider, error) {
	return identity.New(store, identity.Config{
		Secret:     []byte(cfg.Auth.JWTSecret),
		SessionTTL: cfg.Auth.SessionTTL,
		BcryptCost: cfg.Auth.BcryptCost,
	})
}

func newAuthService(cfg *config.Config, repos app.Repositories, store identity.Store) (*app.AuthService, error) {
	ids, err := newIdentityProvider(cfg, store)
	if err != nil {
		return nil, err
	}
	return app.NewAuthService(ids, repos, slog.Default()), nil
}
