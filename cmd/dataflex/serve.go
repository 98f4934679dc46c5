package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/riandyrn/otelchi"
	"github.com/spf13/cobra"

	handler "github.com/neomorfeo/dataflex/internal/adapter/http"
	"github.com/neomorfeo/dataflex/internal/adapter/fsm"
	"github.com/neomorfeo/dataflex/internal/adapter/otel"
	"github.com/neomorfeo/dataflex/internal/adapter/river"
	"github.com/neomorfeo/dataflex/internal/adapter/sqlite"
	"github.com/neomorfeo/dataflex/internal/app"
	"github.com/neomorfeo/dataflex/internal/config"
	"github.com/neomorfeo/dataflex/internal/domain"
)

func newServeCommand(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return run(ctx, cfg)
		},
	}
}

// run serves the API until ctx is cancelled, then drains HTTP, stops the
// queue and flushes telemetry, in that order.
func run(ctx context.Context, cfg *config.Config) error {
	logger := slog.Default()

	// --- Telemetry ---
	if cfg.Telemetry.Enabled {
		providers, err := otel.Setup(ctx, otel.Config{
			ServiceName:    cfg.Telemetry.ServiceName,
			ServiceVersion: cfg.Telemetry.ServiceVersion,
			Namespace:      cfg.Telemetry.Namespace,
			Environment:    cfg.Telemetry.Environment,
			Exporter:       cfg.Telemetry.Exporter,
			Insecure:       cfg.Telemetry.Environment == "development",
		})
		if err != nil {
			return fmt.Errorf("telemetry: %w", err)
		}
		defer func() {
			flushCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			if err := providers.Shutdown(flushCtx); err != nil {
				logger.Error("telemetry shutdown", "error", err)
			}
		}()
	}

	// --- Adapters (out) ---
	db, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()

	identities := sqlite.NewIdentityRepository(db)
	ids, err := newIdentityProvider(cfg, identities)
	if err != nil {
		return err
	}

	var agents domain.AgentRepository = sqlite.NewAgentRepository(db)
	if cfg.Telemetry.Enabled {
		agents = otel.NewTracingRepository(agents)
	}
	repos := app.Repositories{
		Agents:  agents,
		Orders:  sqlite.NewOrderRepository(db),
		Catalog: sqlite.NewCatalogRepository(db),
		Admins:  sqlite.NewAdminRepository(db),
	}

	var publisher domain.EventPublisher = &logPublisher{logger: logger}
	var queue *river.Client
	if cfg.Queue.Enabled {
		queue, err = river.Setup(ctx, db, river.Options{
			MaxWorkers: cfg.Queue.MaxWorkers,
			Logger:     logger,
			Purger:     identities,
		})
		if err != nil {
			return fmt.Errorf("queue: %w", err)
		}
		if err := queue.Start(ctx); err != nil {
			return fmt.Errorf("starting queue: %w", err)
		}
		publisher = river.NewPublisher(queue)
	}
	if cfg.Telemetry.Enabled {
		publisher = otel.NewTracingPublisher(publisher)
	}

	// --- Application ---
	svc := handler.Services{
		Agents: app.NewAgentService(repos, ids, publisher, fsm.New(), app.AgentConfig{
			Policy:       subscriptionPolicy(cfg.Subscription),
			CodeAttempts: cfg.Registration.CodeAttempts,
			Logger:       logger,
		}),
		Dashboards: app.NewDashboardService(repos),
		Auth:       app.NewAuthService(ids, repos, logger),
	}

	// --- Adapters (in) ---
	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           newRouter(cfg, logger, svc),
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("dataflex listening", "addr", srv.Addr, "docs", "/docs", "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "error", err)
	}
	if queue != nil {
		if err := queue.Stop(shutdownCtx); err != nil {
			logger.Error("queue shutdown", "error", err)
		}
	}

	if serveErr != nil {
		return fmt.Errorf("server: %w", serveErr)
	}
	logger.Info("stopped")
	return nil
}

func newRouter(cfg *config.Config, logger *slog.Logger, svc handler.Services) http.Handler {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  slog.NewLogLogger(logger.Handler(), slog.LevelInfo),
		NoColor: true,
	}))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(cfg.Server.RequestTimeout))
	if cfg.Telemetry.Enabled {
		router.Use(otelchi.Middleware(cfg.Telemetry.ServiceName, otelchi.WithChiRoutes(router)))
	}

	api := humachi.New(router, huma.DefaultConfig("dataflex", version))
	handler.Register(api, svc)

	return router
}

func subscriptionPolicy(cfg config.SubscriptionConfig) domain.SubscriptionPolicy {
	fixed := domain.FixedWindow{Days: cfg.FixedDays}
	if cfg.Policy == config.PolicyPlan {
		return domain.PlanWindow{Fallback: fixed}
	}
	return fixed
}

// logPublisher stands in for the queue when it is disabled.
type logPublisher struct {
	logger *slog.Logger
}

func (p *logPublisher) Publish(ctx context.Context, event domain.Event, agent domain.Agent) error {
	p.logger.InfoContext(ctx, "agent event",
		"event", event, "agent_id", agent.ID, "agent_code", agent.AgentCode, "status", agent.Status)
	return nil
}
