package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"

	"github.com/mkrasic/handoff/internal/config"
	"github.com/mkrasic/handoff/internal/database"
	"github.com/mkrasic/handoff/internal/telemetry"
	"github.com/mkrasic/handoff/internal/verification/adapters"
	httpadapter "github.com/mkrasic/handoff/internal/verification/adapters/http"
	"github.com/mkrasic/handoff/internal/verification/adapters/roblox"
	"github.com/mkrasic/handoff/internal/verification/adapters/shopify"
	"github.com/mkrasic/handoff/internal/verification/adapters/sink"
	sinkpostgres "github.com/mkrasic/handoff/internal/verification/adapters/sink/postgres"
	"github.com/mkrasic/handoff/internal/verification/app"
	"github.com/mkrasic/handoff/internal/verification/metrics"
	"github.com/mkrasic/handoff/internal/verification/ports"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := telemetry.NewLogger(telemetry.ParseLevel(cfg.Telemetry.LogLevel))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var tel *telemetry.Telemetry
	if cfg.Telemetry.EnableTracing || cfg.Telemetry.EnableMetrics {
		tel, err = telemetry.Initialize(ctx, telemetry.Config{
			ServiceName:    cfg.Service.Name,
			ServiceVersion: cfg.Service.Version,
			Environment:    cfg.Service.Environment,
			OTLPEndpoint:   cfg.Telemetry.OTelEndpoint,
			EnableTracing:  cfg.Telemetry.EnableTracing,
			EnableMetrics:  cfg.Telemetry.EnableMetrics,
			SampleRate:     cfg.Telemetry.SampleRate,
		})
		if err != nil {
			logger.Error("failed to initialize telemetry", "error", err)
			os.Exit(1)
		}
	}

	meter := otel.Meter(cfg.Service.Name)
	verifMetrics, err := metrics.NewMetrics(meter)
	if err != nil {
		logger.Error("failed to create verification metrics", "error", err)
		os.Exit(1)
	}
	httpMetrics, err := httpadapter.NewMetrics(meter)
	if err != nil {
		logger.Error("failed to create http metrics", "error", err)
		os.Exit(1)
	}

	commerce, err := shopify.NewClient(shopify.Config{
		StoreDomain: cfg.Commerce.StoreDomain,
		AccessToken: cfg.Commerce.AccessToken,
		BaseURL:     cfg.Commerce.BaseURL,
		Timeout:     cfg.Commerce.Timeout,
	}, logger)
	if err != nil {
		logger.Error("failed to create commerce client", "error", err)
		os.Exit(1)
	}

	identity := roblox.NewClient(roblox.Config{
		UsersBaseURL:      cfg.Identity.UsersBaseURL,
		ThumbnailsBaseURL: cfg.Identity.ThumbnailsBaseURL,
		Timeout:           cfg.Identity.Timeout,
	}, logger)

	registrationSink, pool, err := buildSink(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to create registration sink", "error", err, "kind", cfg.Sink.Kind)
		os.Exit(1)
	}
	if pool != nil {
		defer pool.Close()
	}
	observedSink := adapters.NewObservableSink(registrationSink, string(cfg.Sink.Kind), verifMetrics)

	service := app.NewService(commerce, identity, observedSink, cfg.Sink.Budget, logger)
	observable := app.NewObservableService(service, logger, verifMetrics)
	handler := httpadapter.NewHandler(observable, cfg.HTTP.RequestBudget)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(httpadapter.WithRecovery(logger))
	r.Use(httpadapter.WithLogging(logger))
	r.Use(httpadapter.WithMetrics(httpMetrics))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", func(w http.ResponseWriter, req *http.Request) {
		if pool != nil {
			if err := database.CheckHealth(req.Context(), pool); err != nil {
				respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready", "error": err.Error()})
				return
			}
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})

	handler.Register(r)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server starting", "port", cfg.HTTP.Port, "sink", cfg.Sink.Kind)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownGrace)*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server exited with error", "error", err)
	} else {
		logger.Info("http server stopped")
	}

	if tel != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown failed", "error", err)
		}
	}
}

// buildSink wires the registration sink selected by configuration. The
// returned pool is non-nil only for the postgres sink so the readiness probe
// can ping it.
func buildSink(ctx context.Context, cfg *config.Config, logger *slog.Logger) (ports.RegistrationSink, *pgxpool.Pool, error) {
	switch cfg.Sink.Kind {
	case config.SinkPostgres:
		if cfg.Database.URL == "" {
			return nil, nil, errors.New("DATABASE_URL is required for the postgres sink")
		}
		pool, err := database.NewPool(ctx, cfg.Database.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("create database pool: %w", err)
		}
		if cfg.Database.AutoMigrate {
			logger.Info("running database migrations", "path", cfg.Database.MigrationsPath)
			if err := database.RunMigrations(cfg.Database.URL, cfg.Database.MigrationsPath); err != nil {
				pool.Close()
				return nil, nil, fmt.Errorf("run migrations: %w", err)
			}
		}
		return sinkpostgres.NewSink(pool), pool, nil

	case config.SinkWebhook:
		if cfg.Sink.WebhookURL == "" {
			return nil, nil, errors.New("SINK_WEBHOOK_URL is required for the webhook sink")
		}
		return sink.NewWebhook(cfg.Sink.WebhookURL), nil, nil

	case config.SinkAirtable:
		s, err := sink.NewAirtable(sink.AirtableConfig{
			BaseID: cfg.Sink.AirtableBase,
			Table:  cfg.Sink.AirtableTable,
			Token:  cfg.Sink.AirtableToken,
		})
		if err != nil {
			return nil, nil, err
		}
		return s, nil, nil

	default:
		return sink.NewMemory(), nil, nil
	}
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
