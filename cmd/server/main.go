package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"shipment-tracking-service/internal/adapters/cache"
	"shipment-tracking-service/internal/adapters/distance"
	"shipment-tracking-service/internal/adapters/events"
	"shipment-tracking-service/internal/adapters/repositories"
	"shipment-tracking-service/internal/api"
	"shipment-tracking-service/internal/config"
	"shipment-tracking-service/internal/platform/db"
	"shipment-tracking-service/internal/platform/obs"
	"shipment-tracking-service/internal/ports"
	"shipment-tracking-service/internal/services"
	"syscall"
	"time"

	"github.com/joho/godotenv"
)

// main is the application composition root.
// It wires concrete adapters (Postgres, Redis, ORS, Kafka/RabbitMQ) behind ports and starts the HTTP server.
func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found (using environment variables)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "err", err)
		os.Exit(1)
	}
	slog.SetDefault(obs.NewLogger(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	settings, err := cfg.Settings()
	if err != nil {
		return err
	}

	var database *sql.DB
	if cfg.DatabaseURL != "" {
		database, err = db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer database.Close()

		if err := repositories.InitSchema(ctx, database); err != nil {
			return err
		}
	}

	var repo ports.ShipmentRepository
	if database != nil {
		repo = repositories.NewPostgresShipmentRepository(database)
	} else {
		slog.Warn("DATABASE_URL not set, shipments are kept in memory only")
		repo = repositories.NewMemoryShipmentRepository()
	}

	provider, err := buildProvider(ctx, cfg.Distance, database)
	if err != nil {
		return err
	}

	publisher, err := buildPublisher(cfg.Events)
	if err != nil {
		return err
	}
	defer publisher.Close()

	tracker := services.NewTracker(provider, settings)
	svc := services.NewShipmentService(repo, tracker, publisher)

	// Provider calls are bounded by PROVIDER_TIMEOUT, so the write timeout only
	// needs a little headroom above it.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.NewRouter(svc),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      settings.ProviderTimeout + 10*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", srv.Addr, "provider", cfg.Distance.Provider, "cache", cfg.Distance.Cache, "events", cfg.Events.Sink)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	slog.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

func buildProvider(ctx context.Context, cfg config.Distance, database *sql.DB) (ports.RouteDistanceProvider, error) {
	var provider ports.RouteDistanceProvider
	switch cfg.Provider {
	case "ors":
		ors, err := distance.NewORSDistanceProvider(cfg.ORSAPIKey, cfg.ORSProfile)
		if err != nil {
			return nil, err
		}
		provider = ors
	default:
		provider = distance.NewGreatCircleProvider(1)
	}

	switch cfg.Cache {
	case "redis":
		client, err := cache.OpenRedis(ctx, cfg.RedisAddr, 0)
		if err != nil {
			return nil, err
		}
		return distance.NewCachedProvider(provider, cache.NewRedisDistanceCache(client, cfg.CacheTTL)), nil
	case "postgres":
		if database == nil {
			return nil, errors.New("DISTANCE_CACHE=postgres requires DATABASE_URL")
		}
		return distance.NewCachedProvider(provider, cache.NewSQLDistanceCache(database)), nil
	default:
		return provider, nil
	}
}

func buildPublisher(cfg config.Events) (ports.EventPublisher, error) {
	codec, err := events.NewCodec(cfg.Codec)
	if err != nil {
		return nil, err
	}

	switch cfg.Sink {
	case "kafka":
		return events.NewKafkaPublisher(cfg.KafkaBroker, cfg.KafkaTopic, codec), nil
	case "rabbitmq":
		return events.DialRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQExchange, codec)
	default:
		return events.NewLogPublisher(slog.Default()), nil
	}
}
