package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"shipment-tracking-service/internal/adapters/distance"
	"shipment-tracking-service/internal/adapters/events"
	"shipment-tracking-service/internal/adapters/repositories"
	"shipment-tracking-service/internal/api/dto"
	"shipment-tracking-service/internal/config"
	"shipment-tracking-service/internal/domain"
	"shipment-tracking-service/internal/platform/db"
	"shipment-tracking-service/internal/platform/obs"
	"shipment-tracking-service/internal/services"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// dbtool initializes the Postgres schema and loads demo shipments.
func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found (using environment variables)")
	}
	slog.SetDefault(obs.NewLogger(config.Get("LOG_LEVEL", "info")))

	databaseURL := config.Get("DATABASE_URL", "")
	if strings.TrimSpace(databaseURL) == "" {
		slog.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	ctx := context.Background()
	database, err := db.Open(ctx, databaseURL)
	if err != nil {
		slog.Error("open database", "err", err)
		os.Exit(1)
	}
	defer database.Close()

	seedPath := config.Get("SEED_PATH", "data/seeds/shipments.json")
	if err := initAndSeed(ctx, database, seedPath); err != nil {
		slog.Error("init and seed failed", "err", err)
		os.Exit(1)
	}
}

func initAndSeed(ctx context.Context, database *sql.DB, seedPath string) error {
	slog.Info("initializing database schema")
	if err := repositories.InitSchema(ctx, database); err != nil {
		return fmt.Errorf("init and seed: %w", err)
	}
	slog.Info("schema ready")

	seeds, err := loadSeeds(seedPath)
	if err != nil {
		return fmt.Errorf("init and seed: %w", err)
	}

	// Seed ETAs use the great-circle provider so seeding never depends on an external API.
	tracker := services.NewTracker(distance.NewGreatCircleProvider(1), services.DefaultSettings())
	svc := services.NewShipmentService(
		repositories.NewPostgresShipmentRepository(database),
		tracker,
		events.NewLogPublisher(slog.Default()),
	)

	created := 0
	for _, seed := range seeds {
		s, err := svc.Create(ctx, seed.ToService())
		if errors.Is(err, domain.ErrShipmentExists) {
			slog.Info("seed skipped, shipment exists", "container_id", seed.ContainerID)
			continue
		}
		if err != nil {
			return fmt.Errorf("init and seed: container %s: %w", seed.ContainerID, err)
		}
		created++
		slog.Info("seeded shipment", "shipment_id", s.ID, "eta", s.CurrentETA)
	}

	slog.Info("seeding complete", "created", created, "total", len(seeds))
	return nil
}

func loadSeeds(path string) ([]dto.CreateShipmentRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load seeds: read %q: %w", path, err)
	}

	var seeds []dto.CreateShipmentRequest
	if err := json.Unmarshal(data, &seeds); err != nil {
		return nil, fmt.Errorf("load seeds: parse %q: %w", path, err)
	}

	v := validator.New(validator.WithRequiredStructEnabled())
	for i, s := range seeds {
		if err := v.Struct(s); err != nil {
			return nil, fmt.Errorf("load seeds: entry %d: %w", i, err)
		}
	}
	return seeds, nil
}
