package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/zfogg/formdesk/internal/config"
	"github.com/zfogg/formdesk/internal/database"
	"github.com/zfogg/formdesk/internal/formio"
	"github.com/zfogg/formdesk/internal/logger"
	"github.com/zfogg/formdesk/internal/seed"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	command := "dev"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	switch command {
	case "dev", "test", "clean":
	default:
		fmt.Println("Usage: seed [dev|test|clean]")
		fmt.Println("  dev   - Seed development database with realistic data")
		fmt.Println("  test  - Seed test database with minimal data")
		fmt.Println("  clean - Remove all seed data (use with caution)")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := logger.Initialize(logger.Options{Level: cfg.Log.Level, Console: true}); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	if err := database.Initialize(cfg.Database); err != nil {
		logger.Log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close()
	if err := database.Migrate(); err != nil {
		logger.Log.Fatal("Migration failed", zap.Error(err))
	}

	seeder := seed.NewSeeder(database.DB, formio.NewClient(cfg.Formio))
	ctx := context.Background()

	switch command {
	case "dev":
		_, err = seeder.SeedDev(ctx)
	case "test":
		_, err = seeder.SeedTest(ctx)
	case "clean":
		err = seeder.Clean(ctx)
	}
	if err != nil {
		logger.Log.Fatal("Seeding failed", zap.String("command", command), zap.Error(err))
	}
	fmt.Printf("Seed %s finished. Seeded accounts use the password %q.\n", command, seed.Password)
}
