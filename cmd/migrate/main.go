package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/zfogg/formdesk/internal/config"
	"github.com/zfogg/formdesk/internal/database"
	"github.com/zfogg/formdesk/internal/logger"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	command := "up"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	switch command {
	case "up":
		runMigrationsUp()
	case "status":
		showStatus()
	default:
		fmt.Println("Usage: migrate [up|status]")
		fmt.Println("  up     - Create or update every table and index")
		fmt.Println("  status - List the tables the service owns and whether they exist")
		os.Exit(1)
	}
}

func connect() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := logger.Initialize(logger.Options{Level: cfg.Log.Level, Console: true}); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	if err := database.Initialize(cfg.Database); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
}

func runMigrationsUp() {
	connect()
	defer database.Close()

	logger.Log.Info("Running migrations...")
	if err := database.Migrate(); err != nil {
		logger.Log.Fatal("Migration failed", zap.Error(err))
	}
	logger.Log.Info("All migrations completed successfully")
}

func showStatus() {
	connect()
	defer database.Close()

	migrator := database.DB.Migrator()
	for _, model := range database.Models() {
		table := tableName(model)
		state := "missing"
		if migrator.HasTable(model) {
			state = "ok"
		}
		fmt.Printf("%-20s %s\n", table, state)
	}
}

func tableName(model interface{}) string {
	stmt := database.DB.Model(model).Statement
	if err := stmt.Parse(model); err != nil {
		return fmt.Sprintf("%T", model)
	}
	return stmt.Schema.Table
}
