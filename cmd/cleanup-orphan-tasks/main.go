package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/zfogg/formdesk/internal/config"
	"github.com/zfogg/formdesk/internal/database"
	"github.com/zfogg/formdesk/internal/formio"
	"github.com/zfogg/formdesk/internal/models"
)

// cleanup-orphan-tasks finds tasks whose form no longer exists in the form
// backend. With -delete it soft-deletes them, otherwise it only reports.
func main() {
	del := flag.Bool("delete", false, "Delete the tasks instead of listing them")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := database.Initialize(cfg.Database); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	var formIDs []string
	if err := database.DB.WithContext(ctx).Model(&models.Task{}).Distinct().Pluck("form_id", &formIDs).Error; err != nil {
		log.Fatalf("Failed to list forms in use: %v", err)
	}
	log.Printf("Checking %d forms referenced by tasks", len(formIDs))

	forms := formio.NewClient(cfg.Formio)
	var missing []string
	for _, id := range formIDs {
		_, err := forms.GetForm(ctx, id)
		switch {
		case err == nil:
		case errors.Is(err, formio.ErrNotFound):
			missing = append(missing, id)
		default:
			log.Fatalf("Failed to look up form %s: %v", id, err)
		}
	}

	if len(missing) == 0 {
		log.Println("No orphaned tasks found")
		return
	}

	var orphans []models.Task
	if err := database.DB.WithContext(ctx).Where("form_id IN ?", missing).Order("form_id, deadline").Find(&orphans).Error; err != nil {
		log.Fatalf("Failed to query tasks: %v", err)
	}
	log.Printf("Found %d tasks for %d deleted forms:", len(orphans), len(missing))
	for i, t := range orphans {
		log.Printf("  [%d] %s %q form=%s status=%s", i+1, t.ID, t.Title, t.FormID, t.Status)
	}

	if !*del {
		log.Println("Dry run, pass -delete to remove them")
		return
	}

	result := database.DB.WithContext(ctx).Where("form_id IN ?", missing).Delete(&models.Task{})
	if result.Error != nil {
		log.Fatalf("Failed to delete tasks: %v", result.Error)
	}
	log.Printf("Deleted %d orphaned tasks", result.RowsAffected)
}
