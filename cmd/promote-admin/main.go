package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/zfogg/formdesk/internal/config"
	"github.com/zfogg/formdesk/internal/database"
	"github.com/zfogg/formdesk/internal/models"
	"github.com/zfogg/formdesk/internal/repository"
)

// promote-admin changes an account's role from the command line. It is the
// way to create the first administrator since accounts are only provisioned
// through the API by managers.
func main() {
	_ = godotenv.Load()

	email := flag.String("email", "", "Email address of the account")
	roleName := flag.String("role", string(models.RoleAdmin), "Role to grant: user, employee, manager or admin")
	flag.Parse()

	if *email == "" {
		fmt.Println("Usage: promote-admin -email=user@example.com [-role=admin]")
		os.Exit(1)
	}
	role, ok := models.ParseRole(*roleName)
	if !ok {
		log.Fatalf("Unknown role %q", *roleName)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := database.Initialize(cfg.Database); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	ctx := context.Background()
	users := repository.NewUserRepository(database.DB)
	user, err := users.GetUserByEmail(ctx, *email)
	if err != nil {
		log.Fatalf("User not found: %s", *email)
	}

	if user.Role == role {
		fmt.Printf("%s already has the %s role\n", user.Username, role)
		return
	}

	fields := map[string]interface{}{"role": role}
	if !user.IsActive {
		fields["is_active"] = true
	}
	if err := users.UpdateUserFields(ctx, user.ID, fields); err != nil {
		log.Fatalf("Failed to update role: %v", err)
	}

	fmt.Printf("%s (%s): %s -> %s\n", user.Username, user.Email, user.Role, role)
	fmt.Println("The user must log in again for the change to take effect")
}
