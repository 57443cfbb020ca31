// Package main provides admin management utilities for Snapfeed.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"

	"snapfeed/internal/config"
	"snapfeed/internal/database"
	"snapfeed/internal/models"
	"snapfeed/internal/repository"
	"snapfeed/internal/service"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage:")
		fmt.Println("  go run ./cmd/admin promote <username>   - Promote user to admin")
		fmt.Println("  go run ./cmd/admin demote <username>    - Demote admin to user")
		fmt.Println("  go run ./cmd/admin list-admins          - List all admins")
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	admins := service.NewAdminService(repository.NewUserRepository(db), repository.NewSessionRepository(db))
	ctx := context.Background()

	switch command := os.Args[1]; command {
	case "promote", "demote":
		if len(os.Args) < 3 {
			fmt.Printf("Usage: go run ./cmd/admin %s <username>\n", command)
			os.Exit(1)
		}
		role := models.RoleAdmin
		if command == "demote" {
			role = models.RoleUser
		}
		setRole(ctx, admins, os.Args[2], role)

	case "list-admins":
		listAdmins(ctx, admins)

	default:
		fmt.Printf("Unknown command: %s\n", command)
		os.Exit(1)
	}
}

func setRole(ctx context.Context, admins *service.AdminService, username string, role models.Role) {
	user, err := admins.SetRoleByUsername(ctx, username, role)
	if err != nil {
		if models.StatusFor(err) == http.StatusNotFound {
			fmt.Printf("User %s not found\n", username)
			os.Exit(1)
		}
		log.Fatalf("Failed to update role: %v", err)
	}
	fmt.Printf("✅ %s (ID: %s) is now %s\n", user.Username, user.ID, user.Role)
}

func listAdmins(ctx context.Context, admins *service.AdminService) {
	users, err := admins.ListAdmins(ctx)
	if err != nil {
		log.Fatalf("Failed to fetch admins: %v", err)
	}

	if len(users) == 0 {
		fmt.Println("No admins found in the system")
		return
	}

	fmt.Println("\n📋 Current Admins:")
	fmt.Println("─────────────────────────────────────")
	for _, admin := range users {
		fmt.Printf("ID: %s | Username: %s | Email: %s\n", admin.ID, admin.Username, admin.Email)
	}
	fmt.Println("─────────────────────────────────────")
}
