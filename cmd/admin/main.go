// Package main provides admin management utilities for eventhub.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"eventhub/internal/config"
	"eventhub/internal/database"
	"eventhub/internal/middleware"
	"eventhub/internal/models"
	"eventhub/internal/repository"
)

func usage() {
	fmt.Println("Usage:")
	fmt.Println("  go run ./cmd/admin promote <user_id>           - Promote user to admin")
	fmt.Println("  go run ./cmd/admin demote <user_id>            - Demote admin to user")
	fmt.Println("  go run ./cmd/admin set-role <user_id> <role>   - Set USER, HOST or ADMIN")
	fmt.Println("  go run ./cmd/admin list-admins                 - List all admins")
	fmt.Println("  go run ./cmd/admin token <user_id> [ttl]       - Mint a bearer token (development)")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()
	command := os.Args[1]

	if command == "token" {
		mintToken(cfg, os.Args[2:])
		return
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	store := repository.NewStore(db)

	switch command {
	case "promote":
		setRole(ctx, store, argID(2), models.RoleAdmin)
	case "demote":
		setRole(ctx, store, argID(2), models.RoleUser)
	case "set-role":
		if len(os.Args) < 4 {
			usage()
			os.Exit(1)
		}
		role := models.Role(os.Args[3])
		if !role.Valid() {
			fmt.Printf("Unknown role: %s\n", os.Args[3])
			os.Exit(1)
		}
		setRole(ctx, store, argID(2), role)
	case "list-admins":
		listAdmins(ctx, store)
	default:
		fmt.Printf("Unknown command: %s\n", command)
		usage()
		os.Exit(1)
	}
}

func argID(pos int) uint {
	if len(os.Args) <= pos {
		usage()
		os.Exit(1)
	}
	id, err := strconv.ParseUint(os.Args[pos], 10, 32)
	if err != nil || id == 0 {
		fmt.Printf("Invalid user ID: %s\n", os.Args[pos])
		os.Exit(1)
	}
	return uint(id)
}

func setRole(ctx context.Context, store *repository.Store, userID uint, role models.Role) {
	user, err := store.Users.GetByID(ctx, userID)
	if models.IsNotFound(err) {
		fmt.Printf("User with ID %d not found\n", userID)
		os.Exit(1)
	}
	if err != nil {
		log.Fatalf("Database error: %v", err)
	}

	if user.Role == role {
		fmt.Printf("User %s (ID: %d) already has role %s\n", user.Username, user.ID, role)
		return
	}
	if err := store.Users.UpdateRole(ctx, user.ID, role); err != nil {
		log.Fatalf("Failed to update role: %v", err)
	}
	fmt.Printf("✅ %s (ID: %d) is now %s\n", user.Username, user.ID, role)
}

func listAdmins(ctx context.Context, store *repository.Store) {
	admins, err := store.Users.ListByRole(ctx, models.RoleAdmin)
	if err != nil {
		log.Fatalf("Failed to fetch admins: %v", err)
	}
	if len(admins) == 0 {
		fmt.Println("No admins found in the system")
		return
	}

	fmt.Printf("Found %d admin(s):\n", len(admins))
	for _, admin := range admins {
		fmt.Printf("  - %s (ID: %d, Email: %s)\n", admin.Username, admin.ID, admin.Email)
	}
}

// mintToken signs a bearer token without touching the database. The
// identity provider issues tokens in production.
func mintToken(cfg *config.Config, args []string) {
	if cfg.IsProduction() {
		fmt.Println("Refusing to mint tokens in production")
		os.Exit(1)
	}
	if len(args) < 1 {
		usage()
		os.Exit(1)
	}
	id, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil || id == 0 {
		fmt.Printf("Invalid user ID: %s\n", args[0])
		os.Exit(1)
	}
	ttl := 24 * time.Hour
	if len(args) > 1 {
		if ttl, err = time.ParseDuration(args[1]); err != nil {
			fmt.Printf("Invalid TTL: %s\n", args[1])
			os.Exit(1)
		}
	}

	token, err := middleware.IssueToken(cfg.JWTSecret, uint(id), ttl)
	if err != nil {
		log.Fatalf("Failed to sign token: %v", err)
	}
	fmt.Println(token)
}
