// Package bootstrap wires the process-level dependencies shared by the
// commands: database, Redis and the development admin account.
package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"eventhub/internal/cache"
	"eventhub/internal/config"
	"eventhub/internal/database"
	"eventhub/internal/middleware"
	"eventhub/internal/models"
	"eventhub/internal/repository"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// InitRuntime connects to DB and Redis and ensures the development admin.
// The Redis client is nil when Redis is unreachable.
func InitRuntime(ctx context.Context, cfg *config.Config) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	r := cache.GetClient()

	if err := EnsureDevAdmin(ctx, cfg, repository.NewStore(db)); err != nil {
		return nil, nil, fmt.Errorf("failed to bootstrap development admin: %w", err)
	}

	return db, r, nil
}

// EnsureDevAdmin creates or promotes DEV_ADMIN_USERNAME in development.
// It does nothing in other environments or when no username is configured.
func EnsureDevAdmin(ctx context.Context, cfg *config.Config, store *repository.Store) error {
	if cfg == nil || store == nil || !strings.EqualFold(cfg.Env, "development") {
		return nil
	}
	username := strings.TrimSpace(cfg.DevAdminUsername)
	if username == "" {
		return nil
	}

	user, err := store.Users.GetByUsername(ctx, username)
	switch {
	case models.IsNotFound(err):
		email := strings.ToLower(strings.TrimSpace(cfg.DevAdminEmail))
		if email == "" {
			email = username + "@eventhub.local"
		}
		user = &models.User{Username: username, Email: email, Role: models.RoleAdmin}
		if err := store.Users.Create(ctx, user); err != nil {
			return err
		}
	case err != nil:
		return err
	case user.Role != models.RoleAdmin:
		if err := store.Users.UpdateRole(ctx, user.ID, models.RoleAdmin); err != nil {
			return err
		}
	}

	middleware.Logger.InfoContext(ctx, "development admin ensured", "user_id", user.ID, "username", username)
	return nil
}
