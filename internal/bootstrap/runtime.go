// Package bootstrap wires the process-level database and Redis connections.
package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"socialgraph/internal/cache"
	"socialgraph/internal/config"
	"socialgraph/internal/database"
	"socialgraph/internal/middleware"
	"socialgraph/internal/models"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// InitRuntime connects to DB and Redis. The Redis client is nil when Redis
// is unreachable.
func InitRuntime(cfg *config.Config) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	r := cache.GetClient()

	if err := EnsureDemoUser(cfg, db); err != nil {
		return nil, nil, fmt.Errorf("failed to bootstrap development demo user: %w", err)
	}

	return db, r, nil
}

// EnsureDemoUser creates or refreshes a verified demo account in development
// when DEV_DEMO_PASSWORD is set.
func EnsureDemoUser(cfg *config.Config, db *gorm.DB) error {
	if cfg == nil || db == nil {
		return nil
	}
	if !strings.EqualFold(cfg.Env, "development") || cfg.DevDemoPassword == "" {
		return nil
	}

	email := strings.TrimSpace(strings.ToLower(cfg.DevDemoEmail))
	if email == "" {
		email = "demo@socialgraph.local"
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(cfg.DevDemoPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash demo password: %w", err)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		var demo models.User
		findErr := tx.Where("email = ?", email).First(&demo).Error
		switch {
		case errors.Is(findErr, gorm.ErrRecordNotFound):
			demo = models.User{
				Email:      email,
				Password:   string(hashedPassword),
				Name:       "Demo User",
				IsVerified: true,
			}
			return tx.Create(&demo).Error
		case findErr != nil:
			return findErr
		default:
			return tx.Model(&models.User{}).Where("id = ?", demo.ID).Updates(map[string]any{
				"password":    string(hashedPassword),
				"is_verified": true,
			}).Error
		}
	})
	if err != nil {
		return err
	}

	middleware.Logger.Info("development demo user ensured", slog.String("email", email))
	return nil
}
