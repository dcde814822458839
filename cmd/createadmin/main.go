// Command createadmin bootstraps (or resets) the administrative account.
// Credentials come from ADMIN_USERNAME / ADMIN_PASSWORD / ADMIN_EMAIL.
package main

import (
	"context"

	"retiro-api/internal/config"
	"retiro-api/internal/database"
	"retiro-api/internal/models"
	"retiro-api/internal/repository/postgres"
	"retiro-api/internal/utils"
	"retiro-api/pkg/logger"

	"github.com/google/uuid"
)

func main() {
	cfg := config.Load()
	l := logger.New(cfg.Env)

	ctx := context.Background()
	pool, err := database.Open(ctx, cfg)
	if err != nil {
		l.Fatal().Err(err).Msg("db connect failed")
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		l.Fatal().Err(err).Msg("schema migration failed")
	}

	hash, err := utils.HashPassword(cfg.AdminPassword)
	if err != nil {
		l.Fatal().Err(err).Msg("password hash failed")
	}

	u := &models.User{
		ID:           uuid.NewString(),
		Username:     cfg.AdminUsername,
		Email:        cfg.AdminEmail,
		PasswordHash: hash,
	}
	if err := postgres.NewUserRepo(pool).EnsureAdmin(ctx, u); err != nil {
		l.Fatal().Err(err).Msg("admin bootstrap failed")
	}
	l.Info().Str("username", u.Username).Msg("admin account ready")
}
