// Command seeder bootstraps the administrator account so a fresh deployment
// can log in without manual database inserts.
package main

import (
	"context"
	"errors"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"

	"charitychain/internal/adapter/repo"
	"charitychain/internal/db"
	"charitychain/internal/domain"
	"charitychain/internal/infra"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	name := getenv("ADMIN_NAME", "Administrator")
	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		logger.Fatal().Msg("ADMIN_EMAIL and ADMIN_PASSWORD are required")
	}

	ctx := context.Background()
	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		logger.Fatal().Err(err).Msg("failed to apply schema")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to hash password")
	}

	admin := &domain.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        domain.NormalizeEmail(email),
		PasswordHash: string(hash),
		Role:         domain.RoleAdmin,
	}
	if err := repo.NewUserRepository(pool).Create(ctx, admin); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			logger.Info().Str("email", admin.Email).Msg("admin account already exists")
			return
		}
		logger.Fatal().Err(err).Msg("failed to create admin account")
	}
	logger.Info().Str("user_id", admin.ID).Str("email", admin.Email).Msg("admin account created")
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
