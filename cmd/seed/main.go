package main

import (
	"context"
	"errors"
	"flag"
	"log"

	"github.com/google/uuid"
	"github.com/spf13/viper"

	"tenant-registry/backend/internal/config"
	"tenant-registry/backend/internal/database"
	"tenant-registry/backend/internal/logging"
	"tenant-registry/backend/internal/repository"
	"tenant-registry/backend/internal/services"
	"tenant-registry/backend/internal/telemetry"
	"tenant-registry/backend/pkg/models"
)

const (
	seedTenantName = "Local Dev Tenant"
	seedUserEmail  = "dev@localhost"
)

// seedPassword returns the given password, or a random one when none was
// supplied. The second result reports whether it was generated.
func seedPassword(given string) (string, bool) {
	if given != "" {
		return given, false
	}
	return uuid.NewString(), true
}

func main() {
	configFile := flag.String("config", "", "path to a config file")
	passwordFlag := flag.String("password", "", "password for the seeded user (default: randomly generated)")
	flag.Parse()

	ctx := context.Background()

	// Load config
	cfg, err := config.LoadConfig(viper.New(), *configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger := logging.NewLogger(cfg.Log.Level, cfg.Log.Dev)

	// Connect to DB
	pool, err := database.NewPool(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer pool.Close()

	store := repository.NewPostgresStore(pool, logger)
	metrics := telemetry.GetMetrics()
	tenantService := services.NewTenantService(store, metrics)
	userService := services.NewUserService(store, services.NewBcryptHasher(0), metrics)

	// 1. Ensure the default tenant exists
	tenants, err := tenantService.List(ctx)
	if err != nil {
		log.Fatalf("Failed to list tenants: %v", err)
	}
	var tenant *models.Tenant
	for _, t := range tenants {
		if t.Name == seedTenantName {
			tenant = t
			break
		}
	}
	if tenant == nil {
		name, description := seedTenantName, "Created by the seed command"
		tenant, err = tenantService.Create(ctx, models.TenantCreate{Name: &name, Description: &description})
		if err != nil {
			log.Fatalf("Failed to create tenant: %v", err)
		}
		logger.Info("Created default tenant", "id", tenant.ID)
	} else {
		logger.Info("Found existing tenant", "id", tenant.ID)
	}

	// 2. Ensure the dev user exists; the unique email makes this idempotent
	email := seedUserEmail
	password, generated := seedPassword(*passwordFlag)
	user, err := userService.Create(ctx, models.UserCreate{Email: &email, Password: &password})
	switch {
	case errors.Is(err, repository.ErrEmailTaken):
		logger.Info("Skipping existing user", "email", email)
	case err != nil:
		log.Fatalf("Failed to create user: %v", err)
	default:
		logger.Info("Seeded user", "id", user.ID, "email", user.Email)
		if generated {
			logger.Warn("Generated password for seeded user; it is not shown again", "email", user.Email, "password", password)
		}
	}

	logger.Info("Seeding complete!")
}
