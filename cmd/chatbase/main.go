package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"chatbase/internal/app"
	"chatbase/internal/config"
	"chatbase/internal/util"
	"chatbase/pkg/domain"
)

// chatbase bootstraps the persistence layer: it opens the database, runs
// migrations, seeds the role reference table, and optionally creates an
// initial admin account.
func main() {
	configPath := flag.String("config", config.ConfigPath, "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: failed to load config: %v\n", err)
		os.Exit(1)
	}
	util.InitLogger(cfg.LogLevel)

	appCore, err := app.New(app.Config{DatabaseURL: cfg.DatabaseURL})
	if err != nil {
		util.Fatal("failed to init app", "err", err)
	}
	slog.Info("database migrated and roles seeded")

	if cfg.AdminEmail != "" {
		username := cfg.AdminUsername
		if username == "" {
			username = "admin"
		}
		user, err := appCore.CreateUser(username, cfg.AdminEmail, cfg.AdminPassword, domain.RoleAdmin)
		switch {
		case errors.Is(err, domain.ErrDuplicateIdentity):
			slog.Info("admin user already exists", "email", cfg.AdminEmail)
		case err != nil:
			util.Fatal("failed to create admin user", "err", err)
		default:
			slog.Info("admin user created", "id", user.ID, "username", user.Username)
		}
	}

	roles, err := appCore.Store().ListRoles()
	if err != nil {
		util.Fatal("failed to list roles", "err", err)
	}
	for _, role := range roles {
		slog.Info("role", "name", role.Name, "description", role.Description)
	}
}
