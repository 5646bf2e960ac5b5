package app

import (
	"fmt"
	"time"

	"chatbase/internal/util"
	"chatbase/pkg/domain"
	"chatbase/pkg/store"
)

const defaultConversationTitle = "New conversation"

// Config holds runtime configuration for the core application.
type Config struct {
	DatabaseURL string
	Store       store.Store
}

// Option customizes App construction.
type Option func(*App)

// WithClock overrides the time source, used by tests to make audit
// timestamps deterministic.
func WithClock(now func() time.Time) Option {
	return func(a *App) {
		if now != nil {
			a.now = now
		}
	}
}

// App is the core application service wiring the persistence layer to the
// operation contracts: identity, conversations, messages, and documents.
type App struct {
	store store.Store
	now   func() time.Time
}

// New constructs the application and seeds the role reference table.
func New(cfg Config, options ...Option) (*App, error) {
	dataStore := cfg.Store
	if dataStore == nil {
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("database URL required")
		}
		var err error
		dataStore, err = store.NewGormStore(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("init postgres store: %w", err)
		}
	}
	a := &App{
		store: dataStore,
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, option := range options {
		if option != nil {
			option(a)
		}
	}
	if err := a.seedRoles(); err != nil {
		return nil, fmt.Errorf("seed roles: %w", err)
	}
	return a, nil
}

// Store exposes the underlying store, mainly for bootstrap tooling.
func (a *App) Store() store.Store { return a.store }

func (a *App) seedRoles() error {
	seed := []struct {
		name, description string
	}{
		{domain.RoleSuperadmin, "Full system access"},
		{domain.RoleAdmin, "Platform administrators"},
		{domain.RoleAgent, "Support agents"},
		{domain.RoleCustomer, "End customers"},
		{domain.RoleGuest, "Guest users with limited access"},
	}
	now := a.now()
	roles := make([]domain.Role, 0, len(seed))
	for _, s := range seed {
		roles = append(roles, domain.Role{
			ID:          util.NewID(),
			Name:        s.name,
			Description: s.description,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}
	return a.store.SeedRoles(roles)
}
