package database

import (
	"context"
	"fmt"

	"github.com/checkfox/lead_engage/internal/config"
	"github.com/checkfox/lead_engage/migrations"
)

// applicationName tags connections opened by the api and worker binaries
const applicationName = "lead_engage"

// ConfigFrom maps application settings onto a pool Config
func ConfigFrom(cfg *config.Config) Config {
	return Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		ApplicationName: applicationName,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}
}

// InitFromConfig opens the pool described by the application config
func InitFromConfig(cfg *config.Config) (*DB, error) {
	db, err := New(ConfigFrom(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return db, nil
}

// RunMigrations applies the embedded schema migrations
func RunMigrations(ctx context.Context, db *DB) error {
	if err := NewMigrationRunner(db, migrations.FS).Run(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}
