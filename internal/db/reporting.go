package db

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/vasiliy-maslov/restaurant-pos/internal/config"
)

// ConnectReporting opens the read-only database/sql handle used by sales
// reports. The schema is owned by the pgx pool and Migrate.
func ConnectReporting(ctx context.Context, cfg config.PostgresConfig) (*sqlx.DB, error) {
	conn, err := sqlx.ConnectContext(ctx, "postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect reporting database: %w", err)
	}
	conn.SetMaxOpenConns(int(max(cfg.MaxConns/2, 1)))
	conn.SetConnMaxLifetime(cfg.MaxConnLifetime)

	log.Info().Str("host", cfg.Host).Str("db", cfg.DBName).Msg("Connected reporting handle to PostgreSQL")
	return conn, nil
}
