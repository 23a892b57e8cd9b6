// Package dsn provides Data Source Name construction utilities for database connections.
package dsn

import (
	"fmt"
	"strings"

	"github.com/configurator-admin/configurator-admin/internal/config"
)

// MySQL builds a go-sql-driver style DSN from the configuration.
func MySQL(cfg *config.Config) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s",
		cfg.DB.User,
		cfg.DB.Password,
		cfg.DB.Host,
		cfg.DB.Port,
		cfg.DB.Name,
		cfg.DB.Extras,
	)
}

// Postgres builds a keyword/value DSN understood by pgx. Extras are appended
// as given, e.g. "sslmode=disable TimeZone=UTC".
func Postgres(cfg *config.Config) string {
	out := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s",
		cfg.DB.Host,
		cfg.DB.Port,
		cfg.DB.User,
		cfg.DB.Password,
		cfg.DB.Name,
	)

	if extras := strings.TrimSpace(cfg.DB.Extras); extras != "" {
		out += " " + extras
	}

	return out
}

// SQLite returns the database file, falling back to a file named after the
// database.
func SQLite(cfg *config.Config) string {
	if cfg.DB.Path != "" {
		return cfg.DB.Path
	}

	if cfg.DB.Name != "" {
		return cfg.DB.Name + ".db"
	}

	return "configurator.db"
}
