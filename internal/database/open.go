package database

import (
	"database/sql"
	"fmt"

	"movie-discovery-recommender/internal/config"
)

// Open connects to the configured store and returns the dialect to build
// queries for.
func Open(cfg config.StoreConfig) (*sql.DB, Dialect, error) {
	switch cfg.Driver {
	case string(Postgres):
		db, err := NewPostgres(cfg.Postgres)
		return db, Postgres, err
	case string(SQLite):
		db, err := NewSQLite(cfg.SQLitePath)
		return db, SQLite, err
	default:
		return nil, "", fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
