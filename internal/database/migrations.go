package database

import (
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
)

// Dialect names a SQL flavour supported by the store.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// RunMigrations creates the schema if it does not exist yet.
func RunMigrations(db *sql.DB, dialect Dialect) error {
	pk := "SERIAL PRIMARY KEY"
	if dialect == SQLite {
		pk = "INTEGER PRIMARY KEY AUTOINCREMENT"
	}

	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id {{pk}},
			username VARCHAR(100) UNIQUE NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS catalog_items (
			id {{pk}},
			kind VARCHAR(10) NOT NULL,
			tmdb_id INTEGER NOT NULL,
			title VARCHAR(500) NOT NULL,
			year INTEGER,
			genres TEXT NOT NULL DEFAULT '[]',
			language VARCHAR(10) NOT NULL DEFAULT '',
			vote_average DOUBLE PRECISION NOT NULL DEFAULT 0,
			vote_count INTEGER NOT NULL DEFAULT 0,
			runtime INTEGER,
			providers TEXT,
			overview TEXT NOT NULL DEFAULT '',
			poster_path VARCHAR(500) NOT NULL DEFAULT '',
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(kind, tmdb_id)
		)`,
		`CREATE TABLE IF NOT EXISTS ratings (
			user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			item_id INTEGER NOT NULL REFERENCES catalog_items(id) ON DELETE CASCADE,
			score INTEGER NOT NULL CHECK (score BETWEEN 1 AND 5),
			rated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (user_id, item_id)
		)`,
		`CREATE TABLE IF NOT EXISTS preferences (
			user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			kind VARCHAR(10) NOT NULL,
			genres TEXT NOT NULL DEFAULT '[]',
			languages TEXT NOT NULL DEFAULT '[]',
			year_min INTEGER,
			year_max INTEGER,
			runtime_min INTEGER,
			runtime_max INTEGER,
			min_rating DOUBLE PRECISION,
			providers TEXT NOT NULL DEFAULT '[]',
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (user_id, kind)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_ratings_user_rated_at ON ratings(user_id, rated_at)`,
		`CREATE INDEX IF NOT EXISTS idx_catalog_items_kind_tmdb ON catalog_items(kind, tmdb_id)`,
	}

	for _, m := range migrations {
		m = strings.ReplaceAll(m, "{{pk}}", pk)
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}

	slog.Info("database migrations completed", "dialect", dialect)
	return nil
}
