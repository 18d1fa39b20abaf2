package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/goccy/go-json"

	"movie-discovery-recommender/internal/database"
	"movie-discovery-recommender/internal/models"
)

// SQLStore is the interaction store: users, ratings, preferences and the
// local cache of catalog items. It speaks both Postgres and SQLite.
type SQLStore struct {
	db  *sql.DB
	sb  sq.StatementBuilderType
	now func() time.Time
}

// NewSQLStore wraps an open, migrated database.
func NewSQLStore(db *sql.DB, dialect database.Dialect) *SQLStore {
	var format sq.PlaceholderFormat = sq.Question
	if dialect == database.Postgres {
		format = sq.Dollar
	}
	return &SQLStore{
		db:  db,
		sb:  sq.StatementBuilder.PlaceholderFormat(format),
		now: func() time.Time { return time.Now().UTC() },
	}
}

// ---- Users ----

// CreateUser inserts a new user.
func (s *SQLStore) CreateUser(ctx context.Context, username string) (*models.User, error) {
	now := s.now()
	query, args, err := s.sb.Insert("users").
		Columns("username", "created_at").
		Values(username, now).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build create user: %w", err)
	}

	user := models.User{Username: username, CreatedAt: now}
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&user.ID); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return &user, nil
}

// GetUser returns a user by ID, or models.ErrUserNotFound.
func (s *SQLStore) GetUser(ctx context.Context, id int) (*models.User, error) {
	return s.getUser(ctx, sq.Eq{"id": id})
}

// GetUserByUsername returns a user by name, or models.ErrUserNotFound.
func (s *SQLStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getUser(ctx, sq.Eq{"username": username})
}

func (s *SQLStore) getUser(ctx context.Context, where sq.Eq) (*models.User, error) {
	query, args, err := s.sb.Select("id", "username", "created_at").
		From("users").
		Where(where).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get user: %w", err)
	}

	var user models.User
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&user.ID, &user.Username, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

// ---- Catalog item cache ----

var itemColumns = []string{
	"id", "kind", "tmdb_id", "title", "year", "genres", "language",
	"vote_average", "vote_count", "runtime", "providers", "overview",
	"poster_path", "updated_at",
}

// UpsertCachedItem inserts or refreshes an item keyed by (kind, remote id)
// and returns it with its local id. Runtime, providers and genres already
// cached are kept when the new record lacks them.
func (s *SQLStore) UpsertCachedItem(ctx context.Context, item models.CatalogItem) (*models.CatalogItem, error) {
	genres, err := encodeSet(item.Genres)
	if err != nil {
		return nil, err
	}
	var providers any
	if item.Providers != nil {
		if providers, err = encodeSet(item.Providers); err != nil {
			return nil, err
		}
	}
	if item.UpdatedAt.IsZero() {
		item.UpdatedAt = s.now()
	}

	query, args, err := s.sb.Insert("catalog_items").
		Columns("kind", "tmdb_id", "title", "year", "genres", "language",
			"vote_average", "vote_count", "runtime", "providers", "overview",
			"poster_path", "updated_at").
		Values(string(item.Kind), item.RemoteID, item.Title, nullInt(item.Year), genres,
			item.Language, item.VoteAverage, item.VoteCount, nullInt(item.Runtime),
			providers, item.Overview, item.PosterPath, item.UpdatedAt).
		Suffix(`ON CONFLICT (kind, tmdb_id) DO UPDATE SET
			title = EXCLUDED.title,
			year = EXCLUDED.year,
			genres = CASE WHEN EXCLUDED.genres = '[]' THEN catalog_items.genres ELSE EXCLUDED.genres END,
			language = EXCLUDED.language,
			vote_average = EXCLUDED.vote_average,
			vote_count = EXCLUDED.vote_count,
			runtime = COALESCE(EXCLUDED.runtime, catalog_items.runtime),
			providers = COALESCE(EXCLUDED.providers, catalog_items.providers),
			overview = EXCLUDED.overview,
			poster_path = EXCLUDED.poster_path,
			updated_at = EXCLUDED.updated_at
		RETURNING id`).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build upsert item: %w", err)
	}

	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&item.LocalID); err != nil {
		return nil, fmt.Errorf("upsert item: %w", err)
	}
	return &item, nil
}

// GetCachedItemByLocalID returns a cached item, or nil when absent.
func (s *SQLStore) GetCachedItemByLocalID(ctx context.Context, localID int) (*models.CatalogItem, error) {
	return s.getItem(ctx, sq.Eq{"id": localID})
}

// GetCachedItemByRemoteID returns a cached item, or nil when absent.
func (s *SQLStore) GetCachedItemByRemoteID(ctx context.Context, kind models.Kind, remoteID int) (*models.CatalogItem, error) {
	return s.getItem(ctx, sq.Eq{"kind": string(kind), "tmdb_id": remoteID})
}

func (s *SQLStore) getItem(ctx context.Context, where sq.Eq) (*models.CatalogItem, error) {
	query, args, err := s.sb.Select(itemColumns...).
		From("catalog_items").
		Where(where).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get item: %w", err)
	}

	item, err := scanItem(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil // cache miss
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner, extra ...any) (*models.CatalogItem, error) {
	var (
		item      models.CatalogItem
		kind      string
		year      sql.NullInt64
		runtime   sql.NullInt64
		genres    string
		providers sql.NullString
	)
	dest := []any{
		&item.LocalID, &kind, &item.RemoteID, &item.Title, &year, &genres,
		&item.Language, &item.VoteAverage, &item.VoteCount, &runtime, &providers,
		&item.Overview, &item.PosterPath, &item.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}

	item.Kind = models.Kind(kind)
	item.Year = intPtr(year)
	item.Runtime = intPtr(runtime)

	var err error
	if item.Genres, err = decodeSet(genres); err != nil {
		return nil, err
	}
	if providers.Valid {
		if item.Providers, err = decodeSet(providers.String); err != nil {
			return nil, err
		}
	}
	return &item, nil
}

// ---- Ratings ----

// RecordRating stores a user's score for a cached item; the latest write wins.
func (s *SQLStore) RecordRating(ctx context.Context, userID, localItemID, score int) error {
	if !models.ValidScore(score) {
		return models.ErrInvalidScore
	}

	query, args, err := s.recordRatingQuery(userID, localItemID, score).ToSql()
	if err != nil {
		return fmt.Errorf("build record rating: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("record rating: %w", err)
	}
	return nil
}

// GetRatingsForUser returns the user's ratings of one kind, most recent first.
func (s *SQLStore) GetRatingsForUser(ctx context.Context, userID int, kind models.Kind) ([]models.RatedItem, error) {
	query, args, err := s.ratingsQuery(userID, kind).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get ratings: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query ratings: %w", err)
	}
	defer rows.Close()

	var rated []models.RatedItem
	for rows.Next() {
		var r models.RatedItem
		item, err := scanItem(rows, &r.UserID, &r.LocalItemID, &r.Score, &r.RatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan rating: %w", err)
		}
		r.Item = *item
		rated = append(rated, r)
	}
	return rated, rows.Err()
}

func (s *SQLStore) recordRatingQuery(userID, localItemID, score int) sq.InsertBuilder {
	return s.sb.Insert("ratings").
		Columns("user_id", "item_id", "score", "rated_at").
		Values(userID, localItemID, score, s.now()).
		Suffix(`ON CONFLICT (user_id, item_id) DO UPDATE SET
			score = EXCLUDED.score,
			rated_at = EXCLUDED.rated_at`)
}

func (s *SQLStore) ratingsQuery(userID int, kind models.Kind) sq.SelectBuilder {
	cols := make([]string, 0, len(itemColumns)+4)
	for _, c := range itemColumns {
		cols = append(cols, "c."+c)
	}
	cols = append(cols, "r.user_id", "r.item_id", "r.score", "r.rated_at")

	return s.sb.Select(cols...).
		From("ratings r").
		Join("catalog_items c ON c.id = r.item_id").
		Where(sq.Eq{"r.user_id": userID, "c.kind": string(kind)}).
		OrderBy("r.rated_at DESC", "r.item_id DESC")
}

// ---- Preferences ----

// GetPreferences returns the user's preferences for a kind. A user who never
// saved any gets the permissive default (no constraints).
func (s *SQLStore) GetPreferences(ctx context.Context, userID int, kind models.Kind) (*models.Preferences, error) {
	query, args, err := s.sb.Select("genres", "languages", "year_min", "year_max",
		"runtime_min", "runtime_max", "min_rating", "providers", "updated_at").
		From("preferences").
		Where(sq.Eq{"user_id": userID, "kind": string(kind)}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get preferences: %w", err)
	}

	pref := models.Preferences{UserID: userID, Kind: kind}
	var (
		genres, languages, providers   string
		yearMin, yearMax, rtMin, rtMax sql.NullInt64
		minRating                      sql.NullFloat64
	)
	err = s.db.QueryRowContext(ctx, query, args...).Scan(
		&genres, &languages, &yearMin, &yearMax, &rtMin, &rtMax, &minRating, &providers, &pref.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return &pref, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get preferences: %w", err)
	}

	if pref.Genres, err = decodeSet(genres); err != nil {
		return nil, err
	}
	if pref.Languages, err = decodeSet(languages); err != nil {
		return nil, err
	}
	if pref.Providers, err = decodeSet(providers); err != nil {
		return nil, err
	}
	pref.YearMin, pref.YearMax = intPtr(yearMin), intPtr(yearMax)
	pref.RuntimeMin, pref.RuntimeMax = intPtr(rtMin), intPtr(rtMax)
	if minRating.Valid {
		v := minRating.Float64
		pref.MinRating = &v
	}
	return &pref, nil
}

// SavePreferences replaces the user's preferences for pref.Kind.
func (s *SQLStore) SavePreferences(ctx context.Context, pref models.Preferences) error {
	genres, err := encodeSet(pref.Genres)
	if err != nil {
		return err
	}
	languages, err := encodeSet(pref.Languages)
	if err != nil {
		return err
	}
	providers, err := encodeSet(pref.Providers)
	if err != nil {
		return err
	}
	var minRating any
	if pref.MinRating != nil {
		minRating = *pref.MinRating
	}

	query, args, err := s.sb.Insert("preferences").
		Columns("user_id", "kind", "genres", "languages", "year_min", "year_max",
			"runtime_min", "runtime_max", "min_rating", "providers", "updated_at").
		Values(pref.UserID, string(pref.Kind), genres, languages,
			nullInt(pref.YearMin), nullInt(pref.YearMax),
			nullInt(pref.RuntimeMin), nullInt(pref.RuntimeMax),
			minRating, providers, s.now()).
		Suffix(`ON CONFLICT (user_id, kind) DO UPDATE SET
			genres = EXCLUDED.genres,
			languages = EXCLUDED.languages,
			year_min = EXCLUDED.year_min,
			year_max = EXCLUDED.year_max,
			runtime_min = EXCLUDED.runtime_min,
			runtime_max = EXCLUDED.runtime_max,
			min_rating = EXCLUDED.min_rating,
			providers = EXCLUDED.providers,
			updated_at = EXCLUDED.updated_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build save preferences: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save preferences: %w", err)
	}
	return nil
}

// ---- helpers ----

func encodeSet(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	b, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("encode set: %w", err)
	}
	return string(b), nil
}

func decodeSet(raw string) ([]string, error) {
	out := []string{}
	if raw == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("decode set: %w", err)
	}
	return out, nil
}

func nullInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}
