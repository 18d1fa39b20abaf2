package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"movie-discovery-recommender/internal/models"
)

const (
	prefCacheTTL = 10 * time.Minute
)

// Store is the interaction store as the services use it.
type Store interface {
	CreateUser(ctx context.Context, username string) (*models.User, error)
	GetUser(ctx context.Context, id int) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetPreferences(ctx context.Context, userID int, kind models.Kind) (*models.Preferences, error)
	SavePreferences(ctx context.Context, pref models.Preferences) error
	GetRatingsForUser(ctx context.Context, userID int, kind models.Kind) ([]models.RatedItem, error)
	GetCachedItemByLocalID(ctx context.Context, localID int) (*models.CatalogItem, error)
	GetCachedItemByRemoteID(ctx context.Context, kind models.Kind, remoteID int) (*models.CatalogItem, error)
	UpsertCachedItem(ctx context.Context, item models.CatalogItem) (*models.CatalogItem, error)
	RecordRating(ctx context.Context, userID, localItemID, score int) error
}

// UserService manages users, their preferences and their rating history.
type UserService struct {
	store Store
	redis *redis.Client
}

// NewUserService creates a UserService. rdb may be nil.
func NewUserService(store Store, rdb *redis.Client) *UserService {
	return &UserService{store: store, redis: rdb}
}

func (s *UserService) CreateUser(ctx context.Context, req models.CreateUserRequest) (*models.User, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return nil, fmt.Errorf("username is required")
	}
	return s.store.CreateUser(ctx, username)
}

func (s *UserService) GetUser(ctx context.Context, id int) (*models.User, error) {
	return s.store.GetUser(ctx, id)
}

// Login returns the user named username, creating it on first use.
func (s *UserService) Login(ctx context.Context, username string) (*models.User, error) {
	user, err := s.store.GetUserByUsername(ctx, username)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, models.ErrUserNotFound) {
		return nil, err
	}
	return s.CreateUser(ctx, models.CreateUserRequest{Username: username})
}

// SetPreferences replaces the user's preferences for kind.
func (s *UserService) SetPreferences(ctx context.Context, userID int, kind models.Kind, req models.SetPreferenceRequest) (*models.Preferences, error) {
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return nil, err
	}

	pref := models.Preferences{
		UserID:     userID,
		Kind:       kind,
		Genres:     cleanSet(req.Genres),
		Languages:  cleanSet(req.Languages),
		YearMin:    req.YearMin,
		YearMax:    req.YearMax,
		RuntimeMin: req.RuntimeMin,
		RuntimeMax: req.RuntimeMax,
		MinRating:  req.MinRating,
		Providers:  cleanSet(req.Providers),
	}
	if err := s.store.SavePreferences(ctx, pref); err != nil {
		return nil, fmt.Errorf("save preferences: %w", err)
	}

	s.delCache(ctx, prefCacheKey(userID, kind))

	return s.store.GetPreferences(ctx, userID, kind)
}

// GetPreferences returns the user's preferences for kind; a user who never
// set any gets the unrestricted default.
func (s *UserService) GetPreferences(ctx context.Context, userID int, kind models.Kind) (*models.Preferences, error) {
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return nil, err
	}

	cacheKey := prefCacheKey(userID, kind)
	if cached, err := s.getFromCache(ctx, cacheKey); err == nil {
		var pref models.Preferences
		if json.Unmarshal([]byte(cached), &pref) == nil {
			return &pref, nil
		}
	}

	pref, err := s.store.GetPreferences(ctx, userID, kind)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(pref); err == nil {
		s.setCache(ctx, cacheKey, string(data), prefCacheTTL)
	}
	return pref, nil
}

// ListRatings returns the user's rating history for kind, most recent first.
func (s *UserService) ListRatings(ctx context.Context, userID int, kind models.Kind) ([]models.RatedItem, error) {
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.store.GetRatingsForUser(ctx, userID, kind)
}

// GetItem returns a cached catalog item by local id.
func (s *UserService) GetItem(ctx context.Context, localID int) (*models.CatalogItem, error) {
	item, err := s.store.GetCachedItemByLocalID(ctx, localID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, models.ErrItemNotFound
	}
	return item, nil
}

func prefCacheKey(userID int, kind models.Kind) string {
	return fmt.Sprintf("user:pref:%d:%s", userID, kind)
}

// cleanSet trims entries and drops blanks; "Any" clears the constraint.
func cleanSet(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if strings.EqualFold(v, "any") {
			return []string{}
		}
		out = append(out, v)
	}
	return out
}

// Redis helpers

func (s *UserService) getFromCache(ctx context.Context, key string) (string, error) {
	if s.redis == nil {
		return "", fmt.Errorf("redis not available")
	}
	return s.redis.Get(ctx, key).Result()
}

func (s *UserService) setCache(ctx context.Context, key, value string, ttl time.Duration) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Set(ctx, key, value, ttl).Err(); err != nil {
		slog.Error("failed to set cache", "key", key, "error", err)
	}
}

func (s *UserService) delCache(ctx context.Context, key string) {
	if s.redis == nil {
		return
	}
	s.redis.Del(ctx, key)
}
