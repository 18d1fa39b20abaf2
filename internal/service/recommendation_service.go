package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"movie-discovery-recommender/internal/models"
	"movie-discovery-recommender/internal/recommend"
)

// DismissScore is recorded when a user dismisses an item without rating it.
const DismissScore = 1

// Catalog is the remote catalog as the services use it.
type Catalog interface {
	recommend.Catalog
	GenreNames(ctx context.Context, kind models.Kind) []string
}

// RecommendationService runs recommendation sessions.
type RecommendationService struct {
	store   Store
	catalog Catalog
	engine  *recommend.Engine
}

// NewRecommendationService creates a RecommendationService.
func NewRecommendationService(store Store, catalog Catalog, opts recommend.Options) *RecommendationService {
	return &RecommendationService{
		store:   store,
		catalog: catalog,
		engine:  recommend.NewEngine(store, catalog, opts),
	}
}

// Session is one interactive recommendation run for a user and kind. Its
// exclusion set starts from the stored ratings and grows as the user rates
// or dismisses items. A Session is not safe for concurrent use.
type Session struct {
	ID     string
	UserID int
	Kind   models.Kind

	svc        *RecommendationService
	prefs      models.Preferences
	exclusions *recommend.ExclusionSet
}

// StartSession loads the user's preferences and rating history for kind.
func (s *RecommendationService) StartSession(ctx context.Context, userID int, kind models.Kind) (*Session, error) {
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return nil, err
	}

	prefs, err := s.store.GetPreferences(ctx, userID, kind)
	if err != nil {
		return nil, fmt.Errorf("load preferences: %w", err)
	}
	exclusions, err := recommend.Initial(ctx, s.store, userID, kind)
	if err != nil {
		return nil, err
	}

	sess := &Session{
		ID:         uuid.NewString(),
		UserID:     userID,
		Kind:       kind,
		svc:        s,
		prefs:      *prefs,
		exclusions: exclusions,
	}
	slog.Info("session started",
		"session_id", sess.ID,
		"user_id", userID,
		"kind", kind,
		"excluded", exclusions.Len(),
	)
	return sess, nil
}

// Recommend is a one-shot session: start, take up to limit items, discard.
func (s *RecommendationService) Recommend(ctx context.Context, userID int, kind models.Kind, limit int) ([]models.CatalogItem, error) {
	sess, err := s.StartSession(ctx, userID, kind)
	if err != nil {
		return nil, err
	}
	return sess.Next(ctx, limit)
}

// Rate records score for the item with the given remote id, fetching and
// caching the item first when it is not cached yet.
func (s *RecommendationService) Rate(ctx context.Context, userID int, kind models.Kind, remoteID, score int) (*models.RatedItem, error) {
	if !models.ValidScore(score) {
		return nil, models.ErrInvalidScore
	}
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return nil, err
	}

	item, err := s.store.GetCachedItemByRemoteID(ctx, kind, remoteID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		fetched, ok := s.catalog.FetchItemDetails(ctx, kind, remoteID)
		if !ok {
			return nil, models.ErrItemNotFound
		}
		item = fetched
	}
	return s.record(ctx, userID, *item, score)
}

// GenreNames lists the genres a user can pick from for kind.
func (s *RecommendationService) GenreNames(ctx context.Context, kind models.Kind) []string {
	return s.catalog.GenreNames(ctx, kind)
}

func (s *RecommendationService) record(ctx context.Context, userID int, item models.CatalogItem, score int) (*models.RatedItem, error) {
	cached, err := s.store.UpsertCachedItem(ctx, item)
	if err != nil {
		return nil, fmt.Errorf("cache item: %w", err)
	}
	if err := s.store.RecordRating(ctx, userID, cached.LocalID, score); err != nil {
		return nil, err
	}

	slog.Info("rating recorded",
		"user_id", userID,
		"kind", cached.Kind,
		"tmdb_id", cached.RemoteID,
		"item_id", cached.LocalID,
		"score", score,
	)
	return &models.RatedItem{
		Rating: models.Rating{UserID: userID, LocalItemID: cached.LocalID, Score: score},
		Item:   *cached,
	}, nil
}

// Preferences returns the preferences the session filters with.
func (sess *Session) Preferences() models.Preferences {
	return sess.prefs
}

// SetPreferences swaps the session's filter; persisting them is the
// caller's job.
func (sess *Session) SetPreferences(prefs models.Preferences) {
	sess.prefs = prefs
}

// Excluded reports whether the remote id will be kept out of this session.
func (sess *Session) Excluded(remoteID int) bool {
	return sess.exclusions.Contains(remoteID)
}

// Next returns up to limit recommendations; limit <= 0 means all.
func (sess *Session) Next(ctx context.Context, limit int) ([]models.CatalogItem, error) {
	items, err := sess.svc.engine.Recommend(ctx, sess.UserID, sess.Kind, sess.prefs, sess.exclusions)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// Rate records the user's score for item and excludes it for the rest of
// the session.
func (sess *Session) Rate(ctx context.Context, item models.CatalogItem, score int) (*models.RatedItem, error) {
	if !models.ValidScore(score) {
		return nil, models.ErrInvalidScore
	}
	rated, err := sess.svc.record(ctx, sess.UserID, item, score)
	if err != nil {
		return nil, err
	}
	sess.exclusions.Add(item.RemoteID)
	return rated, nil
}

// Skip hides the item for the rest of the session without recording anything.
func (sess *Session) Skip(item models.CatalogItem) {
	sess.exclusions.Add(item.RemoteID)
}

// Dismiss records the item as disliked, so it never returns and never seeds.
func (sess *Session) Dismiss(ctx context.Context, item models.CatalogItem) error {
	_, err := sess.Rate(ctx, item, DismissScore)
	return err
}
