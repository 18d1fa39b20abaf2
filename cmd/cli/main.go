package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"movie-discovery-recommender/internal/config"
	"movie-discovery-recommender/internal/database"
	"movie-discovery-recommender/internal/logging"
	"movie-discovery-recommender/internal/models"
	"movie-discovery-recommender/internal/recommend"
	"movie-discovery-recommender/internal/repository"
	"movie-discovery-recommender/internal/service"
	"movie-discovery-recommender/internal/tmdb"
)

func main() {
	username := flag.String("user", "", "username to log in as (created on first use)")
	kindFlag := flag.String("kind", "movie", "catalog to browse: movie or tv")
	batch := flag.Int("batch", 10, "recommendations fetched per round")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}
	slog.SetDefault(logging.New(os.Stderr, cfg.LogLevel, false))

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	kind, err := models.ParseKind(*kindFlag)
	if err != nil {
		slog.Error("invalid -kind", "error", err)
		os.Exit(1)
	}

	db, dialect, err := database.Open(cfg.Store)
	if err != nil {
		slog.Error("failed to open store", "driver", cfg.Store.Driver, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb, err := database.NewRedis(cfg.Redis)
	if err != nil {
		slog.Debug("running without Redis", "error", err)
	} else {
		defer rdb.Close()
	}

	store := repository.NewSQLStore(db, dialect)
	c := &cli{
		users: service.NewUserService(store, rdb),
		recs: service.NewRecommendationService(store, tmdb.NewClient(cfg.TMDB, rdb), recommend.Options{
			SeedLimit:        cfg.Engine.SeedLimit,
			TargetPoolSize:   cfg.Engine.TargetPoolSize,
			MaxFallbackPages: cfg.Engine.MaxFallbackPages,
			HydrateWorkers:   cfg.Engine.HydrateWorkers,
		}),
		p:     newPrompter(os.Stdin, os.Stdout),
		batch: *batch,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := c.run(ctx, *username, kind); err != nil && !errors.Is(err, io.EOF) {
		slog.Error("session ended with error", "error", err)
		os.Exit(1)
	}
}

type cli struct {
	users *service.UserService
	recs  *service.RecommendationService
	p     *prompter
	batch int
}

func (c *cli) run(ctx context.Context, username string, kind models.Kind) error {
	for username == "" {
		answer, ok := c.p.ask("Username: ")
		if !ok {
			return io.EOF
		}
		username = answer
	}

	user, err := c.users.Login(ctx, username)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	c.p.printf("Welcome, %s.\n", user.Username)

	sess, err := c.recs.StartSession(ctx, user.ID, kind)
	if err != nil {
		return err
	}

	for {
		c.p.printf("\n[%s] 1) recommendations  2) preferences  3) my ratings  4) switch to %s  5) quit\n", sess.Kind, otherKind(sess.Kind))
		choice, ok := c.p.ask("> ")
		if !ok {
			return io.EOF
		}

		switch choice {
		case "1":
			err = c.browse(ctx, sess)
		case "2":
			err = c.editPreferences(ctx, sess)
		case "3":
			err = c.listRatings(ctx, sess)
		case "4":
			sess, err = c.recs.StartSession(ctx, user.ID, otherKind(sess.Kind))
		case "5", "q", "quit":
			return nil
		default:
			c.p.printf("Unknown choice %q\n", choice)
		}
		if err != nil {
			return err
		}
	}
}

// browse shows recommendations one at a time until the user stops or none
// are left.
func (c *cli) browse(ctx context.Context, sess *service.Session) error {
	for {
		items, err := sess.Next(ctx, c.batch)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			c.p.printf("No recommendations available.\n")
			return nil
		}

		for _, item := range items {
			c.p.printf("\n%s\n", formatItem(item))
			if item.Overview != "" {
				c.p.printf("  %s\n", item.Overview)
			}

			for {
				answer, ok := c.p.ask("Rate 1-5, (s)kip, (d)ismiss, (b)ack: ")
				if !ok {
					return io.EOF
				}
				switch answer {
				case "s", "":
					sess.Skip(item)
				case "d":
					if err := sess.Dismiss(ctx, item); err != nil {
						return err
					}
				case "b":
					return nil
				default:
					score, convErr := strconv.Atoi(answer)
					if convErr != nil || !models.ValidScore(score) {
						c.p.printf("Enter a score from 1 to 5.\n")
						continue
					}
					if _, err := sess.Rate(ctx, item, score); err != nil {
						return err
					}
				}
				break
			}
		}
	}
}

func (c *cli) editPreferences(ctx context.Context, sess *service.Session) error {
	cur := sess.Preferences()
	c.p.printf("Leave an answer blank for Any.\n")
	if genres := c.recs.GenreNames(ctx, sess.Kind); len(genres) > 0 {
		c.p.printf("Genres: %s\n", formatList(genres))
	}

	var req models.SetPreferenceRequest
	for {
		answer, ok := c.p.ask(fmt.Sprintf("Genres [%s]: ", formatList(cur.Genres)))
		if !ok {
			return io.EOF
		}
		req.Genres = parseList(answer)

		if answer, ok = c.p.ask(fmt.Sprintf("Languages, ISO 639-1 [%s]: ", formatList(cur.Languages))); !ok {
			return io.EOF
		}
		req.Languages = parseList(answer)

		if answer, ok = c.p.ask(fmt.Sprintf("Year range [%s]: ", formatRange(cur.YearMin, cur.YearMax))); !ok {
			return io.EOF
		}
		var err error
		if req.YearMin, req.YearMax, err = parseRange(answer); err != nil {
			c.p.printf("%v\n", err)
			continue
		}

		if answer, ok = c.p.ask(fmt.Sprintf("Runtime minutes [%s]: ", formatRange(cur.RuntimeMin, cur.RuntimeMax))); !ok {
			return io.EOF
		}
		if req.RuntimeMin, req.RuntimeMax, err = parseRange(answer); err != nil {
			c.p.printf("%v\n", err)
			continue
		}

		if answer, ok = c.p.ask("Minimum rating 0-10: "); !ok {
			return io.EOF
		}
		if req.MinRating, err = parseOptionalFloat(answer); err != nil {
			c.p.printf("%v\n", err)
			continue
		}

		if answer, ok = c.p.ask(fmt.Sprintf("Streaming providers [%s]: ", formatList(cur.Providers))); !ok {
			return io.EOF
		}
		req.Providers = parseList(answer)
		break
	}

	saved, err := c.users.SetPreferences(ctx, sess.UserID, sess.Kind, req)
	if err != nil {
		return err
	}
	sess.SetPreferences(*saved)
	c.p.printf("Preferences saved.\n")
	return nil
}

func (c *cli) listRatings(ctx context.Context, sess *service.Session) error {
	rated, err := c.users.ListRatings(ctx, sess.UserID, sess.Kind)
	if err != nil {
		return err
	}
	if len(rated) == 0 {
		c.p.printf("Nothing rated yet.\n")
		return nil
	}
	for _, r := range rated {
		c.p.printf("%d/5  %s\n", r.Score, formatItem(r.Item))
	}
	return nil
}

func otherKind(k models.Kind) models.Kind {
	if k == models.KindMovie {
		return models.KindTV
	}
	return models.KindMovie
}
