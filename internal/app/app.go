package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jgivc/harmonyfest/internal/adapter/fsadapter"
	"github.com/jgivc/harmonyfest/internal/clock"
	"github.com/jgivc/harmonyfest/internal/config"
	"github.com/jgivc/harmonyfest/internal/countdown"
	"github.com/jgivc/harmonyfest/internal/entity"
	httphandler "github.com/jgivc/harmonyfest/internal/handler/http"
	"github.com/jgivc/harmonyfest/internal/repository/page"
	"github.com/jgivc/harmonyfest/internal/repository/pagefile"
	"github.com/jgivc/harmonyfest/internal/repository/subscriber"
	"github.com/jgivc/harmonyfest/internal/service/build"
	scountdown "github.com/jgivc/harmonyfest/internal/service/countdown"
	"github.com/jgivc/harmonyfest/internal/service/counter"
	"github.com/jgivc/harmonyfest/internal/service/newsletter"
	spage "github.com/jgivc/harmonyfest/internal/service/page"
	"github.com/jgivc/harmonyfest/internal/storage/content"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

const (
	pingTimeout = 5 * time.Second
	dumpTimeout = 30 * time.Second
)

type Builder interface {
	Build(ctx context.Context) (*entity.Page, error)
}

type Dumper interface {
	Dump(ctx context.Context, fileName string) error
}

type App struct {
	cfg        *config.Config
	rdb        *redis.Client
	srv        *http.Server
	builder    Builder
	newsletter Dumper
	log        *slog.Logger
}

// New connects to Redis and wires repositories, services and handlers.
func New(cfg *config.Config, log *slog.Logger) (*App, error) {
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("cannot parse redis url: %w", err)
	}

	rdb := redis.NewClient(opt)

	a, err := newApp(cfg, rdb, afero.NewOsFs(), clock.NewSystem(), log)
	if err != nil {
		rdb.Close()

		return nil, err
	}

	return a, nil
}

func newApp(cfg *config.Config, rdb *redis.Client, fs afero.Fs, c clock.Clock, log *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("cannot connect to redis: %w", err)
	}

	pageRepo, err := page.NewPageRepository(rdb, log)
	if err != nil {
		return nil, err
	}
	subRepo := subscriber.NewSubscriberRepository(rdb, log)

	fsa, err := fsadapter.NewFSAdapterWithFS(fs, cfg.FSAdapterConfig(), c, log)
	if err != nil {
		return nil, err
	}

	store := content.NewContentStorage(fsa, cfg.Content.Workers, log)
	builder := build.NewBuildService(store, fsa, pageRepo, log)
	nl := newsletter.NewNewsletterService(subRepo, fs, c, log)

	engine := countdown.NewEngine(c,
		countdown.WithPeriod(cfg.Countdown.Period),
		countdown.WithLogger(log),
	)

	router := httphandler.NewRouter(&httphandler.Services{
		Page:       spage.NewPageService(pageRepo, log),
		Build:      builder,
		Counter:    counter.NewCounterService(pageRepo, subRepo, log),
		Newsletter: nl,
		Countdown:  scountdown.NewCountdownService(engine, &cfg.Festival, log),
	}, cfg.Handler.BuildTimeout, log)

	return &App{
		cfg: cfg,
		rdb: rdb,
		srv: &http.Server{
			Addr:              cfg.Listen,
			Handler:           router,
			ReadHeaderTimeout: cfg.Handler.ReadHeaderTimeout,
		},
		builder:    builder,
		newsletter: nl,
		log:        log.With(slog.String("item", "App")),
	}, nil
}

func (a *App) Handler() http.Handler {
	return a.srv.Handler
}

// Run builds the page once, then serves until ctx is done. The server has no
// write timeout since countdown streams stay open.
func (a *App) Run(ctx context.Context) error {
	a.Build()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.log.Info("Start listen", slog.String("addr", a.cfg.Listen), slog.String("url", a.cfg.URL))

		if err := a.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("cannot serve on %s: %w", a.cfg.Listen, err)
		}

		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		a.log.Info("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Handler.ShutdownTimeout)
		defer cancel()

		if err := a.srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("cannot shut down server: %w", err)
		}

		return nil
	})

	return g.Wait()
}

func (a *App) Build() {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Handler.BuildTimeout)
	defer cancel()

	page, err := a.builder.Build(ctx)
	if err != nil {
		a.log.Error("Cannot build page", slog.Any("error", err))

		return
	}

	a.log.Info("Page is ready", slog.String("hash", page.Hash), slog.Int("sections", page.Sections))
}

func (a *App) Dump() {
	a.DumpTo(a.cfg.DumpFileName)
}

func (a *App) DumpTo(fileName string) error {
	ctx, cancel := context.WithTimeout(context.Background(), dumpTimeout)
	defer cancel()

	if err := a.newsletter.Dump(ctx, fileName); err != nil {
		a.log.Error("Cannot dump subscribers", slog.Any("error", err))

		return err
	}

	return nil
}

func (a *App) Close() error {
	return a.rdb.Close()
}

// BuildToFile renders the page from the content dir into fileName without
// touching Redis.
func BuildToFile(ctx context.Context, cfg *config.Config, fs afero.Fs, fileName string, log *slog.Logger) (*entity.Page, error) {
	fsa, err := fsadapter.NewFSAdapterWithFS(fs, cfg.FSAdapterConfig(), clock.NewSystem(), log)
	if err != nil {
		return nil, err
	}

	store := content.NewContentStorage(fsa, cfg.Content.Workers, log)
	repo := pagefile.NewPageFileRepository(fs, fileName, log)

	return build.NewBuildService(store, fsa, repo, log).Build(ctx)
}
