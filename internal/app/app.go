// Package app initializes and holds long-lived application services, acting as
// a dependency injection container for one crawl run.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub"
	gcsstorage "cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/JakeFAU/supermovie/internal/cache"
	"github.com/JakeFAU/supermovie/internal/config"
	"github.com/JakeFAU/supermovie/internal/crawler"
	"github.com/JakeFAU/supermovie/internal/extract"
	collyfetcher "github.com/JakeFAU/supermovie/internal/fetcher/colly"
	"github.com/JakeFAU/supermovie/internal/id/uuid"
	"github.com/JakeFAU/supermovie/internal/loader"
	"github.com/JakeFAU/supermovie/internal/loader/postgres"
	"github.com/JakeFAU/supermovie/internal/loader/sqlite"
	"github.com/JakeFAU/supermovie/internal/logging"
	"github.com/JakeFAU/supermovie/internal/metrics"
	"github.com/JakeFAU/supermovie/internal/normalize"
	memorypublisher "github.com/JakeFAU/supermovie/internal/publisher/memory"
	pubsubpublisher "github.com/JakeFAU/supermovie/internal/publisher/pubsub"
	"github.com/JakeFAU/supermovie/internal/storage"
	"github.com/JakeFAU/supermovie/internal/storage/gcs"
	"github.com/JakeFAU/supermovie/internal/storage/local"
	"github.com/JakeFAU/supermovie/internal/storage/memory"
)

// App holds the services a crawl run needs. Components not supplied through
// options are built from the configuration.
type App struct {
	cfg       config.Config
	logger    *zap.Logger
	blobs     storage.BlobStore
	loader    loader.Loader
	publisher crawler.Publisher
	fetcher   crawler.Fetcher
	ids       crawler.IDGenerator
	clock     crawler.Clock
	tracker   *crawler.Tracker

	closers []func() error
}

type utcClock struct{}

func (utcClock) Now() time.Time { return time.Now().UTC() }

// Option overrides one component. Components supplied this way are owned by
// the caller and are not closed by App.Close.
type Option func(*App)

// WithBlobStore sets the cache document backend.
func WithBlobStore(b storage.BlobStore) Option { return func(a *App) { a.blobs = b } }

// WithLoader sets the relational output store.
func WithLoader(l loader.Loader) Option { return func(a *App) { a.loader = l } }

// WithPublisher sets the run notifier.
func WithPublisher(p crawler.Publisher) Option { return func(a *App) { a.publisher = p } }

// WithFetcher sets the page fetcher.
func WithFetcher(f crawler.Fetcher) Option { return func(a *App) { a.fetcher = f } }

// WithIDGenerator sets the run ID source.
func WithIDGenerator(g crawler.IDGenerator) Option { return func(a *App) { a.ids = g } }

// WithClock sets the clock used for run timestamps.
func WithClock(c crawler.Clock) Option { return func(a *App) { a.clock = c } }

// New validates cfg and initializes every service. It fails fast: any service
// that cannot be built closes the ones already opened.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{cfg: cfg, logger: logger, tracker: crawler.NewTracker()}
	for _, opt := range opts {
		opt(a)
	}

	if err := a.init(ctx); err != nil {
		if cerr := a.Close(); cerr != nil {
			logger.Warn("close after failed init", zap.Error(cerr))
		}
		return nil, err
	}
	logger.Info("application services initialized",
		zap.String("cache_backend", cfg.Cache.Backend),
		zap.String("db_driver", cfg.DB.Driver),
		zap.Bool("pubsub", cfg.Notify.ProjectID != ""))
	return a, nil
}

func (a *App) init(ctx context.Context) error {
	if a.blobs == nil {
		blobs, err := a.newBlobStore(ctx)
		if err != nil {
			return fmt.Errorf("init cache backend: %w", err)
		}
		a.blobs = blobs
	}
	if a.loader == nil {
		l, err := a.newLoader(ctx)
		if err != nil {
			return fmt.Errorf("init loader: %w", err)
		}
		a.loader = l
		a.closers = append(a.closers, l.Close)
	}
	if a.publisher == nil {
		p, err := a.newPublisher(ctx)
		if err != nil {
			return fmt.Errorf("init publisher: %w", err)
		}
		a.publisher = p
	}
	if a.fetcher == nil {
		a.fetcher = collyfetcher.New(collyfetcher.Config{
			UserAgent: a.cfg.Crawler.UserAgent,
			Timeout:   a.cfg.Timeout(),
		})
	}
	if a.ids == nil {
		a.ids = uuid.New()
	}
	if a.clock == nil {
		a.clock = utcClock{}
	}
	return nil
}

func (a *App) newBlobStore(ctx context.Context) (storage.BlobStore, error) {
	switch a.cfg.Cache.Backend {
	case config.CacheMemory:
		a.logger.Info("using in-memory cache; documents are discarded on exit")
		return memory.NewBlobStore(), nil
	case config.CacheGCS:
		client, err := gcsstorage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("create gcs client: %w", err)
		}
		a.closers = append(a.closers, client.Close)
		a.logger.Info("using gcs cache", zap.String("bucket", a.cfg.Cache.GCSBucket))
		return gcs.New(client, gcs.Config{Bucket: a.cfg.Cache.GCSBucket, Prefix: a.cfg.Cache.Prefix})
	default:
		return local.New(local.Config{BaseDir: a.cfg.Cache.Dir})
	}
}

func (a *App) newLoader(ctx context.Context) (loader.Loader, error) {
	if a.cfg.DB.Driver == config.DriverPostgres {
		return postgres.New(ctx, a.cfg.DB.DSN, a.logger)
	}
	return sqlite.Open(a.cfg.DB.Path, a.logger)
}

func (a *App) newPublisher(ctx context.Context) (crawler.Publisher, error) {
	if a.cfg.Notify.ProjectID == "" {
		return memorypublisher.New(a.logger.Named("notify")), nil
	}
	client, err := pubsub.NewClient(ctx, a.cfg.Notify.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}
	p := pubsubpublisher.New(client.Topic(a.cfg.Notify.Topic))
	a.closers = append(a.closers, func() error {
		p.Stop()
		return client.Close()
	})
	a.logger.Info("publishing run summaries", zap.String("topic", a.cfg.Notify.Topic))
	return p, nil
}

// Tracker exposes the run tracker for the status server.
func (a *App) Tracker() *crawler.Tracker {
	return a.tracker
}

// Run executes one full crawl: crawl, normalize, load, then announce the
// summary. The summary is returned and published whether or not the run
// succeeded.
func (a *App) Run(ctx context.Context) (crawler.RunSummary, error) {
	runID, err := a.ids.NewID()
	if err != nil {
		return crawler.RunSummary{}, fmt.Errorf("generate run id: %w", err)
	}
	logger := logging.ForRun(a.logger, runID)
	a.tracker.Begin(runID, a.clock.Now())

	runErr := a.run(ctx, runID)
	summary := a.tracker.Finish(a.clock.Now(), runErr)
	metrics.ObserveRun(string(summary.Status))

	fields := []zap.Field{
		zap.String("status", string(summary.Status)),
		zap.Int("movies", summary.Movies),
		zap.Int("casts", summary.Casts),
		zap.Int("fetches", summary.Fetches),
		zap.Int("cache_hits", summary.CacheHits),
	}
	if runErr != nil {
		logger.Error("run failed", append(fields, zap.Error(runErr))...)
	} else {
		logger.Info("run finished", fields...)
	}

	// The run context may already be canceled; the notification still goes out.
	if _, err := a.publisher.Publish(context.WithoutCancel(ctx), a.cfg.Notify.Topic, summary); err != nil {
		logger.Warn("publish run summary failed", zap.Error(err))
	}
	return summary, runErr
}

func (a *App) run(ctx context.Context, runID string) error {
	ext, err := extract.New(a.cfg.Source.BaseURL)
	if err != nil {
		return err
	}
	store, err := cache.NewStore(a.blobs, a.logger.Named("cache"))
	if err != nil {
		return err
	}
	engine, err := crawler.NewEngine(crawler.Config{
		CalendarURL:   a.cfg.CalendarURL(),
		Concurrency:   a.cfg.Crawler.Concurrency,
		KnownForLimit: a.cfg.Crawler.KnownForLimit,
	}, a.fetcher, ext, store, a.tracker, a.logger)
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}

	result, err := engine.Run(ctx, runID)
	if err != nil {
		return fmt.Errorf("crawl: %w", err)
	}
	if err := a.loader.Replace(ctx, normalize.Movies(result.Movies), normalize.Casts(result.Casts)); err != nil {
		return fmt.Errorf("load tables: %w", err)
	}
	return nil
}

// Close shuts down every service the App opened, in reverse order.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
