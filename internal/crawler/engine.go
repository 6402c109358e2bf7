package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/JakeFAU/supermovie/internal/cache"
	"github.com/JakeFAU/supermovie/internal/logging"
	"github.com/JakeFAU/supermovie/internal/metrics"
	"github.com/JakeFAU/supermovie/internal/ordered"
	"github.com/JakeFAU/supermovie/internal/telemetry"
)

// DefaultKnownForLimit is how many of a person's known-for films get their
// score looked up.
const DefaultKnownForLimit = 4

// Config controls an Engine.
type Config struct {
	// CalendarURL is the absolute URL of the release calendar.
	CalendarURL string
	// Concurrency bounds in-flight keys per stage. 1 crawls sequentially.
	Concurrency int
	// KnownForLimit caps the films scored per person.
	KnownForLimit int
}

// Engine runs the calendar → movie → cast → score crawl.
type Engine struct {
	cfg       Config
	fetcher   Fetcher
	extractor Extractor
	cache     *cache.Store
	tracker   *Tracker
	logger    *zap.Logger
}

// NewEngine constructs an Engine. A nil tracker or logger is allowed.
func NewEngine(
	cfg Config,
	fetcher Fetcher,
	extractor Extractor,
	store *cache.Store,
	tracker *Tracker,
	logger *zap.Logger,
) (*Engine, error) {
	if strings.TrimSpace(cfg.CalendarURL) == "" {
		return nil, errors.New("calendar url is required")
	}
	if fetcher == nil || extractor == nil || store == nil {
		return nil, errors.New("fetcher, extractor, and cache store are required")
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.KnownForLimit <= 0 {
		cfg.KnownForLimit = DefaultKnownForLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		cfg:       cfg,
		fetcher:   fetcher,
		extractor: extractor,
		cache:     store,
		tracker:   tracker,
		logger:    logger.Named("crawler"),
	}, nil
}

// Run crawls everything reachable from the calendar and returns the movies
// and cast members in a deterministic order: index order for movies, and per
// movie the director followed by the stars. People are not deduplicated.
func (e *Engine) Run(ctx context.Context, runID string) (Result, error) {
	logger := logging.ForRun(e.logger, runID)
	ctx, span := otel.Tracer(telemetry.TracerName).Start(ctx, "crawl")
	defer span.End()
	span.SetAttributes(attribute.String("run_id", runID))

	result, err := e.run(ctx, logger)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Result{}, err
	}
	e.tracker.SetCounts(len(result.Movies), len(result.Casts))
	logger.Info("crawl complete",
		zap.Int("movies", len(result.Movies)),
		zap.Int("casts", len(result.Casts)))
	return result, nil
}

func (e *Engine) run(ctx context.Context, logger *zap.Logger) (Result, error) {
	index, err := e.resolveIndex(ctx, logger)
	if err != nil {
		return Result{}, err
	}

	movies, err := e.resolveMovies(ctx, logger, index)
	if err != nil {
		return Result{}, err
	}

	casts, err := e.resolveCasts(ctx, logger, movies)
	if err != nil {
		return Result{}, err
	}

	if err := e.resolveScores(ctx, logger, casts); err != nil {
		return Result{}, err
	}
	return Result{Movies: movies, Casts: casts}, nil
}

// resolveIndex returns the title → movie URL index. A non-empty cached index
// is used as-is; otherwise the calendar is fetched once.
func (e *Engine) resolveIndex(ctx context.Context, logger *zap.Logger) (*ordered.Map[string], error) {
	ctx, span := otel.Tracer(telemetry.TracerName).Start(ctx, "crawl."+string(StageCalendar))
	defer span.End()

	index := cache.Load[string](ctx, e.cache, cache.DocumentMovieIndex)
	if index.Len() > 0 {
		e.tracker.AddCacheHit()
		metrics.ObserveCacheLookup(cache.DocumentMovieIndex, metrics.CacheHit)
		logger.Info("movie index loaded from cache", zap.Int("movies", index.Len()))
		return index, nil
	}
	metrics.ObserveCacheLookup(cache.DocumentMovieIndex, metrics.CacheMiss)

	resp, err := e.fetch(ctx, logger, StageCalendar, e.cfg.CalendarURL)
	if err != nil {
		return nil, err
	}
	entries, err := e.extractor.Calendar(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("extract calendar: %w", err)
	}
	for _, entry := range entries {
		index.Set(strings.ToLower(entry.Title), e.extractor.Resolve(entry.Href))
	}
	if err := cache.Save(ctx, e.cache, index, cache.DocumentMovieIndex); err != nil {
		return nil, fmt.Errorf("save movie index: %w", err)
	}
	logger.Info("movie index built from calendar",
		zap.Int("links", len(entries)),
		zap.Int("movies", index.Len()))
	return index, nil
}

func (e *Engine) resolveMovies(ctx context.Context, logger *zap.Logger, index *ordered.Map[string]) ([]Movie, error) {
	st := newStage(ctx, e, StageMovie, cache.DocumentMovies, e.extractor.Movie)
	urls := make([]string, 0, index.Len())
	for _, entry := range index.Entries() {
		urls = append(urls, entry.Value)
	}

	movies := make([]Movie, len(urls))
	err := e.forEach(ctx, st, len(urls), func(ctx context.Context, i int) error {
		rec, err := resolve(ctx, e, logger, st, urls[i])
		if err != nil {
			return err
		}
		movies[i] = Movie{URL: urls[i], MovieRecord: rec}
		return nil
	})
	if err != nil {
		return nil, err
	}
	st.logSummary(logger, len(urls))
	return movies, nil
}

type castJob struct {
	url      string
	position Position
}

func (e *Engine) resolveCasts(ctx context.Context, logger *zap.Logger, movies []Movie) ([]CastMember, error) {
	var jobs []castJob
	for _, m := range movies {
		if m.DirectorURL != nil {
			jobs = append(jobs, castJob{url: *m.DirectorURL, position: PositionDirector})
		} else {
			logger.Warn("movie has no director link; skipping director", zap.String("movie_url", m.URL))
		}
		for _, star := range m.StarURLs.Entries() {
			jobs = append(jobs, castJob{url: star.Value, position: PositionStar})
		}
	}

	st := newStage(ctx, e, StageCast, cache.DocumentCasts, e.extractor.Cast)
	casts := make([]CastMember, len(jobs))
	err := e.forEach(ctx, st, len(jobs), func(ctx context.Context, i int) error {
		rec, err := resolve(ctx, e, logger, st, jobs[i].url)
		if err != nil {
			return err
		}
		casts[i] = CastMember{URL: jobs[i].url, Position: jobs[i].position, CastRecord: rec}
		return nil
	})
	if err != nil {
		return nil, err
	}
	st.logSummary(logger, len(jobs))
	return casts, nil
}

type scoreJob struct {
	cast  int
	title string
	url   string
}

// resolveScores fills Scores for every cast member from the first
// KnownForLimit known-for films, sharing one film-score cache across people.
func (e *Engine) resolveScores(ctx context.Context, logger *zap.Logger, casts []CastMember) error {
	var jobs []scoreJob
	for i, c := range casts {
		films := c.Films.Entries()
		if len(films) > e.cfg.KnownForLimit {
			films = films[:e.cfg.KnownForLimit]
		}
		for _, film := range films {
			jobs = append(jobs, scoreJob{cast: i, title: film.Key, url: film.Value})
		}
	}

	st := newStage(ctx, e, StageScore, cache.DocumentFilmScores, e.extractor.Score)
	scores := make([]ScoreRecord, len(jobs))
	err := e.forEach(ctx, st, len(jobs), func(ctx context.Context, i int) error {
		rec, err := resolve(ctx, e, logger, st, jobs[i].url)
		if err != nil {
			return err
		}
		scores[i] = rec
		return nil
	})
	if err != nil {
		return err
	}

	for i := range casts {
		casts[i].Scores = ordered.New[ScoreRecord]()
	}
	for i, job := range jobs {
		casts[job.cast].Scores.Set(job.title, scores[i])
	}
	st.logSummary(logger, len(jobs))
	return nil
}

// forEach runs fn for indexes [0, n) with at most Concurrency in flight and
// stops at the first error.
func (e *Engine) forEach(ctx context.Context, st spanNamer, n int, fn func(context.Context, int) error) error {
	ctx, span := otel.Tracer(telemetry.TracerName).Start(ctx, "crawl."+st.stageName())
	defer span.End()
	span.SetAttributes(attribute.Int("keys", n))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Concurrency)
	for i := range n {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(gctx, i)
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func (e *Engine) fetch(ctx context.Context, logger *zap.Logger, stage Stage, url string) (FetchResponse, error) {
	resp, err := e.fetcher.Fetch(ctx, FetchRequest{URL: url, Stage: stage})
	if err != nil {
		return FetchResponse{}, fmt.Errorf("fetch %s %s: %w", stage, url, err)
	}
	e.tracker.AddFetch()
	metrics.ObserveFetch(url, string(stage), resp.StatusCode, len(resp.Body), resp.Duration)
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		logger.Warn("non-success response; extracting what is there",
			zap.String("stage", string(stage)),
			zap.String("url", url),
			zap.Int("status", resp.StatusCode))
	}
	return resp, nil
}

type spanNamer interface {
	stageName() string
}

// stage is one per-key cached crawl step. Document reads, writes, and saves
// happen under mu; concurrent requests for one key share a single fetch.
type stage[V any] struct {
	name     Stage
	document string
	extract  func([]byte) (V, error)

	mu      sync.Mutex
	doc     *ordered.Map[V]
	fetched int
	hits    int

	flights singleflight.Group
}

func newStage[V any](ctx context.Context, e *Engine, name Stage, document string, extract func([]byte) (V, error)) *stage[V] {
	return &stage[V]{
		name:     name,
		document: document,
		extract:  extract,
		doc:      cache.Load[V](ctx, e.cache, document),
	}
}

func (s *stage[V]) stageName() string {
	return string(s.name)
}

func (s *stage[V]) lookup(key string) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.doc.Get(key)
	if ok {
		s.hits++
	}
	return v, ok
}

func (s *stage[V]) logSummary(logger *zap.Logger, keys int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	logger.Info("stage complete",
		zap.String("stage", string(s.name)),
		zap.Int("keys", keys),
		zap.Int("fetched", s.fetched),
		zap.Int("cache_hits", s.hits),
		zap.Int("cached_entries", s.doc.Len()))
}

// resolve returns the record for key from the stage's cache document, or
// fetches, extracts, and persists it. The document is saved before resolve
// returns, so a crash never loses a completed fetch.
func resolve[V any](ctx context.Context, e *Engine, logger *zap.Logger, s *stage[V], key string) (V, error) {
	if v, ok := s.lookup(key); ok {
		e.tracker.AddCacheHit()
		metrics.ObserveCacheLookup(s.document, metrics.CacheHit)
		logger.Debug("cache hit", zap.String("stage", string(s.name)), zap.String("url", key))
		return v, nil
	}

	leader := false
	out, err, _ := s.flights.Do(key, func() (any, error) {
		leader = true
		// Another flight for this key may have finished since the lookup.
		if v, ok := s.lookup(key); ok {
			e.tracker.AddCacheHit()
			metrics.ObserveCacheLookup(s.document, metrics.CacheHit)
			return v, nil
		}
		metrics.ObserveCacheLookup(s.document, metrics.CacheMiss)
		logger.Debug("cache miss", zap.String("stage", string(s.name)), zap.String("url", key))

		resp, err := e.fetch(ctx, logger, s.name, key)
		if err != nil {
			return nil, err
		}
		rec, err := s.extract(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("extract %s %s: %w", s.name, key, err)
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		s.fetched++
		s.doc.Set(key, rec)
		if err := cache.Save(ctx, e.cache, s.doc, s.document); err != nil {
			return nil, fmt.Errorf("save %s: %w", s.document, err)
		}
		return rec, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	if !leader {
		// Joined an in-flight fetch for the same key.
		s.mu.Lock()
		s.hits++
		s.mu.Unlock()
		e.tracker.AddCacheHit()
		metrics.ObserveCacheLookup(s.document, metrics.CacheHit)
		logger.Debug("cache hit", zap.String("stage", string(s.name)), zap.String("url", key))
	}
	return out.(V), nil
}
