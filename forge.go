package stickerforge

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/prilive-com/stickerforge/convert"
	"github.com/prilive-com/stickerforge/internal/resilience"
	"github.com/prilive-com/stickerforge/internal/syncutil"
	"github.com/prilive-com/stickerforge/pack"
	"github.com/prilive-com/stickerforge/sticker"
)

// Forge is the unified entry point combining the conversion pipeline
// and the pack state machine behind admission control.
type Forge struct {
	orchestrator *convert.Orchestrator
	packs        *pack.Manager
	limiter      *resilience.RateLimiter
	slots        chan struct{}
	jobs         chan job
	done         chan struct{}
	wg           sync.WaitGroup
	logger       *slog.Logger
	config       forgeConfig
}

type forgeConfig struct {
	limits      sticker.Limits
	maxInFlight int
	workers     int
	timeout     time.Duration

	registry pack.Registry
	fetcher  pack.Fetcher

	fontPath     string
	videoDecoder convert.FrameDecoder

	limiterConfig resilience.RateLimiterConfig

	logger *slog.Logger
}

// Option configures the Forge.
type Option func(*forgeConfig)

// WithLimits overrides the platform limits. Defaults to
// sticker.DefaultLimits(); use sticker.LoadLimits() to pick up
// environment overrides.
func WithLimits(limits sticker.Limits) Option {
	return func(c *forgeConfig) { c.limits = limits }
}

// WithMaxInFlight caps concurrent conversion requests. Requests beyond
// the cap fail immediately with ErrBusy.
func WithMaxInFlight(n int) Option {
	return func(c *forgeConfig) { c.maxInFlight = n }
}

// WithWorkers sets the conversion worker pool size. Defaults to
// GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(c *forgeConfig) { c.workers = n }
}

// WithRequestTimeout bounds one conversion request end to end.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *forgeConfig) { c.timeout = d }
}

// WithRegistry replaces the default in-memory pack registry.
func WithRegistry(r pack.Registry) Option {
	return func(c *forgeConfig) { c.registry = r }
}

// WithFetcher wires the platform file API used by Kang.
func WithFetcher(f pack.Fetcher) Option {
	return func(c *forgeConfig) { c.fetcher = f }
}

// WithFontPath loads a custom TTF/OTF for text compositing.
func WithFontPath(path string) Option {
	return func(c *forgeConfig) { c.fontPath = path }
}

// WithVideoDecoder wires a frame decoder for video sources. Without it
// video inputs fail with ErrUnsupportedFormat.
func WithVideoDecoder(d convert.FrameDecoder) Option {
	return func(c *forgeConfig) { c.videoDecoder = d }
}

// WithRateLimit sets the global and per-user conversion budgets.
func WithRateLimit(globalRPS float64, perUserRPS float64) Option {
	return func(c *forgeConfig) {
		c.limiterConfig.GlobalRate = rate.Limit(globalRPS)
		c.limiterConfig.PerKeyRate = rate.Limit(perUserRPS)
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *forgeConfig) { c.logger = logger }
}

// New creates a Forge and starts its worker pool.
func New(opts ...Option) (*Forge, error) {
	cfg := forgeConfig{
		limits:        sticker.DefaultLimits(),
		maxInFlight:   32,
		workers:       runtime.GOMAXPROCS(0),
		timeout:       30 * time.Second,
		limiterConfig: resilience.DefaultRateLimiterConfig(),
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.maxInFlight <= 0 || cfg.workers <= 0 || cfg.timeout <= 0 {
		return nil, sticker.WrapError(sticker.ErrInvalidConfig,
			"max in-flight, workers and timeout must be positive")
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	orchOpts := []convert.OrchestratorOption{convert.WithLogger(logger)}
	if cfg.fontPath != "" {
		orchOpts = append(orchOpts, convert.WithFontPath(cfg.fontPath))
	}
	if cfg.videoDecoder != nil {
		orchOpts = append(orchOpts, convert.WithVideoDecoder(cfg.videoDecoder))
	}
	orchestrator, err := convert.NewOrchestrator(cfg.limits, orchOpts...)
	if err != nil {
		return nil, err
	}

	registry := cfg.registry
	if registry == nil {
		registry = pack.NewMemoryRegistry()
	}

	packOpts := []pack.ManagerOption{pack.WithManagerLogger(logger)}
	if cfg.fetcher != nil {
		packOpts = append(packOpts, pack.WithKangSource(cfg.fetcher, orchestrator))
	}
	packs, err := pack.NewManager(registry, cfg.limits, packOpts...)
	if err != nil {
		return nil, err
	}

	f := &Forge{
		orchestrator: orchestrator,
		packs:        packs,
		limiter:      resilience.NewRateLimiter(cfg.limiterConfig),
		slots:        make(chan struct{}, cfg.maxInFlight),
		jobs:         make(chan job),
		done:         make(chan struct{}),
		logger:       logger,
		config:       cfg,
	}

	for i := 0; i < cfg.workers; i++ {
		syncutil.Go(&f.wg, f.worker)
	}

	return f, nil
}

type job struct {
	ctx     context.Context
	request convert.Request
	result  chan jobResult
}

type jobResult struct {
	candidate *sticker.Candidate
	err       error
}

func (f *Forge) worker() {
	for {
		select {
		case <-f.done:
			return
		case j := <-f.jobs:
			cand, err := f.orchestrator.Do(j.ctx, j.request)
			j.result <- jobResult{candidate: cand, err: err}
		}
	}
}

// Convert runs one conversion request for user. Admission is bounded:
// when MaxInFlight requests are already running the call fails with
// ErrBusy rather than queueing, and each admitted request runs under
// the configured timeout.
func (f *Forge) Convert(ctx context.Context, user sticker.UserID, req convert.Request) (*sticker.Candidate, error) {
	select {
	case f.slots <- struct{}{}:
	default:
		return nil, sticker.NewError(sticker.KindBusy,
			"%d conversions already in flight", cap(f.slots))
	}
	defer func() { <-f.slots }()

	if err := f.limiter.Wait(ctx, userKey(user)); err != nil {
		// rate.Limiter.Wait reports deadline exhaustion with its own
		// error value, so consult the context directly.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, mapContextErr(ctxErr)
		}
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, f.config.timeout)
	defer cancel()

	j := job{ctx: ctx, request: req, result: make(chan jobResult, 1)}

	select {
	case f.jobs <- j:
	case <-ctx.Done():
		return nil, mapContextErr(ctx.Err())
	}

	select {
	case res := <-j.result:
		if res.err != nil {
			return nil, mapContextErr(res.err)
		}
		return res.candidate, nil
	case <-ctx.Done():
		return nil, mapContextErr(ctx.Err())
	}
}

// CreatePack creates a pack holding first as its only sticker.
func (f *Forge) CreatePack(ctx context.Context, user sticker.UserID, name, title string, first *sticker.Candidate) (*pack.Pack, error) {
	ctx, cancel := context.WithTimeout(ctx, f.config.timeout)
	defer cancel()
	return f.packs.Create(ctx, user, name, title, first)
}

// AddSticker appends a converted candidate to the user's pack.
func (f *Forge) AddSticker(ctx context.Context, user sticker.UserID, name string, cand *sticker.Candidate) (*pack.Pack, error) {
	ctx, cancel := context.WithTimeout(ctx, f.config.timeout)
	defer cancel()
	return f.packs.Add(ctx, user, name, cand)
}

// Kang copies an existing platform sticker into the user's pack,
// re-encoding it to the pack's format when needed. Requires a fetcher
// wired via WithFetcher.
func (f *Forge) Kang(ctx context.Context, user sticker.UserID, name string, ref sticker.Ref) (*pack.Pack, error) {
	ctx, cancel := context.WithTimeout(ctx, f.config.timeout)
	defer cancel()
	p, err := f.packs.Kang(ctx, user, name, ref)
	if err != nil {
		return nil, mapContextErr(err)
	}
	return p, nil
}

// Pack returns the named pack for inspection.
func (f *Forge) Pack(ctx context.Context, user sticker.UserID, name string) (*pack.Pack, error) {
	return f.packs.Get(ctx, user, name)
}

// Limits returns the platform limits in effect.
func (f *Forge) Limits() sticker.Limits { return f.config.limits }

// Close stops the worker pool and releases resources. Requests already
// running on a worker finish; requests still queued fail.
func (f *Forge) Close() error {
	close(f.done)
	f.wg.Wait()
	f.limiter.Close()
	return nil
}

func userKey(user sticker.UserID) string {
	return strconv.FormatInt(int64(user), 10)
}

// mapContextErr surfaces context expiry as the pipeline's timeout
// sentinel so the transport sees one taxonomy.
func mapContextErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return sticker.NewError(sticker.KindTimeout, "conversion deadline exceeded")
	}
	return err
}
