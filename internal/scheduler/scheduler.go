package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/riclovato/furia-chatbot/internal/config"
	"github.com/riclovato/furia-chatbot/internal/model"
	"github.com/riclovato/furia-chatbot/internal/service"

	"github.com/cenkalti/backoff/v4"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Ticker runs one notification pass.
type Ticker interface {
	Tick(ctx context.Context) (*service.TickReport, error)
}

// Refresher runs one sync cycle.
type Refresher interface {
	Sync(ctx context.Context, opts service.SyncOptions) (*service.SyncResult, error)
}

// Runner drives the periodic notification tick and the background refresh.
// A failing or panicking job is logged and never stops the process.
type Runner struct {
	cron       *cron.Cron
	ticker     Ticker
	refresher  Refresher
	cfg        config.SchedulerConfig
	logger     *logrus.Logger
	newBackOff func() backoff.BackOff

	mu  sync.Mutex
	ctx context.Context
}

// New registers the jobs. refresher may be nil, and an empty refresh spec
// disables the background refresh.
func New(cfg config.SchedulerConfig, loc *time.Location, ticker Ticker, refresher Refresher, logger *logrus.Logger) (*Runner, error) {
	if loc == nil {
		loc = time.UTC
	}
	cl := cronLogger{logger: logger}
	r := &Runner{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithLocation(loc),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		ticker:    ticker,
		refresher: refresher,
		cfg:       cfg,
		logger:    logger,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 2 * time.Second
			b.MaxInterval = 30 * time.Second
			b.MaxElapsedTime = 2 * time.Minute
			return b
		},
		ctx: context.Background(),
	}

	if _, err := r.cron.AddFunc(cfg.TickSpec, func() { r.RunTick(r.baseContext()) }); err != nil {
		return nil, fmt.Errorf("tick spec %q: %w", cfg.TickSpec, err)
	}
	if refresher != nil && cfg.RefreshSpec != "" {
		if _, err := r.cron.AddFunc(cfg.RefreshSpec, func() { r.RunRefresh(r.baseContext()) }); err != nil {
			return nil, fmt.Errorf("refresh spec %q: %w", cfg.RefreshSpec, err)
		}
	}
	return r, nil
}

func (r *Runner) baseContext() context.Context {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ctx
}

// Run refreshes once, starts the cron and blocks until ctx is done.
// Running jobs are allowed to finish before it returns.
func (r *Runner) Run(ctx context.Context) error {
	r.mu.Lock()
	r.ctx = ctx
	r.mu.Unlock()

	if r.refresher != nil {
		r.RunRefresh(ctx)
	}
	r.RunTick(ctx)

	r.cron.Start()
	r.logger.WithFields(logrus.Fields{
		"tick":    r.cfg.TickSpec,
		"refresh": r.cfg.RefreshSpec,
		"lead":    r.cfg.Lead.String(),
	}).Info("scheduler started")

	<-ctx.Done()
	<-r.cron.Stop().Done()
	r.logger.Info("scheduler stopped")
	return nil
}

// RunTick runs one notification pass with bounded retries.
func (r *Runner) RunTick(ctx context.Context) {
	err := r.retry(ctx, "tick", func() error {
		_, err := r.ticker.Tick(ctx)
		return err
	})
	if err != nil {
		r.logger.WithError(err).Error("notification tick failed")
	}
}

// RunRefresh runs one sync cycle with bounded retries. Layout problems are
// not retried since the same page would be parsed again.
func (r *Runner) RunRefresh(ctx context.Context) {
	err := r.retry(ctx, "refresh", func() error {
		_, err := r.refresher.Sync(ctx, service.SyncOptions{})
		if errors.Is(err, model.ErrNoMatchContainers) || errors.Is(err, model.ErrNoValidMatches) {
			return backoff.Permanent(err)
		}
		return err
	})
	if err != nil {
		r.logger.WithError(err).Warn("background refresh failed, keeping previous matches")
	}
}

func (r *Runner) retry(ctx context.Context, job string, fn func() error) error {
	attempt := 0
	op := func() (err error) {
		attempt++
		defer func() {
			if p := recover(); p != nil {
				err = backoff.Permanent(fmt.Errorf("%s panic: %v", job, p))
			}
		}()
		return fn()
	}
	b := backoff.WithContext(backoff.WithMaxRetries(r.newBackOff(), r.cfg.MaxRetries), ctx)
	return backoff.RetryNotify(op, b, func(err error, next time.Duration) {
		r.logger.WithError(err).WithFields(logrus.Fields{
			"job":     job,
			"attempt": attempt,
			"next":    next.String(),
		}).Warn("job failed, retrying")
	})
}
