package draft5

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/riclovato/furia-chatbot/internal/config"
	"github.com/riclovato/furia-chatbot/internal/interfaces"
	"github.com/riclovato/furia-chatbot/internal/model"
	"github.com/riclovato/furia-chatbot/internal/utils/clock"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// Extractor fetches the schedule page and caches the raw result for a TTL.
type Extractor struct {
	url       string
	ttl       time.Duration
	timeout   time.Duration
	selectors config.SelectorsConfig
	fetcher   interfaces.PageFetcher
	logger    *logrus.Logger
	clock     clock.Clock

	mu       sync.Mutex
	cached   *model.RawPage
	cachedAt time.Time

	// concurrent misses share one fetch, so one browser session at a time
	group singleflight.Group
}

func NewExtractor(cfg *config.ScraperConfig, fetcher interfaces.PageFetcher, logger *logrus.Logger, clk clock.Clock) *Extractor {
	if clk == nil {
		clk = clock.Real()
	}
	return &Extractor{
		url:       cfg.URL,
		ttl:       cfg.CacheTTL,
		timeout:   cfg.Timeout,
		selectors: cfg.Selectors,
		fetcher:   fetcher,
		logger:    logger,
		clock:     clk,
	}
}

// FetchRaw returns the cached page while the TTL holds, unless force is set.
func (e *Extractor) FetchRaw(ctx context.Context, force bool) (*model.RawPage, error) {
	if !force {
		if page, ok := e.fromCache(); ok {
			e.logger.WithField("age", e.clock.Now().Sub(page.FetchedAt).Round(time.Second).String()).Debug("schedule served from cache")
			return page, nil
		}
	}

	// the shared fetch must not die with whichever caller started it
	fetchCtx := context.WithoutCancel(ctx)
	ch := e.group.DoChan("schedule", func() (any, error) {
		return e.fetch(fetchCtx)
	})
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", model.ErrExtraction, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*model.RawPage).Clone(), nil
	}
}

func (e *Extractor) fromCache() (*model.RawPage, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cached == nil || e.clock.Now().Sub(e.cachedAt) >= e.ttl {
		return nil, false
	}
	page := e.cached.Clone()
	page.FromCache = true
	return page, true
}

func (e *Extractor) fetch(ctx context.Context) (*model.RawPage, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	// 1. render
	doc, err := e.fetcher.Fetch(ctx, e.url)
	if err != nil {
		e.logger.WithError(err).WithFields(logrus.Fields{
			"url":     e.url,
			"fetcher": e.fetcher.Name(),
		}).Warn("schedule fetch failed")
		return nil, fmt.Errorf("%w: %v", model.ErrExtraction, err)
	}

	// 2. locate fragments
	page, err := ParsePage(doc, e.url, e.selectors)
	if err != nil {
		fields := logrus.Fields{"url": e.url, "bytes": len(doc)}
		if errors.Is(err, model.ErrNoMatchContainers) {
			e.logger.WithFields(fields).Warn("no match containers and no empty-schedule notice; selectors may be stale")
		} else {
			e.logger.WithError(err).WithFields(fields).Warn("schedule parse failed")
		}
		return nil, err
	}

	// 3. cache
	page.FetchedAt = e.clock.Now()
	e.mu.Lock()
	e.cached = page
	e.cachedAt = page.FetchedAt
	e.mu.Unlock()

	e.logger.WithFields(logrus.Fields{
		"fragments": len(page.Fragments),
		"empty":     page.Empty,
		"reference": page.ReferenceDate,
	}).Info("schedule fetched")
	return page, nil
}
