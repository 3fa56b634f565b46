package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/riclovato/furia-chatbot/internal/adapter"
	"github.com/riclovato/furia-chatbot/internal/config"
	"github.com/riclovato/furia-chatbot/internal/interfaces"

	"github.com/chromedp/chromedp"
	"github.com/sirupsen/logrus"
)

const Name = "browser"

func init() {
	adapter.Register(Name, NewFetcher)
}

// Session is one headless browser instance. Close must release the process.
type Session interface {
	Render(ctx context.Context, url string, settle time.Duration) (string, error)
	Close() error
}

// Launcher opens a Session.
type Launcher func(ctx context.Context) (Session, error)

// Fetcher renders pages in a fresh headless Chrome per call.
type Fetcher struct {
	cfg    *config.ScraperConfig
	logger *logrus.Logger
	launch Launcher
}

func NewFetcher(cfg *config.ScraperConfig, logger *logrus.Logger) interfaces.PageFetcher {
	return NewFetcherWithLauncher(cfg, logger, chromeLauncher(cfg))
}

// NewFetcherWithLauncher swaps the browser backend; tests use it with fakes.
func NewFetcherWithLauncher(cfg *config.ScraperConfig, logger *logrus.Logger, launch Launcher) *Fetcher {
	return &Fetcher{cfg: cfg, logger: logger, launch: launch}
}

func (f *Fetcher) Name() string { return Name }

func (f *Fetcher) Fetch(ctx context.Context, url string) (html string, err error) {
	session, err := f.launch(ctx)
	if err != nil {
		return "", fmt.Errorf("launch browser: %w", err)
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			f.logger.WithError(cerr).Warn("close browser session")
		}
	}()
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("browser panic: %v", p)
		}
	}()

	start := time.Now()
	html, err = session.Render(ctx, url, f.cfg.SettleDelay)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", url, err)
	}
	f.logger.WithFields(logrus.Fields{
		"url":      url,
		"bytes":    len(html),
		"duration": time.Since(start).String(),
	}).Debug("page rendered")
	return html, nil
}

// chromeSession owns the allocator and tab contexts; cancelling them kills Chrome.
type chromeSession struct {
	ctx         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
}

func chromeLauncher(cfg *config.ScraperConfig) Launcher {
	return func(ctx context.Context) (Session, error) {
		opts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Headless,
			chromedp.DisableGPU,
			chromedp.NoSandbox,
			chromedp.WindowSize(1920, 1080),
			chromedp.Flag("disable-dev-shm-usage", true),
		)
		if cfg.UserAgent != "" {
			opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
		}
		if cfg.ChromePath != "" {
			opts = append(opts, chromedp.ExecPath(cfg.ChromePath))
		}
		if cfg.Proxy != "" {
			opts = append(opts, chromedp.ProxyServer(cfg.Proxy))
		}

		allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
		tabCtx, cancelTab := chromedp.NewContext(allocCtx)
		// start the browser now so launch failures surface here
		if err := chromedp.Run(tabCtx); err != nil {
			cancelTab()
			cancelAlloc()
			return nil, err
		}
		return &chromeSession{ctx: tabCtx, cancelTab: cancelTab, cancelAlloc: cancelAlloc}, nil
	}
}

func (s *chromeSession) Render(ctx context.Context, url string, settle time.Duration) (string, error) {
	// stop the tab when the caller's deadline passes
	stop := context.AfterFunc(ctx, s.cancelTab)
	defer stop()

	var html string
	err := chromedp.Run(s.ctx,
		chromedp.Navigate(url),
		chromedp.Sleep(settle),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", err
	}
	return html, nil
}

func (s *chromeSession) Close() error {
	s.cancelTab()
	s.cancelAlloc()
	return nil
}
