package httpfetch

import (
	"context"
	"fmt"

	"github.com/riclovato/furia-chatbot/internal/adapter"
	"github.com/riclovato/furia-chatbot/internal/config"
	"github.com/riclovato/furia-chatbot/internal/interfaces"
	"github.com/riclovato/furia-chatbot/internal/utils/httpclient"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

const Name = "http"

func init() {
	adapter.Register(Name, NewFetcher)
}

// Fetcher downloads the page without running its scripts. Useful when the
// schedule is server-rendered, and for diagnosing selector problems without Chrome.
type Fetcher struct {
	client *resty.Client
	logger *logrus.Logger
}

func NewFetcher(cfg *config.ScraperConfig, logger *logrus.Logger) interfaces.PageFetcher {
	return &Fetcher{
		client: httpclient.NewRestyClient(httpclient.Options{
			Timeout:   cfg.Timeout,
			Proxy:     cfg.Proxy,
			UserAgent: cfg.UserAgent,
		}, logger),
		logger: logger,
	}
}

func (f *Fetcher) Name() string { return Name }

func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	resp, err := f.client.R().
		SetContext(ctx).
		SetHeader("Accept", "text/html").
		Get(url)
	if err != nil {
		return "", fmt.Errorf("get %s: %w", url, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("get %s: status %d", url, resp.StatusCode())
	}
	return resp.String(), nil
}
