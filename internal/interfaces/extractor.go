package interfaces

import (
	"context"

	"github.com/riclovato/furia-chatbot/internal/config"
	"github.com/riclovato/furia-chatbot/internal/model"

	"github.com/sirupsen/logrus"
)

// PageFetcher returns the rendered HTML of a page. Implementations release
// whatever session they open before returning.
type PageFetcher interface {
	Name() string
	Fetch(ctx context.Context, url string) (string, error)
}

// FetcherFactory builds a PageFetcher from scraper settings.
type FetcherFactory func(cfg *config.ScraperConfig, logger *logrus.Logger) PageFetcher

// Extractor produces the raw match fragments of the schedule page.
// A non-nil error always wraps model.ErrExtraction; an empty schedule is page.Empty.
type Extractor interface {
	FetchRaw(ctx context.Context, force bool) (*model.RawPage, error)
}
