package adapter

import (
	"fmt"

	"github.com/riclovato/furia-chatbot/internal/config"
	"github.com/riclovato/furia-chatbot/internal/interfaces"

	"github.com/sirupsen/logrus"
)

// NewFetcher builds the fetcher named by cfg.Fetcher. The fetcher package must
// be linked in (blank import) so its init has registered the factory.
func NewFetcher(cfg *config.ScraperConfig, logger *logrus.Logger) (interfaces.PageFetcher, error) {
	factory, ok := GetFactory(cfg.Fetcher)
	if !ok {
		return nil, fmt.Errorf("unknown fetcher %q (registered: %v)", cfg.Fetcher, ListFactories())
	}
	f := factory(cfg, logger)
	if f == nil {
		return nil, fmt.Errorf("fetcher %q: factory returned nil", cfg.Fetcher)
	}
	logger.WithField("fetcher", f.Name()).Info("page fetcher ready")
	return f, nil
}
