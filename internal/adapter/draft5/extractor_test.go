package draft5

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/riclovato/furia-chatbot/internal/config"
	"github.com/riclovato/furia-chatbot/internal/model"
	"github.com/riclovato/furia-chatbot/internal/utils/clock"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFetcher struct {
	calls   atomic.Int32
	html    string
	err     error
	release chan struct{} // when set, Fetch blocks until it is closed
}

func (f *stubFetcher) Name() string { return "stub" }

func (f *stubFetcher) Fetch(ctx context.Context, url string) (string, error) {
	f.calls.Add(1)
	if f.release != nil {
		<-f.release
	}
	return f.html, f.err
}

func newTestExtractor(t *testing.T, f *stubFetcher, clk clock.Clock) *Extractor {
	t.Helper()
	cfg := config.Defaults().Scraper
	cfg.URL = pageURL
	cfg.CacheTTL = time.Hour
	l := logrus.New()
	l.SetOutput(io.Discard)
	return NewExtractor(&cfg, f, l, clk)
}

func TestExtractor_CacheHitSkipsFetch(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewManual(time.Date(2025, 4, 20, 12, 0, 0, 0, time.UTC))
	f := &stubFetcher{html: fixture(t, "schedule.html")}
	e := newTestExtractor(t, f, clk)

	first, err := e.FetchRaw(ctx, false)
	require.NoError(t, err)
	require.False(t, first.FromCache)
	require.Len(t, first.Fragments, 3)

	clk.Advance(59 * time.Minute)
	second, err := e.FetchRaw(ctx, false)
	require.NoError(t, err)
	require.True(t, second.FromCache)
	require.Equal(t, first.Fragments, second.Fragments)
	require.EqualValues(t, 1, f.calls.Load())

	// callers cannot corrupt the cache
	second.Fragments[0].Teams[1] = "changed"
	third, err := e.FetchRaw(ctx, false)
	require.NoError(t, err)
	require.Equal(t, "Team Liquid", third.Fragments[0].Teams[1])
}

func TestExtractor_TTLExpiryAndForce(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewManual(time.Date(2025, 4, 20, 12, 0, 0, 0, time.UTC))
	f := &stubFetcher{html: fixture(t, "schedule.html")}
	e := newTestExtractor(t, f, clk)

	_, err := e.FetchRaw(ctx, false)
	require.NoError(t, err)

	page, err := e.FetchRaw(ctx, true)
	require.NoError(t, err)
	require.False(t, page.FromCache)
	require.EqualValues(t, 2, f.calls.Load())

	clk.Advance(time.Hour)
	page, err = e.FetchRaw(ctx, false)
	require.NoError(t, err)
	require.False(t, page.FromCache)
	require.EqualValues(t, 3, f.calls.Load())
}

func TestExtractor_FailuresAreTyped(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewManual(time.Date(2025, 4, 20, 12, 0, 0, 0, time.UTC))

	f := &stubFetcher{err: errors.New("chrome crashed")}
	_, err := newTestExtractor(t, f, clk).FetchRaw(ctx, false)
	require.True(t, errors.Is(err, model.ErrExtraction))

	f = &stubFetcher{html: fixture(t, "changed_layout.html")}
	_, err = newTestExtractor(t, f, clk).FetchRaw(ctx, false)
	require.True(t, errors.Is(err, model.ErrNoMatchContainers))

	f = &stubFetcher{html: fixture(t, "empty.html")}
	page, err := newTestExtractor(t, f, clk).FetchRaw(ctx, false)
	require.NoError(t, err)
	require.True(t, page.Empty)
}

func TestExtractor_FailedRefetchKeepsOldCacheForLater(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewManual(time.Date(2025, 4, 20, 12, 0, 0, 0, time.UTC))
	f := &stubFetcher{html: fixture(t, "schedule.html")}
	e := newTestExtractor(t, f, clk)

	first, err := e.FetchRaw(ctx, false)
	require.NoError(t, err)

	clk.Advance(time.Minute)
	f.err = errors.New("timeout")
	_, err = e.FetchRaw(ctx, true)
	require.Error(t, err)

	page, err := e.FetchRaw(ctx, false)
	require.NoError(t, err)
	require.True(t, page.FromCache)
	require.Equal(t, first.FetchedAt, page.FetchedAt)
}

func TestExtractor_ConcurrentMissesShareOneFetch(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewManual(time.Date(2025, 4, 20, 12, 0, 0, 0, time.UTC))
	f := &stubFetcher{html: fixture(t, "schedule.html"), release: make(chan struct{})}
	e := newTestExtractor(t, f, clk)

	var wg sync.WaitGroup
	fetch := func() {
		defer wg.Done()
		page, err := e.FetchRaw(ctx, true)
		assert.NoError(t, err)
		assert.NotNil(t, page)
	}

	wg.Add(1)
	go fetch()
	require.Eventually(t, func() bool { return f.calls.Load() == 1 }, time.Second, time.Millisecond)

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go fetch()
	}
	time.Sleep(20 * time.Millisecond)
	close(f.release)
	wg.Wait()

	require.EqualValues(t, 1, f.calls.Load())
}
