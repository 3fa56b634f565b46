package httpclient

import (
	"compress/gzip"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

// Options configures outbound HTTP clients.
type Options struct {
	Timeout   time.Duration
	Proxy     string
	UserAgent string
}

// NewHTTPClient builds an http.Client with proxy, timeout and gzip handling.
func NewHTTPClient(opts Options, logger *logrus.Logger) *http.Client {
	transport := &http.Transport{
		MaxIdleConns:        20,
		IdleConnTimeout:     30 * time.Second,
		DisableCompression:  false,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	if opts.Proxy != "" {
		proxyURL, err := url.Parse(opts.Proxy)
		if err != nil {
			logger.WithError(err).WithField("proxy", opts.Proxy).Warn("invalid proxy url, connecting directly")
		} else {
			transport.Proxy = http.ProxyURL(proxyURL)
			logger.WithField("proxy", opts.Proxy).Info("http client using proxy")
		}
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: &compressedTransport{transport: transport, logger: logger},
	}
}

// NewRestyClient wraps NewHTTPClient in resty with request logging.
func NewRestyClient(opts Options, logger *logrus.Logger) *resty.Client {
	c := resty.NewWithClient(NewHTTPClient(opts, logger))
	if opts.UserAgent != "" {
		c.SetHeader("User-Agent", opts.UserAgent)
	}
	c.OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
		logger.WithFields(logrus.Fields{
			"method":   resp.Request.Method,
			"url":      resp.Request.URL,
			"status":   resp.StatusCode(),
			"duration": resp.Time().String(),
		}).Debug("http request")
		return nil
	})
	return c
}

// compressedTransport asks for gzip and decompresses it itself.
type compressedTransport struct {
	transport http.RoundTripper
	logger    *logrus.Logger
}

func (c *compressedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("Accept-Encoding", "gzip")
	resp, err := c.transport.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			c.logger.WithError(err).Warn("gzip decode failed, returning raw body")
			return resp, nil
		}
		resp.Body = &gzipReadCloser{Reader: gzReader, closer: resp.Body}
		resp.Header.Del("Content-Encoding")
		resp.Header.Del("Content-Length")
		resp.ContentLength = -1
	}

	return resp, nil
}

type gzipReadCloser struct {
	*gzip.Reader
	closer io.ReadCloser
}

func (g *gzipReadCloser) Close() error {
	if err := g.Reader.Close(); err != nil {
		g.closer.Close()
		return err
	}
	return g.closer.Close()
}
