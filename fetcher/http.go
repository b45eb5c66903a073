package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultTimeout      = 20 * time.Second
	DefaultMaxBodyBytes = 10 * 1024 * 1024
	DefaultUserAgent    = "feedsnap/1.0 (+https://github.com/scipunch/feedsnap)"

	maxRedirects = 5
)

var (
	// ErrNetwork marks connection failures, timeouts and non-success statuses
	ErrNetwork = errors.New("network error")
	// ErrTooLarge is returned when a response body exceeds the configured limit
	ErrTooLarge = errors.New("response body too large")
)

// StatusError is returned for any non-2xx response
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s returned HTTP %d", e.URL, e.StatusCode)
}

// Is lets errors.Is(err, ErrNetwork) match status failures
func (e *StatusError) Is(target error) bool {
	return target == ErrNetwork
}

// Response is the raw result of a single GET
type Response struct {
	URL         string
	Body        []byte
	ContentType string
}

// Getter performs a single HTTP GET
type Getter interface {
	Get(ctx context.Context, url string) (Response, error)
}

// Options configures an HTTPFetcher. Zero values fall back to defaults.
type Options struct {
	Timeout      time.Duration
	UserAgent    string
	MaxBodyBytes int64
	Logger       *zap.Logger
	Client       *http.Client
}

// HTTPFetcher performs plain GET requests without retries or caching
type HTTPFetcher struct {
	client       *http.Client
	timeout      time.Duration
	userAgent    string
	maxBodyBytes int64
	logger       *zap.Logger
}

// NewHTTPFetcher creates a fetcher with a per-request timeout
func NewHTTPFetcher(opts Options) *HTTPFetcher {
	f := &HTTPFetcher{
		client:       opts.Client,
		timeout:      opts.Timeout,
		userAgent:    opts.UserAgent,
		maxBodyBytes: opts.MaxBodyBytes,
		logger:       opts.Logger,
	}
	if f.timeout <= 0 {
		f.timeout = DefaultTimeout
	}
	if f.userAgent == "" {
		f.userAgent = DefaultUserAgent
	}
	if f.maxBodyBytes <= 0 {
		f.maxBodyBytes = DefaultMaxBodyBytes
	}
	if f.logger == nil {
		f.logger = zap.NewNop()
	}
	if f.client == nil {
		f.client = &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		}
	}
	return f
}

// Get downloads url and returns its body together with the Content-Type header
func (f *HTTPFetcher) Get(ctx context.Context, url string) (Response, error) {
	var res Response

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return res, fmt.Errorf("%w: invalid request for '%s' with %w", ErrNetwork, url, err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Debug("request failed", zap.String("url", url), zap.Error(err))
		return res, fmt.Errorf("%w: GET %s failed with %w", ErrNetwork, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		f.logger.Debug("unexpected status", zap.String("url", url), zap.Int("status", resp.StatusCode))
		return res, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodyBytes+1))
	if err != nil {
		return res, fmt.Errorf("%w: reading body of '%s' failed with %w", ErrNetwork, url, err)
	}
	if int64(len(body)) > f.maxBodyBytes {
		return res, fmt.Errorf("'%s' exceeds %d bytes: %w", url, f.maxBodyBytes, ErrTooLarge)
	}

	res.URL = resp.Request.URL.String()
	res.Body = body
	res.ContentType = resp.Header.Get("Content-Type")

	f.logger.Debug("fetched",
		zap.String("url", url),
		zap.Int("bytes", len(body)),
		zap.String("content_type", res.ContentType),
		zap.Duration("took", time.Since(start)))

	return res, nil
}
