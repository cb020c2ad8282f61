// Package fetch downloads images and JSON metadata from the public space APIs.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"time"

	"golang.org/x/time/rate"

	"github.com/Alextopher/cosmosnaps/internal/store"
)

const (
	// DefaultTimeout bounds every request made by a Client.
	DefaultTimeout = 30 * time.Second
	// DefaultExt is used when the image URL has no extension.
	DefaultExt = ".jpg"
	// DefaultPrefix names files downloaded without a prefix.
	DefaultPrefix = "image"
)

// Client issues rate limited HTTP requests with a bounded timeout.
type Client struct {
	http      *http.Client
	limiter   *rate.Limiter
	userAgent string
	logger    *slog.Logger
}

// Option configures a Client.
type Option func(c *Client)

// Timeout sets the per request timeout.
func Timeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// RateLimit limits the client to r requests per second with the given burst.
// A zero or negative r disables limiting.
func RateLimit(r float64, burst int) Option {
	return func(c *Client) {
		if r <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(r), burst)
	}
}

// UserAgent sets the User-Agent header sent with every request.
func UserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// HTTPClient replaces the underlying http.Client, keeping the configured timeout.
func HTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		timeout := c.http.Timeout
		c.http = hc
		if c.http.Timeout == 0 {
			c.http.Timeout = timeout
		}
	}
}

// NewClient creates a new Client.
func NewClient(logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		http:   &http.Client{Timeout: DefaultTimeout},
		logger: logger,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Client) get(ctx context.Context, rawURL string, query url.Values) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if len(query) > 0 {
		q := u.Query()
		for k, vs := range query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &RemoteError{URL: redact(u), Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, &RemoteError{URL: redact(u), StatusCode: resp.StatusCode}
	}

	return resp, nil
}

// GetJSON fetches rawURL with the extra query parameters and decodes the body into v.
func (c *Client) GetJSON(ctx context.Context, rawURL string, query url.Values, v any) error {
	resp, err := c.get(ctx, rawURL, query)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return &RemoteError{URL: rawURL, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode: %w", err)}
	}
	return nil
}

// Download fetches an image and saves it into dir as {prefix}_{index:03d}{ext}.
//
// The extension is taken from the URL path and defaults to .jpg. An existing
// file with the same name is overwritten. It returns the path of the written file.
func (c *Client) Download(ctx context.Context, rawURL, dir string, index int, prefix string, query url.Values) (string, error) {
	localPath, err := c.download(ctx, rawURL, dir, index, prefix, query)
	if err != nil {
		c.logger.Error("download failed", "url", rawURL, "error", err)
		return "", err
	}

	c.logger.Info("downloaded", "path", localPath)
	return localPath, nil
}

func (c *Client) download(ctx context.Context, rawURL, dir string, index int, prefix string, query url.Values) (string, error) {
	u, err := ValidateURL(rawURL)
	if err != nil {
		return "", err
	}

	fs := store.NewLocalFS(dir)
	if err := fs.Ensure(); err != nil {
		return "", &StorageError{Op: "mkdir", Path: dir, Err: err}
	}

	resp, err := c.get(ctx, rawURL, query)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &RemoteError{URL: rawURL, StatusCode: resp.StatusCode, Err: err}
	}

	name := FileName(prefix, index, Ext(u))
	if err := fs.WriteFile(name, body); err != nil {
		return "", &StorageError{Op: "write", Path: fs.Path(name), Err: err}
	}

	return fs.Path(name), nil
}

// ValidateURL checks that rawURL is a non-empty absolute URL.
func ValidateURL(rawURL string) (*url.URL, error) {
	if rawURL == "" {
		return nil, fmt.Errorf("%w: empty image url", ErrInvalidInput)
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q is not an absolute url", ErrInvalidInput, rawURL)
	}

	return u, nil
}

// Ext returns the extension of the URL path, or DefaultExt if there is none.
func Ext(u *url.URL) string {
	if ext := path.Ext(u.Path); ext != "" {
		return ext
	}
	return DefaultExt
}

// FileName builds the file name for the index-th image of a batch.
func FileName(prefix string, index int, ext string) string {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return fmt.Sprintf("%s_%03d%s", prefix, index, ext)
}

// redact drops the api_key query parameter so it never ends up in logs.
func redact(u *url.URL) string {
	q := u.Query()
	if !q.Has("api_key") {
		return u.String()
	}

	q.Set("api_key", "REDACTED")
	c := *u
	c.RawQuery = q.Encode()
	return c.String()
}
