// SPDX-License-Identifier: MPL-2.0

package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/spf13/afero"
)

const (
	// DefaultUserAgent is sent when no user agent is configured.
	DefaultUserAgent = "rtenv/dev"

	// DefaultMaxBytes bounds a single download (2 GiB).
	DefaultMaxBytes int64 = 2 << 30

	schemeFile = "file"
)

var (
	// ErrUnexpectedStatus is the sentinel error wrapped by StatusError.
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")

	// ErrUnsupportedScheme is returned for URLs that are neither HTTP(S) nor file://.
	ErrUnsupportedScheme = errors.New("unsupported URL scheme")

	// ErrTooLarge is returned when a response exceeds the configured size limit.
	ErrTooLarge = errors.New("response exceeds size limit")
)

type (
	// StatusError reports a non-2xx response.
	StatusError struct {
		URL        string
		StatusCode int
	}

	// HTTPFetcher downloads URLs into files on an afero filesystem.
	HTTPFetcher struct {
		httpClient *http.Client
		fs         afero.Fs
		userAgent  string
		maxBytes   int64
	}

	// Option configures an HTTPFetcher during construction.
	Option func(*HTTPFetcher)

	// limitedReader fails with ErrTooLarge instead of silently truncating.
	limitedReader struct {
		r         io.Reader
		remaining int64
	}
)

// Error implements the error interface. The URL is already redacted.
func (e *StatusError) Error() string {
	return fmt.Sprintf("fetching %s: unexpected status %d", e.URL, e.StatusCode)
}

// Unwrap returns ErrUnexpectedStatus for errors.Is() compatibility.
func (e *StatusError) Unwrap() error { return ErrUnexpectedStatus }

// IsNotFound reports whether err means the resource does not exist at the
// requested location, which lets callers move on to the next repository.
func IsNotFound(err error) bool {
	if errors.Is(err, os.ErrNotExist) {
		return true
	}
	var se *StatusError
	return errors.As(err, &se) && (se.StatusCode == http.StatusNotFound || se.StatusCode == http.StatusGone)
}

// WithHTTPClient sets a custom HTTP client, useful for tests or proxy configurations.
func WithHTTPClient(c *http.Client) Option {
	return func(f *HTTPFetcher) {
		f.httpClient = c
	}
}

// WithTimeout bounds every request. It replaces the HTTP client with a copy
// carrying the timeout, so apply it after WithHTTPClient.
func WithTimeout(d time.Duration) Option {
	return func(f *HTTPFetcher) {
		if d <= 0 {
			return
		}
		c := *f.httpClient
		c.Timeout = d
		f.httpClient = &c
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(f *HTTPFetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithMaxBytes overrides DefaultMaxBytes.
func WithMaxBytes(n int64) Option {
	return func(f *HTTPFetcher) {
		if n > 0 {
			f.maxBytes = n
		}
	}
}

// WithFS sets the filesystem that destination files and file:// URLs live on.
func WithFS(fsys afero.Fs) Option {
	return func(f *HTTPFetcher) {
		if fsys != nil {
			f.fs = fsys
		}
	}
}

// New creates an HTTPFetcher with sensible defaults.
// Defaults: httpClient=http.DefaultClient, fs=OS filesystem,
// userAgent=DefaultUserAgent, maxBytes=DefaultMaxBytes.
func New(opts ...Option) *HTTPFetcher {
	f := &HTTPFetcher{
		httpClient: http.DefaultClient,
		fs:         afero.NewOsFs(),
		userAgent:  DefaultUserAgent,
		maxBytes:   DefaultMaxBytes,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Open returns a stream of the resource at rawURL. The caller must close it.
func (f *HTTPFetcher) Open(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing URL %s: %w", RedactURL(rawURL), err)
	}

	switch u.Scheme {
	case "http", "https":
		return f.openHTTP(ctx, u)
	case schemeFile:
		file, err := f.fs.Open(u.Path)
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", u.Path, err)
		}
		return limitReadCloser(file, f.maxBytes), nil
	default:
		return nil, fmt.Errorf("%w: %q in %s", ErrUnsupportedScheme, u.Scheme, RedactURL(rawURL))
	}
}

// FetchToFile streams the resource at rawURL into dst, creating or truncating
// it. On failure dst is removed. Callers that need atomic visibility pass a
// temporary path and rename it afterwards.
func (f *HTTPFetcher) FetchToFile(ctx context.Context, rawURL, dst string) (err error) {
	body, err := f.Open(ctx, rawURL)
	if err != nil {
		return err
	}
	defer func() { _ = body.Close() }() // read-only stream

	out, err := f.fs.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dst, err)
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing %s: %w", dst, closeErr)
		}
		if err != nil {
			// Best-effort removal of a partially written file.
			_ = f.fs.Remove(dst)
		}
	}()

	if _, err := io.Copy(out, body); err != nil {
		return fmt.Errorf("downloading %s: %w", RedactURL(rawURL), err)
	}
	return nil
}

func (f *HTTPFetcher) openHTTP(ctx context.Context, u *url.URL) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", RedactURL(u.String()), err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		return nil, &StatusError{URL: RedactURL(u.String()), StatusCode: resp.StatusCode}
	}

	if resp.ContentLength > f.maxBytes {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("fetching %s: %w (%d > %d bytes)", RedactURL(u.String()), ErrTooLarge, resp.ContentLength, f.maxBytes)
	}

	return limitReadCloser(resp.Body, f.maxBytes), nil
}

func limitReadCloser(rc io.ReadCloser, n int64) io.ReadCloser {
	return struct {
		io.Reader
		io.Closer
	}{&limitedReader{r: rc, remaining: n}, rc}
}

func (l *limitedReader) Read(p []byte) (int, error) {
	if l.remaining < 0 {
		return 0, ErrTooLarge
	}
	// Allow one extra byte through so an exact-size body is not rejected.
	if int64(len(p)) > l.remaining+1 {
		p = p[:l.remaining+1]
	}
	n, err := l.r.Read(p)
	l.remaining -= int64(n)
	if l.remaining < 0 {
		return n, ErrTooLarge
	}
	return n, err
}

// RedactURL strips user info, query and fragment from a URL
// for safe inclusion in logs and error messages.
func RedactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "<invalid-url>"
	}
	u.User = nil
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}

// JoinURL appends a slash-separated relative path to a repository base URL.
func JoinURL(base, rel string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parsing URL %s: %w", RedactURL(base), err)
	}
	return u.JoinPath(rel).String(), nil
}
