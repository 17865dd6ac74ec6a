// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"

	"github.com/invowk/rtenv/internal/activate"
	"github.com/invowk/rtenv/internal/maven"
	"github.com/invowk/rtenv/internal/store"
	"github.com/invowk/rtenv/internal/transport"
	"github.com/invowk/rtenv/pkg/checksum"
	"github.com/invowk/rtenv/pkg/requirement"
)

type (
	// Fetcher streams remote resources. FetchToFile creates or truncates dst.
	Fetcher interface {
		Open(ctx context.Context, url string) (io.ReadCloser, error)
		FetchToFile(ctx context.Context, url, dst string) error
	}

	// Hasher computes file digests. Verify returns an error wrapping
	// checksum.ErrMismatch when the digest differs.
	Hasher interface {
		Sum(path string) (string, error)
		Verify(path, expected string) error
	}

	// Prober reports whether a capability is already resolvable in the
	// process, without side effects.
	Prober interface {
		Probe(symbol string) bool
	}

	// Resolver turns a parsed descriptor into local artifact paths, trying
	// repositories in order.
	Resolver interface {
		Resolve(ctx context.Context, project *maven.Project, repos []string) (*maven.Resolution, error)
	}

	// Activator makes an artifact usable in the running process.
	Activator interface {
		Activate(ctx context.Context, artifactPath string) error
	}

	// Engine provisions the requirements of components into a cache root.
	// An Engine is safe for concurrent use; sessions for the same target
	// share a single download.
	Engine struct {
		cfg       *Config
		store     *store.Store
		fetcher   Fetcher
		hasher    Hasher
		prober    Prober
		resolver  Resolver
		activator Activator
		logger    *log.Logger
		registry  *activate.Registry
	}

	// noticeFetcher triggers the session notice before any network access.
	noticeFetcher struct {
		inner Fetcher
	}
)

// New creates an Engine. Collaborators not set through options default to
// the HTTP transport, SHA-1 file hashing, the Maven resolver and an
// extension-based activator backed by a fresh capability registry.
func New(opts ...Option) *Engine {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	if cfg.FS == nil {
		cfg.FS = afero.NewOsFs()
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard)
	}

	e := &Engine{
		cfg:    cfg,
		store:  store.New(cfg.FS, cfg.Root),
		logger: cfg.Logger,
	}

	base := cfg.Fetcher
	if base == nil {
		base = transport.New(transport.WithFS(cfg.FS))
	}
	e.fetcher = noticeFetcher{inner: base}

	e.hasher = cfg.Hasher
	if e.hasher == nil {
		e.hasher = checksum.New(cfg.FS)
	}

	e.prober = cfg.Prober
	if reg, ok := cfg.Prober.(*activate.Registry); ok {
		e.registry = reg
	}
	if e.prober == nil {
		e.registry = activate.NewRegistry()
		e.prober = e.registry
	}

	e.activator = cfg.Activator
	if e.activator == nil {
		if e.registry == nil {
			e.registry = activate.NewRegistry()
		}
		e.activator, _ = activate.New(activate.ModeAuto, e.registry, cfg.FS) //nolint:errcheck // ModeAuto is always valid
	}

	e.resolver = cfg.Resolver
	if e.resolver == nil {
		e.resolver = maven.NewResolver(e.store, e.fetcher,
			maven.WithHasher(e.hasher),
			maven.WithLogger(e.logger))
	}

	return e
}

// Store returns the cache store.
func (e *Engine) Store() *store.Store { return e.store }

// Registry returns the capability registry the default activator records
// into, or nil when both prober and activator were supplied.
func (e *Engine) Registry() *activate.Registry { return e.registry }

// Inject discovers the requirements of c and provisions them: assets first,
// then libraries. Per-requirement failures never abort the call; they are
// logged and returned in the Report. The error is non-nil only when the
// declarations of c cannot be read.
func (e *Engine) Inject(ctx context.Context, c requirement.Component) (*Report, error) {
	set, err := requirement.Discover(c)
	if err != nil {
		return nil, &ConfigurationError{Key: componentName(c), Err: err}
	}

	s := e.NewSession(componentName(c))
	e.LoadAssets(ctx, s, set)
	e.LoadDependencies(ctx, s, set)

	r := s.Report()
	s.logger.Debug("provisioning finished",
		"cached", r.Count(StatusCached),
		"fetched", r.Count(StatusFetched),
		"skipped", r.Count(StatusSkipped),
		"failed", r.Count(StatusFailed))
	return r, nil
}

func componentName(c requirement.Component) string {
	if s, ok := c.(fmt.Stringer); ok {
		if name := s.String(); name != "" {
			return name
		}
	}
	return fmt.Sprintf("%T", c)
}

// Open implements Fetcher.
func (f noticeFetcher) Open(ctx context.Context, url string) (io.ReadCloser, error) {
	if s := sessionFrom(ctx); s != nil {
		s.Notify()
	}
	return f.inner.Open(ctx, url)
}

// FetchToFile implements Fetcher.
func (f noticeFetcher) FetchToFile(ctx context.Context, url, dst string) error {
	if s := sessionFrom(ctx); s != nil {
		s.Notify()
	}
	return f.inner.FetchToFile(ctx, url, dst)
}
