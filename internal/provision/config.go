// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
)

// DefaultNotice is printed once per session before the first download.
const DefaultNotice = "Loading assets, please wait..."

type (
	// Config holds the settings and collaborators of an Engine. Nil
	// collaborators are replaced by the defaults in New.
	Config struct {
		// FS is the filesystem the cache lives on. Default: the OS filesystem.
		FS afero.Fs

		// Root is the provisioning root; assets/ and libs/ live below it.
		// Default: the current directory.
		Root string

		// Repositories are tried after each library's own repository.
		Repositories []string

		// Notice is printed once per session before the first download.
		// An empty notice disables it.
		Notice string

		// NoticeWriter receives the notice. Default: os.Stdout.
		NoticeWriter io.Writer

		Logger    *log.Logger
		Fetcher   Fetcher
		Hasher    Hasher
		Prober    Prober
		Resolver  Resolver
		Activator Activator
	}

	// Option is a functional option for configuring an Engine.
	Option func(*Config)
)

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Root:         ".",
		Notice:       DefaultNotice,
		NoticeWriter: os.Stdout,
		Logger: log.NewWithOptions(os.Stderr, log.Options{
			Prefix: "rtenv",
		}),
	}
}

// WithFS returns an Option that sets the cache filesystem.
func WithFS(fsys afero.Fs) Option {
	return func(c *Config) {
		c.FS = fsys
	}
}

// WithRoot returns an Option that sets the provisioning root.
func WithRoot(root string) Option {
	return func(c *Config) {
		c.Root = root
	}
}

// WithRepositories returns an Option that appends fallback repositories.
func WithRepositories(repos ...string) Option {
	return func(c *Config) {
		c.Repositories = append(c.Repositories, repos...)
	}
}

// WithNotice returns an Option that sets the session notice.
func WithNotice(notice string) Option {
	return func(c *Config) {
		c.Notice = notice
	}
}

// WithNoticeWriter returns an Option that sets where the notice is printed.
func WithNoticeWriter(w io.Writer) Option {
	return func(c *Config) {
		c.NoticeWriter = w
	}
}

// WithLogger returns an Option that sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}

// WithFetcher returns an Option that replaces the transport.
func WithFetcher(f Fetcher) Option {
	return func(c *Config) {
		c.Fetcher = f
	}
}

// WithHasher returns an Option that replaces the digest collaborator.
func WithHasher(h Hasher) Option {
	return func(c *Config) {
		c.Hasher = h
	}
}

// WithProber returns an Option that replaces the capability probe.
func WithProber(p Prober) Option {
	return func(c *Config) {
		c.Prober = p
	}
}

// WithResolver returns an Option that replaces the artifact resolver.
func WithResolver(r Resolver) Option {
	return func(c *Config) {
		c.Resolver = r
	}
}

// WithActivator returns an Option that replaces the activation strategy.
func WithActivator(a Activator) Option {
	return func(c *Config) {
		c.Activator = a
	}
}

// Apply applies the given options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}
