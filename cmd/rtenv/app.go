// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"

	"github.com/invowk/rtenv/internal/activate"
	"github.com/invowk/rtenv/internal/config"
	"github.com/invowk/rtenv/internal/issue"
	"github.com/invowk/rtenv/internal/provision"
	"github.com/invowk/rtenv/internal/transport"
	"github.com/invowk/rtenv/pkg/requirement"
)

type (
	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	// App wires CLI services and shared dependencies. Every command handler
	// receives an App and builds engines through it.
	App struct {
		Config  ConfigProvider
		fs      afero.Fs
		fetcher provision.Fetcher
		stdout  io.Writer
		stderr  io.Writer
		flags   globalFlags
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config ConfigProvider
		// FS backs the provisioning store and file:// downloads.
		FS afero.Fs
		// Fetcher replaces the HTTP transport built from configuration.
		Fetcher provision.Fetcher
		Stdout  io.Writer
		Stderr  io.Writer
	}

	globalFlags struct {
		verbose    bool
		configPath string
		root       string
	}
)

// NewApp creates an App, filling unset dependencies with defaults.
func NewApp(deps Dependencies) *App {
	app := &App{
		Config:  deps.Config,
		fs:      deps.FS,
		fetcher: deps.Fetcher,
		stdout:  deps.Stdout,
		stderr:  deps.Stderr,
	}
	if app.Config == nil {
		app.Config = config.NewProvider()
	}
	if app.fs == nil {
		app.fs = afero.NewOsFs()
	}
	if app.stdout == nil {
		app.stdout = os.Stdout
	}
	if app.stderr == nil {
		app.stderr = os.Stderr
	}
	return app
}

// loadConfig loads configuration honoring --config and --root.
func (a *App) loadConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: a.flags.configPath})
	if err != nil {
		return nil, err
	}
	if a.flags.root != "" {
		cfg.Root = a.flags.root
	}
	if a.flags.verbose {
		cfg.Verbose = true
	}
	return cfg, nil
}

// newLogger returns the engine logger writing to stderr.
func (a *App) newLogger(cfg *config.Config) *log.Logger {
	logger := log.NewWithOptions(a.stderr, log.Options{Prefix: "rtenv"})
	if cfg.Verbose {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

// newEngine builds a provisioning engine from cfg.
func (a *App) newEngine(cfg *config.Config) (*provision.Engine, error) {
	registry := activate.NewRegistry(cfg.Provides...)
	activator, err := activate.New(activate.Mode(cfg.Activation), registry, a.fs)
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("configure activation").
			WithResource(string(cfg.Activation)).
			WithIssue(issue.ActivationFailedId).
			Wrap(err).
			BuildError()
	}

	fetcher := a.fetcher
	if fetcher == nil {
		fetcher = transport.New(
			transport.WithFS(a.fs),
			transport.WithTimeout(cfg.HTTP.Timeout),
			transport.WithUserAgent(cfg.HTTP.UserAgent+"/"+Version),
		)
	}

	return provision.New(
		provision.WithFS(a.fs),
		provision.WithRoot(cfg.Root),
		provision.WithRepositories(cfg.Repositories...),
		provision.WithNotice(cfg.Notice),
		provision.WithNoticeWriter(a.stdout),
		provision.WithLogger(a.newLogger(cfg)),
		provision.WithFetcher(fetcher),
		provision.WithProber(registry),
		provision.WithActivator(activator),
	), nil
}

// manifestPaths returns args, or the default manifest when none are given.
func manifestPaths(args []string) []string {
	if len(args) == 0 {
		return []string{requirement.DefaultManifestName}
	}
	return args
}

// loadManifest reads a manifest and attaches remediation guidance to failures.
func (app *App) loadManifest(path string) (*requirement.Manifest, error) {
	m, err := requirement.LoadManifest(app.fs, path)
	if err == nil {
		return m, nil
	}

	ctx := issue.NewErrorContext().
		WithOperation("load manifest").
		WithResource(path)
	if errors.Is(err, fs.ErrNotExist) {
		ctx.WithIssue(issue.ManifestNotFoundId).
			WithSuggestion("Pass the manifest path as an argument").
			WithSuggestion("Create " + requirement.DefaultManifestName + " in the current directory")
	} else {
		ctx.WithIssue(issue.ManifestParseErrorId).
			WithSuggestion("Check the field named in the error message")
	}
	return nil, ctx.Wrap(err).BuildError()
}
