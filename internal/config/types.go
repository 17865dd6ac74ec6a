// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	// ActivationAuto picks an activator by artifact extension.
	ActivationAuto ActivationMode = "auto"
	// ActivationIndex registers archive class entries without loading code.
	ActivationIndex ActivationMode = "index"
	// ActivationPlugin loads Go plugins.
	ActivationPlugin ActivationMode = "plugin"
	// ActivationUnsupported fetches libraries but never activates them.
	ActivationUnsupported ActivationMode = "unsupported"

	// DefaultTimeout bounds a single HTTP request.
	DefaultTimeout = 5 * time.Minute
	// DefaultNotice is printed once per session before the first download.
	DefaultNotice = "Loading assets, please wait..."
)

var (
	// ErrInvalidActivationMode is returned when an ActivationMode value is not recognized.
	ErrInvalidActivationMode = errors.New("invalid activation mode")
	// ErrInvalidRepository is returned for a repository URL without an http, https or file scheme.
	ErrInvalidRepository = errors.New("invalid repository URL")
	// ErrInvalidTimeout is returned for a negative HTTP timeout.
	ErrInvalidTimeout = errors.New("invalid http timeout")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// ActivationMode selects how fetched libraries are activated. Defined
	// locally to avoid coupling config to the activation package; the CLI
	// converts at the boundary.
	ActivationMode string

	// Config is the rtenv configuration.
	Config struct {
		// Root is the provisioning root directory.
		Root string `json:"root" mapstructure:"root"`
		// Repositories are appended after each library's own repository.
		Repositories []string `json:"repositories" mapstructure:"repositories"`
		// HTTP configures the download transport.
		HTTP HTTPConfig `json:"http" mapstructure:"http"`
		// Activation selects the library activator.
		Activation ActivationMode `json:"activation" mapstructure:"activation"`
		// Notice is the once-per-session download message. Empty disables it.
		Notice string `json:"notice" mapstructure:"notice"`
		// Provides seeds the capability registry with host-provided symbols.
		Provides []string `json:"provides" mapstructure:"provides"`
		// Verbose enables debug logging.
		Verbose bool `json:"verbose" mapstructure:"verbose"`
	}

	// HTTPConfig configures the download transport.
	HTTPConfig struct {
		Timeout   time.Duration `json:"timeout" mapstructure:"timeout"`
		UserAgent string        `json:"user_agent" mapstructure:"user_agent"`
	}

	// InvalidConfigError collects every field-level problem found by Validate.
	InvalidConfigError struct {
		FieldErrors []error
	}
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Root:         ".",
		Repositories: []string{},
		HTTP: HTTPConfig{
			Timeout:   DefaultTimeout,
			UserAgent: "rtenv",
		},
		Activation: ActivationAuto,
		Notice:     DefaultNotice,
		Provides:   []string{},
	}
}

// Validate reports whether m is a known activation mode.
func (m ActivationMode) Validate() error {
	switch m {
	case ActivationAuto, ActivationIndex, ActivationPlugin, ActivationUnsupported:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidActivationMode, string(m))
	}
}

// String returns the string representation of the ActivationMode.
func (m ActivationMode) String() string { return string(m) }

// Validate checks constraints that the CUE schema cannot, such as values that
// only become known after environment expansion.
func (c *Config) Validate() error {
	var errs []error
	if err := c.Activation.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("activation: %w", err))
	}
	if c.HTTP.Timeout < 0 {
		errs = append(errs, fmt.Errorf("http.timeout: %w: %s", ErrInvalidTimeout, c.HTTP.Timeout))
	}
	for i, repo := range c.Repositories {
		if err := validateRepository(repo); err != nil {
			errs = append(errs, fmt.Errorf("repositories[%d]: %w", i, err))
		}
	}
	if len(errs) > 0 {
		return &InvalidConfigError{FieldErrors: errs}
	}
	return nil
}

func validateRepository(repo string) error {
	u, err := url.Parse(repo)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRepository, err)
	}
	switch u.Scheme {
	case "http", "https", "file":
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidRepository, repo)
	}
}

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, 0, len(e.FieldErrors))
	for _, fe := range e.FieldErrors {
		msgs = append(msgs, fe.Error())
	}
	return fmt.Sprintf("invalid config: %s", strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidConfig followed by every field error.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}
