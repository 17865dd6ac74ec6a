// SPDX-License-Identifier: MPL-2.0

package config

import (
	"fmt"
	"os"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/syntax"
)

// ExpandString performs shell parameter expansion on s using environ
// (KEY=VALUE pairs). Only parameter expansion is evaluated; command
// substitution is rejected by the expander. Unset variables expand to "".
func ExpandString(s string, environ []string) (string, error) {
	if !strings.ContainsRune(s, '$') {
		return s, nil
	}

	word, err := syntax.NewParser().Document(strings.NewReader(s))
	if err != nil {
		return "", fmt.Errorf("parsing %q: %w", s, err)
	}

	out, err := expand.Document(&expand.Config{Env: expand.ListEnviron(environ...)}, word)
	if err != nil {
		return "", fmt.Errorf("expanding %q: %w", s, err)
	}
	return out, nil
}

// expandConfig expands every string field of cfg in place.
func expandConfig(cfg *Config, environ []string) error {
	if environ == nil {
		environ = os.Environ()
	}

	var err error
	if cfg.Root, err = ExpandString(cfg.Root, environ); err != nil {
		return fmt.Errorf("root: %w", err)
	}
	if cfg.Notice, err = ExpandString(cfg.Notice, environ); err != nil {
		return fmt.Errorf("notice: %w", err)
	}
	if cfg.HTTP.UserAgent, err = ExpandString(cfg.HTTP.UserAgent, environ); err != nil {
		return fmt.Errorf("http.user_agent: %w", err)
	}
	for i := range cfg.Repositories {
		if cfg.Repositories[i], err = ExpandString(cfg.Repositories[i], environ); err != nil {
			return fmt.Errorf("repositories[%d]: %w", i, err)
		}
	}
	for i := range cfg.Provides {
		if cfg.Provides[i], err = ExpandString(cfg.Provides[i], environ); err != nil {
			return fmt.Errorf("provides[%d]: %w", i, err)
		}
	}
	return nil
}
