// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/invowk/rtenv/internal/maven"
	"github.com/invowk/rtenv/internal/store"
	"github.com/invowk/rtenv/internal/transport"
	"github.com/invowk/rtenv/pkg/checksum"
	"github.com/invowk/rtenv/pkg/requirement"
)

// LoadDependencies provisions the library requirements of set in
// declaration order and records one outcome per requirement in the session
// report.
func (e *Engine) LoadDependencies(ctx context.Context, s *Session, set *requirement.Set) {
	ctx = withSession(ctx, s)
	for _, l := range set.Libraries {
		o := e.provisionLibrary(ctx, s, l)
		if o.Err != nil {
			s.logger.Error("library not provisioned", "requirement", o.Key, "target", o.Target, "error", o.Err)
		}
		s.report.add(o)
	}
}

func (e *Engine) provisionLibrary(ctx context.Context, s *Session, l requirement.LibraryRequirement) Outcome {
	o := Outcome{Kind: KindLibrary, Key: l.Key()}

	// Already satisfied by the host: touch neither cache nor network.
	if l.Probe != "" && e.prober.Probe(l.Probe) {
		s.logger.Debug("probe resolvable, skipping", "requirement", o.Key, "probe", l.Probe)
		o.Status = StatusSkipped
		return o
	}

	if err := l.Validate(); err != nil {
		o.Status, o.Err = StatusFailed, &ConfigurationError{Key: o.Key, Err: err}
		return o
	}
	coord, err := requirement.ParseCoordinate(l.Coordinate)
	if err != nil {
		o.Status, o.Err = StatusFailed, &ConfigurationError{Key: o.Key, Err: err}
		return o
	}

	o.Target = e.store.LibPath(coord.Group, coord.Artifact, coord.Version, store.DescriptorExt)
	repos := e.repositories(l)

	project, descFetched, err := e.loadDescriptor(ctx, s, coord, o.Target, repos)
	if err != nil {
		o.Status, o.Err = StatusFailed, err
		return o
	}

	// The cache and repository layout follow the requested coordinate, not
	// the descriptor's own (possibly uninterpolated) one.
	res, err := e.resolver.Resolve(ctx, project.WithCoordinate(coord), repos)
	if err != nil {
		o.Status, o.Err = StatusFailed, classifyFetch(o.Key, err)
		return o
	}
	o.Artifacts = res.Artifacts
	for _, u := range res.Unresolved {
		o.Warnings = append(o.Warnings, "unresolved version: "+u)
	}
	for _, f := range res.Failed {
		o.Warnings = append(o.Warnings, f.Error())
	}

	var errs []error
	for _, artifact := range res.Artifacts {
		if err := e.activator.Activate(ctx, artifact); err != nil {
			errs = append(errs, &ActivationError{Key: o.Key, Artifact: artifact, Err: err})
		}
	}
	if len(errs) == 0 && l.Probe != "" && !e.prober.Probe(l.Probe) {
		errs = append(errs, &ActivationError{Key: o.Key, Err: fmt.Errorf("%w: %s", ErrProbeUnresolved, l.Probe)})
	}
	if len(errs) > 0 {
		o.Status, o.Err = StatusFailed, errors.Join(errs...)
		return o
	}

	o.Status = StatusCached
	if descFetched || res.Fetched > 0 {
		o.Status = StatusFetched
		s.logger.Info("fetched library", "requirement", o.Key, "artifacts", len(res.Artifacts))
	}
	return o
}

// loadDescriptor parses the cached descriptor at local when it and its
// sidecar agree, else reads it from the first repository that has it. A
// fetched descriptor is not written here; the resolver persists it.
func (e *Engine) loadDescriptor(ctx context.Context, s *Session, coord requirement.Coordinate, local string, repos []string) (*maven.Project, bool, error) {
	if p, ok := e.cachedDescriptor(s, local); ok {
		s.logger.Debug("descriptor cache hit", "requirement", coord, "target", local)
		return p, false, nil
	}

	rel := store.CoordinatePath(coord.Group, coord.Artifact, coord.Version, store.DescriptorExt)
	var errs []error
	for _, repo := range repos {
		u, err := transport.JoinURL(repo, rel)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		p, err := maven.FetchDescriptor(ctx, e.fetcher, u)
		if err == nil {
			return p, true, nil
		}
		errs = append(errs, err)
		if ctx.Err() != nil {
			break
		}
	}
	return nil, false, &FetchError{Key: coord.String(), Err: errors.Join(errs...)}
}

func (e *Engine) cachedDescriptor(s *Session, local string) (*maven.Project, bool) {
	if !e.store.Exists(local) {
		return nil, false
	}
	digest, err := e.store.ReadSidecar(local)
	if err != nil {
		return nil, false
	}
	if err := e.hasher.Verify(local, digest); err != nil {
		s.logger.Info("cached descriptor is stale", "target", local, "error", err)
		return nil, false
	}
	data, err := e.store.ReadFile(local)
	if err != nil {
		return nil, false
	}
	p, err := maven.Parse(data)
	if err != nil {
		s.logger.Warn("cached descriptor unreadable", "target", local, "error", err)
		return nil, false
	}
	return p, true
}

// repositories returns the requirement's repository followed by the
// configured fallbacks, without duplicates.
func (e *Engine) repositories(l requirement.LibraryRequirement) []string {
	repos := make([]string, 0, 1+len(e.cfg.Repositories))
	for _, r := range append([]string{l.Repository}, e.cfg.Repositories...) {
		r = strings.TrimRight(strings.TrimSpace(r), "/")
		if r != "" && !slices.Contains(repos, r) {
			repos = append(repos, r)
		}
	}
	return repos
}

func classifyFetch(key string, err error) error {
	if errors.Is(err, checksum.ErrMismatch) {
		return &IntegrityError{Key: key, Err: err}
	}
	return &FetchError{Key: key, Err: err}
}

func redact(u string) string { return transport.RedactURL(u) }
