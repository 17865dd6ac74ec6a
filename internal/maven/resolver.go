// SPDX-License-Identifier: MPL-2.0

package maven

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"github.com/invowk/rtenv/internal/store"
	"github.com/invowk/rtenv/internal/transport"
	"github.com/invowk/rtenv/pkg/checksum"
	"github.com/invowk/rtenv/pkg/requirement"
)

// DefaultMaxDepth is how many dependency levels below the requested project
// are followed.
const DefaultMaxDepth = 6

// ErrNoRepositories is returned when Resolve is called without repositories.
var ErrNoRepositories = errors.New("no repositories configured")

type (
	// Opener streams remote resources.
	Opener interface {
		Open(ctx context.Context, url string) (io.ReadCloser, error)
	}

	// Fetcher is the transport the resolver downloads through.
	Fetcher interface {
		Opener
		FetchToFile(ctx context.Context, url, dst string) error
	}

	// Hasher computes and verifies file digests.
	Hasher interface {
		Sum(path string) (string, error)
		Verify(path, expected string) error
	}

	// Resolution is the outcome of one Resolve call.
	Resolution struct {
		// Artifacts are local artifact paths, requested project first, then its
		// dependencies nearest first.
		Artifacts []string
		// Fetched counts network downloads (descriptors and artifacts).
		Fetched int
		// Unresolved lists dependencies skipped because their version could
		// not be determined from the descriptor alone.
		Unresolved []string
		// Failed holds errors of transitive dependencies that could not be
		// provisioned. The requested project itself never lands here.
		Failed []error
	}

	// Resolver downloads artifacts into a Store.
	Resolver struct {
		store    *store.Store
		fetcher  Fetcher
		hasher   Hasher
		logger   *log.Logger
		maxDepth int
	}

	// Option configures a Resolver during construction.
	Option func(*Resolver)

	queued struct {
		project *Project
		depth   int
	}
)

// WithHasher overrides the default SHA-1 file hasher.
func WithHasher(h Hasher) Option {
	return func(r *Resolver) { r.hasher = h }
}

// WithLogger sets the logger for cache and download events.
func WithLogger(l *log.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

// WithMaxDepth overrides DefaultMaxDepth. Zero disables transitive resolution.
func WithMaxDepth(depth int) Option {
	return func(r *Resolver) {
		if depth >= 0 {
			r.maxDepth = depth
		}
	}
}

// NewResolver creates a Resolver writing into st and downloading through f.
func NewResolver(st *store.Store, f Fetcher, opts ...Option) *Resolver {
	r := &Resolver{
		store:    st,
		fetcher:  f,
		hasher:   checksum.New(st.FS()),
		logger:   log.New(io.Discard),
		maxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve makes the artifact of root and its runtime dependencies available
// in the libs cache and returns their paths. Paths follow root.Coordinate, so
// callers resolving a requested coordinate pass root.WithCoordinate first.
// The root descriptor is persisted with its sidecar so the next run can skip
// the network. Failures of the root artifact are returned; failures of
// transitive dependencies are collected in the Resolution and logged.
func (r *Resolver) Resolve(ctx context.Context, root *Project, repos []string) (*Resolution, error) {
	if len(repos) == 0 {
		return nil, ErrNoRepositories
	}

	res := &Resolution{}
	rootCoord := root.Coordinate()

	if err := r.persistDescriptor(root); err != nil {
		r.logger.Warn("caching descriptor failed", "requirement", rootCoord, "error", err)
	}

	if root.HasArtifact() {
		path, fetched, err := r.Artifact(ctx, rootCoord, root.Extension(), repos)
		if err != nil {
			return nil, err
		}
		res.add(path, fetched)
	}

	seen := map[string]bool{rootCoord.ID(): true}
	queue := []queued{{project: root, depth: 1}}
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		next := queue[0]
		queue = queue[1:]
		if next.depth > r.maxDepth {
			continue
		}

		deps, unresolved := next.project.RuntimeDependencies()
		for _, d := range unresolved {
			r.logger.Warn("skipping dependency with unresolved version", "requirement", d, "from", next.project.Coordinate())
			res.Unresolved = append(res.Unresolved, d.String())
		}

		for _, d := range deps {
			coord := d.Coordinate()
			if seen[coord.ID()] {
				continue
			}
			seen[coord.ID()] = true

			child, err := r.resolveDependency(ctx, d, repos, res)
			if err != nil {
				r.logger.Warn("transitive dependency failed", "requirement", coord, "error", err)
				res.Failed = append(res.Failed, fmt.Errorf("%s: %w", coord, err))
				continue
			}
			queue = append(queue, queued{project: child, depth: next.depth + 1})
		}
	}

	return res, nil
}

func (r *Resolver) resolveDependency(ctx context.Context, d Dependency, repos []string, res *Resolution) (*Project, error) {
	coord := d.Coordinate()

	project, fetched, err := r.Descriptor(ctx, coord, repos)
	if err != nil {
		return nil, err
	}
	project = project.WithCoordinate(coord)
	if fetched {
		res.Fetched++
		if err := r.persistDescriptor(project); err != nil {
			r.logger.Warn("caching descriptor failed", "requirement", coord, "error", err)
		}
	}

	if project.HasArtifact() {
		path, fetched, err := r.Artifact(ctx, coord, project.ExtensionFor(d), repos)
		if err != nil {
			return nil, err
		}
		res.add(path, fetched)
	}
	return project, nil
}

// Descriptor returns the parsed descriptor of coord, from the cache when the
// cached copy matches its sidecar, else from the first repository that has
// it. Fetched descriptors are not persisted here.
func (r *Resolver) Descriptor(ctx context.Context, coord requirement.Coordinate, repos []string) (_ *Project, fetched bool, _ error) {
	local := r.store.LibPath(coord.Group, coord.Artifact, coord.Version, store.DescriptorExt)
	if r.cached(local) {
		data, err := r.store.ReadFile(local)
		if err == nil {
			if p, err := Parse(data); err == nil {
				r.logger.Debug("descriptor cache hit", "requirement", coord, "target", local)
				return p, false, nil
			}
		}
	}

	rel := store.CoordinatePath(coord.Group, coord.Artifact, coord.Version, store.DescriptorExt)
	var errs []error
	for _, repo := range repos {
		p, err := r.fetchDescriptor(ctx, repo, rel)
		if err == nil {
			return p, true, nil
		}
		errs = append(errs, err)
		if ctx.Err() != nil {
			break
		}
	}
	return nil, false, errors.Join(errs...)
}

func (r *Resolver) fetchDescriptor(ctx context.Context, repo, rel string) (*Project, error) {
	u, err := transport.JoinURL(repo, rel)
	if err != nil {
		return nil, err
	}
	return FetchDescriptor(ctx, r.fetcher, u)
}

// FetchDescriptor reads and parses the descriptor at url without touching
// the cache.
func FetchDescriptor(ctx context.Context, f Opener, url string) (*Project, error) {
	rc, err := f.Open(ctx, url)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }() // read-only stream

	data, err := io.ReadAll(io.LimitReader(rc, maxDescriptorBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", transport.RedactURL(url), err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", transport.RedactURL(url), err)
	}
	return p, nil
}

// Artifact returns the local path of the coord artifact with extension ext,
// downloading it from the first repository that serves it when the cache has
// no valid copy. Concurrent calls for the same artifact share one download.
func (r *Resolver) Artifact(ctx context.Context, coord requirement.Coordinate, ext string, repos []string) (_ string, fetched bool, _ error) {
	target := r.store.LibPath(coord.Group, coord.Artifact, coord.Version, ext)
	if r.cached(target) {
		r.logger.Debug("artifact cache hit", "requirement", coord, "target", target)
		return target, false, nil
	}

	rel := store.CoordinatePath(coord.Group, coord.Artifact, coord.Version, ext)
	err := r.store.Do(target, func() error {
		if r.cached(target) {
			return nil
		}
		var errs []error
		for _, repo := range repos {
			err := r.download(ctx, repo, rel, target)
			if err == nil {
				fetched = true
				r.logger.Info("fetched artifact", "requirement", coord, "target", target)
				return nil
			}
			errs = append(errs, err)
			if ctx.Err() != nil {
				break
			}
		}
		return errors.Join(errs...)
	})
	if err != nil {
		return "", false, err
	}
	return target, fetched, nil
}

// download fetches rel from repo into target through a temp file. When the
// repository publishes a .sha1 sidecar the bytes are verified against it
// before the rename.
func (r *Resolver) download(ctx context.Context, repo, rel, target string) (err error) {
	u, err := transport.JoinURL(repo, rel)
	if err != nil {
		return err
	}
	expected, err := r.remoteSidecar(ctx, u+store.SidecarExt)
	if err != nil {
		return err
	}

	tmp, err := r.store.TempFile(target)
	if err != nil {
		return err
	}
	defer r.store.Discard(tmp)

	if err := r.fetcher.FetchToFile(ctx, u, tmp); err != nil {
		return err
	}

	digest := expected
	if digest != "" {
		if err := r.hasher.Verify(tmp, digest); err != nil {
			return fmt.Errorf("verifying %s: %w", transport.RedactURL(u), err)
		}
	} else if digest, err = r.hasher.Sum(tmp); err != nil {
		return err
	}

	if err := r.store.Commit(tmp, target); err != nil {
		return err
	}
	return r.store.WriteSidecar(target, digest)
}

// remoteSidecar returns the published digest at url, or "" when the
// repository does not publish one.
func (r *Resolver) remoteSidecar(ctx context.Context, url string) (string, error) {
	rc, err := r.fetcher.Open(ctx, url)
	if transport.IsNotFound(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	defer func() { _ = rc.Close() }() // read-only stream

	data, err := io.ReadAll(io.LimitReader(rc, 1024))
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", transport.RedactURL(url), err)
	}
	return checksum.ParseSidecar(data), nil
}

// persistDescriptor writes the raw descriptor and its sidecar unless a valid
// copy is already cached.
func (r *Resolver) persistDescriptor(p *Project) error {
	if len(p.Raw) == 0 {
		return nil
	}
	coord := p.Coordinate()
	target := r.store.LibPath(coord.Group, coord.Artifact, coord.Version, store.DescriptorExt)
	if r.cached(target) {
		return nil
	}

	return r.store.Do(target, func() error {
		if err := r.store.WriteAtomic(target, bytes.NewReader(p.Raw)); err != nil {
			return err
		}
		digest, err := r.hasher.Sum(target)
		if err != nil {
			return err
		}
		return r.store.WriteSidecar(target, digest)
	})
}

// cached reports whether p and its sidecar exist and agree.
func (r *Resolver) cached(p string) bool {
	if !r.store.Exists(p) {
		return false
	}
	digest, err := r.store.ReadSidecar(p)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			r.logger.Debug("unreadable sidecar", "target", p, "error", err)
		}
		return false
	}
	return r.hasher.Verify(p, digest) == nil
}

func (res *Resolution) add(path string, fetched bool) {
	res.Artifacts = append(res.Artifacts, path)
	if fetched {
		res.Fetched++
	}
}
