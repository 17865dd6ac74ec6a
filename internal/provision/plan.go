// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"github.com/invowk/rtenv/internal/maven"
	"github.com/invowk/rtenv/internal/store"
	"github.com/invowk/rtenv/pkg/requirement"
)

// Plan reports, without network access or writes, which requirements of c
// are already satisfied. Satisfied requirements are StatusCached or
// StatusSkipped, requirements that would need a download are StatusPending
// and invalid records are StatusFailed. A library is only cached when its
// whole runtime dependency closure is.
func (e *Engine) Plan(c requirement.Component) (*Report, error) {
	set, err := requirement.Discover(c)
	if err != nil {
		return nil, &ConfigurationError{Key: componentName(c), Err: err}
	}

	s := e.NewSession(componentName(c))

	for _, a := range set.Assets {
		s.report.add(e.planAsset(s, a))
	}
	for _, l := range set.Libraries {
		s.report.add(e.planLibrary(s, l))
	}
	return s.report, nil
}

func (e *Engine) planAsset(s *Session, a requirement.AssetRequirement) Outcome {
	o := Outcome{Kind: KindAsset, Key: a.Key()}
	if err := a.Validate(); err != nil {
		o.Status, o.Err = StatusFailed, &ConfigurationError{Key: o.Key, Err: err}
		return o
	}
	o.Target = e.store.AssetPath(a.Name, a.Hash)
	o.Status = StatusPending
	if e.assetValid(s, o.Target, a.Hash) {
		o.Status = StatusCached
	}
	return o
}

func (e *Engine) planLibrary(s *Session, l requirement.LibraryRequirement) Outcome {
	o := Outcome{Kind: KindLibrary, Key: l.Key()}
	if l.Probe != "" && e.prober.Probe(l.Probe) {
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
	o.Status = StatusPending

	project, ok := e.cachedDescriptor(s, o.Target)
	if !ok {
		return o
	}
	project = project.WithCoordinate(coord)
	if project.HasArtifact() {
		artifact, ok := e.cachedArtifact(coord, project.Extension())
		if !ok {
			return o
		}
		o.Artifacts = []string{artifact}
	}
	if !e.closureCached(s, project) {
		return o
	}
	o.Status = StatusCached
	return o
}

// cachedArtifact returns the artifact path of coord when it matches its
// sidecar.
func (e *Engine) cachedArtifact(coord requirement.Coordinate, ext string) (string, bool) {
	artifact := e.store.LibPath(coord.Group, coord.Artifact, coord.Version, ext)
	digest, err := e.store.ReadSidecar(artifact)
	if err != nil || e.hasher.Verify(artifact, digest) != nil {
		return artifact, false
	}
	return artifact, true
}

// closureCached walks the runtime dependencies of root through cached
// descriptors, to the resolver's default depth, and reports whether every
// reachable artifact is cached. Dependencies without a resolvable version are
// ignored, as Inject skips them too.
func (e *Engine) closureCached(s *Session, root *maven.Project) bool {
	type queued struct {
		project *maven.Project
		depth   int
	}

	seen := map[string]bool{root.Coordinate().ID(): true}
	queue := []queued{{project: root, depth: 1}}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if next.depth > maven.DefaultMaxDepth {
			continue
		}

		deps, _ := next.project.RuntimeDependencies()
		for _, d := range deps {
			coord := d.Coordinate()
			if seen[coord.ID()] {
				continue
			}
			seen[coord.ID()] = true

			child, ok := e.cachedDescriptor(s, e.store.LibPath(coord.Group, coord.Artifact, coord.Version, store.DescriptorExt))
			if !ok {
				return false
			}
			child = child.WithCoordinate(coord)
			if child.HasArtifact() {
				if _, ok := e.cachedArtifact(coord, child.ExtensionFor(d)); !ok {
					return false
				}
			}
			queue = append(queue, queued{project: child, depth: next.depth + 1})
		}
	}
	return true
}
