// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"path"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
)

// Repository lays out a Maven-style repository on a filesystem.
type Repository struct {
	fs  afero.Fs
	dir string
}

// NewRepository returns a repository rooted at dir on fsys.
func NewRepository(fsys afero.Fs, dir string) *Repository {
	return &Repository{fs: fsys, dir: dir}
}

// Dir returns the repository root directory.
func (r *Repository) Dir() string { return r.dir }

// URL returns a file:// URL for the repository.
func (r *Repository) URL() string { return "file://" + filepath.ToSlash(r.dir) }

// Put writes data at the slash path rel, plus a ".sha1" sidecar when
// withSidecar is set.
func (r *Repository) Put(t testing.TB, rel string, data []byte, withSidecar bool) {
	t.Helper()

	p := filepath.Join(r.dir, filepath.FromSlash(rel))
	if err := r.fs.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatalf("creating %s: %v", filepath.Dir(p), err)
	}
	if err := afero.WriteFile(r.fs, p, data, 0o644); err != nil {
		t.Fatalf("writing %s: %v", p, err)
	}
	if withSidecar {
		line := SHA1Hex(data) + "  " + path.Base(rel) + "\n"
		if err := afero.WriteFile(r.fs, p+".sha1", []byte(line), 0o644); err != nil {
			t.Fatalf("writing sidecar for %s: %v", p, err)
		}
	}
}

// Publish writes a descriptor and a jar holding classes for group:artifact:version,
// both with sidecars. It returns the jar bytes.
func (r *Repository) Publish(t testing.TB, group, artifact, version string, deps []string, classes ...string) []byte {
	t.Helper()

	base := LibraryPath(group, artifact, version)
	r.Put(t, base+".pom", []byte(POM(group, artifact, version, deps...)), true)
	jar := Jar(t, classes...)
	r.Put(t, base+".jar", jar, true)
	return jar
}
