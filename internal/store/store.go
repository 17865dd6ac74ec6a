// SPDX-License-Identifier: MPL-2.0

package store

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"golang.org/x/sync/singleflight"

	"github.com/invowk/rtenv/pkg/checksum"
)

// ErrEmptySidecar is returned when a sidecar file holds no digest.
var ErrEmptySidecar = errors.New("empty digest sidecar")

// Store is the provisioning cache rooted at a directory on an afero filesystem.
// Concurrent use is safe; writers to the same target can be serialized with Do.
type Store struct {
	fs     afero.Fs
	root   string
	flight singleflight.Group
}

// New returns a Store rooted at root on fsys. A nil fsys means the OS
// filesystem; an empty root means the current directory.
func New(fsys afero.Fs, root string) *Store {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	if root == "" {
		root = "."
	}
	return &Store{fs: fsys, root: filepath.Clean(root)}
}

// FS returns the underlying filesystem.
func (s *Store) FS() afero.Fs { return s.fs }

// Root returns the provisioning root.
func (s *Store) Root() string { return s.root }

// Path converts a root-relative slash path into a filesystem path.
func (s *Store) Path(rel string) string {
	return filepath.Join(s.root, filepath.FromSlash(rel))
}

// AssetPath returns the filesystem path of an asset.
func (s *Store) AssetPath(name, hash string) string {
	return s.Path(AssetRelPath(name, hash))
}

// LibPath returns the filesystem path of a library file.
func (s *Store) LibPath(group, artifact, version, ext string) string {
	return s.Path(LibRelPath(group, artifact, version, ext))
}

// Exists reports whether a regular file exists at p.
func (s *Store) Exists(p string) bool {
	info, err := s.fs.Stat(p)
	return err == nil && !info.IsDir()
}

// EnsureParent creates the parent directory of p.
func (s *Store) EnsureParent(p string) error {
	if err := s.fs.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", p, err)
	}
	return nil
}

// TempFile creates an empty hidden temporary file next to target. The caller
// owns the returned path and must either Commit or Discard it.
func (s *Store) TempFile(target string) (string, error) {
	if err := s.EnsureParent(target); err != nil {
		return "", err
	}

	f, err := afero.TempFile(s.fs, filepath.Dir(target), "."+filepath.Base(target)+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("creating temp file for %s: %w", target, err)
	}
	name := f.Name()
	if err := f.Close(); err != nil {
		_ = s.fs.Remove(name)
		return "", fmt.Errorf("closing temp file for %s: %w", target, err)
	}
	return name, nil
}

// Commit atomically moves tmp over target.
func (s *Store) Commit(tmp, target string) error {
	if err := s.fs.Rename(tmp, target); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("moving %s into place: %w", target, err)
	}
	return nil
}

// Discard removes a temporary file. Missing files are ignored.
func (s *Store) Discard(tmp string) {
	if tmp == "" {
		return
	}
	// A stray hidden temp file never shadows a target, so removal is best-effort.
	_ = s.fs.Remove(tmp)
}

// WriteAtomic streams r into target through a temporary file and rename.
func (s *Store) WriteAtomic(target string, r io.Reader) (err error) {
	tmp, err := s.TempFile(target)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			s.Discard(tmp)
		}
	}()

	f, err := s.fs.OpenFile(tmp, os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("opening temp file for %s: %w", target, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing %s: %w", target, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", target, err)
	}

	if err := s.Commit(tmp, target); err != nil {
		return err
	}
	committed = true
	return nil
}

// ReadFile returns the contents of p.
func (s *Store) ReadFile(p string) ([]byte, error) {
	return afero.ReadFile(s.fs, p)
}

// Open opens p for reading.
func (s *Store) Open(p string) (afero.File, error) {
	return s.fs.Open(p)
}

// ReadSidecar returns the digest recorded in the sidecar of p.
func (s *Store) ReadSidecar(p string) (string, error) {
	data, err := afero.ReadFile(s.fs, SidecarPath(p))
	if err != nil {
		return "", err
	}
	d := checksum.ParseSidecar(data)
	if d == "" {
		return "", fmt.Errorf("%s: %w", SidecarPath(p), ErrEmptySidecar)
	}
	return d, nil
}

// WriteSidecar records digest in the sidecar of p.
func (s *Store) WriteSidecar(p, digest string) error {
	return s.WriteAtomic(SidecarPath(p), strings.NewReader(strings.ToLower(digest)))
}

// Do runs fn for key unless another goroutine is already running it, in which
// case it waits and shares that call's result. Keys start with the target
// path; callers append whatever else distinguishes the content.
func (s *Store) Do(key string, fn func() error) error {
	_, err, _ := s.flight.Do(key, func() (any, error) {
		return nil, fn()
	})
	return err
}
