// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/invowk/rtenv/pkg/checksum"
	"github.com/invowk/rtenv/pkg/requirement"
)

// maxEntryBytes bounds the size of an extracted archive entry (1 GiB).
const maxEntryBytes int64 = 1 << 30

// LoadAssets provisions the asset requirements of set in declaration order
// and records one outcome per requirement in the session report.
func (e *Engine) LoadAssets(ctx context.Context, s *Session, set *requirement.Set) {
	ctx = withSession(ctx, s)
	for _, a := range set.Assets {
		o := e.provisionAsset(ctx, s, a)
		if o.Err != nil {
			s.logger.Error("asset not provisioned", "requirement", o.Key, "target", o.Target, "error", o.Err)
		}
		s.report.add(o)
	}
}

func (e *Engine) provisionAsset(ctx context.Context, s *Session, a requirement.AssetRequirement) Outcome {
	o := Outcome{Kind: KindAsset, Key: a.Key()}

	if err := a.Validate(); err != nil {
		o.Status, o.Err = StatusFailed, &ConfigurationError{Key: o.Key, Err: err}
		return o
	}
	o.Target = e.store.AssetPath(a.Name, a.Hash)

	if e.assetValid(s, o.Target, a.Hash) {
		s.logger.Debug("asset cache hit", "requirement", o.Key, "target", o.Target)
		o.Status = StatusCached
		return o
	}

	// Sessions expecting different content under one name must not share a
	// result, so the key carries the digest.
	fetched := false
	err := e.store.Do(o.Target+"@"+a.Hash, func() error {
		// Another session may have written the target while we waited.
		if e.assetValid(s, o.Target, a.Hash) {
			return nil
		}
		fetched = true
		if a.Packaged {
			return e.fetchPackaged(ctx, a, o.Key, o.Target)
		}
		return e.fetchPlain(ctx, a, o.Key, o.Target)
	})
	if err != nil {
		o.Status, o.Err = StatusFailed, err
		return o
	}

	o.Status = StatusCached
	if fetched {
		o.Status = StatusFetched
		s.logger.Info("fetched asset", "requirement", o.Key, "target", o.Target)
	}
	return o
}

// assetValid reports whether target exists with the expected digest. A
// present file with the wrong digest is stale and will be overwritten.
func (e *Engine) assetValid(s *Session, target, hash string) bool {
	if !e.store.Exists(target) {
		return false
	}
	err := e.hasher.Verify(target, hash)
	if err == nil {
		return true
	}
	if errors.Is(err, checksum.ErrMismatch) {
		s.logger.Info("cached asset is stale", "target", target, "error", err)
	} else {
		s.logger.Warn("cannot verify cached asset", "target", target, "error", err)
	}
	return false
}

func (e *Engine) fetchPlain(ctx context.Context, a requirement.AssetRequirement, key, target string) error {
	tmp, err := e.store.TempFile(target)
	if err != nil {
		return &FetchError{Key: key, Err: err}
	}
	defer e.store.Discard(tmp)

	if err := e.fetcher.FetchToFile(ctx, a.Locator, tmp); err != nil {
		return &FetchError{Key: key, URL: redact(a.Locator), Err: err}
	}
	return e.commitVerified(key, tmp, target, a.Hash)
}

// fetchPackaged downloads "<locator>.zip" next to the target, extracts the
// entry named after the locator's last path segment and removes the archive
// whatever the outcome.
func (e *Engine) fetchPackaged(ctx context.Context, a requirement.AssetRequirement, key, target string) error {
	archive, err := e.store.TempFile(target + ".zip")
	if err != nil {
		return &FetchError{Key: key, Err: err}
	}
	defer e.store.Discard(archive)

	if err := e.fetcher.FetchToFile(ctx, a.ArchiveLocator(), archive); err != nil {
		return &FetchError{Key: key, URL: redact(a.ArchiveLocator()), Err: err}
	}

	tmp, err := e.store.TempFile(target)
	if err != nil {
		return &FetchError{Key: key, Err: err}
	}
	defer e.store.Discard(tmp)

	if err := e.extractEntry(archive, a.EntryName(), tmp); err != nil {
		return &FetchError{Key: key, URL: redact(a.ArchiveLocator()), Err: err}
	}
	return e.commitVerified(key, tmp, target, a.Hash)
}

// commitVerified renames tmp over target once its digest matches hash.
func (e *Engine) commitVerified(key, tmp, target, hash string) error {
	if err := e.hasher.Verify(tmp, hash); err != nil {
		if errors.Is(err, checksum.ErrMismatch) {
			return &IntegrityError{Key: key, Path: target, Err: err}
		}
		return &FetchError{Key: key, Err: err}
	}
	if err := e.store.Commit(tmp, target); err != nil {
		return &FetchError{Key: key, Err: err}
	}
	return nil
}

// extractEntry copies the archive entry called name into dst.
func (e *Engine) extractEntry(archivePath, name, dst string) (err error) {
	fsys := e.store.FS()

	f, err := fsys.Open(archivePath)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer func() { _ = f.Close() }() // read-only handle

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat archive: %w", err)
	}
	zr, err := zip.NewReader(f, info.Size())
	if err != nil {
		return fmt.Errorf("reading archive: %w", err)
	}

	entry, err := zr.Open(name)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrEntryNotFound, name)
	}
	defer func() { _ = entry.Close() }() // read-only entry

	out, err := fsys.OpenFile(dst, os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("opening %s: %w", dst, err)
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	// Limit the reader to prevent decompression bombs.
	n, err := io.Copy(out, io.LimitReader(entry, maxEntryBytes+1))
	if err != nil {
		return fmt.Errorf("extracting %q: %w", name, err)
	}
	if n > maxEntryBytes {
		return fmt.Errorf("extracting %q: entry exceeds %d bytes", name, maxEntryBytes)
	}
	return nil
}
