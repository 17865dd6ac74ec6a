// SPDX-License-Identifier: MPL-2.0

package requirement

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/invowk/rtenv/pkg/checksum"
)

var (
	// ErrInvalidAsset is the sentinel error wrapped by InvalidAssetError.
	ErrInvalidAsset = errors.New("invalid asset requirement")
	// ErrInvalidLibrary is the sentinel error wrapped by InvalidLibraryError.
	ErrInvalidLibrary = errors.New("invalid library requirement")
)

type (
	// AssetRequirement declares a binary file the component needs on disk.
	AssetRequirement struct {
		// Locator is the URL the asset is fetched from.
		Locator string `json:"url" yaml:"url" toml:"url"`

		// Name is the cache file name relative to the assets directory (optional).
		// When empty the file is stored under its digest.
		Name string `json:"name,omitempty" yaml:"name,omitempty" toml:"name,omitempty"`

		// Hash is the expected digest of the asset bytes.
		Hash string `json:"hash" yaml:"hash" toml:"hash"`

		// Packaged marks assets published inside "<Locator>.zip". The entry
		// named after the last path segment of Locator is extracted.
		Packaged bool `json:"zip,omitempty" yaml:"zip,omitempty" toml:"zip,omitempty"`
	}

	// LibraryRequirement declares a code library the component needs active
	// in the running process.
	LibraryRequirement struct {
		// Coordinate is "group:artifact:version".
		Coordinate string `json:"coordinate" yaml:"coordinate" toml:"coordinate"`

		// Repository is the base URL of the repository hosting the library.
		Repository string `json:"repository" yaml:"repository" toml:"repository"`

		// Probe names a symbol whose presence in the process means the
		// library is already available (optional).
		Probe string `json:"probe,omitempty" yaml:"probe,omitempty" toml:"probe,omitempty"`
	}

	// InvalidAssetError collects the field errors of an AssetRequirement.
	InvalidAssetError struct {
		Key         string
		FieldErrors []error
	}

	// InvalidLibraryError collects the field errors of a LibraryRequirement.
	InvalidLibraryError struct {
		Key         string
		FieldErrors []error
	}
)

// Error implements the error interface.
func (e *InvalidAssetError) Error() string {
	return fmt.Sprintf("invalid asset requirement %q: %s", e.Key, joinFieldErrors(e.FieldErrors))
}

// Unwrap returns ErrInvalidAsset for errors.Is() compatibility.
func (e *InvalidAssetError) Unwrap() error { return ErrInvalidAsset }

// Error implements the error interface.
func (e *InvalidLibraryError) Error() string {
	return fmt.Sprintf("invalid library requirement %q: %s", e.Key, joinFieldErrors(e.FieldErrors))
}

// Unwrap returns ErrInvalidLibrary for errors.Is() compatibility.
func (e *InvalidLibraryError) Unwrap() error { return ErrInvalidLibrary }

// Key identifies the asset in logs and reports: its name, else its digest.
func (a AssetRequirement) Key() string {
	if a.Name != "" {
		return a.Name
	}
	if a.Hash != "" {
		return checksum.Encoded(a.Hash)
	}
	return a.Locator
}

// EntryName is the archive entry extracted for packaged assets: the last
// segment of the locator's path. Query and fragment are ignored.
func (a AssetRequirement) EntryName() string {
	p := a.Locator
	if u, err := url.Parse(a.Locator); err == nil {
		p = u.Path
	}
	return p[strings.LastIndex(p, "/")+1:]
}

// ArchiveLocator is the URL of the zip companion of a packaged asset. The
// ".zip" suffix goes on the path, so query parameters are kept intact.
func (a AssetRequirement) ArchiveLocator() string {
	u, err := url.Parse(a.Locator)
	if err != nil {
		return a.Locator + ".zip"
	}
	u.Path += ".zip"
	if u.RawPath != "" {
		u.RawPath += ".zip"
	}
	return u.String()
}

// String returns a human-readable representation of the requirement.
func (a AssetRequirement) String() string {
	s := a.Locator
	if a.Packaged {
		s += " (zip)"
	}
	return s + " -> " + a.Key()
}

// Validate reports every problem with the record at once.
func (a AssetRequirement) Validate() error {
	var errs []error

	if err := validateURL(a.Locator); err != nil {
		errs = append(errs, fmt.Errorf("url: %w", err))
	} else if a.Packaged && a.EntryName() == "" {
		errs = append(errs, errors.New("url: packaged asset needs a file name after the last '/'"))
	}

	if _, _, err := checksum.Parse(a.Hash); err != nil {
		errs = append(errs, fmt.Errorf("hash: %w", err))
	}

	if a.Name != "" {
		if err := validateRelativeName(a.Name); err != nil {
			errs = append(errs, fmt.Errorf("name: %w", err))
		}
	}

	if len(errs) > 0 {
		return &InvalidAssetError{Key: a.Key(), FieldErrors: errs}
	}
	return nil
}

// Key identifies the library in logs and reports.
func (l LibraryRequirement) Key() string { return strings.TrimSpace(l.Coordinate) }

// String returns a human-readable representation of the requirement.
func (l LibraryRequirement) String() string {
	s := l.Key() + " @ " + l.Repository
	if l.Probe != "" {
		s += " (probe: " + l.Probe + ")"
	}
	return s
}

// Validate reports every problem with the record at once.
func (l LibraryRequirement) Validate() error {
	var errs []error

	if _, err := ParseCoordinate(l.Coordinate); err != nil {
		errs = append(errs, fmt.Errorf("coordinate: %w", err))
	}
	if err := validateURL(l.Repository); err != nil {
		errs = append(errs, fmt.Errorf("repository: %w", err))
	}

	if len(errs) > 0 {
		return &InvalidLibraryError{Key: l.Key(), FieldErrors: errs}
	}
	return nil
}

func validateURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return errors.New("must not be empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme == "" {
		return fmt.Errorf("%q has no scheme", raw)
	}
	return nil
}

// validateRelativeName keeps named assets inside the assets directory.
func validateRelativeName(name string) error {
	if strings.Contains(name, `\`) {
		return fmt.Errorf("%q must use '/' separators", name)
	}
	if path.IsAbs(name) {
		return fmt.Errorf("%q must be relative", name)
	}
	clean := path.Clean(name)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return fmt.Errorf("%q escapes the assets directory", name)
	}
	return nil
}

func joinFieldErrors(errs []error) string {
	msgs := make([]string, 0, len(errs))
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}
