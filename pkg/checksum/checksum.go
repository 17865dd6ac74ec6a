// SPDX-License-Identifier: MPL-2.0

package checksum

import (
	"crypto/sha1" //nolint:gosec // SHA-1 is the Maven sidecar format, not a security boundary.
	_ "crypto/sha256"
	_ "crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/opencontainers/go-digest"
	"github.com/spf13/afero"
)

const (
	// AlgorithmSHA1 is the default digest algorithm.
	AlgorithmSHA1 Algorithm = "sha1"
	// AlgorithmSHA256 selects SHA-256.
	AlgorithmSHA256 Algorithm = "sha256"
	// AlgorithmSHA512 selects SHA-512.
	AlgorithmSHA512 Algorithm = "sha512"

	sha1HexLen   = 40
	sha256HexLen = 64
)

var (
	// ErrMismatch indicates that a recomputed digest differs from the expected one.
	ErrMismatch = errors.New("checksum mismatch")

	// ErrInvalidDigest indicates that an expected digest string cannot be interpreted.
	ErrInvalidDigest = errors.New("invalid digest")

	// ErrUnsupportedAlgorithm indicates an algorithm that is not available in this binary.
	ErrUnsupportedAlgorithm = errors.New("unsupported digest algorithm")
)

type (
	// Algorithm names a digest algorithm.
	Algorithm string

	// MismatchError reports a failed verification. It wraps ErrMismatch so
	// callers can classify it with errors.Is.
	MismatchError struct {
		Path     string
		Expected string
		Got      string
	}

	// FileHasher hashes files on an afero filesystem.
	FileHasher struct {
		fs afero.Fs
	}
)

// Error returns both digests so cache corruption can be diagnosed from logs.
func (e *MismatchError) Error() string {
	return fmt.Sprintf("checksum mismatch for %s (expected %s, got %s)", e.Path, e.Expected, e.Got)
}

// Unwrap returns ErrMismatch.
func (e *MismatchError) Unwrap() error { return ErrMismatch }

// String returns the algorithm name.
func (a Algorithm) String() string { return string(a) }

// Validate returns ErrUnsupportedAlgorithm for algorithms this package cannot compute.
func (a Algorithm) Validate() error {
	switch a {
	case AlgorithmSHA1, AlgorithmSHA256, AlgorithmSHA512:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, string(a))
	}
}

// New returns a FileHasher reading from fsys. A nil fsys means the OS filesystem.
func New(fsys afero.Fs) *FileHasher {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	return &FileHasher{fs: fsys}
}

// Sum returns the lowercase SHA-1 hex digest of the file at path.
func (h *FileHasher) Sum(path string) (string, error) {
	return h.SumWith(path, AlgorithmSHA1)
}

// SumWith returns the lowercase hex digest of the file at path using alg.
func (h *FileHasher) SumWith(path string, alg Algorithm) (_ string, err error) {
	if err := alg.Validate(); err != nil {
		return "", err
	}

	f, err := h.fs.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }() // read-only handle

	switch alg {
	case AlgorithmSHA1:
		sum := sha1.New() //nolint:gosec // see import
		if _, err := io.Copy(sum, f); err != nil {
			return "", fmt.Errorf("hashing file %s: %w", path, err)
		}
		return hex.EncodeToString(sum.Sum(nil)), nil
	default:
		d, err := digest.Algorithm(alg).FromReader(f)
		if err != nil {
			return "", fmt.Errorf("hashing file %s: %w", path, err)
		}
		return d.Encoded(), nil
	}
}

// Verify recomputes the digest of the file at path and compares it with
// expected. It returns nil on a match, a *MismatchError when the digests
// differ, and other errors when the file cannot be read or expected cannot be
// interpreted.
func (h *FileHasher) Verify(path, expected string) error {
	alg, want, err := Parse(expected)
	if err != nil {
		return err
	}

	got, err := h.SumWith(path, alg)
	if err != nil {
		return err
	}

	if got != want {
		return &MismatchError{Path: path, Expected: want, Got: got}
	}
	return nil
}

// Matches reports whether the file at path exists and carries the expected
// digest. Any read failure counts as "does not match".
func (h *FileHasher) Matches(path, expected string) bool {
	return h.Verify(path, expected) == nil
}

// Parse splits an expected digest into its algorithm and lowercase hex part.
func Parse(expected string) (Algorithm, string, error) {
	s := strings.ToLower(strings.TrimSpace(expected))
	if s == "" {
		return "", "", fmt.Errorf("%w: empty", ErrInvalidDigest)
	}

	if strings.Contains(s, ":") {
		d, err := digest.Parse(s)
		if err != nil {
			return "", "", fmt.Errorf("%w: %q: %w", ErrInvalidDigest, expected, err)
		}
		alg := Algorithm(d.Algorithm().String())
		if err := alg.Validate(); err != nil {
			return "", "", err
		}
		return alg, d.Encoded(), nil
	}

	if !isValidHex(s) {
		return "", "", fmt.Errorf("%w: %q is not hex", ErrInvalidDigest, expected)
	}

	switch len(s) {
	case sha1HexLen:
		return AlgorithmSHA1, s, nil
	case sha256HexLen:
		return AlgorithmSHA256, s, nil
	default:
		return "", "", fmt.Errorf("%w: %q has unexpected length %d", ErrInvalidDigest, expected, len(s))
	}
}

// Encoded returns the lowercase hex part of expected, dropping any
// "<algorithm>:" prefix. Invalid input is returned lowercased and trimmed.
func Encoded(expected string) string {
	s := strings.ToLower(strings.TrimSpace(expected))
	if _, after, found := strings.Cut(s, ":"); found {
		return after
	}
	return s
}

// ParseSidecar extracts the digest from the contents of a ".sha1" sidecar.
// Repositories publish either the bare digest or "<digest>  <filename>".
func ParseSidecar(data []byte) string {
	fields := strings.Fields(string(data))
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[0])
}

func isValidHex(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
