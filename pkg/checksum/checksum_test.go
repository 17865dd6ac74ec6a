// SPDX-License-Identifier: MPL-2.0

package checksum

import (
	"crypto/sha1" //nolint:gosec // test vectors for the sidecar algorithm
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"testing"

	"github.com/spf13/afero"
)

func sha1Hex(data []byte) string {
	sum := sha1.Sum(data) //nolint:gosec // test vectors
	return hex.EncodeToString(sum[:])
}

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func newFile(t *testing.T, content string) (*FileHasher, string) {
	t.Helper()

	fsys := afero.NewMemMapFs()
	if err := afero.WriteFile(fsys, "/data/file.bin", []byte(content), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	return New(fsys), "/data/file.bin"
}

func TestFileHasher_Sum(t *testing.T) {
	t.Parallel()

	h, path := newFile(t, "hello world")

	got, err := h.Sum(path)
	if err != nil {
		t.Fatalf("Sum() error = %v", err)
	}
	if want := sha1Hex([]byte("hello world")); got != want {
		t.Errorf("Sum() = %q, want %q", got, want)
	}

	again, err := h.Sum(path)
	if err != nil {
		t.Fatalf("second Sum() error = %v", err)
	}
	if again != got {
		t.Errorf("Sum() is not deterministic: %q then %q", got, again)
	}
}

func TestFileHasher_SumWith(t *testing.T) {
	t.Parallel()

	h, path := newFile(t, "payload")

	got, err := h.SumWith(path, AlgorithmSHA256)
	if err != nil {
		t.Fatalf("SumWith(sha256) error = %v", err)
	}
	if want := sha256Hex([]byte("payload")); got != want {
		t.Errorf("SumWith(sha256) = %q, want %q", got, want)
	}

	if _, err := h.SumWith(path, "md5"); !errors.Is(err, ErrUnsupportedAlgorithm) {
		t.Errorf("SumWith(md5) error = %v, want ErrUnsupportedAlgorithm", err)
	}
}

func TestFileHasher_Verify(t *testing.T) {
	t.Parallel()

	content := []byte("font bytes")

	tests := []struct {
		name     string
		expected string
		wantErr  error
	}{
		{name: "sha1 bare", expected: sha1Hex(content)},
		{name: "sha1 uppercase", expected: strings.ToUpper(sha1Hex(content))},
		{name: "sha256 bare", expected: sha256Hex(content)},
		{name: "sha256 prefixed", expected: "sha256:" + sha256Hex(content)},
		{name: "mismatch", expected: sha1Hex([]byte("other")), wantErr: ErrMismatch},
		{name: "not hex", expected: "zzzz", wantErr: ErrInvalidDigest},
		{name: "odd length", expected: "abc123", wantErr: ErrInvalidDigest},
		{name: "empty", expected: "", wantErr: ErrInvalidDigest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h, path := newFile(t, string(content))
			err := h.Verify(path, tt.expected)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Verify() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Verify() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestFileHasher_VerifyMismatchDetails(t *testing.T) {
	t.Parallel()

	h, path := newFile(t, "actual")
	want := sha1Hex([]byte("expected"))

	err := h.Verify(path, want)

	var mismatch *MismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("Verify() error = %v, want *MismatchError", err)
	}
	if mismatch.Expected != want || mismatch.Got != sha1Hex([]byte("actual")) {
		t.Errorf("unexpected mismatch details: %+v", mismatch)
	}
}

func TestFileHasher_MatchesMissingFile(t *testing.T) {
	t.Parallel()

	h := New(afero.NewMemMapFs())
	if h.Matches("/missing", sha1Hex(nil)) {
		t.Error("Matches() = true for a missing file")
	}
}

func TestEncoded(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"ABC123":          "abc123",
		"sha256:DEADBEEF": "deadbeef",
		"  abc  ":         "abc",
	}
	for in, want := range tests {
		if got := Encoded(in); got != want {
			t.Errorf("Encoded(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseSidecar(t *testing.T) {
	t.Parallel()

	digest := sha1Hex([]byte("pom"))
	tests := []struct {
		name string
		data string
		want string
	}{
		{name: "bare", data: digest, want: digest},
		{name: "trailing newline", data: digest + "\n", want: digest},
		{name: "with filename", data: strings.ToUpper(digest) + "  gson-2.10.pom\n", want: digest},
		{name: "empty", data: "  \n", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ParseSidecar([]byte(tt.data)); got != tt.want {
				t.Errorf("ParseSidecar() = %q, want %q", got, tt.want)
			}
		})
	}
}
