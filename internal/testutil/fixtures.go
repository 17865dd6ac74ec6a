// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"archive/zip"
	"bytes"
	"crypto/sha1" //nolint:gosec // repository sidecars are SHA-1
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"testing"
)

// SHA1Hex returns the lowercase hex SHA-1 digest of data.
func SHA1Hex(data []byte) string {
	sum := sha1.Sum(data) //nolint:gosec // see import
	return hex.EncodeToString(sum[:])
}

// Zip returns a zip archive holding entries. Entries are written in name
// order so the archive bytes are stable.
func Zip(t testing.TB, entries map[string][]byte) []byte {
	t.Helper()

	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range names {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("creating zip entry %s: %v", name, err)
		}
		if _, err := w.Write(entries[name]); err != nil {
			t.Fatalf("writing zip entry %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("closing zip: %v", err)
	}
	return buf.Bytes()
}

// Jar returns an archive with a manifest and one stub entry per class,
// given as slash paths such as "org/example/Core.class".
func Jar(t testing.TB, classes ...string) []byte {
	t.Helper()

	entries := map[string][]byte{"META-INF/MANIFEST.MF": []byte("Manifest-Version: 1.0\n")}
	for _, c := range classes {
		entries[c] = []byte{0xca, 0xfe, 0xba, 0xbe}
	}
	return Zip(t, entries)
}

// POM returns a minimal project descriptor. deps are "group:artifact:version"
// coordinates declared with the default scope.
func POM(group, artifact, version string, deps ...string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "<project><groupId>%s</groupId><artifactId>%s</artifactId><version>%s</version>", group, artifact, version)
	if len(deps) > 0 {
		sb.WriteString("<dependencies>")
		for _, d := range deps {
			parts := strings.SplitN(d, ":", 3)
			for len(parts) < 3 {
				parts = append(parts, "")
			}
			fmt.Fprintf(&sb, "<dependency><groupId>%s</groupId><artifactId>%s</artifactId><version>%s</version></dependency>", parts[0], parts[1], parts[2])
		}
		sb.WriteString("</dependencies>")
	}
	sb.WriteString("</project>")
	return sb.String()
}

// LibraryPath returns the repository-relative slash path of a library file
// without its extension, e.g. "org/example/core/1.0/core-1.0".
func LibraryPath(group, artifact, version string) string {
	return strings.ReplaceAll(group, ".", "/") + "/" + artifact + "/" + version + "/" + artifact + "-" + version
}
