// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/afero"
)

func TestSHA1Hex(t *testing.T) {
	t.Parallel()

	if got := SHA1Hex([]byte("abc")); got != "a9993e364706816aba3e25717850c26c9cd0d89d" {
		t.Errorf("SHA1Hex(abc) = %s", got)
	}
}

func TestJar_IsStableAndReadable(t *testing.T) {
	t.Parallel()

	a := Jar(t, "org/example/Core.class", "org/example/Util.class")
	b := Jar(t, "org/example/Util.class", "org/example/Core.class")
	if !bytes.Equal(a, b) {
		t.Error("archives with the same entries should be identical")
	}

	zr, err := zip.NewReader(bytes.NewReader(a), int64(len(a)))
	if err != nil {
		t.Fatal(err)
	}
	if len(zr.File) != 3 || zr.File[0].Name != "META-INF/MANIFEST.MF" {
		t.Errorf("unexpected entries: %d, first %q", len(zr.File), zr.File[0].Name)
	}
}

func TestPOM(t *testing.T) {
	t.Parallel()

	got := POM("org.example", "core", "1.0", "org.example:util:2.0")
	for _, want := range []string{
		"<groupId>org.example</groupId>",
		"<artifactId>core</artifactId>",
		"<dependency><groupId>org.example</groupId><artifactId>util</artifactId><version>2.0</version></dependency>",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("POM missing %q:\n%s", want, got)
		}
	}
}

func TestRepository_Publish(t *testing.T) {
	t.Parallel()

	fsys := afero.NewMemMapFs()
	repo := NewRepository(fsys, "/repo")
	jar := repo.Publish(t, "org.example", "core", "1.0", nil, "org/example/Core.class")

	if repo.URL() != "file:///repo" {
		t.Errorf("URL() = %q", repo.URL())
	}

	sidecar, err := afero.ReadFile(fsys, "/repo/org/example/core/1.0/core-1.0.jar.sha1")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(sidecar), SHA1Hex(jar)+"  core-1.0.jar") {
		t.Errorf("sidecar = %q", sidecar)
	}
	if ok, _ := afero.Exists(fsys, "/repo/org/example/core/1.0/core-1.0.pom.sha1"); !ok {
		t.Error("descriptor sidecar missing")
	}
}
