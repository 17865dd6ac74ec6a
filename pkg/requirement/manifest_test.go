// SPDX-License-Identifier: MPL-2.0

package requirement

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
)

const cueManifest = `
component: "com.example.renderer"
asset: {
	url:  "https://cdn.example/font.ttf"
	hash: "3f786850e387550fdab836ed7e6dc881de23001b"
}
assets: [{
	url:  "https://cdn.example/icons.png"
	name: "icons.png"
	hash: "3f786850e387550fdab836ed7e6dc881de23001b"
	zip:  true
}]
dependencies: [{
	coordinate: "com.google.code.gson:gson:2.10.1"
	repository: "https://repo1.maven.org/maven2"
	probe:      "com.google.gson.Gson"
}]
`

const tomlManifest = `
component = "com.example.renderer"

[asset]
url = "https://cdn.example/font.ttf"
hash = "3f786850e387550fdab836ed7e6dc881de23001b"

[[assets]]
url = "https://cdn.example/icons.png"
name = "icons.png"
hash = "3f786850e387550fdab836ed7e6dc881de23001b"
zip = true

[[dependencies]]
coordinate = "com.google.code.gson:gson:2.10.1"
repository = "https://repo1.maven.org/maven2"
probe = "com.google.gson.Gson"
`

const yamlManifest = `
component: com.example.renderer
asset:
  url: https://cdn.example/font.ttf
  hash: 3f786850e387550fdab836ed7e6dc881de23001b
assets:
  - url: https://cdn.example/icons.png
    name: icons.png
    hash: 3f786850e387550fdab836ed7e6dc881de23001b
    zip: true
dependencies:
  - coordinate: com.google.code.gson:gson:2.10.1
    repository: https://repo1.maven.org/maven2
    probe: com.google.gson.Gson
`

func TestParseManifest_Formats(t *testing.T) {
	t.Parallel()

	tests := []struct {
		file string
		data string
	}{
		{file: "rtenv.cue", data: cueManifest},
		{file: "rtenv.toml", data: tomlManifest},
		{file: "rtenv.yaml", data: yamlManifest},
		{file: "rtenv.YML", data: yamlManifest},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			t.Parallel()

			m, err := ParseManifest(tt.file, []byte(tt.data))
			if err != nil {
				t.Fatalf("ParseManifest() error = %v", err)
			}
			if m.Name != "com.example.renderer" {
				t.Errorf("Name = %q", m.Name)
			}

			set, err := Discover(m)
			if err != nil {
				t.Fatalf("Discover() error = %v", err)
			}
			if len(set.Assets) != 2 {
				t.Fatalf("got %d assets, want 2", len(set.Assets))
			}
			if set.Assets[0].Locator != "https://cdn.example/font.ttf" || set.Assets[0].Packaged {
				t.Errorf("first asset = %+v", set.Assets[0])
			}
			if !set.Assets[1].Packaged || set.Assets[1].Name != "icons.png" {
				t.Errorf("second asset = %+v", set.Assets[1])
			}
			if len(set.Libraries) != 1 || set.Libraries[0].Probe != "com.google.gson.Gson" {
				t.Errorf("libraries = %+v", set.Libraries)
			}
		})
	}
}

func TestParseManifest_Rejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		file string
		data string
	}{
		{name: "unknown extension", file: "rtenv.json", data: `{}`},
		{name: "cue unknown field", file: "rtenv.cue", data: `assets: [{url: "https://x/y", hash: "aa", color: "red"}]`},
		{name: "cue missing url", file: "rtenv.cue", data: `asset: {hash: "aa"}`},
		{name: "toml unknown field", file: "rtenv.toml", data: "colour = 1\n"},
		{name: "yaml unknown field", file: "rtenv.yaml", data: "colour: 1\n"},
		{name: "yaml wrong type", file: "rtenv.yaml", data: "assets: 3\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := ParseManifest(tt.file, []byte(tt.data))
			if !errors.Is(err, ErrMalformedDeclarations) {
				t.Fatalf("ParseManifest() error = %v, want ErrMalformedDeclarations", err)
			}
		})
	}
}

func TestParseManifest_NameDefaultsToFile(t *testing.T) {
	t.Parallel()

	m, err := ParseManifest("/tmp/plugins/renderer.yaml", []byte(""))
	if err != nil {
		t.Fatalf("ParseManifest() error = %v", err)
	}
	if m.Name != "renderer" {
		t.Errorf("Name = %q, want renderer", m.Name)
	}
	if set, _ := Discover(m); set.Len() != 0 {
		t.Errorf("empty manifest produced %d requirements", set.Len())
	}
}

func TestLoadManifest(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, DefaultManifestName)
	if err := os.WriteFile(path, []byte(cueManifest), 0o644); err != nil {
		t.Fatalf("writing manifest: %v", err)
	}

	m, err := LoadManifest(nil, path)
	if err != nil {
		t.Fatalf("LoadManifest() error = %v", err)
	}
	if m.Path != path {
		t.Errorf("Path = %q, want %q", m.Path, path)
	}

	if _, err := LoadManifest(nil, filepath.Join(dir, "missing.cue")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("LoadManifest(missing) error = %v, want os.ErrNotExist in chain", err)
	}
}

func TestLoadManifest_MemMapFs(t *testing.T) {
	t.Parallel()

	fsys := afero.NewMemMapFs()
	if err := afero.WriteFile(fsys, "/work/renderer.yaml", []byte(yamlManifest), 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := LoadManifest(fsys, "/work/renderer.yaml")
	if err != nil {
		t.Fatalf("LoadManifest() error = %v", err)
	}
	if m.Name != "com.example.renderer" {
		t.Errorf("Name = %q", m.Name)
	}
	if set, _ := Discover(m); set.Len() != 3 {
		t.Errorf("Len() = %d, want 3", set.Len())
	}

	if _, err := LoadManifest(fsys, "/work/rtenv.cue"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("LoadManifest(missing) error = %v, want os.ErrNotExist in chain", err)
	}
}

// One invalid record must not hide the others in any format; record
// validation happens per requirement at provisioning time.
func TestParseManifest_InvalidRecordKept(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data string
	}{
		{"m.cue", `
assets: [{url: "", hash: "3f786850e387550fdab836ed7e6dc881de23001b"}, {url: "https://cdn.example/b", hash: "3f786850e387550fdab836ed7e6dc881de23001b"}]
dependencies: [{coordinate: "g:a:1", repository: ""}]
`},
		{"m.yaml", `
assets:
  - url: ""
    hash: 3f786850e387550fdab836ed7e6dc881de23001b
  - url: https://cdn.example/b
    hash: 3f786850e387550fdab836ed7e6dc881de23001b
dependencies:
  - coordinate: g:a:1
    repository: ""
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m, err := ParseManifest(tt.name, []byte(tt.data))
			if err != nil {
				t.Fatalf("ParseManifest() error = %v", err)
			}
			set, err := Discover(m)
			if err != nil {
				t.Fatal(err)
			}
			if len(set.Assets) != 2 || len(set.Libraries) != 1 {
				t.Fatalf("got %d assets, %d libraries", len(set.Assets), len(set.Libraries))
			}
			if err := set.Assets[0].Validate(); !errors.Is(err, ErrInvalidAsset) {
				t.Errorf("empty url Validate() = %v, want ErrInvalidAsset", err)
			}
			if err := set.Assets[1].Validate(); err != nil {
				t.Errorf("valid asset Validate() = %v", err)
			}
			if err := set.Libraries[0].Validate(); !errors.Is(err, ErrInvalidLibrary) {
				t.Errorf("empty repository Validate() = %v, want ErrInvalidLibrary", err)
			}
		})
	}
}
