// SPDX-License-Identifier: MPL-2.0

package requirement

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/invowk/rtenv/pkg/cueutil"
)

// DefaultManifestName is the manifest looked up when none is given.
const DefaultManifestName = "rtenv.cue"

//go:embed manifest_schema.cue
var manifestSchema []byte

// ErrUnsupportedManifestFormat is returned for manifest files with an unknown extension.
var ErrUnsupportedManifestFormat = errors.New("unsupported manifest format")

type (
	// Manifest is a Component backed by a declaration file.
	Manifest struct {
		// Name is the declared component name, or the file name when absent.
		Name string
		// Path is the file the manifest was read from.
		Path string

		declarations Declarations
	}

	// manifestFile is the shared wire shape of all manifest formats.
	manifestFile struct {
		Component    string               `json:"component,omitempty" yaml:"component,omitempty" toml:"component,omitempty"`
		Asset        *AssetRequirement    `json:"asset,omitempty" yaml:"asset,omitempty" toml:"asset,omitempty"`
		Assets       []AssetRequirement   `json:"assets,omitempty" yaml:"assets,omitempty" toml:"assets,omitempty"`
		Dependency   *LibraryRequirement  `json:"dependency,omitempty" yaml:"dependency,omitempty" toml:"dependency,omitempty"`
		Dependencies []LibraryRequirement `json:"dependencies,omitempty" yaml:"dependencies,omitempty" toml:"dependencies,omitempty"`
	}
)

// Requirements implements Component.
func (m *Manifest) Requirements() Declarations { return m.declarations }

// String returns the component name.
func (m *Manifest) String() string { return m.Name }

// LoadManifest reads and parses the manifest at path on fsys. A nil fsys
// means the OS filesystem.
func LoadManifest(fsys afero.Fs, path string) (*Manifest, error) {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, &MalformedDeclarationsError{Source: path, Cause: err}
	}
	return ParseManifest(path, data)
}

// ParseManifest decodes manifest data. The format is chosen from the
// extension of name: .cue, .toml, .yaml or .yml.
func ParseManifest(name string, data []byte) (*Manifest, error) {
	var (
		mf  *manifestFile
		err error
	)

	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".cue":
		mf, err = decodeCUE(name, data)
	case ".toml":
		mf, err = decodeTOML(data)
	case ".yaml", ".yml":
		mf, err = decodeYAML(data)
	default:
		err = fmt.Errorf("%w: %q", ErrUnsupportedManifestFormat, ext)
	}
	if err != nil {
		return nil, &MalformedDeclarationsError{Source: name, Cause: err}
	}

	m := &Manifest{
		Name: mf.Component,
		Path: name,
		declarations: Declarations{
			Asset:     mf.Asset,
			Assets:    mf.Assets,
			Library:   mf.Dependency,
			Libraries: mf.Dependencies,
		},
	}
	if m.Name == "" {
		m.Name = strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	}
	return m, nil
}

func decodeCUE(name string, data []byte) (*manifestFile, error) {
	result, err := cueutil.ParseAndDecode[manifestFile](manifestSchema, data, "#Manifest",
		cueutil.WithFilename(name))
	if err != nil {
		return nil, err
	}
	return result.Value, nil
}

func decodeTOML(data []byte) (*manifestFile, error) {
	var mf manifestFile
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&mf); err != nil {
		return nil, fmt.Errorf("decoding TOML: %w", err)
	}
	return &mf, nil
}

func decodeYAML(data []byte) (*manifestFile, error) {
	var mf manifestFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&mf); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decoding YAML: %w", err)
	}
	return &mf, nil
}
