// SPDX-License-Identifier: MPL-2.0

package activate

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"plugin"
	"strings"

	"github.com/spf13/afero"
)

const (
	// ModeAuto picks a strategy from the artifact extension.
	ModeAuto Mode = "auto"
	// ModeIndex activates jar and zip artifacts with ZipIndex.
	ModeIndex Mode = "index"
	// ModePlugin activates Go plugins with Plugin.
	ModePlugin Mode = "plugin"
	// ModeUnsupported refuses every activation.
	ModeUnsupported Mode = "unsupported"

	// CapabilitiesSymbol is the exported variable or function a Go plugin
	// uses to list the capabilities it provides. It must be a []string or a
	// func() []string.
	CapabilitiesSymbol = "Capabilities"
)

var (
	// ErrActivationUnsupported is returned by hosts that cannot activate
	// downloaded code.
	ErrActivationUnsupported = errors.New("activation not supported by this host")

	// ErrInvalidMode is returned for unknown activation modes.
	ErrInvalidMode = errors.New("invalid activation mode")

	// ErrInvalidArtifact is returned when an artifact cannot be read by the
	// selected strategy.
	ErrInvalidArtifact = errors.New("invalid artifact")
)

type (
	// Mode names an activation strategy.
	Mode string

	// Activator makes an artifact's capabilities usable in the process.
	Activator interface {
		Activate(ctx context.Context, artifactPath string) error
	}

	// ZipIndex activates jar and zip archives by registering every class
	// they contain, in dotted form, as a resolvable symbol.
	ZipIndex struct {
		registry *Registry
		fs       afero.Fs
	}

	// Plugin activates Go plugins built with -buildmode=plugin.
	Plugin struct {
		registry *Registry
	}

	// Unsupported rejects every activation with ErrActivationUnsupported.
	Unsupported struct{}

	// ByExtension dispatches to ZipIndex for .jar and .zip files, to Plugin
	// for .so files and to Unsupported otherwise.
	ByExtension struct {
		index  *ZipIndex
		plugin *Plugin
	}
)

// Validate returns ErrInvalidMode for unknown modes.
func (m Mode) Validate() error {
	switch m {
	case ModeAuto, ModeIndex, ModePlugin, ModeUnsupported:
		return nil
	default:
		return fmt.Errorf("%w: %q (want auto, index, plugin or unsupported)", ErrInvalidMode, string(m))
	}
}

// String returns the mode name.
func (m Mode) String() string { return string(m) }

// New returns the Activator for mode, recording activations in reg. Archives
// are read from fsys.
func New(mode Mode, reg *Registry, fsys afero.Fs) (Activator, error) {
	if err := mode.Validate(); err != nil {
		return nil, err
	}
	if fsys == nil {
		fsys = afero.NewOsFs()
	}

	switch mode {
	case ModeIndex:
		return NewZipIndex(reg, fsys), nil
	case ModePlugin:
		return NewPlugin(reg), nil
	case ModeUnsupported:
		return Unsupported{}, nil
	default:
		return &ByExtension{index: NewZipIndex(reg, fsys), plugin: NewPlugin(reg)}, nil
	}
}

// NewZipIndex returns a ZipIndex reading archives from fsys.
func NewZipIndex(reg *Registry, fsys afero.Fs) *ZipIndex {
	return &ZipIndex{registry: reg, fs: fsys}
}

// Activate indexes the archive at artifactPath. Activating the same path
// twice is a no-op.
func (z *ZipIndex) Activate(ctx context.Context, artifactPath string) error {
	if z.registry.IsActive(artifactPath) {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	symbols, err := z.index(artifactPath)
	if err != nil {
		return err
	}
	z.registry.commit(artifactPath, symbols)
	return nil
}

func (z *ZipIndex) index(artifactPath string) (_ []string, err error) {
	f, err := z.fs.Open(artifactPath)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", artifactPath, err)
	}
	defer func() { _ = f.Close() }() // read-only handle

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", artifactPath, err)
	}

	zr, err := zip.NewReader(f, info.Size())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidArtifact, artifactPath, err)
	}

	symbols := make([]string, 0, len(zr.File))
	for _, entry := range zr.File {
		if name, ok := ClassName(entry.Name); ok {
			symbols = append(symbols, name)
		}
	}
	return symbols, nil
}

// ClassName converts an archive entry such as "com/google/gson/Gson.class"
// into "com.google.gson.Gson". Metadata, module and package descriptors are
// not classes.
func ClassName(entry string) (string, bool) {
	name, ok := strings.CutSuffix(entry, ".class")
	if !ok || name == "" || strings.HasPrefix(entry, "META-INF/") {
		return "", false
	}
	base := name[strings.LastIndex(name, "/")+1:]
	if base == "module-info" || base == "package-info" {
		return "", false
	}
	return strings.ReplaceAll(name, "/", "."), true
}

// NewPlugin returns a Plugin activator.
func NewPlugin(reg *Registry) *Plugin {
	return &Plugin{registry: reg}
}

// Activate loads the plugin at artifactPath and registers the capabilities
// it lists under CapabilitiesSymbol. A plugin without that symbol still
// counts as active.
func (p *Plugin) Activate(ctx context.Context, artifactPath string) error {
	if p.registry.IsActive(artifactPath) {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	plug, err := plugin.Open(artifactPath)
	if err != nil {
		return fmt.Errorf("loading plugin %s: %w", artifactPath, err)
	}

	var symbols []string
	if sym, lookupErr := plug.Lookup(CapabilitiesSymbol); lookupErr == nil {
		switch v := sym.(type) {
		case *[]string:
			symbols = *v
		case func() []string:
			symbols = v()
		default:
			return fmt.Errorf("%w: %s: %s has type %T", ErrInvalidArtifact, artifactPath, CapabilitiesSymbol, sym)
		}
	}
	p.registry.commit(artifactPath, symbols)
	return nil
}

// Activate implements Activator.
func (Unsupported) Activate(_ context.Context, artifactPath string) error {
	return fmt.Errorf("%w: %s", ErrActivationUnsupported, artifactPath)
}

// Activate implements Activator.
func (b *ByExtension) Activate(ctx context.Context, artifactPath string) error {
	switch strings.ToLower(filepath.Ext(artifactPath)) {
	case ".jar", ".zip":
		return b.index.Activate(ctx, artifactPath)
	case ".so":
		return b.plugin.Activate(ctx, artifactPath)
	default:
		return Unsupported{}.Activate(ctx, artifactPath)
	}
}
