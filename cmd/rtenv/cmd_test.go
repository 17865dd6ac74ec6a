// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"github.com/invowk/rtenv/internal/config"
	"github.com/invowk/rtenv/internal/issue"
	"github.com/invowk/rtenv/internal/testutil"
)

type staticConfig struct {
	cfg *config.Config
}

func (s staticConfig) Load(context.Context, config.LoadOptions) (*config.Config, error) {
	c := *s.cfg
	return &c, nil
}

// fixture is a temp workspace holding a file:// repository, a source
// directory for assets and a provisioning root.
type fixture struct {
	dir    string
	repo   *testutil.Repository
	cfg    *config.Config
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Root = filepath.Join(dir, "root")
	cfg.Notice = "Loading assets, please wait..."

	return &fixture{
		dir:    dir,
		repo:   testutil.NewRepository(afero.NewOsFs(), filepath.Join(dir, "repo")),
		cfg:    cfg,
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
	}
}

func (f *fixture) run(args ...string) error {
	f.stdout.Reset()
	f.stderr.Reset()

	app := NewApp(Dependencies{
		Config: staticConfig{cfg: f.cfg},
		Stdout: f.stdout,
		Stderr: f.stderr,
	})
	root := NewRootCommand(app)
	root.SetArgs(args)
	root.SetOut(f.stdout)
	root.SetErr(f.stderr)
	return root.ExecuteContext(context.Background())
}

// asset writes a source file and returns its file:// URL and SHA-1.
func (f *fixture) asset(t *testing.T, name, content string) (string, string) {
	t.Helper()
	p := filepath.Join(f.dir, "src", name)
	testutil.MustWriteFile(t, p, []byte(content))
	return "file://" + filepath.ToSlash(p), testutil.SHA1Hex([]byte(content))
}

func (f *fixture) manifest(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(f.dir, "rtenv.cue")
	testutil.MustWriteFile(t, p, []byte(body))
	return p
}

func (f *fixture) viewerManifest(t *testing.T) string {
	t.Helper()

	fontURL, fontHash := f.asset(t, "inter.ttf", "font bytes")
	f.repo.Publish(t, "org.example", "core", "1.0", nil, "org/example/Core.class")

	return f.manifest(t, fmt.Sprintf(`
component: "viewer"
asset: {url: %q, hash: %q, name: "inter.ttf"}
dependency: {coordinate: "org.example:core:1.0", repository: %q, probe: "org.example.Core"}
`, fontURL, fontHash, f.repo.URL()))
}

func TestProvision_FetchesThenReusesCache(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	manifest := f.viewerManifest(t)

	if err := f.run("provision", manifest); err != nil {
		t.Fatalf("provision: %v\nstderr: %s", err, f.stderr)
	}
	out := f.stdout.String()
	if strings.Count(out, "Loading assets, please wait...") != 1 {
		t.Errorf("expected the notice exactly once:\n%s", out)
	}
	if strings.Count(out, "fetched") != 2 {
		t.Errorf("expected two fetched outcomes:\n%s", out)
	}
	if !strings.Contains(out, "org.example:core:1.0") || !strings.Contains(out, "inter.ttf") {
		t.Errorf("outcome keys missing:\n%s", out)
	}

	if err := f.run("provision", manifest); err != nil {
		t.Fatalf("second provision: %v", err)
	}
	out = f.stdout.String()
	if strings.Contains(out, "please wait") {
		t.Errorf("cached run should not print the notice:\n%s", out)
	}
	if strings.Count(out, "cached") != 2 {
		t.Errorf("expected two cached outcomes:\n%s", out)
	}
}

func TestProvision_StrictFailsOnBadRequirement(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	url, _ := f.asset(t, "data.bin", "payload")
	manifest := f.manifest(t, fmt.Sprintf(`asset: {url: %q, hash: %q}`, url, strings.Repeat("0", 40)))

	if err := f.run("provision", manifest); err != nil {
		t.Fatalf("non-strict provision should succeed: %v", err)
	}
	if !strings.Contains(f.stdout.String(), "failed") {
		t.Errorf("expected a failed outcome:\n%s", f.stdout)
	}

	err := f.run("provision", "--strict", manifest)
	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected ExitError, got %v", err)
	}
	if exitErr.Code != 1 {
		t.Errorf("exit code = %d, want 1", exitErr.Code)
	}
}

func TestProvision_VerbosePrintsGuide(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	url, _ := f.asset(t, "data.bin", "payload")
	manifest := f.manifest(t, fmt.Sprintf(`asset: {url: %q, hash: %q}`, url, strings.Repeat("0", 40)))

	if err := f.run("provision", "-v", manifest); err != nil {
		t.Fatalf("provision: %v", err)
	}
	if !strings.Contains(f.stdout.String(), "Integrity check failed") {
		t.Errorf("verbose output should include the integrity guide:\n%s", f.stdout)
	}
}

func TestProvision_MissingManifest(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	err := f.run("provision", filepath.Join(f.dir, "absent.cue"))

	var ae *issue.ActionableError
	if !errors.As(err, &ae) {
		t.Fatalf("expected ActionableError, got %v", err)
	}
	if ae.Issue != issue.ManifestNotFoundId {
		t.Errorf("Issue = %d, want ManifestNotFoundId", ae.Issue)
	}
}

func TestProvision_InvalidManifest(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	manifest := f.manifest(t, `assets: [{url: "https://x.example/a"}]`)

	err := f.run("provision", manifest)
	var ae *issue.ActionableError
	if !errors.As(err, &ae) {
		t.Fatalf("expected ActionableError, got %v", err)
	}
	if ae.Issue != issue.ManifestParseErrorId {
		t.Errorf("Issue = %d, want ManifestParseErrorId", ae.Issue)
	}
}

func TestStatus_Markdown(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	manifest := f.viewerManifest(t)

	if err := f.run("status", "--format", "markdown", manifest); err != nil {
		t.Fatalf("status: %v", err)
	}
	out := f.stdout.String()
	for _, want := range []string{"## viewer", "| Kind | Requirement | Status | Detail |", "| library | org.example:core:1.0 | pending |", "0 satisfied, 2 pending, 0 failed"} {
		if !strings.Contains(out, want) {
			t.Errorf("status output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "please wait") {
		t.Error("status must not print the download notice")
	}

	if err := f.run("provision", manifest); err != nil {
		t.Fatal(err)
	}
	if err := f.run("status", "--format", "markdown", manifest); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(f.stdout.String(), "2 satisfied, 0 pending, 0 failed") {
		t.Errorf("expected everything satisfied after provisioning:\n%s", f.stdout)
	}
}

func TestStatus_Pretty(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	manifest := f.viewerManifest(t)

	if err := f.run("status", "--style", "notty", manifest); err != nil {
		t.Fatalf("status: %v", err)
	}
	out := f.stdout.String()
	if !strings.Contains(out, "viewer") || !strings.Contains(out, "pending") {
		t.Errorf("rendered status missing content:\n%s", out)
	}
}

func TestStatus_UnknownFormat(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	if err := f.run("status", "--format", "json", "x.cue"); err == nil {
		t.Fatal("expected an error for an unknown format")
	}
}

func TestHash(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	p := filepath.Join(f.dir, "abc.txt")
	testutil.MustWriteFile(t, p, []byte("abc"))

	tests := []struct {
		args []string
		want string
	}{
		{[]string{"hash", p}, "a9993e364706816aba3e25717850c26c9cd0d89d  " + p},
		{[]string{"hash", "--algorithm", "sha256", p}, "sha256:ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad  " + p},
	}

	for _, tt := range tests {
		if err := f.run(tt.args...); err != nil {
			t.Fatalf("%v: %v", tt.args, err)
		}
		if got := strings.TrimSpace(f.stdout.String()); got != tt.want {
			t.Errorf("%v = %q, want %q", tt.args, got, tt.want)
		}
	}

	if err := f.run("hash", "--algorithm", "md5", p); err == nil {
		t.Error("expected an error for an unsupported algorithm")
	}
}

func TestConfigDump(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.cfg.Repositories = []string{"https://mirror.example.com/maven2"}

	if err := f.run("config", "dump"); err != nil {
		t.Fatalf("config dump: %v", err)
	}
	out := f.stdout.String()
	for _, want := range []string{`activation: "auto"`, `"https://mirror.example.com/maven2",`} {
		if !strings.Contains(out, want) {
			t.Errorf("dump missing %q:\n%s", want, out)
		}
	}
}

func TestConfigShow_RootFlagOverrides(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	if err := f.run("--root", "/srv/override", "config", "show"); err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.Contains(f.stdout.String(), "/srv/override") {
		t.Errorf("--root should override the configured root:\n%s", f.stdout)
	}
}

func TestGuideFor(t *testing.T) {
	t.Parallel()

	if guideFor(errors.New("plain")) != 0 {
		t.Error("unclassified errors should have no guide")
	}
}

func TestGetVersionString(t *testing.T) {
	// Not parallel: mutates package-level Version/Commit/BuildDate.
	origVersion, origCommit, origBuildDate := Version, Commit, BuildDate
	t.Cleanup(func() {
		Version, Commit, BuildDate = origVersion, origCommit, origBuildDate
	})

	Version, Commit, BuildDate = "v1.2.3", "abc1234", "2026-01-02T10:00:00Z"
	if got, want := getVersionString(), "v1.2.3 (commit: abc1234, built: 2026-01-02T10:00:00Z)"; got != want {
		t.Errorf("getVersionString() = %q, want %q", got, want)
	}

	Version = "dev"
	if got := getVersionString(); got != "dev (built from source)" {
		t.Errorf("getVersionString() = %q", got)
	}
}

func TestProvision_InMemoryFilesystem(t *testing.T) {
	t.Parallel()

	fsys := afero.NewMemMapFs()
	repo := testutil.NewRepository(fsys, "/repo")
	repo.Publish(t, "org.example", "core", "1.0", nil, "org/example/Core.class")

	data := []byte("icon bytes")
	if err := afero.WriteFile(fsys, "/src/icon.png", data, 0o644); err != nil {
		t.Fatal(err)
	}
	manifest := fmt.Sprintf(`
component: viewer
asset:
  url: file:///src/icon.png
  name: icon.png
  hash: "%s"
dependency:
  coordinate: org.example:core:1.0
  repository: %s
`, testutil.SHA1Hex(data), repo.URL())
	if err := afero.WriteFile(fsys, "/work/rtenv.yaml", []byte(manifest), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := config.DefaultConfig()
	cfg.Root = "/work/root"
	var stdout, stderr bytes.Buffer
	app := NewApp(Dependencies{
		Config: staticConfig{cfg: cfg},
		FS:     fsys,
		Stdout: &stdout,
		Stderr: &stderr,
	})
	root := NewRootCommand(app)
	root.SetArgs([]string{"provision", "--strict", "/work/rtenv.yaml"})
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("provision: %v\nstdout: %s\nstderr: %s", err, &stdout, &stderr)
	}

	if ok, _ := afero.Exists(fsys, "/work/root/assets/icon.png"); !ok {
		t.Error("asset not written to the in-memory root")
	}
	if ok, _ := afero.Exists(fsys, "/work/root/libs/org/example/core/1.0/core-1.0.jar"); !ok {
		t.Error("library not written to the in-memory root")
	}
}
