// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"

	"github.com/invowk/rtenv/internal/testutil"
	"github.com/invowk/rtenv/internal/transport"
)

const testRepo = "https://repo.example/maven2"

// fakeFetcher serves fixed bytes per URL and writes onto a shared memory
// filesystem. It records every call.
type fakeFetcher struct {
	fs afero.Fs

	mu      sync.Mutex
	files   map[string][]byte
	partial map[string]bool
	calls   []string
}

func newFakeFetcher(fsys afero.Fs) *fakeFetcher {
	return &fakeFetcher{fs: fsys, files: map[string][]byte{}, partial: map[string]bool{}}
}

func (f *fakeFetcher) serve(url string, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[url] = data
}

// interrupt makes the next downloads of url write half the bytes and fail.
func (f *fakeFetcher) interrupt(url string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.partial[url] = true
}

func (f *fakeFetcher) lookup(url string) ([]byte, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, url)
	data, ok := f.files[url]
	if !ok {
		return nil, false, &transport.StatusError{URL: url, StatusCode: http.StatusNotFound}
	}
	return data, f.partial[url], nil
}

func (f *fakeFetcher) Open(_ context.Context, url string) (io.ReadCloser, error) {
	data, _, err := f.lookup(url)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeFetcher) FetchToFile(_ context.Context, url, dst string) error {
	data, partial, err := f.lookup(url)
	if err != nil {
		return err
	}
	if partial {
		if err := afero.WriteFile(f.fs, dst, data[:len(data)/2], 0o644); err != nil {
			return err
		}
		return errors.New("connection reset by peer")
	}
	return afero.WriteFile(f.fs, dst, data, 0o644)
}

func (f *fakeFetcher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeFetcher) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

type testEnv struct {
	fs      afero.Fs
	fetcher *fakeFetcher
	notice  *bytes.Buffer
}

func newTestEnv() *testEnv {
	fsys := afero.NewMemMapFs()
	return &testEnv{fs: fsys, fetcher: newFakeFetcher(fsys), notice: &bytes.Buffer{}}
}

func (env *testEnv) engine(opts ...Option) *Engine {
	base := []Option{
		WithFS(env.fs),
		WithRoot("/work"),
		WithFetcher(env.fetcher),
		WithNoticeWriter(env.notice),
		WithLogger(log.New(io.Discard)),
	}
	return New(append(base, opts...)...)
}

// publishLibrary serves a POM and a jar containing classes for g:a:v.
func (env *testEnv) publishLibrary(t *testing.T, repo, group, artifact, version string, classes ...string) {
	t.Helper()

	dir := repo + "/" + testutil.LibraryPath(group, artifact, version)
	env.fetcher.serve(dir+".pom", []byte(testutil.POM(group, artifact, version)))

	jar := testutil.Jar(t, classes...)
	env.fetcher.serve(dir+".jar", jar)
	env.fetcher.serve(dir+".jar.sha1", []byte(testutil.SHA1Hex(jar)))
}
