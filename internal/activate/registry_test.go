// SPDX-License-Identifier: MPL-2.0

package activate

import (
	"fmt"
	"slices"
	"sync"
	"testing"
)

func TestRegistry_ProbeAndProvide(t *testing.T) {
	t.Parallel()

	r := NewRegistry("host.Logger", "")
	if !r.Probe("host.Logger") {
		t.Error("seeded symbol not resolvable")
	}
	if r.Probe("") {
		t.Error("empty symbol resolvable")
	}
	if r.Probe("com.google.gson.Gson") {
		t.Error("unknown symbol resolvable")
	}

	r.Provide("com.google.gson.Gson")
	if !r.Probe("com.google.gson.Gson") {
		t.Error("provided symbol not resolvable")
	}
	if got := r.Symbols(); !slices.Equal(got, []string{"com.google.gson.Gson", "host.Logger"}) {
		t.Errorf("Symbols() = %v", got)
	}
}

func TestRegistry_CommitIsIdempotent(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	if !r.commit("/libs/a.jar", []string{"a.A"}) {
		t.Fatal("first commit reported already active")
	}
	if r.commit("/libs/a.jar", []string{"a.B"}) {
		t.Error("second commit of the same path succeeded")
	}
	if r.Probe("a.B") {
		t.Error("symbols of a repeated commit were registered")
	}
	if got := r.Active(); !slices.Equal(got, []string{"/libs/a.jar"}) {
		t.Errorf("Active() = %v", got)
	}
}

func TestRegistry_Concurrent(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			name := fmt.Sprintf("sym%d", i)
			r.Provide(name)
			_ = r.Probe(name)
			r.commit(fmt.Sprintf("/libs/%d.jar", i%4), nil)
		}()
	}
	wg.Wait()

	if len(r.Symbols()) != 16 {
		t.Errorf("got %d symbols, want 16", len(r.Symbols()))
	}
	if len(r.Active()) != 4 {
		t.Errorf("got %d active artifacts, want 4", len(r.Active()))
	}
}
