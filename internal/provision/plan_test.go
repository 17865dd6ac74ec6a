// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"context"
	"testing"

	"github.com/invowk/rtenv/internal/activate"
	"github.com/invowk/rtenv/internal/testutil"
	"github.com/invowk/rtenv/pkg/requirement"
)

func TestPlan(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	data := []byte("asset")
	env.fetcher.serve("https://cdn.example/a", data)
	env.publishLibrary(t, testRepo, "org.example", "lib", "1", "org/example/Lib.class")

	c := requirement.Static{Name: "planned", Declarations: requirement.Declarations{
		Assets: []requirement.AssetRequirement{
			{Locator: "https://cdn.example/a", Hash: testutil.SHA1Hex(data)},
			{Locator: "https://cdn.example/bad", Hash: "zz"},
		},
		Libraries: []requirement.LibraryRequirement{
			{Coordinate: "org.example:lib:1", Repository: testRepo},
			{Coordinate: "host:provided:1", Repository: testRepo, Probe: "host.Provided"},
		},
	}}

	e := env.engine(WithProber(activate.NewRegistry("host.Provided")))

	before, err := e.Plan(c)
	if err != nil {
		t.Fatal(err)
	}
	wantBefore := []Status{StatusPending, StatusFailed, StatusPending, StatusSkipped}
	assertStatuses(t, before, wantBefore)
	if env.fetcher.count() != 0 || env.notice.Len() != 0 {
		t.Errorf("Plan touched the network: %d calls, notice %q", env.fetcher.count(), env.notice.String())
	}

	if _, err := e.Inject(context.Background(), c); err != nil {
		t.Fatal(err)
	}

	env.fetcher.reset()
	after, err := e.Plan(c)
	if err != nil {
		t.Fatal(err)
	}
	assertStatuses(t, after, []Status{StatusCached, StatusFailed, StatusCached, StatusSkipped})
	if env.fetcher.count() != 0 {
		t.Errorf("Plan made %d fetch calls", env.fetcher.count())
	}
}

func TestPlan_TransitiveDependencyNotCached(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	app := testRepo + "/" + testutil.LibraryPath("org.example", "app", "1")
	env.fetcher.serve(app+".pom", []byte(testutil.POM("org.example", "app", "1", "org.example:dep:2")))
	appJar := testutil.Jar(t, "org/example/App.class")
	env.fetcher.serve(app+".jar", appJar)
	env.fetcher.serve(app+".jar.sha1", []byte(testutil.SHA1Hex(appJar)))
	env.publishLibrary(t, testRepo, "org.example", "dep", "2", "org/example/Dep.class")

	c := libraryComponent(requirement.LibraryRequirement{Coordinate: "org.example:app:1", Repository: testRepo})
	e := env.engine()
	report, err := e.Inject(context.Background(), c)
	if err != nil {
		t.Fatal(err)
	}
	if o := report.Outcomes[0]; o.Err != nil || len(o.Artifacts) != 2 {
		t.Fatalf("outcome = %+v", o)
	}

	plan, err := e.Plan(c)
	if err != nil {
		t.Fatal(err)
	}
	assertStatuses(t, plan, []Status{StatusCached})

	st := e.Store()
	if err := st.FS().Remove(st.LibPath("org.example", "dep", "2", "jar")); err != nil {
		t.Fatal(err)
	}
	plan, err = e.Plan(c)
	if err != nil {
		t.Fatal(err)
	}
	assertStatuses(t, plan, []Status{StatusPending})
}

func TestPlan_MalformedDeclarations(t *testing.T) {
	t.Parallel()

	if _, err := newTestEnv().engine().Plan(nil); err == nil {
		t.Error("Plan(nil) succeeded")
	}
}

func assertStatuses(t *testing.T, r *Report, want []Status) {
	t.Helper()

	if len(r.Outcomes) != len(want) {
		t.Fatalf("got %d outcomes, want %d", len(r.Outcomes), len(want))
	}
	for i, o := range r.Outcomes {
		if o.Status != want[i] {
			t.Errorf("outcome %d (%s) status = %s, want %s", i, o.Key, o.Status, want[i])
		}
	}
}
