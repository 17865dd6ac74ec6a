// SPDX-License-Identifier: MPL-2.0

package requirement

import (
	"errors"
	"testing"
)

func TestDiscover_SingularAndRepeatedAreEquivalent(t *testing.T) {
	t.Parallel()

	a := AssetRequirement{Locator: "https://cdn.example/a", Hash: validSHA1}
	l := LibraryRequirement{Coordinate: "g:a:1", Repository: "https://repo.example"}

	singular, err := Discover(Static{Declarations: Declarations{Asset: &a, Library: &l}})
	if err != nil {
		t.Fatalf("Discover(singular) error = %v", err)
	}
	repeated, err := Discover(Static{Declarations: Declarations{
		Assets:    []AssetRequirement{a},
		Libraries: []LibraryRequirement{l},
	}})
	if err != nil {
		t.Fatalf("Discover(repeated) error = %v", err)
	}

	if len(singular.Assets) != 1 || len(repeated.Assets) != 1 || singular.Assets[0] != repeated.Assets[0] {
		t.Errorf("asset forms differ: %+v vs %+v", singular.Assets, repeated.Assets)
	}
	if len(singular.Libraries) != 1 || len(repeated.Libraries) != 1 || singular.Libraries[0] != repeated.Libraries[0] {
		t.Errorf("library forms differ: %+v vs %+v", singular.Libraries, repeated.Libraries)
	}
}

func TestDiscover_PreservesOrder(t *testing.T) {
	t.Parallel()

	first := AssetRequirement{Locator: "https://x/1", Hash: "01"}
	second := AssetRequirement{Locator: "https://x/2", Hash: "02"}
	third := AssetRequirement{Locator: "https://x/3", Hash: "03"}

	set, err := Discover(ComponentFunc(func() Declarations {
		return Declarations{Asset: &first, Assets: []AssetRequirement{second, third}}
	}))
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	want := []string{"https://x/1", "https://x/2", "https://x/3"}
	for i, a := range set.Assets {
		if a.Locator != want[i] {
			t.Errorf("asset %d = %q, want %q", i, a.Locator, want[i])
		}
	}
	if set.Len() != 3 {
		t.Errorf("Len() = %d, want 3", set.Len())
	}
}

func TestDiscover_Empty(t *testing.T) {
	t.Parallel()

	set, err := Discover(Static{})
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if set.Len() != 0 {
		t.Errorf("Len() = %d, want 0", set.Len())
	}
}

func TestDiscover_NilComponent(t *testing.T) {
	t.Parallel()

	if _, err := Discover(nil); !errors.Is(err, ErrMalformedDeclarations) {
		t.Errorf("Discover(nil) error = %v, want ErrMalformedDeclarations", err)
	}
}

func TestDiscover_DoesNotValidateRecords(t *testing.T) {
	t.Parallel()

	bad := LibraryRequirement{Coordinate: "not-a-coordinate"}
	set, err := Discover(Static{Declarations: Declarations{Library: &bad}})
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if len(set.Libraries) != 1 {
		t.Errorf("malformed record dropped during discovery")
	}
}
