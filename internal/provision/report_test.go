// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"errors"
	"testing"
)

func TestReport(t *testing.T) {
	t.Parallel()

	fetchErr := &FetchError{Key: "b", URL: "https://x/b", Err: errors.New("timeout")}
	r := &Report{Outcomes: []Outcome{
		{Kind: KindAsset, Key: "a", Status: StatusFetched},
		{Kind: KindAsset, Key: "b", Status: StatusFailed, Err: fetchErr},
		{Kind: KindLibrary, Key: "c", Status: StatusSkipped},
		{Kind: KindLibrary, Key: "d", Status: StatusCached},
	}}

	if !r.Satisfied("a") || r.Satisfied("b") || !r.Satisfied("c") || !r.Satisfied("d") {
		t.Error("Satisfied() disagrees with statuses")
	}
	if r.Satisfied("missing") {
		t.Error("unknown key reported as satisfied")
	}
	if r.FetchCount() != 1 {
		t.Errorf("FetchCount() = %d, want 1", r.FetchCount())
	}
	if failed := r.Failed(); len(failed) != 1 || failed[0].Key != "b" {
		t.Errorf("Failed() = %+v", failed)
	}
	if err := r.Err(); !errors.Is(err, fetchErr) || !errors.Is(err, ErrFetch) {
		t.Errorf("Err() = %v", err)
	}

	if err := (&Report{}).Err(); err != nil {
		t.Errorf("empty report Err() = %v", err)
	}
}

func TestErrors_Classification(t *testing.T) {
	t.Parallel()

	cause := errors.New("cause")
	tests := []struct {
		name string
		err  error
		is   []error
		not  []error
	}{
		{name: "configuration", err: &ConfigurationError{Key: "k", Err: cause}, is: []error{ErrConfiguration, cause}, not: []error{ErrFetch}},
		{name: "fetch", err: &FetchError{Key: "k", Err: cause}, is: []error{ErrFetch, cause}, not: []error{ErrIntegrity}},
		{name: "integrity", err: &IntegrityError{Key: "k", Err: cause}, is: []error{ErrIntegrity, ErrFetch, cause}, not: []error{ErrActivation}},
		{name: "activation", err: &ActivationError{Key: "k", Artifact: "/a.jar", Err: cause}, is: []error{ErrActivation, cause}, not: []error{ErrFetch}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			for _, target := range tt.is {
				if !errors.Is(tt.err, target) {
					t.Errorf("errors.Is(%v, %v) = false", tt.err, target)
				}
			}
			for _, target := range tt.not {
				if errors.Is(tt.err, target) {
					t.Errorf("errors.Is(%v, %v) = true", tt.err, target)
				}
			}
			if tt.err.Error() == "" {
				t.Error("empty message")
			}
		})
	}
}
