// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"errors"
	"slices"
)

const (
	// KindAsset marks asset outcomes.
	KindAsset Kind = "asset"
	// KindLibrary marks library outcomes.
	KindLibrary Kind = "library"

	// StatusCached means a valid local copy was reused without network.
	StatusCached Status = "cached"
	// StatusFetched means at least one download happened.
	StatusFetched Status = "fetched"
	// StatusSkipped means the probe symbol was already resolvable.
	StatusSkipped Status = "skipped"
	// StatusPending is only produced by Plan: a run would need the network.
	StatusPending Status = "pending"
	// StatusFailed means the requirement is not satisfied; Err says why.
	StatusFailed Status = "failed"
)

type (
	// Kind distinguishes asset and library requirements.
	Kind string

	// Status is the result of provisioning one requirement.
	Status string

	// Outcome is the result for one requirement.
	Outcome struct {
		Kind   Kind
		Key    string
		Target string
		Status Status
		// Artifacts are the activated library artifacts, primary first.
		Artifacts []string
		// Warnings are non-fatal problems, such as transitive dependencies
		// that could not be resolved.
		Warnings []string
		Err      error
	}

	// Report collects the outcomes of one session in declaration order,
	// assets first.
	Report struct {
		Session   string
		Component string
		Outcomes  []Outcome
	}
)

// OK reports whether the requirement is satisfied.
func (o Outcome) OK() bool {
	switch o.Status {
	case StatusCached, StatusFetched, StatusSkipped:
		return true
	default:
		return false
	}
}

// Failed returns the failed outcomes.
func (r *Report) Failed() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.Status == StatusFailed {
			out = append(out, o)
		}
	}
	return out
}

// Err joins the errors of all failed outcomes, or returns nil.
func (r *Report) Err() error {
	var errs []error
	for _, o := range r.Outcomes {
		if o.Err != nil {
			errs = append(errs, o.Err)
		}
	}
	return errors.Join(errs...)
}

// Satisfied reports whether the requirement with key was satisfied.
func (r *Report) Satisfied(key string) bool {
	i := slices.IndexFunc(r.Outcomes, func(o Outcome) bool { return o.Key == key })
	return i >= 0 && r.Outcomes[i].OK()
}

// Lookup returns the outcome for key.
func (r *Report) Lookup(key string) (Outcome, bool) {
	i := slices.IndexFunc(r.Outcomes, func(o Outcome) bool { return o.Key == key })
	if i < 0 {
		return Outcome{}, false
	}
	return r.Outcomes[i], true
}

// FetchCount returns how many requirements needed the network.
func (r *Report) FetchCount() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == StatusFetched {
			n++
		}
	}
	return n
}

// Count returns how many outcomes have status s.
func (r *Report) Count(s Status) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == s {
			n++
		}
	}
	return n
}

func (r *Report) add(o Outcome) {
	r.Outcomes = append(r.Outcomes, o)
}
