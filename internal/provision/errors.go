// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration marks malformed requirement metadata. It is fatal for
	// the single requirement only.
	ErrConfiguration = errors.New("configuration error")

	// ErrFetch marks transport failures. The requirement stays unsatisfied.
	ErrFetch = errors.New("fetch error")

	// ErrIntegrity marks content whose digest does not match. Integrity
	// errors also match ErrFetch, since both leave the cache untouched and a
	// later run fetches again.
	ErrIntegrity = errors.New("integrity error")

	// ErrActivation marks artifacts that were fetched but could not be made
	// usable in the process. The fetch is not rolled back.
	ErrActivation = errors.New("activation error")

	// ErrProbeUnresolved is wrapped by an ActivationError when every artifact
	// activated but the requirement's probe symbol is still not resolvable.
	ErrProbeUnresolved = errors.New("probe symbol still unresolved after activation")

	// ErrEntryNotFound is returned when a packaged asset's archive lacks the
	// expected entry.
	ErrEntryNotFound = errors.New("archive entry not found")
)

type (
	// ConfigurationError reports a requirement that cannot be provisioned as
	// declared.
	ConfigurationError struct {
		Key string
		Err error
	}

	// FetchError reports a failed download or descriptor read.
	FetchError struct {
		Key string
		URL string
		Err error
	}

	// IntegrityError reports a digest mismatch on fetched or extracted content.
	IntegrityError struct {
		Key  string
		Path string
		Err  error
	}

	// ActivationError reports an artifact that could not be activated.
	ActivationError struct {
		Key      string
		Artifact string
		Err      error
	}
)

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("requirement %s: %v", e.Key, e.Err)
}

// Unwrap returns ErrConfiguration and the cause.
func (e *ConfigurationError) Unwrap() []error { return []error{ErrConfiguration, e.Err} }

// Error implements the error interface.
func (e *FetchError) Error() string {
	if e.URL == "" {
		return fmt.Sprintf("fetching %s: %v", e.Key, e.Err)
	}
	return fmt.Sprintf("fetching %s from %s: %v", e.Key, e.URL, e.Err)
}

// Unwrap returns ErrFetch and the cause.
func (e *FetchError) Unwrap() []error { return []error{ErrFetch, e.Err} }

// Error implements the error interface.
func (e *IntegrityError) Error() string {
	return fmt.Sprintf("verifying %s: %v", e.Key, e.Err)
}

// Unwrap returns ErrIntegrity, ErrFetch and the cause.
func (e *IntegrityError) Unwrap() []error { return []error{ErrIntegrity, ErrFetch, e.Err} }

// Error implements the error interface.
func (e *ActivationError) Error() string {
	if e.Artifact == "" {
		return fmt.Sprintf("activating %s: %v", e.Key, e.Err)
	}
	return fmt.Sprintf("activating %s (%s): %v", e.Key, e.Artifact, e.Err)
}

// Unwrap returns ErrActivation and the cause.
func (e *ActivationError) Unwrap() []error { return []error{ErrActivation, e.Err} }
