// SPDX-License-Identifier: MPL-2.0

package requirement

import (
	"errors"
	"fmt"
)

// ErrMalformedDeclarations is the sentinel error wrapped by MalformedDeclarationsError.
var ErrMalformedDeclarations = errors.New("malformed requirement declarations")

type (
	// Declarations is the requirement metadata a component carries. Each kind
	// may be declared once (Asset, Library), as a group (Assets, Libraries),
	// or both.
	Declarations struct {
		Asset     *AssetRequirement
		Assets    []AssetRequirement
		Library   *LibraryRequirement
		Libraries []LibraryRequirement
	}

	// Component is anything that declares runtime requirements.
	Component interface {
		Requirements() Declarations
	}

	// ComponentFunc adapts a function to the Component interface.
	ComponentFunc func() Declarations

	// Static is a Component whose declarations are fixed at construction.
	Static struct {
		Name         string
		Declarations Declarations
	}

	// Set is the normalized, ordered requirement list of one component.
	Set struct {
		Assets    []AssetRequirement
		Libraries []LibraryRequirement
	}

	// MalformedDeclarationsError is returned when a component's declarations
	// cannot be read at all.
	MalformedDeclarationsError struct {
		Source string
		Cause  error
	}
)

// Requirements implements Component.
func (f ComponentFunc) Requirements() Declarations { return f() }

// Requirements implements Component.
func (s Static) Requirements() Declarations { return s.Declarations }

// String returns the component name.
func (s Static) String() string { return s.Name }

// Error implements the error interface.
func (e *MalformedDeclarationsError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("malformed requirement declarations in %s", e.Source)
	}
	return fmt.Sprintf("malformed requirement declarations in %s: %v", e.Source, e.Cause)
}

// Unwrap returns ErrMalformedDeclarations for errors.Is() compatibility.
func (e *MalformedDeclarationsError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrMalformedDeclarations}
	}
	return []error{ErrMalformedDeclarations, e.Cause}
}

// Discover normalizes the declarations of c into a Set. The singular form
// comes first, followed by the repeated group, each in declaration order.
// It has no side effects and never validates individual records.
func Discover(c Component) (*Set, error) {
	if c == nil {
		return nil, &MalformedDeclarationsError{Source: "<nil component>"}
	}
	return Normalize(c.Requirements()), nil
}

// Normalize flattens d into a Set.
func Normalize(d Declarations) *Set {
	set := &Set{
		Assets:    make([]AssetRequirement, 0, len(d.Assets)+1),
		Libraries: make([]LibraryRequirement, 0, len(d.Libraries)+1),
	}

	if d.Asset != nil {
		set.Assets = append(set.Assets, *d.Asset)
	}
	set.Assets = append(set.Assets, d.Assets...)

	if d.Library != nil {
		set.Libraries = append(set.Libraries, *d.Library)
	}
	set.Libraries = append(set.Libraries, d.Libraries...)

	return set
}

// Len returns the total number of requirements.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Assets) + len(s.Libraries)
}
