// SPDX-License-Identifier: MPL-2.0

package requirement

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidCoordinate is the sentinel error wrapped by InvalidCoordinateError.
var ErrInvalidCoordinate = errors.New("invalid coordinate")

type (
	// Coordinate identifies a library as group, artifact and version.
	Coordinate struct {
		Group    string
		Artifact string
		Version  string
	}

	// InvalidCoordinateError is returned when a coordinate string does not have
	// exactly three non-empty segments.
	InvalidCoordinateError struct {
		Value  string
		Reason string
	}
)

// Error implements the error interface.
func (e *InvalidCoordinateError) Error() string {
	return fmt.Sprintf("invalid coordinate %q: %s (expected group:artifact:version)", e.Value, e.Reason)
}

// Unwrap returns ErrInvalidCoordinate for errors.Is() compatibility.
func (e *InvalidCoordinateError) Unwrap() error { return ErrInvalidCoordinate }

// ParseCoordinate parses "group:artifact:version".
func ParseCoordinate(s string) (Coordinate, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 3 {
		return Coordinate{}, &InvalidCoordinateError{Value: s, Reason: fmt.Sprintf("has %d segments", len(parts))}
	}

	for i, p := range parts {
		if p == "" {
			return Coordinate{}, &InvalidCoordinateError{Value: s, Reason: fmt.Sprintf("segment %d is empty", i+1)}
		}
		// Segments become directory names in the cache and in repository URLs.
		if strings.ContainsAny(p, `/\ `) || p == "." || p == ".." {
			return Coordinate{}, &InvalidCoordinateError{Value: s, Reason: fmt.Sprintf("segment %q is not a plain name", p)}
		}
	}

	return Coordinate{Group: parts[0], Artifact: parts[1], Version: parts[2]}, nil
}

// String returns "group:artifact:version".
func (c Coordinate) String() string {
	return c.Group + ":" + c.Artifact + ":" + c.Version
}

// ID returns "group:artifact", the version-independent identity.
func (c Coordinate) ID() string {
	return c.Group + ":" + c.Artifact
}
