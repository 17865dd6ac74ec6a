// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable error handling with user-friendly messages.
//
// ActionableError carries an operation, a resource and remediation hints, and
// may point at a catalogued Issue whose Markdown guidance the CLI renders with
// glamour.
package issue
