// SPDX-License-Identifier: MPL-2.0

// Package testutil provides shared test fixtures: digest and archive builders,
// Maven-style repository layouts on afero filesystems, an nginx-backed
// repository server for integration tests, and small Must* helpers.
package testutil
