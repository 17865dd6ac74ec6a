// SPDX-License-Identifier: MPL-2.0

// Package maven reads Maven project descriptors (POM files) and resolves the
// runtime artifacts they describe from an ordered list of repositories into
// the local libs cache.
//
// It deliberately stops short of a package manager: there is no parent POM
// import, no version range mediation and no exclusion handling. Direct
// compile and runtime dependencies are followed transitively up to a fixed
// depth, first declaration wins.
package maven
