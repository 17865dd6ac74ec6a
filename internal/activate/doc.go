// SPDX-License-Identifier: MPL-2.0

// Package activate tracks which capabilities the running process has and
// makes downloaded artifacts count towards them.
//
// A statically linked Go binary cannot load arbitrary library code, so
// activation is a strategy. ZipIndex records the classes of a jar or zip as
// resolvable symbols, Plugin loads Go plugins, and Unsupported fails fast so
// hosts that cannot activate anything say so instead of silently degrading.
package activate
