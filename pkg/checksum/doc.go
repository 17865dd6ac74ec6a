// SPDX-License-Identifier: MPL-2.0

// Package checksum computes and verifies content digests of cached files.
//
// Digests are the only cache key the provisioning engine trusts: an entry is
// valid when the recomputed digest of its bytes equals the declared one.
//
// Expected digests may be written in three forms:
//   - 40 hex characters: SHA-1, the algorithm used by Maven ".sha1" sidecars
//   - 64 hex characters: SHA-256
//   - "<algorithm>:<hex>": any algorithm registered with go-digest (sha256, sha384, sha512)
//
// Comparison is case-insensitive. [FileHasher.Sum] always produces lowercase
// SHA-1 hex so that sidecars written by this package interoperate with the
// ones published by Maven repositories.
package checksum
