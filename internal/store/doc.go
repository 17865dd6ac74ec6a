// SPDX-License-Identifier: MPL-2.0

// Package store owns the on-disk layout of the provisioning cache.
//
// Everything lives under a single provisioning root:
//
//	<root>/assets/<name>                       named asset
//	<root>/assets/<hash[0:2]>/<hash>           anonymous asset, sharded by digest prefix
//	<root>/libs/<group/path>/<a>/<v>/<a>-<v>.pom
//	<root>/libs/<group/path>/<a>/<v>/<a>-<v>.pom.sha1
//
// Entries are either absent or complete. Writes go to a hidden temporary file
// in the destination directory and are renamed into place, so an interrupted
// write never leaves a partially written file under the final name.
//
// The path helpers (ShardPath, AssetRelPath, CoordinatePath) are pure and
// return slash-separated paths; Store methods convert them to OS paths.
package store
