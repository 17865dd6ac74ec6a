// SPDX-License-Identifier: MPL-2.0

package store

import (
	"fmt"
	"path"
	"strings"

	"github.com/invowk/rtenv/pkg/checksum"
)

const (
	// AssetsDir is the root-relative directory holding provisioned assets.
	AssetsDir = "assets"
	// LibsDir is the root-relative directory holding library descriptors and artifacts.
	LibsDir = "libs"
	// SidecarExt is appended to a cached file's path to name its digest sidecar.
	SidecarExt = ".sha1"
	// DescriptorExt is the extension of library descriptors.
	DescriptorExt = "pom"

	shardLen = 2
)

// ShardPath returns "<hash[0:2]>/<hash>" for the hex part of hash.
// Hashes shorter than the shard prefix are placed directly under their own name.
func ShardPath(hash string) string {
	enc := checksum.Encoded(hash)
	if len(enc) < shardLen {
		return enc
	}
	return enc[:shardLen] + "/" + enc
}

// AssetRelPath returns the root-relative, slash-separated cache path of an
// asset. A non-empty name wins over the digest-derived default.
func AssetRelPath(name, hash string) string {
	if name != "" {
		return path.Join(AssetsDir, name)
	}
	return path.Join(AssetsDir, ShardPath(hash))
}

// CoordinatePath returns the repository-relative path of a library file:
// "<group with dots as slashes>/<artifact>/<version>/<artifact>-<version>.<ext>".
// The same path is used under LibsDir and under a repository base URL.
func CoordinatePath(group, artifact, version, ext string) string {
	return fmt.Sprintf("%s/%s/%s/%s-%s.%s",
		strings.ReplaceAll(group, ".", "/"), artifact, version, artifact, version, ext)
}

// LibRelPath returns CoordinatePath rooted at LibsDir.
func LibRelPath(group, artifact, version, ext string) string {
	return path.Join(LibsDir, CoordinatePath(group, artifact, version, ext))
}

// SidecarPath returns the digest sidecar path for p.
func SidecarPath(p string) string {
	return p + SidecarExt
}
