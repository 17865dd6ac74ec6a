// SPDX-License-Identifier: MPL-2.0

// Package transport streams remote bytes into local files.
//
// HTTPFetcher is the default fetch collaborator of the provisioning engine.
// It speaks HTTP(S) and file:// (resolved against its afero filesystem), makes
// a single attempt per call and leaves timeouts to the configured http.Client.
package transport
