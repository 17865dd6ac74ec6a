// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the rtenv command-line interface.
//
// The CLI is a host component for the provisioning engine: it loads
// requirement manifests, provisions them into a cache root, reports offline
// status and helps authors compute digests. Commands receive an App, the
// composition root that wires configuration, filesystem and transport.
package cmd
