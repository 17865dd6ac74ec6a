// SPDX-License-Identifier: MPL-2.0

// Package provision makes the runtime requirements of a component available
// to the running process.
//
// A component declares assets (files fetched into the cache) and libraries
// (artifacts resolved from a repository and activated in-process). The
// Engine checks the cache first, fetches what is missing or stale and
// reports one Outcome per requirement:
//
//	engine := provision.New(provision.WithRoot(root))
//	report, err := engine.Inject(ctx, component)
//	if err != nil {
//		// the declarations themselves could not be read
//	}
//	for _, o := range report.Failed() {
//		log.Warn("requirement unavailable", "key", o.Key, "error", o.Err)
//	}
//
// Cache entries are valid only when their recomputed digest matches the
// declared one. Every write goes through a temporary file in the target
// directory and a rename, so a target that exists was complete when it was
// written. Failures are isolated per requirement.
package provision
