// SPDX-License-Identifier: MPL-2.0

// Package cueutil decodes user-supplied CUE files against embedded schemas.
//
// Requirement manifests and the configuration file share one flow:
//
//  1. compile the embedded schema and look up its root definition
//  2. compile the user file and unify it with that definition
//  3. validate, then decode into a Go value
//
// Errors are reported as "<file>: <json.path>: <message>" so users can find
// the offending field without knowing CUE's internal path syntax.
//
//	//go:embed manifest_schema.cue
//	var schema []byte
//
//	res, err := cueutil.ParseAndDecode[manifestFile](schema, data, "#Manifest",
//		cueutil.WithFilename("rtenv.cue"))
package cueutil
