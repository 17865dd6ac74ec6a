// SPDX-License-Identifier: MPL-2.0

// Package requirement describes what a component needs at runtime and
// normalizes those declarations for the provisioning engine.
//
// A component exposes its needs through [Component.Requirements], which
// returns [Declarations]: each kind can be declared in a singular form
// (Asset, Library) and a repeated form (Assets, Libraries). [Discover]
// treats both forms as equivalent and flattens them into an ordered [Set].
//
// Declarations are plain values built when the component is constructed, or
// loaded from a manifest file with [LoadManifest]. Supported manifest formats
// are CUE (validated against an embedded schema), TOML and YAML:
//
//	component: "com.example.renderer"
//	asset: {
//		url:  "https://cdn.example/font.ttf"
//		hash: "3f786850e387550fdab836ed7e6dc881de23001b"
//	}
//	dependencies: [{
//		coordinate: "com.google.code.gson:gson:2.10.1"
//		repository: "https://repo1.maven.org/maven2"
//		probe:      "com.google.gson.Gson"
//	}]
//
// Discovery never validates individual records. A malformed record is a
// configuration error for that record only and is reported by the engine
// when it reaches it; Discover itself fails only when the declarations as a
// whole cannot be read.
package requirement
