// SPDX-License-Identifier: MPL-2.0

// Package config handles rtenv configuration using Viper with CUE as the file format.
//
// Configuration is loaded from ~/.config/rtenv/config.cue (or the platform
// equivalent), then from ./config.cue, and finally overridden by RTENV_*
// environment variables. Files are validated against the embedded #Config
// schema. String values support shell parameter expansion such as
// ${HOME} or ${RTENV_CACHE:-/var/cache/rtenv}.
package config
