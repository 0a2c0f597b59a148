// Package carp provides embedded assets for the carp daemon.
//
// The root package exists solely to embed [config.default.toml] via
// [DefaultConfigTOML]. The daemon copies this file into the data
// directory on first run so users start from a documented config.
package carp

import _ "embed"

// DefaultConfigTOML holds the raw bytes of config.default.toml, embedded at
// build time. After changing config defaults, update the file and verify it
// with cmd/genconfig.
//
//go:embed config.default.toml
var DefaultConfigTOML []byte
