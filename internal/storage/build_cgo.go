//go:build cgo_sqlite
// +build cgo_sqlite

package storage

// This file is compiled when building with CGO and the cgo_sqlite tag.
// It selects the C SQLite driver.
//
// Build command:
//   CGO_ENABLED=1 go build -tags "cgo_sqlite,fts5" ./...
//
// The C driver provides:
//   - Native FTS5 full-text search implementation
//   - Faster query execution than the pure Go driver
//   - Recommended for production libraries
//
// Vector similarity is computed by a Go-side scan over stored embedding
// blobs in both builds; the driver choice does not change that path.
//
// Driver used: github.com/mattn/go-sqlite3

import (
	_ "github.com/mattn/go-sqlite3"
)

const (
	// DriverName is the SQLite driver to use
	DriverName = "sqlite3"

	// BuildMode describes the current build configuration
	BuildMode = "cgo"
)
