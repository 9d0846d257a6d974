package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildConfiguration(t *testing.T) {
	// Each build mode pins its matching driver registration
	switch BuildMode {
	case "cgo":
		assert.Equal(t, "sqlite3", DriverName)
	case "purego":
		assert.Equal(t, "sqlite", DriverName)
	default:
		t.Fatalf("unknown build mode %q", BuildMode)
	}
}
