package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

// testContext returns a context cancelled when the test ends
func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// artifactPath returns a path for a CSV artifact inside a per-test directory
func artifactPath(t *testing.T, name string) string {
	t.Helper()
	return filepath.Join(t.TempDir(), name)
}
