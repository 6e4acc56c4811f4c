package testutil

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
)

func NewID() string {
	return uuid.NewString()
}

func ctxBackground() context.Context {
	return context.Background()
}

// RequireEnv skips the test unless the environment variable is set, and returns its value.
// Tests against real databases use it.
func RequireEnv(t *testing.T, key string) string {
	t.Helper()
	val := os.Getenv(key)
	if val == "" {
		t.Skipf("%s is not set", key)
	}
	return val
}
