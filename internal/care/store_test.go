package care

import (
	"testing"
	"time"

	kvmemory "github.com/wellmind/care-service/internal/plugin/kv/memory"
	registrykv "github.com/wellmind/care-service/internal/registry/kv"
)

// testTime is a Wednesday; week bounds are 2025-03-10 through 2025-03-16.
var testTime = time.Date(2025, 3, 12, 15, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T, opts ...Option) (*Store, registrykv.Store) {
	t.Helper()
	kv := kvmemory.New()
	opts = append([]Option{WithClock(func() time.Time { return testTime })}, opts...)
	return New(kv, opts...), kv
}
