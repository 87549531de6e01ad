package metrics

import (
	"context"
	"time"

	registrykv "github.com/wellmind/care-service/internal/registry/kv"
	"github.com/wellmind/care-service/internal/security"
)

// Wrap returns a Store that records StoreLatency for every operation.
func Wrap(inner registrykv.Store) registrykv.Store {
	return &metricsStore{inner: inner}
}

type metricsStore struct {
	inner registrykv.Store
}

func observe(op string, start time.Time) {
	if security.StoreLatency == nil {
		return
	}
	security.StoreLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (m *metricsStore) Get(ctx context.Context, key string) ([]byte, error) {
	defer observe("get", time.Now())
	return m.inner.Get(ctx, key)
}

func (m *metricsStore) Set(ctx context.Context, key string, value []byte) error {
	defer observe("set", time.Now())
	return m.inner.Set(ctx, key, value)
}

func (m *metricsStore) Delete(ctx context.Context, key string) error {
	defer observe("delete", time.Now())
	return m.inner.Delete(ctx, key)
}

func (m *metricsStore) ScanPrefix(ctx context.Context, prefix string) ([]registrykv.Pair, error) {
	defer observe("scan_prefix", time.Now())
	return m.inner.ScanPrefix(ctx, prefix)
}

func (m *metricsStore) Close() error {
	return m.inner.Close()
}

var _ registrykv.Store = (*metricsStore)(nil)
