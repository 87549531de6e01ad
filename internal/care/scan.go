package care

import (
	"context"
	"encoding/json"
	"fmt"

	registrykv "github.com/wellmind/care-service/internal/registry/kv"
)

// scanValues scans every record under prefix and decodes each value into T.
// Pairs arrive in ascending key order and decoded values keep that order.
func scanValues[T any](ctx context.Context, store registrykv.Store, prefix string) ([]T, error) {
	pairs, err := store.ScanPrefix(ctx, prefix)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(pairs))
	for _, p := range pairs {
		var v T
		if err := json.Unmarshal(p.Value, &v); err != nil {
			return nil, fmt.Errorf("decode %s: %w", p.Key, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// getValue reads and decodes one record. ok is false when the key is absent.
func getValue[T any](ctx context.Context, store registrykv.Store, key string) (value T, ok bool, err error) {
	data, err := store.Get(ctx, key)
	if err != nil || data == nil {
		return value, false, err
	}
	if err := json.Unmarshal(data, &value); err != nil {
		return value, false, fmt.Errorf("decode %s: %w", key, err)
	}
	return value, true, nil
}
