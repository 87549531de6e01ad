package kv

import (
	"context"
	"fmt"
)

// Pair is one scanned record: the full key and its raw value.
type Pair struct {
	Key   string
	Value []byte
}

// Store is the primitive key-value boundary. Values are opaque bytes;
// callers handle JSON encoding. Implementations must be safe for
// concurrent use.
type Store interface {
	// Get returns the value at key, or (nil, nil) when the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set writes value at key, creating or overwriting.
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	// ScanPrefix returns every pair whose key starts with prefix, in
	// ascending lexicographic key order.
	ScanPrefix(ctx context.Context, prefix string) ([]Pair, error)
	// Close releases backend resources.
	Close() error
}

// Loader creates a Store from config carried on the context.
type Loader func(ctx context.Context) (Store, error)

// Plugin represents a kv backend plugin.
type Plugin struct {
	Name   string
	Loader Loader
}

var plugins []Plugin

// Register adds a kv backend plugin.
func Register(p Plugin) {
	plugins = append(plugins, p)
}

// Names returns all registered kv plugin names.
func Names() []string {
	names := make([]string, len(plugins))
	for i, p := range plugins {
		names[i] = p.Name
	}
	return names
}

// Select returns the loader for the named kv plugin.
func Select(name string) (Loader, error) {
	for _, p := range plugins {
		if p.Name == name {
			return p.Loader, nil
		}
	}
	return nil, fmt.Errorf("unknown kv backend %q; valid: %v", name, Names())
}
