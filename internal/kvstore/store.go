// Package kvstore provides the durable string key-value stores that hold timer state.
//
// Every backend is write-through: a successful Set or Delete is durable when it returns.
package kvstore

//go:generate mockgen -source=store.go -destination=mock_store.go -package=kvstore

import (
	"context"
	"errors"
	"strings"

	"git.home.luguber.info/inful/bgtimer/internal/foundation"
)

// Store is a minimal durable key-value store.
type Store interface {
	// Get returns the value stored under key, or None when the key is absent.
	Get(ctx context.Context, key string) (foundation.Option[string], error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases any resources held by the store.
	Close() error
}

// ErrEmptyKey is returned when an operation is given an empty key.
var ErrEmptyKey = errors.New("kvstore: empty key")

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("kvstore: store closed")

func checkKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return ErrEmptyKey
	}
	return nil
}
