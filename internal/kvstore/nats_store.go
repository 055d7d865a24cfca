package kvstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"braces.dev/errtrace"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"git.home.luguber.info/inful/bgtimer/internal/foundation"
	"git.home.luguber.info/inful/bgtimer/internal/logfields"
)

// NATSStore implements Store on a NATS JetStream key-value bucket.
type NATSStore struct {
	conn    *nats.Conn
	kv      jetstream.KeyValue
	timeout time.Duration
}

// NATSOptions configures NewNATSStore.
type NATSOptions struct {
	URL     string
	Bucket  string
	Timeout time.Duration
	Logger  *slog.Logger
}

// NewNATSStore connects to NATS and opens (or creates) the bucket.
func NewNATSStore(ctx context.Context, opts NATSOptions) (*NATSStore, error) {
	if opts.Bucket == "" {
		return nil, errtrace.Wrap(errors.New("nats store: bucket is required"))
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	conn, err := nats.Connect(opts.URL, nats.Name("bgtimer"), nats.Timeout(opts.Timeout))
	if err != nil {
		return nil, errtrace.Wrap(fmt.Errorf("failed to connect to NATS: %w", err))
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, errtrace.Wrap(fmt.Errorf("failed to create JetStream context: %w", err))
	}

	kv, err := openBucket(ctx, js, opts.Bucket, opts.Timeout)
	if err != nil {
		conn.Close()
		return nil, errtrace.Wrap(fmt.Errorf("failed to initialize KV bucket: %w", err))
	}

	logger.Debug("NATS key-value store ready", logfields.URL(opts.URL), logfields.Bucket(opts.Bucket))
	return &NATSStore{conn: conn, kv: kv, timeout: opts.Timeout}, nil
}

// NewNATSStoreFromKeyValue wraps an already opened bucket. Close is then a no-op.
func NewNATSStoreFromKeyValue(kv jetstream.KeyValue, timeout time.Duration) *NATSStore {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &NATSStore{kv: kv, timeout: timeout}
}

func openBucket(ctx context.Context, js jetstream.JetStream, bucket string, timeout time.Duration) (jetstream.KeyValue, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	kv, err := js.KeyValue(ctx, bucket)
	if err == nil {
		return kv, nil
	}
	if !errors.Is(err, jetstream.ErrBucketNotFound) {
		return nil, err
	}

	return js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: "bgtimer stopwatch state",
		History:     1, // Keep only latest value
	})
}

// natsKey maps a slot name onto the JetStream key alphabet [-/_=.a-zA-Z0-9].
func natsKey(key string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-', r == '/', r == '_', r == '=', r == '.':
			return r
		default:
			return '_'
		}
	}, strings.Trim(key, "."))
}

// Get returns the value under key.
func (n *NATSStore) Get(ctx context.Context, key string) (foundation.Option[string], error) {
	if err := checkKey(key); err != nil {
		return foundation.None[string](), err
	}
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	entry, err := n.kv.Get(ctx, natsKey(key))
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return foundation.None[string](), nil
		}
		return foundation.None[string](), errtrace.Wrap(fmt.Errorf("failed to get %s: %w", key, err))
	}
	return foundation.Some(string(entry.Value())), nil
}

// Set stores value under key.
func (n *NATSStore) Set(ctx context.Context, key, value string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	if _, err := n.kv.PutString(ctx, natsKey(key), value); err != nil {
		return errtrace.Wrap(fmt.Errorf("failed to put %s: %w", key, err))
	}
	return nil
}

// Delete removes key; missing keys are ignored.
func (n *NATSStore) Delete(ctx context.Context, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	if err := n.kv.Delete(ctx, natsKey(key)); err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		return errtrace.Wrap(fmt.Errorf("failed to delete %s: %w", key, err))
	}
	return nil
}

// Close closes the NATS connection.
func (n *NATSStore) Close() error {
	if n.conn != nil {
		n.conn.Close()
	}
	return nil
}
