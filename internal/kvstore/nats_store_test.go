package kvstore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeKV is an in-memory jetstream.KeyValue. Only the methods NATSStore uses
// are implemented; anything else panics through the nil embedded interface.
type fakeKV struct {
	jetstream.KeyValue

	mu        sync.Mutex
	values    map[string]string
	failWith  error
	deleteErr error
}

func newFakeKV() *fakeKV {
	return &fakeKV{values: map[string]string{}}
}

type fakeEntry struct {
	jetstream.KeyValueEntry
	key   string
	value []byte
}

func (e fakeEntry) Key() string   { return e.key }
func (e fakeEntry) Value() []byte { return e.value }

func (f *fakeKV) Get(ctx context.Context, key string) (jetstream.KeyValueEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.failWith != nil {
		return nil, f.failWith
	}
	v, ok := f.values[key]
	if !ok {
		return nil, jetstream.ErrKeyNotFound
	}
	return fakeEntry{key: key, value: []byte(v)}, nil
}

func (f *fakeKV) PutString(ctx context.Context, key, value string) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if f.failWith != nil {
		return 0, f.failWith
	}
	f.values[key] = value
	return uint64(len(f.values)), nil
}

func (f *fakeKV) Delete(ctx context.Context, key string, _ ...jetstream.KVDeleteOpt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	if f.failWith != nil {
		return f.failWith
	}
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.values, key)
	return nil
}

func (f *fakeKV) keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	keys := make([]string, 0, len(f.values))
	for k := range f.values {
		keys = append(keys, k)
	}
	return keys
}

func TestNATSStoreMapsKeys(t *testing.T) {
	ctx := context.Background()
	kv := newFakeKV()
	store := NewNATSStoreFromKeyValue(kv, time.Second)
	defer func() { _ = store.Close() }()

	require.NoError(t, store.Set(ctx, "run id key", "abc"))
	assert.Equal(t, []string{"run_id_key"}, kv.keys())

	v, err := store.Get(ctx, "run id key")
	require.NoError(t, err)
	assert.Equal(t, "abc", v.UnwrapOr(""))
}

func TestNATSStoreIgnoresMissingKeyOnDelete(t *testing.T) {
	kv := newFakeKV()
	kv.deleteErr = jetstream.ErrKeyNotFound
	store := NewNATSStoreFromKeyValue(kv, 0)

	require.NoError(t, store.Delete(context.Background(), "STOP_TIME_KEY"))
}

func TestNATSStoreReportsBucketErrors(t *testing.T) {
	ctx := context.Background()
	unavailable := errors.New("nats: no responders available for request")
	kv := newFakeKV()
	kv.failWith = unavailable
	store := NewNATSStoreFromKeyValue(kv, time.Second)

	_, err := store.Get(ctx, "START_TIME_KEY")
	require.ErrorIs(t, err, unavailable)
	require.ErrorIs(t, store.Set(ctx, "START_TIME_KEY", "v"), unavailable)
	require.ErrorIs(t, store.Delete(ctx, "START_TIME_KEY"), unavailable)
}

func TestNATSStoreAppliesTimeout(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store := NewNATSStoreFromKeyValue(newFakeKV(), time.Second)

	require.ErrorIs(t, store.Set(ctx, "START_TIME_KEY", "v"), context.Canceled)
}
