package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory Store for tests.
type memStore struct {
	data map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string][]byte)}
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	b, ok := m.data[key]
	if !ok {
		return nil, ErrMiss
	}
	return b, nil
}

func (m *memStore) Set(_ context.Context, key string, val []byte, _ time.Duration) error {
	m.data[key] = val
	return nil
}

func TestKeyDeterministic(t *testing.T) {
	a := Key("search", "jazz", "hanoi", "music")
	b := Key("search", "jazz", "hanoi", "music")
	assert.Equal(t, a, b)

	// Different parts, different key.
	c := Key("search", "jazz", "saigon", "music")
	assert.NotEqual(t, a, c)

	// Order matters.
	d := Key("search", "hanoi", "jazz", "music")
	assert.NotEqual(t, a, d)
}

func TestThroughCachesComputedValue(t *testing.T) {
	rc := NewWithStore(newMemStore(), time.Minute)
	calls := 0
	compute := func(context.Context) ([]string, error) {
		calls++
		return []string{"a", "b"}, nil
	}

	v1, err := Through(context.Background(), rc, "k", compute)
	require.NoError(t, err)
	v2, err := Through(context.Background(), rc, "k", compute)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, v1)
	assert.Equal(t, v1, v2)
	assert.Equal(t, 1, calls, "second call must be served from cache")
}

func TestThroughComputeErrorNotCached(t *testing.T) {
	st := newMemStore()
	rc := NewWithStore(st, time.Minute)
	boom := errors.New("boom")

	_, err := Through(context.Background(), rc, "k", func(context.Context) (int, error) {
		return 0, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, st.data)
}

func TestThroughDisabledCachePassesThrough(t *testing.T) {
	rc := New(nil, time.Minute) // no redis -> disabled
	calls := 0
	for i := 0; i < 3; i++ {
		v, err := Through(context.Background(), rc, "k", func(context.Context) (int, error) {
			calls++
			return 7, nil
		})
		require.NoError(t, err)
		assert.Equal(t, 7, v)
	}
	assert.Equal(t, 3, calls, "disabled cache must compute every time")
}

func TestThroughNilCachePassesThrough(t *testing.T) {
	v, err := Through[int](context.Background(), nil, "k", func(context.Context) (int, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}
