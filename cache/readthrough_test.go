package cache

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	cache *ReadThrough[string, string]

	stored   map[string]string
	storedAt map[string]time.Time

	lookupErr error
	storeErr  error
	fetchErr  error

	lookupCalls int
	storeCalls  int
	fetchCalls  int
}

func newHarness(ttl time.Duration, now time.Time) *harness {
	h := &harness{
		stored:   map[string]string{},
		storedAt: map[string]time.Time{},
	}
	h.cache = &ReadThrough[string, string]{
		TTL: ttl,
		Now: func() time.Time { return now },
		Lookup: func(ctx context.Context, key string) (string, time.Time, bool, error) {
			h.lookupCalls++
			if h.lookupErr != nil {
				return "", time.Time{}, false, h.lookupErr
			}
			value, ok := h.stored[key]
			return value, h.storedAt[key], ok, nil
		},
		Store: func(ctx context.Context, key string, value string, at time.Time) error {
			h.storeCalls++
			if h.storeErr != nil {
				return h.storeErr
			}
			h.stored[key] = value
			h.storedAt[key] = at
			return nil
		},
		Fetch: func(ctx context.Context, key string) (string, error) {
			h.fetchCalls++
			if h.fetchErr != nil {
				return "", h.fetchErr
			}
			return "fetched:" + key, nil
		},
	}
	return h
}

func TestReadThrough_FreshEntrySkipsFetch(t *testing.T) {
	now := time.Now()
	h := newHarness(time.Hour, now)
	h.stored["k"] = "cached"
	h.storedAt["k"] = now.Add(-30 * time.Minute)

	value, err := h.cache.Get(context.Background(), "k")

	require.NoError(t, err)
	assert.Equal(t, "cached", value)
	assert.Equal(t, 0, h.fetchCalls)
	assert.Equal(t, 0, h.storeCalls)
}

func TestReadThrough_StaleEntryRefetchesAndPersists(t *testing.T) {
	now := time.Now()
	h := newHarness(time.Hour, now)
	h.stored["k"] = "cached"
	h.storedAt["k"] = now.Add(-2 * time.Hour)

	value, err := h.cache.Get(context.Background(), "k")

	require.NoError(t, err)
	assert.Equal(t, "fetched:k", value)
	assert.Equal(t, 1, h.fetchCalls)
	assert.Equal(t, "fetched:k", h.stored["k"])
	assert.Equal(t, now, h.storedAt["k"])
}

func TestReadThrough_MissingEntryFetches(t *testing.T) {
	h := newHarness(time.Hour, time.Now())

	value, err := h.cache.Get(context.Background(), "k")

	require.NoError(t, err)
	assert.Equal(t, "fetched:k", value)
	assert.Equal(t, 1, h.fetchCalls)
	assert.Equal(t, 1, h.storeCalls)
}

func TestReadThrough_LookupErrorFailsOpenToFetch(t *testing.T) {
	h := newHarness(time.Hour, time.Now())
	h.lookupErr = errors.New("store down")

	value, err := h.cache.Get(context.Background(), "k")

	require.NoError(t, err)
	assert.Equal(t, "fetched:k", value)
	assert.Equal(t, 1, h.fetchCalls)
}

func TestReadThrough_StoreErrorStillReturnsFetchedValue(t *testing.T) {
	h := newHarness(time.Hour, time.Now())
	h.storeErr = errors.New("write refused")

	value, err := h.cache.Get(context.Background(), "k")

	require.NoError(t, err)
	assert.Equal(t, "fetched:k", value)
}

func TestReadThrough_FetchErrorPropagatesWithoutWrite(t *testing.T) {
	h := newHarness(time.Hour, time.Now())
	h.fetchErr = errors.New("upstream unavailable")

	_, err := h.cache.Get(context.Background(), "k")

	require.Error(t, err)
	assert.Equal(t, 0, h.storeCalls)
}

func TestReadThrough_RefreshBypassesFreshEntry(t *testing.T) {
	now := time.Now()
	h := newHarness(time.Hour, now)
	h.stored["k"] = "cached"
	h.storedAt["k"] = now

	value, err := h.cache.Refresh(context.Background(), "k")

	require.NoError(t, err)
	assert.Equal(t, "fetched:k", value)
	assert.Equal(t, 1, h.fetchCalls)
}
