package openweather

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bseverns/pointy-clumps/internal/domain"
	"github.com/bseverns/pointy-clumps/internal/observability"
)

// --- mock for cache tests ---

type countingSource struct {
	calls   int
	reading domain.WindReading
	err     error
}

func (m *countingSource) FetchWind(_ context.Context, _ string, _ domain.Units) (domain.WindReading, error) {
	m.calls++
	return m.reading, m.err
}

// --- CachedSource tests ---

func TestCachedSource_CacheHit(t *testing.T) {
	inner := &countingSource{reading: domain.WindReading{SpeedMPS: 4.2, DirectionDeg: domain.Direction(120)}}
	metrics := observability.NewMetricsForTesting()
	cached := NewCachedSource(inner, 10, time.Minute, clockwork.NewFakeClock(), metrics)

	r1, err := cached.FetchWind(context.Background(), "London,UK", domain.UnitsMetric)
	require.NoError(t, err)
	assert.Equal(t, 4.2, r1.SpeedMPS)

	r2, err := cached.FetchWind(context.Background(), " london,uk ", domain.UnitsMetric)
	require.NoError(t, err)
	assert.Equal(t, 4.2, r2.SpeedMPS)

	assert.Equal(t, 1, inner.calls, "should only call inner once")
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.WeatherCache.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.WeatherCache.WithLabelValues("miss")))
}

func TestCachedSource_UnitsAreSeparateKeys(t *testing.T) {
	inner := &countingSource{reading: domain.WindReading{SpeedMPS: 1}}
	cached := NewCachedSource(inner, 10, time.Minute, nil, observability.NewMetricsForTesting())

	_, _ = cached.FetchWind(context.Background(), "Oslo", domain.UnitsMetric)
	_, _ = cached.FetchWind(context.Background(), "Oslo", domain.UnitsImperial)

	assert.Equal(t, 2, inner.calls)
}

func TestCachedSource_ErrorsNotCached(t *testing.T) {
	inner := &countingSource{err: domain.ErrSourceUnavailable}
	cached := NewCachedSource(inner, 10, time.Minute, nil, observability.NewMetricsForTesting())

	_, err := cached.FetchWind(context.Background(), "Oslo", domain.UnitsMetric)
	require.True(t, errors.Is(err, domain.ErrSourceUnavailable))

	inner.err = nil
	inner.reading = domain.WindReading{SpeedMPS: 3}
	r, err := cached.FetchWind(context.Background(), "Oslo", domain.UnitsMetric)
	require.NoError(t, err)
	assert.Equal(t, 3.0, r.SpeedMPS)
	assert.Equal(t, 2, inner.calls)
}

func TestCachedSource_EntriesExpire(t *testing.T) {
	clock := clockwork.NewFakeClock()
	inner := &countingSource{reading: domain.WindReading{SpeedMPS: 2}}
	cached := NewCachedSource(inner, 10, 10*time.Minute, clock, observability.NewMetricsForTesting())

	_, _ = cached.FetchWind(context.Background(), "Oslo", domain.UnitsMetric)
	clock.Advance(9 * time.Minute)
	_, _ = cached.FetchWind(context.Background(), "Oslo", domain.UnitsMetric)
	assert.Equal(t, 1, inner.calls)

	clock.Advance(time.Minute)
	_, _ = cached.FetchWind(context.Background(), "Oslo", domain.UnitsMetric)
	assert.Equal(t, 2, inner.calls, "entry should expire at the TTL")
}

// --- LRU cache unit tests ---

func newTestLRU(maxEntries int) *lruCache {
	return newLRUCache(maxEntries, time.Hour, clockwork.NewFakeClock())
}

func TestLRUCache_BasicGetPut(t *testing.T) {
	c := newTestLRU(3)

	c.put("a", domain.WindReading{SpeedMPS: 1})
	c.put("b", domain.WindReading{SpeedMPS: 2})

	result, ok := c.get("a")
	assert.True(t, ok)
	assert.Equal(t, 1.0, result.SpeedMPS)

	_, ok = c.get("missing")
	assert.False(t, ok)
}

func TestLRUCache_Eviction(t *testing.T) {
	c := newTestLRU(2)

	c.put("a", domain.WindReading{SpeedMPS: 1})
	c.put("b", domain.WindReading{SpeedMPS: 2})
	c.put("c", domain.WindReading{SpeedMPS: 3}) // evicts "a"

	_, ok := c.get("a")
	assert.False(t, ok, "a should have been evicted")

	result, ok := c.get("b")
	assert.True(t, ok)
	assert.Equal(t, 2.0, result.SpeedMPS)

	result, ok = c.get("c")
	assert.True(t, ok)
	assert.Equal(t, 3.0, result.SpeedMPS)
	assert.Equal(t, 2, c.size())
}

func TestLRUCache_AccessPromotesEntry(t *testing.T) {
	c := newTestLRU(2)

	c.put("a", domain.WindReading{SpeedMPS: 1})
	c.put("b", domain.WindReading{SpeedMPS: 2})

	c.get("a")

	// Inserting "c" should evict "b", not the recently read "a".
	c.put("c", domain.WindReading{SpeedMPS: 3})

	_, ok := c.get("a")
	assert.True(t, ok, "a was accessed recently, should not be evicted")

	_, ok = c.get("b")
	assert.False(t, ok, "b should have been evicted")
}

func TestLRUCache_UpdateExisting(t *testing.T) {
	c := newTestLRU(2)

	c.put("a", domain.WindReading{SpeedMPS: 1})
	c.put("a", domain.WindReading{SpeedMPS: 5})

	result, ok := c.get("a")
	assert.True(t, ok)
	assert.Equal(t, 5.0, result.SpeedMPS)
	assert.Equal(t, 1, c.size())
}

func TestLRUCache_ExpiredEntryIsDropped(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := newLRUCache(2, time.Second, clock)

	c.put("a", domain.WindReading{SpeedMPS: 1})
	clock.Advance(2 * time.Second)

	_, ok := c.get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, c.size())
}
