package propagation

import (
	"fmt"
	"testing"
	"time"

	"github.com/nfvri/ran-propagation/pkg/model"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func keyAt(x float64) Fingerprint {
	pc := &model.PropagationContext{
		Transmitter:  r3.Vec{Z: 10},
		Receiver:     r3.Vec{X: x, Z: 1.5},
		FrequencyMHz: 2400,
		TxPowerDbm:   30,
	}
	return NewFingerprint(pc, model.ModelLogDistance)
}

// tickingClock advances one second per call
func tickingClock() func() time.Time {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		now = now.Add(time.Second)
		return now
	}
}

func TestCacheStoreAndGet(t *testing.T) {
	c := NewCache(0)
	assert.Equal(t, DefaultCacheCapacity, c.Stats().Capacity)

	hits := testutil.ToFloat64(cacheLookupsTotal.WithLabelValues("hit"))
	misses := testutil.ToFloat64(cacheLookupsTotal.WithLabelValues("miss"))

	_, ok := c.TryGet(keyAt(100))
	assert.False(t, ok)
	c.Store(keyAt(100), 87.5)
	loss, ok := c.TryGet(keyAt(100))
	require.True(t, ok)
	assert.Equal(t, 87.5, loss)

	stats := c.Stats()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
	assert.Equal(t, 1, stats.Size)
	assert.Equal(t, hits+1, testutil.ToFloat64(cacheLookupsTotal.WithLabelValues("hit")))
	assert.Equal(t, misses+1, testutil.ToFloat64(cacheLookupsTotal.WithLabelValues("miss")))

	c.Clear()
	assert.Equal(t, 0, c.Len())
	_, ok = c.TryGet(keyAt(100))
	assert.False(t, ok)
	assert.Equal(t, uint64(1), c.Stats().Hits)
}

func TestCacheEvictsOldestStored(t *testing.T) {
	c := NewCache(3)
	c.now = tickingClock()
	evictions := testutil.ToFloat64(cacheEvictionsTotal)

	for i := 1; i <= 3; i++ {
		c.Store(keyAt(float64(i*100)), float64(i))
	}
	// reads do not protect an entry
	_, ok := c.TryGet(keyAt(100))
	require.True(t, ok)

	c.Store(keyAt(400), 4)
	assert.Equal(t, 3, c.Len())
	_, ok = c.TryGet(keyAt(100))
	assert.False(t, ok, "first stored entry is evicted")
	for i := 2; i <= 4; i++ {
		_, ok := c.TryGet(keyAt(float64(i * 100)))
		assert.True(t, ok, fmt.Sprintf("entry %d kept", i))
	}
	assert.Equal(t, uint64(1), c.Stats().Evictions)
	assert.Equal(t, evictions+1, testutil.ToFloat64(cacheEvictionsTotal))
}

func TestCacheRestoreRefreshesStoreTime(t *testing.T) {
	c := NewCache(3)
	c.now = tickingClock()
	for i := 1; i <= 3; i++ {
		c.Store(keyAt(float64(i*100)), float64(i))
	}
	c.Store(keyAt(100), 10)
	c.Store(keyAt(400), 4)

	loss, ok := c.TryGet(keyAt(100))
	require.True(t, ok)
	assert.Equal(t, 10.0, loss)
	_, ok = c.TryGet(keyAt(200))
	assert.False(t, ok)
}

func TestCacheTiesEvictFirstInserted(t *testing.T) {
	c := NewCache(2)
	frozen := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return frozen }

	c.Store(keyAt(100), 1)
	c.Store(keyAt(200), 2)
	c.Store(keyAt(300), 3)

	_, ok := c.TryGet(keyAt(100))
	assert.False(t, ok)
	_, ok = c.TryGet(keyAt(200))
	assert.True(t, ok)
}

func TestFingerprintQuantization(t *testing.T) {
	assert.Equal(t, keyAt(100), keyAt(100.01))
	assert.NotEqual(t, keyAt(100), keyAt(100.2))

	pc := &model.PropagationContext{FrequencyMHz: 2400, TxPowerDbm: 30}
	near := pc.Clone()
	near.FrequencyMHz = 2400.3
	near.TxPowerDbm = 30.04
	assert.Equal(t, NewFingerprint(pc, model.ModelHata), NewFingerprint(near, model.ModelHata))
	assert.NotEqual(t, NewFingerprint(pc, model.ModelHata), NewFingerprint(pc, model.ModelCost231Hata))

	blocked := pc.Clone()
	blocked.HasObstacles = true
	assert.NotEqual(t, NewFingerprint(pc, model.ModelHata), NewFingerprint(blocked, model.ModelHata))
}
