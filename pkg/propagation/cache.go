package propagation

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/nfvri/ran-propagation/pkg/model"
	"github.com/nfvri/ran-propagation/pkg/utils"
	log "github.com/sirupsen/logrus"
)

const (
	// DefaultCacheCapacity is the number of path loss results kept by default
	DefaultCacheCapacity = 1000

	positionStep  = 0.1
	powerStep     = 0.1
	frequencyStep = 1.0
)

// Fingerprint identifies equivalent links for caching
type Fingerprint struct {
	TxX, TxY, TxZ int64
	RxX, RxY, RxZ int64
	TxPower       int64
	AntennaGain   int64
	FrequencyMHz  int64
	Model         model.ModelType
	ObstacleLayer string
	HasObstacles  bool
}

// NewFingerprint quantizes the link parameters of pc evaluated with modelType
func NewFingerprint(pc *model.PropagationContext, modelType model.ModelType) Fingerprint {
	return Fingerprint{
		TxX:           utils.Quantize(pc.Transmitter.X, positionStep),
		TxY:           utils.Quantize(pc.Transmitter.Y, positionStep),
		TxZ:           utils.Quantize(pc.Transmitter.Z, positionStep),
		RxX:           utils.Quantize(pc.Receiver.X, positionStep),
		RxY:           utils.Quantize(pc.Receiver.Y, positionStep),
		RxZ:           utils.Quantize(pc.Receiver.Z, positionStep),
		TxPower:       utils.Quantize(pc.TxPowerDbm, powerStep),
		AntennaGain:   utils.Quantize(pc.AntennaGainDbi, powerStep),
		FrequencyMHz:  utils.Quantize(pc.FrequencyMHz, frequencyStep),
		Model:         modelType,
		ObstacleLayer: pc.ObstacleLayer,
		HasObstacles:  pc.HasObstacles,
	}
}

// CacheEntry is a stored path loss result
type CacheEntry struct {
	Key      Fingerprint
	LossDB   float64
	StoredAt time.Time
	seq      uint64
}

// CacheStats reports cache usage
type CacheStats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
	Size      int
	Capacity  int
}

// Cache is a bounded path loss cache. On overflow it evicts the entry stored
// earliest, regardless of reads.
type Cache struct {
	mu       sync.RWMutex
	capacity int
	entries  map[Fingerprint]*CacheEntry
	seq      uint64
	now      func() time.Time

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

// NewCache returns an empty cache holding at most capacity entries
func NewCache(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	return &Cache{
		capacity: capacity,
		entries:  make(map[Fingerprint]*CacheEntry, capacity),
		now:      time.Now,
	}
}

// TryGet returns the stored loss for key
func (c *Cache) TryGet(key Fingerprint) (float64, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		c.misses.Add(1)
		cacheLookupsTotal.WithLabelValues("miss").Inc()
		return 0, false
	}
	c.hits.Add(1)
	cacheLookupsTotal.WithLabelValues("hit").Inc()
	return entry.LossDB, true
}

// Store saves the loss for key, evicting the oldest stored entry when full.
// Storing an existing key replaces its value and store time.
func (c *Cache) Store(key Fingerprint, lossDB float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.seq++
	if entry, ok := c.entries[key]; ok {
		entry.LossDB = lossDB
		entry.StoredAt = c.now()
		entry.seq = c.seq
		return
	}
	if len(c.entries) >= c.capacity {
		c.evictOldest()
	}
	c.entries[key] = &CacheEntry{Key: key, LossDB: lossDB, StoredAt: c.now(), seq: c.seq}
}

// evictOldest must be called with the write lock held
func (c *Cache) evictOldest() {
	var oldest *CacheEntry
	for _, entry := range c.entries {
		if oldest == nil || entry.StoredAt.Before(oldest.StoredAt) ||
			(entry.StoredAt.Equal(oldest.StoredAt) && entry.seq < oldest.seq) {
			oldest = entry
		}
	}
	if oldest == nil {
		return
	}
	delete(c.entries, oldest.Key)
	c.evictions.Add(1)
	cacheEvictionsTotal.Inc()
	log.Debugf("evicted path loss cache entry stored at %v", oldest.StoredAt)
}

// Clear drops every entry; statistics are kept
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[Fingerprint]*CacheEntry, c.capacity)
}

// Len returns the number of stored entries
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns the hit, miss and eviction counters
func (c *Cache) Stats() CacheStats {
	return CacheStats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
		Size:      c.Len(),
		Capacity:  c.capacity,
	}
}
