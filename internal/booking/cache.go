package booking

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// BadgeCache is the owned replacement for the browser build's
// window-attached status map: a bounded store of reconciled per-date
// counts keyed by (activity, date), stamped with a per-activity
// generation so a reconcile batch that was superseded by a newer month
// or activity selection cannot write stale data.
//
// Writers call NextGeneration before a batch and pass the stamp to every
// Put; readers see only entries from the activity's current generation.
type BadgeCache struct {
	mu      sync.Mutex
	entries *lru.Cache[badgeKey, badgeEntry]
	gens    map[int64]uint64
}

type badgeKey struct {
	activityID int64
	date       string
}

type badgeEntry struct {
	counts ReservationCounts
	gen    uint64
}

// DefaultCacheSize bounds the cache at roughly a year of daily entries
// for a handful of concurrently viewed activities.
const DefaultCacheSize = 4096

// NewBadgeCache creates a cache bounded to size entries. Size must be
// positive.
func NewBadgeCache(size int) (*BadgeCache, error) {
	entries, err := lru.New[badgeKey, badgeEntry](size)
	if err != nil {
		return nil, err
	}
	return &BadgeCache{
		entries: entries,
		gens:    make(map[int64]uint64),
	}, nil
}

// NextGeneration advances and returns the activity's generation. Entries
// written under earlier generations become invisible to Snapshot and any
// still in-flight Put carrying an old stamp is discarded.
func (c *BadgeCache) NextGeneration(activityID int64) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens[activityID]++
	return c.gens[activityID]
}

// Generation returns the activity's current generation without advancing
// it.
func (c *BadgeCache) Generation(activityID int64) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gens[activityID]
}

// Put stores reconciled counts for one date. It reports false when gen is
// no longer the activity's current generation, in which case nothing is
// written.
func (c *BadgeCache) Put(activityID int64, date string, counts ReservationCounts, gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gens[activityID] {
		return false
	}
	c.entries.Add(badgeKey{activityID: activityID, date: date}, badgeEntry{counts: counts, gen: gen})
	return true
}

// Snapshot returns the activity's current-generation entries as a
// date-keyed copy. The result is safe for the caller to retain.
func (c *BadgeCache) Snapshot(activityID int64) map[string]ReservationCounts {
	c.mu.Lock()
	defer c.mu.Unlock()

	current := c.gens[activityID]
	out := make(map[string]ReservationCounts)
	for _, key := range c.entries.Keys() {
		if key.activityID != activityID {
			continue
		}
		entry, ok := c.entries.Peek(key)
		if !ok || entry.gen != current {
			continue
		}
		out[key.date] = entry.counts
	}
	return out
}
