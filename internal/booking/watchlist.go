package booking

import (
	"sync"
	"time"
)

// Watch identifies one owner calendar view that should keep receiving
// time-based status promotion while it is active: an activity, the month
// in view, and the bearer token the view was loaded with.
type Watch struct {
	ActivityID int64
	Year       int
	Month      int
	Token      string
}

type watchState struct {
	token    string
	lastSeen time.Time
}

// Watchlist tracks recently viewed calendar months so the background
// refresh job can re-run reconciliation for them. Entries expire once
// they have not been touched within the TTL passed to Active.
type Watchlist struct {
	mu      sync.Mutex
	clock   Clock
	entries map[watchKey]watchState
}

type watchKey struct {
	activityID int64
	year       int
	month      int
}

// NewWatchlist returns an empty watchlist. A nil clock means system time.
func NewWatchlist(clock Clock) *Watchlist {
	if clock == nil {
		clock = realClock{}
	}
	return &Watchlist{
		clock:   clock,
		entries: make(map[watchKey]watchState),
	}
}

// Touch records that the given view was just loaded. The stored token is
// replaced so the refresh job always uses the most recent credential.
func (w *Watchlist) Touch(activityID int64, year, month int, token string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.entries[watchKey{activityID: activityID, year: year, month: month}] = watchState{
		token:    token,
		lastSeen: w.clock.Now(),
	}
}

// Active returns the views touched within ttl and drops the rest.
func (w *Watchlist) Active(ttl time.Duration) []Watch {
	w.mu.Lock()
	defer w.mu.Unlock()

	cutoff := w.clock.Now().Add(-ttl)
	var active []Watch
	for key, state := range w.entries {
		if state.lastSeen.Before(cutoff) {
			delete(w.entries, key)
			continue
		}
		active = append(active, Watch{
			ActivityID: key.activityID,
			Year:       key.year,
			Month:      key.month,
			Token:      state.token,
		})
	}
	return active
}
