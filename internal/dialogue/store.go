package dialogue

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// Store holds conversation state keyed by LINE user ID.
//
// go-cache is safe for concurrent use, so simultaneous webhook deliveries for
// different users never contend beyond the cache's own locking. Accesses for
// the same user are read-modify-write without a held lock across the store
// call: two near-simultaneous events from one user may race and leave a stale
// state, which is a documented, acceptable outcome here. No lock is ever held
// across record-store or messaging I/O.
type Store struct {
	states *cache.Cache
}

// NewStore creates a conversation state store. Entries expire after ttl so an
// abandoned half-finished dialogue does not swallow an unrelated numeric
// message days later.
func NewStore(ttl time.Duration) *Store {
	cleanup := ttl / 2
	if cleanup < time.Minute {
		cleanup = time.Minute
	}
	return &Store{
		states: cache.New(ttl, cleanup),
	}
}

// Get returns the user's conversation state, Idle if none is held.
func (s *Store) Get(userID string) State {
	if v, found := s.states.Get(userID); found {
		if st, ok := v.(State); ok {
			return st
		}
	}
	return IdleState()
}

// Set replaces the user's conversation state.
func (s *Store) Set(userID string, state State) {
	s.states.Set(userID, state, cache.DefaultExpiration)
}

// Clear resets the user's conversation state to Idle.
func (s *Store) Clear(userID string) {
	s.states.Delete(userID)
}

// Len returns the number of held state entries. The count may briefly
// include expired entries the cache has not pruned yet, which is close
// enough for the gauge it feeds.
func (s *Store) Len() int {
	return s.states.ItemCount()
}
