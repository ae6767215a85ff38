package store

import (
	"sort"
	"sync"

	"dbdhistory/internal/bhvr"
)

// Source names the channel a delivery arrived through
type Source string

const (
	SourceFetch    Source = "fetch"
	SourceEvent    Source = "event"
	SourceCache    Source = "cache"
	SourceFallback Source = "fallback"
)

// Delivery is a batch of raw entries produced by one retrieval channel
type Delivery struct {
	Source  Source
	URL     string
	Entries []bhvr.MatchEntry
}

// Change is sent to subscribers after a non-empty batch was applied
type Change struct {
	Source  Source
	Applied int
	Total   int
}

// Subscriber reacts to store growth
type Subscriber func(Change)

// Store accumulates match entries keyed by bhvr.MatchEntry.Key. Entries are never removed;
// a later delivery with the same key overwrites the earlier one.
type Store struct {
	mu      sync.RWMutex
	records map[string]bhvr.MatchEntry
	subs    []Subscriber
}

// New creates an empty store
func New() *Store {
	return &Store{
		records: make(map[string]bhvr.MatchEntry),
	}
}

// Subscribe registers fn to be called after every non-empty batch
func (s *Store) Subscribe(fn Subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

// Apply stores a delivery and notifies subscribers
func (s *Store) Apply(d Delivery) int {
	return s.put(d.Source, d.Entries)
}

// Put inserts or overwrites each entry and returns the number applied
func (s *Store) Put(entries []bhvr.MatchEntry) int {
	return s.put("", entries)
}

func (s *Store) put(source Source, entries []bhvr.MatchEntry) int {
	if len(entries) == 0 {
		return 0
	}

	s.mu.Lock()
	for _, e := range entries {
		s.records[e.Key()] = e
	}
	total := len(s.records)
	subs := make([]Subscriber, len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	// Subscribers run outside the lock so they can take snapshots
	change := Change{Source: source, Applied: len(entries), Total: total}
	for _, fn := range subs {
		fn(change)
	}
	return len(entries)
}

// Len returns the number of distinct matches stored
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Get returns the entry stored under key
func (s *Store) Get(key string) (bhvr.MatchEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.records[key]
	return e, ok
}

// Snapshot returns every stored entry, newest first. The order is recomputed on each call
// since any delivery may add matches older or newer than those already present.
func (s *Store) Snapshot() []bhvr.MatchEntry {
	s.mu.RLock()
	out := make([]bhvr.MatchEntry, 0, len(s.records))
	for _, e := range s.records {
		out = append(out, e)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].MatchStat.MatchStartTime, out[j].MatchStat.MatchStartTime
		if a != b {
			return a > b
		}
		return out[i].Key() < out[j].Key()
	})
	return out
}
