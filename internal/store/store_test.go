package store_test

import (
	"testing"

	"dbdhistory/internal/bhvr"
	"dbdhistory/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(start int64, mapName string, bp int64) bhvr.MatchEntry {
	return bhvr.MatchEntry{
		PlayerStat: bhvr.PlayerStat{BloodpointsEarned: bp},
		MatchStat: bhvr.MatchStat{
			MatchStartTime: start,
			MatchDuration:  600,
			Map:            bhvr.Named{Name: mapName},
		},
	}
}

func TestStore_IdempotentDelivery(t *testing.T) {
	s := store.New()

	s.Put([]bhvr.MatchEntry{entry(100, "Coal Tower", 1000)})
	s.Put([]bhvr.MatchEntry{entry(100, "Coal Tower", 2000)})

	require.Equal(t, 1, s.Len())
	got, ok := s.Get("100_Coal Tower")
	require.True(t, ok)
	assert.Equal(t, int64(2000), got.PlayerStat.BloodpointsEarned, "second delivery should win")
}

func TestStore_SameStartDifferentMapAreDistinct(t *testing.T) {
	s := store.New()
	s.Put([]bhvr.MatchEntry{entry(100, "Coal Tower", 0), entry(100, "Azarov's Resting Place", 0)})
	assert.Equal(t, 2, s.Len())
}

func TestStore_SnapshotOrderIndependent(t *testing.T) {
	fetch := store.Delivery{Source: store.SourceFetch, Entries: []bhvr.MatchEntry{entry(300, "A", 1), entry(100, "B", 1)}}
	cache := store.Delivery{Source: store.SourceCache, Entries: []bhvr.MatchEntry{entry(200, "C", 1), entry(300, "A", 1)}}
	fallback := store.Delivery{Source: store.SourceFallback, Entries: []bhvr.MatchEntry{entry(400, "D", 1), entry(100, "B", 1)}}

	orders := [][]store.Delivery{
		{fetch, cache, fallback},
		{fetch, fallback, cache},
		{cache, fetch, fallback},
		{cache, fallback, fetch},
		{fallback, fetch, cache},
		{fallback, cache, fetch},
	}

	var want []string
	for i, order := range orders {
		s := store.New()
		for _, d := range order {
			s.Apply(d)
		}
		var keys []string
		for _, e := range s.Snapshot() {
			keys = append(keys, e.Key())
		}
		if i == 0 {
			want = keys
			continue
		}
		assert.Equal(t, want, keys, "permutation %d", i)
	}
	assert.Equal(t, []string{"400_D", "300_A", "200_C", "100_B"}, want)
}

func TestStore_SnapshotReflectsLaterInsertions(t *testing.T) {
	s := store.New()
	s.Put([]bhvr.MatchEntry{entry(200, "A", 0)})
	first := s.Snapshot()

	s.Put([]bhvr.MatchEntry{entry(300, "B", 0), entry(100, "C", 0)})
	second := s.Snapshot()

	require.Len(t, first, 1)
	require.Len(t, second, 3)
	assert.Equal(t, "300_B", second[0].Key())
	assert.Equal(t, "100_C", second[2].Key())
}

func TestStore_SubscribersOnlySeeNonEmptyBatches(t *testing.T) {
	s := store.New()

	var changes []store.Change
	s.Subscribe(func(c store.Change) {
		// Snapshots are allowed from inside a subscriber
		_ = s.Snapshot()
		changes = append(changes, c)
	})

	s.Apply(store.Delivery{Source: store.SourceFetch})
	s.Apply(store.Delivery{Source: store.SourceFetch, Entries: []bhvr.MatchEntry{entry(1, "A", 0), entry(2, "B", 0)}})
	s.Apply(store.Delivery{Source: store.SourceCache, Entries: []bhvr.MatchEntry{entry(1, "A", 0)}})

	require.Len(t, changes, 2)
	assert.Equal(t, store.Change{Source: store.SourceFetch, Applied: 2, Total: 2}, changes[0])
	assert.Equal(t, store.Change{Source: store.SourceCache, Applied: 1, Total: 2}, changes[1])
}
