package correlate

import (
	"testing"

	"dbdhistory/internal/bhvr"

	"github.com/stretchr/testify/assert"
)

type fakeCard struct {
	mapName  string
	duration string
}

func (f fakeCard) MapLabel() (string, bool)      { return f.mapName, f.mapName != "" }
func (f fakeCard) DurationLabel() (string, bool) { return f.duration, f.duration != "" }

func entry(start, duration int64, mapName string) bhvr.MatchEntry {
	return bhvr.MatchEntry{MatchStat: bhvr.MatchStat{
		MatchStartTime: start,
		MatchDuration:  duration,
		Map:            bhvr.Named{Name: mapName},
	}}
}

var snapshot = []bhvr.MatchEntry{
	entry(400, 600, "Coal Tower"),
	entry(300, 512, "Dead Dawg Saloon"),
	entry(200, 600, "Coal Tower"),
}

func TestMatch_PrimaryByPosition(t *testing.T) {
	for i := range snapshot {
		// Labels are deliberately wrong: position always wins when it yields an entry
		got, strategy, ok := Match(fakeCard{mapName: "Elsewhere", duration: "0:00"}, i, snapshot)
		assert.True(t, ok)
		assert.Equal(t, StrategyIndex, strategy)
		assert.Equal(t, snapshot[i].Key(), got.Key())
	}
}

func TestMatch_FallbackByLabels(t *testing.T) {
	got, strategy, ok := Match(fakeCard{mapName: "Dead Dawg Saloon", duration: "8:32"}, 7, snapshot)
	assert.True(t, ok)
	assert.Equal(t, StrategyLabel, strategy)
	assert.Equal(t, "300_Dead Dawg Saloon", got.Key())
}

func TestMatch_FallbackFirstHitWins(t *testing.T) {
	got, _, ok := Match(fakeCard{mapName: "Coal Tower", duration: "10:00"}, 5, snapshot)
	assert.True(t, ok)
	assert.Equal(t, "400_Coal Tower", got.Key())
}

func TestMatch_NoMatch(t *testing.T) {
	tests := []struct {
		name string
		card fakeCard
	}{
		{name: "duration differs", card: fakeCard{mapName: "Coal Tower", duration: "10:01"}},
		{name: "map differs", card: fakeCard{mapName: "Gideon Meat Plant", duration: "10:00"}},
		{name: "missing map label", card: fakeCard{duration: "10:00"}},
		{name: "missing duration label", card: fakeCard{mapName: "Coal Tower"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, strategy, ok := Match(tt.card, 3, snapshot)
			assert.False(t, ok)
			assert.Equal(t, StrategyNone, strategy)
		})
	}

	_, _, ok := Match(fakeCard{mapName: "Coal Tower", duration: "10:00"}, 0, nil)
	assert.False(t, ok, "empty snapshot never matches")
}
