package correlate

import (
	"dbdhistory/internal/bhvr"

	"github.com/samber/lo"
)

// Strategy records how a card was matched to an entry
type Strategy string

const (
	StrategyNone  Strategy = "none"
	StrategyIndex Strategy = "index"
	StrategyLabel Strategy = "label"
)

// Card is what correlation needs to know about a located card
type Card interface {
	MapLabel() (string, bool)
	DurationLabel() (string, bool)
}

// Match finds the entry for the card at position index. snapshot must be newest first,
// the same order the host page lists its cards in.
//
// The entry at the same position wins. Only when there is none, e.g. the store holds fewer
// matches than there are cards, the card's map and duration labels are compared against
// every entry and the first exact match is used.
func Match(card Card, index int, snapshot []bhvr.MatchEntry) (bhvr.MatchEntry, Strategy, bool) {
	if index >= 0 && index < len(snapshot) {
		return snapshot[index], StrategyIndex, true
	}

	mapName, ok := card.MapLabel()
	if !ok {
		return bhvr.MatchEntry{}, StrategyNone, false
	}
	duration, ok := card.DurationLabel()
	if !ok {
		return bhvr.MatchEntry{}, StrategyNone, false
	}

	entry, found := lo.Find(snapshot, func(m bhvr.MatchEntry) bool {
		return m.MatchStat.Map.Name == mapName && bhvr.FormatClock(m.MatchStat.MatchDuration) == duration
	})
	if !found {
		return bhvr.MatchEntry{}, StrategyNone, false
	}
	return entry, StrategyLabel, true
}
