package throughput

import (
	"math"

	"dbdhistory/internal/bhvr"

	"github.com/samber/lo"
)

// SincePrevious returns the subject's bloodpoints per hour over the time between the end of
// the chronologically previous match and the end of this one. snapshot must be newest
// first. The result is absent when entry is the oldest match, is not in the snapshot, or
// when the previous match ended at or after this one.
func SincePrevious(entry bhvr.MatchEntry, snapshot []bhvr.MatchEntry) (int64, bool) {
	_, idx, found := lo.FindIndexOf(snapshot, func(m bhvr.MatchEntry) bool {
		return m.MatchStat.MatchStartTime == entry.MatchStat.MatchStartTime
	})
	if !found || idx >= len(snapshot)-1 {
		return 0, false
	}

	previous := snapshot[idx+1]
	hours := float64(entry.EndTime()-previous.EndTime()) / 3600
	if hours <= 0 {
		return 0, false
	}

	return int64(math.Round(float64(entry.PlayerStat.BloodpointsEarned) / hours)), true
}
