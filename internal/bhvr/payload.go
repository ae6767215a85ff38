package bhvr

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/samber/lo"
)

const (
	// AssetsBaseURL is the CDN root that image paths are relative to
	AssetsBaseURL = "https://assets.live.bhvraccount.com/"

	// DefaultMatchHistoryURL is the endpoint the host page itself calls
	DefaultMatchHistoryURL = "https://account-backend.bhvr.com/player-stats/match-history/games/dbd/providers/bhvr?lang=en&limit=30"

	killerPrefix   = "DBD_SlasherScoreCat_"
	survivorPrefix = "DBD_CamperScoreCat_"
)

// MatchHistoryPattern identifies match-history requests regardless of query string
var MatchHistoryPattern = regexp.MustCompile(`/player-stats/match-history/games/dbd/providers/bhvr`)

var (
	killerCategories   = []string{"Hunter", "Deviousness", "Brutality", "Sacrifice"}
	survivorCategories = []string{"Objectives", "Altruism", "Boldness", "Survival"}
)

// Score is one post-game score category
type Score struct {
	Category string
	Value    int
}

// ParseMatchList decodes a match-history body. Entries with missing fields decode to zero
// values; only a body that is not a JSON array of objects is an error.
func ParseMatchList(body []byte) ([]MatchEntry, error) {
	var entries []MatchEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse match list: %w", err)
	}
	return entries, nil
}

// ScoreCategories returns the four category names shown for a role, in display order
func ScoreCategories(role Role) []string {
	if role == RoleKiller {
		return killerCategories
	}
	return survivorCategories
}

// Scores returns the player's four role-specific scores. Absent categories are 0.
func (p *PlayerStat) Scores() []Score {
	role := p.Role()
	prefix := survivorPrefix
	if role == RoleKiller {
		prefix = killerPrefix
	}
	return lo.Map(ScoreCategories(role), func(cat string, _ int) Score {
		return Score{Category: cat, Value: p.PostGameStat[prefix+cat]}
	})
}

// FormatClock renders seconds as m:ss, the same way the host page labels durations
func FormatClock(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// ImageURL resolves an asset path against the CDN root
func ImageURL(path string) string {
	if path == "" {
		return ""
	}
	if strings.HasPrefix(path, "http") {
		return path
	}
	return AssetsBaseURL + path
}
