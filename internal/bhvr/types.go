package bhvr

import (
	"fmt"
	"strings"
)

// Role identifies which side of the match a player was on
type Role int

const (
	RoleSurvivor Role = iota
	RoleKiller
)

// Raw role identifiers used by the match-history API
const (
	RoleIDKiller   = "VE_Slasher"
	RoleIDSurvivor = "VE_Camper"
)

func (r Role) String() string {
	if r == RoleKiller {
		return "Killer"
	}
	return "Survivor"
}

// MatchEntry is one element of the match-history payload
type MatchEntry struct {
	PlayerStat   PlayerStat   `json:"playerStat"`
	OpponentStat []PlayerStat `json:"opponentStat"`
	MatchStat    MatchStat    `json:"matchStat"`
}

// MatchStat holds match-level data
type MatchStat struct {
	MatchStartTime int64  `json:"matchStartTime"` // epoch seconds
	MatchDuration  int64  `json:"matchDuration"`  // seconds
	Map            Named  `json:"map"`
	MatchID        string `json:"matchId,omitempty"`
}

// PlayerStat is one participant's performance in a match
type PlayerStat struct {
	PlayerRole        string         `json:"playerRole"`
	CharacterName     *Named         `json:"characterName,omitempty"`
	CharacterLoadout  Loadout        `json:"characterLoadout"`
	PostGameStat      map[string]int `json:"postGameStat"`
	BloodpointsEarned int64          `json:"bloodpointsEarned"`
	PlayerTimeInMatch *int64         `json:"playerTimeInMatch,omitempty"`
	PlayerStatus      *Named         `json:"playerStatus,omitempty"`
}

// Loadout is the set of items a player brought into the match.
// Any slot may be nil.
type Loadout struct {
	Perks    []*Named `json:"perks"`
	Offering *Named   `json:"offering"`
	Power    *Named   `json:"power"` // power for killers, item for survivors
	AddOns   []*Named `json:"addOns"`
}

// Named is the API's generic {name, image} descriptor
type Named struct {
	Name  string `json:"name"`
	Image Image  `json:"image"`
}

// Image points at an asset relative to the CDN root
type Image struct {
	Path string `json:"path"`
}

// Key returns the identity of the match. The same match delivered through different
// channels always yields the same key.
func (m *MatchEntry) Key() string {
	return fmt.Sprintf("%d_%s", m.MatchStat.MatchStartTime, m.MatchStat.Map.Name)
}

// EndTime returns the epoch second the match ended
func (m *MatchEntry) EndTime() int64 {
	return m.MatchStat.MatchStartTime + m.MatchStat.MatchDuration
}

// IsKillerMatch reports whether the subject played killer. The post-game categories are
// checked first since they are always present when the role field is not.
func (m *MatchEntry) IsKillerMatch() bool {
	for k := range m.PlayerStat.PostGameStat {
		if strings.Contains(k, "Slasher") {
			return true
		}
	}
	return m.PlayerStat.Role() == RoleKiller
}

// Role maps the raw role identifier to a Role
func (p *PlayerStat) Role() Role {
	if p.PlayerRole == RoleIDKiller {
		return RoleKiller
	}
	return RoleSurvivor
}

// Perk returns the perk in slot i, or nil when the slot is empty
func (l *Loadout) Perk(i int) *Named {
	if i < 0 || i >= len(l.Perks) {
		return nil
	}
	return l.Perks[i]
}

// AddOn returns the add-on in slot i, or nil when the slot is empty
func (l *Loadout) AddOn(i int) *Named {
	if i < 0 || i >= len(l.AddOns) {
		return nil
	}
	return l.AddOns[i]
}
