package render

import (
	"bytes"
	"fmt"
	"html/template"
	"sort"

	"dbdhistory/internal/bhvr"
	"dbdhistory/internal/page"

	"github.com/dustin/go-humanize"
	"golang.org/x/net/html"
)

const (
	TableModeClass     = "dbd-table-mode"
	KillerMatchClass   = "dbd-killer-match"
	SurvivorMatchClass = "dbd-survivor-match"
	LoadoutItemClass   = "dbd-loadout-item"

	// Scores below this are highlighted
	lowScore = 10000

	charBGURL    = "/_next/image/?url=%%2Fstatic%%2Fimages%%2Fgames%%2Fdbd%%2Fcharacters%%2F%s_bg.png&w=3840&q=75"
	slotBGURL    = bhvr.AssetsBaseURL + "display/%s_bg.png"
	iconSize     = 40
	iconSizeHalf = iconSize * 4 / 5
)

type slot struct {
	Title      string
	Icon       string
	Background string
	Small      bool
	Size       int
}

type scoreCell struct {
	Category string
	Value    string
	Low      bool
}

type row struct {
	Killer        bool
	Subject       bool
	CharacterName string
	CharacterIcon string
	CharacterBG   string
	StatusIcon    string
	Perks         []slot
	Offering      slot
	Power         slot
	AddOns        []slot
	Scores        []scoreCell
	Bloodpoints   string
	Time          string
	BPH           string
	BPHTitle      string
}

var tableTmpl = template.Must(template.New("table").Parse(`<table class="dbd-match-table">
<thead><tr>
<th>Player</th><th>Loadout</th>
<th title="Objectives / Hunter">Obj / Hunt</th>
<th title="Altruism / Deviousness">Altr / Dev</th>
<th title="Boldness / Brutality">Bold / Brut</th>
<th title="Survival / Sacrifice">Surv / Sacr</th>
<th>BP</th><th>Time</th><th>BP/h</th>
</tr></thead>
<tbody>
{{- range .}}
<tr class="dbd-player-row {{if .Killer}}dbd-killer-row{{else}}dbd-survivor-row{{end}} {{if .Subject}}dbd-user-row{{else}}dbd-opponent-row{{end}}">
<td class="dbd-char-cell"><div class="dbd-char-container" title="{{.CharacterName}}">
<img src="{{.CharacterBG}}" class="dbd-char-bg" role="presentation">
<div class="dbd-char-icon-wrapper"><img src="{{.CharacterIcon}}" alt="{{.CharacterName}}" class="dbd-char-icon"></div>
{{- if .StatusIcon}}<img src="{{.StatusIcon}}" class="dbd-status-icon-overlay">{{end}}
</div></td>
<td class="dbd-loadout-cell"><div class="dbd-loadout-container">
<div class="dbd-loadout-group">{{range .Perks}}{{template "slot" .}}{{end}}</div>
<div class="dbd-loadout-divider"></div>
<div class="dbd-loadout-group">{{template "slot" .Offering}}</div>
<div class="dbd-loadout-divider"></div>
<div class="dbd-loadout-group">{{template "slot" .Power}}<span class="dbd-loadout-plus">+</span><div class="dbd-loadout-addons">{{range .AddOns}}{{template "slot" .}}{{end}}</div></div>
</div></td>
{{- range .Scores}}
<td class="dbd-stat-cell{{if .Low}} dbd-stat-low{{end}}" title="{{.Category}}">{{.Value}}</td>
{{- end}}
<td class="dbd-bp-cell">{{.Bloodpoints}}</td>
<td class="dbd-time-cell">{{.Time}}</td>
{{- if .Subject}}
<td class="dbd-bph-cell" title="{{.BPHTitle}}">{{.BPH}}</td>
{{- else}}
<td class="dbd-bph-cell"></td>
{{- end}}
</tr>
{{- end}}
</tbody>
</table>
{{- define "slot"}}<div class="dbd-loadout-item {{if .Small}}dbd-loadout-small{{else}}dbd-loadout-large{{end}}{{if not .Icon}} dbd-loadout-empty{{end}}" title="{{.Title}}"><div class="dbd-loadout-bg" style="background-image: url('{{.Background}}')"></div><div class="dbd-loadout-icon-container" style="width: {{.Size}}px; height: {{.Size}}px;">{{if .Icon}}<img src="{{.Icon}}" alt="{{.Title}}" class="dbd-loadout-icon">{{end}}</div></div>{{end}}`))

// OrderOpponents returns a copy of opponents with every survivor ahead of the killer,
// the order the game itself lists players in. Ties keep their input order.
func OrderOpponents(opponents []bhvr.PlayerStat) []bhvr.PlayerStat {
	out := make([]bhvr.PlayerStat, len(opponents))
	copy(out, opponents)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Role() != bhvr.RoleKiller && out[j].Role() == bhvr.RoleKiller
	})
	return out
}

// Card builds the replacement for the card at index. bph is the subject's throughput and
// is only shown when hasBPH is set. The newest card starts expanded.
func Card(entry bhvr.MatchEntry, index int, bph int64, hasBPH bool) (page.Replacement, error) {
	rows := make([]row, 0, 1+len(entry.OpponentStat))
	subject := playerRow(entry.PlayerStat, true)
	if hasBPH && bph != 0 {
		subject.BPH = fmt.Sprintf("%.1fM", float64(bph)/1000000)
		subject.BPHTitle = humanize.Comma(bph) + " BP/h (since last match)"
	} else {
		subject.BPH = "-"
		subject.BPHTitle = "- BP/h (since last match)"
	}
	rows = append(rows, subject)
	for _, p := range OrderOpponents(entry.OpponentStat) {
		rows = append(rows, playerRow(p, false))
	}

	var buf bytes.Buffer
	if err := tableTmpl.Execute(&buf, rows); err != nil {
		return page.Replacement{}, fmt.Errorf("failed to render match table: %w", err)
	}

	matchClass := SurvivorMatchClass
	if entry.IsKillerMatch() {
		matchClass = KillerMatchClass
	}

	return page.Replacement{
		Classes:  []string{matchClass, TableModeClass},
		Expanded: index == 0,
		Inner:    buf.String(),
	}, nil
}

// Toggle handles a click on a transformed card. Clicks inside a loadout icon are left
// alone so hovering and tooltips keep working.
func Toggle(card *page.Card, target *html.Node) bool {
	return card.Toggle(target, "."+LoadoutItemClass)
}

func playerRow(p bhvr.PlayerStat, isSubject bool) row {
	killer := p.Role() == bhvr.RoleKiller
	r := row{
		Killer:      killer,
		Subject:     isSubject,
		Bloodpoints: humanize.Comma(p.BloodpointsEarned),
		Time:        "-",
	}

	lane := "survivor"
	if killer {
		lane = "killer"
	}
	r.CharacterBG = fmt.Sprintf(charBGURL, lane)

	if p.CharacterName != nil {
		r.CharacterName = p.CharacterName.Name
		r.CharacterIcon = bhvr.ImageURL(p.CharacterName.Image.Path)
	}
	if !killer && p.PlayerStatus != nil {
		r.StatusIcon = bhvr.ImageURL(p.PlayerStatus.Image.Path)
	}
	if p.PlayerTimeInMatch != nil {
		r.Time = bhvr.FormatClock(*p.PlayerTimeInMatch)
	}

	for _, s := range p.Scores() {
		r.Scores = append(r.Scores, scoreCell{
			Category: s.Category,
			Value:    humanize.Comma(int64(s.Value)),
			Low:      s.Value < lowScore,
		})
	}

	l := p.CharacterLoadout
	for i := 0; i < 4; i++ {
		r.Perks = append(r.Perks, newSlot(l.Perk(i), "perk", fmt.Sprintf("Perk %d", i+1), false))
	}
	r.Offering = newSlot(l.Offering, "offering", "Offering", false)
	powerTitle := "Item"
	if killer {
		powerTitle = "Power"
	}
	r.Power = newSlot(l.Power, "item", powerTitle, false)
	for i := 0; i < 2; i++ {
		r.AddOns = append(r.AddOns, newSlot(l.AddOn(i), "item", fmt.Sprintf("Add-on %d", i+1), true))
	}

	return r
}

func newSlot(item *bhvr.Named, bg, title string, small bool) slot {
	s := slot{
		Title:      title,
		Background: fmt.Sprintf(slotBGURL, bg),
		Small:      small,
		Size:       iconSize,
	}
	if small {
		s.Size = iconSizeHalf
	}
	if item == nil {
		return s
	}
	if item.Name != "" {
		s.Title = item.Name
	}
	s.Icon = bhvr.ImageURL(item.Image.Path)
	return s
}
