package page

import (
	"fmt"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func cardHTML(mapName, duration string) string {
	return fmt.Sprintf(`<button class="@container/match-card flex" aria-label="match" onclick="openDetails()">`+
		`<span class="line-clamp-2"> %s </span><span class="font-display">%s</span></button>`, mapName, duration)
}

func historyPage(cards ...string) string {
	return `<html><head><title>Match history</title></head><body><main><div id="history">` +
		strings.Join(cards, "") + `</div></main></body></html>`
}

func TestLocate_DocumentOrder(t *testing.T) {
	doc, err := ParseString(historyPage(
		cardHTML("Coal Tower", "10:00"),
		`<div class="match-card">decoy</div>`,
		cardHTML("Dead Dawg Saloon", "8:12"),
	), DefaultSelectors())
	require.NoError(t, err)

	cards := doc.Locate()
	require.Len(t, cards, 2)

	for i, want := range []string{"Coal Tower", "Dead Dawg Saloon"} {
		assert.Equal(t, i, cards[i].Index)
		label, ok := cards[i].MapLabel()
		require.True(t, ok)
		assert.Equal(t, want, label)
	}

	duration, ok := cards[1].DurationLabel()
	require.True(t, ok)
	assert.Equal(t, "8:12", duration)
}

func TestLocate_SelectorBreakageYieldsNoCards(t *testing.T) {
	for _, selector := range []string{".renamed-card", "[[[not a selector"} {
		doc, err := ParseString(historyPage(cardHTML("Coal Tower", "10:00")), Selectors{Card: selector})
		require.NoError(t, err)
		assert.Empty(t, doc.Locate(), "selector %q", selector)
	}
}

func TestCard_LabelsMissing(t *testing.T) {
	doc, err := ParseString(historyPage(`<div class="@container/match-card">no labels</div>`), DefaultSelectors())
	require.NoError(t, err)

	cards := doc.Locate()
	require.Len(t, cards, 1)
	_, ok := cards[0].MapLabel()
	assert.False(t, ok)
	_, ok = cards[0].DurationLabel()
	assert.False(t, ok)
}

func TestCard_ReplaceInheritsAttributesOnly(t *testing.T) {
	doc, err := ParseString(historyPage(cardHTML("Coal Tower", "10:00")), DefaultSelectors())
	require.NoError(t, err)

	var batches [][]Mutation
	doc.Observe(func(b []Mutation) { batches = append(batches, b) })

	card := doc.Locate()[0]
	require.False(t, card.Processed())
	require.NoError(t, card.Replace(Replacement{
		Classes:  []string{"dbd-table-mode", "dbd-killer-match"},
		Expanded: true,
		Inner:    `<table class="dbd-match-table"><tbody><tr><td>row</td></tr></tbody></table>`,
	}))

	assert.True(t, card.Processed())
	assert.True(t, card.Expanded())
	require.Len(t, batches, 1)
	assert.Len(t, batches[0][0].Added, 1)
	assert.Len(t, batches[0][0].Removed, 1)

	doc.Find("#history > *", func(s *goquery.Selection) {
		require.Equal(t, 1, s.Length())
		assert.Equal(t, "div", goquery.NodeName(s))
		assert.True(t, s.HasClass("@container/match-card"), "original classes are kept")
		assert.True(t, s.HasClass("dbd-table-mode"))
		assert.True(t, s.HasClass("dbd-killer-match"))
		label, _ := s.Attr("aria-label")
		assert.Equal(t, "match", label)
		assert.Equal(t, 0, s.Find(".line-clamp-2").Length(), "original content is gone")
		assert.Equal(t, 1, s.Find("table.dbd-match-table").Length())
	})

	// The replacement is still located as a card, now processed
	again := doc.Locate()
	require.Len(t, again, 1)
	assert.True(t, again[0].Processed())
}

func TestCard_ReplaceDetached(t *testing.T) {
	doc, err := ParseString(historyPage(cardHTML("Coal Tower", "10:00")), DefaultSelectors())
	require.NoError(t, err)

	card := doc.Locate()[0]
	doc.Remove("#history > button")
	assert.ErrorIs(t, card.Replace(Replacement{Inner: "<p>x</p>"}), ErrDetached)
}

func TestCard_Toggle(t *testing.T) {
	doc, err := ParseString(historyPage(cardHTML("Coal Tower", "10:00")), DefaultSelectors())
	require.NoError(t, err)

	card := doc.Locate()[0]
	require.NoError(t, card.Replace(Replacement{
		Inner: `<div class="dbd-loadout-item"><img class="dbd-loadout-icon"></div><span class="dbd-bp-cell">1</span>`,
	}))
	require.False(t, card.Expanded())

	var icon, cell = findNode(t, card, ".dbd-loadout-icon"), findNode(t, card, ".dbd-bp-cell")

	assert.False(t, card.Toggle(icon, ".dbd-loadout-item"), "clicks on loadout icons are ignored")
	assert.False(t, card.Expanded())

	assert.True(t, card.Toggle(cell, ".dbd-loadout-item"))
	assert.True(t, card.Expanded())
	assert.True(t, card.Toggle(card.Node(), ".dbd-loadout-item"))
	assert.False(t, card.Expanded())
}

func TestDocument_MutationsReachObservers(t *testing.T) {
	doc, err := ParseString(historyPage(), DefaultSelectors())
	require.NoError(t, err)

	var count int
	stop := doc.Observe(func(b []Mutation) { count += len(b) })

	doc.AppendHTML("#history", cardHTML("Coal Tower", "10:00"))
	assert.Len(t, doc.Locate(), 1)
	assert.Equal(t, 1, count)

	doc.AddRootClass(DataReadyClass)
	assert.True(t, doc.HasRootClass(DataReadyClass))
	assert.Equal(t, 1, count, "attribute changes are not child-list mutations")

	stop()
	doc.AppendHTML("#history", cardHTML("Dead Dawg Saloon", "8:00"))
	assert.Equal(t, 1, count)
}

func TestDocument_InjectStyleOnce(t *testing.T) {
	doc, err := ParseString(historyPage(), DefaultSelectors())
	require.NoError(t, err)

	doc.InjectStyle("dbd-styles", ".dbd-table-mode { display: block; }")
	doc.InjectStyle("dbd-styles", ".dbd-table-mode { display: block; }")

	doc.Find("head style#dbd-styles", func(s *goquery.Selection) {
		assert.Equal(t, 1, s.Length())
	})
	assert.Contains(t, doc.String(), ".dbd-table-mode { display: block; }")
}

func findNode(t *testing.T, card *Card, selector string) (n *html.Node) {
	t.Helper()
	card.Find(selector, func(s *goquery.Selection) {
		require.Equal(t, 1, s.Length(), selector)
		n = s.Get(0)
	})
	return n
}
