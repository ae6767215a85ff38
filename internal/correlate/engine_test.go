package correlate

import (
	"fmt"
	"strings"
	"testing"

	"dbdhistory/internal/bhvr"
	"dbdhistory/internal/metrics"
	"dbdhistory/internal/page"
	"dbdhistory/internal/store"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cardMarkup(mapName, duration string) string {
	return fmt.Sprintf(`<button class="@container/match-card"><span class="line-clamp-2">%s</span>`+
		`<span class="font-display">%s</span></button>`, mapName, duration)
}

func newDocument(t *testing.T, cards ...string) *page.Document {
	t.Helper()
	doc, err := page.ParseString(`<html><head></head><body><div id="list">`+strings.Join(cards, "")+
		`</div></body></html>`, page.DefaultSelectors())
	require.NoError(t, err)
	return doc
}

func storeWith(entries ...bhvr.MatchEntry) *store.Store {
	s := store.New()
	s.Put(entries)
	return s
}

func TestEngine_TransformsEachCardOnce(t *testing.T) {
	doc := newDocument(t, cardMarkup("Coal Tower", "10:00"), cardMarkup("Dead Dawg Saloon", "8:32"))
	s := storeWith(entry(400, 600, "Coal Tower"), entry(300, 512, "Dead Dawg Saloon"))
	m := metrics.NewMock()
	e := NewEngine(doc, s, m)

	res := e.Pass()
	assert.Equal(t, 2, res.Transformed)
	assert.Equal(t, 2, m.CardsTransformed(string(StrategyIndex)))

	for i := 0; i < 3; i++ {
		res = e.Pass()
		assert.Equal(t, 0, res.Transformed)
		assert.Equal(t, 2, res.Skipped)
	}
	assert.Equal(t, 4, m.Passes())

	doc.Find("#list > *", func(sel *goquery.Selection) {
		assert.Equal(t, 2, sel.Length())
		assert.Equal(t, 2, sel.Filter("[data-dbd-processed=true]").Length())
		expanded, _ := sel.First().Attr(page.ExpandedAttr)
		assert.Equal(t, "true", expanded, "newest card starts expanded")
		expanded, _ = sel.Last().Attr(page.ExpandedAttr)
		assert.Equal(t, "false", expanded)
	})
}

func TestEngine_ExtraCardsFallBackToLabels(t *testing.T) {
	doc := newDocument(t,
		cardMarkup("Coal Tower", "10:00"),
		cardMarkup("Dead Dawg Saloon", "8:32"),
		cardMarkup("The Game", "1:00"),
	)
	s := storeWith(entry(400, 600, "Coal Tower"), entry(300, 512, "Dead Dawg Saloon"))
	m := metrics.NewMock()

	// Cards beyond the store's size only match by label; the third has no such entry
	res := NewEngine(doc, s, m).Pass()
	assert.Equal(t, 2, res.Transformed)
	assert.Equal(t, 1, res.Unmatched)

	// The store grows, and the next pass picks the leftover card up
	s.Put([]bhvr.MatchEntry{entry(100, 60, "The Game")})
	res = NewEngine(doc, s, m).Pass()
	assert.Equal(t, 1, res.Transformed)
	assert.Equal(t, 2, res.Skipped)
}

func TestEngine_DeterministicAcrossArrivalOrder(t *testing.T) {
	entries := []bhvr.MatchEntry{
		entry(400, 600, "Coal Tower"),
		entry(300, 512, "Dead Dawg Saloon"),
		entry(200, 600, "Coal Tower"),
	}
	markup := []string{
		cardMarkup("Coal Tower", "10:00"),
		cardMarkup("Dead Dawg Saloon", "8:32"),
		cardMarkup("Coal Tower", "10:00"),
	}

	render := func(order []int) string {
		s := store.New()
		for _, i := range order {
			s.Put([]bhvr.MatchEntry{entries[i]})
		}
		doc := newDocument(t, markup...)
		NewEngine(doc, s, nil).Pass()
		return doc.String()
	}

	want := render([]int{0, 1, 2})
	for _, order := range [][]int{{2, 1, 0}, {1, 2, 0}, {0, 2, 1}} {
		assert.Equal(t, want, render(order))
	}
}

func TestEngine_EmptyDocument(t *testing.T) {
	m := metrics.NewMock()
	res := NewEngine(newDocument(t), storeWith(entry(1, 1, "x")), m).Pass()
	assert.Equal(t, Result{}, res)
	assert.Equal(t, 1, m.Passes())
}
