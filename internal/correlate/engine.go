package correlate

import (
	"dbdhistory/internal/bhvr"
	"dbdhistory/internal/metrics"
	"dbdhistory/internal/page"
	"dbdhistory/internal/render"
	"dbdhistory/internal/throughput"

	"github.com/charmbracelet/log"
)

// Locator returns the cards currently in the document
type Locator interface {
	Locate() []*page.Card
}

// Snapshotter returns the stored matches, newest first
type Snapshotter interface {
	Snapshot() []bhvr.MatchEntry
}

// Result summarises one pass
type Result struct {
	Located     int
	Skipped     int
	Transformed int
	Unmatched   int
	Failed      int
}

// Engine turns located cards into rendered match tables
type Engine struct {
	doc     Locator
	store   Snapshotter
	metrics metrics.Metrics
}

// NewEngine creates an engine. A nil m discards metrics.
func NewEngine(doc Locator, store Snapshotter, m metrics.Metrics) *Engine {
	if m == nil {
		m = metrics.Nop{}
	}
	return &Engine{doc: doc, store: store, metrics: m}
}

// Pass transforms every unprocessed card it can correlate. Processed cards are never
// touched again, so a card is transformed at most once. The store is read fresh on every
// pass; nothing carries over between passes.
func (e *Engine) Pass() Result {
	defer e.metrics.IncPasses()

	cards := e.doc.Locate()
	res := Result{Located: len(cards)}
	if len(cards) == 0 {
		return res
	}

	snapshot := e.store.Snapshot()
	for _, card := range cards {
		if card.Processed() {
			res.Skipped++
			continue
		}

		entry, strategy, ok := Match(card, card.Index, snapshot)
		if !ok {
			res.Unmatched++
			continue
		}

		bph, hasBPH := throughput.SincePrevious(entry, snapshot)
		repl, err := render.Card(entry, card.Index, bph, hasBPH)
		if err != nil {
			log.Error("Failed to render card", "index", card.Index, "match", entry.Key(), "err", err)
			res.Failed++
			continue
		}
		if err := card.Replace(repl); err != nil {
			log.Warn("Failed to replace card", "index", card.Index, "match", entry.Key(), "err", err)
			res.Failed++
			continue
		}

		e.metrics.IncCardsTransformed(string(strategy))
		res.Transformed++
	}

	if res.Transformed > 0 {
		log.Debug("Correlation pass", "located", res.Located, "transformed", res.Transformed, "unmatched", res.Unmatched)
	}
	return res
}
