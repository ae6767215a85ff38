package main

import (
	"dbdhistory/internal/page"
	"dbdhistory/internal/store"

	"github.com/charmbracelet/log"
)

// onStoreChange runs on the loop after every non-empty batch lands in the store
func (a *App) onStoreChange(c store.Change) {
	log.Info("Stored matches", "source", c.Source, "applied", c.Applied, "total", c.Total)
	a.metrics.SetStoredMatches(c.Total)
	a.doc.AddRootClass(page.DataReadyClass)
	a.runPass()
}

// runPass transforms whatever cards can be correlated right now
func (a *App) runPass() {
	res := a.engine.Pass()
	if res.Unmatched > 0 {
		log.Debug("Cards left untouched", "unmatched", res.Unmatched, "located", res.Located)
	}
}
