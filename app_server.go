package main

import (
	"encoding/json"
	"net/http"
	"strconv"

	"dbdhistory/internal/bhvr"
	"dbdhistory/internal/metrics"
	"dbdhistory/internal/render"

	"github.com/charmbracelet/log"
)

// Routes returns the local server's handler
func (a *App) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", a.handlePage)
	mux.HandleFunc("GET /api/matches", a.handleMatches)
	mux.HandleFunc("POST /cards/{index}/toggle", a.handleToggle)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("GET /metrics", metrics.NewMetricsHandler())
	return mux
}

// handlePage serves the augmented document
func (a *App) handlePage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := a.doc.Render(w); err != nil {
		log.Error("Failed to render page", "err", err)
	}
}

type matchSummary struct {
	Key         string `json:"key"`
	Map         string `json:"map"`
	StartTime   int64  `json:"startTime"`
	Duration    string `json:"duration"`
	Role        string `json:"role"`
	Bloodpoints int64  `json:"bloodpoints"`
}

// handleMatches lists the stored matches, newest first
func (a *App) handleMatches(w http.ResponseWriter, r *http.Request) {
	snapshot := a.store.Snapshot()
	out := make([]matchSummary, 0, len(snapshot))
	for _, m := range snapshot {
		out = append(out, matchSummary{
			Key:         m.Key(),
			Map:         m.MatchStat.Map.Name,
			StartTime:   m.MatchStat.MatchStartTime,
			Duration:    bhvr.FormatClock(m.MatchStat.MatchDuration),
			Role:        m.PlayerStat.Role().String(),
			Bloodpoints: m.PlayerStat.BloodpointsEarned,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(out); err != nil {
		log.Error("Failed to encode matches", "err", err)
	}
}

// handleToggle flips a transformed card's display state in the served document
func (a *App) handleToggle(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil || index < 0 {
		http.Error(w, "invalid card index", http.StatusBadRequest)
		return
	}

	var toggled, found bool
	err = a.loop.Do(r.Context(), func() {
		cards := a.doc.Locate()
		if index >= len(cards) || !cards[index].Processed() {
			return
		}
		found = true
		toggled = render.Toggle(cards[index], nil)
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	if !found {
		http.Error(w, "no transformed card at that index", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"toggled": toggled})
}
