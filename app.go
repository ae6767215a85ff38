package main

import (
	"context"
	"net/http"

	"dbdhistory/internal/bhvr"
	"dbdhistory/internal/config"
	"dbdhistory/internal/correlate"
	"dbdhistory/internal/fallback"
	"dbdhistory/internal/intercept"
	"dbdhistory/internal/localstate"
	"dbdhistory/internal/loop"
	"dbdhistory/internal/metrics"
	"dbdhistory/internal/page"
	"dbdhistory/internal/render"
	"dbdhistory/internal/store"
	"dbdhistory/internal/watch"

	"github.com/charmbracelet/log"
)

// App wires the retrieval channels, the match store and the page together
type App struct {
	cfg     *config.Config
	metrics metrics.Metrics

	loop        *loop.Loop
	store       *store.Store
	doc         *page.Document
	state       localstate.Reader
	interceptor *intercept.Interceptor
	engine      *correlate.Engine
	watcher     *watch.Watcher
	fallback    *fallback.Retriever

	// transport is the unwrapped transport; only the fallback uses it directly
	transport  http.RoundTripper
	hostClient *http.Client
	hostEvents intercept.EventTransport
	socket     *intercept.SocketTransport
}

// NewApp creates a new App. rt is the network transport the host would use; nil means
// http.DefaultTransport.
func NewApp(cfg *config.Config, doc *page.Document, state localstate.Reader, m metrics.Metrics, rt http.RoundTripper) *App {
	if m == nil {
		m = metrics.Nop{}
	}
	if rt == nil {
		rt = http.DefaultTransport
	}
	if state == nil {
		state = localstate.NewMap(nil)
	}

	a := &App{
		cfg:       cfg,
		metrics:   m,
		loop:      loop.New(64),
		store:     store.New(),
		doc:       doc,
		state:     state,
		transport: rt,
	}

	a.interceptor = intercept.New(a.deliver, intercept.WithMetrics(m))
	a.engine = correlate.NewEngine(doc, a.store, m)
	a.watcher = watch.New(cfg.Debounce, a.runPass,
		watch.WithPost(a.post),
		watch.WithGate(func() bool { return a.store.Len() > 0 }),
	)

	client := bhvr.NewClient(rt, bhvr.WithEndpoint(cfg.MatchHistoryURL))
	a.fallback = fallback.New(fallback.Config{
		Delay:         cfg.FallbackDelay,
		CredentialKey: cfg.CredentialKey,
		TokenPath:     cfg.CredentialPath,
	}, a.store, state, client, a.deliver, m)

	return a
}

// Install hooks everything up. It must run before the host issues its first request:
// interception is in place once it returns.
func (a *App) Install(ctx context.Context) {
	a.doc.InjectStyle(render.EarlyStyleID, render.EarlyStyle)

	a.hostClient = &http.Client{Transport: a.interceptor.RoundTripper(a.transport)}
	if a.socket != nil {
		a.hostEvents = a.interceptor.EventTransport(a.socket)
	} else {
		a.hostEvents = a.interceptor.EventTransport(intercept.NewHTTPEventTransport(a.transport))
	}

	a.store.Subscribe(a.onStoreChange)
	a.doc.Observe(a.watcher.Observe)

	a.doc.InjectStyle(render.StyleID, render.Style)
	a.doc.InjectScript(render.ScriptID, render.Script)

	a.extractCache()
	a.fallback.Schedule(ctx, a.post)

	log.Info("Installed", "endpoint", a.cfg.MatchHistoryURL, "socket", a.socket != nil)
}

// Run consumes the task loop until ctx is done
func (a *App) Run(ctx context.Context) error {
	return a.loop.Run(ctx)
}

// shutdown releases connections held by the app
func (a *App) shutdown() {
	a.watcher.Stop()
	if a.socket != nil {
		a.socket.Disconnect()
	}
}

// HostClient is the client the host page's code issues its requests through
func (a *App) HostClient() *http.Client {
	return a.hostClient
}

// HostEvents is the event-driven transport handed to the host page's code
func (a *App) HostEvents() intercept.EventTransport {
	return a.hostEvents
}

func (a *App) post(fn func()) {
	if !a.loop.Post(fn) {
		log.Debug("Task dropped, loop stopped")
	}
}

// deliver is the sink for every retrieval channel. Deliveries arrive on transport
// goroutines and are applied on the loop.
func (a *App) deliver(d store.Delivery) {
	a.post(func() {
		a.store.Apply(d)
	})
}

// extractCache reads matches the host persisted from an earlier visit
func (a *App) extractCache() {
	entries, err := localstate.ExtractCachedMatches(a.state)
	if err != nil {
		log.Warn("Failed to read offline cache", "err", err)
		return
	}
	if len(entries) == 0 {
		return
	}
	log.Info("Found cached matches", "matches", len(entries))
	a.deliver(store.Delivery{Source: store.SourceCache, Entries: entries})
}
