package intercept

import (
	"regexp"
	"sync"

	"dbdhistory/internal/bhvr"
	"dbdhistory/internal/metrics"
	"dbdhistory/internal/store"

	"github.com/charmbracelet/log"
)

// DeliverFunc receives every successfully parsed match-history body
type DeliverFunc func(store.Delivery)

// Interceptor observes match-history traffic on the transports it decorates and hands
// parsed bodies to a DeliverFunc. Each URL is processed at most once.
type Interceptor struct {
	pattern *regexp.Regexp
	deliver DeliverFunc
	metrics metrics.Metrics

	mu   sync.Mutex
	seen map[string]struct{}
}

// Option configures an Interceptor
type Option func(*Interceptor)

// WithPattern overrides the URL pattern identifying match-history requests
func WithPattern(p *regexp.Regexp) Option {
	return func(i *Interceptor) {
		i.pattern = p
	}
}

// WithMetrics attaches a metrics sink
func WithMetrics(m metrics.Metrics) Option {
	return func(i *Interceptor) {
		i.metrics = m
	}
}

// New creates an interceptor delivering to fn
func New(fn DeliverFunc, opts ...Option) *Interceptor {
	i := &Interceptor{
		pattern: bhvr.MatchHistoryPattern,
		deliver: fn,
		metrics: metrics.Nop{},
		seen:    make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Matches reports whether url is a match-history request
func (i *Interceptor) Matches(url string) bool {
	return i.pattern.MatchString(url)
}

// Seen reports whether url has already been processed
func (i *Interceptor) Seen(url string) bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	_, ok := i.seen[url]
	return ok
}

// claim marks url as processed. It returns false when url is not a match-history request
// or when another response for the same URL got there first.
func (i *Interceptor) claim(url string) bool {
	if !i.Matches(url) {
		return false
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	if _, ok := i.seen[url]; ok {
		return false
	}
	i.seen[url] = struct{}{}
	return true
}

// handle parses a copied body and delivers it. Malformed bodies are logged and dropped;
// the URL stays claimed so it is never retried.
func (i *Interceptor) handle(source store.Source, url string, body []byte) {
	i.metrics.IncIntercepted(string(source))

	entries, err := bhvr.ParseMatchList(body)
	if err != nil {
		i.metrics.IncMalformed(string(source))
		log.Error("Failed to parse intercepted response", "source", source, "url", url, "err", err)
		return
	}

	log.Info("Intercepted match history", "source", source, "url", url, "matches", len(entries))
	if i.deliver != nil {
		i.deliver(store.Delivery{Source: source, URL: url, Entries: entries})
	}
}
