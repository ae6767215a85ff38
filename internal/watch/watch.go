package watch

import (
	"sync"
	"time"

	"dbdhistory/internal/page"

	"github.com/bep/debounce"
)

// DefaultQuiet is how long the document must stay still before a run
const DefaultQuiet = 100 * time.Millisecond

// Watcher coalesces bursts of document mutations into a single run. There is one shared
// slot: every notification replaces whatever run was pending and restarts the quiet period.
type Watcher struct {
	debounced func(func())
	run       func()
	post      func(func())
	active    func() bool

	mu      sync.Mutex
	stopped bool
}

type Option func(*Watcher)

// WithPost hands each run to post instead of calling it on the timer goroutine
func WithPost(post func(func())) Option {
	return func(w *Watcher) {
		w.post = post
	}
}

// WithGate drops notifications while active reports false
func WithGate(active func() bool) Option {
	return func(w *Watcher) {
		w.active = active
	}
}

// New creates a watcher that calls run once the document has been quiet for quiet
func New(quiet time.Duration, run func(), opts ...Option) *Watcher {
	if quiet <= 0 {
		quiet = DefaultQuiet
	}
	w := &Watcher{
		debounced: debounce.New(quiet),
		run:       run,
		post:      func(fn func()) { fn() },
		active:    func() bool { return true },
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Notify records that the document changed
func (w *Watcher) Notify() {
	if w.isStopped() || !w.active() {
		return
	}
	w.debounced(w.fire)
}

// Observe is a page.Observer. Every child-list batch counts as one notification.
func (w *Watcher) Observe(_ []page.Mutation) {
	w.Notify()
}

// Stop discards the pending run and ignores further notifications
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopped = true
}

func (w *Watcher) fire() {
	if w.isStopped() {
		return
	}
	w.post(func() {
		if w.isStopped() {
			return
		}
		w.run()
	})
}

func (w *Watcher) isStopped() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stopped
}
