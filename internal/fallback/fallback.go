package fallback

import (
	"context"
	"errors"
	"sync"
	"time"

	"dbdhistory/internal/bhvr"
	"dbdhistory/internal/localstate"
	"dbdhistory/internal/metrics"
	"dbdhistory/internal/store"

	"github.com/charmbracelet/log"
)

// DefaultDelay is how long interception gets before the fallback looks at the store
const DefaultDelay = 2 * time.Second

// Outcomes reported to metrics
const (
	OutcomeSkipped      = "skipped"
	OutcomeNoCredential = "no_credential"
	OutcomeFailed       = "failed"
	OutcomeDelivered    = "delivered"
)

var ErrNoCredential = errors.New("no credential in persisted state")

// Counter reports how many matches are already stored
type Counter interface {
	Len() int
}

// Fetcher issues the direct match-history request
type Fetcher interface {
	FetchMatchHistory(ctx context.Context, token string) ([]bhvr.MatchEntry, error)
}

// Config locates the bearer credential in persisted state
type Config struct {
	Delay         time.Duration
	CredentialKey string
	TokenPath     string
}

// Retriever performs at most one direct retrieval when interception produced nothing.
// Its Fetcher must be built on the unwrapped transport.
type Retriever struct {
	cfg     Config
	store   Counter
	state   localstate.Reader
	fetcher Fetcher
	deliver func(store.Delivery)
	metrics metrics.Metrics

	once sync.Once
}

// New creates a retriever
func New(cfg Config, counter Counter, state localstate.Reader, fetcher Fetcher, deliver func(store.Delivery), m metrics.Metrics) *Retriever {
	if cfg.Delay <= 0 {
		cfg.Delay = DefaultDelay
	}
	if m == nil {
		m = metrics.Nop{}
	}
	return &Retriever{
		cfg:     cfg,
		store:   counter,
		state:   state,
		fetcher: fetcher,
		deliver: deliver,
		metrics: m,
	}
}

// Schedule arms the one-shot timer. post runs the emptiness check on the caller's task loop;
// pass nil to run it on the timer goroutine. Calling Schedule more than once has no effect.
func (r *Retriever) Schedule(ctx context.Context, post func(func())) {
	r.once.Do(func() {
		time.AfterFunc(r.cfg.Delay, func() {
			check := func() {
				if r.store.Len() > 0 {
					r.metrics.IncFallback(OutcomeSkipped)
					return
				}
				// The network request happens off the loop; only the result is posted back
				go r.Run(ctx)
			}
			if post != nil {
				post(check)
				return
			}
			check()
		})
	})
}

// Run performs the retrieval now: read the credential, fetch once, deliver on success.
// Every failure is logged and ends the attempt.
func (r *Retriever) Run(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	token, err := localstate.ReadToken(r.state, r.cfg.CredentialKey, r.cfg.TokenPath)
	if err != nil {
		r.metrics.IncFallback(OutcomeNoCredential)
		log.Warn("Fallback aborted: no credential", "key", r.cfg.CredentialKey, "err", err)
		return errors.Join(ErrNoCredential, err)
	}

	log.Info("No intercepted data yet, fetching match history directly")
	entries, err := r.fetcher.FetchMatchHistory(ctx, token)
	if err != nil {
		r.metrics.IncFallback(OutcomeFailed)
		log.Error("Fallback fetch failed", "err", err)
		return err
	}

	r.metrics.IncFallback(OutcomeDelivered)
	log.Info("Fallback fetch succeeded", "matches", len(entries))
	if r.deliver != nil {
		r.deliver(store.Delivery{Source: store.SourceFallback, Entries: entries})
	}
	return nil
}
