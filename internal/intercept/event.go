package intercept

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"

	"dbdhistory/internal/store"
)

// ReadyState mirrors the progress states of an event-driven request
type ReadyState int

const (
	StateUnsent ReadyState = iota
	StateOpened
	StateHeadersReceived
	StateLoading
	StateDone
)

// EventKind distinguishes the signals an event transport emits
type EventKind int

const (
	EventReadyStateChange EventKind = iota
	EventLoad
	EventError
)

// Event is one signal for an in-flight request. A successful request ends with a
// ReadyStateChange to StateDone followed by a Load, both carrying the body.
type Event struct {
	Kind   EventKind
	State  ReadyState
	URL    string
	Status int
	Body   []byte
	Err    error
}

// EventHandler receives events for one request
type EventHandler func(Event)

// EventTransport sends requests and reports their progress through callbacks.
// Send returns once the request is dispatched; events arrive afterwards.
type EventTransport interface {
	Send(ctx context.Context, req *http.Request, on EventHandler) error
}

// EventTransport decorates next. The caller's handler sees every event unchanged; the
// interceptor reacts to whichever completion signal arrives first.
func (i *Interceptor) EventTransport(next EventTransport) EventTransport {
	return &eventTransport{next: next, i: i}
}

type eventTransport struct {
	next EventTransport
	i    *Interceptor
}

func (e *eventTransport) Send(ctx context.Context, req *http.Request, on EventHandler) error {
	url := req.URL.String()
	wrapped := func(ev Event) {
		if isCompletion(ev) && e.i.claim(url) {
			body := bytes.Clone(ev.Body)
			go e.i.handle(store.SourceEvent, url, body)
		}
		if on != nil {
			on(ev)
		}
	}
	return e.next.Send(ctx, req, wrapped)
}

func isCompletion(ev Event) bool {
	if ev.Err != nil {
		return false
	}
	return ev.Kind == EventLoad || (ev.Kind == EventReadyStateChange && ev.State == StateDone)
}

// HTTPEventTransport adapts a RoundTripper to the event model
type HTTPEventTransport struct {
	Transport http.RoundTripper
}

// NewHTTPEventTransport creates an event transport on top of rt
func NewHTTPEventTransport(rt http.RoundTripper) *HTTPEventTransport {
	if rt == nil {
		rt = http.DefaultTransport
	}
	return &HTTPEventTransport{Transport: rt}
}

func (h *HTTPEventTransport) Send(ctx context.Context, req *http.Request, on EventHandler) error {
	if req == nil || req.URL == nil {
		return errors.New("invalid request")
	}
	if on == nil {
		on = func(Event) {}
	}

	url := req.URL.String()
	req = req.WithContext(ctx)
	on(Event{Kind: EventReadyStateChange, State: StateOpened, URL: url})

	go func() {
		resp, err := h.Transport.RoundTrip(req)
		if err != nil {
			on(Event{Kind: EventReadyStateChange, State: StateDone, URL: url, Err: err})
			on(Event{Kind: EventError, State: StateDone, URL: url, Err: err})
			return
		}
		defer resp.Body.Close()

		on(Event{Kind: EventReadyStateChange, State: StateHeadersReceived, URL: url, Status: resp.StatusCode})
		on(Event{Kind: EventReadyStateChange, State: StateLoading, URL: url, Status: resp.StatusCode})

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			on(Event{Kind: EventReadyStateChange, State: StateDone, URL: url, Status: resp.StatusCode, Err: err})
			on(Event{Kind: EventError, State: StateDone, URL: url, Status: resp.StatusCode, Err: err})
			return
		}

		on(Event{Kind: EventReadyStateChange, State: StateDone, URL: url, Status: resp.StatusCode, Body: body})
		on(Event{Kind: EventLoad, State: StateDone, URL: url, Status: resp.StatusCode, Body: body})
	}()

	return nil
}
