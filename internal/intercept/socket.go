package intercept

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var ErrSocketClosed = errors.New("socket transport is not connected")

// socketRequest is written for every Send
type socketRequest struct {
	ID      string            `json:"id"`
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`
}

// socketResponse answers a socketRequest with the same ID
type socketResponse struct {
	ID     string `json:"id"`
	Status int    `json:"status"`
	Body   string `json:"body"`
}

type pendingRequest struct {
	url      string
	on       EventHandler
	finished chan struct{}
}

// SocketTransport multiplexes requests over one websocket connection. Replies are matched
// to requests by ID and reported through the same signals as HTTPEventTransport.
type SocketTransport struct {
	conn        *websocket.Conn
	mu          sync.Mutex
	writeMu     sync.Mutex
	isConnected bool
	pending     map[string]pendingRequest
}

// NewSocketTransport creates a disconnected socket transport
func NewSocketTransport() *SocketTransport {
	return &SocketTransport{
		pending: make(map[string]pendingRequest),
	}
}

// Connect dials the socket endpoint
func (s *SocketTransport) Connect(ctx context.Context, url string, header http.Header) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isConnected {
		return nil
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		return fmt.Errorf("failed to connect to socket: %w", err)
	}

	s.conn = conn
	s.isConnected = true

	go s.listen(conn)

	return nil
}

// Send writes the request and returns; events follow from the listener
func (s *SocketTransport) Send(ctx context.Context, req *http.Request, on EventHandler) error {
	if req == nil || req.URL == nil {
		return errors.New("invalid request")
	}
	if on == nil {
		on = func(Event) {}
	}

	s.mu.Lock()
	if !s.isConnected {
		s.mu.Unlock()
		return ErrSocketClosed
	}
	conn := s.conn
	id := uuid.NewString()
	url := req.URL.String()
	finished := make(chan struct{})
	s.pending[id] = pendingRequest{url: url, on: on, finished: finished}
	s.mu.Unlock()

	msg := socketRequest{
		ID:      id,
		Method:  req.Method,
		URL:     url,
		Headers: flattenHeader(req.Header),
	}
	if msg.Method == "" {
		msg.Method = http.MethodGet
	}

	on(Event{Kind: EventReadyStateChange, State: StateOpened, URL: url})

	s.writeMu.Lock()
	err := conn.WriteJSON(msg)
	s.writeMu.Unlock()
	if err != nil {
		s.take(id)
		return fmt.Errorf("failed to send request: %w", err)
	}

	if done := ctx.Done(); done != nil {
		go func() {
			select {
			case <-done:
				if p, ok := s.take(id); ok {
					fail(p, ctx.Err())
				}
			case <-finished:
			}
		}()
	}

	return nil
}

// listen reads replies until the connection fails. Disconnect closes the connection,
// which unblocks ReadJSON and ends the loop.
func (s *SocketTransport) listen(conn *websocket.Conn) {
	defer func() {
		s.mu.Lock()
		if s.conn == conn {
			s.isConnected = false
			s.conn.Close()
			s.conn = nil
		}
		pending := s.pending
		s.pending = make(map[string]pendingRequest)
		for _, p := range pending {
			close(p.finished)
		}
		s.mu.Unlock()

		for _, p := range pending {
			fail(p, ErrSocketClosed)
		}
	}()

	for {
		var resp socketResponse
		if err := conn.ReadJSON(&resp); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				log.Debug("Socket read ended", "err", err)
			}
			return
		}
		s.handleResponse(resp)
	}
}

// handleResponse emits the completion signals for one reply
func (s *SocketTransport) handleResponse(resp socketResponse) {
	p, ok := s.take(resp.ID)
	if !ok {
		log.Debug("Socket reply for unknown request", "id", resp.ID)
		return
	}

	body := []byte(resp.Body)
	p.on(Event{Kind: EventReadyStateChange, State: StateHeadersReceived, URL: p.url, Status: resp.Status})
	p.on(Event{Kind: EventReadyStateChange, State: StateLoading, URL: p.url, Status: resp.Status})
	p.on(Event{Kind: EventReadyStateChange, State: StateDone, URL: p.url, Status: resp.Status, Body: body})
	p.on(Event{Kind: EventLoad, State: StateDone, URL: p.url, Status: resp.Status, Body: body})
}

func (s *SocketTransport) take(id string) (pendingRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pending[id]
	if ok {
		delete(s.pending, id)
		close(p.finished)
	}
	return p, ok
}

// Disconnect closes the connection; in-flight requests receive an error event
func (s *SocketTransport) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	s.isConnected = false
}

// IsConnected returns whether the socket is connected
func (s *SocketTransport) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isConnected
}

func fail(p pendingRequest, err error) {
	p.on(Event{Kind: EventReadyStateChange, State: StateDone, URL: p.url, Err: err})
	p.on(Event{Kind: EventError, State: StateDone, URL: p.url, Err: err})
}

func flattenHeader(h http.Header) map[string]string {
	if len(h) == 0 {
		return nil
	}
	out := make(map[string]string, len(h))
	for k := range h {
		out[k] = h.Get(k)
	}
	return out
}
