package intercept

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"sync"

	"dbdhistory/internal/store"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
)

// maxBodyCopy bounds how much of a match-history body is buffered for parsing
const maxBodyCopy = 8 << 20

// RoundTripper decorates next. Responses are returned to the caller untouched except that
// the body is wrapped in a tee: the caller reads the original stream at its own pace and
// the copy is parsed once the whole body has arrived, however far the caller reads.
func (i *Interceptor) RoundTripper(next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return &roundTripper{next: next, i: i}
}

type roundTripper struct {
	next http.RoundTripper
	i    *Interceptor
}

// Unwrap returns the decorated transport
func (rt *roundTripper) Unwrap() http.RoundTripper {
	return rt.next
}

func (rt *roundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := rt.next.RoundTrip(req)
	if err != nil || resp == nil || resp.Body == nil {
		return resp, err
	}

	url := req.URL.String()
	if !rt.i.claim(url) {
		return resp, nil
	}

	resp.Body = &teeBody{
		rc:    resp.Body,
		url:   url,
		limit: maxBodyCopy,
		done: func(body []byte) {
			rt.i.handle(store.SourceFetch, url, body)
		},
	}
	return resp, nil
}

// teeBody copies everything read through it and hands the copy off once the body is
// complete. A caller that stops early (a streaming decoder, a status-only check) still
// closes the body; whatever it left unread is drained in the background before the
// copy is handed off.
type teeBody struct {
	rc    io.ReadCloser
	url   string
	limit int64
	done  func([]byte)

	mu       sync.Mutex
	buf      bytes.Buffer
	finished bool
	once     sync.Once
}

func (t *teeBody) Read(p []byte) (int, error) {
	n, err := t.rc.Read(p)
	if n > 0 {
		t.mu.Lock()
		t.buf.Write(p[:n])
		t.mu.Unlock()
	}
	switch {
	case err == io.EOF:
		t.finish(nil)
	case err != nil:
		t.finish(err)
	}
	return n, err
}

// Close returns immediately; the underlying body is closed once the rest is drained
func (t *teeBody) Close() error {
	t.mu.Lock()
	finished := t.finished
	t.mu.Unlock()
	if finished {
		return t.rc.Close()
	}

	go func() {
		defer t.rc.Close()
		t.finish(t.drain())
	}()
	return nil
}

func (t *teeBody) drain() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	remaining := t.limit - int64(t.buf.Len())
	if _, err := io.Copy(&t.buf, io.LimitReader(t.rc, remaining+1)); err != nil {
		return err
	}
	if int64(t.buf.Len()) > t.limit {
		return fmt.Errorf("body exceeds %s", humanize.IBytes(uint64(t.limit)))
	}
	return nil
}

// finish hands the copy off when err is nil. A read error means the copy is incomplete
// and nothing is delivered.
func (t *teeBody) finish(err error) {
	t.once.Do(func() {
		t.mu.Lock()
		t.finished = true
		body := bytes.Clone(t.buf.Bytes())
		t.buf.Reset()
		t.mu.Unlock()

		if err != nil {
			log.Warn("Match history body incomplete, nothing delivered", "url", t.url, "err", err)
			return
		}
		// Parsing happens off the caller's goroutine
		go t.done(body)
	})
}
