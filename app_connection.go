package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"dbdhistory/internal/config"
	"dbdhistory/internal/intercept"
	"dbdhistory/internal/localstate"
	"dbdhistory/internal/page"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
)

// loadPage reads the host page from disk or over the network
func loadPage(ctx context.Context, cfg *config.Config, rt http.RoundTripper) (*page.Document, error) {
	var body io.ReadCloser
	if cfg.IsRemotePage() {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.HostPage, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		resp, err := (&http.Client{Transport: rt}).Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch host page: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("failed to fetch host page: status %d", resp.StatusCode)
		}
		body = resp.Body
	} else {
		f, err := os.Open(cfg.HostPage)
		if err != nil {
			return nil, fmt.Errorf("failed to open host page: %w", err)
		}
		body = f
	}
	defer body.Close()

	doc, err := page.Parse(body, page.DefaultSelectors())
	if err != nil {
		return nil, err
	}
	log.Info("Loaded host page", "source", cfg.HostPage, "cards", len(doc.Locate()))
	return doc, nil
}

// openState opens the persisted browser state, or an empty one when none is configured
func openState(cfg *config.Config) (localstate.Reader, io.Closer, error) {
	if cfg.StateDB == "" {
		log.Warn("No state database configured, offline cache and fallback credential unavailable")
		return localstate.NewMap(nil), nil, nil
	}
	db, err := localstate.OpenSQLite(cfg.StateDB)
	if err != nil {
		return nil, nil, err
	}
	return db, db, nil
}

// connectSocket dials the host's request channel. It must run before Install.
func (a *App) connectSocket(ctx context.Context) error {
	if a.cfg.SocketURL == "" {
		return nil
	}
	socket := intercept.NewSocketTransport()
	if err := socket.Connect(ctx, a.cfg.SocketURL, nil); err != nil {
		return err
	}
	log.Info("Socket connected", "url", a.cfg.SocketURL)
	a.socket = socket
	return nil
}

// requestHistory issues the host page's own match-history request. It goes through the
// host transports, so interception sees it exactly as it would see the real page.
func (a *App) requestHistory(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.cfg.MatchHistoryURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if token, err := localstate.ReadToken(a.state, a.cfg.CredentialKey, a.cfg.CredentialPath); err == nil {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	if a.socket != nil || a.cfg.HostTransport == config.TransportXHR {
		return a.hostEvents.Send(ctx, req, func(ev intercept.Event) {
			switch ev.Kind {
			case intercept.EventLoad:
				log.Debug("Host request loaded", "status", ev.Status, "size", humanize.Bytes(uint64(len(ev.Body))))
			case intercept.EventError:
				log.Warn("Host request failed", "url", ev.URL, "err", ev.Err)
			}
		})
	}

	resp, err := a.hostClient.Do(req)
	if err != nil {
		return fmt.Errorf("host request failed: %w", err)
	}
	defer resp.Body.Close()

	n, err := io.Copy(io.Discard, resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read host response: %w", err)
	}
	log.Debug("Host request loaded", "status", resp.StatusCode, "size", humanize.Bytes(uint64(n)))
	return nil
}
