package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/caarlos0/env/v10"
	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
)

var ErrInvalid = errors.New("invalid configuration")

const (
	TransportFetch = "fetch"
	TransportXHR   = "xhr"
)

// Load reads configuration from a .env file, if any, and the environment
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug("No .env file found, reading from environment variables")
	} else {
		log.Info("Loaded environment variables from .env file")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config from environment: %w", err)
	}
	return cfg, nil
}

// Validate checks values env tags cannot express
func (c *Config) Validate() error {
	if _, _, err := net.SplitHostPort(c.ListenAddr); err != nil {
		return fmt.Errorf("%w: DBD_LISTEN_ADDR %q: %v", ErrInvalid, c.ListenAddr, err)
	}
	if c.HostPage == "" {
		return fmt.Errorf("%w: DBD_HOST_PAGE is required", ErrInvalid)
	}
	if u, err := url.Parse(c.MatchHistoryURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: DBD_MATCH_HISTORY_URL %q is not an absolute URL", ErrInvalid, c.MatchHistoryURL)
	}
	if c.SocketURL != "" && !strings.HasPrefix(c.SocketURL, "ws://") && !strings.HasPrefix(c.SocketURL, "wss://") {
		return fmt.Errorf("%w: DBD_SOCKET_URL %q must use ws or wss", ErrInvalid, c.SocketURL)
	}
	switch c.HostTransport {
	case TransportFetch, TransportXHR:
	default:
		return fmt.Errorf("%w: DBD_HOST_TRANSPORT %q must be fetch or xhr", ErrInvalid, c.HostTransport)
	}
	if c.CredentialKey == "" || c.CredentialPath == "" {
		return fmt.Errorf("%w: DBD_CREDENTIAL_KEY and DBD_CREDENTIAL_PATH must be set", ErrInvalid)
	}
	if c.FallbackDelay <= 0 {
		return fmt.Errorf("%w: DBD_FALLBACK_DELAY must be positive", ErrInvalid)
	}
	if c.Debounce <= 0 {
		return fmt.Errorf("%w: DBD_DEBOUNCE must be positive", ErrInvalid)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: LOG_LEVEL %q", ErrInvalid, c.LogLevel)
	}
	return nil
}

// IsRemotePage reports whether HostPage should be fetched rather than read from disk
func (c *Config) IsRemotePage() bool {
	return strings.HasPrefix(c.HostPage, "http://") || strings.HasPrefix(c.HostPage, "https://")
}
