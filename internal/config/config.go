package config

import (
	"time"
)

// Config holds all application configuration loaded from environment variables.
// Fields are parsed by github.com/caarlos0/env; a .env file in the working directory is
// loaded first when present.
type Config struct {
	// Server
	ListenAddr string `env:"DBD_LISTEN_ADDR" envDefault:"127.0.0.1:8787"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`

	// Host page. HostPage is a file path or an http(s) URL.
	HostPage        string `env:"DBD_HOST_PAGE"`
	MatchHistoryURL string `env:"DBD_MATCH_HISTORY_URL" envDefault:"https://account-backend.bhvr.com/player-stats/match-history/games/dbd/providers/bhvr?lang=en&limit=30"`
	SocketURL       string `env:"DBD_SOCKET_URL"`
	// HostTransport picks how the host issues its request when no socket is configured:
	// "fetch" for a plain round tripper, "xhr" for the event-driven transport.
	HostTransport   string `env:"DBD_HOST_TRANSPORT" envDefault:"fetch"`

	// Persisted browser state
	StateDB        string `env:"DBD_STATE_DB"`
	CredentialKey  string `env:"DBD_CREDENTIAL_KEY" envDefault:"bhvr-auth-storage"`
	CredentialPath string `env:"DBD_CREDENTIAL_PATH" envDefault:"state.accessToken"`

	// Timing
	FallbackDelay time.Duration `env:"DBD_FALLBACK_DELAY" envDefault:"2s"`
	Debounce      time.Duration `env:"DBD_DEBOUNCE" envDefault:"100ms"`
}
