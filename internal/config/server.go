package config

import (
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type ServerConfig struct {
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8080"`
	PostgresDSN string `env:"POSTGRES_DSN"`

	AdminAPIKey string `env:"ADMIN_API_KEY"`

	TournamentCoordinatorURL  string `env:"TOURNAMENT_COORDINATOR_URL"`
	TournamentNotifyTimeoutMS int    `env:"TOURNAMENT_NOTIFY_TIMEOUT_MS" envDefault:"3000"`
	TournamentNotifyBuffer    int    `env:"TOURNAMENT_NOTIFY_BUFFER" envDefault:"256"`

	IdentityLookupTimeoutMS int `env:"IDENTITY_LOOKUP_TIMEOUT_MS" envDefault:"1500"`

	TickIntervalMS int    `env:"TICK_INTERVAL_MS" envDefault:"16"`
	ForfeitGraceMS int    `env:"FORFEIT_GRACE_MS" envDefault:"10000"`
	SessionIdleMS  int    `env:"SESSION_IDLE_TTL_MS" envDefault:"600000"`
	TuningPath     string `env:"TUNING_PATH"`

	WSAllowedOrigins []string `env:"WS_ALLOWED_ORIGINS" envSeparator:","`
	WSReadLimitBytes int64    `env:"WS_READ_LIMIT_BYTES" envDefault:"1024"`
	WSMessagesPerSec int      `env:"WS_MESSAGES_PER_SEC" envDefault:"120"`
}

func LoadServer() (ServerConfig, error) {
	var cfg ServerConfig
	if err := env.Parse(&cfg); err != nil {
		return cfg, err
	}
	origins := cfg.WSAllowedOrigins[:0]
	for _, o := range cfg.WSAllowedOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	cfg.WSAllowedOrigins = origins
	return cfg, nil
}

func (c ServerConfig) TickInterval() time.Duration {
	return time.Duration(c.TickIntervalMS) * time.Millisecond
}

func (c ServerConfig) ForfeitGrace() time.Duration {
	return time.Duration(c.ForfeitGraceMS) * time.Millisecond
}

func (c ServerConfig) SessionIdleTTL() time.Duration {
	return time.Duration(c.SessionIdleMS) * time.Millisecond
}

func (c ServerConfig) TournamentNotifyTimeout() time.Duration {
	return time.Duration(c.TournamentNotifyTimeoutMS) * time.Millisecond
}

func (c ServerConfig) IdentityLookupTimeout() time.Duration {
	return time.Duration(c.IdentityLookupTimeoutMS) * time.Millisecond
}
