package config

import (
	"testing"
	"time"
)

func TestLoadServerDefaults(t *testing.T) {
	cfg, err := LoadServer()
	if err != nil {
		t.Fatalf("LoadServer() error = %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("HTTPAddr = %q, want :8080", cfg.HTTPAddr)
	}
	if cfg.PostgresDSN != "" {
		t.Fatalf("PostgresDSN = %q, want empty", cfg.PostgresDSN)
	}
	if cfg.TickInterval() != 16*time.Millisecond {
		t.Fatalf("TickInterval = %v, want 16ms", cfg.TickInterval())
	}
	if cfg.ForfeitGrace() != 10*time.Second {
		t.Fatalf("ForfeitGrace = %v, want 10s", cfg.ForfeitGrace())
	}
	if cfg.SessionIdleTTL() != 10*time.Minute {
		t.Fatalf("SessionIdleTTL = %v, want 10m", cfg.SessionIdleTTL())
	}
	if cfg.TournamentNotifyBuffer != 256 {
		t.Fatalf("TournamentNotifyBuffer = %d, want 256", cfg.TournamentNotifyBuffer)
	}
	if cfg.WSReadLimitBytes != 1024 {
		t.Fatalf("WSReadLimitBytes = %d, want 1024", cfg.WSReadLimitBytes)
	}
	if len(cfg.WSAllowedOrigins) != 0 {
		t.Fatalf("WSAllowedOrigins = %v, want empty", cfg.WSAllowedOrigins)
	}
}

func TestLoadServerParseTypes(t *testing.T) {
	t.Setenv("TICK_INTERVAL_MS", "20")
	t.Setenv("FORFEIT_GRACE_MS", "2500")
	t.Setenv("SESSION_IDLE_TTL_MS", "60000")
	t.Setenv("IDENTITY_LOOKUP_TIMEOUT_MS", "300")
	t.Setenv("WS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("TOURNAMENT_COORDINATOR_URL", "http://coord:9000")

	cfg, err := LoadServer()
	if err != nil {
		t.Fatalf("LoadServer() error = %v", err)
	}
	if cfg.TickInterval() != 20*time.Millisecond {
		t.Fatalf("TickInterval = %v", cfg.TickInterval())
	}
	if cfg.ForfeitGrace() != 2500*time.Millisecond {
		t.Fatalf("ForfeitGrace = %v", cfg.ForfeitGrace())
	}
	if cfg.SessionIdleTTL() != time.Minute {
		t.Fatalf("SessionIdleTTL = %v", cfg.SessionIdleTTL())
	}
	if cfg.IdentityLookupTimeout() != 300*time.Millisecond {
		t.Fatalf("IdentityLookupTimeout = %v", cfg.IdentityLookupTimeout())
	}
	if len(cfg.WSAllowedOrigins) != 2 || cfg.WSAllowedOrigins[1] != "https://b.example" {
		t.Fatalf("WSAllowedOrigins = %v", cfg.WSAllowedOrigins)
	}
	if cfg.TournamentCoordinatorURL != "http://coord:9000" {
		t.Fatalf("TournamentCoordinatorURL = %q", cfg.TournamentCoordinatorURL)
	}
}

func TestLoadServerRejectsBadNumber(t *testing.T) {
	t.Setenv("TICK_INTERVAL_MS", "fast")

	if _, err := LoadServer(); err == nil {
		t.Fatal("LoadServer() expected error, got nil")
	}
}
