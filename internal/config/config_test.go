package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddr != ":8080" {
		t.Errorf("ListenAddr = %q, want :8080", cfg.ListenAddr)
	}
	if cfg.HomeAlias != "~" {
		t.Errorf("HomeAlias = %q, want ~", cfg.HomeAlias)
	}
	if cfg.MaxHistory != 100 || cfg.MaxOutput != 1000 {
		t.Errorf("limits = %d/%d, want 100/1000", cfg.MaxHistory, cfg.MaxOutput)
	}
	if cfg.SessionTTL != 24*time.Hour {
		t.Errorf("SessionTTL = %v, want 24h", cfg.SessionTTL)
	}
	if !cfg.Watch {
		t.Error("Watch should default to true")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("TERMFOLIO_LISTEN_ADDR", ":7070")
	t.Setenv("TERMFOLIO_WATCH", "false")
	t.Setenv("TERMFOLIO_MAX_HISTORY", "5")
	t.Setenv("TERMFOLIO_SESSION_TTL", "90m")
	t.Setenv("TERMFOLIO_MAX_OUTPUT", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddr != ":7070" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr)
	}
	if cfg.Watch {
		t.Error("Watch should be false")
	}
	if cfg.MaxHistory != 5 {
		t.Errorf("MaxHistory = %d, want 5", cfg.MaxHistory)
	}
	if cfg.SessionTTL != 90*time.Minute {
		t.Errorf("SessionTTL = %v", cfg.SessionTTL)
	}
	if cfg.MaxOutput != 1000 {
		t.Errorf("invalid int should fall back, got %d", cfg.MaxOutput)
	}
}

func TestLoadRejectsBadLimits(t *testing.T) {
	t.Setenv("TERMFOLIO_MAX_HISTORY", "-1")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for negative history size")
	}
}

func TestRequireServer(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"missing secret", Config{}, true},
		{"secret only", Config{JWTSecret: "s"}, false},
		{"half tls", Config{JWTSecret: "s", TLSCertFile: "c.pem"}, true},
		{"full tls", Config{JWTSecret: "s", TLSCertFile: "c.pem", TLSKeyFile: "k.pem"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.RequireServer()
			if (err != nil) != tt.wantErr {
				t.Errorf("RequireServer() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
