package config

import (
	"strings"
	"testing"
	"time"

	"github.com/dexit/ACRUD/pkg/engine"
)

func TestDefaults_AreValid(t *testing.T) {
	if err := Defaults().Validate(); err != nil {
		t.Fatalf("Expected defaults to validate, got: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   string
	}{
		{"unknown driver", func(c *Config) { c.Database.Driver = "oracle" }, "database.driver"},
		{"negative pool", func(c *Config) { c.Database.MaxConnections = -1 }, "max_connections"},
		{"min above max", func(c *Config) { c.Database.MinConnections = 50 }, "min_connections"},
		{"cache without addr", func(c *Config) {
			c.Schema.Cache.Enabled = true
			c.Schema.Cache.Addr = ""
		}, "schema.cache.addr"},
		{"negative ttl", func(c *Config) { c.Schema.Cache.TTL = -5 }, "schema.cache.ttl"},
		{"port out of range", func(c *Config) { c.Server.Port = 65536 }, "server.port"},
		{"negative rate", func(c *Config) { c.Server.RateLimit = -1 }, "server.rate_limit"},
		{"unknown message kind", func(c *Config) {
			c.Messages = map[string]string{"shouting": "NO"}
		}, "messages.shouting"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.modify(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("Expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected %q in error, got: %v", tt.want, err)
			}
		})
	}
}

func TestDriverName(t *testing.T) {
	cfg := Defaults()

	cfg.Database.ConnectionString = "postgresql://localhost/app"
	if got := cfg.DriverName(); got != "postgres" {
		t.Errorf("Expected postgres, got %q", got)
	}

	cfg.Database.ConnectionString = "root:pw@tcp(localhost:3306)/app"
	if got := cfg.DriverName(); got != "mysql" {
		t.Errorf("Expected mysql, got %q", got)
	}

	cfg.Database.Driver = "postgres"
	if got := cfg.DriverName(); got != "postgres" {
		t.Errorf("Expected explicit driver to win, got %q", got)
	}
}

func TestErrorMessages(t *testing.T) {
	cfg := Defaults()
	if cfg.ErrorMessages() != nil {
		t.Error("Expected nil messages when none configured")
	}

	cfg.Messages = map[string]string{"length": "{field} too long"}
	msgs := cfg.ErrorMessages()
	if msgs[engine.ErrLength] != "{field} too long" {
		t.Errorf("Expected length template, got %q", msgs[engine.ErrLength])
	}
}

func TestDurations(t *testing.T) {
	cfg := Defaults()

	if got := cfg.Server.Addr(); got != "0.0.0.0:8080" {
		t.Errorf("Expected 0.0.0.0:8080, got %s", got)
	}
	if got := cfg.Server.ShutdownDuration(); got != 30*time.Second {
		t.Errorf("Expected 30s shutdown, got %s", got)
	}
	if got := cfg.Schema.Cache.TTLDuration(); got != 5*time.Minute {
		t.Errorf("Expected 5m TTL, got %s", got)
	}
	if got := cfg.Database.Timeout(); got != 30*time.Second {
		t.Errorf("Expected 30s timeout, got %s", got)
	}
}
