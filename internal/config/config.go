package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/dexit/ACRUD/pkg/engine"
)

// Config is the contents of .acrud.yml
type Config struct {
	Version  string            `yaml:"version"`
	Database DatabaseConfig    `yaml:"database"`
	Schema   SchemaConfig      `yaml:"schema"`
	Server   ServerConfig      `yaml:"server"`
	Logging  LoggingConfig     `yaml:"logging"`
	Messages map[string]string `yaml:"messages,omitempty"`
}

// DatabaseConfig selects and tunes the database connection
type DatabaseConfig struct {
	Driver            string `yaml:"driver"`
	ConnectionString  string `yaml:"connection_string"`
	MaxConnections    int    `yaml:"max_connections"`
	MinConnections    int    `yaml:"min_connections"`
	ConnectionTimeout int    `yaml:"connection_timeout"`
}

// SchemaConfig chooses where table metadata comes from
type SchemaConfig struct {
	// File is a YAML schema used instead of live introspection
	File  string      `yaml:"file,omitempty"`
	Cache CacheConfig `yaml:"cache"`
}

// CacheConfig enables the Redis schema cache
type CacheConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db"`
	TTL      int    `yaml:"ttl"`
	Key      string `yaml:"key,omitempty"`
}

// ServerConfig configures `acrud serve`
type ServerConfig struct {
	Host            string  `yaml:"host"`
	Port            int     `yaml:"port"`
	RateLimit       float64 `yaml:"rate_limit"`
	RateBurst       int     `yaml:"rate_burst"`
	ShutdownTimeout int     `yaml:"shutdown_timeout"`
}

// LoggingConfig is passed to logging.Setup
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Defaults returns the configuration used when no file exists
func Defaults() *Config {
	return &Config{
		Version: "0.1.0",
		Database: DatabaseConfig{
			Driver:            "",
			ConnectionString:  "",
			MaxConnections:    10,
			MinConnections:    2,
			ConnectionTimeout: 30,
		},
		Schema: SchemaConfig{
			Cache: CacheConfig{
				Enabled: false,
				Addr:    "localhost:6379",
				TTL:     300,
			},
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			RateLimit:       10,
			RateBurst:       20,
			ShutdownTimeout: 30,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate reports every problem at once
func (c *Config) Validate() error {
	var problems []string

	if c.Database.Driver != "" && c.Database.Driver != "postgres" && c.Database.Driver != "mysql" {
		problems = append(problems, fmt.Sprintf("database.driver must be postgres or mysql, got %q", c.Database.Driver))
	}
	if c.Database.MaxConnections < 0 {
		problems = append(problems, "database.max_connections must not be negative")
	}
	if c.Database.MinConnections > c.Database.MaxConnections && c.Database.MaxConnections > 0 {
		problems = append(problems, "database.min_connections must not exceed max_connections")
	}
	if c.Schema.Cache.Enabled && c.Schema.Cache.Addr == "" {
		problems = append(problems, "schema.cache.addr is required when the cache is enabled")
	}
	if c.Schema.Cache.TTL < 0 {
		problems = append(problems, "schema.cache.ttl must not be negative")
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("server.port %d is out of range", c.Server.Port))
	}
	if c.Server.RateLimit < 0 {
		problems = append(problems, "server.rate_limit must not be negative")
	}
	for kind := range c.Messages {
		if _, ok := engine.DefaultMessages()[engine.ErrorKind(kind)]; !ok {
			problems = append(problems, fmt.Sprintf("messages.%s is not a known error kind", kind))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}

// DriverName returns the configured driver, detecting it from the
// connection string when unset.
func (c *Config) DriverName() string {
	if c.Database.Driver != "" {
		return c.Database.Driver
	}
	return engine.DetectDriver(c.Database.ConnectionString)
}

// ErrorMessages converts the messages section into engine templates
func (c *Config) ErrorMessages() engine.Messages {
	if len(c.Messages) == 0 {
		return nil
	}
	out := make(engine.Messages, len(c.Messages))
	for kind, tmpl := range c.Messages {
		out[engine.ErrorKind(kind)] = tmpl
	}
	return out
}

// Addr is the listen address for the HTTP server
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// ShutdownDuration converts the shutdown timeout
func (s ServerConfig) ShutdownDuration() time.Duration {
	return time.Duration(s.ShutdownTimeout) * time.Second
}

// TTLDuration converts the cache TTL
func (c CacheConfig) TTLDuration() time.Duration {
	return time.Duration(c.TTL) * time.Second
}

// Timeout converts the connection timeout
func (d DatabaseConfig) Timeout() time.Duration {
	return time.Duration(d.ConnectionTimeout) * time.Second
}
