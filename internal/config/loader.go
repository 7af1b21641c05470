package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// FileName is the config file looked up in the working directory
const FileName = ".acrud.yml"

// Loader reads and writes the project config file
type Loader struct {
	filePath string
	workDir  string
}

// NewLoader creates a loader for workDir/.acrud.yml
func NewLoader(workDir string) *Loader {
	return &Loader{
		filePath: filepath.Join(workDir, FileName),
		workDir:  workDir,
	}
}

// NewLoaderForFile creates a loader for an explicit path
func NewLoaderForFile(path string) *Loader {
	return &Loader{
		filePath: path,
		workDir:  filepath.Dir(path),
	}
}

// Path returns the config file path
func (l *Loader) Path() string {
	return l.filePath
}

// Load reads the config file, expands ${VAR} references, applies
// environment overrides and validates the result.
func (l *Loader) Load() (*Config, error) {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config file not found: %s", l.filePath)
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Defaults()
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", l.filePath, err)
	}

	return l.finish(cfg)
}

// LoadOrDefault loads the file, or returns defaults (with environment
// overrides) when it does not exist.
func (l *Loader) LoadOrDefault() (*Config, error) {
	if _, err := os.Stat(l.filePath); errors.Is(err, os.ErrNotExist) {
		return l.finish(Defaults())
	}
	return l.Load()
}

func (l *Loader) finish(cfg *Config) (*Config, error) {
	applyEnv(cfg)
	l.resolvePaths(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg to the config file
func (l *Loader) Save(cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(l.filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (l *Loader) resolvePaths(cfg *Config) {
	if cfg.Schema.File != "" && !filepath.IsAbs(cfg.Schema.File) {
		cfg.Schema.File = filepath.Join(l.workDir, cfg.Schema.File)
	}
}

// applyEnv lets the environment override the file
func applyEnv(cfg *Config) {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.ConnectionString = v
	}
	if v := os.Getenv("ACRUD_DATABASE_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("ACRUD_SCHEMA_FILE"); v != "" {
		cfg.Schema.File = v
	}
	if v := os.Getenv("ACRUD_REDIS_ADDR"); v != "" {
		cfg.Schema.Cache.Addr = v
		cfg.Schema.Cache.Enabled = true
	}
	if v := os.Getenv("ACRUD_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("ACRUD_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
}

// Template returns a commented starter config
func Template() string {
	return `# ACRUD Configuration
version: "0.1.0"

database:
  # postgres or mysql; detected from the connection string when empty
  driver: ""
  connection_string: "${DATABASE_URL}"
  max_connections: 10
  min_connections: 2
  connection_timeout: 30

schema:
  # YAML schema file; leave empty to introspect the live database
  file: ""
  cache:
    enabled: false
    addr: "localhost:6379"
    db: 0
    ttl: 300

server:
  host: "0.0.0.0"
  port: 8080
  rate_limit: 10
  rate_burst: 20
  shutdown_timeout: 30

logging:
  level: "info"
  format: "text"

# Override validation messages. Placeholders: {field} {table} {extra}
messages:
  required: "{field} is required"
`
}
