package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/dexit/ACRUD/internal/config"
	"github.com/dexit/ACRUD/internal/logging"
	"github.com/dexit/ACRUD/pkg/engine"
	"github.com/dexit/ACRUD/pkg/engine/introspect"
	"github.com/dexit/ACRUD/pkg/engine/mysql"
	"github.com/dexit/ACRUD/pkg/engine/postgres"
	"github.com/redis/go-redis/v9"
)

// loadConfig reads .acrud.yml (or --config), then applies flag overrides
func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)

	if configPath != "" {
		cfg, err = config.NewLoaderForFile(configPath).Load()
	} else {
		workDir, wdErr := os.Getwd()
		if wdErr != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", wdErr)
		}
		cfg, err = config.NewLoader(workDir).LoadOrDefault()
	}
	if err != nil {
		return nil, err
	}

	if databaseURL != "" {
		cfg.Database.ConnectionString = databaseURL
	}
	if schemaFile != "" {
		cfg.Schema.File = schemaFile
	}

	level := cfg.Logging.Level
	if verbose {
		level = "debug"
	}
	logging.Setup(level, cfg.Logging.Format)

	return cfg, nil
}

// session is an opened engine plus what has to be closed with it
type session struct {
	engine  *engine.Engine
	backend *engine.Backend
	cache   *introspect.RedisCache
	redis   *redis.Client
	source  string
}

func (s *session) Close() {
	if s.redis != nil {
		s.redis.Close()
	}
	s.backend.Close()
}

// openSession connects to the database and assembles the schema provider
// chain: introspection or schema file, optionally behind Redis.
func openSession(ctx context.Context, cfg *config.Config) (*session, error) {
	backend, err := connect(ctx, cfg)
	if err != nil {
		return nil, err
	}

	s := &session{backend: backend, source: "introspection (" + backend.Driver + ")"}
	provider := backend.Provider

	if cfg.Schema.File != "" {
		file, err := introspect.NewFileProvider(cfg.Schema.File)
		if err != nil {
			backend.Close()
			return nil, err
		}
		provider = file
		s.source = "file " + file.Path()
	}

	if cfg.Schema.Cache.Enabled {
		client, err := introspect.NewRedisClient(ctx, introspect.RedisOptions{
			Addr:     cfg.Schema.Cache.Addr,
			Password: cfg.Schema.Cache.Password,
			DB:       cfg.Schema.Cache.DB,
		})
		if err != nil {
			printWarning("Schema cache disabled: %v", err)
		} else {
			s.redis = client
			s.cache = introspect.NewRedisCache(client, provider, cfg.Schema.Cache.TTLDuration()).
				WithKey(cfg.Schema.Cache.Key)
			provider = s.cache
			s.source += " via redis " + cfg.Schema.Cache.Addr
		}
	}

	backend.WithProvider(provider)

	s.engine = engine.NewEngineFromBackend(backend).WithMessages(cfg.ErrorMessages())
	if debugSQL {
		s.engine.WithDebug(engine.DebugSQL)
	} else if verbose {
		s.engine.WithDebug(engine.DebugTrace)
	}

	return s, nil
}

// connect opens the configured driver with the configured pool size
func connect(ctx context.Context, cfg *config.Config) (*engine.Backend, error) {
	dsn := cfg.Database.ConnectionString
	if dsn == "" {
		return nil, fmt.Errorf("no database configured: set DATABASE_URL, --database-url or database.connection_string")
	}

	if timeout := cfg.Database.Timeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	switch name := cfg.DriverName(); name {
	case postgres.DriverName:
		return postgres.OpenWithConfig(ctx, postgres.ConnectorConfig{
			URL:      dsn,
			MaxConns: int32(cfg.Database.MaxConnections),
			MinConns: int32(cfg.Database.MinConnections),
		})
	case mysql.DriverName:
		pool := mysql.DefaultPoolConfig()
		if cfg.Database.MaxConnections > 0 {
			pool.MaxOpenConns = cfg.Database.MaxConnections
		}
		if cfg.Database.MinConnections > 0 {
			pool.MaxIdleConns = cfg.Database.MinConnections
		}
		return mysql.OpenWithPool(ctx, dsn, pool)
	case "":
		return nil, fmt.Errorf("cannot detect the database driver from the connection string; set database.driver")
	default:
		return engine.OpenDriver(ctx, name, dsn)
	}
}

// redactDSN hides the password in a connection string
func redactDSN(dsn string) string {
	if dsn == "" {
		return "(not set)"
	}
	if u, err := url.Parse(dsn); err == nil && u.Scheme != "" && u.User != nil {
		if _, ok := u.User.Password(); ok {
			u.User = url.UserPassword(u.User.Username(), "xxxxx")
		}
		return u.String()
	}
	if at := strings.LastIndex(dsn, "@"); at > 0 {
		if colon := strings.Index(dsn[:at], ":"); colon >= 0 {
			return dsn[:colon+1] + "xxxxx" + dsn[at:]
		}
	}
	if strings.Contains(dsn, "password=") {
		fields := strings.Fields(dsn)
		for i, f := range fields {
			if strings.HasPrefix(f, "password=") {
				fields[i] = "password=xxxxx"
			}
		}
		return strings.Join(fields, " ")
	}
	return dsn
}
