// Package config builds a simplecanvas.Service from declarative
// configuration, resolving database and embed-service settings.
package config

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/simple-canvas/pkg/simplecanvas"
	"github.com/tendant/simple-canvas/pkg/simplecanvas/repo/memory"
	repopg "github.com/tendant/simple-canvas/pkg/simplecanvas/repo/postgres"
	"github.com/tendant/simple-canvas/pkg/simplecanvas/resolver/iframely"
)

// Option applies configuration to a ServerConfig instance.
type Option func(*ServerConfig) error

// Load constructs a ServerConfig by applying the supplied options on top of
// library defaults.
func Load(opts ...Option) (*ServerConfig, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() ServerConfig {
	return ServerConfig{
		Port:               "8080",
		Environment:        "development",
		DatabaseType:       "memory",
		EmbedEndpoint:      iframely.DefaultEndpoint,
		EnableEventLogging: true,
	}
}

// ServerConfig represents server configuration for the simple-canvas service
type ServerConfig struct {
	Port        string
	Environment string // development, production, testing

	// Database configuration
	DatabaseURL  string
	DatabaseType string // "memory", "postgres"

	// Embed resolution service
	EmbedEndpoint string
	EmbedAPIKey   string

	// Server options
	EnableEventLogging bool
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}

	if c.DatabaseType != "memory" && c.DatabaseType != "postgres" {
		return errors.New("database_type must be 'memory' or 'postgres'")
	}

	if c.DatabaseType == "postgres" && c.DatabaseURL == "" {
		return errors.New("database_url is required when using postgres")
	}

	if c.EmbedEndpoint == "" {
		return errors.New("embed_endpoint is required")
	}

	return nil
}

// BuildService creates a Service instance from the server configuration
func (c *ServerConfig) BuildService(ctx context.Context) (simplecanvas.Service, error) {
	repo, err := c.buildRepository(ctx)
	if err != nil {
		return nil, err
	}

	var resolverOpts []iframely.Option
	if c.EmbedAPIKey != "" {
		resolverOpts = append(resolverOpts, iframely.WithAPIKey(c.EmbedAPIKey))
	}
	resolver := iframely.New(c.EmbedEndpoint, resolverOpts...)

	options := []simplecanvas.Option{
		simplecanvas.WithRepository(repo),
		simplecanvas.WithResolver(resolver),
	}
	if c.EnableEventLogging {
		options = append(options, simplecanvas.WithEventSink(simplecanvas.NewLoggingEventSink(nil)))
	} else {
		options = append(options, simplecanvas.WithEventSink(simplecanvas.NewNoopEventSink()))
	}

	return simplecanvas.New(options...)
}

func (c *ServerConfig) buildRepository(ctx context.Context) (simplecanvas.Repository, error) {
	switch c.DatabaseType {
	case "memory":
		return memory.New(), nil
	case "postgres":
		pool, err := pgxpool.New(ctx, c.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to create connection pool: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
		return repopg.NewWithPool(pool), nil
	default:
		return nil, fmt.Errorf("unsupported database type %q", c.DatabaseType)
	}
}
