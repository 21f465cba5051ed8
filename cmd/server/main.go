package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/tendant/chi-demo/app"
	"github.com/tendant/chi-demo/middleware"
	"github.com/tendant/simple-canvas/pkg/simplecanvas/api"
	"github.com/tendant/simple-canvas/pkg/simplecanvas/config"
)

type Config struct {
	ApiKeySHA256 string `env:"API_KEY_SHA256" env-default:"1"`
	Embed        EmbedConfig
}

type EmbedConfig struct {
	Endpoint string `env:"EMBED_ENDPOINT" env-default:"https://iframe.ly/api/iframely"`
	ApiKey   string `env:"EMBED_API_KEY" env-default:""`
}

func main() {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		slog.Error("Failed to read configuration", "err", err)
		os.Exit(1)
	}

	serverConfig, err := config.Load(config.WithEnv(""))
	if err != nil {
		slog.Error("Failed to load server configuration", "err", err)
		os.Exit(1)
	}
	if cfg.Embed.Endpoint != "" {
		serverConfig.EmbedEndpoint = cfg.Embed.Endpoint
	}
	if cfg.Embed.ApiKey != "" {
		serverConfig.EmbedAPIKey = cfg.Embed.ApiKey
	}

	ctx := context.Background()
	svc, err := serverConfig.BuildService(ctx)
	if err != nil {
		slog.Error("Failed to build service", "err", err)
		os.Exit(1)
	}

	apiKeyConfig := middleware.ApiKeyConfig{
		APIKeys: map[string]string{
			"key1": cfg.ApiKeySHA256,
		},
	}

	server := app.DefaultApp()

	app.RoutesHealthz(server.R)
	app.RoutesHealthzReady(server.R)

	canvasHandler := api.NewCanvasHandler(svc)

	apiKeyMiddleware, err := middleware.ApiKeyMiddleware(apiKeyConfig)
	if err != nil {
		slog.Error("Failed initialize API Key middleware", "err", err)
		return
	}
	server.R.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(apiKeyMiddleware)
			r.Mount("/tiles", canvasHandler.Routes())
		})
	})

	slog.Info("Simple Canvas Server starting",
		"port", serverConfig.Port,
		"environment", serverConfig.Environment,
		"database", serverConfig.DatabaseType,
		"embed_endpoint", serverConfig.EmbedEndpoint)

	server.Run()
}
