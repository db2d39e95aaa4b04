package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"endorsement/internal/batch"
	"endorsement/internal/events"
	"endorsement/internal/http/handlers"
	httpapi "endorsement/internal/http/httpapi"
	"endorsement/internal/infra"
	"endorsement/internal/infra/credentials"
	"endorsement/internal/infra/geoip"
	"endorsement/internal/preferences"
	"endorsement/internal/providers/genai"
	"endorsement/internal/sqlinline"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var prefs preferences.Store = preferences.NewMemoryStore()
	apiKey := cfg.GeminiAPIKey
	if cfg.HasDatabase() {
		dbpool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect database")
		}
		defer dbpool.Close()

		runner := infra.NewSQLRunner(dbpool, logger.With().Str("component", "sql").Logger())
		if _, err := runner.Exec(ctx, sqlinline.QEnsureSchema); err != nil {
			logger.Fatal().Err(err).Msg("failed to ensure schema")
		}
		prefs = preferences.NewSQLStore(runner)

		apiKey, err = credentials.NewStore(runner).ResolveGeminiKey(ctx, apiKey)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to load gemini credentials")
		}
	} else {
		logger.Info().Msg("DATABASE_URL not set; preferences are kept in memory")
	}
	if apiKey == "" {
		logger.Warn().Msg("gemini api key missing; every generation task will fail")
	}

	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	}
	defer resolver.Close()

	genLogger := logger.With().Str("component", "genai").Logger()
	generator, err := genai.NewFromConfig(ctx, cfg, apiKey, &genLogger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build gemini client")
	}

	batchLogger := logger.With().Str("component", "batch").Logger()
	orchestrator := batch.NewOrchestrator(generator, batch.Options{Size: cfg.BatchSize, Logger: &batchLogger})

	hub := events.NewHub()
	go hub.Run(ctx)

	app := &handlers.App{
		Config:       cfg,
		Logger:       logger,
		Orchestrator: orchestrator,
		History:      batch.NewHistory(cfg.BatchHistory),
		Events:       hub,
		Preferences:  prefs,
	}

	router := httpapi.NewRouter(app, httpapi.Options{
		Logger:             logger.With().Str("component", "http").Logger(),
		DefaultLocale:      cfg.DefaultLocale,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitPerMin:    cfg.RateLimitPerMin,
		CountryLookup:      resolver.Lookup(),
	})

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().
			Str("addr", server.Addr()).
			Str("model", generator.Model()).
			Int("batch_size", orchestrator.Size()).
			Msg("API listening")
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	shutdown(logger, server, cfg)
}

func shutdown(logger zerolog.Logger, server *infra.HTTPServer, cfg *infra.Config) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
		return
	}
	logger.Info().Msg("server stopped")
}
