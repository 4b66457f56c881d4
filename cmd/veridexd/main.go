// Command veridexd runs the fact-check aggregation API server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/factchecker/veridex/internal/api"
	"github.com/factchecker/veridex/internal/cache"
	"github.com/factchecker/veridex/internal/config"
	"github.com/factchecker/veridex/internal/database"
	"github.com/factchecker/veridex/internal/providers"
	"github.com/factchecker/veridex/internal/translate"
	"github.com/factchecker/veridex/internal/verify"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	configPath := flag.String("config", "veridex.yaml", "path to configuration file")
	generateConfig := flag.Bool("generate-config", false, "write a sample configuration file and exit")
	flag.Parse()

	if *generateConfig {
		if err := config.GenerateSample(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "failed to generate config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Sample configuration written to %s\n", *configPath)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	setupLogging(cfg.Logging)

	store, err := database.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer store.Close()

	var provs []providers.Provider
	if cfg.Providers.Registry.Enabled {
		provs = append(provs, providers.NewRegistryClient(cfg.Providers.Registry))
	}
	for _, c := range providers.NewOfficialSourceClients(cfg.Providers.OfficialSources) {
		provs = append(provs, c)
	}
	if cfg.Providers.ImageMatch.Enabled {
		provs = append(provs, providers.NewImageMatchClient(cfg.Providers.ImageMatch))
	}

	collector := providers.NewCollector(cfg.Providers.Timeout(), provs...)
	vcache := cache.New(store, cfg.Cache.TTL(), cfg.Cache.CleanupInterval())
	engine := verify.NewEngine(collector, vcache, store)
	lifecycle := verify.NewLifecycle(store)

	var translator translate.Translator
	if cfg.Translation.Enabled {
		translator = translate.NewClient(cfg.Translation.BaseURL)
	}

	router := api.NewRouter(cfg, engine, lifecycle, store, translator)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}
}

func setupLogging(cfg config.LoggingConfig) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "text" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}
