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

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/fieldworks/crewchat/internal/auth"
	"github.com/fieldworks/crewchat/internal/cloud"
	"github.com/fieldworks/crewchat/internal/completion"
	"github.com/fieldworks/crewchat/internal/config"
	"github.com/fieldworks/crewchat/internal/history"
	"github.com/fieldworks/crewchat/internal/persona"
	"github.com/fieldworks/crewchat/internal/server"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	var (
		showVersion = flag.Bool("version", false, "Show version and exit")
		configPath  = flag.String("config", "config.toml", "Path to config file")
		debug       = flag.Bool("debug", false, "Enable debug logging")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("crewchat %s\n", Version)
		os.Exit(0)
	}

	initLogging(*debug)

	log.Info().Str("version", Version).Msg("Starting crewchat")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	log.Debug().Interface("config", cfg).Msg("Configuration loaded")

	registry := persona.NewRegistry()
	log.Debug().Int("personas", len(registry.List())).Msg("Persona registry initialized")

	gateway := history.NewGateway(history.NewClient(cfg.History.BaseURL), history.NewTTLCache())
	completions := completion.NewGateway(cfg.Completion, registry)
	tokens := cloud.NewTokenClient(cfg.Cloud)
	identity := auth.NewHeaderIdentity()

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           server.New(gateway, completions, registry, tokens, identity).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		log.Info().Msg("Received shutdown signal")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("Shutdown error")
		}
	}()

	log.Info().Str("addr", cfg.Server.Addr).Msg("Listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("Server error")
	}

	log.Info().Msg("crewchat shutdown complete")
}

func initLogging(debug bool) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
}
