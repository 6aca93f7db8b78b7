package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"scraper-service/internal/api"
	"scraper-service/internal/config"
	"scraper-service/internal/extract"
	"scraper-service/internal/service"
)

func main() {
	cfg := config.Load()
	if cfg.Env == "dev" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		<-ch
		cancel()
	}()

	var extractor extract.Extractor
	if cfg.ExtractCommand != "" {
		extractor = extract.NewCommand(cfg.ExtractCommand)
	} else {
		log.Warn().Msg("SCRAPER_COMMAND not set, using simulated extractor")
		extractor = &extract.Simulated{Delay: 2 * time.Second}
	}

	svc := service.New(cfg, extractor)
	svc.Start(ctx)

	server := api.New(svc)
	httpServer := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: server.Router(),
	}

	log.Info().
		Str("port", cfg.HTTPPort).
		Int("max_concurrency", cfg.MaxConcurrency).
		Int("queue_limit", cfg.QueueLimit).
		Int("history_limit", cfg.MaxHistory).
		Msg("api listening")
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancelShutdown()
	_ = httpServer.Shutdown(shutdownCtx)
	if err := svc.Stop(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("worker pool did not drain cleanly")
	}
}
