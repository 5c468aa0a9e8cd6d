package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sir_venger/upload_lite/internal/app/uploadhttp"
	"github.com/sir_venger/upload_lite/internal/config"
)

// main инициализирует HTTP-сервис загрузки и обеспечивает корректное завершение по сигналу.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	handler, app, err := uploadhttp.NewServer(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}

	// Фоновый GC подчищает стейджинг заброшенных сессий.
	stopGC := app.Staging.StartGC(app.GCTTL, time.Duration(cfg.GCIntervalMin)*time.Minute)
	defer stopGC()

	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: handler,
	}

	// Сценарий graceful shutdown при получении SIGTERM/SIGINT.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("shutdown error: %v", err)
		}
	}()

	log.Printf("upload service listening on %s (data_dir=%s, registry=%s)", cfg.ListenAddr, cfg.DataDir, cfg.RegistryDSN)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Printf("final shutdown error: %v", err)
	}
}
