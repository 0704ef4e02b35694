// Package main runs the in-memory task API for local development.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"taskmgr/internal/devserver"
	"taskmgr/internal/logging"
)

func main() {
	_ = godotenv.Load()

	log := logging.New(os.Stdout, logging.ParseLevel(os.Getenv("TASKMGR_LOG_LEVEL")))

	cfg, err := devserver.LoadConfig()
	if err != nil {
		log.Error("config", "err", err)
		os.Exit(1)
	}
	log = logging.New(os.Stdout, logging.ParseLevel(cfg.LogLevel))

	srv := devserver.New(devserver.NewStore(), devserver.NewMetrics(), log, cfg.Prefix)
	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		log.Info("listening", "addr", server.Addr, "prefix", cfg.Prefix)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("shutdown", "err", err)
		os.Exit(1)
	}
	log.Info("stopped")
}
