package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"homegrid/internal/auth"
	"homegrid/internal/config"
	"homegrid/internal/hub"
	"homegrid/internal/push"
	"homegrid/internal/service"
	"homegrid/internal/store"
	httptransport "homegrid/internal/transport/http"
	"homegrid/internal/ws"
)

func main() {
	// .env is optional; the environment wins.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(2)
	}

	log := newLogger(cfg.LogLevel)
	log.Info("starting homegrid", "http_port", cfg.HTTPPort, "database", cfg.DatabaseURL)

	db, err := store.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		log.Error("failed to initialize store", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)

	registry := hub.NewRegistry()
	router := push.NewRouter(registry, log)

	svc := service.New(db, router, tokens, cfg, log)
	wsServer := ws.NewServer(cfg, registry, tokens, log)
	server := httptransport.NewServer(svc, wsServer, tokens)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		if err := server.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("shutdown was not graceful", "error", err)
	}
	log.Info("stopped")
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
