package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/storyloom/guardrail/internal/config"
	"github.com/storyloom/guardrail/internal/handlers"
	"github.com/storyloom/guardrail/internal/logger"
	"github.com/storyloom/guardrail/internal/middleware"
	"github.com/storyloom/guardrail/internal/storage"
	"github.com/storyloom/guardrail/pkg/engine"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting Guardrail Engine API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"policy_file", cfg.PolicyFile)

	policy := engine.Policy{}
	if cfg.PolicyFile != "" {
		policy, err = engine.LoadPolicyFile(cfg.PolicyFile)
		if err != nil {
			log.Error("Failed to load policy file", "path", cfg.PolicyFile, "error", err)
			os.Exit(1)
		}
		log.Info("Loaded enforcement policy", "domains", len(policy))
	}

	var store storage.Storage = storage.NewRedisStorage(cfg.RedisURL, log)
	storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storageCancel()

	if err := store.Ping(storageCtx); err != nil {
		log.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}
	log.Info("Storage connection established successfully")

	eng := engine.New(policy, log)

	mux := http.NewServeMux()

	healthHandler := handlers.NewHealthHandler(store, log)
	mux.Handle("/health", healthHandler)

	turnHandler := handlers.NewTurnHandler(eng, store, log)
	mux.Handle("/v1/turn", turnHandler)

	sessionHandler := handlers.NewSessionHandler(store, log)
	mux.Handle("/v1/sessions/", sessionHandler)

	evidenceHandler := handlers.NewEvidenceHandler(store, log)
	mux.Handle("/v1/evidence", evidenceHandler)

	handler := middleware.Logger(mux)
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	if err := store.Close(); err != nil {
		log.Error("Error closing storage connection", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	log.Info("Server exited")
}
