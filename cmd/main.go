/*
Package main is the entry point for the Kura messaging server.

It is responsible for loading configuration, initializing the global logging system,
connecting the database pool and object storage, wiring the chat core (presence,
rooms, typing, dispatcher, hub), setting up the HTTP server, and gracefully
handling operating system interrupt signals (SIGINT, SIGTERM) to ensure a
smooth server shutdown.
*/
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/userDoffy/Kura/internal/app/chat"
	"github.com/userDoffy/Kura/internal/app/db"
	"github.com/userDoffy/Kura/internal/app/message"
	"github.com/userDoffy/Kura/internal/app/storage"
	"github.com/userDoffy/Kura/internal/app/user"
	"github.com/userDoffy/Kura/internal/configs"
	"github.com/userDoffy/Kura/internal/handler"
	"github.com/userDoffy/Kura/internal/pkg/auth/jwt"
	"github.com/userDoffy/Kura/internal/pkg/logx"
	"github.com/userDoffy/Kura/internal/pkg/metrics"
)

func main() {
	// Load configuration from environment variables
	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	logx.InitGlobalLogger(cfg.Environment == "development")
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Msg("Configuration loaded successfully")

	metrics.Register()

	// Create a context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to PostgreSQL and run migrations.
	pool, err := db.NewPool(cfg.DatabaseDSN)
	if err != nil {
		logx.Fatal(err, "Failed to initialize database")
	}
	defer pool.Close()

	storageService, err := storage.NewService(storage.ServiceConfig{
		S3BucketName:      cfg.S3BucketName,
		S3Endpoint:        cfg.S3Endpoint,
		S3AccessKeyID:     cfg.S3AccessKeyID,
		S3SecretAccessKey: cfg.S3SecretAccessKey,
	})
	if err != nil {
		logx.Fatal(err, "Failed to initialize storage service")
	}

	// Wire the chat core.
	store := message.NewPGStore(pool)
	directory := user.NewPGDirectory(pool)
	presence := chat.NewPresence()
	rooms := chat.NewRooms()
	typing := chat.NewTyping()

	dispatcher := chat.NewDispatcher(store, directory, storageService, presence, rooms, chat.DispatcherConfig{
		MaxTextBytes: cfg.MaxTextBytes,
		MaxFileBytes: cfg.MaxFileBytes,
		StoreTimeout: cfg.StoreTimeout,
	})
	hub := chat.NewHub(dispatcher, presence, rooms, typing)

	verifier := jwt.NewTokenVerifier(cfg.JWTSecret, directory)

	// Setup HTTP server and routes
	router := handler.Router(&handler.AppDeps{
		Hub:            hub,
		Config:         cfg,
		StorageService: storageService,
		Verifier:       verifier,
	})

	serverAddr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logx.Info(fmt.Sprintf("Kura Server starting on http://localhost%s", serverAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logx.Fatal(err, "Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server with a timeout of 5 seconds.
	<-ctx.Done()
	logx.Info("Received shutdown signal. Starting graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Fatal(err, "Server forced to shutdown")
	}

	logx.Info("Server gracefully stopped.")
}
