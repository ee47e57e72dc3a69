package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lysyi3m/link-comb/app/api"
	"github.com/lysyi3m/link-comb/app/cfg"
	"github.com/lysyi3m/link-comb/app/database"
	"github.com/lysyi3m/link-comb/app/preview"
	"github.com/lysyi3m/link-comb/app/relay"
	"github.com/lysyi3m/link-comb/app/tasks"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	appConfig, err := cfg.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if appConfig == nil {
		// Help was shown, exit gracefully
		return
	}

	if appConfig.Debug {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	log.Println("Starting Link Comb server...")

	// Database connection
	log.Println("Opening settings database...")
	db, err := database.NewConnection(appConfig.DBPath)
	if err != nil {
		log.Fatal("Failed to open database:", err)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		log.Fatal("Failed to run migrations:", err)
	}
	log.Printf("Database ready (schema version %d, dirty: %v)", version, dirty)

	settingsRepo := database.NewSettingsRepository(db)

	// Initialize core components
	fetcher := preview.NewFetcher(appConfig.UserAgent,
		time.Duration(appConfig.FetchTimeout)*time.Second, appConfig.MaxBodySize)
	generic := preview.NewGenericExtractor(fetcher)

	apiClient := &http.Client{Timeout: time.Duration(appConfig.FetchTimeout) * time.Second}

	// Registration order is resolution priority
	registry := preview.NewRegistry(
		preview.NewTwitterExtractor(apiClient, settingsRepo),
		preview.NewYoutubeExtractor(apiClient, settingsRepo),
		preview.NewNprExtractor(generic),
	)

	dispatcher := preview.NewDispatcher(settingsRepo, registry, generic)

	var replier relay.Replier
	if appConfig.ReplyURL != "" {
		replier = relay.NewWebhookReplier(appConfig.ReplyURL, appConfig.UserAgent)
		log.Printf("Replies delivered asynchronously to %s", appConfig.ReplyURL)
	} else {
		log.Println("No reply URL configured, replies returned synchronously")
	}

	// Initialize and start scheduler
	log.Printf("Starting background scheduler with %d workers...", appConfig.WorkerCount)
	scheduler := tasks.NewScheduler()
	scheduler.Start()
	defer scheduler.Stop()

	// Initialize HTTP server
	log.Println("Initializing HTTP server...")
	apiHandler := api.NewHandler(dispatcher, settingsRepo, scheduler, replier, appConfig.Version)
	server := api.NewServer(apiHandler, appConfig.APIAccessKey)

	// Create HTTP server with timeouts
	httpServer := &http.Server{
		Addr:         ":" + appConfig.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start HTTP server in a goroutine
	serverErrChan := make(chan error, 1)
	go func() {
		log.Printf("Starting HTTP server on port %s", appConfig.Port)
		log.Printf("API endpoints available:")
		log.Printf("  Messages:      http://localhost:%s/messages (POST)", appConfig.Port)
		log.Printf("  Health check:  http://localhost:%s/health", appConfig.Port)
		log.Printf("  Statistics:    http://localhost:%s/stats", appConfig.Port)

		if appConfig.APIAccessKey != "" {
			log.Printf("  Settings:      http://localhost:%s/api/settings (requires API key)", appConfig.Port)
		} else {
			log.Printf("  Settings endpoints: DISABLED (API_ACCESS_KEY not set)")
		}

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Wait for interrupt signal or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	log.Println("Link Comb server started successfully!")
	log.Println("Press Ctrl+C to shutdown gracefully...")

	select {
	case sig := <-sigChan:
		log.Printf("Received signal: %v", sig)
	case err := <-serverErrChan:
		log.Printf("Server error: %v", err)
	}

	// Graceful shutdown
	log.Println("Shutting down server gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	} else {
		log.Println("HTTP server stopped")
	}

	// Scheduler is stopped via defer
	log.Println("Background scheduler stopped")

	log.Println("Link Comb server shutdown complete")
}
