package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/hypanel/hypanel/internal/api"
	"github.com/hypanel/hypanel/internal/config"
	"github.com/hypanel/hypanel/internal/database"
	"github.com/hypanel/hypanel/internal/downloader"
	"github.com/hypanel/hypanel/internal/events"
	"github.com/hypanel/hypanel/internal/instance"
	"github.com/hypanel/hypanel/internal/logging"
	"github.com/hypanel/hypanel/internal/metrics"
	"github.com/hypanel/hypanel/internal/supervisor"
	"github.com/hypanel/hypanel/internal/websocket"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set up logging
	if err := setupLogging(cfg); err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer logging.Close()

	// Check if running migrations
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		runMigrations(cfg)
		return
	}

	if err := os.MkdirAll(cfg.Storage.InstancesDir, 0755); err != nil {
		log.Fatalf("Failed to create instances directory: %v", err)
	}

	// Initialize database
	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Run migrations automatically
	log.Println("Running database migrations...")
	if err := db.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Migrations completed successfully")

	store := instance.NewStore(db)
	bus := events.New()

	// Initialize WebSocket hub
	log.Println("Initializing WebSocket hub...")
	hub := websocket.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	unbindHub := websocket.BindBus(bus, hub)
	defer unbindHub()

	unbindStore := bindAuthPersistence(bus, store)
	defer unbindStore()

	// Initialize process supervisor
	sv := supervisor.New(supervisor.NewRegistry(), bus, supervisor.Options{
		ExitPollInterval: config.ParseDuration(cfg.Supervisor.ExitPollInterval, 500*time.Millisecond),
		StopPollInterval: config.ParseDuration(cfg.Supervisor.StopPollInterval, 200*time.Millisecond),
		StopTimeout:      config.ParseDuration(cfg.Supervisor.StopTimeout, 10*time.Second),
	})

	// Start metrics collector
	metricsCollector := metrics.NewCollector(cfg, sv.Registry(), db)
	metricsCollector.Start()
	defer metricsCollector.Stop()

	// Initialize downloader manager
	downloadManager := downloader.NewManager(cfg.Storage.DownloaderDir, bus)

	log.Println("All panel components initialized successfully")

	// Set up HTTP server
	router := api.SetupRouter(api.Deps{
		Config:     cfg,
		Store:      store,
		Supervisor: sv,
		Metrics:    metrics.NewStore(db),
		Downloader: downloadManager,
		Hub:        hub,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Starting panel on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down panel...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Stop every running server before the process goes away with them.
	stopAllInstances(sv)

	// Shutdown HTTP server
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Panel exited")
}

// bindAuthPersistence keeps the instance rows in sync with auth events from
// the console classifier. Returns an unsubscribe function.
func bindAuthPersistence(bus *events.Bus, store *instance.Store) func() {
	strptr := func(s string) *string { return &s }

	unsubs := []func(){
		bus.Subscribe(func(e events.AuthNeededEvent) {
			if err := store.UpdateAuth(e.InstanceID, instance.AuthUpdate{Status: strptr("unauthenticated")}); err != nil {
				log.Printf("[Main] failed to persist auth state for %s: %v", e.InstanceID, err)
			}
		}),
		bus.Subscribe(func(e events.AuthNeedsPersistenceEvent) {
			if err := store.UpdateAuth(e.InstanceID, instance.AuthUpdate{Persistence: strptr("memory")}); err != nil {
				log.Printf("[Main] failed to persist auth state for %s: %v", e.InstanceID, err)
			}
		}),
		bus.Subscribe(func(e events.AuthSuccessEvent) {
			update := instance.AuthUpdate{Status: strptr("authenticated")}
			if e.ProfileName != "" {
				update.ProfileName = &e.ProfileName
			}
			if err := store.UpdateAuth(e.InstanceID, update); err != nil {
				log.Printf("[Main] failed to persist auth state for %s: %v", e.InstanceID, err)
			}
		}),
	}

	return func() {
		for _, unsub := range unsubs {
			unsub()
		}
	}
}

// stopAllInstances runs the stop sequence for every live process, in
// parallel, and waits for all of them.
func stopAllInstances(sv *supervisor.Supervisor) {
	running := sv.StatusAll()
	if len(running) == 0 {
		return
	}

	log.Printf("Stopping %d running instance(s)...", len(running))
	done := make(chan string, len(running))
	for _, info := range running {
		go func(id string) {
			if err := sv.Stop(id); err != nil {
				log.Printf("[Main] failed to stop %s: %v", id, err)
			}
			done <- id
		}(info.InstanceID)
	}
	for range running {
		<-done
	}
}

func setupLogging(cfg *config.Config) error {
	if cfg != nil && strings.TrimSpace(cfg.Logging.File) == "" {
		dataDir := cfg.Storage.DataDir
		if dataDir == "" {
			dataDir = "./data"
		}
		cfg.Logging.File = filepath.Join(dataDir, "logs", "hypanel.log")
	}
	if cfg != nil && strings.TrimSpace(cfg.Logging.File) != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Logging.File), 0755); err != nil {
			return err
		}
	}
	_, err := logging.Init(cfg.Logging)
	return err
}

func runMigrations(cfg *config.Config) {
	log.Println("Running database migrations...")

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	log.Println("Migrations completed successfully")
}
