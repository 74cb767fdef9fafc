package main

import (
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"unskewed/config"
	"unskewed/db"
	uhttp "unskewed/http"
	"unskewed/logging"
)

func main() {
	configPath := flag.String("config", "config.yaml", "config file path")
	flag.Parse()

	// 1. Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Initialize logging
	_, cleanup, err := logging.Init(logging.Options{
		Level:      cfg.Log.Level,
		Path:       cfg.Log.Path,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	})
	if err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	defer cleanup()

	// 3. Initialize database
	if err := db.InitDB(cfg.Database.Path); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	log.Printf("Database initialized at %s", cfg.Database.Path)

	// 4. Start HTTP server
	serverConfig := uhttp.DefaultServerConfig()
	serverConfig.Port = cfg.Http.Port
	server := uhttp.NewServer(serverConfig)
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// 5. Watch config for changes
	stopWatch := make(chan struct{})
	go func() {
		err := config.Watch(*configPath, stopWatch, func(updated *config.Config) {
			log.Printf("Config reloaded (log level %s, resample defaults %.2f/%.2f seed %d)",
				updated.Log.Level, updated.Resample.MinorityRatio,
				updated.Resample.MajorityRatio, updated.Resample.Seed)
		})
		if err != nil {
			log.Printf("Config watch stopped: %v", err)
		}
	}()

	// 6. Handle graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down...")
	close(stopWatch)

	if err := server.Stop(); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Exiting")
}
