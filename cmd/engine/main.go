package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/rawblock/barter-engine/internal/engine"
	"github.com/rawblock/barter-engine/internal/facade"
	"github.com/rawblock/barter-engine/internal/httpapi"
	"github.com/rawblock/barter-engine/internal/persistence"
)

func main() {
	log.Println("Starting barter cycle discovery engine...")

	persistDir := os.Getenv("SNAPSHOT_DIR")
	dbURL := os.Getenv("DATABASE_URL")

	var store persistence.Store
	switch {
	case dbURL != "":
		pg, err := persistence.ConnectPostgres(context.Background(), dbURL)
		if err != nil {
			log.Printf("Warning: failed to connect to Postgres, continuing without persistence. Error: %v", err)
		} else {
			defer pg.Close()
			if err := pg.InitSchema(context.Background()); err != nil {
				log.Printf("Warning: snapshot schema init failed: %v", err)
			}
			store = pg
		}
	case persistDir != "":
		ls, err := persistence.NewLocalStore(persistDir)
		if err != nil {
			log.Printf("Warning: failed to initialize local snapshot store, continuing without persistence. Error: %v", err)
		} else {
			store = ls
		}
	default:
		log.Println("WARNING: neither DATABASE_URL nor SNAPSHOT_DIR set — engine running without persistence")
	}

	workers := atoiOrDefault(getEnvOrDefault("WORKER_POOL_SIZE", "8"), 8)
	adminKey := requireEnv("ADMIN_KEY")

	e := engine.New(workers, store, adminKey)
	e.Start()
	defer e.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if store != nil {
		interval := time.Duration(atoiOrDefault(getEnvOrDefault("PERSIST_INTERVAL_SECONDS", "30"), 30)) * time.Second
		stop := make(chan struct{})
		defer close(stop)
		go e.RunPeriodicPersistence(ctx, interval, stop)
	}

	hub := httpapi.NewHub()
	go hub.Run()

	f := facade.New(e)
	r := httpapi.SetupRouter(f, hub)

	port := getEnvOrDefault("PORT", "8080")
	log.Printf("Engine listening on :%s\n", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// requireEnv reads a required environment variable and exits if it is not set.
func requireEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		log.Fatalf("FATAL: required environment variable %s is not set", key)
	}
	return val
}

// getEnvOrDefault returns the env var value or a safe default for non-secret settings.
func getEnvOrDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func atoiOrDefault(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}
