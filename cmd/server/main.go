package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ignite/customer-intelligence/internal/api"
	"github.com/ignite/customer-intelligence/internal/cache"
	"github.com/ignite/customer-intelligence/internal/config"
	"github.com/ignite/customer-intelligence/internal/repository/postgres"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.LoadFromEnv(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if !cfg.Cache.Enabled {
		log.Fatal("The API server requires the Redis snapshot cache (cache.enabled or REDIS_ADDR)")
	}

	store := cache.New(cfg.Cache)
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := store.Ping(ctx); err != nil {
		cancel()
		log.Fatalf("Redis unreachable at %s: %v", cfg.Cache.Addr, err)
	}
	cancel()

	var runs api.RunLister
	if cfg.Postgres.Enabled {
		db, err := postgres.Open(cfg.Postgres.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to open postgres: %v", err)
		}
		defer db.Close()
		runs = postgres.NewRunRepo(db)
	}

	srv := api.NewServer(cfg.Server, store, runs)
	addr := fmt.Sprintf("%s:%d", cfg.Server.GetHost(), cfg.Server.Port)

	go func() {
		log.Printf("KPI API listening on %s", addr)
		if err := srv.ListenAndServe(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down API server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	srv.Shutdown(shutdownCtx)
}
