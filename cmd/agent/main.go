package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"grow-sync/internal/client"
	"grow-sync/internal/clock"
	"grow-sync/internal/config"
	"grow-sync/internal/domain"
	"grow-sync/internal/repository"
)

// The agent is the device-side half of the sync protocol: it owns the local
// store and runs a pull-merge-push cycle on an interval until interrupted.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if cfg.Agent.AccessToken == "" {
		log.Fatal("ACCESS_TOKEN is required; log in against the server and export the token")
	}

	db, err := repository.Open(cfg.Agent.LocalDBPath)
	if err != nil {
		log.Fatalf("Failed to open local database: %v", err)
	}

	clk := clock.New()
	remote := client.New(cfg.Agent.RemoteURL, cfg.Agent.AccessToken, cfg.Agent.DeviceID, cfg.Sync.RequestTimeout)
	syncer := client.NewSyncer(db, remote, clk, cfg.Sync)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("Starting sync agent (device: %s, remote: %s, interval: %s)",
		cfg.Agent.DeviceID, cfg.Agent.RemoteURL, cfg.Agent.SyncInterval)

	runOnce(ctx, syncer)

	ticker := time.NewTicker(cfg.Agent.SyncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Sync agent stopped")
			return
		case <-ticker.C:
			runOnce(ctx, syncer)
		}
	}
}

func runOnce(ctx context.Context, syncer *client.Syncer) {
	if err := syncer.Sync(ctx); err != nil {
		switch {
		case errors.Is(err, domain.ErrSyncInFlight):
			log.Println("Sync already in progress, skipping tick")
		case errors.Is(err, domain.ErrUnauthorized):
			log.Fatal("Access token rejected; re-authenticate and restart the agent")
		case errors.Is(err, context.Canceled):
		default:
			log.Printf("Sync failed: %v", err)
		}
	}
}
