package service

import (
	"fmt"
	"log"

	"gorm.io/gorm"

	"grow-sync/internal/clock"
	"grow-sync/internal/domain"
	"grow-sync/internal/repository"
)

// ChangeNotifier tells a user's other devices that new changes landed so they
// can pull promptly instead of waiting for their next interval. Purely
// advisory: sync correctness never depends on delivery.
type ChangeNotifier interface {
	NotifyChanges(userID, excludeDeviceID string, rows, deleted int)
}

// SyncService is the server half of the engine: consistent delta reads for
// pull, merged application for push. The merge rule lives in the repository
// layer and is the same one devices run locally, so both sides of the wire
// converge identically.
type SyncService struct {
	db       *gorm.DB
	clock    *clock.Clock
	notifier ChangeNotifier
}

func NewSyncService(db *gorm.DB, clk *clock.Clock, notifier ChangeNotifier) *SyncService {
	return &SyncService{
		db:       db,
		clock:    clk,
		notifier: notifier,
	}
}

// Pull returns every row changed strictly after the watermark plus applicable
// tombstones. The response timestamp is captured before the reads begin so
// a client adopting it as its next watermark can never skip a concurrent
// write.
func (s *SyncService) Pull(req *domain.PullRequest) (*domain.PullResponse, error) {
	since := req.Since
	if since == "" {
		since = clock.Epoch
	}
	if !clock.Valid(since) {
		return nil, fmt.Errorf("invalid since %q", since)
	}

	timestamp := s.clock.Now()

	cs, err := repository.ChangesSince(s.db, since)
	if err != nil {
		return nil, fmt.Errorf("pull since %s: %w", since, err)
	}

	return &domain.PullResponse{Changeset: *cs, Timestamp: timestamp}, nil
}

// Push merges a device's changeset into the canonical store. Application is
// one transaction; a partially-applied push never commits, and replaying the
// same push is absorbed by the merge rule. Tombstones arriving without a
// deleted_at (older clients) are stamped with the server time.
func (s *SyncService) Push(userID, deviceID string, req *domain.PushRequest) (*domain.PushResponse, error) {
	timestamp := s.clock.Now()

	for i := range req.Deleted {
		if req.Deleted[i].DeletedAt == "" {
			req.Deleted[i].DeletedAt = timestamp
		}
	}

	res, err := repository.ApplyChangeset(s.db, &req.Changeset)
	if err != nil {
		return nil, fmt.Errorf("push from device %s: %w", deviceID, err)
	}

	log.Printf("[sync] push user=%s device=%s applied=%d skipped=%d malformed=%d",
		userID, deviceID, res.Applied, res.Skipped, res.Malformed)

	if s.notifier != nil && res.Applied > 0 {
		s.notifier.NotifyChanges(userID, deviceID, req.RowCount(), len(req.Deleted))
	}

	return &domain.PushResponse{OK: true, Timestamp: timestamp}, nil
}
