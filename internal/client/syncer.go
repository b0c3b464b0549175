package client

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"gorm.io/gorm"

	"grow-sync/internal/clock"
	"grow-sync/internal/config"
	"grow-sync/internal/domain"
	"grow-sync/internal/repository"
)

// sync_state keys for the two durable watermarks.
const (
	stateLastPulledAt = "last_pulled_at"
	stateLastPushedAt = "last_pushed_at"
)

// Syncer runs the device's sync cycle: pull remote deltas, merge them
// locally, push local deltas. Watermarks only advance after the step they
// guard fully succeeds, so a crash or failure anywhere re-fetches the same
// window next cycle and the merge rule absorbs the duplication.
type Syncer struct {
	db     *gorm.DB
	remote *Client
	state  repository.SyncStateRepository
	clock  *clock.Clock

	maxRetries  int
	backoffBase time.Duration
	backoffMax  time.Duration

	running atomic.Bool // single-flight guard
}

func NewSyncer(db *gorm.DB, remote *Client, clk *clock.Clock, cfg config.SyncConfig) *Syncer {
	return &Syncer{
		db:          db,
		remote:      remote,
		state:       repository.NewSyncStateRepository(db),
		clock:       clk,
		maxRetries:  cfg.MaxRetries,
		backoffBase: cfg.BackoffBase,
		backoffMax:  cfg.BackoffMax,
	}
}

// Sync runs one pull-merge-push cycle. A cycle already in flight returns
// domain.ErrSyncInFlight; devices never overlap cycles. A failed cycle leaves
// all watermarks where they were and is safe to rerun.
func (s *Syncer) Sync(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return domain.ErrSyncInFlight
	}
	defer s.running.Store(false)

	if err := s.pullAndMerge(ctx); err != nil {
		return fmt.Errorf("sync cycle: %w", err)
	}
	if err := s.pushLocal(ctx); err != nil {
		return fmt.Errorf("sync cycle: %w", err)
	}
	return nil
}

// Watermarks reports the device's durable sync positions.
func (s *Syncer) Watermarks() (lastPulledAt, lastPushedAt string, err error) {
	lastPulledAt, err = s.state.Get(stateLastPulledAt)
	if err != nil {
		return "", "", err
	}
	lastPushedAt, err = s.state.Get(stateLastPushedAt)
	if err != nil {
		return "", "", err
	}
	return lastPulledAt, lastPushedAt, nil
}

func (s *Syncer) pullAndMerge(ctx context.Context) error {
	since, err := s.state.Get(stateLastPulledAt)
	if err != nil {
		return err
	}
	if since == "" {
		since = clock.Epoch
	}

	var res *domain.PullResponse
	err = s.withRetry(ctx, "pull", func() error {
		var pullErr error
		res, pullErr = s.remote.Pull(ctx, since)
		return pullErr
	})
	if err != nil {
		return err
	}

	// The merge transaction is the write lock: SQLite admits one writer at a
	// time, so Tracker saves serialize against it, and WAL keeps the UI
	// reading throughout.
	applied, err := repository.ApplyChangeset(s.db, &res.Changeset)
	if err != nil {
		// Watermark untouched: the next cycle re-pulls the same window.
		return err
	}

	if err := s.state.Set(stateLastPulledAt, res.Timestamp); err != nil {
		return err
	}

	log.Printf("[sync] pulled since=%s rows=%d deleted=%d applied=%d skipped=%d",
		since, res.RowCount(), len(res.Deleted), applied.Applied, applied.Skipped)
	return nil
}

func (s *Syncer) pushLocal(ctx context.Context) error {
	lastPushed, err := s.state.Get(stateLastPushedAt)
	if err != nil {
		return err
	}
	if lastPushed == "" {
		lastPushed = clock.Epoch
	}

	// Captured before gathering: an edit that lands during the push gets a
	// strictly later stamp and falls into the next window.
	now := s.clock.Now()

	cs, err := repository.ChangesSince(s.db, lastPushed)
	if err != nil {
		return err
	}

	if !cs.Empty() {
		req := &domain.PushRequest{Changeset: *cs}
		err = s.withRetry(ctx, "push", func() error {
			_, pushErr := s.remote.Push(ctx, req)
			return pushErr
		})
		if err != nil {
			return err
		}
		log.Printf("[sync] pushed rows=%d deleted=%d", cs.RowCount(), len(cs.Deleted))
	}

	return s.state.Set(stateLastPushedAt, now)
}

// withRetry retries transient failures with bounded exponential backoff.
// An auth rejection aborts immediately; retrying without fresh credentials
// cannot succeed. Cancellation is honored between attempts.
func (s *Syncer) withRetry(ctx context.Context, op string, fn func() error) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		if errors.Is(err, domain.ErrUnauthorized) || ctx.Err() != nil {
			return err
		}
		if attempt >= s.maxRetries {
			return err
		}

		backoff := s.backoffBase << attempt
		if backoff > s.backoffMax {
			backoff = s.backoffMax
		}
		log.Printf("[sync] %s failed (attempt %d/%d), retrying in %s: %v",
			op, attempt+1, s.maxRetries, backoff, err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
}
