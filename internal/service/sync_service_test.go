package service

import (
	"path/filepath"
	"testing"

	"gorm.io/gorm"

	"grow-sync/internal/clock"
	"grow-sync/internal/domain"
	"grow-sync/internal/repository"
)

type mockNotifier struct {
	calls []notifyCall
}

type notifyCall struct {
	userID          string
	excludeDeviceID string
	rows            int
	deleted         int
}

func (m *mockNotifier) NotifyChanges(userID, excludeDeviceID string, rows, deleted int) {
	m.calls = append(m.calls, notifyCall{userID, excludeDeviceID, rows, deleted})
}

func newTestSyncService(t *testing.T) (*SyncService, *gorm.DB, *mockNotifier) {
	t.Helper()
	db, err := repository.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	notifier := &mockNotifier{}
	return NewSyncService(db, clock.New(), notifier), db, notifier
}

func pushLocation(t *testing.T, svc *SyncService, id, name, updatedAt string) {
	t.Helper()
	_, err := svc.Push("user-1", "device-a", &domain.PushRequest{Changeset: domain.Changeset{
		Locations: []domain.Location{{
			ID: id, Name: name,
			CreatedAt: updatedAt, UpdatedAt: updatedAt,
		}},
	}})
	if err != nil {
		t.Fatalf("push: %v", err)
	}
}

func TestSyncService_PullEmptySinceMeansEpoch(t *testing.T) {
	svc, _, _ := newTestSyncService(t)
	pushLocation(t, svc, "loc-1", "field", "2026-01-02T10:00:00.000000000Z")

	res, err := svc.Pull(&domain.PullRequest{Since: ""})
	if err != nil {
		t.Fatalf("pull: %v", err)
	}
	if len(res.Locations) != 1 {
		t.Errorf("locations = %d, want 1", len(res.Locations))
	}
	if res.Timestamp == "" {
		t.Error("pull response missing timestamp")
	}
}

func TestSyncService_PullStrictBoundary(t *testing.T) {
	svc, _, _ := newTestSyncService(t)
	pushLocation(t, svc, "loc-1", "field", "2026-01-02T10:00:00.000000000Z")

	// Pull with since equal to the row's stamp: already delivered, excluded.
	res, err := svc.Pull(&domain.PullRequest{Since: "2026-01-02T10:00:00.000000000Z"})
	if err != nil {
		t.Fatalf("pull: %v", err)
	}
	if len(res.Locations) != 0 {
		t.Errorf("locations = %d, want 0 at exact watermark", len(res.Locations))
	}
}

func TestSyncService_PullTimestampPrecedesConcurrentWrites(t *testing.T) {
	svc, _, _ := newTestSyncService(t)

	res, err := svc.Pull(&domain.PullRequest{Since: ""})
	if err != nil {
		t.Fatalf("pull: %v", err)
	}

	// A write stamped after the pull must fall strictly after the returned
	// timestamp, so adopting it as the next watermark cannot skip anything.
	later := svc.clock.Now()
	if later <= res.Timestamp {
		t.Errorf("later stamp %q not after pull timestamp %q", later, res.Timestamp)
	}

	pushLocation(t, svc, "loc-1", "field", later)
	next, err := svc.Pull(&domain.PullRequest{Since: res.Timestamp})
	if err != nil {
		t.Fatalf("second pull: %v", err)
	}
	if len(next.Locations) != 1 {
		t.Errorf("locations = %d, want the concurrent write in the next window", len(next.Locations))
	}
}

func TestSyncService_PullRejectsGarbageSince(t *testing.T) {
	svc, _, _ := newTestSyncService(t)

	if _, err := svc.Pull(&domain.PullRequest{Since: "last tuesday"}); err == nil {
		t.Error("expected error for unparseable since")
	}
}

func TestSyncService_PushStampsBareTombstones(t *testing.T) {
	svc, db, _ := newTestSyncService(t)

	res, err := svc.Push("user-1", "device-a", &domain.PushRequest{Changeset: domain.Changeset{
		Deleted: []domain.Tombstone{{ID: "crop-1", Table: domain.TableCrops}},
	}})
	if err != nil {
		t.Fatalf("push: %v", err)
	}
	if !res.OK {
		t.Error("push response not ok")
	}

	var ts domain.Tombstone
	if err := db.Where("id = ? AND table_name = ?", "crop-1", domain.TableCrops).
		First(&ts).Error; err != nil {
		t.Fatalf("tombstone not recorded: %v", err)
	}
	if ts.DeletedAt != res.Timestamp {
		t.Errorf("deleted_at = %q, want server timestamp %q", ts.DeletedAt, res.Timestamp)
	}
}

func TestSyncService_PushNotifiesOtherDevices(t *testing.T) {
	svc, _, notifier := newTestSyncService(t)

	pushLocation(t, svc, "loc-1", "field", "2026-01-02T10:00:00.000000000Z")

	if len(notifier.calls) != 1 {
		t.Fatalf("notifier calls = %d, want 1", len(notifier.calls))
	}
	call := notifier.calls[0]
	if call.userID != "user-1" || call.excludeDeviceID != "device-a" {
		t.Errorf("call = %+v, want user-1 excluding device-a", call)
	}
	if call.rows != 1 {
		t.Errorf("rows = %d, want 1", call.rows)
	}
}

func TestSyncService_PushWithNothingAppliedStaysQuiet(t *testing.T) {
	svc, _, notifier := newTestSyncService(t)

	pushLocation(t, svc, "loc-1", "field", "2026-01-02T11:00:00.000000000Z")
	notifier.calls = nil

	// Replaying the identical row applies nothing, so no one gets poked.
	pushLocation(t, svc, "loc-1", "field", "2026-01-02T11:00:00.000000000Z")
	if len(notifier.calls) != 0 {
		t.Errorf("notifier calls = %d, want 0 for a no-op push", len(notifier.calls))
	}
}

func TestSyncService_PushPullRoundTrip(t *testing.T) {
	svc, _, _ := newTestSyncService(t)

	before, err := svc.Pull(&domain.PullRequest{Since: ""})
	if err != nil {
		t.Fatalf("initial pull: %v", err)
	}

	stamp := svc.clock.Now()
	plotID := "plot-1"
	push := &domain.PushRequest{Changeset: domain.Changeset{
		Locations: []domain.Location{{ID: "loc-1", Name: "field", CreatedAt: stamp, UpdatedAt: stamp}},
		Plots:     []domain.Plot{{ID: plotID, LocationID: "loc-1", Name: "bed A", CreatedAt: stamp, UpdatedAt: stamp}},
	}}
	if _, err := svc.Push("user-1", "device-a", push); err != nil {
		t.Fatalf("push: %v", err)
	}

	res, err := svc.Pull(&domain.PullRequest{Since: before.Timestamp})
	if err != nil {
		t.Fatalf("pull: %v", err)
	}
	if res.RowCount() != 2 {
		t.Errorf("row count = %d, want the pushed location and plot", res.RowCount())
	}
}
