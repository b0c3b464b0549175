package client

import (
	"errors"
	"path/filepath"
	"testing"

	"gorm.io/gorm"

	"grow-sync/internal/clock"
	"grow-sync/internal/domain"
	"grow-sync/internal/repository"
)

func openLocalDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	db, err := repository.Open(filepath.Join(t.TempDir(), name))
	if err != nil {
		t.Fatalf("open local db: %v", err)
	}
	return db
}

func TestTracker_SaveAssignsIdentityAndStamps(t *testing.T) {
	db := openLocalDB(t, "local.db")
	tracker := NewTracker(db, clock.New())

	loc := &domain.Location{Name: "greenhouse"}
	if err := tracker.SaveLocation(loc); err != nil {
		t.Fatalf("save: %v", err)
	}

	if loc.ID == "" {
		t.Error("id not assigned")
	}
	if loc.CreatedAt == "" || loc.UpdatedAt == "" {
		t.Errorf("stamps not assigned: created=%q updated=%q", loc.CreatedAt, loc.UpdatedAt)
	}
	if !clock.Valid(loc.UpdatedAt) {
		t.Errorf("updated_at %q not a valid stamp", loc.UpdatedAt)
	}

	var got domain.Location
	if err := db.Where("id = ?", loc.ID).First(&got).Error; err != nil {
		t.Fatalf("row not persisted: %v", err)
	}
}

func TestTracker_EditBumpsUpdatedAtOnly(t *testing.T) {
	db := openLocalDB(t, "local.db")
	tracker := NewTracker(db, clock.New())

	loc := &domain.Location{Name: "greenhouse"}
	if err := tracker.SaveLocation(loc); err != nil {
		t.Fatalf("save: %v", err)
	}
	created, updated := loc.CreatedAt, loc.UpdatedAt

	loc.Name = "greenhouse 2"
	if err := tracker.SaveLocation(loc); err != nil {
		t.Fatalf("second save: %v", err)
	}

	if loc.CreatedAt != created {
		t.Errorf("created_at changed on edit: %q -> %q", created, loc.CreatedAt)
	}
	if loc.UpdatedAt <= updated {
		t.Errorf("updated_at %q not after previous %q", loc.UpdatedAt, updated)
	}
}

func TestTracker_SaveDefaultsDateFields(t *testing.T) {
	db := openLocalDB(t, "local.db")
	tracker := NewTracker(db, clock.New())

	crop := &domain.Crop{Name: "tomato"}
	if err := tracker.SaveCrop(crop); err != nil {
		t.Fatalf("save crop: %v", err)
	}
	if crop.StartDate == "" {
		t.Error("start_date not defaulted")
	}

	rec := &domain.Record{CropID: &crop.ID, ActivityType: 2}
	if err := tracker.SaveRecord(rec); err != nil {
		t.Fatalf("save record: %v", err)
	}
	if rec.Date == "" {
		t.Error("record date not defaulted")
	}
}

func TestTracker_DeleteCascadesAndRecordsTombstones(t *testing.T) {
	db := openLocalDB(t, "local.db")
	tracker := NewTracker(db, clock.New())

	rec := &domain.Record{Note: "watered"}
	if err := tracker.SaveRecord(rec); err != nil {
		t.Fatalf("save record: %v", err)
	}
	photo := &domain.RecordPhoto{RecordID: rec.ID, FilePath: "a.jpg"}
	if err := tracker.SaveRecordPhoto(photo); err != nil {
		t.Fatalf("save photo: %v", err)
	}

	tombstones, err := tracker.Delete(domain.TableRecords, rec.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(tombstones) != 2 {
		t.Errorf("tombstones = %d, want record and photo", len(tombstones))
	}

	var gone domain.RecordPhoto
	err = db.Where("id = ?", photo.ID).First(&gone).Error
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("photo still present after cascade: %v", err)
	}
}

func TestTracker_SaveAfterDeleteResurrects(t *testing.T) {
	db := openLocalDB(t, "local.db")
	tracker := NewTracker(db, clock.New())

	loc := &domain.Location{Name: "field"}
	if err := tracker.SaveLocation(loc); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := tracker.Delete(domain.TableLocations, loc.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if err := tracker.SaveLocation(loc); err != nil {
		t.Fatalf("resave: %v", err)
	}

	var count int64
	db.Model(&domain.Tombstone{}).Where("id = ?", loc.ID).Count(&count)
	if count != 0 {
		t.Error("tombstone survived a resurrecting save")
	}
	var got domain.Location
	if err := db.Where("id = ?", loc.ID).First(&got).Error; err != nil {
		t.Fatalf("row not restored: %v", err)
	}
}
