package repository

import (
	"fmt"

	"gorm.io/gorm"

	"grow-sync/internal/domain"
)

// ChangesSince collects every row whose updated_at is strictly after the
// watermark, across all synchronized tables, plus tombstones strictly after
// it. Rows stamped exactly at the watermark were delivered by the previous
// window. Pure read; callers retry with the same watermark on failure.
func ChangesSince(db *gorm.DB, since string) (*domain.Changeset, error) {
	cs := &domain.Changeset{}

	if err := db.Where("updated_at > ?", since).Find(&cs.Locations).Error; err != nil {
		return nil, fmt.Errorf("read locations: %w", err)
	}
	if err := db.Where("updated_at > ?", since).Find(&cs.Plots).Error; err != nil {
		return nil, fmt.Errorf("read plots: %w", err)
	}
	if err := db.Where("updated_at > ?", since).Find(&cs.Crops).Error; err != nil {
		return nil, fmt.Errorf("read crops: %w", err)
	}
	if err := db.Where("updated_at > ?", since).Find(&cs.Records).Error; err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}
	if err := db.Where("updated_at > ?", since).Find(&cs.RecordPhotos).Error; err != nil {
		return nil, fmt.Errorf("read record photos: %w", err)
	}
	if err := db.Where("updated_at > ?", since).Find(&cs.Observations).Error; err != nil {
		return nil, fmt.Errorf("read observations: %w", err)
	}
	if err := db.Where("updated_at > ?", since).Find(&cs.ObservationEntries).Error; err != nil {
		return nil, fmt.Errorf("read observation entries: %w", err)
	}
	if err := db.Where("deleted_at > ?", since).Find(&cs.Deleted).Error; err != nil {
		return nil, fmt.Errorf("read tombstones: %w", err)
	}

	return cs, nil
}
