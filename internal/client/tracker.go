package client

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"grow-sync/internal/clock"
	"grow-sync/internal/domain"
	"grow-sync/internal/repository"
)

// Tracker is the only write path the device UI uses against the local store.
// Every save stamps a fresh monotone updated_at so the change is visible to
// the next push window, and every delete goes through the cascade/tombstone
// path. Hard deletes that bypass the Tracker would be invisible to peers.
type Tracker struct {
	db    *gorm.DB
	clock *clock.Clock
}

func NewTracker(db *gorm.DB, clk *clock.Clock) *Tracker {
	return &Tracker{db: db, clock: clk}
}

func (t *Tracker) SaveLocation(l *domain.Location) error {
	now := t.stamp(&l.ID, &l.CreatedAt)
	l.UpdatedAt = now
	return t.save(domain.TableLocations, l.ID, l)
}

func (t *Tracker) SavePlot(p *domain.Plot) error {
	now := t.stamp(&p.ID, &p.CreatedAt)
	p.UpdatedAt = now
	return t.save(domain.TablePlots, p.ID, p)
}

func (t *Tracker) SaveCrop(c *domain.Crop) error {
	now := t.stamp(&c.ID, &c.CreatedAt)
	if c.StartDate == "" {
		c.StartDate = now
	}
	c.UpdatedAt = now
	return t.save(domain.TableCrops, c.ID, c)
}

func (t *Tracker) SaveRecord(r *domain.Record) error {
	now := t.stamp(&r.ID, &r.CreatedAt)
	if r.Date == "" {
		r.Date = now
	}
	r.UpdatedAt = now
	return t.save(domain.TableRecords, r.ID, r)
}

func (t *Tracker) SaveRecordPhoto(p *domain.RecordPhoto) error {
	now := t.stamp(&p.ID, &p.CreatedAt)
	p.UpdatedAt = now
	return t.save(domain.TableRecordPhotos, p.ID, p)
}

func (t *Tracker) SaveObservation(o *domain.Observation) error {
	now := t.stamp(&o.ID, &o.CreatedAt)
	if o.Date == "" {
		o.Date = now
	}
	o.UpdatedAt = now
	return t.save(domain.TableObservations, o.ID, o)
}

func (t *Tracker) SaveObservationEntry(e *domain.ObservationEntry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	e.UpdatedAt = t.clock.Now()
	return t.save(domain.TableObservationEntries, e.ID, e)
}

// Delete removes a row and its transitive dependents, recording tombstones
// for each. Returns the tombstones written.
func (t *Tracker) Delete(table, id string) ([]domain.Tombstone, error) {
	tombstones, err := repository.CascadeDelete(t.db, table, id, t.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("tracked delete %s/%s: %w", table, id, err)
	}
	return tombstones, nil
}

// stamp assigns an id for new rows and fills created_at on first save.
func (t *Tracker) stamp(id, createdAt *string) string {
	now := t.clock.Now()
	if *id == "" {
		*id = uuid.New().String()
	}
	if *createdAt == "" {
		*createdAt = now
	}
	return now
}

// save upserts the row and clears any tombstone for it: a local edit after a
// deletion resurrects the row, and the resurrection propagates because the
// fresh updated_at postdates the tombstone.
func (t *Tracker) save(table, id string, row interface{}) error {
	err := t.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND table_name = ?", id, table).
			Delete(&domain.Tombstone{}).Error; err != nil {
			return err
		}
		return tx.Save(row).Error
	})
	if err != nil {
		return fmt.Errorf("tracked save %s/%s: %w", table, id, err)
	}
	return nil
}
