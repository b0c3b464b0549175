package repository

import (
	"errors"
	"fmt"
	"log"
	"sort"

	"gorm.io/gorm"

	"grow-sync/internal/clock"
	"grow-sync/internal/domain"
)

// ApplyResult summarizes one merge pass. Skipped counts rows and tombstones
// discarded by the last-writer-wins rule; Malformed counts rows dropped for
// missing ids or unparseable timestamps.
type ApplyResult struct {
	Applied   int
	Skipped   int
	Malformed int
}

// ApplyChangeset merges a changeset into the store inside a single
// transaction: upserts in parent-first table order, then tombstones in
// reverse order. The merge rule is identical on both sides of the wire, and
// idempotent: re-applying the same changeset is a no-op.
//
// A malformed row is logged and skipped; it never aborts the batch. Storage
// failures roll the whole transaction back so a retried push or merge starts
// clean.
func ApplyChangeset(db *gorm.DB, cs *domain.Changeset) (*ApplyResult, error) {
	res := &ApplyResult{}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := mergeRows(tx, domain.TableLocations, cs.Locations, res); err != nil {
			return err
		}
		if err := mergeRows(tx, domain.TablePlots, cs.Plots, res); err != nil {
			return err
		}
		if err := mergeRows(tx, domain.TableCrops, cs.Crops, res); err != nil {
			return err
		}
		if err := mergeRows(tx, domain.TableRecords, cs.Records, res); err != nil {
			return err
		}
		if err := mergeRows(tx, domain.TableRecordPhotos, cs.RecordPhotos, res); err != nil {
			return err
		}
		if err := mergeRows(tx, domain.TableObservations, cs.Observations, res); err != nil {
			return err
		}
		if err := mergeRows(tx, domain.TableObservationEntries, cs.ObservationEntries, res); err != nil {
			return err
		}

		for _, ts := range sortTombstones(cs.Deleted) {
			applied, err := applyTombstone(tx, ts)
			if err != nil {
				var malformed *domain.MalformedRowError
				if errors.As(err, &malformed) {
					log.Printf("[merge] skipping tombstone: %v", malformed)
					res.Malformed++
					continue
				}
				return err
			}
			if applied {
				res.Applied++
			} else {
				res.Skipped++
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("apply changeset: %w", err)
	}
	return res, nil
}

// mergeRows applies the last-writer-wins rule to each incoming row of one
// table.
func mergeRows[T domain.Row](tx *gorm.DB, table string, rows []T, res *ApplyResult) error {
	for _, row := range rows {
		applied, err := mergeRow(tx, table, row)
		if err != nil {
			var malformed *domain.MalformedRowError
			if errors.As(err, &malformed) {
				log.Printf("[merge] skipping row: %v", malformed)
				res.Malformed++
				continue
			}
			return err
		}
		if applied {
			res.Applied++
		} else {
			res.Skipped++
		}
	}
	return nil
}

// mergeRow decides whether one incoming row lands:
//
//   - no local row with the same id: insert, unless a tombstone at least as
//     new as the row suppresses it;
//   - local row exists: overwrite every column only when the incoming
//     updated_at is strictly greater, otherwise discard the incoming row;
//   - an incoming row strictly newer than a matching tombstone removes the
//     tombstone and resurrects the row.
func mergeRow[T domain.Row](tx *gorm.DB, table string, incoming T) (bool, error) {
	if incoming.RowID() == "" {
		return false, &domain.MalformedRowError{Table: table, Reason: "empty id"}
	}
	if !clock.Valid(incoming.RowUpdatedAt()) {
		return false, &domain.MalformedRowError{
			Table: table, ID: incoming.RowID(),
			Reason: fmt.Sprintf("bad updated_at %q", incoming.RowUpdatedAt()),
		}
	}

	var ts domain.Tombstone
	err := tx.Where("id = ? AND table_name = ?", incoming.RowID(), table).First(&ts).Error
	switch {
	case err == nil:
		if incoming.RowUpdatedAt() <= ts.DeletedAt {
			// Deleted at least as recently as this version was written.
			return false, nil
		}
		// Edited after deletion: the row resurrects and the tombstone goes.
		if err := tx.Where("id = ? AND table_name = ?", incoming.RowID(), table).
			Delete(&domain.Tombstone{}).Error; err != nil {
			return false, fmt.Errorf("clear tombstone %s/%s: %w", table, incoming.RowID(), err)
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		// no tombstone
	default:
		return false, fmt.Errorf("lookup tombstone %s/%s: %w", table, incoming.RowID(), err)
	}

	var existing T
	err = tx.Where("id = ?", incoming.RowID()).First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := tx.Create(&incoming).Error; err != nil {
			return false, fmt.Errorf("insert into %s: %w", table, err)
		}
		return true, nil
	case err != nil:
		return false, fmt.Errorf("lookup %s/%s: %w", table, incoming.RowID(), err)
	}

	if incoming.RowUpdatedAt() > existing.RowUpdatedAt() {
		if err := tx.Save(&incoming).Error; err != nil {
			return false, fmt.Errorf("overwrite %s/%s: %w", table, incoming.RowID(), err)
		}
		return true, nil
	}
	return false, nil
}

// applyTombstone deletes the named row when the tombstone is at least as new
// as the row's updated_at and records the tombstone. A strictly newer local
// row survives and the tombstone is discarded entirely, so the surviving edit
// re-propagates on the next push.
func applyTombstone(tx *gorm.DB, ts domain.Tombstone) (bool, error) {
	if ts.ID == "" {
		return false, &domain.MalformedRowError{Table: ts.Table, Reason: "empty id"}
	}
	if !knownTable(ts.Table) {
		return false, &domain.MalformedRowError{
			Table: ts.Table, ID: ts.ID, Reason: domain.ErrUnknownTable.Error(),
		}
	}
	if !clock.Valid(ts.DeletedAt) {
		return false, &domain.MalformedRowError{
			Table: ts.Table, ID: ts.ID,
			Reason: fmt.Sprintf("bad deleted_at %q", ts.DeletedAt),
		}
	}

	var row struct{ UpdatedAt string }
	found := tx.Table(ts.Table).Select("updated_at").Where("id = ?", ts.ID).Scan(&row)
	if found.Error != nil {
		return false, fmt.Errorf("lookup %s/%s: %w", ts.Table, ts.ID, found.Error)
	}
	if found.RowsAffected > 0 && row.UpdatedAt > ts.DeletedAt {
		// Local edit postdates the deletion; the row wins.
		return false, nil
	}

	if found.RowsAffected > 0 {
		if err := tx.Exec("DELETE FROM "+ts.Table+" WHERE id = ?", ts.ID).Error; err != nil {
			return false, fmt.Errorf("delete %s/%s: %w", ts.Table, ts.ID, err)
		}
	}
	if err := upsertTombstone(tx, ts); err != nil {
		return false, err
	}
	return true, nil
}

// upsertTombstone records a deletion, keeping the newest deleted_at when the
// same (id, table) is deleted again.
func upsertTombstone(tx *gorm.DB, ts domain.Tombstone) error {
	var existing domain.Tombstone
	err := tx.Where("id = ? AND table_name = ?", ts.ID, ts.Table).First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := tx.Create(&ts).Error; err != nil {
			return fmt.Errorf("insert tombstone %s/%s: %w", ts.Table, ts.ID, err)
		}
	case err != nil:
		return fmt.Errorf("lookup tombstone %s/%s: %w", ts.Table, ts.ID, err)
	case ts.DeletedAt > existing.DeletedAt:
		if err := tx.Model(&domain.Tombstone{}).
			Where("id = ? AND table_name = ?", ts.ID, ts.Table).
			Update("deleted_at", ts.DeletedAt).Error; err != nil {
			return fmt.Errorf("refresh tombstone %s/%s: %w", ts.Table, ts.ID, err)
		}
	}
	return nil
}

var tableRank = func() map[string]int {
	m := make(map[string]int, len(domain.TableOrder))
	for i, name := range domain.TableOrder {
		m[name] = i
	}
	return m
}()

func knownTable(name string) bool {
	_, ok := tableRank[name]
	return ok
}

// sortTombstones orders deletions child-first so a dependent row is gone
// before its parent. Unknown tables sort last and are rejected per-item.
func sortTombstones(deleted []domain.Tombstone) []domain.Tombstone {
	sorted := make([]domain.Tombstone, len(deleted))
	copy(sorted, deleted)
	sort.SliceStable(sorted, func(i, j int) bool {
		ri, ok := tableRank[sorted[i].Table]
		if !ok {
			ri = -1
		}
		rj, ok := tableRank[sorted[j].Table]
		if !ok {
			rj = -1
		}
		return ri > rj
	})
	return sorted
}
