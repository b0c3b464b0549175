package repository

import (
	"fmt"

	"gorm.io/gorm"

	"grow-sync/internal/domain"
)

// childLink names a dependent table and the foreign-key column pointing back
// at the parent. Crop lineage (parent_crop_id) is deliberately absent: the
// parent link is an optional index lookup, not ownership, so deleting a
// parent crop leaves its descendants alive.
type childLink struct {
	table  string
	column string
}

var cascadeGraph = map[string][]childLink{
	domain.TableLocations: {
		{domain.TablePlots, "location_id"},
		{domain.TableRecords, "location_id"},
		{domain.TableObservations, "location_id"},
	},
	domain.TablePlots: {
		{domain.TableCrops, "plot_id"},
		{domain.TableRecords, "plot_id"},
		{domain.TableObservations, "plot_id"},
	},
	domain.TableCrops: {
		{domain.TableRecords, "crop_id"},
	},
	domain.TableRecords: {
		{domain.TableRecordPhotos, "record_id"},
	},
	domain.TableObservations: {
		{domain.TableObservationEntries, "observation_id"},
	},
}

type rowRef struct {
	table string
	id    string
}

// CascadeDelete removes a row and every transitive dependent, writing one
// tombstone per removed row, all stamped with the same deletedAt and all in
// one transaction. A hard delete without its tombstone would be invisible to
// peers, so a failed tombstone write fails the whole delete.
//
// Deleting an id with no live row still records the tombstone; re-deleting
// refreshes deleted_at rather than duplicating.
func CascadeDelete(db *gorm.DB, table, id, deletedAt string) ([]domain.Tombstone, error) {
	if !knownTable(table) {
		return nil, fmt.Errorf("cascade delete %s: %w", table, domain.ErrUnknownTable)
	}

	var tombstones []domain.Tombstone
	err := db.Transaction(func(tx *gorm.DB) error {
		visited := make(map[rowRef]bool)
		doomed, err := collectDependents(tx, rowRef{table, id}, visited)
		if err != nil {
			return err
		}

		// Children go first so no dependent ever references a missing parent
		// mid-transaction.
		for i := len(doomed) - 1; i >= 0; i-- {
			ref := doomed[i]
			if err := tx.Exec("DELETE FROM "+ref.table+" WHERE id = ?", ref.id).Error; err != nil {
				return fmt.Errorf("delete %s/%s: %w", ref.table, ref.id, err)
			}
			ts := domain.Tombstone{ID: ref.id, Table: ref.table, DeletedAt: deletedAt}
			if err := upsertTombstone(tx, ts); err != nil {
				return err
			}
			tombstones = append(tombstones, ts)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tombstones, nil
}

// collectDependents walks the dependency graph parent-first. The visited set
// guards against revisiting a row reachable through two paths (a record
// linked to both a plot and its location).
func collectDependents(tx *gorm.DB, ref rowRef, visited map[rowRef]bool) ([]rowRef, error) {
	if visited[ref] {
		return nil, nil
	}
	visited[ref] = true

	out := []rowRef{ref}
	for _, link := range cascadeGraph[ref.table] {
		var ids []string
		if err := tx.Table(link.table).Where(link.column+" = ?", ref.id).
			Pluck("id", &ids).Error; err != nil {
			return nil, fmt.Errorf("list %s by %s: %w", link.table, link.column, err)
		}
		for _, childID := range ids {
			children, err := collectDependents(tx, rowRef{link.table, childID}, visited)
			if err != nil {
				return nil, err
			}
			out = append(out, children...)
		}
	}
	return out, nil
}
