package domain

// The seven synchronized tables plus the tombstone table. Column names and
// table names mirror the mobile client's SQLite schema; every timestamp is a
// fixed-width ISO-8601 UTC string so that string comparison is time
// comparison.

const (
	TableLocations          = "locations"
	TablePlots              = "plots"
	TableCrops              = "crops"
	TableRecords            = "records"
	TableRecordPhotos       = "record_photos"
	TableObservations       = "observations"
	TableObservationEntries = "observation_entries"
)

// TableOrder lists the synced tables in dependency order: parents before
// dependents. Upserts apply in this order, deletions in reverse.
var TableOrder = []string{
	TableLocations,
	TablePlots,
	TableCrops,
	TableRecords,
	TableRecordPhotos,
	TableObservations,
	TableObservationEntries,
}

// Row is implemented by every synchronized entity.
type Row interface {
	RowID() string
	RowUpdatedAt() string
}

// Location is a physical growing site.
type Location struct {
	ID              string   `json:"id" gorm:"primaryKey;size:36"`
	Name            string   `json:"name" gorm:"size:200"`
	Description     string   `json:"description"`
	EnvironmentType int      `json:"environment_type"`
	Latitude        *float64 `json:"latitude"`
	Longitude       *float64 `json:"longitude"`
	CreatedAt       string   `json:"created_at"`
	UpdatedAt       string   `json:"updated_at" gorm:"index"`
}

func (Location) TableName() string      { return TableLocations }
func (l Location) RowID() string        { return l.ID }
func (l Location) RowUpdatedAt() string { return l.UpdatedAt }

// Plot is a sub-area within a Location.
type Plot struct {
	ID         string `json:"id" gorm:"primaryKey;size:36"`
	LocationID string `json:"location_id" gorm:"size:36;index"`
	Name       string `json:"name" gorm:"size:200"`
	CoverType  int    `json:"cover_type"`
	SoilType   int    `json:"soil_type"`
	Memo       string `json:"memo"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at" gorm:"index"`
}

func (Plot) TableName() string      { return TablePlots }
func (p Plot) RowID() string        { return p.ID }
func (p Plot) RowUpdatedAt() string { return p.UpdatedAt }

// Crop is one cultivation instance. ParentCropID links propagation or ratoon
// lineage to an earlier crop; it is an index lookup, never an owning
// reference, so lineage cycles cannot recurse.
type Crop struct {
	ID              string  `json:"id" gorm:"primaryKey;size:36"`
	CultivationName string  `json:"cultivation_name" gorm:"size:200"`
	Name            string  `json:"name" gorm:"size:200"`
	Variety         string  `json:"variety" gorm:"size:200"`
	PlotID          *string `json:"plot_id" gorm:"size:36;index"`
	ParentCropID    *string `json:"parent_crop_id" gorm:"size:36"`
	Memo            string  `json:"memo"`
	StartDate       string  `json:"start_date"`
	CreatedAt       string  `json:"created_at"`
	UpdatedAt       string  `json:"updated_at" gorm:"index"`
}

func (Crop) TableName() string      { return TableCrops }
func (c Crop) RowID() string        { return c.ID }
func (c Crop) RowUpdatedAt() string { return c.UpdatedAt }

// Record is a logged activity. Exactly one of CropID, LocationID, PlotID is
// set by convention; the schema does not enforce it.
type Record struct {
	ID           string  `json:"id" gorm:"primaryKey;size:36"`
	CropID       *string `json:"crop_id" gorm:"size:36;index"`
	LocationID   *string `json:"location_id" gorm:"size:36"`
	PlotID       *string `json:"plot_id" gorm:"size:36"`
	ActivityType int     `json:"activity_type"`
	Date         string  `json:"date"`
	Note         string  `json:"note"`
	CreatedAt    string  `json:"created_at"`
	UpdatedAt    string  `json:"updated_at" gorm:"index"`
}

func (Record) TableName() string      { return TableRecords }
func (r Record) RowID() string        { return r.ID }
func (r Record) RowUpdatedAt() string { return r.UpdatedAt }

// RecordPhoto attaches a photo to a Record. FilePath is the device-local
// path; R2Key is the key in remote object storage once uploaded. The sync
// engine transports the key only, never the bytes.
type RecordPhoto struct {
	ID        string  `json:"id" gorm:"primaryKey;size:36"`
	RecordID  string  `json:"record_id" gorm:"size:36;index"`
	FilePath  string  `json:"file_path" gorm:"size:500"`
	R2Key     *string `json:"r2_key" gorm:"size:500"`
	SortOrder int     `json:"sort_order"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at" gorm:"index"`
}

func (RecordPhoto) TableName() string      { return TableRecordPhotos }
func (p RecordPhoto) RowID() string        { return p.ID }
func (p RecordPhoto) RowUpdatedAt() string { return p.UpdatedAt }

// Observation is an environmental measurement event (climate, soil, water).
type Observation struct {
	ID         string  `json:"id" gorm:"primaryKey;size:36"`
	LocationID *string `json:"location_id" gorm:"size:36"`
	PlotID     *string `json:"plot_id" gorm:"size:36"`
	Category   int     `json:"category"`
	Date       string  `json:"date"`
	Memo       string  `json:"memo"`
	CreatedAt  string  `json:"created_at"`
	UpdatedAt  string  `json:"updated_at" gorm:"index"`
}

func (Observation) TableName() string      { return TableObservations }
func (o Observation) RowID() string        { return o.ID }
func (o Observation) RowUpdatedAt() string { return o.UpdatedAt }

// ObservationEntry is one measured value within an Observation. The original
// schema gives this table no created_at column.
type ObservationEntry struct {
	ID            string  `json:"id" gorm:"primaryKey;size:36"`
	ObservationID string  `json:"observation_id" gorm:"size:36;index"`
	Key           string  `json:"key" gorm:"size:100"`
	Value         float64 `json:"value"`
	Unit          string  `json:"unit" gorm:"size:20"`
	UpdatedAt     string  `json:"updated_at" gorm:"index"`
}

func (ObservationEntry) TableName() string      { return TableObservationEntries }
func (e ObservationEntry) RowID() string        { return e.ID }
func (e ObservationEntry) RowUpdatedAt() string { return e.UpdatedAt }

// Tombstone records a deletion. One per (id, table_name); re-deleting the
// same id refreshes DeletedAt. Tombstones are the only deletion signal that
// crosses the sync boundary. The Table field maps to the table_name column;
// it cannot share the name of the TableName method gorm uses for mapping.
type Tombstone struct {
	ID        string `json:"id" gorm:"primaryKey;size:36"`
	Table     string `json:"table_name" gorm:"primaryKey;column:table_name;size:40"`
	DeletedAt string `json:"deleted_at,omitempty"`
}

func (Tombstone) TableName() string { return "deleted_records" }
