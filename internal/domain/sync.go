package domain

// Changeset is one batch of row changes plus deletions, grouped per table.
// It is the payload of a push request and the bulk of a pull response.
type Changeset struct {
	Locations          []Location         `json:"locations"`
	Plots              []Plot             `json:"plots"`
	Crops              []Crop             `json:"crops"`
	Records            []Record           `json:"records"`
	RecordPhotos       []RecordPhoto      `json:"record_photos"`
	Observations       []Observation      `json:"observations"`
	ObservationEntries []ObservationEntry `json:"observation_entries"`
	Deleted            []Tombstone        `json:"deleted"`
}

// Empty reports whether the changeset carries no rows and no deletions.
func (c *Changeset) Empty() bool {
	return len(c.Locations) == 0 &&
		len(c.Plots) == 0 &&
		len(c.Crops) == 0 &&
		len(c.Records) == 0 &&
		len(c.RecordPhotos) == 0 &&
		len(c.Observations) == 0 &&
		len(c.ObservationEntries) == 0 &&
		len(c.Deleted) == 0
}

// RowCount counts live rows across all tables, excluding deletions.
func (c *Changeset) RowCount() int {
	return len(c.Locations) +
		len(c.Plots) +
		len(c.Crops) +
		len(c.Records) +
		len(c.RecordPhotos) +
		len(c.Observations) +
		len(c.ObservationEntries)
}

// PullRequest asks for changes strictly after Since. An empty Since means
// epoch: a fresh device pulling its entire dataset.
type PullRequest struct {
	Since string `json:"since"`
}

// PullResponse carries every row changed strictly after the requested
// watermark, the applicable tombstones, and the server timestamp captured
// before the reads began. The caller adopts Timestamp as its new watermark
// only after applying everything locally.
type PullResponse struct {
	Changeset
	Timestamp string `json:"timestamp"`
}

type PushRequest struct {
	Changeset
}

type PushResponse struct {
	OK        bool   `json:"ok"`
	Timestamp string `json:"timestamp"`
}
