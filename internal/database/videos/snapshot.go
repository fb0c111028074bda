package videos

import (
	"iter"
	"time"

	"github.com/jgesser/mobilecloud-15/internal/entities"
)

// Snapshot holds the result of one Query. It is read-only and never reflects
// writes made after the query ran; callers re-query after a ReplaceAll.
// Every sequence it returns can be ranged over any number of times.
type Snapshot struct {
	rows       []entities.Video
	projection Projection
	takenAt    time.Time
}

func newSnapshot(rows []entities.Video, projection Projection) *Snapshot {
	return &Snapshot{
		rows:       rows,
		projection: projection,
		takenAt:    time.Now(),
	}
}

// Len returns the number of rows in the snapshot.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.rows)
}

// TakenAt returns when the snapshot was read.
func (s *Snapshot) TakenAt() time.Time {
	return s.takenAt
}

// Projection returns the projection the snapshot was queried with. Rows of a
// summary snapshot carry only ID and Title.
func (s *Snapshot) Projection() Projection {
	return s.projection
}

// Rows yields the cached rows in id order.
func (s *Snapshot) Rows() iter.Seq[entities.Video] {
	return func(yield func(entities.Video) bool) {
		if s == nil {
			return
		}
		for _, row := range s.rows {
			if !yield(row) {
				return
			}
		}
	}
}

// Summaries yields the id/title projection of each row.
func (s *Snapshot) Summaries() iter.Seq[entities.VideoSummary] {
	return func(yield func(entities.VideoSummary) bool) {
		if s == nil {
			return
		}
		for _, row := range s.rows {
			if !yield(entities.VideoSummary{ID: row.ID, Title: row.Title}) {
				return
			}
		}
	}
}

// IDs returns the ids of all rows in the snapshot.
func (s *Snapshot) IDs() []int64 {
	ids := make([]int64, 0, s.Len())
	for row := range s.Rows() {
		ids = append(ids, row.ID)
	}
	return ids
}
