package history

import (
	"context"
	"time"
)

// Count is the number of documents exported from one collection.
type Count struct {
	Collection string `json:"collection"`
	Documents  int    `json:"documents"`
}

// Run describes a completed export.
type Run struct {
	Kind       string    `json:"kind"`
	File       string    `json:"file"`
	Counts     []Count   `json:"counts"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
	Uploaded   string    `json:"uploaded,omitempty"`
}

// Total returns the number of documents across all collections.
func (r Run) Total() int {
	n := 0
	for _, c := range r.Counts {
		n += c.Documents
	}
	return n
}

// Recorder persists completed runs.
type Recorder interface {
	Record(ctx context.Context, run Run) error
}
