package pipeline

import (
	"time"

	"github.com/sungwon/recipient-check/internal/collector"
)

// Correction is a suggested replacement for a submitted address.
type Correction struct {
	Original  string `json:"original"`
	Suggested string `json:"suggested"`
}

// RunResult is the outcome of one full validation run. Invalid and
// Corrections follow the order in which addresses were validated.
type RunResult struct {
	ID          string         `json:"id"`
	Recipients  collector.Sets `json:"recipients"`
	Checked     int            `json:"checked"`
	Invalid     []string       `json:"invalid"`
	Corrections []Correction   `json:"corrections"`
	StartedAt   time.Time      `json:"started_at"`
	FinishedAt  time.Time      `json:"finished_at"`
}

// AllValid reports whether no address was found invalid.
func (r *RunResult) AllValid() bool {
	return len(r.Invalid) == 0
}

// Preview is the outcome of a collection-only run.
type Preview struct {
	ID          string         `json:"id"`
	Recipients  collector.Sets `json:"recipients"`
	CollectedAt time.Time      `json:"collected_at"`
}
