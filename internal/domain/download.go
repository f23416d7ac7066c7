package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Phase is a step in the lifecycle of a single item download
type Phase string

const (
	PhaseQueued      Phase = "queued"
	PhaseSkipped     Phase = "skipped"
	PhaseSizing      Phase = "sizing"
	PhaseDownloading Phase = "downloading"
	PhaseCompleted   Phase = "completed"
	PhaseFailed      Phase = "failed"
)

// IsTerminal checks if no further events follow this phase for the same item
func (p Phase) IsTerminal() bool {
	return p == PhaseSkipped || p == PhaseCompleted || p == PhaseFailed
}

// transitions lists the allowed successors of each phase.
// Failed is reachable from every non-terminal phase.
var transitions = map[Phase][]Phase{
	"":               {PhaseQueued, PhaseFailed},
	PhaseQueued:      {PhaseSkipped, PhaseSizing, PhaseFailed},
	PhaseSizing:      {PhaseDownloading, PhaseFailed},
	PhaseDownloading: {PhaseCompleted, PhaseFailed},
}

// CanTransition reports whether next may directly follow prev for one item.
// The empty phase stands for "no event emitted yet".
func CanTransition(prev, next Phase) bool {
	for _, p := range transitions[prev] {
		if p == next {
			return true
		}
	}
	return false
}

// EventScope tells whether an event concerns a single item or a whole reference
type EventScope string

const (
	ScopeItem      EventScope = "item"
	ScopeReference EventScope = "reference"
)

// DownloadEvent is a lifecycle event pushed to observers
type DownloadEvent struct {
	ID         string     `json:"id"`
	JobID      string     `json:"job_id,omitempty"`
	Scope      EventScope `json:"scope"`
	Reference  string     `json:"reference"`
	Collection string     `json:"collection,omitempty"`
	ItemTitle  string     `json:"item_title"`
	Phase      Phase      `json:"phase"`
	Detail     string     `json:"detail,omitempty"`
	Timestamp  time.Time  `json:"timestamp"`
}

// NewItemEvent creates an item-scoped event
func NewItemEvent(reference, collection, title string, phase Phase, detail string) DownloadEvent {
	return DownloadEvent{
		ID:         uuid.New().String(),
		Scope:      ScopeItem,
		Reference:  reference,
		Collection: collection,
		ItemTitle:  title,
		Phase:      phase,
		Detail:     detail,
		Timestamp:  time.Now(),
	}
}

// NewReferenceFailure creates the single Failed event reported when a reference
// itself cannot be resolved. The reference doubles as the title.
func NewReferenceFailure(reference string, err error) DownloadEvent {
	return DownloadEvent{
		ID:        uuid.New().String(),
		Scope:     ScopeReference,
		Reference: reference,
		ItemTitle: reference,
		Phase:     PhaseFailed,
		Detail:    err.Error(),
		Timestamp: time.Now(),
	}
}

// Line renders the event as a human-readable text line
func (e DownloadEvent) Line() string {
	if e.Detail == "" {
		return fmt.Sprintf("[%s] %s", e.Phase, e.ItemTitle)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Phase, e.ItemTitle, e.Detail)
}

// ItemResult is the terminal outcome of one item (or of a failed reference)
type ItemResult struct {
	Reference  string     `json:"reference"`
	Scope      EventScope `json:"scope"`
	Collection string     `json:"collection,omitempty"`
	Title      string     `json:"title"`
	Phase      Phase      `json:"phase"`
	Detail     string     `json:"detail,omitempty"`
	Path       string     `json:"path,omitempty"`
}

// BatchResult aggregates the outcome of a batch. A batch never fails as a unit
// because individual items failed.
type BatchResult struct {
	Completed  int          `json:"completed"`
	Skipped    int          `json:"skipped"`
	Failed     int          `json:"failed"`
	Rejected   []string     `json:"rejected,omitempty"`
	Items      []ItemResult `json:"items"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
}

// Add records a terminal outcome
func (r *BatchResult) Add(item ItemResult) {
	switch item.Phase {
	case PhaseCompleted:
		r.Completed++
	case PhaseSkipped:
		r.Skipped++
	case PhaseFailed:
		r.Failed++
	}
	r.Items = append(r.Items, item)
}

// Total returns the number of terminal outcomes recorded
func (r *BatchResult) Total() int {
	return r.Completed + r.Skipped + r.Failed
}
