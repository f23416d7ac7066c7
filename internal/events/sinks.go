package events

import (
	"sync"

	"go.uber.org/zap"

	"github.com/yourusername/mediafetch/internal/domain"
)

// Tee publishes every event to each of the given sinks in order. Nil sinks are skipped.
func Tee(sinks ...domain.EventSink) domain.EventSink {
	var active []domain.EventSink
	for _, s := range sinks {
		if s != nil {
			active = append(active, s)
		}
	}
	return domain.EventSinkFunc(func(event domain.DownloadEvent) {
		for _, s := range active {
			s.Publish(event)
		}
	})
}

// WithJobID stamps events with the job they belong to before passing them on
func WithJobID(sink domain.EventSink, jobID string) domain.EventSink {
	return domain.EventSinkFunc(func(event domain.DownloadEvent) {
		event.JobID = jobID
		sink.Publish(event)
	})
}

// LogSink writes each event as one structured log line
func LogSink(logger *zap.Logger) domain.EventSink {
	return domain.EventSinkFunc(func(event domain.DownloadEvent) {
		fields := []zap.Field{
			zap.String("event_id", event.ID),
			zap.String("scope", string(event.Scope)),
			zap.String("reference", event.Reference),
			zap.String("title", event.ItemTitle),
			zap.String("phase", string(event.Phase)),
		}
		if event.JobID != "" {
			fields = append(fields, zap.String("job_id", event.JobID))
		}
		if event.Collection != "" {
			fields = append(fields, zap.String("collection", event.Collection))
		}
		if event.Detail != "" {
			fields = append(fields, zap.String("detail", event.Detail))
		}

		if event.Phase == domain.PhaseFailed {
			logger.Warn("item_"+string(event.Phase), fields...)
			return
		}
		logger.Info("item_"+string(event.Phase), fields...)
	})
}

// Collector records published events in memory
type Collector struct {
	mu     sync.Mutex
	events []domain.DownloadEvent
}

// Publish records the event
func (c *Collector) Publish(event domain.DownloadEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
}

// Events returns a copy of everything recorded so far
func (c *Collector) Events() []domain.DownloadEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.DownloadEvent, len(c.events))
	copy(out, c.events)
	return out
}

// ForItem returns the phases recorded for one item title, in order
func (c *Collector) ForItem(title string) []domain.Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	var phases []domain.Phase
	for _, e := range c.events {
		if e.ItemTitle == title {
			phases = append(phases, e.Phase)
		}
	}
	return phases
}
