package events

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/yourusername/mediafetch/internal/domain"
)

// DefaultSubscriberBuffer is used when a non-positive buffer size is configured
const DefaultSubscriberBuffer = 256

var ErrBroadcasterClosed = errors.New("broadcaster closed")

// Subscription is one observer's registration with a Broadcaster
type Subscription struct {
	ch     chan domain.DownloadEvent
	b      *Broadcaster
	closed bool // guarded by b.mu
}

// Events returns the channel events are delivered on. It is closed when the
// subscription is closed or evicted.
func (s *Subscription) Events() <-chan domain.DownloadEvent {
	return s.ch
}

// Close idempotently removes the subscription from its broadcaster
func (s *Subscription) Close() {
	s.b.remove(s)
}

// Broadcaster is an EventSink that fans events out to a dynamic set of
// subscribers. Each subscriber has a bounded buffer; Publish never blocks and
// a subscriber that falls a full buffer behind is evicted.
type Broadcaster struct {
	mu          sync.Mutex
	subscribers map[*Subscription]struct{}
	bufSize     int
	closed      bool
	logger      *zap.Logger
}

// NewBroadcaster creates a broadcaster with the given per-subscriber buffer
func NewBroadcaster(bufSize int, logger *zap.Logger) *Broadcaster {
	if bufSize <= 0 {
		bufSize = DefaultSubscriberBuffer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Broadcaster{
		subscribers: make(map[*Subscription]struct{}),
		bufSize:     bufSize,
		logger:      logger,
	}
}

// Subscribe registers a new observer
func (b *Broadcaster) Subscribe() (*Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrBroadcasterClosed
	}

	s := &Subscription{
		ch: make(chan domain.DownloadEvent, b.bufSize),
		b:  b,
	}
	b.subscribers[s] = struct{}{}
	return s, nil
}

// Publish delivers the event to every subscriber without blocking
func (b *Broadcaster) Publish(event domain.DownloadEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for s := range b.subscribers {
		select {
		case s.ch <- event:
		default:
			b.logger.Warn("Evicting slow event subscriber",
				zap.Int("buffer", b.bufSize),
				zap.String("event_id", event.ID))
			b.closeLocked(s)
		}
	}
}

// Count returns the number of connected subscribers
func (b *Broadcaster) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subscribers)
}

// Close closes every subscription; later Subscribe calls fail
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	for s := range b.subscribers {
		b.closeLocked(s)
	}
	b.closed = true
}

func (b *Broadcaster) remove(s *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closeLocked(s)
}

func (b *Broadcaster) closeLocked(s *Subscription) {
	if s.closed {
		return
	}
	delete(b.subscribers, s)
	close(s.ch)
	s.closed = true
}
