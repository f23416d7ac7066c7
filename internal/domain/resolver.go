package domain

import (
	"context"
	"time"
)

// ItemDescriptor identifies one downloadable media item. SourceReference is
// opaque to everything but the Resolver that produced it.
type ItemDescriptor struct {
	Title           string `json:"title"`
	SourceReference string `json:"source_reference"`
}

// CollectionMetadata is an ordered, titled list of items
type CollectionMetadata struct {
	Title      string           `json:"title"`
	Items      []ItemDescriptor `json:"items"`
	ResolvedAt time.Time        `json:"resolved_at"`
}

// StreamHandle is a resolved, transferable media payload
type StreamHandle interface {
	// Size returns the payload size in bytes
	Size() int64

	// Transfer writes the whole payload to destPath, overwriting it
	Transfer(ctx context.Context, destPath string) error
}

// Resolver turns references into metadata and byte sources
type Resolver interface {
	// ResolveCollection returns ErrNotACollection for single-item references
	ResolveCollection(ctx context.Context, ref string) (*CollectionMetadata, error)

	// ResolveItem resolves a single-item reference
	ResolveItem(ctx context.Context, ref string) (*ItemDescriptor, error)

	// BestStream returns ErrNoStreamAvailable when the item has no usable encoding
	BestStream(ctx context.Context, item ItemDescriptor) (StreamHandle, error)
}

// ResolutionKind tags the variant held by a Resolution
type ResolutionKind string

const (
	ResolvedCollection ResolutionKind = "collection"
	ResolvedItem       ResolutionKind = "item"
	ResolvedError      ResolutionKind = "error"
)

// Resolution is the outcome of resolving one reference: a collection, a lone
// item or an error.
type Resolution struct {
	Kind       ResolutionKind
	Reference  string
	Collection *CollectionMetadata
	Item       *ItemDescriptor
	Err        error
}

// Title returns the folder title for the resolved reference
func (r Resolution) Title() string {
	switch r.Kind {
	case ResolvedCollection:
		return r.Collection.Title
	case ResolvedItem:
		return r.Item.Title
	default:
		return ""
	}
}

// Items returns the items to download, a singleton list for a lone item
func (r Resolution) Items() []ItemDescriptor {
	switch r.Kind {
	case ResolvedCollection:
		return r.Collection.Items
	case ResolvedItem:
		return []ItemDescriptor{*r.Item}
	default:
		return nil
	}
}

// ExistenceGate answers whether an output path is already present
type ExistenceGate interface {
	Exists(path string) bool
}

// EventSink receives lifecycle events. Publish must not block on slow observers.
type EventSink interface {
	Publish(event DownloadEvent)
}

// EventSinkFunc adapts a function to EventSink
type EventSinkFunc func(event DownloadEvent)

// Publish calls f(event)
func (f EventSinkFunc) Publish(event DownloadEvent) {
	f(event)
}
