package domain

import "time"

// CachedCollection is a stored copy of resolved collection metadata
type CachedCollection struct {
	Reference string    `json:"reference" gorm:"primaryKey"`
	Title     string    `json:"title" gorm:"not null"`
	Items     string    `json:"items" gorm:"type:text"` // JSON-encoded []ItemDescriptor
	CachedAt  time.Time `json:"cached_at" gorm:"index"`
}

// TableName specifies the table name for GORM
func (CachedCollection) TableName() string {
	return "collection_cache"
}

// CollectionCache stores resolved collection metadata by reference.
// Only metadata is cached; skip decisions always come from the filesystem.
type CollectionCache interface {
	// Get returns nil when nothing is cached for ref or the entry is older than maxAge
	Get(ref string, maxAge time.Duration) (*CollectionMetadata, error)

	// Put stores or replaces the metadata for ref
	Put(ref string, meta *CollectionMetadata) error

	// Purge deletes entries older than maxAge and returns how many were removed
	Purge(maxAge time.Duration) (int64, error)

	// Close releases the underlying store
	Close() error
}
