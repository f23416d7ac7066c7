package infrastructure

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/yourusername/mediafetch/internal/domain"
)

// SQLiteCollectionCache implements CollectionCache using SQLite
type SQLiteCollectionCache struct {
	db  *gorm.DB
	now func() time.Time
}

// NewSQLiteCollectionCache opens (and migrates) the cache database at dbPath
func NewSQLiteCollectionCache(dbPath string) (*SQLiteCollectionCache, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(&domain.CachedCollection{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &SQLiteCollectionCache{db: db, now: time.Now}, nil
}

// Get returns the cached metadata for ref, or nil if missing or stale
func (c *SQLiteCollectionCache) Get(ref string, maxAge time.Duration) (*domain.CollectionMetadata, error) {
	var row domain.CachedCollection
	err := c.db.Where("reference = ? AND cached_at >= ?", ref, c.now().UTC().Add(-maxAge)).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var items []domain.ItemDescriptor
	if err := json.Unmarshal([]byte(row.Items), &items); err != nil {
		return nil, fmt.Errorf("corrupt cache entry for %s: %w", ref, err)
	}

	return &domain.CollectionMetadata{
		Title:      row.Title,
		Items:      items,
		ResolvedAt: row.CachedAt,
	}, nil
}

// Put stores or replaces the metadata for ref
func (c *SQLiteCollectionCache) Put(ref string, meta *domain.CollectionMetadata) error {
	items, err := json.Marshal(meta.Items)
	if err != nil {
		return err
	}

	row := &domain.CachedCollection{
		Reference: ref,
		Title:     meta.Title,
		Items:     string(items),
		CachedAt:  c.now().UTC(),
	}
	return c.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "reference"}},
		DoUpdates: clause.AssignmentColumns([]string{"title", "items", "cached_at"}),
	}).Create(row).Error
}

// Purge deletes entries older than maxAge
func (c *SQLiteCollectionCache) Purge(maxAge time.Duration) (int64, error) {
	result := c.db.Where("cached_at < ?", c.now().UTC().Add(-maxAge)).Delete(&domain.CachedCollection{})
	return result.RowsAffected, result.Error
}

// Close closes the underlying database
func (c *SQLiteCollectionCache) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
