package blueprint

import (
	"context"
	"fmt"
	"sync"
)

// MemoryRenderCache keeps rendered artifacts in memory for the lifetime of
// the current source file. The key space is bounded by the panel's discrete
// option combinations, so there is no eviction beyond Clear.
type MemoryRenderCache struct {
	mu      sync.RWMutex
	entries map[string]RenderedImage
}

// NewMemoryRenderCache creates an empty render cache.
func NewMemoryRenderCache() *MemoryRenderCache {
	return &MemoryRenderCache{entries: make(map[string]RenderedImage)}
}

// Get returns the last-known artifact for the key.
func (c *MemoryRenderCache) Get(key string) (RenderedImage, bool) {
	c.mu.RLock()
	img, ok := c.entries[key]
	c.mu.RUnlock()
	return img, ok
}

// Put stores an artifact, overwriting unconditionally.
func (c *MemoryRenderCache) Put(key string, img RenderedImage) {
	c.mu.Lock()
	c.entries[key] = img
	c.mu.Unlock()
}

// Clear drops every entry. Called on new-file load, and only then.
func (c *MemoryRenderCache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]RenderedImage)
	c.mu.Unlock()
}

// Len returns the number of cached artifacts.
func (c *MemoryRenderCache) Len() int {
	c.mu.RLock()
	n := len(c.entries)
	c.mu.RUnlock()
	return n
}

// MemoryAuditLog stores print records in memory (test/dev only).
type MemoryAuditLog struct {
	mu      sync.RWMutex
	records map[int64]AuditRecord
}

// NewMemoryAuditLog creates an in-memory audit log.
func NewMemoryAuditLog() *MemoryAuditLog {
	return &MemoryAuditLog{records: make(map[int64]AuditRecord)}
}

// Append persists a record by its timestamp key. An existing key is a
// collision and fails, never overwrites.
func (l *MemoryAuditLog) Append(ctx context.Context, record AuditRecord) error {
	_ = ctx
	if record.Timestamp.IsZero() {
		return NewError(KindValidation, "audit record timestamp is required", nil)
	}
	key := record.TimestampKey()

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.records[key]; ok {
		return NewError(KindConflict, fmt.Sprintf("print record at %d already exists", key), nil)
	}
	l.records[key] = record
	return nil
}

// List returns all records in unspecified order.
func (l *MemoryAuditLog) List(ctx context.Context) ([]AuditRecord, error) {
	_ = ctx
	l.mu.RLock()
	result := make([]AuditRecord, 0, len(l.records))
	for _, record := range l.records {
		result = append(result, record)
	}
	l.mu.RUnlock()
	return result, nil
}
