package blueprint

import (
	"context"
	"sort"
	"time"
)

// AuditRecord documents one authorized print: who authorized it, when, and
// with what options. Created at print time, never updated or deleted.
type AuditRecord struct {
	Timestamp time.Time    `json:"timestamp"`
	Token     int64        `json:"identity_token"`
	Identity  IdentityInfo `json:"identity_info"`
	Options   PrintOptions `json:"options"`
}

// TimestampKey returns the unique store key, unix milliseconds. Timestamps
// are expected unique at this granularity; a collision is a data-loss risk
// the store must flag, not resolve.
func (r AuditRecord) TimestampKey() int64 {
	return r.Timestamp.UnixMilli()
}

// AuditLog is the append-only print log. Append must not overwrite an
// existing timestamp (collisions return KindConflict). List order is
// unspecified; consumers sort.
type AuditLog interface {
	Append(ctx context.Context, record AuditRecord) error
	List(ctx context.Context) ([]AuditRecord, error)
}

// SortRecordsNewestFirst orders records newest first, in place.
func SortRecordsNewestFirst(records []AuditRecord) {
	sort.Slice(records, func(i, j int) bool {
		return records[i].Timestamp.After(records[j].Timestamp)
	})
}
