package blueprint

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// PrintQuota enforces per-token print limits in memory. The zero value
// (Max or Window unset) allows everything.
type PrintQuota struct {
	Max    int
	Window time.Duration
	Now    func() time.Time

	mu      sync.Mutex
	buckets map[int64]*quotaBucket
}

type quotaBucket struct {
	count   int
	resetAt time.Time
}

// Allow counts a print attempt for token and fails with KindQuota once the
// window's allowance is spent.
func (q *PrintQuota) Allow(ctx context.Context, token int64) error {
	_ = ctx
	if q == nil {
		return NewError(KindInternal, "print quota is nil", nil)
	}
	if q.Max <= 0 || q.Window <= 0 {
		return nil
	}

	now := time.Now
	if q.Now != nil {
		now = q.Now
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.buckets == nil {
		q.buckets = make(map[int64]*quotaBucket)
	}

	current := now()
	bucket := q.buckets[token]
	if bucket == nil || current.After(bucket.resetAt) {
		bucket = &quotaBucket{resetAt: current.Add(q.Window)}
		q.buckets[token] = bucket
	}

	bucket.count++
	if bucket.count > q.Max {
		return NewError(KindQuota, fmt.Sprintf("print quota exceeded for user %d", token), nil)
	}
	return nil
}
