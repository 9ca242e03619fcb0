package blueprint

import (
	"context"
	"sort"
	"time"
)

// RetentionRule defines a TTL override for matching artifacts.
type RetentionRule struct {
	Class       ArtifactClass
	ContentType string
	TTL         time.Duration
}

// RetentionRules configures TTL lookups for stored artifacts. A zero TTL
// means keep forever.
type RetentionRules struct {
	DefaultTTL    time.Duration
	ByClass       map[ArtifactClass]time.Duration
	ByContentType map[string]time.Duration
	Rules         []RetentionRule
}

// TTL returns the retention period for the given artifact.
func (r RetentionRules) TTL(ref ArtifactRef) time.Duration {
	if ttl, ok := matchRetentionRules(r.Rules, ref.Class, ref.ContentType); ok {
		return ttl
	}
	if ttl, ok := r.ByClass[ref.Class]; ok {
		return ttl
	}
	if ttl, ok := r.ByContentType[ref.ContentType]; ok {
		return ttl
	}
	return r.DefaultTTL
}

// Expired reports whether the artifact has outlived its TTL at now.
func (r RetentionRules) Expired(ref ArtifactRef, now time.Time) bool {
	ttl := r.TTL(ref)
	if ttl <= 0 {
		return false
	}
	return now.After(ref.CreatedAt.Add(ttl))
}

// SweepArtifacts deletes expired artifacts from the store and returns the
// refs it removed. Delete failures stop the sweep.
func SweepArtifacts(ctx context.Context, store ArtifactStore, rules RetentionRules, now time.Time) ([]ArtifactRef, error) {
	if store == nil {
		return nil, NewError(KindInternal, "artifact store is nil", nil)
	}

	refs, err := store.List(ctx)
	if err != nil {
		return nil, err
	}

	var removed []ArtifactRef
	for _, ref := range refs {
		if !rules.Expired(ref, now) {
			continue
		}
		if err := store.Delete(ctx, ref.Key); err != nil {
			return removed, err
		}
		removed = append(removed, ref)
	}
	return removed, nil
}

func matchRetentionRules(rules []RetentionRule, class ArtifactClass, contentType string) (time.Duration, bool) {
	type match struct {
		ttl   time.Duration
		score int
		index int
	}
	var matches []match
	for idx, rule := range rules {
		if rule.Class != "" && rule.Class != class {
			continue
		}
		if rule.ContentType != "" && rule.ContentType != contentType {
			continue
		}
		score := 0
		if rule.Class != "" {
			score += 2
		}
		if rule.ContentType != "" {
			score += 1
		}
		matches = append(matches, match{ttl: rule.TTL, score: score, index: idx})
	}
	if len(matches) == 0 {
		return 0, false
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].score == matches[j].score {
			return matches[i].index < matches[j].index
		}
		return matches[i].score > matches[j].score
	})
	return matches[0].ttl, true
}
