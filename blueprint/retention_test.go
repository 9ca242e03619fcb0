package blueprint

import (
	"context"
	"io"
	"testing"
	"time"
)

type fakeArtifactStore struct {
	refs    []ArtifactRef
	deleted []string
}

func (s *fakeArtifactStore) Save(ctx context.Context, meta ArtifactMeta, r io.Reader) (ArtifactRef, error) {
	_ = ctx
	_ = r
	ref := ArtifactRef{Key: meta.Key, Name: meta.Name, ContentType: meta.ContentType, Class: meta.Class, CreatedAt: meta.CreatedAt}
	s.refs = append(s.refs, ref)
	return ref, nil
}

func (s *fakeArtifactStore) Open(ctx context.Context, key string) (io.ReadCloser, ArtifactRef, error) {
	_ = ctx
	_ = key
	return nil, ArtifactRef{}, NewError(KindNotFound, "not implemented", nil)
}

func (s *fakeArtifactStore) Delete(ctx context.Context, key string) error {
	_ = ctx
	s.deleted = append(s.deleted, key)
	kept := s.refs[:0]
	for _, ref := range s.refs {
		if ref.Key != key {
			kept = append(kept, ref)
		}
	}
	s.refs = kept
	return nil
}

func (s *fakeArtifactStore) List(ctx context.Context) ([]ArtifactRef, error) {
	_ = ctx
	return append([]ArtifactRef(nil), s.refs...), nil
}

func TestRetentionRules_TTLPrecedence(t *testing.T) {
	rules := RetentionRules{
		DefaultTTL: 24 * time.Hour,
		ByClass: map[ArtifactClass]time.Duration{
			ArtifactPreview: time.Hour,
		},
		ByContentType: map[string]time.Duration{
			"application/pdf": 72 * time.Hour,
		},
		Rules: []RetentionRule{
			{Class: ArtifactPreview, ContentType: "application/pdf", TTL: 7 * 24 * time.Hour},
		},
	}

	// Most specific rule wins.
	got := rules.TTL(ArtifactRef{Class: ArtifactPreview, ContentType: "application/pdf"})
	if got != 7*24*time.Hour {
		t.Fatalf("expected rule TTL, got %v", got)
	}
	// Class map next.
	got = rules.TTL(ArtifactRef{Class: ArtifactPreview, ContentType: "image/png"})
	if got != time.Hour {
		t.Fatalf("expected class TTL, got %v", got)
	}
	// Content type map next.
	got = rules.TTL(ArtifactRef{Class: ArtifactPrint, ContentType: "application/pdf"})
	if got != 72*time.Hour {
		t.Fatalf("expected content type TTL, got %v", got)
	}
	got = rules.TTL(ArtifactRef{Class: ArtifactPrint, ContentType: "image/png"})
	if got != 24*time.Hour {
		t.Fatalf("expected default TTL, got %v", got)
	}
}

func TestRetentionRules_ZeroTTLKeepsForever(t *testing.T) {
	rules := RetentionRules{}
	old := ArtifactRef{CreatedAt: time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)}
	if rules.Expired(old, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("zero TTL must never expire")
	}
}

func TestSweepArtifacts(t *testing.T) {
	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	store := &fakeArtifactStore{}

	fresh := ArtifactMeta{Key: "fresh", Class: ArtifactPreview, CreatedAt: now.Add(-30 * time.Minute)}
	stale := ArtifactMeta{Key: "stale", Class: ArtifactPreview, CreatedAt: now.Add(-3 * time.Hour)}
	keeper := ArtifactMeta{Key: "spool", Class: ArtifactPrint, CreatedAt: now.Add(-30 * 24 * time.Hour)}
	for _, meta := range []ArtifactMeta{fresh, stale, keeper} {
		if _, err := store.Save(context.Background(), meta, nil); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	rules := RetentionRules{
		ByClass: map[ArtifactClass]time.Duration{ArtifactPreview: time.Hour},
	}

	removed, err := SweepArtifacts(context.Background(), store, rules, now)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if len(removed) != 1 || removed[0].Key != "stale" {
		t.Fatalf("expected only the stale preview removed, got %+v", removed)
	}
	if len(store.refs) != 2 {
		t.Fatalf("expected 2 artifacts left, got %d", len(store.refs))
	}
}
