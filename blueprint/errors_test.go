package blueprint

import (
	"context"
	"strings"
	"testing"

	errorslib "github.com/goliatone/go-errors"
)

func TestAsGoErrorMapping(t *testing.T) {
	cases := []struct {
		err      error
		category errorslib.Category
		code     string
	}{
		{NewError(KindValidation, "bad input", nil), errorslib.CategoryValidation, "validation"},
		{NewError(KindEncoding, "key encode failed", nil), errorslib.CategoryInternal, "encoding"},
		{NewError(KindUnsupportedMedia, "no .heic", nil), errorslib.CategoryValidation, "unsupported_media"},
		{NewError(KindUnauthorized, "nope", nil), errorslib.CategoryAuthz, "unauthorized"},
		{NewError(KindNotFound, "missing", nil), errorslib.CategoryNotFound, "not_found"},
		{NewError(KindConflict, "duplicate", nil), errorslib.CategoryOperation, "conflict"},
		{NewError(KindQuota, "too many", nil), errorslib.CategoryOperation, "quota_exceeded"},
		{NewError(KindExternal, "upstream down", nil), errorslib.CategoryOperation, "external"},
		{context.DeadlineExceeded, errorslib.CategoryOperation, "timeout"},
		{context.Canceled, errorslib.CategoryOperation, "canceled"},
		{NewError(KindInternal, "boom", nil), errorslib.CategoryInternal, "internal"},
	}

	for _, tc := range cases {
		mapped := AsGoError(tc.err)
		if mapped == nil {
			t.Fatalf("expected mapping for %v", tc.err)
		}
		if mapped.Category != tc.category {
			t.Fatalf("expected category %s, got %s", tc.category, mapped.Category)
		}
		if mapped.TextCode != tc.code {
			t.Fatalf("expected text code %s, got %s", tc.code, mapped.TextCode)
		}
	}
}

func TestKindFromError_SurvivesGoErrorMapping(t *testing.T) {
	original := NewError(KindUnsupportedMedia, "no .heic", nil)
	mapped := AsGoError(original)

	if kind := KindFromError(mapped); kind != KindUnsupportedMedia {
		t.Fatalf("expected kind to survive mapping, got %q", kind)
	}
}

func TestKindFromError_FallsBackToCategory(t *testing.T) {
	// Message-level Validate errors carry their own text codes, so the
	// category decides the kind.
	err := errorslib.New("badge token is required", errorslib.CategoryValidation).
		WithTextCode("TOKEN_REQUIRED")

	if kind := KindFromError(err); kind != KindValidation {
		t.Fatalf("expected validation kind from category, got %q", kind)
	}

	authz := errorslib.New("not allowed", errorslib.CategoryAuthz).
		WithTextCode("STAFF_ONLY")
	if kind := KindFromError(authz); kind != KindUnauthorized {
		t.Fatalf("expected unauthorized kind from category, got %q", kind)
	}
}

func TestUserMessage(t *testing.T) {
	unsupported := UserMessage(NewError(KindUnsupportedMedia, "no .heic", nil))
	if !strings.Contains(unsupported, "not supported") {
		t.Fatalf("expected distinct unsupported message, got %q", unsupported)
	}

	generic := UserMessage(NewError(KindExternal, "render service down", nil))
	if strings.Contains(generic, "render service down") {
		t.Fatalf("internal details must not leak to the user: %q", generic)
	}
	if generic == unsupported {
		t.Fatalf("unsupported files must read differently from generic failures")
	}
}
