package blueprint

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestParseIdentityToken(t *testing.T) {
	cases := []struct {
		raw   string
		want  int64
		valid bool
	}{
		{"1234", 1234, true},
		{"1234-5678", 1234, true},
		{"12_34", 12, true},
		{"12 34", 12, true},
		{"  987654321  ", 987654321, true},
		{"0042", 42, true},
		{"", 0, false},
		{"   ", 0, false},
		{"abc", 0, false},
		{"-1234", 0, false},
		{"12.34", 0, false},
	}

	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			token, err := ParseIdentityToken(tc.raw)
			if tc.valid {
				if err != nil {
					t.Fatalf("expected %d, got error %v", tc.want, err)
				}
				if token != tc.want {
					t.Fatalf("expected %d, got %d", tc.want, token)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error, got %d", token)
			}
			var perr *PrintError
			if !errors.As(err, &perr) || perr.Kind != KindValidation {
				t.Fatalf("expected validation kind, got %v", err)
			}
		})
	}
}

func TestAuthorizer_LocalMode(t *testing.T) {
	now := time.Date(2026, 2, 1, 9, 30, 0, 0, time.UTC)
	auth := &Authorizer{
		Mode: AuthorizationLocal,
		Now:  func() time.Time { return now },
	}

	granted, err := auth.Authorize(context.Background(), "1234-5678")
	if err != nil {
		t.Fatalf("authorize: %v", err)
	}
	if granted.Token != 1234 {
		t.Fatalf("expected token 1234, got %d", granted.Token)
	}
	if granted.Identity.Known {
		t.Fatalf("local mode must record the unknown identity sentinel")
	}
	if !granted.GrantedAt.Equal(now) {
		t.Fatalf("expected grant at %v, got %v", now, granted.GrantedAt)
	}

	if _, err := auth.Authorize(context.Background(), "   "); err == nil {
		t.Fatalf("expected blank token to be rejected even locally")
	}
}

func TestAuthorizer_RemoteModeQualified(t *testing.T) {
	var verified int64
	auth := &Authorizer{
		Mode: AuthorizationRemote,
		Verifier: IdentityVerifierFunc(func(_ context.Context, token int64) (IdentityInfo, error) {
			verified = token
			return IdentityInfo{
				Known:         true,
				Name:          "Sam Plotter",
				CollegeEmail:  "sam@college.edu",
				PassedQuizzes: []string{"Laser Cutting", DefaultQualification},
			}, nil
		}),
	}

	granted, err := auth.Authorize(context.Background(), "5551212")
	if err != nil {
		t.Fatalf("authorize: %v", err)
	}
	if verified != 5551212 {
		t.Fatalf("expected verifier to see 5551212, got %d", verified)
	}
	if granted.Identity.Name != "Sam Plotter" {
		t.Fatalf("expected identity to be recorded, got %+v", granted.Identity)
	}
	if !granted.Qualified {
		t.Fatalf("expected qualified authorization")
	}
}

func TestAuthorizer_RemoteModeFailsClosed(t *testing.T) {
	cases := []struct {
		name     string
		verifier IdentityVerifierFunc
	}{
		{
			name: "transport error",
			verifier: func(_ context.Context, _ int64) (IdentityInfo, error) {
				return IdentityInfo{}, errors.New("connection refused")
			},
		},
		{
			name: "unknown user",
			verifier: func(_ context.Context, _ int64) (IdentityInfo, error) {
				return IdentityInfo{}, nil
			},
		},
		{
			name: "missing qualification",
			verifier: func(_ context.Context, _ int64) (IdentityInfo, error) {
				return IdentityInfo{Known: true, PassedQuizzes: []string{"Woodshop"}}, nil
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			auth := &Authorizer{Mode: AuthorizationRemote, Verifier: tc.verifier}
			_, err := auth.Authorize(context.Background(), "1234")
			if err == nil {
				t.Fatalf("expected authorization to fail")
			}
			var perr *PrintError
			if !errors.As(err, &perr) || perr.Kind != KindUnauthorized {
				t.Fatalf("expected unauthorized kind, got %v", err)
			}
		})
	}
}

func TestAuthorizer_RemoteModeRequiresVerifier(t *testing.T) {
	auth := &Authorizer{Mode: AuthorizationRemote}
	_, err := auth.Authorize(context.Background(), "1234")
	if err == nil {
		t.Fatalf("expected configuration error")
	}
	var perr *PrintError
	if !errors.As(err, &perr) || perr.Kind != KindInternal {
		t.Fatalf("expected internal kind, got %v", err)
	}
}

func TestIdentityInfo_HasQualification(t *testing.T) {
	info := IdentityInfo{
		Known:         true,
		PassedQuizzes: []string{" Large Format Printing ", "3D Printing"},
	}
	if !info.HasQualification(DefaultQualification) {
		t.Fatalf("expected trimmed quiz names to match")
	}
	if info.HasQualification("Welding") {
		t.Fatalf("unexpected qualification match")
	}
}
