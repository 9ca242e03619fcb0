package blueprint

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// AuthorizationMode selects how print authorization is decided. The two
// modes are an explicit deployment choice and are never mixed.
type AuthorizationMode string

const (
	// AuthorizationLocal authorizes any token that parses.
	AuthorizationLocal AuthorizationMode = "local"
	// AuthorizationRemote verifies the token against the identity service
	// and requires the configured qualification.
	AuthorizationRemote AuthorizationMode = "remote"
)

// DefaultQualification is the training a user must have passed before the
// plotter will take their job.
const DefaultQualification = "Large Format Printing"

// ParseIdentityToken extracts the numeric identity token from raw input.
// Whitespace is trimmed; empty input is invalid. Separators (-, _, space)
// are accepted by taking the numeric prefix before the first separator;
// otherwise the whole trimmed string must parse as an integer.
func ParseIdentityToken(raw string) (int64, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, NewError(KindValidation, "identity token is empty", nil)
	}

	normalized := strings.NewReplacer("-", " ", "_", " ").Replace(trimmed)
	if head, _, found := strings.Cut(normalized, " "); found {
		normalized = head
	}

	token, err := strconv.ParseInt(normalized, 10, 64)
	if err != nil {
		return 0, NewError(KindValidation, fmt.Sprintf("identity token %q is not numeric", raw), err)
	}
	return token, nil
}

// IdentityInfo is what the identity service knows about a user. The zero
// value is the "unknown" sentinel recorded when verification was skipped.
type IdentityInfo struct {
	Known         bool     `json:"known"`
	Name          string   `json:"name,omitempty"`
	CollegeID     string   `json:"college_id,omitempty"`
	CollegeEmail  string   `json:"college_email,omitempty"`
	PassedQuizzes []string `json:"passed_quizzes,omitempty"`
}

// UnknownIdentity returns the sentinel for skipped or unavailable
// verification.
func UnknownIdentity() IdentityInfo {
	return IdentityInfo{}
}

// HasQualification reports whether the named training appears in the
// user's passed quizzes.
func (i IdentityInfo) HasQualification(name string) bool {
	name = strings.TrimSpace(name)
	for _, quiz := range i.PassedQuizzes {
		if strings.TrimSpace(quiz) == name {
			return true
		}
	}
	return false
}

// IdentityVerifier checks a token against the identity service.
type IdentityVerifier interface {
	Verify(ctx context.Context, token int64) (IdentityInfo, error)
}

// IdentityVerifierFunc adapts a function to an IdentityVerifier.
type IdentityVerifierFunc func(ctx context.Context, token int64) (IdentityInfo, error)

func (f IdentityVerifierFunc) Verify(ctx context.Context, token int64) (IdentityInfo, error) {
	return f(ctx, token)
}

// Authorization is a successful print authorization.
type Authorization struct {
	Token     int64             `json:"token"`
	Mode      AuthorizationMode `json:"mode"`
	Identity  IdentityInfo      `json:"identity"`
	Qualified bool              `json:"qualified"`
	GrantedAt time.Time         `json:"granted_at"`
}

// Authorizer gates the print action on a validated identity token.
type Authorizer struct {
	Mode          AuthorizationMode
	Verifier      IdentityVerifier
	Qualification string
	Logger        Logger
	Now           func() time.Time
}

// Authorize validates raw input and decides authorization per the
// configured mode. Remote verification fails closed: transport errors and
// unknown users are both unauthorized.
func (a *Authorizer) Authorize(ctx context.Context, raw string) (Authorization, error) {
	if a == nil {
		return Authorization{}, NewError(KindInternal, "authorizer is nil", nil)
	}

	token, err := ParseIdentityToken(raw)
	if err != nil {
		return Authorization{}, err
	}

	mode := a.Mode
	if mode == "" {
		mode = AuthorizationLocal
	}
	now := a.Now
	if now == nil {
		now = time.Now
	}

	switch mode {
	case AuthorizationLocal:
		return Authorization{
			Token:     token,
			Mode:      mode,
			Identity:  UnknownIdentity(),
			Qualified: true,
			GrantedAt: now(),
		}, nil

	case AuthorizationRemote:
		if a.Verifier == nil {
			return Authorization{}, NewError(KindInternal, "identity verifier is required in remote mode", nil)
		}
		info, err := a.Verifier.Verify(ctx, token)
		if err != nil {
			return Authorization{}, NewError(KindUnauthorized, "identity verification failed", err)
		}
		if !info.Known {
			return Authorization{}, NewError(KindUnauthorized, fmt.Sprintf("user %d is not known", token), nil)
		}
		qualification := a.Qualification
		if qualification == "" {
			qualification = DefaultQualification
		}
		if !info.HasQualification(qualification) {
			return Authorization{}, NewError(KindUnauthorized, fmt.Sprintf("user %d has not passed %q", token, qualification), nil)
		}
		return Authorization{
			Token:     token,
			Mode:      mode,
			Identity:  info,
			Qualified: true,
			GrantedAt: now(),
		}, nil

	default:
		return Authorization{}, NewError(KindValidation, fmt.Sprintf("unknown authorization mode %q", mode), nil)
	}
}
