package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/HMC-Makerspace/BLUEPRINT/blueprint"
)

// Client looks up users on the makerspace identity service. It implements
// blueprint.IdentityVerifier. Lookup failures surface as errors so the
// authorizer can fail closed; an unknown user is not an error, it comes
// back as the unknown sentinel.
type Client struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// New creates an identity client for the service at baseURL.
func New(baseURL string) *Client {
	return &Client{BaseURL: baseURL}
}

type userPayload struct {
	Name          string   `json:"name"`
	CollegeID     string   `json:"college_id"`
	CollegeEmail  string   `json:"college_email"`
	PassedQuizzes []string `json:"passed_quizzes"`
}

// Verify fetches the user record for a token. The service answers with the
// user document, or null / 404 when the token is not registered.
func (c *Client) Verify(ctx context.Context, token int64) (blueprint.IdentityInfo, error) {
	if c == nil {
		return blueprint.IdentityInfo{}, blueprint.NewError(blueprint.KindInternal, "identity client is nil", nil)
	}
	if strings.TrimSpace(c.BaseURL) == "" {
		return blueprint.IdentityInfo{}, blueprint.NewError(blueprint.KindValidation, "identity service URL is required", nil)
	}

	url := fmt.Sprintf("%s/users/info/%d", strings.TrimRight(c.BaseURL, "/"), token)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return blueprint.IdentityInfo{}, blueprint.NewError(blueprint.KindInternal, "identity request failed", err)
	}
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return blueprint.IdentityInfo{}, ctx.Err()
		}
		return blueprint.IdentityInfo{}, blueprint.NewError(blueprint.KindExternal, "identity service unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return blueprint.UnknownIdentity(), nil
	}
	if resp.StatusCode != http.StatusOK {
		return blueprint.IdentityInfo{}, blueprint.NewError(blueprint.KindExternal, fmt.Sprintf("identity service returned status %d", resp.StatusCode), nil)
	}

	var payload *userPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return blueprint.IdentityInfo{}, blueprint.NewError(blueprint.KindExternal, "identity response invalid", err)
	}
	if payload == nil {
		return blueprint.UnknownIdentity(), nil
	}

	return blueprint.IdentityInfo{
		Known:         true,
		Name:          payload.Name,
		CollegeID:     payload.CollegeID,
		CollegeEmail:  payload.CollegeEmail,
		PassedQuizzes: payload.PassedQuizzes,
	}, nil
}
