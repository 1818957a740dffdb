package workos

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/invisibility-inc/echo-backend/pkg/logger"
)

var (
	// ErrNotFound is returned when a lookup matches no user.
	ErrNotFound = errors.New("user not found")
	// ErrProviderUnavailable wraps transport-level failures (including timeouts).
	ErrProviderUnavailable = errors.New("identity provider unavailable")
)

// ProviderError is returned when WorkOS answers with a non-2xx status.
type ProviderError struct {
	Status int
	Body   string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("workos returned status %d: %s", e.Status, e.Body)
}

// Profile is a user profile as reported by the WorkOS User Management API.
// Profiles are fetched on demand and never persisted verbatim.
type Profile struct {
	ID                string    `json:"id"`
	Email             string    `json:"email"`
	FirstName         string    `json:"first_name,omitempty"`
	LastName          string    `json:"last_name,omitempty"`
	EmailVerified     bool      `json:"email_verified"`
	ProfilePictureURL string    `json:"profile_picture_url,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// FullName joins the optional name parts for display and CRM payloads.
func (p *Profile) FullName() string {
	switch {
	case p.FirstName != "" && p.LastName != "":
		return p.FirstName + " " + p.LastName
	case p.FirstName != "":
		return p.FirstName
	default:
		return p.LastName
	}
}

type listMetadata struct {
	Before string `json:"before,omitempty"`
	After  string `json:"after,omitempty"`
}

type userListResponse struct {
	Data         []Profile    `json:"data"`
	ListMetadata listMetadata `json:"list_metadata"`
}

type authenticateRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	GrantType    string `json:"grant_type"`
	Code         string `json:"code"`
}

type authenticateResponse struct {
	User           Profile `json:"user"`
	OrganizationID string  `json:"organization_id,omitempty"`
}

// Client talks to the WorkOS User Management REST API.
type Client struct {
	baseURL    string
	apiKey     string
	clientID   string
	httpClient *http.Client
}

// NewClient creates a WorkOS client. Every request carries the client timeout
// so a stalled upstream call cannot hold a caller indefinitely.
func NewClient(baseURL, apiKey, clientID string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		clientID:   clientID,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// ExchangeCode performs the one-shot exchange of an authorization code for a
// user profile. Codes are single-use and short-lived; WorkOS enforces that.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*Profile, error) {
	body, err := json.Marshal(authenticateRequest{
		ClientID:     c.clientID,
		ClientSecret: c.apiKey,
		GrantType:    "authorization_code",
		Code:         code,
	})
	if err != nil {
		return nil, err
	}

	var ar authenticateResponse
	if err := c.do(ctx, http.MethodPost, "/user_management/authenticate", bytes.NewReader(body), &ar); err != nil {
		return nil, err
	}
	return &ar.User, nil
}

// GetUserByID fetches a single user profile by its provider-assigned id.
func (c *Client) GetUserByID(ctx context.Context, id string) (*Profile, error) {
	var p Profile
	if err := c.do(ctx, http.MethodGet, "/user_management/users/"+url.PathEscape(id), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetUserByEmail returns the first user matching the email. WorkOS answers
// with a list; an empty list yields ErrNotFound.
func (c *Client) GetUserByEmail(ctx context.Context, email string) (*Profile, error) {
	var lr userListResponse
	path := "/user_management/users?email=" + url.QueryEscape(email)
	if err := c.do(ctx, http.MethodGet, path, nil, &lr); err != nil {
		return nil, err
	}
	if len(lr.Data) == 0 {
		return nil, ErrNotFound
	}
	return &lr.Data[0], nil
}

// ListAllUsers pages through the full user directory via cursor pagination.
// Pages are causally ordered by cursor, so requests are strictly sequential.
// The listing is recomputed from scratch on every call, never cached.
func (c *Client) ListAllUsers(ctx context.Context) ([]Profile, error) {
	var users []Profile
	after := ""
	for {
		path := "/user_management/users?limit=100"
		if after != "" {
			path += "&after=" + url.QueryEscape(after)
		}
		var lr userListResponse
		if err := c.do(ctx, http.MethodGet, path, nil, &lr); err != nil {
			return nil, err
		}
		users = append(users, lr.Data...)

		if lr.ListMetadata.After == "" {
			break
		}
		after = lr.ListMetadata.After
	}
	return users, nil
}

// do issues one authenticated request and decodes a 2xx JSON response into out.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(resp.Body)
		logger.Errorf("workos %s %s returned %d: %s", method, path, resp.StatusCode, string(b))
		return &ProviderError{Status: resp.StatusCode, Body: string(b)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrProviderUnavailable, err)
	}
	return nil
}
