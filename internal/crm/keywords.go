package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrUnavailable wraps transport-level failures talking to KeywordsAI.
var ErrUnavailable = errors.New("keywords api unavailable")

// StatusError is returned when KeywordsAI answers with a non-2xx status.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("keywords api returned status %d: %s", e.Status, e.Body)
}

// KeywordsClient propagates user records to the KeywordsAI CRM.
type KeywordsClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewKeywordsClient creates a CRM client with a per-request timeout.
func NewKeywordsClient(baseURL, apiKey string, timeout time.Duration) *KeywordsClient {
	return &KeywordsClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type linkPayload struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// LinkUser PATCHes a single user into KeywordsAI, keyed by the user id.
// No retries: a failed call is reported as a failure and the sync job is
// simply re-run later.
func (c *KeywordsClient) LinkUser(ctx context.Context, id, name, email string) error {
	body, err := json.Marshal(linkPayload{Name: name, Email: email})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/api/user/update/%s", c.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(resp.Body)
		return &StatusError{Status: resp.StatusCode, Body: string(b)}
	}
	return nil
}
