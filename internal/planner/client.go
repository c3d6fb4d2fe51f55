package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// Client is the trip-planning API surface consumed by trackers and
// scanners.
type Client interface {
	// ResolvePlace maps a place name to an ordered list of candidate
	// stops; the first hit is used by convention.
	ResolvePlace(ctx context.Context, name string) ([]Place, error)
	// FetchTrips returns ranked itineraries between two stop ids for the
	// given instant and direction sense.
	FetchTrips(ctx context.Context, originID, destinationID string, at time.Time, relatesTo RelatesTo) ([]Itinerary, error)
	// RefreshCredentials obtains a fresh access token. Idempotent.
	RefreshCredentials(ctx context.Context) error
}

// HTTPClient talks to a Västtrafik-style trip-planning API using an
// OAuth2 client-credentials token.
type HTTPClient struct {
	baseURL  string
	tokenURL string
	clientID string
	secret   string
	client   *http.Client

	mu    sync.Mutex
	token string
}

func NewHTTPClient(baseURL, tokenURL, clientID, secret string) *HTTPClient {
	return &HTTPClient{
		baseURL:  strings.TrimRight(baseURL, "/"),
		tokenURL: tokenURL,
		clientID: clientID,
		secret:   secret,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) RefreshCredentials(ctx context.Context) error {
	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return &TransportError{Op: "refresh credentials", Err: err}
	}
	req.SetBasicAuth(c.clientID, c.secret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return &TransportError{Op: "refresh credentials", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &TransportError{Op: "refresh credentials", Err: fmt.Errorf("HTTP %d", resp.StatusCode)}
	}

	var body struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return &TransportError{Op: "refresh credentials", Err: err}
	}
	if body.AccessToken == "" {
		return &TransportError{Op: "refresh credentials", Err: fmt.Errorf("empty access token")}
	}

	c.mu.Lock()
	c.token = body.AccessToken
	c.mu.Unlock()
	return nil
}

func (c *HTTPClient) ResolvePlace(ctx context.Context, name string) ([]Place, error) {
	q := url.Values{"q": {name}}
	var body struct {
		Results []Place `json:"results"`
	}
	if err := c.get(ctx, "/locations/by-text", q, &body); err != nil {
		return nil, err
	}
	if len(body.Results) == 0 {
		return nil, fmt.Errorf("resolve %q: %w", name, ErrNoSuchPlace)
	}
	return body.Results, nil
}

func (c *HTTPClient) FetchTrips(ctx context.Context, originID, destinationID string, at time.Time, relatesTo RelatesTo) ([]Itinerary, error) {
	q := url.Values{
		"originGid":         {originID},
		"destinationGid":    {destinationID},
		"dateTime":          {at.Format(time.RFC3339)},
		"dateTimeRelatesTo": {string(relatesTo)},
	}
	var body struct {
		Results []Itinerary `json:"results"`
	}
	if err := c.get(ctx, "/journeys", q, &body); err != nil {
		return nil, err
	}
	return body.Results, nil
}

func (c *HTTPClient) get(ctx context.Context, path string, q url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return &TransportError{Op: path, Err: err}
	}
	c.mu.Lock()
	token := c.token
	c.mu.Unlock()
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.client.Do(req)
	if err != nil {
		return &TransportError{Op: path, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrAuthExpired
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &TransportError{Op: path, Err: fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &TransportError{Op: path, Err: err}
	}
	return nil
}
