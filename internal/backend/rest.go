package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/loopin/signage-agent/internal/models"
)

// RestClient talks to the hosted relational backend through its PostgREST
// surface, the same API the admin console writes through.
type RestClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewRestClient creates a backend client for the given endpoint and API
// key.
func NewRestClient(baseURL, apiKey string, timeout time.Duration, logger zerolog.Logger) *RestClient {
	return &RestClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// do issues one request with auth headers and decodes a JSON response body
// into out when out is non-nil.
func (c *RestClient) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to serialize request body: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("backend request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("backend returned status %d for %s %s", resp.StatusCode, method, path)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode backend response: %w", err)
		}
	}
	return nil
}

// GetBinding looks up the screen record bound to this device's pairing
// code. A missing row means the screen has not been claimed yet.
func (c *RestClient) GetBinding(ctx context.Context, deviceID string) (*models.ScreenBinding, error) {
	query := url.Values{}
	query.Set("device_id", "eq."+deviceID)
	query.Set("select", "id,device_id,user_id,active_playlist_id,last_ping,status")

	var rows []models.ScreenBinding
	if err := c.do(ctx, http.MethodGet, "/rest/v1/screens", query, nil, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// UpdateBinding writes the heartbeat fields of this device's screen row.
func (c *RestClient) UpdateBinding(ctx context.Context, deviceID string, heartbeat models.Heartbeat) error {
	query := url.Values{}
	query.Set("device_id", "eq."+deviceID)

	return c.do(ctx, http.MethodPatch, "/rest/v1/screens", query, heartbeat, nil)
}

// GetPlaylistAssignments fetches the ordered playlist entries with their
// embedded campaign and widget records.
func (c *RestClient) GetPlaylistAssignments(ctx context.Context, playlistID string) ([]models.PlaylistAssignment, error) {
	query := url.Values{}
	query.Set("playlist_id", "eq."+playlistID)
	query.Set("select", "display_order,duration,"+
		"campaigns(id,name,media_url,media_type,duration_seconds),"+
		"dynamic_contents(id,name,content_type,configuration)")
	query.Set("order", "display_order.asc")

	var rows []models.PlaylistAssignment
	if err := c.do(ctx, http.MethodGet, "/rest/v1/playlist_items", query, nil, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// GetSettings fetches the account's settings record, or nil when the
// account has never saved one.
func (c *RestClient) GetSettings(ctx context.Context, accountID string) (*models.Settings, error) {
	query := url.Values{}
	query.Set("user_id", "eq."+accountID)

	var rows []models.Settings
	if err := c.do(ctx, http.MethodGet, "/rest/v1/settings", query, nil, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}
