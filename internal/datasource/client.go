// Package datasource is the HTTP client for the match-data backend.
package datasource

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/JonasKimmer/liveticker-eintracht/internal/models"
)

const (
	// DefaultTimeout is the default HTTP client timeout.
	DefaultTimeout = 10 * time.Second

	// DefaultCacheTTL is how long slow-changing responses (prematch,
	// lineups, aggregate stats) are served from cache.
	DefaultCacheTTL = 30 * time.Second
)

// Config holds the configuration for the backend client.
type Config struct {
	BaseURL  string
	Timeout  time.Duration
	CacheTTL time.Duration
}

// Client talks to the backend REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      *responseCache
}

// NewClient creates a client with default timeouts.
func NewClient(baseURL string) *Client {
	return NewClientWithConfig(Config{BaseURL: baseURL})
}

// NewClientWithConfig creates a client with custom configuration.
func NewClientWithConfig(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}
	return &Client{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		cache: newResponseCache(cfg.CacheTTL),
	}
}

// FetchMatch loads one match record.
func (c *Client) FetchMatch(ctx context.Context, matchID int) (*models.Match, error) {
	var match models.Match
	if err := c.get(ctx, fmt.Sprintf("/matches/%d", matchID), &match); err != nil {
		return nil, err
	}
	return &match, nil
}

// FetchEvents loads the raw match events in backend (insertion) order.
func (c *Client) FetchEvents(ctx context.Context, matchID int) ([]models.MatchEvent, error) {
	var events []models.MatchEvent
	if err := c.get(ctx, fmt.Sprintf("/events/?match_id=%d", matchID), &events); err != nil {
		return nil, err
	}
	return events, nil
}

// FetchTickerTexts loads all commentary entries of a match.
func (c *Client) FetchTickerTexts(ctx context.Context, matchID int) ([]models.TickerEntry, error) {
	var entries []models.TickerEntry
	if err := c.get(ctx, fmt.Sprintf("/ticker/match/%d", matchID), &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// FetchPrematch loads the prematch editorial items.
func (c *Client) FetchPrematch(ctx context.Context, matchID int) ([]models.PrematchItem, error) {
	var items []models.PrematchItem
	if err := c.getCached(ctx, fmt.Sprintf("/ticker/match/%d/prematch", matchID), &items); err != nil {
		return nil, err
	}
	return items, nil
}

// FetchLiveStats loads the live statistical notes.
func (c *Client) FetchLiveStats(ctx context.Context, matchID int) ([]models.LiveStatItem, error) {
	var items []models.LiveStatItem
	if err := c.get(ctx, fmt.Sprintf("/ticker/match/%d/live", matchID), &items); err != nil {
		return nil, err
	}
	return items, nil
}

// FetchLineups loads both teams' lineups.
func (c *Client) FetchLineups(ctx context.Context, matchID int) ([]models.Lineup, error) {
	var lineups []models.Lineup
	if err := c.getCached(ctx, fmt.Sprintf("/matches/%d/lineups", matchID), &lineups); err != nil {
		return nil, err
	}
	return lineups, nil
}

// FetchMatchStats loads the aggregate match statistics.
func (c *Client) FetchMatchStats(ctx context.Context, matchID int) ([]models.MatchStat, error) {
	var stats []models.MatchStat
	if err := c.getCached(ctx, fmt.Sprintf("/matches/%d/statistics", matchID), &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

// FetchPlayerStats loads the per-player statistics.
func (c *Client) FetchPlayerStats(ctx context.Context, matchID int) ([]models.PlayerStat, error) {
	var stats []models.PlayerStat
	if err := c.getCached(ctx, fmt.Sprintf("/matches/%d/player-statistics", matchID), &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

// FetchMatchdays loads the matchday rounds of a team in a competition.
// The call also triggers the backend's import webhook.
func (c *Client) FetchMatchdays(ctx context.Context, teamID, competitionID int) ([]string, error) {
	var rounds []string
	path := fmt.Sprintf("/teams/%d/competitions/%d/matchdays", teamID, competitionID)
	if err := c.get(ctx, path, &rounds); err != nil {
		return nil, err
	}
	return rounds, nil
}

// GenerateDraft asks the AI service for a commentary draft in the
// given style and returns the created entry.
func (c *Client) GenerateDraft(ctx context.Context, eventID int, style string) (*models.TickerEntry, error) {
	var entry models.TickerEntry
	path := fmt.Sprintf("/ticker/generate/%d?style=%s", eventID, url.QueryEscape(style))
	if err := c.post(ctx, path, nil, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// Publish marks an entry published with the given final text.
func (c *Client) Publish(ctx context.Context, entryID int, text string) error {
	body := map[string]string{"text": text}
	return c.post(ctx, fmt.Sprintf("/ticker/%d/publish", entryID), body, nil)
}

// UpdateStatus applies a partial update, e.g. setting "rejected".
func (c *Client) UpdateStatus(ctx context.Context, entryID int, patch models.EntryPatch) error {
	return c.patch(ctx, fmt.Sprintf("/ticker/%d", entryID), patch)
}

// CreateManualEntry publishes an operator-authored entry.
func (c *Client) CreateManualEntry(ctx context.Context, matchID int, text, icon string, minute int) (*models.TickerEntry, error) {
	body := map[string]interface{}{
		"match_id": matchID,
		"text":     text,
		"icon":     icon,
		"minute":   minute,
		"mode":     "manual",
		"status":   models.StatusPublished,
	}
	var entry models.TickerEntry
	if err := c.post(ctx, "/ticker/", body, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	body, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, out)
}

// getCached serves slow-changing endpoints from the TTL cache.
func (c *Client) getCached(ctx context.Context, path string, out interface{}) error {
	if body, ok := c.cache.Get(path); ok {
		return json.Unmarshal(body, out)
	}
	body, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	c.cache.Set(path, body)
	return json.Unmarshal(body, out)
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	respBody, err := c.doRequest(ctx, http.MethodPost, path, body)
	if err != nil {
		return err
	}
	if out == nil || len(respBody) == 0 {
		return nil
	}
	return json.Unmarshal(respBody, out)
}

func (c *Client) patch(ctx context.Context, path string, body interface{}) error {
	_, err := c.doRequest(ctx, http.MethodPatch, path, body)
	return err
}

func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("backend returned status %d for %s %s: %s", resp.StatusCode, method, path, string(respBody))
	}

	return respBody, nil
}
