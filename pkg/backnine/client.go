// Package backnine provides a Go SDK for the b9-server API.
package backnine

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Client provides access to the b9-server HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new API client for the given base URL,
// e.g. "http://localhost:9480".
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// DailyMax is a single daily-max record: the highest total booked hours
// observed for a location on one calendar day.
type DailyMax struct {
	City       string  `json:"city"`
	Slug       string  `json:"slug"`
	Date       string  `json:"date"`
	DayOfWeek  string  `json:"dayOfWeek"`
	Hours      float64 `json:"hours"`
	CapturedAt string  `json:"capturedAt"`
}

// Observation is a single raw sample from the observation log.
type Observation struct {
	City       string  `json:"city"`
	Slug       string  `json:"slug"`
	Date       string  `json:"date"`
	DayOfWeek  string  `json:"dayOfWeek"`
	Hours      float64 `json:"hours"`
	ComputedAt string  `json:"computedAt"`
}

// LocationStats holds per-location averages over the daily-max history.
type LocationStats struct {
	Slug      string             `json:"slug"`
	Days      int                `json:"days"`
	AvgMax    float64            `json:"avgMax"`
	ByWeekday map[string]float64 `json:"byWeekday"`
}

// DailyMaxes retrieves all daily-max records.
func (c *Client) DailyMaxes(ctx context.Context) ([]DailyMax, error) {
	var resp struct {
		Records []DailyMax `json:"records"`
	}
	if err := c.get(ctx, "/api/daily-max", &resp); err != nil {
		return nil, err
	}
	return resp.Records, nil
}

// DailyMaxesFor retrieves daily-max records for one location.
func (c *Client) DailyMaxesFor(ctx context.Context, slug string) ([]DailyMax, error) {
	var resp struct {
		Records []DailyMax `json:"records"`
	}
	if err := c.get(ctx, "/api/daily-max/"+url.PathEscape(slug), &resp); err != nil {
		return nil, err
	}
	return resp.Records, nil
}

// Observations retrieves the raw observation log for one location.
func (c *Client) Observations(ctx context.Context, slug string) ([]Observation, error) {
	var resp struct {
		Observations []Observation `json:"observations"`
	}
	if err := c.get(ctx, "/api/observations/"+url.PathEscape(slug), &resp); err != nil {
		return nil, err
	}
	return resp.Observations, nil
}

// Stats retrieves per-location averages.
func (c *Client) Stats(ctx context.Context) ([]LocationStats, error) {
	var resp struct {
		Locations []LocationStats `json:"locations"`
	}
	if err := c.get(ctx, "/api/stats", &resp); err != nil {
		return nil, err
	}
	return resp.Locations, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("building request for %s: %w", path, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("GET %s: %s (status %d)", path, apiErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("GET %s: unexpected status %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}
