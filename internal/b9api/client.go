// Package b9api is the HTTP client for the book.b9.golf booking site: it
// primes a browser-like session, discovers the location list, and fetches
// the raw booking events for a location's day.
package b9api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strconv"
	"time"

	"github.com/jwclark94/backninescrape/internal/domain"
)

// Client talks to the booking site. It keeps a cookie jar because the site
// only answers API calls from a primed session.
type Client struct {
	baseURL    string
	httpClient *http.Client

	primed bool
}

// NewClient creates a Client for the given base URL with the given
// per-request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	jar, _ := cookiejar.New(nil)
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
			Jar:     jar,
		},
	}
}

// baseHeaders returns the browser-like headers the site expects on every
// request.
func (c *Client) baseHeaders() http.Header {
	h := http.Header{}
	h.Set("User-Agent", "Mozilla/5.0")
	h.Set("Accept", "application/json, text/plain, */*")
	h.Set("Referer", c.baseURL+"/")
	h.Set("Origin", c.baseURL)
	h.Set("Connection", "keep-alive")
	return h
}

// Prime fetches the site home page once to populate session cookies.
// Subsequent calls are no-ops.
func (c *Client) Prime(ctx context.Context) error {
	if c.primed {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return err
	}
	req.Header = c.baseHeaders()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("priming session: %w", err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	c.primed = true
	return nil
}

// Locations discovers the bookable locations. The site has served the list
// in several response shapes over time, so the body is run through an
// ordered chain of shape matchers; both the trailing-slash and bare URL
// variants are tried.
func (c *Client) Locations(ctx context.Context) ([]domain.Location, error) {
	if err := c.Prime(ctx); err != nil {
		return nil, err
	}

	var lastErr error
	for _, u := range []string{c.baseURL + "/api/locations/", c.baseURL + "/api/locations"} {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header = c.baseHeaders()
		req.Header.Set("X-Bng-User", `{"public":true}`)
		req.Header.Set("X-Requested-With", "XMLHttpRequest")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("locations: status %d", resp.StatusCode)
			continue
		}

		var payload any
		if err := json.Unmarshal(body, &payload); err != nil {
			lastErr = fmt.Errorf("locations: decoding body: %w", err)
			continue
		}

		if locs := extractLocations(payload); len(locs) > 0 {
			return locs, nil
		}
		lastErr = errNoLocations
	}

	if lastErr == nil {
		lastErr = errNoLocations
	}
	return nil, lastErr
}

// Events fetches the raw booking events for one location's calendar day.
// The request body carries naive local timestamps spanning the day; the
// location and timezone travel in custom headers.
func (c *Client) Events(ctx context.Context, slug, tz string, window domain.DayWindow) ([]domain.BookingEvent, error) {
	payload := struct {
		Start string `json:"start"`
		End   string `json:"end"`
	}{
		Start: window.Start.Format("2006-01-02T15:04:05"),
		End:   window.End.Format("2006-01-02T15:04:05"),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/bookings/fetch_events", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header = c.baseHeaders()
	req.Header.Set("Content-Type", "text/plain;charset=UTF-8")
	req.Header.Set("X-Location-Slug", slug)
	req.Header.Set("X-U-Tz", tz)
	req.Header.Set("X-Bng-User", `{"public":true}`)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching events for %s: %w", slug, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetching events for %s: status %d", slug, resp.StatusCode)
	}

	var wire []wireEvent
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, fmt.Errorf("decoding events for %s: %w", slug, err)
	}

	// Naive wire timestamps are local to the location; parse them in the
	// location's zone so they land on the same absolute timeline as the
	// day window.
	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc = time.UTC
	}

	events := make([]domain.BookingEvent, 0, len(wire))
	for _, w := range wire {
		events = append(events, w.toDomain(loc))
	}
	return events, nil
}

// wireEvent is the on-the-wire event shape. The site has used both "title"
// and "name" for the label; timestamps are strings in a handful of layouts.
type wireEvent struct {
	ID    any    `json:"id"` // number or string depending on site version
	Title string `json:"title"`
	Name  string `json:"name"`
	Start string `json:"start"`
	End   string `json:"end"`
}

func (w wireEvent) toDomain(loc *time.Location) domain.BookingEvent {
	title := w.Title
	if title == "" {
		title = w.Name
	}

	var id string
	switch v := w.ID.(type) {
	case string:
		id = v
	case float64:
		id = strconv.FormatFloat(v, 'f', -1, 64)
	}

	return domain.BookingEvent{
		ID:    id,
		Title: title,
		Start: parseEventTime(w.Start, loc),
		End:   parseEventTime(w.End, loc),
	}
}

// zonedTimeLayouts carry their own offset; naiveTimeLayouts are interpreted
// in the location's zone.
var zonedTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
}

var naiveTimeLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseEventTime parses an event timestamp, returning the zero time when
// the field is missing or in no known layout so the aggregator can skip
// the event.
func parseEventTime(s string, loc *time.Location) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range zonedTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	for _, layout := range naiveTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t
		}
	}
	return time.Time{}
}
