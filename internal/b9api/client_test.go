package b9api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jwclark94/backninescrape/internal/domain"
)

func TestLocations(t *testing.T) {
	var primed bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/":
			primed = true
			http.SetCookie(w, &http.Cookie{Name: "session", Value: "abc"})
			w.Write([]byte("<html></html>"))
		case "/api/locations/":
			if r.Header.Get("X-Bng-User") != `{"public":true}` {
				t.Errorf("missing X-Bng-User header")
			}
			if r.Header.Get("X-Requested-With") != "XMLHttpRequest" {
				t.Errorf("missing X-Requested-With header")
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"locations":[{"slug":"mesa-az","title":"Mesa"},{"slug":"plano-tx","title":"Plano"}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)
	locs, err := c.Locations(context.Background())
	if err != nil {
		t.Fatalf("Locations: %v", err)
	}
	if !primed {
		t.Error("session was not primed before the locations call")
	}
	if len(locs) != 2 {
		t.Fatalf("got %d locations, want 2", len(locs))
	}
	if locs[0].Slug != "mesa-az" || locs[0].City != "Mesa" {
		t.Errorf("first location = %+v", locs[0])
	}
}

func TestLocationsFallsBackToBareURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/":
			w.Write([]byte("ok"))
		case "/api/locations/":
			w.WriteHeader(http.StatusForbidden)
		case "/api/locations":
			w.Write([]byte(`[{"slug":"omaha-ne","title":"Omaha"}]`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)
	locs, err := c.Locations(context.Background())
	if err != nil {
		t.Fatalf("Locations: %v", err)
	}
	if len(locs) != 1 || locs[0].Slug != "omaha-ne" {
		t.Fatalf("locations = %+v, want single omaha-ne", locs)
	}
}

func TestLocationsAllShapesFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			w.Write([]byte("ok"))
			return
		}
		w.Write([]byte(`{"unexpected":42}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)
	if _, err := c.Locations(context.Background()); err == nil {
		t.Fatal("Locations should fail when no shape matches")
	}
}

func TestEvents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/bookings/fetch_events" {
			http.NotFound(w, r)
			return
		}
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if got := r.Header.Get("X-Location-Slug"); got != "plano-tx" {
			t.Errorf("X-Location-Slug = %q", got)
		}
		if got := r.Header.Get("X-U-Tz"); got != "America/Chicago" {
			t.Errorf("X-U-Tz = %q", got)
		}
		if got := r.Header.Get("Content-Type"); got != "text/plain;charset=UTF-8" {
			t.Errorf("Content-Type = %q", got)
		}
		w.Write([]byte(`[
			{"id":1,"title":"Bay 1","start":"2024-06-15T10:00:00","end":"2024-06-15T11:30:00"},
			{"id":2,"name":"Bay 2","start":"2024-06-15T10:00:00-05:00","end":"2024-06-15T11:00:00-05:00"},
			{"id":3,"title":"broken","start":"???","end":"2024-06-15T12:00:00"}
		]`))
	}))
	defer srv.Close()

	chicago, err := time.LoadLocation("America/Chicago")
	if err != nil {
		t.Fatalf("loading tz: %v", err)
	}
	window := domain.NewDayWindow(time.Date(2024, 6, 15, 12, 0, 0, 0, chicago), chicago)

	c := NewClient(srv.URL, 5*time.Second)
	events, err := c.Events(context.Background(), "plano-tx", "America/Chicago", window)
	if err != nil {
		t.Fatalf("Events: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}

	// Naive timestamps parse in the location's zone.
	want := time.Date(2024, 6, 15, 10, 0, 0, 0, chicago)
	if !events[0].Start.Equal(want) {
		t.Errorf("event 0 start = %v, want %v", events[0].Start, want)
	}
	// "name" is accepted as the label field.
	if events[1].Title != "Bay 2" {
		t.Errorf("event 1 title = %q, want Bay 2", events[1].Title)
	}
	// Unparseable start stays zero so the aggregator skips it.
	if !events[2].Start.IsZero() {
		t.Errorf("event 2 start = %v, want zero", events[2].Start)
	}
}

func TestEventsNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)
	window := domain.NewDayWindow(time.Now(), time.UTC)
	if _, err := c.Events(context.Background(), "mesa-az", "America/Phoenix", window); err == nil {
		t.Fatal("Events should fail on non-2xx status")
	}
}
