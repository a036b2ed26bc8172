// Package collect orchestrates one collection run: fan out over the
// location list, fetch and aggregate each location's day, and persist the
// results. A single location's failure never aborts the run; the next
// scheduled run is the retry.
package collect

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jwclark94/backninescrape/internal/aggregate"
	"github.com/jwclark94/backninescrape/internal/b9api"
	"github.com/jwclark94/backninescrape/internal/config"
	"github.com/jwclark94/backninescrape/internal/domain"
	"github.com/jwclark94/backninescrape/internal/store"
	"github.com/jwclark94/backninescrape/internal/util"
)

// EventSource is the remote booking site as the collector sees it.
type EventSource interface {
	// Locations discovers the bookable locations.
	Locations(ctx context.Context) ([]domain.Location, error)

	// Events fetches the raw booking events for one location's day.
	Events(ctx context.Context, slug, tz string, window domain.DayWindow) ([]domain.BookingEvent, error)
}

// Collector runs the per-location collection loop and persists the
// results.
type Collector struct {
	source  EventSource
	obs     store.ObservationStore
	maxes   store.DailyMaxStore
	archive store.EventArchive // nil disables raw event archiving

	cfg     config.Collect
	limiter *util.RateLimiter
	log     *slog.Logger
}

// New creates a Collector. archive may be nil.
func New(source EventSource, obs store.ObservationStore, maxes store.DailyMaxStore, archive store.EventArchive, cfg config.Collect) *Collector {
	return &Collector{
		source:  source,
		obs:     obs,
		maxes:   maxes,
		archive: archive,
		cfg:     cfg,
		limiter: util.NewRateLimiter(cfg.RateLimitPerMin),
		log:     slog.Default().With("component", "collector"),
	}
}

// Run executes one collection run at the given wall-clock time. Location
// discovery failure fails the whole run; anything after that is isolated
// per location. The returned report lists every attempted location with
// its total or failure reason.
func (c *Collector) Run(ctx context.Context, now time.Time) (domain.RunReport, error) {
	report := domain.RunReport{StartedAt: now}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.RunTimeout())
	defer cancel()

	// Discovery is the one call worth retrying inside a run: without the
	// location list there is no run at all.
	var locations []domain.Location
	err := util.Retry(ctx, 3, 2*time.Second, func() error {
		var lerr error
		locations, lerr = c.source.Locations(ctx)
		return lerr
	})
	if err != nil {
		return report, fmt.Errorf("discovering locations: %w", err)
	}

	c.log.Info("starting run", "locations", len(locations))

	// Apply the local-time gate before fanning out.
	work := make([]domain.Location, 0, len(locations))
	for _, loc := range locations {
		if loc.Slug == "" {
			continue
		}
		if c.cfg.Gate.Enabled {
			tz := b9api.TimezoneFor(loc.Slug)
			if !ShouldCollectNow(now, tz, c.cfg.Gate.Hour, c.cfg.Gate.Minute, c.cfg.Gate.ToleranceMins) {
				report.Skipped++
				continue
			}
		}
		work = append(work, loc)
	}

	locCh := make(chan domain.Location, len(work))
	for _, loc := range work {
		locCh <- loc
	}
	close(locCh)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results []domain.LocationResult
	)

	workers := c.cfg.MaxWorkers
	if workers > len(work) {
		workers = len(work)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for loc := range locCh {
				res := c.collectLocation(ctx, loc, now)
				mu.Lock()
				results = append(results, res)
				mu.Unlock()

				if res.Failed() {
					c.log.Error("location failed",
						"slug", loc.Slug,
						"err", res.Err,
					)
				} else {
					c.log.Info("location collected",
						"slug", loc.Slug,
						"tz", res.Timezone,
						"hours", fmt.Sprintf("%.2f", res.Total.Hours),
						"events", res.Events,
					)
				}
			}
		}()
	}
	wg.Wait()

	report.Results = results
	report.Elapsed = time.Since(now)

	c.log.Info("run complete",
		"succeeded", report.Succeeded(),
		"failed", report.Failed(),
		"skipped", report.Skipped,
		"elapsed", report.Elapsed.Round(time.Second),
	)
	return report, nil
}

// collectLocation fetches, aggregates, and persists one location's day.
func (c *Collector) collectLocation(ctx context.Context, loc domain.Location, now time.Time) domain.LocationResult {
	res := domain.LocationResult{Location: loc}

	// A run past its deadline treats every still-pending location as
	// failed; the next run picks them up.
	if ctx.Err() != nil {
		res.Err = fmt.Errorf("run deadline exceeded: %w", ctx.Err())
		return res
	}

	tzName := b9api.TimezoneFor(loc.Slug)
	res.Timezone = tzName

	tzLoc, err := time.LoadLocation(tzName)
	if err != nil {
		res.Err = fmt.Errorf("loading timezone %s: %w", tzName, err)
		return res
	}
	window := domain.NewDayWindow(now.In(tzLoc), tzLoc)

	if err := c.limiter.Wait(ctx); err != nil {
		res.Err = fmt.Errorf("run deadline exceeded: %w", err)
		return res
	}

	events, err := c.source.Events(ctx, loc.Slug, tzName, window)
	if err != nil {
		res.Err = err
		return res
	}
	res.Events = len(events)

	hours := aggregate.TotalBookedHours(events, window, c.cfg.ExcludeTitle)
	total := domain.DailyTotal{
		Location:   loc,
		Day:        window.DateString(),
		Hours:      hours,
		ComputedAt: now,
	}
	res.Total = total

	// Persistence failures abort this location's write but not the run.
	if err := c.obs.Append(ctx, total); err != nil {
		res.Err = fmt.Errorf("appending observation: %w", err)
		return res
	}
	if err := c.maxes.Merge(ctx, total); err != nil {
		res.Err = fmt.Errorf("merging daily max: %w", err)
		return res
	}

	// The archive is best-effort: losing a raw snapshot does not lose the
	// run's purpose for this location.
	if c.archive != nil {
		if err := c.archive.Archive(ctx, loc.Slug, total.Day, events); err != nil {
			c.log.Warn("archiving events", "slug", loc.Slug, "err", err)
		}
	}

	return res
}
