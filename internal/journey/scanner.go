package journey

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"journey-tracker/internal/config"
	"journey-tracker/internal/metrics"
	"journey-tracker/internal/planner"
)

// sampleStep is the fixed window sampling granularity. The upstream API
// only returns trips relative to a query instant, so dense sampling
// approximates "all departures in window" without a range endpoint.
const sampleStep = 5 * time.Minute

type WindowJourney struct {
	Departure string `json:"departure"`
	Arrival   string `json:"arrival"`
	Line      string `json:"line"`
	Direction string `json:"direction"`
}

// WindowResult is rebuilt wholesale on every scan; there is no incremental
// merge. Itineraries visible from adjacent sample instants are counted
// twice — a known oversampling trade-off, kept as-is.
type WindowResult struct {
	Count    int             `json:"count"`
	Journeys []WindowJourney `json:"journeys"`
}

// WindowScanner aggregates all itineraries matching a line filter across a
// recurring daily time window.
type WindowScanner struct {
	planner planner.Client
	pub     StatePublisher
	metrics *metrics.Collector

	key         string
	name        string
	origin      string
	destination string
	lines       []string
	startHour   int
	startMin    int
	endHour     int
	endMin      int
	relatesTo   planner.RelatesTo
	loc         *time.Location

	throttle throttle

	mu     sync.RWMutex
	result WindowResult
}

func NewWindowScanner(def config.WindowDefinition, index int, interval time.Duration,
	cli planner.Client, pub StatePublisher, mcol *metrics.Collector, loc *time.Location) (*WindowScanner, error) {

	start, err := time.Parse("15:04", def.StartTime)
	if err != nil {
		return nil, fmt.Errorf("invalid start_time %q: %w", def.StartTime, err)
	}
	end, err := time.Parse("15:04", def.EndTime)
	if err != nil {
		return nil, fmt.Errorf("invalid end_time %q: %w", def.EndTime, err)
	}

	name := def.Name
	if name == "" {
		name = fmt.Sprintf("Journeys %s to %s", def.From, def.Destination)
	}

	return &WindowScanner{
		planner:     cli,
		pub:         pub,
		metrics:     mcol,
		key:         WindowKey(def.From, def.Destination, def.StartTime, def.EndTime, def.RelatesTo(), index),
		name:        name,
		origin:      def.From,
		destination: def.Destination,
		lines:       append([]string(nil), def.Lines...),
		startHour:   start.Hour(),
		startMin:    start.Minute(),
		endHour:     end.Hour(),
		endMin:      end.Minute(),
		relatesTo:   planner.RelatesTo(def.RelatesTo()),
		loc:         loc,
		throttle:    throttle{interval: interval},
	}, nil
}

func (s *WindowScanner) Key() string  { return s.key }
func (s *WindowScanner) Name() string { return s.name }

// Result returns the latest aggregated window state.
func (s *WindowScanner) Result() WindowResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := WindowResult{Count: s.result.Count}
	out.Journeys = append(out.Journeys, s.result.Journeys...)
	return out
}

// Poll runs one scan cycle, gated by the same throttle rule as trackers.
func (s *WindowScanner) Poll(ctx context.Context, now time.Time) {
	if !s.throttle.ready(now) {
		return
	}

	start := time.Now()
	journeys := s.scan(ctx, now)
	if s.metrics != nil {
		s.metrics.ScanDuration.Observe(time.Since(start).Seconds())
	}

	s.mu.Lock()
	s.result = WindowResult{Count: len(journeys), Journeys: journeys}
	s.mu.Unlock()

	if s.pub != nil {
		if err := s.pub.PublishWindowState(s.key, s.name, s.Result()); err != nil {
			log.Printf("window %s: publish state: %v", s.name, err)
		}
	}
}

// scan samples today's [start, end] wall-clock window every 5 minutes,
// inclusive. The window does not roll over midnight. Per-sample failures
// are logged and skipped; they never abort the scan.
func (s *WindowScanner) scan(ctx context.Context, now time.Time) []WindowJourney {
	local := now.In(s.loc)
	y, m, d := local.Date()
	cur := time.Date(y, m, d, s.startHour, s.startMin, 0, 0, s.loc)
	end := time.Date(y, m, d, s.endHour, s.endMin, 0, 0, s.loc)

	var journeys []WindowJourney
	for !cur.After(end) {
		itins, err := s.planner.FetchTrips(ctx, s.origin, s.destination, cur, s.relatesTo)
		if err != nil {
			if errors.Is(err, planner.ErrAuthExpired) {
				if s.metrics != nil {
					s.metrics.TokenRefreshes.Inc()
				}
				if rerr := s.planner.RefreshCredentials(ctx); rerr != nil {
					log.Printf("window %s: credential refresh failed: %v", s.name, rerr)
				}
			}
			log.Printf("window %s: sample at %s failed: %v", s.name, cur.Format("15:04"), err)
			if s.metrics != nil {
				s.metrics.ScanSampleFailures.Inc()
			}
			cur = cur.Add(sampleStep)
			continue
		}
		for _, itin := range itins {
			leg, ok := servicePrimaryLeg(itin)
			if !ok {
				continue
			}
			if !lineMatches(leg, s.lines) {
				continue
			}
			journeys = append(journeys, WindowJourney{
				Departure: leg.PlannedDepartureTime,
				Arrival:   leg.PlannedArrivalTime,
				Line:      leg.ServiceJourney.Line.ShortName,
				Direction: leg.ServiceJourney.Direction,
			})
		}
		cur = cur.Add(sampleStep)
	}
	return journeys
}
