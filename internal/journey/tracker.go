package journey

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"journey-tracker/internal/config"
	"journey-tracker/internal/metrics"
	"journey-tracker/internal/planner"
)

// State is the current derived output of a tracker. Attributes is empty
// exactly when no itinerary matched on the last successful poll; while
// paused the previous state is retained, not cleared.
type State struct {
	NextDeparture string            `json:"nextDeparture"`
	Attributes    map[string]string `json:"attributes"`
	Paused        bool              `json:"paused"`
}

// StatePublisher receives the outcome of every completed poll cycle,
// including cycles that produced no change.
type StatePublisher interface {
	PublishJourneyState(key, name string, state State) error
	PublishWindowState(key, name string, result WindowResult) error
}

// StopReference is a resolved stop. Numeric ids pass through untouched;
// names are resolved once at construction and cached for the tracker's
// lifetime, never re-resolved automatically.
type StopReference struct {
	DisplayName string
	StopID      string
}

func resolveStop(ctx context.Context, cli planner.Client, location string) (StopReference, error) {
	if isDecimal(location) {
		return StopReference{DisplayName: location, StopID: location}, nil
	}
	places, err := cli.ResolvePlace(ctx, location)
	if err != nil {
		return StopReference{}, err
	}
	return StopReference{DisplayName: location, StopID: places[0].GID}, nil
}

func isDecimal(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Tracker polls the trip planner for one configured route and keeps a
// compact departure state plus a rendered connection summary.
type Tracker struct {
	planner planner.Client
	pauses  *PauseStore
	pub     StatePublisher
	metrics *metrics.Collector

	key         string
	name        string
	origin      StopReference
	destination StopReference
	lines       []string
	delay       time.Duration
	loc         *time.Location

	throttle throttle

	mu    sync.RWMutex
	state State
}

// NewTracker resolves the route's stops and builds a tracker. A stop that
// cannot be resolved is fatal to this one tracker only.
func NewTracker(ctx context.Context, cli planner.Client, def config.RouteDefinition, index int, interval time.Duration,
	pauses *PauseStore, pub StatePublisher, mcol *metrics.Collector, loc *time.Location) (*Tracker, error) {

	name := def.Name
	if name == "" {
		name = fmt.Sprintf("Journey %d", index+1)
	}

	origin, err := resolveStop(ctx, cli, def.From)
	if err != nil {
		return nil, fmt.Errorf("resolve origin %q: %w", def.From, err)
	}
	destination, err := resolveStop(ctx, cli, def.Destination)
	if err != nil {
		return nil, fmt.Errorf("resolve destination %q: %w", def.Destination, err)
	}

	return &Tracker{
		planner:     cli,
		pauses:      pauses,
		pub:         pub,
		metrics:     mcol,
		key:         DeriveKey(def.From, def.Destination, def.Lines, index),
		name:        name,
		origin:      origin,
		destination: destination,
		lines:       append([]string(nil), def.Lines...),
		delay:       def.Delay(),
		loc:         loc,
		throttle:    throttle{interval: interval},
	}, nil
}

func (t *Tracker) Key() string  { return t.key }
func (t *Tracker) Name() string { return t.name }

// State returns a snapshot of the current derived state.
func (t *Tracker) State() State {
	t.mu.RLock()
	st := t.state
	t.mu.RUnlock()
	st.Paused = t.pauses.IsPaused(t.key)
	attrs := make(map[string]string, len(st.Attributes))
	for k, v := range st.Attributes {
		attrs[k] = v
	}
	st.Attributes = attrs
	return st
}

// Poll runs one update cycle. Early invocations are skipped by the
// throttle; while paused no client call is issued and the previous state
// is retained.
func (t *Tracker) Poll(ctx context.Context, now time.Time) {
	if !t.throttle.ready(now) {
		return
	}
	if t.pauses.IsPaused(t.key) {
		log.Printf("tracker %s: paused, skipping poll", t.name)
		return
	}

	start := time.Now()
	if t.metrics != nil {
		t.metrics.PollsTotal.Inc()
	}

	itins, err := t.planner.FetchTrips(ctx, t.origin.StopID, t.destination.StopID, now.Add(t.delay), planner.RelatesToDeparture)
	switch {
	case errors.Is(err, planner.ErrAuthExpired):
		// Stale-but-valid state is preferred over clearing. Refresh once;
		// no retry within this cycle.
		log.Printf("tracker %s: token expired, refreshing credentials", t.name)
		if t.metrics != nil {
			t.metrics.PollFailures.WithLabelValues("auth_expired").Inc()
			t.metrics.TokenRefreshes.Inc()
		}
		if rerr := t.planner.RefreshCredentials(ctx); rerr != nil {
			log.Printf("tracker %s: credential refresh failed: %v", t.name, rerr)
		}
	case err != nil:
		log.Printf("tracker %s: fetch trips failed: %v", t.name, err)
		if t.metrics != nil {
			t.metrics.PollFailures.WithLabelValues("transport").Inc()
		}
		t.replaceState(State{Attributes: map[string]string{}})
	default:
		t.applyResult(itins)
	}

	if t.metrics != nil {
		t.metrics.PollDuration.Observe(time.Since(start).Seconds())
	}
	t.publish()
}

func (t *Tracker) applyResult(itins []planner.Itinerary) {
	m, ok := Resolve(itins, t.lines)
	if !ok {
		log.Printf("no journeys from %s to %s", t.origin.DisplayName, t.destination.DisplayName)
		t.replaceState(State{Attributes: map[string]string{}})
		return
	}

	attrs := map[string]string{
		"line":            m.Line,
		"from":            t.origin.DisplayName,
		"to":              t.destination.DisplayName,
		"planned_arrival": m.PlannedArrival,
		"direction":       m.Direction,
		"connections":     m.ConnectionsText,
		"final_arrival":   m.FinalArrival,
	}
	// Absent data must not surface as visible empty attributes.
	for k, v := range attrs {
		if strings.TrimSpace(v) == "" {
			delete(attrs, k)
		}
	}
	t.replaceState(State{NextDeparture: m.DepartureDisplay, Attributes: attrs})
}

// replaceState swaps the whole snapshot so observers never see a partially
// updated state.
func (t *Tracker) replaceState(st State) {
	t.mu.Lock()
	t.state = st
	t.mu.Unlock()
}

func (t *Tracker) publish() {
	if t.pub == nil {
		return
	}
	if err := t.pub.PublishJourneyState(t.key, t.name, t.State()); err != nil {
		log.Printf("tracker %s: publish state: %v", t.name, err)
	}
}
