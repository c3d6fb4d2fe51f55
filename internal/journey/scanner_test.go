package journey

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"journey-tracker/internal/config"
	"journey-tracker/internal/planner"
)

var windowDef = config.WindowDefinition{
	From:        "9021001",
	Destination: "9021002",
	StartTime:   "08:00",
	EndTime:     "08:10",
}

func newTestScanner(t *testing.T, def config.WindowDefinition, cli planner.Client, pub StatePublisher) *WindowScanner {
	t.Helper()
	s, err := NewWindowScanner(def, 0, 120*time.Second, cli, pub, nil, time.UTC)
	require.NoError(t, err)
	return s
}

func TestWindowScannerSamplesEveryFiveMinutesInclusive(t *testing.T) {
	fp := &fakePlanner{fetch: func(at time.Time, relatesTo planner.RelatesTo) ([]planner.Itinerary, error) {
		return matchingItineraries(), nil
	}}
	s := newTestScanner(t, windowDef, fp, nil)

	now := time.Date(2024, 5, 1, 7, 30, 0, 0, time.UTC)
	s.Poll(context.Background(), now)

	require.Equal(t, 3, fp.fetchCount())
	assert.Equal(t, time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC), fp.fetchCalls[0])
	assert.Equal(t, time.Date(2024, 5, 1, 8, 5, 0, 0, time.UTC), fp.fetchCalls[1])
	assert.Equal(t, time.Date(2024, 5, 1, 8, 10, 0, 0, time.UTC), fp.fetchCalls[2])

	res := s.Result()
	assert.Equal(t, 3, res.Count)
	assert.Len(t, res.Journeys, 3)
	assert.Equal(t, "55", res.Journeys[0].Line)
}

func TestWindowScannerDoesNotDeduplicate(t *testing.T) {
	// Adjacent samples returning the same itinerary double-count it; this
	// oversampling trade-off is intentional.
	fp := &fakePlanner{fetch: func(at time.Time, relatesTo planner.RelatesTo) ([]planner.Itinerary, error) {
		return matchingItineraries(), nil
	}}
	s := newTestScanner(t, windowDef, fp, nil)

	s.Poll(context.Background(), time.Date(2024, 5, 1, 7, 30, 0, 0, time.UTC))

	res := s.Result()
	assert.Equal(t, res.Journeys[0], res.Journeys[1])
	assert.Equal(t, 3, res.Count)
}

func TestWindowScannerSampleFailureSkipped(t *testing.T) {
	fp := &fakePlanner{}
	fp.fetch = func(at time.Time, relatesTo planner.RelatesTo) ([]planner.Itinerary, error) {
		if at.Minute() == 5 {
			return nil, &planner.TransportError{Op: "journeys", Err: fmt.Errorf("timeout")}
		}
		return matchingItineraries(), nil
	}
	s := newTestScanner(t, windowDef, fp, nil)

	s.Poll(context.Background(), time.Date(2024, 5, 1, 7, 30, 0, 0, time.UTC))

	// The failing 08:05 sample is skipped; the scan itself is not aborted.
	assert.Equal(t, 3, fp.fetchCount())
	assert.Equal(t, 2, s.Result().Count)
}

func TestWindowScannerAuthExpiredTriggersRefresh(t *testing.T) {
	fp := &fakePlanner{fetch: func(at time.Time, relatesTo planner.RelatesTo) ([]planner.Itinerary, error) {
		return nil, planner.ErrAuthExpired
	}}
	s := newTestScanner(t, windowDef, fp, nil)

	s.Poll(context.Background(), time.Date(2024, 5, 1, 7, 30, 0, 0, time.UTC))

	assert.Equal(t, 3, fp.refreshes)
	assert.Equal(t, 0, s.Result().Count)
}

func TestWindowScannerLineFilter(t *testing.T) {
	fp := &fakePlanner{fetch: func(at time.Time, relatesTo planner.RelatesTo) ([]planner.Itinerary, error) {
		return []planner.Itinerary{
			itin(leg("55", "A", "B", "2024-05-01T08:00:00+02:00", "2024-05-01T08:15:00+02:00")),
			itin(leg("16", "A", "B", "2024-05-01T08:02:00+02:00", "2024-05-01T08:18:00+02:00")),
			{Legs: []planner.Leg{{Origin: &planner.Endpoint{Name: "A"}}}}, // no service journey, skipped
		}, nil
	}}
	def := windowDef
	def.EndTime = "08:00" // single sample
	def.Lines = []string{"16"}
	s := newTestScanner(t, def, fp, nil)

	s.Poll(context.Background(), time.Date(2024, 5, 1, 7, 30, 0, 0, time.UTC))

	res := s.Result()
	require.Equal(t, 1, res.Count)
	assert.Equal(t, "16", res.Journeys[0].Line)
}

func TestWindowScannerUsesRelatesTo(t *testing.T) {
	var seen planner.RelatesTo
	fp := &fakePlanner{fetch: func(at time.Time, relatesTo planner.RelatesTo) ([]planner.Itinerary, error) {
		seen = relatesTo
		return nil, nil
	}}
	def := windowDef
	def.EndTime = "08:00"
	def.TimeRelatesTo = "arrival"
	s := newTestScanner(t, def, fp, nil)

	s.Poll(context.Background(), time.Date(2024, 5, 1, 7, 30, 0, 0, time.UTC))
	assert.Equal(t, planner.RelatesToArrival, seen)
}

func TestWindowScannerResultReplacedWholesale(t *testing.T) {
	calls := 0
	fp := &fakePlanner{}
	fp.fetch = func(at time.Time, relatesTo planner.RelatesTo) ([]planner.Itinerary, error) {
		calls++
		if calls <= 3 {
			return matchingItineraries(), nil
		}
		return nil, nil
	}
	pub := &capturePublisher{}
	s := newTestScanner(t, windowDef, fp, pub)

	now := time.Date(2024, 5, 1, 7, 30, 0, 0, time.UTC)
	s.Poll(context.Background(), now)
	assert.Equal(t, 3, s.Result().Count)

	s.Poll(context.Background(), now.Add(3*time.Minute))
	assert.Equal(t, 3, s.Result().Count, "early poll skipped by throttle")

	s.Poll(context.Background(), now.Add(3*time.Minute).Add(120*time.Second))
	assert.Equal(t, 0, s.Result().Count, "result is rebuilt, not merged")
	assert.Len(t, pub.windows, 2)
}

func TestWindowScannerRejectsBadTimes(t *testing.T) {
	def := windowDef
	def.StartTime = "8 o'clock"
	_, err := NewWindowScanner(def, 0, 120*time.Second, &fakePlanner{}, nil, nil, time.UTC)
	assert.Error(t, err)
}
