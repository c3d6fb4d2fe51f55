package config

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
)

// RouteDefinition describes one tracked point-to-point journey. Values are
// immutable after load; a configuration change produces a fresh set of
// definitions rather than mutating these in place.
type RouteDefinition struct {
	From        string   `toml:"from"`
	Destination string   `toml:"destination"`
	Lines       []string `toml:"lines"`
	Name        string   `toml:"name"`
	// DelayMinutes is added to "now" before querying, to account for the
	// walk to the stop.
	DelayMinutes int `toml:"delay"`
}

// WindowDefinition describes one recurring daily time window to scan for
// matching journeys.
type WindowDefinition struct {
	From        string   `toml:"from"`
	Destination string   `toml:"destination"`
	Lines       []string `toml:"lines"`
	Name        string   `toml:"name"`
	StartTime   string   `toml:"start_time"` // "HH:MM"
	EndTime     string   `toml:"end_time"`   // "HH:MM"
	// TimeRelatesTo is "departure" or "arrival"; defaults to "departure".
	TimeRelatesTo string `toml:"time_relates_to"`
}

type RoutesFile struct {
	Departures   []RouteDefinition  `toml:"departures"`
	JourneyLists []WindowDefinition `toml:"journey_lists"`
}

// LoadRoutes reads and validates the route definitions file.
func LoadRoutes(path string) (*RoutesFile, error) {
	var rf RoutesFile
	if _, err := toml.DecodeFile(path, &rf); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if err := rf.Validate(); err != nil {
		return nil, err
	}
	return &rf, nil
}

func (rf *RoutesFile) Validate() error {
	for i, d := range rf.Departures {
		if d.From == "" || d.Destination == "" {
			return fmt.Errorf("departures[%d]: from and destination are required", i)
		}
		if d.DelayMinutes < 0 {
			return fmt.Errorf("departures[%d]: delay must not be negative", i)
		}
	}
	for i, w := range rf.JourneyLists {
		if w.From == "" || w.Destination == "" {
			return fmt.Errorf("journey_lists[%d]: from and destination are required", i)
		}
		if _, err := time.Parse("15:04", w.StartTime); err != nil {
			return fmt.Errorf("journey_lists[%d]: invalid start_time %q", i, w.StartTime)
		}
		if _, err := time.Parse("15:04", w.EndTime); err != nil {
			return fmt.Errorf("journey_lists[%d]: invalid end_time %q", i, w.EndTime)
		}
		switch w.TimeRelatesTo {
		case "", "departure", "arrival":
		default:
			return fmt.Errorf("journey_lists[%d]: time_relates_to must be departure or arrival", i)
		}
	}
	return nil
}

// RelatesTo returns the direction sense, applying the departure default.
func (w WindowDefinition) RelatesTo() string {
	if w.TimeRelatesTo == "" {
		return "departure"
	}
	return w.TimeRelatesTo
}

// Delay returns the lead time as a duration.
func (d RouteDefinition) Delay() time.Duration {
	return time.Duration(d.DelayMinutes) * time.Minute
}
