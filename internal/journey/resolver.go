package journey

import (
	"fmt"
	"log"
	"strings"
	"time"

	"journey-tracker/internal/planner"
)

// Match is the itinerary selected by Resolve, rendered for display.
type Match struct {
	Line             string
	Direction        string
	PlannedDeparture string // raw upstream timestamp
	PlannedArrival   string // raw upstream timestamp
	DepartureDisplay string // HH:MM, or raw on parse failure
	ConnectionsText  string
	FinalArrival     string // HH:MM, or raw on parse failure
}

// Resolve scans itineraries in input order and returns the first whose
// primary leg passes the line filter. An empty filter matches any
// itinerary with at least one leg. First match wins; ranking beyond that
// is left to the upstream API.
func Resolve(itineraries []planner.Itinerary, lineFilter []string) (*Match, bool) {
	for _, itin := range itineraries {
		if len(itin.Legs) == 0 {
			continue
		}
		primary := primaryLeg(itin.Legs)
		if !lineMatches(primary, lineFilter) {
			continue
		}

		m := &Match{
			PlannedDeparture: primary.PlannedDepartureTime,
			PlannedArrival:   primary.PlannedArrivalTime,
			DepartureDisplay: formatClock(primary.PlannedDepartureTime),
			ConnectionsText:  renderConnections(itin.Legs),
			FinalArrival:     formatClock(itin.Legs[len(itin.Legs)-1].PlannedArrivalTime),
		}
		if sj := primary.ServiceJourney; sj != nil {
			m.Line = sj.Line.ShortName
			m.Direction = sj.Direction
		}
		return m, true
	}
	return nil, false
}

// primaryLeg picks the leg that represents the itinerary: the first one
// carrying a service journey, or the first leg when none does.
func primaryLeg(legs []planner.Leg) planner.Leg {
	for _, l := range legs {
		if l.ServiceJourney != nil {
			return l
		}
	}
	return legs[0]
}

// servicePrimaryLeg is the stricter variant used by window scanning: an
// itinerary with no service-journey leg is skipped outright.
func servicePrimaryLeg(itin planner.Itinerary) (planner.Leg, bool) {
	for _, l := range itin.Legs {
		if l.ServiceJourney != nil {
			return l, true
		}
	}
	return planner.Leg{}, false
}

func lineMatches(leg planner.Leg, lineFilter []string) bool {
	if len(lineFilter) == 0 {
		return true
	}
	var short string
	if leg.ServiceJourney != nil {
		short = leg.ServiceJourney.Line.ShortName
	}
	for _, l := range lineFilter {
		if l == short {
			return true
		}
	}
	return false
}

func renderConnections(legs []planner.Leg) string {
	lines := make([]string, 0, len(legs))
	for i, leg := range legs {
		from := leg.Origin.DisplayName()
		to := leg.Destination.DisplayName()
		if from == "?" || to == "?" {
			log.Printf("leg %d missing stop name (from=%q to=%q)", i+1, from, to)
		}
		lines = append(lines, fmt.Sprintf("%d. %s from %s to %s (%s→%s)",
			i+1, legLineName(leg), from, to,
			clockSubstring(leg.PlannedDepartureTime),
			clockSubstring(leg.PlannedArrivalTime)))
	}
	return strings.Join(lines, "\n")
}

func legLineName(leg planner.Leg) string {
	if leg.ServiceJourney != nil {
		if s := leg.ServiceJourney.Line.ShortName; s != "" {
			return s
		}
		if n := leg.ServiceJourney.Line.Name; n != "" {
			return n
		}
	}
	return "?"
}

// formatClock renders an ISO timestamp as HH:MM. Malformed timestamps pass
// through unchanged rather than failing the cycle.
func formatClock(ts string) string {
	if ts == "" {
		return ""
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, ts); err == nil {
			return t.Format("15:04")
		}
	}
	return ts
}

// clockSubstring extracts the HH:MM portion of an ISO timestamp. Short or
// missing values pass through unchanged.
func clockSubstring(ts string) string {
	if len(ts) >= 16 {
		return ts[11:16]
	}
	return ts
}
