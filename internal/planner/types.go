package planner

// RelatesTo selects whether the query instant refers to the departure or
// the arrival side of a trip.
type RelatesTo string

const (
	RelatesToDeparture RelatesTo = "departure"
	RelatesToArrival   RelatesTo = "arrival"
)

// Place is one hit from a place-name lookup. The first hit is used by
// convention.
type Place struct {
	Name string `json:"name"`
	GID  string `json:"gid"`
}

type Line struct {
	ShortName string `json:"shortName"`
	Name      string `json:"name"`
}

type ServiceJourney struct {
	Line      Line   `json:"line"`
	Direction string `json:"direction"`
}

type StopPoint struct {
	Name string `json:"name"`
}

// Endpoint is one end of a leg. Upstream responses carry the stop name
// either directly or nested under stopPoint; both variants can be absent.
type Endpoint struct {
	Name      string     `json:"name"`
	StopPoint *StopPoint `json:"stopPoint"`
}

// DisplayName returns the endpoint's stop name, or "?" when the record
// carries none.
func (e *Endpoint) DisplayName() string {
	if e == nil {
		return "?"
	}
	if e.Name != "" {
		return e.Name
	}
	if e.StopPoint != nil && e.StopPoint.Name != "" {
		return e.StopPoint.Name
	}
	return "?"
}

// Leg is one vehicle boarding within an itinerary. ServiceJourney is nil
// for non-vehicle legs such as walks.
type Leg struct {
	ServiceJourney       *ServiceJourney `json:"serviceJourney"`
	Origin               *Endpoint       `json:"origin"`
	Destination          *Endpoint       `json:"destination"`
	PlannedDepartureTime string          `json:"plannedDepartureTime"`
	PlannedArrivalTime   string          `json:"plannedArrivalTime"`
}

// Itinerary is one complete planned trip. Results arrive ranked by the
// upstream API; earliest-first is assumed but not guaranteed.
type Itinerary struct {
	Legs []Leg `json:"tripLegs"`
}
