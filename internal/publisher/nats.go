package publisher

import (
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"journey-tracker/internal/journey"
)

// NATSPublisher pushes per-cycle journey and window state snapshots to
// NATS for downstream consumers. It implements journey.StatePublisher.
type NATSPublisher struct {
	nc          *nats.Conn
	logSubjects bool
	metrics     PublisherMetrics
}

type PublisherMetrics interface {
	NATSPublishedInc()
	NATSPublishErrInc()
	PublishObserve(d time.Duration)
	NATSSetConnected(connected bool)
}

func NewNATSPublisher(url string, logSubjects bool, m PublisherMetrics) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("journey-tracker"),
		nats.DisconnectHandler(func(_ *nats.Conn) {
			if m != nil {
				m.NATSSetConnected(false)
			}
			log.Printf("nats disconnected")
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			if m != nil {
				m.NATSSetConnected(true)
			}
			log.Printf("nats reconnected")
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			if m != nil {
				m.NATSSetConnected(false)
			}
			log.Printf("nats closed")
		}),
	)
	if err != nil {
		return nil, err
	}
	if m != nil {
		m.NATSSetConnected(true)
	}
	return &NATSPublisher{nc: nc, logSubjects: logSubjects, metrics: m}, nil
}

func (p *NATSPublisher) Close() {
	if p.nc != nil {
		p.nc.Drain()
		p.nc.Close()
	}
}

type JourneyStateMessage struct {
	Key           string            `json:"key"`
	Name          string            `json:"name"`
	NextDeparture string            `json:"nextDeparture"`
	Attributes    map[string]string `json:"attributes"`
	Paused        bool              `json:"paused"`
	Timestamp     time.Time         `json:"timestamp"`
}

type WindowStateMessage struct {
	Key       string                  `json:"key"`
	Name      string                  `json:"name"`
	Count     int                     `json:"count"`
	Journeys  []journey.WindowJourney `json:"journeys"`
	Timestamp time.Time               `json:"timestamp"`
}

func (p *NATSPublisher) PublishJourneyState(key, name string, state journey.State) error {
	return p.publish("journeys."+subjectToken(key), JourneyStateMessage{
		Key:           key,
		Name:          name,
		NextDeparture: state.NextDeparture,
		Attributes:    state.Attributes,
		Paused:        state.Paused,
		Timestamp:     time.Now(),
	})
}

func (p *NATSPublisher) PublishWindowState(key, name string, result journey.WindowResult) error {
	return p.publish("windows."+subjectToken(key), WindowStateMessage{
		Key:       key,
		Name:      name,
		Count:     result.Count,
		Journeys:  result.Journeys,
		Timestamp: time.Now(),
	})
}

func (p *NATSPublisher) publish(subject string, msg any) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if p.logSubjects {
		log.Printf("nats publish subject=%s", subject)
	}
	start := time.Now()
	err = p.nc.Publish(subject, b)
	if p.metrics != nil {
		p.metrics.PublishObserve(time.Since(start))
		if err != nil {
			p.metrics.NATSPublishErrInc()
		} else {
			p.metrics.NATSPublishedInc()
		}
	}
	return err
}

func subjectToken(s string) string {
	s = strings.TrimSpace(s)
	// NATS token cannot contain spaces, '>', '*', or trailing '.'
	repl := strings.NewReplacer(" ", "_", ".", "_", ">", "_", "*", "_", "/", "_", "\t", "_", ":", "_")
	s = repl.Replace(s)
	if s == "" {
		s = "_"
	}
	return s
}
