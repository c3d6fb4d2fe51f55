package journey

import (
	"context"
	"log"
	"sync"
	"time"

	"journey-tracker/internal/metrics"
)

// tickEvery is the scheduler granularity. Each unit's own throttle decides
// whether a tick actually runs a poll, so ticking faster than the poll
// interval costs nothing beyond the time check.
const tickEvery = 15 * time.Second

// PollUnit is one independently throttled polling unit: a Tracker or a
// WindowScanner.
type PollUnit interface {
	Key() string
	Poll(ctx context.Context, now time.Time)
}

// Manager runs each unit on its own goroutine so a slow or hanging
// upstream call cannot stall the timers of unrelated units.
type Manager struct {
	metrics *metrics.Collector
	loc     *time.Location

	mu      sync.Mutex
	running map[string]context.CancelFunc
	wg      sync.WaitGroup
}

func NewManager(mcol *metrics.Collector, loc *time.Location) *Manager {
	return &Manager{
		metrics: mcol,
		loc:     loc,
		running: make(map[string]context.CancelFunc),
	}
}

func (m *Manager) Start(parent context.Context, units []PollUnit) {
	for _, u := range units {
		m.startUnit(parent, u)
	}
}

func (m *Manager) startUnit(parent context.Context, u PollUnit) {
	m.mu.Lock()
	if _, exists := m.running[u.Key()]; exists {
		m.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(parent)
	m.running[u.Key()] = cancel
	m.wg.Add(1)
	if m.metrics != nil {
		m.metrics.UnitsRunning.Set(float64(len(m.running)))
	}
	m.mu.Unlock()

	log.Printf("starting polling unit %s", u.Key())
	go func() {
		defer m.wg.Done()
		u.Poll(ctx, time.Now().In(m.loc))
		ticker := time.NewTicker(tickEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				u.Poll(ctx, now.In(m.loc))
			}
		}
	}()
}

func (m *Manager) Stop() {
	m.mu.Lock()
	for _, cancel := range m.running {
		cancel()
	}
	m.running = make(map[string]context.CancelFunc)
	if m.metrics != nil {
		m.metrics.UnitsRunning.Set(0)
	}
	m.mu.Unlock()
	m.wg.Wait()
}
