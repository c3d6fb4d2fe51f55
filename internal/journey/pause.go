package journey

import "sync"

// PauseStore holds the pause flag for every tracked journey, keyed by the
// journey's derived key. It is injected into both the trackers and the
// control surface so neither holds a live reference to the other; a
// re-created tracker keeps its control as long as the key is unchanged.
type PauseStore struct {
	mu     sync.RWMutex
	paused map[string]bool
}

func NewPauseStore() *PauseStore {
	return &PauseStore{paused: make(map[string]bool)}
}

// SetPaused is synchronous: the next poll decision observes the new value.
// An in-flight poll is allowed to complete and publish.
func (s *PauseStore) SetPaused(key string, paused bool) {
	s.mu.Lock()
	s.paused[key] = paused
	s.mu.Unlock()
}

func (s *PauseStore) Toggle(key string) bool {
	s.mu.Lock()
	v := !s.paused[key]
	s.paused[key] = v
	s.mu.Unlock()
	return v
}

func (s *PauseStore) IsPaused(key string) bool {
	s.mu.RLock()
	v := s.paused[key]
	s.mu.RUnlock()
	return v
}
