package resilience

import "sync"

// Set hands out one breaker per key, created lazily with shared settings.
type Set struct {
	settings Settings

	mu       sync.Mutex
	breakers map[string]*Breaker
}

// NewSet creates an empty breaker set.
func NewSet(settings Settings) *Set {
	return &Set{
		settings: settings,
		breakers: make(map[string]*Breaker),
	}
}

// Get returns the breaker for key, creating it on first use.
func (s *Set) Get(key string) *Breaker {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.breakers[key]
	if !ok {
		b = New(key, s.settings)
		s.breakers[key] = b
	}
	return b
}

// Forget drops the breaker for key, e.g. when its process is gone.
func (s *Set) Forget(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.breakers, key)
}

// States snapshots the state of every breaker.
func (s *Set) States() map[string]State {
	s.mu.Lock()
	breakers := make([]*Breaker, 0, len(s.breakers))
	for _, b := range s.breakers {
		breakers = append(breakers, b)
	}
	s.mu.Unlock()

	out := make(map[string]State, len(breakers))
	for _, b := range breakers {
		out[b.Name()] = b.State()
	}
	return out
}
