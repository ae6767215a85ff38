package metrics

import "sync"

// Mock is a mock implementation of the Metrics interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu               sync.Mutex
	intercepted      map[string]int
	malformed        map[string]int
	storedMatches    int
	passes           int
	cardsTransformed map[string]int
	fallback         map[string]int
}

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{
		intercepted:      make(map[string]int),
		malformed:        make(map[string]int),
		cardsTransformed: make(map[string]int),
		fallback:         make(map[string]int),
	}
}

func (m *Mock) IncIntercepted(source string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.intercepted[source]++
}

func (m *Mock) IncMalformed(source string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.malformed[source]++
}

func (m *Mock) SetStoredMatches(total int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.storedMatches = total
}

func (m *Mock) IncPasses() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.passes++
}

func (m *Mock) IncCardsTransformed(strategy string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cardsTransformed[strategy]++
}

func (m *Mock) IncFallback(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallback[outcome]++
}

// Intercepted returns how many responses were counted for source.
func (m *Mock) Intercepted(source string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.intercepted[source]
}

// Malformed returns how many malformed bodies were counted for source.
func (m *Mock) Malformed(source string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.malformed[source]
}

// StoredMatches returns the last value passed to SetStoredMatches.
func (m *Mock) StoredMatches() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.storedMatches
}

// Passes returns the number of times IncPasses was called.
func (m *Mock) Passes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.passes
}

// CardsTransformed returns how many cards were transformed with strategy.
func (m *Mock) CardsTransformed(strategy string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cardsTransformed[strategy]
}

// Fallback returns how many fallback attempts ended with outcome.
func (m *Mock) Fallback(outcome string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fallback[outcome]
}
