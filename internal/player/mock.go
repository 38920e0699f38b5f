// internal/player/mock.go
package player

import (
	"sync"
	"time"
)

// Load records one Mock.Load call.
type Load struct {
	Gen uint64
	URL string
}

// Mock is a test double for Player. Events are only produced through Emit.
type Mock struct {
	mu          sync.Mutex
	loadCalls   []Load
	playCalls   int
	pauseCalls  int
	seekCalls   []time.Duration
	volumeCalls []float64
	closed      bool
	events      chan Event
}

// NewMock creates a new mock player for testing.
func NewMock() *Mock {
	return &Mock{events: make(chan Event, 64)}
}

func (m *Mock) Load(gen uint64, url string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadCalls = append(m.loadCalls, Load{Gen: gen, URL: url})
}

func (m *Mock) Play() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playCalls++
}

func (m *Mock) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pauseCalls++
}

func (m *Mock) SeekTo(pos time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seekCalls = append(m.seekCalls, pos)
}

func (m *Mock) SetVolume(level float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.volumeCalls = append(m.volumeCalls, level)
}

func (m *Mock) Events() <-chan Event { return m.events }

func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.events)
	}
	return nil
}

// Test helpers

// Emit queues an event as if the transport produced it.
func (m *Mock) Emit(e Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.events <- e
	}
}

func (m *Mock) LoadCalls() []Load {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Load(nil), m.loadCalls...)
}

// LastGen returns the generation of the most recent Load, or 0.
func (m *Mock) LastGen() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.loadCalls) == 0 {
		return 0
	}
	return m.loadCalls[len(m.loadCalls)-1].Gen
}

func (m *Mock) PlayCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playCalls
}

func (m *Mock) PauseCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pauseCalls
}

func (m *Mock) SeekCalls() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]time.Duration(nil), m.seekCalls...)
}

func (m *Mock) VolumeCalls() []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]float64(nil), m.volumeCalls...)
}

func (m *Mock) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Verify Mock implements Interface at compile time.
var _ Interface = (*Mock)(nil)
