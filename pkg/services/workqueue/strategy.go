package workqueue

import "sync"

// ConcurrencyStrategy controls how tasks are allowed to start concurrently.
// The strategy tracks running tasks and decides whether a new one may start.
type ConcurrencyStrategy interface {
	// CanStartProvider returns true if a provider-facing task may start.
	CanStartProvider() bool
	// CanStartLocal returns true if a local task may start.
	CanStartLocal() bool
	// OnStartProvider is called when a provider-facing task starts.
	OnStartProvider()
	// OnStartLocal is called when a local task starts.
	OnStartLocal()
	// OnCompleteProvider is called when a provider-facing task completes.
	OnCompleteProvider()
	// OnCompleteLocal is called when a local task completes.
	OnCompleteLocal()
}

// SerializedStrategy runs one provider-facing task and one local task at a
// time. The provider rate-limits aggressively, so this is the default.
type SerializedStrategy struct {
	mu              sync.Mutex
	providerRunning bool
	localRunning    bool
}

// NewSerializedStrategy creates the default one-at-a-time strategy.
func NewSerializedStrategy() *SerializedStrategy {
	return &SerializedStrategy{}
}

func (s *SerializedStrategy) CanStartProvider() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.providerRunning
}

func (s *SerializedStrategy) CanStartLocal() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.localRunning
}

func (s *SerializedStrategy) OnStartProvider() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.providerRunning = true
}

func (s *SerializedStrategy) OnStartLocal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.localRunning = true
}

func (s *SerializedStrategy) OnCompleteProvider() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.providerRunning = false
}

func (s *SerializedStrategy) OnCompleteLocal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.localRunning = false
}

// ThrottledProviderStrategy allows up to maxConcurrent provider-facing tasks
// in parallel. Local tasks are still serialized.
type ThrottledProviderStrategy struct {
	mu              sync.Mutex
	maxConcurrent   int
	providerRunning int
	localRunning    bool
}

// NewThrottledProviderStrategy creates a strategy allowing up to
// maxConcurrent concurrent provider-facing tasks.
func NewThrottledProviderStrategy(maxConcurrent int) *ThrottledProviderStrategy {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &ThrottledProviderStrategy{
		maxConcurrent: maxConcurrent,
	}
}

func (s *ThrottledProviderStrategy) CanStartProvider() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.providerRunning < s.maxConcurrent
}

func (s *ThrottledProviderStrategy) CanStartLocal() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.localRunning
}

func (s *ThrottledProviderStrategy) OnStartProvider() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.providerRunning++
}

func (s *ThrottledProviderStrategy) OnStartLocal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.localRunning = true
}

func (s *ThrottledProviderStrategy) OnCompleteProvider() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.providerRunning > 0 {
		s.providerRunning--
	}
}

func (s *ThrottledProviderStrategy) OnCompleteLocal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.localRunning = false
}
