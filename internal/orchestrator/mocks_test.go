package orchestrator

import (
	"context"
	"sync"

	"github.com/Justicegaines03/SOC-Risk-Engine/internal/config"
	"github.com/Justicegaines03/SOC-Risk-Engine/internal/services"
)

// recorder captures lifecycle events across mock services so tests can
// assert ordering.
type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(event string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	copy(out, r.events)
	return out
}

func (r *recorder) indexOf(event string) int {
	for i, e := range r.all() {
		if e == event {
			return i
		}
	}
	return -1
}

// mockService implements services.Service, services.StateUpdater and
// the spec provider the sequencer gates on.
type mockService struct {
	mu sync.Mutex

	label    string
	deps     []string
	rec      *recorder
	startErr error
	stopErr  error

	state   services.ServiceState
	health  services.HealthStatus
	lastErr error
}

func newMockService(label string, deps []string, rec *recorder) *mockService {
	return &mockService{
		label:  label,
		deps:   deps,
		rec:    rec,
		state:  services.StateUnknown,
		health: services.HealthUnknown,
	}
}

func (m *mockService) Start(ctx context.Context) error {
	m.rec.add("start:" + m.label)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.startErr != nil {
		m.state = services.StateFailed
		m.health = services.HealthUnhealthy
		m.lastErr = m.startErr
		return m.startErr
	}
	m.state = services.StateStarting
	m.health = services.HealthChecking
	return nil
}

func (m *mockService) Stop(ctx context.Context) error {
	m.rec.add("stop:" + m.label)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopErr != nil {
		return m.stopErr
	}
	m.state = services.StateStopped
	m.health = services.HealthUnknown
	return nil
}

func (m *mockService) Restart(ctx context.Context) error {
	if err := m.Stop(ctx); err != nil {
		return err
	}
	return m.Start(ctx)
}

func (m *mockService) GetState() services.ServiceState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *mockService) GetHealth() services.HealthStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.health
}

func (m *mockService) GetLastError() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

func (m *mockService) GetLabel() string          { return m.label }
func (m *mockService) GetDependencies() []string { return m.deps }

func (m *mockService) SetStateChangeCallback(cb services.StateChangeCallback) {}

func (m *mockService) UpdateState(state services.ServiceState, health services.HealthStatus, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = state
	m.health = health
	m.lastErr = err
}

func (m *mockService) Spec() config.ServiceSpec {
	return config.ServiceSpec{Name: m.label, DependsOn: m.deps}
}

// proberFunc adapts a function to the Prober interface.
type proberFunc func(ctx context.Context) error

func (f proberFunc) Probe(ctx context.Context) error { return f(ctx) }

// mockCleaner records stack cleanup calls.
type mockCleaner struct {
	mu              sync.Mutex
	containersCalls int
	networkCalls    int
	volumeCalls     []bool
}

func (m *mockCleaner) RemoveStackContainers(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.containersCalls++
	return nil
}

func (m *mockCleaner) RemoveStackVolumes(ctx context.Context, dataOnly bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.volumeCalls = append(m.volumeCalls, dataOnly)
	return nil
}

func (m *mockCleaner) RemoveStackNetwork(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.networkCalls++
	return nil
}
