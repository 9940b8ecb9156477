// Package container implements the services.Service interface on top of
// the Docker Engine platform. One ContainerService wraps one declared
// service spec and drives its container through start and stop.
package container

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Justicegaines03/SOC-Risk-Engine/internal/config"
	"github.com/Justicegaines03/SOC-Risk-Engine/internal/services"
	"github.com/Justicegaines03/SOC-Risk-Engine/pkg/logging"
)

// Runtime is the container engine surface a ContainerService needs.
// *docker.Platform implements it; tests substitute a fake.
type Runtime interface {
	EnsureNetwork(ctx context.Context) error
	EnsureVolumes(ctx context.Context, spec config.ServiceSpec) error
	StartService(ctx context.Context, spec config.ServiceSpec, env map[string]string) (string, error)
	StopService(ctx context.Context, service string) error
	ContainerRunning(ctx context.Context, service string) (bool, error)
}

// ContainerService drives one container-backed service. The resolved
// environment is injected at construction so secret references never
// travel past this point as references.
type ContainerService struct {
	mu sync.RWMutex

	spec    config.ServiceSpec
	env     map[string]string
	runtime Runtime

	state       services.ServiceState
	health      services.HealthStatus
	lastError   error
	lastChange  time.Time
	containerID string

	stateCallback services.StateChangeCallback
}

// New creates a container service for the given spec. env must already
// have every secret reference substituted.
func New(spec config.ServiceSpec, env map[string]string, runtime Runtime) *ContainerService {
	return &ContainerService{
		spec:    spec,
		env:     env,
		runtime: runtime,
		state:   services.StateUnknown,
		health:  services.HealthUnknown,
	}
}

// Spec returns the service's declaration.
func (cs *ContainerService) Spec() config.ServiceSpec {
	return cs.spec
}

// Start creates and starts the container. The service is left in
// StateStarting with HealthChecking; the startup sequencer promotes it
// to StateRunning once its readiness gate passes.
func (cs *ContainerService) Start(ctx context.Context) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	logging.Info("ContainerService", "Starting service %s", cs.spec.Name)
	cs.updateStateInternal(services.StateStarting, services.HealthChecking, nil)

	if err := cs.runtime.EnsureNetwork(ctx); err != nil {
		cs.updateStateInternal(services.StateFailed, services.HealthUnhealthy, err)
		return fmt.Errorf("ensure network for %q: %w", cs.spec.Name, err)
	}
	if err := cs.runtime.EnsureVolumes(ctx, cs.spec); err != nil {
		cs.updateStateInternal(services.StateFailed, services.HealthUnhealthy, err)
		return fmt.Errorf("ensure volumes for %q: %w", cs.spec.Name, err)
	}

	id, err := cs.runtime.StartService(ctx, cs.spec, cs.env)
	if err != nil {
		cs.updateStateInternal(services.StateFailed, services.HealthUnhealthy, err)
		return fmt.Errorf("start %q: %w", cs.spec.Name, err)
	}
	cs.containerID = id

	return nil
}

// Stop stops the container. A missing container counts as stopped.
func (cs *ContainerService) Stop(ctx context.Context) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	logging.Info("ContainerService", "Stopping service %s", cs.spec.Name)
	cs.updateStateInternal(services.StateStopping, services.HealthUnknown, nil)

	if err := cs.runtime.StopService(ctx, cs.spec.Name); err != nil {
		cs.updateStateInternal(services.StateFailed, services.HealthUnhealthy, err)
		return fmt.Errorf("stop %q: %w", cs.spec.Name, err)
	}

	cs.updateStateInternal(services.StateStopped, services.HealthUnknown, nil)
	return nil
}

// Restart stops and starts the container.
func (cs *ContainerService) Restart(ctx context.Context) error {
	if err := cs.Stop(ctx); err != nil {
		return fmt.Errorf("restart %q: %w", cs.spec.Name, err)
	}
	return cs.Start(ctx)
}

func (cs *ContainerService) GetState() services.ServiceState {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.state
}

func (cs *ContainerService) GetHealth() services.HealthStatus {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.health
}

func (cs *ContainerService) GetLastError() error {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.lastError
}

// LastTransition reports when the service last changed state or health.
// Zero until the first transition.
func (cs *ContainerService) LastTransition() time.Time {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.lastChange
}

func (cs *ContainerService) GetLabel() string {
	return cs.spec.Name
}

func (cs *ContainerService) GetDependencies() []string {
	deps := make([]string, len(cs.spec.DependsOn))
	copy(deps, cs.spec.DependsOn)
	return deps
}

func (cs *ContainerService) SetStateChangeCallback(callback services.StateChangeCallback) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.stateCallback = callback
}

// UpdateState implements the services.StateUpdater interface.
func (cs *ContainerService) UpdateState(state services.ServiceState, health services.HealthStatus, err error) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.updateStateInternal(state, health, err)
}

// Running reports whether the backing container is currently running.
func (cs *ContainerService) Running(ctx context.Context) (bool, error) {
	return cs.runtime.ContainerRunning(ctx, cs.spec.Name)
}

// updateStateInternal updates state and triggers the callback.
// Must be called with the mutex held.
func (cs *ContainerService) updateStateInternal(newState services.ServiceState, newHealth services.HealthStatus, err error) {
	oldState := cs.state
	oldHealth := cs.health

	cs.state = newState
	cs.health = newHealth
	cs.lastError = err
	cs.lastChange = time.Now()

	if cs.stateCallback != nil && (oldState != newState || oldHealth != newHealth) {
		// Call callback without holding the lock to prevent deadlocks
		go cs.stateCallback(cs.spec.Name, oldState, newState, newHealth, err)
	}

	logging.Debug("ContainerService", "Service %s state changed: %s -> %s (health: %s -> %s)",
		cs.spec.Name, oldState, newState, oldHealth, newHealth)
}
