package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Justicegaines03/SOC-Risk-Engine/internal/config"
	"github.com/Justicegaines03/SOC-Risk-Engine/internal/dependency"
	"github.com/Justicegaines03/SOC-Risk-Engine/internal/services"
)

// ErrConfirmationRequired is returned by Reset when the caller did not
// explicitly confirm destroying data volumes.
var ErrConfirmationRequired = errors.New("reset destroys data volumes; confirmation required")

// StackCleaner removes stack-scoped Docker resources. *docker.Platform
// implements it.
type StackCleaner interface {
	RemoveStackContainers(ctx context.Context) error
	RemoveStackVolumes(ctx context.Context, dataOnly bool) error
	RemoveStackNetwork(ctx context.Context) error
}

// ProberFactory builds the readiness prober for a service spec. It is a
// field so tests can substitute instant or failing probes.
type ProberFactory func(spec config.ServiceSpec) (Prober, error)

// Orchestrator coordinates the lifecycle of all services in the stack.
type Orchestrator struct {
	cfg      *config.StackConfig
	registry *services.Registry
	graph    *dependency.Graph
	cleaner  StackCleaner
	prober   ProberFactory

	mu          sync.Mutex
	failReasons map[string]string
}

// New builds an orchestrator over an already-populated registry. The
// dependency graph is derived from each service's declared dependencies.
func New(cfg *config.StackConfig, registry *services.Registry, cleaner StackCleaner) (*Orchestrator, error) {
	graph := dependency.New()
	for _, svc := range registry.GetAll() {
		deps := make([]dependency.NodeID, 0, len(svc.GetDependencies()))
		for _, d := range svc.GetDependencies() {
			deps = append(deps, dependency.NodeID(d))
		}
		graph.AddNode(dependency.Node{
			ID:           dependency.NodeID(svc.GetLabel()),
			FriendlyName: svc.GetLabel(),
			DependsOn:    deps,
		})
	}

	if err := graph.Validate(); err != nil {
		return nil, err
	}
	if _, err := graph.TopologicalOrder(); err != nil {
		return nil, err
	}

	return &Orchestrator{
		cfg:         cfg,
		registry:    registry,
		graph:       graph,
		cleaner:     cleaner,
		prober:      ProberFor,
		failReasons: make(map[string]string),
	}, nil
}

// SetProberFactory overrides how readiness probers are built.
func (o *Orchestrator) SetProberFactory(factory ProberFactory) {
	o.prober = factory
}

// Graph exposes the dependency graph for status rendering.
func (o *Orchestrator) Graph() *dependency.Graph {
	return o.graph
}

// ServiceStatus is one row of a stack status snapshot.
type ServiceStatus struct {
	Name           string
	State          services.ServiceState
	Health         services.HealthStatus
	DependsOn      []string
	Error          string
	LastTransition time.Time
}

// transitionReporter is implemented by services that track when they
// last changed state.
type transitionReporter interface {
	LastTransition() time.Time
}

// Status returns a snapshot of every service in startup order.
func (o *Orchestrator) Status() ([]ServiceStatus, error) {
	order, err := o.graph.TopologicalOrder()
	if err != nil {
		return nil, err
	}

	statuses := make([]ServiceStatus, 0, len(order))
	for _, id := range order {
		svc, ok := o.registry.Get(string(id))
		if !ok {
			continue
		}

		st := ServiceStatus{
			Name:      svc.GetLabel(),
			State:     svc.GetState(),
			Health:    svc.GetHealth(),
			DependsOn: svc.GetDependencies(),
		}
		if lastErr := svc.GetLastError(); lastErr != nil {
			st.Error = lastErr.Error()
		}
		if reporter, ok := svc.(transitionReporter); ok {
			st.LastTransition = reporter.LastTransition()
		}
		statuses = append(statuses, st)
	}
	return statuses, nil
}

func (o *Orchestrator) service(label string) (services.Service, error) {
	svc, ok := o.registry.Get(label)
	if !ok {
		return nil, fmt.Errorf("unknown service %q", label)
	}
	return svc, nil
}

func (o *Orchestrator) markFailed(label, reason string, err error) {
	o.mu.Lock()
	o.failReasons[label] = reason
	o.mu.Unlock()

	if svc, ok := o.registry.Get(label); ok {
		if updater, ok := svc.(services.StateUpdater); ok {
			updater.UpdateState(services.StateFailed, services.HealthUnhealthy, err)
		}
	}
}

func (o *Orchestrator) failReason(label string) (string, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	r, ok := o.failReasons[label]
	return r, ok
}
