package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/Justicegaines03/SOC-Risk-Engine/internal/config"
	"github.com/Justicegaines03/SOC-Risk-Engine/internal/dependency"
	"github.com/Justicegaines03/SOC-Risk-Engine/internal/services"
	"github.com/Justicegaines03/SOC-Risk-Engine/pkg/logging"
)

// Failure reasons recorded for services that never reached Running.
const (
	ReasonHealthTimeout    = "health timeout"
	ReasonStartFailed      = "start failed"
	ReasonDependencyFailed = "dependency unhealthy"
	ReasonCanceled         = "canceled"
)

type specProvider interface {
	Spec() config.ServiceSpec
}

// Up starts every registered service in dependency order. Services in
// the same dependency level start concurrently, bounded by the
// configured limit, and each start is gated on its readiness probe.
// When a service fails, its transitive dependents are marked Failed
// without being started; independent branches keep going. The returned
// error summarizes all failures.
func (o *Orchestrator) Up(ctx context.Context) error {
	o.mu.Lock()
	o.failReasons = make(map[string]string)
	o.mu.Unlock()

	levels, err := o.graph.Levels()
	if err != nil {
		return err
	}

	maxConcurrent := o.cfg.Run.MaxConcurrentStarts
	if maxConcurrent <= 0 {
		maxConcurrent = 2
	}
	sem := make(chan struct{}, maxConcurrent)

	logging.Info("Orchestrator", "Starting stack %s: %d services in %d levels",
		o.cfg.StackName, o.graph.Len(), len(levels))

	for levelIdx, level := range levels {
		var wg sync.WaitGroup

		for _, id := range level {
			label := string(id)
			svc, err := o.service(label)
			if err != nil {
				return err
			}

			if reason, failed := o.failReason(label); failed {
				logging.Warn("Orchestrator", "Skipping %s: %s", label, reason)
				continue
			}

			if ctx.Err() != nil {
				o.markFailed(label, ReasonCanceled, ctx.Err())
				continue
			}

			wg.Add(1)
			go func(label string, svc services.Service) {
				defer wg.Done()

				sem <- struct{}{}
				defer func() { <-sem }()

				o.startAndGate(ctx, label, svc)
			}(label, svc)
		}

		wg.Wait()
		logging.Debug("Orchestrator", "Level %d settled", levelIdx)
	}

	return o.upResult()
}

// startAndGate starts one service and waits for its readiness gate.
func (o *Orchestrator) startAndGate(ctx context.Context, label string, svc services.Service) {
	if err := svc.Start(ctx); err != nil {
		logging.Error("Orchestrator", err, "Service %s failed to start", label)
		o.markFailed(label, ReasonStartFailed, err)
		o.failDependents(label)
		return
	}

	provider, ok := svc.(specProvider)
	if !ok {
		o.promote(svc)
		return
	}
	spec := provider.Spec()

	prober, err := o.prober(spec)
	if err != nil {
		o.markFailed(label, ReasonStartFailed, err)
		o.failDependents(label)
		return
	}

	timeout := o.cfg.HealthTimeoutFor(spec)
	interval := o.cfg.HealthIntervalFor(spec)

	if err := WaitHealthy(ctx, label, prober, timeout, interval); err != nil {
		reason := ReasonHealthTimeout
		if ctx.Err() != nil {
			reason = ReasonCanceled
		}
		logging.Error("Orchestrator", err, "Service %s never became healthy", label)
		o.markFailed(label, reason, err)
		if reason == ReasonHealthTimeout {
			o.failDependents(label)
		}
		return
	}

	o.promote(svc)
	logging.Info("Orchestrator", "Service %s is running and healthy", label)
}

func (o *Orchestrator) promote(svc services.Service) {
	if updater, ok := svc.(services.StateUpdater); ok {
		updater.UpdateState(services.StateRunning, services.HealthHealthy, nil)
	}
}

// failDependents marks every transitive dependent of a failed service
// Failed without starting it. Dependents are always in later levels, so
// they carry their reason before the level loop reaches them.
func (o *Orchestrator) failDependents(label string) {
	for _, dep := range o.graph.TransitiveDependents(dependency.NodeID(label)) {
		depLabel := string(dep)
		if _, failed := o.failReason(depLabel); failed {
			continue
		}
		o.markFailed(depLabel, ReasonDependencyFailed,
			fmt.Errorf("dependency %q unhealthy", label))
	}
}

func (o *Orchestrator) upResult() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if len(o.failReasons) == 0 {
		return nil
	}

	order, err := o.graph.TopologicalOrder()
	if err != nil {
		return err
	}

	var failed []string
	for _, id := range order {
		if reason, ok := o.failReasons[string(id)]; ok {
			failed = append(failed, fmt.Sprintf("%s (%s)", id, reason))
		}
	}
	return fmt.Errorf("%d of %d services failed to start: %s",
		len(failed), o.graph.Len(), strings.Join(failed, ", "))
}
