package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/Justicegaines03/SOC-Risk-Engine/pkg/logging"
)

// Down stops every service in reverse dependency order, so nothing is
// stopped before the services depending on it. Stop errors are
// collected rather than aborting the walk; a service that will not stop
// must not leave its dependencies running. Containers and the stack
// network are removed afterwards, volumes are kept.
func (o *Orchestrator) Down(ctx context.Context) error {
	order, err := o.graph.TopologicalOrder()
	if err != nil {
		return err
	}

	logging.Info("Orchestrator", "Stopping stack %s", o.cfg.StackName)

	var errs []error
	for i := len(order) - 1; i >= 0; i-- {
		label := string(order[i])
		svc, ok := o.registry.Get(label)
		if !ok {
			continue
		}
		if err := svc.Stop(ctx); err != nil {
			logging.Error("Orchestrator", err, "Service %s failed to stop", label)
			errs = append(errs, err)
		}
	}

	if o.cleaner != nil {
		if err := o.cleaner.RemoveStackContainers(ctx); err != nil {
			errs = append(errs, err)
		}
		if err := o.cleaner.RemoveStackNetwork(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Restart stops and starts one service, then waits for its readiness
// gate again. Dependents are left alone: a restart of cassandra does
// not bounce thehive, it only becomes briefly unreachable.
func (o *Orchestrator) Restart(ctx context.Context, label string) error {
	svc, err := o.service(label)
	if err != nil {
		return err
	}

	logging.Info("Orchestrator", "Restarting service %s", label)
	if err := svc.Restart(ctx); err != nil {
		o.markFailed(label, ReasonStartFailed, err)
		return err
	}

	o.mu.Lock()
	delete(o.failReasons, label)
	o.mu.Unlock()

	o.gate(ctx, label)
	if reason, failed := o.failReason(label); failed {
		return fmt.Errorf("service %q failed after restart: %s", label, reason)
	}
	return nil
}

// gate runs the readiness gate for an already-started service.
func (o *Orchestrator) gate(ctx context.Context, label string) {
	full, err := o.service(label)
	if err != nil {
		return
	}

	provider, ok := full.(specProvider)
	if !ok {
		o.promote(full)
		return
	}
	spec := provider.Spec()

	prober, err := o.prober(spec)
	if err != nil {
		o.markFailed(label, ReasonStartFailed, err)
		return
	}

	if err := WaitHealthy(ctx, label, prober, o.cfg.HealthTimeoutFor(spec), o.cfg.HealthIntervalFor(spec)); err != nil {
		reason := ReasonHealthTimeout
		if ctx.Err() != nil {
			reason = ReasonCanceled
		}
		o.markFailed(label, reason, err)
		return
	}

	o.promote(full)
}

// Reset tears the stack down and destroys the data volumes of stateful
// services. It refuses to run unless the caller confirmed explicitly.
func (o *Orchestrator) Reset(ctx context.Context, confirmed bool) error {
	if !confirmed {
		return ErrConfirmationRequired
	}

	if err := o.Down(ctx); err != nil {
		return err
	}

	if o.cleaner == nil {
		return nil
	}

	logging.Warn("Orchestrator", "Destroying data volumes for stack %s", o.cfg.StackName)
	if err := o.cleaner.RemoveStackVolumes(ctx, true); err != nil {
		return fmt.Errorf("removing data volumes: %w", err)
	}
	return nil
}
