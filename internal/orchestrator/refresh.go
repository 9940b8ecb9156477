package orchestrator

import (
	"context"
	"time"

	"github.com/Justicegaines03/SOC-Risk-Engine/internal/services"
)

// runtimeInspector is implemented by services that can report whether
// their backing container is running right now.
type runtimeInspector interface {
	Running(ctx context.Context) (bool, error)
}

// refreshProbeTimeout bounds the single probe Refresh runs per service.
const refreshProbeTimeout = 3 * time.Second

// Refresh reconciles the in-memory state table with the container
// engine. A fresh process knows nothing about a stack started earlier;
// status and restart go through here first so they see reality. Each
// running service gets one probe to classify its health.
func (o *Orchestrator) Refresh(ctx context.Context) error {
	for _, svc := range o.registry.GetAll() {
		inspector, ok := svc.(runtimeInspector)
		if !ok {
			continue
		}
		updater, ok := svc.(services.StateUpdater)
		if !ok {
			continue
		}

		running, err := inspector.Running(ctx)
		if err != nil {
			return err
		}
		if !running {
			updater.UpdateState(services.StateStopped, services.HealthUnknown, nil)
			continue
		}

		health := services.HealthHealthy
		if provider, ok := svc.(specProvider); ok {
			if prober, err := o.prober(provider.Spec()); err == nil {
				probeCtx, cancel := context.WithTimeout(ctx, refreshProbeTimeout)
				if err := prober.Probe(probeCtx); err != nil {
					health = services.HealthUnhealthy
				}
				cancel()
			}
		}
		updater.UpdateState(services.StateRunning, health, nil)
	}
	return nil
}
