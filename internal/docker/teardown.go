package docker

import (
	"context"
	"fmt"
	"strconv"

	"github.com/containerd/errdefs"
	"github.com/moby/moby/client"

	"github.com/Justicegaines03/SOC-Risk-Engine/pkg/logging"
)

// StopService stops one service's container. Missing containers are
// treated as already stopped.
func (p *Platform) StopService(ctx context.Context, service string) error {
	name := p.ContainerName(service)
	if _, err := p.client.ContainerStop(ctx, name, client.ContainerStopOptions{}); err != nil {
		if errdefs.IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("stop container %q: %w", name, err)
	}
	logging.Info("Docker", "Stopped container %s", name)
	return nil
}

// RemoveService stops and removes one service's container. Volumes are
// always preserved here; only RemoveStackVolumes destroys data.
func (p *Platform) RemoveService(ctx context.Context, service string) error {
	name := p.ContainerName(service)

	_, _ = p.client.ContainerStop(ctx, name, client.ContainerStopOptions{})
	if _, err := p.client.ContainerRemove(ctx, name, client.ContainerRemoveOptions{
		Force:         true,
		RemoveVolumes: false,
	}); err != nil && !errdefs.IsNotFound(err) {
		return fmt.Errorf("remove container %q: %w", name, err)
	}
	return nil
}

// StackContainers lists the service names of all containers labeled
// with this stack, running or not.
func (p *Platform) StackContainers(ctx context.Context) ([]string, error) {
	containers, err := p.client.ContainerList(ctx, client.ContainerListOptions{
		All:     true,
		Filters: p.stackFilter(),
	})
	if err != nil {
		return nil, fmt.Errorf("list stack containers: %w", err)
	}

	names := make([]string, 0, len(containers.Items))
	for _, c := range containers.Items {
		if svc, ok := c.Labels[LabelService]; ok && svc != "" {
			names = append(names, svc)
		}
	}
	return names, nil
}

// RemoveStackContainers removes every container labeled with this
// stack, including ones left behind by earlier runs.
func (p *Platform) RemoveStackContainers(ctx context.Context) error {
	names, err := p.StackContainers(ctx)
	if err != nil {
		return err
	}
	for _, svc := range names {
		if err := p.RemoveService(ctx, svc); err != nil {
			return err
		}
	}
	return nil
}

// RemoveStackVolumes deletes stack-labeled volumes. With dataOnly set,
// only volumes created for stateful services are destroyed, which is
// what reset uses to wipe databases while keeping everything else.
func (p *Platform) RemoveStackVolumes(ctx context.Context, dataOnly bool) error {
	vols, err := p.client.VolumeList(ctx, client.VolumeListOptions{
		Filters: p.stackFilter(),
	})
	if err != nil {
		return fmt.Errorf("list stack volumes: %w", err)
	}

	for _, v := range vols.Items {
		if v.Name == "" {
			continue
		}
		if dataOnly {
			if stateful, _ := strconv.ParseBool(v.Labels[LabelData]); !stateful {
				continue
			}
		}

		if _, err := p.client.VolumeRemove(ctx, v.Name, client.VolumeRemoveOptions{}); err != nil {
			if errdefs.IsNotFound(err) {
				continue
			}
			return fmt.Errorf("remove volume %q: %w", v.Name, err)
		}
		logging.Info("Docker", "Removed volume %s", v.Name)
	}
	return nil
}

// RemoveStackNetwork deletes the stack network if present.
func (p *Platform) RemoveStackNetwork(ctx context.Context) error {
	nets, err := p.client.NetworkList(ctx, client.NetworkListOptions{
		Filters: p.stackFilter(),
	})
	if err != nil {
		return fmt.Errorf("list stack networks: %w", err)
	}

	for _, n := range nets.Items {
		if n.ID == "" {
			continue
		}
		if _, err := p.client.NetworkRemove(ctx, n.ID, client.NetworkRemoveOptions{}); err != nil {
			if errdefs.IsNotFound(err) {
				continue
			}
			return fmt.Errorf("remove network %q (%s): %w", n.Name, n.ID, err)
		}
	}
	return nil
}
