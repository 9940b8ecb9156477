package docker

import (
	"context"
	"fmt"
	"net/netip"
	"strconv"

	"github.com/containerd/errdefs"
	"github.com/moby/moby/api/types/container"
	"github.com/moby/moby/api/types/mount"
	"github.com/moby/moby/api/types/network"
	"github.com/moby/moby/client"

	"github.com/Justicegaines03/SOC-Risk-Engine/internal/config"
	"github.com/Justicegaines03/SOC-Risk-Engine/pkg/logging"
)

// EnsureNetwork creates the shared stack network if it does not exist.
// Safe against concurrent creation: on a create conflict we re-inspect.
func (p *Platform) EnsureNetwork(ctx context.Context) error {
	name := p.NetworkName()

	if _, err := p.client.NetworkInspect(ctx, name, client.NetworkInspectOptions{}); err == nil {
		return nil
	}

	_, err := p.client.NetworkCreate(ctx, name, client.NetworkCreateOptions{
		Labels: map[string]string{
			LabelStack: p.stack,
			LabelRun:   p.runID,
		},
	})
	if err != nil {
		if _, ie := p.client.NetworkInspect(ctx, name, client.NetworkInspectOptions{}); ie == nil {
			return nil
		}
		return fmt.Errorf("create network %q: %w", name, err)
	}

	logging.Debug("Docker", "Created network %s", name)
	return nil
}

// EnsureVolumes creates the named volumes a service mounts. Existing
// volumes are reused untouched so data survives across runs.
func (p *Platform) EnsureVolumes(ctx context.Context, spec config.ServiceSpec) error {
	for _, vm := range spec.Volumes {
		name := p.VolumeName(vm.Name)

		_, err := p.client.VolumeInspect(ctx, name, client.VolumeInspectOptions{})
		if err == nil {
			continue
		}
		if !errdefs.IsNotFound(err) {
			return fmt.Errorf("inspect volume %q: %w", name, err)
		}

		_, err = p.client.VolumeCreate(ctx, client.VolumeCreateOptions{
			Name: name,
			Labels: map[string]string{
				LabelStack:  p.stack,
				LabelRun:    p.runID,
				LabelVolume: vm.Name,
				LabelData:   strconv.FormatBool(spec.Stateful),
			},
		})
		if err != nil {
			if _, ie := p.client.VolumeInspect(ctx, name, client.VolumeInspectOptions{}); ie == nil {
				continue
			}
			return fmt.Errorf("create volume %q: %w", name, err)
		}

		logging.Debug("Docker", "Created volume %s", name)
	}

	return nil
}

// StartService creates and starts the container for one service. Any
// previous container under the same name is removed first so the spec
// in hand always wins. env holds the fully resolved environment, with
// secret references already substituted.
func (p *Platform) StartService(ctx context.Context, spec config.ServiceSpec, env map[string]string) (string, error) {
	containerName := p.ContainerName(spec.Name)

	envList := make([]string, 0, len(env))
	for k, v := range env {
		envList = append(envList, fmt.Sprintf("%s=%s", k, v))
	}

	mounts := make([]mount.Mount, 0, len(spec.Volumes))
	for _, vm := range spec.Volumes {
		mounts = append(mounts, mount.Mount{
			Type:   mount.TypeVolume,
			Source: p.VolumeName(vm.Name),
			Target: vm.MountPath,
		})
	}

	exposed := network.PortSet{}
	portMap := network.PortMap{}

	mappings, err := spec.PortMappings()
	if err != nil {
		return "", err
	}
	for _, m := range mappings {
		port, _ := network.PortFrom(uint16(m.ContainerPort), network.IPProtocol(m.Protocol))
		exposed[port] = struct{}{}

		addr, err := netip.ParseAddr("0.0.0.0")
		if err != nil {
			return "", err
		}
		portMap[port] = append(portMap[port], network.PortBinding{
			HostIP:   addr,
			HostPort: strconv.Itoa(m.HostPort),
		})
	}

	// Replace any stale container from a previous run.
	if _, err := p.client.ContainerInspect(ctx, containerName, client.ContainerInspectOptions{}); err == nil {
		_, _ = p.client.ContainerStop(ctx, containerName, client.ContainerStopOptions{})
		if _, err := p.client.ContainerRemove(ctx, containerName, client.ContainerRemoveOptions{
			Force:         true,
			RemoveVolumes: false,
		}); err != nil && !errdefs.IsNotFound(err) {
			return "", fmt.Errorf("remove existing container %q: %w", containerName, err)
		}
	}

	cCfg := &container.Config{
		Image:        spec.Image,
		Env:          envList,
		Labels: map[string]string{
			LabelStack:   p.stack,
			LabelRun:     p.runID,
			LabelService: spec.Name,
		},
		ExposedPorts: exposed,
	}
	if len(spec.Command) > 0 {
		cCfg.Cmd = spec.Command
	}

	hCfg := &container.HostConfig{
		Mounts:        mounts,
		PortBindings:  portMap,
		RestartPolicy: restartPolicy(spec.Restart),
	}

	nCfg := &network.NetworkingConfig{
		EndpointsConfig: map[string]*network.EndpointSettings{
			p.NetworkName(): {
				Aliases: []string{spec.Name},
			},
		},
	}

	containerID := ""
	created, err := p.client.ContainerCreate(ctx, client.ContainerCreateOptions{
		Config:           cCfg,
		HostConfig:       hCfg,
		NetworkingConfig: nCfg,
		Name:             containerName,
		Image:            spec.Image,
	})
	if err != nil {
		inspected, ie := p.client.ContainerInspect(ctx, containerName, client.ContainerInspectOptions{})
		if ie != nil {
			return "", fmt.Errorf("create container %q: %w", containerName, err)
		}
		containerID = inspected.Container.ID
	} else {
		containerID = created.ID
	}

	if _, err := p.client.ContainerStart(ctx, containerID, client.ContainerStartOptions{}); err != nil {
		return "", fmt.Errorf("start container %q: %w", containerName, err)
	}

	logging.Info("Docker", "Started container %s (%s)", containerName, spec.Image)
	return containerID, nil
}

// ContainerRunning reports whether the service's container exists and
// is in the running state.
func (p *Platform) ContainerRunning(ctx context.Context, service string) (bool, error) {
	inspect, err := p.client.ContainerInspect(ctx, p.ContainerName(service), client.ContainerInspectOptions{})
	if err != nil {
		if errdefs.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return inspect.Container.State != nil && inspect.Container.State.Running, nil
}

func restartPolicy(policy string) container.RestartPolicy {
	switch policy {
	case config.RestartAlways:
		return container.RestartPolicy{Name: container.RestartPolicyAlways}
	case config.RestartUnlessStopped:
		return container.RestartPolicy{Name: container.RestartPolicyUnlessStopped}
	default:
		return container.RestartPolicy{Name: container.RestartPolicyDisabled}
	}
}
