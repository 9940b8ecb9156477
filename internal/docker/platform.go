// Package docker talks to the Docker Engine API on behalf of the
// lifecycle controller. All resources it creates carry socctl labels
// so teardown and reset can find them without guessing names.
package docker

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/moby/moby/client"
)

// Label keys applied to every container, volume and network we create.
const (
	LabelStack   = "socctl.stack"
	LabelRun     = "socctl.run"
	LabelService = "socctl.service"
	LabelVolume  = "socctl.volume"
	LabelData    = "socctl.data"
)

// Platform wraps a Docker Engine API client scoped to one stack.
type Platform struct {
	client *client.Client
	stack  string
	runID  string
}

// NewPlatform initializes the Docker client from the environment
// (DOCKER_HOST etc.) and mints a fresh run ID for labeling.
func NewPlatform(stackName string) (*Platform, error) {
	c, err := client.New(
		client.FromEnv,
	)
	if err != nil {
		return nil, fmt.Errorf("initializing docker client: %w", err)
	}

	return &Platform{
		client: c,
		stack:  stackName,
		runID:  uuid.NewString(),
	}, nil
}

// RunID returns the identifier labeled onto resources created this run.
func (p *Platform) RunID() string {
	return p.runID
}

// ContainerName returns the stack-scoped container name for a service.
func (p *Platform) ContainerName(service string) string {
	return fmt.Sprintf("%s-%s", p.stack, strings.TrimSpace(service))
}

// VolumeName returns the stack-scoped Docker volume name for a logical
// volume declared in a service spec.
func (p *Platform) VolumeName(logical string) string {
	safe := func(s string) string {
		s = strings.ToLower(strings.TrimSpace(s))
		return strings.ReplaceAll(s, " ", "-")
	}
	return fmt.Sprintf("%s-%s", safe(p.stack), safe(logical))
}

// NetworkName returns the shared stack network name.
func (p *Platform) NetworkName() string {
	return p.stack
}

func (p *Platform) stackFilter() client.Filters {
	return make(client.Filters).
		Add("label", LabelStack+"="+p.stack)
}
