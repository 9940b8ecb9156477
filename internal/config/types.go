package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// StackConfig is the top-level configuration structure for socctl.
type StackConfig struct {
	StackName string        `yaml:"stackName,omitempty"`
	Run       RunSettings   `yaml:"run,omitempty"`
	Secrets   []SecretSpec  `yaml:"secrets,omitempty"`
	Services  []ServiceSpec `yaml:"services,omitempty"`
	Hive      HiveSettings  `yaml:"thehive,omitempty"`
	Cortex    CortexSettings `yaml:"cortex,omitempty"`
}

// RunSettings holds run-wide knobs for the startup sequencer.
type RunSettings struct {
	MaxConcurrentStarts int           `yaml:"maxConcurrentStarts,omitempty"` // Bound on parallel service starts (default: 2)
	HealthTimeout       time.Duration `yaml:"healthTimeout,omitempty"`       // Default per-service health wait bound (default: 120s)
	HealthInterval      time.Duration `yaml:"healthInterval,omitempty"`      // Default probe interval (default: 5s)
	LogLevel            string        `yaml:"logLevel,omitempty"`            // debug, info, warn, error
	LogFormat           string        `yaml:"logFormat,omitempty"`           // text or json
}

// ProbeType selects how a service's readiness is checked.
type ProbeType string

const (
	ProbeTCP  ProbeType = "tcp"
	ProbeHTTP ProbeType = "http"
)

// ProbeSpec describes a service readiness probe. Port refers to the
// host-side port of one of the service's published port mappings.
type ProbeSpec struct {
	Type ProbeType `yaml:"type,omitempty"` // defaults to tcp on the first published port
	Port int       `yaml:"port,omitempty"`
	Path string    `yaml:"path,omitempty"` // http only, e.g. "/api/status"
}

// VolumeMount maps a named volume into a container.
type VolumeMount struct {
	Name      string `yaml:"name"`
	MountPath string `yaml:"mountPath"`
}

// RestartPolicy values accepted in a ServiceSpec.
const (
	RestartNo            = "no"
	RestartAlways        = "always"
	RestartUnlessStopped = "unless-stopped"
)

// SecretRefPrefix marks an environment value as a secret reference,
// e.g. THEHIVE_SECRET: "secret:thehive_secret".
const SecretRefPrefix = "secret:"

// ServiceSpec declaratively describes one deployable service.
// Immutable once loaded for a given run.
type ServiceSpec struct {
	Name           string            `yaml:"name"`
	Image          string            `yaml:"image"`
	Enabled        bool              `yaml:"enabled"`
	Ports          []string          `yaml:"ports,omitempty"` // "host:container" or "host:container/udp"
	Environment    map[string]string `yaml:"environment,omitempty"`
	Command        []string          `yaml:"command,omitempty"`
	Volumes        []VolumeMount     `yaml:"volumes,omitempty"`
	DependsOn      []string          `yaml:"dependsOn,omitempty"`
	Restart        string            `yaml:"restart,omitempty"`
	Stateful       bool              `yaml:"stateful,omitempty"` // reset destroys this service's volumes
	Probe          ProbeSpec         `yaml:"probe,omitempty"`
	HealthTimeout  time.Duration     `yaml:"healthTimeout,omitempty"`  // 0 = run default
	HealthInterval time.Duration     `yaml:"healthInterval,omitempty"` // 0 = run default
}

// SecretSpec declares a named secret consumed by service environments.
// Exactly one of Value or Generate supplies the value; a Required secret
// with neither fails validation before anything starts.
type SecretSpec struct {
	Name     string `yaml:"name"`
	Value    string `yaml:"value,omitempty"`
	Generate bool   `yaml:"generate,omitempty"`
	Required bool   `yaml:"required,omitempty"`
}

// HiveSettings configures the TheHive API client used by `socctl score`.
type HiveSettings struct {
	URL       string `yaml:"url,omitempty" env:"SOCCTL_THEHIVE_URL"`
	APIKey    string `yaml:"apiKey,omitempty" env:"SOCCTL_THEHIVE_API_KEY"`
	ScoredTag string `yaml:"scoredTag,omitempty" env:"SOCCTL_SCORED_TAG"`
}

// CortexSettings configures the Cortex API client used by `socctl score`.
type CortexSettings struct {
	URL    string `yaml:"url,omitempty" env:"SOCCTL_CORTEX_URL"`
	APIKey string `yaml:"apiKey,omitempty" env:"SOCCTL_CORTEX_API_KEY"`
}

// PortMapping is a parsed "host:container[/proto]" entry.
type PortMapping struct {
	HostPort      int
	ContainerPort int
	Protocol      string // "tcp" or "udp"
}

// ParsePortMapping parses a "host:container" or "host:container/udp" string.
func ParsePortMapping(s string) (PortMapping, error) {
	proto := "tcp"
	spec := s
	if idx := strings.IndexByte(spec, '/'); idx >= 0 {
		proto = strings.ToLower(spec[idx+1:])
		spec = spec[:idx]
	}
	if proto != "tcp" && proto != "udp" {
		return PortMapping{}, fmt.Errorf("invalid port protocol %q in %q", proto, s)
	}

	parts := strings.Split(spec, ":")
	if len(parts) != 2 {
		return PortMapping{}, fmt.Errorf("invalid port mapping %q (want host:container)", s)
	}

	host, err := strconv.Atoi(parts[0])
	if err != nil || host < 1 || host > 65535 {
		return PortMapping{}, fmt.Errorf("invalid host port %q in %q", parts[0], s)
	}
	cont, err := strconv.Atoi(parts[1])
	if err != nil || cont < 1 || cont > 65535 {
		return PortMapping{}, fmt.Errorf("invalid container port %q in %q", parts[1], s)
	}

	return PortMapping{HostPort: host, ContainerPort: cont, Protocol: proto}, nil
}

// PortMappings returns the parsed port mappings of a service.
func (s ServiceSpec) PortMappings() ([]PortMapping, error) {
	mappings := make([]PortMapping, 0, len(s.Ports))
	for _, p := range s.Ports {
		pm, err := ParsePortMapping(p)
		if err != nil {
			return nil, fmt.Errorf("service %q: %w", s.Name, err)
		}
		mappings = append(mappings, pm)
	}
	return mappings, nil
}

// SecretRefs returns the names of all secrets referenced by the
// service's environment, sorted for determinism.
func (s ServiceSpec) SecretRefs() []string {
	seen := make(map[string]struct{})
	for _, v := range s.Environment {
		if strings.HasPrefix(v, SecretRefPrefix) {
			seen[strings.TrimPrefix(v, SecretRefPrefix)] = struct{}{}
		}
	}
	refs := make([]string, 0, len(seen))
	for name := range seen {
		refs = append(refs, name)
	}
	sort.Strings(refs)
	return refs
}

// EnabledServices returns the enabled services in declaration order.
func (c StackConfig) EnabledServices() []ServiceSpec {
	out := make([]ServiceSpec, 0, len(c.Services))
	for _, svc := range c.Services {
		if svc.Enabled {
			out = append(out, svc)
		}
	}
	return out
}

// Service looks up a service by name.
func (c StackConfig) Service(name string) (ServiceSpec, bool) {
	for _, svc := range c.Services {
		if svc.Name == name {
			return svc, true
		}
	}
	return ServiceSpec{}, false
}

// HealthTimeoutFor resolves the effective health wait bound for a service.
func (c StackConfig) HealthTimeoutFor(svc ServiceSpec) time.Duration {
	if svc.HealthTimeout > 0 {
		return svc.HealthTimeout
	}
	if c.Run.HealthTimeout > 0 {
		return c.Run.HealthTimeout
	}
	return 120 * time.Second
}

// HealthIntervalFor resolves the effective probe interval for a service.
func (c StackConfig) HealthIntervalFor(svc ServiceSpec) time.Duration {
	if svc.HealthInterval > 0 {
		return svc.HealthInterval
	}
	if c.Run.HealthInterval > 0 {
		return c.Run.HealthInterval
	}
	return 5 * time.Second
}
