package config

import (
	"errors"
	"fmt"
	"strings"
)

// ConfigurationError marks a structural configuration problem.
// Structural errors abort a run before any service is launched.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Reason
}

// NewConfigurationError builds a ConfigurationError with a formatted reason.
func NewConfigurationError(format string, args ...interface{}) *ConfigurationError {
	return &ConfigurationError{Reason: fmt.Sprintf(format, args...)}
}

// Validate checks the loaded stack configuration for structural problems.
// It collects every problem rather than stopping at the first, so the
// operator fixes the file in one pass.
func (c StackConfig) Validate() error {
	var errs []error

	seen := make(map[string]struct{}, len(c.Services))
	enabled := make(map[string]struct{}, len(c.Services))
	for _, svc := range c.Services {
		if svc.Name == "" {
			errs = append(errs, errors.New("service with empty name"))
			continue
		}
		if _, dup := seen[svc.Name]; dup {
			errs = append(errs, fmt.Errorf("duplicate service name %q", svc.Name))
		}
		seen[svc.Name] = struct{}{}
		if svc.Enabled {
			enabled[svc.Name] = struct{}{}
		}

		if svc.Image == "" {
			errs = append(errs, fmt.Errorf("service %q has no image", svc.Name))
		}

		if _, err := svc.PortMappings(); err != nil {
			errs = append(errs, err)
		}

		switch svc.Restart {
		case "", RestartNo, RestartAlways, RestartUnlessStopped:
		default:
			errs = append(errs, fmt.Errorf("service %q has invalid restart policy %q", svc.Name, svc.Restart))
		}

		switch svc.Probe.Type {
		case "", ProbeTCP:
		case ProbeHTTP:
			if !strings.HasPrefix(svc.Probe.Path, "/") {
				errs = append(errs, fmt.Errorf("service %q http probe path %q must start with /", svc.Name, svc.Probe.Path))
			}
		default:
			errs = append(errs, fmt.Errorf("service %q has unknown probe type %q", svc.Name, svc.Probe.Type))
		}

		for _, vm := range svc.Volumes {
			if vm.Name == "" || vm.MountPath == "" {
				errs = append(errs, fmt.Errorf("service %q has a volume mount with empty name or mountPath", svc.Name))
			}
		}
	}

	// Dependencies of an enabled service must name enabled services.
	for _, svc := range c.Services {
		if !svc.Enabled {
			continue
		}
		for _, dep := range svc.DependsOn {
			if dep == svc.Name {
				errs = append(errs, fmt.Errorf("service %q depends on itself", svc.Name))
				continue
			}
			if _, ok := enabled[dep]; !ok {
				errs = append(errs, fmt.Errorf("service %q depends on %q, which is not an enabled service", svc.Name, dep))
			}
		}
	}

	// Secret declarations and references.
	declared := make(map[string]SecretSpec, len(c.Secrets))
	for _, sec := range c.Secrets {
		if sec.Name == "" {
			errs = append(errs, errors.New("secret with empty name"))
			continue
		}
		if _, dup := declared[sec.Name]; dup {
			errs = append(errs, fmt.Errorf("duplicate secret name %q", sec.Name))
		}
		declared[sec.Name] = sec
	}
	for _, svc := range c.Services {
		if !svc.Enabled {
			continue
		}
		for _, ref := range svc.SecretRefs() {
			if _, ok := declared[ref]; !ok {
				errs = append(errs, fmt.Errorf("service %q references undeclared secret %q", svc.Name, ref))
			}
		}
	}

	if c.Run.MaxConcurrentStarts < 0 {
		errs = append(errs, fmt.Errorf("maxConcurrentStarts must not be negative, got %d", c.Run.MaxConcurrentStarts))
	}

	if len(errs) > 0 {
		return &ConfigurationError{Reason: errors.Join(errs...).Error()}
	}
	return nil
}
