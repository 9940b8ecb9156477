package cmd

import (
	"fmt"
	"os"

	"github.com/Justicegaines03/SOC-Risk-Engine/internal/config"
	"github.com/Justicegaines03/SOC-Risk-Engine/internal/docker"
	"github.com/Justicegaines03/SOC-Risk-Engine/internal/orchestrator"
	"github.com/Justicegaines03/SOC-Risk-Engine/internal/secrets"
	"github.com/Justicegaines03/SOC-Risk-Engine/internal/services"
	"github.com/Justicegaines03/SOC-Risk-Engine/internal/services/container"
	"github.com/Justicegaines03/SOC-Risk-Engine/pkg/logging"
)

// loadStackConfig loads and validates the layered configuration, then
// initializes logging from its run settings.
func loadStackConfig() (*config.StackConfig, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logging.Init(logging.ParseLevel(cfg.Run.LogLevel), cfg.Run.LogFormat, os.Stderr)
	return &cfg, nil
}

// buildOrchestrator wires the Docker platform, resolves secrets, and
// registers one container service per enabled declaration. Secret
// references are substituted here, exactly once, and only the resolved
// environments travel further.
func buildOrchestrator(cfg *config.StackConfig) (*orchestrator.Orchestrator, *docker.Platform, error) {
	platform, err := docker.NewPlatform(cfg.StackName)
	if err != nil {
		return nil, nil, err
	}

	store, err := secrets.Resolve(cfg.Secrets)
	if err != nil {
		return nil, nil, err
	}

	registry := services.NewRegistry()
	for _, spec := range cfg.EnabledServices() {
		env, err := store.ResolveEnv(spec.Environment)
		if err != nil {
			return nil, nil, fmt.Errorf("resolving environment for %q: %w", spec.Name, err)
		}
		if err := registry.Register(container.New(spec, env, platform)); err != nil {
			return nil, nil, err
		}
	}

	orch, err := orchestrator.New(cfg, registry, platform)
	if err != nil {
		return nil, nil, err
	}
	return orch, platform, nil
}
