package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v10"
	"gopkg.in/yaml.v3"
)

// For mocking in tests
var osUserHomeDir = os.UserHomeDir
var osGetwd = os.Getwd

const (
	userConfigDir    = ".config/socctl"
	projectConfigDir = ".socctl"
	configFileName   = "config.yaml"
)

// LoadConfig loads the socctl configuration by layering default, user,
// and project settings, then applies environment overrides for
// operator credentials.
func LoadConfig() (StackConfig, error) {
	// 1. Start with the built-in stack
	config := DefaultStack()

	// 2. User-specific configuration
	userConfigPath, err := getUserConfigPath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not determine user config path: %v\n", err)
	} else {
		if _, err := os.Stat(userConfigPath); !os.IsNotExist(err) {
			userConfig, err := loadConfigFromFile(userConfigPath)
			if err != nil {
				return StackConfig{}, fmt.Errorf("error loading user config from %s: %w", userConfigPath, err)
			}
			config = mergeConfigs(config, userConfig)
		}
	}

	// 3. Project-specific configuration
	projectConfigPath, err := getProjectConfigPath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not determine project config path: %v\n", err)
	} else {
		if _, err := os.Stat(projectConfigPath); !os.IsNotExist(err) {
			projectConfig, err := loadConfigFromFile(projectConfigPath)
			if err != nil {
				return StackConfig{}, fmt.Errorf("error loading project config from %s: %w", projectConfigPath, err)
			}
			config = mergeConfigs(config, projectConfig)
		}
	}

	// 4. Environment overrides win over every file layer
	if err := applyEnvOverrides(&config); err != nil {
		return StackConfig{}, err
	}

	return config, nil
}

var getUserConfigPath = func() (string, error) {
	homeDir, err := osUserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, userConfigDir, configFileName), nil
}

var getProjectConfigPath = func() (string, error) {
	wd, err := osGetwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, projectConfigDir, configFileName), nil
}

// loadConfigFromFile loads a StackConfig from a YAML file.
func loadConfigFromFile(filePath string) (StackConfig, error) {
	var config StackConfig
	data, err := os.ReadFile(filePath)
	if err != nil {
		return StackConfig{}, err
	}
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return StackConfig{}, err
	}
	return config, nil
}

// mergeConfigs merges 'overlay' config into 'base' config.
// Services and secrets are merged by name; scalar run settings are
// overridden only when set in the overlay.
func mergeConfigs(base, overlay StackConfig) StackConfig {
	merged := base

	if overlay.StackName != "" {
		merged.StackName = overlay.StackName
	}

	if overlay.Run.MaxConcurrentStarts != 0 {
		merged.Run.MaxConcurrentStarts = overlay.Run.MaxConcurrentStarts
	}
	if overlay.Run.HealthTimeout != 0 {
		merged.Run.HealthTimeout = overlay.Run.HealthTimeout
	}
	if overlay.Run.HealthInterval != 0 {
		merged.Run.HealthInterval = overlay.Run.HealthInterval
	}
	if overlay.Run.LogLevel != "" {
		merged.Run.LogLevel = overlay.Run.LogLevel
	}
	if overlay.Run.LogFormat != "" {
		merged.Run.LogFormat = overlay.Run.LogFormat
	}

	// Merge services by name, preserving base declaration order and
	// appending new overlay services at the end. Declaration order is
	// what keeps topological ordering deterministic across runs.
	if len(overlay.Services) > 0 {
		overlayByName := make(map[string]ServiceSpec, len(overlay.Services))
		for _, svc := range overlay.Services {
			overlayByName[svc.Name] = svc
		}
		mergedServices := make([]ServiceSpec, 0, len(merged.Services)+len(overlay.Services))
		for _, svc := range merged.Services {
			if replacement, ok := overlayByName[svc.Name]; ok {
				mergedServices = append(mergedServices, replacement)
				delete(overlayByName, svc.Name)
			} else {
				mergedServices = append(mergedServices, svc)
			}
		}
		for _, svc := range overlay.Services {
			if _, remaining := overlayByName[svc.Name]; remaining {
				mergedServices = append(mergedServices, svc)
			}
		}
		merged.Services = mergedServices
	}

	// Merge secrets by name, same discipline.
	if len(overlay.Secrets) > 0 {
		overlayByName := make(map[string]SecretSpec, len(overlay.Secrets))
		for _, sec := range overlay.Secrets {
			overlayByName[sec.Name] = sec
		}
		mergedSecrets := make([]SecretSpec, 0, len(merged.Secrets)+len(overlay.Secrets))
		for _, sec := range merged.Secrets {
			if replacement, ok := overlayByName[sec.Name]; ok {
				mergedSecrets = append(mergedSecrets, replacement)
				delete(overlayByName, sec.Name)
			} else {
				mergedSecrets = append(mergedSecrets, sec)
			}
		}
		for _, sec := range overlay.Secrets {
			if _, remaining := overlayByName[sec.Name]; remaining {
				mergedSecrets = append(mergedSecrets, sec)
			}
		}
		merged.Secrets = mergedSecrets
	}

	if overlay.Hive.URL != "" {
		merged.Hive.URL = overlay.Hive.URL
	}
	if overlay.Hive.APIKey != "" {
		merged.Hive.APIKey = overlay.Hive.APIKey
	}
	if overlay.Hive.ScoredTag != "" {
		merged.Hive.ScoredTag = overlay.Hive.ScoredTag
	}
	if overlay.Cortex.URL != "" {
		merged.Cortex.URL = overlay.Cortex.URL
	}
	if overlay.Cortex.APIKey != "" {
		merged.Cortex.APIKey = overlay.Cortex.APIKey
	}

	return merged
}

// envOverrides are operator credentials and knobs that should never
// have to live in a config file.
type envOverrides struct {
	HiveURL      string `env:"SOCCTL_THEHIVE_URL"`
	HiveAPIKey   string `env:"SOCCTL_THEHIVE_API_KEY"`
	CortexURL    string `env:"SOCCTL_CORTEX_URL"`
	CortexAPIKey string `env:"SOCCTL_CORTEX_API_KEY"`
	LogLevel     string `env:"SOCCTL_LOG_LEVEL"`
	LogFormat    string `env:"SOCCTL_LOG_FORMAT"`
}

func applyEnvOverrides(cfg *StackConfig) error {
	var overrides envOverrides
	if err := env.Parse(&overrides); err != nil {
		return fmt.Errorf("parsing environment overrides: %w", err)
	}

	if overrides.HiveURL != "" {
		cfg.Hive.URL = overrides.HiveURL
	}
	if overrides.HiveAPIKey != "" {
		cfg.Hive.APIKey = overrides.HiveAPIKey
	}
	if overrides.CortexURL != "" {
		cfg.Cortex.URL = overrides.CortexURL
	}
	if overrides.CortexAPIKey != "" {
		cfg.Cortex.APIKey = overrides.CortexAPIKey
	}
	if overrides.LogLevel != "" {
		cfg.Run.LogLevel = overrides.LogLevel
	}
	if overrides.LogFormat != "" {
		cfg.Run.LogFormat = overrides.LogFormat
	}
	return nil
}
