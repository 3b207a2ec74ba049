package config

import (
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// envVarPattern matches ${VAR_NAME} patterns in strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnvVars replaces ${VAR} patterns with environment variable values.
// Unset variables are left unchanged.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val, ok := os.LookupEnv(varName); ok {
			return val
		}
		return match
	})
}

// expandFields resolves ${VAR} references in values that commonly point at
// per-project settings.
func expandFields(cfg *Config) {
	cfg.Engine.DisplayName = expandEnvVars(cfg.Engine.DisplayName)
	cfg.Agentspace.Location = expandEnvVars(cfg.Agentspace.Location)
	cfg.Agentspace.Endpoint = expandEnvVars(cfg.Agentspace.Endpoint)
	cfg.State.File = expandEnvVars(cfg.State.File)
	cfg.History.Path = expandEnvVars(cfg.History.Path)
}

// Load reads the config file, applies environment overrides, and returns
// a merged Config. A missing file yields defaults.
func Load(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnvOverrides(&cfg)
			return cfg, nil
		}
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, &ConfigError{Message: "failed to parse config: " + err.Error()}
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)
	expandFields(&cfg)
	return cfg, nil
}

// LoadRaw reads the config file into a generic map for path-based access.
func LoadRaw(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]any{}, nil
		}
		return nil, err
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &ConfigError{Message: "failed to parse config: " + err.Error()}
	}
	if raw == nil {
		raw = map[string]any{}
	}
	return raw, nil
}

// SaveRaw writes a generic map back to a YAML config file.
func SaveRaw(path string, raw map[string]any) error {
	data, err := yaml.Marshal(raw)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// applyDefaults fills zero-value fields left empty by a partial config file.
func applyDefaults(cfg *Config) {
	d := Defaults()
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = d.Logging.Level
	}
	if cfg.Logging.Style == "" {
		cfg.Logging.Style = d.Logging.Style
	}
	if cfg.State.File == "" {
		cfg.State.File = d.State.File
	}
	if cfg.Build.Dir == "" {
		cfg.Build.Dir = d.Build.Dir
	}
	if cfg.Tools.UV == "" {
		cfg.Tools.UV = d.Tools.UV
	}
	if cfg.Tools.EngineManage == "" {
		cfg.Tools.EngineManage = d.Tools.EngineManage
	}
	if cfg.Tools.SpaceManage == "" {
		cfg.Tools.SpaceManage = d.Tools.SpaceManage
	}
	if cfg.Engine.AuthIDEnv == "" {
		cfg.Engine.AuthIDEnv = d.Engine.AuthIDEnv
	}
	if cfg.Registry.Backend == "" {
		cfg.Registry.Backend = d.Registry.Backend
	}
}

// applyEnvOverrides reads JSMDEPLOY_* environment variables and overrides config values.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("JSMDEPLOY_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("JSMDEPLOY_STATE_FILE"); v != "" {
		cfg.State.File = v
	}
	if v := os.Getenv("JSMDEPLOY_REGISTRY_BACKEND"); v != "" {
		cfg.Registry.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("AGENTSPACE_LOCATION"); v != "" && cfg.Agentspace.Location == "" {
		cfg.Agentspace.Location = v
	}
}
