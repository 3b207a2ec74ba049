package config

import "fmt"

// ConfigError represents a configuration error.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s", e.Message)
}

// Defaults returns a Config with sensible defaults applied.
func Defaults() Config {
	withSessions := true
	return Config{
		Logging: LoggingConfig{
			Level: "info",
			Style: "pretty",
		},
		State: StateConfig{
			File: DefaultStateFile,
		},
		Build: BuildConfig{
			Dir: "dist",
		},
		Tools: ToolsConfig{
			UV:           "uv",
			EngineManage: "agentengine_manage",
			SpaceManage:  "agentspace_manage",
		},
		Engine: EngineConfig{
			WithSessions: &withSessions,
			AuthIDEnv:    "AGENTSPACE_AUTH_ID",
		},
		Registry: RegistryConfig{
			Backend: BackendExec,
		},
		History: HistoryConfig{
			Enabled: true,
		},
	}
}
