package config

// DefaultStateFile is the deployment state file name, resolved against the
// project directory.
const DefaultStateFile = ".jsmdeploy-state.yaml"

// Registry backends.
const (
	BackendExec   = "exec"
	BackendNative = "native"
)

// Config is the root configuration for jsmdeploy.
type Config struct {
	Logging    LoggingConfig    `yaml:"logging,omitempty"`
	State      StateConfig      `yaml:"state,omitempty"`
	Build      BuildConfig      `yaml:"build,omitempty"`
	Tools      ToolsConfig      `yaml:"tools,omitempty"`
	Engine     EngineConfig     `yaml:"engine,omitempty"`
	Registry   RegistryConfig   `yaml:"registry,omitempty"`
	Agentspace AgentspaceConfig `yaml:"agentspace,omitempty"`
	History    HistoryConfig    `yaml:"history,omitempty"`
	Hooks      HooksConfig      `yaml:"hooks,omitempty"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level string `yaml:"level,omitempty"` // "silent" | "error" | "warn" | "info" | "debug" | "trace"
	Style string `yaml:"style,omitempty"` // "pretty" | "json"
}

// StateConfig locates the local deployment state file.
type StateConfig struct {
	File string `yaml:"file,omitempty"`
}

// BuildConfig controls the package build.
type BuildConfig struct {
	Dir string `yaml:"dir,omitempty"` // build output directory, removed before each build
}

// ToolsConfig names the external binaries. The management tools run through uv.
type ToolsConfig struct {
	UV           string `yaml:"uv,omitempty"`
	EngineManage string `yaml:"engineManage,omitempty"`
	SpaceManage  string `yaml:"spaceManage,omitempty"`
}

// EngineConfig controls AgentEngine deploy and teardown.
type EngineConfig struct {
	DisplayName  string   `yaml:"displayName,omitempty"`
	WithSessions *bool    `yaml:"withSessions,omitempty"` // delete sessions with the engine; defaults to true
	AuthIDEnv    string   `yaml:"authIdEnv,omitempty"`    // env var re-exported to the engine naming the auth resource
	ExtraEnv     []string `yaml:"extraEnv,omitempty"`     // additional env vars re-exported to the engine
}

// DeleteSessions reports whether engine teardown also deletes sessions.
func (e EngineConfig) DeleteSessions() bool {
	return e.WithSessions == nil || *e.WithSessions
}

// RegistryConfig selects how Agentspace auth and agent records are managed.
type RegistryConfig struct {
	Backend string `yaml:"backend,omitempty"` // "exec" | "native"
}

// AgentspaceConfig configures the native Agentspace client.
type AgentspaceConfig struct {
	Location string `yaml:"location,omitempty"`
	Endpoint string `yaml:"endpoint,omitempty"` // overrides the derived discoveryengine base URL
}

// HistoryConfig controls the run history database.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled,omitempty"`
	Path    string `yaml:"path,omitempty"`
}

// HooksConfig defines commands run on lifecycle events.
type HooksConfig struct {
	BeforeDeploy   []HookEntry `yaml:"beforeDeploy,omitempty"`
	AfterDeploy    []HookEntry `yaml:"afterDeploy,omitempty"`
	BeforeUndeploy []HookEntry `yaml:"beforeUndeploy,omitempty"`
	AfterUndeploy  []HookEntry `yaml:"afterUndeploy,omitempty"`
	StepFailed     []HookEntry `yaml:"stepFailed,omitempty"`
}

// HookEntry defines a single hook action.
type HookEntry struct {
	Command string `yaml:"command"`
	Timeout int    `yaml:"timeout,omitempty"` // milliseconds
}
