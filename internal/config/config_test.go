package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "pretty", cfg.Logging.Style)
	assert.Equal(t, DefaultStateFile, cfg.State.File)
	assert.Equal(t, "dist", cfg.Build.Dir)
	assert.Equal(t, "uv", cfg.Tools.UV)
	assert.Equal(t, "agentengine_manage", cfg.Tools.EngineManage)
	assert.Equal(t, "agentspace_manage", cfg.Tools.SpaceManage)
	assert.Equal(t, "AGENTSPACE_AUTH_ID", cfg.Engine.AuthIDEnv)
	assert.True(t, cfg.Engine.DeleteSessions())
	assert.Equal(t, BackendExec, cfg.Registry.Backend)
	assert.True(t, cfg.History.Enabled)
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, BackendExec, cfg.Registry.Backend)
}

func TestLoadValidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	yaml := `
logging:
  level: debug
  style: json
state:
  file: deploy/state.yaml
build:
  dir: out
engine:
  displayName: jira-agent
  withSessions: false
  extraEnv:
    - JIRA_INSTANCE
registry:
  backend: native
agentspace:
  location: us-central1
history:
  enabled: false
hooks:
  afterDeploy:
    - command: echo deployed
      timeout: 5000
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Style)
	assert.Equal(t, "deploy/state.yaml", cfg.State.File)
	assert.Equal(t, "out", cfg.Build.Dir)
	assert.Equal(t, "jira-agent", cfg.Engine.DisplayName)
	assert.False(t, cfg.Engine.DeleteSessions())
	assert.Equal(t, []string{"JIRA_INSTANCE"}, cfg.Engine.ExtraEnv)
	assert.Equal(t, BackendNative, cfg.Registry.Backend)
	assert.Equal(t, "us-central1", cfg.Agentspace.Location)
	assert.False(t, cfg.History.Enabled)
	require.Len(t, cfg.Hooks.AfterDeploy, 1)
	assert.Equal(t, "echo deployed", cfg.Hooks.AfterDeploy[0].Command)
	assert.Equal(t, 5000, cfg.Hooks.AfterDeploy[0].Timeout)

	// Untouched sections keep defaults.
	assert.Equal(t, "uv", cfg.Tools.UV)
	assert.Equal(t, "AGENTSPACE_AUTH_ID", cfg.Engine.AuthIDEnv)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{{invalid yaml"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config")

	var cfgErr *ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("JSMDEPLOY_LOG_LEVEL", "TRACE")
	t.Setenv("JSMDEPLOY_STATE_FILE", "/tmp/state.yaml")
	t.Setenv("JSMDEPLOY_REGISTRY_BACKEND", "Native")
	t.Setenv("AGENTSPACE_LOCATION", "europe-west1")

	cfg, err := Load("/nonexistent/config.yaml")
	require.NoError(t, err)

	assert.Equal(t, "trace", cfg.Logging.Level)
	assert.Equal(t, "/tmp/state.yaml", cfg.State.File)
	assert.Equal(t, BackendNative, cfg.Registry.Backend)
	assert.Equal(t, "europe-west1", cfg.Agentspace.Location)
}

func TestLoadExpandsEnvReferences(t *testing.T) {
	t.Setenv("AGENT_NAME", "jsm-agent")
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("engine:\n  displayName: ${AGENT_NAME}-prod\n  authIdEnv: ${UNSET_VAR}\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "jsm-agent-prod", cfg.Engine.DisplayName)
	// Only selected fields are expanded.
	assert.Equal(t, "${UNSET_VAR}", cfg.Engine.AuthIDEnv)
}

func TestLoadRawAndSaveRaw(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	raw := map[string]any{
		"registry": map[string]any{
			"backend": "native",
		},
	}
	require.NoError(t, SaveRaw(path, raw))

	loaded, err := LoadRaw(path)
	require.NoError(t, err)

	val, ok := GetValueAtPath(loaded, []string{"registry", "backend"})
	assert.True(t, ok)
	assert.Equal(t, "native", val)
}

func TestLoadRawMissingFile(t *testing.T) {
	raw, err := LoadRaw(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)
	assert.Empty(t, raw)
}
