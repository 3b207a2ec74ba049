package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePathsCustomHome(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("JSMDEPLOY_HOME", tmp)

	paths, err := ResolvePaths()
	require.NoError(t, err)
	assert.Equal(t, tmp, paths.Base)
	assert.Equal(t, filepath.Join(tmp, "config.yaml"), paths.Config)
	assert.Equal(t, filepath.Join(tmp, "history.db"), paths.History)
}

func TestEnsureDirs(t *testing.T) {
	tmp := filepath.Join(t.TempDir(), "nested", "home")
	t.Setenv("JSMDEPLOY_HOME", tmp)

	paths, err := ResolvePaths()
	require.NoError(t, err)
	require.NoError(t, paths.EnsureDirs())
	require.NoError(t, paths.EnsureDirs())

	info, err := os.Stat(tmp)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestParseConfigPath(t *testing.T) {
	tests := []struct {
		input   string
		want    []string
		wantErr bool
	}{
		{"registry.backend", []string{"registry", "backend"}, false},
		{"engine", []string{"engine"}, false},
		{"", nil, true},
		{"a..b", nil, true},
		{".a", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseConfigPath(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestGetSetUnsetValueAtPath(t *testing.T) {
	root := map[string]any{
		"engine": map[string]any{
			"displayName": "a",
			"authIdEnv":   "AGENTSPACE_AUTH_ID",
		},
	}

	val, ok := GetValueAtPath(root, []string{"engine", "displayName"})
	assert.True(t, ok)
	assert.Equal(t, "a", val)

	_, ok = GetValueAtPath(root, []string{"engine", "missing"})
	assert.False(t, ok)
	_, ok = GetValueAtPath(root, []string{"engine", "displayName", "deeper"})
	assert.False(t, ok)

	SetValueAtPath(root, []string{"hooks", "afterDeploy"}, "x")
	val, ok = GetValueAtPath(root, []string{"hooks", "afterDeploy"})
	assert.True(t, ok)
	assert.Equal(t, "x", val)

	assert.True(t, UnsetValueAtPath(root, []string{"engine", "displayName"}))
	_, ok = GetValueAtPath(root, []string{"engine", "displayName"})
	assert.False(t, ok)

	val, ok = GetValueAtPath(root, []string{"engine", "authIdEnv"})
	assert.True(t, ok)
	assert.Equal(t, "AGENTSPACE_AUTH_ID", val)

	assert.False(t, UnsetValueAtPath(root, []string{"engine", "nope"}))
	assert.False(t, UnsetValueAtPath(root, []string{"missing", "nope"}))
}
