package config

import (
	"os"
	"path/filepath"
	"strings"
)

const defaultBaseDir = ".jsmdeploy"

// Paths holds resolved filesystem paths for jsmdeploy's own data.
type Paths struct {
	Base    string // ~/.jsmdeploy
	Config  string // ~/.jsmdeploy/config.yaml
	History string // ~/.jsmdeploy/history.db
}

// ResolvePaths computes all standard paths from the home directory.
// If JSMDEPLOY_HOME is set, it overrides the default base directory.
func ResolvePaths() (Paths, error) {
	base := os.Getenv("JSMDEPLOY_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Paths{}, err
		}
		base = filepath.Join(home, defaultBaseDir)
	}

	return Paths{
		Base:    base,
		Config:  filepath.Join(base, "config.yaml"),
		History: filepath.Join(base, "history.db"),
	}, nil
}

// EnsureDirs creates the base directory if it doesn't exist.
func (p Paths) EnsureDirs() error {
	return os.MkdirAll(p.Base, 0o700)
}

// ParseConfigPath splits a dot-separated config path into segments.
func ParseConfigPath(raw string) ([]string, error) {
	if raw == "" {
		return nil, &ConfigError{Message: "empty config path"}
	}
	parts := strings.Split(raw, ".")
	for _, p := range parts {
		if p == "" {
			return nil, &ConfigError{Message: "config path contains empty segment"}
		}
	}
	return parts, nil
}

// GetValueAtPath walks nested maps and returns the value at path.
func GetValueAtPath(root map[string]any, path []string) (any, bool) {
	var cur any = root
	for _, key := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// SetValueAtPath sets value at path, creating intermediate maps as needed.
func SetValueAtPath(root map[string]any, path []string, value any) {
	cur := root
	for _, key := range path[:len(path)-1] {
		next, ok := cur[key].(map[string]any)
		if !ok {
			next = map[string]any{}
			cur[key] = next
		}
		cur = next
	}
	cur[path[len(path)-1]] = value
}

// UnsetValueAtPath deletes the value at path. Returns false if it was absent.
func UnsetValueAtPath(root map[string]any, path []string) bool {
	cur := root
	for _, key := range path[:len(path)-1] {
		next, ok := cur[key].(map[string]any)
		if !ok {
			return false
		}
		cur = next
	}
	last := path[len(path)-1]
	if _, ok := cur[last]; !ok {
		return false
	}
	delete(cur, last)
	return true
}
