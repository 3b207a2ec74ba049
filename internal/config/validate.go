package config

import (
	"fmt"
	"path/filepath"
	"slices"
	"strconv"
)

// ValidationIssue describes a problem with a config value.
type ValidationIssue struct {
	Path    string
	Message string
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// Validate checks a Config for issues. Returns nil if valid.
func Validate(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue

	validLogLevels := []string{"silent", "error", "warn", "info", "debug", "trace"}
	if cfg.Logging.Level != "" && !slices.Contains(validLogLevels, cfg.Logging.Level) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.level",
			Message: fmt.Sprintf("must be one of %v, got %q", validLogLevels, cfg.Logging.Level),
		})
	}

	validStyles := []string{"pretty", "json"}
	if cfg.Logging.Style != "" && !slices.Contains(validStyles, cfg.Logging.Style) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.style",
			Message: fmt.Sprintf("must be one of %v, got %q", validStyles, cfg.Logging.Style),
		})
	}

	validBackends := []string{BackendExec, BackendNative}
	if !slices.Contains(validBackends, cfg.Registry.Backend) {
		issues = append(issues, ValidationIssue{
			Path:    "registry.backend",
			Message: fmt.Sprintf("must be one of %v, got %q", validBackends, cfg.Registry.Backend),
		})
	}

	// build.clean removes this directory, so it must stay strictly inside the project.
	if cfg.Build.Dir == "" || filepath.Clean(cfg.Build.Dir) == "." || !filepath.IsLocal(cfg.Build.Dir) {
		issues = append(issues, ValidationIssue{
			Path:    "build.dir",
			Message: fmt.Sprintf("must name a dedicated directory inside the project, got %q", cfg.Build.Dir),
		})
	}

	if cfg.State.File == "" {
		issues = append(issues, ValidationIssue{
			Path:    "state.file",
			Message: "state file is required",
		})
	}

	for name, entries := range map[string][]HookEntry{
		"hooks.beforeDeploy":   cfg.Hooks.BeforeDeploy,
		"hooks.afterDeploy":    cfg.Hooks.AfterDeploy,
		"hooks.beforeUndeploy": cfg.Hooks.BeforeUndeploy,
		"hooks.afterUndeploy":  cfg.Hooks.AfterUndeploy,
		"hooks.stepFailed":     cfg.Hooks.StepFailed,
	} {
		for i, h := range entries {
			if h.Command == "" {
				issues = append(issues, ValidationIssue{
					Path:    fmt.Sprintf("%s[%d].command", name, i),
					Message: "command is required",
				})
			}
			if h.Timeout < 0 {
				issues = append(issues, ValidationIssue{
					Path:    fmt.Sprintf("%s[%d].timeout", name, i),
					Message: fmt.Sprintf("timeout must be >= 0, got %d", h.Timeout),
				})
			}
		}
	}

	slices.SortFunc(issues, func(a, b ValidationIssue) int {
		switch {
		case a.Path < b.Path:
			return -1
		case a.Path > b.Path:
			return 1
		}
		return 0
	})
	return issues
}

// ValidatePlatform checks the environment settings a deploy needs before any
// remote action is attempted.
func ValidatePlatform(p Platform) []ValidationIssue {
	var issues []ValidationIssue

	required := []struct {
		env   string
		value string
	}{
		{"AGENTENGINE_PROJECT", p.EngineProject},
		{"AGENTENGINE_LOCATION", p.EngineLocation},
		{"AGENTENGINE_STAGING_BUCKET", p.EngineStagingBucket},
		{"AGENTSPACE_PROJECT", p.SpaceProject},
		{"AGENTSPACE_PROJECT_NUMBER", p.SpaceProjectNumber},
		{"AGENTSPACE_APP_ID", p.SpaceAppID},
		{"AGENTSPACE_AUTH_ID", p.AuthID},
		{"AGENTSPACE_OAUTH_CLIENT_ID", p.OAuthClientID},
		{"AGENTSPACE_OAUTH_CLIENT_SECRET", p.OAuthClientSecret},
		{"AGENTSPACE_OAUTH_AUTH_URI", p.OAuthAuthURI},
		{"AGENTSPACE_OAUTH_TOKEN_URI", p.OAuthTokenURI},
		{"AGENTSPACE_AGENT_DISPLAY_NAME", p.AgentDisplayName},
		{"AGENTSPACE_AGENT_DESCRIPTION", p.AgentDescription},
		{"AGENTSPACE_AGENT_TOOL_DESCRIPTION", p.AgentToolDescription},
	}
	for _, r := range required {
		if r.value == "" {
			issues = append(issues, ValidationIssue{Path: r.env, Message: "must be set in .env or the environment"})
		}
	}

	if p.SpaceProjectNumber != "" {
		if _, err := strconv.ParseInt(p.SpaceProjectNumber, 10, 64); err != nil {
			issues = append(issues, ValidationIssue{
				Path:    "AGENTSPACE_PROJECT_NUMBER",
				Message: fmt.Sprintf("must be numeric, got %q", p.SpaceProjectNumber),
			})
		}
	}

	return issues
}
