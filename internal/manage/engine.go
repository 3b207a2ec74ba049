package manage

import (
	"context"
	"fmt"

	"github.com/soyeahso/jsmdeploy/internal/state"
)

// Engines provisions and removes AgentEngine instances via agentengine_manage.
type Engines struct {
	tools       *Tools
	displayName string
}

// NewEngines creates an exec-backed Engines. displayName may be empty, in
// which case the tool falls back to AGENTENGINE_DISPLAY_NAME.
func NewEngines(t *Tools, displayName string) *Engines {
	return &Engines{tools: t, displayName: displayName}
}

// Deploy creates an engine from the built artifacts, re-exporting the named
// environment variables to it, and returns the engine resource name.
func (e *Engines) Deploy(ctx context.Context, artifacts, env []string) (string, error) {
	if err := e.tools.clearInstanceFile(state.LegacyEngineFile); err != nil {
		return "", err
	}

	args := []string{"deploy", "--instance-env-file", state.LegacyEngineFile}
	if e.displayName != "" {
		args = append(args, "--display-name", e.displayName)
	}
	for _, a := range artifacts {
		args = append(args, "--extra-packages", a)
	}
	for _, k := range env {
		args = append(args, "--env", k)
	}

	if err := e.tools.Run(ctx, e.tools.UVRun(e.tools.names.EngineManage, args...)); err != nil {
		return "", err
	}
	resource, err := e.tools.takeInstanceFile(state.LegacyEngineFile, state.LegacyEngineKey)
	if err != nil {
		return "", fmt.Errorf("engine deployed but its resource name is unknown: %w", err)
	}
	return resource, nil
}

// Test runs the tool's smoke test against a deployed engine.
func (e *Engines) Test(ctx context.Context, resource string) error {
	return e.tools.Run(ctx, e.tools.UVRun(e.tools.names.EngineManage, "remote-test", "--resource", resource))
}

// Delete removes an engine, optionally with its sessions.
func (e *Engines) Delete(ctx context.Context, resource string, withSessions bool) error {
	args := []string{"delete", "--resource", resource}
	if withSessions {
		args = append(args, "--with-sessions")
	}
	return e.tools.Run(ctx, e.tools.UVRun(e.tools.names.EngineManage, args...))
}
