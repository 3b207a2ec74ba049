package manage

import (
	"context"
	"fmt"

	"github.com/soyeahso/jsmdeploy/internal/state"
)

// Registry manages Agentspace auth and agent records via agentspace_manage.
type Registry struct {
	tools *Tools
}

// NewRegistry creates an exec-backed Registry.
func NewRegistry(t *Tools) *Registry {
	return &Registry{tools: t}
}

// CreateAuth creates the OAuth authorization resource. The client
// credentials come from the environment.
func (r *Registry) CreateAuth(ctx context.Context, authID string) error {
	return r.tools.Run(ctx, r.tools.UVRun(r.tools.names.SpaceManage, "auth", "create", "--auth-id", authID))
}

// DeleteAuth deletes the authorization resource.
func (r *Registry) DeleteAuth(ctx context.Context, authID string) error {
	return r.tools.Run(ctx, r.tools.UVRun(r.tools.names.SpaceManage, "auth", "delete", "--auth-id", authID))
}

// CreateAgent registers the agent for an engine and returns its resource name.
func (r *Registry) CreateAgent(ctx context.Context, engineResource, authID string) (string, error) {
	if err := r.tools.clearInstanceFile(state.LegacyAgentFile); err != nil {
		return "", err
	}
	args := []string{
		"agent", "create",
		"--instance-env-file", state.LegacyAgentFile,
		"--agentengine-instance", engineResource,
	}
	if authID != "" {
		args = append(args, "--auth-id", authID)
	}
	if err := r.tools.Run(ctx, r.tools.UVRun(r.tools.names.SpaceManage, args...)); err != nil {
		return "", err
	}
	name, err := r.tools.takeInstanceFile(state.LegacyAgentFile, state.LegacyAgentKey)
	if err != nil {
		return "", fmt.Errorf("agent created but its resource name is unknown: %w", err)
	}
	return name, nil
}

// DeleteAgent removes an agent registration.
func (r *Registry) DeleteAgent(ctx context.Context, name string) error {
	return r.tools.Run(ctx, r.tools.UVRun(r.tools.names.SpaceManage, "agent", "delete", name))
}
