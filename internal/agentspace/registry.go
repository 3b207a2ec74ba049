package agentspace

import (
	"context"

	"github.com/soyeahso/jsmdeploy/internal/config"
)

// Registry registers the agent through the REST API instead of the
// agentspace_manage tool.
type Registry struct {
	client   *Client
	platform config.Platform
}

// NewRegistry creates a Registry using the OAuth client and agent
// descriptions from platform.
func NewRegistry(c *Client, platform config.Platform) *Registry {
	return &Registry{client: c, platform: platform}
}

// CreateAuth creates the authorization for authID.
func (r *Registry) CreateAuth(ctx context.Context, authID string) error {
	_, err := r.client.CreateAuthorization(ctx, authID, ServerSideOAuth2{
		ClientID:         r.platform.OAuthClientID,
		ClientSecret:     r.platform.OAuthClientSecret,
		AuthorizationURI: r.platform.OAuthAuthURI,
		TokenURI:         r.platform.OAuthTokenURI,
	})
	return err
}

// DeleteAuth deletes the authorization. A missing authorization counts as
// deleted.
func (r *Registry) DeleteAuth(ctx context.Context, authID string) error {
	err := r.client.DeleteAuthorization(ctx, authID)
	if IsNotFound(err) {
		r.client.log.Warn().Str("auth", authID).Msg("authorization already gone")
		return nil
	}
	return err
}

// CreateAgent registers the agent backed by engineResource.
func (r *Registry) CreateAgent(ctx context.Context, engineResource, authID string) (string, error) {
	agent, err := r.client.CreateAgent(ctx, r.platform.SpaceAppID, SpecFromPlatform(r.platform, engineResource, authID))
	if err != nil {
		return "", err
	}
	return agent.Name, nil
}

// SpecFromPlatform describes the agent from the platform settings. An
// empty authID registers the agent without tool authorizations.
func SpecFromPlatform(p config.Platform, engineResource, authID string) AgentSpec {
	spec := AgentSpec{
		DisplayName:     p.AgentDisplayName,
		Description:     p.AgentDescription,
		ToolDescription: p.AgentToolDescription,
		ReasoningEngine: engineResource,
		IconURI:         p.AgentIconURI,
	}
	if authID != "" {
		spec.AuthIDs = []string{authID}
	}
	return spec
}

// DeleteAgent deletes the agent. A missing agent counts as deleted.
func (r *Registry) DeleteAgent(ctx context.Context, name string) error {
	err := r.client.DeleteAgent(ctx, name)
	if IsNotFound(err) {
		r.client.log.Warn().Str("agent", name).Msg("agent already gone")
		return nil
	}
	return err
}
