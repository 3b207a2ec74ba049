package agentspace

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// CreateAuthorization creates an OAuth authorization resource.
func (c *Client) CreateAuthorization(ctx context.Context, authID string, oauth ServerSideOAuth2) (*Authorization, error) {
	name := fmt.Sprintf("%s/authorizations/%s", c.parent(), authID)
	body := Authorization{Name: name, ServerSideOAuth2: &oauth}

	var out Authorization
	q := url.Values{"authorizationId": {authID}}
	if err := c.do(ctx, http.MethodPost, c.parent()+"/authorizations", q, body, &out); err != nil {
		return nil, fmt.Errorf("creating authorization %s: %w", authID, err)
	}
	c.log.Info().Str("auth", authID).Msg("authorization created")
	return &out, nil
}

// ListAuthorizations returns every authorization in the project.
func (c *Client) ListAuthorizations(ctx context.Context) ([]Authorization, error) {
	var all []Authorization
	q := url.Values{}
	for {
		var page listAuthorizationsResponse
		if err := c.do(ctx, http.MethodGet, c.parent()+"/authorizations", q, nil, &page); err != nil {
			return nil, fmt.Errorf("listing authorizations: %w", err)
		}
		all = append(all, page.Authorizations...)
		if page.NextPageToken == "" {
			return all, nil
		}
		q.Set("pageToken", page.NextPageToken)
	}
}

// DeleteAuthorization deletes an authorization by id.
func (c *Client) DeleteAuthorization(ctx context.Context, authID string) error {
	path := fmt.Sprintf("%s/authorizations/%s", c.parent(), authID)
	if err := c.do(ctx, http.MethodDelete, path, nil, nil, nil); err != nil {
		return fmt.Errorf("deleting authorization %s: %w", authID, err)
	}
	c.log.Info().Str("auth", authID).Msg("authorization deleted")
	return nil
}

// CreateAgent registers an agent in an Agentspace app.
func (c *Client) CreateAgent(ctx context.Context, appID string, spec AgentSpec) (*Agent, error) {
	var out Agent
	if err := c.do(ctx, http.MethodPost, c.agentsPath(appID), nil, c.payload(spec), &out); err != nil {
		return nil, fmt.Errorf("creating agent: %w", err)
	}
	if out.Name == "" {
		return nil, fmt.Errorf("creating agent: response carried no resource name")
	}
	c.log.Info().Str("agent", out.Name).Msg("agent created")
	return &out, nil
}

// GetAgent fetches an agent by full resource name.
func (c *Client) GetAgent(ctx context.Context, name string) (*Agent, error) {
	var out Agent
	if err := c.do(ctx, http.MethodGet, name, nil, nil, &out); err != nil {
		return nil, fmt.Errorf("getting agent: %w", err)
	}
	return &out, nil
}

// ListAgents returns the agents registered in an app.
func (c *Client) ListAgents(ctx context.Context, appID string) ([]Agent, error) {
	var all []Agent
	q := url.Values{}
	for {
		var page listAgentsResponse
		if err := c.do(ctx, http.MethodGet, c.agentsPath(appID), q, nil, &page); err != nil {
			return nil, fmt.Errorf("listing agents: %w", err)
		}
		all = append(all, page.Agents...)
		if page.NextPageToken == "" {
			return all, nil
		}
		q.Set("pageToken", page.NextPageToken)
	}
}

// UpdateAgent replaces an agent's definition.
func (c *Client) UpdateAgent(ctx context.Context, name string, spec AgentSpec) (*Agent, error) {
	var out Agent
	if err := c.do(ctx, http.MethodPatch, name, nil, c.payload(spec), &out); err != nil {
		return nil, fmt.Errorf("updating agent: %w", err)
	}
	return &out, nil
}

// DeleteAgent deletes an agent by full resource name.
func (c *Client) DeleteAgent(ctx context.Context, name string) error {
	if err := c.do(ctx, http.MethodDelete, name, nil, nil, nil); err != nil {
		return fmt.Errorf("deleting agent: %w", err)
	}
	c.log.Info().Str("agent", name).Msg("agent deleted")
	return nil
}

func (c *Client) payload(spec AgentSpec) agentPayload {
	p := agentPayload{
		DisplayName: spec.DisplayName,
		Description: spec.Description,
	}
	p.ADKAgentDefinition.ToolSettings.ToolDescription = spec.ToolDescription
	p.ADKAgentDefinition.ProvisionedReasoningEngine.ReasoningEngine = spec.ReasoningEngine
	if spec.IconURI != "" {
		p.Icon = &Icon{URI: spec.IconURI}
	}
	if len(spec.AuthIDs) > 0 {
		p.AuthorizationConfig = &authorizationConfig{}
		for _, id := range spec.AuthIDs {
			p.AuthorizationConfig.ToolAuthorizations = append(p.AuthorizationConfig.ToolAuthorizations, c.AuthorizationName(id))
		}
	}
	return p
}
