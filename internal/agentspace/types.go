package agentspace

// ServerSideOAuth2 holds the OAuth client Agentspace uses on behalf of users.
type ServerSideOAuth2 struct {
	ClientID         string `json:"clientId"`
	ClientSecret     string `json:"clientSecret,omitempty"`
	AuthorizationURI string `json:"authorizationUri"`
	TokenURI         string `json:"tokenUri"`
}

// Authorization is an authorization resource.
type Authorization struct {
	Name             string            `json:"name"`
	ServerSideOAuth2 *ServerSideOAuth2 `json:"serverSideOauth2,omitempty"`
}

// AgentSpec describes an agent to create or update.
type AgentSpec struct {
	DisplayName     string
	Description     string
	ToolDescription string
	// ReasoningEngine is the AgentEngine resource backing the agent.
	ReasoningEngine string
	IconURI         string
	// AuthIDs are authorization ids the agent's tools may use.
	AuthIDs []string
}

// Agent is a registered agent as returned by the API.
type Agent struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	Description string `json:"description,omitempty"`
	State       string `json:"state,omitempty"`
	CreateTime  string `json:"createTime,omitempty"`
	UpdateTime  string `json:"updateTime,omitempty"`
	Icon        *Icon  `json:"icon,omitempty"`

	ADKAgentDefinition *struct {
		ProvisionedReasoningEngine *struct {
			ReasoningEngine string `json:"reasoningEngine"`
		} `json:"provisionedReasoningEngine,omitempty"`
	} `json:"adkAgentDefinition,omitempty"`
}

// ReasoningEngine returns the engine backing the agent, if reported.
func (a *Agent) ReasoningEngine() string {
	if a.ADKAgentDefinition == nil || a.ADKAgentDefinition.ProvisionedReasoningEngine == nil {
		return ""
	}
	return a.ADKAgentDefinition.ProvisionedReasoningEngine.ReasoningEngine
}

// Icon is an agent icon.
type Icon struct {
	URI string `json:"uri"`
}

// agentPayload is the request body for agent create and update.
type agentPayload struct {
	DisplayName         string               `json:"displayName"`
	Description         string               `json:"description"`
	ADKAgentDefinition  adkAgentDefinition   `json:"adk_agent_definition"`
	Icon                *Icon                `json:"icon,omitempty"`
	AuthorizationConfig *authorizationConfig `json:"authorization_config,omitempty"`
}

type adkAgentDefinition struct {
	ToolSettings struct {
		ToolDescription string `json:"tool_description"`
	} `json:"tool_settings"`
	ProvisionedReasoningEngine struct {
		ReasoningEngine string `json:"reasoning_engine"`
	} `json:"provisioned_reasoning_engine"`
}

type authorizationConfig struct {
	ToolAuthorizations []string `json:"tool_authorizations"`
}

type listAuthorizationsResponse struct {
	Authorizations []Authorization `json:"authorizations"`
	NextPageToken  string          `json:"nextPageToken"`
}

type listAgentsResponse struct {
	Agents        []Agent `json:"agents"`
	NextPageToken string  `json:"nextPageToken"`
}
