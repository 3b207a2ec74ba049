package config

import "os"

// Platform holds the AgentEngine and Agentspace settings read from the
// environment (normally populated from .env).
type Platform struct {
	EngineProject       string
	EngineLocation      string
	EngineStagingBucket string
	EngineDisplayName   string

	SpaceProject       string
	SpaceProjectNumber string
	SpaceAppID         string
	SpaceLocation      string
	AuthID             string

	OAuthClientID     string
	OAuthClientSecret string
	OAuthAuthURI      string
	OAuthTokenURI     string

	AgentDisplayName     string
	AgentDescription     string
	AgentToolDescription string
	AgentIconURI         string
}

// PlatformFromEnv reads Platform settings from the process environment.
func PlatformFromEnv() Platform {
	return Platform{
		EngineProject:        os.Getenv("AGENTENGINE_PROJECT"),
		EngineLocation:       os.Getenv("AGENTENGINE_LOCATION"),
		EngineStagingBucket:  os.Getenv("AGENTENGINE_STAGING_BUCKET"),
		EngineDisplayName:    os.Getenv("AGENTENGINE_DISPLAY_NAME"),
		SpaceProject:         os.Getenv("AGENTSPACE_PROJECT"),
		SpaceProjectNumber:   os.Getenv("AGENTSPACE_PROJECT_NUMBER"),
		SpaceAppID:           os.Getenv("AGENTSPACE_APP_ID"),
		SpaceLocation:        os.Getenv("AGENTSPACE_LOCATION"),
		AuthID:               os.Getenv("AGENTSPACE_AUTH_ID"),
		OAuthClientID:        os.Getenv("AGENTSPACE_OAUTH_CLIENT_ID"),
		OAuthClientSecret:    os.Getenv("AGENTSPACE_OAUTH_CLIENT_SECRET"),
		OAuthAuthURI:         os.Getenv("AGENTSPACE_OAUTH_AUTH_URI"),
		OAuthTokenURI:        os.Getenv("AGENTSPACE_OAUTH_TOKEN_URI"),
		AgentDisplayName:     os.Getenv("AGENTSPACE_AGENT_DISPLAY_NAME"),
		AgentDescription:     os.Getenv("AGENTSPACE_AGENT_DESCRIPTION"),
		AgentToolDescription: os.Getenv("AGENTSPACE_AGENT_TOOL_DESCRIPTION"),
		AgentIconURI:         os.Getenv("AGENT_ICON_URI"),
	}
}

// Warnings returns non-fatal observations about the settings.
func (p Platform) Warnings() []string {
	var w []string
	if p.SpaceLocation == "" || p.SpaceLocation == "global" {
		w = append(w, "AGENTSPACE_LOCATION is global; auth requires the same region as the AgentEngine")
	}
	return w
}
