// Package state persists what this tool believes exists on the remote
// platform. A record is present iff the corresponding remote resource is
// believed to exist.
package state

import "time"

// SchemaVersion is the current state file schema.
const SchemaVersion = 1

// Phase is the lifecycle position derived from which records are present.
type Phase string

const (
	PhaseAbsent     Phase = "absent"
	PhaseDeployed   Phase = "deployed"
	PhaseRegistered Phase = "registered"
)

// EngineRecord marks a provisioned AgentEngine.
type EngineRecord struct {
	Resource    string    `yaml:"resource"`
	DisplayName string    `yaml:"displayName,omitempty"`
	DeployedAt  time.Time `yaml:"deployedAt,omitempty"`
}

// SessionServiceURI is the session service identifier for running the agent
// locally against the deployed engine's sessions.
func (e *EngineRecord) SessionServiceURI() string {
	return "agentengine://" + e.Resource
}

// AgentRecord marks an Agentspace registration: the auth resource and,
// once created, the agent that references it. A record with an empty Name
// means the auth exists but agent creation has not succeeded.
type AgentRecord struct {
	Name         string    `yaml:"name,omitempty"`
	AuthID       string    `yaml:"authId"`
	RegisteredAt time.Time `yaml:"registeredAt,omitempty"`
}

// State is the whole local deployment record.
type State struct {
	SchemaVersion int           `yaml:"schemaVersion"`
	Engine        *EngineRecord `yaml:"engine,omitempty"`
	Agent         *AgentRecord  `yaml:"agent,omitempty"`
}

// New returns an empty state at the current schema version.
func New() *State {
	return &State{SchemaVersion: SchemaVersion}
}

// Empty reports whether no remote resource is recorded.
func (s *State) Empty() bool {
	return s.Engine == nil && s.Agent == nil
}

// Phase derives the lifecycle phase.
func (s *State) Phase() Phase {
	switch {
	case s.Agent != nil && s.Agent.Name != "":
		return PhaseRegistered
	case s.Engine != nil || s.Agent != nil:
		return PhaseDeployed
	default:
		return PhaseAbsent
	}
}

// Clone returns a deep copy.
func (s *State) Clone() *State {
	c := &State{SchemaVersion: s.SchemaVersion}
	if s.Engine != nil {
		e := *s.Engine
		c.Engine = &e
	}
	if s.Agent != nil {
		a := *s.Agent
		c.Agent = &a
	}
	return c
}
