// Package lifecycle builds, deploys and tears down the agent. Every
// operation is a pipeline of steps whose results are collected into an
// Outcome; a step runs only when the steps it depends on succeeded.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/soyeahso/jsmdeploy/internal/hooks"
	"github.com/soyeahso/jsmdeploy/internal/logging"
	"github.com/soyeahso/jsmdeploy/internal/state"
)

// Toolchain verifies the local build tooling is installed.
type Toolchain interface {
	Check() error
}

// Builder produces the deployable artifacts.
type Builder interface {
	Clean(ctx context.Context) error
	Package(ctx context.Context) ([]string, error)
}

// Engines provisions remote AgentEngine instances.
type Engines interface {
	Deploy(ctx context.Context, artifacts, env []string) (string, error)
	Test(ctx context.Context, resource string) error
	Delete(ctx context.Context, resource string, withSessions bool) error
}

// Registry manages Agentspace auth and agent registrations.
type Registry interface {
	CreateAuth(ctx context.Context, authID string) error
	DeleteAuth(ctx context.Context, authID string) error
	CreateAgent(ctx context.Context, engineResource, authID string) (string, error)
	DeleteAgent(ctx context.Context, name string) error
}

// StateStore persists the deployment state.
type StateStore interface {
	Load() (*state.State, error)
	Save(s *state.State) error
}

// History records finished operations.
type History interface {
	Record(ctx context.Context, o *Outcome) error
}

// Options tunes deploy and undeploy.
type Options struct {
	// WithSessions deletes engine sessions along with the engine.
	WithSessions bool
	// SkipTest omits the remote smoke test after deploying.
	SkipTest bool
	// AuthID is the Agentspace authorization id.
	AuthID string
	// AuthIDEnv names the variable re-exported to the engine so the agent
	// can find its authorization at runtime.
	AuthIDEnv string
	// ExtraEnv lists further variables re-exported to the engine.
	ExtraEnv []string
	// DisplayName is recorded with the engine.
	DisplayName string
}

// Deps are the collaborators of a Controller. History and Hooks may be nil.
type Deps struct {
	Toolchain Toolchain
	Builder   Builder
	Engines   Engines
	Registry  Registry
	State     StateStore
	History   History
	Hooks     *hooks.Manager
}

// Controller runs the deployment lifecycle.
type Controller struct {
	deps Deps
	opts Options
	log  *logging.Logger
	now  func() time.Time
}

// New creates a Controller.
func New(deps Deps, opts Options, log *logging.Logger) *Controller {
	return &Controller{
		deps: deps,
		opts: opts,
		log:  log.Sub("lifecycle"),
		now:  time.Now,
	}
}

// Build removes previous output and packages the agent.
func (c *Controller) Build(ctx context.Context) (*Outcome, error) {
	p := c.begin("build")
	err := c.check(ctx, p)
	if err == nil {
		_, err = c.build(ctx, p)
	}
	return c.end(ctx, p, err)
}

// Undeploy removes the agent registration and the engine, whichever are
// recorded. The two branches run independently.
func (c *Controller) Undeploy(ctx context.Context) (*Outcome, error) {
	p := c.begin("undeploy")
	c.deps.Hooks.Emit(ctx, hooks.EventBeforeUndeploy, map[string]string{"run_id": p.out.ID})

	var st *state.State
	err := p.step(ctx, "state.load", func(context.Context) error {
		var err error
		st, err = c.deps.State.Load()
		return err
	})
	if err == nil {
		err = c.undeploy(ctx, p, st)
	}
	if err == nil {
		c.deps.Hooks.Emit(ctx, hooks.EventAfterUndeploy, map[string]string{"run_id": p.out.ID})
	}
	return c.end(ctx, p, err)
}

// Deploy builds, tears down whatever is recorded, provisions a fresh engine,
// smoke tests it and registers the auth and agent, in that order.
func (c *Controller) Deploy(ctx context.Context) (*Outcome, error) {
	p := c.begin("deploy")
	c.deps.Hooks.Emit(ctx, hooks.EventBeforeDeploy, map[string]string{"run_id": p.out.ID})

	err := c.deploy(ctx, p)
	if err == nil {
		data := map[string]string{"run_id": p.out.ID}
		if st, lerr := c.deps.State.Load(); lerr == nil {
			if st.Engine != nil {
				data["engine"] = st.Engine.Resource
			}
			if st.Agent != nil {
				data["agent"] = st.Agent.Name
			}
		}
		c.deps.Hooks.Emit(ctx, hooks.EventAfterDeploy, data)
	}
	return c.end(ctx, p, err)
}

func (c *Controller) deploy(ctx context.Context, p *pipeline) error {
	if err := c.check(ctx, p); err != nil {
		return err
	}
	artifacts, err := c.build(ctx, p)
	if err != nil {
		return err
	}

	var st *state.State
	if err := p.step(ctx, "state.load", func(context.Context) error {
		var err error
		st, err = c.deps.State.Load()
		return err
	}); err != nil {
		return err
	}
	if err := c.undeploy(ctx, p, st); err != nil {
		return err
	}

	if err := p.step(ctx, "engine.deploy", func(ctx context.Context) error {
		resource, err := c.deps.Engines.Deploy(ctx, artifacts, c.engineEnv())
		if err != nil {
			return err
		}
		st.Engine = &state.EngineRecord{
			Resource:    resource,
			DisplayName: c.opts.DisplayName,
			DeployedAt:  c.now().UTC(),
		}
		return c.save(st)
	}); err != nil {
		return err
	}

	if c.opts.SkipTest {
		p.skip("engine.test", "remote test disabled")
	} else if err := p.step(ctx, "engine.test", func(ctx context.Context) error {
		return c.deps.Engines.Test(ctx, st.Engine.Resource)
	}); err != nil {
		return err
	}

	if err := p.step(ctx, "auth.create", func(ctx context.Context) error {
		if c.opts.AuthID == "" {
			return errors.New("no authorization id configured")
		}
		if err := c.deps.Registry.CreateAuth(ctx, c.opts.AuthID); err != nil {
			return err
		}
		st.Agent = &state.AgentRecord{AuthID: c.opts.AuthID}
		return c.save(st)
	}); err != nil {
		return err
	}

	return p.step(ctx, "agent.create", func(ctx context.Context) error {
		name, err := c.deps.Registry.CreateAgent(ctx, st.Engine.Resource, c.opts.AuthID)
		if err != nil {
			return err
		}
		st.Agent.Name = name
		st.Agent.RegisteredAt = c.now().UTC()
		return c.save(st)
	})
}

func (c *Controller) build(ctx context.Context, p *pipeline) ([]string, error) {
	if err := p.step(ctx, "build.clean", c.deps.Builder.Clean); err != nil {
		return nil, err
	}
	var artifacts []string
	err := p.step(ctx, "build.package", func(ctx context.Context) error {
		var err error
		artifacts, err = c.deps.Builder.Package(ctx)
		return err
	})
	return artifacts, err
}

// undeploy tears down whatever st records and saves st after each branch
// that fully succeeds.
func (c *Controller) undeploy(ctx context.Context, p *pipeline, st *state.State) error {
	if !st.Empty() {
		if err := c.check(ctx, p); err != nil {
			return err
		}
	}

	var result *multierror.Error
	if st.Agent == nil {
		p.skip("agent.delete", "no agent to delete")
	} else if err := c.unregister(ctx, p, st); err != nil {
		result = multierror.Append(result, err)
	}

	if st.Engine == nil {
		p.skip("engine.delete", "no engine to delete")
	} else if err := p.step(ctx, "engine.delete", func(ctx context.Context) error {
		if err := c.deps.Engines.Delete(ctx, st.Engine.Resource, c.opts.WithSessions); err != nil {
			return err
		}
		st.Engine = nil
		return c.save(st)
	}); err != nil {
		result = multierror.Append(result, err)
	}

	return result.ErrorOrNil()
}

// unregister deletes the agent and then its auth. The record is cleared only
// when both deletions succeed.
func (c *Controller) unregister(ctx context.Context, p *pipeline, st *state.State) error {
	rec := st.Agent
	if rec.Name == "" {
		p.skip("agent.delete", "agent was never created")
	} else if err := p.step(ctx, "agent.delete", func(ctx context.Context) error {
		return c.deps.Registry.DeleteAgent(ctx, rec.Name)
	}); err != nil {
		return err
	}

	// Records imported from legacy markers may carry no auth id.
	if rec.AuthID == "" {
		p.skip("auth.delete", "no auth recorded")
		st.Agent = nil
		return c.save(st)
	}

	return p.step(ctx, "auth.delete", func(ctx context.Context) error {
		if err := c.deps.Registry.DeleteAuth(ctx, rec.AuthID); err != nil {
			return err
		}
		st.Agent = nil
		return c.save(st)
	})
}

func (c *Controller) check(ctx context.Context, p *pipeline) error {
	if _, done := p.out.Step("toolchain.check"); done {
		return nil
	}
	return p.step(ctx, "toolchain.check", func(context.Context) error {
		return c.deps.Toolchain.Check()
	})
}

func (c *Controller) engineEnv() []string {
	var env []string
	if c.opts.AuthIDEnv != "" {
		env = append(env, c.opts.AuthIDEnv)
	}
	return append(env, c.opts.ExtraEnv...)
}

func (c *Controller) save(st *state.State) error {
	if err := c.deps.State.Save(st); err != nil {
		return fmt.Errorf("saving state: %w", err)
	}
	return nil
}

func (c *Controller) begin(op string) *pipeline {
	return newPipeline(op, c.log, c.deps.Hooks, c.now)
}

func (c *Controller) end(ctx context.Context, p *pipeline, err error) (*Outcome, error) {
	out := p.finish(err)
	if c.deps.History != nil {
		if herr := c.deps.History.Record(ctx, out); herr != nil {
			p.log.Warn().Err(herr).Msg("recording run history")
		}
	}
	if err != nil {
		return out, fmt.Errorf("%s failed: %w", out.Operation, err)
	}
	p.log.Info().Dur("duration", out.Finished.Sub(out.Started)).Msg("done")
	return out, nil
}
