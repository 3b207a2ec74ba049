package cli

import (
	"context"
	"fmt"
	"sync"

	"github.com/soyeahso/jsmdeploy/internal/agentspace"
	"github.com/soyeahso/jsmdeploy/internal/config"
	"github.com/soyeahso/jsmdeploy/internal/hooks"
	"github.com/soyeahso/jsmdeploy/internal/lifecycle"
	"github.com/soyeahso/jsmdeploy/internal/logging"
	"github.com/soyeahso/jsmdeploy/internal/manage"
	"github.com/soyeahso/jsmdeploy/internal/runner"
	"github.com/soyeahso/jsmdeploy/internal/state"
	"github.com/soyeahso/jsmdeploy/internal/store"
)

// newRunner creates the process runner. Tests replace it.
var newRunner = func(log *logging.Logger) runner.Runner {
	return runner.NewExecRunner(log)
}

// newHTTPAgentspace creates the native Agentspace client. Tests replace it.
var newHTTPAgentspace = func(ctx context.Context, opts agentspace.Options, log *logging.Logger) (*agentspace.Client, error) {
	return agentspace.NewClient(ctx, opts, log)
}

// app holds the collaborators shared by the lifecycle commands.
type app struct {
	runner   runner.Runner
	tools    *manage.Tools
	state    *state.File
	platform config.Platform
	history  *store.History
	hooks    *hooks.Manager
}

func newApp() *app {
	r := newRunner(log)
	a := &app{
		runner:   r,
		tools:    manage.New(r, projectDir, cfg.Tools, cfg.Build.Dir, log),
		state:    state.NewFile(statePath()),
		platform: config.PlatformFromEnv(),
		hooks:    hooks.NewManager(log),
	}
	hooks.RegisterConfig(a.hooks, cfg.Hooks, r, projectDir)
	return a
}

// openHistory opens the run history. Failure is logged and leaves history
// disabled.
func (a *app) openHistory(ctx context.Context) {
	if !cfg.History.Enabled || a.history != nil {
		return
	}
	h, err := store.OpenHistory(ctx, historyPath(), log)
	if err != nil {
		log.Warn().Err(err).Msg("run history unavailable")
		return
	}
	a.history = h
}

func (a *app) close() {
	if a.history != nil {
		a.history.Close()
	}
}

// registry returns the configured Agentspace backend.
func (a *app) registry(ctx context.Context) (lifecycle.Registry, error) {
	if cfg.Registry.Backend != config.BackendNative {
		return manage.NewRegistry(a.tools), nil
	}
	client, err := a.agentspaceClient(ctx)
	if err != nil {
		return nil, err
	}
	return agentspace.NewRegistry(client, a.platform), nil
}

func (a *app) agentspaceClient(ctx context.Context) (*agentspace.Client, error) {
	location := cfg.Agentspace.Location
	if location == "" {
		location = a.platform.SpaceLocation
	}
	return newHTTPAgentspace(ctx, agentspace.Options{
		Project:       a.platform.SpaceProject,
		ProjectNumber: a.platform.SpaceProjectNumber,
		Location:      location,
		Endpoint:      cfg.Agentspace.Endpoint,
	}, log)
}

type controllerOptions struct {
	skipTest bool
	// buildOnly leaves the Agentspace backend unconfigured.
	buildOnly bool
	// lazyRegistry defers building the Agentspace backend until a step
	// needs it.
	lazyRegistry bool
}

// lazyRegistry builds the Agentspace backend on first use, so tearing down
// a deployment with no agent never needs credentials.
type lazyRegistry struct {
	build func(ctx context.Context) (lifecycle.Registry, error)

	once sync.Once
	reg  lifecycle.Registry
	err  error
}

func (l *lazyRegistry) get(ctx context.Context) (lifecycle.Registry, error) {
	l.once.Do(func() {
		if l.reg, l.err = l.build(ctx); l.err != nil {
			l.err = fmt.Errorf("agentspace backend: %w", l.err)
		}
	})
	return l.reg, l.err
}

func (l *lazyRegistry) CreateAuth(ctx context.Context, authID string) error {
	reg, err := l.get(ctx)
	if err != nil {
		return err
	}
	return reg.CreateAuth(ctx, authID)
}

func (l *lazyRegistry) DeleteAuth(ctx context.Context, authID string) error {
	reg, err := l.get(ctx)
	if err != nil {
		return err
	}
	return reg.DeleteAuth(ctx, authID)
}

func (l *lazyRegistry) CreateAgent(ctx context.Context, engineResource, authID string) (string, error) {
	reg, err := l.get(ctx)
	if err != nil {
		return "", err
	}
	return reg.CreateAgent(ctx, engineResource, authID)
}

func (l *lazyRegistry) DeleteAgent(ctx context.Context, name string) error {
	reg, err := l.get(ctx)
	if err != nil {
		return err
	}
	return reg.DeleteAgent(ctx, name)
}

func (a *app) controller(ctx context.Context, o controllerOptions) (*lifecycle.Controller, error) {
	if issues := config.Validate(&cfg); len(issues) > 0 {
		return nil, issuesError(paths.Config, issues)
	}

	var reg lifecycle.Registry
	switch {
	case o.buildOnly:
	case o.lazyRegistry:
		reg = &lazyRegistry{build: a.registry}
	default:
		var err error
		if reg, err = a.registry(ctx); err != nil {
			return nil, fmt.Errorf("agentspace backend: %w", err)
		}
	}
	a.openHistory(ctx)

	displayName := cfg.Engine.DisplayName
	if displayName == "" {
		displayName = a.platform.EngineDisplayName
	}

	deps := lifecycle.Deps{
		Toolchain: a.tools,
		Builder:   a.tools,
		Engines:   manage.NewEngines(a.tools, displayName),
		Registry:  reg,
		State:     a.state,
		Hooks:     a.hooks,
	}
	if a.history != nil {
		deps.History = a.history
	}

	return lifecycle.New(deps, lifecycle.Options{
		WithSessions: cfg.Engine.DeleteSessions(),
		SkipTest:     o.skipTest,
		AuthID:       a.platform.AuthID,
		AuthIDEnv:    cfg.Engine.AuthIDEnv,
		ExtraEnv:     cfg.Engine.ExtraEnv,
		DisplayName:  displayName,
	}, log), nil
}
