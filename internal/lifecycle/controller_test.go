package lifecycle

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/soyeahso/jsmdeploy/internal/config"
	"github.com/soyeahso/jsmdeploy/internal/hooks"
	"github.com/soyeahso/jsmdeploy/internal/logging"
	"github.com/soyeahso/jsmdeploy/internal/manage"
	"github.com/soyeahso/jsmdeploy/internal/runner"
	"github.com/soyeahso/jsmdeploy/internal/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	engineResource = "projects/p/locations/us-central1/reasoningEngines/42"
	agentName      = "projects/123/locations/global/collections/default_collection/engines/app/assistants/default_assistant/agents/7"
)

type memHistory struct {
	outcomes []*Outcome
}

func (m *memHistory) Record(_ context.Context, o *Outcome) error {
	m.outcomes = append(m.outcomes, o)
	return nil
}

type harness struct {
	dir       string
	rec       *runner.Recorder
	state     *state.File
	history   *memHistory
	hooks     *hooks.Manager
	ctl       *Controller
	failAgent bool
}

func newHarness(t *testing.T, opts Options) *harness {
	t.Helper()
	log := logging.New(nil, "silent")
	h := &harness{
		dir:     t.TempDir(),
		rec:     &runner.Recorder{},
		history: &memHistory{},
		hooks:   hooks.NewManager(log),
	}
	h.state = state.NewFile(filepath.Join(h.dir, config.DefaultStateFile))

	h.rec.On("uv build", func(runner.Command) error {
		dist := filepath.Join(h.dir, "dist")
		if err := os.MkdirAll(dist, 0o755); err != nil {
			return err
		}
		return os.WriteFile(filepath.Join(dist, "jsm_agent-0.1.0-py3-none-any.whl"), nil, 0o600)
	})
	h.rec.On("agentengine_manage deploy", func(runner.Command) error {
		return h.write(state.LegacyEngineFile, state.LegacyEngineKey+"="+engineResource+"\n")
	})
	h.rec.On("agentspace_manage agent create", func(runner.Command) error {
		if h.failAgent {
			return &runner.ExitError{Command: "agentspace_manage agent create", Code: 2}
		}
		return h.write(state.LegacyAgentFile, state.LegacyAgentKey+"="+agentName+"\n")
	})

	tools := manage.New(h.rec, h.dir, config.Defaults().Tools, "dist", log)
	if opts.AuthID == "" {
		opts.AuthID = "jira-auth"
	}
	if opts.AuthIDEnv == "" {
		opts.AuthIDEnv = "AGENTSPACE_AUTH_ID"
	}
	h.ctl = New(Deps{
		Toolchain: tools,
		Builder:   tools,
		Engines:   manage.NewEngines(tools, opts.DisplayName),
		Registry:  manage.NewRegistry(tools),
		State:     h.state,
		History:   h.history,
		Hooks:     h.hooks,
	}, opts, log)
	return h
}

func (h *harness) write(name, content string) error {
	return os.WriteFile(filepath.Join(h.dir, name), []byte(content), 0o600)
}

func (h *harness) load(t *testing.T) *state.State {
	t.Helper()
	st, err := h.state.Load()
	require.NoError(t, err)
	return st
}

func (h *harness) seed(t *testing.T, st *state.State) {
	t.Helper()
	require.NoError(t, h.state.Save(st))
}

func deployed() *state.State {
	st := state.New()
	st.Engine = &state.EngineRecord{Resource: engineResource}
	st.Agent = &state.AgentRecord{Name: agentName, AuthID: "jira-auth"}
	return st
}

func TestUndeploy_FreshCheckoutIsNoop(t *testing.T) {
	h := newHarness(t, Options{WithSessions: true})

	for i := 0; i < 2; i++ {
		out, err := h.ctl.Undeploy(context.Background())
		require.NoError(t, err)
		assert.True(t, out.OK())

		skipped := out.Skipped()
		require.Len(t, skipped, 2)
		assert.Equal(t, "no agent to delete", skipped[0].Message)
		assert.Equal(t, "no engine to delete", skipped[1].Message)
	}
	assert.Empty(t, h.rec.Calls())
}

func TestUndeploy_AfterDeployIsIdempotent(t *testing.T) {
	h := newHarness(t, Options{WithSessions: true})
	h.seed(t, deployed())

	_, err := h.ctl.Undeploy(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{
		"uv run agentspace_manage agent delete " + agentName,
		"uv run agentspace_manage auth delete --auth-id jira-auth",
		"uv run agentengine_manage delete --resource " + engineResource + " --with-sessions",
	}, h.rec.Lines())

	_, err = os.Stat(h.state.Path())
	assert.True(t, os.IsNotExist(err), "state file should be removed")
	assert.Equal(t, state.PhaseAbsent, h.load(t).Phase())

	h.rec.Reset()
	_, err = h.ctl.Undeploy(context.Background())
	require.NoError(t, err)
	assert.Empty(t, h.rec.Calls())
}

func TestUndeploy_WithoutSessions(t *testing.T) {
	h := newHarness(t, Options{WithSessions: false})
	st := state.New()
	st.Engine = &state.EngineRecord{Resource: engineResource}
	h.seed(t, st)

	_, err := h.ctl.Undeploy(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"uv run agentengine_manage delete --resource " + engineResource}, h.rec.Lines())
}

func TestUndeploy_AuthDeleteFailureKeepsAgentRecord(t *testing.T) {
	h := newHarness(t, Options{WithSessions: true})
	h.seed(t, deployed())
	h.rec.Fail("auth delete", 1)

	out, err := h.ctl.Undeploy(context.Background())
	require.Error(t, err)
	assert.False(t, out.OK())

	step, ok := out.Step("auth.delete")
	require.True(t, ok)
	assert.Equal(t, StatusFailed, step.Status)
	assert.Equal(t, 1, step.ExitCode)

	st := h.load(t)
	require.NotNil(t, st.Agent, "agent record must survive a failed auth delete")
	assert.Equal(t, agentName, st.Agent.Name)
	assert.Equal(t, state.PhaseRegistered, st.Phase())

	// The engine branch is independent of the agent branch.
	assert.NotEqual(t, -1, h.rec.Index("agentengine_manage delete"))
	assert.Nil(t, st.Engine)
}

func TestUndeploy_AgentDeleteFailureSkipsAuthDelete(t *testing.T) {
	h := newHarness(t, Options{})
	h.seed(t, deployed())
	h.rec.Fail("agent delete", 3)
	h.rec.Fail("agentengine_manage delete", 4)

	out, err := h.ctl.Undeploy(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 errors occurred")
	assert.Equal(t, -1, h.rec.Index("auth delete"))

	_, ran := out.Step("auth.delete")
	assert.False(t, ran)

	st := h.load(t)
	assert.NotNil(t, st.Agent)
	assert.NotNil(t, st.Engine)
}

func TestUndeploy_LegacyAgentWithoutAuthID(t *testing.T) {
	t.Setenv("AGENTSPACE_AUTH_ID", "")
	h := newHarness(t, Options{})
	require.NoError(t, h.write(state.LegacyAgentFile, state.LegacyAgentKey+"="+agentName+"\n"))

	out, err := h.ctl.Undeploy(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"uv run agentspace_manage agent delete " + agentName}, h.rec.Lines())
	assert.Equal(t, -1, h.rec.Index("auth delete"))

	step, ok := out.Step("auth.delete")
	require.True(t, ok)
	assert.Equal(t, StatusSkipped, step.Status)
	assert.Equal(t, "no auth recorded", step.Message)

	st := h.load(t)
	assert.Nil(t, st.Agent)
	assert.True(t, st.Empty())
}

func TestUndeploy_AuthOnlyRecord(t *testing.T) {
	h := newHarness(t, Options{})
	st := state.New()
	st.Agent = &state.AgentRecord{AuthID: "jira-auth"}
	h.seed(t, st)

	out, err := h.ctl.Undeploy(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"uv run agentspace_manage auth delete --auth-id jira-auth"}, h.rec.Lines())

	step, ok := out.Step("agent.delete")
	require.True(t, ok)
	assert.Equal(t, StatusSkipped, step.Status)
	assert.True(t, h.load(t).Empty())
}

func TestDeploy_FromScratch(t *testing.T) {
	h := newHarness(t, Options{WithSessions: true, DisplayName: "jira-agent"})

	out, err := h.ctl.Deploy(context.Background())
	require.NoError(t, err)
	assert.True(t, out.OK())

	assert.Equal(t, []string{
		"uv build --wheel --out-dir dist",
		"uv run agentengine_manage deploy --instance-env-file .agentengine.env --display-name jira-agent" +
			" --extra-packages " + filepath.Join("dist", "jsm_agent-0.1.0-py3-none-any.whl") +
			" --env AGENTSPACE_AUTH_ID",
		"uv run agentengine_manage remote-test --resource " + engineResource,
		"uv run agentspace_manage auth create --auth-id jira-auth",
		"uv run agentspace_manage agent create --instance-env-file .agentspace_agent.env" +
			" --agentengine-instance " + engineResource + " --auth-id jira-auth",
	}, h.rec.Lines())

	st := h.load(t)
	assert.Equal(t, state.PhaseRegistered, st.Phase())
	require.NotNil(t, st.Engine)
	assert.Equal(t, engineResource, st.Engine.Resource)
	assert.Equal(t, "jira-agent", st.Engine.DisplayName)
	assert.False(t, st.Engine.DeployedAt.IsZero())
	require.NotNil(t, st.Agent)
	assert.Equal(t, agentName, st.Agent.Name)
	assert.Equal(t, "jira-auth", st.Agent.AuthID)

	// Instance files are consumed into the state file.
	for _, name := range []string{state.LegacyEngineFile, state.LegacyAgentFile} {
		_, err := os.Stat(filepath.Join(h.dir, name))
		assert.True(t, os.IsNotExist(err), name)
	}
}

func TestDeploy_TearsDownBeforeProvisioning(t *testing.T) {
	h := newHarness(t, Options{WithSessions: true})
	h.seed(t, deployed())

	_, err := h.ctl.Deploy(context.Background())
	require.NoError(t, err)

	build := h.rec.Index("uv build")
	agentDelete := h.rec.Index("agent delete")
	authDelete := h.rec.Index("auth delete")
	engineDelete := h.rec.Index("agentengine_manage delete")
	engineDeploy := h.rec.Index("agentengine_manage deploy")
	authCreate := h.rec.Index("auth create")
	agentCreate := h.rec.Index("agent create")

	assert.Less(t, build, agentDelete)
	assert.Less(t, agentDelete, authDelete)
	assert.Less(t, authDelete, engineDelete)
	assert.Less(t, engineDelete, engineDeploy)
	assert.Less(t, engineDeploy, authCreate)
	assert.Less(t, authCreate, agentCreate)
}

func TestDeploy_TwiceConverges(t *testing.T) {
	h := newHarness(t, Options{})

	_, err := h.ctl.Deploy(context.Background())
	require.NoError(t, err)
	_, err = h.ctl.Deploy(context.Background())
	require.NoError(t, err)

	assert.Equal(t, state.PhaseRegistered, h.load(t).Phase())
	require.Len(t, h.history.outcomes, 2)
	assert.True(t, h.history.outcomes[1].OK())
}

func TestDeploy_AgentCreateFailureConvergesOnRerun(t *testing.T) {
	h := newHarness(t, Options{})
	h.failAgent = true

	out, err := h.ctl.Deploy(context.Background())
	require.Error(t, err)
	step, ok := out.Step("agent.create")
	require.True(t, ok)
	assert.Equal(t, 2, step.ExitCode)

	st := h.load(t)
	assert.Equal(t, state.PhaseDeployed, st.Phase())
	require.NotNil(t, st.Agent)
	assert.Empty(t, st.Agent.Name)
	assert.Equal(t, "jira-auth", st.Agent.AuthID)

	h.failAgent = false
	h.rec.Reset()
	_, err = h.ctl.Deploy(context.Background())
	require.NoError(t, err)

	assert.Equal(t, -1, h.rec.Index("agent delete"), "no agent existed to delete")
	assert.Less(t, h.rec.Index("auth delete"), h.rec.Index("auth create"))
	assert.Equal(t, state.PhaseRegistered, h.load(t).Phase())
}

func TestDeploy_MissingUVFailsFast(t *testing.T) {
	h := newHarness(t, Options{})
	h.rec.Missing("uv")

	out, err := h.ctl.Deploy(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "uv not found in PATH: "+manage.UVInstallHint)
	assert.Empty(t, h.rec.Calls())
	require.Len(t, out.Steps, 1)
	assert.Equal(t, "toolchain.check", out.Steps[0].Name)
}

func TestDeploy_BuildFailureStops(t *testing.T) {
	h := newHarness(t, Options{})
	h.seed(t, deployed())
	h.rec.Fail("uv build", 1)

	_, err := h.ctl.Deploy(context.Background())
	require.Error(t, err)
	assert.Equal(t, []string{"uv build --wheel --out-dir dist"}, h.rec.Lines())
	assert.Equal(t, state.PhaseRegistered, h.load(t).Phase())
}

func TestDeploy_RemoteTestFailureKeepsEngine(t *testing.T) {
	h := newHarness(t, Options{})
	h.rec.Fail("remote-test", 1)

	_, err := h.ctl.Deploy(context.Background())
	require.Error(t, err)
	assert.Equal(t, -1, h.rec.Index("auth create"))

	st := h.load(t)
	assert.Equal(t, state.PhaseDeployed, st.Phase())
	assert.Nil(t, st.Agent)
}

func TestDeploy_SkipTestAndExtraEnv(t *testing.T) {
	h := newHarness(t, Options{SkipTest: true, ExtraEnv: []string{"JIRA_URL", "JIRA_API_TOKEN"}})

	out, err := h.ctl.Deploy(context.Background())
	require.NoError(t, err)
	assert.Equal(t, -1, h.rec.Index("remote-test"))

	step, ok := out.Step("engine.test")
	require.True(t, ok)
	assert.Equal(t, StatusSkipped, step.Status)

	deploy := h.rec.Lines()[h.rec.Index("agentengine_manage deploy")]
	assert.Contains(t, deploy, "--env AGENTSPACE_AUTH_ID --env JIRA_URL --env JIRA_API_TOKEN")
}

func TestDeploy_MissingAuthID(t *testing.T) {
	h := newHarness(t, Options{})
	h.ctl.opts.AuthID = ""

	_, err := h.ctl.Deploy(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no authorization id")
	assert.Equal(t, -1, h.rec.Index("auth create"))
}

func TestBuild(t *testing.T) {
	h := newHarness(t, Options{})
	require.NoError(t, os.MkdirAll(filepath.Join(h.dir, "dist", "old"), 0o755))

	out, err := h.ctl.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "build", out.Operation)
	assert.NotEmpty(t, out.ID)

	names := make([]string, len(out.Steps))
	for i, s := range out.Steps {
		names[i] = s.Name
	}
	assert.Equal(t, []string{"toolchain.check", "build.clean", "build.package"}, names)

	_, err = os.Stat(filepath.Join(h.dir, "dist", "old"))
	assert.True(t, os.IsNotExist(err))
}

func TestHooksAndHistory(t *testing.T) {
	h := newHarness(t, Options{})

	var events []string
	var failedStep string
	for _, ev := range hooks.AllEvents {
		h.hooks.On(ev, "test", func(_ context.Context, p hooks.Payload) error {
			events = append(events, p.Event)
			if p.Event == hooks.EventStepFailed {
				failedStep = p.Data["step"]
			}
			return nil
		})
	}

	_, err := h.ctl.Deploy(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{hooks.EventBeforeDeploy, hooks.EventAfterDeploy}, events)

	events = nil
	h.rec.Fail("agentengine_manage delete", 1)
	_, err = h.ctl.Undeploy(context.Background())
	require.Error(t, err)
	assert.Equal(t, []string{hooks.EventBeforeUndeploy, hooks.EventStepFailed}, events)
	assert.Equal(t, "engine.delete", failedStep)

	require.Len(t, h.history.outcomes, 2)
	assert.Equal(t, "deploy", h.history.outcomes[0].Operation)
	assert.Equal(t, "undeploy", h.history.outcomes[1].Operation)
	assert.False(t, h.history.outcomes[1].OK())
}
