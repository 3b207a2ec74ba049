package hooks

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/soyeahso/jsmdeploy/internal/config"
	"github.com/soyeahso/jsmdeploy/internal/runner"
)

const defaultHookTimeout = 30 * time.Second

// CommandHandler returns a Handler that runs entry.Command through sh -c in
// dir. The event name and payload are exported as JSMDEPLOY_EVENT and
// JSMDEPLOY_<KEY> environment variables.
func CommandHandler(r runner.Runner, dir string, entry config.HookEntry) Handler {
	timeout := defaultHookTimeout
	if entry.Timeout > 0 {
		timeout = time.Duration(entry.Timeout) * time.Millisecond
	}

	return func(ctx context.Context, p Payload) error {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		env := []string{"JSMDEPLOY_EVENT=" + p.Event}
		keys := make([]string, 0, len(p.Data))
		for k := range p.Data {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			env = append(env, fmt.Sprintf("JSMDEPLOY_%s=%s", envKey(k), p.Data[k]))
		}

		_, err := r.Run(ctx, runner.Command{
			Path: "sh",
			Args: []string{"-c", entry.Command},
			Dir:  dir,
			Env:  env,
		})
		return err
	}
}

// RegisterConfig registers a command handler for every configured hook.
func RegisterConfig(m *Manager, cfg config.HooksConfig, r runner.Runner, dir string) {
	register := func(event string, entries []config.HookEntry) {
		for i, e := range entries {
			m.On(event, fmt.Sprintf("config:%s[%d]", event, i), CommandHandler(r, dir, e))
		}
	}
	register(EventBeforeDeploy, cfg.BeforeDeploy)
	register(EventAfterDeploy, cfg.AfterDeploy)
	register(EventBeforeUndeploy, cfg.BeforeUndeploy)
	register(EventAfterUndeploy, cfg.AfterUndeploy)
	register(EventStepFailed, cfg.StepFailed)
}

func envKey(k string) string {
	return strings.ToUpper(strings.NewReplacer(".", "_", "-", "_", " ", "_").Replace(k))
}
