// Package manage drives the package builder and the AgentEngine/Agentspace
// management tools as external processes.
package manage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/soyeahso/jsmdeploy/internal/config"
	"github.com/soyeahso/jsmdeploy/internal/logging"
	"github.com/soyeahso/jsmdeploy/internal/runner"
	"github.com/soyeahso/jsmdeploy/internal/state"
)

// UVInstallHint is shown when uv is not on PATH.
const UVInstallHint = "install it from https://docs.astral.sh/uv/"

// ErrToolMissing is returned when a required binary cannot be found.
var ErrToolMissing = errors.New("required tool not found")

// Tools runs commands in the project directory through uv.
type Tools struct {
	runner   runner.Runner
	dir      string
	names    config.ToolsConfig
	buildDir string
	log      *logging.Logger
}

// New creates Tools rooted at the project directory dir.
func New(r runner.Runner, dir string, names config.ToolsConfig, buildDir string, log *logging.Logger) *Tools {
	return &Tools{
		runner:   r,
		dir:      dir,
		names:    names,
		buildDir: buildDir,
		log:      log.Sub("manage"),
	}
}

// Dir returns the project directory.
func (t *Tools) Dir() string { return t.dir }

// Check fails fast when uv is not installed.
func (t *Tools) Check() error {
	if _, err := t.runner.LookPath(t.names.UV); err != nil {
		return fmt.Errorf("%w: %s not found in PATH: %s", ErrToolMissing, t.names.UV, UVInstallHint)
	}
	return nil
}

// UV returns a uv invocation in the project directory.
func (t *Tools) UV(args ...string) runner.Command {
	return runner.Command{Path: t.names.UV, Args: args, Dir: t.dir}
}

// UVRun returns `uv run <tool> args...` in the project directory.
func (t *Tools) UVRun(tool string, args ...string) runner.Command {
	return t.UV(append([]string{"run", tool}, args...)...)
}

// Run executes cmd.
func (t *Tools) Run(ctx context.Context, cmd runner.Command) error {
	_, err := t.runner.Run(ctx, cmd)
	return err
}

// Clean removes the build output directory.
func (t *Tools) Clean(_ context.Context) error {
	out := filepath.Join(t.dir, t.buildDir)
	rel, err := filepath.Rel(t.dir, out)
	if err != nil || rel == "." || !filepath.IsLocal(rel) {
		return fmt.Errorf("refusing to remove %s: build dir %q must be inside %s", out, t.buildDir, t.dir)
	}
	t.log.Debug().Str("dir", out).Msg("removing build output")
	if err := os.RemoveAll(out); err != nil {
		return fmt.Errorf("removing %s: %w", out, err)
	}
	return nil
}

// Package builds the wheel and returns the artifacts relative to the
// project directory.
func (t *Tools) Package(ctx context.Context) ([]string, error) {
	if err := t.Run(ctx, t.UV("build", "--wheel", "--out-dir", t.buildDir)); err != nil {
		return nil, err
	}
	matches, err := filepath.Glob(filepath.Join(t.dir, t.buildDir, "*.whl"))
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("builder produced no wheel in %s", t.buildDir)
	}
	sort.Strings(matches)
	artifacts := make([]string, len(matches))
	for i, m := range matches {
		rel, err := filepath.Rel(t.dir, m)
		if err != nil {
			return nil, err
		}
		artifacts[i] = rel
	}
	return artifacts, nil
}

// takeInstanceFile reads key from an instance env file written by a
// management tool into the project directory, then removes the file.
func (t *Tools) takeInstanceFile(name, key string) (string, error) {
	path := filepath.Join(t.dir, name)
	value, err := state.ReadEnvValue(path, key)
	if err != nil {
		return "", err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("removing %s: %w", path, err)
	}
	if value == "" {
		return "", fmt.Errorf("%s did not record %s", name, key)
	}
	return value, nil
}

// clearInstanceFile removes a stale instance file so it is never mistaken
// for the output of the next call.
func (t *Tools) clearInstanceFile(name string) error {
	err := os.Remove(filepath.Join(t.dir, name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
