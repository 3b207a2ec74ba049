package runner

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"testing"

	"github.com/soyeahso/jsmdeploy/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRunner(t *testing.T) (*ExecRunner, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	var stdout, stderr bytes.Buffer
	r := NewExecRunner(logging.New(nil, "silent"))
	r.Stdout = &stdout
	r.Stderr = &stderr
	return r, &stdout, &stderr
}

func TestCommandString(t *testing.T) {
	assert.Equal(t, "uv", Command{Path: "uv"}.String())
	assert.Equal(t, "uv build --wheel", Command{Path: "uv", Args: []string{"build", "--wheel"}}.String())
}

func TestExecRunner_Success(t *testing.T) {
	r, stdout, _ := testRunner(t)

	res, err := r.Run(context.Background(), Command{Path: "sh", Args: []string{"-c", "echo hello"}})
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "hello\n", string(res.Stdout))
	assert.Equal(t, "hello\n", stdout.String(), "output is streamed to the operator")
}

func TestExecRunner_NonZeroExit(t *testing.T) {
	r, _, stderr := testRunner(t)

	res, err := r.Run(context.Background(), Command{Path: "sh", Args: []string{"-c", "echo boom >&2; exit 3"}})
	require.Error(t, err)

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 3, exitErr.Code)
	assert.Equal(t, "boom", exitErr.Stderr)
	assert.Equal(t, 3, res.ExitCode)
	assert.Equal(t, 3, ExitCode(err))
	assert.Contains(t, stderr.String(), "boom")
	assert.Contains(t, err.Error(), "exited 3")
}

func TestExecRunner_EnvAndDir(t *testing.T) {
	r, _, _ := testRunner(t)
	dir := t.TempDir()

	res, err := r.Run(context.Background(), Command{
		Path: "sh",
		Args: []string{"-c", "echo $JSMDEPLOY_X; pwd"},
		Dir:  dir,
		Env:  []string{"JSMDEPLOY_X=42"},
	})
	require.NoError(t, err)
	assert.Contains(t, string(res.Stdout), "42\n")
	assert.Contains(t, string(res.Stdout), dir)
}

func TestExecRunner_MissingBinary(t *testing.T) {
	r, _, _ := testRunner(t)

	_, err := r.Run(context.Background(), Command{Path: "definitely-not-a-real-binary-jsm"})
	require.Error(t, err)
	assert.Equal(t, -1, ExitCode(err))

	_, err = r.LookPath("definitely-not-a-real-binary-jsm")
	assert.Error(t, err)
}

func TestExecRunner_ContextCancel(t *testing.T) {
	r, _, _ := testRunner(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Run(ctx, Command{Path: "sh", Args: []string{"-c", "sleep 5"}})
	assert.Error(t, err)
}

func TestTailBuffer(t *testing.T) {
	tb := &tailBuffer{max: 4}
	_, _ = tb.Write([]byte("ab"))
	_, _ = tb.Write([]byte("cdef"))
	assert.Equal(t, "cdef", tb.String())
}

func TestRecorder(t *testing.T) {
	rec := &Recorder{}
	rec.Fail("auth delete", 2)

	var seen []string
	rec.On("agent create", func(c Command) error {
		seen = append(seen, c.String())
		return nil
	})
	rec.On("explode", func(Command) error { return errors.New("kaboom") })
	rec.Missing("uv")

	ctx := context.Background()
	_, err := rec.Run(ctx, Command{Path: "uv", Args: []string{"run", "agentspace_manage", "agent", "create"}})
	require.NoError(t, err)

	_, err = rec.Run(ctx, Command{Path: "uv", Args: []string{"run", "agentspace_manage", "auth", "delete"}})
	assert.Equal(t, 2, ExitCode(err))

	_, err = rec.Run(ctx, Command{Path: "explode"})
	assert.EqualError(t, err, "kaboom")

	assert.Equal(t, []string{"uv run agentspace_manage agent create"}, seen)
	assert.Len(t, rec.Calls(), 3)
	assert.Equal(t, 1, rec.Index("auth delete"))
	assert.Equal(t, -1, rec.Index("engine"))

	_, err = rec.LookPath("uv")
	assert.Error(t, err)
	_, err = rec.LookPath("sh")
	assert.NoError(t, err)

	rec.Reset()
	assert.Empty(t, rec.Lines())
}
