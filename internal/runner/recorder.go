package runner

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Recorder is a Runner test double. It records every command and answers
// with scripted outcomes instead of starting processes.
type Recorder struct {
	mu      sync.Mutex
	calls   []Command
	rules   []rule
	missing map[string]bool
}

type rule struct {
	match string
	code  int
	do    func(Command) error
}

// Fail makes every command whose command line contains match exit with code.
func (r *Recorder) Fail(match string, code int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules = append(r.rules, rule{match: match, code: code})
}

// On runs do for every command whose command line contains match. A non-nil
// error from do becomes the command's error.
func (r *Recorder) On(match string, do func(Command) error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules = append(r.rules, rule{match: match, do: do})
}

// Missing makes LookPath fail for file.
func (r *Recorder) Missing(file string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.missing == nil {
		r.missing = make(map[string]bool)
	}
	r.missing[file] = true
}

// Reset forgets recorded calls but keeps the rules.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}

// Run records cmd and applies the first failing rule, then any On hooks.
func (r *Recorder) Run(_ context.Context, cmd Command) (*Result, error) {
	r.mu.Lock()
	r.calls = append(r.calls, cmd)
	rules := make([]rule, len(r.rules))
	copy(rules, r.rules)
	r.mu.Unlock()

	line := cmd.String()
	res := &Result{Command: cmd}
	for _, rl := range rules {
		if rl.do == nil && strings.Contains(line, rl.match) {
			res.ExitCode = rl.code
			return res, &ExitError{Command: line, Code: rl.code, Stderr: "scripted failure"}
		}
	}
	for _, rl := range rules {
		if rl.do != nil && strings.Contains(line, rl.match) {
			if err := rl.do(cmd); err != nil {
				return res, err
			}
		}
	}
	return res, nil
}

// LookPath succeeds for everything not marked Missing.
func (r *Recorder) LookPath(file string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.missing[file] {
		return "", fmt.Errorf("exec: %q: executable file not found in $PATH", file)
	}
	return "/usr/bin/" + file, nil
}

// Calls returns the recorded commands in order.
func (r *Recorder) Calls() []Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Command, len(r.calls))
	copy(out, r.calls)
	return out
}

// Lines returns the recorded command lines in order.
func (r *Recorder) Lines() []string {
	calls := r.Calls()
	lines := make([]string, len(calls))
	for i, c := range calls {
		lines[i] = c.String()
	}
	return lines
}

// Index returns the position of the first recorded command line containing
// match, or -1.
func (r *Recorder) Index(match string) int {
	for i, l := range r.Lines() {
		if strings.Contains(l, match) {
			return i
		}
	}
	return -1
}
