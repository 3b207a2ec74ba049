package lifecycle

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/soyeahso/jsmdeploy/internal/hooks"
	"github.com/soyeahso/jsmdeploy/internal/logging"
	"github.com/soyeahso/jsmdeploy/internal/runner"
)

// Status is the result of a single step.
type Status string

const (
	StatusOK      Status = "ok"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// StepResult records one step of an operation.
type StepResult struct {
	Name     string
	Status   Status
	Message  string
	Err      error
	ExitCode int
	Started  time.Time
	Duration time.Duration
}

// Outcome is the result of a lifecycle operation.
type Outcome struct {
	ID        string
	Operation string
	Steps     []StepResult
	Err       error
	Started   time.Time
	Finished  time.Time
}

// OK reports whether the operation succeeded.
func (o *Outcome) OK() bool { return o.Err == nil }

// Step returns the named step, if it ran or was skipped.
func (o *Outcome) Step(name string) (StepResult, bool) {
	for _, s := range o.Steps {
		if s.Name == name {
			return s, true
		}
	}
	return StepResult{}, false
}

// Skipped returns the steps that did not run.
func (o *Outcome) Skipped() []StepResult {
	var out []StepResult
	for _, s := range o.Steps {
		if s.Status == StatusSkipped {
			out = append(out, s)
		}
	}
	return out
}

// pipeline accumulates step results for one Outcome.
type pipeline struct {
	out   *Outcome
	log   *logging.Logger
	hooks *hooks.Manager
	now   func() time.Time
}

func newPipeline(op string, log *logging.Logger, hm *hooks.Manager, now func() time.Time) *pipeline {
	id := uuid.NewString()
	return &pipeline{
		out: &Outcome{
			ID:        id,
			Operation: op,
			Started:   now(),
		},
		log:   log.With("run", id).With("op", op),
		hooks: hm,
		now:   now,
	}
}

// step runs fn as a named step and records its result.
func (p *pipeline) step(ctx context.Context, name string, fn func(context.Context) error) error {
	start := p.now()
	p.log.Info().Str("step", name).Msg("starting")

	err := fn(ctx)
	res := StepResult{
		Name:     name,
		Status:   StatusOK,
		Started:  start,
		Duration: p.now().Sub(start),
	}
	if err != nil {
		res.Status = StatusFailed
		res.Err = err
		res.Message = err.Error()
		res.ExitCode = runner.ExitCode(err)
		p.log.Error().Err(err).Str("step", name).Dur("duration", res.Duration).Msg("step failed")
		p.hooks.Emit(ctx, hooks.EventStepFailed, map[string]string{
			"run_id":    p.out.ID,
			"operation": p.out.Operation,
			"step":      name,
			"error":     err.Error(),
		})
	} else {
		p.log.Debug().Str("step", name).Dur("duration", res.Duration).Msg("step ok")
	}
	p.out.Steps = append(p.out.Steps, res)
	return err
}

// skip records a step that did not need to run.
func (p *pipeline) skip(name, message string) {
	p.log.Info().Str("step", name).Msg(message)
	p.out.Steps = append(p.out.Steps, StepResult{
		Name:    name,
		Status:  StatusSkipped,
		Message: message,
		Started: p.now(),
	})
}

func (p *pipeline) finish(err error) *Outcome {
	p.out.Err = err
	p.out.Finished = p.now()
	return p.out
}
