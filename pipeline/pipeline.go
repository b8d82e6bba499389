package pipeline

import (
	"context"
	"fmt"
	"maps"
	"time"

	"github.com/orchestrion-ai/orchestrion/agent"
	"github.com/orchestrion-ai/orchestrion/core"
	"github.com/orchestrion-ai/orchestrion/logging"
)

// Transform derives the next step's input from the previous step's result.
// It is the explicit opt-in mechanism for raw-result coupling between steps.
type Transform func(prev *core.Result) core.Input

// Condition gates a step on the current upstream signal. When it returns
// false the step is recorded as skipped and the signal flows through
// unchanged.
type Condition func(upstream core.Signal) bool

// FailureMode selects how a pipeline reacts to a failing step.
type FailureMode int

const (
	// Halt stops the pipeline at the first failing step.
	Halt FailureMode = iota
	// Continue records the failure and proceeds to the next step.
	Continue
)

// Options configures pipeline construction.
type Options struct {
	OnError FailureMode
	Logger  logging.Logger
}

// WithContinueOnError makes failing steps record their error and let
// execution proceed instead of halting the run.
func WithContinueOnError() func(o *Options) {
	return func(o *Options) { o.OnError = Continue }
}

// WithLogger sets the logger used during runs.
func WithLogger(l logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = l }
}

type step struct {
	name      string
	agent     core.Agent
	input     core.Input
	transform Transform
	condition Condition
}

// StepOption customizes a single pipeline step.
type StepOption func(*step)

// WithInput sets a static input for the step, overriding both the pipeline
// run input and any transform.
func WithInput(input core.Input) StepOption {
	return func(s *step) { s.input = input }
}

// WithTransform derives the step's input from the previous step's result.
func WithTransform(t Transform) StepOption {
	return func(s *step) { s.transform = t }
}

// WithCondition gates the step on the current upstream signal.
func WithCondition(c Condition) StepOption {
	return func(s *step) { s.condition = c }
}

// Builder accumulates steps for a pipeline. Add is append-only; step order is
// insertion order. Call Build to compile an immutable Pipeline.
type Builder struct {
	name  string
	steps []step
	opts  Options
}

// NewBuilder constructs a pipeline builder.
func NewBuilder(name string, optFns ...func(o *Options)) *Builder {
	opts := Options{OnError: Halt, Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Builder{name: name, opts: opts}
}

// Add appends a step. Returns the builder for fluent chaining.
func (b *Builder) Add(name string, a core.Agent, stepOpts ...StepOption) *Builder {
	s := step{name: name, agent: a}
	for _, o := range stepOpts {
		o(&s)
	}
	b.steps = append(b.steps, s)
	return b
}

// Len returns the number of accumulated steps.
func (b *Builder) Len() int { return len(b.steps) }

// StepNames returns the accumulated step names in order.
func (b *Builder) StepNames() []string {
	names := make([]string, len(b.steps))
	for i, s := range b.steps {
		names[i] = s.name
	}
	return names
}

// Build compiles the accumulated steps into an immutable Pipeline. It rejects
// unnamed steps, duplicate step names and nil agents.
func (b *Builder) Build() (*Pipeline, error) {
	seen := make(map[string]struct{}, len(b.steps))
	for _, s := range b.steps {
		if s.name == "" {
			return nil, fmt.Errorf("pipeline %q: step name must not be empty", b.name)
		}
		if _, dup := seen[s.name]; dup {
			return nil, fmt.Errorf("pipeline %q: duplicate step name %q", b.name, s.name)
		}
		seen[s.name] = struct{}{}
		if s.agent == nil {
			return nil, fmt.Errorf("pipeline %q: step %q has no agent", b.name, s.name)
		}
	}

	steps := make([]step, len(b.steps))
	copy(steps, b.steps)

	return &Pipeline{name: b.name, steps: steps, opts: b.opts}, nil
}

// Pipeline is a compiled, immutable sequence of steps. It is safe for
// concurrent runs; each run is fully self-contained.
type Pipeline struct {
	name  string
	steps []step
	opts  Options
}

// Name returns the pipeline name.
func (p *Pipeline) Name() string { return p.name }

// Len returns the number of steps.
func (p *Pipeline) Len() int { return len(p.steps) }

// StepResult records the outcome of one executed (or skipped) step.
type StepResult struct {
	Name      string
	AgentName string
	Status    string
	Result    *core.Result
	Err       error
	Signal    core.Signal
	Duration  time.Duration
}

// RunResult is the aggregate outcome of one pipeline run.
type RunResult struct {
	Pipeline    string
	Status      string
	Steps       []StepResult
	FinalResult *core.Result
	FinalSignal core.Signal
	FailedStep  string
	Duration    time.Duration
}

// Run executes the pipeline against the given input.
//
// A step with neither a static input nor a transform executes against the
// run input itself; only the previous successful step's signal payload is
// threaded automatically, via the upstream-signal slot. An upstream signal
// already present in the run input seeds the first step's slot, which lets a
// pipeline itself serve as a graph node or dispatch member.
//
// Unit failures never escape: the returned RunResult describes every
// executed step including failures, per the configured FailureMode.
func (p *Pipeline) Run(ctx context.Context, input core.Input) *RunResult {
	log := logging.OrDefault(p.opts.Logger)
	start := time.Now()

	runInput, currentSignal := core.SplitUpstream(input)

	run := &RunResult{Pipeline: p.name, Status: core.StatusSuccess}

	var lastResult *core.Result
	anyFailed := false

	for _, s := range p.steps {
		if s.condition != nil && !s.condition(currentSignal) {
			log.Debug("pipeline step skipped", "pipeline", p.name, "step", s.name)
			run.Steps = append(run.Steps, StepResult{
				Name:      s.name,
				AgentName: s.agent.Name(),
				Status:    core.StatusSkipped,
			})
			continue
		}

		stepInput := p.resolveInput(s, runInput, lastResult)
		stepInput = core.WithUpstream(stepInput, currentSignal)

		stepStart := time.Now()
		res, err := s.agent.Execute(ctx, stepInput)
		elapsed := time.Since(stepStart)

		if err != nil {
			log.Warn("pipeline step failed",
				"pipeline", p.name, "step", s.name, "error", err, "duration", elapsed)
			run.Steps = append(run.Steps, StepResult{
				Name:      s.name,
				AgentName: s.agent.Name(),
				Status:    core.StatusError,
				Err:       err,
				Duration:  elapsed,
			})

			if p.opts.OnError == Halt {
				run.Status = core.StatusError
				run.FailedStep = s.name
				break
			}
			anyFailed = true
			continue
		}

		log.Debug("pipeline step completed",
			"pipeline", p.name, "step", s.name, "duration", elapsed)
		run.Steps = append(run.Steps, StepResult{
			Name:      s.name,
			AgentName: s.agent.Name(),
			Status:    core.StatusSuccess,
			Result:    res,
			Signal:    res.Signal,
			Duration:  elapsed,
		})

		lastResult = res
		currentSignal = res.Signal.Clone()
	}

	if run.Status != core.StatusError && anyFailed {
		run.Status = core.StatusPartial
	}

	run.FinalResult = lastResult
	run.FinalSignal = currentSignal
	run.Duration = time.Since(start)

	log.Info("pipeline run completed",
		"pipeline", p.name, "status", run.Status, "steps", len(run.Steps), "duration", run.Duration)

	return run
}

// resolveInput picks the effective input for a step: static input overrides a
// transform, which overrides the run input.
func (p *Pipeline) resolveInput(s step, runInput core.Input, prev *core.Result) core.Input {
	if s.input != nil {
		return s.input
	}
	if s.transform != nil && prev != nil {
		return s.transform(prev)
	}
	return runInput
}

// Agent adapts the pipeline to the execution contract so it can serve as a
// graph node or dispatch member. A halted run surfaces as an invocation
// error; otherwise the run's terminal result and signal become the agent's.
func (p *Pipeline) Agent() core.Agent {
	return agent.NewFunc(p.name, func(ctx context.Context, call agent.Call) (*core.Result, error) {
		run := p.Run(ctx, core.WithUpstream(call.Input, call.Upstream))
		if run.Status == core.StatusError {
			return nil, fmt.Errorf("pipeline %q halted at step %q: %w",
				p.name, run.FailedStep, failedStepErr(run))
		}

		data := map[string]any{
			"pipeline": p.name,
			"steps":    len(run.Steps),
		}
		if run.FinalResult != nil {
			maps.Copy(data, run.FinalResult.Data)
		}

		return &core.Result{Status: run.Status, Data: data, Signal: run.FinalSignal}, nil
	})
}

func failedStepErr(run *RunResult) error {
	for _, s := range run.Steps {
		if s.Name == run.FailedStep && s.Err != nil {
			return s.Err
		}
	}
	return fmt.Errorf("step failed")
}
