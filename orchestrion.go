// Package orchestrion provides a high-level façade over the orchestration
// components (pipelines, dependency graphs, fan-out dispatch and tracing)
// for composing independently executable units of work. Most applications
// interact with this package by:
//  1. Creating a Runtime via New() (optionally supplying a structured logger)
//  2. Registering one or more agents (function, model-backed, or composite)
//  3. Building pipelines/graphs over the registered agents, or dispatching
//     against named groups
//
// The façade keeps setup ergonomics concise while delegating all execution
// semantics to the pipeline, graph, dispatch and trace packages. Defaults
// are safe for local development and testing; production deployments
// typically supply a structured logger.
package orchestrion

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/orchestrion-ai/orchestrion/core"
	"github.com/orchestrion-ai/orchestrion/dispatch"
	"github.com/orchestrion-ai/orchestrion/logging"
	"github.com/orchestrion-ai/orchestrion/trace"
)

// Registry maps agent names to execution-contract implementations. It is
// safe for concurrent use and satisfies dispatch.Resolver, so a registry can
// back dispatch groups directly.
type Registry struct {
	mu     sync.RWMutex
	agents map[string]core.Agent
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{agents: make(map[string]core.Agent)}
}

// Register adds an agent under its own name. Registering a second agent with
// the same name is rejected.
func (r *Registry) Register(a core.Agent) error {
	if a == nil || a.Name() == "" {
		return fmt.Errorf("agent must have a name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, dup := r.agents[a.Name()]; dup {
		return fmt.Errorf("agent already registered: %s", a.Name())
	}
	r.agents[a.Name()] = a

	return nil
}

// Deregister removes an agent, reporting whether it was registered.
func (r *Registry) Deregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.agents[name]
	delete(r.agents, name)
	return ok
}

// Resolve implements dispatch.Resolver.
func (r *Registry) Resolve(name string) (core.Agent, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.agents[name]
	return a, ok
}

// Names returns the registered agent names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.agents))
	for name := range r.agents {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// Options configures a Runtime.
type Options struct {
	// Logger used by the runtime's dispatcher (defaults to NoOpLogger).
	Logger logging.Logger
	// MaxTraceSpans caps the tracer's completed-span retention.
	MaxTraceSpans int
}

// Runtime bundles an agent registry, a dispatch manager and a tracer behind
// one constructor.
type Runtime struct {
	registry   *Registry
	dispatcher *dispatch.Manager
	tracer     *trace.Tracer
	logger     logging.Logger
}

// New creates a Runtime with optional overrides.
func New(optFns ...func(o *Options)) *Runtime {
	opts := Options{Logger: logging.NoOpLogger{}, MaxTraceSpans: 1000}
	for _, fn := range optFns {
		fn(&opts)
	}

	registry := NewRegistry()

	return &Runtime{
		registry:   registry,
		dispatcher: dispatch.NewManager(registry, dispatch.WithLogger(opts.Logger)),
		tracer:     trace.NewTracer(trace.WithMaxSpans(opts.MaxTraceSpans)),
		logger:     logging.OrDefault(opts.Logger),
	}
}

// Register adds an agent to the runtime's registry.
func (rt *Runtime) Register(a core.Agent) error { return rt.registry.Register(a) }

// Registry returns the runtime's agent registry.
func (rt *Runtime) Registry() *Registry { return rt.registry }

// Dispatcher returns the runtime's dispatch manager.
func (rt *Runtime) Dispatcher() *dispatch.Manager { return rt.dispatcher }

// Tracer returns the runtime's tracer.
func (rt *Runtime) Tracer() *trace.Tracer { return rt.tracer }

// Invoke resolves a registered agent and executes it inside a traced span.
// The span records the agent name and settles with the invocation outcome.
func (rt *Runtime) Invoke(ctx context.Context, agentName string, input core.Input, parent *trace.SpanContext) (*core.Result, error) {
	a, ok := rt.registry.Resolve(agentName)
	if !ok {
		return nil, fmt.Errorf("agent not found: %s", agentName)
	}

	span, _ := rt.tracer.StartSpan(agentName, "invoke", parent)

	res, err := a.Execute(ctx, input)
	if err != nil {
		rt.tracer.EndSpan(span.ID, trace.End{Err: err})
		rt.logger.Warn("agent invocation failed", "agent", agentName, "error", err)
		return nil, err
	}

	rt.tracer.EndSpan(span.ID, trace.End{Status: trace.StatusSuccess})

	return res, nil
}
