package graph

import (
	"errors"
	"fmt"
	"strings"

	"github.com/orchestrion-ai/orchestrion/core"
	"github.com/orchestrion-ai/orchestrion/logging"
)

// ErrInvalidGraph is returned by Build when the accumulated node set fails
// validation. It is a configuration error, distinct from unit failures
// reported inside a RunResult.
var ErrInvalidGraph = errors.New("invalid graph")

// Options configures graph construction.
type Options struct {
	Logger logging.Logger
}

// WithLogger sets the logger used during runs.
func WithLogger(l logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = l }
}

type node struct {
	name  string
	agent core.Agent
	input core.Input
	deps  []string
}

// NodeOption customizes a single graph node.
type NodeOption func(*node)

// WithInput sets a static input for the node. The merged upstream signal is
// still delivered through the signal slot.
func WithInput(input core.Input) NodeOption {
	return func(n *node) { n.input = input }
}

// DependsOn declares the node's dependencies by name. Order matters: when
// upstream signals collide on a key, a later-declared dependency wins.
func DependsOn(names ...string) NodeOption {
	return func(n *node) { n.deps = append(n.deps, names...) }
}

// Validation is the outcome of a pure check over a node set. No execution is
// performed.
type Validation struct {
	Valid  bool
	Errors []string
}

// Builder accumulates nodes for a graph. The node set is compiled into an
// immutable Graph by Build; nothing executes until Run is called on the
// compiled graph.
type Builder struct {
	name  string
	order []string
	nodes map[string]node
	errs  []string
	opts  Options
}

// NewBuilder constructs a graph builder.
func NewBuilder(name string, optFns ...func(o *Options)) *Builder {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Builder{name: name, nodes: make(map[string]node), opts: opts}
}

// Add declares a node. Returns the builder for fluent chaining. Duplicate
// names, empty names and nil agents are reported by Validate rather than
// panicking here.
func (b *Builder) Add(name string, a core.Agent, nodeOpts ...NodeOption) *Builder {
	if name == "" {
		b.errs = append(b.errs, "node name must not be empty")
		return b
	}
	if _, dup := b.nodes[name]; dup {
		b.errs = append(b.errs, fmt.Sprintf("duplicate node name %q", name))
		return b
	}
	if a == nil {
		b.errs = append(b.errs, fmt.Sprintf("node %q has no agent", name))
		return b
	}

	n := node{name: name, agent: a}
	for _, o := range nodeOpts {
		o(&n)
	}

	b.order = append(b.order, name)
	b.nodes[name] = n

	return b
}

// NodeNames returns the declared node names in insertion order.
func (b *Builder) NodeNames() []string {
	names := make([]string, len(b.order))
	copy(names, b.order)
	return names
}

// Len returns the number of declared nodes.
func (b *Builder) Len() int { return len(b.order) }

// Validate checks the node set without executing anything. It reports every
// dependency name that does not resolve to a declared node, and a distinct
// message for each cycle found along dependency edges.
func (b *Builder) Validate() *Validation {
	errs := make([]string, len(b.errs))
	copy(errs, b.errs)

	// Unresolved dependencies first; cycle detection skips them.
	for _, name := range b.order {
		for _, dep := range b.nodes[name].deps {
			if _, ok := b.nodes[dep]; !ok {
				errs = append(errs, fmt.Sprintf("node %q depends on %q, which is not declared", name, dep))
			}
		}
	}

	errs = append(errs, b.findCycles()...)

	return &Validation{Valid: len(errs) == 0, Errors: errs}
}

// findCycles runs a three-color depth-first search over dependency edges and
// reports one message per cycle discovered, naming the nodes on it.
func (b *Builder) findCycles() []string {
	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int, len(b.order))
	var errs []string

	var dfs func(name string, stack []string) bool
	dfs = func(name string, stack []string) bool {
		color[name] = gray
		stack = append(stack, name)

		for _, dep := range b.nodes[name].deps {
			if _, ok := b.nodes[dep]; !ok {
				continue // already reported as unresolved
			}
			switch color[dep] {
			case gray:
				start := 0
				for i, s := range stack {
					if s == dep {
						start = i
						break
					}
				}
				cycle := append(append([]string{}, stack[start:]...), dep)
				errs = append(errs, fmt.Sprintf("cycle detected: %s", strings.Join(cycle, " -> ")))
				return true
			case white:
				if dfs(dep, stack) {
					return true
				}
			}
		}

		color[name] = black
		return false
	}

	for _, name := range b.order {
		if color[name] == white {
			dfs(name, nil)
		}
	}

	return errs
}

// Build validates the node set and compiles it into an immutable Graph.
func (b *Builder) Build() (*Graph, error) {
	v := b.Validate()
	if !v.Valid {
		return nil, fmt.Errorf("graph %q: %w: %s", b.name, ErrInvalidGraph, strings.Join(v.Errors, "; "))
	}

	order := make([]string, len(b.order))
	copy(order, b.order)

	nodes := make(map[string]node, len(b.nodes))
	for name, n := range b.nodes {
		deps := make([]string, len(n.deps))
		copy(deps, n.deps)
		n.deps = deps
		nodes[name] = n
	}

	return &Graph{name: b.name, order: order, nodes: nodes, opts: b.opts}, nil
}

// Graph is a compiled, immutable dependency graph. It is safe for concurrent
// runs; each run is fully self-contained.
type Graph struct {
	name  string
	order []string
	nodes map[string]node
	opts  Options
}

// Name returns the graph name.
func (g *Graph) Name() string { return g.name }

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.order) }

// NodeNames returns the node names in declaration order.
func (g *Graph) NodeNames() []string {
	names := make([]string, len(g.order))
	copy(names, g.order)
	return names
}
