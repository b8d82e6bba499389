package graph

import (
	"context"
	"fmt"
	"maps"
	"time"

	"github.com/orchestrion-ai/orchestrion/agent"
	"github.com/orchestrion-ai/orchestrion/core"
	"github.com/orchestrion-ai/orchestrion/logging"
)

// NodeResult records the outcome of one node: executed successfully, failed,
// or skipped because a dependency failed.
type NodeResult struct {
	Name      string
	AgentName string
	Status    string
	Result    *core.Result
	Err       error
	Signal    core.Signal
	Duration  time.Duration
}

// RunResult is the aggregate outcome of one graph run. ExecutionOrder lists
// the nodes in the sequence they actually started; it is a valid topological
// order but not unique under concurrency. Skipped nodes never start and do
// not appear in it.
type RunResult struct {
	Graph          string
	Status         string
	Nodes          map[string]*NodeResult
	ExecutionOrder []string
	Duration       time.Duration
}

type completion struct {
	name string
	nr   *NodeResult
}

// Run executes the graph against the given input.
//
// Every node whose dependencies are all satisfied is launched concurrently;
// as each node completes, its dependents become eligible once all of their
// dependencies have completed. A node with at least one failed dependency is
// not executed and is marked skipped, as is everything transitively
// depending on it.
//
// Root nodes (no dependencies) execute against the run input unless they
// carry a static input; dependent nodes execute against their static input
// or an empty map. The merged upstream signal of a node's dependencies is
// always delivered through the signal slot, built by overlaying dependency
// signals in declared order so a later-declared dependency wins on key
// collision. An upstream signal already present in the run input seeds the
// root nodes' slots.
//
// Unit failures never escape: the returned RunResult describes every node.
// Overall status is success only when every node succeeded, error when no
// node succeeded and at least one failed, and partial for mixed outcomes.
func (g *Graph) Run(ctx context.Context, input core.Input) *RunResult {
	log := logging.OrDefault(g.opts.Logger)
	start := time.Now()

	runInput, seedSignal := core.SplitUpstream(input)

	run := &RunResult{Graph: g.name, Nodes: make(map[string]*NodeResult, len(g.order))}

	unmet := make(map[string]int, len(g.order))
	dependents := make(map[string][]string, len(g.order))
	for _, name := range g.order {
		unmet[name] = len(g.nodes[name].deps)
		for _, dep := range g.nodes[name].deps {
			dependents[dep] = append(dependents[dep], name)
		}
	}

	var ready []string
	for _, name := range g.order {
		if unmet[name] == 0 {
			ready = append(ready, name)
		}
	}

	// Single scheduler loop: it alone reads and writes the result map, so
	// worker goroutines receive their full input up front and only report a
	// completion back.
	doneCh := make(chan completion)
	finalized := 0

	settle := func(name string) {
		finalized++
		for _, d := range dependents[name] {
			unmet[d]--
			if unmet[d] == 0 {
				ready = append(ready, d)
			}
		}
	}

	for finalized < len(g.order) {
		for len(ready) > 0 {
			name := ready[0]
			ready = ready[1:]
			n := g.nodes[name]

			if failed := g.failedDependency(n, run.Nodes); failed != "" {
				log.Debug("graph node skipped",
					"graph", g.name, "node", name, "failed_dependency", failed)
				run.Nodes[name] = &NodeResult{
					Name:      name,
					AgentName: n.agent.Name(),
					Status:    core.StatusSkipped,
				}
				settle(name)
				continue
			}

			nodeInput := g.nodeInput(n, runInput, seedSignal, run.Nodes)
			run.ExecutionOrder = append(run.ExecutionOrder, name)
			log.Debug("graph node started", "graph", g.name, "node", name)

			go func(name string, a core.Agent, in core.Input) {
				doneCh <- completion{name: name, nr: executeNode(ctx, name, a, in)}
			}(name, n.agent, nodeInput)
		}

		if finalized == len(g.order) {
			break
		}

		c := <-doneCh
		if c.nr.Err != nil {
			log.Warn("graph node failed",
				"graph", g.name, "node", c.name, "error", c.nr.Err, "duration", c.nr.Duration)
		} else {
			log.Debug("graph node completed",
				"graph", g.name, "node", c.name, "duration", c.nr.Duration)
		}
		run.Nodes[c.name] = c.nr
		settle(c.name)
	}

	run.Status = overallStatus(run.Nodes)
	run.Duration = time.Since(start)

	log.Info("graph run completed",
		"graph", g.name, "status", run.Status, "nodes", len(run.Nodes), "duration", run.Duration)

	return run
}

// failedDependency returns the name of the first dependency that errored or
// was skipped, or "" when the node may execute.
func (g *Graph) failedDependency(n node, results map[string]*NodeResult) string {
	for _, dep := range n.deps {
		if r := results[dep]; r != nil && r.Status != core.StatusSuccess {
			return dep
		}
	}
	return ""
}

// nodeInput assembles the effective input for a node: static input, or the
// run input for roots, plus the merged upstream signal in the signal slot.
func (g *Graph) nodeInput(n node, runInput core.Input, seed core.Signal, results map[string]*NodeResult) core.Input {
	in := n.input
	if in == nil {
		if len(n.deps) == 0 {
			in = runInput
		} else {
			in = core.Input{}
		}
	}

	upstream := seed
	if len(n.deps) > 0 {
		sigs := make([]core.Signal, 0, len(n.deps))
		for _, dep := range n.deps {
			if r := results[dep]; r != nil {
				sigs = append(sigs, r.Signal)
			}
		}
		upstream = core.MergeSignals(sigs...)
	}

	return core.WithUpstream(in, upstream)
}

func executeNode(ctx context.Context, name string, a core.Agent, in core.Input) *NodeResult {
	nodeStart := time.Now()

	res, err := a.Execute(ctx, in)
	elapsed := time.Since(nodeStart)

	if err != nil {
		return &NodeResult{
			Name:      name,
			AgentName: a.Name(),
			Status:    core.StatusError,
			Err:       err,
			Duration:  elapsed,
		}
	}

	return &NodeResult{
		Name:      name,
		AgentName: a.Name(),
		Status:    core.StatusSuccess,
		Result:    res,
		Signal:    res.Signal,
		Duration:  elapsed,
	}
}

// overallStatus derives the run status: success when every node succeeded,
// error when nothing succeeded and at least one node failed or was skipped,
// partial otherwise.
func overallStatus(results map[string]*NodeResult) string {
	hasSuccess, hasFailure := false, false
	for _, r := range results {
		if r.Status == core.StatusSuccess {
			hasSuccess = true
		} else {
			hasFailure = true
		}
	}

	switch {
	case !hasFailure:
		return core.StatusSuccess
	case !hasSuccess:
		return core.StatusError
	default:
		return core.StatusPartial
	}
}

// TerminalSignal merges the signals of the run's sink nodes (nodes no other
// node depends on) in declaration order.
func (g *Graph) TerminalSignal(run *RunResult) core.Signal {
	depended := make(map[string]bool, len(g.order))
	for _, name := range g.order {
		for _, dep := range g.nodes[name].deps {
			depended[dep] = true
		}
	}

	var sigs []core.Signal
	for _, name := range g.order {
		if depended[name] {
			continue
		}
		if r := run.Nodes[name]; r != nil {
			sigs = append(sigs, r.Signal)
		}
	}

	return core.MergeSignals(sigs...)
}

// Agent adapts the graph to the execution contract so it can serve as a
// pipeline step or dispatch member. A run in which nothing succeeded
// surfaces as an invocation error; otherwise the run status, per-node
// statuses and the terminal signal become the agent's result.
func (g *Graph) Agent() core.Agent {
	return agent.NewFunc(g.name, func(ctx context.Context, call agent.Call) (*core.Result, error) {
		run := g.Run(ctx, core.WithUpstream(call.Input, call.Upstream))
		if run.Status == core.StatusError {
			return nil, fmt.Errorf("graph %q failed: no node succeeded", g.name)
		}

		statuses := make(map[string]any, len(run.Nodes))
		for name, r := range run.Nodes {
			statuses[name] = r.Status
		}

		data := map[string]any{
			"graph":           g.name,
			"node_statuses":   statuses,
			"execution_order": append([]string{}, run.ExecutionOrder...),
		}

		// Keep the final successful sink's primary output reachable.
		if last := lastSuccess(run); last != nil && last.Result != nil {
			maps.Copy(data, last.Result.Data)
		}

		return &core.Result{Status: run.Status, Data: data, Signal: g.TerminalSignal(run)}, nil
	})
}

func lastSuccess(run *RunResult) *NodeResult {
	for i := len(run.ExecutionOrder) - 1; i >= 0; i-- {
		if r := run.Nodes[run.ExecutionOrder[i]]; r != nil && r.Status == core.StatusSuccess {
			return r
		}
	}
	return nil
}
