// Package agent contains first-class agent implementations and supporting
// utilities for building units of work that satisfy the Orchestrion
// execution contract. The package focuses on three concerns:
//
//  1. Contract mechanics shared by all implementations (Base): upstream
//     signal extraction and last-signal bookkeeping
//  2. A function-backed agent (Func) for wrapping arbitrary callables
//  3. A model-backed agent (LLM) driving a provider-neutral model.Model
//
// Design principles:
//   - No hidden global state; every invocation is self-contained
//   - Composability: pipelines, graphs and dispatch groups all consume the
//     same contract, and composite runners expose it themselves
//   - Extensibility: embed Base and implement Execute for custom agents
//
// Execution model:
//   - An agent's Execute receives a context and a flat input map
//   - The upstream signal, when supplied by an orchestrator, is stripped
//     from the input and surfaced through an explicit Call slot
//   - On success the emitted signal payload is retained as the last signal
package agent
