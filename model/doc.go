// Package model defines a provider-neutral completion interface used by the
// model-backed agent, together with a deterministic in-memory mock for tests
// and examples. Concrete adapters for Anthropic and OpenAI live in the
// subpackages.
package model
