package agent

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/orchestrion-ai/orchestrion/core"
	"github.com/orchestrion-ai/orchestrion/model"
)

// LLM drives a provider-neutral model.Model as an execution-contract agent.
// The prompt is read from a configurable input key; the upstream signal, when
// present, is rendered into the prompt so the model sees curated facts from
// prior units without raw-result coupling.
type LLM struct {
	Base
	model     model.Model
	system    string
	promptKey string
}

// LLMOption customizes an LLM agent.
type LLMOption func(*LLM)

// WithSystem sets the system instruction sent with every completion.
func WithSystem(system string) LLMOption {
	return func(l *LLM) { l.system = system }
}

// WithPromptKey overrides the input key the prompt is read from. Defaults to
// "prompt".
func WithPromptKey(key string) LLMOption {
	return func(l *LLM) { l.promptKey = key }
}

// NewLLM constructs a model-backed agent.
func NewLLM(name string, m model.Model, opts ...LLMOption) *LLM {
	l := &LLM{Base: NewBase(name), model: m, promptKey: "prompt"}
	l.SetDescription(fmt.Sprintf("Model-backed agent %s (%s)", name, m.Info().Provider))
	for _, o := range opts {
		o(l)
	}
	return l
}

// Execute implements core.Agent. It emits a signal payload carrying the
// producing agent, the model used and token counts.
func (l *LLM) Execute(ctx context.Context, input core.Input) (*core.Result, error) {
	call := l.Begin(input)

	raw, ok := call.Input[l.promptKey]
	prompt, isString := raw.(string)
	if !ok || !isString || prompt == "" {
		return nil, fmt.Errorf("agent %s: input key %q missing or not a string", l.Name(), l.promptKey)
	}

	if len(call.Upstream) > 0 {
		prompt = prompt + "\n\nUpstream signals:\n" + renderSignal(call.Upstream)
	}

	resp, err := l.model.Complete(ctx, model.Request{System: l.system, Prompt: prompt})
	if err != nil {
		return nil, fmt.Errorf("agent %s: %w", l.Name(), err)
	}

	res := &core.Result{
		Status: core.StatusSuccess,
		Data: map[string]any{
			"response": resp.Text,
			"model":    resp.Model,
		},
		Signal: core.Signal{
			"source_agent":  l.Name(),
			"model":         resp.Model,
			"input_tokens":  resp.Usage.InputTokens,
			"output_tokens": resp.Usage.OutputTokens,
		},
	}

	l.RecordSignal(res)

	return res, nil
}

// renderSignal formats a signal as sorted "key: value" lines for prompt
// embedding.
func renderSignal(sig core.Signal) string {
	keys := make([]string, 0, len(sig))
	for k := range sig {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "- %s: %v\n", k, sig[k])
	}
	return b.String()
}
