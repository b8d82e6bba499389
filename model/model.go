package model

import (
	"context"
	"fmt"
)

// Request captures the normalized input to one completion call.
type Request struct {
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int64
}

// Usage captures token usage statistics for a response.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Total returns the combined token count.
func (u Usage) Total() int { return u.InputTokens + u.OutputTokens }

// Response is the settled output of one completion call.
type Response struct {
	Text  string
	Model string
	Usage Usage
}

// Info contains metadata about a model implementation.
type Info struct {
	Name     string
	Provider string
}

// Model is the minimal interface required to drive text generation.
type Model interface {
	Complete(ctx context.Context, req Request) (*Response, error)
	Info() Info
}

// MockModel is a lightweight in-memory Model useful for tests & examples.
type MockModel struct {
	info      Info
	responses map[string]string
	failures  map[string]error
}

// NewMockModel constructs a MockModel.
func NewMockModel(name, provider string) *MockModel {
	return &MockModel{
		info:      Info{Name: name, Provider: provider},
		responses: make(map[string]string),
		failures:  make(map[string]error),
	}
}

// AddResponse registers a deterministic canned completion for a prompt.
func (m *MockModel) AddResponse(prompt, response string) { m.responses[prompt] = response }

// FailWith registers an error to return for a prompt.
func (m *MockModel) FailWith(prompt string, err error) { m.failures[prompt] = err }

// Complete implements Model.
func (m *MockModel) Complete(ctx context.Context, req Request) (*Response, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if err, ok := m.failures[req.Prompt]; ok {
		return nil, err
	}

	text := m.responses[req.Prompt]
	if text == "" {
		text = fmt.Sprintf("Mock response to: %s", req.Prompt)
	}

	return &Response{
		Text:  text,
		Model: m.info.Name,
		Usage: Usage{InputTokens: len(req.Prompt) / 4, OutputTokens: len(text) / 4},
	}, nil
}

// Info implements Model.
func (m *MockModel) Info() Info { return m.info }
