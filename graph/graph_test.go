package graph

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orchestrion-ai/orchestrion/agent"
	"github.com/orchestrion-ai/orchestrion/core"
)

// emitter returns an agent that succeeds and emits the given signal.
func emitter(name string, sig core.Signal) core.Agent {
	return agent.NewFunc(name, func(ctx context.Context, call agent.Call) (*core.Result, error) {
		return &core.Result{
			Status: core.StatusSuccess,
			Data:   map[string]any{"from": name},
			Signal: sig,
		}, nil
	})
}

// failing returns an agent that always errors.
func failing(name, msg string) core.Agent {
	return agent.NewFunc(name, func(ctx context.Context, call agent.Call) (*core.Result, error) {
		return nil, errors.New(msg)
	})
}

func TestBuilder_Validate_Valid(t *testing.T) {
	b := NewBuilder("etl").
		Add("extract", emitter("extractor", nil)).
		Add("transform", emitter("transformer", nil), DependsOn("extract")).
		Add("load", emitter("loader", nil), DependsOn("transform"))

	v := b.Validate()

	assert.True(t, v.Valid)
	assert.Empty(t, v.Errors)
	assert.Equal(t, []string{"extract", "transform", "load"}, b.NodeNames())
}

func TestBuilder_Validate_UnresolvedDependency(t *testing.T) {
	v := NewBuilder("etl").
		Add("transform", emitter("transformer", nil), DependsOn("extract")).
		Validate()

	assert.False(t, v.Valid)
	require.Len(t, v.Errors, 1)
	assert.Equal(t, `node "transform" depends on "extract", which is not declared`, v.Errors[0])
}

func TestBuilder_Validate_Cycle(t *testing.T) {
	v := NewBuilder("etl").
		Add("a", emitter("a", nil), DependsOn("b")).
		Add("b", emitter("b", nil), DependsOn("a")).
		Validate()

	assert.False(t, v.Valid)
	require.Len(t, v.Errors, 1)
	assert.Contains(t, v.Errors[0], "cycle detected")
	assert.Contains(t, v.Errors[0], "a")
	assert.Contains(t, v.Errors[0], "b")
}

func TestBuilder_Validate_SelfCycle(t *testing.T) {
	v := NewBuilder("etl").
		Add("a", emitter("a", nil), DependsOn("a")).
		Validate()

	assert.False(t, v.Valid)
	require.Len(t, v.Errors, 1)
	assert.Contains(t, v.Errors[0], "cycle detected: a -> a")
}

func TestBuilder_Validate_DuplicateNode(t *testing.T) {
	v := NewBuilder("etl").
		Add("extract", emitter("a", nil)).
		Add("extract", emitter("b", nil)).
		Validate()

	assert.False(t, v.Valid)
	require.Len(t, v.Errors, 1)
	assert.Equal(t, `duplicate node name "extract"`, v.Errors[0])
}

func TestBuilder_Build_Invalid(t *testing.T) {
	_, err := NewBuilder("etl").
		Add("a", emitter("a", nil), DependsOn("missing")).
		Build()

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidGraph)
	assert.Contains(t, err.Error(), "missing")
}

func TestBuilder_Build(t *testing.T) {
	g, err := NewBuilder("etl").
		Add("extract", emitter("extractor", nil)).
		Add("load", emitter("loader", nil), DependsOn("extract")).
		Build()

	require.NoError(t, err)
	assert.Equal(t, "etl", g.Name())
	assert.Equal(t, 2, g.Len())
	assert.Equal(t, []string{"extract", "load"}, g.NodeNames())
}
