package trace

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracer_StartSpan_Root(t *testing.T) {
	tr := NewTracer()

	span, sc := tr.StartSpan("run", "pipeline", nil)

	assert.Len(t, span.ID, 16)
	assert.Len(t, span.TraceID, 16)
	assert.Empty(t, span.ParentID)
	assert.Equal(t, "run", span.Name)
	assert.Equal(t, "pipeline", span.Kind)
	assert.Equal(t, StatusRunning, span.Status)
	assert.False(t, span.StartTime.IsZero())
	assert.True(t, span.EndTime.IsZero())
	assert.Equal(t, span.ID, sc.SpanID)
	assert.Equal(t, span.TraceID, sc.TraceID)
}

func TestTracer_StartSpan_ChildJoinsTrace(t *testing.T) {
	tr := NewTracer()
	root, rootCtx := tr.StartSpan("run", "pipeline", nil)

	child, childCtx := tr.StartSpan("step", "agent", &rootCtx)

	assert.Equal(t, root.TraceID, child.TraceID)
	assert.Equal(t, root.ID, child.ParentID)
	assert.NotEqual(t, root.ID, child.ID)
	assert.Equal(t, root.TraceID, childCtx.TraceID)
}

func TestTracer_RootWithChildren(t *testing.T) {
	tr := NewTracer()
	root, rootCtx := tr.StartSpan("run", "graph", nil)

	for i := 0; i < 4; i++ {
		_, sc := tr.StartSpan(fmt.Sprintf("node-%d", i), "agent", &rootCtx)
		_, ok := tr.EndSpan(sc.SpanID, End{})
		require.True(t, ok)
	}
	_, ok := tr.EndSpan(rootCtx.SpanID, End{})
	require.True(t, ok)

	spans := tr.GetTrace(root.TraceID)

	require.Len(t, spans, 5)
	// Start order is preserved; root first.
	assert.Equal(t, "run", spans[0].Name)
	for _, s := range spans[1:] {
		assert.Equal(t, root.ID, s.ParentID)
		assert.Equal(t, root.TraceID, s.TraceID)
		assert.Equal(t, StatusSuccess, s.Status)
	}

	sum := tr.Summarize(root.TraceID)
	assert.Equal(t, 5, sum.SpanCount)
	assert.Zero(t, sum.ErrorCount)
	assert.Zero(t, sum.ActiveCount)
	assert.Equal(t, StatusSuccess, sum.Status)
	require.NotNil(t, sum.Root)
	assert.Equal(t, root.ID, sum.Root.ID)
}

func TestTracer_EndSpan(t *testing.T) {
	tr := NewTracer()
	_, sc := tr.StartSpan("step", "agent", nil)

	span, ok := tr.EndSpan(sc.SpanID, End{Attributes: map[string]any{"items": 3}})

	require.True(t, ok)
	assert.Equal(t, StatusSuccess, span.Status)
	assert.False(t, span.EndTime.IsZero())
	assert.GreaterOrEqual(t, span.Duration, span.EndTime.Sub(span.StartTime))
	assert.Equal(t, 3, span.Attributes["items"])
	assert.Empty(t, tr.ActiveSpans())
}

func TestTracer_EndSpan_Error(t *testing.T) {
	tr := NewTracer()
	_, sc := tr.StartSpan("step", "agent", nil)

	span, ok := tr.EndSpan(sc.SpanID, End{Err: errors.New("step exploded")})

	require.True(t, ok)
	assert.Equal(t, StatusError, span.Status)
	assert.Equal(t, "step exploded", span.Error)

	sum := tr.Summarize(span.TraceID)
	assert.Equal(t, 1, sum.ErrorCount)
	assert.Equal(t, StatusError, sum.Status)
}

func TestTracer_EndSpan_Unknown(t *testing.T) {
	tr := NewTracer()

	_, ok := tr.EndSpan("no-such-span", End{})

	assert.False(t, ok)
}

func TestTracer_EndSpan_Twice(t *testing.T) {
	tr := NewTracer()
	_, sc := tr.StartSpan("step", "agent", nil)

	_, ok := tr.EndSpan(sc.SpanID, End{})
	require.True(t, ok)

	_, ok = tr.EndSpan(sc.SpanID, End{})
	assert.False(t, ok)
}

func TestTracer_GetSpan(t *testing.T) {
	tr := NewTracer()
	_, sc := tr.StartSpan("step", "agent", nil)

	active, ok := tr.GetSpan(sc.SpanID)
	require.True(t, ok)
	assert.Equal(t, StatusRunning, active.Status)

	tr.EndSpan(sc.SpanID, End{})

	done, ok := tr.GetSpan(sc.SpanID)
	require.True(t, ok)
	assert.Equal(t, StatusSuccess, done.Status)

	_, ok = tr.GetSpan("missing")
	assert.False(t, ok)
}

func TestTracer_RetentionCap(t *testing.T) {
	tr := NewTracer(WithMaxSpans(3))

	var ids []string
	for i := 0; i < 5; i++ {
		_, sc := tr.StartSpan(fmt.Sprintf("s-%d", i), "agent", nil)
		ids = append(ids, sc.SpanID)
		tr.EndSpan(sc.SpanID, End{})
	}

	got := tr.CompletedSpans(0)

	require.Len(t, got, 3)
	// Newest first; the two oldest were evicted.
	assert.Equal(t, "s-4", got[0].Name)
	assert.Equal(t, "s-2", got[2].Name)

	_, ok := tr.GetSpan(ids[0])
	assert.False(t, ok)
}

func TestTracer_CompletedSpans_Limit(t *testing.T) {
	tr := NewTracer()
	for i := 0; i < 4; i++ {
		_, sc := tr.StartSpan(fmt.Sprintf("s-%d", i), "agent", nil)
		tr.EndSpan(sc.SpanID, End{})
	}

	got := tr.CompletedSpans(2)

	require.Len(t, got, 2)
	assert.Equal(t, "s-3", got[0].Name)
	assert.Equal(t, "s-2", got[1].Name)
}

func TestTracer_ActiveSpans(t *testing.T) {
	tr := NewTracer()
	_, a := tr.StartSpan("a", "agent", nil)
	tr.StartSpan("b", "agent", nil)
	tr.EndSpan(a.SpanID, End{})

	active := tr.ActiveSpans()

	require.Len(t, active, 1)
	assert.Equal(t, "b", active[0].Name)
}

func TestTracer_Clear(t *testing.T) {
	tr := NewTracer()
	_, sc := tr.StartSpan("a", "agent", nil)
	tr.EndSpan(sc.SpanID, End{})
	tr.StartSpan("b", "agent", nil)

	tr.Clear()

	assert.Empty(t, tr.ActiveSpans())
	assert.Empty(t, tr.CompletedSpans(0))
}

func TestTracer_OnSpanComplete(t *testing.T) {
	var completed []Span
	tr := NewTracer(WithOnSpanComplete(func(s Span) {
		completed = append(completed, s)
	}))

	_, sc := tr.StartSpan("step", "agent", nil)
	tr.EndSpan(sc.SpanID, End{})

	require.Len(t, completed, 1)
	assert.Equal(t, "step", completed[0].Name)
	assert.Equal(t, StatusSuccess, completed[0].Status)
}

func TestTracer_Summarize_RunningTrace(t *testing.T) {
	tr := NewTracer()
	root, rootCtx := tr.StartSpan("run", "pipeline", nil)
	tr.StartSpan("step", "agent", &rootCtx)

	sum := tr.Summarize(root.TraceID)

	assert.Equal(t, 2, sum.SpanCount)
	assert.Equal(t, 2, sum.ActiveCount)
	assert.Equal(t, StatusRunning, sum.Status)
}
