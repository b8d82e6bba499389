package trace

import (
	"maps"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Span statuses.
const (
	StatusRunning = "running"
	StatusSuccess = "success"
	StatusError   = "error"
)

// Span is a timed, causally linked record of one operation. ParentID is
// empty for trace roots; EndTime is zero until the span is ended.
type Span struct {
	ID         string
	TraceID    string
	ParentID   string
	Name       string
	Kind       string
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
	Status     string
	Attributes map[string]any
	Error      string

	seq uint64 // start order, breaks StartTime ties
}

// SpanContext is the propagated linkage handle for starting child spans.
type SpanContext struct {
	TraceID string
	SpanID  string
}

// End carries completion details for EndSpan. A zero Status defaults to
// success, or error when Err is set.
type End struct {
	Status     string
	Err        error
	Attributes map[string]any
}

// Options configures a Tracer.
type Options struct {
	// MaxSpans caps the retained completed spans; the oldest are evicted
	// beyond it. Active spans are never evicted.
	MaxSpans int
	// OnSpanComplete, when set, is invoked with a snapshot of every span as
	// it completes.
	OnSpanComplete func(Span)
}

// WithMaxSpans overrides the completed-span retention cap (default 1000).
func WithMaxSpans(n int) func(o *Options) {
	return func(o *Options) { o.MaxSpans = n }
}

// WithOnSpanComplete registers a completion callback.
func WithOnSpanComplete(fn func(Span)) func(o *Options) {
	return func(o *Options) { o.OnSpanComplete = fn }
}

// Tracer records spans. It is safe for use from concurrently running spans;
// span identity is unique per StartSpan call so writes never collide.
type Tracer struct {
	mu        sync.Mutex
	active    map[string]*Span
	completed []*Span
	seq       uint64
	opts      Options
}

// NewTracer constructs a Tracer.
func NewTracer(optFns ...func(o *Options)) *Tracer {
	opts := Options{MaxSpans: 1000}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Tracer{active: make(map[string]*Span), opts: opts}
}

// StartSpan creates and starts a new span. With a parent context the span
// joins the parent's trace and records the parent's span id; without one it
// becomes the root of a fresh trace. The returned context carries the trace
// and span ids for child StartSpan calls.
func (t *Tracer) StartSpan(name, kind string, parent *SpanContext) (Span, SpanContext) {
	spanID := newID()
	traceID := newID()
	parentID := ""
	if parent != nil {
		traceID = parent.TraceID
		parentID = parent.SpanID
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.seq++
	span := &Span{
		ID:        spanID,
		TraceID:   traceID,
		ParentID:  parentID,
		Name:      name,
		Kind:      kind,
		StartTime: time.Now(),
		Status:    StatusRunning,
		seq:       t.seq,
	}
	t.active[spanID] = span

	return span.snapshot(), SpanContext{TraceID: traceID, SpanID: spanID}
}

// EndSpan marks completion time and terminal status on an active span,
// returning a snapshot of the completed span. It reports false when no
// active span has the given id.
func (t *Tracer) EndSpan(spanID string, end End) (Span, bool) {
	t.mu.Lock()

	span, ok := t.active[spanID]
	if !ok {
		t.mu.Unlock()
		return Span{}, false
	}

	span.EndTime = time.Now()
	span.Duration = span.EndTime.Sub(span.StartTime)

	span.Status = end.Status
	if span.Status == "" {
		span.Status = StatusSuccess
		if end.Err != nil {
			span.Status = StatusError
		}
	}
	if end.Err != nil {
		span.Error = end.Err.Error()
	}
	if len(end.Attributes) > 0 {
		if span.Attributes == nil {
			span.Attributes = make(map[string]any, len(end.Attributes))
		}
		maps.Copy(span.Attributes, end.Attributes)
	}

	delete(t.active, spanID)
	t.completed = append(t.completed, span)
	if t.opts.MaxSpans > 0 && len(t.completed) > t.opts.MaxSpans {
		t.completed = t.completed[len(t.completed)-t.opts.MaxSpans:]
	}

	snap := span.snapshot()
	callback := t.opts.OnSpanComplete
	t.mu.Unlock()

	if callback != nil {
		callback(snap)
	}

	return snap, true
}

// GetSpan retrieves a span by id, searching active spans first, then
// completed ones.
func (t *Tracer) GetSpan(spanID string) (Span, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if span, ok := t.active[spanID]; ok {
		return span.snapshot(), true
	}
	for _, span := range t.completed {
		if span.ID == spanID {
			return span.snapshot(), true
		}
	}

	return Span{}, false
}

// GetTrace returns every span, root and all descendants, sharing the given
// trace id, in the order the spans started.
func (t *Tracer) GetTrace(traceID string) []Span {
	t.mu.Lock()
	defer t.mu.Unlock()

	var spans []Span
	for _, span := range t.active {
		if span.TraceID == traceID {
			spans = append(spans, span.snapshot())
		}
	}
	for _, span := range t.completed {
		if span.TraceID == traceID {
			spans = append(spans, span.snapshot())
		}
	}

	sort.Slice(spans, func(i, j int) bool { return spans[i].seq < spans[j].seq })

	return spans
}

// ActiveSpans returns all spans still in the running state.
func (t *Tracer) ActiveSpans() []Span {
	t.mu.Lock()
	defer t.mu.Unlock()

	spans := make([]Span, 0, len(t.active))
	for _, span := range t.active {
		spans = append(spans, span.snapshot())
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].seq < spans[j].seq })

	return spans
}

// CompletedSpans returns recently completed spans, newest first. A limit of
// zero or less returns all retained spans.
func (t *Tracer) CompletedSpans(limit int) []Span {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := len(t.completed)
	if limit > 0 && limit < n {
		n = limit
	}

	spans := make([]Span, 0, n)
	for i := len(t.completed) - 1; i >= 0 && len(spans) < n; i-- {
		spans = append(spans, t.completed[i].snapshot())
	}

	return spans
}

// Clear drops all spans, active and completed.
func (t *Tracer) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.active = make(map[string]*Span)
	t.completed = nil
}

// Summary aggregates one trace: span and error counts, overall status, the
// root span (when retained) and total recorded duration across spans.
type Summary struct {
	TraceID       string
	SpanCount     int
	ErrorCount    int
	ActiveCount   int
	Status        string
	Root          *Span
	TotalDuration time.Duration
}

// Summarize computes the aggregate view of one trace.
func (t *Tracer) Summarize(traceID string) Summary {
	spans := t.GetTrace(traceID)

	s := Summary{TraceID: traceID, SpanCount: len(spans), Status: StatusSuccess}
	for i := range spans {
		span := spans[i]
		switch span.Status {
		case StatusError:
			s.ErrorCount++
		case StatusRunning:
			s.ActiveCount++
		}
		s.TotalDuration += span.Duration
		if span.ParentID == "" && s.Root == nil {
			root := span
			s.Root = &root
		}
	}

	if s.ErrorCount > 0 {
		s.Status = StatusError
	} else if s.ActiveCount > 0 {
		s.Status = StatusRunning
	}

	return s
}

func (s *Span) snapshot() Span {
	snap := *s
	if s.Attributes != nil {
		snap.Attributes = maps.Clone(s.Attributes)
	}
	return snap
}

// newID generates a 16-hex-character identifier.
func newID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}
