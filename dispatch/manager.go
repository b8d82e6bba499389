package dispatch

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/orchestrion-ai/orchestrion/core"
	"github.com/orchestrion-ai/orchestrion/logging"
)

// Mode selects how a dispatch runs its group members.
type Mode string

const (
	// ModeAll invokes every member concurrently and waits for all to settle.
	ModeAll Mode = "all"
	// ModeRace invokes every member concurrently; the primary return path is
	// keyed on whichever member settles first.
	ModeRace Mode = "race"
	// ModeFallback invokes members strictly in group order, stopping at the
	// first success.
	ModeFallback Mode = "fallback"
)

func validMode(m Mode) bool {
	switch m {
	case ModeAll, ModeRace, ModeFallback:
		return true
	default:
		return false
	}
}

// Group is the unit of dispatch configuration: a display name, an ordered
// member list and a mode, keyed by a unique id.
type Group struct {
	ID      string
	Name    string
	Members []string
	Mode    Mode
}

// Resolver maps member agent ids to execution-contract implementations at
// dispatch time.
type Resolver interface {
	Resolve(id string) (core.Agent, bool)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(id string) (core.Agent, bool)

// Resolve implements Resolver.
func (f ResolverFunc) Resolve(id string) (core.Agent, bool) { return f(id) }

// Outcome records one invoked member's settled result or captured error.
type Outcome struct {
	AgentID  string
	Result   *core.Result
	Err      error
	Duration time.Duration
}

// Response identifies which member settled first and with what outcome.
type Response struct {
	AgentID string
	Outcome *Outcome
}

// Result is the aggregate outcome of one dispatch call. Results holds an
// entry only for members actually invoked.
type Result struct {
	GroupID       string
	RunID         string
	Results       map[string]*Outcome
	FirstResponse *Response
	AllSucceeded  bool
	AnySucceeded  bool
	Duration      time.Duration
}

// Options configures a Manager.
type Options struct {
	Logger logging.Logger
}

// WithLogger sets the logger used during dispatches.
func WithLogger(l logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = l }
}

// Manager owns dispatch group definitions and runs dispatches against them.
// Group management and dispatching are safe for concurrent use; a dispatch
// reads a consistent snapshot of group membership for its whole duration.
type Manager struct {
	mu       sync.RWMutex
	groups   map[string]Group
	resolver Resolver
	opts     Options
}

// NewManager constructs a Manager resolving member ids through the given
// resolver.
func NewManager(resolver Resolver, optFns ...func(o *Options)) *Manager {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Manager{groups: make(map[string]Group), resolver: resolver, opts: opts}
}

// CreateGroup registers (or replaces) a group definition.
func (m *Manager) CreateGroup(g Group) error {
	if g.ID == "" {
		return fmt.Errorf("%w: id must not be empty", ErrInvalidGroup)
	}
	if !validMode(g.Mode) {
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidGroup, g.Mode)
	}

	members := make([]string, len(g.Members))
	copy(members, g.Members)
	g.Members = members

	m.mu.Lock()
	defer m.mu.Unlock()
	m.groups[g.ID] = g

	return nil
}

// GetGroup returns a group definition by id.
func (m *Manager) GetGroup(id string) (Group, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.groups[id]
	return g, ok
}

// RemoveGroup deletes a group, reporting whether it existed.
func (m *Manager) RemoveGroup(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.groups[id]
	delete(m.groups, id)
	return ok
}

// ListGroups returns all group definitions sorted by id.
func (m *Manager) ListGroups() []Group {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Group, 0, len(m.groups))
	for _, g := range m.groups {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out
}

// Dispatch runs one input against every member of a group under the group's
// mode. It fails immediately with ErrGroupNotFound for an unknown group id;
// member failures are captured into outcomes and never escape.
func (m *Manager) Dispatch(ctx context.Context, groupID string, input core.Input) (*Result, error) {
	m.mu.RLock()
	group, ok := m.groups[groupID]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrGroupNotFound, groupID)
	}

	log := logging.OrDefault(m.opts.Logger)
	start := time.Now()

	res := &Result{
		GroupID: group.ID,
		RunID:   strings.ReplaceAll(uuid.NewString(), "-", ""),
		Results: make(map[string]*Outcome, len(group.Members)),
	}

	switch group.Mode {
	case ModeFallback:
		m.runFallback(ctx, group, input, res)
	default: // all and race share the same settle-everything mechanics
		m.runConcurrent(ctx, group, input, res)
	}

	successes := 0
	for _, o := range res.Results {
		if o.Err == nil {
			successes++
		}
	}
	res.AllSucceeded = successes == len(group.Members)
	res.AnySucceeded = successes > 0
	res.Duration = time.Since(start)

	log.Info("dispatch completed",
		"group", group.ID, "mode", group.Mode, "run_id", res.RunID,
		"members", len(group.Members), "successes", successes, "duration", res.Duration)

	return res, nil
}

// runConcurrent invokes every member at once and waits for all of them to
// settle. FirstResponse is whichever member settled earliest, regardless of
// success or failure.
func (m *Manager) runConcurrent(ctx context.Context, group Group, input core.Input, res *Result) {
	settled := make(chan *Outcome, len(group.Members))

	for _, id := range group.Members {
		go func(id string) {
			settled <- m.invoke(ctx, id, input)
		}(id)
	}

	for range group.Members {
		o := <-settled
		res.Results[o.AgentID] = o
		if res.FirstResponse == nil {
			res.FirstResponse = &Response{AgentID: o.AgentID, Outcome: o}
		}
	}
}

// runFallback tries members strictly in group order, stopping at the first
// success; members after it are never invoked. On success the result map
// holds exactly the succeeding member's entry; when every member fails it
// holds the entries attempted.
func (m *Manager) runFallback(ctx context.Context, group Group, input core.Input, res *Result) {
	for _, id := range group.Members {
		o := m.invoke(ctx, id, input)

		if o.Err == nil {
			res.Results = map[string]*Outcome{o.AgentID: o}
			res.FirstResponse = &Response{AgentID: o.AgentID, Outcome: o}
			return
		}

		res.Results[o.AgentID] = o
	}
}

func (m *Manager) invoke(ctx context.Context, id string, input core.Input) *Outcome {
	a, ok := m.resolver.Resolve(id)
	if !ok {
		return &Outcome{AgentID: id, Err: fmt.Errorf("agent not found: %s", id)}
	}

	start := time.Now()
	result, err := a.Execute(ctx, input)

	return &Outcome{AgentID: id, Result: result, Err: err, Duration: time.Since(start)}
}
