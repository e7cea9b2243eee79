package harness

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/roach88/listate"
	"github.com/roach88/listate/extra"
	"github.com/roach88/listate/internal/memstore"
	"github.com/roach88/listate/internal/testutil"
	"github.com/roach88/listate/internal/trace"
)

// Options tunes a run.
type Options struct {
	// IDs generates the run ID when the scenario has none. Defaults to UUIDv7.
	IDs listate.IDGenerator

	// Logger receives listener debug records. Defaults to discarding them.
	Logger *slog.Logger
}

// Harness executes one scenario on virtual time.
type Harness struct {
	scenario *Scenario
	store    *memstore.Store
	sched    *testutil.ManualScheduler
	reducer  *reducer
	logger   *slog.Logger
	result   *Result

	unlisten map[string]listate.Unlisten

	// origin holds, per listener, the step of its latest qualifying
	// notification. A debounced call always carries the Param of the latest
	// schedule, so it is attributed to the step that scheduled it.
	origin map[string]int
	step   int
	seq    int
	err    error
}

// Run executes scenario with default options.
func Run(scenario *Scenario) (*Result, error) {
	return RunWithOptions(scenario, Options{})
}

// RunWithOptions executes scenario and evaluates its assertions.
//
// Execution flow:
//  1. Create a memstore seeded with the initial state
//  2. Register every listener on a manual scheduler
//  3. For each step, advance the clock to at_ms, then perform the step
//  4. Drain pending debounced handlers
//  5. Evaluate assertions against the trace and the final state
//
// A returned error means the scenario could not run. Failed assertions are
// reported through Result.Pass and Result.Errors.
func RunWithOptions(scenario *Scenario, opts Options) (*Result, error) {
	h, err := newHarness(scenario, opts)
	if err != nil {
		return nil, err
	}
	return h.run()
}

// newHarness validates scenario and registers its listeners.
func newHarness(scenario *Scenario, opts Options) (*Harness, error) {
	if err := Validate(scenario); err != nil {
		return nil, err
	}

	ids := opts.IDs
	if ids == nil {
		ids = listate.UUIDv7Generator{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	runID := scenario.RunID
	if runID == "" {
		runID = ids.Generate()
	}
	initial := scenario.Initial
	if initial == nil {
		initial = map[string]any{}
	}

	h := &Harness{
		scenario: scenario,
		sched:    testutil.NewManualScheduler(),
		reducer:  &reducer{},
		logger:   logger.With("run", runID, "scenario", scenario.Name),
		result:   NewResult(runID, scenario.Name),
		unlisten: make(map[string]listate.Unlisten, len(scenario.Listeners)),
		origin:   make(map[string]int, len(scenario.Listeners)),
		step:     -1,
	}
	h.store = memstore.New(h.reducer.reduce, initial)

	for _, l := range scenario.Listeners {
		if err := h.register(l); err != nil {
			return nil, err
		}
	}
	return h, nil
}

func (h *Harness) run() (*Result, error) {
	for i, step := range h.scenario.Steps {
		h.sched.AdvanceTo(time.Duration(step.AtMS) * time.Millisecond)
		if h.err != nil {
			return nil, h.err
		}

		h.step = i
		h.perform(step)
		if h.reducer.err != nil {
			return nil, fmt.Errorf("steps[%d] %s %q: %w", i, step.Action, step.Path, h.reducer.err)
		}
		if h.err != nil {
			return nil, h.err
		}
	}

	h.drain()
	if h.err != nil {
		return nil, h.err
	}

	h.result.Final = h.store.GetState()
	h.result.Dispatches = h.store.DispatchCount()
	h.logger.Debug("scenario finished",
		"fired", len(h.result.Run.Events),
		"dispatches", h.result.Dispatches,
	)

	evaluateAssertions(h.result, h.scenario.Assertions)
	return h.result, nil
}

func (h *Harness) register(l ListenerSpec) error {
	name := l.Name
	delay := listate.Immediate
	if l.DelayMS != nil {
		delay = listate.After(time.Duration(*l.DelayMS) * time.Millisecond)
	}

	when := predicate(l)
	tracked := func(current, prev any, p *listate.Param) bool {
		ok := when(current, prev, p)
		if ok {
			h.origin[name] = h.step
		}
		return ok
	}
	handle := func(p *listate.Param) { h.record(name, p) }

	if l.API == APIBase {
		filter, err := baseFilter(l.Filter)
		if err != nil {
			return err
		}
		h.unlisten[name] = listate.Listen(h.store, listate.Settings{
			Handle:    handle,
			Data:      l.Data,
			Delay:     delay,
			Filter:    filter,
			Once:      l.Once,
			When:      tracked,
			ID:        name,
			Logger:    h.logger,
			Scheduler: h.sched,
		})
		return nil
	}

	filter, err := extraFilter(l.Filter)
	if err != nil {
		return err
	}
	h.unlisten[name] = extra.Listen(h.store, extra.Settings{
		Handle:    handle,
		Data:      l.Data,
		Delay:     delay,
		Filter:    filter,
		Once:      l.Once,
		When:      tracked,
		ID:        name,
		Logger:    h.logger,
		Scheduler: h.sched,
	})
	return nil
}

func predicate(l ListenerSpec) listate.Predicate {
	when := l.When
	if when == "" {
		when = WhenUnlike
		if l.API == APIBase {
			when = WhenBase
		}
	}

	switch when {
	case WhenBase:
		return listate.BaseWhen
	case WhenDeep:
		return func(current, prev any, _ *listate.Param) bool {
			return extra.UnlikeDeep(current, prev)
		}
	default:
		return func(current, prev any, _ *listate.Param) bool {
			return extra.Unlike(current, prev, false)
		}
	}
}

// baseFilter builds a plain filter function for listate.Listen.
func baseFilter(f *FilterSpec) (listate.Filter, error) {
	switch {
	case f == nil:
		return nil, nil
	case f.Path != "":
		return extra.FieldFilter(f.Path), nil
	case len(f.Fields) > 0:
		return extra.PartFilter(extra.Fields(f.Fields)), nil
	case len(f.Parts) > 0:
		return extra.PartFilter(extra.Parts(f.Parts)), nil
	default:
		return extra.QueryFilter(f.Query)
	}
}

// extraFilter builds the filter spec for extra.Listen.
func extraFilter(f *FilterSpec) (extra.FilterSpec, error) {
	switch {
	case f == nil:
		return nil, nil
	case f.Path != "":
		return extra.Path(f.Path), nil
	case len(f.Fields) > 0:
		return extra.Fields(f.Fields), nil
	case len(f.Parts) > 0:
		return extra.Parts(f.Parts), nil
	default:
		q, err := extra.QueryFilter(f.Query)
		if err != nil {
			return nil, err
		}
		return extra.Func(q), nil
	}
}

func (h *Harness) perform(step Step) {
	switch step.Action {
	case ActionUnlisten:
		h.unlisten[step.Listener]()
		h.logger.Debug("listener removed", "listener", step.Listener, "step", h.step)
	default:
		h.store.Dispatch(action{Step: step})
	}
}

// record appends a trace event for a fired handler.
func (h *Harness) record(listener string, p *listate.Param) {
	step, ok := h.origin[listener]
	if !ok {
		step = h.step
	}

	h.seq++
	e, err := trace.NewEvent(h.result.Run.ID, h.seq, listener, step, h.sched.Now().Milliseconds(), p.Current, p.Prev, p.Data)
	if err != nil {
		if h.err == nil {
			h.err = fmt.Errorf("record %s: %w", listener, err)
		}
		return
	}
	h.result.Run.Events = append(h.result.Run.Events, e)
}

// drain fires every pending debounced handler.
func (h *Harness) drain() {
	window := time.Millisecond
	for _, l := range h.scenario.Listeners {
		if l.DelayMS != nil {
			if d := time.Duration(*l.DelayMS) * time.Millisecond; d > window {
				window = d
			}
		}
	}
	for h.sched.Pending() > 0 {
		h.sched.Advance(window)
	}
}
