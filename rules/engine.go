package rules

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"fieldmind/catalog"
	"fieldmind/model"
)

// Dispatcher receives winning actions. Implementations send to the movement/
// combat executors on the host; the engine treats dispatch as fire-and-forget
// apart from the error return, which feeds the retry counter.
type Dispatcher interface {
	DispatchAction(unitID string, action catalog.Kind, params map[string]any) error
	Speak(unitID, line string)
}

// SnapshotProvider is the pull interface into the simulation's current unit
// state.
type SnapshotProvider interface {
	Snapshot(unitID string) (model.UnitSnapshot, bool)
}

// Recorder logs every dispatched action for replay. A nil recorder disables
// logging.
type Recorder interface {
	RecordAction(unitID string, tick uint64, action string, params map[string]any, triggerID string)
}

// Firing describes one dispatched trigger, returned from Tick for observers
// and tests.
type Firing struct {
	UnitID    string
	TriggerID string
	Action    catalog.Kind
}

// Engine polls every unit's trigger table at a fixed cadence, resolves
// priority conflicts and dispatches at most one action per unit per cycle.
// One reflex wins; the rest wait for the next cycle.
//
// All table mutation happens on the goroutine that calls Tick; the
// single-writer discipline the rest of the system relies on. Evaluation is
// parallelized across units (tables are independent), never within one.
type Engine struct {
	mu     sync.Mutex
	tables map[string]*Table

	catalog    *catalog.Catalog
	dispatcher Dispatcher
	snapshots  SnapshotProvider
	recorder   Recorder

	maxRetries int

	lastIdleLog uint64
}

func NewEngine(cat *catalog.Catalog, d Dispatcher, sp SnapshotProvider, maxRetries int) *Engine {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &Engine{
		tables:     make(map[string]*Table),
		catalog:    cat,
		dispatcher: d,
		snapshots:  sp,
		maxRetries: maxRetries,
	}
}

// SetRecorder attaches a replay recorder. Call before the first Tick.
func (e *Engine) SetRecorder(r Recorder) { e.recorder = r }

// Install compiles and atomically installs a unit's trigger set, replacing
// any previous table. Compilation failure leaves the old table untouched;
// the unit keeps its previous reflexes rather than being left with none.
func (e *Engine) Install(unitID string, trigs []*Trigger) error {
	for _, t := range trigs {
		if err := t.compile(); err != nil {
			return err
		}
	}

	var baselines map[string]float64
	if snap, ok := e.snapshots.Snapshot(unitID); ok {
		baselines = CaptureBaselines(snap)
	}

	e.mu.Lock()
	e.tables[unitID] = newTable(unitID, trigs, baselines)
	e.mu.Unlock()

	slog.Info("trigger table installed", "unit", unitID, "triggers", len(trigs))
	return nil
}

// Remove drops a unit's table entirely (unit died or left the selection).
func (e *Engine) Remove(unitID string) {
	e.mu.Lock()
	delete(e.tables, unitID)
	e.mu.Unlock()
}

// Triggers returns the unit's current triggers in evaluation order, for
// inspection and tests.
func (e *Engine) Triggers(unitID string) []*Trigger {
	e.mu.Lock()
	defer e.mu.Unlock()
	tb, ok := e.tables[unitID]
	if !ok {
		return nil
	}
	return tb.sorted()
}

// Tick runs one evaluation cycle across every unit with a non-empty table.
// dt is the elapsed time since the previous cycle, used for cooldown decay
// and the elapsed_time signal. Units evaluate in parallel; a single unit's
// table is only ever touched by its own goroutine within the cycle.
func (e *Engine) Tick(ctx context.Context, tick uint64, dt float64) []Firing {
	e.mu.Lock()
	tables := make([]*Table, 0, len(e.tables))
	for _, tb := range e.tables {
		tables = append(tables, tb)
	}
	e.mu.Unlock()
	sort.Slice(tables, func(i, j int) bool { return tables[i].unitID < tables[j].unitID })

	results := make([]*Firing, len(tables))
	g, _ := errgroup.WithContext(ctx)
	for i, tb := range tables {
		g.Go(func() error {
			results[i] = e.evaluateUnit(tb, tick, dt)
			return nil
		})
	}
	_ = g.Wait() // evaluateUnit never returns an error; failures degrade per trigger

	var fired []Firing
	for _, r := range results {
		if r != nil {
			fired = append(fired, *r)
		}
	}
	if len(fired) == 0 {
		e.logIdleDiagnostics(tick, len(tables))
	}
	return fired
}

// evaluateUnit runs one unit's cycle: sort, evaluate until the first firing,
// dispatch, then decay cooldowns. Returns the firing, if any.
func (e *Engine) evaluateUnit(tb *Table, tick uint64, dt float64) *Firing {
	tb.elapsed += dt

	var firing *Firing
	snap, ok := e.snapshots.Snapshot(tb.unitID)
	if ok {
		// One context per unit per cycle: nearest-distance math runs once no
		// matter how many triggers read it.
		env := TriggerEnv{Snap: snap, Ctx: NewEvalContext(snap, tb.elapsed, tb.baselines)}

		for _, tr := range tb.sorted() {
			if !tr.ready(env) {
				continue
			}
			firing = e.fire(tb, tr, snap, tick)
			break // at most one triggered action per unit per cycle
		}
	}

	for _, tr := range tb.triggers {
		tr.CooldownRemaining -= dt
		if tr.CooldownRemaining < 0 {
			tr.CooldownRemaining = 0
		}
	}
	return firing
}

func (e *Engine) fire(tb *Table, tr *Trigger, snap model.UnitSnapshot, tick uint64) *Firing {
	// The table may have been replaced or removed since the cycle captured it.
	// A trigger from a superseded table must never dispatch.
	e.mu.Lock()
	stale := e.tables[tb.unitID] != tb
	e.mu.Unlock()
	if stale {
		slog.Debug("trigger table replaced mid-cycle, skipping dispatch", "unit", tb.unitID, "trigger", tr.ID)
		return nil
	}

	def, err := e.catalog.Lookup(tr.Action)
	if err != nil {
		// Validation should have caught this; fail closed and skip.
		slog.Error("trigger references unknown action", "unit", tb.unitID, "trigger", tr.ID, "action", tr.Action)
		return nil
	}

	// Trigger-level cooldown overrides the catalog default when set.
	cooldown := def.Cooldown
	if tr.Cooldown > 0 {
		cooldown = tr.Cooldown
	}

	if err := e.dispatcher.DispatchAction(tb.unitID, tr.Action, tr.Params); err != nil {
		tr.failures++
		slog.Warn("trigger dispatch failed",
			"unit", tb.unitID, "trigger", tr.ID, "action", tr.Action,
			"failures", tr.failures, "error", err)
		if tr.failures >= e.maxRetries {
			// Retry budget exhausted: suppress for a full cooldown period
			// instead of hot-looping on a dead target.
			tr.CooldownRemaining = cooldown
			tr.failures = 0
			slog.Warn("trigger suppressed after retries", "unit", tb.unitID, "trigger", tr.ID, "cooldown", cooldown)
		}
		return nil
	}

	tr.failures = 0
	tr.CooldownRemaining = cooldown
	if tr.Speech != "" {
		e.dispatcher.Speak(tb.unitID, tr.Speech)
	}
	if e.recorder != nil {
		e.recorder.RecordAction(tb.unitID, tick, string(tr.Action), tr.Params, tr.ID)
	}
	slog.Debug("trigger fired", "unit", tb.unitID, "trigger", tr.ID, "action", tr.Action, "priority", tr.Priority)
	return &Firing{UnitID: tb.unitID, TriggerID: tr.ID, Action: tr.Action}
}

// logIdleDiagnostics helps debug "why isn't anyone reacting?" by dumping table
// state when zero triggers fire across the board. Throttled to avoid spam.
func (e *Engine) logIdleDiagnostics(tick uint64, units int) {
	if tick-e.lastIdleLog < 100 || units == 0 {
		return
	}
	e.lastIdleLog = tick
	slog.Debug("idle diagnostics: no triggers fired", "tick", tick, "units", units)
}
