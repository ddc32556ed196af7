package plan

import (
	"log/slog"
	"sync"

	"fieldmind/catalog"
	"fieldmind/rules"
)

// StepState tracks one step through its lifecycle.
type StepState string

const (
	StepPending   StepState = "pending"
	StepExecuting StepState = "executing"
	StepCompleted StepState = "completed"
	StepFailed    StepState = "failed"
)

type activePlan struct {
	unitID    string
	steps     []Step
	cursor    int
	state     StepState
	remaining float64 // countdown for DurationBased steps
	halted    bool    // a step failed; triggers keep running regardless
}

// Executor owns each unit's sequential plan: it dispatches the current step,
// advances on completion signals and halts (without crashing the unit) on
// failure. It never touches the unit's trigger table; the two layers run
// independently by design of the owning scheduler.
type Executor struct {
	mu         sync.Mutex
	plans      map[string]*activePlan
	catalog    *catalog.Catalog
	dispatcher rules.Dispatcher
	recorder   rules.Recorder
}

func NewExecutor(cat *catalog.Catalog, d rules.Dispatcher) *Executor {
	return &Executor{
		plans:      make(map[string]*activePlan),
		catalog:    cat,
		dispatcher: d,
	}
}

// SetRecorder attaches a replay recorder. Call before the first Install.
func (x *Executor) SetRecorder(r rules.Recorder) { x.recorder = r }

// Install atomically replaces the unit's sequential plan and starts its
// first step. An empty step list clears the plan (trigger-only command).
func (x *Executor) Install(unitID string, steps []Step, tick uint64) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if len(steps) == 0 {
		delete(x.plans, unitID)
		return
	}
	p := &activePlan{unitID: unitID, steps: steps, state: StepPending}
	x.plans[unitID] = p
	x.startStep(p, tick)
}

// Remove drops a unit's plan.
func (x *Executor) Remove(unitID string) {
	x.mu.Lock()
	delete(x.plans, unitID)
	x.mu.Unlock()
}

// Status reports the unit's plan progress: current state, cursor, and whether
// a plan exists at all.
func (x *Executor) Status(unitID string) (StepState, int, bool) {
	x.mu.Lock()
	defer x.mu.Unlock()
	p, ok := x.plans[unitID]
	if !ok {
		return "", 0, false
	}
	return p.state, p.cursor, true
}

// startStep dispatches the step at the cursor. Called with the mutex held.
// Validated input is assumed, but an invalid step still degrades to log+skip
// rather than a panic in the tick.
func (x *Executor) startStep(p *activePlan, tick uint64) {
	for p.cursor < len(p.steps) {
		step := p.steps[p.cursor]

		def, err := x.catalog.Lookup(step.Action)
		if err != nil {
			slog.Error("plan step references unknown action, skipping",
				"unit", p.unitID, "step", p.cursor, "action", step.Action)
			p.cursor++
			continue
		}

		params := step.Params
		if step.Duration > 0 {
			params = withDuration(params, step.Duration)
		}
		if err := x.dispatcher.DispatchAction(p.unitID, step.Action, params); err != nil {
			slog.Warn("plan step dispatch failed, halting plan",
				"unit", p.unitID, "step", p.cursor, "action", step.Action, "error", err)
			p.state = StepFailed
			p.halted = true
			return
		}
		if x.recorder != nil {
			x.recorder.RecordAction(p.unitID, tick, string(step.Action), params, "")
		}
		if step.Speech != "" {
			x.dispatcher.Speak(p.unitID, step.Speech)
		}

		switch def.Category {
		case catalog.Immediate:
			p.cursor++
			continue // Immediate steps complete on dispatch
		case catalog.DurationBased:
			d, _ := catalog.ExecutionTime(def, params)
			p.remaining = d
			p.state = StepExecuting
			return
		default: // ConditionBased: wait for the host's completion signal
			p.remaining = 0
			p.state = StepExecuting
			return
		}
	}
	p.state = StepCompleted
	slog.Info("sequential plan completed", "unit", p.unitID, "steps", len(p.steps))
}

// Tick advances DurationBased steps by elapsed time. ConditionBased steps
// only move on OnActionCompleted; ambiguous state never advances a cursor.
func (x *Executor) Tick(tick uint64, dt float64) {
	x.mu.Lock()
	defer x.mu.Unlock()

	for _, p := range x.plans {
		if p.state != StepExecuting || p.halted {
			continue
		}
		step := p.steps[p.cursor]
		def, err := x.catalog.Lookup(step.Action)
		if err != nil || def.Category != catalog.DurationBased {
			continue
		}
		p.remaining -= dt
		if p.remaining <= 0 {
			p.cursor++
			p.state = StepPending
			x.startStep(p, tick)
		}
	}
}

// OnActionCompleted is the host's completion callback. success=false reports
// an ExecutionFailure: the plan halts and stays halted until replaced, while
// the unit's triggers keep operating.
func (x *Executor) OnActionCompleted(unitID string, action catalog.Kind, success bool, tick uint64) {
	x.mu.Lock()
	defer x.mu.Unlock()

	p, ok := x.plans[unitID]
	if !ok || p.state != StepExecuting {
		return
	}
	if p.steps[p.cursor].Action != action {
		// Stale signal from a replaced plan's action; ignore.
		return
	}

	if !success {
		p.state = StepFailed
		p.halted = true
		slog.Warn("plan step failed", "unit", unitID, "step", p.cursor, "action", action)
		return
	}

	p.cursor++
	p.state = StepPending
	x.startStep(p, tick)
}

func withDuration(params map[string]any, d float64) map[string]any {
	out := make(map[string]any, len(params)+1)
	for k, v := range params {
		out[k] = v
	}
	out["duration"] = d
	return out
}
