package command

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"fieldmind/llm"
	"fieldmind/model"
	"fieldmind/plan"
	"fieldmind/rules"
	"fieldmind/tuning"
)

// ErrBusy reports that a command could not be accepted right now: the request
// queue is full or a targeted unit is still inside its per-unit cooldown.
// Never silent: the caller always gets this signal.
var ErrBusy = errors.New("command rejected: planner busy")

// Config holds the commander's scheduling knobs.
type Config struct {
	Tier            TierConfig
	Timeout         time.Duration
	GlobalCooldown  time.Duration
	PerUnitCooldown time.Duration
	QueueDepth      int
	BiasSequence    [4]float64
	FallbackNode    string // retreat/hold anchor for locally-synthesized plans
}

// ConfigFromTuning maps the tuning file onto a commander config.
func ConfigFromTuning(t tuning.Tuning, fallbackNode string) Config {
	return Config{
		Tier: TierConfig{
			LargeGroupThreshold: t.Tier.LargeGroupThreshold,
			ClusterDistance:     t.Tier.ClusterDistance,
			GroupSeparation:     t.Tier.GroupSeparation,
		},
		Timeout:         time.Duration(t.LLM.TimeoutSeconds * float64(time.Second)),
		GlobalCooldown:  time.Duration(t.LLM.GlobalCooldownSeconds * float64(time.Second)),
		PerUnitCooldown: time.Duration(t.LLM.PerUnitCooldownSeconds * float64(time.Second)),
		QueueDepth:      t.LLM.QueueDepth,
		BiasSequence:    t.BiasSequence,
		FallbackNode:    fallbackNode,
	}
}

// Result is the outcome of one issued command, reported asynchronously.
type Result struct {
	Tier    model.Tier
	Status  string // "installed", "fallback", "rejected"
	Message string // human-readable reason or LLM message
}

type request struct {
	id       string
	text     string
	unitIDs  []string
	gameCtx  model.GameContext
	decision model.ControlTierDecision
}

// Commander orchestrates the command path: tier classification, the
// rate-limited asynchronous LLM call, validation, and atomic installation.
// While a request is outstanding the targeted units keep running their
// last-known plan and triggers; there is no waiting state visible to
// gameplay.
type Commander struct {
	cfg       Config
	engine    *rules.Engine
	executor  *plan.Executor
	matrices  *plan.MatrixSet
	validator *plan.Validator
	client    llm.Client
	units     rules.SnapshotProvider

	limiter *rate.Limiter
	queue   chan request

	mu          sync.Mutex
	nextAllowed map[string]time.Time // per-unit LLM cooldown

	// OnResult, when set, receives the outcome of every processed command.
	OnResult func(Result)

	now  func() time.Time
	tick func() uint64
}

func New(cfg Config, engine *rules.Engine, executor *plan.Executor, matrices *plan.MatrixSet,
	validator *plan.Validator, client llm.Client, units rules.SnapshotProvider, tick func() uint64) *Commander {
	if cfg.QueueDepth <= 0 {
		cfg.QueueDepth = 32
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	every := cfg.GlobalCooldown
	if every <= 0 {
		every = time.Second
	}
	return &Commander{
		cfg:         cfg,
		engine:      engine,
		executor:    executor,
		matrices:    matrices,
		validator:   validator,
		client:      client,
		units:       units,
		limiter:     rate.NewLimiter(rate.Every(every), 1),
		queue:       make(chan request, cfg.QueueDepth),
		nextAllowed: make(map[string]time.Time),
		now:         time.Now,
		tick:        tick,
	}
}

// IssueCommand is the entry point from the UI/command layer. It classifies
// the selection, enqueues the LLM request and returns immediately; the busy
// error is the only synchronous rejection.
func (c *Commander) IssueCommand(text string, unitIDs []string, gameCtx model.GameContext) (model.ControlTierDecision, error) {
	snaps := make([]model.UnitSnapshot, 0, len(unitIDs))
	for _, id := range unitIDs {
		snap, ok := c.units.Snapshot(id)
		if !ok {
			return model.ControlTierDecision{}, errors.New("command targets unknown unit " + id)
		}
		snaps = append(snaps, snap)
	}
	if len(snaps) == 0 {
		return model.ControlTierDecision{}, errors.New("command targets no units")
	}

	decision := DetermineControlTier(snaps, c.cfg.Tier)

	cmdID := uuid.NewString()

	c.mu.Lock()
	now := c.now()
	for _, id := range unitIDs {
		if t, ok := c.nextAllowed[id]; ok && now.Before(t) {
			c.mu.Unlock()
			return decision, ErrBusy
		}
	}
	// The cooldown is charged only once the request is actually queued. A
	// command dropped on a full queue must leave the units free to retry.
	select {
	case c.queue <- request{id: cmdID, text: text, unitIDs: unitIDs, gameCtx: gameCtx, decision: decision}:
	default:
		c.mu.Unlock()
		return decision, ErrBusy
	}
	for _, id := range unitIDs {
		c.nextAllowed[id] = now.Add(c.cfg.PerUnitCooldown)
	}
	c.mu.Unlock()

	slog.Info("command accepted", "command", cmdID, "tier", decision.Tier, "units", len(unitIDs), "reason", decision.Reasoning)
	return decision, nil
}

// Start runs the planner worker until ctx is cancelled. All LLM traffic
// funnels through here, which is what makes the global cooldown a hard
// resource-sharing rule rather than a convention.
func (c *Commander) Start(ctx context.Context) {
	slog.Info("commander started", "timeout", c.cfg.Timeout, "queueDepth", c.cfg.QueueDepth)
	for {
		select {
		case <-ctx.Done():
			slog.Info("commander stopped")
			return
		case req := <-c.queue:
			if err := c.limiter.Wait(ctx); err != nil {
				return
			}
			c.process(ctx, req)
		}
	}
}

func (c *Commander) process(ctx context.Context, req request) {
	prompt := BuildPrompt(req.text, req.decision, c.snapshotsFor(req.unitIDs), req.gameCtx)

	reqCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	raw, err := c.client.GeneratePlan(reqCtx, prompt)
	if err != nil {
		// External service failure: never a crash, never a frozen unit.
		// The units adopt the locally-synthesized safe plan instead.
		slog.Warn("LLM call failed, installing fallback plan", "command", req.id, "error", err, "units", len(req.unitIDs))
		c.installFallback(req)
		c.report(Result{Tier: req.decision.Tier, Status: "fallback", Message: "planner unavailable"})
		return
	}

	cmdPlan, err := llm.DecodePlan(raw)
	if err != nil {
		slog.Warn("LLM response failed schema validation, installing fallback plan", "command", req.id, "error", err)
		c.installFallback(req)
		c.report(Result{Tier: req.decision.Tier, Status: "fallback", Message: "planner returned malformed response"})
		return
	}

	if err := c.validator.ValidatePlan(cmdPlan, req.decision.Tier, c.archetypeOf); err != nil {
		// Validation failure rejects the entire plan atomically; the units
		// keep whatever behavior they had before the command.
		slog.Warn("plan rejected by validator", "command", req.id, "error", err)
		c.report(Result{Tier: req.decision.Tier, Status: "rejected", Message: err.Error()})
		return
	}

	c.install(req, cmdPlan)
	c.report(Result{Tier: req.decision.Tier, Status: "installed", Message: cmdPlan.Message})
}

// install atomically replaces each targeted unit's plan and trigger table,
// and applies matrix tuning for squad-tier commands.
func (c *Commander) install(req request, p plan.CommandPlan) {
	tick := c.tick()
	for _, up := range p.Plans {
		trigs := make([]*rules.Trigger, 0, len(up.Triggers))
		for _, ts := range up.Triggers {
			trigs = append(trigs, ts.Build())
		}

		for _, id := range up.UnitIDs {
			unitTrigs := trigs
			if len(unitTrigs) == 0 {
				// A plan without reactive triggers still seeds the defaults:
				// a unit is never left without reflexes.
				unitTrigs = rules.DefaultTriggers(c.cfg.FallbackNode)
			}
			if err := c.engine.Install(id, cloneTriggers(unitTrigs)); err != nil {
				slog.Error("trigger install failed", "unit", id, "error", err)
				continue
			}
			c.executor.Install(id, up.Steps, tick)
		}

		if req.decision.Tier == model.TierSquad {
			if err := c.matrices.Tune(up.UnitIDs, c.archetypeOf, up.PriorityList, c.cfg.BiasSequence); err != nil {
				slog.Error("matrix tuning failed", "error", err)
			}
		}
	}
	slog.Info("plan installed", "command", req.id, "tier", req.decision.Tier, "unitPlans", len(p.Plans), "summary", p.Summary)
}

// installFallback seeds the safe default: hold position plus the
// self-preservation trigger set.
func (c *Commander) installFallback(req request) {
	tick := c.tick()
	steps := FallbackSteps()
	for _, id := range req.unitIDs {
		if err := c.engine.Install(id, rules.DefaultTriggers(c.cfg.FallbackNode)); err != nil {
			slog.Error("fallback trigger install failed", "unit", id, "error", err)
			continue
		}
		c.executor.Install(id, steps, tick)
	}
}

func (c *Commander) report(r Result) {
	if c.OnResult != nil {
		c.OnResult(r)
	}
}

func (c *Commander) snapshotsFor(ids []string) []model.UnitSnapshot {
	out := make([]model.UnitSnapshot, 0, len(ids))
	for _, id := range ids {
		if snap, ok := c.units.Snapshot(id); ok {
			out = append(out, snap)
		}
	}
	return out
}

func (c *Commander) archetypeOf(unitID string) (model.Archetype, bool) {
	snap, ok := c.units.Snapshot(unitID)
	if !ok {
		return "", false
	}
	return snap.Archetype, true
}

// cloneTriggers gives each unit its own mutable trigger state; shared
// *Trigger values across units would break the single-writer rule.
func cloneTriggers(ts []*rules.Trigger) []*rules.Trigger {
	out := make([]*rules.Trigger, len(ts))
	for i, t := range ts {
		cp := *t
		out[i] = &cp
	}
	return out
}
