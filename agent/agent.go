package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"fieldmind/catalog"
	"fieldmind/command"
	"fieldmind/ipc"
	"fieldmind/llm"
	"fieldmind/model"
	"fieldmind/plan"
	"fieldmind/rules"
	"fieldmind/tuning"
)

// Agent owns the decision-making for a single player session: the snapshot
// store, the trigger engine, the plan executor and the commander. All trigger
// and plan mutation happens on the scheduler goroutine or behind the
// components' own locks; the connection read loop only feeds them.
type Agent struct {
	conn     *ipc.Connection
	ctx      context.Context
	cfg      tuning.Tuning
	client   llm.Client
	recorder rules.Recorder

	catalog  *catalog.Catalog
	store    *Store
	engine   *rules.Engine
	executor *plan.Executor
	matrices *plan.MatrixSet

	mu        sync.Mutex
	commander *command.Commander
	gameCtx   model.GameContext
	fallback  string
	started   bool

	Player string
}

func New(ctx context.Context, conn *ipc.Connection, cfg tuning.Tuning, client llm.Client, recorder rules.Recorder) *Agent {
	cat := catalog.Builtin()
	dispatcher := NewHostDispatcher(conn)
	store := NewStore()

	engine := rules.NewEngine(cat, dispatcher, store, cfg.MaxRetries)
	executor := plan.NewExecutor(cat, dispatcher)
	if recorder != nil {
		engine.SetRecorder(recorder)
		executor.SetRecorder(recorder)
	}

	a := &Agent{
		conn:     conn,
		ctx:      ctx,
		cfg:      cfg,
		client:   client,
		recorder: recorder,
		catalog:  cat,
		store:    store,
		engine:   engine,
		executor: executor,
		matrices: plan.NewMatrixSet(),
	}

	conn.RegisterHandler(ipc.TypeHello, a.HandleHello)
	conn.RegisterHandler(ipc.TypeSnapshots, a.HandleSnapshots)
	conn.RegisterHandler(ipc.TypeCommand, a.HandleCommand)
	conn.RegisterHandler(ipc.TypeActionCompleted, a.HandleActionCompleted)
	conn.RegisterHandler(ipc.TypeUnitRemoved, a.HandleUnitRemoved)
	return a
}

// HandleHello completes the handshake: it captures the map vocabulary the
// validator needs and starts the scheduler and planner goroutines.
func (a *Agent) HandleHello(env ipc.Envelope) (*ipc.Envelope, error) {
	var hello ipc.HelloMessage
	if err := json.Unmarshal(env.Data, &hello); err != nil {
		return nil, fmt.Errorf("unmarshal hello: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.Player = hello.Player
	a.conn.Player = hello.Player
	a.gameCtx = model.GameContext{
		NodeNames: hello.NodeNames,
		MapWidth:  hello.MapWidth,
		MapHeight: hello.MapHeight,
	}
	a.fallback = ""
	if len(hello.NodeNames) > 0 {
		a.fallback = hello.NodeNames[0]
	}

	if !a.started {
		validator := plan.NewValidator(a.catalog, hello.NodeNames, a.cfg.MaxStepSeconds, a.cfg.MaxSpeechWords)
		a.commander = command.New(
			command.ConfigFromTuning(a.cfg, a.fallback),
			a.engine, a.executor, a.matrices, validator, a.client, a.store,
			a.store.Tick,
		)
		a.commander.OnResult = func(r command.Result) {
			msg := ipc.CommandResultMessage{Tier: string(r.Tier), Status: r.Status, Message: r.Message}
			if err := a.conn.Send(ipc.TypeCommandResult, msg); err != nil {
				slog.Error("failed to send command result", "error", err)
			}
		}
		go a.commander.Start(a.ctx)
		go a.runTicks(a.ctx)
		a.started = true
	}

	slog.Info("player identified", "player", a.Player, "nodes", len(hello.NodeNames))

	ack, err := ipc.NewEnvelope(ipc.TypeAck, ipc.AckMessage{Status: "ok"})
	if err != nil {
		return nil, err
	}
	return &ack, nil
}

// HandleSnapshots merges the per-tick unit batch. Units seen for the first
// time get the default trigger set and their archetype's base matrix, so a
// spawned unit has reflexes before any command arrives.
func (a *Agent) HandleSnapshots(env ipc.Envelope) (*ipc.Envelope, error) {
	var msg ipc.SnapshotsMessage
	if err := json.Unmarshal(env.Data, &msg); err != nil {
		return nil, fmt.Errorf("unmarshal snapshots: %w", err)
	}

	fresh := a.store.Apply(msg.Tick, msg.Units)
	for _, id := range fresh {
		snap, ok := a.store.Snapshot(id)
		if !ok {
			continue
		}
		if err := a.engine.Install(id, rules.DefaultTriggers(a.fallbackNode())); err != nil {
			slog.Error("default trigger install failed", "unit", id, "error", err)
			continue
		}
		a.matrices.Get(id, snap.Archetype)
		slog.Debug("unit registered", "unit", id, "archetype", snap.Archetype)
	}
	return nil, nil
}

// HandleCommand routes a player order into the commander. The only
// synchronous outcomes are acceptance and the explicit busy rejection; the
// plan itself arrives later via CommandResult.
func (a *Agent) HandleCommand(env ipc.Envelope) (*ipc.Envelope, error) {
	var msg ipc.CommandMessage
	if err := json.Unmarshal(env.Data, &msg); err != nil {
		return nil, fmt.Errorf("unmarshal command: %w", err)
	}

	cmd := a.currentCommander()
	if cmd == nil {
		return nil, errors.New("command before hello handshake")
	}

	gc := a.currentGameCtx()
	gc.Tick = a.store.Tick()

	decision, err := cmd.IssueCommand(msg.Text, msg.UnitIDs, gc)
	status := "accepted"
	switch {
	case errors.Is(err, command.ErrBusy):
		status = "busy"
	case err != nil:
		status = "error"
		slog.Warn("command rejected", "error", err)
	default:
		slog.Debug("command queued", "tier", decision.Tier, "units", len(msg.UnitIDs))
	}

	ack, aerr := ipc.NewEnvelope(ipc.TypeAck, ipc.AckMessage{Status: status})
	if aerr != nil {
		return nil, aerr
	}
	return &ack, nil
}

// HandleActionCompleted feeds the host's completion signal to the executor.
func (a *Agent) HandleActionCompleted(env ipc.Envelope) (*ipc.Envelope, error) {
	var msg ipc.ActionCompletedMessage
	if err := json.Unmarshal(env.Data, &msg); err != nil {
		return nil, fmt.Errorf("unmarshal action_completed: %w", err)
	}
	a.executor.OnActionCompleted(msg.UnitID, catalog.Kind(msg.Action), msg.Success, msg.Tick)
	return nil, nil
}

// HandleUnitRemoved tears down all per-unit state for a dead unit.
func (a *Agent) HandleUnitRemoved(env ipc.Envelope) (*ipc.Envelope, error) {
	var msg ipc.UnitRemovedMessage
	if err := json.Unmarshal(env.Data, &msg); err != nil {
		return nil, fmt.Errorf("unmarshal unit_removed: %w", err)
	}
	a.engine.Remove(msg.UnitID)
	a.executor.Remove(msg.UnitID)
	a.matrices.Remove(msg.UnitID)
	a.store.Remove(msg.UnitID)
	slog.Info("unit removed", "unit", msg.UnitID)
	return nil, nil
}

// runTicks is the single decision heartbeat: triggers first, then plan steps,
// at the configured rate regardless of how often the host pushes snapshots.
func (a *Agent) runTicks(ctx context.Context) {
	interval := time.Duration(float64(time.Second) / float64(a.cfg.TickRateHz))
	dt := interval.Seconds()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.Info("scheduler started", "player", a.Player, "rateHz", a.cfg.TickRateHz)
	for {
		select {
		case <-ctx.Done():
			slog.Info("scheduler stopped", "player", a.Player)
			return
		case <-ticker.C:
			tick := a.store.Tick()
			a.engine.Tick(ctx, tick, dt)
			a.executor.Tick(tick, dt)
		}
	}
}

func (a *Agent) currentCommander() *command.Commander {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.commander
}

func (a *Agent) currentGameCtx() model.GameContext {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.gameCtx
}

func (a *Agent) fallbackNode() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.fallback
}
