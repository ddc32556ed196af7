package agent

import (
	"fmt"
	"sync"
	"time"

	"fieldmind/catalog"
	"fieldmind/ipc"
	"fieldmind/rules"
)

// speechInterval is the minimum gap between spoken lines from one unit.
// Triggers can fire every cycle; nobody wants a unit yelling at 10 Hz.
const speechInterval = 3 * time.Second

// HostDispatcher forwards decided actions and speech to the host game over
// the session connection. It implements rules.Dispatcher for both the
// trigger engine and the plan executor.
type HostDispatcher struct {
	conn *ipc.Connection

	mu        sync.Mutex
	lastSpoke map[string]time.Time
	now       func() time.Time
}

func NewHostDispatcher(conn *ipc.Connection) *HostDispatcher {
	return &HostDispatcher{
		conn:      conn,
		lastSpoke: make(map[string]time.Time),
		now:       time.Now,
	}
}

func (d *HostDispatcher) DispatchAction(unitID string, action catalog.Kind, params map[string]any) error {
	msg := ipc.ActionMessage{UnitID: unitID, Action: string(action), Params: params}
	if err := d.conn.Send(ipc.TypeAction, msg); err != nil {
		return fmt.Errorf("send action %s for %s: %w", action, unitID, err)
	}
	return nil
}

func (d *HostDispatcher) Speak(unitID string, line string) {
	d.mu.Lock()
	now := d.now()
	if now.Sub(d.lastSpoke[unitID]) < speechInterval {
		d.mu.Unlock()
		return
	}
	d.lastSpoke[unitID] = now
	d.mu.Unlock()

	// Speech is cosmetic; a failed send is not worth surfacing.
	_ = d.conn.Send(ipc.TypeSpeech, ipc.SpeechMessage{UnitID: unitID, Line: line})
}

var _ rules.Dispatcher = (*HostDispatcher)(nil)
