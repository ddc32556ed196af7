package ipc

import "fieldmind/model"

// Message type constants. Must stay in sync with the host's dispatcher.
const (
	// Inbound from the host game.
	TypeHello           = "hello"
	TypeSnapshots       = "snapshots"
	TypeCommand         = "command"
	TypeActionCompleted = "action_completed"
	TypeUnitRemoved     = "unit_removed"

	// Outbound to the host game.
	TypeAck           = "ack"
	TypeAction        = "action"
	TypeSpeech        = "speech"
	TypeCommandResult = "command_result"
)

// HelloMessage opens a session: the host identifies the player and declares
// the named map nodes that plans may reference.
type HelloMessage struct {
	Player    string   `json:"player"`
	NodeNames []string `json:"node_names"`
	MapWidth  float64  `json:"map_width"`
	MapHeight float64  `json:"map_height"`
}

// SnapshotsMessage is the host's per-tick unit state batch. Units absent from
// a batch keep their previous snapshot until removed explicitly.
type SnapshotsMessage struct {
	Tick  uint64               `json:"tick"`
	Units []model.UnitSnapshot `json:"units"`
}

// CommandMessage is a player order targeting a selection of units.
type CommandMessage struct {
	Text    string   `json:"text"`
	UnitIDs []string `json:"unit_ids"`
}

// ActionCompletedMessage reports the outcome of a previously dispatched
// action. success=false means the action could not finish.
type ActionCompletedMessage struct {
	UnitID  string `json:"unit_id"`
	Action  string `json:"action"`
	Success bool   `json:"success"`
	Tick    uint64 `json:"tick"`
}

type UnitRemovedMessage struct {
	UnitID string `json:"unit_id"`
}

type AckMessage struct {
	Status string `json:"status"`
}

// ActionMessage instructs the host to start an action on a unit. Params are
// the catalog-validated parameter map, including any duration override.
type ActionMessage struct {
	UnitID string         `json:"unit_id"`
	Action string         `json:"action"`
	Params map[string]any `json:"params"`
}

// SpeechMessage carries a short in-character line for the unit to say.
type SpeechMessage struct {
	UnitID string `json:"unit_id"`
	Line   string `json:"line"`
}

// CommandResultMessage closes the loop on an issued command: installed,
// rejected with a reason, or replaced by the fallback plan.
type CommandResultMessage struct {
	Tier    string `json:"tier"`
	Status  string `json:"status"`
	Message string `json:"message"`
}
