package model

import "math"

// Archetype identifies a unit's capability class. Every archetype shares the
// common action set; specialists add their own abilities on top.
type Archetype string

const (
	ArchetypeSoldier  Archetype = "soldier"
	ArchetypeScout    Archetype = "scout"
	ArchetypeEngineer Archetype = "engineer"
	ArchetypeHeavy    Archetype = "heavy"
	ArchetypeMedic    Archetype = "medic"
)

// Archetypes lists every known archetype in a fixed order.
func Archetypes() []Archetype {
	return []Archetype{ArchetypeSoldier, ArchetypeScout, ArchetypeEngineer, ArchetypeHeavy, ArchetypeMedic}
}

// The four primary behavioral states. Command tuning rewrites exactly these
// four biases and nothing else.
const (
	StateAttack  = "attack"
	StateDefend  = "defend"
	StateRetreat = "retreat"
	StateFollow  = "follow"
)

// PrimaryStates returns the four primary states in canonical order.
func PrimaryStates() []string {
	return []string{StateAttack, StateDefend, StateRetreat, StateFollow}
}

type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (v Vec2) Dist(o Vec2) float64 {
	dx := v.X - o.X
	dy := v.Y - o.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Contact is another unit as perceived by the snapshot's owner.
type Contact struct {
	ID        string    `json:"id"`
	Archetype Archetype `json:"archetype"`
	Pos       Vec2      `json:"pos"`
	Dist      float64   `json:"dist"`
	Band      string    `json:"band"` // "near", "mid", "far"
}

// UnitSnapshot is the read-only per-tick view of one unit. The host owns it;
// the core only reads it.
type UnitSnapshot struct {
	ID           string             `json:"id"`
	Team         string             `json:"team"`
	Archetype    Archetype          `json:"archetype"`
	Pos          Vec2               `json:"pos"`
	HealthPct    float64            `json:"healthPct"` // 0.0–1.0
	Energy       float64            `json:"energy"`
	Ammo         int                `json:"ammo"`
	Cooldowns    map[string]float64 `json:"cooldowns,omitempty"` // ability name → seconds remaining
	Enemies      []Contact          `json:"enemies"`
	Allies       []Contact          `json:"allies"`
	PrimaryState string             `json:"primaryState"`
	UnderFire    bool               `json:"underFire"`
	InCover      bool               `json:"inCover"`
	Flanked      bool               `json:"flanked"`
	Outnumbered  bool               `json:"outnumbered"`
	Tick         uint64             `json:"tick"`
}

// NearestEnemy returns the closest visible enemy, or nil when none.
func (s UnitSnapshot) NearestEnemy() *Contact {
	return nearest(s.Enemies)
}

// NearestAlly returns the closest visible ally, or nil when none.
func (s UnitSnapshot) NearestAlly() *Contact {
	return nearest(s.Allies)
}

func nearest(cs []Contact) *Contact {
	if len(cs) == 0 {
		return nil
	}
	best := 0
	for i := range cs {
		if cs[i].Dist < cs[best].Dist {
			best = i
		}
	}
	return &cs[best]
}

// Tier is the granularity of control selected for a command.
type Tier string

const (
	TierSquad      Tier = "squad"
	TierIndividual Tier = "individual"
)

// ControlTierDecision is the ephemeral result of classifying a command's unit
// selection. Computed once per command, never persisted.
type ControlTierDecision struct {
	Tier      Tier
	Clusters  [][]string // unit IDs grouped by spatial proximity
	Reasoning string
}

// GameContext carries battlefield-level facts a command needs beyond the
// per-unit snapshots.
type GameContext struct {
	Tick      uint64   `json:"tick"`
	NodeNames []string `json:"nodeNames"` // named map positions plans may reference
	MapWidth  float64  `json:"mapWidth"`
	MapHeight float64  `json:"mapHeight"`
}
