package catalog

import "fieldmind/model"

// Builtin constructs the static action catalog. Every archetype inherits the
// common set; specialists register their extra abilities with explicit
// archetype restrictions.
func Builtin() *Catalog {
	c := &Catalog{defs: make(map[Kind]Def)}

	common := []Def{
		{
			Name:           KindMoveTo,
			Category:       ConditionBased, // done when the mover reports arrival
			RequiredParams: []string{"node"},
			OptionalParams: []string{"speed"},
			Interruptible:  true,
		},
		{
			Name:           KindAttackTarget,
			Category:       ConditionBased,
			RequiredParams: []string{"target_id"},
			EnergyCost:     5,
			Cooldown:       2,
			Interruptible:  true,
		},
		{
			Name:           KindAttackMove,
			Category:       ConditionBased,
			RequiredParams: []string{"node"},
			EnergyCost:     5,
			Cooldown:       3,
			Interruptible:  true,
		},
		{
			Name:            KindHoldPosition,
			Category:        DurationBased,
			OptionalParams:  []string{"duration"},
			DefaultDuration: 10,
			Interruptible:   true,
		},
		{
			Name:           KindRetreatTo,
			Category:       ConditionBased,
			RequiredParams: []string{"node"},
			Cooldown:       5,
			Interruptible:  false, // a retreat in progress is never pre-empted
		},
		{
			Name:          KindTakeCover,
			Category:      Immediate,
			Cooldown:      4,
			Interruptible: true,
		},
		{
			Name:           KindFollowUnit,
			Category:       ConditionBased,
			RequiredParams: []string{"target_id"},
			Interruptible:  true,
		},
		{
			Name:            KindFormUp,
			Category:        DurationBased,
			RequiredParams:  []string{"formation"},
			OptionalParams:  []string{"duration"},
			DefaultDuration: 5,
			Interruptible:   true,
		},
	}

	specialist := []Def{
		{
			Name:            KindActivateStealth,
			Category:        DurationBased,
			OptionalParams:  []string{"duration"},
			DefaultDuration: 8,
			EnergyCost:      20,
			Cooldown:        30,
			Archetypes:      []model.Archetype{model.ArchetypeScout},
			Interruptible:   false,
		},
		{
			Name:            KindSpotTargets,
			Category:        DurationBased,
			OptionalParams:  []string{"duration"},
			DefaultDuration: 4,
			EnergyCost:      10,
			Cooldown:        12,
			Archetypes:      []model.Archetype{model.ArchetypeScout},
			Interruptible:   true,
		},
		{
			Name:           KindConstruct,
			Category:       ConditionBased,
			RequiredParams: []string{"structure", "node"},
			EnergyCost:     30,
			Cooldown:       10,
			Archetypes:     []model.Archetype{model.ArchetypeEngineer},
			Interruptible:  true,
		},
		{
			Name:           KindRepair,
			Category:       ConditionBased,
			RequiredParams: []string{"target_id"},
			EnergyCost:     15,
			Cooldown:       6,
			Archetypes:     []model.Archetype{model.ArchetypeEngineer},
			Interruptible:  true,
		},
		{
			Name:            KindLayMines,
			Category:        DurationBased,
			RequiredParams:  []string{"node"},
			OptionalParams:  []string{"duration"},
			DefaultDuration: 6,
			EnergyCost:      25,
			Cooldown:        20,
			Archetypes:      []model.Archetype{model.ArchetypeEngineer},
			Interruptible:   false,
		},
		{
			Name:            KindSuppressingFire,
			Category:        DurationBased,
			RequiredParams:  []string{"node"},
			OptionalParams:  []string{"duration"},
			DefaultDuration: 6,
			EnergyCost:      20,
			Cooldown:        15,
			Archetypes:      []model.Archetype{model.ArchetypeHeavy},
			Interruptible:   true,
		},
		{
			Name:           KindHeal,
			Category:       ConditionBased,
			RequiredParams: []string{"target_id"},
			EnergyCost:     15,
			Cooldown:       8,
			Archetypes:     []model.Archetype{model.ArchetypeMedic},
			Interruptible:  true,
		},
	}

	for _, d := range common {
		c.register(d)
	}
	for _, d := range specialist {
		c.register(d)
	}
	return c
}

func (c *Catalog) register(d Def) {
	if _, dup := c.defs[d.Name]; dup {
		panic("catalog: duplicate action " + string(d.Name))
	}
	c.defs[d.Name] = d
	c.order = append(c.order, d.Name)
}
