package game

import (
	"sort"
	"time"

	"github.com/user/quiet-dominion/internal/catalog"
	"github.com/user/quiet-dominion/internal/types"
)

// newInitialState builds a fresh playthrough state from the catalog's
// balance tables and unlock flags.
func newInitialState(cat *catalog.Catalog) *types.GameState {
	state := &types.GameState{
		Day:       1,
		TickCount: 0,

		Resources:       make(map[string]float64, len(cat.Balance.InitialResources)),
		ResourceCaps:    make(map[string]float64, len(cat.Balance.BaseCaps)),
		ProductionRates: make(map[string]float64, len(cat.Balance.BaseRates)),

		Structures:       make(map[string]int),
		StructureUnlocks: make(map[string]bool, len(cat.Structures)),

		AdvisorRelations: make(map[string]int),
		LegacyUpgrades:   make(map[string]int),

		EventHistory:          make([]types.EventRecord, 0),
		PendingConsequences:   make([]types.PendingConsequence, 0),
		DiscoveredTerritories: make([]string, 0),
		DiscoveredLore:        make([]string, 0),
		NewLore:               make([]string, 0),
		Notifications:         make([]types.Notification, 0),

		LastOnline: time.Now(),
	}

	for id, amount := range cat.Balance.InitialResources {
		state.Resources[id] = amount
	}
	for id, cap := range cat.Balance.BaseCaps {
		state.ResourceCaps[id] = cap
	}
	for id, rate := range cat.Balance.BaseRates {
		state.ProductionRates[id] = rate
	}

	for id, def := range cat.Structures {
		state.StructureUnlocks[id] = def.Unlocked
	}

	// Advisors present from day one start at a neutral relation; the rest
	// join later through unlock conditions.
	advisorIDs := make([]string, 0, len(cat.Advisors))
	for id := range cat.Advisors {
		advisorIDs = append(advisorIDs, id)
	}
	sort.Strings(advisorIDs)
	for _, id := range advisorIDs {
		if cat.Advisors[id].Unlocked {
			state.UnlockedAdvisors = append(state.UnlockedAdvisors, id)
			state.AdvisorRelations[id] = 50
		} else {
			state.AdvisorRelations[id] = 0
		}
	}

	return state
}
