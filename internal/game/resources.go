package game

import (
	"errors"
	"math"

	"github.com/user/quiet-dominion/internal/types"
)

var errInsufficientResources = errors.New("insufficient resources")

// applyProduction advances every positively-producing resource by one tick's
// rate, clamped to its cap. Negative rates are not applied here; spends and
// event effects handle decreases.
func applyProduction(state *types.GameState) {
	for id, rate := range state.ProductionRates {
		if rate <= 0 {
			continue
		}
		creditResource(state, id, rate)
	}
}

// creditResource adds amount to a resource, clamped to the resource cap.
// Unknown resource IDs are ignored so content may reference resources the
// engine does not track yet.
func creditResource(state *types.GameState, id string, amount float64) {
	cap, ok := state.ResourceCaps[id]
	if !ok {
		cap = math.Inf(1)
	}
	state.Resources[id] = math.Min(state.Resources[id]+amount, cap)
}

// debitResource subtracts amount from a resource. The state is unchanged if
// the balance would go negative.
func debitResource(state *types.GameState, id string, amount float64) error {
	if state.Resources[id]-amount < 0 {
		return errInsufficientResources
	}
	state.Resources[id] -= amount
	return nil
}

// applyEventEffects applies event-resolution resource deltas. Decreases are
// floored at zero; increases deliberately bypass the cap clamp, unlike
// normal production crediting.
func applyEventEffects(state *types.GameState, effects map[string]float64) {
	for id, delta := range effects {
		state.Resources[id] = math.Max(0, state.Resources[id]+delta)
	}
}

// recomputeRatesAndCaps rebuilds the derived production rates and resource
// caps from the balance tables, built structures, discovered territories,
// the chosen path and legacy upgrades. Called after every structure count
// change, territory discovery or path choice.
func (gm *GameManager) recomputeRatesAndCaps(state *types.GameState) {
	rates := make(map[string]float64, len(gm.catalog.Balance.BaseRates))
	for id, rate := range gm.catalog.Balance.BaseRates {
		rates[id] = rate
	}
	caps := make(map[string]float64, len(gm.catalog.Balance.BaseCaps))
	for id, cap := range gm.catalog.Balance.BaseCaps {
		caps[id] = cap
	}

	for structureID, count := range state.Structures {
		def, ok := gm.catalog.Structure(structureID)
		if !ok || count <= 0 {
			continue
		}
		for id, bonus := range def.ProductionBonus {
			rates[id] += bonus * float64(count)
		}
		for id, bonus := range def.CapBonus {
			caps[id] += bonus * float64(count)
		}
	}

	for _, territoryID := range state.DiscoveredTerritories {
		def, ok := gm.catalog.Territory(territoryID)
		if !ok {
			continue
		}
		for id, bonus := range def.Rewards.ProductionBonus {
			rates[id] += bonus
		}
		for id, bonus := range def.Rewards.CapBonus {
			caps[id] += bonus
		}
	}

	if effects := gm.catalog.PathEffects(state.ChosenPath); effects != nil {
		if m := effects["production_multiplier"]; m > 0 {
			for id := range rates {
				rates[id] *= m
			}
		}
		if m := effects["cap_multiplier"]; m > 0 {
			for id := range caps {
				caps[id] *= m
			}
		}
		if m := effects["knowledge_multiplier"]; m > 0 {
			rates["knowledge"] *= m
		}
	}

	if bonus := gm.upgradeEffect(state, "production_bonus"); bonus > 0 {
		for id := range rates {
			if rates[id] > 0 {
				rates[id] *= 1 + bonus
			}
		}
	}

	state.ProductionRates = rates
	state.ResourceCaps = caps

	// Caps may have shrunk (path cap multipliers); restore the invariant.
	for id, amount := range state.Resources {
		if cap, ok := caps[id]; ok && amount > cap {
			state.Resources[id] = cap
		}
	}
}

// structureEffectTotal sums a named numeric effect across all built
// structures, weighted by count.
func (gm *GameManager) structureEffectTotal(state *types.GameState, key string) float64 {
	total := 0.0
	for structureID, count := range state.Structures {
		def, ok := gm.catalog.Structure(structureID)
		if !ok || count <= 0 {
			continue
		}
		if v, ok := def.Effects[key]; ok {
			total += v * float64(count)
		}
	}
	return total
}

// upgradeEffect sums a named legacy upgrade effect across purchased levels.
func (gm *GameManager) upgradeEffect(state *types.GameState, key string) float64 {
	total := 0.0
	for upgradeID, level := range state.LegacyUpgrades {
		def, ok := gm.catalog.LegacyUpgrade(upgradeID)
		if !ok || level <= 0 {
			continue
		}
		if v, ok := def.Effect[key]; ok {
			total += v * float64(level)
		}
	}
	return total
}
