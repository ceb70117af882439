package game

import (
	"errors"
	"math"

	"go.uber.org/zap"

	"github.com/user/quiet-dominion/internal/catalog"
	"github.com/user/quiet-dominion/internal/types"
)

var (
	errStructureUnknown = errors.New("structure not found")
	errStructureLocked  = errors.New("structure not unlocked")
	errStructureMaxed   = errors.New("structure at maximum count")
)

// structureCost returns the effective build cost after discounts from built
// structures and the cost reduction legacy upgrade. A cost never drops below
// 10% of the catalog value.
func (gm *GameManager) structureCost(state *types.GameState, def catalog.StructureDef) map[string]float64 {
	discount := gm.upgradeEffect(state, "structure_cost_reduction") +
		gm.structureEffectTotal(state, "structure_discount")
	multiplier := 1 - discount
	if multiplier < 0.1 {
		multiplier = 0.1
	}

	cost := make(map[string]float64, len(def.Cost))
	for id, amount := range def.Cost {
		cost[id] = math.Floor(amount * multiplier)
	}
	return cost
}

// checkBuildable validates a build attempt without mutating anything.
// Unlock state is checked here as well: a locked structure cannot be built
// no matter what the caller has pre-checked.
func (gm *GameManager) checkBuildable(state *types.GameState, structureID string) error {
	def, ok := gm.catalog.Structure(structureID)
	if !ok {
		return errStructureUnknown
	}
	if !state.StructureUnlocks[structureID] {
		return errStructureLocked
	}
	if state.Structures[structureID] >= def.MaxCount {
		return errStructureMaxed
	}
	for id, amount := range gm.structureCost(state, def) {
		if state.Resources[id] < amount {
			return errInsufficientResources
		}
	}
	return nil
}

// buildStructure debits every cost resource, increments the count and
// recomputes the derived tables. All-or-nothing: any failed check leaves the
// state untouched.
func (gm *GameManager) buildStructure(state *types.GameState, structureID string) error {
	if err := gm.checkBuildable(state, structureID); err != nil {
		return err
	}

	def, _ := gm.catalog.Structure(structureID)
	for id, amount := range gm.structureCost(state, def) {
		if err := debitResource(state, id, amount); err != nil {
			// checkBuildable verified affordability; reaching here means a
			// content table lists a resource the ledger does not track.
			return err
		}
	}

	state.Structures[structureID]++
	gm.recomputeRatesAndCaps(state)
	gm.evaluateStructureUnlocks(state)
	return nil
}

// evaluateStructureUnlocks flips unlock flags for structures whose
// conditions are now met. Unlocks are monotonic: nothing here ever clears a
// flag, even if the state later regresses below the threshold.
func (gm *GameManager) evaluateStructureUnlocks(state *types.GameState) {
	for id, def := range gm.catalog.Structures {
		if state.StructureUnlocks[id] {
			continue
		}
		if def.UnlockCondition == nil {
			continue
		}
		if gm.unlockConditionMet(state, def.UnlockCondition) {
			state.StructureUnlocks[id] = true
			gm.Logger.Info("structure unlocked", zap.String("structure_id", id))
		}
	}
}

// unlockConditionMet checks every present field of an unlock condition.
func (gm *GameManager) unlockConditionMet(state *types.GameState, cond *catalog.UnlockCondition) bool {
	if cond.Population > 0 && state.Resources["population"] < cond.Population {
		return false
	}
	if cond.Day > 0 && state.Day < cond.Day {
		return false
	}
	if cond.Influence > 0 && state.Resources["influence"] < cond.Influence {
		return false
	}
	if cond.Prestige > 0 && state.PrestigeCount < cond.Prestige {
		return false
	}
	for structureID, minCount := range cond.Structures {
		if state.Structures[structureID] < minCount {
			return false
		}
	}
	for _, territoryID := range cond.Territories {
		if !state.HasTerritory(territoryID) {
			return false
		}
	}
	return true
}

// evaluateAdvisorUnlocks adds advisors whose conditions are now met.
// Monotonic, same as structure unlocks.
func (gm *GameManager) evaluateAdvisorUnlocks(state *types.GameState) {
	for id, def := range gm.catalog.Advisors {
		if state.HasAdvisor(id) {
			continue
		}
		if def.UnlockCondition == nil {
			continue
		}
		if gm.unlockConditionMet(state, def.UnlockCondition) {
			state.UnlockedAdvisors = append(state.UnlockedAdvisors, id)
			if _, ok := state.AdvisorRelations[id]; !ok {
				state.AdvisorRelations[id] = 0
			}
			gm.queueNotification(state, "advisor", def.Name+" has joined your settlement.", 5000)
			gm.Logger.Info("advisor unlocked", zap.String("advisor_id", id))
		}
	}
}
