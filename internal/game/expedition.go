package game

import (
	"errors"
	"math"

	"go.uber.org/zap"

	"github.com/user/quiet-dominion/internal/catalog"
	"github.com/user/quiet-dominion/internal/types"
)

var (
	errTerritoryUnknown    = errors.New("territory not found")
	errExpeditionActive    = errors.New("an expedition is already underway")
	errTerritoryDiscovered = errors.New("territory already discovered")
	errTerritoryLocked     = errors.New("territory requirements not met")
)

// territoryRequirementsMet checks the territory's gating predicate.
func territoryRequirementsMet(def catalog.TerritoryDef, state *types.GameState) bool {
	req := def.Requires
	if req == nil {
		return true
	}
	if req.Day > 0 && state.Day < req.Day {
		return false
	}
	for _, structureID := range req.Structures {
		if state.Structures[structureID] < 1 {
			return false
		}
	}
	for _, advisorID := range req.UnlockedAdvisors {
		if !state.HasAdvisor(advisorID) {
			return false
		}
	}
	return true
}

// checkExpeditionStart validates an expedition without mutating state.
func (gm *GameManager) checkExpeditionStart(state *types.GameState, territoryID string) (catalog.TerritoryDef, error) {
	def, ok := gm.catalog.Territory(territoryID)
	if !ok {
		return catalog.TerritoryDef{}, errTerritoryUnknown
	}
	if state.ActiveExpedition != nil {
		return def, errExpeditionActive
	}
	if state.HasTerritory(territoryID) {
		return def, errTerritoryDiscovered
	}
	if !territoryRequirementsMet(def, state) {
		return def, errTerritoryLocked
	}
	for id, amount := range def.ExplorationCost {
		if state.Resources[id] < amount {
			return def, errInsufficientResources
		}
	}
	return def, nil
}

// CanExploreTerritory reports whether an expedition to the territory could
// start right now.
func (gm *GameManager) CanExploreTerritory(territoryID string) bool {
	gm.stateLock.RLock()
	defer gm.stateLock.RUnlock()

	_, err := gm.checkExpeditionStart(gm.state, territoryID)
	return err == nil
}

// StartExpedition debits the exploration cost and occupies the single
// expedition slot. All-or-nothing.
func (gm *GameManager) StartExpedition(territoryID string) error {
	gm.stateLock.Lock()
	defer gm.stateLock.Unlock()

	state := gm.state
	def, err := gm.checkExpeditionStart(state, territoryID)
	if err != nil {
		return err
	}

	for id, amount := range def.ExplorationCost {
		if err := debitResource(state, id, amount); err != nil {
			return err
		}
	}

	state.ActiveExpedition = &types.Expedition{
		TerritoryID: territoryID,
		StartDay:    state.Day,
	}

	gm.Logger.Info("expedition started",
		zap.String("territory_id", territoryID),
		zap.Int("start_day", state.Day))

	return nil
}

// ExpeditionProgress returns the active expedition's completion percentage
// in [0,100], counting partial days from the tick position. Returns 0 when
// no expedition is underway.
func (gm *GameManager) ExpeditionProgress() float64 {
	gm.stateLock.RLock()
	defer gm.stateLock.RUnlock()

	state := gm.state
	if state.ActiveExpedition == nil {
		return 0
	}
	def, ok := gm.catalog.Territory(state.ActiveExpedition.TerritoryID)
	if !ok || def.ExplorationTime <= 0 {
		return 0
	}

	daysElapsed := float64(state.Day - state.ActiveExpedition.StartDay)
	fractionalDay := float64(state.TickCount%types.TicksPerDay) / types.TicksPerDay

	progress := (daysElapsed + fractionalDay) / float64(def.ExplorationTime) * 100
	return math.Min(progress, 100)
}

// checkExpeditionCompletion fires completion when enough days have elapsed:
// territory discovered, rewards granted, lore revealed, slot freed. Called
// once per day change, never per tick.
func (gm *GameManager) checkExpeditionCompletion(state *types.GameState) {
	if state.ActiveExpedition == nil {
		return
	}

	def, ok := gm.catalog.Territory(state.ActiveExpedition.TerritoryID)
	if !ok {
		// Territory retired from the catalog; release the slot.
		gm.Logger.Warn("active expedition's territory missing from catalog",
			zap.String("territory_id", state.ActiveExpedition.TerritoryID))
		state.ActiveExpedition = nil
		return
	}

	if state.Day-state.ActiveExpedition.StartDay < def.ExplorationTime {
		return
	}

	state.DiscoveredTerritories = append(state.DiscoveredTerritories, def.ID)
	state.ActiveExpedition = nil

	for id, amount := range def.Rewards.Grants {
		creditResource(state, id, amount)
	}
	// Cap and production bonuses are folded in by the recompute now that the
	// territory counts as discovered.
	gm.recomputeRatesAndCaps(state)

	for _, structureID := range def.Rewards.Unlocks {
		if _, ok := gm.catalog.Structure(structureID); ok && !state.StructureUnlocks[structureID] {
			state.StructureUnlocks[structureID] = true
		}
	}
	gm.evaluateStructureUnlocks(state)

	if def.LoreFragment != "" {
		gm.discoverLore(state, def.LoreFragment)
	}

	if len(def.Narratives) > 0 {
		gm.queueNotification(state, "event", def.Narratives[len(def.Narratives)-1], 6000)
	}

	gm.Logger.Info("expedition complete",
		zap.String("territory_id", def.ID),
		zap.Int("day", state.Day))
}
