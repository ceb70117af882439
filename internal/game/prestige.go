package game

import (
	"errors"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/user/quiet-dominion/internal/archive"
	"github.com/user/quiet-dominion/internal/catalog"
	"github.com/user/quiet-dominion/internal/types"
)

var (
	errPrestigeRequirements = errors.New("prestige requirements not met")
	errEndingUnknown        = errors.New("ending not found")
	errEndingNotAchieved    = errors.New("ending requirements not met")
	errUpgradeUnknown       = errors.New("legacy upgrade not found")
	errUpgradeMaxed         = errors.New("legacy upgrade at maximum level")
	errInsufficientLegacy   = errors.New("insufficient legacy points")
)

// PrestigeRequirements evaluates the three prestige gates.
func (gm *GameManager) PrestigeRequirements() types.PrestigeStatus {
	gm.stateLock.RLock()
	defer gm.stateLock.RUnlock()
	return gm.prestigeStatus(gm.state)
}

func (gm *GameManager) prestigeStatus(state *types.GameState) types.PrestigeStatus {
	req := gm.catalog.Prestige.Requirements
	return types.PrestigeStatus{
		Day:        state.Day >= req.Day,
		Population: state.Resources["population"] >= req.Population,
		Structures: state.TotalStructures() >= req.TotalStructures,
	}
}

// computeLegacyPoints converts the run's achievements into legacy points.
// Finishing before day 100 earns a speed bonus; exploration and lore add on
// top, so fast and thorough play both pay.
func (gm *GameManager) computeLegacyPoints(state *types.GameState, endingID string) int {
	formula := gm.catalog.Prestige.LegacyFormula

	points := formula.BasePoints
	points += state.Resources["population"] * formula.PerPopulation
	points += float64(state.TotalStructures()) * formula.PerStructure
	points += float64(len(state.DiscoveredTerritories)) * formula.PerTerritory
	points += float64(len(state.DiscoveredLore)) * formula.PerLore
	if state.Day < 100 {
		points += float64(100-state.Day) * formula.DayBonus
	}
	if ending, ok := gm.catalog.Ending(endingID); ok {
		points += float64(ending.LegacyBonus)
	}

	return int(math.Floor(points))
}

// LegacyPointsPreview returns the points the current run would earn with the
// given ending selected.
func (gm *GameManager) LegacyPointsPreview(endingID string) int {
	gm.stateLock.RLock()
	defer gm.stateLock.RUnlock()
	return gm.computeLegacyPoints(gm.state, endingID)
}

// endingAchieved checks an ending's requirement map; keys the ending does
// not declare are vacuously satisfied.
func endingAchieved(def catalog.EndingDef, state *types.GameState) bool {
	req := def.Requirements
	if req.Path != "" && state.ChosenPath != req.Path {
		return false
	}
	if req.Population > 0 && state.Resources["population"] < req.Population {
		return false
	}
	if req.Food > 0 && state.Resources["food"] < req.Food {
		return false
	}
	if req.Knowledge > 0 && state.Resources["knowledge"] < req.Knowledge {
		return false
	}
	if req.Territories > 0 && len(state.DiscoveredTerritories) < req.Territories {
		return false
	}
	if req.Lore > 0 && len(state.DiscoveredLore) < req.Lore {
		return false
	}
	if req.Day > 0 && state.Day < req.Day {
		return false
	}
	return true
}

// EligibleEndings returns the IDs of every ending the current run has
// achieved, sorted for stable presentation.
func (gm *GameManager) EligibleEndings() []string {
	gm.stateLock.RLock()
	defer gm.stateLock.RUnlock()

	var endings []string
	for id, def := range gm.catalog.Endings {
		if endingAchieved(def, gm.state) {
			endings = append(endings, id)
		}
	}
	sort.Strings(endings)
	return endings
}

// Prestige ends the current run: legacy points are banked, the run is
// archived, and a fresh playthrough begins carrying the permanent fields
// forward. Returns the points earned.
func (gm *GameManager) Prestige(endingID string) (int, error) {
	gm.stateLock.Lock()
	defer gm.stateLock.Unlock()

	state := gm.state
	if !gm.prestigeStatus(state).Met() {
		return 0, errPrestigeRequirements
	}
	ending, ok := gm.catalog.Ending(endingID)
	if !ok {
		return 0, errEndingUnknown
	}
	if !endingAchieved(ending, state) {
		return 0, errEndingNotAchieved
	}

	earned := gm.computeLegacyPoints(state, endingID)

	if gm.archive != nil {
		record := archive.RunRecord{
			PrestigeNumber:  state.PrestigeCount + 1,
			EndingID:        endingID,
			DayReached:      state.Day,
			Population:      state.Resources["population"],
			TotalStructures: state.TotalStructures(),
			Territories:     len(state.DiscoveredTerritories),
			Lore:            len(state.DiscoveredLore),
			LegacyEarned:    earned,
			CompletedAt:     time.Now(),
		}
		if err := gm.archive.RecordRun(record, state); err != nil {
			// Archiving is best-effort; the prestige itself must not fail on it.
			gm.Logger.Error("failed to archive run", zap.Error(err))
		}
	}

	gm.state = gm.seedNextRun(state, earned)

	if err := gm.saveState(); err != nil {
		gm.Logger.Error("failed to save state after prestige", zap.Error(err))
	}

	gm.Logger.Info("prestige complete",
		zap.String("ending_id", endingID),
		zap.Int("legacy_earned", earned),
		zap.Int("prestige_count", gm.state.PrestigeCount))

	return earned, nil
}

// seedNextRun builds the fresh state a prestige hands back: run-scoped
// fields reset, permanent fields carried, starting resources boosted by the
// starting-resource legacy upgrade, and lore trimmed to the retained slice.
func (gm *GameManager) seedNextRun(old *types.GameState, earned int) *types.GameState {
	next := newInitialState(gm.catalog)

	next.PrestigeCount = old.PrestigeCount + 1
	next.LegacyPoints = old.LegacyPoints + earned
	for id, level := range old.LegacyUpgrades {
		next.LegacyUpgrades[id] = level
	}

	if boost := gm.upgradeEffect(next, "starting_resources"); boost > 0 {
		for id, amount := range next.Resources {
			next.Resources[id] = math.Floor(amount * (1 + boost))
		}
	}

	if keep := int(gm.upgradeEffect(next, "starting_lore")); keep > 0 {
		if keep > len(old.DiscoveredLore) {
			keep = len(old.DiscoveredLore)
		}
		next.DiscoveredLore = append(next.DiscoveredLore, old.DiscoveredLore[:keep]...)
	}

	// The player returns straight to the settlement; no second intro. The
	// starting structures the intro would grant are seeded here instead.
	next.GameStarted = true
	next.IntroComplete = true
	for id, count := range gm.catalog.Balance.StartingStructures {
		if _, ok := gm.catalog.Structure(id); ok {
			next.Structures[id] = count
		}
	}

	gm.recomputeRatesAndCaps(next)
	gm.evaluateStructureUnlocks(next)

	return next
}

// PurchaseLegacyUpgrade spends legacy points on one level of a permanent
// upgrade. The per-upgrade maximum level is enforced here, not left to the
// presentation layer.
func (gm *GameManager) PurchaseLegacyUpgrade(upgradeID string) error {
	gm.stateLock.Lock()
	defer gm.stateLock.Unlock()

	state := gm.state
	def, ok := gm.catalog.LegacyUpgrade(upgradeID)
	if !ok {
		return errUpgradeUnknown
	}
	if state.LegacyUpgrades[upgradeID] >= def.MaxLevel {
		return errUpgradeMaxed
	}
	if state.LegacyPoints < def.Cost {
		return errInsufficientLegacy
	}

	state.LegacyPoints -= def.Cost
	state.LegacyUpgrades[upgradeID]++

	// Production upgrades take effect immediately.
	gm.recomputeRatesAndCaps(state)

	gm.Logger.Info("legacy upgrade purchased",
		zap.String("upgrade_id", upgradeID),
		zap.Int("level", state.LegacyUpgrades[upgradeID]))

	return nil
}
