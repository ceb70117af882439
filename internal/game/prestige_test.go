package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// ripenRun pushes a fresh run past all three prestige gates.
func ripenRun(gm *GameManager) {
	gm.state.Day = 60
	gm.state.TickCount = 59 * 60
	gm.state.Resources["population"] = 80
	gm.state.Structures = map[string]int{
		"campfire": 1, "farm": 10, "smithy": 2, "beacon": 1, "library": 1,
	}
	gm.state.DiscoveredTerritories = []string{"eastern_ridge"}
	gm.state.DiscoveredLore = []string{"ancient_quarry", "old_watchtower"}
}

func TestPrestigeRequirements(t *testing.T) {
	gm := newTestManager(t)

	// Test case 1: a fresh run meets no gate
	status := gm.PrestigeRequirements()
	assert.False(t, status.Day)
	assert.False(t, status.Population)
	assert.False(t, status.Structures)
	assert.False(t, status.Met())

	// Test case 2: gates flip independently
	gm.state.Day = 50
	status = gm.PrestigeRequirements()
	assert.True(t, status.Day)
	assert.False(t, status.Met())

	// Test case 3: all gates met
	ripenRun(gm)
	assert.True(t, gm.PrestigeRequirements().Met())
}

func TestLegacyPointsPreview(t *testing.T) {
	gm := newTestManager(t)
	ripenRun(gm)

	// 10 base + 40 population + 30 structures + 5 territory + 6 lore
	// + 4 day bonus + 20 ending bonus
	assert.Equal(t, 115, gm.LegacyPointsPreview("balanced"))

	// Without an ending bonus
	assert.Equal(t, 95, gm.LegacyPointsPreview(""))
}

func TestEligibleEndings(t *testing.T) {
	gm := newTestManager(t)

	assert.Empty(t, gm.EligibleEndings())

	ripenRun(gm)
	assert.Equal(t, []string{"balanced"}, gm.EligibleEndings())

	// The prosperity ending additionally needs the path and more people
	gm.state.ChosenPath = "prosperity"
	gm.state.Resources["population"] = 150
	assert.Equal(t, []string{"balanced", "prosperity"}, gm.EligibleEndings())
}

func TestPrestigeRejections(t *testing.T) {
	gm := newTestManager(t)

	// Test case 1: gates not met
	_, err := gm.Prestige("balanced")
	assert.Error(t, err)
	assert.Equal(t, "prestige requirements not met", err.Error())

	ripenRun(gm)

	// Test case 2: unknown ending
	_, err = gm.Prestige("the_void")
	assert.Error(t, err)
	assert.Equal(t, "ending not found", err.Error())

	// Test case 3: ending not achieved (no path chosen)
	_, err = gm.Prestige("prosperity")
	assert.Error(t, err)
	assert.Equal(t, "ending requirements not met", err.Error())
}

func TestPrestigeSeedsNextRun(t *testing.T) {
	gm := newTestManager(t)
	ripenRun(gm)
	gm.state.LegacyPoints = 7
	gm.state.LegacyUpgrades["quick_start"] = 1
	gm.state.LegacyUpgrades["ancient_knowledge"] = 2

	earned, err := gm.Prestige("balanced")
	assert.NoError(t, err)
	assert.Equal(t, 115, earned)

	state := gm.State()

	// Permanent fields carried forward
	assert.Equal(t, 1, state.PrestigeCount)
	assert.Equal(t, 122, state.LegacyPoints)
	assert.Equal(t, 1, state.LegacyUpgrades["quick_start"])
	assert.Equal(t, 2, state.LegacyUpgrades["ancient_knowledge"])

	// Run-scoped fields reset
	assert.Equal(t, 1, state.Day)
	assert.Equal(t, 0, state.TickCount)
	assert.Empty(t, state.DiscoveredTerritories)
	assert.Empty(t, state.EventHistory)
	assert.Equal(t, "", state.ChosenPath)

	// Starting resources boosted by quick_start and floored
	assert.Equal(t, 60.0, state.Resources["food"])
	assert.Equal(t, 36.0, state.Resources["materials"])
	assert.Equal(t, 6.0, state.Resources["population"])

	// Lore trimmed to the retained count
	assert.Equal(t, []string{"ancient_quarry", "old_watchtower"}, state.DiscoveredLore)

	// The next run skips the intro and already has its campfire
	assert.True(t, state.GameStarted)
	assert.True(t, state.IntroComplete)
	assert.Equal(t, 1, state.Structures["campfire"])
}

func TestPurchaseLegacyUpgrade(t *testing.T) {
	gm := newTestManager(t)
	gm.state.LegacyPoints = 25

	// Test case 1: unknown upgrade
	err := gm.PurchaseLegacyUpgrade("time_travel")
	assert.Error(t, err)
	assert.Equal(t, "legacy upgrade not found", err.Error())

	// Test case 2: successful purchase spends points
	assert.NoError(t, gm.PurchaseLegacyUpgrade("quick_start"))
	state := gm.State()
	assert.Equal(t, 1, state.LegacyUpgrades["quick_start"])
	assert.Equal(t, 15, state.LegacyPoints)

	// Test case 3: insufficient points
	err = gm.PurchaseLegacyUpgrade("ancient_knowledge")
	assert.Error(t, err)
	assert.Equal(t, "insufficient legacy points", err.Error())

	// Test case 4: the maximum level is enforced
	gm.state.LegacyPoints = 1000
	gm.state.LegacyUpgrades["efficient_builders"] = 3
	err = gm.PurchaseLegacyUpgrade("efficient_builders")
	assert.Error(t, err)
	assert.Equal(t, "legacy upgrade at maximum level", err.Error())
}
