package catalog

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadShippedContent(t *testing.T) {
	cat, err := Load("../../assets")
	assert.NoError(t, err)

	// Table sizes pin the shipped content set
	assert.Len(t, cat.Resources, 6)
	assert.Len(t, cat.Structures, 14)
	assert.Len(t, cat.Advisors, 4)
	assert.Len(t, cat.Events, 18)
	assert.Len(t, cat.Dilemmas, 2)
	assert.Len(t, cat.Territories, 7)
	assert.Len(t, cat.Lore, 12)
	assert.Len(t, cat.Endings, 4)
	assert.Len(t, cat.Prestige.LegacyUpgrades, 5)

	// Spot checks against known entries
	campfire, ok := cat.Structure("campfire")
	assert.True(t, ok)
	assert.True(t, campfire.Unlocked)
	assert.Equal(t, 1, campfire.MaxCount)

	quarry, ok := cat.Structure("quarry")
	assert.True(t, ok)
	assert.False(t, quarry.Unlocked)
	assert.NotNil(t, quarry.UnlockCondition)
	assert.Contains(t, quarry.UnlockCondition.Territories, "eastern_ridge")

	ridge, ok := cat.Territory("eastern_ridge")
	assert.True(t, ok)
	assert.True(t, ridge.ExplorationTime > 0)
	assert.NotEmpty(t, ridge.ExplorationCost)

	assert.Equal(t, 50, cat.Prestige.Requirements.Day)
	assert.Equal(t, 75.0, cat.Prestige.Requirements.Population)
	assert.Equal(t, 15, cat.Prestige.Requirements.TotalStructures)

	// Balance carries the simulation constants from balance.yaml
	assert.Equal(t, 1000, cat.Balance.TickIntervalMs)
	assert.Equal(t, 0.5, cat.Balance.OfflineMultiplier)
	assert.Equal(t, 1, cat.Balance.StartingStructures["campfire"])
}

func TestEventLookupSpansDilemmas(t *testing.T) {
	cat, err := Load("../../assets")
	assert.NoError(t, err)

	// Test case 1: a regular event
	_, ok := cat.Event("wanderer_arrives")
	assert.True(t, ok)

	// Test case 2: a dilemma resolves through the same lookup
	dilemma, ok := cat.Event("northern_settlers")
	assert.True(t, ok)
	assert.True(t, dilemma.ConsequenceDelay > 0)

	// Test case 3: unknown ID
	_, ok = cat.Event("nothing_here")
	assert.False(t, ok)

	// AllEvents is sorted and spans both tables
	all := cat.AllEvents()
	assert.Len(t, all, 20)
	for i := 1; i < len(all); i++ {
		assert.True(t, all[i-1].ID < all[i].ID)
	}
}

func TestPathEffects(t *testing.T) {
	cat, err := Load("../../assets")
	assert.NoError(t, err)

	// Each path declared by the expansion dilemma carries its modifiers
	for _, path := range []string{"prosperity", "expansion", "knowledge"} {
		effects := cat.PathEffects(path)
		assert.NotNil(t, effects, path)
		assert.NotEmpty(t, effects, path)
	}

	assert.Nil(t, cat.PathEffects(""))
	assert.Nil(t, cat.PathEffects("chaos"))
}

func TestStructureRequirementForms(t *testing.T) {
	// Test case 1: object form with explicit counts
	var req StructureRequirement
	assert.NoError(t, json.Unmarshal([]byte(`{"farm": 2, "library": 1}`), &req))
	assert.Equal(t, 2, req["farm"])
	assert.Equal(t, 1, req["library"])

	// Test case 2: list shorthand defaults every entry to one
	assert.NoError(t, json.Unmarshal([]byte(`["library", "smithy"]`), &req))
	assert.Equal(t, 1, req["library"])
	assert.Equal(t, 1, req["smithy"])

	// Test case 3: anything else is rejected
	assert.Error(t, json.Unmarshal([]byte(`"library"`), &req))
}

func TestSchemaValidationRejectsBadContent(t *testing.T) {
	base := t.TempDir()
	dataDir := filepath.Join(base, "data")
	schemaDir := filepath.Join(base, "schemas")
	assert.NoError(t, os.MkdirAll(dataDir, 0755))
	assert.NoError(t, os.MkdirAll(schemaDir, 0755))

	schema, err := os.ReadFile("../../assets/schemas/structures.schema.json")
	assert.NoError(t, err)
	assert.NoError(t, os.WriteFile(filepath.Join(schemaDir, "structures.schema.json"), schema, 0644))

	// A structure without the required cost field must fail at load time
	bad := `[{"id": "hut", "name": "Hut", "tier": 1, "max_count": 1}]`
	assert.NoError(t, os.WriteFile(filepath.Join(dataDir, "structures.json"), []byte(bad), 0644))
	assert.NoError(t, os.WriteFile(filepath.Join(dataDir, "resources.json"), []byte(`[]`), 0644))

	_, err = Load(base)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "schema validation")
}

func TestDuplicateIDsRejected(t *testing.T) {
	base := t.TempDir()
	dataDir := filepath.Join(base, "data")
	assert.NoError(t, os.MkdirAll(dataDir, 0755))

	files := map[string]string{
		"resources.json": `[]`,
		"structures.json": `[
			{"id": "farm", "name": "Farm", "tier": 1, "cost": {"materials": 30}, "max_count": 5},
			{"id": "farm", "name": "Farm", "tier": 1, "cost": {"materials": 30}, "max_count": 5}
		]`,
	}
	for name, content := range files {
		assert.NoError(t, os.WriteFile(filepath.Join(dataDir, name), []byte(content), 0644))
	}

	_, err := Load(base)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate structure id")
}

func TestLoadBalanceMergesOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "balance.yaml")
	partial := "tick_interval_ms: 250\nmax_offline_hours: 8\n"
	assert.NoError(t, os.WriteFile(path, []byte(partial), 0644))

	b, err := LoadBalance(path)
	assert.NoError(t, err)

	// Overridden fields take the file's values
	assert.Equal(t, 250, b.TickIntervalMs)
	assert.Equal(t, 8.0, b.MaxOfflineHours)

	// Everything else keeps the defaults
	assert.Equal(t, 0.5, b.OfflineMultiplier)
	assert.Equal(t, 10, b.EventCooldownDays)
	assert.Equal(t, 50.0, b.InitialResources["food"])
}
