package archive

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/user/quiet-dominion/internal/types"
)

func testRecord(prestige int, ending string, legacy int) RunRecord {
	return RunRecord{
		PrestigeNumber:  prestige,
		EndingID:        ending,
		DayReached:      60,
		Population:      82.5,
		TotalStructures: 17,
		Territories:     2,
		Lore:            4,
		LegacyEarned:    legacy,
		CompletedAt:     time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestRecordAndListRuns(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "archive.db"))
	assert.NoError(t, err)
	defer store.Close()

	state := &types.GameState{
		Day:            60,
		TickCount:      59 * 60,
		Resources:      map[string]float64{"population": 82.5},
		Structures:     map[string]int{"farm": 10},
		DiscoveredLore: []string{"ancient_quarry"},
	}

	assert.NoError(t, store.RecordRun(testRecord(1, "balanced", 115), state))
	assert.NoError(t, store.RecordRun(testRecord(2, "prosperity", 140), state))

	runs, err := store.ListRuns()
	assert.NoError(t, err)
	assert.Len(t, runs, 2)

	// Most recent prestige first
	assert.Equal(t, 2, runs[0].PrestigeNumber)
	assert.Equal(t, "prosperity", runs[0].EndingID)
	assert.Equal(t, 140, runs[0].LegacyEarned)
	assert.Equal(t, 1, runs[1].PrestigeNumber)
	assert.Equal(t, 82.5, runs[1].Population)
	assert.Equal(t, 17, runs[1].TotalStructures)
}

func TestRunSnapshot(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "archive.db"))
	assert.NoError(t, err)
	defer store.Close()

	state := &types.GameState{
		Day:        42,
		Structures: map[string]int{"library": 1},
		ChosenPath: "knowledge",
	}
	assert.NoError(t, store.RecordRun(testRecord(1, "balanced", 90), state))

	runs, err := store.ListRuns()
	assert.NoError(t, err)
	assert.Len(t, runs, 1)

	loaded, err := store.RunSnapshot(runs[0].ID)
	assert.NoError(t, err)
	assert.Equal(t, 42, loaded.Day)
	assert.Equal(t, 1, loaded.Structures["library"])
	assert.Equal(t, "knowledge", loaded.ChosenPath)

	// Unknown run ID
	_, err = store.RunSnapshot(9999)
	assert.Error(t, err)
}

func TestEmptyArchive(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "archive.db"))
	assert.NoError(t, err)
	defer store.Close()

	runs, err := store.ListRuns()
	assert.NoError(t, err)
	assert.Empty(t, runs)
}
