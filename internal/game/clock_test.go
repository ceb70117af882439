package game

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAutosaveGatedOutsidePlay(t *testing.T) {
	store, err := NewSnapshotStore(filepath.Join(t.TempDir(), "save.zst"))
	assert.NoError(t, err)

	// Setup: an earlier playthrough left a snapshot behind
	played := NewGameManager(testCatalog(), store)
	played.StartGame()
	played.CompleteIntro()
	played.state.Day = 9
	played.state.TickCount = 8 * 60
	assert.NoError(t, played.SaveGame())

	// Test case 1: a fresh manager on the title screen must not overwrite it
	fresh := NewGameManager(testCatalog(), store)
	scheduler := NewScheduler(fresh)
	defer scheduler.Stop()
	assert.False(t, fresh.Playing())

	scheduler.autosave()
	check := newInitialState(testCatalog())
	assert.NoError(t, store.Load(check))
	assert.Equal(t, 8*60, check.TickCount)

	// Test case 2: once play begins the autosave path persists again
	fresh.StartGame()
	fresh.CompleteIntro()
	assert.True(t, fresh.Playing())

	scheduler.autosave()
	check = newInitialState(testCatalog())
	assert.NoError(t, store.Load(check))
	assert.Equal(t, 0, check.TickCount)
}

func TestSchedulerStopIsIdempotent(t *testing.T) {
	gm := newTestManager(t)
	scheduler := NewScheduler(gm)
	scheduler.Start()

	scheduler.Stop()
	assert.NotPanics(t, func() { scheduler.Stop() })
}
