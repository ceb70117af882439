// Package game implements the settlement simulation engine: the tick-driven
// resource model, structure building and unlocks, narrative events and
// dilemmas, expeditions, and the prestige transition. The GameManager is the
// single owner of the GameState; every transition runs to completion under
// one lock and either fully applies or leaves the state untouched.
package game

import (
	"errors"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/user/quiet-dominion/internal/archive"
	"github.com/user/quiet-dominion/internal/catalog"
	"github.com/user/quiet-dominion/internal/interfaces"
	"github.com/user/quiet-dominion/internal/types"
)

var (
	errAdvisorUnknown = errors.New("advisor not found")
	errLoreUnknown    = errors.New("lore fragment not found")
	errPathAlreadySet = errors.New("path already chosen")
)

// GameManager owns the game state and applies all state transitions
type GameManager struct {
	state     *types.GameState
	stateLock sync.RWMutex

	catalog *catalog.Catalog
	storage *SnapshotStore
	archive *archive.Store

	Logger *zap.Logger
	rng    *Roller
}

// Ensure GameManager satisfies the interfaces.Engine interface
var _ interfaces.Engine = (*GameManager)(nil)

// NewGameManager creates a game manager over the given catalog and snapshot
// store, starting from a fresh playthrough state.
func NewGameManager(cat *catalog.Catalog, store *SnapshotStore) *GameManager {
	return &GameManager{
		state:   newInitialState(cat),
		catalog: cat,
		storage: store,
		Logger:  zap.NewNop(), // Set by the server
		rng:     NewRoller(),
	}
}

// SetLogger replaces the manager's logger.
func (gm *GameManager) SetLogger(logger *zap.Logger) {
	gm.Logger = logger
}

// SetArchive attaches a run archive recorded at each prestige.
func (gm *GameManager) SetArchive(store *archive.Store) {
	gm.archive = store
}

// SetRoller replaces the random source; tests use a seeded roller.
func (gm *GameManager) SetRoller(r *Roller) {
	gm.rng = r
}

// Catalog returns the content catalog the engine runs on.
func (gm *GameManager) Catalog() *catalog.Catalog {
	return gm.catalog
}

// State returns a deep copy of the current state. Callers never see the
// manager's own mutable instance.
func (gm *GameManager) State() *types.GameState {
	gm.stateLock.RLock()
	defer gm.stateLock.RUnlock()
	return gm.state.Clone()
}

// Playing reports whether the run is in the active simulation phase. The
// periodic drivers gate on this.
func (gm *GameManager) Playing() bool {
	gm.stateLock.RLock()
	defer gm.stateLock.RUnlock()
	return gm.state.GameStarted && gm.state.IntroComplete
}

// StartGame opens a playthrough. Ticking remains disabled until the intro
// completes.
func (gm *GameManager) StartGame() {
	gm.stateLock.Lock()
	defer gm.stateLock.Unlock()

	gm.state.GameStarted = true
	gm.state.LastOnline = time.Now()
	gm.Logger.Info("game started")
}

// CompleteIntro closes the intro sequence, grants the starting structures
// and enables ticking.
func (gm *GameManager) CompleteIntro() {
	gm.stateLock.Lock()
	defer gm.stateLock.Unlock()

	state := gm.state
	state.IntroComplete = true
	for id, count := range gm.catalog.Balance.StartingStructures {
		if _, ok := gm.catalog.Structure(id); ok {
			state.Structures[id] = count
		}
	}
	gm.recomputeRatesAndCaps(state)
	gm.evaluateStructureUnlocks(state)
	gm.Logger.Info("intro complete")
}

// CanAffordStructure reports whether the structure could be built right now.
func (gm *GameManager) CanAffordStructure(structureID string) bool {
	gm.stateLock.RLock()
	defer gm.stateLock.RUnlock()
	return gm.checkBuildable(gm.state, structureID) == nil
}

// BuildStructure attempts to build one instance of the structure.
func (gm *GameManager) BuildStructure(structureID string) error {
	gm.stateLock.Lock()
	defer gm.stateLock.Unlock()

	if err := gm.buildStructure(gm.state, structureID); err != nil {
		return err
	}

	gm.Logger.Info("structure built",
		zap.String("structure_id", structureID),
		zap.Int("count", gm.state.Structures[structureID]))
	return nil
}

// UnlockAdvisor adds an advisor to the settlement. Monotonic; unlocking an
// already-present advisor is a no-op.
func (gm *GameManager) UnlockAdvisor(advisorID string) error {
	gm.stateLock.Lock()
	defer gm.stateLock.Unlock()

	if _, ok := gm.catalog.Advisor(advisorID); !ok {
		return errAdvisorUnknown
	}
	state := gm.state
	if state.HasAdvisor(advisorID) {
		return nil
	}
	state.UnlockedAdvisors = append(state.UnlockedAdvisors, advisorID)
	if _, ok := state.AdvisorRelations[advisorID]; !ok {
		state.AdvisorRelations[advisorID] = 0
	}
	return nil
}

// UpdateAdvisorRelation shifts an advisor's relation by delta, clamped to
// [0,100].
func (gm *GameManager) UpdateAdvisorRelation(advisorID string, delta int) error {
	gm.stateLock.Lock()
	defer gm.stateLock.Unlock()

	if _, ok := gm.catalog.Advisor(advisorID); !ok {
		return errAdvisorUnknown
	}
	gm.shiftAdvisorRelation(gm.state, advisorID, delta)
	return nil
}

func (gm *GameManager) shiftAdvisorRelation(state *types.GameState, advisorID string, delta int) {
	relation := state.AdvisorRelations[advisorID] + delta
	if relation < 0 {
		relation = 0
	}
	if relation > 100 {
		relation = 100
	}
	state.AdvisorRelations[advisorID] = relation
}

// DiscoverLore reveals a lore fragment.
func (gm *GameManager) DiscoverLore(loreID string) error {
	gm.stateLock.Lock()
	defer gm.stateLock.Unlock()

	if _, ok := gm.catalog.LoreFragment(loreID); !ok {
		return errLoreUnknown
	}
	gm.discoverLore(gm.state, loreID)
	return nil
}

// discoverLore adds a fragment to the discovered and unread sets, then
// checks whether the discovery count unlocks any meta fragment. Lock held by
// the caller.
func (gm *GameManager) discoverLore(state *types.GameState, loreID string) {
	if state.HasLore(loreID) {
		return
	}
	state.DiscoveredLore = append(state.DiscoveredLore, loreID)
	state.NewLore = append(state.NewLore, loreID)

	if def, ok := gm.catalog.LoreFragment(loreID); ok {
		gm.queueNotification(state, "lore", "Lore discovered: "+def.Title, 5000)
	}
	gm.Logger.Info("lore discovered", zap.String("lore_id", loreID))

	gm.checkMetaLore(state)
}

// checkMetaLore discovers fragments gated on total discovery count.
func (gm *GameManager) checkMetaLore(state *types.GameState) {
	for id, def := range gm.catalog.Lore {
		if def.Requires == nil || def.Requires.LoreCount <= 0 {
			continue
		}
		if state.HasLore(id) {
			continue
		}
		if len(state.DiscoveredLore) >= def.Requires.LoreCount {
			state.DiscoveredLore = append(state.DiscoveredLore, id)
			state.NewLore = append(state.NewLore, id)
			gm.queueNotification(state, "lore", "Lore discovered: "+def.Title, 5000)
		}
	}
}

// AcknowledgeLore clears a fragment from the unread set.
func (gm *GameManager) AcknowledgeLore(loreID string) {
	gm.stateLock.Lock()
	defer gm.stateLock.Unlock()

	unread := gm.state.NewLore[:0]
	for _, id := range gm.state.NewLore {
		if id != loreID {
			unread = append(unread, id)
		}
	}
	gm.state.NewLore = unread
}

// SetPath fixes the run's path. A path may be chosen at most once per
// playthrough.
func (gm *GameManager) SetPath(pathID string) error {
	gm.stateLock.Lock()
	defer gm.stateLock.Unlock()

	state := gm.state
	if state.ChosenPath != "" {
		return errPathAlreadySet
	}
	state.ChosenPath = pathID
	gm.recomputeRatesAndCaps(state)
	gm.Logger.Info("path chosen", zap.String("path", pathID))
	return nil
}

// AddNotification queues a notification and returns its generated ID.
func (gm *GameManager) AddNotification(kind, message string, durationMs int) string {
	gm.stateLock.Lock()
	defer gm.stateLock.Unlock()
	return gm.queueNotification(gm.state, kind, message, durationMs)
}

// queueNotification appends a notification. Lock held by the caller.
func (gm *GameManager) queueNotification(state *types.GameState, kind, message string, durationMs int) string {
	n := types.Notification{
		ID:          uuid.New().String(),
		Type:        kind,
		Message:     message,
		DurationMs:  durationMs,
		Dismissible: true,
	}
	state.Notifications = append(state.Notifications, n)
	return n.ID
}

// DismissNotification removes a notification by ID.
func (gm *GameManager) DismissNotification(id string) {
	gm.stateLock.Lock()
	defer gm.stateLock.Unlock()

	kept := gm.state.Notifications[:0]
	for _, n := range gm.state.Notifications {
		if n.ID != id {
			kept = append(kept, n)
		}
	}
	gm.state.Notifications = kept
}

// SaveGame writes the current state snapshot to the store.
func (gm *GameManager) SaveGame() error {
	gm.stateLock.Lock()
	defer gm.stateLock.Unlock()
	return gm.saveState()
}

// saveState persists the current state. Lock held by the caller.
func (gm *GameManager) saveState() error {
	if gm.storage == nil {
		return nil
	}
	gm.state.LastSaved = time.Now()
	return gm.storage.Save(gm.state)
}

// LoadGame replaces the current state with the persisted snapshot, merged
// over fresh defaults, and applies capped offline production. Returns false
// when no snapshot exists or the snapshot is unreadable; the caller then
// continues with a new game.
func (gm *GameManager) LoadGame() bool {
	gm.stateLock.Lock()
	defer gm.stateLock.Unlock()

	if gm.storage == nil || !gm.storage.Exists() {
		return false
	}

	loaded := newInitialState(gm.catalog)
	if err := gm.storage.Load(loaded); err != nil {
		gm.Logger.Warn("failed to load save, starting fresh", zap.Error(err))
		return false
	}

	// Derived fields are recomputed rather than trusted from disk.
	loaded.Day = loaded.TickCount/types.TicksPerDay + 1
	gm.state = loaded
	gm.recomputeRatesAndCaps(loaded)
	gm.applyOfflineProgress(loaded)

	gm.Logger.Info("game loaded",
		zap.Int("day", loaded.Day),
		zap.Int("prestige_count", loaded.PrestigeCount))
	return true
}

// applyOfflineProgress grants production for real time spent away, at a
// reduced multiplier and capped. Applied in one step, not tick-by-tick.
func (gm *GameManager) applyOfflineProgress(state *types.GameState) {
	balance := gm.catalog.Balance

	elapsed := time.Since(state.LastOnline).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}
	maxSeconds := balance.MaxOfflineHours * 3600
	if elapsed > maxSeconds {
		elapsed = maxSeconds
	}

	offlineTicks := elapsed * balance.OfflineMultiplier
	for id, rate := range state.ProductionRates {
		if rate <= 0 {
			continue
		}
		cap, ok := state.ResourceCaps[id]
		if !ok {
			cap = math.Inf(1)
		}
		state.Resources[id] = math.Min(state.Resources[id]+rate*offlineTicks, cap)
	}

	state.LastOnline = time.Now()
	if offlineTicks > 0 {
		gm.Logger.Info("offline progress applied", zap.Float64("offline_ticks", offlineTicks))
	}
}
