package game

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/user/quiet-dominion/internal/types"
)

// Tick advances the simulation by one tick: production is applied, the tick
// counter moves, and the derived day is recomputed. Day changes run the
// once-per-day checks (expedition completion, delayed consequences, unlock
// evaluation, population growth). No-op outside active play.
func (gm *GameManager) Tick() {
	gm.stateLock.Lock()
	defer gm.stateLock.Unlock()

	state := gm.state
	if !state.GameStarted || !state.IntroComplete {
		return
	}

	applyProduction(state)

	state.TickCount++
	state.LastOnline = time.Now()

	newDay := state.TickCount/types.TicksPerDay + 1
	if newDay != state.Day {
		state.Day = newDay
		gm.onDayChanged(state)
	}
}

// onDayChanged runs the checks that are evaluated per simulated day rather
// than per tick. Lock held by the caller.
func (gm *GameManager) onDayChanged(state *types.GameState) {
	gm.checkExpeditionCompletion(state)
	gm.applyDueConsequences(state)
	gm.evaluateStructureUnlocks(state)
	gm.evaluateAdvisorUnlocks(state)
	gm.checkMetaLore(state)

	// Structures like the campfire and tavern draw wanderers in.
	growthChance := gm.structureEffectTotal(state, "population_growth_chance") *
		(1 + gm.upgradeEffect(state, "population_growth"))
	if growthChance > 0 && gm.rng.Chance(growthChance) {
		creditResource(state, "population", 1)
		gm.queueNotification(state, "info", "A wanderer has settled among you.", 4000)
	}
}

// Scheduler owns the three periodic drivers of the simulation: the tick
// loop, the event sampling loop and the autosave loop. All three stop as a
// unit; none has any effect outside active play because the transitions they
// invoke gate on the playing phase themselves.
type Scheduler struct {
	gm *GameManager

	tickTicker  *time.Ticker
	eventTicker *time.Ticker
	saveTicker  *time.Ticker
	stopChan    chan struct{}
	stopOnce    sync.Once
}

// NewScheduler creates a scheduler with intervals from the balance tables.
func NewScheduler(gm *GameManager) *Scheduler {
	balance := gm.catalog.Balance
	return &Scheduler{
		gm:          gm,
		tickTicker:  time.NewTicker(time.Duration(balance.TickIntervalMs) * time.Millisecond),
		eventTicker: time.NewTicker(time.Duration(balance.EventCheckIntervalMs) * time.Millisecond),
		saveTicker:  time.NewTicker(time.Duration(balance.AutosaveIntervalMs) * time.Millisecond),
		stopChan:    make(chan struct{}),
	}
}

// Start begins the periodic loops
func (s *Scheduler) Start() {
	go func() {
		for {
			select {
			case <-s.tickTicker.C:
				s.gm.Tick()
			case <-s.eventTicker.C:
				s.gm.TryTriggerEvent()
			case <-s.saveTicker.C:
				s.autosave()
			case <-s.stopChan:
				s.tickTicker.Stop()
				s.eventTicker.Stop()
				s.saveTicker.Stop()
				return
			}
		}
	}()
}

// autosave persists the state, but only during active play. A manager still
// on the title or intro screen must not overwrite an existing snapshot.
func (s *Scheduler) autosave() {
	if !s.gm.Playing() {
		return
	}
	if err := s.gm.SaveGame(); err != nil {
		s.gm.Logger.Error("autosave failed", zap.Error(err))
	}
}

// Stop halts all three loops. Safe to call more than once.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
}
