package game

import (
	"errors"

	"go.uber.org/zap"

	"github.com/user/quiet-dominion/internal/catalog"
	"github.com/user/quiet-dominion/internal/types"
)

var (
	errNoActiveEvent    = errors.New("no active event")
	errChoiceOutOfRange = errors.New("choice index out of range")
	errChoiceLocked     = errors.New("choice requirements not met")
)

// eventConditionsMet checks every declared condition of an event against the
// state. Absent conditions are vacuously true.
func eventConditionsMet(def catalog.EventDef, state *types.GameState) bool {
	cond := def.Conditions
	if cond == nil {
		return true
	}

	if cond.MinDay > 0 && state.Day < cond.MinDay {
		return false
	}
	if cond.MaxDay > 0 && state.Day > cond.MaxDay {
		return false
	}
	if cond.MinPopulation > 0 && state.Resources["population"] < cond.MinPopulation {
		return false
	}
	if cond.MaxPopulation > 0 && state.Resources["population"] > cond.MaxPopulation {
		return false
	}
	if cond.MinFood > 0 && state.Resources["food"] < cond.MinFood {
		return false
	}
	if cond.MinMaterials > 0 && state.Resources["materials"] < cond.MinMaterials {
		return false
	}
	for _, structureID := range cond.RequiredStructures {
		if state.Structures[structureID] < 1 {
			return false
		}
	}
	if cond.MinStructureCount > 0 && state.TotalStructures() < cond.MinStructureCount {
		return false
	}
	for _, advisorID := range cond.UnlockedAdvisors {
		if !state.HasAdvisor(advisorID) {
			return false
		}
	}

	return true
}

// cooldownPassed reports whether enough days have passed since the event
// last resolved. An event absent from history has no cooldown.
func (gm *GameManager) cooldownPassed(def catalog.EventDef, state *types.GameState) bool {
	cooldown := def.CooldownDays
	if cooldown <= 0 {
		cooldown = gm.catalog.Balance.EventCooldownDays
	}

	for i := len(state.EventHistory) - 1; i >= 0; i-- {
		record := state.EventHistory[i]
		if record.EventID != def.ID {
			continue
		}
		return state.Day-record.Day >= cooldown
	}
	return true
}

// eligibleEvents returns every event and dilemma whose conditions hold and
// whose cooldown has passed, in deterministic order.
func (gm *GameManager) eligibleEvents(state *types.GameState) []catalog.EventDef {
	var eligible []catalog.EventDef
	for _, def := range gm.catalog.AllEvents() {
		if !eventConditionsMet(def, state) {
			continue
		}
		if !gm.cooldownPassed(def, state) {
			continue
		}
		eligible = append(eligible, def)
	}
	return eligible
}

// eventChance computes the probability that this sampling interval produces
// an event: a base chance that grows with population and with structures
// that carry an event chance bonus, clamped to the configured maximum.
func (gm *GameManager) eventChance(state *types.GameState) float64 {
	balance := gm.catalog.Balance
	chance := balance.EventBaseChance +
		state.Resources["population"]*balance.EventPopulationFactor +
		gm.structureEffectTotal(state, "event_chance_bonus")
	if chance > balance.EventMaxChance {
		chance = balance.EventMaxChance
	}
	if chance < 0 {
		chance = 0
	}
	return chance
}

// TryTriggerEvent runs one sampling pass. It is a no-op outside active play,
// while an event is awaiting resolution, or when an event already fired on
// the current day. Returns the triggered event ID, or "" when nothing fired.
func (gm *GameManager) TryTriggerEvent() string {
	gm.stateLock.Lock()
	defer gm.stateLock.Unlock()

	state := gm.state
	if !state.GameStarted || !state.IntroComplete {
		return ""
	}
	if state.ActiveEventID != "" {
		return ""
	}
	if state.Day <= state.LastEventDay {
		return ""
	}

	if !gm.rng.Chance(gm.eventChance(state)) {
		return ""
	}

	eligible := gm.eligibleEvents(state)
	if len(eligible) == 0 {
		return ""
	}

	weights := make([]float64, len(eligible))
	for i, def := range eligible {
		weights[i] = def.Weight
	}
	selected := eligible[gm.rng.WeightedIndex(weights)]

	state.ActiveEventID = selected.ID
	state.LastEventDay = state.Day

	gm.Logger.Info("event triggered",
		zap.String("event_id", selected.ID),
		zap.Int("day", state.Day),
		zap.Int("eligible", len(eligible)))

	return selected.ID
}

// ResolveEvent applies the player's choice for the active event: immediate
// effects, lore unlocks, path selection, delayed consequences, advisor
// relation shifts and the history record. Returns the outcome text shown to
// the player.
func (gm *GameManager) ResolveEvent(choiceIndex int) (string, error) {
	gm.stateLock.Lock()
	defer gm.stateLock.Unlock()

	state := gm.state
	if state.ActiveEventID == "" {
		return "", errNoActiveEvent
	}

	def, ok := gm.catalog.Event(state.ActiveEventID)
	if !ok {
		// Content table no longer carries this event; drop it rather than
		// wedging the playthrough.
		gm.Logger.Warn("active event missing from catalog", zap.String("event_id", state.ActiveEventID))
		state.ActiveEventID = ""
		return "", errNoActiveEvent
	}

	if choiceIndex < 0 || choiceIndex >= len(def.Choices) {
		return "", errChoiceOutOfRange
	}
	choice := def.Choices[choiceIndex]

	if choice.Requires != nil {
		for structureID, minCount := range choice.Requires.Structures {
			if state.Structures[structureID] < minCount {
				return "", errChoiceLocked
			}
		}
	}

	effects := choice.Effects
	outcome := choice.Outcome
	if ro := choice.RandomOutcome; ro != nil && gm.rng.Chance(ro.Chance) {
		effects = ro.BadEffects
		outcome = ro.BadOutcome
	}

	applyEventEffects(state, effects)

	if choice.Unlocks != nil && choice.Unlocks.Lore != "" {
		gm.discoverLore(state, choice.Unlocks.Lore)
	}

	if choice.SetsPath != "" && state.ChosenPath == "" {
		state.ChosenPath = choice.SetsPath
		gm.recomputeRatesAndCaps(state)
		gm.Logger.Info("path chosen", zap.String("path", choice.SetsPath))
	}

	if len(choice.DelayedEffects) > 0 {
		delay := def.ConsequenceDelay
		if delay <= 0 {
			delay = 1
		}
		consequence := types.PendingConsequence{
			EventID:     def.ID,
			ChoiceIndex: choiceIndex,
			DueDay:      state.Day + delay,
			Effects:     choice.DelayedEffects,
			Outcome:     choice.DelayedOutcome,
		}
		state.PendingConsequences = append(state.PendingConsequences, consequence)
	}

	// An advisor-fronted event warms the relation slightly when heard out.
	if def.Advisor != "" {
		gm.shiftAdvisorRelation(state, def.Advisor, 2)
	}

	state.ActiveEventID = ""
	state.EventHistory = append(state.EventHistory, types.EventRecord{
		EventID:     def.ID,
		ChoiceIndex: choiceIndex,
		Day:         state.Day,
	})

	if outcome != "" {
		gm.queueNotification(state, "event", outcome, 5000)
	}

	gm.Logger.Info("event resolved",
		zap.String("event_id", def.ID),
		zap.Int("choice_index", choiceIndex),
		zap.Int("day", state.Day))

	return outcome, nil
}

// applyDueConsequences fires every pending dilemma consequence whose due day
// has arrived. Called once per day change.
func (gm *GameManager) applyDueConsequences(state *types.GameState) {
	if len(state.PendingConsequences) == 0 {
		return
	}

	remaining := state.PendingConsequences[:0]
	for _, consequence := range state.PendingConsequences {
		if state.Day < consequence.DueDay {
			remaining = append(remaining, consequence)
			continue
		}

		applyEventEffects(state, consequence.Effects)
		if consequence.Outcome != "" {
			gm.queueNotification(state, "event", consequence.Outcome, 6000)
		}
		gm.Logger.Info("delayed consequence applied",
			zap.String("event_id", consequence.EventID),
			zap.Int("due_day", consequence.DueDay))
	}
	state.PendingConsequences = remaining
}
