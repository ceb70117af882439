package types

import "time"

// TicksPerDay is the number of simulation ticks that make up one in-game day.
const TicksPerDay = 60

// GameState represents the complete state of a single playthrough
type GameState struct {
	// Phase gates
	GameStarted   bool `json:"game_started"`
	IntroComplete bool `json:"intro_complete"`

	// Time
	Day       int       `json:"day"`
	TickCount int       `json:"tick_count"`
	LastSaved time.Time `json:"last_saved"`
	// LastOnline is used to grant capped offline production on load.
	LastOnline time.Time `json:"last_online"`

	// Resources
	Resources       map[string]float64 `json:"resources"`
	ResourceCaps    map[string]float64 `json:"resource_caps"`
	ProductionRates map[string]float64 `json:"production_rates"`

	// Structures
	Structures       map[string]int  `json:"structures"`
	StructureUnlocks map[string]bool `json:"structure_unlocks"`

	// Advisors
	UnlockedAdvisors []string       `json:"unlocked_advisors"`
	AdvisorRelations map[string]int `json:"advisor_relations"`

	// Events
	ActiveEventID       string               `json:"active_event_id,omitempty"`
	EventHistory        []EventRecord        `json:"event_history"`
	LastEventDay        int                  `json:"last_event_day"`
	PendingConsequences []PendingConsequence `json:"pending_consequences"`

	// Exploration
	DiscoveredTerritories []string    `json:"discovered_territories"`
	ActiveExpedition      *Expedition `json:"active_expedition,omitempty"`

	// Lore
	DiscoveredLore []string `json:"discovered_lore"`
	NewLore        []string `json:"new_lore"`

	// Progression
	PrestigeCount  int            `json:"prestige_count"`
	LegacyPoints   int            `json:"legacy_points"`
	LegacyUpgrades map[string]int `json:"legacy_upgrades"`
	ChosenPath     string         `json:"chosen_path,omitempty"`

	// Notifications queued for the presentation layer
	Notifications []Notification `json:"notifications"`
}

// EventRecord is one resolved event in the playthrough history
type EventRecord struct {
	EventID     string `json:"event_id"`
	ChoiceIndex int    `json:"choice_index"`
	Day         int    `json:"day"`
}

// PendingConsequence is a delayed dilemma effect waiting for its due day
type PendingConsequence struct {
	EventID     string             `json:"event_id"`
	ChoiceIndex int                `json:"choice_index"`
	DueDay      int                `json:"due_day"`
	Effects     map[string]float64 `json:"effects"`
	Outcome     string             `json:"outcome,omitempty"`
}

// Expedition is the single in-flight territory exploration
type Expedition struct {
	TerritoryID string `json:"territory_id"`
	StartDay    int    `json:"start_day"`
}

// Notification is a message queued for display
type Notification struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Message     string `json:"message"`
	DurationMs  int    `json:"duration_ms"`
	Dismissible bool   `json:"dismissible"`
}

// PrestigeStatus reports each prestige gate separately so the presentation
// layer can show what is still missing.
type PrestigeStatus struct {
	Day        bool `json:"day"`
	Population bool `json:"population"`
	Structures bool `json:"structures"`
}

// Met reports whether every gate holds.
func (ps PrestigeStatus) Met() bool {
	return ps.Day && ps.Population && ps.Structures
}

// TotalStructures returns the sum of all structure counts
func (gs *GameState) TotalStructures() int {
	total := 0
	for _, count := range gs.Structures {
		total += count
	}
	return total
}

// HasAdvisor reports whether the advisor has been unlocked
func (gs *GameState) HasAdvisor(advisorID string) bool {
	for _, id := range gs.UnlockedAdvisors {
		if id == advisorID {
			return true
		}
	}
	return false
}

// HasTerritory reports whether the territory has been discovered
func (gs *GameState) HasTerritory(territoryID string) bool {
	for _, id := range gs.DiscoveredTerritories {
		if id == territoryID {
			return true
		}
	}
	return false
}

// HasLore reports whether the lore fragment has been discovered
func (gs *GameState) HasLore(loreID string) bool {
	for _, id := range gs.DiscoveredLore {
		if id == loreID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the state. The engine hands clones to
// callers so no shared mutable references escape the manager.
func (gs *GameState) Clone() *GameState {
	cp := *gs

	cp.Resources = copyFloatMap(gs.Resources)
	cp.ResourceCaps = copyFloatMap(gs.ResourceCaps)
	cp.ProductionRates = copyFloatMap(gs.ProductionRates)
	cp.Structures = copyIntMap(gs.Structures)
	cp.LegacyUpgrades = copyIntMap(gs.LegacyUpgrades)
	cp.AdvisorRelations = copyIntMap(gs.AdvisorRelations)

	cp.StructureUnlocks = make(map[string]bool, len(gs.StructureUnlocks))
	for k, v := range gs.StructureUnlocks {
		cp.StructureUnlocks[k] = v
	}

	cp.UnlockedAdvisors = append([]string(nil), gs.UnlockedAdvisors...)
	cp.DiscoveredTerritories = append([]string(nil), gs.DiscoveredTerritories...)
	cp.DiscoveredLore = append([]string(nil), gs.DiscoveredLore...)
	cp.NewLore = append([]string(nil), gs.NewLore...)
	cp.EventHistory = append([]EventRecord(nil), gs.EventHistory...)
	cp.Notifications = append([]Notification(nil), gs.Notifications...)

	cp.PendingConsequences = make([]PendingConsequence, len(gs.PendingConsequences))
	for i, pc := range gs.PendingConsequences {
		cp.PendingConsequences[i] = pc
		cp.PendingConsequences[i].Effects = copyFloatMap(pc.Effects)
	}

	if gs.ActiveExpedition != nil {
		exp := *gs.ActiveExpedition
		cp.ActiveExpedition = &exp
	}

	return &cp
}

func copyFloatMap(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyIntMap(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
