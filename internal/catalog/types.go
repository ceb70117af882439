package catalog

import (
	"encoding/json"
	"fmt"
)

// ResourceDef describes a resource kind tracked by the ledger
type ResourceDef struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Unlocked    bool   `json:"unlocked"`
}

// StructureDef describes a buildable structure
type StructureDef struct {
	ID              string             `json:"id"`
	Name            string             `json:"name"`
	Description     string             `json:"description"`
	Tier            int                `json:"tier"`
	Cost            map[string]float64 `json:"cost"`
	ProductionBonus map[string]float64 `json:"production_bonus"`
	CapBonus        map[string]float64 `json:"cap_bonus"`
	// Effects are numeric modifiers read by the engine by key, e.g.
	// "population_growth_chance" or "event_chance_bonus".
	Effects         map[string]float64 `json:"effects,omitempty"`
	Unlocked        bool               `json:"unlocked"`
	UnlockCondition *UnlockCondition   `json:"unlock_condition,omitempty"`
	MaxCount        int                `json:"max_count"`
	FlavorText      string             `json:"flavor_text,omitempty"`
}

// UnlockCondition gates a structure or advisor behind settlement progress.
// All present fields must hold; absent fields are vacuously satisfied.
type UnlockCondition struct {
	Population  float64              `json:"population,omitempty"`
	Day         int                  `json:"day,omitempty"`
	Influence   float64              `json:"influence,omitempty"`
	Prestige    int                  `json:"prestige,omitempty"`
	Structures  StructureRequirement `json:"structures,omitempty"`
	Territories []string             `json:"territories,omitempty"`
}

// StructureRequirement is a map of structure ID to minimum count. Content
// tables may write it either as an object or as a plain list of IDs; a list
// entry means "at least one".
type StructureRequirement map[string]int

// UnmarshalJSON accepts both {"farm": 2} and ["library"] forms.
func (sr *StructureRequirement) UnmarshalJSON(data []byte) error {
	var asMap map[string]int
	if err := json.Unmarshal(data, &asMap); err == nil {
		*sr = asMap
		return nil
	}

	var asList []string
	if err := json.Unmarshal(data, &asList); err != nil {
		return fmt.Errorf("structure requirement must be an object or a list: %w", err)
	}

	req := make(map[string]int, len(asList))
	for _, id := range asList {
		req[id] = 1
	}
	*sr = req
	return nil
}

// AdvisorDef describes a settlement advisor
type AdvisorDef struct {
	ID              string             `json:"id"`
	Name            string             `json:"name"`
	Title           string             `json:"title"`
	Description     string             `json:"description"`
	Personality     string             `json:"personality"`
	Bias            map[string]float64 `json:"bias,omitempty"`
	Unlocked        bool               `json:"unlocked"`
	UnlockCondition *UnlockCondition   `json:"unlock_condition,omitempty"`
	Greetings       []string           `json:"greetings,omitempty"`
	Farewells       []string           `json:"farewells,omitempty"`
	IdleDialogue    []string           `json:"idle_dialogue,omitempty"`
}

// EventConditions describe when an event is eligible to fire. Every present
// condition must hold.
type EventConditions struct {
	MinDay             int      `json:"min_day,omitempty"`
	MaxDay             int      `json:"max_day,omitempty"`
	MinPopulation      float64  `json:"min_population,omitempty"`
	MaxPopulation      float64  `json:"max_population,omitempty"`
	MinFood            float64  `json:"min_food,omitempty"`
	MinMaterials       float64  `json:"min_materials,omitempty"`
	RequiredStructures []string `json:"required_structures,omitempty"`
	MinStructureCount  int      `json:"min_structure_count,omitempty"`
	UnlockedAdvisors   []string `json:"unlocked_advisors,omitempty"`
}

// RandomOutcome replaces a choice's nominal outcome with a chance roll
type RandomOutcome struct {
	Chance     float64            `json:"chance"`
	BadEffects map[string]float64 `json:"bad_effects,omitempty"`
	BadOutcome string             `json:"bad_outcome,omitempty"`
}

// ChoiceUnlocks lists content a choice reveals on resolution
type ChoiceUnlocks struct {
	Lore string `json:"lore,omitempty"`
}

// ChoiceRequirement gates a single choice within an event
type ChoiceRequirement struct {
	Structures StructureRequirement `json:"structures,omitempty"`
}

// EventChoice is one option the player may pick when an event is active
type EventChoice struct {
	Text          string             `json:"text"`
	Effects       map[string]float64 `json:"effects,omitempty"`
	Outcome       string             `json:"outcome,omitempty"`
	Dialogue      []string           `json:"dialogue,omitempty"`
	Unlocks       *ChoiceUnlocks     `json:"unlocks,omitempty"`
	RandomOutcome *RandomOutcome     `json:"random_outcome,omitempty"`
	Requires      *ChoiceRequirement `json:"requires,omitempty"`

	// Dilemma-only fields
	DelayedEffects map[string]float64 `json:"delayed_effects,omitempty"`
	DelayedOutcome string             `json:"delayed_outcome,omitempty"`
	SetsPath       string             `json:"sets_path,omitempty"`
	PathEffects    map[string]float64 `json:"path_effects,omitempty"`
}

// EventDef describes an event or dilemma. Dilemmas are events with a
// ConsequenceDelay and choices that may carry delayed effects or set the
// run path.
type EventDef struct {
	ID               string           `json:"id"`
	Title            string           `json:"title"`
	Description      string           `json:"description"`
	Conditions       *EventConditions `json:"conditions,omitempty"`
	Weight           float64          `json:"weight,omitempty"`
	Advisor          string           `json:"advisor,omitempty"`
	CooldownDays     int              `json:"cooldown_days,omitempty"`
	ConsequenceDelay int              `json:"consequence_delay,omitempty"`
	Choices          []EventChoice    `json:"choices"`
}

// TerritoryRequirement gates the start of an expedition
type TerritoryRequirement struct {
	Day              int      `json:"day,omitempty"`
	Structures       []string `json:"structures,omitempty"`
	UnlockedAdvisors []string `json:"unlocked_advisors,omitempty"`
}

// TerritoryRewards are applied once when an expedition completes
type TerritoryRewards struct {
	Grants          map[string]float64 `json:"grants,omitempty"`
	CapBonus        map[string]float64 `json:"cap_bonus,omitempty"`
	ProductionBonus map[string]float64 `json:"production_bonus,omitempty"`
	Unlocks         []string           `json:"unlocks,omitempty"`
}

// TerritoryDef describes an explorable territory
type TerritoryDef struct {
	ID              string                `json:"id"`
	Name            string                `json:"name"`
	Description     string                `json:"description"`
	ExplorationCost map[string]float64    `json:"exploration_cost"`
	ExplorationTime int                   `json:"exploration_time"`
	Requires        *TerritoryRequirement `json:"requires,omitempty"`
	Narratives      []string              `json:"narratives,omitempty"`
	Rewards         TerritoryRewards      `json:"rewards"`
	LoreFragment    string                `json:"lore_fragment,omitempty"`
}

// LoreRequirement gates a meta lore fragment behind discovery progress
type LoreRequirement struct {
	LoreCount int `json:"lore_count,omitempty"`
}

// LoreDef is a discoverable lore fragment
type LoreDef struct {
	ID       string           `json:"id"`
	Title    string           `json:"title"`
	Content  string           `json:"content"`
	Requires *LoreRequirement `json:"requires,omitempty"`
}

// EndingRequirements are the thresholds an ending demands. Zero values are
// vacuously satisfied.
type EndingRequirements struct {
	Path        string  `json:"path,omitempty"`
	Population  float64 `json:"population,omitempty"`
	Food        float64 `json:"food,omitempty"`
	Knowledge   float64 `json:"knowledge,omitempty"`
	Territories int     `json:"territories,omitempty"`
	Lore        int     `json:"lore,omitempty"`
	Day         int     `json:"day,omitempty"`
}

// EndingDef describes one way a playthrough can conclude
type EndingDef struct {
	ID           string             `json:"id"`
	Name         string             `json:"name"`
	Description  string             `json:"description"`
	Requirements EndingRequirements `json:"requirements"`
	Narrative    []string           `json:"narrative,omitempty"`
	LegacyBonus  int                `json:"legacy_bonus"`
}

// LegacyUpgradeDef is a permanent upgrade purchasable with legacy points
type LegacyUpgradeDef struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Cost        int                `json:"cost"`
	MaxLevel    int                `json:"max_level"`
	Effect      map[string]float64 `json:"effect"`
}

// PrestigeRequirements are the gates a run must meet before prestiging
type PrestigeRequirements struct {
	Day             int     `json:"day"`
	Population      float64 `json:"population"`
	TotalStructures int     `json:"total_structures"`
}

// LegacyFormula converts a run's achievements into legacy points
type LegacyFormula struct {
	BasePoints    float64 `json:"base_points"`
	PerPopulation float64 `json:"per_population"`
	PerStructure  float64 `json:"per_structure"`
	PerTerritory  float64 `json:"per_territory"`
	PerLore       float64 `json:"per_lore"`
	DayBonus      float64 `json:"day_bonus"`
}

// PrestigeConfig is the full prestige system configuration
type PrestigeConfig struct {
	Requirements   PrestigeRequirements        `json:"requirements"`
	LegacyFormula  LegacyFormula               `json:"legacy_formula"`
	LegacyUpgrades map[string]LegacyUpgradeDef `json:"legacy_upgrades"`
}
