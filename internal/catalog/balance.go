package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Balance holds the tunable simulation constants. These are data, not code:
// rebalancing the game means editing balance.yaml, never the engine.
type Balance struct {
	TickIntervalMs       int `yaml:"tick_interval_ms"`
	EventCheckIntervalMs int `yaml:"event_check_interval_ms"`
	AutosaveIntervalMs   int `yaml:"autosave_interval_ms"`

	OfflineMultiplier float64 `yaml:"offline_multiplier"`
	MaxOfflineHours   float64 `yaml:"max_offline_hours"`

	EventCooldownDays     int     `yaml:"event_cooldown_days"`
	EventBaseChance       float64 `yaml:"event_base_chance"`
	EventPopulationFactor float64 `yaml:"event_population_factor"`
	EventMaxChance        float64 `yaml:"event_max_chance"`

	InitialResources map[string]float64 `yaml:"initial_resources"`
	BaseCaps         map[string]float64 `yaml:"base_caps"`
	BaseRates        map[string]float64 `yaml:"base_rates"`

	// StartingStructures are granted when the intro completes.
	StartingStructures map[string]int `yaml:"starting_structures"`
}

// DefaultBalance returns the balance constants used when no balance.yaml is
// present (tests construct catalogs directly and rely on these).
func DefaultBalance() Balance {
	return Balance{
		TickIntervalMs:       1000,
		EventCheckIntervalMs: 10000,
		AutosaveIntervalMs:   30000,

		OfflineMultiplier: 0.5,
		MaxOfflineHours:   24,

		EventCooldownDays:     10,
		EventBaseChance:       0.1,
		EventPopulationFactor: 0.002,
		EventMaxChance:        0.5,

		InitialResources: map[string]float64{
			"food":       50,
			"materials":  30,
			"population": 5,
			"influence":  0,
			"knowledge":  0,
		},
		BaseCaps: map[string]float64{
			"food":       200,
			"materials":  150,
			"population": 20,
			"influence":  50,
			"knowledge":  50,
		},
		BaseRates: map[string]float64{
			"food":      0.1,
			"materials": 0.05,
		},
		StartingStructures: map[string]int{
			"campfire": 1,
		},
	}
}

// LoadBalance reads balance constants from a YAML file.
func LoadBalance(path string) (Balance, error) {
	b := DefaultBalance()

	raw, err := os.ReadFile(path)
	if err != nil {
		return b, fmt.Errorf("failed to read balance file: %w", err)
	}
	if err := yaml.Unmarshal(raw, &b); err != nil {
		return b, fmt.Errorf("balance.yaml: %w", err)
	}

	return b, nil
}
