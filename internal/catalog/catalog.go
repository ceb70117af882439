// Package catalog holds the read-only content tables the engine runs on:
// resources, structures, advisors, events, dilemmas, territories, lore,
// endings and the prestige configuration. Content is loaded once at startup
// and never mutated; the engine looks entries up by identifier and treats
// unknown identifiers as no-ops so content and engine can evolve
// independently.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Catalog is the full static content set for one game.
type Catalog struct {
	Resources   map[string]ResourceDef
	Structures  map[string]StructureDef
	Advisors    map[string]AdvisorDef
	Events      map[string]EventDef
	Dilemmas    map[string]EventDef
	Territories map[string]TerritoryDef
	Lore        map[string]LoreDef
	Endings     map[string]EndingDef
	Prestige    PrestigeConfig
	Balance     Balance
}

// Load reads all content tables from baseDir. Data files live in
// baseDir/data, JSON Schemas in baseDir/schemas. Malformed content fails
// here, at startup, rather than mid-playthrough.
func Load(baseDir string) (*Catalog, error) {
	dataDir := filepath.Join(baseDir, "data")
	schemaDir := filepath.Join(baseDir, "schemas")

	cat := &Catalog{
		Resources:   make(map[string]ResourceDef),
		Structures:  make(map[string]StructureDef),
		Advisors:    make(map[string]AdvisorDef),
		Events:      make(map[string]EventDef),
		Dilemmas:    make(map[string]EventDef),
		Territories: make(map[string]TerritoryDef),
		Lore:        make(map[string]LoreDef),
		Endings:     make(map[string]EndingDef),
	}

	var resources []ResourceDef
	if err := readValidated(dataDir, schemaDir, "resources", &resources); err != nil {
		return nil, err
	}
	for _, r := range resources {
		cat.Resources[r.ID] = r
	}

	var structures []StructureDef
	if err := readValidated(dataDir, schemaDir, "structures", &structures); err != nil {
		return nil, err
	}
	for _, s := range structures {
		if _, dup := cat.Structures[s.ID]; dup {
			return nil, fmt.Errorf("duplicate structure id %q", s.ID)
		}
		cat.Structures[s.ID] = s
	}

	var advisors []AdvisorDef
	if err := readValidated(dataDir, schemaDir, "advisors", &advisors); err != nil {
		return nil, err
	}
	for _, a := range advisors {
		cat.Advisors[a.ID] = a
	}

	var events []EventDef
	if err := readValidated(dataDir, schemaDir, "events", &events); err != nil {
		return nil, err
	}
	for _, e := range events {
		if _, dup := cat.Events[e.ID]; dup {
			return nil, fmt.Errorf("duplicate event id %q", e.ID)
		}
		cat.Events[e.ID] = e
	}

	var dilemmas []EventDef
	if err := readValidated(dataDir, schemaDir, "dilemmas", &dilemmas); err != nil {
		return nil, err
	}
	for _, d := range dilemmas {
		if _, dup := cat.Events[d.ID]; dup {
			return nil, fmt.Errorf("dilemma id %q collides with an event", d.ID)
		}
		cat.Dilemmas[d.ID] = d
	}

	var territories []TerritoryDef
	if err := readValidated(dataDir, schemaDir, "territories", &territories); err != nil {
		return nil, err
	}
	for _, t := range territories {
		cat.Territories[t.ID] = t
	}

	var lore []LoreDef
	if err := readValidated(dataDir, schemaDir, "lore", &lore); err != nil {
		return nil, err
	}
	for _, l := range lore {
		cat.Lore[l.ID] = l
	}

	var endings []EndingDef
	if err := readValidated(dataDir, schemaDir, "endings", &endings); err != nil {
		return nil, err
	}
	for _, e := range endings {
		cat.Endings[e.ID] = e
	}

	if err := readJSON(filepath.Join(dataDir, "prestige.json"), &cat.Prestige); err != nil {
		return nil, err
	}

	balance, err := LoadBalance(filepath.Join(dataDir, "balance.yaml"))
	if err != nil {
		return nil, err
	}
	cat.Balance = balance

	return cat, nil
}

// readValidated loads dataDir/<name>.json, validating it against
// schemaDir/<name>.schema.json when that schema exists.
func readValidated(dataDir, schemaDir, name string, out any) error {
	dataPath := filepath.Join(dataDir, name+".json")
	schemaPath := filepath.Join(schemaDir, name+".schema.json")

	raw, err := os.ReadFile(dataPath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", dataPath, err)
	}

	if _, err := os.Stat(schemaPath); err == nil {
		schema, err := jsonschema.Compile(schemaPath)
		if err != nil {
			return fmt.Errorf("failed to compile schema for %s: %w", name, err)
		}

		var doc any
		if err := json.Unmarshal(raw, &doc); err != nil {
			return fmt.Errorf("failed to parse %s: %w", dataPath, err)
		}
		if err := schema.Validate(doc); err != nil {
			return fmt.Errorf("%s failed schema validation: %w", dataPath, err)
		}
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to parse %s: %w", dataPath, err)
	}
	return nil
}

func readJSON(path string, out any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// Structure looks up a structure definition by ID.
func (c *Catalog) Structure(id string) (StructureDef, bool) {
	s, ok := c.Structures[id]
	return s, ok
}

// Event looks up an event or dilemma definition by ID.
func (c *Catalog) Event(id string) (EventDef, bool) {
	if e, ok := c.Events[id]; ok {
		return e, true
	}
	e, ok := c.Dilemmas[id]
	return e, ok
}

// Territory looks up a territory definition by ID.
func (c *Catalog) Territory(id string) (TerritoryDef, bool) {
	t, ok := c.Territories[id]
	return t, ok
}

// Advisor looks up an advisor definition by ID.
func (c *Catalog) Advisor(id string) (AdvisorDef, bool) {
	a, ok := c.Advisors[id]
	return a, ok
}

// LoreFragment looks up a lore definition by ID.
func (c *Catalog) LoreFragment(id string) (LoreDef, bool) {
	l, ok := c.Lore[id]
	return l, ok
}

// Ending looks up an ending definition by ID.
func (c *Catalog) Ending(id string) (EndingDef, bool) {
	e, ok := c.Endings[id]
	return e, ok
}

// LegacyUpgrade looks up a legacy upgrade definition by ID.
func (c *Catalog) LegacyUpgrade(id string) (LegacyUpgradeDef, bool) {
	u, ok := c.Prestige.LegacyUpgrades[id]
	return u, ok
}

// AllEvents returns every event and dilemma in deterministic ID order.
func (c *Catalog) AllEvents() []EventDef {
	out := make([]EventDef, 0, len(c.Events)+len(c.Dilemmas))
	for _, e := range c.Events {
		out = append(out, e)
	}
	for _, d := range c.Dilemmas {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// PathEffects returns the production modifiers granted by the chosen path,
// found on whichever dilemma choice sets that path. Returns nil when the
// path is unknown.
func (c *Catalog) PathEffects(pathID string) map[string]float64 {
	if pathID == "" {
		return nil
	}
	for _, d := range c.Dilemmas {
		for _, choice := range d.Choices {
			if choice.SetsPath == pathID {
				return choice.PathEffects
			}
		}
	}
	return nil
}
