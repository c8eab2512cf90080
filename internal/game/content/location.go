package content

import "fmt"

// LocationKind distinguishes safe city locations from wilderness ones.
// Hunting is only legal in the wilderness; shop, upgrade, and revive
// commands are only legal in a city.
type LocationKind string

const (
	KindCity       LocationKind = "city"
	KindWilderness LocationKind = "wilderness"
)

// Drop is a single item entry in an enemy or boss loot table.
type Drop struct {
	ItemID string  `yaml:"item"`
	Chance float64 `yaml:"chance"`
	MinQty int     `yaml:"min_qty"`
	MaxQty int     `yaml:"max_qty"`
}

// EnemyDef is one scripted monster that can be encountered at a location.
type EnemyDef struct {
	ID      string `yaml:"id"`
	Name    string `yaml:"name"`
	HP      int    `yaml:"hp"`
	Attack  int    `yaml:"attack"`
	Defense int    `yaml:"defense"`
	XP      int    `yaml:"xp"`
	Money   int    `yaml:"money"`
	Drops   []Drop `yaml:"drops"`
	// OnDefeat is an optional inline Lua script run in the sandbox when the
	// enemy dies, producing a flavor line for the battle log.
	OnDefeat string `yaml:"on_defeat"`
}

// LocationDef is one node of the world map, loaded from YAML.
type LocationDef struct {
	ID       string       `yaml:"id"`
	Name     string       `yaml:"name"`
	Kind     LocationKind `yaml:"kind"`
	Emoji    string       `yaml:"emoji"`
	Desc     string       `yaml:"desc"`
	Connects []string     `yaml:"connects"`
	Enemies  []EnemyDef   `yaml:"enemies"`
}

// Validate checks the location definition's invariants. Adjacency targets are
// checked at the registry level once all locations are loaded.
func (l *LocationDef) Validate() error {
	if l.ID == "" {
		return fmt.Errorf("location: id must not be empty")
	}
	if l.Name == "" {
		return fmt.Errorf("location %q: name must not be empty", l.ID)
	}
	if l.Kind != KindCity && l.Kind != KindWilderness {
		return fmt.Errorf("location %q: kind must be %q or %q, got %q", l.ID, KindCity, KindWilderness, l.Kind)
	}
	if l.Kind == KindWilderness && len(l.Enemies) == 0 {
		return fmt.Errorf("location %q: wilderness locations must define at least one enemy", l.ID)
	}
	seen := make(map[string]bool, len(l.Enemies))
	for i, e := range l.Enemies {
		if e.ID == "" {
			return fmt.Errorf("location %q: enemy[%d] must have a non-empty id", l.ID, i)
		}
		if seen[e.ID] {
			return fmt.Errorf("location %q: duplicate enemy id %q", l.ID, e.ID)
		}
		seen[e.ID] = true
		if e.HP < 1 {
			return fmt.Errorf("location %q: enemy %q hp must be >= 1, got %d", l.ID, e.ID, e.HP)
		}
		if e.Attack < 1 {
			return fmt.Errorf("location %q: enemy %q attack must be >= 1, got %d", l.ID, e.ID, e.Attack)
		}
		if e.Defense < 0 {
			return fmt.Errorf("location %q: enemy %q defense must be >= 0, got %d", l.ID, e.ID, e.Defense)
		}
		if err := validateDrops(l.ID, e.ID, e.Drops); err != nil {
			return err
		}
	}
	return nil
}

// ConnectsTo reports whether the location has a direct path to targetID.
func (l *LocationDef) ConnectsTo(targetID string) bool {
	for _, c := range l.Connects {
		if c == targetID {
			return true
		}
	}
	return false
}

func validateDrops(locID, ownerID string, drops []Drop) error {
	for i, d := range drops {
		if d.ItemID == "" {
			return fmt.Errorf("location %q: %q drop[%d] must have a non-empty item id", locID, ownerID, i)
		}
		if d.Chance <= 0 || d.Chance > 1.0 {
			return fmt.Errorf("location %q: %q drop[%d] chance must be in (0, 1.0], got %f", locID, ownerID, i, d.Chance)
		}
		if d.MinQty < 1 {
			return fmt.Errorf("location %q: %q drop[%d] min_qty must be >= 1, got %d", locID, ownerID, i, d.MinQty)
		}
		if d.MinQty > d.MaxQty {
			return fmt.Errorf("location %q: %q drop[%d] min_qty (%d) must be <= max_qty (%d)", locID, ownerID, i, d.MinQty, d.MaxQty)
		}
	}
	return nil
}
