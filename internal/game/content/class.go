// Package content defines the static game data model (classes,
// transformations, items, blessings, enemies, locations, and the world boss
// template) loaded from YAML files into validated registries.
package content

import (
	"fmt"
	"time"
)

// TransformationDef is a time-limited, class-specific combat form.
type TransformationDef struct {
	ID              string  `yaml:"id"`
	Name            string  `yaml:"name"`
	Emoji           string  `yaml:"emoji"`
	EnergyCost      int     `yaml:"energy_cost"`
	DurationSeconds int     `yaml:"duration_seconds"`
	AttackMult      float64 `yaml:"attack_multiplier"`
	SpecialMult     float64 `yaml:"special_attack_multiplier"`
	HPMult          float64 `yaml:"hp_multiplier"`
	HealingMult     float64 `yaml:"healing_multiplier"`
	CooldownPct     float64 `yaml:"cooldown_reduction_percent"`
	EvasionBonus    float64 `yaml:"evasion_chance_bonus"`
	// RequiredBlessing names a blessing item that must be active before this
	// form can be assumed. Empty means no requirement.
	RequiredBlessing string `yaml:"required_blessing"`
}

// Duration returns the transformation's active duration.
func (t TransformationDef) Duration() time.Duration {
	return time.Duration(t.DurationSeconds) * time.Second
}

// ClassDef is the static definition of a playable class, loaded from YAML.
type ClassDef struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Emoji       string `yaml:"emoji"`
	BaseAttack  int    `yaml:"base_attack"`
	BaseSpecial int    `yaml:"base_special_attack"`
	BaseHP      int    `yaml:"base_hp"`
	// SpecialName is the display name of the class special attack.
	SpecialName string `yaml:"special_name"`
	// SpecialEnergyCost is the pre-discount energy cost of the special attack.
	SpecialEnergyCost int `yaml:"special_energy_cost"`
	// LifestealBasic and LifestealSpecial are the fractions of dealt damage
	// healed back on basic and special attacks. Zero for non-vampiric classes.
	LifestealBasic   float64 `yaml:"lifesteal_basic"`
	LifestealSpecial float64 `yaml:"lifesteal_special"`

	Transformations []TransformationDef `yaml:"transformations"`
}

// Validate checks that the class definition satisfies its invariants.
//
// Postcondition: Returns nil iff all fields are in range and transformation
// IDs are unique within the class.
func (c *ClassDef) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("class: id must not be empty")
	}
	if c.Name == "" {
		return fmt.Errorf("class %q: name must not be empty", c.ID)
	}
	if c.BaseAttack < 1 {
		return fmt.Errorf("class %q: base_attack must be >= 1, got %d", c.ID, c.BaseAttack)
	}
	if c.BaseSpecial < 0 {
		return fmt.Errorf("class %q: base_special_attack must be >= 0, got %d", c.ID, c.BaseSpecial)
	}
	if c.BaseHP < 1 {
		return fmt.Errorf("class %q: base_hp must be >= 1, got %d", c.ID, c.BaseHP)
	}
	if c.SpecialEnergyCost < 1 {
		return fmt.Errorf("class %q: special_energy_cost must be >= 1, got %d", c.ID, c.SpecialEnergyCost)
	}
	if c.LifestealBasic < 0 || c.LifestealBasic > 1 {
		return fmt.Errorf("class %q: lifesteal_basic must be in [0, 1], got %f", c.ID, c.LifestealBasic)
	}
	if c.LifestealSpecial < 0 || c.LifestealSpecial > 1 {
		return fmt.Errorf("class %q: lifesteal_special must be in [0, 1], got %f", c.ID, c.LifestealSpecial)
	}

	seen := make(map[string]bool, len(c.Transformations))
	for i, tr := range c.Transformations {
		if tr.ID == "" {
			return fmt.Errorf("class %q: transformation[%d] must have a non-empty id", c.ID, i)
		}
		if seen[tr.ID] {
			return fmt.Errorf("class %q: duplicate transformation id %q", c.ID, tr.ID)
		}
		seen[tr.ID] = true
		if tr.EnergyCost < 0 {
			return fmt.Errorf("class %q: transformation %q energy_cost must be >= 0", c.ID, tr.ID)
		}
		if tr.DurationSeconds < 1 {
			return fmt.Errorf("class %q: transformation %q duration_seconds must be >= 1", c.ID, tr.ID)
		}
		if tr.CooldownPct < 0 || tr.CooldownPct >= 1 {
			return fmt.Errorf("class %q: transformation %q cooldown_reduction_percent must be in [0, 1)", c.ID, tr.ID)
		}
	}
	return nil
}

// Transformation returns the transformation with the given ID, or (nil, false).
func (c *ClassDef) Transformation(id string) (*TransformationDef, bool) {
	for i := range c.Transformations {
		if c.Transformations[i].ID == id {
			return &c.Transformations[i], true
		}
	}
	return nil, false
}
