package content

import "fmt"

// StyleDef is a power-source style a character chooses at creation, loaded
// from YAML. Styles grant passive effects applied by the stat resolver as
// its final layer, and may gate style-restricted blessing items.
type StyleDef struct {
	ID      string   `yaml:"id"`
	Name    string   `yaml:"name"`
	Emoji   string   `yaml:"emoji"`
	Desc    string   `yaml:"desc"`
	Effects []Effect `yaml:"effects"`
}

// Validate checks the style definition's invariants.
func (s *StyleDef) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("style: id must not be empty")
	}
	if s.Name == "" {
		return fmt.Errorf("style %q: name must not be empty", s.ID)
	}
	return validateEffects("style "+s.ID, s.Effects)
}
