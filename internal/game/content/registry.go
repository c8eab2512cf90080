package content

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Registry holds all loaded game content, keyed by ID.
//
// Invariant: after a successful Load, every definition has passed Validate
// and every cross-reference (adjacency targets, drop item IDs, summon item,
// required blessings) resolves.
type Registry struct {
	classes   map[string]*ClassDef
	styles    map[string]*StyleDef
	items     map[string]*ItemDef
	locations map[string]*LocationDef
	boss      *BossDef
	// startLocation is the location new characters spawn at.
	startLocation string
}

// NewRegistry creates an empty Registry. Most callers should use Load;
// direct registration is for tests and content tooling.
func NewRegistry() *Registry {
	return &Registry{
		classes:   make(map[string]*ClassDef),
		styles:    make(map[string]*StyleDef),
		items:     make(map[string]*ItemDef),
		locations: make(map[string]*LocationDef),
	}
}

// RegisterClass adds c to the registry, overwriting any existing entry.
// Precondition: c must not be nil and c.ID must not be empty.
func (r *Registry) RegisterClass(c *ClassDef) { r.classes[c.ID] = c }

// RegisterStyle adds s to the registry, overwriting any existing entry.
func (r *Registry) RegisterStyle(s *StyleDef) { r.styles[s.ID] = s }

// RegisterItem adds it to the registry, overwriting any existing entry.
func (r *Registry) RegisterItem(it *ItemDef) { r.items[it.ID] = it }

// RegisterLocation adds l to the registry, overwriting any existing entry.
func (r *Registry) RegisterLocation(l *LocationDef) { r.locations[l.ID] = l }

// SetBoss sets the world boss template.
func (r *Registry) SetBoss(b *BossDef) { r.boss = b }

// SetStartLocation sets the spawn location for new characters.
func (r *Registry) SetStartLocation(id string) { r.startLocation = id }

// Class returns the class definition for id, or (nil, false).
func (r *Registry) Class(id string) (*ClassDef, bool) {
	c, ok := r.classes[id]
	return c, ok
}

// Style returns the style definition for id, or (nil, false).
func (r *Registry) Style(id string) (*StyleDef, bool) {
	s, ok := r.styles[id]
	return s, ok
}

// Item returns the item definition for id, or (nil, false).
func (r *Registry) Item(id string) (*ItemDef, bool) {
	it, ok := r.items[id]
	return it, ok
}

// Location returns the location definition for id, or (nil, false).
func (r *Registry) Location(id string) (*LocationDef, bool) {
	l, ok := r.locations[id]
	return l, ok
}

// Boss returns the world boss template.
func (r *Registry) Boss() *BossDef { return r.boss }

// StartLocation returns the ID of the spawn location for new characters.
func (r *Registry) StartLocation() string { return r.startLocation }

// Classes returns a snapshot slice of all class definitions.
func (r *Registry) Classes() []*ClassDef {
	out := make([]*ClassDef, 0, len(r.classes))
	for _, c := range r.classes {
		out = append(out, c)
	}
	return out
}

// Items returns a snapshot slice of all item definitions.
func (r *Registry) Items() []*ItemDef {
	out := make([]*ItemDef, 0, len(r.items))
	for _, it := range r.items {
		out = append(out, it)
	}
	return out
}

// Locations returns a snapshot slice of all location definitions.
func (r *Registry) Locations() []*LocationDef {
	out := make([]*LocationDef, 0, len(r.locations))
	for _, l := range r.locations {
		out = append(out, l)
	}
	return out
}

// worldFile is the schema of world.yaml: the style list plus the spawn point.
type worldFile struct {
	StartLocation string     `yaml:"start_location"`
	Styles        []StyleDef `yaml:"styles"`
}

// Load reads all game content from root, which must contain:
//
//	classes/*.yaml    one ClassDef per file
//	items/*.yaml      one ItemDef per file
//	locations/*.yaml  one LocationDef per file
//	boss.yaml         the BossDef
//	world.yaml        styles and the start location
//
// Precondition: root must be a readable directory.
// Postcondition: Returns a fully validated, cross-checked Registry or a
// non-nil error naming the offending file.
func Load(root string) (*Registry, error) {
	reg := NewRegistry()

	if err := loadDir(filepath.Join(root, "classes"), func() validatable { return &ClassDef{} }, func(v validatable) error {
		c := v.(*ClassDef)
		if _, dup := reg.classes[c.ID]; dup {
			return fmt.Errorf("duplicate class id %q", c.ID)
		}
		reg.classes[c.ID] = c
		return nil
	}); err != nil {
		return nil, err
	}

	if err := loadDir(filepath.Join(root, "items"), func() validatable { return &ItemDef{} }, func(v validatable) error {
		it := v.(*ItemDef)
		if _, dup := reg.items[it.ID]; dup {
			return fmt.Errorf("duplicate item id %q", it.ID)
		}
		reg.items[it.ID] = it
		return nil
	}); err != nil {
		return nil, err
	}

	if err := loadDir(filepath.Join(root, "locations"), func() validatable { return &LocationDef{} }, func(v validatable) error {
		l := v.(*LocationDef)
		if _, dup := reg.locations[l.ID]; dup {
			return fmt.Errorf("duplicate location id %q", l.ID)
		}
		reg.locations[l.ID] = l
		return nil
	}); err != nil {
		return nil, err
	}

	var boss BossDef
	if err := decodeFile(filepath.Join(root, "boss.yaml"), &boss); err != nil {
		return nil, err
	}
	if err := boss.Validate(); err != nil {
		return nil, fmt.Errorf("boss.yaml: %w", err)
	}
	reg.boss = &boss

	var world worldFile
	if err := decodeFile(filepath.Join(root, "world.yaml"), &world); err != nil {
		return nil, err
	}
	for i := range world.Styles {
		s := &world.Styles[i]
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("world.yaml: %w", err)
		}
		if _, dup := reg.styles[s.ID]; dup {
			return nil, fmt.Errorf("world.yaml: duplicate style id %q", s.ID)
		}
		reg.styles[s.ID] = s
	}
	reg.startLocation = world.StartLocation

	if err := reg.crossCheck(); err != nil {
		return nil, err
	}
	return reg, nil
}

// crossCheck verifies every cross-reference between loaded definitions.
func (r *Registry) crossCheck() error {
	if _, ok := r.locations[r.startLocation]; !ok {
		return fmt.Errorf("world.yaml: start_location %q is not a defined location", r.startLocation)
	}
	for _, l := range r.locations {
		for _, target := range l.Connects {
			if _, ok := r.locations[target]; !ok {
				return fmt.Errorf("location %q connects to undefined location %q", l.ID, target)
			}
		}
		for _, e := range l.Enemies {
			for _, d := range e.Drops {
				if _, ok := r.items[d.ItemID]; !ok {
					return fmt.Errorf("location %q: enemy %q drops undefined item %q", l.ID, e.ID, d.ItemID)
				}
			}
		}
	}
	for _, c := range r.classes {
		for _, tr := range c.Transformations {
			if tr.RequiredBlessing == "" {
				continue
			}
			it, ok := r.items[tr.RequiredBlessing]
			if !ok {
				return fmt.Errorf("class %q: transformation %q requires undefined item %q", c.ID, tr.ID, tr.RequiredBlessing)
			}
			if it.Blessing == nil {
				return fmt.Errorf("class %q: transformation %q requires item %q which is not a blessing", c.ID, tr.ID, tr.RequiredBlessing)
			}
		}
	}
	for _, it := range r.items {
		if it.ClassRestriction != "" {
			if _, ok := r.classes[it.ClassRestriction]; !ok {
				return fmt.Errorf("item %q: class_restriction %q is not a defined class", it.ID, it.ClassRestriction)
			}
		}
		if it.StyleRestriction != "" {
			if _, ok := r.styles[it.StyleRestriction]; !ok {
				return fmt.Errorf("item %q: style_restriction %q is not a defined style", it.ID, it.StyleRestriction)
			}
		}
	}
	if _, ok := r.items[r.boss.SummonItem]; !ok {
		return fmt.Errorf("boss %q: summon_item %q is not a defined item", r.boss.ID, r.boss.SummonItem)
	}
	for _, tier := range r.boss.Rewards {
		for _, d := range tier.Items {
			if _, ok := r.items[d.ItemID]; !ok {
				return fmt.Errorf("boss %q: reward rank %d drops undefined item %q", r.boss.ID, tier.Rank, d.ItemID)
			}
		}
	}
	return nil
}

type validatable interface{ Validate() error }

// loadDir reads every *.yaml file in dir, strict-decodes it into a fresh
// definition, validates it, and hands it to store.
func loadDir(dir string, fresh func() validatable, store func(validatable) error) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading content dir %q: %w", dir, err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		def := fresh()
		if err := decodeFile(path, def); err != nil {
			return err
		}
		if err := def.Validate(); err != nil {
			return fmt.Errorf("%q: %w", path, err)
		}
		if err := store(def); err != nil {
			return fmt.Errorf("%q: %w", path, err)
		}
	}
	return nil
}

func decodeFile(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %q: %w", path, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("parsing %q: %w", path, err)
	}
	return nil
}
