// Package character defines the per-player character record and the
// mutation helpers that preserve its invariants.
package character

import (
	"time"
)

// MaxEnergy is the energy ceiling for every character.
const MaxEnergy = 10

// Status is the character's tri-state life status.
type Status string

const (
	// StatusAlive is the normal state.
	StatusAlive Status = "alive"
	// StatusDead means HP reached 0; most commands are rejected until revival.
	StatusDead Status = "dead"
	// StatusAway marks a character protected from PvP until AwayUntil.
	StatusAway Status = "away"
)

// ActiveTransformation records the currently assumed class form.
type ActiveTransformation struct {
	ID        string    `json:"id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Character is a player's persistent game state, keyed by the chat
// platform's user identifier.
//
// Invariants (enforced by the mutation helpers, restored by Normalize):
//   - 0 <= CurrentHP; CurrentHP == 0 implies Status == StatusDead.
//   - 0 <= Energy <= MaxEnergy.
//   - Inventory quantities are >= 1; zero-quantity entries are removed.
//   - Money >= 0; Bounty >= 0; Level >= 1.
type Character struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Class string `json:"class"`
	Style string `json:"style"`

	Level           int `json:"level"`
	XP              int `json:"xp"`
	AttributePoints int `json:"attribute_points"`

	CurrentHP int       `json:"current_hp"`
	Energy    int       `json:"energy"`
	Status    Status    `json:"status"`
	AwayUntil time.Time `json:"away_until,omitzero"`

	BaseAttack      int `json:"base_attack"`
	BaseSpecial     int `json:"base_special_attack"`
	AttackUpgrades  int `json:"attack_upgrades"`
	SpecialUpgrades int `json:"special_upgrades"`

	Money     int            `json:"money"`
	Bounty    int            `json:"bounty"`
	Inventory map[string]int `json:"inventory"`

	Cooldowns      map[string]time.Time  `json:"cooldowns"`
	Transformation *ActiveTransformation `json:"transformation,omitempty"`
	Blessings      map[string]time.Time  `json:"blessings"`
	// AmuletSpent is set when the second-chance amulet fires and cleared on
	// revival, so the amulet cannot retrigger within one life cycle.
	AmuletSpent bool `json:"amulet_spent"`

	Kills  int `json:"kills"`
	Deaths int `json:"deaths"`

	Location string `json:"location"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// New creates a level-1 character of the given class and style.
//
// Precondition: id, name, classID, styleID, and startLocation must be non-empty.
// Postcondition: The returned character satisfies all record invariants.
func New(id, name, classID, styleID string, baseAttack, baseSpecial, baseHP, startMoney int, startLocation string, now time.Time) *Character {
	return &Character{
		ID:          id,
		Name:        name,
		Class:       classID,
		Style:       styleID,
		Level:       1,
		CurrentHP:   baseHP,
		Energy:      MaxEnergy,
		Status:      StatusAlive,
		BaseAttack:  baseAttack,
		BaseSpecial: baseSpecial,
		Money:       startMoney,
		Inventory:   make(map[string]int),
		Cooldowns:   make(map[string]time.Time),
		Blessings:   make(map[string]time.Time),
		Location:    startLocation,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Normalize repairs a record loaded from storage: nil maps are allocated,
// out-of-range fields are clamped, and missing fields get their defaults.
// Documents written by older builds may omit keys entirely; reads must not
// fail because of that.
//
// Precondition: defaultLocation must be non-empty.
// Postcondition: All record invariants hold.
func (c *Character) Normalize(defaultLocation string) {
	if c.Inventory == nil {
		c.Inventory = make(map[string]int)
	}
	if c.Cooldowns == nil {
		c.Cooldowns = make(map[string]time.Time)
	}
	if c.Blessings == nil {
		c.Blessings = make(map[string]time.Time)
	}
	for id, qty := range c.Inventory {
		if qty <= 0 {
			delete(c.Inventory, id)
		}
	}
	if c.Location == "" {
		c.Location = defaultLocation
	}
	if c.Level < 1 {
		c.Level = 1
	}
	if c.Money < 0 {
		c.Money = 0
	}
	if c.Bounty < 0 {
		c.Bounty = 0
	}
	if c.Energy < 0 {
		c.Energy = 0
	}
	if c.Energy > MaxEnergy {
		c.Energy = MaxEnergy
	}
	if c.CurrentHP < 0 {
		c.CurrentHP = 0
	}
	switch c.Status {
	case StatusAlive, StatusDead, StatusAway:
	default:
		c.Status = StatusAlive
	}
	if c.CurrentHP == 0 {
		c.Status = StatusDead
	}
}

// Clone returns a deep copy. Stores hand out clones so callers can mutate
// freely and write back explicitly.
func (c *Character) Clone() *Character {
	out := *c
	out.Inventory = make(map[string]int, len(c.Inventory))
	for k, v := range c.Inventory {
		out.Inventory[k] = v
	}
	out.Cooldowns = make(map[string]time.Time, len(c.Cooldowns))
	for k, v := range c.Cooldowns {
		out.Cooldowns[k] = v
	}
	out.Blessings = make(map[string]time.Time, len(c.Blessings))
	for k, v := range c.Blessings {
		out.Blessings[k] = v
	}
	if c.Transformation != nil {
		tr := *c.Transformation
		out.Transformation = &tr
	}
	return &out
}

// IsDead reports whether the character is defeated.
func (c *Character) IsDead() bool { return c.Status == StatusDead || c.CurrentHP <= 0 }

// IsAway reports whether the character is under away protection at now.
// An expired away window counts as alive even before the sweep clears it.
func (c *Character) IsAway(now time.Time) bool {
	return c.Status == StatusAway && now.Before(c.AwayUntil)
}

// ApplyDamage reduces CurrentHP by amount, flooring at zero. Reaching zero
// marks the character dead and drops any active transformation.
//
// Precondition: amount >= 0.
// Postcondition: CurrentHP >= 0; CurrentHP == 0 implies Status == StatusDead.
func (c *Character) ApplyDamage(amount int) {
	c.CurrentHP -= amount
	if c.CurrentHP <= 0 {
		c.CurrentHP = 0
		c.Status = StatusDead
		c.Transformation = nil
	}
}

// Heal raises CurrentHP by amount, capped at maxHP.
//
// Precondition: amount >= 0; maxHP >= 1.
// Postcondition: CurrentHP <= maxHP.
func (c *Character) Heal(amount, maxHP int) {
	c.CurrentHP += amount
	if c.CurrentHP > maxHP {
		c.CurrentHP = maxHP
	}
}

// ClampHP caps CurrentHP at maxHP. Called after the effective max changes
// (transformation expiry, item loss).
func (c *Character) ClampHP(maxHP int) {
	if c.CurrentHP > maxHP {
		c.CurrentHP = maxHP
	}
}

// Revive restores a defeated character to life with the given HP and clears
// the amulet-spent flag so the second-chance amulet can fire again.
//
// Precondition: hp >= 1.
// Postcondition: Status == StatusAlive; CurrentHP == hp; !AmuletSpent.
func (c *Character) Revive(hp int) {
	c.CurrentHP = hp
	c.Status = StatusAlive
	c.AmuletSpent = false
}

// SpendEnergy deducts cost from Energy. Returns false (and deducts nothing)
// when the character has less than cost.
//
// Precondition: cost >= 0.
// Postcondition: Energy >= 0; on false return Energy is unchanged.
func (c *Character) SpendEnergy(cost int) bool {
	if c.Energy < cost {
		return false
	}
	c.Energy -= cost
	return true
}

// GainEnergy adds amount to Energy, capped at MaxEnergy.
//
// Precondition: amount >= 0.
func (c *Character) GainEnergy(amount int) {
	c.Energy += amount
	if c.Energy > MaxEnergy {
		c.Energy = MaxEnergy
	}
}

// AddItem increases the owned quantity of itemID by qty.
//
// Precondition: qty >= 1.
func (c *Character) AddItem(itemID string, qty int) {
	c.Inventory[itemID] += qty
}

// RemoveItem decreases the owned quantity of itemID by qty, deleting the
// entry when it reaches zero. Returns false (and removes nothing) when the
// character owns fewer than qty.
//
// Precondition: qty >= 1.
// Postcondition: No inventory entry has quantity <= 0.
func (c *Character) RemoveItem(itemID string, qty int) bool {
	have := c.Inventory[itemID]
	if have < qty {
		return false
	}
	if have == qty {
		delete(c.Inventory, itemID)
	} else {
		c.Inventory[itemID] = have - qty
	}
	return true
}

// HasItem reports whether at least one of itemID is owned.
func (c *Character) HasItem(itemID string) bool { return c.Inventory[itemID] > 0 }

// ActiveTransformationID returns the ID of the unexpired transformation, or
// "" when none is active.
func (c *Character) ActiveTransformationID(now time.Time) string {
	if c.Transformation == nil || !now.Before(c.Transformation.ExpiresAt) {
		return ""
	}
	return c.Transformation.ID
}

// BlessingActive reports whether the blessing granted by itemID is unexpired.
func (c *Character) BlessingActive(itemID string, now time.Time) bool {
	exp, ok := c.Blessings[itemID]
	return ok && now.Before(exp)
}

// ActivateBlessing records the blessing expiry. Expiry timestamps only move
// forward: re-activating earlier than the stored expiry is a no-op.
//
// Postcondition: Blessings[itemID] is monotonically non-decreasing.
func (c *Character) ActivateBlessing(itemID string, expiresAt time.Time) {
	if cur, ok := c.Blessings[itemID]; ok && cur.After(expiresAt) {
		return
	}
	c.Blessings[itemID] = expiresAt
}

// ExpireEffects removes expired blessings, the expired transformation, and
// expired away protection. Returns true when anything changed.
func (c *Character) ExpireEffects(now time.Time) bool {
	changed := false
	for id, exp := range c.Blessings {
		if !now.Before(exp) {
			delete(c.Blessings, id)
			changed = true
		}
	}
	if c.Transformation != nil && !now.Before(c.Transformation.ExpiresAt) {
		c.Transformation = nil
		changed = true
	}
	if c.Status == StatusAway && !now.Before(c.AwayUntil) {
		c.Status = StatusAlive
		c.AwayUntil = time.Time{}
		changed = true
	}
	return changed
}
