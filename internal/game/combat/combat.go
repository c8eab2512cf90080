// Package combat implements the turn-based damage exchange between a
// character and an enemy, another character, or the world boss.
//
// The package operates on Combatant snapshots built from resolved stats; it
// never touches persistent records. Callers copy the outcome back onto the
// character after the fight settles.
package combat

// Kind distinguishes the three combatant classes.
type Kind int

const (
	KindPlayer Kind = iota
	KindEnemy
	KindBoss
)

// Combatant is one participant in a fight, carrying the already-resolved
// stats it fights with.
type Combatant struct {
	ID   string
	Kind Kind
	Name string

	MaxHP     int
	CurrentHP int
	Attack    int
	Special   int
	// Defense is subtracted from incoming rolls. Only enemies carry it.
	Defense int

	// LifestealBasic and LifestealSpecial heal the attacker by a fraction of
	// damage dealt.
	LifestealBasic   float64
	LifestealSpecial float64

	// EvasionChance and EvadeHealPct implement the lethal-hit evasion
	// blessing: a chance to fully negate a killing blow and heal a fraction
	// of the negated damage instead.
	EvasionChance float64
	EvadeHealPct  float64

	// SecondChance marks an unspent last-stand amulet. When a killing blow
	// lands and evasion did not trigger, HP clamps to 1 and SecondChanceUsed
	// is set; it cannot fire again until the owner is revived.
	SecondChance     bool
	SecondChanceUsed bool
}

// IsPlayer reports whether this combatant is a player character.
func (c *Combatant) IsPlayer() bool { return c.Kind == KindPlayer }

// IsDead reports whether the combatant has been defeated.
func (c *Combatant) IsDead() bool { return c.CurrentHP <= 0 }

// ApplyDamage reduces CurrentHP by amount, flooring at zero.
//
// Precondition: amount >= 0.
// Postcondition: CurrentHP >= 0.
func (c *Combatant) ApplyDamage(amount int) {
	c.CurrentHP -= amount
	if c.CurrentHP < 0 {
		c.CurrentHP = 0
	}
}

// Heal raises CurrentHP by amount, capped at MaxHP.
//
// Precondition: amount >= 0.
// Postcondition: CurrentHP <= MaxHP.
func (c *Combatant) Heal(amount int) {
	c.CurrentHP += amount
	if c.CurrentHP > c.MaxHP {
		c.CurrentHP = c.MaxHP
	}
}
