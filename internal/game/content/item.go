package content

import (
	"fmt"
	"time"
)

// EffectKind tags one entry in an item or blessing effect descriptor list.
// The stat resolver applies effects generically by kind; adding a new kind
// does not require per-class branches.
type EffectKind string

const (
	// EffectAttackPct adds a fraction of the current attack value.
	EffectAttackPct EffectKind = "attack_pct"
	// EffectAttackMult multiplies the attack value.
	EffectAttackMult EffectKind = "attack_mult"
	// EffectSpecialMult multiplies the special attack value.
	EffectSpecialMult EffectKind = "special_mult"
	// EffectMaxHPMult multiplies the max HP value.
	EffectMaxHPMult EffectKind = "max_hp_mult"
	// EffectHPFlat adds a flat amount of max HP (negative = drawback).
	EffectHPFlat EffectKind = "hp_flat"
	// EffectHPPct adds a fraction of max HP (negative = drawback).
	EffectHPPct EffectKind = "hp_pct"
	// EffectHealingMult multiplies healing received from consumables.
	EffectHealingMult EffectKind = "healing_mult"
	// EffectCooldownPct is a fractional discount on cooldowns and energy costs.
	EffectCooldownPct EffectKind = "cooldown_pct"
	// EffectEvasionChance is the probability of fully negating a lethal hit.
	EffectEvasionChance EffectKind = "evasion_chance"
	// EffectEvadeHealPct is the fraction of negated damage healed on evasion.
	EffectEvadeHealPct EffectKind = "evade_heal_pct"
	// EffectXPPct is a fractional bonus on experience gains.
	EffectXPPct EffectKind = "xp_pct"
)

var validEffectKinds = map[EffectKind]bool{
	EffectAttackPct:     true,
	EffectAttackMult:    true,
	EffectSpecialMult:   true,
	EffectMaxHPMult:     true,
	EffectHPFlat:        true,
	EffectHPPct:         true,
	EffectHealingMult:   true,
	EffectCooldownPct:   true,
	EffectEvasionChance: true,
	EffectEvadeHealPct:  true,
	EffectXPPct:         true,
}

// Effect is one (kind, magnitude) pair in an effect descriptor list.
type Effect struct {
	Kind  EffectKind `yaml:"kind"`
	Value float64    `yaml:"value"`
}

// BlessingDef describes the timed buff granted by a blessing item.
type BlessingDef struct {
	EnergyCost      int      `yaml:"energy_cost"`
	DurationSeconds int      `yaml:"duration_seconds"`
	Effects         []Effect `yaml:"effects"`
}

// Duration returns the blessing's active duration.
func (b BlessingDef) Duration() time.Duration {
	return time.Duration(b.DurationSeconds) * time.Second
}

// ItemDef is the static definition of an item, loaded from YAML.
//
// Items fall into four groups distinguished by their fields: consumable
// healers (Heal > 0), the boss summon item (SummonsBoss), the one-shot
// second-chance amulet (SecondChance), and passive or blessing equipment
// (Effects / Blessing). Price 0 means the item is not sold in the shop.
type ItemDef struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name"`
	Emoji string `yaml:"emoji"`
	Desc  string `yaml:"desc"`
	Price int    `yaml:"price"`

	Heal         int  `yaml:"heal"`
	SummonsBoss  bool `yaml:"summons_boss"`
	SecondChance bool `yaml:"second_chance"`

	// ClassRestriction and StyleRestriction gate who benefits from the item.
	// Empty means unrestricted.
	ClassRestriction string `yaml:"class_restriction"`
	StyleRestriction string `yaml:"style_restriction"`

	// Effects are passive bonuses applied whenever the item is owned and the
	// restriction matches.
	Effects []Effect `yaml:"effects"`

	// Blessing, when set, means the item is activated for a timed buff rather
	// than applying passively.
	Blessing *BlessingDef `yaml:"blessing"`
}

// Validate checks that the item definition satisfies its invariants.
func (it *ItemDef) Validate() error {
	if it.ID == "" {
		return fmt.Errorf("item: id must not be empty")
	}
	if it.Name == "" {
		return fmt.Errorf("item %q: name must not be empty", it.ID)
	}
	if it.Price < 0 {
		return fmt.Errorf("item %q: price must be >= 0, got %d", it.ID, it.Price)
	}
	if it.Heal < 0 {
		return fmt.Errorf("item %q: heal must be >= 0, got %d", it.ID, it.Heal)
	}
	if err := validateEffects("item "+it.ID, it.Effects); err != nil {
		return err
	}
	if it.Blessing != nil {
		if it.Blessing.EnergyCost < 0 {
			return fmt.Errorf("item %q: blessing energy_cost must be >= 0", it.ID)
		}
		if it.Blessing.DurationSeconds < 1 {
			return fmt.Errorf("item %q: blessing duration_seconds must be >= 1", it.ID)
		}
		if err := validateEffects("item "+it.ID, it.Blessing.Effects); err != nil {
			return err
		}
	}
	return nil
}

func validateEffects(owner string, effects []Effect) error {
	for i, e := range effects {
		if !validEffectKinds[e.Kind] {
			return fmt.Errorf("%s: effect[%d] has unknown kind %q", owner, i, e.Kind)
		}
	}
	return nil
}

// EffectValue returns the magnitude of the first effect of the given kind,
// or 0 if absent.
func EffectValue(effects []Effect, kind EffectKind) float64 {
	for _, e := range effects {
		if e.Kind == kind {
			return e.Value
		}
	}
	return 0
}

// HasEffect reports whether effects contains an entry of the given kind.
func HasEffect(effects []Effect, kind EffectKind) bool {
	for _, e := range effects {
		if e.Kind == kind {
			return true
		}
	}
	return false
}
