// Package stats derives effective combat stats from a character's stored
// fields. Resolution is a pure function of the record, the content registry,
// and the current time; it performs no I/O and mutates nothing.
package stats

import (
	"math"
	"time"

	"github.com/juancoutinhoflooxmongagua/OutlawRpg/internal/game/character"
	"github.com/juancoutinhoflooxmongagua/OutlawRpg/internal/game/content"
)

const (
	// HPPerLevel is the flat max-HP gain per character level.
	HPPerLevel = 10
	// UpgradeAttackBonus is the flat attack gain per purchased attack upgrade.
	UpgradeAttackBonus = 2
	// UpgradeSpecialBonus is the flat special gain per purchased special upgrade.
	UpgradeSpecialBonus = 3
)

// Stats holds every derived combat value for one character at one instant.
type Stats struct {
	Attack  int
	Special int
	MaxHP   int

	// HealingMult scales healing received from consumables.
	HealingMult float64
	// XPMult scales experience gains.
	XPMult float64

	// EvasionChance is the probability of negating a lethal hit, granted by
	// an active evasion blessing (plus any transformation bonus).
	EvasionChance float64
	// EvadeHealPct is the fraction of negated damage healed on evasion.
	EvadeHealPct float64

	// LifestealBasic and LifestealSpecial are the class's heal-on-hit
	// fractions for basic and special attacks.
	LifestealBasic   float64
	LifestealSpecial float64

	// CostFactor multiplies energy costs and cooldown durations. Discounts
	// from an active blessing, the active transformation, and owned items
	// stack multiplicatively in that order.
	CostFactor float64
}

// Effective resolves c's derived stats.
//
// The pipeline is ordered: class/level/upgrade base, then transformation
// multipliers, then blessing multipliers (both applied to the base, so the
// two layers stack multiplicatively with each other), then item effects,
// then the style passive as the final multiplicative layer. Callers clamp
// CurrentHP against the returned MaxHP.
//
// Precondition: c and reg must be non-nil; c.Class and c.Style must resolve
// in reg (unknown IDs fall back to the stored base fields alone).
// Postcondition: Attack >= 1, MaxHP >= 1, CostFactor in (0, 1].
func Effective(c *character.Character, reg *content.Registry, now time.Time) Stats {
	attack := float64(c.BaseAttack + c.AttackUpgrades*UpgradeAttackBonus + c.Level/2)
	special := float64(c.BaseSpecial + c.SpecialUpgrades*UpgradeSpecialBonus + c.Level/2)

	maxHP := float64(c.Level * HPPerLevel)
	s := Stats{HealingMult: 1, XPMult: 1, CostFactor: 1}

	class, haveClass := reg.Class(c.Class)
	if haveClass {
		maxHP += float64(class.BaseHP)
		s.LifestealBasic = class.LifestealBasic
		s.LifestealSpecial = class.LifestealSpecial
	} else {
		maxHP += float64(c.CurrentHP) // best effort for orphaned records
	}

	// Layer 2: active class transformation, multipliers on the base stat.
	var trMult struct{ atk, spc, hp, heal float64 }
	trMult.atk, trMult.spc, trMult.hp, trMult.heal = 1, 1, 1, 1
	if haveClass {
		if trID := c.ActiveTransformationID(now); trID != "" {
			if tr, ok := class.Transformation(trID); ok {
				trMult.atk = orOne(tr.AttackMult)
				trMult.spc = orOne(tr.SpecialMult)
				trMult.hp = orOne(tr.HPMult)
				trMult.heal = orOne(tr.HealingMult)
				s.EvasionChance += tr.EvasionBonus
				if tr.CooldownPct > 0 {
					s.CostFactor *= 1 - tr.CooldownPct
				}
			}
		}
	}

	// Layer 3: active blessings, also multipliers on the base stat.
	blMult := struct{ atk, spc, hp float64 }{1, 1, 1}
	for itemID := range c.Blessings {
		if !c.BlessingActive(itemID, now) {
			continue
		}
		it, ok := reg.Item(itemID)
		if !ok || it.Blessing == nil {
			continue
		}
		if !restrictionMatches(c, it) {
			continue
		}
		eff := it.Blessing.Effects
		blMult.atk *= orOne(content.EffectValue(eff, content.EffectAttackMult))
		blMult.spc *= orOne(content.EffectValue(eff, content.EffectSpecialMult))
		blMult.hp *= orOne(content.EffectValue(eff, content.EffectMaxHPMult))
		s.EvasionChance += content.EffectValue(eff, content.EffectEvasionChance)
		if v := content.EffectValue(eff, content.EffectEvadeHealPct); v > s.EvadeHealPct {
			s.EvadeHealPct = v
		}
		if v := content.EffectValue(eff, content.EffectCooldownPct); v > 0 {
			s.CostFactor *= 1 - v
		}
	}

	attack *= trMult.atk * blMult.atk
	special *= trMult.spc * blMult.spc
	maxHP *= trMult.hp * blMult.hp
	s.HealingMult *= trMult.heal

	// Layer 4: owned class/style-restricted item effects.
	for itemID, qty := range c.Inventory {
		if qty <= 0 {
			continue
		}
		it, ok := reg.Item(itemID)
		if !ok || len(it.Effects) == 0 || it.Blessing != nil {
			continue
		}
		if !restrictionMatches(c, it) {
			continue
		}
		for _, e := range it.Effects {
			switch e.Kind {
			case content.EffectAttackPct:
				attack += attack * e.Value
			case content.EffectHPFlat:
				maxHP += e.Value
			case content.EffectHPPct:
				maxHP += maxHP * e.Value
			case content.EffectHealingMult:
				s.HealingMult *= e.Value
			case content.EffectCooldownPct:
				s.CostFactor *= 1 - e.Value
			case content.EffectXPPct:
				s.XPMult += e.Value
			}
		}
	}

	// Layer 5: style passive, final multiplicative layer.
	if style, ok := reg.Style(c.Style); ok {
		if v := content.EffectValue(style.Effects, content.EffectAttackPct); v > 0 {
			attack *= 1 + v
		}
		s.XPMult += content.EffectValue(style.Effects, content.EffectXPPct)
	}

	s.Attack = atLeast(int(math.Floor(attack)), 1)
	s.Special = atLeast(int(math.Floor(special)), 0)
	s.MaxHP = atLeast(int(math.Floor(maxHP)), 1)
	if s.CostFactor <= 0 {
		s.CostFactor = 0.01
	}
	return s
}

// restrictionMatches reports whether c may benefit from it.
func restrictionMatches(c *character.Character, it *content.ItemDef) bool {
	if it.ClassRestriction != "" && it.ClassRestriction != c.Class {
		return false
	}
	if it.StyleRestriction != "" && it.StyleRestriction != c.Style {
		return false
	}
	return true
}

func orOne(v float64) float64 {
	if v == 0 {
		return 1
	}
	return v
}

func atLeast(v, floor int) int {
	if v < floor {
		return floor
	}
	return v
}
