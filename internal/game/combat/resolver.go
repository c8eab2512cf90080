package combat

import (
	"math"

	"github.com/juancoutinhoflooxmongagua/OutlawRpg/internal/game/rng"
)

// Move selects the damage formula for one hit.
type Move int

const (
	// MoveBasic draws uniformly from [attack/2, attack].
	MoveBasic Move = iota
	// MoveSpecial draws uniformly from [0.8*special, 1.5*special].
	MoveSpecial
)

// String returns a human-readable move label.
func (m Move) String() string {
	switch m {
	case MoveBasic:
		return "basic"
	case MoveSpecial:
		return "special"
	default:
		return "unknown"
	}
}

const (
	// CritChance is the probability of a critical hit.
	CritChance = 0.10
	// CritMult scales rolled damage on a critical hit.
	CritMult = 1.5
	// MinDamage is the floor on damage after the target's defense is
	// subtracted.
	MinDamage = 1
)

// HitResult records everything one resolved hit did.
type HitResult struct {
	AttackerID string
	TargetID   string
	Move       Move
	// Roll is the damage rolled after the crit multiplier, before defense.
	Roll int
	Crit bool
	// Damage is the amount that reached the target. Zero when Evaded.
	Damage int
	// Evaded means the target's evasion blessing negated a killing blow.
	Evaded bool
	// EvadeHealed is how much the target healed instead of dying.
	EvadeHealed int
	// Lifesteal is how much the attacker healed from damage dealt.
	Lifesteal int
	// AmuletSaved means the target's second-chance amulet clamped HP to 1.
	AmuletSaved bool
	// Killed means the target's HP reached zero and no last-stand fired.
	Killed bool
}

// rollDamage draws the raw damage for move against a target of the given
// kind. Boss targets use widened ranges.
func rollDamage(attacker *Combatant, move Move, targetKind Kind, src rng.Source) int {
	vsBoss := targetKind == KindBoss
	switch move {
	case MoveSpecial:
		if vsBoss {
			return rng.Between(src, attacker.Special, int(1.8*float64(attacker.Special)))
		}
		return rng.Between(src, int(0.8*float64(attacker.Special)), int(1.5*float64(attacker.Special)))
	default:
		if vsBoss {
			return rng.Between(src, attacker.Attack, int(1.5*float64(attacker.Attack)))
		}
		return rng.Between(src, attacker.Attack/2, attacker.Attack)
	}
}

// ResolveHit performs one attack from attacker against target and applies it
// in place. The sequence is: damage roll, crit check, defense subtraction
// with a floor of MinDamage, then, if the hit would kill, the target's
// last-stand effects in priority order (evasion blessing, then amulet), and
// finally the attacker's lifesteal on damage actually dealt.
//
// Precondition: attacker and target must be non-nil and alive; src must be
// non-nil.
// Postcondition: Exactly one of Evaded, AmuletSaved, Killed is set when the
// hit was lethal; target.CurrentHP >= 0.
func ResolveHit(attacker, target *Combatant, move Move, src rng.Source) HitResult {
	r := HitResult{
		AttackerID: attacker.ID,
		TargetID:   target.ID,
		Move:       move,
	}

	roll := rollDamage(attacker, move, target.Kind, src)
	if rng.Chance(src, CritChance) {
		roll = int(float64(roll) * CritMult)
		r.Crit = true
	}
	r.Roll = roll

	dmg := roll - target.Defense
	if dmg < MinDamage {
		dmg = MinDamage
	}

	if dmg >= target.CurrentHP {
		// Lethal: last-stand effects fire before death is finalized.
		switch {
		case rng.Chance(src, target.EvasionChance):
			r.Evaded = true
			r.EvadeHealed = int(math.Floor(float64(dmg) * target.EvadeHealPct))
			target.Heal(r.EvadeHealed)
		case target.SecondChance && !target.SecondChanceUsed:
			r.Damage = target.CurrentHP - 1
			target.CurrentHP = 1
			target.SecondChanceUsed = true
			r.AmuletSaved = true
		default:
			r.Damage = dmg
			target.ApplyDamage(dmg)
			r.Killed = true
		}
	} else {
		r.Damage = dmg
		target.ApplyDamage(dmg)
	}

	if r.Damage > 0 {
		pct := attacker.LifestealBasic
		if move == MoveSpecial {
			pct = attacker.LifestealSpecial
		}
		if pct > 0 {
			r.Lifesteal = int(math.Floor(float64(r.Damage) * pct))
			attacker.Heal(r.Lifesteal)
		}
	}
	return r
}
