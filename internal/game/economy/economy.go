// Package economy implements the money rules: shop purchases, geometric
// stat upgrades, revival, and the bounty settlement applied when one player
// defeats another.
package economy

import (
	"errors"
	"math"

	"github.com/juancoutinhoflooxmongagua/OutlawRpg/internal/game/character"
	"github.com/juancoutinhoflooxmongagua/OutlawRpg/internal/game/content"
)

const (
	// ReviveCost is the flat price of a revival.
	ReviveCost = 55
	// ReviveHPPct is the fraction of max HP restored on revival.
	ReviveHPPct = 0.25
	// BountyPct is the fraction of the victim's money transferred on a PvP
	// defeat.
	BountyPct = 0.20
	// UpgradeBaseCost and UpgradeCostMult shape the geometric upgrade price
	// curve: cost(level) = base * mult^level.
	UpgradeBaseCost = 100
	UpgradeCostMult = 1.5
	// UpgradeMaxLevel caps purchased upgrades per stat.
	UpgradeMaxLevel = 10
)

var (
	// ErrInsufficientFunds means the character cannot afford the purchase.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrMaxUpgrade means the stat is already at UpgradeMaxLevel.
	ErrMaxUpgrade = errors.New("upgrade level already at maximum")
	// ErrNotForSale means the item has no shop price.
	ErrNotForSale = errors.New("item is not for sale")
	// ErrNotDead means revival was requested for a living character.
	ErrNotDead = errors.New("character is not dead")
)

// Stat selects which attribute an upgrade applies to.
type Stat string

const (
	StatAttack  Stat = "attack"
	StatSpecial Stat = "special"
)

// UpgradeCost returns the price of advancing a stat from level to level+1.
//
// Precondition: level >= 0.
func UpgradeCost(level int) int {
	return int(math.Floor(UpgradeBaseCost * math.Pow(UpgradeCostMult, float64(level))))
}

// Upgrade buys the next level of stat for c, deducting the geometric cost.
//
// Precondition: stat is StatAttack or StatSpecial.
// Postcondition: On nil error, money decreased by the returned cost and the
// stat's upgrade counter advanced by one. On error, c is unchanged.
func Upgrade(c *character.Character, stat Stat) (int, error) {
	level := c.AttackUpgrades
	if stat == StatSpecial {
		level = c.SpecialUpgrades
	}
	if level >= UpgradeMaxLevel {
		return 0, ErrMaxUpgrade
	}
	cost := UpgradeCost(level)
	if c.Money < cost {
		return cost, ErrInsufficientFunds
	}
	c.Money -= cost
	if stat == StatSpecial {
		c.SpecialUpgrades++
	} else {
		c.AttackUpgrades++
	}
	return cost, nil
}

// Buy purchases qty of it for c and adds them to the inventory. Class and
// style restrictions are deliberately not checked here; anyone may buy, only
// matching characters benefit.
//
// Precondition: qty >= 1.
// Postcondition: On nil error, money decreased by the returned total and the
// inventory increased by qty. On error, c is unchanged.
func Buy(c *character.Character, it *content.ItemDef, qty int) (int, error) {
	if it.Price <= 0 {
		return 0, ErrNotForSale
	}
	total := it.Price * qty
	if c.Money < total {
		return total, ErrInsufficientFunds
	}
	c.Money -= total
	c.AddItem(it.ID, qty)
	return total, nil
}

// Revive brings a dead character back at ReviveHPPct of maxHP (at least 1),
// charging ReviveCost.
//
// Precondition: maxHP >= 1.
// Postcondition: On nil error, the character is alive with the amulet flag
// cleared. On error, c is unchanged.
func Revive(c *character.Character, maxHP int) error {
	if !c.IsDead() {
		return ErrNotDead
	}
	if c.Money < ReviveCost {
		return ErrInsufficientFunds
	}
	hp := int(math.Floor(float64(maxHP) * ReviveHPPct))
	if hp < 1 {
		hp = 1
	}
	c.Money -= ReviveCost
	c.Revive(hp)
	return nil
}

// Settlement records the money movement of one PvP defeat.
type Settlement struct {
	// FromMoney is the slice of the victim's cash taken (BountyPct).
	FromMoney int
	// FromBounty is the victim's standing bounty, claimed in full.
	FromBounty int
	// Plunder is the killer's total gain.
	Plunder int
}

// SettleKill applies the PvP defeat rules: the killer takes BountyPct of the
// victim's money plus the victim's entire standing bounty; the victim's
// bounty resets to zero; the killer's own bounty rises by the plunder taken,
// making them the next worthwhile target. Kill and death counters advance.
//
// Precondition: killer and victim must be distinct non-nil characters.
// Postcondition: victim.Bounty == 0; money conservation: killer gain equals
// victim money loss plus the cleared bounty.
func SettleKill(killer, victim *character.Character) Settlement {
	s := Settlement{
		FromMoney:  int(math.Floor(float64(victim.Money) * BountyPct)),
		FromBounty: victim.Bounty,
	}
	s.Plunder = s.FromMoney + s.FromBounty

	victim.Money -= s.FromMoney
	victim.Bounty = 0
	victim.Deaths++

	killer.Money += s.Plunder
	killer.Bounty += s.Plunder
	killer.Kills++
	return s
}
