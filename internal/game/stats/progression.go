package stats

import (
	"math"

	"github.com/juancoutinhoflooxmongagua/OutlawRpg/internal/game/character"
)

const (
	// XPPerLevelBase scales the experience threshold curve.
	XPPerLevelBase = 150
	// LevelExponent shapes the experience threshold curve.
	LevelExponent = 1.2
	// AttributePointsPerLevel is granted on every level gained.
	AttributePointsPerLevel = 2
)

// Threshold returns the experience required to advance from level to
// level+1.
//
// Precondition: level >= 1.
func Threshold(level int) int {
	return int(math.Floor(XPPerLevelBase * math.Pow(float64(level), LevelExponent)))
}

// LevelUpResult reports what GrantXP changed.
type LevelUpResult struct {
	// XPGained is the scaled amount credited.
	XPGained int
	// LevelsGained is how many levels were crossed, possibly more than one.
	LevelsGained int
	// NewLevel is the level after the grant.
	NewLevel int
	// PointsGained is the attribute points awarded across all levels crossed.
	PointsGained int
}

// GrantXP credits floor(amount * mult) experience to c and applies as many
// level-ups as the new total covers. Each level crossed grants attribute
// points; surplus XP carries into the next level.
//
// Callers restore CurrentHP to the post-grant max themselves when
// LevelsGained > 0, since the effective max depends on content the resolver
// owns.
//
// Precondition: amount >= 0; mult > 0; c.Level >= 1.
// Postcondition: 0 <= c.XP < Threshold(c.Level).
func GrantXP(c *character.Character, amount int, mult float64) LevelUpResult {
	gained := int(math.Floor(float64(amount) * mult))
	res := LevelUpResult{XPGained: gained}

	xp := c.XP + gained
	level := c.Level
	for xp >= Threshold(level) {
		xp -= Threshold(level)
		level++
		res.LevelsGained++
	}
	res.NewLevel = level
	res.PointsGained = res.LevelsGained * AttributePointsPerLevel

	c.XP = xp
	if res.LevelsGained > 0 {
		c.Level = level
		c.AttributePoints += res.PointsGained
	}
	return res
}
