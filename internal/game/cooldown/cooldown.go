// Package cooldown gates repeatable actions behind per-character timers.
// Timestamps are stored on the character record itself so they persist with
// it; this package only interprets and arms them.
package cooldown

import (
	"time"

	"github.com/juancoutinhoflooxmongagua/OutlawRpg/internal/game/character"
)

// Well-known cooldown keys. Keys are free-form strings so content or callers
// can introduce new timers without touching this package.
const (
	KeyHunt       = "hunt"
	KeyDuel       = "duel"
	KeySpecial    = "special"
	KeyBossStrike = "boss_strike"
	KeyTransform  = "transform"
	KeyTravel     = "travel"
	KeyRevive     = "revive"
	KeyAway       = "away"
)

// MinDuration is the floor for any armed cooldown, no matter how large the
// stacked discounts are.
const MinDuration = time.Second

// Gate reads and arms character cooldowns against an injectable clock.
type Gate struct {
	now func() time.Time
}

// NewGate creates a Gate. A nil now falls back to time.Now.
func NewGate(now func() time.Time) *Gate {
	if now == nil {
		now = time.Now
	}
	return &Gate{now: now}
}

// Remaining returns how long until key is ready again, or 0 when it is
// ready now. Unknown keys are always ready.
func (g *Gate) Remaining(c *character.Character, key string) time.Duration {
	until, ok := c.Cooldowns[key]
	if !ok {
		return 0
	}
	rem := until.Sub(g.now())
	if rem < 0 {
		return 0
	}
	return rem
}

// Ready reports whether key can be used now.
func (g *Gate) Ready(c *character.Character, key string) bool {
	return g.Remaining(c, key) == 0
}

// Arm starts the timer for key. The base duration is scaled by factor (the
// character's stacked discount factor from the stat resolver) and floored at
// MinDuration. Returns the instant the key becomes ready again.
//
// Precondition: base > 0; 0 < factor <= 1.
// Postcondition: Remaining(c, key) > 0 until the returned time.
func (g *Gate) Arm(c *character.Character, key string, base time.Duration, factor float64) time.Time {
	d := time.Duration(float64(base) * factor)
	if d < MinDuration {
		d = MinDuration
	}
	until := g.now().Add(d)
	c.Cooldowns[key] = until
	return until
}

// Clear removes the timer for key, making it immediately ready.
func (g *Gate) Clear(c *character.Character, key string) {
	delete(c.Cooldowns, key)
}
