package cooldown

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/juancoutinhoflooxmongagua/OutlawRpg/internal/game/character"
)

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func TestGateArmAndRemaining(t *testing.T) {
	now := time.Unix(10_000, 0)
	g := NewGate(fixedClock(now))
	c := character.New("u1", "Teste", "swordsman", "", 10, 20, 100, 100, "city_refuge", now)

	require.True(t, g.Ready(c, KeyHunt))
	require.Zero(t, g.Remaining(c, KeyHunt))

	until := g.Arm(c, KeyHunt, 30*time.Second, 1)
	require.Equal(t, now.Add(30*time.Second), until)
	require.False(t, g.Ready(c, KeyHunt))
	require.Equal(t, 30*time.Second, g.Remaining(c, KeyHunt))

	// Other keys are unaffected.
	require.True(t, g.Ready(c, KeyDuel))
}

func TestGateExpiry(t *testing.T) {
	now := time.Unix(10_000, 0)
	clock := now
	g := NewGate(func() time.Time { return clock })
	c := character.New("u1", "Teste", "swordsman", "", 10, 20, 100, 100, "city_refuge", now)

	g.Arm(c, KeyDuel, time.Minute, 1)
	clock = now.Add(59 * time.Second)
	require.False(t, g.Ready(c, KeyDuel))

	clock = now.Add(time.Minute)
	require.True(t, g.Ready(c, KeyDuel))
	require.Zero(t, g.Remaining(c, KeyDuel))
}

func TestGateDiscountFactor(t *testing.T) {
	now := time.Unix(10_000, 0)
	g := NewGate(fixedClock(now))
	c := character.New("u1", "Teste", "swordsman", "", 10, 20, 100, 100, "city_refuge", now)

	testcases := []struct {
		name   string
		base   time.Duration
		factor float64
		want   time.Duration
	}{
		{name: "no discount", base: 60 * time.Second, factor: 1, want: 60 * time.Second},
		{name: "forty percent off", base: 60 * time.Second, factor: 0.6, want: 36 * time.Second},
		{name: "stacked discounts", base: 60 * time.Second, factor: 0.9 * 0.6, want: 32400 * time.Millisecond},
		{name: "floored at one second", base: 2 * time.Second, factor: 0.01, want: time.Second},
	}
	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			until := g.Arm(c, KeySpecial, tc.base, tc.factor)
			require.Equal(t, now.Add(tc.want), until)
		})
	}
}

func TestGateClear(t *testing.T) {
	now := time.Unix(10_000, 0)
	g := NewGate(fixedClock(now))
	c := character.New("u1", "Teste", "swordsman", "", 10, 20, 100, 100, "city_refuge", now)

	g.Arm(c, KeyTransform, time.Hour, 1)
	require.False(t, g.Ready(c, KeyTransform))
	g.Clear(c, KeyTransform)
	require.True(t, g.Ready(c, KeyTransform))
}

func TestGateArmNeverBelowFloor(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		now := time.Unix(10_000, 0)
		g := NewGate(fixedClock(now))
		c := character.New("u1", "Teste", "swordsman", "", 10, 20, 100, 100, "city_refuge", now)

		base := time.Duration(rapid.Int64Range(int64(time.Second), int64(2*time.Hour)).Draw(t, "base"))
		factor := rapid.Float64Range(0.001, 1).Draw(t, "factor")

		until := g.Arm(c, KeyHunt, base, factor)
		if d := until.Sub(now); d < MinDuration {
			t.Fatalf("armed duration %v below floor", d)
		}
		if g.Ready(c, KeyHunt) {
			t.Fatalf("expected cooldown to be armed")
		}
	})
}
