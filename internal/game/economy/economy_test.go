package economy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/juancoutinhoflooxmongagua/OutlawRpg/internal/game/character"
	"github.com/juancoutinhoflooxmongagua/OutlawRpg/internal/game/content"
)

func newRichChar(money int) *character.Character {
	c := character.New("u1", "Rico", "swordsman", "", 10, 20, 100, money, "city_refuge", time.Unix(0, 0))
	return c
}

func TestUpgradeCostCurve(t *testing.T) {
	require.Equal(t, 100, UpgradeCost(0))
	require.Equal(t, 150, UpgradeCost(1))
	require.Equal(t, 225, UpgradeCost(2))
	require.Equal(t, 337, UpgradeCost(3))
}

func TestUpgrade(t *testing.T) {
	c := newRichChar(300)

	cost, err := Upgrade(c, StatAttack)
	require.NoError(t, err)
	require.Equal(t, 100, cost)
	require.Equal(t, 1, c.AttackUpgrades)
	require.Equal(t, 200, c.Money)

	cost, err = Upgrade(c, StatAttack)
	require.NoError(t, err)
	require.Equal(t, 150, cost)
	require.Equal(t, 2, c.AttackUpgrades)
	require.Equal(t, 50, c.Money)

	_, err = Upgrade(c, StatAttack)
	require.ErrorIs(t, err, ErrInsufficientFunds)
	require.Equal(t, 2, c.AttackUpgrades)
	require.Equal(t, 50, c.Money)
}

func TestUpgradeStatsAreIndependent(t *testing.T) {
	c := newRichChar(1000)

	_, err := Upgrade(c, StatAttack)
	require.NoError(t, err)
	cost, err := Upgrade(c, StatSpecial)
	require.NoError(t, err)
	require.Equal(t, 100, cost) // special starts at level 0
	require.Equal(t, 1, c.AttackUpgrades)
	require.Equal(t, 1, c.SpecialUpgrades)
}

func TestUpgradeMaxLevel(t *testing.T) {
	c := newRichChar(0)
	c.AttackUpgrades = UpgradeMaxLevel

	_, err := Upgrade(c, StatAttack)
	require.ErrorIs(t, err, ErrMaxUpgrade)
}

func TestBuy(t *testing.T) {
	potion := &content.ItemDef{ID: "potion", Name: "Poção de Vida", Price: 75, Heal: 50}
	amulet := &content.ItemDef{ID: "stone_amulet", Name: "Amuleto de Pedra", SecondChance: true}

	t.Run("purchase adds to inventory", func(t *testing.T) {
		c := newRichChar(200)
		total, err := Buy(c, potion, 2)
		require.NoError(t, err)
		require.Equal(t, 150, total)
		require.Equal(t, 50, c.Money)
		require.Equal(t, 2, c.Inventory["potion"])
	})

	t.Run("insufficient funds leaves state untouched", func(t *testing.T) {
		c := newRichChar(100)
		_, err := Buy(c, potion, 2)
		require.ErrorIs(t, err, ErrInsufficientFunds)
		require.Equal(t, 100, c.Money)
		require.Empty(t, c.Inventory)
	})

	t.Run("unpriced items are not for sale", func(t *testing.T) {
		c := newRichChar(100)
		_, err := Buy(c, amulet, 1)
		require.ErrorIs(t, err, ErrNotForSale)
	})
}

func TestRevive(t *testing.T) {
	t.Run("restores quarter hp and clears amulet flag", func(t *testing.T) {
		c := newRichChar(100)
		c.ApplyDamage(1000)
		c.AmuletSpent = true

		require.NoError(t, Revive(c, 120))
		require.Equal(t, 45, c.Money)
		require.Equal(t, 30, c.CurrentHP)
		require.False(t, c.IsDead())
		require.False(t, c.AmuletSpent)
	})

	t.Run("living characters cannot revive", func(t *testing.T) {
		c := newRichChar(100)
		require.ErrorIs(t, Revive(c, 120), ErrNotDead)
	})

	t.Run("broke characters stay dead", func(t *testing.T) {
		c := newRichChar(10)
		c.ApplyDamage(1000)
		require.ErrorIs(t, Revive(c, 120), ErrInsufficientFunds)
		require.True(t, c.IsDead())
		require.Equal(t, 10, c.Money)
	})

	t.Run("hp floors at one", func(t *testing.T) {
		c := newRichChar(100)
		c.ApplyDamage(1000)
		require.NoError(t, Revive(c, 2))
		require.Equal(t, 1, c.CurrentHP)
	})
}

func TestSettleKill(t *testing.T) {
	killer := newRichChar(100)
	victim := character.New("u2", "Caído", "vampire", "", 10, 20, 100, 500, "forest", time.Unix(0, 0))
	victim.Bounty = 80

	s := SettleKill(killer, victim)
	require.Equal(t, 100, s.FromMoney) // 20% of 500
	require.Equal(t, 80, s.FromBounty)
	require.Equal(t, 180, s.Plunder)

	require.Equal(t, 400, victim.Money)
	require.Zero(t, victim.Bounty)
	require.Equal(t, 1, victim.Deaths)

	require.Equal(t, 280, killer.Money)
	require.Equal(t, 180, killer.Bounty)
	require.Equal(t, 1, killer.Kills)
}

func TestSettleKillConservesMoney(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		killer := newRichChar(rapid.IntRange(0, 10_000).Draw(t, "killerMoney"))
		victim := newRichChar(rapid.IntRange(0, 10_000).Draw(t, "victimMoney"))
		victim.ID = "u2"
		victim.Bounty = rapid.IntRange(0, 5_000).Draw(t, "bounty")

		beforeTotal := killer.Money + victim.Money + victim.Bounty
		s := SettleKill(killer, victim)

		if victim.Bounty != 0 {
			t.Fatalf("victim bounty not cleared")
		}
		if killer.Money+victim.Money != beforeTotal {
			t.Fatalf("money not conserved: %d + %d != %d", killer.Money, victim.Money, beforeTotal)
		}
		if s.Plunder != s.FromMoney+s.FromBounty {
			t.Fatalf("plunder mismatch: %+v", s)
		}
	})
}
