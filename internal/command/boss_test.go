package command_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/juancoutinhoflooxmongagua/OutlawRpg/internal/command"
	"github.com/juancoutinhoflooxmongagua/OutlawRpg/internal/game/combat"
	"github.com/juancoutinhoflooxmongagua/OutlawRpg/internal/storage/jsonfile"
)

func grantItem(t *testing.T, store *jsonfile.Store, playerID, itemID string, qty int) {
	t.Helper()
	ctx := context.Background()
	c, err := store.Get(ctx, playerID)
	require.NoError(t, err)
	c.AddItem(itemID, qty)
	require.NoError(t, store.Put(ctx, c))
}

func summonBoss(t *testing.T, svc *command.Service, store *jsonfile.Store, playerID string) {
	t.Helper()
	grantItem(t, store, playerID, "boss_horn", 1)
	res, err := svc.UseItem(context.Background(), playerID, "boss_horn")
	require.NoError(t, err)
	require.True(t, res.BossSummoned)
}

func TestSummonBoss(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	mustCreate(t, svc, "u1", "Jango")

	summonBoss(t, svc, store, "u1")

	b, err := store.GetBoss(ctx)
	require.NoError(t, err)
	require.True(t, b.Active)
	require.Equal(t, 500, b.CurrentHP)

	// The horn was consumed.
	c, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	require.False(t, c.HasItem("boss_horn"))

	// A second summon while the encounter runs is rejected.
	grantItem(t, store, "u1", "boss_horn", 1)
	_, err = svc.UseItem(ctx, "u1", "boss_horn")
	require.ErrorIs(t, err, command.ErrBossActive)
}

func TestStrikeBossInactive(t *testing.T) {
	svc, _, _ := newTestService(t)
	mustCreate(t, svc, "u1", "Jango")

	_, err := svc.StrikeBoss(context.Background(), "u1", combat.MoveBasic)
	require.ErrorIs(t, err, command.ErrBossInactive)
}

func TestStrikeBossContributionAndCooldown(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	mustCreate(t, svc, "u1", "Jango")
	summonBoss(t, svc, store, "u1")

	res, err := svc.StrikeBoss(ctx, "u1", combat.MoveBasic)
	require.NoError(t, err)
	require.Equal(t, 100, res.Hit.Damage)
	require.Equal(t, 400, res.BossHP)
	require.False(t, res.Defeated)
	require.Empty(t, res.Rewards)

	_, err = svc.StrikeBoss(ctx, "u1", combat.MoveBasic)
	require.ErrorIs(t, err, command.ErrOnCooldown)

	b, err := store.GetBoss(ctx)
	require.NoError(t, err)
	require.Equal(t, 100, b.Contributions["u1"])
}

func TestStrikeBossFellAndRewards(t *testing.T) {
	svc, store, clk := newTestService(t)
	ctx := context.Background()
	mustCreate(t, svc, "u1", "Jango")
	mustCreate(t, svc, "u2", "Apoio")
	summonBoss(t, svc, store, "u1")

	for round := 0; round < 2; round++ {
		_, err := svc.StrikeBoss(ctx, "u1", combat.MoveBasic)
		require.NoError(t, err)
		_, err = svc.StrikeBoss(ctx, "u2", combat.MoveBasic)
		require.NoError(t, err)
		clk.Advance(31 * time.Second)
	}
	res, err := svc.StrikeBoss(ctx, "u1", combat.MoveBasic)
	require.NoError(t, err)
	require.True(t, res.Defeated)
	require.Equal(t, 0, res.BossHP)

	// u1 contributed 300 against u2's 200: rank 1 tier for u1, default tier
	// for u2.
	require.Len(t, res.Rewards, 2)
	require.Equal(t, "u1", res.Rewards[0].PlayerID)
	require.Equal(t, 1, res.Rewards[0].Rank)
	require.Equal(t, 500, res.Rewards[0].Money)
	require.Equal(t, 100, res.Rewards[0].XP.XPGained)
	require.Equal(t, "u2", res.Rewards[1].PlayerID)
	require.Equal(t, 2, res.Rewards[1].Rank)
	require.Equal(t, 100, res.Rewards[1].Money)

	c1, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, 600, c1.Money)
	c2, err := store.Get(ctx, "u2")
	require.NoError(t, err)
	require.Equal(t, 200, c2.Money)

	b, err := store.GetBoss(ctx)
	require.NoError(t, err)
	require.False(t, b.Active)
	require.True(t, b.Defeated())
}

func TestRunBossTickStrikesParticipants(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	mustCreate(t, svc, "u1", "Jango")
	summonBoss(t, svc, store, "u1")

	_, err := svc.StrikeBoss(ctx, "u1", combat.MoveBasic)
	require.NoError(t, err)

	hits, err := svc.RunBossTick(ctx)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, "u1", hits[0].PlayerID)
	require.Equal(t, 15, hits[0].Hit.Damage)

	c, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, 95, c.CurrentHP)
}

func TestRunBossTickTargetCap(t *testing.T) {
	svc, store, clk := newTestService(t)
	ctx := context.Background()
	for _, id := range []string{"u1", "u2", "u3"} {
		mustCreate(t, svc, id, "Cacador "+id)
	}
	summonBoss(t, svc, store, "u1")

	for _, id := range []string{"u1", "u2"} {
		_, err := svc.StrikeBoss(ctx, id, combat.MoveBasic)
		require.NoError(t, err)
	}
	clk.Advance(31 * time.Second)
	_, err := svc.StrikeBoss(ctx, "u3", combat.MoveBasic)
	require.NoError(t, err)

	// Three contributors, but one tick strikes at most two of them.
	hits, err := svc.RunBossTick(ctx)
	require.NoError(t, err)
	require.Len(t, hits, 2)
}

func TestRunBossTickKillsAtZeroHP(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	mustCreate(t, svc, "u1", "Jango")
	summonBoss(t, svc, store, "u1")

	_, err := svc.StrikeBoss(ctx, "u1", combat.MoveBasic)
	require.NoError(t, err)

	c, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	c.CurrentHP = 10
	require.NoError(t, store.Put(ctx, c))

	hits, err := svc.RunBossTick(ctx)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.True(t, hits[0].Hit.Killed)

	c, err = store.Get(ctx, "u1")
	require.NoError(t, err)
	require.True(t, c.IsDead())
	require.Equal(t, 1, c.Deaths)
}

func TestRunBossTickNoEncounter(t *testing.T) {
	svc, _, _ := newTestService(t)

	hits, err := svc.RunBossTick(context.Background())
	require.NoError(t, err)
	require.Nil(t, hits)
}
