package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/juancoutinhoflooxmongagua/OutlawRpg/internal/game/boss"
	"github.com/juancoutinhoflooxmongagua/OutlawRpg/internal/game/character"
	"github.com/juancoutinhoflooxmongagua/OutlawRpg/internal/storage"
	"github.com/juancoutinhoflooxmongagua/OutlawRpg/internal/storage/postgres"
	"github.com/juancoutinhoflooxmongagua/OutlawRpg/internal/testutil"
)

func newStore(t *testing.T) *postgres.Store {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	pc := testutil.NewPostgresContainer(t)
	pc.ApplyMigrations(t)
	return postgres.NewStore(pc.RawPool)
}

func sampleCharacter(id string) *character.Character {
	now := time.Now().UTC().Truncate(time.Microsecond)
	c := character.New(id, "Teste", "swordsman", "combatente", 10, 20, 100, 100, "city_refuge", now)
	c.AddItem("potion", 3)
	c.Cooldowns["hunt"] = now.Add(30 * time.Second)
	c.ActivateBlessing("aura_sigil", now.Add(10*time.Minute))
	return c
}

func TestCharacterCreateGet(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	c := sampleCharacter("u1")
	require.NoError(t, s.Create(ctx, c))

	got, err := s.Get(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, c.Name, got.Name)
	require.Equal(t, c.Class, got.Class)
	require.Equal(t, 3, got.Inventory["potion"])
	require.WithinDuration(t, c.Cooldowns["hunt"], got.Cooldowns["hunt"], time.Millisecond)
	require.WithinDuration(t, c.Blessings["aura_sigil"], got.Blessings["aura_sigil"], time.Millisecond)
}

func TestCharacterCreateDuplicate(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, sampleCharacter("u1")))
	require.ErrorIs(t, s.Create(ctx, sampleCharacter("u1")), storage.ErrExists)
}

func TestCharacterGetMissing(t *testing.T) {
	s := newStore(t)
	_, err := s.Get(context.Background(), "ghost")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCharacterPutUpsert(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	c := sampleCharacter("u1")
	require.NoError(t, s.Put(ctx, c)) // insert path

	c.Money = 999
	c.Transformation = &character.ActiveTransformation{ID: "berserk", ExpiresAt: time.Now().UTC().Add(time.Minute)}
	require.NoError(t, s.Put(ctx, c)) // update path

	got, err := s.Get(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, 999, got.Money)
	require.NotNil(t, got.Transformation)
	require.Equal(t, "berserk", got.Transformation.ID)
}

func TestCharacterDelete(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, sampleCharacter("u1")))
	require.NoError(t, s.Delete(ctx, "u1"))
	require.ErrorIs(t, s.Delete(ctx, "u1"), storage.ErrNotFound)
}

func TestCharacterList(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, sampleCharacter("u1")))
	require.NoError(t, s.Create(ctx, sampleCharacter("u2")))

	all, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestBossRoundtrip(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	_, err := s.GetBoss(ctx)
	require.ErrorIs(t, err, storage.ErrNotFound)

	b := &boss.Boss{
		ID:            "stone_colossus",
		Active:        true,
		MaxHP:         5000,
		CurrentHP:     4100,
		SummonedBy:    "u1",
		SummonedAt:    time.Now().UTC().Truncate(time.Microsecond),
		Contributions: map[string]int{"u1": 600, "u2": 300},
	}
	require.NoError(t, s.PutBoss(ctx, b))

	got, err := s.GetBoss(ctx)
	require.NoError(t, err)
	require.Equal(t, 4100, got.CurrentHP)
	require.Equal(t, 600, got.Contributions["u1"])

	b.CurrentHP = 0
	b.Active = false
	require.NoError(t, s.PutBoss(ctx, b)) // upsert keeps the singleton row

	got, err = s.GetBoss(ctx)
	require.NoError(t, err)
	require.False(t, got.Active)
	require.True(t, got.Defeated())
}
