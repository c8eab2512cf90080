package command_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/juancoutinhoflooxmongagua/OutlawRpg/internal/command"
	"github.com/juancoutinhoflooxmongagua/OutlawRpg/internal/config"
	"github.com/juancoutinhoflooxmongagua/OutlawRpg/internal/game/combat"
	"github.com/juancoutinhoflooxmongagua/OutlawRpg/internal/game/content"
	"github.com/juancoutinhoflooxmongagua/OutlawRpg/internal/game/economy"
	"github.com/juancoutinhoflooxmongagua/OutlawRpg/internal/scripting"
	"github.com/juancoutinhoflooxmongagua/OutlawRpg/internal/storage/jsonfile"
)

// fixedSource makes combat fully deterministic: every Intn returns 0 (damage
// rolls land on the low end of their range) and every Float64 returns 0.99
// (no crits, no evasions).
type fixedSource struct{}

func (fixedSource) Intn(int) int     { return 0 }
func (fixedSource) Float64() float64 { return 0.99 }

// fakeClock is a mutable test clock safe for the service's goroutines.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func testRegistry(t *testing.T) *content.Registry {
	t.Helper()
	reg := content.NewRegistry()

	reg.RegisterClass(&content.ClassDef{
		ID: "swordsman", Name: "Espadachim",
		BaseAttack: 100, BaseSpecial: 40, BaseHP: 100,
		SpecialName: "Corte Cruzado", SpecialEnergyCost: 2,
		Transformations: []content.TransformationDef{
			{ID: "berserk", Name: "Berserk", EnergyCost: 3, DurationSeconds: 60, AttackMult: 1.5},
			{ID: "blessed_form", Name: "Lamina Sagrada", EnergyCost: 4, DurationSeconds: 60,
				AttackMult: 2, RequiredBlessing: "aura_sigil"},
		},
	})
	reg.RegisterStyle(&content.StyleDef{ID: "combatente", Name: "Combatente"})
	reg.RegisterStyle(&content.StyleDef{ID: "mistico", Name: "Mistico"})

	reg.RegisterItem(&content.ItemDef{ID: "potion", Name: "Pocao", Price: 50, Heal: 30})
	reg.RegisterItem(&content.ItemDef{ID: "boss_horn", Name: "Chifre", Price: 1000, SummonsBoss: true})
	reg.RegisterItem(&content.ItemDef{ID: "stone_amulet", Name: "Amuleto", Price: 200, SecondChance: true})
	reg.RegisterItem(&content.ItemDef{
		ID: "aura_sigil", Name: "Sigilo de Aura", Price: 300,
		Blessing: &content.BlessingDef{
			EnergyCost: 1, DurationSeconds: 3600,
			Effects: []content.Effect{{Kind: content.EffectAttackMult, Value: 1.2}},
		},
	})
	reg.RegisterItem(&content.ItemDef{
		ID: "night_pact", Name: "Pacto Noturno", Price: 400,
		ClassRestriction: "vampire",
		Blessing: &content.BlessingDef{
			DurationSeconds: 3600,
			Effects:         []content.Effect{{Kind: content.EffectEvasionChance, Value: 0.15}},
		},
	})

	reg.RegisterLocation(&content.LocationDef{
		ID: "city_refuge", Name: "Refugio", Kind: content.KindCity,
		Connects: []string{"forest"},
	})
	reg.RegisterLocation(&content.LocationDef{
		ID: "forest", Name: "Floresta", Kind: content.KindWilderness,
		Connects: []string{"city_refuge"},
		Enemies: []content.EnemyDef{
			{ID: "wolf", Name: "Lobo Feroz", HP: 40, Attack: 10, XP: 50, Money: 25,
				Drops:    []content.Drop{{ItemID: "potion", Chance: 1.0, MinQty: 1, MaxQty: 1}},
				OnDefeat: `return enemy .. " cai diante de " .. player`},
		},
	})

	reg.SetBoss(&content.BossDef{
		ID: "stone_colossus", Name: "Colosso de Pedra",
		MaxHP: 500, Attack: 30, SummonItem: "boss_horn",
		Rewards: []content.RewardTier{
			{Rank: 1, Money: 500, XP: 100},
			{Rank: 0, Money: 100, XP: 50},
		},
	})
	reg.SetStartLocation("city_refuge")
	return reg
}

func testGameConfig() config.GameConfig {
	return config.GameConfig{
		ContentDir:       "content",
		TurnDelay:        0,
		BossTickInterval: 45 * time.Second,
		BossMaxTargets:   2,
		SweepInterval:    time.Minute,
		AwayDuration:     3 * time.Hour,
		HuntCooldown:     30 * time.Second,
		DuelCooldown:     time.Minute,
		StrikeCooldown:   30 * time.Second,
		TravelCooldown:   10 * time.Second,
		ReviveCooldown:   time.Minute,
		SpecialCooldown:  20 * time.Second,
		AwayCooldown:     time.Hour,
	}
}

func newTestService(t *testing.T) (*command.Service, *jsonfile.Store, *fakeClock) {
	t.Helper()
	dir := t.TempDir()
	store, err := jsonfile.Open(
		filepath.Join(dir, "characters.json"),
		filepath.Join(dir, "boss.json"),
		"city_refuge", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	clk := newFakeClock()
	svc := command.NewService(store, testRegistry(t), fixedSource{}, zap.NewNop(), testGameConfig(),
		command.WithClock(clk.Now))
	return svc, store, clk
}

func mustCreate(t *testing.T, svc *command.Service, id, name string) {
	t.Helper()
	_, err := svc.CreateCharacter(context.Background(), id, name, "swordsman", "combatente")
	require.NoError(t, err)
}

func TestCreateCharacter(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	res, err := svc.CreateCharacter(ctx, "u1", "Jango", "swordsman", "combatente")
	require.NoError(t, err)
	require.Equal(t, "city_refuge", res.Character.Location)
	require.Equal(t, 110, res.Stats.MaxHP) // class HP plus level 1
	require.Equal(t, res.Stats.MaxHP, res.Character.CurrentHP)
	require.Equal(t, 100, res.Character.Money)

	_, err = svc.CreateCharacter(ctx, "u1", "Outro", "swordsman", "combatente")
	require.ErrorIs(t, err, command.ErrCharacterExists)

	_, err = svc.CreateCharacter(ctx, "u2", "X", "nope", "combatente")
	require.ErrorIs(t, err, command.ErrUnknownClass)
	_, err = svc.CreateCharacter(ctx, "u2", "X", "swordsman", "nope")
	require.ErrorIs(t, err, command.ErrUnknownStyle)
}

func TestProfileMissing(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Profile(context.Background(), "ghost")
	require.ErrorIs(t, err, command.ErrNoCharacter)
}

func TestHuntWin(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	mustCreate(t, svc, "u1", "Jango")
	_, err := svc.Travel(ctx, "u1", "forest")
	require.NoError(t, err)

	res, err := svc.Hunt(ctx, "u1", combat.MoveBasic)
	require.NoError(t, err)
	require.True(t, res.Won)
	require.Equal(t, "wolf", res.EnemyID)
	require.Equal(t, 25, res.Money)
	require.Equal(t, 50, res.XP.XPGained)
	require.Len(t, res.Drops, 1)
	require.Equal(t, "potion", res.Drops[0].ItemID)

	c, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, 125, c.Money)
	require.Equal(t, 50, c.XP)
	require.Equal(t, 1, c.Inventory["potion"])
}

func TestHuntFlavorLine(t *testing.T) {
	dir := t.TempDir()
	store, err := jsonfile.Open(
		filepath.Join(dir, "characters.json"),
		filepath.Join(dir, "boss.json"),
		"city_refuge", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	clk := newFakeClock()
	svc := command.NewService(store, testRegistry(t), fixedSource{}, zap.NewNop(), testGameConfig(),
		command.WithClock(clk.Now),
		command.WithFlavorHook(scripting.NewRunner(zap.NewNop(), 0)))

	ctx := context.Background()
	mustCreate(t, svc, "u1", "Jango")
	_, err = svc.Travel(ctx, "u1", "forest")
	require.NoError(t, err)

	res, err := svc.Hunt(ctx, "u1", combat.MoveBasic)
	require.NoError(t, err)
	require.Equal(t, "Lobo Feroz cai diante de Jango", res.Flavor)
}

func TestHuntCooldown(t *testing.T) {
	svc, _, clk := newTestService(t)
	ctx := context.Background()
	mustCreate(t, svc, "u1", "Jango")
	_, err := svc.Travel(ctx, "u1", "forest")
	require.NoError(t, err)

	_, err = svc.Hunt(ctx, "u1", combat.MoveBasic)
	require.NoError(t, err)

	_, err = svc.Hunt(ctx, "u1", combat.MoveBasic)
	require.ErrorIs(t, err, command.ErrOnCooldown)

	clk.Advance(31 * time.Second)
	_, err = svc.Hunt(ctx, "u1", combat.MoveBasic)
	require.NoError(t, err)
}

func TestHuntRequiresWilderness(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	mustCreate(t, svc, "u1", "Jango")

	_, err := svc.Hunt(ctx, "u1", combat.MoveBasic)
	require.ErrorIs(t, err, command.ErrWrongLocationKind)
}

func TestHuntSpecialEnergyRejectedBeforeMutation(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	mustCreate(t, svc, "u1", "Jango")
	_, err := svc.Travel(ctx, "u1", "forest")
	require.NoError(t, err)

	// Drain energy below the special cost.
	c, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	c.Energy = 1
	require.NoError(t, store.Put(ctx, c))

	_, err = svc.Hunt(ctx, "u1", combat.MoveSpecial)
	require.ErrorIs(t, err, command.ErrInsufficientEnergy)

	// Nothing was persisted: energy intact, no hunt cooldown armed.
	c, err = store.Get(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, 1, c.Energy)
	require.Empty(t, c.Cooldowns)
}

func TestHuntSpecialSpendsDiscountedEnergy(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	mustCreate(t, svc, "u1", "Jango")
	_, err := svc.Travel(ctx, "u1", "forest")
	require.NoError(t, err)

	_, err = svc.Hunt(ctx, "u1", combat.MoveSpecial)
	require.NoError(t, err)

	c, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, 8, c.Energy) // cost 2, no discounts
	require.Contains(t, c.Cooldowns, "special")
}

func TestDuelFatalSettlement(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	mustCreate(t, svc, "u1", "Jango")
	mustCreate(t, svc, "u2", "Alvo")

	res, err := svc.Duel(ctx, "u1", "u2", combat.MoveBasic)
	require.NoError(t, err)
	require.Equal(t, "u1", res.WinnerID)
	require.Equal(t, "u2", res.LoserID)
	// Victim holds 100 money and no bounty: plunder is 20.
	require.Equal(t, 20, res.Settlement.Plunder)

	killer, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, 120, killer.Money)
	require.Equal(t, 20, killer.Bounty)
	require.Equal(t, 1, killer.Kills)

	victim, err := store.Get(ctx, "u2")
	require.NoError(t, err)
	require.True(t, victim.IsDead())
	require.Equal(t, 80, victim.Money)
	require.Equal(t, 0, victim.Bounty)
	require.Equal(t, 1, victim.Deaths)
}

func TestDuelGuards(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	mustCreate(t, svc, "u1", "Jango")
	mustCreate(t, svc, "u2", "Alvo")
	mustCreate(t, svc, "u3", "Longe")

	_, err := svc.Duel(ctx, "u1", "u1", combat.MoveBasic)
	require.ErrorIs(t, err, command.ErrTargetSelf)

	_, err = svc.Duel(ctx, "u1", "ghost", combat.MoveBasic)
	require.ErrorIs(t, err, command.ErrTargetNotFound)

	_, err = svc.Travel(ctx, "u3", "forest")
	require.NoError(t, err)
	_, err = svc.Duel(ctx, "u1", "u3", combat.MoveBasic)
	require.ErrorIs(t, err, command.ErrDifferentLocation)

	_, err = svc.SetAway(ctx, "u2")
	require.NoError(t, err)
	_, err = svc.Duel(ctx, "u1", "u2", combat.MoveBasic)
	require.ErrorIs(t, err, command.ErrTargetAway)
}

func TestDuelTargetDead(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	mustCreate(t, svc, "u1", "Jango")
	mustCreate(t, svc, "u2", "Alvo")

	_, err := svc.Duel(ctx, "u1", "u2", combat.MoveBasic)
	require.NoError(t, err)

	_, err = svc.Duel(ctx, "u1", "u2", combat.MoveBasic)
	require.ErrorIs(t, err, command.ErrTargetDead)
}

func TestTravel(t *testing.T) {
	svc, store, clk := newTestService(t)
	ctx := context.Background()
	mustCreate(t, svc, "u1", "Jango")

	res, err := svc.Travel(ctx, "u1", "forest")
	require.NoError(t, err)
	require.Equal(t, "forest", res.Location.ID)

	c, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, "forest", c.Location)

	// Travel cooldown gates the way back.
	_, err = svc.Travel(ctx, "u1", "city_refuge")
	require.ErrorIs(t, err, command.ErrOnCooldown)

	clk.Advance(11 * time.Second)
	_, err = svc.Travel(ctx, "u1", "city_refuge")
	require.NoError(t, err)

	_, err = svc.Travel(ctx, "u1", "nowhere")
	require.ErrorIs(t, err, command.ErrUnknownLocation)
	clk.Advance(11 * time.Second)
	_, err = svc.Travel(ctx, "u1", "city_refuge")
	require.ErrorIs(t, err, command.ErrNotAdjacent)
}

func TestReviveFlow(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	mustCreate(t, svc, "u1", "Jango")
	mustCreate(t, svc, "u2", "Alvo")

	_, err := svc.Revive(ctx, "u2")
	require.ErrorIs(t, err, economy.ErrNotDead)

	_, err = svc.Duel(ctx, "u1", "u2", combat.MoveBasic)
	require.NoError(t, err)

	res, err := svc.Revive(ctx, "u2")
	require.NoError(t, err)
	require.Equal(t, economy.ReviveCost, res.Cost)
	require.Equal(t, 27, res.CurrentHP) // a quarter of 110

	c, err := store.Get(ctx, "u2")
	require.NoError(t, err)
	require.False(t, c.IsDead())
	require.Equal(t, 80-economy.ReviveCost, c.Money)
}

func TestAllocatePoint(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	mustCreate(t, svc, "u1", "Jango")

	_, err := svc.AllocatePoint(ctx, "u1", economy.StatAttack)
	require.ErrorIs(t, err, command.ErrNoPoints)

	c, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	c.AttributePoints = 2
	require.NoError(t, store.Put(ctx, c))

	res, err := svc.AllocatePoint(ctx, "u1", economy.StatAttack)
	require.NoError(t, err)
	require.Equal(t, 101, res.BaseAttack)
	require.Equal(t, 1, res.PointsRemaining)

	res, err = svc.AllocatePoint(ctx, "u1", economy.StatSpecial)
	require.NoError(t, err)
	require.Equal(t, 41, res.BaseSpecial)
	require.Equal(t, 0, res.PointsRemaining)
}

func TestShopAndUpgradeCityGate(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	mustCreate(t, svc, "u1", "Jango")
	_, err := svc.Travel(ctx, "u1", "forest")
	require.NoError(t, err)

	_, err = svc.ListShop(ctx, "u1")
	require.ErrorIs(t, err, command.ErrWrongLocationKind)
	_, err = svc.Buy(ctx, "u1", "potion", 1)
	require.ErrorIs(t, err, command.ErrWrongLocationKind)
	_, err = svc.Upgrade(ctx, "u1", economy.StatAttack)
	require.ErrorIs(t, err, command.ErrWrongLocationKind)
}

func TestBuyAndUseItem(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	mustCreate(t, svc, "u1", "Jango")

	res, err := svc.Buy(ctx, "u1", "potion", 2)
	require.NoError(t, err)
	require.Equal(t, 100, res.Total)
	require.Equal(t, 0, res.Money)

	_, err = svc.Buy(ctx, "u1", "potion", 1)
	require.ErrorIs(t, err, economy.ErrInsufficientFunds)

	// Take damage, then drink.
	c, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	c.CurrentHP = 50
	require.NoError(t, store.Put(ctx, c))

	use, err := svc.UseItem(ctx, "u1", "potion")
	require.NoError(t, err)
	require.Equal(t, 30, use.Healed)
	require.Equal(t, 80, use.HP)

	c, err = store.Get(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, 1, c.Inventory["potion"])
}

func TestUseItemGuards(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	mustCreate(t, svc, "u1", "Jango")

	_, err := svc.UseItem(ctx, "u1", "nope")
	require.ErrorIs(t, err, command.ErrUnknownItem)
	_, err = svc.UseItem(ctx, "u1", "potion")
	require.ErrorIs(t, err, command.ErrItemNotOwned)
}

func TestUpgradeThroughShop(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	mustCreate(t, svc, "u1", "Jango")

	res, err := svc.Upgrade(ctx, "u1", economy.StatAttack)
	require.NoError(t, err)
	require.Equal(t, 100, res.Cost)
	require.Equal(t, 1, res.NewLevel)
	require.Equal(t, 0, res.Money)

	_, err = svc.Upgrade(ctx, "u1", economy.StatAttack)
	require.ErrorIs(t, err, economy.ErrInsufficientFunds)

	c, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, 1, c.AttackUpgrades)
}

func TestSweepRegeneratesEnergyAndExpiresEffects(t *testing.T) {
	svc, store, clk := newTestService(t)
	ctx := context.Background()
	mustCreate(t, svc, "u1", "Jango")

	_, err := svc.Transform(ctx, "u1", "berserk")
	require.NoError(t, err)

	c, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, 7, c.Energy)
	require.NotNil(t, c.Transformation)

	clk.Advance(2 * time.Minute) // past the form's 60s duration
	require.NoError(t, svc.RunSweep(ctx))

	c, err = store.Get(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, 8, c.Energy)
	require.Nil(t, c.Transformation)
}
