package command

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/juancoutinhoflooxmongagua/OutlawRpg/internal/game/boss"
	"github.com/juancoutinhoflooxmongagua/OutlawRpg/internal/game/character"
	"github.com/juancoutinhoflooxmongagua/OutlawRpg/internal/game/content"
	"github.com/juancoutinhoflooxmongagua/OutlawRpg/internal/game/economy"
	"github.com/juancoutinhoflooxmongagua/OutlawRpg/internal/game/stats"
	"github.com/juancoutinhoflooxmongagua/OutlawRpg/internal/storage"
)

// requireCity rejects the command unless the character stands in a city.
func (s *Service) requireCity(locationID string) error {
	loc, ok := s.reg.Location(locationID)
	if !ok || loc.Kind != content.KindCity {
		return fmt.Errorf("%w: needs a city location", ErrWrongLocationKind)
	}
	return nil
}

// ListShop returns the items for sale, cheapest first. Only available in a
// city.
func (s *Service) ListShop(ctx context.Context, playerID string) ([]*content.ItemDef, error) {
	c, err := s.loadCharacter(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if err := s.requireCity(c.Location); err != nil {
		return nil, err
	}

	var out []*content.ItemDef
	for _, it := range s.reg.Items() {
		if it.Price > 0 {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Price != out[j].Price {
			return out[i].Price < out[j].Price
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// BuyResult reports a completed purchase.
type BuyResult struct {
	ItemID string
	Qty    int
	Total  int
	Money  int
}

// Buy purchases qty of an item from the shop. Restrictions are not checked
// at purchase time; a mismatched item simply grants no benefit.
//
// Precondition: qty >= 1.
func (s *Service) Buy(ctx context.Context, playerID, itemID string, qty int) (*BuyResult, error) {
	if qty < 1 {
		return nil, fmt.Errorf("quantity must be >= 1, got %d", qty)
	}
	unlock := s.lock(playerID)
	defer unlock()

	c, err := s.loadAlive(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if err := s.requireCity(c.Location); err != nil {
		return nil, err
	}
	it, ok := s.reg.Item(itemID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownItem, itemID)
	}

	total, err := economy.Buy(c, it, qty)
	if err != nil {
		return nil, err
	}
	if err := s.save(ctx, c); err != nil {
		return nil, err
	}
	return &BuyResult{ItemID: itemID, Qty: qty, Total: total, Money: c.Money}, nil
}

// UpgradeResult reports a purchased stat upgrade.
type UpgradeResult struct {
	Stat     economy.Stat
	Cost     int
	NewLevel int
	Money    int
}

// Upgrade buys the next level of a stat upgrade. Only available in a city.
func (s *Service) Upgrade(ctx context.Context, playerID string, stat economy.Stat) (*UpgradeResult, error) {
	unlock := s.lock(playerID)
	defer unlock()

	c, err := s.loadAlive(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if err := s.requireCity(c.Location); err != nil {
		return nil, err
	}

	cost, err := economy.Upgrade(c, stat)
	if err != nil {
		return nil, err
	}
	level := c.AttackUpgrades
	if stat == economy.StatSpecial {
		level = c.SpecialUpgrades
	}
	if err := s.save(ctx, c); err != nil {
		return nil, err
	}
	return &UpgradeResult{Stat: stat, Cost: cost, NewLevel: level, Money: c.Money}, nil
}

// UseItemResult reports the effect of a consumed item.
type UseItemResult struct {
	ItemID string
	// Healed is the HP restored by a consumable, after the healing multiplier.
	Healed int
	HP     int
	// BossSummoned is set when the item started a world boss encounter.
	BossSummoned bool
}

// UseItem consumes one unit of a usable item: a healing consumable or the
// boss summon item. Blessing items are activated through Bless instead.
func (s *Service) UseItem(ctx context.Context, playerID, itemID string) (*UseItemResult, error) {
	unlock := s.lock(playerID)
	defer unlock()

	c, err := s.loadAlive(ctx, playerID)
	if err != nil {
		return nil, err
	}
	it, ok := s.reg.Item(itemID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownItem, itemID)
	}
	if !c.HasItem(itemID) {
		return nil, fmt.Errorf("%w: %q", ErrItemNotOwned, itemID)
	}

	switch {
	case it.Heal > 0:
		st := stats.Effective(c, s.reg, s.now())
		healed := int(math.Floor(float64(it.Heal) * st.HealingMult))
		before := c.CurrentHP
		c.Heal(healed, st.MaxHP)
		c.RemoveItem(itemID, 1)
		if err := s.save(ctx, c); err != nil {
			return nil, err
		}
		return &UseItemResult{ItemID: itemID, Healed: c.CurrentHP - before, HP: c.CurrentHP}, nil

	case it.SummonsBoss:
		if err := s.summonBoss(ctx, c, itemID); err != nil {
			return nil, err
		}
		return &UseItemResult{ItemID: itemID, BossSummoned: true}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrItemNotUsable, itemID)
	}
}

// summonBoss consumes the summon item and starts a fresh encounter.
func (s *Service) summonBoss(ctx context.Context, c *character.Character, itemID string) error {
	existing, err := s.store.GetBoss(ctx)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("loading boss record: %w", err)
	}
	if existing != nil && existing.Active {
		return ErrBossActive
	}

	c.RemoveItem(itemID, 1)
	b := boss.Summon(s.reg.Boss(), c.ID, s.now())
	if err := s.store.PutBoss(ctx, b); err != nil {
		return fmt.Errorf("saving boss record: %w", err)
	}
	if err := s.save(ctx, c); err != nil {
		return err
	}
	s.log.Info("world boss summoned",
		zap.String("player", c.ID),
		zap.String("boss", b.ID),
		zap.Int("max_hp", b.MaxHP))
	return nil
}
