// Package command implements the game's operations as plain request/response
// handlers. Each handler loads the character, validates the request, applies
// the game rules, persists the result, and returns a result struct for the
// presentation layer to render. A per-player mutex serializes commands from
// the same player so no two handlers interleave on one record.
package command

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/juancoutinhoflooxmongagua/OutlawRpg/internal/config"
	"github.com/juancoutinhoflooxmongagua/OutlawRpg/internal/game/character"
	"github.com/juancoutinhoflooxmongagua/OutlawRpg/internal/game/combat"
	"github.com/juancoutinhoflooxmongagua/OutlawRpg/internal/game/content"
	"github.com/juancoutinhoflooxmongagua/OutlawRpg/internal/game/cooldown"
	"github.com/juancoutinhoflooxmongagua/OutlawRpg/internal/game/rng"
	"github.com/juancoutinhoflooxmongagua/OutlawRpg/internal/game/stats"
	"github.com/juancoutinhoflooxmongagua/OutlawRpg/internal/storage"
)

// FlavorHook runs an enemy's optional defeat script and returns a battle-log
// line. Implementations must treat the script as untrusted.
type FlavorHook interface {
	OnDefeat(ctx context.Context, script, enemyName, playerName string) (string, error)
}

// Service holds the dependencies shared by every command handler.
type Service struct {
	store    storage.Store
	reg      *content.Registry
	src      rng.Source
	gate     *cooldown.Gate
	resolver *combat.Resolver
	flavor   FlavorHook
	log      *zap.Logger
	cfg      config.GameConfig
	now      func() time.Time

	locks playerLocks
}

// ServiceOption configures optional Service dependencies.
type ServiceOption func(*Service)

// WithClock replaces the service clock. Tests inject a fixed clock.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// WithFlavorHook wires the defeat-script runner. Nil disables flavor lines.
func WithFlavorHook(h FlavorHook) ServiceOption {
	return func(s *Service) { s.flavor = h }
}

// NewService wires a command Service.
//
// Precondition: store, reg, src, and log must be non-nil; cfg must be
// validated.
func NewService(store storage.Store, reg *content.Registry, src rng.Source, log *zap.Logger, cfg config.GameConfig, opts ...ServiceOption) *Service {
	s := &Service{
		store: store,
		reg:   reg,
		src:   src,
		log:   log,
		cfg:   cfg,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.gate = cooldown.NewGate(s.now)
	s.resolver = combat.NewResolver(src, combat.WithTurnDelay(cfg.TurnDelay))
	s.locks.m = make(map[string]*sync.Mutex)
	return s
}

// playerLocks is the per-player single-flight guard. Mutexes are created on
// first use and never removed; the map grows with the player base, which is
// bounded and small.
type playerLocks struct {
	mu sync.Mutex
	m  map[string]*sync.Mutex
}

func (l *playerLocks) get(id string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.m[id]
	if !ok {
		m = &sync.Mutex{}
		l.m[id] = m
	}
	return m
}

// lock acquires the player's mutex and returns the unlock func.
func (s *Service) lock(playerID string) func() {
	m := s.locks.get(playerID)
	m.Lock()
	return m.Unlock
}

// lockPair acquires both players' mutexes in ID order so concurrent duels
// between the same pair cannot deadlock.
func (s *Service) lockPair(a, b string) func() {
	first, second := a, b
	if second < first {
		first, second = second, first
	}
	m1 := s.locks.get(first)
	m2 := s.locks.get(second)
	m1.Lock()
	m2.Lock()
	return func() {
		m2.Unlock()
		m1.Unlock()
	}
}

// lockAll acquires every player's mutex in sorted ID order, the same order
// every multi-lock path uses.
func (s *Service) lockAll(ids []string) func() {
	sorted := make([]string, len(ids))
	copy(sorted, ids)
	sort.Strings(sorted)
	locked := make([]*sync.Mutex, 0, len(sorted))
	for _, id := range sorted {
		m := s.locks.get(id)
		m.Lock()
		locked = append(locked, m)
	}
	return func() {
		for i := len(locked) - 1; i >= 0; i-- {
			locked[i].Unlock()
		}
	}
}

// loadCharacter fetches the requesting player's record.
func (s *Service) loadCharacter(ctx context.Context, playerID string) (*character.Character, error) {
	c, err := s.store.Get(ctx, playerID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNoCharacter
	}
	if err != nil {
		return nil, fmt.Errorf("loading character %s: %w", playerID, err)
	}
	return c, nil
}

// loadAlive fetches the record and rejects defeated characters.
func (s *Service) loadAlive(ctx context.Context, playerID string) (*character.Character, error) {
	c, err := s.loadCharacter(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if c.IsDead() {
		return nil, ErrDead
	}
	return c, nil
}

// requireReady checks the action's cooldown timer.
func (s *Service) requireReady(c *character.Character, key string) error {
	if rem := s.gate.Remaining(c, key); rem > 0 {
		return &CooldownError{Action: key, Remaining: rem}
	}
	return nil
}

// clearAway drops away protection because the character acted.
func clearAway(c *character.Character) {
	if c.Status == character.StatusAway {
		c.Status = character.StatusAlive
		c.AwayUntil = time.Time{}
	}
}

// discountedCost scales an energy cost by the character's cost factor,
// flooring at 1.
func discountedCost(cost int, factor float64) int {
	d := int(math.Round(float64(cost) * factor))
	if d < 1 {
		d = 1
	}
	return d
}

// amuletItem returns the ID of an owned second-chance amulet, if any.
func (s *Service) amuletItem(c *character.Character) (string, bool) {
	ids := make([]string, 0, len(c.Inventory))
	for id := range c.Inventory {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if c.Inventory[id] <= 0 {
			continue
		}
		if it, ok := s.reg.Item(id); ok && it.SecondChance {
			return id, true
		}
	}
	return "", false
}

// playerCombatant builds the combat snapshot for a character with already
// resolved stats.
func (s *Service) playerCombatant(c *character.Character, st stats.Stats) *combat.Combatant {
	hp := c.CurrentHP
	if hp > st.MaxHP {
		hp = st.MaxHP
	}
	_, hasAmulet := s.amuletItem(c)
	return &combat.Combatant{
		ID:               c.ID,
		Kind:             combat.KindPlayer,
		Name:             c.Name,
		MaxHP:            st.MaxHP,
		CurrentHP:        hp,
		Attack:           st.Attack,
		Special:          st.Special,
		LifestealBasic:   st.LifestealBasic,
		LifestealSpecial: st.LifestealSpecial,
		EvasionChance:    st.EvasionChance,
		EvadeHealPct:     st.EvadeHealPct,
		SecondChance:     hasAmulet && !c.AmuletSpent,
	}
}

// settleCombatant copies a fight's outcome back onto the record: final HP,
// death state, and amulet consumption. Kill/death counters are advanced by
// the caller, which knows whether the defeat was PvE or PvP.
func (s *Service) settleCombatant(c *character.Character, comb *combat.Combatant) {
	c.CurrentHP = comb.CurrentHP
	if comb.SecondChanceUsed {
		c.AmuletSpent = true
		if id, ok := s.amuletItem(c); ok {
			c.RemoveItem(id, 1)
		}
	}
	if comb.IsDead() {
		c.CurrentHP = 0
		c.Status = character.StatusDead
		c.Transformation = nil
	}
}

// DropResult is one granted loot drop. DropID identifies this grant in logs
// and result renders.
type DropResult struct {
	DropID string
	ItemID string
	Qty    int
}

// rollDrops draws each loot table entry independently.
func (s *Service) rollDrops(drops []content.Drop) []DropResult {
	var out []DropResult
	for _, d := range drops {
		if !rng.Chance(s.src, d.Chance) {
			continue
		}
		out = append(out, DropResult{
			DropID: uuid.NewString(),
			ItemID: d.ItemID,
			Qty:    rng.Between(s.src, d.MinQty, d.MaxQty),
		})
	}
	return out
}

// grantDrops adds rolled drops to the inventory.
func grantDrops(c *character.Character, drops []DropResult) {
	for _, d := range drops {
		c.AddItem(d.ItemID, d.Qty)
	}
}

// save persists the record, wrapping the storage error.
func (s *Service) save(ctx context.Context, c *character.Character) error {
	if err := s.store.Put(ctx, c); err != nil {
		return fmt.Errorf("saving character %s: %w", c.ID, err)
	}
	return nil
}
