package command

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/juancoutinhoflooxmongagua/OutlawRpg/internal/game/character"
	"github.com/juancoutinhoflooxmongagua/OutlawRpg/internal/game/cooldown"
	"github.com/juancoutinhoflooxmongagua/OutlawRpg/internal/game/economy"
	"github.com/juancoutinhoflooxmongagua/OutlawRpg/internal/game/stats"
	"github.com/juancoutinhoflooxmongagua/OutlawRpg/internal/storage"
)

// startMoney is the cash a freshly created character begins with.
const startMoney = 100

// ProfileResult is a character record paired with its resolved stats.
type ProfileResult struct {
	Character *character.Character
	Stats     stats.Stats
}

// CreateCharacter creates a level-1 character for playerID.
//
// Precondition: name must be non-empty after trimming.
// Postcondition: On nil error, the character is persisted at the world's
// start location with the class base stats.
func (s *Service) CreateCharacter(ctx context.Context, playerID, name, classID, styleID string) (*ProfileResult, error) {
	unlock := s.lock(playerID)
	defer unlock()

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("character name must not be empty")
	}
	class, ok := s.reg.Class(classID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownClass, classID)
	}
	if _, ok := s.reg.Style(styleID); !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStyle, styleID)
	}

	now := s.now()
	c := character.New(playerID, name, classID, styleID, class.BaseAttack, class.BaseSpecial, class.BaseHP, startMoney, s.reg.StartLocation(), now)
	st := stats.Effective(c, s.reg, now)
	c.CurrentHP = st.MaxHP

	if err := s.store.Create(ctx, c); err != nil {
		if errors.Is(err, storage.ErrExists) {
			return nil, ErrCharacterExists
		}
		return nil, fmt.Errorf("creating character %s: %w", playerID, err)
	}
	s.log.Info("character created",
		zap.String("player", playerID),
		zap.String("class", classID),
		zap.String("style", styleID))
	return &ProfileResult{Character: c, Stats: st}, nil
}

// Profile returns the character record and its resolved stats.
func (s *Service) Profile(ctx context.Context, playerID string) (*ProfileResult, error) {
	c, err := s.loadCharacter(ctx, playerID)
	if err != nil {
		return nil, err
	}
	return &ProfileResult{Character: c, Stats: stats.Effective(c, s.reg, s.now())}, nil
}

// ReviveResult reports the outcome of a paid revival.
type ReviveResult struct {
	Cost      int
	CurrentHP int
	MaxHP     int
}

// Revive brings a defeated character back at a quarter of max HP for a flat
// fee. Works at any location; a character defeated in the wilderness could
// not travel to a city first.
func (s *Service) Revive(ctx context.Context, playerID string) (*ReviveResult, error) {
	unlock := s.lock(playerID)
	defer unlock()

	c, err := s.loadCharacter(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if err := s.requireReady(c, cooldown.KeyRevive); err != nil {
		return nil, err
	}

	st := stats.Effective(c, s.reg, s.now())
	if err := economy.Revive(c, st.MaxHP); err != nil {
		return nil, err
	}
	s.gate.Arm(c, cooldown.KeyRevive, s.cfg.ReviveCooldown, 1)

	if err := s.save(ctx, c); err != nil {
		return nil, err
	}
	return &ReviveResult{Cost: economy.ReviveCost, CurrentHP: c.CurrentHP, MaxHP: st.MaxHP}, nil
}

// AwayResult reports when away protection expires.
type AwayResult struct {
	Until time.Time
}

// SetAway grants PvP protection for the configured duration. Protection
// drops early if the character acts.
func (s *Service) SetAway(ctx context.Context, playerID string) (*AwayResult, error) {
	unlock := s.lock(playerID)
	defer unlock()

	c, err := s.loadAlive(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if err := s.requireReady(c, cooldown.KeyAway); err != nil {
		return nil, err
	}

	c.Status = character.StatusAway
	c.AwayUntil = s.now().Add(s.cfg.AwayDuration)
	s.gate.Arm(c, cooldown.KeyAway, s.cfg.AwayCooldown, 1)

	if err := s.save(ctx, c); err != nil {
		return nil, err
	}
	return &AwayResult{Until: c.AwayUntil}, nil
}

// AllocateResult reports the stat totals after spending a point.
type AllocateResult struct {
	Stat            economy.Stat
	BaseAttack      int
	BaseSpecial     int
	PointsRemaining int
}

// AllocatePoint spends one unspent attribute point on the chosen base stat.
func (s *Service) AllocatePoint(ctx context.Context, playerID string, stat economy.Stat) (*AllocateResult, error) {
	unlock := s.lock(playerID)
	defer unlock()

	c, err := s.loadCharacter(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if c.AttributePoints < 1 {
		return nil, ErrNoPoints
	}
	switch stat {
	case economy.StatAttack:
		c.BaseAttack++
	case economy.StatSpecial:
		c.BaseSpecial++
	default:
		return nil, fmt.Errorf("unknown stat %q", stat)
	}
	c.AttributePoints--

	if err := s.save(ctx, c); err != nil {
		return nil, err
	}
	return &AllocateResult{
		Stat:            stat,
		BaseAttack:      c.BaseAttack,
		BaseSpecial:     c.BaseSpecial,
		PointsRemaining: c.AttributePoints,
	}, nil
}
