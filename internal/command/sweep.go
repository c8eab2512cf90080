package command

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/juancoutinhoflooxmongagua/OutlawRpg/internal/game/character"
	"github.com/juancoutinhoflooxmongagua/OutlawRpg/internal/game/stats"
)

// RunSweep performs one maintenance pass over every character: +1 energy
// regen, expiry of transformations, blessings, and away protection, and an
// HP clamp against the post-expiry max. Characters that did not change are
// not rewritten. One broken record never stops the sweep; failures are
// logged per character.
func (s *Service) RunSweep(ctx context.Context) error {
	all, err := s.store.List(ctx)
	if err != nil {
		return fmt.Errorf("listing characters for sweep: %w", err)
	}

	swept := 0
	for _, snapshot := range all {
		if err := s.sweepOne(ctx, snapshot.ID); err != nil {
			s.log.Error("sweep failed for character", zap.String("player", snapshot.ID), zap.Error(err))
			continue
		}
		swept++
	}
	s.log.Debug("maintenance sweep done", zap.Int("characters", swept))
	return nil
}

// sweepOne reloads the record under the player's lock so the sweep never
// clobbers a concurrent command.
func (s *Service) sweepOne(ctx context.Context, playerID string) error {
	unlock := s.lock(playerID)
	defer unlock()

	c, err := s.loadCharacter(ctx, playerID)
	if err != nil {
		return err
	}
	now := s.now()

	changed := c.ExpireEffects(now)
	if !c.IsDead() && c.Energy < character.MaxEnergy {
		c.GainEnergy(1)
		changed = true
	}
	st := stats.Effective(c, s.reg, now)
	if c.CurrentHP > st.MaxHP {
		c.ClampHP(st.MaxHP)
		changed = true
	}

	if !changed {
		return nil
	}
	return s.save(ctx, c)
}
