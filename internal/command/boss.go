package command

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/juancoutinhoflooxmongagua/OutlawRpg/internal/game/boss"
	"github.com/juancoutinhoflooxmongagua/OutlawRpg/internal/game/character"
	"github.com/juancoutinhoflooxmongagua/OutlawRpg/internal/game/combat"
	"github.com/juancoutinhoflooxmongagua/OutlawRpg/internal/game/cooldown"
	"github.com/juancoutinhoflooxmongagua/OutlawRpg/internal/game/stats"
	"github.com/juancoutinhoflooxmongagua/OutlawRpg/internal/storage"
)

func (s *Service) bossCombatant(b *boss.Boss) *combat.Combatant {
	def := s.reg.Boss()
	return &combat.Combatant{
		ID:        b.ID,
		Kind:      combat.KindBoss,
		Name:      def.Name,
		MaxHP:     b.MaxHP,
		CurrentHP: b.CurrentHP,
		Attack:    def.Attack,
	}
}

// RewardGrant is one player's payout from a defeated world boss.
type RewardGrant struct {
	PlayerID string
	Rank     int
	Money    int
	XP       stats.LevelUpResult
	Items    []DropResult
}

// StrikeResult reports one player hit against the world boss.
type StrikeResult struct {
	Hit       combat.HitResult
	BossHP    int
	BossMaxHP int
	Defeated  bool
	// Rewards is populated only on the strike that felled the boss, ordered
	// by contribution rank.
	Rewards []RewardGrant
}

// StrikeBoss lands one hit on the active world boss and credits the damage
// contribution. The boss does not counter here; it retaliates on its
// periodic tick. The felling strike finalizes the encounter into ranked
// rewards for every contributor.
func (s *Service) StrikeBoss(ctx context.Context, playerID string, move combat.Move) (*StrikeResult, error) {
	res, b, err := s.strikeLocked(ctx, playerID, move)
	if err != nil {
		return nil, err
	}
	if res.Defeated {
		// Reward application locks each participant individually, so the
		// striker's own lock must already be released.
		res.Rewards = s.applyBossRewards(ctx, b)
	}
	return res, nil
}

// strikeLocked performs the strike under the striker's lock and persists the
// character and boss records.
func (s *Service) strikeLocked(ctx context.Context, playerID string, move combat.Move) (*StrikeResult, *boss.Boss, error) {
	unlock := s.lock(playerID)
	defer unlock()

	c, err := s.loadAlive(ctx, playerID)
	if err != nil {
		return nil, nil, err
	}
	b, err := s.store.GetBoss(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil, ErrBossInactive
	}
	if err != nil {
		return nil, nil, fmt.Errorf("loading boss record: %w", err)
	}
	if !b.Active {
		return nil, nil, ErrBossInactive
	}
	if err := s.requireReady(c, cooldown.KeyBossStrike); err != nil {
		return nil, nil, err
	}

	st := stats.Effective(c, s.reg, s.now())
	usedSpecial := move == combat.MoveSpecial
	if usedSpecial {
		if _, err := s.chargeSpecial(c, st); err != nil {
			return nil, nil, err
		}
	}
	clearAway(c)

	player := s.playerCombatant(c, st)
	bossComb := s.bossCombatant(b)
	hit := s.resolver.Strike(player, bossComb, move)

	// Lifesteal may have healed the striker.
	c.CurrentHP = player.CurrentHP
	defeated := b.RecordHit(playerID, hit.Damage)
	s.gate.Arm(c, cooldown.KeyBossStrike, s.cfg.StrikeCooldown, st.CostFactor)
	if usedSpecial {
		s.gate.Arm(c, cooldown.KeySpecial, s.cfg.SpecialCooldown, st.CostFactor)
	}

	if err := s.save(ctx, c); err != nil {
		return nil, nil, err
	}
	if err := s.store.PutBoss(ctx, b); err != nil {
		return nil, nil, fmt.Errorf("saving boss record: %w", err)
	}
	s.log.Info("boss struck",
		zap.String("player", playerID),
		zap.Int("damage", hit.Damage),
		zap.Int("boss_hp", b.CurrentHP),
		zap.Bool("defeated", defeated))

	return &StrikeResult{
		Hit:       hit,
		BossHP:    b.CurrentHP,
		BossMaxHP: b.MaxHP,
		Defeated:  defeated,
	}, b, nil
}

// applyBossRewards pays out the finalized encounter. Per-player failures are
// logged and skipped so one broken record cannot block everyone's rewards.
func (s *Service) applyBossRewards(ctx context.Context, b *boss.Boss) []RewardGrant {
	def := s.reg.Boss()
	rewards := boss.Rewards(def, b.Ranking())
	grants := make([]RewardGrant, 0, len(rewards))

	for _, r := range rewards {
		grant, err := s.applyReward(ctx, r)
		if err != nil {
			s.log.Error("applying boss reward",
				zap.String("player", r.PlayerID),
				zap.Int("rank", r.Rank),
				zap.Error(err))
			continue
		}
		grants = append(grants, grant)
	}
	return grants
}

func (s *Service) applyReward(ctx context.Context, r boss.Reward) (RewardGrant, error) {
	unlock := s.lock(r.PlayerID)
	defer unlock()

	c, err := s.loadCharacter(ctx, r.PlayerID)
	if err != nil {
		return RewardGrant{}, err
	}
	st := stats.Effective(c, s.reg, s.now())

	grant := RewardGrant{PlayerID: r.PlayerID, Rank: r.Rank, Money: r.Money}
	c.Money += r.Money
	grant.XP = stats.GrantXP(c, r.XP, st.XPMult)
	if grant.XP.LevelsGained > 0 {
		c.CurrentHP = stats.Effective(c, s.reg, s.now()).MaxHP
	}
	grant.Items = s.rollDrops(r.Items)
	grantDrops(c, grant.Items)

	if err := s.save(ctx, c); err != nil {
		return RewardGrant{}, err
	}
	return grant, nil
}

// BossTickHit is one participant struck by the periodic boss attack.
type BossTickHit struct {
	PlayerID string
	Hit      combat.HitResult
}

// RunBossTick applies one round of boss retaliation: up to the configured
// number of living contributors each take one hit. Away protection exempts
// a contributor from the draw. Returns nil when no
// encounter is active. Per-character persistence failures are logged and do
// not abort the round.
func (s *Service) RunBossTick(ctx context.Context) ([]BossTickHit, error) {
	b, err := s.store.GetBoss(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading boss record: %w", err)
	}
	if !b.Active {
		return nil, nil
	}

	ids := make([]string, 0, len(b.Contributions))
	for id := range b.Contributions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	unlock := s.lockAll(ids)
	defer unlock()

	now := s.now()
	chars := make(map[string]*character.Character, len(ids))
	combs := make([]*combat.Combatant, 0, len(ids))
	for _, id := range ids {
		c, err := s.loadCharacter(ctx, id)
		if err != nil {
			s.log.Warn("boss tick: skipping participant", zap.String("player", id), zap.Error(err))
			continue
		}
		if c.IsDead() || c.IsAway(now) {
			continue
		}
		chars[id] = c
		combs = append(combs, s.playerCombatant(c, stats.Effective(c, s.reg, now)))
	}
	if len(combs) == 0 {
		return nil, nil
	}

	bossComb := s.bossCombatant(b)
	hits := s.resolver.BossTickRound(bossComb, combs, s.cfg.BossMaxTargets)

	out := make([]BossTickHit, 0, len(hits))
	for _, comb := range combs {
		var hit *combat.HitResult
		for i := range hits {
			if hits[i].TargetID == comb.ID {
				hit = &hits[i]
				break
			}
		}
		if hit == nil {
			continue
		}
		c := chars[comb.ID]
		s.settleCombatant(c, comb)
		if c.IsDead() {
			c.Deaths++
		}
		if err := s.save(ctx, c); err != nil {
			s.log.Error("boss tick: saving participant", zap.String("player", c.ID), zap.Error(err))
			continue
		}
		out = append(out, BossTickHit{PlayerID: c.ID, Hit: *hit})
	}
	s.log.Debug("boss tick resolved", zap.Int("targets", len(out)))
	return out, nil
}
