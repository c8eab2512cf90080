package command

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/juancoutinhoflooxmongagua/OutlawRpg/internal/game/character"
	"github.com/juancoutinhoflooxmongagua/OutlawRpg/internal/game/combat"
	"github.com/juancoutinhoflooxmongagua/OutlawRpg/internal/game/content"
	"github.com/juancoutinhoflooxmongagua/OutlawRpg/internal/game/cooldown"
	"github.com/juancoutinhoflooxmongagua/OutlawRpg/internal/game/economy"
	"github.com/juancoutinhoflooxmongagua/OutlawRpg/internal/game/stats"
)

// chargeSpecial validates and deducts the post-discount energy cost of a
// special opening move. Rejection happens before any mutation: a request the
// character cannot afford never downgrades to a basic attack.
func (s *Service) chargeSpecial(c *character.Character, st stats.Stats) (int, error) {
	class, ok := s.reg.Class(c.Class)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownClass, c.Class)
	}
	if err := s.requireReady(c, cooldown.KeySpecial); err != nil {
		return 0, err
	}
	cost := discountedCost(class.SpecialEnergyCost, st.CostFactor)
	if !c.SpendEnergy(cost) {
		return 0, fmt.Errorf("%w: need %d, have %d", ErrInsufficientEnergy, cost, c.Energy)
	}
	return cost, nil
}

func enemyCombatant(e *content.EnemyDef) *combat.Combatant {
	return &combat.Combatant{
		ID:        e.ID,
		Kind:      combat.KindEnemy,
		Name:      e.Name,
		MaxHP:     e.HP,
		CurrentHP: e.HP,
		Attack:    e.Attack,
		Defense:   e.Defense,
	}
}

// HuntResult reports one PvE encounter.
type HuntResult struct {
	EnemyID   string
	EnemyName string
	Outcome   combat.Outcome
	Won       bool

	XP     stats.LevelUpResult
	Money  int
	Drops  []DropResult
	Flavor string
	Energy int
	HP     int
	MaxHP  int
}

// Hunt fights a random enemy of the character's current wilderness location.
//
// Precondition: opening is MoveBasic or MoveSpecial.
// Postcondition: On nil error, HP, energy, cooldowns, and rewards are
// persisted. A context cancellation mid-fight persists nothing.
func (s *Service) Hunt(ctx context.Context, playerID string, opening combat.Move) (*HuntResult, error) {
	unlock := s.lock(playerID)
	defer unlock()

	c, err := s.loadAlive(ctx, playerID)
	if err != nil {
		return nil, err
	}
	loc, ok := s.reg.Location(c.Location)
	if !ok || loc.Kind != content.KindWilderness {
		return nil, fmt.Errorf("%w: hunting needs a wilderness location", ErrWrongLocationKind)
	}
	if err := s.requireReady(c, cooldown.KeyHunt); err != nil {
		return nil, err
	}

	now := s.now()
	st := stats.Effective(c, s.reg, now)
	usedSpecial := opening == combat.MoveSpecial
	if usedSpecial {
		if _, err := s.chargeSpecial(c, st); err != nil {
			return nil, err
		}
	}
	clearAway(c)

	enemy := &loc.Enemies[s.src.Intn(len(loc.Enemies))]
	player := s.playerCombatant(c, st)
	foe := enemyCombatant(enemy)

	outcome, err := s.resolver.Fight(ctx, player, foe, opening)
	if err != nil {
		return nil, fmt.Errorf("hunt interrupted: %w", err)
	}

	s.settleCombatant(c, player)
	s.gate.Arm(c, cooldown.KeyHunt, s.cfg.HuntCooldown, st.CostFactor)
	if usedSpecial {
		s.gate.Arm(c, cooldown.KeySpecial, s.cfg.SpecialCooldown, st.CostFactor)
	}

	res := &HuntResult{
		EnemyID:   enemy.ID,
		EnemyName: enemy.Name,
		Outcome:   outcome,
		Won:       outcome.AttackerWon,
		MaxHP:     st.MaxHP,
	}

	if outcome.AttackerWon {
		res.XP = stats.GrantXP(c, enemy.XP, st.XPMult)
		if res.XP.LevelsGained > 0 {
			// Leveling raises max HP and fully heals.
			st = stats.Effective(c, s.reg, now)
			c.CurrentHP = st.MaxHP
			res.MaxHP = st.MaxHP
		}
		c.Money += enemy.Money
		res.Money = enemy.Money
		res.Drops = s.rollDrops(enemy.Drops)
		grantDrops(c, res.Drops)
		res.Flavor = s.runDefeatHook(ctx, enemy, c.Name)
	} else {
		c.Deaths++
	}
	res.Energy = c.Energy
	res.HP = c.CurrentHP

	if err := s.save(ctx, c); err != nil {
		return nil, err
	}
	s.log.Info("hunt resolved",
		zap.String("encounter", outcome.EncounterID),
		zap.String("player", playerID),
		zap.String("enemy", enemy.ID),
		zap.Bool("won", res.Won),
		zap.Int("turns", outcome.Turns))
	return res, nil
}

// runDefeatHook executes the enemy's optional defeat script. Failures are
// logged and produce no flavor line; combat state is already settled.
func (s *Service) runDefeatHook(ctx context.Context, e *content.EnemyDef, playerName string) string {
	if e.OnDefeat == "" || s.flavor == nil {
		return ""
	}
	line, err := s.flavor.OnDefeat(ctx, e.OnDefeat, e.Name, playerName)
	if err != nil {
		s.log.Warn("defeat script failed", zap.String("enemy", e.ID), zap.Error(err))
		return ""
	}
	return line
}

// DuelResult reports one PvP encounter.
type DuelResult struct {
	Outcome  combat.Outcome
	WinnerID string
	LoserID  string
	// Settlement is the money movement applied to the loser's death.
	Settlement economy.Settlement
}

// Duel fights another player's character. Both must be alive, in the same
// location, and the target must not be under away protection. A fatal
// outcome applies the bounty settlement.
func (s *Service) Duel(ctx context.Context, playerID, targetID string, opening combat.Move) (*DuelResult, error) {
	if playerID == targetID {
		return nil, ErrTargetSelf
	}
	unlock := s.lockPair(playerID, targetID)
	defer unlock()

	attacker, err := s.loadAlive(ctx, playerID)
	if err != nil {
		return nil, err
	}
	defender, err := s.store.Get(ctx, targetID)
	if err != nil {
		return nil, ErrTargetNotFound
	}
	now := s.now()
	if defender.IsDead() {
		return nil, ErrTargetDead
	}
	if defender.IsAway(now) {
		return nil, ErrTargetAway
	}
	if attacker.Location != defender.Location {
		return nil, ErrDifferentLocation
	}
	if err := s.requireReady(attacker, cooldown.KeyDuel); err != nil {
		return nil, err
	}

	atkStats := stats.Effective(attacker, s.reg, now)
	defStats := stats.Effective(defender, s.reg, now)
	usedSpecial := opening == combat.MoveSpecial
	if usedSpecial {
		if _, err := s.chargeSpecial(attacker, atkStats); err != nil {
			return nil, err
		}
	}
	clearAway(attacker)

	atkComb := s.playerCombatant(attacker, atkStats)
	defComb := s.playerCombatant(defender, defStats)

	outcome, err := s.resolver.Fight(ctx, atkComb, defComb, opening)
	if err != nil {
		return nil, fmt.Errorf("duel interrupted: %w", err)
	}

	s.settleCombatant(attacker, atkComb)
	s.settleCombatant(defender, defComb)
	s.gate.Arm(attacker, cooldown.KeyDuel, s.cfg.DuelCooldown, atkStats.CostFactor)
	if usedSpecial {
		s.gate.Arm(attacker, cooldown.KeySpecial, s.cfg.SpecialCooldown, atkStats.CostFactor)
	}

	// The turn loop only ends when one side is dead, so exactly one
	// settlement applies.
	res := &DuelResult{Outcome: outcome}
	if defComb.IsDead() {
		res.WinnerID, res.LoserID = playerID, targetID
		res.Settlement = economy.SettleKill(attacker, defender)
	} else {
		res.WinnerID, res.LoserID = targetID, playerID
		res.Settlement = economy.SettleKill(defender, attacker)
	}

	if err := s.save(ctx, attacker); err != nil {
		return nil, err
	}
	if err := s.save(ctx, defender); err != nil {
		return nil, err
	}
	s.log.Info("duel resolved",
		zap.String("encounter", outcome.EncounterID),
		zap.String("attacker", playerID),
		zap.String("defender", targetID),
		zap.String("winner", res.WinnerID))
	return res, nil
}
