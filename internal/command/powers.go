package command

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/juancoutinhoflooxmongagua/OutlawRpg/internal/game/character"
	"github.com/juancoutinhoflooxmongagua/OutlawRpg/internal/game/content"
	"github.com/juancoutinhoflooxmongagua/OutlawRpg/internal/game/cooldown"
	"github.com/juancoutinhoflooxmongagua/OutlawRpg/internal/game/stats"
)

// TransformResult reports an assumed combat form.
type TransformResult struct {
	TransformationID string
	ExpiresAt        time.Time
	EnergyCost       int
	Stats            stats.Stats
}

// Transform assumes one of the character's class forms for its duration.
// At most one form is active at a time; blessed forms require their
// prerequisite blessing to be active first.
func (s *Service) Transform(ctx context.Context, playerID, transformationID string) (*TransformResult, error) {
	unlock := s.lock(playerID)
	defer unlock()

	c, err := s.loadAlive(ctx, playerID)
	if err != nil {
		return nil, err
	}
	class, ok := s.reg.Class(c.Class)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownClass, c.Class)
	}
	tr, ok := class.Transformation(transformationID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTransformation, transformationID)
	}

	now := s.now()
	if c.ActiveTransformationID(now) != "" {
		return nil, ErrAlreadyTransformed
	}
	if err := s.requireReady(c, cooldown.KeyTransform); err != nil {
		return nil, err
	}
	if tr.RequiredBlessing != "" && !c.BlessingActive(tr.RequiredBlessing, now) {
		return nil, fmt.Errorf("%w: %q", ErrBlessingRequired, tr.RequiredBlessing)
	}

	st := stats.Effective(c, s.reg, now)
	cost := 0
	if tr.EnergyCost > 0 {
		cost = discountedCost(tr.EnergyCost, st.CostFactor)
		if !c.SpendEnergy(cost) {
			return nil, fmt.Errorf("%w: need %d, have %d", ErrInsufficientEnergy, cost, c.Energy)
		}
	}

	c.Transformation = &character.ActiveTransformation{
		ID:        transformationID,
		ExpiresAt: now.Add(tr.Duration()),
	}
	// Re-transforming unlocks when the current form would have expired.
	s.gate.Arm(c, cooldown.KeyTransform, tr.Duration(), 1)

	if err := s.save(ctx, c); err != nil {
		return nil, err
	}
	s.log.Info("transformation assumed",
		zap.String("player", playerID),
		zap.String("form", transformationID))
	return &TransformResult{
		TransformationID: transformationID,
		ExpiresAt:        c.Transformation.ExpiresAt,
		EnergyCost:       cost,
		Stats:            stats.Effective(c, s.reg, now),
	}, nil
}

// BlessResult reports an activated blessing.
type BlessResult struct {
	ItemID     string
	ExpiresAt  time.Time
	EnergyCost int
}

// Bless consumes one blessing item from the inventory and activates its
// timed buff. Class- and style-restricted blessings are enforced at
// activation. Re-blessing before expiry extends the window forward.
func (s *Service) Bless(ctx context.Context, playerID, itemID string) (*BlessResult, error) {
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
	if it.Blessing == nil {
		return nil, fmt.Errorf("%w: %q is not a blessing", ErrItemNotUsable, itemID)
	}
	if !c.HasItem(itemID) {
		return nil, fmt.Errorf("%w: %q", ErrItemNotOwned, itemID)
	}
	if !blessingMatches(c, it) {
		return nil, fmt.Errorf("%w: %q", ErrRestrictionMismatch, itemID)
	}

	now := s.now()
	st := stats.Effective(c, s.reg, now)
	cost := 0
	if it.Blessing.EnergyCost > 0 {
		cost = discountedCost(it.Blessing.EnergyCost, st.CostFactor)
		if !c.SpendEnergy(cost) {
			return nil, fmt.Errorf("%w: need %d, have %d", ErrInsufficientEnergy, cost, c.Energy)
		}
	}

	c.RemoveItem(itemID, 1)
	c.ActivateBlessing(itemID, now.Add(it.Blessing.Duration()))

	if err := s.save(ctx, c); err != nil {
		return nil, err
	}
	s.log.Info("blessing activated",
		zap.String("player", playerID),
		zap.String("item", itemID))
	return &BlessResult{ItemID: itemID, ExpiresAt: c.Blessings[itemID], EnergyCost: cost}, nil
}

// blessingMatches reports whether c satisfies the item's class and style
// restrictions.
func blessingMatches(c *character.Character, it *content.ItemDef) bool {
	if it.ClassRestriction != "" && it.ClassRestriction != c.Class {
		return false
	}
	if it.StyleRestriction != "" && it.StyleRestriction != c.Style {
		return false
	}
	return true
}
