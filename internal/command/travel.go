package command

import (
	"context"
	"fmt"

	"github.com/juancoutinhoflooxmongagua/OutlawRpg/internal/game/content"
	"github.com/juancoutinhoflooxmongagua/OutlawRpg/internal/game/cooldown"
	"github.com/juancoutinhoflooxmongagua/OutlawRpg/internal/game/stats"
)

// TravelResult reports an arrival.
type TravelResult struct {
	Location *content.LocationDef
}

// Travel moves the character to an adjacent location.
func (s *Service) Travel(ctx context.Context, playerID, destinationID string) (*TravelResult, error) {
	unlock := s.lock(playerID)
	defer unlock()

	c, err := s.loadAlive(ctx, playerID)
	if err != nil {
		return nil, err
	}
	dest, ok := s.reg.Location(destinationID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLocation, destinationID)
	}
	if destinationID == c.Location {
		return nil, fmt.Errorf("%w: already at %q", ErrNotAdjacent, destinationID)
	}
	cur, ok := s.reg.Location(c.Location)
	if !ok || !cur.ConnectsTo(destinationID) {
		return nil, fmt.Errorf("%w: no path from %q to %q", ErrNotAdjacent, c.Location, destinationID)
	}
	if err := s.requireReady(c, cooldown.KeyTravel); err != nil {
		return nil, err
	}

	st := stats.Effective(c, s.reg, s.now())
	clearAway(c)
	c.Location = destinationID
	s.gate.Arm(c, cooldown.KeyTravel, s.cfg.TravelCooldown, st.CostFactor)

	if err := s.save(ctx, c); err != nil {
		return nil, err
	}
	return &TravelResult{Location: dest}, nil
}
