package content

import "fmt"

// RewardTier is the reward granted to one contribution rank when the world
// boss falls. Rank 1 is the highest damage contributor. A tier with Rank 0
// is the default tier applied to every participant below the ranked tiers.
type RewardTier struct {
	Rank  int    `yaml:"rank"`
	Money int    `yaml:"money"`
	XP    int    `yaml:"xp"`
	Items []Drop `yaml:"items"`
}

// BossDef is the static template for the world boss, loaded from YAML.
type BossDef struct {
	ID     string `yaml:"id"`
	Name   string `yaml:"name"`
	Emoji  string `yaml:"emoji"`
	MaxHP  int    `yaml:"max_hp"`
	Attack int    `yaml:"attack"`
	// SummonItem is the inventory item consumed to summon this boss.
	SummonItem string       `yaml:"summon_item"`
	Rewards    []RewardTier `yaml:"rewards"`
}

// Validate checks the boss template's invariants.
//
// Postcondition: Returns nil iff HP/attack are positive, the summon item is
// named, ranked tiers are unique, and at most one default tier exists.
func (b *BossDef) Validate() error {
	if b.ID == "" {
		return fmt.Errorf("boss: id must not be empty")
	}
	if b.Name == "" {
		return fmt.Errorf("boss %q: name must not be empty", b.ID)
	}
	if b.MaxHP < 1 {
		return fmt.Errorf("boss %q: max_hp must be >= 1, got %d", b.ID, b.MaxHP)
	}
	if b.Attack < 1 {
		return fmt.Errorf("boss %q: attack must be >= 1, got %d", b.ID, b.Attack)
	}
	if b.SummonItem == "" {
		return fmt.Errorf("boss %q: summon_item must not be empty", b.ID)
	}
	seenRanks := make(map[int]bool, len(b.Rewards))
	for i, tier := range b.Rewards {
		if tier.Rank < 0 {
			return fmt.Errorf("boss %q: rewards[%d] rank must be >= 0, got %d", b.ID, i, tier.Rank)
		}
		if seenRanks[tier.Rank] {
			return fmt.Errorf("boss %q: duplicate reward rank %d", b.ID, tier.Rank)
		}
		seenRanks[tier.Rank] = true
		if tier.Money < 0 || tier.XP < 0 {
			return fmt.Errorf("boss %q: rewards[%d] money and xp must be >= 0", b.ID, i)
		}
		for j, d := range tier.Items {
			if d.ItemID == "" {
				return fmt.Errorf("boss %q: rewards[%d] item[%d] must have a non-empty item id", b.ID, i, j)
			}
			if d.Chance <= 0 || d.Chance > 1.0 {
				return fmt.Errorf("boss %q: rewards[%d] item[%d] chance must be in (0, 1.0]", b.ID, i, j)
			}
			if d.MinQty < 1 || d.MinQty > d.MaxQty {
				return fmt.Errorf("boss %q: rewards[%d] item[%d] quantity range invalid", b.ID, i, j)
			}
		}
	}
	return nil
}

// TierForRank returns the reward tier for the given 1-based contribution
// rank, falling back to the default (Rank 0) tier when no exact match
// exists. Returns (nil, false) when neither is defined.
func (b *BossDef) TierForRank(rank int) (*RewardTier, bool) {
	var fallback *RewardTier
	for i := range b.Rewards {
		switch b.Rewards[i].Rank {
		case rank:
			return &b.Rewards[i], true
		case 0:
			fallback = &b.Rewards[i]
		}
	}
	if fallback != nil {
		return fallback, true
	}
	return nil, false
}
