// Package boss holds the shared world-boss encounter state: a single record
// summoned by a player, damaged by everyone, and finalized into ranked
// rewards when it falls.
package boss

import (
	"sort"
	"time"

	"github.com/juancoutinhoflooxmongagua/OutlawRpg/internal/game/content"
)

// Boss is the persistent world-boss record. At most one encounter is active
// at a time.
//
// Invariant: 0 <= CurrentHP <= MaxHP; every Contributions value is >= 1.
type Boss struct {
	ID         string    `json:"id"`
	Active     bool      `json:"active"`
	MaxHP      int       `json:"max_hp"`
	CurrentHP  int       `json:"current_hp"`
	SummonedBy string    `json:"summoned_by"`
	SummonedAt time.Time `json:"summoned_at"`
	// Contributions maps player ID to total damage dealt this encounter.
	Contributions map[string]int `json:"contributions"`
}

// Summon starts a fresh encounter from the template.
//
// Precondition: def must be non-nil and validated.
// Postcondition: Active; CurrentHP == MaxHP; no contributions yet.
func Summon(def *content.BossDef, summonerID string, now time.Time) *Boss {
	return &Boss{
		ID:            def.ID,
		Active:        true,
		MaxHP:         def.MaxHP,
		CurrentHP:     def.MaxHP,
		SummonedBy:    summonerID,
		SummonedAt:    now,
		Contributions: make(map[string]int),
	}
}

// Normalize repairs a record loaded from storage.
func (b *Boss) Normalize() {
	if b.Contributions == nil {
		b.Contributions = make(map[string]int)
	}
	if b.CurrentHP < 0 {
		b.CurrentHP = 0
	}
	if b.CurrentHP > b.MaxHP {
		b.CurrentHP = b.MaxHP
	}
	if b.CurrentHP == 0 {
		b.Active = false
	}
}

// Clone returns a deep copy. Stores hand out clones so callers can mutate
// freely and write back explicitly.
func (b *Boss) Clone() *Boss {
	out := *b
	out.Contributions = make(map[string]int, len(b.Contributions))
	for k, v := range b.Contributions {
		out.Contributions[k] = v
	}
	return &out
}

// Defeated reports whether the boss has fallen.
func (b *Boss) Defeated() bool { return b.CurrentHP <= 0 }

// RecordHit applies damage from playerID and credits the contribution.
// Reaching zero HP deactivates the encounter; the caller then finalizes
// rewards.
//
// Precondition: b.Active; damage >= 1.
// Postcondition: Returns true exactly when this hit defeated the boss.
func (b *Boss) RecordHit(playerID string, damage int) bool {
	if damage > b.CurrentHP {
		damage = b.CurrentHP
	}
	b.CurrentHP -= damage
	if damage > 0 {
		b.Contributions[playerID] += damage
	}
	if b.CurrentHP == 0 {
		b.Active = false
		return true
	}
	return false
}

// Participant reports whether playerID has dealt damage this encounter.
// Participants are the pool the periodic boss attack draws targets from.
func (b *Boss) Participant(playerID string) bool {
	return b.Contributions[playerID] > 0
}

// Contribution is one player's damage total for ranking.
type Contribution struct {
	PlayerID string
	Damage   int
}

// Ranking returns contributions ordered by damage descending, ties broken
// by player ID for stable results.
func (b *Boss) Ranking() []Contribution {
	out := make([]Contribution, 0, len(b.Contributions))
	for id, dmg := range b.Contributions {
		out = append(out, Contribution{PlayerID: id, Damage: dmg})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Damage != out[j].Damage {
			return out[i].Damage > out[j].Damage
		}
		return out[i].PlayerID < out[j].PlayerID
	})
	return out
}

// Reward is one player's payout from a finalized encounter.
type Reward struct {
	PlayerID string
	Rank     int
	Money    int
	XP       int
	Items    []content.Drop
}

// Rewards maps the final ranking onto the template's reward tiers. Rank is
// 1-based; players whose rank has no dedicated tier get the default tier.
//
// Precondition: def must be non-nil.
// Postcondition: len(result) == len(ranking); result order matches ranking.
func Rewards(def *content.BossDef, ranking []Contribution) []Reward {
	out := make([]Reward, 0, len(ranking))
	for i, c := range ranking {
		rank := i + 1
		tier, ok := def.TierForRank(rank)
		r := Reward{PlayerID: c.PlayerID, Rank: rank}
		if ok {
			r.Money = tier.Money
			r.XP = tier.XP
			r.Items = tier.Items
		}
		out = append(out, r)
	}
	return out
}
