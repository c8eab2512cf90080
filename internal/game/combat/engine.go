package combat

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/juancoutinhoflooxmongagua/OutlawRpg/internal/game/rng"
)

// Event is one resolved hit, delivered to the observer as the fight
// progresses so the presentation layer can edit its message between turns.
type Event struct {
	Turn         int
	AttackerName string
	TargetName   string
	Hit          HitResult
}

// Outcome summarizes a completed fight.
type Outcome struct {
	// EncounterID uniquely identifies this fight in logs and result renders.
	EncounterID string
	// AttackerWon is true when the side that initiated the fight survived.
	AttackerWon bool
	Turns       int
	Events      []Event
}

// Resolver runs full turn loops. It holds the RNG, the pacing delay between
// turns, and an optional per-event observer.
type Resolver struct {
	src      rng.Source
	delay    time.Duration
	sleep    func(ctx context.Context, d time.Duration) error
	observer func(Event)
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithTurnDelay sets the pause between turns. Zero disables pacing; tests
// run with zero.
func WithTurnDelay(d time.Duration) Option {
	return func(r *Resolver) { r.delay = d }
}

// WithObserver registers a callback invoked after every resolved hit.
func WithObserver(fn func(Event)) Option {
	return func(r *Resolver) { r.observer = fn }
}

// NewResolver creates a Resolver drawing randomness from src.
//
// Precondition: src must be non-nil.
func NewResolver(src rng.Source, opts ...Option) *Resolver {
	r := &Resolver{src: src, sleep: sleepCtx}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (r *Resolver) emit(e Event) {
	if r.observer != nil {
		r.observer(e)
	}
}

func (r *Resolver) pause(ctx context.Context) error {
	if r.delay <= 0 {
		return nil
	}
	return r.sleep(ctx, r.delay)
}

// Fight runs the full turn loop between attacker and defender until one
// side's HP reaches zero. The attacker's opening move applies on turn 1
// only; every later hit on both sides uses the basic formula. Between full
// turns the loop pauses for the configured delay and honors ctx
// cancellation.
//
// Precondition: attacker and defender must be non-nil and alive.
// Postcondition: On nil error, exactly one side's CurrentHP is zero unless
// a last-stand effect deferred death on the final recorded hit.
func (r *Resolver) Fight(ctx context.Context, attacker, defender *Combatant, opening Move) (Outcome, error) {
	out := Outcome{EncounterID: uuid.NewString()}
	for {
		out.Turns++
		move := MoveBasic
		if out.Turns == 1 {
			move = opening
		}

		hit := ResolveHit(attacker, defender, move, r.src)
		ev := Event{Turn: out.Turns, AttackerName: attacker.Name, TargetName: defender.Name, Hit: hit}
		out.Events = append(out.Events, ev)
		r.emit(ev)
		if defender.IsDead() {
			out.AttackerWon = true
			return out, nil
		}

		counter := ResolveHit(defender, attacker, MoveBasic, r.src)
		cev := Event{Turn: out.Turns, AttackerName: defender.Name, TargetName: attacker.Name, Hit: counter}
		out.Events = append(out.Events, cev)
		r.emit(cev)
		if attacker.IsDead() {
			return out, nil
		}

		if err := r.pause(ctx); err != nil {
			return out, err
		}
	}
}

// Strike resolves a single player hit against the world boss with no
// counter-attack; the boss retaliates on its own periodic tick.
//
// Precondition: player and boss must be non-nil and alive.
func (r *Resolver) Strike(player, boss *Combatant, move Move) HitResult {
	hit := ResolveHit(player, boss, move, r.src)
	r.emit(Event{Turn: 1, AttackerName: player.Name, TargetName: boss.Name, Hit: hit})
	return hit
}

// BossTickRound applies one round of boss damage: up to maxTargets living
// participants are drawn at random and each takes one basic hit, with the
// usual evasion and amulet rules.
//
// Precondition: boss must be non-nil and alive; maxTargets >= 1.
// Postcondition: len(result) <= maxTargets; only living participants are
// struck.
func (r *Resolver) BossTickRound(boss *Combatant, participants []*Combatant, maxTargets int) []HitResult {
	living := make([]*Combatant, 0, len(participants))
	for _, p := range participants {
		if p != nil && !p.IsDead() {
			living = append(living, p)
		}
	}
	// Partial Fisher-Yates: the first maxTargets slots end up uniformly drawn.
	n := len(living)
	count := maxTargets
	if count > n {
		count = n
	}
	for i := 0; i < count; i++ {
		j := i + r.src.Intn(n-i)
		living[i], living[j] = living[j], living[i]
	}

	results := make([]HitResult, 0, count)
	for _, target := range living[:count] {
		results = append(results, ResolveHit(boss, target, MoveBasic, r.src))
	}
	return results
}
