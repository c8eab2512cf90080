// Package storage defines the persistence contracts the game logic depends
// on. Three backends implement them: jsonfile (flat documents, the default),
// postgres (pgx), and redis.
package storage

import (
	"context"
	"errors"

	"github.com/juancoutinhoflooxmongagua/OutlawRpg/internal/game/boss"
	"github.com/juancoutinhoflooxmongagua/OutlawRpg/internal/game/character"
)

// ErrNotFound is returned when a lookup yields no record.
var ErrNotFound = errors.New("record not found")

// ErrExists is returned when creating a record whose key is already taken.
var ErrExists = errors.New("record already exists")

// CharacterStore persists player character records keyed by player ID.
//
// Implementations return deep copies; callers mutate freely and persist via
// Put. Implementations must be safe for concurrent use.
type CharacterStore interface {
	// Create inserts a new record. Returns ErrExists when the ID is taken.
	Create(ctx context.Context, c *character.Character) error
	// Get returns the record for id, or ErrNotFound.
	Get(ctx context.Context, id string) (*character.Character, error)
	// Put upserts the record.
	Put(ctx context.Context, c *character.Character) error
	// Delete removes the record for id. Returns ErrNotFound when absent.
	Delete(ctx context.Context, id string) error
	// List returns every record. Order is unspecified.
	List(ctx context.Context) ([]*character.Character, error)
}

// BossStore persists the singleton world-boss record.
type BossStore interface {
	// GetBoss returns the current encounter, or ErrNotFound when none was
	// ever saved.
	GetBoss(ctx context.Context) (*boss.Boss, error)
	// PutBoss upserts the encounter record.
	PutBoss(ctx context.Context, b *boss.Boss) error
}

// Store is the combined persistence surface the command layer wires in.
type Store interface {
	CharacterStore
	BossStore
}
