// Package redis implements storage.Store on a Redis instance. Each character
// is a JSON document under its own key with a set index for listing, and the
// world boss lives under a single well-known key.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/juancoutinhoflooxmongagua/OutlawRpg/internal/config"
	"github.com/juancoutinhoflooxmongagua/OutlawRpg/internal/game/boss"
	"github.com/juancoutinhoflooxmongagua/OutlawRpg/internal/game/character"
	"github.com/juancoutinhoflooxmongagua/OutlawRpg/internal/storage"
)

const (
	characterKeyPrefix = "outlaw:character:"
	characterIndexKey  = "outlaw:characters"
	bossKey            = "outlaw:world_boss"
)

// Store implements storage.Store on a go-redis client.
type Store struct {
	client          goredis.UniversalClient
	defaultLocation string
}

var _ storage.Store = (*Store)(nil)

// NewStore wraps an existing client. The caller owns the client's lifecycle.
//
// Precondition: client must be non-nil; defaultLocation must be a valid
// location ID.
func NewStore(client goredis.UniversalClient, defaultLocation string) *Store {
	return &Store{client: client, defaultLocation: defaultLocation}
}

// Open connects to Redis using cfg and verifies the connection with a ping.
//
// Postcondition: Returns a ready Store or a non-nil error; on success the
// caller must Close.
func Open(ctx context.Context, cfg config.RedisConfig, defaultLocation string) (*Store, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging redis at %s: %w", cfg.Addr, err)
	}
	return NewStore(client, defaultLocation), nil
}

// Close releases the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

func characterKey(id string) string { return characterKeyPrefix + id }

// Create inserts a new character record.
//
// Postcondition: Returns storage.ErrExists when the ID is already taken; on
// success the record is durable and indexed.
func (s *Store) Create(ctx context.Context, c *character.Character) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling character %s: %w", c.ID, err)
	}
	ok, err := s.client.SetNX(ctx, characterKey(c.ID), data, 0).Result()
	if err != nil {
		return fmt.Errorf("creating character %s: %w", c.ID, err)
	}
	if !ok {
		return storage.ErrExists
	}
	if err := s.client.SAdd(ctx, characterIndexKey, c.ID).Err(); err != nil {
		return fmt.Errorf("indexing character %s: %w", c.ID, err)
	}
	return nil
}

// Get returns the record for id, repaired against missing fields.
func (s *Store) Get(ctx context.Context, id string) (*character.Character, error) {
	data, err := s.client.Get(ctx, characterKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("getting character %s: %w", id, err)
	}
	return s.decodeCharacter(id, data)
}

// Put upserts the record.
func (s *Store) Put(ctx context.Context, c *character.Character) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling character %s: %w", c.ID, err)
	}
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, characterKey(c.ID), data, 0)
	pipe.SAdd(ctx, characterIndexKey, c.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("saving character %s: %w", c.ID, err)
	}
	return nil
}

// Delete removes the record and its index entry.
func (s *Store) Delete(ctx context.Context, id string) error {
	removed, err := s.client.Del(ctx, characterKey(id)).Result()
	if err != nil {
		return fmt.Errorf("deleting character %s: %w", id, err)
	}
	if removed == 0 {
		return storage.ErrNotFound
	}
	if err := s.client.SRem(ctx, characterIndexKey, id).Err(); err != nil {
		return fmt.Errorf("unindexing character %s: %w", id, err)
	}
	return nil
}

// List returns every character record. Index entries whose document vanished
// are skipped rather than failing the whole listing.
func (s *Store) List(ctx context.Context) ([]*character.Character, error) {
	ids, err := s.client.SMembers(ctx, characterIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("listing character index: %w", err)
	}
	out := make([]*character.Character, 0, len(ids))
	for _, id := range ids {
		c, err := s.Get(ctx, id)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *Store) decodeCharacter(id string, data []byte) (*character.Character, error) {
	var c character.Character
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("unmarshaling character %s: %w", id, err)
	}
	if c.ID == "" {
		c.ID = id
	}
	c.Normalize(s.defaultLocation)
	return &c, nil
}

// GetBoss retrieves the current encounter record.
func (s *Store) GetBoss(ctx context.Context) (*boss.Boss, error) {
	data, err := s.client.Get(ctx, bossKey).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("getting boss record: %w", err)
	}
	var b boss.Boss
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("unmarshaling boss record: %w", err)
	}
	b.Normalize()
	return &b, nil
}

// PutBoss upserts the encounter record.
func (s *Store) PutBoss(ctx context.Context, b *boss.Boss) error {
	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("marshaling boss record: %w", err)
	}
	if err := s.client.Set(ctx, bossKey, data, 0).Err(); err != nil {
		return fmt.Errorf("saving boss record: %w", err)
	}
	return nil
}
