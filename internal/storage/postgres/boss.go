package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/juancoutinhoflooxmongagua/OutlawRpg/internal/game/boss"
	"github.com/juancoutinhoflooxmongagua/OutlawRpg/internal/storage"
)

// The world boss is a singleton row enforced by a constant-true primary key.

// GetBoss retrieves the current encounter record.
//
// Postcondition: Returns the record or storage.ErrNotFound when no encounter
// was ever saved.
func (s *Store) GetBoss(ctx context.Context) (*boss.Boss, error) {
	var b boss.Boss
	err := s.db.QueryRow(ctx, `
		SELECT boss_id, active, max_hp, current_hp, summoned_by, summoned_at, contributions
		FROM world_boss WHERE singleton`,
	).Scan(&b.ID, &b.Active, &b.MaxHP, &b.CurrentHP, &b.SummonedBy, &b.SummonedAt, &b.Contributions)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("querying boss record: %w", err)
	}
	b.Normalize()
	return &b, nil
}

// PutBoss upserts the encounter record.
func (s *Store) PutBoss(ctx context.Context, b *boss.Boss) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO world_boss (singleton, boss_id, active, max_hp, current_hp, summoned_by, summoned_at, contributions)
		VALUES (TRUE, $1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (singleton) DO UPDATE SET
			boss_id = EXCLUDED.boss_id, active = EXCLUDED.active,
			max_hp = EXCLUDED.max_hp, current_hp = EXCLUDED.current_hp,
			summoned_by = EXCLUDED.summoned_by, summoned_at = EXCLUDED.summoned_at,
			contributions = EXCLUDED.contributions`,
		b.ID, b.Active, b.MaxHP, b.CurrentHP, b.SummonedBy, b.SummonedAt, b.Contributions,
	)
	if err != nil {
		return fmt.Errorf("upserting boss record: %w", err)
	}
	return nil
}
