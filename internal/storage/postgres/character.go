package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/juancoutinhoflooxmongagua/OutlawRpg/internal/game/character"
	"github.com/juancoutinhoflooxmongagua/OutlawRpg/internal/storage"
)

// Store implements storage.Store against PostgreSQL. Inventory, cooldown,
// and blessing maps are stored as JSONB columns; everything else is a plain
// column.
type Store struct {
	db *pgxpool.Pool
}

var _ storage.Store = (*Store)(nil)

// NewStore creates a Store backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

const characterColumns = `
	id, name, class, style, level, xp, attribute_points,
	current_hp, energy, status, away_until,
	base_attack, base_special_attack, attack_upgrades, special_upgrades,
	money, bounty, inventory, cooldowns, transformation, blessings,
	amulet_spent, kills, deaths, location, created_at, updated_at`

func characterArgs(c *character.Character) []any {
	return []any{
		c.ID, c.Name, c.Class, c.Style, c.Level, c.XP, c.AttributePoints,
		c.CurrentHP, c.Energy, string(c.Status), c.AwayUntil,
		c.BaseAttack, c.BaseSpecial, c.AttackUpgrades, c.SpecialUpgrades,
		c.Money, c.Bounty, c.Inventory, c.Cooldowns, c.Transformation, c.Blessings,
		c.AmuletSpent, c.Kills, c.Deaths, c.Location, c.CreatedAt, c.UpdatedAt,
	}
}

func scanCharacter(row pgx.Row) (*character.Character, error) {
	var c character.Character
	var status string
	if err := row.Scan(
		&c.ID, &c.Name, &c.Class, &c.Style, &c.Level, &c.XP, &c.AttributePoints,
		&c.CurrentHP, &c.Energy, &status, &c.AwayUntil,
		&c.BaseAttack, &c.BaseSpecial, &c.AttackUpgrades, &c.SpecialUpgrades,
		&c.Money, &c.Bounty, &c.Inventory, &c.Cooldowns, &c.Transformation, &c.Blessings,
		&c.AmuletSpent, &c.Kills, &c.Deaths, &c.Location, &c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	c.Status = character.Status(status)
	c.Normalize(c.Location)
	return &c, nil
}

// Create inserts a new character record.
//
// Postcondition: Returns storage.ErrExists when the player ID is taken.
func (s *Store) Create(ctx context.Context, c *character.Character) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO characters (`+characterColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25,$26,$27)`,
		characterArgs(c)...,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrExists
		}
		return fmt.Errorf("inserting character: %w", err)
	}
	return nil
}

// Get retrieves a character by player ID.
//
// Postcondition: Returns the record or storage.ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (*character.Character, error) {
	row := s.db.QueryRow(ctx, `SELECT `+characterColumns+` FROM characters WHERE id = $1`, id)
	c, err := scanCharacter(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("querying character: %w", err)
	}
	return c, nil
}

// Put upserts the record.
func (s *Store) Put(ctx context.Context, c *character.Character) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO characters (`+characterColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25,$26,$27)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, class = EXCLUDED.class, style = EXCLUDED.style,
			level = EXCLUDED.level, xp = EXCLUDED.xp, attribute_points = EXCLUDED.attribute_points,
			current_hp = EXCLUDED.current_hp, energy = EXCLUDED.energy, status = EXCLUDED.status,
			away_until = EXCLUDED.away_until,
			base_attack = EXCLUDED.base_attack, base_special_attack = EXCLUDED.base_special_attack,
			attack_upgrades = EXCLUDED.attack_upgrades, special_upgrades = EXCLUDED.special_upgrades,
			money = EXCLUDED.money, bounty = EXCLUDED.bounty,
			inventory = EXCLUDED.inventory, cooldowns = EXCLUDED.cooldowns,
			transformation = EXCLUDED.transformation, blessings = EXCLUDED.blessings,
			amulet_spent = EXCLUDED.amulet_spent, kills = EXCLUDED.kills, deaths = EXCLUDED.deaths,
			location = EXCLUDED.location, updated_at = NOW()`,
		characterArgs(c)...,
	)
	if err != nil {
		return fmt.Errorf("upserting character: %w", err)
	}
	return nil
}

// Delete removes the record for id.
//
// Postcondition: Returns storage.ErrNotFound when no row was deleted.
func (s *Store) Delete(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM characters WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting character: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// List returns every character record.
func (s *Store) List(ctx context.Context) ([]*character.Character, error) {
	rows, err := s.db.Query(ctx, `SELECT `+characterColumns+` FROM characters ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing characters: %w", err)
	}
	defer rows.Close()

	chars := make([]*character.Character, 0)
	for rows.Next() {
		c, err := scanCharacter(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning character row: %w", err)
		}
		chars = append(chars, c)
	}
	return chars, rows.Err()
}

// isDuplicateKeyError reports whether err is a unique-constraint violation.
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
