package command_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/juancoutinhoflooxmongagua/OutlawRpg/internal/command"
)

func TestTransformAndLockout(t *testing.T) {
	svc, store, clk := newTestService(t)
	ctx := context.Background()
	mustCreate(t, svc, "u1", "Jango")

	res, err := svc.Transform(ctx, "u1", "berserk")
	require.NoError(t, err)
	require.Equal(t, "berserk", res.TransformationID)
	require.Equal(t, 3, res.EnergyCost)
	require.Equal(t, 150, res.Stats.Attack) // 100 * 1.5

	_, err = svc.Transform(ctx, "u1", "berserk")
	require.ErrorIs(t, err, command.ErrAlreadyTransformed)

	// The lockout spans the form's duration; once it expires a new form can
	// be assumed.
	clk.Advance(61 * time.Second)
	_, err = svc.Transform(ctx, "u1", "berserk")
	require.NoError(t, err)

	c, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, 4, c.Energy)
}

func TestTransformUnknownForm(t *testing.T) {
	svc, _, _ := newTestService(t)
	mustCreate(t, svc, "u1", "Jango")

	_, err := svc.Transform(context.Background(), "u1", "dragon")
	require.ErrorIs(t, err, command.ErrUnknownTransformation)
}

func TestTransformRequiresBlessing(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	mustCreate(t, svc, "u1", "Jango")

	_, err := svc.Transform(ctx, "u1", "blessed_form")
	require.ErrorIs(t, err, command.ErrBlessingRequired)

	grantItem(t, store, "u1", "aura_sigil", 1)
	_, err = svc.Bless(ctx, "u1", "aura_sigil")
	require.NoError(t, err)

	res, err := svc.Transform(ctx, "u1", "blessed_form")
	require.NoError(t, err)
	// Form doubles the base attack and the active sigil multiplies it again.
	require.Equal(t, 240, res.Stats.Attack)
}

func TestBlessConsumesItem(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	mustCreate(t, svc, "u1", "Jango")
	grantItem(t, store, "u1", "aura_sigil", 1)

	res, err := svc.Bless(ctx, "u1", "aura_sigil")
	require.NoError(t, err)
	require.Equal(t, 1, res.EnergyCost)

	c, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	require.False(t, c.HasItem("aura_sigil"))
	require.Contains(t, c.Blessings, "aura_sigil")

	_, err = svc.Bless(ctx, "u1", "aura_sigil")
	require.ErrorIs(t, err, command.ErrItemNotOwned)
}

func TestBlessRestrictionMismatch(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	mustCreate(t, svc, "u1", "Jango")
	grantItem(t, store, "u1", "night_pact", 1)

	// The pact is bound to another class; owning it is not enough.
	_, err := svc.Bless(ctx, "u1", "night_pact")
	require.ErrorIs(t, err, command.ErrRestrictionMismatch)
}
