package command

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors returned by command handlers. The presentation layer maps
// each one to a user-visible message; handlers wrap them with context via
// fmt.Errorf and %w.
var (
	// ErrNoCharacter means the requesting player has no character.
	ErrNoCharacter = errors.New("no character for this player")
	// ErrCharacterExists means the player already has a character.
	ErrCharacterExists = errors.New("character already exists")
	// ErrDead means the requesting character is defeated and must revive first.
	ErrDead = errors.New("character is dead")
	// ErrOnCooldown means the action's timer has not expired. Handlers return
	// it wrapped in a CooldownError carrying the remaining duration.
	ErrOnCooldown = errors.New("action is on cooldown")
	// ErrInsufficientEnergy means a special attack or power was requested with
	// less energy than its post-discount cost. Nothing is mutated.
	ErrInsufficientEnergy = errors.New("insufficient energy")

	// ErrTargetNotFound means the duel target has no character.
	ErrTargetNotFound = errors.New("target has no character")
	// ErrTargetDead means the duel target is already defeated.
	ErrTargetDead = errors.New("target is dead")
	// ErrTargetAway means the duel target is under away protection.
	ErrTargetAway = errors.New("target is away")
	// ErrTargetSelf means a player tried to duel themself.
	ErrTargetSelf = errors.New("cannot target yourself")
	// ErrDifferentLocation means duel participants are not in the same place.
	ErrDifferentLocation = errors.New("target is in a different location")

	// ErrWrongLocationKind means the command is not legal at the character's
	// current location (hunting in a city, shopping in the wilderness).
	ErrWrongLocationKind = errors.New("command not available at this location")
	// ErrUnknownLocation means the travel destination does not exist.
	ErrUnknownLocation = errors.New("unknown location")
	// ErrNotAdjacent means the travel destination is not connected to the
	// character's current location.
	ErrNotAdjacent = errors.New("destination is not adjacent")

	// ErrUnknownClass means character creation named an undefined class.
	ErrUnknownClass = errors.New("unknown class")
	// ErrUnknownStyle means character creation named an undefined style.
	ErrUnknownStyle = errors.New("unknown style")
	// ErrUnknownItem means the named item is not defined.
	ErrUnknownItem = errors.New("unknown item")
	// ErrUnknownTransformation means the class has no such form.
	ErrUnknownTransformation = errors.New("unknown transformation")
	// ErrItemNotOwned means the character does not hold the item.
	ErrItemNotOwned = errors.New("item not owned")
	// ErrItemNotUsable means the item has no use action (not a consumable,
	// summon, or blessing).
	ErrItemNotUsable = errors.New("item cannot be used")
	// ErrRestrictionMismatch means a class- or style-restricted item was
	// activated by a character it does not match.
	ErrRestrictionMismatch = errors.New("item restricted to another class or style")
	// ErrBlessingRequired means a blessed transformation was requested without
	// its prerequisite blessing active.
	ErrBlessingRequired = errors.New("required blessing is not active")
	// ErrAlreadyTransformed means a transformation is already active.
	ErrAlreadyTransformed = errors.New("a transformation is already active")

	// ErrNoPoints means the character has no unspent attribute points.
	ErrNoPoints = errors.New("no attribute points available")
	// ErrBossInactive means no world boss encounter is running.
	ErrBossInactive = errors.New("no world boss is active")
	// ErrBossActive means a summon was attempted while an encounter runs.
	ErrBossActive = errors.New("a world boss is already active")
)

// CooldownError reports how long until an action is ready again. It matches
// ErrOnCooldown under errors.Is.
type CooldownError struct {
	Action    string
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("%s is on cooldown for %s", e.Action, e.Remaining.Round(time.Second))
}

// Is makes errors.Is(err, ErrOnCooldown) succeed for CooldownError values.
func (e *CooldownError) Is(target error) bool { return target == ErrOnCooldown }
