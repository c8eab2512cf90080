package scripting

import (
	"context"
	"fmt"
	"strings"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Runner executes enemy defeat scripts. Each run gets a fresh sandboxed VM,
// so scripts cannot leak state into each other.
type Runner struct {
	log       *zap.Logger
	instLimit int
}

// NewRunner creates a Runner.
//
// Precondition: log must be non-nil; instLimit 0 uses the default.
func NewRunner(log *zap.Logger, instLimit int) *Runner {
	return &Runner{log: log, instLimit: instLimit}
}

// OnDefeat runs script with the globals `enemy` and `player` set to the two
// display names. The script's contract is to return a string; any other
// return value, a runtime error, or exceeding the instruction limit yields
// an error and no flavor line.
//
// Postcondition: Game state is never touched; the only output is the
// returned string.
func (r *Runner) OnDefeat(_ context.Context, script, enemyName, playerName string) (string, error) {
	if strings.TrimSpace(script) == "" {
		return "", nil
	}

	L, cancel := newSandboxedState(r.instLimit)
	defer cancel()
	defer L.Close()

	L.SetGlobal("enemy", lua.LString(enemyName))
	L.SetGlobal("player", lua.LString(playerName))

	if err := L.DoString(script); err != nil {
		return "", fmt.Errorf("running defeat script: %w", err)
	}

	ret := L.Get(-1)
	str, ok := ret.(lua.LString)
	if !ok {
		return "", fmt.Errorf("defeat script returned %s, want string", ret.Type())
	}
	return string(str), nil
}
