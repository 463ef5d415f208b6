package botcore

import (
	"context"

	"github.com/flyff-runtime/botcore/internal/fsm"
	"github.com/flyff-runtime/botcore/internal/logging"
)

// Mode selects which generic core loop a Bot runs (spec.md §9:
// "Generic combat and gathering loops... pluggable policy hooks").
type Mode int

const (
	ModeGathering Mode = iota
	ModeCombat
)

// RunCycle dispatches one loop iteration by the state machine's current
// state, mirroring farming.go's Run()-per-cycle structure:
// update stats, check wait/break, dispatch to the current behavior.
func (b *Bot) RunCycle(ctx context.Context, mode Mode, logout, login func(ctx context.Context) bool) bool {
	switch b.Machine.Current() {
	case fsm.Banking:
		return b.RunBanking(ctx)
	case fsm.Recovering, fsm.Error, fsm.Stopping:
		logging.Debug("botcore: cycle skipped, machine not ready", "state", b.Machine.Current())
		return false
	}

	switch mode {
	case ModeCombat:
		return b.RunCombatCycle(ctx, logout, login)
	default:
		return b.RunGatherCycle(ctx, logout, login)
	}
}
