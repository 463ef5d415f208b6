package errhandler

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flyff-runtime/botcore/internal/fsm"
)

func TestClassifyCriticalOverridesEverything(t *testing.T) {
	h := New(fsm.New(), Hooks{})
	assert.Equal(t, Critical, h.Classify("anything", true, true))
}

func TestClassifyEscalatesAfterThreeConsecutiveFailures(t *testing.T) {
	h := New(fsm.New(), Hooks{})
	assert.Equal(t, Medium, h.Classify("mine", false, false))
	assert.Equal(t, Medium, h.Classify("mine", false, false))
	assert.Equal(t, High, h.Classify("mine", false, false))
}

func TestClassifyIOOrRuntimeWithoutTaskNameIsHigh(t *testing.T) {
	h := New(fsm.New(), Hooks{})
	assert.Equal(t, High, h.Classify("", false, true))
}

func TestClassifyDefaultsLow(t *testing.T) {
	h := New(fsm.New(), Hooks{})
	assert.Equal(t, Low, h.Classify("", false, false))
}

func TestResetTaskFailuresClearsCounter(t *testing.T) {
	h := New(fsm.New(), Hooks{})
	h.Classify("mine", false, false)
	h.Classify("mine", false, false)
	h.ResetTaskFailures("mine")
	assert.Equal(t, Medium, h.Classify("mine", false, false))
}

func TestErrorLogCapsAt100Entries(t *testing.T) {
	h := New(fsm.New(), Hooks{})
	for i := 0; i < 150; i++ {
		h.Report(context.Background(), "", Low, "noise", nil)
	}
	assert.Len(t, h.Entries(), MaxLogEntries)
}

func TestReportAssignsUniqueCorrelationIDs(t *testing.T) {
	h := New(fsm.New(), Hooks{})
	a := h.Report(context.Background(), "t1", Low, "a", nil)
	b := h.Report(context.Background(), "t1", Low, "b", nil)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestEmergencyShutdownRunsAllStepsDespiteFailures(t *testing.T) {
	machine := fsm.New()
	machine.Transition(fsm.Gathering)

	var cleared, stopped, emitted bool
	hooks := Hooks{
		ClearRunningFlag: func() { cleared = true },
		StopTaskQueue:    func() { stopped = true },
		CloseInterface:   func(ctx context.Context) error { return errors.New("boom") },
		Logout:           func(ctx context.Context) error { panic("logout exploded") },
		EmitStatistics:   func() { emitted = true },
	}
	h := New(machine, hooks)
	h.Report(context.Background(), "combat", High, "target died unexpectedly", nil)

	assert.True(t, cleared)
	assert.True(t, stopped)
	assert.True(t, emitted, "later steps must still run after an earlier step panics")
	assert.Equal(t, fsm.Idle, machine.Current())
}

func TestReportOnLowSeverityDoesNotShutdown(t *testing.T) {
	machine := fsm.New()
	machine.Transition(fsm.Gathering)
	h := New(machine, Hooks{})
	h.Report(context.Background(), "mine", Low, "minor hiccup", nil)
	assert.Equal(t, fsm.Gathering, machine.Current())
}

func TestEntriesReturnsIndependentSnapshot(t *testing.T) {
	h := New(fsm.New(), Hooks{})
	h.Report(context.Background(), "t", Low, "x", nil)
	snapshot := h.Entries()
	snapshot[0].Message = "mutated"
	fresh := h.Entries()
	require.Len(t, fresh, 1)
	assert.Equal(t, "x", fresh[0].Message)
}
