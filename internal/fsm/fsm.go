// Package fsm implements the bot's state machine (spec.md §4.9): a closed
// transition table, time-in-state tracking, and per-state entry callbacks.
// Grounded on farming.go's FarmingState enum + String() +
// switch-dispatch shape, generalized from one hardcoded state set to a
// table-driven machine serving every SPEC_FULL.md bot state.
package fsm

import (
	"sync"
	"time"

	"github.com/flyff-runtime/botcore/internal/logging"
)

// State is one of the bot's lifecycle states.
type State int

const (
	Idle State = iota
	Starting
	Walking
	Gathering
	Combat
	Eating
	Looting
	Banking
	Error
	Recovering
	Stopping
	Break
)

func (s State) String() string {
	switch s {
	case Idle:
		return "IDLE"
	case Starting:
		return "STARTING"
	case Walking:
		return "WALKING"
	case Gathering:
		return "GATHERING"
	case Combat:
		return "COMBAT"
	case Eating:
		return "EATING"
	case Looting:
		return "LOOTING"
	case Banking:
		return "BANKING"
	case Error:
		return "ERROR"
	case Recovering:
		return "RECOVERING"
	case Stopping:
		return "STOPPING"
	case Break:
		return "BREAK"
	default:
		return "UNKNOWN"
	}
}

// universalTargets are reachable from every state (spec.md §4.9).
// Recovering is universal alongside Error/Stopping/Break because the
// escape-threshold emergency behavior can fire out of Combat, Gathering,
// Walking, or Banking alike.
var universalTargets = map[State]bool{Idle: true, Error: true, Stopping: true, Break: true, Recovering: true}

// transitions is the closed adjacency table from spec.md §4.9.
var transitions = map[State][]State{
	Idle:       {Starting, Walking, Gathering, Combat},
	Starting:   {Gathering, Walking, Combat},
	Gathering:  {Banking, Walking},
	Combat:     {Eating, Looting, Banking},
	Eating:     {Combat, Banking},
	Looting:    {Combat, Banking, Idle},
	Walking:    {Gathering, Combat, Banking, Idle},
	Banking:    {Walking, Gathering, Combat},
	Error:      {Recovering, Stopping},
	Recovering: {Idle, Error, Banking}, // Banking ends the combat escape sequence
	Break:      {Idle, Starting},
}

func isAllowed(from, to State) bool {
	if from == to {
		return true
	}
	if universalTargets[to] {
		return true
	}
	for _, candidate := range transitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// EntryCallback is invoked when the machine transitions into a state.
type EntryCallback func(from, to State)

// Machine is the bot's state machine. Invalid transitions are rejected and
// logged, never raised (spec.md §4.9).
type Machine struct {
	mu        sync.Mutex
	current   State
	enteredAt time.Time
	callbacks map[State][]EntryCallback
}

// New builds a Machine starting in Idle.
func New() *Machine {
	return &Machine{
		current:   Idle,
		enteredAt: time.Now(),
		callbacks: make(map[State][]EntryCallback),
	}
}

// Current returns the current state.
func (m *Machine) Current() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// TimeInState returns how long the machine has been in its current state.
func (m *Machine) TimeInState() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return time.Since(m.enteredAt)
}

// OnEnter registers a callback invoked whenever the machine transitions
// into state s.
func (m *Machine) OnEnter(s State, cb EntryCallback) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks[s] = append(m.callbacks[s], cb)
}

// Transition attempts to move from the current state to to. Returns false
// and logs without changing state if the transition is not in the closed
// table (and not one of the universal targets). Re-affirming the current
// state (from == to) is always allowed and re-enters it, resetting
// TimeInState and re-running entry callbacks.
func (m *Machine) Transition(to State) bool {
	m.mu.Lock()
	from := m.current
	if !isAllowed(from, to) {
		m.mu.Unlock()
		logging.Warn("fsm: rejected invalid transition", "from", from, "to", to)
		return false
	}
	m.current = to
	m.enteredAt = time.Now()
	callbacks := append([]EntryCallback(nil), m.callbacks[to]...)
	m.mu.Unlock()

	logging.Debug("fsm: transitioned", "from", from, "to", to)
	for _, cb := range callbacks {
		cb(from, to)
	}
	return true
}
