// Package errhandler implements the singleton Error Handler (spec.md
// §4.11): severity classification, the emergency-shutdown sequence, and a
// bounded in-memory error log with correlation ids. Grounded on
// debug.go's scattered LogError call sites and browser.go's actionLogs
// cap-then-evict ring buffer, generalized into one shared handler with
// google/uuid correlation ids (no pack repo stamps errors with ids; uuid is
// the ecosystem-standard choice for this, same as the event receiver and
// navigation journey ids use).
package errhandler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/flyff-runtime/botcore/internal/fsm"
	"github.com/flyff-runtime/botcore/internal/logging"
)

// Severity classifies an error for escalation purposes (spec.md §4.11).
type Severity int

const (
	Low Severity = iota
	Medium
	High
	Critical
)

func (s Severity) String() string {
	switch s {
	case Medium:
		return "medium"
	case High:
		return "high"
	case Critical:
		return "critical"
	default:
		return "low"
	}
}

// MaxLogEntries bounds the in-memory error log (spec.md §4.11: "≤100 entries").
const MaxLogEntries = 100

// Entry is one bounded error-log record.
type Entry struct {
	ID         string
	Time       time.Time
	TaskName   string
	Severity   Severity
	Message    string
	Cause      error
}

// Hooks are the externally-owned actions the emergency-shutdown sequence
// drives, plus RecordError, which Report invokes for every entry regardless
// of severity so a persistence layer can mirror the bounded in-memory log.
// Each shutdown step is independently try-guarded: a hook failing does not
// prevent the remaining steps from running (spec.md §4.11).
type Hooks struct {
	ClearRunningFlag  func()
	StopTaskQueue     func()
	CloseInterface    func(ctx context.Context) error
	Logout            func(ctx context.Context) error
	EmitStatistics    func()
	RecordError       func(ctx context.Context, entry Entry)
}

// Handler is a bot instance's error handler. Construct one per bot
// instance; spec.md's "singleton" framing means one handler per running
// bot, not one per process (SPEC_FULL.md §9 replaces process-level
// singletons with explicit runtime handles).
type Handler struct {
	mu            sync.Mutex
	entries       []Entry
	taskFailures  map[string]int
	machine       *fsm.Machine
	hooks         Hooks
}

// New builds a Handler bound to a state machine and a set of shutdown hooks.
func New(machine *fsm.Machine, hooks Hooks) *Handler {
	return &Handler{
		taskFailures: make(map[string]int),
		machine:      machine,
		hooks:        hooks,
	}
}

// Classify determines severity per spec.md §4.11:
//   - critical: immediate-shutdown (process/OS level) kinds, signaled via isCritical.
//   - high: 3+ consecutive same-named task failures, or isIOOrRuntime.
//   - medium: any single task failure (taskName non-empty).
//   - low: otherwise.
func (h *Handler) Classify(taskName string, isCritical, isIOOrRuntime bool) Severity {
	if isCritical {
		return Critical
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if taskName != "" {
		h.taskFailures[taskName]++
		if h.taskFailures[taskName] >= 3 || isIOOrRuntime {
			return High
		}
		return Medium
	}
	if isIOOrRuntime {
		return High
	}
	return Low
}

// ResetTaskFailures clears the consecutive-failure counter for taskName,
// called after a successful run of that task.
func (h *Handler) ResetTaskFailures(taskName string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.taskFailures, taskName)
}

// Report records an error in the bounded log and, for high/critical
// severities, runs the emergency-shutdown sequence.
func (h *Handler) Report(ctx context.Context, taskName string, severity Severity, message string, cause error) Entry {
	entry := Entry{
		ID:       uuid.NewString(),
		Time:     time.Now(),
		TaskName: taskName,
		Severity: severity,
		Message:  message,
		Cause:    cause,
	}

	h.mu.Lock()
	h.entries = append(h.entries, entry)
	if len(h.entries) > MaxLogEntries {
		h.entries = h.entries[len(h.entries)-MaxLogEntries:]
	}
	h.mu.Unlock()

	logging.Error("errhandler: reported", "id", entry.ID, "task", taskName, "severity", severity, "message", message)

	if h.hooks.RecordError != nil {
		h.hooks.RecordError(ctx, entry)
	}

	if severity == High || severity == Critical {
		h.emergencyShutdown(ctx)
	}
	return entry
}

// Entries returns a snapshot of the bounded error log, oldest first.
func (h *Handler) Entries() []Entry {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Entry, len(h.entries))
	copy(out, h.entries)
	return out
}

// emergencyShutdown runs the six-step sequence from spec.md §4.11. Each
// step is independently try-guarded: a step's failure is logged but never
// prevents the next step from running.
func (h *Handler) emergencyShutdown(ctx context.Context) {
	logging.Warn("errhandler: emergency shutdown starting")

	h.tryStep("clear running flag", func() error {
		if h.hooks.ClearRunningFlag != nil {
			h.hooks.ClearRunningFlag()
		}
		return nil
	})
	h.tryStep("stop task queue", func() error {
		if h.hooks.StopTaskQueue != nil {
			h.hooks.StopTaskQueue()
		}
		return nil
	})
	h.tryStep("close interface", func() error {
		if h.hooks.CloseInterface != nil {
			return h.hooks.CloseInterface(ctx)
		}
		return nil
	})
	h.tryStep("logout", func() error {
		if h.hooks.Logout == nil {
			return nil
		}
		logoutCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return h.hooks.Logout(logoutCtx)
	})
	h.tryStep("state transition sequence", func() error {
		h.machine.Transition(fsm.Error)
		h.machine.Transition(fsm.Stopping)
		h.machine.Transition(fsm.Idle)
		return nil
	})
	h.tryStep("emit statistics", func() error {
		if h.hooks.EmitStatistics != nil {
			h.hooks.EmitStatistics()
		}
		return nil
	})

	logging.Warn("errhandler: emergency shutdown complete")
}

func (h *Handler) tryStep(name string, step func() error) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error("errhandler: shutdown step panicked", "step", name, "panic", r)
		}
	}()
	if err := step(); err != nil {
		logging.Error("errhandler: shutdown step failed", "step", name, "error", err)
	}
}
