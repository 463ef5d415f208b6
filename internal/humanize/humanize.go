// Package humanize implements the Humanization Layer (spec.md §4.8): the
// fatigue scalar, idle micro-actions, idle/logout break scheduling via
// robfig/cron, and reaction delays. Breaks are scheduled on their own
// goroutine but only ever set a flag the core loop polls (spec.md §5,
// SPEC_FULL.md's concurrency notes) — they never call into subsystem state
// directly. Grounded on movement.go's randomized/jittered
// action shapes, generalized from ad hoc time.Sleep jitter into a
// reusable fatigue-scaled delay model.
package humanize

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/flyff-runtime/botcore/internal/geometry"
	"github.com/flyff-runtime/botcore/internal/input"
	"github.com/flyff-runtime/botcore/internal/logging"
)

const fatigueIncrement = 0.001

// BreakKind distinguishes the two break types named in spec.md §4.8.
type BreakKind int

const (
	IdleBreak BreakKind = iota
	LogoutBreak
)

func (k BreakKind) String() string {
	if k == LogoutBreak {
		return "logout"
	}
	return "idle"
}

// Config bundles every tunable interval the humanization layer needs,
// typically sourced from a Profile.
type Config struct {
	IdleBreakFreqMin, IdleBreakFreqMax time.Duration // minutes between idle breaks
	IdleBreakDurMin, IdleBreakDurMax   time.Duration
	LogoutBreakFreqMin, LogoutBreakFreqMax time.Duration
	LogoutBreakDurMin, LogoutBreakDurMax   time.Duration
	IdleMicroFreqMin, IdleMicroFreqMax time.Duration // seconds of inactivity
}

// PendingBreak is set by the cron scheduler and polled by the core loop.
type PendingBreak struct {
	Kind     BreakKind
	Duration time.Duration
}

// Humanizer wraps fatigue state, idle micro-actions, and break scheduling.
type Humanizer struct {
	mu      sync.Mutex
	fatigue float64
	rng     *rand.Rand

	input    *input.Synthesizer
	gameArea geometry.Bounds
	cfg      Config

	cron    *cron.Cron
	pending chan PendingBreak

	lastActionAt      time.Time
	idleMicroThreshold time.Duration
}

// New builds a Humanizer. The returned value owns no goroutines until
// Start is called.
func New(cfg Config, synth *input.Synthesizer, gameArea geometry.Bounds) *Humanizer {
	h := &Humanizer{
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
		input:        synth,
		gameArea:     gameArea,
		cfg:          cfg,
		pending:      make(chan PendingBreak, 1),
		lastActionAt: time.Now(),
	}
	h.idleMicroThreshold = h.randBetween(cfg.IdleMicroFreqMin, cfg.IdleMicroFreqMax)
	return h
}

// Start schedules the idle and logout break timers on their own goroutine
// via robfig/cron, using custom Schedule implementations that redraw a
// random interval every time they fire (spec.md §4.8: "scheduled at random
// within [freqMin, freqMax]").
func (h *Humanizer) Start() {
	h.cron = cron.New()
	h.cron.Schedule(randomIntervalSchedule{min: h.cfg.IdleBreakFreqMin, max: h.cfg.IdleBreakFreqMax, rng: h.rng},
		cron.FuncJob(func() { h.schedulePending(IdleBreak, h.randBetween(h.cfg.IdleBreakDurMin, h.cfg.IdleBreakDurMax)) }))
	h.cron.Schedule(randomIntervalSchedule{min: h.cfg.LogoutBreakFreqMin, max: h.cfg.LogoutBreakFreqMax, rng: h.rng},
		cron.FuncJob(func() { h.schedulePending(LogoutBreak, h.randBetween(h.cfg.LogoutBreakDurMin, h.cfg.LogoutBreakDurMax)) }))
	h.cron.Start()
}

// Stop halts the break scheduler.
func (h *Humanizer) Stop() {
	if h.cron != nil {
		h.cron.Stop()
	}
}

// TriggerBreak queues kind immediately, bypassing the cron schedule. Used
// by operator-initiated break commands rather than the automatic timers.
func (h *Humanizer) TriggerBreak(kind BreakKind, duration time.Duration) {
	h.schedulePending(kind, duration)
}

func (h *Humanizer) schedulePending(kind BreakKind, duration time.Duration) {
	select {
	case h.pending <- PendingBreak{Kind: kind, Duration: duration}:
		logging.Info("humanize: break scheduled", "kind", kind, "duration", duration)
	default:
		// A break is already pending; logout breaks take priority (spec.md
		// §4.8 "higher priority") by draining and replacing an idle break.
		if kind == LogoutBreak {
			select {
			case existing := <-h.pending:
				if existing.Kind == IdleBreak {
					h.pending <- PendingBreak{Kind: kind, Duration: duration}
				} else {
					h.pending <- existing
				}
			default:
				h.pending <- PendingBreak{Kind: kind, Duration: duration}
			}
		}
	}
}

// PollPendingBreak returns a scheduled break, if any, without blocking. The
// core loop calls this at its check-and-handle-scheduled-break point
// (spec.md §4.10 step 1).
func (h *Humanizer) PollPendingBreak() (PendingBreak, bool) {
	select {
	case pb := <-h.pending:
		return pb, true
	default:
		return PendingBreak{}, false
	}
}

// RecordAction advances the fatigue scalar by fatigueIncrement, clamped to
// 1 (spec.md §4.8).
func (h *Humanizer) RecordAction() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.fatigue += fatigueIncrement
	if h.fatigue > 1 {
		h.fatigue = 1
	}
	h.lastActionAt = time.Now()
}

// Fatigue returns the current fatigue scalar.
func (h *Humanizer) Fatigue() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.fatigue
}

// ResetFatigue zeroes the fatigue scalar, called after any break completes.
func (h *Humanizer) ResetFatigue() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.fatigue = 0
}

// PostActionDelay scales base by 1 + 0.5*fatigue and sleeps for it.
func (h *Humanizer) PostActionDelay(base time.Duration) time.Duration {
	delay := time.Duration(float64(base) * (1 + 0.5*h.Fatigue()))
	time.Sleep(delay)
	return delay
}

// ReactionDelay sleeps 150-400ms scaled by 1 + 0.3*fatigue before an action
// (spec.md §4.8).
func (h *Humanizer) ReactionDelay() time.Duration {
	base := h.randBetween(150*time.Millisecond, 400*time.Millisecond)
	delay := time.Duration(float64(base) * (1 + 0.3*h.Fatigue()))
	time.Sleep(delay)
	return delay
}

// IdleMicroActionDue reports whether enough inactivity has elapsed to fire
// an idle micro-action, and if so redraws the next threshold.
func (h *Humanizer) IdleMicroActionDue() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if time.Since(h.lastActionAt) < h.idleMicroThreshold {
		return false
	}
	h.idleMicroThreshold = h.randBetween(h.cfg.IdleMicroFreqMin, h.cfg.IdleMicroFreqMax)
	h.lastActionAt = time.Now()
	return true
}

func (h *Humanizer) randBetween(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(h.rng.Int63n(int64(max-min)))
}

// randomIntervalSchedule is a cron.Schedule that fires after a fresh
// uniform-random interval in [min,max] every time Next is called — the
// shape robfig/cron expects for self-rescheduling jobs, used here instead
// of a fixed cron expression because spec.md §4.8 calls for per-break
// randomized frequency, not a calendar schedule.
type randomIntervalSchedule struct {
	min, max time.Duration
	rng      *rand.Rand
}

func (s randomIntervalSchedule) Next(t time.Time) time.Time {
	interval := s.min
	if s.max > s.min {
		interval = s.min + time.Duration(s.rng.Int63n(int64(s.max-s.min)))
	}
	return t.Add(interval)
}

// contextDone is a small helper so callers can pass a context into
// break-execution loops without this package importing their call sites.
func contextDone(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}
