// Package runtime wires every subsystem into one running bot instance and
// coordinates its goroutines (SPEC_FULL.md §5, §9 "replaces process-level
// singletons with explicit runtime handles"). Grounded on the niceyeti-tabular
// and theRebelliousNerd-codenerd repos' golang.org/x/sync/errgroup usage for
// running a core loop alongside an optional inbound server under one
// cancellation scope; no precedent elsewhere in this tree for it (the
// original main loop wired everything as package-level globals constructed
// once in main()).
package runtime

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/flyff-runtime/botcore/internal/botcore"
	"github.com/flyff-runtime/botcore/internal/camera"
	"github.com/flyff-runtime/botcore/internal/collision"
	"github.com/flyff-runtime/botcore/internal/config"
	"github.com/flyff-runtime/botcore/internal/errhandler"
	"github.com/flyff-runtime/botcore/internal/eventreceiver"
	"github.com/flyff-runtime/botcore/internal/fsm"
	"github.com/flyff-runtime/botcore/internal/geometry"
	"github.com/flyff-runtime/botcore/internal/humanize"
	"github.com/flyff-runtime/botcore/internal/input"
	"github.com/flyff-runtime/botcore/internal/interact"
	"github.com/flyff-runtime/botcore/internal/logging"
	"github.com/flyff-runtime/botcore/internal/navigate"
	"github.com/flyff-runtime/botcore/internal/pathfind"
	"github.com/flyff-runtime/botcore/internal/stats"
	"github.com/flyff-runtime/botcore/internal/telemetry"
	"github.com/flyff-runtime/botcore/internal/vault"
)

// statsFlushInterval is how often the core loop's counters are persisted
// to the Statistics Store (spec.md §4.11 step 6).
const statsFlushInterval = 30 * time.Second

var errUnconfirmedLogout = errors.New("runtime: logout not confirmed")

// Runtime owns every subsystem for one running bot instance.
type Runtime struct {
	Profile *config.Profile
	Bot     *botcore.Bot
	Machine *fsm.Machine
	Handler *errhandler.Handler
	Stats   *stats.Store
	Vault   *vault.Vault

	startedAt time.Time

	archive  *collision.Archive
	receiver *eventreceiver.Receiver
	events   chan eventreceiver.Envelope

	mode botcore.Mode
}

// New builds a Runtime from a loaded profile. handlers supplies
// programmatic special-loot handlers not representable in the profile
// (spec.md §9); it may be nil.
func New(profile *config.Profile, mode botcore.Mode, handlers map[int]botcore.SpecialLootHandler) (*Runtime, error) {
	client := telemetry.NewClient(profile.TelemetryBaseURL)
	synth := input.NewSynthesizer()

	gameArea := geometry.Bounds{W: profile.Calibration.GameAreaW, H: profile.Calibration.GameAreaH}
	cam := camera.New(client, synth, gameArea)
	it := interact.New(client, cam, synth, gameArea)

	var archive *collision.Archive
	var cm *collision.Map
	if profile.CollisionArchivePath != "" {
		a, err := collision.OpenArchive(profile.CollisionArchivePath)
		if err != nil {
			logging.Warn("runtime: collision archive unavailable, falling back to linear navigation", "error", err)
		} else {
			archive = a
			cm = collision.New(archive)
		}
	}
	pf := pathfind.New(cm)

	minimap := navigate.Minimap{
		CenterX:   profile.Calibration.MinimapCenterX,
		CenterY:   profile.Calibration.MinimapCenterY,
		RadiusPx:  profile.Calibration.MinimapRadius,
		PxPerTile: profile.Calibration.PxPerTile,
	}
	nav := navigate.New(client, pf, cm, synth, minimap, varianceFromProfile(profile.VarianceLevel))

	hum := humanize.New(humanizeConfig(profile.Humanization), synth, gameArea)
	machine := fsm.New()

	policy := botcore.NewDefaultPolicy(profile.Policy, handlers)
	inventoryPanel := geometry.Bounds{
		X: profile.Calibration.InventoryPanelX,
		Y: profile.Calibration.InventoryPanelY,
		W: profile.Calibration.InventoryPanelW,
		H: profile.Calibration.InventoryPanelH,
	}
	bot := botcore.New(client, it, nav, cam, hum, machine, synth, policy, inventoryPanel)

	statsPath := profile.StatsDBPath
	if statsPath == "" {
		statsPath = "bot-stats.db"
	}
	store, err := stats.Open(statsPath)
	if err != nil {
		return nil, err
	}

	rt := &Runtime{
		Profile:   profile,
		Bot:       bot,
		Machine:   machine,
		Stats:     store,
		Vault:     vault.New(),
		archive:   archive,
		mode:      mode,
		startedAt: time.Now(),
	}

	rt.Handler = errhandler.New(machine, errhandler.Hooks{
		ClearRunningFlag: func() { machine.Transition(fsm.Idle) },
		StopTaskQueue:    func() {},
		CloseInterface:   rt.closeInterface,
		Logout:           rt.logoutHook,
		EmitStatistics:   rt.flushStats,
		RecordError:      rt.recordErrorStat,
	})
	bot.Handler = rt.Handler

	if profile.EventReceiver.Enabled {
		rt.events = make(chan eventreceiver.Envelope, 64)
		rt.receiver = eventreceiver.New(profile.EventReceiver.Addr, rt.events)
	}

	return rt, nil
}

func varianceFromProfile(level config.VarianceLevel) pathfind.VarianceLevel {
	switch level {
	case config.VarianceConservative:
		return pathfind.Conservative
	case config.VarianceAggressive:
		return pathfind.Aggressive
	default:
		return pathfind.Moderate
	}
}

func humanizeConfig(h config.Humanization) humanize.Config {
	return humanize.Config{
		IdleBreakFreqMin:   time.Duration(h.IdleBreakFreqMinMinutes) * time.Minute,
		IdleBreakFreqMax:   time.Duration(h.IdleBreakFreqMaxMinutes) * time.Minute,
		IdleBreakDurMin:    time.Duration(h.IdleBreakDurMinMinutes) * time.Minute,
		IdleBreakDurMax:    time.Duration(h.IdleBreakDurMaxMinutes) * time.Minute,
		LogoutBreakFreqMin: time.Duration(h.LogoutBreakFreqMinMinutes) * time.Minute,
		LogoutBreakFreqMax: time.Duration(h.LogoutBreakFreqMaxMinutes) * time.Minute,
		LogoutBreakDurMin:  time.Duration(h.LogoutBreakDurMinMinutes) * time.Minute,
		LogoutBreakDurMax:  time.Duration(h.LogoutBreakDurMaxMinutes) * time.Minute,
		IdleMicroFreqMin:   time.Duration(h.IdleMicroFreqMinSeconds) * time.Second,
		IdleMicroFreqMax:   time.Duration(h.IdleMicroFreqMaxSeconds) * time.Second,
	}
}

// Run starts the core loop, the humanizer's break scheduler, and (if
// configured) the event receiver, all under one cancellation scope.
// It blocks until ctx is canceled or an unrecoverable error occurs.
func (rt *Runtime) Run(ctx context.Context) error {
	rt.Bot.Humanizer.Start()
	defer rt.Bot.Humanizer.Stop()
	defer rt.closeArchive()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return rt.runCoreLoop(ctx)
	})

	if rt.receiver != nil {
		g.Go(func() error {
			return rt.receiver.Run(ctx)
		})
	}

	g.Go(func() error {
		return rt.runStatsFlusher(ctx)
	})

	return g.Wait()
}

func (rt *Runtime) runCoreLoop(ctx context.Context) error {
	rt.Machine.Transition(fsm.Starting)
	rt.Machine.Transition(startingState(rt.mode))

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		ok := rt.Bot.RunCycle(ctx, rt.mode, rt.Logout, rt.Login)
		if !ok {
			// isCritical/isIOOrRuntime are both false here: a cycle that made
			// no progress is an ordinary task failure, not an I/O fault or a
			// shutdown-now condition. Classify still escalates to High once
			// the same task fails 3 times in a row (spec.md §4.11).
			severity := rt.Handler.Classify("core-loop-cycle", false, false)
			rt.Handler.Report(ctx, "core-loop-cycle", severity, "cycle made no progress", nil)
		} else {
			rt.Handler.ResetTaskFailures("core-loop-cycle")
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(200 * time.Millisecond):
		}
	}
}

func startingState(mode botcore.Mode) fsm.State {
	if mode == botcore.ModeCombat {
		return fsm.Combat
	}
	return fsm.Gathering
}

func (rt *Runtime) runStatsFlusher(ctx context.Context) error {
	ticker := time.NewTicker(statsFlushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			rt.flushStats()
		}
	}
}

func (rt *Runtime) flushStats() {
	counters := rt.Bot.Counters()
	snap := stats.Snapshot{
		RecordedAt:        time.Now(),
		Kills:             counters.Kills,
		ResourcesGathered: counters.ResourcesGathered,
		UptimeSeconds:     int64(time.Since(rt.startedAt).Seconds()),
		BreaksTaken:       counters.BreaksTaken,
		ErrorsEscalated:   len(rt.Handler.Entries()),
	}
	if err := rt.Stats.RecordSnapshot(context.Background(), snap); err != nil {
		logging.Error("runtime: failed to persist stats snapshot", "error", err)
	}
}

// recordErrorStat mirrors every reported error into the Statistics Store's
// error_log table, independent of severity, so `botctl errors` reflects
// what the Error Handler actually saw rather than only the high/critical
// entries that trigger emergencyShutdown.
func (rt *Runtime) recordErrorStat(ctx context.Context, entry errhandler.Entry) {
	row := stats.ErrorLogRow{
		ID:         entry.ID,
		OccurredAt: entry.Time,
		TaskName:   entry.TaskName,
		Severity:   entry.Severity.String(),
		Message:    entry.Message,
	}
	if err := rt.Stats.RecordError(ctx, row); err != nil {
		logging.Error("runtime: failed to persist error log entry", "error", err)
	}
}

// logoutHook adapts Logout's bool result to the error the Hooks.Logout
// shutdown step expects.
func (rt *Runtime) logoutHook(ctx context.Context) error {
	if !rt.Logout(ctx) {
		return errUnconfirmedLogout
	}
	return nil
}

func (rt *Runtime) closeInterface(ctx context.Context) error {
	rt.Bot.Input.Tap("escape", 50*time.Millisecond)
	return nil
}

func (rt *Runtime) closeArchive() {
	if rt.archive != nil {
		if err := rt.archive.Close(); err != nil {
			logging.Warn("runtime: error closing collision archive", "error", err)
		}
	}
	if err := rt.Stats.Close(); err != nil {
		logging.Warn("runtime: error closing stats store", "error", err)
	}
}
