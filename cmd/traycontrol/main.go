// Command traycontrol is a system tray lifecycle control surface for the
// bot runtime, replacing tray.go's slot/threshold/capture-
// frequency configuration menus (which have no equivalent in this
// runtime — slots and thresholds are now profile fields loaded once by
// botctl) with a minimal status display and start/pause/quit controls.
// Grounded on tray.go's TrayApp/onReady/handleEvents shape: one
// getlantern/systray icon, a status label refreshed on a timer, and a
// goroutine/select loop over each clickable item's ClickedCh.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getlantern/systray"
	"go.uber.org/zap/zapcore"

	"github.com/flyff-runtime/botcore/internal/botcore"
	"github.com/flyff-runtime/botcore/internal/config"
	"github.com/flyff-runtime/botcore/internal/fsm"
	"github.com/flyff-runtime/botcore/internal/logging"
	"github.com/flyff-runtime/botcore/internal/runtime"
)

// trayApp owns the tray icon and the single Runtime it controls.
// Grounded on tray.go's TrayApp, narrowed from a 200-item config surface
// to the handful of lifecycle actions this runtime exposes.
type trayApp struct {
	profile *config.Profile
	mode    botcore.Mode

	statusItem *systray.MenuItem
	startItem  *systray.MenuItem
	pauseItem  *systray.MenuItem
	quitItem   *systray.MenuItem

	rt     *runtime.Runtime
	cancel context.CancelFunc
	done   chan error
}

func main() {
	profilePath := flag.String("profile", "profile.yaml", "path to the bot profile")
	modeFlag := flag.String("mode", "gathering", "bot mode: gathering or combat")
	flag.Parse()

	if err := logging.Init(logging.Options{FilePath: "tray.log", Level: zapcore.InfoLevel, Console: false}); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	profile, err := config.Load(*profilePath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	mode := botcore.ModeGathering
	if *modeFlag == "combat" {
		mode = botcore.ModeCombat
	}

	t := &trayApp{profile: profile, mode: mode}
	t.run()
}

// run starts systray, blocking until Quit is clicked (spec.md §2's
// "Glue / CLI / Logging" row; grounded on tray.go's TrayApp.Run).
func (t *trayApp) run() {
	logging.Info("traycontrol: starting system tray application")
	systray.Run(t.onReady, t.onExit)
}

func (t *trayApp) onReady() {
	systray.SetTitle("Bot")
	systray.SetTooltip("Gathering/combat bot control")

	t.statusItem = systray.AddMenuItem("Status: idle", "Current bot state")
	t.statusItem.Disable()
	systray.AddSeparator()
	t.startItem = systray.AddMenuItem("Start", "Start the bot runtime")
	t.pauseItem = systray.AddMenuItem("Pause", "Stop the bot runtime")
	t.pauseItem.Disable()
	systray.AddSeparator()
	t.quitItem = systray.AddMenuItem("Quit", "Stop the bot and exit")

	go t.refreshStatus()
	go t.handleEvents()
}

// refreshStatus polls the running Runtime's fsm.Machine once a second
// and rewrites the status label, since systray has no change-notification
// hook (tray.go polls the bot struct's in-memory counters the same way
// from its own background refresh, absent from the excerpt shown here but
// implied by its "updates every iteration" status line).
func (t *trayApp) refreshStatus() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for range ticker.C {
		if t.rt == nil {
			continue
		}
		state := t.rt.Machine.Current()
		counters := t.rt.Bot.Counters()
		t.statusItem.SetTitle(fmt.Sprintf("Status: %s (kills %d, gathered %d)", state, counters.Kills, counters.ResourcesGathered))
	}
}

// handleEvents mirrors tray.go's goroutine/select loop over ClickedCh
// channels, narrowed to this surface's three actionable items.
func (t *trayApp) handleEvents() {
	for {
		select {
		case <-t.startItem.ClickedCh:
			t.onStartClicked()
		case <-t.pauseItem.ClickedCh:
			t.onPauseClicked()
		case <-t.quitItem.ClickedCh:
			t.onQuitClicked()
			return
		}
	}
}

func (t *trayApp) onStartClicked() {
	if t.rt != nil {
		logging.Warn("traycontrol: start clicked but runtime already running")
		return
	}

	rt, err := runtime.New(t.profile, t.mode, nil)
	if err != nil {
		logging.Error("traycontrol: failed to build runtime", "error", err)
		t.statusItem.SetTitle("Status: failed to start")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.rt = rt
	t.cancel = cancel
	t.done = make(chan error, 1)

	t.startItem.Disable()
	t.pauseItem.Enable()

	go func() {
		t.done <- rt.Run(ctx)
	}()
}

func (t *trayApp) onPauseClicked() {
	if t.rt == nil || t.cancel == nil {
		return
	}
	t.cancel()
	if err := <-t.done; err != nil {
		logging.Warn("traycontrol: runtime stopped with error", "error", err)
	}
	t.rt = nil
	t.cancel = nil
	t.statusItem.SetTitle(fmt.Sprintf("Status: %s", fsm.Idle))
	t.startItem.Enable()
	t.pauseItem.Disable()
}

func (t *trayApp) onQuitClicked() {
	logging.Info("traycontrol: quit requested by user")
	t.onPauseClicked()
	systray.Quit()
}

func (t *trayApp) onExit() {
	logging.Info("traycontrol: system tray exit complete")
	logging.Sync()
}

// for operators who want to send SIGTERM instead of clicking Quit.
func init() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		<-ch
		systray.Quit()
	}()
}
