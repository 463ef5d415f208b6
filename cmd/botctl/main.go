// Command botctl is the CLI front end for the bot runtime (SPEC_FULL.md
// §2 "Glue / CLI / Logging"). It replaces farming.go/tray.go's hardcoded
// main loop with a cobra command tree: run starts the
// bot, stats/errors inspect the persisted Statistics Store, break dry-runs
// an out-of-schedule idle or logout break on a fresh humanizer (it does not
// reach a running bot), and creds manages the
// credential vault entry a profile's login macro reads from.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/flyff-runtime/botcore/internal/botcore"
	"github.com/flyff-runtime/botcore/internal/config"
	"github.com/flyff-runtime/botcore/internal/geometry"
	"github.com/flyff-runtime/botcore/internal/humanize"
	"github.com/flyff-runtime/botcore/internal/logging"
	"github.com/flyff-runtime/botcore/internal/navigate"
	"github.com/flyff-runtime/botcore/internal/runtime"
	"github.com/flyff-runtime/botcore/internal/stats"
	"github.com/flyff-runtime/botcore/internal/vault"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var profilePath string
	var logFile string
	var console bool

	root := &cobra.Command{
		Use:           "botctl",
		Short:         "Control the gathering/combat bot runtime",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return logging.Init(logging.Options{FilePath: logFile, Level: zapcore.InfoLevel, Console: console})
		},
	}
	root.PersistentFlags().StringVar(&profilePath, "profile", "profile.yaml", "path to the bot profile")
	root.PersistentFlags().StringVar(&logFile, "log-file", "bot.log", "log file path (empty disables file logging)")
	root.PersistentFlags().BoolVar(&console, "console", true, "also log to stderr")

	root.AddCommand(
		newRunCmd(&profilePath),
		newStatsCmd(&profilePath),
		newErrorsCmd(&profilePath),
		newBreakCmd(&profilePath),
		newCredsCmd(&profilePath),
		newProfileCmd(&profilePath),
		newCalibrateCmd(),
	)
	return root
}

func newRunCmd(profilePath *string) *cobra.Command {
	var modeFlag string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the bot until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := config.Load(*profilePath)
			if err != nil {
				return err
			}
			mode, err := parseMode(modeFlag)
			if err != nil {
				return err
			}

			rt, err := runtime.New(profile, mode, nil)
			if err != nil {
				return fmt.Errorf("botctl: build runtime: %w", err)
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logging.Info("botctl: starting", "profile", profile.Name, "mode", modeFlag)
			err = rt.Run(ctx)
			logging.Sync()
			return err
		},
	}
	cmd.Flags().StringVar(&modeFlag, "mode", "gathering", "bot mode: gathering or combat")
	return cmd
}

func parseMode(s string) (botcore.Mode, error) {
	switch s {
	case "gathering", "":
		return botcore.ModeGathering, nil
	case "combat":
		return botcore.ModeCombat, nil
	default:
		return 0, fmt.Errorf("botctl: unknown mode %q (want gathering or combat)", s)
	}
}

func newStatsCmd(profilePath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print the latest persisted statistics snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := config.Load(*profilePath)
			if err != nil {
				return err
			}
			store, err := stats.Open(statsDBPath(profile))
			if err != nil {
				return err
			}
			defer store.Close()

			ctx := context.Background()
			snap, ok, err := store.LatestSnapshot(ctx)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Println("no statistics recorded yet")
				return nil
			}
			fmt.Printf("recorded:  %s\n", snap.RecordedAt.Format(time.RFC3339))
			fmt.Printf("kills:     %d\n", snap.Kills)
			fmt.Printf("gathered:  %d\n", snap.ResourcesGathered)
			fmt.Printf("uptime:    %ds\n", snap.UptimeSeconds)
			fmt.Printf("breaks:    %d\n", snap.BreaksTaken)
			fmt.Printf("escalated: %d\n", snap.ErrorsEscalated)
			return nil
		},
	}
}

func newErrorsCmd(profilePath *string) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "errors",
		Short: "Print the most recent escalated errors",
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := config.Load(*profilePath)
			if err != nil {
				return err
			}
			store, err := stats.Open(statsDBPath(profile))
			if err != nil {
				return err
			}
			defer store.Close()

			rows, err := store.RecentErrors(context.Background(), limit)
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				fmt.Println("no errors logged")
				return nil
			}
			for _, row := range rows {
				fmt.Printf("%s [%s] %s: %s\n", row.OccurredAt.Format(time.RFC3339), row.Severity, row.TaskName, row.Message)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum rows to print")
	return cmd
}

func newBreakCmd(profilePath *string) *cobra.Command {
	var kindFlag string
	var minutes int
	cmd := &cobra.Command{
		Use:   "break",
		Short: "Dry-run an out-of-schedule break against the profile's humanization config",
		Long: "break cannot reach into an already-running botctl run process; it only " +
			"exercises the same scheduling path a profile's timers use, for dry-testing " +
			"break durations against a profile's humanization config before a real run.",
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := config.Load(*profilePath)
			if err != nil {
				return err
			}
			kind := humanize.IdleBreak
			if kindFlag == "logout" {
				kind = humanize.LogoutBreak
			}
			gameArea := geometry.Bounds{W: profile.Calibration.GameAreaW, H: profile.Calibration.GameAreaH}
			h := humanize.New(humanizeConfigFor(profile.Humanization), nil, gameArea)
			h.TriggerBreak(kind, time.Duration(minutes)*time.Minute)
			pb, ok := h.PollPendingBreak()
			if !ok {
				return fmt.Errorf("botctl: break did not queue")
			}
			fmt.Printf("queued %s break, duration %s\n", pb.Kind, pb.Duration)
			return nil
		},
	}
	cmd.Flags().StringVar(&kindFlag, "kind", "idle", "break kind: idle or logout")
	cmd.Flags().IntVar(&minutes, "minutes", 5, "break duration in minutes")
	return cmd
}

func newCredsCmd(profilePath *string) *cobra.Command {
	parent := &cobra.Command{
		Use:   "creds",
		Short: "Manage the credential vault entry a profile's login macro reads",
	}

	setCmd := &cobra.Command{
		Use:   "set <password>",
		Short: "Store the login password under the profile's credential key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := config.Load(*profilePath)
			if err != nil {
				return err
			}
			return vault.New().Store(profile.CredentialKey, args[0])
		},
	}
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove the stored credential",
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := config.Load(*profilePath)
			if err != nil {
				return err
			}
			return vault.New().Delete(profile.CredentialKey)
		},
	}
	parent.AddCommand(setCmd, clearCmd)
	return parent
}

// newProfileCmd prints the fully defaulted, validated profile back out as
// YAML, so an operator can confirm what a short profile file actually
// resolves to once viper's defaults and validation have run.
func newProfileCmd(profilePath *string) *cobra.Command {
	parent := &cobra.Command{
		Use:   "profile",
		Short: "Inspect the loaded bot profile",
	}
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the resolved profile as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := config.Load(*profilePath)
			if err != nil {
				return err
			}
			out, err := yaml.Marshal(profile)
			if err != nil {
				return fmt.Errorf("botctl: marshal profile: %w", err)
			}
			fmt.Print(string(out))
			return nil
		},
	}
	parent.AddCommand(showCmd)
	return parent
}

// newCalibrateCmd derives Calibration.PxPerTile from two operator-measured
// walks: walk a known tile distance, read the pixel displacement the
// minimap marker actually moved, and repeat once more. The result is meant
// to be pasted into a profile's calibration.pxPerTile field.
func newCalibrateCmd() *cobra.Command {
	var tiles1, tiles2, pixels1, pixels2 float64
	cmd := &cobra.Command{
		Use:   "calibrate",
		Short: "Derive the minimap px/tile constant from two measured walks",
		Long: "Walk a known tile distance on the minimap, measure how far the " +
			"marker actually moved in pixels, and repeat once more; calibrate " +
			"averages the two pixels-per-tile ratios.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ratio, ok := navigate.Calibrate(
				navigate.CalibrationSample{TileDistance: tiles1, PixelDistance: pixels1},
				navigate.CalibrationSample{TileDistance: tiles2, PixelDistance: pixels2},
			)
			if !ok {
				return fmt.Errorf("botctl: no usable calibration sample (tile distances must be positive)")
			}
			fmt.Printf("derived px/tile: %.4f\n", ratio)
			return nil
		},
	}
	cmd.Flags().Float64Var(&tiles1, "tiles1", 0, "tile distance walked in the first leg")
	cmd.Flags().Float64Var(&pixels1, "pixels1", 0, "pixel displacement observed in the first leg")
	cmd.Flags().Float64Var(&tiles2, "tiles2", 0, "tile distance walked in the second leg")
	cmd.Flags().Float64Var(&pixels2, "pixels2", 0, "pixel displacement observed in the second leg")
	return cmd
}

func humanizeConfigFor(h config.Humanization) humanize.Config {
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

func statsDBPath(profile *config.Profile) string {
	if profile.StatsDBPath == "" {
		return "bot-stats.db"
	}
	return profile.StatsDBPath
}
