package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"devcross/internal/app"
	"devcross/internal/devtools"
	"devcross/internal/puzzle"
	"devcross/internal/ui"

	clog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout).ExecuteContext(ctx); err != nil {
		clog.NewWithOptions(os.Stderr, clog.Options{Prefix: "devcross"}).Error(err.Error())
		stop()
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	cfg := app.DefaultConfig()
	envErr := app.LoadEnv(&cfg)

	root := &cobra.Command{
		Use:           "devcross [file|pack/puzzle]",
		Short:         "Terminal crosswords about developer tooling",
		Version:       app.Version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return envErr
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return play(cmd.Context(), cfg, args)
		},
	}
	root.SetOut(out)

	flags := root.PersistentFlags()
	flags.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "directory for the progress database")
	flags.StringVar(&cfg.CacheDir, "cache-dir", cfg.CacheDir, "directory for dev_state.json")
	flags.StringVar(&cfg.PuzzleDir, "puzzles", cfg.PuzzleDir, "directory holding puzzle packs")
	flags.StringVar(&cfg.Player, "player", cfg.Player, "name recorded on the leaderboard")
	flags.StringVar(&cfg.LogPath, "log", cfg.LogPath, "write JSON event logs to this file")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")

	playFlags := root.Flags()
	playFlags.BoolVar(&cfg.ASCIIOnly, "ascii", cfg.ASCIIOnly, "draw with ASCII characters only")
	playFlags.BoolVar(&cfg.DebugLayout, "debug-layout", cfg.DebugLayout, "show layout geometry in the status line")
	playFlags.StringVar(&cfg.Frontend, "frontend", cfg.Frontend, "tea or classic")
	playFlags.StringVar(&cfg.DemoScenario, "demo", cfg.DemoScenario, "replay a scripted scenario instead of playing")
	playFlags.BoolVar(&cfg.DevState, "dev-state", cfg.DevState, "write dev_state.json on screen changes")
	playFlags.StringVar(&cfg.UI.StyleVariant, "style", cfg.UI.StyleVariant, "modern_arcade, cozy_clean or retro_terminal")
	playFlags.StringVar(&cfg.UI.MotionLevel, "motion", cfg.UI.MotionLevel, "full, reduced or off")
	playFlags.StringVar(&cfg.UI.MouseScope, "mouse", cfg.UI.MouseScope, "scoped, full or off")
	playFlags.IntVar(&cfg.Gameplay.PointsPerLetter, "points-per-letter", cfg.Gameplay.PointsPerLetter, "override the puzzle's points per letter")
	playFlags.IntVar(&cfg.Gameplay.TimeGraceSeconds, "time-grace", cfg.Gameplay.TimeGraceSeconds, "override the puzzle's time grace in seconds")

	root.AddCommand(
		newListCmd(&cfg),
		newCheckCmd(),
		newLeaderboardCmd(&cfg),
		newStatsCmd(&cfg),
		newSettingsCmd(&cfg),
	)
	return root
}

func play(ctx context.Context, cfg app.Config, args []string) error {
	if len(args) == 1 {
		if looksLikeFile(args[0]) {
			cfg.PuzzleFile = args[0]
		} else {
			cfg.Target = args[0]
		}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	return a.Run(ctx)
}

// looksLikeFile treats existing paths and puzzle extensions as files. Anything
// else must be pack/puzzle.
func looksLikeFile(arg string) bool {
	if _, err := os.Stat(arg); err == nil {
		return true
	}
	switch strings.ToLower(filepath.Ext(arg)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

func newListCmd(cfg *app.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the puzzles in the pack directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			packs, err := puzzle.NewLoader().LoadPacks(cmd.Context(), cfg.PuzzleDir)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, p := range packs {
				for _, pz := range p.LoadedPuzzles {
					fmt.Fprintf(w, "%s/%s\t%s\t%d entries\n", p.PackID, pz.PuzzleID, pz.Title, len(pz.Entries))
				}
			}
			return w.Flush()
		},
	}
}

func newCheckCmd() *cobra.Command {
	var answers bool
	cmd := &cobra.Command{
		Use:   "check <file>",
		Short: "Validate a puzzle file and print its grid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pz, err := puzzle.NewLoader().LoadFile(args[0])
			if err != nil {
				return err
			}
			g, err := pz.Grid()
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			s := g.Start()
			if answers {
				s = devtools.NewManager().Apply(g, devtools.Scenario{SolveAll: true})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %dx%d, %d entries\n\n", pz.Title, g.Cols, g.Rows, len(g.Entries()))
			_, err = io.WriteString(cmd.OutOrStdout(), ui.RenderText(g, s))
			return err
		},
	}
	cmd.Flags().BoolVar(&answers, "answers", false, "fill in every answer")
	return cmd
}

func newLeaderboardCmd(cfg *app.Config) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Print the best players",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			rows, err := app.LoadLeaderboard(cmd.Context(), *cfg, limit)
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No completed puzzles yet.")
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "RANK\tPLAYER\tPOINTS\tPUZZLES")
			for _, r := range rows {
				fmt.Fprintf(w, "%d\t%s\t%d\t%d\n", r.Rank, r.Player, r.Points, r.Puzzles)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "rows to show")
	return cmd
}

func newStatsCmd(cfg *app.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print totals and the most recent run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			stats, err := app.LoadStats(cmd.Context(), *cfg)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "runs: %d\ncompleted: %d\nentries solved: %d\n",
				stats.Summary.PuzzleRuns, stats.Summary.Completed, stats.Summary.EntrySolves)
			if last := stats.LastRun; last != nil {
				status := "in progress"
				if last.Completed {
					status = "completed"
				}
				fmt.Fprintf(out, "last: %s/%s by %s on %s, %s, %d solved, %d pts\n",
					last.PackID, last.PuzzleID, last.Player, last.StartTS.Local().Format(time.DateTime),
					status, last.SolvedCount, last.Score)
			}
			return nil
		},
	}
}

func newSettingsCmd(cfg *app.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "settings [key value]",
		Short: "Show or store UI preferences",
		Long:  "Show stored UI preferences, or store one. Known keys: " + strings.Join(app.SettingKeys(), ", ") + ".",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 && len(args) != 2 {
				return errors.New("want no arguments or a key and a value")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			if len(args) == 2 {
				return app.SaveSetting(cmd.Context(), *cfg, args[0], args[1])
			}
			settings, err := app.LoadSettings(cmd.Context(), *cfg)
			if err != nil {
				return err
			}
			for _, s := range settings {
				fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", s.Key, strconv.Quote(s.Value))
			}
			return nil
		},
	}
}
