// Package main provides the CLI entrypoint for flipdrill.
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/flipdrill/internal/config"
	"github.com/verte-zerg/flipdrill/internal/model"
	"github.com/verte-zerg/flipdrill/internal/preset"
	"github.com/verte-zerg/flipdrill/internal/sequence"
	"github.com/verte-zerg/flipdrill/internal/session"
	"github.com/verte-zerg/flipdrill/internal/stats"
	"github.com/verte-zerg/flipdrill/internal/statsui"
	"github.com/verte-zerg/flipdrill/internal/store"
	"github.com/verte-zerg/flipdrill/internal/tui"
)

const (
	defaultMode        = "random"
	defaultDriftEvery  = 6
	defaultDriftSteps  = 1
	defaultOffsetSteps = 2
	defaultFeedbackMs  = 1500
	defaultWeakTop     = 5
	defaultWeakFactor  = 2.0
	defaultWeakWindow  = 20
	defaultCurveWindow = 20
)

var (
	practiceMode        string
	practiceDriftEvery  int
	practiceDriftSteps  int
	practiceOffsetSteps int
	practiceFeedbackMs  int
	practiceSeeded      bool
	practiceSeed        int64
	practicePreset      string
	practiceFocusWeak   bool
	practiceWeakTop     int
	practiceWeakFactor  float64
	practiceWeakWindow  int

	statsSince       string
	statsLast        int
	statsCurveWindow int
	statsShots       string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "flipdrill",
		Short:         "TUI flipper accuracy trainer",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPracticeCmd,
	}

	rootCmd.Flags().StringVar(&practiceMode, "mode", defaultMode, "shot selection mode: random or manual")
	rootCmd.Flags().IntVar(&practiceDriftEvery, "drift-every", defaultDriftEvery, "attempts between hidden value drifts (0 disables)")
	rootCmd.Flags().IntVar(&practiceDriftSteps, "drift-steps", defaultDriftSteps, "max drift distance in grid steps")
	rootCmd.Flags().IntVar(&practiceOffsetSteps, "offset-steps", defaultOffsetSteps, "max initial offset in grid steps")
	rootCmd.Flags().IntVar(&practiceFeedbackMs, "feedback-ms", defaultFeedbackMs, "feedback display time in milliseconds")
	rootCmd.Flags().BoolVar(&practiceSeeded, "seeded", false, "use a fixed random seed")
	rootCmd.Flags().Int64Var(&practiceSeed, "seed", 0, "random seed (with --seeded)")
	rootCmd.Flags().StringVar(&practicePreset, "preset", "", "start from a preset layout instead of the saved one")
	rootCmd.Flags().BoolVar(&practiceFocusWeak, "focus-weak", false, "bias random selection toward weak shots")
	rootCmd.Flags().IntVar(&practiceWeakTop, "weak-top", defaultWeakTop, "number of weak shots to focus on")
	rootCmd.Flags().Float64Var(&practiceWeakFactor, "weak-factor", defaultWeakFactor, "weight factor for weak shots")
	rootCmd.Flags().IntVar(&practiceWeakWindow, "weak-window", defaultWeakWindow, "number of recent sessions to compute weak shots")

	rootCmd.AddCommand(newEditCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newPresetsCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func runPracticeCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	st := openStoreOrWarn()
	if st != nil {
		defer closeStore(st)
	}

	// Precedence: flag > config file > last-used settings > default. The
	// last-used layer is applied first so the config file overrides it.
	if st != nil {
		saved, err := st.LoadSettings(context.Background())
		if err != nil {
			logErrf("failed to load last-used settings: %v\n", err)
		} else if saved != nil {
			applyStringConfig(cmd, "mode", &practiceMode, saved.Mode)
			applyIntConfig(cmd, "drift-every", &practiceDriftEvery, saved.DriftEvery)
			applyIntConfig(cmd, "drift-steps", &practiceDriftSteps, saved.DriftSteps)
			applyIntConfig(cmd, "offset-steps", &practiceOffsetSteps, saved.OffsetSteps)
			applyIntConfig(cmd, "feedback-ms", &practiceFeedbackMs, saved.FeedbackMs)
			applyBoolConfig(cmd, "seeded", &practiceSeeded, saved.Seeded)
			applyInt64Config(cmd, "seed", &practiceSeed, saved.Seed)
			applyBoolConfig(cmd, "focus-weak", &practiceFocusWeak, saved.FocusWeak)
			applyIntConfig(cmd, "weak-top", &practiceWeakTop, saved.WeakTop)
			applyFloatConfig(cmd, "weak-factor", &practiceWeakFactor, saved.WeakFactor)
			applyIntConfig(cmd, "weak-window", &practiceWeakWindow, saved.WeakWindow)
		}
	}

	applyStringConfig(cmd, "mode", &practiceMode, fileCfg.Practice.Mode)
	applyIntConfig(cmd, "drift-every", &practiceDriftEvery, fileCfg.Practice.DriftEvery)
	applyIntConfig(cmd, "drift-steps", &practiceDriftSteps, fileCfg.Practice.DriftSteps)
	applyIntConfig(cmd, "offset-steps", &practiceOffsetSteps, fileCfg.Practice.OffsetSteps)
	applyIntConfig(cmd, "feedback-ms", &practiceFeedbackMs, fileCfg.Practice.FeedbackMs)
	applyBoolConfig(cmd, "seeded", &practiceSeeded, fileCfg.Practice.Seeded)
	applyInt64Config(cmd, "seed", &practiceSeed, fileCfg.Practice.Seed)
	applyBoolConfig(cmd, "focus-weak", &practiceFocusWeak, fileCfg.Practice.FocusWeak)
	applyIntConfig(cmd, "weak-top", &practiceWeakTop, fileCfg.Practice.WeakTop)
	applyFloatConfig(cmd, "weak-factor", &practiceWeakFactor, fileCfg.Practice.WeakFactor)
	applyIntConfig(cmd, "weak-window", &practiceWeakWindow, fileCfg.Practice.WeakWindow)

	cfg := model.Config{
		Mode:        model.ParseMode(practiceMode),
		DriftEvery:  practiceDriftEvery,
		DriftSteps:  practiceDriftSteps,
		OffsetSteps: practiceOffsetSteps,
		FeedbackMs:  practiceFeedbackMs,
		Seeded:      practiceSeeded,
		Seed:        practiceSeed,
		FocusWeak:   practiceFocusWeak,
		WeakTop:     practiceWeakTop,
		WeakFactor:  practiceWeakFactor,
		WeakWindow:  practiceWeakWindow,
	}
	if err := validateConfig(cfg); err != nil {
		return err
	}

	var seq *sequence.Sequence
	if practicePreset != "" {
		seq, err = preset.Load(practicePreset, config.DefaultPresetDir())
		if err != nil {
			return err
		}
	} else {
		seq = loadSequence(st)
	}

	weakKeys := map[string]struct{}{}
	if cfg.FocusWeak && st != nil {
		aggs, err := st.GetWeakShots(context.Background(), cfg.WeakWindow)
		if err != nil {
			logErrf("failed to load weak shots: %v\n", err)
		} else if len(aggs) == 0 {
			logErrln("no stats available for weak-shot focus yet; using uniform selection")
		} else {
			weakKeys = stats.SelectWeakShots(aggs, cfg.WeakTop)
		}
	}

	sess := session.New(seq, cfg, session.NewRand(cfg.Seeded, cfg.Seed), weakKeys)
	if err := sess.Start(); err != nil {
		return err
	}

	uiModel := tui.NewModel(cfg, st, sess, seq)
	program := tea.NewProgram(uiModel, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}

	if st != nil {
		if err := st.SaveSettings(context.Background(), practiceSettings()); err != nil {
			logErrf("failed to save last-used settings: %v\n", err)
		}
	}
	return nil
}

// practiceSettings snapshots the effective practice configuration for reuse
// on the next run.
func practiceSettings() store.Settings {
	mode := practiceMode
	driftEvery := practiceDriftEvery
	driftSteps := practiceDriftSteps
	offsetSteps := practiceOffsetSteps
	feedbackMs := practiceFeedbackMs
	seeded := practiceSeeded
	seed := practiceSeed
	focusWeak := practiceFocusWeak
	weakTop := practiceWeakTop
	weakFactor := practiceWeakFactor
	weakWindow := practiceWeakWindow
	return store.Settings{
		Mode:        &mode,
		DriftEvery:  &driftEvery,
		DriftSteps:  &driftSteps,
		OffsetSteps: &offsetSteps,
		FeedbackMs:  &feedbackMs,
		Seeded:      &seeded,
		Seed:        &seed,
		FocusWeak:   &focusWeak,
		WeakTop:     &weakTop,
		WeakFactor:  &weakFactor,
		WeakWindow:  &weakWindow,
	}
}

func newEditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "edit",
		Short: "Edit the shot layout",
		Args:  cobra.NoArgs,
		RunE:  runEditCmd,
	}
}

func runEditCmd(_ *cobra.Command, _ []string) error {
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer closeStore(st)

	seq := loadSequence(st)
	editor := tui.NewEditor(seq, func(s *sequence.Sequence) error {
		return saveSequence(st, s)
	})
	program := tea.NewProgram(editor, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run editor: %w", err)
	}
	return nil
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show recall stats",
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N sessions")
	cmd.Flags().IntVar(&statsCurveWindow, "curve-window", defaultCurveWindow, "moving average window")
	cmd.Flags().StringVar(&statsShots, "shot", "", "label/side keys for per-shot curves")
	return cmd
}

func runStatsCmd(_ *cobra.Command, _ []string) error {
	var sinceTime *time.Time
	if statsSince != "" {
		parsed, err := time.ParseInLocation("2006-01-02", statsSince, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --since value: %w", err)
		}
		sinceTime = &parsed
	}

	cfg := model.StatsConfig{
		Since:       sinceTime,
		Last:        statsLast,
		CurveWindow: statsCurveWindow,
		Shots:       statsShots,
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer closeStore(st)

	uiModel := statsui.NewModel(st, cfg)
	program := tea.NewProgram(uiModel, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run stats TUI: %w", err)
	}
	return nil
}

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List layout presets",
		Args:  cobra.NoArgs,
		RunE:  runPresetsCmd,
	}
}

func runPresetsCmd(cmd *cobra.Command, _ []string) error {
	presets, err := preset.List(config.DefaultPresetDir())
	if err != nil {
		return fmt.Errorf("failed to list presets: %w", err)
	}
	for _, p := range presets {
		origin := "built-in"
		if !p.Builtin {
			origin = "user"
		}
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", p.Name, origin); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Export the shot layout as JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runExportCmd,
	}
}

func runExportCmd(cmd *cobra.Command, args []string) error {
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer closeStore(st)

	seq := loadSequence(st)
	data, err := sequence.Export(seq)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), string(data)); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}
	if err := os.WriteFile(args[0], append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", args[0], err)
	}
	return nil
}

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import a shot layout from JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  runImportCmd,
	}
}

func runImportCmd(_ *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	seq, err := sequence.Import(data)
	if err != nil {
		return err
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer closeStore(st)

	if err := saveSequence(st, seq); err != nil {
		return err
	}
	logErrf("Imported %d shots\n", seq.Len())
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

// openStoreOrWarn opens the stats database for practice. Storage failures
// degrade to an unsaved session rather than blocking practice.
func openStoreOrWarn() *store.Store {
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		logErrf("failed to open db: %v\n", err)
		logErrln("continuing without stats; this session will not be saved")
		return nil
	}
	return st
}

func closeStore(st *store.Store) {
	if err := st.Close(); err != nil {
		logErrf("failed to close db: %v\n", err)
	}
}

// loadSequence reads the saved layout from the kv store, falling back to the
// built-in default when nothing is saved or the saved document is malformed.
func loadSequence(st *store.Store) *sequence.Sequence {
	if st == nil {
		return sequence.Default()
	}
	raw, ok, err := st.Get(context.Background(), store.KeyShots)
	if err != nil {
		logErrf("failed to load shot layout: %v\n", err)
		return sequence.Default()
	}
	if !ok {
		return sequence.Default()
	}
	seq, err := sequence.Import([]byte(raw))
	if err != nil {
		logErrf("saved shot layout is malformed, using default: %v\n", err)
		return sequence.Default()
	}
	return seq
}

func saveSequence(st *store.Store, seq *sequence.Sequence) error {
	data, err := sequence.Export(seq)
	if err != nil {
		return err
	}
	if err := st.Set(context.Background(), store.KeyShots, string(data)); err != nil {
		return fmt.Errorf("failed to save shot layout: %w", err)
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyInt64Config(cmd *cobra.Command, name string, target, value *int64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# flipdrill configuration
# Uncomment a value to enable it. CLI flags override config values.

[practice]
# mode = %q           # Shot selection: random or manual
# drift-every = %d          # Attempts between hidden value drifts (0 disables)
# drift-steps = %d          # Max drift distance in grid steps
# offset-steps = %d         # Max initial offset in grid steps
# feedback-ms = %d       # Feedback display time in milliseconds
# seeded = false            # Use a fixed random seed
# seed = 0                  # Random seed (with seeded)
# focus-weak = false        # Bias random selection toward weak shots
# weak-top = %d              # Number of weak shots to focus on
# weak-factor = %.1f         # Weight factor for weak shots
# weak-window = %d          # Number of recent sessions to compute weak shots
`,
		defaultMode,
		defaultDriftEvery,
		defaultDriftSteps,
		defaultOffsetSteps,
		defaultFeedbackMs,
		defaultWeakTop,
		defaultWeakFactor,
		defaultWeakWindow,
	)
}

func validateConfig(cfg model.Config) error {
	if cfg.DriftEvery < 0 {
		return fmt.Errorf("--drift-every must be >= 0")
	}
	if cfg.DriftSteps < 0 {
		return fmt.Errorf("--drift-steps must be >= 0")
	}
	if cfg.OffsetSteps < 0 {
		return fmt.Errorf("--offset-steps must be >= 0")
	}
	if cfg.FeedbackMs < 0 {
		return fmt.Errorf("--feedback-ms must be >= 0")
	}
	if cfg.WeakTop < 0 {
		return fmt.Errorf("--weak-top must be >= 0")
	}
	if cfg.WeakFactor < 0 {
		return fmt.Errorf("--weak-factor must be >= 0")
	}
	if cfg.WeakWindow < 0 {
		return fmt.Errorf("--weak-window must be >= 0")
	}
	return nil
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
