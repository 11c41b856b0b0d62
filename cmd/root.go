package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"blairpng/internal/config"
	"blairpng/internal/engine"
	"blairpng/internal/logging"
	"blairpng/internal/metrics"
	"blairpng/internal/planner"
	"blairpng/internal/processor"
	"blairpng/internal/tui"
)

var (
	level       int
	threads     int
	quiet       bool
	verbose     bool
	configPath  string
	initConfig  bool
	metricsFile string
)

var rootCmd = &cobra.Command{
	Use:   "blairpng [dir]",
	Short: "blairpng - lossless batch PNG optimizer",
	Long: "blairpng recompresses every .png file in a directory in place, keeping a file only " +
		"when the result is smaller. Pixels are never changed.",
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runOptimize,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	flags := rootCmd.Flags()
	flags.IntVarP(&level, "level", "l", planner.MaxLevel, "optimization level (0-6, higher = more compression, slower)")
	flags.IntVarP(&threads, "threads", "j", 0, "number of files optimized in parallel (default: one per CPU)")
	flags.BoolVarP(&quiet, "quiet", "q", false, "don't show the progress bar")
	flags.BoolVarP(&verbose, "verbose", "v", false, "print a line for each file whose size changed")
	flags.StringVarP(&configPath, "config", "c", "", "path to a config file (default: ./"+config.DefaultFile+" if present)")
	flags.BoolVar(&initConfig, "init", false, "write an example "+config.DefaultFile+" to the current directory and exit")
	flags.StringVar(&metricsFile, "metrics-file", "", "write batch metrics in Prometheus text format to this path")
}

func runOptimize(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if !quiet {
		fmt.Fprintln(out, tui.Banner())
	}

	if initConfig {
		path, err := config.WriteExample(".")
		if err != nil {
			return err
		}
		color.New(color.FgGreen).Fprintf(out, "Created example config %s\n", path)
		return nil
	}

	var levelOverride *int
	if cmd.Flags().Changed("level") {
		if level < 0 || level > planner.MaxLevel {
			return fmt.Errorf("--level must be between 0 and %d, got %d", planner.MaxLevel, level)
		}
		levelOverride = &level
	}

	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}

	log := logging.New(verbose)
	defer func() { _ = log.Sync() }()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	info, err := os.Stat(dir)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("directory does not exist: %s", dir)
	case err != nil:
		return err
	case !info.IsDir():
		return fmt.Errorf("not a directory: %s", dir)
	}

	paths, err := processor.Discover(dir)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		fmt.Fprintf(out, "No .png files found in %s\n", dir)
		return nil
	}

	plan, warnings := planner.Build(cfg, levelOverride)
	for _, w := range warnings {
		log.Warn("config value adjusted",
			zap.String("field", w.Field),
			zap.String("value", w.Value),
			zap.String("reason", w.Message),
		)
	}
	log.Debug("plan resolved", zap.Stringer("plan", plan), zap.Int("files", len(paths)))

	showProgress := !quiet
	// Per-file lines are held back while the bar owns the terminal.
	var verboseOut io.Writer
	var verboseBuf bytes.Buffer
	switch {
	case verbose && showProgress:
		verboseOut = &verboseBuf
	case verbose:
		verboseOut = out
	}
	proc := processor.New(engine.Engine{}, log, verboseOut)

	var sinks []processor.ProgressSink
	var m *metrics.Metrics
	if metricsFile != "" {
		m = metrics.New()
		sinks = append(sinks, m)
	}
	var progress *tui.Progress
	if showProgress {
		progress = tui.Start(len(paths), out)
		sinks = append(sinks, progress.Sink())
	}

	start := time.Now()
	outcomes := proc.RunBatch(paths, plan, threads, metrics.Tee(sinks...))
	elapsed := time.Since(start)
	if progress != nil {
		progress.Finish()
	}
	_, _ = verboseBuf.WriteTo(out)

	summary := processor.Summarize(outcomes, elapsed)
	printSummary(out, summary)

	if m != nil {
		m.Observe(summary)
		if err := m.WriteFile(metricsFile); err != nil {
			log.Warn("failed to write metrics", zap.Error(err))
		}
	}
	return nil
}

func printSummary(out io.Writer, s processor.Summary) {
	fmt.Fprintf(out, "\n%s\n", headlineStyle.Render(
		fmt.Sprintf("✓ Optimized %d files in %.1fs", s.Files, s.Elapsed.Seconds())))

	rows := []tui.SummaryRow{
		{Label: "Saved", Value: fmt.Sprintf("%.1f%%", s.ReductionPct())},
		{Label: "Saved (bytes)", Value: fmt.Sprintf("%d (%s)", s.Reduction(), tui.FormatBytes(s.Reduction()))},
		{Label: "Final size", Value: fmt.Sprintf("%d bytes", s.After)},
		{Label: "Original size", Value: fmt.Sprintf("%d bytes", s.Before)},
	}
	if s.Failed > 0 {
		rows = append(rows, tui.SummaryRow{Label: "Failed", Value: fmt.Sprintf("%d", s.Failed)})
	}
	fmt.Fprintln(out, tui.RenderSummary(rows))
}

var headlineStyle = lipgloss.NewStyle().Bold(true).Foreground(tui.ColorSuccess)
