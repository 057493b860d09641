package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/harrison/pvcheck/internal/config"
	"github.com/harrison/pvcheck/internal/display"
	"github.com/harrison/pvcheck/internal/executor"
	"github.com/harrison/pvcheck/internal/formatter"
	"github.com/harrison/pvcheck/internal/history"
	"github.com/harrison/pvcheck/internal/logger"
	"github.com/harrison/pvcheck/internal/models"
	"github.com/harrison/pvcheck/internal/watch"
)

// NewRunCommand creates the run command
func NewRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [flags] <program> [program-args...]",
		Short: "Test a program",
		Long: `Run the program once for every test case in the test file and check
its output section by section.

Settings are loaded from .pvcheck/config.yaml if present.
Command line flags override settings.

Examples:
  pvcheck run ./sum
  pvcheck run -f sum.test -v 4 ./sum --fast
  pvcheck run -T 2 -t 1.5 ./sum
  pvcheck run -F json ./sum > report.json
  pvcheck run -w ./sum`,
		Args: cobra.MinimumNArgs(1),
		RunE: runCommand,
	}
	// Everything after the program name belongs to the program
	cmd.Flags().SetInterspersed(false)

	cmd.Flags().StringP("file", "f", "pvcheck.test", "File containing the tests to be performed")
	cmd.Flags().IntP("test", "T", 0, "Run only the selected test (1-based)")
	cmd.Flags().StringP("timeout", "t", "", "Time limit per test, in seconds or as a duration (default 10)")
	cmd.Flags().IntP("max-errors", "e", 0, "Report up to N errors per section (default 4)")
	cmd.Flags().IntP("verbosity", "v", 0, "Verbosity level from 0 (errors) to 4 (debug) (default 3)")
	cmd.Flags().BoolP("valgrind", "V", false, "Run the program under valgrind to check memory usage")
	cmd.Flags().StringP("log", "l", "", "JSON log file; empty disables logging (default ~/.pvcheck.log)")
	cmd.Flags().IntP("output-limit", "L", 0, "Cut the output of the program to L lines (default 10000)")
	cmd.Flags().StringSliceP("config", "c", nil, "Sections file prepended to the test file (repeatable)")
	cmd.Flags().StringP("format", "F", "", "Output format: text, json, csv, html, live (default text)")
	cmd.Flags().StringP("color", "C", "", "Colored output: yes, no, auto (default auto)")
	cmd.Flags().String("history", "", "SQLite database recording every run")
	cmd.Flags().String("log-level", "", "Diagnostics level: trace, debug, info, warn, error (default warn)")
	cmd.Flags().String("settings", "", "Settings file (default .pvcheck/config.yaml)")
	cmd.Flags().BoolP("watch", "w", false, "Run again whenever the program or the test files change")

	return cmd
}

// runCommand implements the run command logic
func runCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadSettings(cmd)
	if err != nil {
		return infraError(err)
	}
	overrides, err := runOverrides(cmd)
	if err != nil {
		return infraError(err)
	}
	cfg.MergeWithFlags(overrides)
	if err := cfg.Validate(); err != nil {
		return infraError(fmt.Errorf("invalid configuration: %w", err))
	}

	testFile, _ := cmd.Flags().GetString("file")
	prefixFiles, _ := cmd.Flags().GetStringSlice("config")
	r := &runner{
		cfg:         cfg,
		args:        args,
		testFile:    testFile,
		prefixFiles: prefixFiles,
		out:         cmd.OutOrStdout(),
		errOut:      cmd.ErrOrStderr(),
		log:         logger.NewConsoleLogger(cmd.ErrOrStderr(), cfg.LogLevel),
	}
	if cmd.Flags().Changed("test") {
		n, _ := cmd.Flags().GetInt("test")
		if n < 1 {
			return infraError(fmt.Errorf("invalid test number %d", n))
		}
		r.testNumber = n
	}

	r.exe = executor.NewProcessExecutor(cfg.TempDir)
	if cfg.Valgrind {
		if _, err := exec.LookPath("valgrind"); err != nil {
			r.warn(display.Warning{
				Title:      "valgrind not found",
				Message:    "Every test will fail to start.",
				Suggestion: "Install valgrind or drop --valgrind",
			})
		}
		r.exe = executor.NewValgrindExecutor(r.exe)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if watchMode, _ := cmd.Flags().GetBool("watch"); watchMode {
		return r.watch(ctx)
	}
	return r.session(ctx)
}

// runner holds what a test session needs; the suite is reloaded for
// every session.
type runner struct {
	cfg         *config.Config
	args        []string
	testFile    string
	prefixFiles []string
	testNumber  int // 1-based, 0 runs the whole suite
	out, errOut io.Writer
	log         *logger.ConsoleLogger
	exe         executor.Executor
}

// session runs the selected tests once and maps the outcome to an error.
func (r *runner) session(ctx context.Context) error {
	var extra []models.Section
	if r.cfg.Valgrind {
		// Every case expects an empty valgrind report
		extra = append(extra, models.NewSection(executor.ValgrindTag))
	}
	suite, err := loadSuite(r.prefixFiles, r.testFile, extra...)
	if err != nil {
		return infraError(err)
	}
	r.log.LogDebug(fmt.Sprintf("loaded %d test(s) from %s", suite.Len(), r.testFile))

	var single *models.TestCase
	total := suite.Len()
	if r.testNumber != 0 {
		single, err = suite.Case(r.testNumber - 1)
		if err != nil {
			return infraError(fmt.Errorf("test %d: %w", r.testNumber, err))
		}
		total = 1
	}

	sink, closeSinks, err := r.buildSinks(total)
	if err != nil {
		return infraError(err)
	}
	defer closeSinks()

	orch := executor.NewOrchestrator(r.exe, sink, r.log)
	opts := executor.RunOptions{
		Timeout:     r.cfg.Timeout,
		OutputLimit: r.cfg.OutputLimit,
		TestFile:    r.testFile,
	}

	var failures int
	if single != nil {
		var passed bool
		passed, err = orch.RunCase(ctx, r.testNumber-1, single, r.args, opts)
		if !passed {
			failures = 1
		}
	} else {
		failures, err = orch.RunSuite(ctx, suite, r.args, opts)
	}

	if err != nil {
		return infraError(err)
	}
	if failures > 0 {
		return &ExitError{Code: min(failures, MaxFailureCode)}
	}
	return nil
}

// watch repeats the session whenever the program or a test file changes,
// until ctx is cancelled or the process is interrupted. The result of the
// last session is returned.
func (r *runner) watch(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	paths := append([]string{r.testFile}, r.prefixFiles...)
	if program, err := exec.LookPath(r.args[0]); err == nil {
		paths = append(paths, program)
	}
	w, err := watch.NewWatcher(paths, watch.DefaultDebounceDelay)
	if err != nil {
		return infraError(err)
	}
	defer w.Close()

	last := r.session(ctx)
	r.reportSession(last)
	for {
		select {
		case <-ctx.Done():
			return last
		case path := <-w.Changes():
			r.log.LogInfo(fmt.Sprintf("%s changed, running again", path))
			fmt.Fprintln(r.out)
			last = r.session(ctx)
			r.reportSession(last)
		case err := <-w.Errors():
			r.log.LogWarn(fmt.Sprintf("watch: %v", err))
		}
	}
}

// reportSession prints errors that would otherwise only surface on exit.
func (r *runner) reportSession(err error) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Err != nil {
		r.log.LogError(exitErr.Err.Error())
	}
}

func (r *runner) warn(w display.Warning) {
	w.Plain = !colorEnabled(r.cfg.Color, r.errOut)
	w.Display(r.errOut)
}

// runOverrides collects the flags set on the command line.
func runOverrides(cmd *cobra.Command) (config.Overrides, error) {
	var o config.Overrides
	flags := cmd.Flags()

	if flags.Changed("timeout") {
		s, _ := flags.GetString("timeout")
		d, err := config.ParseTimeout(s)
		if err != nil {
			return o, err
		}
		o.Timeout = &d
	}
	intFlag := func(name string, dst **int) {
		if flags.Changed(name) {
			v, _ := flags.GetInt(name)
			*dst = &v
		}
	}
	stringFlag := func(name string, dst **string) {
		if flags.Changed(name) {
			v, _ := flags.GetString(name)
			*dst = &v
		}
	}
	intFlag("max-errors", &o.MaxErrors)
	intFlag("verbosity", &o.Verbosity)
	intFlag("output-limit", &o.OutputLimit)
	stringFlag("format", &o.Format)
	stringFlag("color", &o.Color)
	stringFlag("log", &o.LogFile)
	stringFlag("history", &o.HistoryDB)
	stringFlag("log-level", &o.LogLevel)
	if flags.Changed("valgrind") {
		v, _ := flags.GetBool("valgrind")
		o.Valgrind = &v
	}
	return o, nil
}

// colorEnabled resolves the color mode for w.
func colorEnabled(mode string, w io.Writer) bool {
	switch mode {
	case config.ColorYes:
		return true
	case config.ColorNo:
		return false
	default:
		return display.IsTerminal(w)
	}
}

// buildSinks assembles the report for stdout plus the optional JSON log and
// history database. The returned function releases their resources.
func (r *runner) buildSinks(total int) (executor.ResultSink, func(), error) {
	cfg := r.cfg
	colored := colorEnabled(cfg.Color, r.out)
	sinks := formatter.NewCombined()

	switch cfg.Format {
	case config.FormatJSON:
		sinks.Add(formatter.NewJSONFormatter(r.out, "    "))
	case config.FormatCSV:
		sinks.Add(formatter.NewCSVFormatter(r.out))
	case config.FormatHTML:
		sinks.Add(formatter.NewHTMLFormatter(r.out))
	case config.FormatLive:
		sinks.Add(display.NewLiveSink(r.out, total, display.LiveOptions{
			Color:       colored,
			Interactive: display.IsTerminal(r.out),
		}))
	default:
		sinks.Add(formatter.NewTextFormatter(r.out, cfg.Verbosity, cfg.MaxErrors, colored))
	}

	warnOnError := func(title, path string) func(error) {
		return func(err error) {
			r.warn(display.Warning{Title: title, Message: err.Error(), Paths: []string{path}})
		}
	}

	if cfg.LogFile != "" {
		path, err := config.ExpandHome(cfg.LogFile)
		if err != nil {
			return nil, nil, err
		}
		sinks.Add(&bestEffort{ResultSink: formatter.NewLogFileSink(path), onError: warnOnError("log file not written", path)})
	}

	closeFn := func() {}
	if cfg.HistoryDB != "" {
		path, err := config.ExpandHome(cfg.HistoryDB)
		if err != nil {
			return nil, nil, err
		}
		store, err := history.NewStore(path)
		if err != nil {
			return nil, nil, fmt.Errorf("open history database: %w", err)
		}
		sinks.Add(&bestEffort{ResultSink: history.NewSink(store), onError: warnOnError("history not recorded", path)})
		closeFn = func() { store.Close() }
	}

	return sinks, closeFn, nil
}

// bestEffort reports EndSession failures through onError instead of
// failing the run.
type bestEffort struct {
	executor.ResultSink
	onError func(error)
}

func (b *bestEffort) EndSession(summary *models.SessionSummary) error {
	if err := b.ResultSink.EndSession(summary); err != nil {
		b.onError(err)
	}
	return nil
}
