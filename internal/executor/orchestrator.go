package executor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/harrison/pvcheck/internal/match"
	"github.com/harrison/pvcheck/internal/models"
	"github.com/harrison/pvcheck/internal/parser"
)

// ResultSink receives the events of a session in this order:
// BeginSession, then for every case BeginTest, ExecutionResult,
// any number of ComparisonResult or MissingSection, EndTest, and finally
// EndSession. Calls are never concurrent. When an infrastructure error
// interrupts a case, ExecutionResult is skipped but EndTest is still sent.
type ResultSink interface {
	BeginSession(summary *models.SessionSummary)
	BeginTest(start models.TestStart)
	ExecutionResult(start models.TestStart, result *models.ExecutionResult, tc *models.TestCase)
	ComparisonResult(cmp models.SectionComparison)
	MissingSection(expected models.Section)
	EndTest()
	EndSession(summary *models.SessionSummary) error
}

// Logger defines the interface for diagnostic messages from the orchestrator.
type Logger interface {
	LogDebug(message string)
	LogInfo(message string)
	LogWarn(message string)
	LogError(message string)
}

// RunOptions holds the per-session execution limits.
type RunOptions struct {
	Timeout     time.Duration // Per-case wall-clock limit; 0 disables it
	OutputLimit int           // Per-stream line limit; 0 disables it
	TestFile    string        // Test description path, recorded in the summary
}

// Orchestrator runs test cases through the executor, matches their output
// and reports every step to a results sink.
type Orchestrator struct {
	executor Executor
	sink     ResultSink
	logger   Logger
}

// NewOrchestrator creates a new Orchestrator instance.
// The logger parameter is optional and can be nil.
func NewOrchestrator(executor Executor, sink ResultSink, logger Logger) *Orchestrator {
	if executor == nil {
		panic("executor cannot be nil")
	}
	if sink == nil {
		panic("result sink cannot be nil")
	}
	return &Orchestrator{
		executor: executor,
		sink:     sink,
		logger:   logger,
	}
}

// RunSuite runs every case of the suite in order and returns the number of
// failed cases. An infrastructure error interrupts only the affected case,
// which counts as failed; all such errors are joined into the returned error.
// SIGINT and SIGTERM cancel the run after killing the running child.
func (o *Orchestrator) RunSuite(ctx context.Context, suite *models.TestSuite, args []string, opts RunOptions) (int, error) {
	if suite == nil {
		return 0, fmt.Errorf("suite cannot be nil")
	}

	ctx, stop := withSignalCancel(ctx)
	defer stop()

	summary := o.beginSession(args, opts)

	failures := 0
	var errs []error
	for i, tc := range suite.Cases() {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		passed, err := o.runCase(ctx, i, tc, args, opts, summary)
		if !passed {
			failures++
		}
		if err != nil {
			errs = append(errs, err)
		}
	}

	if err := o.endSession(summary); err != nil {
		errs = append(errs, err)
	}
	return failures, errors.Join(errs...)
}

// RunCase runs a single case in its own session and reports whether it passed.
// index is the case position used in reports.
func (o *Orchestrator) RunCase(ctx context.Context, index int, tc *models.TestCase, args []string, opts RunOptions) (bool, error) {
	if tc == nil {
		return false, fmt.Errorf("test case cannot be nil")
	}

	ctx, stop := withSignalCancel(ctx)
	defer stop()

	summary := o.beginSession(args, opts)
	passed, err := o.runCase(ctx, index, tc, args, opts, summary)
	return passed, errors.Join(err, o.endSession(summary))
}

func (o *Orchestrator) beginSession(args []string, opts RunOptions) *models.SessionSummary {
	summary := models.NewSessionSummary(uuid.New().String(), opts.TestFile, args)
	o.logDebug(fmt.Sprintf("session %s started", summary.RunID))
	o.sink.BeginSession(summary)
	return summary
}

func (o *Orchestrator) endSession(summary *models.SessionSummary) error {
	summary.FinishedAt = time.Now()
	o.logInfo(fmt.Sprintf("session %s finished: %d/%d failed", summary.RunID, summary.Failed(), summary.Total()))
	if err := o.sink.EndSession(summary); err != nil {
		o.logError(fmt.Sprintf("result sink failed: %v", err))
		return err
	}
	return nil
}

// runCase executes one case and compares its output section by section.
func (o *Orchestrator) runCase(ctx context.Context, index int, tc *models.TestCase, baseArgs []string, opts RunOptions, summary *models.SessionSummary) (bool, error) {
	summary.StartCase(index, tc.Description)
	defer o.sink.EndTest()

	start := prepareCase(index, tc, baseArgs)
	o.sink.BeginTest(start)
	o.logDebug(fmt.Sprintf("running test %d: %s", index+1, strings.Join(DisplayArgs(start.Args), " ")))

	res, err := o.executor.Execute(ctx, Request{
		Args:        start.Args,
		Input:       start.Input,
		TempFile:    start.TempFile,
		Timeout:     opts.Timeout,
		OutputLimit: opts.OutputLimit,
	})
	if err != nil {
		caseErr := &CaseError{Index: index, Description: tc.Description, Err: err}
		current(summary).Err = caseErr
		o.logError(caseErr.Error())
		return false, caseErr
	}

	outcome := current(summary)
	outcome.Kind = res.Kind
	outcome.ExitStatus = res.ExitStatus
	outcome.Duration = res.Duration
	o.sink.ExecutionResult(start, res, tc)

	if res.Kind != models.KindOk {
		o.logWarn(fmt.Sprintf("test %d ended with %s (status %d)", index+1, res.Kind, res.ExitStatus))
		for _, s := range tc.DataSections() {
			summary.RecordSection(s.Tag, models.SectionExecError)
		}
		return false, nil
	}

	passed := o.checkOutput(tc, res.Stdout, summary)
	current(summary).Passed = passed
	return passed, nil
}

// checkOutput matches every expected data section against the first answer
// section with the same tag found in the program output.
func (o *Orchestrator) checkOutput(tc *models.TestCase, stdout string, summary *models.SessionSummary) bool {
	answers := slices.Collect(parser.ParseString(stdout))

	passed := true
	for _, expected := range tc.DataSections() {
		i := slices.IndexFunc(answers, func(a models.Section) bool {
			return a.Tag == expected.Tag
		})
		if i < 0 {
			passed = false
			summary.RecordSection(expected.Tag, models.SectionWarning)
			o.sink.MissingSection(expected)
			continue
		}

		ordered := !tc.HasOption(expected.Tag, models.OptionUnordered)
		outcome := match.CompareSections(answers[i].Content, expected.Content, ordered)
		if outcome.Passed() {
			summary.RecordSection(expected.Tag, models.SectionOK)
		} else {
			passed = false
			summary.RecordSection(expected.Tag, models.SectionError)
		}
		o.sink.ComparisonResult(models.SectionComparison{
			Expected: expected,
			Actual:   answers[i],
			Ordered:  ordered,
			Outcome:  outcome,
		})
	}
	return passed
}

// prepareCase resolves the input, temporary file and arguments of a case.
// When the case has a .FILE section, every argument spelled ".FILE" refers
// to the temporary file.
func prepareCase(index int, tc *models.TestCase, baseArgs []string) models.TestStart {
	input, _ := tc.SectionContent(models.TagInput)

	var tempFile *string
	if content, ok := tc.SectionContent(models.TagFile); ok {
		tempFile = &content
	}

	args := slices.Clone(baseArgs)
	if s, ok := tc.FindSection(models.TagArgs); ok {
		for _, line := range s.Content {
			args = append(args, strings.TrimSpace(line))
		}
	}
	if tempFile != nil {
		for i, a := range args {
			if a == models.TagFile {
				args[i] = TempFilePlaceholder
			}
		}
	}

	return models.TestStart{
		Index:       index,
		Description: tc.Description,
		Args:        args,
		Input:       input,
		TempFile:    tempFile,
	}
}

func current(summary *models.SessionSummary) *models.CaseOutcome {
	return &summary.Cases[len(summary.Cases)-1]
}

// withSignalCancel derives a context canceled on SIGINT or SIGTERM.
func withSignalCancel(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan)
		cancel()
	}
}

func (o *Orchestrator) logDebug(msg string) {
	if o.logger != nil {
		o.logger.LogDebug(msg)
	}
}

func (o *Orchestrator) logInfo(msg string) {
	if o.logger != nil {
		o.logger.LogInfo(msg)
	}
}

func (o *Orchestrator) logWarn(msg string) {
	if o.logger != nil {
		o.logger.LogWarn(msg)
	}
}

func (o *Orchestrator) logError(msg string) {
	if o.logger != nil {
		o.logger.LogError(msg)
	}
}
