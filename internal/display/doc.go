// Package display provides terminal output helpers for pvcheck: the live
// progress view, progress bars, warnings and terminal detection.
//
// # Live view
//
// LiveSink receives session events and renders them from a single
// goroutine, so a slow terminal never blocks the test run for long:
//
//	live := display.NewLiveSink(os.Stdout, suite.Len(), display.LiveOptions{
//	    Color:       true,
//	    Interactive: display.IsTerminal(os.Stdout),
//	})
//
// On a terminal the progress bar is redrawn in place; otherwise one line
// is printed per finished test.
//
// # Warnings
//
//	display.Warning{
//	    Title:      "Log file not written",
//	    Message:    err.Error(),
//	    Paths:      []string{logPath},
//	    Suggestion: "Check the permissions of the log directory",
//	}.Display(os.Stderr)
package display
