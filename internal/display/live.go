package display

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"

	"github.com/harrison/pvcheck/internal/models"
)

// liveQueueSize bounds the events waiting for the renderer.
const liveQueueSize = 64

const barWidth = 30

type eventKind int

const (
	eventTestStarted eventKind = iota
	eventTestDone
	eventSessionDone
)

// liveEvent is an immutable record posted to the renderer.
type liveEvent struct {
	kind        eventKind
	index       int
	description string
	status      models.SectionStatus
	reason      string
	counts      models.TagCounts
}

// LiveOptions configures a LiveSink.
type LiveOptions struct {
	Color       bool // Color status words and the progress bar
	Interactive bool // Redraw the progress bar in place
}

// LiveSink shows a live progress view of the session. Events are handed
// to a single renderer goroutine through a bounded queue; EndSession
// waits until everything has been written.
type LiveSink struct {
	w     io.Writer
	total int
	opts  LiveOptions

	summary *models.SessionSummary
	events  chan liveEvent
	done   chan struct{}
	once   sync.Once
}

// NewLiveSink creates a live view for a session of total tests.
func NewLiveSink(w io.Writer, total int, opts LiveOptions) *LiveSink {
	return &LiveSink{w: w, total: total, opts: opts}
}

func (l *LiveSink) BeginSession(summary *models.SessionSummary) {
	l.summary = summary
	l.events = make(chan liveEvent, liveQueueSize)
	l.done = make(chan struct{})
	l.once = sync.Once{}
	r := newLiveRenderer(l.w, l.total, l.opts)
	go func() {
		defer close(l.done)
		for ev := range l.events {
			r.handle(ev)
		}
	}()
}

func (l *LiveSink) post(ev liveEvent) {
	if l.events != nil {
		l.events <- ev
	}
}

func (l *LiveSink) BeginTest(start models.TestStart) {
	l.post(liveEvent{kind: eventTestStarted, index: start.Index, description: start.Description})
}

func (l *LiveSink) ExecutionResult(models.TestStart, *models.ExecutionResult, *models.TestCase) {}

func (l *LiveSink) ComparisonResult(models.SectionComparison) {}

func (l *LiveSink) MissingSection(models.Section) {}

// EndTest reports the verdict the orchestrator recorded for the case.
func (l *LiveSink) EndTest() {
	if l.summary == nil || len(l.summary.Cases) == 0 {
		return
	}
	c := l.summary.Cases[len(l.summary.Cases)-1]
	ev := liveEvent{kind: eventTestDone, status: c.Status()}
	switch {
	case c.Err != nil:
		ev.reason = c.Err.Error()
	case c.Kind != models.KindOk:
		ev.reason = string(c.Kind)
	}
	l.post(ev)
}

// EndSession prints the final counts and waits for the renderer to drain.
func (l *LiveSink) EndSession(summary *models.SessionSummary) error {
	if l.events == nil {
		return nil
	}
	l.once.Do(func() {
		l.events <- liveEvent{kind: eventSessionDone, counts: summary.Counts(models.ProgramTag)}
		close(l.events)
	})
	<-l.done
	l.events = nil
	return nil
}

// liveRenderer owns all terminal state; only the renderer goroutine uses it.
type liveRenderer struct {
	w           io.Writer
	opts        LiveOptions
	bar         *ProgressBar
	ok, warn    *color.Color
	fail        *color.Color
	index       int
	description string
	barShown    bool
}

func newLiveRenderer(w io.Writer, total int, opts LiveOptions) *liveRenderer {
	r := &liveRenderer{
		w:    w,
		opts: opts,
		bar:  NewProgressBar(total, barWidth, opts.Color),
		ok:   color.New(color.Bold, color.FgGreen),
		warn: color.New(color.Bold, color.FgYellow),
		fail: color.New(color.Bold, color.FgRed),
	}
	for _, c := range []*color.Color{r.ok, r.warn, r.fail} {
		if opts.Color {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return r
}

func (r *liveRenderer) handle(ev liveEvent) {
	switch ev.kind {
	case eventTestStarted:
		r.index = ev.index
		r.description = ev.description
		r.drawBar(fmt.Sprintf("test %d ", ev.index+1))
	case eventTestDone:
		r.bar.Increment()
		r.clearBar()
		fmt.Fprintln(r.w, r.testLine(ev.status, ev.reason))
		r.drawBar("")
	case eventSessionDone:
		r.clearBar()
		fmt.Fprintf(r.w, "TEST COMPLETED: %3d %s, %3d %s, %3d %s\n",
			ev.counts.OK, r.ok.Sprint("passes"),
			ev.counts.Warning, r.warn.Sprint("warnings"),
			ev.counts.Error, r.fail.Sprint("errors"))
	}
}

func (r *liveRenderer) testLine(status models.SectionStatus, reason string) string {
	name := r.description
	if name == "" {
		name = "NoName"
	}
	line := fmt.Sprintf("[%d] %s: ", r.index+1, name)
	switch status {
	case models.SectionError:
		line += r.fail.Sprint("ERROR")
	case models.SectionWarning:
		line += r.warn.Sprint("WARNING")
	default:
		line += r.ok.Sprint("OK")
	}
	if reason != "" {
		line += " (" + reason + ")"
	}
	return line
}

func (r *liveRenderer) drawBar(prefix string) {
	if !r.opts.Interactive {
		return
	}
	r.bar.SetPrefix(prefix)
	fmt.Fprint(r.w, "\r\x1b[K"+r.bar.Render())
	r.barShown = true
}

func (r *liveRenderer) clearBar() {
	if r.barShown {
		fmt.Fprint(r.w, "\r\x1b[K")
		r.barShown = false
	}
}
