package formatter

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/harrison/pvcheck/internal/filelock"
	"github.com/harrison/pvcheck/internal/models"
)

// JSONFormatter writes the session report as a JSON document at session end.
type JSONFormatter struct {
	*Recorder
	w      io.Writer
	indent string
}

// NewJSONFormatter creates a JSON formatter writing to w.
// A non-empty indent pretty-prints the document.
func NewJSONFormatter(w io.Writer, indent string) *JSONFormatter {
	return &JSONFormatter{Recorder: NewRecorder(), w: w, indent: indent}
}

func (f *JSONFormatter) EndSession(summary *models.SessionSummary) error {
	if err := f.Recorder.EndSession(summary); err != nil {
		return err
	}
	data, err := marshalReport(f.Report(), f.indent)
	if err != nil {
		return err
	}
	if _, err := f.w.Write(data); err != nil {
		return fmt.Errorf("write JSON report: %w", err)
	}
	return nil
}

// LogFileSink appends one JSON report line per session to a log file
// shared by concurrent pvcheck processes.
type LogFileSink struct {
	*Recorder
	path string
}

// NewLogFileSink creates a sink appending to path.
func NewLogFileSink(path string) *LogFileSink {
	return &LogFileSink{Recorder: NewRecorder(), path: path}
}

func (s *LogFileSink) EndSession(summary *models.SessionSummary) error {
	if err := s.Recorder.EndSession(summary); err != nil {
		return err
	}
	data, err := marshalReport(s.Report(), "")
	if err != nil {
		return err
	}
	if err := filelock.LockAndAppend(s.path, data); err != nil {
		return fmt.Errorf("write log file: %w", err)
	}
	return nil
}

// marshalReport encodes the report followed by a newline.
func marshalReport(r *Report, indent string) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if indent != "" {
		data, err = json.MarshalIndent(r, "", indent)
	} else {
		data, err = json.Marshal(r)
	}
	if err != nil {
		return nil, fmt.Errorf("encode JSON report: %w", err)
	}
	return append(data, '\n'), nil
}
