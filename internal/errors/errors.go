// Package errors provides structured compile diagnostics for the
// component compiler. It parses preprocessor output into structured
// errors with file, line, and column information, and renders code
// frames that point at the offending line of the original document.
// Diagnostics are logged as a side channel alongside the error
// returned to the caller, so the caller-facing error stays a single
// value while the console still shows the full frame.
package errors

import (
	"fmt"
	"strings"
)

// Severity classifies a diagnostic.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

// String returns the string representation of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityWarning:
		return "WARN"
	case SeverityError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Diagnostic is a structured description of one compile problem,
// carrying enough location information to render a code frame.
type Diagnostic struct {
	Severity Severity `json:"severity"`
	// File is the file the problem was reported against
	File string `json:"file"`
	// Line is 1-based; zero means unknown
	Line   int    `json:"line"`
	Column int    `json:"column"`
	// Message is the human-readable problem description
	Message string `json:"message"`
	// Frame is the rendered code frame, when source was available
	Frame string `json:"frame,omitempty"`
	// RawError preserves the unparsed preprocessor output line
	RawError string `json:"raw_error"`
}

// Format renders the diagnostic for terminal display.
func (d *Diagnostic) Format() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("[%s]", d.Severity))
	if d.File != "" {
		b.WriteString(" " + d.File)
		if d.Line > 0 {
			b.WriteString(fmt.Sprintf(":%d", d.Line))
			if d.Column > 0 {
				b.WriteString(fmt.Sprintf(":%d", d.Column))
			}
		}
	}
	b.WriteString(" " + d.Message + "\n")
	if d.Frame != "" {
		b.WriteString(d.Frame)
		if !strings.HasSuffix(d.Frame, "\n") {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// CompileError is the error returned to the caller when a part
// compilation fails. The wrapped cause is the transform's error; the
// optional diagnostics carry the formatted side-channel output.
type CompileError struct {
	// File is the component file being compiled
	File string
	// Part names the failed section kind ("template", "script", "style")
	Part string
	// Cause is the underlying transform error
	Cause error
	// Diagnostics holds parsed structured errors, when available
	Diagnostics []*Diagnostic
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("%s: %s compilation failed: %v", e.File, e.Part, e.Cause)
}

func (e *CompileError) Unwrap() error {
	return e.Cause
}

// CodeFrame renders the region of source around a 1-based line, with a
// marker on the offending line and a caret under the column when one
// is known.
func CodeFrame(source string, line, column, radius int) string {
	if line < 1 {
		return ""
	}
	lines := strings.Split(source, "\n")
	if line > len(lines) {
		return ""
	}

	start := line - radius
	if start < 1 {
		start = 1
	}
	end := line + radius
	if end > len(lines) {
		end = len(lines)
	}

	width := len(fmt.Sprintf("%d", end))
	var b strings.Builder
	for i := start; i <= end; i++ {
		marker := "  "
		if i == line {
			marker = "> "
		}
		b.WriteString(fmt.Sprintf("%s%*d | %s\n", marker, width, i, lines[i-1]))
		if i == line && column > 0 {
			b.WriteString(fmt.Sprintf("  %*s | %s^\n", width, "", strings.Repeat(" ", column-1)))
		}
	}
	return b.String()
}
