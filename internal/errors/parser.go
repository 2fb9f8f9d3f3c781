package errors

import (
	"regexp"
	"strconv"
	"strings"
)

// DiagnosticParser parses preprocessor output into structured
// diagnostics. Preprocessors do not share an error format, so the
// parser tries a list of known patterns per line and falls back to a
// generic diagnostic for lines that merely look like errors.
type DiagnosticParser struct {
	patterns []diagnosticPattern
}

type diagnosticPattern struct {
	regex       *regexp.Regexp
	parseFields func(matches []string) (file string, line, column int, message string)
}

// NewDiagnosticParser creates a parser covering the common
// preprocessor output shapes.
func NewDiagnosticParser() *DiagnosticParser {
	return &DiagnosticParser{patterns: buildPatterns()}
}

// Parse parses multi-line preprocessor output into diagnostics. Lines
// matching no pattern contribute a generic diagnostic only when they
// contain an error keyword.
func (dp *DiagnosticParser) Parse(output string) []*Diagnostic {
	var diags []*Diagnostic

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if d := dp.tryPatterns(line); d != nil {
			diags = append(diags, d)
			continue
		}

		lower := strings.ToLower(line)
		if strings.Contains(lower, "error") || strings.Contains(lower, "failed") {
			diags = append(diags, &Diagnostic{
				Severity: SeverityError,
				Message:  line,
				RawError: line,
			})
		}
	}

	return diags
}

func (dp *DiagnosticParser) tryPatterns(line string) *Diagnostic {
	for _, pattern := range dp.patterns {
		matches := pattern.regex.FindStringSubmatch(line)
		if matches == nil {
			continue
		}
		file, lineNum, column, message := pattern.parseFields(matches)
		return &Diagnostic{
			Severity: SeverityError,
			File:     file,
			Line:     lineNum,
			Column:   column,
			Message:  message,
			RawError: line,
		}
	}
	return nil
}

func buildPatterns() []diagnosticPattern {
	return []diagnosticPattern{
		// file:line:col: message (node, tsc, esbuild style)
		{
			regex: regexp.MustCompile(`^(.+?):(\d+):(\d+):? (.+)$`),
			parseFields: func(m []string) (string, int, int, string) {
				line, _ := strconv.Atoi(m[2])
				col, _ := strconv.Atoi(m[3])
				return m[1], line, col, m[4]
			},
		},
		// file:line: message
		{
			regex: regexp.MustCompile(`^(.+?):(\d+): (.+)$`),
			parseFields: func(m []string) (string, int, int, string) {
				line, _ := strconv.Atoi(m[2])
				return m[1], line, 0, m[3]
			},
		},
		// Error: message on line N of file (sass style)
		{
			regex: regexp.MustCompile(`^Error: (.+?) on line (\d+) of (.+)$`),
			parseFields: func(m []string) (string, int, int, string) {
				line, _ := strconv.Atoi(m[2])
				return m[3], line, 0, m[1]
			},
		},
		// SyntaxError: message (line, col) style
		{
			regex: regexp.MustCompile(`^(?:Syntax|Parse)Error: (.+?) \((\d+):(\d+)\)$`),
			parseFields: func(m []string) (string, int, int, string) {
				line, _ := strconv.Atoi(m[2])
				col, _ := strconv.Atoi(m[3])
				return "", line, col, m[1]
			},
		},
	}
}
