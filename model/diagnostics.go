package model

import (
	"fmt"
	"strings"
)

// Severity is how serious a diagnostic is.
type Severity int

const (
	// Error is a problem in the source text. Parsing recovered, but the
	// model may not say what the author meant.
	Error Severity = iota
	// Warning is a cross-reference problem found after parsing.
	Warning
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "ERROR"
	case Warning:
		return "WARNING"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// MarshalText lets Severity export as its name.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Diagnostic is one recorded problem with the line that caused it.
type Diagnostic struct {
	Message  string   `yaml:"message" json:"message"`
	Text     string   `yaml:"text" json:"text"`
	Line     int      `yaml:"line" json:"line"` // 1-based; 0 when no line applies
	Severity Severity `yaml:"severity" json:"severity"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%d: [%s] -> %s", d.Line, d.Text, d.Message)
}

// Diagnostics is an ordered, append-only list of findings for one parse.
type Diagnostics struct {
	items []Diagnostic
}

// Add appends d.
func (l *Diagnostics) Add(d Diagnostic) {
	l.items = append(l.items, d)
}

// Errorf records an error-severity diagnostic for line (1-based) with the
// given source text.
func (l *Diagnostics) Errorf(line int, text, format string, args ...any) Diagnostic {
	d := Diagnostic{
		Message:  fmt.Sprintf(format, args...),
		Text:     strings.TrimSpace(text),
		Line:     line,
		Severity: Error,
	}
	l.Add(d)
	return d
}

// All returns a copy of the recorded diagnostics in order.
func (l *Diagnostics) All() []Diagnostic {
	out := make([]Diagnostic, len(l.items))
	copy(out, l.items)
	return out
}

// Len returns the number of recorded diagnostics.
func (l *Diagnostics) Len() int { return len(l.items) }

// HasErrors reports whether any error-severity diagnostic was recorded.
func (l *Diagnostics) HasErrors() bool {
	return ErrorCount(l.items) > 0
}

// ErrorCount returns how many of diags have Error severity.
func ErrorCount(diags []Diagnostic) int {
	n := 0
	for _, d := range diags {
		if d.Severity == Error {
			n++
		}
	}
	return n
}

// Reset drops every recorded diagnostic.
func (l *Diagnostics) Reset() {
	l.items = nil
}

func (l *Diagnostics) String() string {
	lines := make([]string, len(l.items))
	for i, d := range l.items {
		lines[i] = d.String()
	}
	return strings.Join(lines, "\n")
}
