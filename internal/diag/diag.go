// Package diag implements the compiler's diagnostic model (spec.md §7):
// recoverable vs fatal errors, collected per-pass and deduplicated by
// (message, position), with source-line-and-caret formatting for terminal
// output.
//
// Grounded on the teacher's internal/errors.CompilerError (source-line +
// caret formatting) and internal/semantic's SemanticError/AnalysisError
// pair (classified error kinds, a Bag that accumulates rather than panics).
package diag

import (
	"fmt"
	"sort"
	"strings"

	"github.com/p8c/p8c/internal/token"
)

// Severity classifies a diagnostic per spec.md §7.
type Severity int

const (
	// Recoverable: the pass continues on sibling nodes; later passes may
	// still run (syntax/structural, name resolution, type diagnostics).
	Recoverable Severity = iota
	// Fatal: fatal for the current function; compilation continues to
	// surface further diagnostics but produces no output for it (codegen
	// errors).
	Fatal
	// Internal: fatal for the whole compilation (invariant violations).
	Internal
)

func (s Severity) String() string {
	switch s {
	case Fatal:
		return "error"
	case Internal:
		return "internal error"
	default:
		return "error"
	}
}

// Diagnostic is a single reported problem.
type Diagnostic struct {
	Severity Severity
	Message  string
	Pos      token.Position
}

// Error implements the error interface so a Diagnostic can be returned
// directly where a single error value is expected.
func (d *Diagnostic) Error() string {
	return fmt.Sprintf("%s: %s at %s", d.Severity, d.Message, d.Pos)
}

// Format renders the diagnostic with a source line and a caret, as the
// teacher's CompilerError.Format does.
func (d *Diagnostic) Format(source string) string {
	var sb strings.Builder
	if d.Pos.File != "" {
		fmt.Fprintf(&sb, "%s: %s:%d:%d\n", d.Severity, d.Pos.File, d.Pos.Line, d.Pos.Column)
	} else {
		fmt.Fprintf(&sb, "%s: line %d:%d\n", d.Severity, d.Pos.Line, d.Pos.Column)
	}
	line := sourceLine(source, d.Pos.Line)
	if line != "" {
		prefix := fmt.Sprintf("%4d | ", d.Pos.Line)
		sb.WriteString(prefix)
		sb.WriteString(line)
		sb.WriteString("\n")
		col := d.Pos.Column
		if col < 1 {
			col = 1
		}
		sb.WriteString(strings.Repeat(" ", len(prefix)+col-1))
		sb.WriteString("^ ")
	}
	sb.WriteString(d.Message)
	return sb.String()
}

func sourceLine(source string, line int) string {
	if line <= 0 {
		return ""
	}
	lines := strings.Split(source, "\n")
	if line > len(lines) {
		return ""
	}
	return lines[line-1]
}

// Bag collects diagnostics across passes, deduplicating identical
// (message, position) pairs (spec.md §7: "A diagnostic is suppressed if the
// same textual message at the same position has already been reported").
type Bag struct {
	items []*Diagnostic
	seen  map[string]bool
}

// NewBag creates an empty diagnostic bag.
func NewBag() *Bag {
	return &Bag{seen: make(map[string]bool)}
}

func (b *Bag) add(sev Severity, pos token.Position, format string, args ...any) *Diagnostic {
	msg := fmt.Sprintf(format, args...)
	key := fmt.Sprintf("%s@%s", msg, pos)
	if b.seen[key] {
		return nil
	}
	b.seen[key] = true
	d := &Diagnostic{Severity: sev, Message: msg, Pos: pos}
	b.items = append(b.items, d)
	return d
}

// Report adds a recoverable diagnostic.
func (b *Bag) Report(pos token.Position, format string, args ...any) {
	b.add(Recoverable, pos, format, args...)
}

// ReportFatal adds a fatal (codegen-class) diagnostic.
func (b *Bag) ReportFatal(pos token.Position, format string, args ...any) {
	b.add(Fatal, pos, format, args...)
}

// ReportInternal adds an internal-invariant-violation diagnostic.
func (b *Bag) ReportInternal(pos token.Position, format string, args ...any) {
	b.add(Internal, pos, format, args...)
}

// HasErrors reports whether any diagnostic was recorded.
func (b *Bag) HasErrors() bool { return len(b.items) > 0 }

// HasFatal reports whether any Fatal or Internal diagnostic was recorded.
func (b *Bag) HasFatal() bool {
	for _, d := range b.items {
		if d.Severity == Fatal || d.Severity == Internal {
			return true
		}
	}
	return false
}

// HasInternal reports whether any Internal diagnostic was recorded; the
// driver must halt the whole pipeline when this is true (spec.md §7).
func (b *Bag) HasInternal() bool {
	for _, d := range b.items {
		if d.Severity == Internal {
			return true
		}
	}
	return false
}

// All returns the collected diagnostics in report order.
func (b *Bag) All() []*Diagnostic { return b.items }

// SortByPosition orders diagnostics by file, then line, then column, for
// stable, readable output.
func (b *Bag) SortByPosition() {
	sort.SliceStable(b.items, func(i, j int) bool {
		a, c := b.items[i].Pos, b.items[j].Pos
		if a.File != c.File {
			return a.File < c.File
		}
		if a.Line != c.Line {
			return a.Line < c.Line
		}
		return a.Column < c.Column
	})
}

// Error implements the error interface over the whole bag, mirroring the
// teacher's AnalysisError aggregate-message behavior.
func (b *Bag) Error() string {
	if len(b.items) == 0 {
		return ""
	}
	if len(b.items) == 1 {
		return b.items[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d diagnostics:\n", len(b.items))
	for i, d := range b.items {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, d.Error())
	}
	return sb.String()
}
