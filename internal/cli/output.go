// Package cli holds terminal output helpers and error types for the
// finalizer command.
package cli

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
	"golang.org/x/term"
)

var (
	green  = color.New(color.FgGreen)
	red    = color.New(color.FgRed)
	yellow = color.New(color.FgYellow)
	gray   = color.New(color.FgHiBlack)
)

// ansiRegex matches SGR escape sequences.
var ansiRegex = regexp.MustCompile("\x1b\\[[0-9;]*m")

// SetColorEnabled overrides color output.
func SetColorEnabled(enabled bool) {
	color.NoColor = !enabled
}

// ColorEnabled returns whether color output is currently enabled.
func ColorEnabled() bool {
	return !color.NoColor
}

// EnableColorFor enables color only when w is a terminal.
func EnableColorFor(w io.Writer) {
	SetColorEnabled(IsTerminal(w) && os.Getenv("NO_COLOR") == "")
}

// IsTerminal returns true if w is a terminal.
func IsTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return term.IsTerminal(int(f.Fd()))
	}
	return false
}

// Green returns s in green if colors are enabled.
func Green(s string) string { return green.Sprint(s) }

// Red returns s in red if colors are enabled.
func Red(s string) string { return red.Sprint(s) }

// Yellow returns s in yellow if colors are enabled.
func Yellow(s string) string { return yellow.Sprint(s) }

// Gray returns s in gray if colors are enabled.
func Gray(s string) string { return gray.Sprint(s) }

// DefaultMaxDetailWidth is the default maximum visible width for detail columns.
const DefaultMaxDetailWidth = 80

// Table formats columnar output with automatic column width calculation.
type Table struct {
	rows      [][]string
	colWidths []int
	maxWidths map[int]int
}

// NewTable creates a new empty table.
func NewTable() *Table {
	return &Table{maxWidths: make(map[int]int)}
}

// SetMaxWidth caps the visible width of a column. Longer cells are
// truncated with "...".
func (t *Table) SetMaxWidth(col, maxWidth int) {
	t.maxWidths[col] = maxWidth
}

// AddRow adds a row to the table.
func (t *Table) AddRow(cols ...string) {
	for len(t.colWidths) < len(cols) {
		t.colWidths = append(t.colWidths, 0)
	}
	for i, col := range cols {
		width := VisibleWidth(col)
		if maxW, ok := t.maxWidths[i]; ok && width > maxW {
			width = maxW
		}
		if width > t.colWidths[i] {
			t.colWidths[i] = width
		}
	}
	t.rows = append(t.rows, cols)
}

// Render writes the table to w with columns separated by two spaces.
func (t *Table) Render(w io.Writer) {
	for _, row := range t.rows {
		parts := make([]string, 0, len(row))
		for i, col := range row {
			if maxW, ok := t.maxWidths[i]; ok {
				col = Truncate(col, maxW)
			}
			// The last column is not padded.
			if i < len(t.colWidths)-1 {
				col += strings.Repeat(" ", t.colWidths[i]-VisibleWidth(col))
			}
			parts = append(parts, col)
		}
		fmt.Fprintln(w, strings.Join(parts, "  "))
	}
}

// Truncate shortens s to maxWidth visible characters, ending in "...".
// Color codes are dropped from truncated strings.
func Truncate(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if VisibleWidth(s) <= maxWidth {
		return s
	}
	plain := []rune(ansiRegex.ReplaceAllString(s, ""))
	if maxWidth <= 3 {
		return string(plain[:maxWidth])
	}
	return string(plain[:maxWidth-3]) + "..."
}

// VisibleWidth returns the number of characters in s excluding color codes.
func VisibleWidth(s string) int {
	return utf8.RuneCountInString(ansiRegex.ReplaceAllString(s, ""))
}
