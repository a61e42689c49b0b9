package cli

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/bblocks/bblocks/pkg/register"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorBlue   = lipgloss.Color("75")  // Light blue - links
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Public Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleLink for URLs.
	StyleLink = lipgloss.NewStyle().Foreground(colorBlue).Underline(true)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleSuccess for success messages.
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

// =============================================================================
// Internal Styles
// =============================================================================

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleRetired = lipgloss.NewStyle().Foreground(colorDim)
	styleKey     = lipgloss.NewStyle().Foreground(colorGray).Width(14)
	styleHeader  = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
)

// =============================================================================
// Status Output
// =============================================================================

func printSuccess(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconSuccess.Render(iconSuccess)+" "+fmt.Sprintf(format, args...))
}

func printError(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconError.Render(iconError)+" "+fmt.Sprintf(format, args...))
}

func printWarning(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconWarning.Render(iconWarning)+" "+StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconInfo.Render(iconInfo)+" "+fmt.Sprintf(format, args...))
}

// printDetail prints a detail line (indented).
func printDetail(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints a file output line.
func printFile(w io.Writer, path string) {
	fmt.Fprintln(w, "  "+StyleDim.Render(iconArrow)+" "+StyleValue.Render(path))
}

// printKeyValue prints a labeled value. Empty values are skipped.
func printKeyValue(w io.Writer, key, value string) {
	if value == "" {
		return
	}
	fmt.Fprintln(w, styleKey.Render(key)+" "+StyleValue.Render(value))
}

// =============================================================================
// Items
// =============================================================================

// inactive reports whether an item should be drawn muted.
func inactive(s *register.Summary) bool {
	return s.Status == register.StatusRetired || s.Status == register.StatusSuperseded || s.Status == register.StatusInvalid
}

// itemTable renders items as a bordered table.
func itemTable(items []*register.Summary, home *register.Register) string {
	rows := make([][]string, len(items))
	for i, s := range items {
		source := ""
		if s.Owner() != home {
			source = "imported"
		}
		rows[i] = []string{s.ItemIdentifier, s.Name, string(s.Status), string(s.ItemClass), source}
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Identifier", "Name", "Status", "Class", "").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleHeader
			}
			if row < len(items) && inactive(items[row]) {
				return styleRetired
			}
			if col == 0 {
				return lipgloss.NewStyle().Foreground(colorCyan)
			}
			return lipgloss.NewStyle()
		})
	return t.Render()
}

// printItem prints the summary fields of an item.
func printItem(w io.Writer, s *register.Summary) {
	fmt.Fprintln(w, StyleTitle.Render(s.Name))
	printKeyValue(w, "Identifier", s.ItemIdentifier)
	printKeyValue(w, "Status", string(s.Status))
	printKeyValue(w, "Class", string(s.ItemClass))
	printKeyValue(w, "Version", s.Version)
	printKeyValue(w, "Added", s.DateTimeAddition)
	printKeyValue(w, "Changed", s.DateOfLastChange)
	if owner := s.Owner(); owner != nil {
		printKeyValue(w, "Register", owner.URL)
	}
	printKeyValue(w, "Schema", s.SchemaURL())
	printKeyValue(w, "Context", s.LDContext)
	printKeyValue(w, "Full record", s.FullDocumentURL())
	printKeyValue(w, "Depends on", strings.Join(s.DependsOn, ", "))
	printKeyValue(w, "Tags", strings.Join(s.Tags, ", "))
	shapes := s.ResolvedShapes()
	for _, src := range slices.Sorted(maps.Keys(shapes)) {
		printKeyValue(w, "Shapes", fmt.Sprintf("%s (from %s)", strings.Join(shapes[src], ", "), src))
	}
	if s.Abstract != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, StyleDim.Render(s.Abstract))
	}
}
