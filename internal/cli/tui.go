package cli

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/bblocks/bblocks/pkg/register"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// ItemListModel - Interactive item browser
// =============================================================================

// ItemListModel is the bubbletea model of the item browser. It lists the
// items of a register and its imports; enter opens the detail view of the
// item under the cursor and "/" filters by identifier or name.
type ItemListModel struct {
	Register *register.Register
	Items    []*register.Summary // all items
	Visible  []*register.Summary // items matching Filter
	Cursor   int
	Height   int
	Offset   int

	Filter    string
	Filtering bool
	Detail    *register.Summary // item shown in the detail view, nil in the list
}

// NewItemListModel creates a browser over every item of reg.
func NewItemListModel(reg *register.Register) ItemListModel {
	items := reg.AllItems()
	return ItemListModel{
		Register: reg,
		Items:    items,
		Visible:  items,
		Height:   15,
	}
}

func (m ItemListModel) Init() tea.Cmd {
	return nil
}

func (m ItemListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.Filtering {
			return m.updateFilter(msg), nil
		}
		if m.Detail != nil {
			switch msg.String() {
			case "q", "ctrl+c":
				return m, tea.Quit
			case "esc", "backspace", "enter":
				m.Detail = nil
			}
			return m, nil
		}
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			m.move(-1)
		case "down", "j":
			m.move(1)
		case "/":
			m.Filtering = true
		case "enter":
			if len(m.Visible) > 0 {
				m.Detail = m.Visible[m.Cursor]
			}
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-8, 5)
	}
	return m, nil
}

func (m *ItemListModel) move(delta int) {
	next := m.Cursor + delta
	if next < 0 || next >= len(m.Visible) {
		return
	}
	m.Cursor = next
	if m.Cursor < m.Offset {
		m.Offset = m.Cursor
	}
	if m.Cursor >= m.Offset+m.Height {
		m.Offset = m.Cursor - m.Height + 1
	}
}

func (m ItemListModel) updateFilter(msg tea.KeyMsg) ItemListModel {
	switch msg.Type {
	case tea.KeyEnter, tea.KeyEsc:
		m.Filtering = false
		return m
	case tea.KeyBackspace:
		if m.Filter != "" {
			r := []rune(m.Filter)
			m.Filter = string(r[:len(r)-1])
		}
	case tea.KeyRunes, tea.KeySpace:
		m.Filter += string(msg.Runes)
	default:
		return m
	}
	m.Visible = matchItems(m.Items, m.Filter)
	m.Cursor, m.Offset = 0, 0
	return m
}

// matchItems returns the items whose identifier or name contains query,
// ignoring case.
func matchItems(items []*register.Summary, query string) []*register.Summary {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return items
	}
	var out []*register.Summary
	for _, s := range items {
		if strings.Contains(strings.ToLower(s.ItemIdentifier), q) || strings.Contains(strings.ToLower(s.Name), q) {
			out = append(out, s)
		}
	}
	return out
}

func (m ItemListModel) View() string {
	if m.Detail != nil {
		return m.detailView()
	}

	var b strings.Builder
	b.WriteString(StyleTitle.Render(registerTitle(m.Register)))
	b.WriteString("\n")
	switch {
	case m.Filtering:
		b.WriteString(listSelectedStyle.Render("/" + m.Filter + "█"))
	case m.Filter != "":
		b.WriteString(listDimStyle.Render("filter: " + m.Filter + "  ↑/↓ navigate  ⏎ details  / filter  q quit"))
	default:
		b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ details  / filter  q quit"))
	}
	b.WriteString("\n\n")

	if len(m.Visible) == 0 {
		b.WriteString(listDimStyle.Render("  no matching items"))
		return b.String()
	}

	end := min(m.Offset+m.Height, len(m.Visible))
	page := m.Visible[m.Offset:end]
	rows := make([][]string, len(page))
	for i, s := range page {
		cursor := "  "
		if m.Offset+i == m.Cursor {
			cursor = "▸ "
		}
		source := ""
		if s.Owner() != m.Register {
			source = "imported"
		}
		rows[i] = []string{cursor, s.ItemIdentifier, s.Name, string(s.Status), source}
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Identifier", "Name", "Status", "").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleHeader
			}
			idx := m.Offset + row
			if idx >= len(m.Visible) {
				return lipgloss.NewStyle()
			}
			base := lipgloss.NewStyle()
			if inactive(m.Visible[idx]) {
				base = base.Foreground(colorDim)
			}
			if idx == m.Cursor {
				return base.Foreground(colorCyan).Bold(true)
			}
			return base
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Visible))))
	return b.String()
}

func (m ItemListModel) detailView() string {
	var b strings.Builder
	s := m.Detail
	printItem(&b, s)
	if added := formatRelativeTime(s.DateTimeAddition, time.Now()); added != "" && added != s.DateTimeAddition {
		b.WriteString(listDimStyle.Render("added " + added))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("⏎/esc back  q quit"))
	return b.String()
}

// =============================================================================
// Helpers
// =============================================================================

// formatRelativeTime renders an RFC 3339 timestamp relative to now. Other
// strings are returned unchanged.
func formatRelativeTime(s string, now time.Time) string {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return s
	}

	diff := now.Sub(t)
	switch {
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	default:
		return t.Format("Jan 2, 2006")
	}
}
