package cli

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bberrors "github.com/bblocks/bblocks/pkg/errors"
	"github.com/bblocks/bblocks/pkg/fetch"
	"github.com/bblocks/bblocks/pkg/register"
)

func browserRegister(t *testing.T) *register.Register {
	t.Helper()
	docs := map[string]any{
		"https://example.org/register.json": map[string]any{
			"name":    "Browser register",
			"imports": []any{"https://example.org/lib.json"},
			"bblocks": []any{
				map[string]any{"itemIdentifier": "ex.person", "name": "Person", "status": "stable", "dateTimeAddition": "2024-01-02T03:04:05Z"},
				map[string]any{"itemIdentifier": "ex.place", "name": "Place", "status": "retired"},
			},
		},
		"https://example.org/lib.json": map[string]any{
			"bblocks": []any{map[string]any{"itemIdentifier": "lib.base", "name": "Base"}},
		},
	}
	f := fetch.Funcs{Data: func(_ context.Context, u string) (any, error) {
		if d, ok := docs[u]; ok {
			return d, nil
		}
		return nil, bberrors.New(bberrors.ErrCodeNotFound, "%s", u)
	}}
	reg, err := register.Load(context.Background(), "https://example.org/register.json", register.Options{Fetcher: f})
	require.NoError(t, err)
	return reg
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(t *testing.T, m ItemListModel, keys ...string) ItemListModel {
	t.Helper()
	for _, k := range keys {
		next, _ := m.Update(key(k))
		m = next.(ItemListModel)
	}
	return m
}

func TestItemListNavigation(t *testing.T) {
	m := NewItemListModel(browserRegister(t))
	require.Len(t, m.Items, 3)

	m = send(t, m, "up")
	assert.Equal(t, 0, m.Cursor, "cursor stays at the top")

	m = send(t, m, "down", "j", "down")
	assert.Equal(t, 2, m.Cursor, "cursor stops at the last item")

	m = send(t, m, "k")
	assert.Equal(t, 1, m.Cursor)
}

func TestItemListScrolls(t *testing.T) {
	m := NewItemListModel(browserRegister(t))
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 10})
	m = next.(ItemListModel)
	assert.Equal(t, 5, m.Height, "height has a floor")

	m.Height = 2
	m = send(t, m, "down", "down")
	assert.Equal(t, 1, m.Offset)
	m = send(t, m, "up", "up")
	assert.Equal(t, 0, m.Offset)
}

func TestItemListDetail(t *testing.T) {
	m := NewItemListModel(browserRegister(t))

	view := m.View()
	assert.Contains(t, view, "Browser register")
	assert.Contains(t, view, "ex.person")
	assert.Contains(t, view, "imported")
	assert.Contains(t, view, "[1/3]")

	m = send(t, m, "enter")
	require.NotNil(t, m.Detail)
	assert.Equal(t, "ex.person", m.Detail.ItemIdentifier)
	view = m.View()
	assert.Contains(t, view, "Identifier")
	assert.Contains(t, view, "https://example.org/register.json")
	assert.Contains(t, view, "added Jan 2, 2024")

	m = send(t, m, "esc")
	assert.Nil(t, m.Detail)
}

func TestItemListFilter(t *testing.T) {
	m := NewItemListModel(browserRegister(t))

	m = send(t, m, "/", "P", "l")
	assert.True(t, m.Filtering)
	require.Len(t, m.Visible, 1)
	assert.Equal(t, "ex.place", m.Visible[0].ItemIdentifier)
	assert.Contains(t, m.View(), "/Pl")

	m = send(t, m, "backspace")
	assert.Len(t, m.Visible, 2, "matches Person and Place")

	m = send(t, m, "enter")
	assert.False(t, m.Filtering)
	assert.Equal(t, "P", m.Filter)

	m = send(t, m, "/", "z", "z", "enter")
	assert.Empty(t, m.Visible)
	assert.Contains(t, m.View(), "no matching items")

	m = send(t, m, "enter")
	assert.Nil(t, m.Detail, "nothing to open")
}

func TestItemListQuit(t *testing.T) {
	m := NewItemListModel(browserRegister(t))

	_, cmd := m.Update(key("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	m = send(t, m, "/")
	_, cmd = m.Update(key("q"))
	assert.Nil(t, cmd, "q is typed into the filter")
}

func TestMatchItems(t *testing.T) {
	items := NewItemListModel(browserRegister(t)).Items
	assert.Len(t, matchItems(items, ""), 3)
	assert.Len(t, matchItems(items, "  "), 3)
	assert.Len(t, matchItems(items, "EX."), 2)
	assert.Len(t, matchItems(items, "base"), 1)
	assert.Empty(t, matchItems(items, "nothing"))
}

func TestFormatRelativeTime(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		in, want string
	}{
		{"2025-06-15T11:30:00Z", "30m ago"},
		{"2025-06-15T07:00:00Z", "5h ago"},
		{"2025-06-12T12:00:00Z", "3d ago"},
		{"2024-01-02T03:04:05Z", "Jan 2, 2024"},
		{"2024-01-02", "2024-01-02"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatRelativeTime(tt.in, now), tt.in)
	}
}
