package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/shipyard/pkg/catalog"
)

// List styles
var (
	listDimStyle = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// SearchListModel - Interactive type selection
// =============================================================================

// SearchListModel is the bubbletea model for picking one search result.
type SearchListModel struct {
	Query    string
	Entries  []catalog.Entry
	Cursor   int
	Selected *catalog.Entry
	Height   int
	Offset   int
}

// NewSearchListModel creates a new search list model.
func NewSearchListModel(query string, entries []catalog.Entry) SearchListModel {
	return SearchListModel{
		Query:   query,
		Entries: entries,
		Height:  15,
	}
}

func (m SearchListModel) Init() tea.Cmd {
	return nil
}

func (m SearchListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Entries)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			if len(m.Entries) == 0 {
				return m, tea.Quit
			}
			entry := m.Entries[m.Cursor]
			if !entry.Manufactured {
				return m, nil
			}
			m.Selected = &entry
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-6, 5)
	}
	return m, nil
}

func (m SearchListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(fmt.Sprintf("Results for %q", m.Query)))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ plan  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Entries))

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		rows = append(rows, searchRow(cursor, m.Entries[i]))
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Name", "ID", "Recipe").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return lipgloss.NewStyle().Foreground(colorGray).Bold(true)
			}

			idx := m.Offset + row
			if idx >= len(m.Entries) {
				return lipgloss.NewStyle()
			}
			base := lipgloss.NewStyle()
			if col == 2 {
				base = base.Foreground(colorGray)
			}
			current := idx == m.Cursor
			switch {
			case current && m.Entries[idx].Manufactured:
				return base.Foreground(colorGreen).Bold(true)
			case current:
				return base.Foreground(colorDim).Bold(true)
			case m.Entries[idx].Manufactured:
				return base
			}
			return base.Foreground(colorDim)
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", min(m.Cursor+1, len(m.Entries)), len(m.Entries))))

	return b.String()
}

// searchRow formats one result for the result tables.
func searchRow(cursor string, e catalog.Entry) []string {
	recipe := "-"
	if e.Manufactured {
		recipe = "✓"
	}
	return []string{cursor, e.Name, fmt.Sprint(e.ID), recipe}
}
