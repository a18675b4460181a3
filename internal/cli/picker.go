package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/schemalayout/pkg/graph"
)

var (
	pickerHeaderStyle = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	pickerCursorStyle = lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
	pickerRowStyle    = lipgloss.NewStyle().Foreground(colorWhite)
)

// objectItem is one row of the object picker.
type objectItem struct {
	ID        string
	Label     string
	Relations int
	Bases     []string
}

// objectPicker is a bubbletea model that lets the user pick the focused
// object. Typing filters the list by name.
type objectPicker struct {
	items    []objectItem
	visible  []int
	filter   string
	cursor   int
	offset   int
	height   int
	selected string
}

func newObjectPicker(items []objectItem) objectPicker {
	m := objectPicker{items: items, height: 15}
	m.applyFilter()
	return m
}

func (m objectPicker) Init() tea.Cmd {
	return nil
}

func (m objectPicker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyUp:
			if m.cursor > 0 {
				m.cursor--
				m.offset = min(m.offset, m.cursor)
			}
		case tea.KeyDown:
			if m.cursor < len(m.visible)-1 {
				m.cursor++
				if m.cursor >= m.offset+m.height {
					m.offset = m.cursor - m.height + 1
				}
			}
		case tea.KeyEnter:
			if len(m.visible) == 0 {
				return m, nil
			}
			m.selected = m.items[m.visible[m.cursor]].ID
			return m, tea.Quit
		case tea.KeyBackspace:
			if m.filter != "" {
				r := []rune(m.filter)
				m.filter = string(r[:len(r)-1])
				m.applyFilter()
			}
		case tea.KeyRunes:
			m.filter += string(msg.Runes)
			m.applyFilter()
		}
	case tea.WindowSizeMsg:
		m.height = max(msg.Height-8, 5)
	}
	return m, nil
}

// applyFilter recomputes the visible rows and resets the cursor.
func (m *objectPicker) applyFilter() {
	m.visible = nil
	needle := strings.ToLower(m.filter)
	for i, it := range m.items {
		if strings.Contains(strings.ToLower(it.Label), needle) {
			m.visible = append(m.visible, i)
		}
	}
	m.cursor, m.offset = 0, 0
}

func (m objectPicker) View() string {
	var b strings.Builder

	b.WriteString(styleTitle.Render("Select Object"))
	b.WriteString("\n")
	b.WriteString(styleDim.Render("↑/↓ navigate  ⏎ select  esc quit  type to filter"))
	b.WriteString("\n")
	b.WriteString(styleDim.Render("filter: ") + styleValue.Render(m.filter))
	b.WriteString("\n\n")

	end := min(m.offset+m.height, len(m.visible))
	rows := make([][]string, 0, end-m.offset)
	for i := m.offset; i < end; i++ {
		it := m.items[m.visible[i]]
		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}
		bases := "—"
		if len(it.Bases) > 0 {
			bases = strings.Join(it.Bases, ", ")
		}
		rows = append(rows, []string{cursor, it.Label, strconv.Itoa(it.Relations), bases})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Object", "Links", "Inherits").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			switch {
			case row == -1:
				return pickerHeaderStyle
			case m.offset+row == m.cursor:
				return pickerCursorStyle
			}
			return pickerRowStyle
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(styleDim.Render(fmt.Sprintf("  [%d/%d]", min(m.cursor+1, len(m.visible)), len(m.items))))
	return b.String()
}

// pickObject runs the picker on the terminal and returns the chosen object
// id, or "" if the user quit.
func pickObject(g *graph.Graph) (string, error) {
	final, err := tea.NewProgram(newObjectPicker(focusCandidates(g)), tea.WithOutput(os.Stderr)).Run()
	if err != nil {
		return "", fmt.Errorf("object picker: %w", err)
	}
	return final.(objectPicker).selected, nil
}
