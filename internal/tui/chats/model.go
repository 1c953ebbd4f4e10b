// Package chats provides the interactive chat selection UI used by the
// chats command: every dialog visible to the session is listed with a
// checkbox, and the confirmed selection becomes the monitored set.
package chats

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/leefowlercu/chatwatcher/internal/telegram"
	"github.com/leefowlercu/chatwatcher/internal/tui/styles"
)

// item is one selectable dialog.
type item struct {
	chat     telegram.RawChat
	selected bool
}

// Model is the chat selection model.
type Model struct {
	items     []item
	cursor    int
	filter    textinput.Model
	filtering bool
	done      bool
	canceled  bool
}

// New creates a selection model over the given dialogs. Dialogs whose raw id
// appears in preselected start checked.
func New(dialogs []telegram.RawChat, preselected map[int64]bool) Model {
	items := make([]item, 0, len(dialogs))
	for _, d := range dialogs {
		items = append(items, item{chat: d, selected: preselected[d.ID]})
	}

	fi := textinput.New()
	fi.Prompt = "/ "
	fi.Placeholder = "type to filter"
	fi.CharLimit = 64
	fi.Width = 30

	return Model{items: items, filter: fi}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// visible returns indices into items matching the current filter, in
// display order. An empty filter matches everything.
func (m Model) visible() []int {
	query := strings.ToLower(strings.TrimSpace(m.filter.Value()))
	out := make([]int, 0, len(m.items))
	for i, it := range m.items {
		if query == "" || strings.Contains(strings.ToLower(it.chat.Title), query) {
			out = append(out, i)
		}
	}
	return out
}

// Update handles keyboard input.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	if m.filtering {
		return m.updateFiltering(keyMsg)
	}

	vis := m.visible()

	switch keyMsg.String() {
	case "up", "k", "shift+tab":
		if len(vis) > 0 {
			m.cursor--
			if m.cursor < 0 {
				m.cursor = len(vis) - 1
			}
		}
	case "down", "j", "tab":
		if len(vis) > 0 {
			m.cursor++
			if m.cursor >= len(vis) {
				m.cursor = 0
			}
		}
	case " ":
		if len(vis) > 0 {
			idx := vis[m.cursor]
			m.items[idx].selected = !m.items[idx].selected
		}
	case "a":
		all := m.allSelected(vis)
		for _, idx := range vis {
			m.items[idx].selected = !all
		}
	case "/":
		m.filtering = true
		return m, m.filter.Focus()
	case "enter":
		m.done = true
		return m, tea.Quit
	case "q", "esc", "ctrl+c":
		m.canceled = true
		return m, tea.Quit
	}

	return m, nil
}

// updateFiltering routes keys to the filter input. Enter keeps the filter
// and returns to the list; esc clears it.
func (m Model) updateFiltering(keyMsg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch keyMsg.String() {
	case "enter":
		m.filtering = false
		m.filter.Blur()
		m.clampCursor()
		return m, nil
	case "esc":
		m.filtering = false
		m.filter.Blur()
		m.filter.Reset()
		m.clampCursor()
		return m, nil
	case "ctrl+c":
		m.canceled = true
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(keyMsg)
	m.clampCursor()
	return m, cmd
}

func (m *Model) clampCursor() {
	n := len(m.visible())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m Model) allSelected(vis []int) bool {
	for _, idx := range vis {
		if !m.items[idx].selected {
			return false
		}
	}
	return len(vis) > 0
}

// View renders the selection list.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(styles.Title.Render("Select chats to monitor"))
	b.WriteString("\n")

	if len(m.items) == 0 {
		b.WriteString(styles.MutedText.Render("No groups or channels visible to this session."))
		b.WriteString("\n")
		return styles.Container.Render(b.String())
	}

	if m.filtering || m.filter.Value() != "" {
		b.WriteString(m.filter.View())
		b.WriteString("\n")
	}

	vis := m.visible()
	if len(vis) == 0 {
		b.WriteString(styles.MutedText.Render("No chats match the filter."))
		b.WriteString("\n")
	}

	for pos, idx := range vis {
		it := m.items[idx]

		cursor := "  "
		style := styles.Unfocused
		if pos == m.cursor && !m.filtering {
			cursor = styles.CursorIndicator + " "
			style = styles.Cursor
		}

		checkbox := styles.CheckboxUnselected
		if it.selected {
			checkbox = styles.Selected.Render(styles.CheckboxSelected)
		}

		b.WriteString(fmt.Sprintf("%s%s %s %s\n",
			cursor,
			checkbox,
			style.Render(it.chat.Title),
			styles.MutedText.Render(fmt.Sprintf("(%s, %d)", it.chat.Kind, it.chat.ID))))
	}

	b.WriteString("\n")
	b.WriteString(styles.HelpText.Render(
		fmt.Sprintf("%d selected · space toggle · a all · / filter · enter confirm · q cancel", m.selectedCount())))
	b.WriteString("\n")

	return styles.Container.Render(b.String())
}

func (m Model) selectedCount() int {
	n := 0
	for _, it := range m.items {
		if it.selected {
			n++
		}
	}
	return n
}

// Confirmed reports whether the user confirmed a selection.
func (m Model) Confirmed() bool {
	return m.done && !m.canceled
}

// Selected returns the confirmed dialogs in display order. Selections made
// before a filter was applied survive it; the filter narrows the view, not
// the selection.
func (m Model) Selected() []telegram.RawChat {
	var out []telegram.RawChat
	for _, it := range m.items {
		if it.selected {
			out = append(out, it.chat)
		}
	}
	return out
}
