package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/aristath/todobridge/internal/events"
)

// todoItem adapts events.TodoItem to list.Item.
type todoItem struct {
	events.TodoItem
}

func (i todoItem) Title() string       { return i.Content }
func (i todoItem) Description() string { return i.ID }
func (i todoItem) FilterValue() string { return i.Content }

// todoDelegate renders each todo on a single line.
type todoDelegate struct{}

func (d todoDelegate) Height() int                             { return 1 }
func (d todoDelegate) Spacing() int                            { return 0 }
func (d todoDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }
func (d todoDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(todoItem)
	if !ok {
		return
	}

	text := it.Content
	if text == "" {
		text = StyleMuted.Render("(empty)")
	}

	prefix := "  "
	if index == m.Index() {
		prefix = StyleSelected.Render("> ")
	}
	fmt.Fprint(w, prefix+text)
}

// TodoPaneModel shows the todo list and the inline add input.
type TodoPaneModel struct {
	list    list.Model
	input   textinput.Model
	adding  bool
	loaded  bool
	width   int
	height  int
	focused bool
}

// NewTodoPaneModel creates an empty todo pane.
func NewTodoPaneModel() TodoPaneModel {
	l := list.New(nil, todoDelegate{}, 0, 0)
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()
	l.SetStatusBarItemName("todo", "todos")

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "What needs doing?"
	ti.CharLimit = 500

	return TodoPaneModel{
		list:  l,
		input: ti,
	}
}

// SetTodos replaces the displayed list, keeping the cursor where possible.
func (m *TodoPaneModel) SetTodos(todos []events.TodoItem) {
	items := make([]list.Item, len(todos))
	for i, t := range todos {
		items[i] = todoItem{t}
	}
	idx := m.list.Index()
	m.list.SetItems(items)
	if idx >= len(items) {
		idx = len(items) - 1
	}
	if idx >= 0 {
		m.list.Select(idx)
	}
	m.loaded = true
}

// Remove drops the todo with id. Reports whether it was shown.
func (m *TodoPaneModel) Remove(id string) bool {
	for i, it := range m.list.Items() {
		if ti, ok := it.(todoItem); ok && ti.ID == id {
			m.list.RemoveItem(i)
			return true
		}
	}
	return false
}

// Todos returns the displayed todos in order.
func (m TodoPaneModel) Todos() []events.TodoItem {
	items := m.list.Items()
	out := make([]events.TodoItem, 0, len(items))
	for _, it := range items {
		if ti, ok := it.(todoItem); ok {
			out = append(out, ti.TodoItem)
		}
	}
	return out
}

// Selected returns the highlighted todo, if any.
func (m TodoPaneModel) Selected() (events.TodoItem, bool) {
	ti, ok := m.list.SelectedItem().(todoItem)
	if !ok {
		return events.TodoItem{}, false
	}
	return ti.TodoItem, true
}

// StartAdding focuses the inline input.
func (m *TodoPaneModel) StartAdding() tea.Cmd {
	m.adding = true
	m.input.SetValue("")
	return m.input.Focus()
}

// StopAdding hides the inline input and returns its trimmed value.
func (m *TodoPaneModel) StopAdding() string {
	value := strings.TrimSpace(m.input.Value())
	m.adding = false
	m.input.SetValue("")
	m.input.Blur()
	return value
}

// Adding reports whether the inline input is active.
func (m TodoPaneModel) Adding() bool {
	return m.adding
}

// Update handles messages for the todo pane.
func (m TodoPaneModel) Update(msg tea.Msg) (TodoPaneModel, tea.Cmd) {
	var cmd tea.Cmd
	if m.adding {
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	if _, isKey := msg.(tea.KeyMsg); isKey && !m.focused {
		return m, nil
	}
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the todo pane.
func (m TodoPaneModel) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	title := StyleTitle.Render(fmt.Sprintf("Todos (%d)", len(m.list.Items())))

	var body string
	switch {
	case !m.loaded:
		body = StyleMuted.Render("Loading...")
	case len(m.list.Items()) == 0:
		body = StyleMuted.Render("Nothing to do. Press a to add a todo.")
	default:
		body = m.list.View()
	}

	content := lipgloss.JoinVertical(lipgloss.Left, title, body)
	if m.adding {
		content = lipgloss.JoinVertical(lipgloss.Left, content, "", m.input.View())
	}

	style := StyleUnfocusedBorder
	if m.focused {
		style = StyleFocusedBorder
	}
	return style.
		Width(m.width - 2).
		Height(m.height - 2).
		Render(content)
}

// SetSize updates the pane dimensions.
func (m *TodoPaneModel) SetSize(w, h int) {
	m.width = w
	m.height = h

	// Border (2), title (1), and room for the input when adding (2).
	listHeight := h - 5
	if listHeight < 1 {
		listHeight = 1
	}
	m.list.SetSize(max(w-4, 1), listHeight)
	m.input.Width = max(w-8, 10)
}

// SetFocused updates the focus state.
func (m *TodoPaneModel) SetFocused(focused bool) {
	m.focused = focused
}
