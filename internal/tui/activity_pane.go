package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/aristath/todobridge/internal/events"
)

const maxActivityLines = 500

// ActivityPaneModel is a scrollable log of requests sent and results received.
type ActivityPaneModel struct {
	lines    []string
	viewport viewport.Model
	width    int
	height   int
	focused  bool
	now      func() time.Time
}

// NewActivityPaneModel creates an empty activity pane.
func NewActivityPaneModel() ActivityPaneModel {
	return ActivityPaneModel{
		viewport: viewport.New(0, 0),
		now:      time.Now,
	}
}

// Record appends a line describing ev.
func (m *ActivityPaneModel) Record(ev events.Event) {
	m.Append(Describe(ev))
}

// Append adds a timestamped line and scrolls to it.
func (m *ActivityPaneModel) Append(line string) {
	m.lines = append(m.lines, StyleMuted.Render(m.now().Format("15:04:05"))+" "+line)
	if len(m.lines) > maxActivityLines {
		m.lines = m.lines[len(m.lines)-maxActivityLines:]
	}
	m.viewport.SetContent(strings.Join(m.lines, "\n"))
	m.viewport.GotoBottom()
}

// Lines returns the recorded lines, oldest first.
func (m ActivityPaneModel) Lines() []string {
	return m.lines
}

// Describe renders a one-line summary of ev.
func Describe(ev events.Event) string {
	switch e := ev.(type) {
	case events.ListRequestedEvent:
		return StyleRequest.Render("→ getTodos")
	case events.CreateRequestedEvent:
		return StyleRequest.Render(fmt.Sprintf("→ createTodo %q", e.Content))
	case events.DeleteRequestedEvent:
		return StyleRequest.Render("→ removeTodo " + e.TodoID)
	case events.TodosReceivedEvent:
		return StyleSuccess.Render(fmt.Sprintf("← receiveTodos (%d)", len(e.Todos)))
	case events.TodoCreatedEvent:
		return StyleSuccess.Render(fmt.Sprintf("← newTodoCreated %q", e.Content))
	case events.TodoDeletedEvent:
		return StyleSuccess.Render("← todoDeleted " + e.TodoID)
	case events.OperationFailedEvent:
		return StyleFailure.Render(fmt.Sprintf("✗ %s failed: %s", e.Op, e.Reason))
	default:
		return ev.EventType()
	}
}

// Update handles scrolling when focused.
func (m ActivityPaneModel) Update(msg tea.Msg) (ActivityPaneModel, tea.Cmd) {
	if _, isKey := msg.(tea.KeyMsg); isKey && !m.focused {
		return m, nil
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the activity pane.
func (m ActivityPaneModel) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	style := StyleUnfocusedBorder
	if m.focused {
		style = StyleFocusedBorder
	}
	return style.
		Width(m.width - 2).
		Height(m.height - 2).
		Render(StyleTitle.Render("Activity") + "\n" + m.viewport.View())
}

// SetSize updates the pane dimensions.
func (m *ActivityPaneModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.viewport.Width = max(w-4, 10)
	m.viewport.Height = max(h-3, 1)
}

// SetFocused updates the focus state.
func (m *ActivityPaneModel) SetFocused(focused bool) {
	m.focused = focused
}
