package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/aristath/todobridge/internal/config"
	"github.com/aristath/todobridge/internal/events"
)

// PaneID identifies which pane is focused.
type PaneID int

const (
	PaneTodos PaneID = iota
	PaneActivity
)

// Model is the root Bubble Tea model. It is the UI side of the bridge: it
// publishes requests on the bus and renders whatever results come back.
type Model struct {
	todoPane          TodoPaneModel
	activityPane      ActivityPaneModel
	settingsPane      SettingsPaneModel
	focusedPane       PaneID
	bus               *events.EventBus
	eventSub          <-chan events.Event
	width             int
	height            int
	quitting          bool
	showSettings      bool
	config            *config.Config
	globalConfigPath  string
	projectConfigPath string
}

// New creates a new TUI model subscribed to the bridge's results.
func New(bus *events.EventBus, cfg *config.Config, globalPath, projectPath string) Model {
	m := Model{
		todoPane:          NewTodoPaneModel(),
		activityPane:      NewActivityPaneModel(),
		settingsPane:      NewSettingsPaneModel(cfg, globalPath, projectPath),
		focusedPane:       PaneTodos,
		bus:               bus,
		eventSub:          bus.Subscribe(events.TopicTodo, 256),
		config:            cfg,
		globalConfigPath:  globalPath,
		projectConfigPath: projectPath,
	}
	m.updateFocusStates()
	return m
}

// Init asks for the todo list and starts listening for results.
func (m Model) Init() tea.Cmd {
	bus := m.bus
	return tea.Batch(
		waitForEvent(m.eventSub),
		func() tea.Msg {
			ev := events.ListRequestedEvent{ID: events.NewRequestID(), Timestamp: time.Now()}
			bus.Emit(ev)
			return requestSentMsg{event: ev}
		},
	)
}

// requestSentMsg reports a request published outside Update.
type requestSentMsg struct {
	event events.Event
}

// waitForEvent returns a command that waits for the next event from the event bus.
func waitForEvent(sub <-chan events.Event) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-sub
		if !ok {
			return nil // bus closed
		}
		return event
	}
}

// send publishes a request and records it in the activity log.
func (m *Model) send(ev events.Event) {
	m.bus.Emit(ev)
	m.activityPane.Record(ev)
}

func (m *Model) requestList() {
	m.send(events.ListRequestedEvent{ID: events.NewRequestID(), Timestamp: time.Now()})
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.showSettings {
			var cmd tea.Cmd
			m.settingsPane, cmd = m.settingsPane.Update(msg)
			cmds = append(cmds, cmd)
			if !m.settingsPane.IsVisible() {
				m.showSettings = false
				if m.settingsPane.Saved() {
					m.activityPane.Append(StyleSuccess.Render("settings saved; restart to apply"))
				}
			}
			return m, tea.Batch(cmds...)
		}

		if m.todoPane.Adding() {
			switch msg.String() {
			case KeyEnter:
				if content := m.todoPane.StopAdding(); content != "" {
					m.send(events.CreateRequestedEvent{ID: events.NewRequestID(), Content: content, Timestamp: time.Now()})
				}
			case KeyEsc:
				m.todoPane.StopAdding()
			case KeyCtrlC:
				m.quitting = true
				return m, tea.Quit
			default:
				var cmd tea.Cmd
				m.todoPane, cmd = m.todoPane.Update(msg)
				cmds = append(cmds, cmd)
			}
			return m, tea.Batch(cmds...)
		}

		switch msg.String() {
		case KeyQuit, KeyCtrlC:
			m.quitting = true
			return m, tea.Quit

		case KeySettings:
			m.showSettings = true
			m.settingsPane.SetVisible(true)
			cmds = append(cmds, m.settingsPane.Init())

		case KeyTab, KeyShiftTab:
			m.focusedPane = (m.focusedPane + 1) % 2
			m.updateFocusStates()

		case KeyAdd:
			m.focusedPane = PaneTodos
			m.updateFocusStates()
			cmds = append(cmds, m.todoPane.StartAdding())

		case KeyDelete:
			if todo, ok := m.todoPane.Selected(); ok && m.focusedPane == PaneTodos {
				m.send(events.DeleteRequestedEvent{ID: events.NewRequestID(), TodoID: todo.ID, Timestamp: time.Now()})
			}

		case KeyRefresh:
			m.requestList()

		default:
			var cmd tea.Cmd
			switch m.focusedPane {
			case PaneTodos:
				m.todoPane, cmd = m.todoPane.Update(msg)
			case PaneActivity:
				m.activityPane, cmd = m.activityPane.Update(msg)
			}
			cmds = append(cmds, cmd)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.computeLayout()
		m.settingsPane.SetSize(msg.Width, msg.Height)

	case requestSentMsg:
		m.activityPane.Record(msg.event)

	case events.TodosReceivedEvent:
		m.todoPane.SetTodos(msg.Todos)
		m.activityPane.Record(msg)
		cmds = append(cmds, waitForEvent(m.eventSub))

	case events.TodoCreatedEvent:
		// The payload has no id, so the list is fetched again to show it.
		m.activityPane.Record(msg)
		m.requestList()
		cmds = append(cmds, waitForEvent(m.eventSub))

	case events.TodoDeletedEvent:
		m.todoPane.Remove(msg.TodoID)
		m.activityPane.Record(msg)
		cmds = append(cmds, waitForEvent(m.eventSub))

	case events.OperationFailedEvent:
		m.activityPane.Record(msg)
		cmds = append(cmds, waitForEvent(m.eventSub))

	default:
		if m.showSettings {
			var cmd tea.Cmd
			m.settingsPane, cmd = m.settingsPane.Update(msg)
			cmds = append(cmds, cmd)
		} else if m.todoPane.Adding() {
			var cmd tea.Cmd
			m.todoPane, cmd = m.todoPane.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	return m, tea.Batch(cmds...)
}

// View renders the TUI.
func (m Model) View() string {
	if m.quitting {
		return "Goodbye!\n"
	}

	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	if m.showSettings {
		return m.settingsPane.View()
	}

	header := StyleTitle.Render("todobridge") + StyleMuted.Render(fmt.Sprintf("%s (%s)", m.config.Data.URL, m.config.Data.Region))
	main := lipgloss.JoinHorizontal(lipgloss.Top, m.todoPane.View(), m.activityPane.View())

	return lipgloss.JoinVertical(lipgloss.Left, header, main, HelpView(m.todoPane.Adding()))
}

// computeLayout calculates pane dimensions and updates all child models.
func (m *Model) computeLayout() {
	leftWidth := (m.width * 55) / 100
	rightWidth := m.width - leftWidth
	availableHeight := m.height - 2 // header and help bar

	m.todoPane.SetSize(leftWidth, availableHeight)
	m.activityPane.SetSize(rightWidth, availableHeight)

	m.updateFocusStates()
}

// updateFocusStates updates the focus state of all panes.
func (m *Model) updateFocusStates() {
	m.todoPane.SetFocused(m.focusedPane == PaneTodos)
	m.activityPane.SetFocused(m.focusedPane == PaneActivity)
}

// Todos returns the todos currently displayed.
func (m Model) Todos() []events.TodoItem {
	return m.todoPane.Todos()
}
