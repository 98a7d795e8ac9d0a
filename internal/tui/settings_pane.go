package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/aristath/todobridge/internal/config"
)

// SettingsPaneModel manages the data connection settings form overlay.
// Saved settings take effect the next time the bridge starts.
type SettingsPaneModel struct {
	form        *huh.Form
	config      *config.Config
	globalPath  string
	projectPath string
	width       int
	height      int
	visible     bool
	saved       bool
	err         error

	// Bound by pointer: the model is copied on every Update, the form is not.
	fields *settingsFields
	loaded settingsFields // values shown when the form opened
}

// settingsFields holds the values the form edits.
type settingsFields struct {
	saveTarget string
	dataURL    string
	apiKey     string
	authMode   string
	timeout    string
}

// NewSettingsPaneModel creates a new settings pane.
func NewSettingsPaneModel(cfg *config.Config, globalPath, projectPath string) SettingsPaneModel {
	m := SettingsPaneModel{
		config:      cfg,
		globalPath:  globalPath,
		projectPath: projectPath,
		fields:      &settingsFields{},
	}
	m.loadFromConfig()
	m.buildForm()
	return m
}

func (m *SettingsPaneModel) loadFromConfig() {
	f := m.fields
	f.saveTarget = "project"
	f.dataURL = m.config.Data.URL
	f.apiKey = m.config.Data.APIKey
	f.authMode = m.config.Data.DefaultAuthorizationType
	if f.authMode == "" {
		f.authMode = config.AuthModeAPIKey
	}
	f.timeout = m.config.Data.Timeout
	m.loaded = *f
}

// applyEdits copies the fields changed since the form opened into dst.
func (f *settingsFields) applyEdits(dst *config.DataConfig, loaded settingsFields) {
	if f.dataURL != loaded.dataURL {
		dst.URL = f.dataURL
	}
	if f.apiKey != loaded.apiKey {
		dst.APIKey = f.apiKey
	}
	if f.authMode != loaded.authMode {
		dst.DefaultAuthorizationType = f.authMode
	}
	if f.timeout != loaded.timeout {
		dst.Timeout = f.timeout
	}
}

// buildForm constructs the Huh form with all settings fields.
func (m *SettingsPaneModel) buildForm() {
	f := m.fields
	cfg := m.config
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("dataURL").
				Title("Data API URL").
				Value(&f.dataURL).
				Placeholder("https://example.appsync-api.eu-west-1.amazonaws.com/todos").
				Validate(func(s string) error {
					probe := *cfg
					probe.Data.URL = s
					return probe.Validate()
				}),

			huh.NewSelect[string]().
				Key("authMode").
				Title("Authorization").
				Options(
					huh.NewOption("API key", config.AuthModeAPIKey),
					huh.NewOption("None", config.AuthModeNone),
				).
				Value(&f.authMode),

			huh.NewInput().
				Key("apiKey").
				Title("API Key").
				EchoMode(huh.EchoModePassword).
				Value(&f.apiKey),

			huh.NewInput().
				Key("timeout").
				Title("Request Timeout").
				Description("Go duration, empty for none").
				Value(&f.timeout).
				Placeholder("30s").
				Validate(func(s string) error {
					_, err := config.DataConfig{Timeout: s}.ClientTimeout()
					return err
				}),
		).Title("Data Connection"),

		huh.NewGroup(
			huh.NewSelect[string]().
				Key("saveTarget").
				Title("Save To").
				Options(
					huh.NewOption("Project (.todobridge/config.json)", "project"),
					huh.NewOption("Global (~/.todobridge/config.json)", "global"),
				).
				Value(&f.saveTarget),
		).Title("Save Target"),
	)
}

// Init initializes the settings pane.
func (m SettingsPaneModel) Init() tea.Cmd {
	return m.form.Init()
}

// Update handles messages for the settings pane.
func (m SettingsPaneModel) Update(msg tea.Msg) (SettingsPaneModel, tea.Cmd) {
	if !m.visible {
		return m, nil
	}

	if key, ok := msg.(tea.KeyMsg); ok && key.String() == KeyEsc {
		m.visible = false
		m.saved = false
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		m.save()
	}

	return m, cmd
}

// save writes the edited fields to the chosen config file and applies them
// to the in-memory config. Values the user did not touch, including any that
// came from the environment or an outputs file, stay out of the file.
func (m *SettingsPaneModel) save() {
	targetPath := m.projectPath
	if m.fields.saveTarget == "global" {
		targetPath = m.globalPath
	}

	err := config.Update(targetPath, func(c *config.Config) {
		m.fields.applyEdits(&c.Data, m.loaded)
	})
	if err != nil {
		m.err = err
		m.saved = false
		return
	}

	m.fields.applyEdits(&m.config.Data, m.loaded)
	m.loaded = *m.fields
	m.saved = true
	m.err = nil
	m.visible = false
}

// View renders the settings pane.
func (m SettingsPaneModel) View() string {
	if !m.visible {
		return ""
	}

	var content string
	if m.err != nil {
		content = lipgloss.JoinVertical(lipgloss.Left,
			StyleFailure.Render(fmt.Sprintf("✗ Error saving: %v", m.err)),
			"",
			m.form.View(),
		)
	} else {
		content = m.form.View()
	}

	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(1, 2).
		Width(max(m.width-4, 20)).
		Height(max(m.height-4, 10))

	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("62")).
		Render("⚙ Settings")

	return lipgloss.JoinVertical(lipgloss.Left, title, style.Render(content))
}

// SetSize updates the dimensions of the settings pane.
func (m *SettingsPaneModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	if m.form != nil {
		m.form.WithWidth(max(w-8, 20)).WithHeight(max(h-8, 10))
	}
}

// SetVisible shows or hides the settings pane. Showing rebuilds the form
// from the current config.
func (m *SettingsPaneModel) SetVisible(v bool) {
	m.visible = v
	m.saved = false
	m.err = nil

	if v {
		m.loadFromConfig()
		m.buildForm()
		if m.width > 0 {
			m.SetSize(m.width, m.height)
		}
	}
}

// IsVisible returns whether the settings pane is currently visible.
func (m SettingsPaneModel) IsVisible() bool {
	return m.visible
}

// Saved reports whether the last form submission was written to disk.
func (m SettingsPaneModel) Saved() bool {
	return m.saved
}
