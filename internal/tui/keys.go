package tui

// Keybinding constants
const (
	KeyTab      = "tab"
	KeyShiftTab = "shift+tab"
	KeyQuit     = "q"
	KeyCtrlC    = "ctrl+c"
	KeyEnter    = "enter"
	KeyEsc      = "esc"
	KeyAdd      = "a"
	KeyDelete   = "d"
	KeyRefresh  = "r"
	KeySettings = "s"
)

// HelpView returns a one-line help bar with common keybindings.
func HelpView(adding bool) string {
	if adding {
		return StyleHelp.Render("enter: create | esc: cancel")
	}
	return StyleHelp.Render("a: add | d: delete | r: refresh | tab: switch pane | j/k: move | s: settings | q: quit")
}
