package tui

// Keybinding constants
const (
	KeyTab       = "tab"
	KeyShiftTab  = "shift+tab"
	KeyQuit      = "q"
	KeyCtrlC     = "ctrl+c"
	KeyPane1     = "1"
	KeyPane2     = "2"
	KeyPane3     = "3"
	KeyUp        = "up"
	KeyDown      = "down"
	KeyJ         = "j"
	KeyK         = "k"
	KeyRun       = "enter"
	KeySpace     = " "
	KeyInterrupt = "x"
	KeyReset     = "r"
	KeyOption    = "o"
	KeySettings  = "s"
	KeyCode      = "c"
	KeyEsc       = "esc"
)

// HelpView returns a one-line help bar with common keybindings.
func HelpView() string {
	return StyleHelp.Render("Tab: cycle focus | j/k: select | Enter: run | x: interrupt | r: reset | o: option | c: code | s: settings | q: quit")
}
