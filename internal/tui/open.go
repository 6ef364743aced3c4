package tui

import (
	"errors"
	"io"
	"os/exec"
	"runtime"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

type urlOpenDoneMsg struct {
	url string
	err error
}

// openURL hands u to the operating system's browser launcher.
func openURL(u string) tea.Cmd {
	u = strings.TrimSpace(u)
	if u == "" {
		return func() tea.Msg { return urlOpenDoneMsg{err: errors.New("empty url")} }
	}
	return func() tea.Msg {
		var cmd *exec.Cmd
		switch runtime.GOOS {
		case "darwin":
			cmd = exec.Command("open", u)
		case "windows":
			cmd = exec.Command("cmd", "/c", "start", "", u)
		default:
			cmd = exec.Command("xdg-open", u)
		}
		// Keep launcher output from painting over the panel.
		cmd.Stdout = io.Discard
		cmd.Stderr = io.Discard
		if err := cmd.Start(); err != nil {
			return urlOpenDoneMsg{url: u, err: err}
		}
		return urlOpenDoneMsg{url: u, err: cmd.Wait()}
	}
}
