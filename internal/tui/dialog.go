package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

type promptAnswer struct {
	path string
	ok   bool
}

// promptRequest travels from the save goroutine to the model, which shows
// the textinput and replies once the user has answered.
type promptRequest struct {
	defaultPath string
	reply       chan<- promptAnswer
}

func (r *promptRequest) answer(path string, ok bool) {
	r.reply <- promptAnswer{path: path, ok: ok}
}

// promptDialog is the output.Dialog used by the TUI.
type promptDialog struct {
	requests chan promptRequest
}

func newPromptDialog() *promptDialog {
	return &promptDialog{requests: make(chan promptRequest)}
}

// ShowSaveDialog implements output.Dialog.
func (d *promptDialog) ShowSaveDialog(ctx context.Context, defaultPath string) (string, bool, error) {
	reply := make(chan promptAnswer, 1)
	select {
	case d.requests <- promptRequest{defaultPath: defaultPath, reply: reply}:
	case <-ctx.Done():
		return "", false, ctx.Err()
	}
	select {
	case a := <-reply:
		return a.path, a.ok, nil
	case <-ctx.Done():
		return "", false, ctx.Err()
	}
}

// wait delivers the next prompt request to the model.
func (d *promptDialog) wait() tea.Cmd {
	return func() tea.Msg {
		return <-d.requests
	}
}
