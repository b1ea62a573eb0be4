package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/berth-dev/intake/internal/interview"
)

// RespondCmd runs one interview turn off the UI loop. The model accepts no
// input while the command is pending, so the session has a single writer.
func RespondCmd(ctx context.Context, ctl *interview.Controller, s *interview.Session, utterance string) tea.Cmd {
	return func() tea.Msg {
		reply, err := ctl.Respond(ctx, s, utterance)
		return ReplyMsg{Reply: reply, Err: err}
	}
}
