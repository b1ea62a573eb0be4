package tui

import "github.com/berth-dev/intake/internal/interview"

// ReplyMsg carries the outcome of one Respond call.
type ReplyMsg struct {
	Reply *interview.Reply
	Err   error
}
