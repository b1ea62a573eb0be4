// Package judge provides the language-model backends used to score interview
// answers and classify refusals. Each backend maps a prompt to raw reply text;
// interpreting that text is left to the caller.
package judge

import (
	"context"
	"errors"
)

// Request is one judge call.
type Request struct {
	System      string  // system instruction, may be empty
	Prompt      string  // user prompt
	Temperature float64 // sampling temperature; backends that cannot set it ignore it
	JSON        bool    // reply is expected to be a JSON object
}

// Client sends a single prompt to a language model and returns its reply.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Func adapts an ordinary function to the Client interface.
type Func func(ctx context.Context, req Request) (string, error)

// Complete calls f.
func (f Func) Complete(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// ErrEmptyReply is returned when a backend answers with no text.
var ErrEmptyReply = errors.New("judge: empty reply")
