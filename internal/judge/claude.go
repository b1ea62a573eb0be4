package judge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// claudeOutputJSON is the envelope Claude returns with --output-format json.
type claudeOutputJSON struct {
	Type    string `json:"type"`
	Subtype string `json:"subtype"`
	Result  string `json:"result"`
	IsError bool   `json:"is_error"`
}

// Claude runs the `claude` CLI in print mode. The CLI has no temperature
// control, so Request.Temperature is ignored.
type Claude struct {
	Binary string // defaults to "claude"
	Model  string // optional --model value
}

// NewClaude returns a Claude backend using the given model alias.
func NewClaude(model string) *Claude {
	return &Claude{Binary: "claude", Model: model}
}

// Complete runs `claude -p <prompt> --output-format json` and returns the
// result text from the envelope.
func (c *Claude) Complete(ctx context.Context, req Request) (string, error) {
	bin := c.Binary
	if bin == "" {
		bin = "claude"
	}

	args := []string{"-p", claudePrompt(req), "--output-format", "json"}
	if c.Model != "" {
		args = append(args, "--model", c.Model)
	}

	cmd := exec.CommandContext(ctx, bin, args...)
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("claude exited %d: %s", exitErr.ExitCode(), string(exitErr.Stderr))
		}
		return "", fmt.Errorf("running claude: %w", err)
	}

	return parseClaudeEnvelope(out)
}

// claudePrompt folds the system instruction into the prompt text.
func claudePrompt(req Request) string {
	if req.System == "" {
		return req.Prompt
	}
	return req.System + "\n\n" + req.Prompt
}

func parseClaudeEnvelope(out []byte) (string, error) {
	var envelope claudeOutputJSON
	if err := json.Unmarshal(out, &envelope); err != nil {
		return "", fmt.Errorf("parsing claude output: %w", err)
	}

	if envelope.IsError {
		return "", fmt.Errorf("claude returned error: %s", envelope.Result)
	}

	result := strings.TrimSpace(envelope.Result)
	if result == "" {
		return "", ErrEmptyReply
	}
	return result, nil
}
