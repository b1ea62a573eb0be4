// Package testutil provides test helper utilities for intake tests.
package testutil

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/berth-dev/intake/internal/judge"
)

// TempProject creates a temporary directory with the given files and returns its path.
// Files is a map of relative path -> content. Directories are created as needed.
// The directory is automatically cleaned up when the test finishes.
func TempProject(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()

	for relPath, content := range files {
		absPath := filepath.Join(dir, relPath)
		if err := os.MkdirAll(filepath.Dir(absPath), 0755); err != nil {
			t.Fatalf("creating directory for %s: %v", relPath, err)
		}
		if err := os.WriteFile(absPath, []byte(content), 0644); err != nil {
			t.Fatalf("writing %s: %v", relPath, err)
		}
	}

	return dir
}

// KeywordProject returns files for a project that classifies refusals by
// keyword and keeps sessions in the default JSON file.
func KeywordProject() map[string]string {
	return map[string]string{
		".intake/config.yaml": "version: 1\ndetector:\n  strategy: keyword\n",
	}
}

// TwoTopicProject returns files for a project with a two-topic catalog
// (name, role).
func TwoTopicProject() map[string]string {
	files := KeywordProject()
	files[".intake/config.yaml"] += "catalog: topics.yaml\n"
	files[".intake/topics.yaml"] = `topics:
  - id: name
    label: name
    expected: First and last name
    follow_ups:
      - Could you please tell me your full name?
  - id: role
    label: role
    expected: Job title and responsibilities
    follow_ups:
      - What is your current role?
`
	return files
}

// LegacyRecord returns a session record in the shape written by the
// older chat-history format: no current-topic field.
func LegacyRecord() string {
	rec := map[string]interface{}{
		"messages": []map[string]string{
			{"role": "assistant", "content": "Could you please tell me your full name?"},
			{"role": "user", "content": "Jane Doe"},
			{"role": "assistant", "content": "Great! Let's move on to your current role. What are your main responsibilities in this role?"},
			{"role": "user", "content": "Engineer"},
			{"role": "assistant", "content": "How large is the team you work with?"},
		},
		"interview_form": map[string]interface{}{
			"name":         map[string]interface{}{"value": "Jane Doe", "responses": []string{"Jane Doe"}, "satisfaction": 9},
			"current_role": map[string]interface{}{"value": "Engineer", "responses": []string{"Engineer"}, "satisfaction": 4},
		},
		"memory": map[string]interface{}{
			"field_memory":      map[string][]string{"name": {"Jane Doe"}, "current_role": {"Engineer"}},
			"current_responses": map[string]string{"name": "Jane Doe", "current_role": "Engineer"},
		},
	}
	data, _ := json.MarshalIndent(rec, "", "  ")
	return string(data)
}

// ErrJudgeDown is returned by FailingClient.
var ErrJudgeDown = errors.New("judge unavailable")

// FailingClient is a judge.Client whose every call fails.
func FailingClient() judge.Client {
	return judge.Func(func(ctx context.Context, req judge.Request) (string, error) {
		return "", ErrJudgeDown
	})
}

// ScriptedClient is a judge.Client that answers classification and
// evaluation calls from fixed scripts and records every request.
type ScriptedClient struct {
	mu       sync.Mutex
	classify []string
	evaluate []string
	Requests []judge.Request
}

// NewScriptedClient returns a client that replies to classification calls
// with classify[i] and to evaluation calls with evaluate[i], in order. When a
// script runs out its last entry is repeated; an empty script fails.
func NewScriptedClient(classify, evaluate []string) *ScriptedClient {
	return &ScriptedClient{classify: classify, evaluate: evaluate}
}

// Complete implements judge.Client. Requests with JSON set are evaluations.
func (c *ScriptedClient) Complete(ctx context.Context, req judge.Request) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Requests = append(c.Requests, req)

	script := &c.classify
	if req.JSON {
		script = &c.evaluate
	}
	if len(*script) == 0 {
		return "", ErrJudgeDown
	}
	out := (*script)[0]
	if len(*script) > 1 {
		*script = (*script)[1:]
	}
	return out, nil
}

// Calls returns how many requests of each kind were made.
func (c *ScriptedClient) Calls() (classify, evaluate int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range c.Requests {
		if r.JSON {
			evaluate++
		} else {
			classify++
		}
	}
	return classify, evaluate
}

// VerdictJSON builds an evaluation reply with the given score and follow-up.
func VerdictJSON(score int, followUp string) string {
	data, _ := json.Marshal(map[string]interface{}{
		"satisfaction_score": score,
		"analysis":           "scored " + strings.Repeat("*", score),
		"missing_info":       "none",
		"follow_up_question": followUp,
	})
	return string(data)
}
