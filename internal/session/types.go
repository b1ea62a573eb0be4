// Package session persists interview sessions. A session is stored as one
// record holding the transcript, the per-topic form and the raw answer log;
// every save overwrites the whole record.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/berth-dev/intake/internal/interview"
)

// Store saves and restores the current session.
type Store interface {
	interview.Store

	// Load returns the most recent session, or nil, nil when none exists.
	Load(ctx context.Context) (*interview.Session, error)

	// Reset discards saved sessions.
	Reset(ctx context.Context) error

	Close() error
}

// Record is the persisted shape of a session.
type Record struct {
	ID            string               `json:"id,omitempty"`
	Messages      []interview.Turn     `json:"messages"`
	InterviewForm map[string]FormEntry `json:"interview_form"`
	Memory        Memory               `json:"memory"`
	CurrentTopic  string               `json:"current_topic,omitempty"`
	CreatedAt     *time.Time           `json:"created_at,omitempty"`
	UpdatedAt     *time.Time           `json:"updated_at,omitempty"`
}

// FormEntry is one topic's derived status.
type FormEntry struct {
	Value        FormValue `json:"value"`
	Responses    []string  `json:"responses"`
	Satisfaction int       `json:"satisfaction"`
}

// Memory is the raw answer log, keyed by topic id.
type Memory struct {
	FieldMemory      map[string][]string `json:"field_memory"`
	CurrentResponses map[string]string   `json:"current_responses"`
}

// FormValue is a composite answer. Older records may hold a list of strings
// (e.g. technical skills); those are joined with ", " on decode.
type FormValue string

// UnmarshalJSON accepts a string, a list of strings or null.
func (v *FormValue) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = ""
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = FormValue(s)
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("form value must be a string or list of strings: %w", err)
	}
	*v = FormValue(strings.Join(list, ", "))
	return nil
}
