package interview

import (
	"time"

	"github.com/google/uuid"

	"github.com/berth-dev/intake/internal/topic"
)

// Role tags a transcript turn.
type Role string

const (
	RoleAssistant Role = "assistant"
	RoleUser      Role = "user"
)

// Turn is one transcript entry.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Score thresholds.
const (
	// ScoreSkipped marks a topic the user declined. Only the skip path
	// writes it.
	ScoreSkipped = 0
	// AdvanceThreshold is the lowest evaluator score that completes a topic.
	AdvanceThreshold = 7
	// MaxScore is the top of the evaluator scale.
	MaxScore = 10
)

// Session is the complete state of one interview run. It is owned by the
// single loop driving it and is not safe for concurrent use.
type Session struct {
	ID         string
	Transcript []Turn
	Current    topic.ID // topic.Done once the interview is complete
	Scores     map[topic.ID]int
	Answers    *Accumulator
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewSession starts an interview on the first topic of c, with that topic's
// opening prompt as the only turn.
func NewSession(c *topic.Catalog) *Session {
	first, _ := c.Get(c.First())

	scores := make(map[topic.ID]int, c.Len())
	for _, id := range c.IDs() {
		scores[id] = ScoreSkipped
	}

	now := time.Now().UTC()
	return &Session{
		ID:         uuid.New().String(),
		Transcript: []Turn{{Role: RoleAssistant, Content: first.FirstFollowUp()}},
		Current:    first.ID,
		Scores:     scores,
		Answers:    NewAccumulator(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Complete reports whether the interview has reached its terminal state.
func (s *Session) Complete() bool {
	return s.Current == topic.Done
}

// LastPrompt returns the most recent assistant turn, or "".
func (s *Session) LastPrompt() string {
	for i := len(s.Transcript) - 1; i >= 0; i-- {
		if s.Transcript[i].Role == RoleAssistant {
			return s.Transcript[i].Content
		}
	}
	return ""
}

func (s *Session) addTurn(role Role, content string) {
	s.Transcript = append(s.Transcript, Turn{Role: role, Content: content})
}

// TopicStatus is the derived per-topic view used by summaries and the
// persisted record.
type TopicStatus struct {
	Topic        topic.Topic
	Value        string
	Responses    []string
	Satisfaction int
}

// State reports how far a topic has progressed.
type State int

const (
	StateSkipped State = iota // score 0: declined or not yet answered
	StateIncomplete
	StateComplete
)

// String returns the export name of the state.
func (st State) String() string {
	switch st {
	case StateComplete:
		return "complete"
	case StateIncomplete:
		return "incomplete"
	default:
		return "skipped"
	}
}

// State classifies the topic by its satisfaction score.
func (ts TopicStatus) State() State {
	switch {
	case ts.Satisfaction >= AdvanceThreshold:
		return StateComplete
	case ts.Satisfaction > ScoreSkipped:
		return StateIncomplete
	default:
		return StateSkipped
	}
}

// Statuses returns one TopicStatus per catalog topic, in catalog order.
func (s *Session) Statuses(c *topic.Catalog) []TopicStatus {
	topics := c.Topics()
	out := make([]TopicStatus, 0, len(topics))
	for _, t := range topics {
		out = append(out, TopicStatus{
			Topic:        t,
			Value:        s.Answers.Composite(t.ID),
			Responses:    s.Answers.All(t.ID),
			Satisfaction: s.Scores[t.ID],
		})
	}
	return out
}

// Completed returns how many topics reached the advance threshold.
func (s *Session) Completed() int {
	n := 0
	for _, score := range s.Scores {
		if score >= AdvanceThreshold {
			n++
		}
	}
	return n
}
