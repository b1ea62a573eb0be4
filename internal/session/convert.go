package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/berth-dev/intake/internal/interview"
	"github.com/berth-dev/intake/internal/topic"
)

// ToRecord captures s in persisted form. Form values are always derived from
// the answer log.
func ToRecord(s *interview.Session, c *topic.Catalog) Record {
	rec := Record{
		ID:            s.ID,
		Messages:      append([]interview.Turn(nil), s.Transcript...),
		InterviewForm: make(map[string]FormEntry, c.Len()),
		Memory: Memory{
			FieldMemory:      make(map[string][]string),
			CurrentResponses: make(map[string]string),
		},
		CurrentTopic: string(s.Current),
	}
	if !s.CreatedAt.IsZero() {
		created := s.CreatedAt
		rec.CreatedAt = &created
	}
	if !s.UpdatedAt.IsZero() {
		updated := s.UpdatedAt
		rec.UpdatedAt = &updated
	}

	for _, st := range s.Statuses(c) {
		id := string(st.Topic.ID)
		responses := st.Responses
		if responses == nil {
			responses = []string{}
		}
		rec.InterviewForm[id] = FormEntry{
			Value:        FormValue(st.Value),
			Responses:    responses,
			Satisfaction: st.Satisfaction,
		}
		if len(st.Responses) > 0 {
			rec.Memory.FieldMemory[id] = st.Responses
			rec.Memory.CurrentResponses[id] = st.Value
		}
	}

	return rec
}

// FromRecord rebuilds a session from rec against catalog c. Topics in the
// record that c does not know are dropped. Records without a current topic
// (the older format) have it inferred from the scores and the last prompt.
func FromRecord(rec Record, c *topic.Catalog) (*interview.Session, error) {
	s := &interview.Session{
		ID:         rec.ID,
		Transcript: append([]interview.Turn(nil), rec.Messages...),
		Scores:     make(map[topic.ID]int, c.Len()),
	}
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	if rec.CreatedAt != nil {
		s.CreatedAt = *rec.CreatedAt
	}
	if rec.UpdatedAt != nil {
		s.UpdatedAt = *rec.UpdatedAt
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = s.CreatedAt
	}

	responses := make(map[topic.ID][]string)
	for _, id := range c.IDs() {
		entry := rec.InterviewForm[string(id)]
		s.Scores[id] = entry.Satisfaction

		if list, ok := rec.Memory.FieldMemory[string(id)]; ok {
			responses[id] = list
		} else if len(entry.Responses) > 0 {
			responses[id] = entry.Responses
		}
	}
	s.Answers = interview.RestoreAccumulator(responses)

	switch rec.CurrentTopic {
	case "":
		s.Current = inferCurrent(s, c)
	case string(topic.Done):
		s.Current = topic.Done
	default:
		id := topic.ID(rec.CurrentTopic)
		if !c.Contains(id) {
			return nil, fmt.Errorf("restoring session: %w: %q", topic.ErrUnknownTopic, id)
		}
		s.Current = id
	}

	if len(s.Transcript) == 0 && !s.Complete() {
		t, _ := c.Get(s.Current)
		s.Transcript = []interview.Turn{{Role: interview.RoleAssistant, Content: t.FirstFollowUp()}}
	}

	return s, nil
}

// inferCurrent picks the topic awaiting an answer in a record that does not
// store it: the last topic with a non-zero score, if it is still
// incomplete, otherwise the one after it. Declined topics score 0 and keep no
// answers, so the scores alone cannot see past them; the last assistant turn
// decides when it already moved on to a later topic or closed the interview.
func inferCurrent(s *interview.Session, c *topic.Catalog) topic.ID {
	current := inferFromScores(s, c)
	if later, ok := promptedTopic(s, c, current); ok {
		return later
	}
	return current
}

func inferFromScores(s *interview.Session, c *topic.Catalog) topic.ID {
	ids := c.IDs()
	last := -1
	for i, id := range ids {
		if s.Scores[id] > interview.ScoreSkipped || s.Answers.Len(id) > 0 {
			last = i
		}
	}
	if last == -1 {
		return c.First()
	}
	if s.Scores[ids[last]] < interview.AdvanceThreshold {
		return ids[last]
	}
	next, _ := c.Next(ids[last])
	return next
}

// promptedTopic reports the topic after from that the last assistant turn
// moved on to, or Done if that turn closed the interview.
func promptedTopic(s *interview.Session, c *topic.Catalog, from topic.ID) (topic.ID, bool) {
	if from == topic.Done {
		return "", false
	}
	var prompt string
	for i := len(s.Transcript) - 1; i >= 0; i-- {
		if s.Transcript[i].Role == interview.RoleAssistant {
			prompt = s.Transcript[i].Content
			break
		}
	}
	if prompt == "" {
		return "", false
	}
	if prompt == interview.ClosingMessage {
		return topic.Done, true
	}

	start, err := c.Index(from)
	if err != nil {
		return "", false
	}
	ids := c.IDs()
	for _, id := range ids[start+1:] {
		t, _ := c.Get(id)
		if strings.Contains(prompt, "move on to your "+t.Label+".") {
			return id, true
		}
	}
	return "", false
}
