// Package interview implements the topic-progression state machine: after
// each user turn it decides whether to skip, advance or re-ask, keeps the
// per-topic answer log, and persists the session.
package interview

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/berth-dev/intake/internal/log"
	"github.com/berth-dev/intake/internal/observe"
	"github.com/berth-dev/intake/internal/topic"
)

// ErrComplete is returned by Respond once every topic has been visited.
var ErrComplete = errors.New("interview is complete")

// ClosingMessage is emitted when the last topic is left.
const ClosingMessage = "Thank you for your time. We've completed all topics!"

// Store persists a session after every turn. Save is a full overwrite.
type Store interface {
	Save(ctx context.Context, s *Session) error
}

// Reply is the outcome of one turn.
type Reply struct {
	Message  string   // next assistant prompt, already appended to the transcript
	Topic    topic.ID // topic that received the utterance
	Next     topic.ID // topic now awaiting an answer, or topic.Done
	Skipped  bool
	Advanced bool
	Verdict  *Verdict // nil on the skip path

	// SaveErr reports a persistence failure. The in-memory session is still
	// valid; the caller should warn and continue.
	SaveErr error
}

// Complete reports whether the turn finished the interview.
func (r *Reply) Complete() bool {
	return r.Next == topic.Done
}

// Controller drives sessions through a catalog.
type Controller struct {
	catalog   *topic.Catalog
	detector  Detector
	evaluator *Evaluator
	store     Store
	logger    *log.Logger
	metrics   *observe.Metrics
}

// Option configures a Controller.
type Option func(*Controller)

// WithStore persists the session after every turn.
func WithStore(s Store) Option {
	return func(c *Controller) { c.store = s }
}

// WithLogger records turn events.
func WithLogger(l *log.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithMetrics records transition counts.
func WithMetrics(m *observe.Metrics) Option {
	return func(c *Controller) { c.metrics = m }
}

// NewController returns a controller over catalog.
func NewController(catalog *topic.Catalog, detector Detector, evaluator *Evaluator, opts ...Option) *Controller {
	c := &Controller{
		catalog:   catalog,
		detector:  detector,
		evaluator: evaluator,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Catalog returns the controller's catalog.
func (c *Controller) Catalog() *topic.Catalog {
	return c.catalog
}

// NewSession starts a session on the first topic.
func (c *Controller) NewSession() *Session {
	s := NewSession(c.catalog)
	c.logEvent(log.LogEvent{Event: log.EventSessionStarted, SessionID: s.ID, Topic: string(s.Current), Total: c.catalog.Len()})
	return s
}

// Respond processes one user utterance against s and returns the next
// prompt. Only ErrUnknownTopic and ErrComplete are returned as errors; judge
// and storage failures degrade into the reply.
func (c *Controller) Respond(ctx context.Context, s *Session, utterance string) (*Reply, error) {
	ctx, span := observe.StartSpan(ctx, "interview.respond",
		trace.WithAttributes(attribute.String("session", s.ID), attribute.String("topic", string(s.Current))))
	defer span.End()

	if s.Complete() {
		return nil, ErrComplete
	}

	current, err := c.catalog.Get(s.Current)
	if err != nil {
		return nil, fmt.Errorf("respond: %w", err)
	}

	s.addTurn(RoleUser, utterance)
	reply := &Reply{Topic: current.ID}

	if c.detector.IsNegative(ctx, utterance) {
		s.Scores[current.ID] = ScoreSkipped
		reply.Skipped = true
		if err := c.advance(s, reply, "I understand."); err != nil {
			return nil, err
		}
		c.metrics.RecordTransition(ctx, observe.TransitionSkip)
		c.logEvent(log.LogEvent{
			Event: log.EventTopicSkipped, SessionID: s.ID,
			Topic: string(current.ID), Next: string(reply.Next), Score: log.Score(ScoreSkipped),
		})
	} else {
		s.Answers.Append(current.ID, utterance)
		start := time.Now()
		v := c.evaluator.Evaluate(ctx, current, utterance, s.Answers)
		judgeMs := time.Since(start).Milliseconds()
		reply.Verdict = &v
		s.Scores[current.ID] = v.SatisfactionScore

		if v.Fallback() {
			c.logEvent(log.LogEvent{
				Event: log.EventJudgeFailed, SessionID: s.ID, Topic: string(current.ID),
				Error: v.Err.Error(), DurationMs: judgeMs,
			})
		}

		if v.SatisfactionScore >= AdvanceThreshold {
			if err := c.advance(s, reply, "Great!"); err != nil {
				return nil, err
			}
			c.metrics.RecordTransition(ctx, observe.TransitionAdvance)
			c.logEvent(log.LogEvent{
				Event: log.EventTopicAdvanced, SessionID: s.ID, Topic: string(current.ID),
				Next: string(reply.Next), Score: log.Score(v.SatisfactionScore), Responses: s.Answers.Len(current.ID),
				DurationMs: judgeMs,
			})
		} else {
			reply.Next = current.ID
			reply.Message = v.FollowUpQuestion
			c.metrics.RecordTransition(ctx, observe.TransitionRepeat)
			c.logEvent(log.LogEvent{
				Event: log.EventTopicRepeated, SessionID: s.ID, Topic: string(current.ID),
				Score: log.Score(v.SatisfactionScore), Responses: s.Answers.Len(current.ID),
				DurationMs: judgeMs,
			})
		}
	}

	s.addTurn(RoleAssistant, reply.Message)
	s.UpdatedAt = time.Now().UTC()

	if reply.Complete() {
		c.logEvent(log.LogEvent{Event: log.EventInterviewComplete, SessionID: s.ID, Completed: s.Completed(), Total: c.catalog.Len()})
	}

	if c.store != nil {
		if err := c.store.Save(ctx, s); err != nil {
			reply.SaveErr = fmt.Errorf("saving session: %w", err)
			c.logEvent(log.LogEvent{Event: log.EventSaveFailed, SessionID: s.ID, Error: err.Error()})
		}
	}

	return reply, nil
}

// advance moves s past its current topic and fills the reply message.
func (c *Controller) advance(s *Session, reply *Reply, opener string) error {
	next, err := c.catalog.Next(s.Current)
	if err != nil {
		return fmt.Errorf("respond: %w", err)
	}

	s.Current = next
	reply.Next = next
	reply.Advanced = true

	if next == topic.Done {
		reply.Message = ClosingMessage
		return nil
	}

	t, err := c.catalog.Get(next)
	if err != nil {
		return fmt.Errorf("respond: %w", err)
	}
	reply.Message = fmt.Sprintf("%s Let's move on to your %s. %s", opener, t.Label, t.FirstFollowUp())
	return nil
}

// Resume validates a restored session against the catalog and records the
// resume. Scores for topics missing from the record start at 0.
func (c *Controller) Resume(s *Session) error {
	if !s.Complete() && !c.catalog.Contains(s.Current) {
		return fmt.Errorf("resume: %w: %q", topic.ErrUnknownTopic, s.Current)
	}
	if s.Scores == nil {
		s.Scores = make(map[topic.ID]int, c.catalog.Len())
	}
	for _, id := range c.catalog.IDs() {
		if _, ok := s.Scores[id]; !ok {
			s.Scores[id] = ScoreSkipped
		}
	}
	if s.Answers == nil {
		s.Answers = NewAccumulator()
	}
	c.logEvent(log.LogEvent{Event: log.EventSessionResumed, SessionID: s.ID, Topic: string(s.Current), Completed: s.Completed(), Total: c.catalog.Len()})
	return nil
}

// logEvent writes to the event log. Log failures never abort a turn.
func (c *Controller) logEvent(e log.LogEvent) {
	_ = c.logger.Append(e)
}
