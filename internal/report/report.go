// Package report renders interview progress: the per-topic summary shown by
// `intake status` and the TUI sidebar, and the exported interview-state
// document.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/berth-dev/intake/internal/interview"
	"github.com/berth-dev/intake/internal/log"
	"github.com/berth-dev/intake/internal/topic"
)

// Status glyphs.
const (
	GlyphComplete   = "✅"
	GlyphIncomplete = "⚠️"
	GlyphSkipped    = "❌"
)

// Glyph returns the status glyph for st.
func Glyph(st interview.State) string {
	switch st {
	case interview.StateComplete:
		return GlyphComplete
	case interview.StateIncomplete:
		return GlyphIncomplete
	default:
		return GlyphSkipped
	}
}

// TopicLine is one row of the summary.
type TopicLine struct {
	ID        topic.ID
	Title     string
	State     interview.State
	Score     int
	Responses []string
	Current   bool
}

// Report is the summary of one session.
type Report struct {
	SessionID     string
	Completed     int
	Total         int
	Finished      bool
	Topics        []TopicLine
	Duration      time.Duration
	JudgeFailures int
}

// Build summarizes s against catalog c.
func Build(s *interview.Session, c *topic.Catalog) *Report {
	r := &Report{
		SessionID: s.ID,
		Total:     c.Len(),
		Finished:  s.Complete(),
	}
	for _, st := range s.Statuses(c) {
		state := st.State()
		if state == interview.StateComplete {
			r.Completed++
		}
		r.Topics = append(r.Topics, TopicLine{
			ID:        st.Topic.ID,
			Title:     st.Topic.Title(),
			State:     state,
			Score:     st.Satisfaction,
			Responses: st.Responses,
			Current:   st.Topic.ID == s.Current,
		})
	}
	return r
}

// AddEvents fills timing and failure counts from the event log entries that
// belong to this session.
func (r *Report) AddEvents(events []log.LogEvent) {
	var own []log.LogEvent
	for _, e := range events {
		if e.SessionID == r.SessionID {
			own = append(own, e)
		}
	}
	r.Duration = computeDuration(own)
	r.JudgeFailures = 0
	for _, e := range own {
		if e.Event == log.EventJudgeFailed {
			r.JudgeFailures++
		}
	}
}

// Progress returns the "n/total topics completed" line.
func (r *Report) Progress() string {
	return fmt.Sprintf("%d/%d topics completed", r.Completed, r.Total)
}

// FormatReport produces a terminal-friendly, human-readable summary string.
func FormatReport(r *Report) string {
	var b strings.Builder

	b.WriteString("========================================\n")
	b.WriteString("  Interview Summary\n")
	b.WriteString("========================================\n")
	b.WriteString("\n")

	fmt.Fprintf(&b, "Progress:    %s\n", r.Progress())
	if r.Finished {
		b.WriteString("Status:      finished\n")
	}
	if r.Duration > 0 {
		fmt.Fprintf(&b, "Duration:    %s\n", formatDuration(r.Duration))
	}
	if r.JudgeFailures > 0 {
		fmt.Fprintf(&b, "Judge errors: %d\n", r.JudgeFailures)
	}
	b.WriteString("\n")

	for _, t := range r.Topics {
		b.WriteString(FormatTopic(t))
	}

	b.WriteString("========================================\n")

	return b.String()
}

// FormatTopic renders one topic heading and its responses.
func FormatTopic(t TopicLine) string {
	var b strings.Builder
	marker := ""
	if t.Current {
		marker = "  <- current"
	}
	fmt.Fprintf(&b, "%s %s (%d/10)%s\n", Glyph(t.State), t.Title, t.Score, marker)
	if len(t.Responses) == 0 {
		b.WriteString("    No response provided\n")
	}
	for _, resp := range t.Responses {
		fmt.Fprintf(&b, "    - %s\n", resp)
	}
	return b.String()
}

// computeDuration measures from session_started (or the first event) to
// interview_complete (or the last event).
func computeDuration(events []log.LogEvent) time.Duration {
	if len(events) == 0 {
		return 0
	}

	var start, end time.Time
	for _, e := range events {
		if start.IsZero() && (e.Event == log.EventSessionStarted || e.Event == log.EventSessionResumed) {
			start = e.Time
		}
		if !e.Time.IsZero() {
			end = e.Time
		}
		if e.Event == log.EventInterviewComplete {
			end = e.Time
			break
		}
	}
	if start.IsZero() {
		start = events[0].Time
	}

	if start.IsZero() || end.IsZero() {
		return 0
	}

	d := end.Sub(start)
	if d < 0 {
		return 0
	}

	return d
}

// formatDuration produces a human-readable duration string such as "5m 32s"
// or "1h 12m 5s". Sub-second durations are shown as "< 1s".
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "< 1s"
	}

	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60

	switch {
	case h > 0:
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	case m > 0:
		return fmt.Sprintf("%dm %ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}
