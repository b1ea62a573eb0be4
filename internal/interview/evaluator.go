package interview

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"text/template"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/berth-dev/intake/internal/judge"
	"github.com/berth-dev/intake/internal/observe"
	"github.com/berth-dev/intake/internal/topic"
	"github.com/berth-dev/intake/prompts"
)

// ErrJudgeCall marks a failed or malformed judge call. It is always
// recovered locally and never aborts a turn.
var ErrJudgeCall = errors.New("judge call failed")

// GenericFollowUp is asked when no topic-specific prompt is available.
const GenericFollowUp = "Could you please provide more details?"

// Verdict is the judge's assessment of a topic's composite answer.
type Verdict struct {
	SatisfactionScore int    `json:"satisfaction_score"`
	Analysis          string `json:"analysis"`
	MissingInfo       string `json:"missing_info"`
	FollowUpQuestion  string `json:"follow_up_question"`
	Summary           string `json:"summary,omitempty"`

	// Err is the judge failure that produced a default verdict, nil otherwise.
	Err error `json:"-"`
}

// Fallback reports whether v is a default verdict produced after a failure.
func (v Verdict) Fallback() bool {
	return v.Err != nil
}

// DefaultVerdict is the neutral verdict used whenever the judge cannot be
// consulted or its reply is unusable. Its score stays below the advance
// threshold so the topic is re-asked.
func DefaultVerdict(t topic.Topic, cause error) Verdict {
	followUp := t.FirstFollowUp()
	if followUp == "" {
		followUp = GenericFollowUp
	}
	return Verdict{
		SatisfactionScore: 5,
		Analysis:          "Error occurred during analysis",
		MissingInfo:       "Error in evaluation",
		FollowUpQuestion:  followUp,
		Err:               cause,
	}
}

// EvaluationRequest carries everything a Judge sees for one evaluation.
type EvaluationRequest struct {
	Topic     topic.Topic
	Latest    string
	Composite string
}

// Judge scores a composite answer. Implementations return an error wrapping
// ErrJudgeCall when the reply cannot be used.
type Judge interface {
	Evaluate(ctx context.Context, req EvaluationRequest) (Verdict, error)
}

// JudgeFunc adapts a function to the Judge interface.
type JudgeFunc func(ctx context.Context, req EvaluationRequest) (Verdict, error)

// Evaluate calls f.
func (f JudgeFunc) Evaluate(ctx context.Context, req EvaluationRequest) (Verdict, error) {
	return f(ctx, req)
}

var evaluateSystem = strings.TrimSpace(prompts.EvaluateSystemPrompt)

var evaluateTmpl = template.Must(template.New("evaluate").Parse(prompts.EvaluateTemplate))

// LLMJudge evaluates answers by prompting a language model for a JSON
// verdict.
type LLMJudge struct {
	Client      judge.Client
	Temperature float64
}

// Evaluate implements Judge.
func (j *LLMJudge) Evaluate(ctx context.Context, req EvaluationRequest) (Verdict, error) {
	out, err := j.Client.Complete(ctx, judge.Request{
		System:      evaluateSystem,
		Prompt:      buildEvaluationPrompt(req),
		Temperature: j.Temperature,
		JSON:        true,
	})
	if err != nil {
		return Verdict{}, fmt.Errorf("%w: %v", ErrJudgeCall, err)
	}
	return parseVerdict(out)
}

// verdictReply mirrors Verdict with pointers so missing keys are detectable.
type verdictReply struct {
	SatisfactionScore *float64 `json:"satisfaction_score"`
	Analysis          *string  `json:"analysis"`
	MissingInfo       *string  `json:"missing_info"`
	FollowUpQuestion  *string  `json:"follow_up_question"`
	Summary           string   `json:"summary"`
}

// scoreFromReply floors a judge score and bounds it to 1..MaxScore before
// the int conversion, so fractional scores never reach the advance threshold
// early and huge values cannot overflow.
func scoreFromReply(f float64) int {
	f = math.Floor(f)
	if f < 1 {
		return 1
	}
	if f > MaxScore {
		return MaxScore
	}
	return int(f)
}

func parseVerdict(raw string) (Verdict, error) {
	cleaned := cleanJSONOutput(raw)

	var reply verdictReply
	if err := json.Unmarshal([]byte(cleaned), &reply); err != nil {
		return Verdict{}, fmt.Errorf("%w: parsing verdict: %v", ErrJudgeCall, err)
	}

	var missing []string
	if reply.SatisfactionScore == nil {
		missing = append(missing, "satisfaction_score")
	}
	if reply.Analysis == nil {
		missing = append(missing, "analysis")
	}
	if reply.MissingInfo == nil {
		missing = append(missing, "missing_info")
	}
	if reply.FollowUpQuestion == nil {
		missing = append(missing, "follow_up_question")
	}
	if len(missing) > 0 {
		return Verdict{}, fmt.Errorf("%w: verdict missing %s", ErrJudgeCall, strings.Join(missing, ", "))
	}

	return Verdict{
		SatisfactionScore: scoreFromReply(*reply.SatisfactionScore),
		Analysis:          *reply.Analysis,
		MissingInfo:       *reply.MissingInfo,
		FollowUpQuestion:  strings.TrimSpace(*reply.FollowUpQuestion),
		Summary:           reply.Summary,
	}, nil
}

func buildEvaluationPrompt(req EvaluationRequest) string {
	data := struct {
		Field       topic.ID
		Description string
		Expected    string
		Composite   string
		Latest      string
	}{req.Topic.ID, req.Topic.Description, req.Topic.Expected, req.Composite, req.Latest}

	var buf bytes.Buffer
	if err := evaluateTmpl.Execute(&buf, data); err != nil {
		return fmt.Sprintf("ERROR: failed to execute evaluation template: %v", err)
	}
	return buf.String()
}

// cleanJSONOutput extracts JSON from model output, handling replies wrapped
// in markdown code fences or surrounded by prose.
func cleanJSONOutput(s string) string {
	s = strings.TrimSpace(s)

	if idx := strings.Index(s, "```json"); idx != -1 {
		s = s[idx+7:]
		if endIdx := strings.Index(s, "```"); endIdx != -1 {
			s = s[:endIdx]
		}
		return strings.TrimSpace(s)
	}
	if idx := strings.Index(s, "```"); idx != -1 {
		s = s[idx+3:]
		// Skip optional language identifier on same line.
		if nlIdx := strings.Index(s, "\n"); nlIdx != -1 && nlIdx < 20 {
			s = s[nlIdx+1:]
		}
		if endIdx := strings.Index(s, "```"); endIdx != -1 {
			s = s[:endIdx]
		}
		return strings.TrimSpace(s)
	}

	// Look for '{"' to avoid matching braces in prose like "{see below}".
	start := strings.Index(s, `{"`)
	if start == -1 {
		start = strings.Index(s, "{")
	}
	end := strings.LastIndex(s, "}")
	if start != -1 && end != -1 && end > start {
		return s[start : end+1]
	}

	return s
}

// Evaluator applies the fail-open policy around a Judge: every call yields a
// usable verdict.
type Evaluator struct {
	judge   Judge
	timeout time.Duration
	metrics *observe.Metrics
}

// NewEvaluator wraps j. A positive timeout bounds each judge call; expiry is
// treated as a call failure.
func NewEvaluator(j Judge, timeout time.Duration, metrics *observe.Metrics) *Evaluator {
	return &Evaluator{judge: j, timeout: timeout, metrics: metrics}
}

// Evaluate scores the composite answer for t held in acc. The judge always
// sees the cumulative history, never just latest.
func (e *Evaluator) Evaluate(ctx context.Context, t topic.Topic, latest string, acc *Accumulator) Verdict {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	ctx, span := observe.StartSpan(ctx, "interview.evaluate",
		trace.WithAttributes(attribute.String("topic", string(t.ID))))
	start := time.Now()
	v, err := e.judge.Evaluate(ctx, EvaluationRequest{
		Topic:     t,
		Latest:    latest,
		Composite: acc.Composite(t.ID),
	})
	e.metrics.RecordJudgeCall(ctx, observe.PurposeEvaluate, time.Since(start), err)
	observe.EndSpan(span, err)
	if err != nil {
		return DefaultVerdict(t, err)
	}

	return normalizeVerdict(v, t)
}

// normalizeVerdict keeps a judge verdict inside the evaluator's contract:
// the score lies in 1..10 (0 is reserved for skips) and an incomplete
// answer always has a follow-up question.
func normalizeVerdict(v Verdict, t topic.Topic) Verdict {
	if v.SatisfactionScore < 1 {
		v.SatisfactionScore = 1
	}
	if v.SatisfactionScore > MaxScore {
		v.SatisfactionScore = MaxScore
	}
	if v.SatisfactionScore < AdvanceThreshold && strings.TrimSpace(v.FollowUpQuestion) == "" {
		v.FollowUpQuestion = t.FirstFollowUp()
		if v.FollowUpQuestion == "" {
			v.FollowUpQuestion = GenericFollowUp
		}
	}
	v.Err = nil
	return v
}
