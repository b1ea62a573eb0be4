package interview

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/berth-dev/intake/internal/judge"
	"github.com/berth-dev/intake/internal/testutil"
	"github.com/berth-dev/intake/internal/topic"
)

func nameTopic() topic.Topic {
	return topic.Topic{
		ID:          topic.Name,
		Label:       "name",
		Description: "Full name of the candidate",
		Expected:    "First and last name",
		FollowUps:   []string{"Could you please tell me your full name?", "Could you spell it?"},
	}
}

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantScore int
		wantErr   bool
	}{
		{
			name:      "plain json",
			input:     `{"satisfaction_score": 8, "analysis": "ok", "missing_info": "none", "follow_up_question": ""}`,
			wantScore: 8,
		},
		{
			name:      "fenced",
			input:     "```json\n{\"satisfaction_score\": 4, \"analysis\": \"a\", \"missing_info\": \"m\", \"follow_up_question\": \"q?\"}\n```",
			wantScore: 4,
		},
		{
			name:      "prose around object",
			input:     "Here you go:\n{\"satisfaction_score\": 6.6, \"analysis\": \"a\", \"missing_info\": \"m\", \"follow_up_question\": \"q?\"}\nThanks",
			wantScore: 6,
		},
		{
			name:      "half point below threshold",
			input:     `{"satisfaction_score": 6.5, "analysis": "a", "missing_info": "m", "follow_up_question": "q?"}`,
			wantScore: 6,
		},
		{
			name:      "just below threshold",
			input:     `{"satisfaction_score": 6.99, "analysis": "a", "missing_info": "m", "follow_up_question": "q?"}`,
			wantScore: 6,
		},
		{
			name:      "huge score",
			input:     `{"satisfaction_score": 1e20, "analysis": "a", "missing_info": "m", "follow_up_question": ""}`,
			wantScore: 10,
		},
		{
			name:      "huge negative score",
			input:     `{"satisfaction_score": -1e20, "analysis": "a", "missing_info": "m", "follow_up_question": "q?"}`,
			wantScore: 1,
		},
		{
			name:    "missing score",
			input:   `{"analysis": "a", "missing_info": "m", "follow_up_question": "q?"}`,
			wantErr: true,
		},
		{
			name:    "missing follow-up",
			input:   `{"satisfaction_score": 3, "analysis": "a", "missing_info": "m"}`,
			wantErr: true,
		},
		{
			name:    "not json",
			input:   "I think the answer is fine.",
			wantErr: true,
		},
		{
			name:    "score as string",
			input:   `{"satisfaction_score": "8", "analysis": "a", "missing_info": "m", "follow_up_question": ""}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := parseVerdict(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseVerdict() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				if !errors.Is(err, ErrJudgeCall) {
					t.Errorf("error %v does not wrap ErrJudgeCall", err)
				}
				return
			}
			if v.SatisfactionScore != tt.wantScore {
				t.Errorf("SatisfactionScore = %d, want %d", v.SatisfactionScore, tt.wantScore)
			}
		})
	}
}

func TestLLMJudgePromptUsesCompositeHistory(t *testing.T) {
	client := testutil.NewScriptedClient(nil, []string{testutil.VerdictJSON(8, "")})
	j := &LLMJudge{Client: client, Temperature: 0.7}

	acc := NewAccumulator()
	acc.Append(topic.Name, "John")
	acc.Append(topic.Name, "Smith")

	e := NewEvaluator(j, 0, nil)
	v := e.Evaluate(context.Background(), nameTopic(), "Smith", acc)
	if v.SatisfactionScore != 8 {
		t.Fatalf("SatisfactionScore = %d, want 8", v.SatisfactionScore)
	}

	if len(client.Requests) != 1 {
		t.Fatalf("requests = %d, want 1", len(client.Requests))
	}
	req := client.Requests[0]
	if req.System != evaluateSystem {
		t.Errorf("System = %q", req.System)
	}
	if req.Temperature != 0.7 || !req.JSON {
		t.Errorf("Temperature = %v JSON = %v", req.Temperature, req.JSON)
	}
	for _, want := range []string{
		"Expected information: First and last name",
		"Complete response history: John Smith",
		"Latest response: Smith",
		`"follow_up_question"`,
	} {
		if !strings.Contains(req.Prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, req.Prompt)
		}
	}
}

func TestEvaluatorFailOpen(t *testing.T) {
	tests := []struct {
		name  string
		judge Judge
	}{
		{"call failure", &LLMJudge{Client: testutil.FailingClient()}},
		{"malformed reply", &LLMJudge{Client: testutil.NewScriptedClient(nil, []string{"not json"})}},
		{"missing fields", &LLMJudge{Client: testutil.NewScriptedClient(nil, []string{`{"satisfaction_score": 9}`})}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc := NewAccumulator()
			acc.Append(topic.Name, "John")

			v := NewEvaluator(tt.judge, 0, nil).Evaluate(context.Background(), nameTopic(), "John", acc)

			if v.SatisfactionScore != 5 {
				t.Errorf("SatisfactionScore = %d, want 5", v.SatisfactionScore)
			}
			if v.Analysis != "Error occurred during analysis" || v.MissingInfo != "Error in evaluation" {
				t.Errorf("default texts = %q / %q", v.Analysis, v.MissingInfo)
			}
			if v.FollowUpQuestion != "Could you please tell me your full name?" {
				t.Errorf("FollowUpQuestion = %q", v.FollowUpQuestion)
			}
			if !v.Fallback() {
				t.Error("Fallback() = false for a default verdict")
			}
		})
	}
}

func TestEvaluatorTimeoutIsCallFailure(t *testing.T) {
	slow := judge.Func(func(ctx context.Context, req judge.Request) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})

	e := NewEvaluator(&LLMJudge{Client: slow}, 10*time.Millisecond, nil)
	v := e.Evaluate(context.Background(), nameTopic(), "John", NewAccumulator())

	if !v.Fallback() || v.SatisfactionScore != 5 {
		t.Errorf("verdict = %+v, want default after timeout", v)
	}
	if !errors.Is(v.Err, ErrJudgeCall) {
		t.Errorf("Err = %v, want ErrJudgeCall", v.Err)
	}
}

func TestDefaultVerdictUnknownTopic(t *testing.T) {
	v := DefaultVerdict(topic.Topic{}, errors.New("x"))
	if v.FollowUpQuestion != GenericFollowUp {
		t.Errorf("FollowUpQuestion = %q, want %q", v.FollowUpQuestion, GenericFollowUp)
	}
}

func TestNormalizeVerdict(t *testing.T) {
	tests := []struct {
		name         string
		in           Verdict
		wantScore    int
		wantFollowUp string
	}{
		{"zero is not a skip", Verdict{SatisfactionScore: 0, FollowUpQuestion: "More?"}, 1, "More?"},
		{"negative", Verdict{SatisfactionScore: -3, FollowUpQuestion: "More?"}, 1, "More?"},
		{"above scale", Verdict{SatisfactionScore: 12}, 10, ""},
		{"empty follow-up when incomplete", Verdict{SatisfactionScore: 4}, 4, "Could you please tell me your full name?"},
		{"complete keeps empty follow-up", Verdict{SatisfactionScore: 7}, 7, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeVerdict(tt.in, nameTopic())
			if got.SatisfactionScore != tt.wantScore {
				t.Errorf("SatisfactionScore = %d, want %d", got.SatisfactionScore, tt.wantScore)
			}
			if got.FollowUpQuestion != tt.wantFollowUp {
				t.Errorf("FollowUpQuestion = %q, want %q", got.FollowUpQuestion, tt.wantFollowUp)
			}
		})
	}
}

func TestCleanJSONOutput(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"bare", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"plain fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"prose braces", `See {below}: {"a":1} done`, `{"a":1}`},
		{"no object", "hello", "hello"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanJSONOutput(tt.input); got != tt.want {
				t.Errorf("cleanJSONOutput() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildEvaluationPromptOmitsEmptyDescription(t *testing.T) {
	req := EvaluationRequest{
		Topic:     topic.Topic{ID: "role", Expected: "Job title"},
		Latest:    "Engineer",
		Composite: "Engineer",
	}
	got := buildEvaluationPrompt(req)
	if strings.Contains(got, "Field description") {
		t.Errorf("prompt has a description line:\n%s", got)
	}
	if !strings.HasPrefix(got, "You are evaluating a response for the field: role\nExpected information: Job title\n") {
		t.Errorf("prompt header:\n%s", got)
	}
}
