package interview

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/berth-dev/intake/internal/judge"
	"github.com/berth-dev/intake/internal/observe"
	"github.com/berth-dev/intake/prompts"
)

// Detector decides whether an utterance is a clear refusal or a statement
// of no experience.
type Detector interface {
	IsNegative(ctx context.Context, utterance string) bool
}

// NegativeIndicators are the substrings KeywordDetector looks for.
//
// Matching is by substring, so "no" also fires inside words such as "not"
// or "know". Kept as-is; changing it alters which answers skip a topic.
var NegativeIndicators = []string{
	"no", "none", "nothing", "don't have", "do not have",
	"nothing comes to mind", "haven't done any", "i don't",
	"no experience", "no projects",
}

// KeywordDetector classifies by substring match against a fixed list.
type KeywordDetector struct {
	Indicators []string // nil means NegativeIndicators
}

// IsNegative implements Detector.
func (k KeywordDetector) IsNegative(_ context.Context, utterance string) bool {
	indicators := k.Indicators
	if indicators == nil {
		indicators = NegativeIndicators
	}
	lower := normalize(utterance)
	for _, ind := range indicators {
		if strings.Contains(lower, ind) {
			return true
		}
	}
	return false
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

var classifySystem = strings.TrimSpace(prompts.ClassifySystemPrompt)

var classifyTmpl = template.Must(template.New("classify").Parse(prompts.ClassifyTemplate))

// JudgeDetector asks the judge whether an utterance is negative. Unparseable
// replies and failed calls fall back to the keyword strategy. Successful
// classifications are memoized by normalized utterance.
type JudgeDetector struct {
	client      judge.Client
	fallback    KeywordDetector
	cache       *lru.Cache[string, bool]
	temperature float64
	timeout     time.Duration
	metrics     *observe.Metrics
	onFailure   func(error)
}

// JudgeDetectorConfig tunes a JudgeDetector. Zero values pick defaults.
type JudgeDetectorConfig struct {
	Temperature float64       // default 0.1
	CacheSize   int           // default 256; negative disables the memo
	Timeout     time.Duration // zero means no deadline beyond ctx
	Metrics     *observe.Metrics
	OnFailure   func(error) // called when the keyword fallback is used
}

// NewJudgeDetector returns a judge-backed detector.
func NewJudgeDetector(client judge.Client, cfg JudgeDetectorConfig) (*JudgeDetector, error) {
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.1
	}
	if cfg.CacheSize == 0 {
		cfg.CacheSize = 256
	}

	d := &JudgeDetector{
		client:      client,
		temperature: cfg.Temperature,
		timeout:     cfg.Timeout,
		metrics:     cfg.Metrics,
		onFailure:   cfg.OnFailure,
	}
	if cfg.CacheSize > 0 {
		cache, err := lru.New[string, bool](cfg.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("creating classification cache: %w", err)
		}
		d.cache = cache
	}
	return d, nil
}

// IsNegative implements Detector.
func (d *JudgeDetector) IsNegative(ctx context.Context, utterance string) bool {
	key := normalize(utterance)
	if d.cache != nil {
		if v, ok := d.cache.Get(key); ok {
			return v
		}
	}

	negative, err := d.classify(ctx, utterance)
	if err != nil {
		if d.onFailure != nil {
			d.onFailure(err)
		}
		return d.fallback.IsNegative(ctx, utterance)
	}

	if d.cache != nil {
		d.cache.Add(key, negative)
	}
	return negative
}

func (d *JudgeDetector) classify(ctx context.Context, utterance string) (bool, error) {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	ctx, span := observe.StartSpan(ctx, "interview.classify")
	defer span.End()

	start := time.Now()
	out, err := d.client.Complete(ctx, judge.Request{
		System:      classifySystem,
		Prompt:      buildClassifyPrompt(utterance),
		Temperature: d.temperature,
	})
	d.metrics.RecordJudgeCall(ctx, observe.PurposeClassify, time.Since(start), err)
	if err != nil {
		span.RecordError(err)
		return false, fmt.Errorf("%w: classify: %v", ErrJudgeCall, err)
	}

	switch strings.ToLower(strings.TrimSpace(out)) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, fmt.Errorf("%w: classify: unexpected reply %q", ErrJudgeCall, out)
	}
}

func buildClassifyPrompt(utterance string) string {
	var buf bytes.Buffer
	if err := classifyTmpl.Execute(&buf, struct{ Utterance string }{utterance}); err != nil {
		return fmt.Sprintf("ERROR: failed to execute classify template: %v", err)
	}
	return buf.String()
}
