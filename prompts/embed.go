// Package prompts holds the judge prompts used during an interview.
package prompts

import _ "embed"

//go:embed interview/evaluate_system.md
var EvaluateSystemPrompt string

//go:embed interview/evaluate.md.tmpl
var EvaluateTemplate string

//go:embed interview/classify_system.md
var ClassifySystemPrompt string

//go:embed interview/classify.md.tmpl
var ClassifyTemplate string
