package interview

import (
	"strings"

	"github.com/berth-dev/intake/internal/topic"
)

// Accumulator is the per-topic log of raw utterances. It is the only store
// of answer text; composite answers are always derived from it.
type Accumulator struct {
	responses map[topic.ID][]string
}

// NewAccumulator returns an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{responses: make(map[topic.ID][]string)}
}

// RestoreAccumulator rebuilds an accumulator from persisted utterance lists.
// The input is copied.
func RestoreAccumulator(responses map[topic.ID][]string) *Accumulator {
	a := NewAccumulator()
	for id, list := range responses {
		if len(list) == 0 {
			continue
		}
		a.responses[id] = append([]string(nil), list...)
	}
	return a
}

// Append records utterance as the newest answer for id.
func (a *Accumulator) Append(id topic.ID, utterance string) {
	a.responses[id] = append(a.responses[id], utterance)
}

// Composite returns the space-joined utterances for id in arrival order, or
// "" when there are none.
func (a *Accumulator) Composite(id topic.ID) string {
	return strings.Join(a.responses[id], " ")
}

// All returns a copy of the utterances for id in arrival order.
func (a *Accumulator) All(id topic.ID) []string {
	return append([]string(nil), a.responses[id]...)
}

// Latest returns the most recent utterance for id, or "".
func (a *Accumulator) Latest(id topic.ID) string {
	list := a.responses[id]
	if len(list) == 0 {
		return ""
	}
	return list[len(list)-1]
}

// Len returns the number of utterances recorded for id.
func (a *Accumulator) Len(id topic.ID) int {
	return len(a.responses[id])
}

// Snapshot returns a deep copy of every non-empty utterance list.
func (a *Accumulator) Snapshot() map[topic.ID][]string {
	out := make(map[topic.ID][]string, len(a.responses))
	for id, list := range a.responses {
		if len(list) == 0 {
			continue
		}
		out[id] = append([]string(nil), list...)
	}
	return out
}
