package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/berth-dev/intake/internal/interview"
	"github.com/berth-dev/intake/internal/topic"
)

// Export is the interview-state document written by `intake export`.
type Export struct {
	InterviewTimestamp string                 `json:"interview_timestamp"`
	InterviewData      map[string]ExportEntry `json:"interview_data"`
}

// ExportEntry is one topic in the export.
type ExportEntry struct {
	Value             string `json:"value"`
	SatisfactionScore int    `json:"satisfaction_score"`
	Status            string `json:"status"` // skipped | incomplete | complete
}

// BuildExport captures s as of now.
func BuildExport(s *interview.Session, c *topic.Catalog, now time.Time) Export {
	e := Export{
		InterviewTimestamp: now.Format("2006-01-02T15:04:05.000000"),
		InterviewData:      make(map[string]ExportEntry, c.Len()),
	}
	for _, st := range s.Statuses(c) {
		e.InterviewData[string(st.Topic.ID)] = ExportEntry{
			Value:             st.Value,
			SatisfactionScore: st.Satisfaction,
			Status:            st.State().String(),
		}
	}
	return e
}

// DefaultExportName returns interview_state_YYYYMMDD_HHMMSS.json for now.
func DefaultExportName(now time.Time) string {
	return fmt.Sprintf("interview_state_%s.json", now.Format("20060102_150405"))
}

// WriteExport writes e as indented JSON to path. Non-ASCII text is written
// as-is.
func WriteExport(path string, e Export) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(e); err != nil {
		return fmt.Errorf("marshaling export: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating export directory: %w", err)
		}
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("writing export: %w", err)
	}
	return nil
}
