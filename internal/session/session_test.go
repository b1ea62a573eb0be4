package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/berth-dev/intake/internal/config"
	"github.com/berth-dev/intake/internal/interview"
	"github.com/berth-dev/intake/internal/testutil"
	"github.com/berth-dev/intake/internal/topic"
)

// playedSession drives a session through a few turns with scripted scores.
func playedSession(t *testing.T) *interview.Session {
	t.Helper()
	scores := []int{4, 8, 9}
	i := 0
	j := interview.JudgeFunc(func(ctx context.Context, req interview.EvaluationRequest) (interview.Verdict, error) {
		s := scores[i]
		i++
		return interview.Verdict{SatisfactionScore: s, FollowUpQuestion: "Could you spell your full name for me?"}, nil
	})
	c := interview.NewController(topic.Default(), interview.KeywordDetector{}, interview.NewEvaluator(j, 0, nil))
	s := c.NewSession()

	for _, u := range []string{"Jane", "Jane Doe", "Staff engineer at Acme", "none"} {
		if _, err := c.Respond(context.Background(), s, u); err != nil {
			t.Fatalf("Respond(%q): %v", u, err)
		}
	}
	return s
}

func assertSameSession(t *testing.T, got, want *interview.Session, c *topic.Catalog) {
	t.Helper()
	if got == nil {
		t.Fatal("restored session is nil")
	}
	if got.ID != want.ID {
		t.Errorf("ID = %q, want %q", got.ID, want.ID)
	}
	if got.Current != want.Current {
		t.Errorf("Current = %q, want %q", got.Current, want.Current)
	}
	if !reflect.DeepEqual(got.Transcript, want.Transcript) {
		t.Errorf("Transcript = %+v\nwant %+v", got.Transcript, want.Transcript)
	}
	for _, id := range c.IDs() {
		if got.Scores[id] != want.Scores[id] {
			t.Errorf("score(%s) = %d, want %d", id, got.Scores[id], want.Scores[id])
		}
		if !reflect.DeepEqual(got.Answers.All(id), want.Answers.All(id)) {
			t.Errorf("All(%s) = %v, want %v", id, got.Answers.All(id), want.Answers.All(id))
		}
	}
}

func TestStoresRoundTrip(t *testing.T) {
	c := topic.Default()
	dir := t.TempDir()

	sqlite, err := NewSQLiteStore(filepath.Join(dir, "intake.db"), c)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { _ = sqlite.Close() })

	stores := map[string]Store{
		"file":   NewFileStore(filepath.Join(dir, "sessions", "interview.json"), c),
		"sqlite": sqlite,
	}

	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			want := playedSession(t)

			if err := store.Save(ctx, want); err != nil {
				t.Fatalf("Save: %v", err)
			}
			// Saving twice must overwrite, not duplicate.
			if err := store.Save(ctx, want); err != nil {
				t.Fatalf("second Save: %v", err)
			}

			got, err := store.Load(ctx)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			assertSameSession(t, got, want, c)
		})
	}
}

func TestStoresLoadEmpty(t *testing.T) {
	c := topic.Default()
	dir := t.TempDir()

	sqlite, err := NewSQLiteStore(filepath.Join(dir, "intake.db"), c)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { _ = sqlite.Close() })

	for name, store := range map[string]Store{
		"file":   NewFileStore(filepath.Join(dir, "none.json"), c),
		"sqlite": sqlite,
	} {
		t.Run(name, func(t *testing.T) {
			s, err := store.Load(context.Background())
			if err != nil {
				t.Fatalf("Load on empty store: %v", err)
			}
			if s != nil {
				t.Errorf("Load on empty store = %+v, want nil", s)
			}
		})
	}
}

func TestStoresReset(t *testing.T) {
	c := topic.Default()
	dir := t.TempDir()
	ctx := context.Background()

	sqlite, err := NewSQLiteStore(filepath.Join(dir, "intake.db"), c)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { _ = sqlite.Close() })

	for name, store := range map[string]Store{
		"file":   NewFileStore(filepath.Join(dir, "interview.json"), c),
		"sqlite": sqlite,
	} {
		t.Run(name, func(t *testing.T) {
			if err := store.Save(ctx, playedSession(t)); err != nil {
				t.Fatalf("Save: %v", err)
			}
			if err := store.Reset(ctx); err != nil {
				t.Fatalf("Reset: %v", err)
			}
			s, err := store.Load(ctx)
			if err != nil || s != nil {
				t.Errorf("Load after Reset = %v, %v; want nil, nil", s, err)
			}
			if err := store.Reset(ctx); err != nil {
				t.Errorf("second Reset: %v", err)
			}
		})
	}
}

func TestSQLiteKeepsHistory(t *testing.T) {
	c := topic.Default()
	ctx := context.Background()

	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "intake.db"), c)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	first := playedSession(t)
	if err := store.Save(ctx, first); err != nil {
		t.Fatalf("Save first: %v", err)
	}
	second := interview.NewSession(c)
	second.UpdatedAt = first.UpdatedAt.Add(time.Second)
	if err := store.Save(ctx, second); err != nil {
		t.Fatalf("Save second: %v", err)
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.ID != second.ID {
		t.Errorf("Load returned %s, want latest %s", got.ID, second.ID)
	}

	list, err := store.ListSessions(ctx, 10)
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("ListSessions returned %d, want 2", len(list))
	}
	if list[1].ID != first.ID || list[1].Completed != 2 || list[1].Total != c.Len() {
		t.Errorf("older summary = %+v", list[1])
	}
}

func TestFileStoreRecordShape(t *testing.T) {
	c := topic.Default()
	path := filepath.Join(t.TempDir(), "interview.json")
	store := NewFileStore(path, c)

	s := playedSession(t)
	if err := store.Save(context.Background(), s); err != nil {
		t.Fatalf("Save: %v", err)
	}

	rec, err := store.ReadRecord()
	if err != nil {
		t.Fatalf("ReadRecord: %v", err)
	}
	if rec.CurrentTopic != string(topic.TechnicalSkills) {
		t.Errorf("current_topic = %q", rec.CurrentTopic)
	}
	name := rec.InterviewForm[string(topic.Name)]
	if name.Value != "Jane Jane Doe" || name.Satisfaction != 8 {
		t.Errorf("interview_form.name = %+v", name)
	}
	if got := rec.Memory.CurrentResponses[string(topic.Name)]; got != "Jane Jane Doe" {
		t.Errorf("memory.current_responses.name = %q", got)
	}
	if got := rec.Memory.FieldMemory[string(topic.Name)]; !reflect.DeepEqual(got, []string{"Jane", "Jane Doe"}) {
		t.Errorf("memory.field_memory.name = %v", got)
	}
	if _, ok := rec.Memory.FieldMemory[string(topic.YearsOfExperience)]; ok {
		t.Error("skipped topic has answers in field_memory")
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file left behind")
	}
}

func TestLoadLegacyRecord(t *testing.T) {
	dir := testutil.TempProject(t, map[string]string{
		"chat_history/interview.json": testutil.LegacyRecord(),
	})
	c := topic.Default()
	store := NewFileStore(filepath.Join(dir, "chat_history", "interview.json"), c)

	s, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load legacy: %v", err)
	}
	if s.Current != topic.CurrentRole {
		t.Errorf("Current = %q, want current_role", s.Current)
	}
	if s.Scores[topic.Name] != 9 || s.Scores[topic.CurrentRole] != 4 {
		t.Errorf("Scores = %v", s.Scores)
	}
	if s.Answers.Composite(topic.CurrentRole) != "Engineer" {
		t.Errorf("Composite(current_role) = %q", s.Answers.Composite(topic.CurrentRole))
	}
	if s.ID == "" {
		t.Error("legacy session was not given an id")
	}
	if len(s.Transcript) != 5 {
		t.Errorf("Transcript len = %d, want 5", len(s.Transcript))
	}
}

func TestInferCurrent(t *testing.T) {
	c := topic.Default()
	tests := []struct {
		name   string
		scores map[string]int
		last   string // last assistant turn
		want   topic.ID
	}{
		{"fresh", nil, "", topic.Name},
		{"first incomplete", map[string]int{"name": 3}, "", topic.Name},
		{"first complete", map[string]int{"name": 8}, "", topic.CurrentRole},
		{"last complete", map[string]int{"name": 8, "preferred_work_environment": 9}, "", topic.Done},
		{
			"declined after complete",
			map[string]int{"name": 8},
			"I understand. Let's move on to your years of experience. How long have you been working in this field specifically?",
			topic.YearsOfExperience,
		},
		{
			"follow-up on next topic",
			map[string]int{"name": 8},
			"How large is the team you work with?",
			topic.CurrentRole,
		},
		{
			"earlier topic prompt ignored",
			map[string]int{"name": 8, "current_role": 4},
			"Great! Let's move on to your current role. What are your main responsibilities in this role?",
			topic.CurrentRole,
		},
		{"declined last topic", map[string]int{"name": 8}, interview.ClosingMessage, topic.Done},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := Record{InterviewForm: map[string]FormEntry{}}
			if tt.last != "" {
				rec.Messages = []interview.Turn{
					{Role: interview.RoleAssistant, Content: "Could you please tell me your full name?"},
					{Role: interview.RoleUser, Content: "no thanks"},
					{Role: interview.RoleAssistant, Content: tt.last},
				}
			}
			for id, score := range tt.scores {
				rec.InterviewForm[id] = FormEntry{Satisfaction: score}
			}
			s, err := FromRecord(rec, c)
			if err != nil {
				t.Fatalf("FromRecord: %v", err)
			}
			if s.Current != tt.want {
				t.Errorf("Current = %q, want %q", s.Current, tt.want)
			}
		})
	}
}

func TestFromRecordUnknownTopic(t *testing.T) {
	_, err := FromRecord(Record{CurrentTopic: "salary"}, topic.Default())
	if !errors.Is(err, topic.ErrUnknownTopic) {
		t.Errorf("error = %v, want ErrUnknownTopic", err)
	}
}

func TestFromRecordSeedsEmptyTranscript(t *testing.T) {
	s, err := FromRecord(Record{}, topic.Default())
	if err != nil {
		t.Fatalf("FromRecord: %v", err)
	}
	if len(s.Transcript) != 1 || s.Transcript[0].Content != "Could you please tell me your full name?" {
		t.Errorf("Transcript = %+v", s.Transcript)
	}
}

func TestFormValueAcceptsList(t *testing.T) {
	var e FormEntry
	if err := e.Value.UnmarshalJSON([]byte(`["Go", "SQL"]`)); err != nil {
		t.Fatalf("UnmarshalJSON: %v", err)
	}
	if e.Value != "Go, SQL" {
		t.Errorf("Value = %q", e.Value)
	}
	if err := e.Value.UnmarshalJSON([]byte(`42`)); err == nil {
		t.Error("UnmarshalJSON accepted a number")
	}
}

func TestOpenSelectsBackend(t *testing.T) {
	root := t.TempDir()
	c := topic.Default()

	cfg := config.DefaultConfig()
	st, err := Open(cfg, root, c)
	if err != nil {
		t.Fatalf("Open(file): %v", err)
	}
	if _, ok := st.(*FileStore); !ok {
		t.Errorf("Open(file) = %T", st)
	}

	cfg.Store = config.StoreConfig{Backend: config.BackendSQLite, Path: "intake.db"}
	st, err = Open(cfg, root, c)
	if err != nil {
		t.Fatalf("Open(sqlite): %v", err)
	}
	defer st.Close()
	if _, ok := st.(*SQLiteStore); !ok {
		t.Errorf("Open(sqlite) = %T", st)
	}
	if _, err := os.Stat(filepath.Join(root, ".intake", "intake.db")); err != nil {
		t.Errorf("database not created: %v", err)
	}
}
