package topic

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

func twoTopics() []Topic {
	return []Topic{
		{ID: "name", FollowUps: []string{"What is your name?"}},
		{ID: "role", Label: "role", FollowUps: []string{"What is your role?", "Which team?"}},
	}
}

func TestCatalogOrder(t *testing.T) {
	c := MustNew(twoTopics())

	if got := c.First(); got != "name" {
		t.Errorf("First() = %q, want %q", got, "name")
	}

	next, err := c.Next("name")
	if err != nil {
		t.Fatalf("Next(name) error: %v", err)
	}
	if next != "role" {
		t.Errorf("Next(name) = %q, want %q", next, "role")
	}

	last, err := c.Next("role")
	if err != nil {
		t.Fatalf("Next(role) error: %v", err)
	}
	if last != Done {
		t.Errorf("Next(role) = %q, want Done", last)
	}
}

func TestCatalogUnknownTopic(t *testing.T) {
	c := MustNew(twoTopics())

	if _, err := c.Next("salary"); !errors.Is(err, ErrUnknownTopic) {
		t.Errorf("Next(salary) error = %v, want ErrUnknownTopic", err)
	}
	if _, err := c.Get("salary"); !errors.Is(err, ErrUnknownTopic) {
		t.Errorf("Get(salary) error = %v, want ErrUnknownTopic", err)
	}
	if _, err := c.Next(Done); !errors.Is(err, ErrUnknownTopic) {
		t.Errorf("Next(Done) error = %v, want ErrUnknownTopic", err)
	}
}

func TestCatalogDefaultsLabel(t *testing.T) {
	c := MustNew([]Topic{{ID: "current_role", FollowUps: []string{"What do you do?"}}})

	tp, err := c.Get("current_role")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if tp.Label != "current role" {
		t.Errorf("Label = %q, want %q", tp.Label, "current role")
	}
	if tp.Title() != "Current Role" {
		t.Errorf("Title() = %q, want %q", tp.Title(), "Current Role")
	}
}

func TestNewRejectsInvalidCatalogs(t *testing.T) {
	tests := []struct {
		name   string
		topics []Topic
	}{
		{"empty", nil},
		{"missing id", []Topic{{FollowUps: []string{"q"}}}},
		{"reserved prefix", []Topic{{ID: "_done", FollowUps: []string{"q"}}}},
		{"duplicate", []Topic{{ID: "a", FollowUps: []string{"q"}}, {ID: "a", FollowUps: []string{"q"}}}},
		{"no follow-ups", []Topic{{ID: "a"}}},
		{"blank follow-up", []Topic{{ID: "a", FollowUps: []string{"  "}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.topics); err == nil {
				t.Error("New() returned nil error, want failure")
			}
		})
	}
}

func TestTopicsReturnsCopy(t *testing.T) {
	c := MustNew(twoTopics())
	topics := c.Topics()
	topics[0].Label = "changed"

	tp, _ := c.Get("name")
	if tp.Label == "changed" {
		t.Error("mutating Topics() result changed the catalog")
	}
}

func TestDefaultCatalog(t *testing.T) {
	c := Default()

	want := []ID{Name, CurrentRole, YearsOfExperience, TechnicalSkills, ProjectExperience, Motivation, PreferredWorkEnvironment}
	got := c.IDs()
	if len(got) != len(want) {
		t.Fatalf("IDs() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("IDs()[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	name, _ := c.Get(Name)
	if name.FirstFollowUp() != "Could you please tell me your full name?" {
		t.Errorf("name FirstFollowUp() = %q", name.FirstFollowUp())
	}
}

func TestCatalogYAMLRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "topics.yaml")

	if err := Write(path, Default()); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Len() != Default().Len() {
		t.Errorf("Len() = %d, want %d", loaded.Len(), Default().Len())
	}

	role, err := loaded.Get(CurrentRole)
	if err != nil {
		t.Fatalf("Get(current_role) error: %v", err)
	}
	if len(role.FollowUps) != 3 {
		t.Errorf("FollowUps = %v, want 3 entries", role.FollowUps)
	}
}

func TestDecodeRejectsUnknownFields(t *testing.T) {
	input := `topics:
  - id: name
    follow_ups: ["What is your name?"]
    folow_ups: ["typo"]
`
	if _, err := Decode(strings.NewReader(input)); err == nil {
		t.Error("Decode accepted an unknown field")
	}
}
