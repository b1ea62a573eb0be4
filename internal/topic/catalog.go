// Package topic defines the fixed, ordered interview agenda.
//
// A Catalog is built once at startup (either the built-in Default catalog or
// one loaded from YAML) and never mutated afterwards. Catalog order is the
// order of the topics slice; identifiers are only meaningful relative to the
// catalog that produced them.
package topic

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ID identifies one topic within a Catalog.
type ID string

// Done is the terminal sentinel returned by Next after the last topic. It is
// never a valid catalog identifier.
const Done ID = "_done"

// Identifiers of the built-in catalog, in interview order.
const (
	Name                     ID = "name"
	CurrentRole              ID = "current_role"
	YearsOfExperience        ID = "years_of_experience"
	TechnicalSkills          ID = "technical_skills"
	ProjectExperience        ID = "project_experience"
	Motivation               ID = "motivation"
	PreferredWorkEnvironment ID = "preferred_work_environment"
)

// ErrUnknownTopic is returned when an identifier is not part of the catalog.
// It signals a programming error and aborts the current operation.
var ErrUnknownTopic = errors.New("unknown topic")

// Topic is one slot of the interview agenda.
type Topic struct {
	ID          ID       `yaml:"id"`
	Label       string   `yaml:"label"`
	Description string   `yaml:"description"`
	Expected    string   `yaml:"expected"`
	FollowUps   []string `yaml:"follow_ups"`
}

// FirstFollowUp returns the opening prompt for the topic.
func (t Topic) FirstFollowUp() string {
	if len(t.FollowUps) == 0 {
		return ""
	}
	return t.FollowUps[0]
}

// Title returns the label in title case, e.g. "Current Role".
func (t Topic) Title() string {
	return cases.Title(language.English).String(t.Label)
}

// Catalog is an immutable, ordered list of topics.
type Catalog struct {
	topics []Topic
	index  map[ID]int
}

// New validates topics and returns a Catalog preserving their order.
// A missing label defaults to the identifier with underscores replaced by
// spaces.
func New(topics []Topic) (*Catalog, error) {
	if len(topics) == 0 {
		return nil, fmt.Errorf("catalog: no topics")
	}

	c := &Catalog{
		topics: make([]Topic, 0, len(topics)),
		index:  make(map[ID]int, len(topics)),
	}

	for i, t := range topics {
		id := ID(strings.TrimSpace(string(t.ID)))
		if id == "" {
			return nil, fmt.Errorf("catalog: topic %d has no id", i+1)
		}
		if strings.HasPrefix(string(id), "_") {
			return nil, fmt.Errorf("catalog: topic id %q must not start with '_'", id)
		}
		if _, dup := c.index[id]; dup {
			return nil, fmt.Errorf("catalog: duplicate topic id %q", id)
		}
		if len(t.FollowUps) == 0 || strings.TrimSpace(t.FollowUps[0]) == "" {
			return nil, fmt.Errorf("catalog: topic %q needs at least one follow-up prompt", id)
		}

		t.ID = id
		if strings.TrimSpace(t.Label) == "" {
			t.Label = strings.ReplaceAll(string(id), "_", " ")
		}
		t.FollowUps = append([]string(nil), t.FollowUps...)

		c.index[id] = len(c.topics)
		c.topics = append(c.topics, t)
	}

	return c, nil
}

// MustNew is like New but panics on an invalid catalog. Intended for
// package-level catalogs and tests.
func MustNew(topics []Topic) *Catalog {
	c, err := New(topics)
	if err != nil {
		panic(err)
	}
	return c
}

// Topics returns the topics in catalog order.
func (c *Catalog) Topics() []Topic {
	out := make([]Topic, len(c.topics))
	copy(out, c.topics)
	return out
}

// IDs returns the identifiers in catalog order.
func (c *Catalog) IDs() []ID {
	ids := make([]ID, len(c.topics))
	for i, t := range c.topics {
		ids[i] = t.ID
	}
	return ids
}

// Len returns the number of topics.
func (c *Catalog) Len() int {
	return len(c.topics)
}

// First returns the identifier of the first topic.
func (c *Catalog) First() ID {
	return c.topics[0].ID
}

// Contains reports whether id belongs to the catalog.
func (c *Catalog) Contains(id ID) bool {
	_, ok := c.index[id]
	return ok
}

// Index returns the zero-based catalog position of id.
func (c *Catalog) Index(id ID) (int, error) {
	i, ok := c.index[id]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownTopic, id)
	}
	return i, nil
}

// Get returns the topic for id.
func (c *Catalog) Get(id ID) (Topic, error) {
	i, err := c.Index(id)
	if err != nil {
		return Topic{}, err
	}
	return c.topics[i], nil
}

// Next returns the identifier following id, or Done if id is the last topic.
func (c *Catalog) Next(id ID) (ID, error) {
	i, err := c.Index(id)
	if err != nil {
		return "", err
	}
	if i+1 >= len(c.topics) {
		return Done, nil
	}
	return c.topics[i+1].ID, nil
}
