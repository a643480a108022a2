package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kalambet/synk/internal/metrics"
)

//go:embed fixtures.yaml
var defaultFixtures []byte

type fixtures struct {
	Communities []Community   `yaml:"communities"`
	Events      []Event       `yaml:"events"`
	Threads     []ForumThread `yaml:"threads"`
}

// Catalog groups the three collections.
type Catalog struct {
	Events      Repository[Event]
	Communities Repository[Community]
	Threads     Repository[ForumThread]
}

// New returns a catalog seeded with the built-in fixtures.
func New() *Catalog {
	c, err := Load(defaultFixtures)
	if err != nil {
		panic(fmt.Sprintf("catalog: embedded fixtures: %v", err))
	}
	return c
}

// Load returns a catalog seeded from YAML fixture data.
func Load(data []byte) (*Catalog, error) {
	var f fixtures
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing fixtures: %w", err)
	}
	return &Catalog{
		Events:      NewMemoryStore(f.Events),
		Communities: NewMemoryStore(f.Communities),
		Threads:     NewMemoryStore(f.Threads),
	}, nil
}

// CreateEvent adds an event organized by organizer.
func (c *Catalog) CreateEvent(f EventForm, organizer string) (Event, error) {
	if err := f.Validate(); err != nil {
		return Event{}, err
	}
	ev := c.Events.Create(func(id string) Event {
		return Event{
			ID:          id,
			Name:        f.Name,
			Description: f.Description,
			Date:        f.Date,
			Time:        f.Time,
			Location:    f.Location,
			ImageURL:    imageOrPlaceholder(f.ImageURL),
			Organizer:   organizer,
			Community:   f.Community,
			Capacity:    f.Capacity,
		}
	})
	metrics.RecordCatalogCreate("event")
	return ev, nil
}

// CreateCommunity adds a community. Its creator is the first member.
func (c *Catalog) CreateCommunity(f CommunityForm) (Community, error) {
	if err := f.Validate(); err != nil {
		return Community{}, err
	}
	comm := c.Communities.Create(func(id string) Community {
		return Community{
			ID:          id,
			Name:        f.Name,
			Description: f.Description,
			MemberCount: 1,
			ImageURL:    imageOrPlaceholder(f.ImageURL),
		}
	})
	metrics.RecordCatalogCreate("community")
	return comm, nil
}

// CreateThread starts a discussion. A non-empty CommunityID must name an
// existing community.
func (c *Catalog) CreateThread(f ThreadForm, author string) (ForumThread, error) {
	if err := f.Validate(); err != nil {
		return ForumThread{}, err
	}
	var communityName string
	if f.CommunityID != "" {
		comm, err := c.Communities.Get(f.CommunityID)
		if errors.Is(err, ErrNotFound) {
			return ForumThread{}, fmt.Errorf("%w: %s", ErrUnknownCommunity, f.CommunityID)
		}
		communityName = comm.Name
	}
	th := c.Threads.Create(func(id string) ForumThread {
		return ForumThread{
			ID:            id,
			Title:         f.Title,
			Content:       f.Content,
			Author:        author,
			LastActivity:  "just now",
			CommunityID:   f.CommunityID,
			CommunityName: communityName,
		}
	})
	metrics.RecordCatalogCreate("thread")
	return th, nil
}

// Results is the outcome of a search across all collections.
type Results struct {
	Query       string        `json:"query"`
	Events      []Event       `json:"events"`
	Threads     []ForumThread `json:"threads"`
	Communities []Community   `json:"communities"`
}

// Search does a case-insensitive substring match. A blank query matches
// nothing.
func (c *Catalog) Search(query string) Results {
	res := Results{Query: query, Events: []Event{}, Threads: []ForumThread{}, Communities: []Community{}}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return res
	}
	match := func(fields ...string) bool {
		for _, f := range fields {
			if f != "" && strings.Contains(strings.ToLower(f), q) {
				return true
			}
		}
		return false
	}

	for _, e := range c.Events.List() {
		if match(e.Name, e.Description, e.Community, e.Organizer, e.Location) {
			res.Events = append(res.Events, e)
		}
	}
	for _, t := range c.Threads.List() {
		if match(t.Title, t.Author, t.CommunityName) {
			res.Threads = append(res.Threads, t)
		}
	}
	for _, cm := range c.Communities.List() {
		if match(cm.Name, cm.Description) {
			res.Communities = append(res.Communities, cm)
		}
	}
	return res
}

// CommunityDetail is a community with its discussions.
type CommunityDetail struct {
	Community Community     `json:"community"`
	Threads   []ForumThread `json:"threads"`
}

func (c *Catalog) CommunityDetail(id string) (CommunityDetail, error) {
	comm, err := c.Communities.Get(id)
	if err != nil {
		return CommunityDetail{}, err
	}
	threads := []ForumThread{}
	for _, t := range c.Threads.List() {
		if t.CommunityID == id {
			threads = append(threads, t)
		}
	}
	return CommunityDetail{Community: comm, Threads: threads}, nil
}
