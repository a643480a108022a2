// Package catalog holds the browseable events, communities and forum
// threads. The catalog lives in memory for the life of the process.
package catalog

import (
	"errors"
	"strings"

	"github.com/kalambet/synk/internal/validation"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrUnknownCommunity = errors.New("unknown community")
)

const PlaceholderImage = "https://placehold.co/600x400.png"

type Event struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Date        string `json:"date" yaml:"date"`
	Time        string `json:"time" yaml:"time"`
	Location    string `json:"location" yaml:"location"`
	ImageURL    string `json:"imageUrl" yaml:"image_url"`
	Organizer   string `json:"organizer" yaml:"organizer"`
	Community   string `json:"community,omitempty" yaml:"community"`
	Attendees   int    `json:"attendees" yaml:"attendees"`
	Capacity    *int   `json:"capacity,omitempty" yaml:"capacity"`
}

func (e Event) GetID() string { return e.ID }

type Community struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	MemberCount int    `json:"memberCount" yaml:"member_count"`
	ImageURL    string `json:"imageUrl" yaml:"image_url"`
}

func (c Community) GetID() string { return c.ID }

type ForumThread struct {
	ID            string `json:"id" yaml:"id"`
	Title         string `json:"title" yaml:"title"`
	Content       string `json:"content,omitempty" yaml:"content"`
	Author        string `json:"author" yaml:"author"`
	LastActivity  string `json:"lastActivity" yaml:"last_activity"`
	Replies       int    `json:"replies" yaml:"replies"`
	CommunityID   string `json:"communityId,omitempty" yaml:"community_id"`
	CommunityName string `json:"communityName,omitempty" yaml:"community_name"`
	RelatedEvent  string `json:"relatedEvent,omitempty" yaml:"related_event"`
}

func (t ForumThread) GetID() string { return t.ID }

type EventForm struct {
	Name        string `json:"name" validate:"min=3"`
	Description string `json:"description" validate:"min=10"`
	Date        string `json:"date" validate:"required"`
	Time        string `json:"time" validate:"required"`
	Location    string `json:"location" validate:"required"`
	ImageURL    string `json:"imageUrl" validate:"omitempty,url"`
	Community   string `json:"community"`
	Capacity    *int   `json:"capacity" validate:"omitempty,gte=1"`
}

func (f EventForm) Validate() error { return validation.Struct(&f) }

type CommunityForm struct {
	Name        string `json:"name" validate:"min=3"`
	Description string `json:"description" validate:"min=10"`
	ImageURL    string `json:"imageUrl" validate:"omitempty,url"`
}

func (f CommunityForm) Validate() error { return validation.Struct(&f) }

type ThreadForm struct {
	Title       string `json:"title" validate:"min=5"`
	Content     string `json:"content" validate:"min=10"`
	CommunityID string `json:"communityId"`
}

func (f ThreadForm) Validate() error { return validation.Struct(&f) }

func imageOrPlaceholder(url string) string {
	if strings.TrimSpace(url) == "" {
		return PlaceholderImage
	}
	return url
}
