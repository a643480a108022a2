package profile

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kalambet/synk/internal/validation"
)

// PlaceholderAvatar is used when a profile is saved without an avatar URL.
const PlaceholderAvatar = "https://placehold.co/200x200.png"

// UserProfile is the public profile shown in the header and used to prefill
// the recommendation form.
type UserProfile struct {
	ID           string   `json:"id" validate:"required"`
	Name         string   `json:"name" validate:"required"`
	AvatarURL    string   `json:"avatarUrl" validate:"omitempty,url"`
	Organization string   `json:"organization"`
	Bio          string   `json:"bio"`
	Interests    []string `json:"interests"`
	IsVerified   bool     `json:"isVerified"`
}

// Default returns the built-in fallback profile. Each call returns a fresh copy.
func Default() UserProfile {
	return UserProfile{
		ID:           "user123",
		Name:         "Alex Johnson",
		AvatarURL:    PlaceholderAvatar,
		Organization: "State University | Tech Corp",
		Bio:          "Passionate about technology, community building, and lifelong learning. Always up for a good discussion or a collaborative project.",
		Interests:    []string{"Coding", "AI Ethics", "Hiking", "Photography", "Startups"},
		IsVerified:   true,
	}
}

// Decode parses a stored profile and checks it against the profile schema.
func Decode(raw string) (UserProfile, error) {
	var p UserProfile
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return UserProfile{}, fmt.Errorf("parsing profile: %w", err)
	}
	if err := validation.Struct(&p); err != nil {
		return UserProfile{}, fmt.Errorf("invalid profile: %w", err)
	}
	if p.Interests == nil {
		p.Interests = []string{}
	}
	return p, nil
}

// Encode serializes p for storage.
func (p UserProfile) Encode() (string, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// InterestsText joins interests the way the recommendation form expects them.
func (p UserProfile) InterestsText() string {
	return strings.Join(p.Interests, ", ")
}

// Form is the create/edit profile form.
type Form struct {
	Name         string `json:"name" validate:"min=2"`
	AvatarURL    string `json:"avatarUrl" validate:"omitempty,url"`
	Organization string `json:"organization" validate:"omitempty,min=2"`
	Bio          string `json:"bio" validate:"min=10,max=200"`
	Interests    string `json:"interests" validate:"min=3"`
}

func (f Form) Validate() error {
	return validation.Struct(&f)
}

// Build turns a validated form into a profile owned by email. Interests are
// split on commas with blanks dropped.
func (f Form) Build(email string) UserProfile {
	avatar := f.AvatarURL
	if avatar == "" {
		avatar = PlaceholderAvatar
	}
	interests := []string{}
	for _, s := range strings.Split(f.Interests, ",") {
		if s = strings.TrimSpace(s); s != "" {
			interests = append(interests, s)
		}
	}
	return UserProfile{
		ID:           email,
		Name:         f.Name,
		AvatarURL:    avatar,
		Organization: f.Organization,
		Bio:          f.Bio,
		Interests:    interests,
		IsVerified:   false,
	}
}

// CommunityHint suggests a community from the email domain. Only two
// hardcoded domains are recognized; this is a placeholder until communities
// carry their own domain rules.
func CommunityHint(email string) string {
	_, domain, ok := strings.Cut(email, "@")
	if !ok {
		return ""
	}
	switch strings.ToLower(domain) {
	case "google.com":
		return "Google Community"
	case "example.com":
		return "Example Org Community"
	default:
		return ""
	}
}
