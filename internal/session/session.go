// Package session keeps the per-user state the browser used to hold in
// local storage: login flag, cached name and email, profile and last tab.
package session

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kalambet/synk/internal/profile"
)

const (
	KeyLoggedIn  = "isLoggedIn"
	KeyProfile   = profile.StorageKey
	KeyActiveTab = "lastActiveTab"
	KeyUserName  = "userName"
	KeyUserEmail = "userEmail"
)

// Tab is one of the home page tabs.
type Tab string

const (
	TabDiscover    Tab = "discover"
	TabEvents      Tab = "events"
	TabCommunities Tab = "communities"
)

// ParseTab reports whether s names a known tab.
func ParseTab(s string) (Tab, bool) {
	switch t := Tab(s); t {
	case TabDiscover, TabEvents, TabCommunities:
		return t, true
	default:
		return TabDiscover, false
	}
}

// Store is the key/value persistence behind sessions.
// Implemented by storage.Store.
type Store interface {
	SetSessionKey(userID, key, value string) error
	GetSessionKeys(userID string) (map[string]string, error)
	DeleteSessionKeys(userID string, keys ...string) error
}

// Session is the decoded state for one user.
type Session struct {
	UserID     string              `json:"userId"`
	LoggedIn   bool                `json:"isLoggedIn"`
	UserName   string              `json:"userName,omitempty"`
	UserEmail  string              `json:"userEmail,omitempty"`
	Profile    profile.UserProfile `json:"userProfile"`
	HasProfile bool                `json:"hasProfile"`
	ActiveTab  Tab                 `json:"lastActiveTab"`
}

// Manager loads and saves sessions.
type Manager struct {
	store    Store
	profiles *profile.Manager
}

func NewManager(store Store, profiles *profile.Manager) *Manager {
	return &Manager{store: store, profiles: profiles}
}

// Load reads every key for userID. Malformed values never fail the load:
// a bad profile becomes the default profile and an unknown tab becomes
// discover.
func (m *Manager) Load(ctx context.Context, userID string) (*Session, error) {
	keys, err := m.store.GetSessionKeys(userID)
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}

	s := &Session{
		UserID:    userID,
		LoggedIn:  keys[KeyLoggedIn] == "true",
		UserName:  keys[KeyUserName],
		UserEmail: keys[KeyUserEmail],
		ActiveTab: TabDiscover,
	}
	if raw, ok := keys[KeyActiveTab]; ok {
		tab, valid := ParseTab(raw)
		if !valid {
			slog.Warn("unknown stored tab, using discover", "user", userID, "tab", raw)
		}
		s.ActiveTab = tab
	}

	p, stored, err := m.profiles.Get(userID)
	if err != nil {
		return nil, err
	}
	s.Profile, s.HasProfile = p, stored
	return s, nil
}

// Save writes the login flag, name, email and tab. The profile is saved
// through profile.Manager.
func (m *Manager) Save(ctx context.Context, s *Session) error {
	loggedIn := "false"
	if s.LoggedIn {
		loggedIn = "true"
	}
	values := []struct{ key, val string }{
		{KeyLoggedIn, loggedIn},
		{KeyUserName, s.UserName},
		{KeyUserEmail, s.UserEmail},
		{KeyActiveTab, string(s.ActiveTab)},
	}
	for _, v := range values {
		if err := m.store.SetSessionKey(s.UserID, v.key, v.val); err != nil {
			return fmt.Errorf("saving %s: %w", v.key, err)
		}
	}
	return nil
}

// SetTab stores the last active tab. Unknown tabs are rejected.
func (m *Manager) SetTab(ctx context.Context, userID, tab string) (Tab, error) {
	t, ok := ParseTab(tab)
	if !ok {
		return "", fmt.Errorf("unknown tab %q", tab)
	}
	if err := m.store.SetSessionKey(userID, KeyActiveTab, string(t)); err != nil {
		return "", fmt.Errorf("saving tab: %w", err)
	}
	return t, nil
}

// IsLoggedIn reports whether userID has an active login.
func (m *Manager) IsLoggedIn(ctx context.Context, userID string) (bool, error) {
	keys, err := m.store.GetSessionKeys(userID)
	if err != nil {
		return false, fmt.Errorf("loading session: %w", err)
	}
	return keys[KeyLoggedIn] == "true", nil
}

// Clear removes every key for userID, including the profile.
func (m *Manager) Clear(ctx context.Context, userID string) error {
	if err := m.store.DeleteSessionKeys(userID); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	m.profiles.Invalidate(userID)
	return nil
}
