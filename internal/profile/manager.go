package profile

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// StorageKey is the per-user session key holding the serialized profile.
const StorageKey = "userProfile"

// ProfileStore defines the storage operations the Manager needs.
// Implemented by storage.Store.
type ProfileStore interface {
	SetSessionKey(userID, key, value string) error
	GetSessionKeys(userID string) (map[string]string, error)
	DeleteSessionKeys(userID string, keys ...string) error
}

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

type cacheEntry struct {
	profile  UserProfile
	stored   bool
	cachedAt time.Time
}

// Manager provides cached access to each user's stored profile.
type Manager struct {
	store ProfileStore
	clock Clock
	ttl   time.Duration

	mu    sync.RWMutex
	cache map[string]cacheEntry
}

// NewManager creates a Manager with a 60-second cache TTL.
func NewManager(store ProfileStore) *Manager {
	return NewManagerWithClock(store, realClock{}, 60*time.Second)
}

// NewManagerWithClock creates a Manager with a custom clock (for testing).
func NewManagerWithClock(store ProfileStore, clock Clock, ttl time.Duration) *Manager {
	return &Manager{
		store: store,
		clock: clock,
		ttl:   ttl,
		cache: make(map[string]cacheEntry),
	}
}

// Get returns the user's profile. A missing or malformed stored profile
// yields Default(); stored reports whether a valid profile was found, so
// callers can prompt for profile creation.
func (m *Manager) Get(userID string) (p UserProfile, stored bool, err error) {
	m.mu.RLock()
	e, ok := m.cache[userID]
	if ok && m.clock.Now().Before(e.cachedAt.Add(m.ttl)) {
		m.mu.RUnlock()
		return copyProfile(e.profile), e.stored, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.cache[userID]; ok && m.clock.Now().Before(e.cachedAt.Add(m.ttl)) {
		return copyProfile(e.profile), e.stored, nil
	}

	keys, err := m.store.GetSessionKeys(userID)
	if err != nil {
		return UserProfile{}, false, fmt.Errorf("loading profile: %w", err)
	}

	e = cacheEntry{profile: Default(), cachedAt: m.clock.Now()}
	if raw, ok := keys[StorageKey]; ok {
		if decoded, err := Decode(raw); err != nil {
			slog.Warn("malformed stored profile, using default", "user", userID, "error", err)
		} else {
			e.profile, e.stored = decoded, true
		}
	}
	m.cache[userID] = e
	return copyProfile(e.profile), e.stored, nil
}

// SaveResult is returned by Save.
type SaveResult struct {
	Profile       UserProfile `json:"profile"`
	CommunityHint string      `json:"communityHint,omitempty"`
}

// Save validates f, builds the profile and stores it for userID.
func (m *Manager) Save(userID, email string, f Form) (SaveResult, error) {
	if err := f.Validate(); err != nil {
		return SaveResult{}, err
	}
	p := f.Build(email)
	raw, err := p.Encode()
	if err != nil {
		return SaveResult{}, fmt.Errorf("encoding profile: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.SetSessionKey(userID, StorageKey, raw); err != nil {
		return SaveResult{}, fmt.Errorf("saving profile: %w", err)
	}
	delete(m.cache, userID)

	return SaveResult{Profile: p, CommunityHint: CommunityHint(email)}, nil
}

// Remove deletes the stored profile, e.g. on signup so a new account is
// asked to create one.
func (m *Manager) Remove(userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.cache, userID)
	if err := m.store.DeleteSessionKeys(userID, StorageKey); err != nil {
		return fmt.Errorf("removing profile: %w", err)
	}
	return nil
}

// Invalidate drops the cached profile for userID.
func (m *Manager) Invalidate(userID string) {
	m.mu.Lock()
	delete(m.cache, userID)
	m.mu.Unlock()
}

func copyProfile(p UserProfile) UserProfile {
	cp := p
	if p.Interests != nil {
		cp.Interests = make([]string, len(p.Interests))
		copy(cp.Interests, p.Interests)
	}
	return cp
}
