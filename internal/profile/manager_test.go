package profile

import (
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/kalambet/synk/internal/validation"
)

// --- Mock store ---

type mockStore struct {
	mu   sync.Mutex
	data map[string]map[string]string

	getCalls int
}

func newMockStore() *mockStore {
	return &mockStore{data: make(map[string]map[string]string)}
}

func (m *mockStore) SetSessionKey(userID, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data[userID] == nil {
		m.data[userID] = make(map[string]string)
	}
	m.data[userID][key] = value
	return nil
}

func (m *mockStore) GetSessionKeys(userID string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalls++
	cp := make(map[string]string)
	for k, v := range m.data[userID] {
		cp[k] = v
	}
	return cp, nil
}

func (m *mockStore) DeleteSessionKeys(userID string, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data[userID], k)
	}
	return nil
}

// --- Mock clock ---

type mockClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *mockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *mockClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var validForm = Form{
	Name:         "Jane Doe",
	Organization: "Acme",
	Bio:          "I build things and hike on weekends.",
	Interests:    "hiking, , coding ,photography",
}

// --- Tests ---

func TestGet_MissingUsesDefault(t *testing.T) {
	mgr := NewManager(newMockStore())

	p, stored, err := mgr.Get("u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored {
		t.Error("stored = true for empty store")
	}
	if !reflect.DeepEqual(p, Default()) {
		t.Errorf("Get = %+v, want default profile", p)
	}
}

func TestGet_MalformedUsesDefault(t *testing.T) {
	for _, raw := range []string{
		`{not json`,
		`{"id":"","name":"X"}`,
		`{"id":"a","name":"X","avatarUrl":"not a url"}`,
		`[]`,
	} {
		store := newMockStore()
		store.SetSessionKey("u1", StorageKey, raw)
		mgr := NewManager(store)

		p, stored, err := mgr.Get("u1")
		if err != nil {
			t.Fatalf("Get(%q) error: %v", raw, err)
		}
		if stored {
			t.Errorf("Get(%q) stored = true", raw)
		}
		if p.Name != "Alex Johnson" {
			t.Errorf("Get(%q) name = %q, want default", raw, p.Name)
		}
	}
}

func TestSaveAndGet(t *testing.T) {
	mgr := NewManager(newMockStore())

	res, err := mgr.Save("u1", "jane@example.com", validForm)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if res.CommunityHint != "Example Org Community" {
		t.Errorf("CommunityHint = %q", res.CommunityHint)
	}

	p, stored, err := mgr.Get("u1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !stored {
		t.Error("stored = false after Save")
	}
	want := UserProfile{
		ID:           "jane@example.com",
		Name:         "Jane Doe",
		AvatarURL:    PlaceholderAvatar,
		Organization: "Acme",
		Bio:          "I build things and hike on weekends.",
		Interests:    []string{"hiking", "coding", "photography"},
		IsVerified:   false,
	}
	if !reflect.DeepEqual(p, want) {
		t.Errorf("Get = %+v, want %+v", p, want)
	}
}

func TestSave_Invalid(t *testing.T) {
	store := newMockStore()
	mgr := NewManager(store)

	f := validForm
	f.Bio = "short"
	_, err := mgr.Save("u1", "a@b.c", f)

	var verrs *validation.Errors
	if !errors.As(err, &verrs) {
		t.Fatalf("Save error = %v, want *validation.Errors", err)
	}
	if verrs.Fields[0].Field != "bio" {
		t.Errorf("failing field = %q, want bio", verrs.Fields[0].Field)
	}
	if len(store.data["u1"]) != 0 {
		t.Error("invalid form was persisted")
	}
}

func TestFormValidate(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*Form)
		field string
	}{
		{"short name", func(f *Form) { f.Name = "J" }, "name"},
		{"bad avatar", func(f *Form) { f.AvatarURL = "nope" }, "avatarUrl"},
		{"short org", func(f *Form) { f.Organization = "A" }, "organization"},
		{"long bio", func(f *Form) { f.Bio = string(make([]byte, 201)) }, "bio"},
		{"no interests", func(f *Form) { f.Interests = "ab" }, "interests"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validForm
			tt.edit(&f)
			var verrs *validation.Errors
			if !errors.As(f.Validate(), &verrs) || verrs.Fields[0].Field != tt.field {
				t.Errorf("Validate() = %v, want failure on %s", f.Validate(), tt.field)
			}
		})
	}

	if err := validForm.Validate(); err != nil {
		t.Errorf("valid form: %v", err)
	}
}

func TestCacheTTL(t *testing.T) {
	store := newMockStore()
	clock := &mockClock{now: time.Now()}
	mgr := NewManagerWithClock(store, clock, 10*time.Second)

	mgr.Get("u1")
	mgr.Get("u1")
	if store.getCalls != 1 {
		t.Errorf("store reads = %d, want 1 within TTL", store.getCalls)
	}

	clock.Advance(11 * time.Second)
	mgr.Get("u1")
	if store.getCalls != 2 {
		t.Errorf("store reads = %d, want 2 after TTL", store.getCalls)
	}
}

func TestSaveInvalidatesCache(t *testing.T) {
	store := newMockStore()
	clock := &mockClock{now: time.Now()}
	mgr := NewManagerWithClock(store, clock, time.Hour)

	if _, stored, _ := mgr.Get("u1"); stored {
		t.Fatal("unexpected stored profile")
	}
	if _, err := mgr.Save("u1", "j@x.io", validForm); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, stored, _ := mgr.Get("u1"); !stored {
		t.Error("cache not invalidated by Save")
	}

	if err := mgr.Remove("u1"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, stored, _ := mgr.Get("u1"); stored {
		t.Error("profile still present after Remove")
	}
}

func TestGetReturnsCopy(t *testing.T) {
	mgr := NewManager(newMockStore())
	mgr.Save("u1", "j@x.io", validForm)

	p, _, _ := mgr.Get("u1")
	p.Interests[0] = "mutated"

	again, _, _ := mgr.Get("u1")
	if again.Interests[0] != "hiking" {
		t.Errorf("cached profile mutated through returned copy: %v", again.Interests)
	}
}

func TestCommunityHint(t *testing.T) {
	tests := map[string]string{
		"a@google.com":   "Google Community",
		"b@Example.com":  "Example Org Community",
		"c@other.org":    "",
		"no-at-sign":     "",
	}
	for email, want := range tests {
		if got := CommunityHint(email); got != want {
			t.Errorf("CommunityHint(%q) = %q, want %q", email, got, want)
		}
	}
}
