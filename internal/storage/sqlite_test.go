package storage

import (
	"errors"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// TestMigrationsIdempotent runs Open twice on the same database and verifies
// the schema_version count stays correct (migration not re-applied).
func TestMigrationsIdempotent(t *testing.T) {
	dir := t.TempDir()

	s1, err := Open(dir)
	if err != nil {
		t.Fatalf("first Open failed: %v", err)
	}
	v1, err := s1.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}
	s1.Close()

	s2, err := Open(dir)
	if err != nil {
		t.Fatalf("second Open failed: %v", err)
	}
	defer s2.Close()

	v2, err := s2.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}
	if len(v1) != len(v2) {
		t.Errorf("migration count changed: %d -> %d", len(v1), len(v2))
	}
}

func TestMigrationsOrdered(t *testing.T) {
	s := openTestStore(t)

	versions, err := s.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}
	if len(versions) != 2 {
		t.Fatalf("applied %d migrations, want 2", len(versions))
	}
	for i := 1; i < len(versions); i++ {
		if versions[i] <= versions[i-1] {
			t.Errorf("migrations not in ascending order: %v", versions)
			break
		}
	}
}

func TestCreateAndGetUser(t *testing.T) {
	s := openTestStore(t)

	now := time.Now().UTC().Truncate(time.Second)
	want := User{ID: "u-1", Email: "jane@example.com", Name: "Jane", PasswordHash: "hash", CreatedAt: now}
	if err := s.CreateUser(want); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	got, err := s.GetUser("u-1")
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if got.Email != want.Email || got.Name != want.Name || got.PasswordHash != want.PasswordHash || !got.CreatedAt.Equal(now) {
		t.Errorf("GetUser = %+v, want %+v", got, want)
	}

	byEmail, err := s.GetUserByEmail("jane@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if byEmail.ID != "u-1" {
		t.Errorf("GetUserByEmail ID = %q, want u-1", byEmail.ID)
	}
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	s := openTestStore(t)

	u := User{ID: "u-1", Email: "a@example.com", Name: "A", PasswordHash: "h", CreatedAt: time.Now()}
	if err := s.CreateUser(u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	u.ID = "u-2"
	if err := s.CreateUser(u); !errors.Is(err, ErrConflict) {
		t.Errorf("second CreateUser error = %v, want ErrConflict", err)
	}
}

func TestGetUser_NotFound(t *testing.T) {
	s := openTestStore(t)

	if _, err := s.GetUser("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetUser error = %v, want ErrNotFound", err)
	}
}

func TestSessionKeys(t *testing.T) {
	s := openTestStore(t)

	if err := s.SetSessionKey("u-1", "isLoggedIn", "true"); err != nil {
		t.Fatalf("SetSessionKey: %v", err)
	}
	if err := s.SetSessionKey("u-1", "lastActiveTab", "events"); err != nil {
		t.Fatalf("SetSessionKey: %v", err)
	}
	if err := s.SetSessionKey("u-1", "lastActiveTab", "communities"); err != nil {
		t.Fatalf("SetSessionKey overwrite: %v", err)
	}
	if err := s.SetSessionKey("u-2", "isLoggedIn", "true"); err != nil {
		t.Fatalf("SetSessionKey: %v", err)
	}

	keys, err := s.GetSessionKeys("u-1")
	if err != nil {
		t.Fatalf("GetSessionKeys: %v", err)
	}
	if len(keys) != 2 || keys["lastActiveTab"] != "communities" {
		t.Errorf("GetSessionKeys = %v", keys)
	}

	if err := s.DeleteSessionKeys("u-1", "lastActiveTab"); err != nil {
		t.Fatalf("DeleteSessionKeys: %v", err)
	}
	keys, _ = s.GetSessionKeys("u-1")
	if _, ok := keys["lastActiveTab"]; ok || keys["isLoggedIn"] != "true" {
		t.Errorf("after selective delete keys = %v", keys)
	}

	if err := s.DeleteSessionKeys("u-1"); err != nil {
		t.Fatalf("DeleteSessionKeys all: %v", err)
	}
	keys, _ = s.GetSessionKeys("u-1")
	if len(keys) != 0 {
		t.Errorf("after full delete keys = %v", keys)
	}

	other, _ := s.GetSessionKeys("u-2")
	if other["isLoggedIn"] != "true" {
		t.Error("deleting u-1 keys affected u-2")
	}
}

func TestRecommendationSlot(t *testing.T) {
	s := openTestStore(t)

	if _, err := s.GetRecommendation("u-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("empty slot error = %v, want ErrNotFound", err)
	}

	first := Recommendation{
		UserID: "u-1", Interests: "hiking", Location: "Denver, Colorado",
		Communities: `["Trail Crew"]`, Events: `["Sunrise Hike"]`,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	if err := s.SaveRecommendation(first); err != nil {
		t.Fatalf("SaveRecommendation: %v", err)
	}

	second := first
	second.Interests = "coding"
	second.Events = ""
	if err := s.SaveRecommendation(second); err != nil {
		t.Fatalf("SaveRecommendation overwrite: %v", err)
	}

	got, err := s.GetRecommendation("u-1")
	if err != nil {
		t.Fatalf("GetRecommendation: %v", err)
	}
	if got.Interests != "coding" {
		t.Errorf("Interests = %q, want coding", got.Interests)
	}
	if got.Events != "[]" {
		t.Errorf("Events = %q, want []", got.Events)
	}
}
