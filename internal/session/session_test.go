package session

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/kalambet/synk/internal/profile"
	"github.com/kalambet/synk/internal/storage"
	"github.com/kalambet/synk/internal/validation"
)

type fixture struct {
	store    *storage.Store
	profiles *profile.Manager
	sessions *Manager
	tokens   *Tokens
	accounts *Accounts
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("storage.Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	tokens, err := NewTokens("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewTokens: %v", err)
	}
	profiles := profile.NewManager(store)
	sessions := NewManager(store, profiles)
	accounts := NewAccounts(store, sessions, profiles, tokens)
	accounts.cost = bcrypt.MinCost

	return &fixture{store: store, profiles: profiles, sessions: sessions, tokens: tokens, accounts: accounts}
}

var signup = SignupForm{
	Name:            "Jane Doe",
	Email:           " Jane@Example.com ",
	Password:        "hunter22",
	ConfirmPassword: "hunter22",
}

func TestLoad_Empty(t *testing.T) {
	f := newFixture(t)

	s, err := f.sessions.Load(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.LoggedIn {
		t.Error("LoggedIn = true for empty session")
	}
	if s.ActiveTab != TabDiscover {
		t.Errorf("ActiveTab = %q, want discover", s.ActiveTab)
	}
	if s.HasProfile || s.Profile.Name != "Alex Johnson" {
		t.Errorf("profile = %+v (stored %v), want default", s.Profile, s.HasProfile)
	}
}

func TestLoad_MalformedProfileFallsBack(t *testing.T) {
	f := newFixture(t)
	f.store.SetSessionKey("u1", KeyLoggedIn, "true")
	f.store.SetSessionKey("u1", KeyProfile, `{"id": "u1", "name": `)

	s, err := f.sessions.Load(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Load error = %v, want nil", err)
	}
	if s.Profile.ID != "user123" {
		t.Errorf("Profile.ID = %q, want default user123", s.Profile.ID)
	}
	if !s.LoggedIn {
		t.Error("LoggedIn = false")
	}
}

func TestLoad_UnknownTabFallsBack(t *testing.T) {
	f := newFixture(t)
	f.store.SetSessionKey("u1", KeyActiveTab, "settings")

	s, err := f.sessions.Load(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.ActiveTab != TabDiscover {
		t.Errorf("ActiveTab = %q, want discover", s.ActiveTab)
	}
}

func TestSetTab(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.sessions.SetTab(ctx, "u1", "events"); err != nil {
		t.Fatalf("SetTab: %v", err)
	}
	if _, err := f.sessions.SetTab(ctx, "u1", "bogus"); err == nil {
		t.Error("SetTab accepted unknown tab")
	}
	s, _ := f.sessions.Load(ctx, "u1")
	if s.ActiveTab != TabEvents {
		t.Errorf("ActiveTab = %q, want events", s.ActiveTab)
	}
}

func TestSignupLoginLogout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.accounts.Signup(ctx, signup)
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}
	if !res.NeedsProfile {
		t.Error("NeedsProfile = false after signup")
	}
	if res.Account.Email != "jane@example.com" {
		t.Errorf("Email = %q, want normalized", res.Account.Email)
	}

	claims, err := f.tokens.Verify(res.Token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Subject != res.Account.ID {
		t.Errorf("token subject = %q, want %q", claims.Subject, res.Account.ID)
	}

	s, _ := f.sessions.Load(ctx, res.Account.ID)
	if !s.LoggedIn || s.UserName != "Jane Doe" || s.UserEmail != "jane@example.com" {
		t.Errorf("session after signup = %+v", s)
	}

	if _, err := f.profiles.Save(res.Account.ID, s.UserEmail, profile.Form{
		Name: "Jane Doe", Bio: "Trail runner and coder.", Interests: "running, go",
	}); err != nil {
		t.Fatalf("profile Save: %v", err)
	}

	if err := f.accounts.Logout(ctx, res.Account.ID); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	keys, _ := f.store.GetSessionKeys(res.Account.ID)
	if len(keys) != 0 {
		t.Errorf("keys after logout = %v, want none", keys)
	}

	login, err := f.accounts.Login(ctx, LoginForm{Email: "JANE@example.com", Password: "hunter22"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if login.Account.ID != res.Account.ID {
		t.Errorf("Login account = %q, want %q", login.Account.ID, res.Account.ID)
	}
	if !login.NeedsProfile {
		t.Error("NeedsProfile = false after logout cleared the profile")
	}
	if ok, _ := f.sessions.IsLoggedIn(ctx, res.Account.ID); !ok {
		t.Error("IsLoggedIn = false after login")
	}
}

func TestSignup_RemovesExistingProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.accounts.Signup(ctx, signup)
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}
	if _, stored, _ := f.profiles.Get(res.Account.ID); stored {
		t.Error("profile present right after signup")
	}
}

func TestSignup_Validation(t *testing.T) {
	f := newFixture(t)

	bad := signup
	bad.ConfirmPassword = "different"
	_, err := f.accounts.Signup(context.Background(), bad)

	var verrs *validation.Errors
	if !errors.As(err, &verrs) {
		t.Fatalf("error = %v, want *validation.Errors", err)
	}
	if verrs.Fields[0].Field != "confirmPassword" {
		t.Errorf("field = %q, want confirmPassword", verrs.Fields[0].Field)
	}
}

func TestSignup_DuplicateEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.accounts.Signup(ctx, signup); err != nil {
		t.Fatalf("Signup: %v", err)
	}
	if _, err := f.accounts.Signup(ctx, signup); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("second Signup error = %v, want ErrEmailTaken", err)
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.accounts.Signup(ctx, signup)

	if _, err := f.accounts.Login(ctx, LoginForm{Email: "jane@example.com", Password: "wrong-pass"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password error = %v", err)
	}
	if _, err := f.accounts.Login(ctx, LoginForm{Email: "ghost@example.com", Password: "hunter22"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email error = %v", err)
	}
}

func TestTokens(t *testing.T) {
	tokens, _ := NewTokens("s3cret", time.Minute)
	tok, err := tokens.Issue("u1", "a@b.co")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if _, err := (&Tokens{secret: []byte("other"), ttl: time.Minute, now: time.Now}).Verify(tok); err == nil {
		t.Error("Verify accepted token signed with another secret")
	}

	tokens.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	if _, err := tokens.Verify(tok); err == nil || !strings.Contains(err.Error(), "expired") {
		t.Errorf("Verify expired token error = %v", err)
	}

	if _, err := NewTokens("", time.Minute); err == nil {
		t.Error("NewTokens accepted empty secret")
	}
}
