package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/kalambet/synk/internal/profile"
	"github.com/kalambet/synk/internal/storage"
	"github.com/kalambet/synk/internal/validation"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("an account with this email already exists")
)

// UserStore persists accounts. Implemented by storage.Store.
type UserStore interface {
	CreateUser(u storage.User) error
	GetUserByEmail(email string) (storage.User, error)
}

type SignupForm struct {
	Name            string `json:"name" validate:"min=2"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"eqfield=Password"`
}

type LoginForm struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Account is the public view of a user.
type Account struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// AuthResult is returned by Signup and Login.
type AuthResult struct {
	Token        string  `json:"token"`
	Account      Account `json:"account"`
	NeedsProfile bool    `json:"needsProfile"`
}

// Accounts handles signup, login and logout.
type Accounts struct {
	users    UserStore
	sessions *Manager
	profiles *profile.Manager
	tokens   *Tokens
	cost     int
}

func NewAccounts(users UserStore, sessions *Manager, profiles *profile.Manager, tokens *Tokens) *Accounts {
	return &Accounts{
		users:    users,
		sessions: sessions,
		profiles: profiles,
		tokens:   tokens,
		cost:     12,
	}
}

// SetHashCost overrides the bcrypt cost used for new passwords.
func (a *Accounts) SetHashCost(cost int) {
	a.cost = cost
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Signup creates an account and logs it in. Any stored profile is removed
// so the new account is asked to create one.
func (a *Accounts) Signup(ctx context.Context, f SignupForm) (AuthResult, error) {
	f.Email = normalizeEmail(f.Email)
	if err := validation.Struct(&f); err != nil {
		return AuthResult{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(f.Password), a.cost)
	if err != nil {
		return AuthResult{}, fmt.Errorf("hashing password: %w", err)
	}

	u := storage.User{
		ID:           uuid.NewString(),
		Email:        f.Email,
		Name:         f.Name,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	if err := a.users.CreateUser(u); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return AuthResult{}, ErrEmailTaken
		}
		return AuthResult{}, fmt.Errorf("creating user: %w", err)
	}

	if err := a.profiles.Remove(u.ID); err != nil {
		return AuthResult{}, err
	}
	return a.startSession(ctx, u, true)
}

// Login verifies credentials and marks the account logged in.
func (a *Accounts) Login(ctx context.Context, f LoginForm) (AuthResult, error) {
	f.Email = normalizeEmail(f.Email)
	if err := validation.Struct(&f); err != nil {
		return AuthResult{}, err
	}

	u, err := a.users.GetUserByEmail(f.Email)
	if errors.Is(err, storage.ErrNotFound) {
		return AuthResult{}, ErrInvalidCredentials
	}
	if err != nil {
		return AuthResult{}, fmt.Errorf("loading user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(f.Password)) != nil {
		return AuthResult{}, ErrInvalidCredentials
	}

	_, stored, err := a.profiles.Get(u.ID)
	if err != nil {
		return AuthResult{}, err
	}
	return a.startSession(ctx, u, !stored)
}

func (a *Accounts) startSession(ctx context.Context, u storage.User, needsProfile bool) (AuthResult, error) {
	s, err := a.sessions.Load(ctx, u.ID)
	if err != nil {
		return AuthResult{}, err
	}
	s.LoggedIn = true
	s.UserName = u.Name
	s.UserEmail = u.Email
	if err := a.sessions.Save(ctx, s); err != nil {
		return AuthResult{}, err
	}

	token, err := a.tokens.Issue(u.ID, u.Email)
	if err != nil {
		return AuthResult{}, err
	}
	return AuthResult{
		Token:        token,
		Account:      Account{ID: u.ID, Name: u.Name, Email: u.Email},
		NeedsProfile: needsProfile,
	}, nil
}

// Logout clears every session key for userID.
func (a *Accounts) Logout(ctx context.Context, userID string) error {
	return a.sessions.Clear(ctx, userID)
}
