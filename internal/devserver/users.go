package devserver

import (
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// devUser is an account in the in-memory registry. Passwords are stored in
// the clear; this server only ever runs locally for development.
type devUser struct {
	ID       string
	Email    string
	Password string
}

var errBadCredentials = errors.New("invalid credentials")

// userRegistry is the in-memory account set. A fixed dev account is seeded
// so the client works out of the box.
type userRegistry struct {
	mu      sync.RWMutex
	byEmail map[string]devUser
}

func newUserRegistry() *userRegistry {
	return &userRegistry{
		byEmail: map[string]devUser{
			"alice@example.com": {ID: "u123", Email: "alice@example.com", Password: "hunter2"},
		},
	}
}

// Authenticate checks credentials and returns the matching user.
func (r *userRegistry) Authenticate(email, password string) (devUser, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byEmail[email]
	if !ok || user.Password != password {
		return devUser{}, errBadCredentials
	}
	return user, nil
}

// Create registers a new account. Duplicate emails are rejected.
func (r *userRegistry) Create(email, password string) (devUser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[email]; exists {
		return devUser{}, errors.New("email already registered")
	}
	user := devUser{ID: uuid.New().String(), Email: email, Password: password}
	r.byEmail[email] = user
	return user, nil
}

// mintToken issues an HS256 token with the user ID as subject.
func mintToken(userID, secret string, expiration time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(expiration)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
