// Package users holds the read-only credential store.
//
// Identities are loaded once at process start and never mutated afterwards, so a
// Store is safe for concurrent use without locking. Password hashes stay inside
// this package and the auth package; everything else sees the public User view.
package users

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateEmail = errors.New("duplicate email")
	ErrDuplicateID    = errors.New("duplicate user id")
	ErrInvalidUser    = errors.New("invalid user")
)

// Identity is a credential store entry including the password hash.
type Identity struct {
	ID           string
	DisplayName  *string
	Email        string
	PasswordHash string
}

// User is the public view of an Identity. It never carries the password hash.
type User struct {
	ID          string  `json:"id"`
	DisplayName *string `json:"display_name,omitempty"`
	Email       string  `json:"email"`
}

// Public strips the password hash.
func (i Identity) Public() User {
	return User{ID: i.ID, DisplayName: i.DisplayName, Email: i.Email}
}

// Name returns the display name, falling back to the email address.
func (u User) Name() string {
	if u.DisplayName != nil && strings.TrimSpace(*u.DisplayName) != "" {
		return *u.DisplayName
	}
	return u.Email
}

type Store struct {
	byEmail map[string]Identity
	byID    map[string]Identity
}

// NewStore validates identities and indexes them by email and id.
func NewStore(identities []Identity) (*Store, error) {
	s := &Store{
		byEmail: make(map[string]Identity, len(identities)),
		byID:    make(map[string]Identity, len(identities)),
	}
	for i, identity := range identities {
		if identity.ID == "" || identity.Email == "" || identity.PasswordHash == "" {
			return nil, fmt.Errorf("user %d: %w: id, email and password hash are required", i, ErrInvalidUser)
		}
		if _, ok := s.byEmail[identity.Email]; ok {
			return nil, fmt.Errorf("user %d: %w: %s", i, ErrDuplicateEmail, identity.Email)
		}
		if _, ok := s.byID[identity.ID]; ok {
			return nil, fmt.Errorf("user %d: %w: %s", i, ErrDuplicateID, identity.ID)
		}
		s.byEmail[identity.Email] = identity
		s.byID[identity.ID] = identity
	}
	return s, nil
}

// ByEmail looks up an identity by exact, case-sensitive email match.
func (s *Store) ByEmail(email string) (Identity, error) {
	if s == nil {
		return Identity{}, ErrUserNotFound
	}
	identity, ok := s.byEmail[email]
	if !ok {
		return Identity{}, ErrUserNotFound
	}
	return identity, nil
}

// ByID resolves a user id to its public view.
func (s *Store) ByID(id string) (User, error) {
	if s == nil {
		return User{}, ErrUserNotFound
	}
	identity, ok := s.byID[id]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return identity.Public(), nil
}

func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return len(s.byID)
}
