// Package events owns the in-memory event record store and the service that
// validates and normalises input before it reaches the store.
package events

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrNotFound = errors.New("event not found")
	ErrConflict = errors.New("event id already exists")
)

// Event is one record in the store. Optional fields are nil when unset.
type Event struct {
	ID          string    `json:"id"`
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Date        *string   `json:"date,omitempty"`
	Location    *string   `json:"location,omitempty"`
	Organizer   *string   `json:"organizer,omitempty"`
	Favorite    bool      `json:"favorite"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Mutation is a partial event. Nil fields are left unchanged by an update; a
// non-nil empty string clears the field. ID is only honoured on create.
type Mutation struct {
	ID          *string
	Title       *string
	Description *string
	Date        *string
	Location    *string
	Organizer   *string
	Favorite    *bool
}

// TitleOrDefault is used by listings.
func (e Event) TitleOrDefault() string {
	if e.Title == nil || *e.Title == "" {
		return "Untitled event"
	}
	return *e.Title
}

func (e Event) clone() Event {
	e.Title = cloneString(e.Title)
	e.Description = cloneString(e.Description)
	e.Date = cloneString(e.Date)
	e.Location = cloneString(e.Location)
	e.Organizer = cloneString(e.Organizer)
	return e
}

// apply merges m onto e.
func (e *Event) apply(m Mutation) {
	if m.Title != nil {
		e.Title = nonEmpty(*m.Title)
	}
	if m.Description != nil {
		e.Description = nonEmpty(*m.Description)
	}
	if m.Date != nil {
		e.Date = nonEmpty(*m.Date)
	}
	if m.Location != nil {
		e.Location = nonEmpty(*m.Location)
	}
	if m.Organizer != nil {
		e.Organizer = nonEmpty(*m.Organizer)
	}
	if m.Favorite != nil {
		e.Favorite = *m.Favorite
	}
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func nonEmpty(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

// ValidationError describes one rejected field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// ValidationErrors collects every rejected field of a mutation.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	parts := make([]string, 0, len(e))
	for _, v := range e {
		parts = append(parts, v.Error())
	}
	return strings.Join(parts, "; ")
}
