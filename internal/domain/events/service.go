package events

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Togather-Foundation/eventdesk/internal/domain/ids"
	"github.com/Togather-Foundation/eventdesk/internal/metrics"
	"github.com/Togather-Foundation/eventdesk/internal/sanitize"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// mutationRules mirrors Mutation for struct-tag validation.
type mutationRules struct {
	Title       string `validate:"max=200"`
	Description string `validate:"max=5000"`
	Location    string `validate:"max=300"`
	Organizer   string `validate:"max=200"`
}

// Service applies validation, sanitization and date normalisation in front of
// the Store. Handlers talk to the Service, never to the Store directly.
type Service struct {
	store     *Store
	logger    zerolog.Logger
	validator *validator.Validate
	now       func() time.Time
}

func NewService(store *Store, logger zerolog.Logger) *Service {
	return &Service{
		store:     store,
		logger:    logger.With().Str("component", "events").Logger(),
		validator: validator.New(),
		now:       time.Now,
	}
}

func (s *Service) List(ctx context.Context) []Event {
	return s.store.List(ctx)
}

func (s *Service) Search(ctx context.Context, query string) []Event {
	return s.store.Search(ctx, query)
}

func (s *Service) Count() int {
	return s.store.Len()
}

func (s *Service) Get(ctx context.Context, id string) (Event, error) {
	if err := requireID(id); err != nil {
		return Event{}, err
	}
	return s.store.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, m Mutation) (Event, error) {
	if m.ID != nil && strings.TrimSpace(*m.ID) != "" {
		if err := ids.ValidateID(strings.TrimSpace(*m.ID)); err != nil {
			return Event{}, ValidationErrors{{Field: "id", Message: "must be 1-64 letters, digits, '-' or '_'"}}
		}
	}
	clean, err := s.normalize(m)
	if err != nil {
		return Event{}, err
	}

	e, err := s.store.Create(ctx, clean)
	if err != nil {
		return Event{}, err
	}
	s.recordMutation("create")
	s.logger.Info().Str("event_id", e.ID).Msg("event created")
	return e, nil
}

func (s *Service) CreateEmpty(ctx context.Context) (Event, error) {
	return s.Create(ctx, Mutation{})
}

func (s *Service) Update(ctx context.Context, id string, m Mutation) (Event, error) {
	if err := requireID(id); err != nil {
		return Event{}, err
	}
	m.ID = nil
	clean, err := s.normalize(m)
	if err != nil {
		return Event{}, err
	}

	e, err := s.store.Update(ctx, id, clean)
	if err != nil {
		return Event{}, err
	}
	s.recordMutation("update")
	s.logger.Info().Str("event_id", e.ID).Msg("event updated")
	return e, nil
}

func (s *Service) SetFavorite(ctx context.Context, id string, favorite bool) (Event, error) {
	if err := requireID(id); err != nil {
		return Event{}, err
	}
	e, err := s.store.SetFavorite(ctx, id, favorite)
	if err != nil {
		return Event{}, err
	}
	s.recordMutation("favorite")
	return e, nil
}

// Delete removes an event. A missing id is not an error.
func (s *Service) Delete(ctx context.Context, id string) (bool, error) {
	if err := requireID(id); err != nil {
		return false, err
	}
	removed := s.store.Delete(ctx, id)
	if removed {
		s.recordMutation("delete")
		s.logger.Info().Str("event_id", id).Msg("event deleted")
	}
	return removed, nil
}

func (s *Service) recordMutation(op string) {
	metrics.EventMutations.WithLabelValues(op).Inc()
	metrics.EventsStored.Set(float64(s.store.Len()))
}

// normalize sanitizes text fields, canonicalises the date and enforces length
// limits. It returns ValidationErrors listing every bad field.
func (s *Service) normalize(m Mutation) (Mutation, error) {
	out := Mutation{ID: m.ID, Favorite: m.Favorite}
	out.Title = sanitize.OptionalText(m.Title)
	out.Description = sanitize.OptionalText(m.Description)
	out.Location = sanitize.OptionalText(m.Location)
	out.Organizer = sanitize.OptionalText(m.Organizer)

	var problems ValidationErrors
	if m.Date != nil {
		date, err := NormalizeDate(*m.Date, s.now())
		if err != nil {
			var verr ValidationError
			if errors.As(err, &verr) {
				problems = append(problems, verr)
			} else {
				return Mutation{}, err
			}
		}
		out.Date = &date
	}

	rules := mutationRules{
		Title:       deref(out.Title),
		Description: deref(out.Description),
		Location:    deref(out.Location),
		Organizer:   deref(out.Organizer),
	}
	if err := s.validator.Struct(rules); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return Mutation{}, fmt.Errorf("validate event: %w", err)
		}
		for _, fe := range fieldErrs {
			problems = append(problems, ValidationError{
				Field:   strings.ToLower(fe.Field()),
				Message: fmt.Sprintf("must be at most %s characters", fe.Param()),
			})
		}
	}

	if len(problems) > 0 {
		return Mutation{}, problems
	}
	return out, nil
}

func requireID(id string) error {
	if strings.TrimSpace(id) == "" {
		return ValidationErrors{{Field: "id", Message: "is required"}}
	}
	return nil
}
