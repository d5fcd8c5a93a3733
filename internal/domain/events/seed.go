package events

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// seedEvent is one entry of a YAML seed file:
//
//	events:
//	  - id: launch
//	    title: Launch party
//	    date: 2024-02-01
//	    location: Main hall
//	    favorite: true
type seedEvent struct {
	ID          string  `yaml:"id"`
	Title       *string `yaml:"title"`
	Description *string `yaml:"description"`
	Date        *string `yaml:"date"`
	Location    *string `yaml:"location"`
	Organizer   *string `yaml:"organizer"`
	Favorite    bool    `yaml:"favorite"`
}

type seedDocument struct {
	Events []seedEvent `yaml:"events"`
}

// LoadSeedFile creates the events listed in a YAML file and returns how many
// were created.
func (s *Service) LoadSeedFile(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read seed file: %w", err)
	}
	return s.Seed(ctx, data)
}

// Seed creates events from YAML seed contents. Each entry passes through the
// same validation as a regular create.
func (s *Service) Seed(ctx context.Context, data []byte) (int, error) {
	var doc seedDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return 0, fmt.Errorf("parse seed file: %w", err)
	}

	for i, entry := range doc.Events {
		favorite := entry.Favorite
		m := Mutation{
			Title:       entry.Title,
			Description: entry.Description,
			Date:        entry.Date,
			Location:    entry.Location,
			Organizer:   entry.Organizer,
			Favorite:    &favorite,
		}
		if entry.ID != "" {
			id := entry.ID
			m.ID = &id
		}
		if _, err := s.Create(ctx, m); err != nil {
			return i, fmt.Errorf("seed event %d: %w", i, err)
		}
	}
	s.logger.Info().Int("count", len(doc.Events)).Msg("seeded events")
	return len(doc.Events), nil
}
