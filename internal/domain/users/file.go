package users

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// fileEntry is one user in the YAML users file:
//
//	users:
//	  - id: u-1
//	    name: Jane Doe
//	    email: user@mail.com
//	    password_hash: $2a$12$...
type fileEntry struct {
	ID           string `yaml:"id"`
	Name         string `yaml:"name"`
	Email        string `yaml:"email"`
	PasswordHash string `yaml:"password_hash"`
}

type fileDocument struct {
	Users []fileEntry `yaml:"users"`
}

// LoadFile reads a YAML users file and builds a Store from it.
func LoadFile(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read users file: %w", err)
	}
	return Parse(data)
}

// Parse builds a Store from YAML users file contents.
func Parse(data []byte) (*Store, error) {
	var doc fileDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse users file: %w", err)
	}

	identities := make([]Identity, 0, len(doc.Users))
	for _, entry := range doc.Users {
		email := strings.TrimSpace(entry.Email)
		id := strings.TrimSpace(entry.ID)
		if id == "" && email != "" {
			id = stableID(email)
		}
		identities = append(identities, Identity{
			ID:           id,
			DisplayName:  optionalName(entry.Name),
			Email:        email,
			PasswordHash: strings.TrimSpace(entry.PasswordHash),
		})
	}
	return NewStore(identities)
}

// Bootstrap builds a single-identity store from a plaintext password.
func Bootstrap(email, password, name string) (*Store, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: bootstrap email and password are required", ErrInvalidUser)
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	return NewStore([]Identity{{
		ID:           stableID(email),
		DisplayName:  optionalName(name),
		Email:        email,
		PasswordHash: hash,
	}})
}

func optionalName(name string) *string {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	return &name
}

// stableID derives a user id from the email so sessions survive restarts when
// the users file omits ids.
func stableID(email string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("eventdesk:user:"+email)).String()
}
