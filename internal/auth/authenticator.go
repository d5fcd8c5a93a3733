package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/Togather-Foundation/eventdesk/internal/domain/users"
	"github.com/Togather-Foundation/eventdesk/internal/metrics"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrAuthentication is wrapped by every credential failure. Callers show one
	// generic message for all of them.
	ErrAuthentication     = errors.New("authentication failed")
	ErrUserNotFound       = fmt.Errorf("%w: user not found", ErrAuthentication)
	ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", ErrAuthentication)
)

// CredentialStore is the lookup the Authenticator needs from the users store.
type CredentialStore interface {
	ByEmail(email string) (users.Identity, error)
}

type Authenticator struct {
	store  CredentialStore
	logger zerolog.Logger

	// dummyHash is compared against when the email is unknown so both
	// failure paths cost one bcrypt comparison.
	dummyHash []byte
}

func NewAuthenticator(store CredentialStore, logger zerolog.Logger) *Authenticator {
	a := &Authenticator{
		store:  store,
		logger: logger.With().Str("component", "authenticator").Logger(),
	}
	hash, err := bcrypt.GenerateFromPassword([]byte("eventdesk-timing-placeholder"), users.BcryptCost)
	if err != nil {
		a.logger.Error().Err(err).Msg("failed to build timing placeholder hash")
	}
	a.dummyHash = hash
	return a
}

// Authenticate verifies an email/password pair. Email matching is exact and
// case-sensitive. The returned User never carries the password hash.
func (a *Authenticator) Authenticate(ctx context.Context, email, password string) (users.User, error) {
	if err := ctx.Err(); err != nil {
		return users.User{}, err
	}

	identity, err := a.store.ByEmail(email)
	if err != nil {
		// burn the same bcrypt time as a real comparison
		_ = bcrypt.CompareHashAndPassword(a.dummyHash, []byte(password))
		if errors.Is(err, users.ErrUserNotFound) {
			metrics.LoginAttempts.WithLabelValues("unknown_user").Inc()
			a.logger.Debug().Str("email", email).Msg("login for unknown email")
			return users.User{}, ErrUserNotFound
		}
		metrics.LoginAttempts.WithLabelValues("error").Inc()
		return users.User{}, fmt.Errorf("lookup user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(identity.PasswordHash), []byte(password)); err != nil {
		metrics.LoginAttempts.WithLabelValues("bad_password").Inc()
		a.logger.Debug().Str("user_id", identity.ID).Msg("login with wrong password")
		return users.User{}, ErrInvalidCredentials
	}

	metrics.LoginAttempts.WithLabelValues("success").Inc()
	return identity.Public(), nil
}
