// Package auth implements the site login gate and the signed session tokens.
package auth

import (
	"context"
	stderrors "errors"
	"strings"

	"omerhsa-quotes/internal/common/config"
	"omerhsa-quotes/internal/common/errors"

	"golang.org/x/crypto/bcrypt"
)

// InvalidCredentialsMessage is shown to visitors when the gate rejects a login.
const InvalidCredentialsMessage = "Credenciales incorrectas. Acceso denegado."

var ErrInvalidCredentials = stderrors.New("invalid credentials")

// User is an entry of the gate allow list.
type User struct {
	Name         string
	Email        string
	PasswordHash string
}

// Gate checks email/password pairs against a fixed allow list.
type Gate struct {
	users map[string]User
}

func NewGate(users []User) *Gate {
	g := &Gate{users: make(map[string]User, len(users))}
	for _, u := range users {
		g.users[normalizeEmail(u.Email)] = u
	}
	return g
}

// NewGateFromConfig builds a Gate from auth.gate.authorized_users.
func NewGateFromConfig(cfg config.AuthConfig) *Gate {
	users := make([]User, 0, len(cfg.Gate.AuthorizedUsers))
	for _, u := range cfg.Gate.AuthorizedUsers {
		users = append(users, User{Name: u.Name, Email: u.Email, PasswordHash: u.PasswordHash})
	}
	return NewGate(users)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Authenticate matches email case-insensitively and the password exactly.
func (g *Gate) Authenticate(ctx context.Context, email, password string) (*User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	user, ok := g.users[normalizeEmail(email)]
	if !ok {
		// spend the same bcrypt cost for unknown emails
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, wrapInvalid(email)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, wrapInvalid(email)
	}
	return &user, nil
}

func wrapInvalid(email string) error {
	stdErr := errors.NewAuthenticationError("email: " + normalizeEmail(email))
	stdErr.Message = InvalidCredentialsMessage
	return &invalidCredentials{stdErr}
}

type invalidCredentials struct {
	*errors.StandardError
}

func (e *invalidCredentials) Unwrap() []error {
	return []error{ErrInvalidCredentials, e.StandardError}
}

// HashPassword returns a bcrypt hash suitable for auth.gate.authorized_users.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("omerhsa-gate"), bcrypt.DefaultCost)
