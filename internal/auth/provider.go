// Package auth resolves credentials to identities. The routing core only
// sees the resulting Identity; how it was proven is this package's
// business.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/pulsechat/relay/internal/models"
)

var ErrInvalidCredentials = errors.New("auth: invalid credentials")

// Credentials is what a client presents before joining.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Device   string `json:"device,omitempty"`
}

// Provider authenticates a connection, once per session, before the join
// handshake.
type Provider interface {
	Authenticate(ctx context.Context, creds Credentials) (models.Identity, error)
}

// User is one entry of the static user directory.
type User struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	AvatarURL    string `json:"avatar_url,omitempty"`
	PasswordHash string `json:"password_hash"` // bcrypt
}

// StaticProvider authenticates against a fixed user directory loaded at
// startup. Passwords are stored as bcrypt hashes.
type StaticProvider struct {
	byEmail map[string]User
}

func NewStaticProvider(users []User) *StaticProvider {
	byEmail := make(map[string]User, len(users))
	for _, u := range users {
		byEmail[strings.ToLower(u.Email)] = u
	}
	return &StaticProvider{byEmail: byEmail}
}

// LoadUsers reads the user directory from a JSON file.
func LoadUsers(path string) ([]User, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var users []User
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (p *StaticProvider) Authenticate(ctx context.Context, creds Credentials) (models.Identity, error) {
	u, ok := p.byEmail[strings.ToLower(creds.Email)]
	if !ok {
		// Burn a comparison anyway so missing and wrong-password
		// lookups cost the same.
		_ = bcrypt.CompareHashAndPassword([]byte("$2a$10$0000000000000000000000uGZwstUxDfporXAx/B6Cy3V8DozITBC"), []byte(creds.Password))
		return models.Identity{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(creds.Password)); err != nil {
		return models.Identity{}, ErrInvalidCredentials
	}
	return models.Identity{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		AvatarURL: u.AvatarURL,
		Device:    creds.Device,
	}, nil
}

// HashPassword produces the bcrypt hash stored in the user directory.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
