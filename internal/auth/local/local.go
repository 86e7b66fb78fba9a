// Package local is a self-contained auth provider: bcrypt password hashes
// and HS256 ID tokens. It backs AUTH_BACKEND=local for development and tests.
package local

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"moneymanager/internal/auth"
	"moneymanager/internal/core"
)

const (
	// ProviderPassword is reported as the Identity provider.
	ProviderPassword = "password"
	issuer           = "moneymanager-local"
	defaultTokenTTL  = time.Hour
)

type user struct {
	UID          string `json:"uid"`
	Email        string `json:"email"`
	PasswordHash string `json:"passwordHash"`
}

// Claims represents the JWT claims issued by the local provider.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Provider implements ports.AuthProvider.
type Provider struct {
	secret    []byte
	tokenTTL  time.Duration
	cost      int
	usersFile string
	now       func() time.Time

	mu    sync.Mutex
	users map[string]user
}

// Option configures a Provider.
type Option func(*Provider)

// WithTokenTTL sets how long issued tokens stay valid.
func WithTokenTTL(d time.Duration) Option { return func(p *Provider) { p.tokenTTL = d } }

// WithBcryptCost lowers the hashing cost, for tests.
func WithBcryptCost(cost int) Option { return func(p *Provider) { p.cost = cost } }

// WithUsersFile persists accounts as JSON so they survive restarts.
func WithUsersFile(path string) Option { return func(p *Provider) { p.usersFile = path } }

func New(secret string, opts ...Option) (*Provider, error) {
	if len(secret) < 16 {
		return nil, errors.New("local auth secret must be at least 16 characters")
	}
	p := &Provider{
		secret:   []byte(secret),
		tokenTTL: defaultTokenTTL,
		cost:     bcrypt.DefaultCost,
		now:      time.Now,
		users:    make(map[string]user),
	}
	for _, opt := range opts {
		opt(p)
	}
	if err := p.loadUsers(); err != nil {
		return nil, err
	}
	return p, nil
}

// SignUpWithEmail implements ports.AuthProvider.
func (p *Provider) SignUpWithEmail(_ context.Context, email, password string) (core.Identity, error) {
	key := strings.ToLower(email)
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.users[key]; exists {
		return core.Identity{}, auth.ErrEmailExists
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return core.Identity{}, fmt.Errorf("failed to hash password: %w", err)
	}
	u := user{UID: uuid.NewString(), Email: email, PasswordHash: string(hash)}
	p.users[key] = u
	if err := p.saveUsersLocked(); err != nil {
		delete(p.users, key)
		return core.Identity{}, err
	}
	return p.issue(u)
}

// SignInWithEmail implements ports.AuthProvider.
func (p *Provider) SignInWithEmail(_ context.Context, email, password string) (core.Identity, error) {
	p.mu.Lock()
	u, ok := p.users[strings.ToLower(email)]
	p.mu.Unlock()
	if !ok {
		return core.Identity{}, auth.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return core.Identity{}, auth.ErrInvalidCredentials
	}
	return p.issue(u)
}

// SignInWithFederatedProvider implements ports.AuthProvider. Only tokens
// issued by this provider are accepted, under the provider id "password".
func (p *Provider) SignInWithFederatedProvider(_ context.Context, cred core.FederatedCredential) (core.Identity, error) {
	if cred.ProviderID != ProviderPassword {
		return core.Identity{}, fmt.Errorf("%w: %s", auth.ErrUnsupportedProvider, cred.ProviderID)
	}
	claims, err := p.Validate(cred.IDToken)
	if err != nil {
		return core.Identity{}, err
	}
	p.mu.Lock()
	u, ok := p.users[strings.ToLower(claims.Email)]
	p.mu.Unlock()
	if !ok || u.UID != claims.Subject {
		return core.Identity{}, auth.ErrInvalidToken
	}
	return p.issue(u)
}

func (p *Provider) issue(u user) (core.Identity, error) {
	now := p.now()
	exp := now.Add(p.tokenTTL)
	claims := &Claims{
		Email: u.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   u.UID,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return core.Identity{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return core.Identity{
		UID:       u.UID,
		Email:     u.Email,
		Provider:  ProviderPassword,
		IDToken:   token,
		ExpiresAt: exp.Truncate(time.Second),
	}, nil
}

// Validate parses and verifies a token issued by this provider.
func (p *Provider) Validate(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{},
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return p.secret, nil
		},
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", auth.ErrInvalidToken, err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, auth.ErrInvalidToken
	}
	return claims, nil
}

func (p *Provider) loadUsers() error {
	if p.usersFile == "" {
		return nil
	}
	b, err := os.ReadFile(p.usersFile)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read users file: %w", err)
	}
	var list []user
	if err := json.Unmarshal(b, &list); err != nil {
		return fmt.Errorf("decode users file: %w", err)
	}
	for _, u := range list {
		p.users[strings.ToLower(u.Email)] = u
	}
	return nil
}

func (p *Provider) saveUsersLocked() error {
	if p.usersFile == "" {
		return nil
	}
	list := make([]user, 0, len(p.users))
	for _, u := range p.users {
		list = append(list, u)
	}
	b, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return fmt.Errorf("encode users: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(p.usersFile), 0o700); err != nil {
		return fmt.Errorf("create users directory: %w", err)
	}
	if err := os.WriteFile(p.usersFile, b, 0o600); err != nil {
		return fmt.Errorf("write users file: %w", err)
	}
	return nil
}
