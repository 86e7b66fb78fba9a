// Package auth owns the signed-in identity of the client and the adapters
// that talk to identity providers.
package auth

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"moneymanager/internal/core"
	applog "moneymanager/internal/log"
	"moneymanager/internal/ports"
)

// MinPasswordLength is enforced before any provider call.
const MinPasswordLength = 6

// Change is delivered to subscribers whenever the identity changes.
type Change struct {
	Identity core.Identity
	SignedIn bool
}

// Session holds the current identity and notifies subscribers.
type Session struct {
	provider ports.AuthProvider
	store    SessionStore
	logger   *applog.Logger
	now      func() time.Time

	mu       sync.Mutex
	current  core.Identity
	signedIn bool
	nextSub  int
	subs     map[int]chan Change
}

// NewSession restores any persisted identity from store.
func NewSession(provider ports.AuthProvider, store SessionStore, logger *applog.Logger) (*Session, error) {
	if store == nil {
		store = &MemoryStore{}
	}
	if logger == nil {
		logger = applog.Discard()
	}
	s := &Session{
		provider: provider,
		store:    store,
		logger:   logger.WithComponent(applog.ComponentAuth),
		now:      time.Now,
		subs:     make(map[int]chan Change),
	}
	id, ok, err := store.Load()
	if err != nil {
		return nil, err
	}
	s.current, s.signedIn = id, ok
	return s, nil
}

// Current returns the signed-in identity. An expired identity counts as
// signed out.
func (s *Session) Current() (core.Identity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.signedIn || s.current.Expired(s.now()) {
		return core.Identity{}, false
	}
	return s.current, true
}

// Require returns the identity or an error wrapping ErrNotSignedIn.
func (s *Session) Require() (core.Identity, error) {
	s.mu.Lock()
	expired := s.signedIn && s.current.Expired(s.now())
	s.mu.Unlock()
	if expired {
		return core.Identity{}, fmt.Errorf("%w: %w", core.ErrAuthFailure, ErrInvalidToken)
	}
	id, ok := s.Current()
	if !ok {
		return core.Identity{}, fmt.Errorf("%w: %w", core.ErrAuthFailure, ErrNotSignedIn)
	}
	return id, nil
}

// Subscribe returns a channel that first receives the current state and
// then every change. Slow readers only see the latest state. Call the
// returned func to unsubscribe.
func (s *Session) Subscribe() (<-chan Change, func()) {
	ch := make(chan Change, 1)
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	ch <- s.changeLocked()
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
			close(ch)
		})
	}
}

func (s *Session) changeLocked() Change {
	if !s.signedIn {
		return Change{}
	}
	return Change{Identity: s.current, SignedIn: true}
}

func (s *Session) publishLocked() {
	c := s.changeLocked()
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		ch <- c
	}
}

// SignInWithEmail signs in with an email and password.
func (s *Session) SignInWithEmail(ctx context.Context, email, password string) (core.Identity, error) {
	email, err := checkCredentials(email, password)
	if err != nil {
		return s.fail(ctx, applog.OpSignIn, err)
	}
	id, err := s.provider.SignInWithEmail(ctx, email, password)
	if err != nil {
		return s.fail(ctx, applog.OpSignIn, err)
	}
	return s.set(ctx, applog.OpSignIn, id)
}

// SignUpWithEmail creates an account and signs it in.
func (s *Session) SignUpWithEmail(ctx context.Context, email, password string) (core.Identity, error) {
	email, err := checkCredentials(email, password)
	if err != nil {
		return s.fail(ctx, applog.OpSignUp, err)
	}
	id, err := s.provider.SignUpWithEmail(ctx, email, password)
	if err != nil {
		return s.fail(ctx, applog.OpSignUp, err)
	}
	return s.set(ctx, applog.OpSignUp, id)
}

// SignInWithFederatedProvider exchanges an external credential for a session.
func (s *Session) SignInWithFederatedProvider(ctx context.Context, cred core.FederatedCredential) (core.Identity, error) {
	if cred.ProviderID == "" || (cred.IDToken == "" && cred.AccessToken == "") {
		return s.fail(ctx, applog.OpSignIn, ErrInvalidToken)
	}
	id, err := s.provider.SignInWithFederatedProvider(ctx, cred)
	if err != nil {
		return s.fail(ctx, applog.OpSignIn, err)
	}
	return s.set(ctx, applog.OpSignIn, id)
}

// SignOut forgets the identity locally.
func (s *Session) SignOut(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Clear(); err != nil {
		return fmt.Errorf("%w: %w", core.ErrAuthFailure, err)
	}
	email := s.current.Email
	s.current, s.signedIn = core.Identity{}, false
	s.publishLocked()
	s.logger.InfoContext(ctx, "Signed out", applog.FieldOperation, applog.OpSignOut, applog.FieldEmail, email)
	return nil
}

func (s *Session) set(ctx context.Context, op string, id core.Identity) (core.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Save(id); err != nil {
		return s.failLocked(ctx, op, err)
	}
	s.current, s.signedIn = id, true
	s.publishLocked()
	s.logger.InfoContext(ctx, "Signed in",
		applog.FieldOperation, op,
		applog.FieldEmail, id.Email,
		"provider", id.Provider)
	return id, nil
}

func (s *Session) fail(ctx context.Context, op string, err error) (core.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failLocked(ctx, op, err)
}

func (s *Session) failLocked(ctx context.Context, op string, err error) (core.Identity, error) {
	err = fmt.Errorf("%w: %w", core.ErrAuthFailure, err)
	s.logger.WarnContext(ctx, "Authentication failed",
		applog.NewFields().WithOperation(op).WithError(err).ToSlice()...)
	return core.Identity{}, err
}

func checkCredentials(email, password string) (string, error) {
	email = strings.TrimSpace(email)
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	if len(password) < MinPasswordLength {
		return "", ErrWeakPassword
	}
	return email, nil
}
