package auth

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moneymanager/internal/core"
)

type fakeProvider struct {
	calls int
	id    core.Identity
	err   error
}

func (f *fakeProvider) SignInWithEmail(_ context.Context, email, _ string) (core.Identity, error) {
	f.calls++
	id := f.id
	id.Email = email
	return id, f.err
}

func (f *fakeProvider) SignUpWithEmail(ctx context.Context, email, password string) (core.Identity, error) {
	return f.SignInWithEmail(ctx, email, password)
}

func (f *fakeProvider) SignInWithFederatedProvider(_ context.Context, cred core.FederatedCredential) (core.Identity, error) {
	f.calls++
	id := f.id
	id.Provider = cred.ProviderID
	return id, f.err
}

func TestSession_SignInPersistsAndNotifies(t *testing.T) {
	ctx := context.Background()
	store := NewFileStore(filepath.Join(t.TempDir(), "cfg", "session.json"))
	prov := &fakeProvider{id: core.Identity{UID: "u1", IDToken: "tok", ExpiresAt: time.Now().Add(time.Hour)}}

	s, err := NewSession(prov, store, nil)
	require.NoError(t, err)

	ch, unsubscribe := s.Subscribe()
	defer unsubscribe()
	first := <-ch
	assert.False(t, first.SignedIn)

	id, err := s.SignInWithEmail(ctx, "a@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "u1", id.UID)

	change := <-ch
	assert.True(t, change.SignedIn)
	assert.Equal(t, "a@example.com", change.Identity.Email)

	// a new session restores the persisted identity
	restored, err := NewSession(prov, store, nil)
	require.NoError(t, err)
	got, ok := restored.Current()
	require.True(t, ok)
	assert.Equal(t, "u1", got.UID)

	require.NoError(t, restored.SignOut(ctx))
	_, ok = restored.Current()
	assert.False(t, ok)
	_, found, err := store.Load()
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSession_RejectsBeforeCallingProvider(t *testing.T) {
	ctx := context.Background()
	prov := &fakeProvider{id: core.Identity{UID: "u1"}}
	s, err := NewSession(prov, nil, nil)
	require.NoError(t, err)

	_, err = s.SignInWithEmail(ctx, "a@example.com", "12345")
	assert.ErrorIs(t, err, core.ErrAuthFailure)
	assert.ErrorIs(t, err, ErrWeakPassword)

	_, err = s.SignUpWithEmail(ctx, "not-an-email", "123456")
	assert.ErrorIs(t, err, ErrInvalidEmail)

	_, err = s.SignInWithFederatedProvider(ctx, core.FederatedCredential{ProviderID: "google.com"})
	assert.ErrorIs(t, err, ErrInvalidToken)

	assert.Equal(t, 0, prov.calls)
}

func TestSession_ProviderFailure(t *testing.T) {
	boom := errors.New("boom")
	s, err := NewSession(&fakeProvider{err: boom}, nil, nil)
	require.NoError(t, err)

	_, err = s.SignInWithEmail(context.Background(), "a@example.com", "123456")
	assert.ErrorIs(t, err, core.ErrAuthFailure)
	assert.ErrorIs(t, err, boom)
	_, ok := s.Current()
	assert.False(t, ok)
}

func TestSession_ExpiredIdentity(t *testing.T) {
	store := &MemoryStore{}
	require.NoError(t, store.Save(core.Identity{UID: "u1", ExpiresAt: time.Now().Add(-time.Minute)}))

	s, err := NewSession(&fakeProvider{}, store, nil)
	require.NoError(t, err)

	_, ok := s.Current()
	assert.False(t, ok)
	_, err = s.Require()
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Equal(t, "Your session has expired. Please sign in again.", Message(err))
}

func TestSession_RequireSignedOut(t *testing.T) {
	s, err := NewSession(&fakeProvider{}, nil, nil)
	require.NoError(t, err)
	_, err = s.Require()
	assert.ErrorIs(t, err, ErrNotSignedIn)
	assert.ErrorIs(t, err, core.ErrAuthFailure)
}

func TestSession_FederatedSignIn(t *testing.T) {
	s, err := NewSession(&fakeProvider{id: core.Identity{UID: "g1"}}, nil, nil)
	require.NoError(t, err)
	id, err := s.SignInWithFederatedProvider(context.Background(), core.FederatedCredential{ProviderID: "google.com", IDToken: "x"})
	require.NoError(t, err)
	assert.Equal(t, "google.com", id.Provider)
}
