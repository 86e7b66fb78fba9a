package firebase

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"

	"moneymanager/internal/auth"
	"moneymanager/internal/core"
	applog "moneymanager/internal/log"
)

type fakeRP struct {
	res        tokenResult
	err        error
	postBody   string
	requestURI string
}

func (f *fakeRP) verifyPassword(context.Context, string, string) (tokenResult, error) {
	return f.res, f.err
}

func (f *fakeRP) signUp(context.Context, string, string) (tokenResult, error) {
	return f.res, f.err
}

func (f *fakeRP) verifyAssertion(_ context.Context, postBody, requestURI string) (tokenResult, error) {
	f.postBody, f.requestURI = postBody, requestURI
	return f.res, f.err
}

func idToken(t *testing.T, exp time.Time, provider string) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":      "uid-1",
		"email":    "a@example.com",
		"exp":      exp.Unix(),
		"firebase": map[string]any{"sign_in_provider": provider},
	}).SignedString([]byte("irrelevant-signing-key"))
	require.NoError(t, err)
	return tok
}

func TestSignInWithEmail(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	rp := &fakeRP{res: tokenResult{LocalID: "uid-1", Email: "a@example.com", IDToken: idToken(t, exp, "password"), RefreshToken: "r"}}
	p := &Provider{rp: rp, logger: applog.Discard()}

	id, err := p.SignInWithEmail(context.Background(), "a@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "uid-1", id.UID)
	assert.Equal(t, "password", id.Provider)
	assert.Equal(t, "r", id.RefreshToken)
	assert.True(t, id.ExpiresAt.Equal(exp))
}

func TestProviderErrorsAreMapped(t *testing.T) {
	rp := &fakeRP{err: &googleapi.Error{Code: 400, Message: "EMAIL_EXISTS"}}
	p := &Provider{rp: rp, logger: applog.Discard()}

	_, err := p.SignUpWithEmail(context.Background(), "a@example.com", "secret1")
	assert.ErrorIs(t, err, auth.ErrEmailExists)
	assert.Equal(t, "An account with this email already exists.", auth.Message(err))
}

func TestFederatedSignIn(t *testing.T) {
	exp := time.Now().Add(time.Hour)
	rp := &fakeRP{res: tokenResult{IDToken: idToken(t, exp, "google.com")}}
	p := &Provider{rp: rp, logger: applog.Discard()}

	id, err := p.SignInWithFederatedProvider(context.Background(), core.FederatedCredential{ProviderID: "google.com", IDToken: "google-id-token"})
	require.NoError(t, err)
	assert.Equal(t, "uid-1", id.UID)
	assert.Equal(t, "a@example.com", id.Email)
	assert.Equal(t, "google.com", id.Provider)

	assert.Equal(t, defaultRequestURI, rp.requestURI)
	body, err := url.ParseQuery(rp.postBody)
	require.NoError(t, err)
	assert.Equal(t, "google.com", body.Get("providerId"))
	assert.Equal(t, "google-id-token", body.Get("id_token"))
}
