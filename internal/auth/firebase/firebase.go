// Package firebase signs users in through the Firebase Identity Toolkit.
package firebase

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"google.golang.org/api/googleapi"
	identitytoolkit "google.golang.org/api/identitytoolkit/v3"
	"google.golang.org/api/option"

	"moneymanager/internal/auth"
	"moneymanager/internal/core"
	applog "moneymanager/internal/log"
)

// ProviderPassword is the provider id of email and password accounts.
const ProviderPassword = "password"

// defaultRequestURI is sent with federated assertions; Identity Toolkit
// requires an http(s) URI even when no redirect takes place.
const defaultRequestURI = "http://localhost"

// tokenResult is the part of every Identity Toolkit response this client keeps.
type tokenResult struct {
	LocalID      string
	Email        string
	IDToken      string
	RefreshToken string
	ProviderID   string
}

type relyingParty interface {
	verifyPassword(ctx context.Context, email, password string) (tokenResult, error)
	signUp(ctx context.Context, email, password string) (tokenResult, error)
	verifyAssertion(ctx context.Context, postBody, requestURI string) (tokenResult, error)
}

type toolkit struct {
	svc *identitytoolkit.Service
}

func (t toolkit) verifyPassword(ctx context.Context, email, password string) (tokenResult, error) {
	resp, err := t.svc.Relyingparty.VerifyPassword(&identitytoolkit.IdentitytoolkitRelyingpartyVerifyPasswordRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	}).Context(ctx).Do()
	if err != nil {
		return tokenResult{}, err
	}
	return tokenResult{
		LocalID:      resp.LocalId,
		Email:        resp.Email,
		IDToken:      resp.IdToken,
		RefreshToken: resp.RefreshToken,
		ProviderID:   ProviderPassword,
	}, nil
}

func (t toolkit) signUp(ctx context.Context, email, password string) (tokenResult, error) {
	resp, err := t.svc.Relyingparty.SignupNewUser(&identitytoolkit.IdentitytoolkitRelyingpartySignupNewUserRequest{
		Email:    email,
		Password: password,
	}).Context(ctx).Do()
	if err != nil {
		return tokenResult{}, err
	}
	return tokenResult{
		LocalID:      resp.LocalId,
		Email:        resp.Email,
		IDToken:      resp.IdToken,
		RefreshToken: resp.RefreshToken,
		ProviderID:   ProviderPassword,
	}, nil
}

func (t toolkit) verifyAssertion(ctx context.Context, postBody, requestURI string) (tokenResult, error) {
	resp, err := t.svc.Relyingparty.VerifyAssertion(&identitytoolkit.IdentitytoolkitRelyingpartyVerifyAssertionRequest{
		PostBody:          postBody,
		RequestUri:        requestURI,
		ReturnSecureToken: true,
	}).Context(ctx).Do()
	if err != nil {
		return tokenResult{}, err
	}
	return tokenResult{
		LocalID:      resp.LocalId,
		Email:        resp.Email,
		IDToken:      resp.IdToken,
		RefreshToken: resp.RefreshToken,
		ProviderID:   resp.ProviderId,
	}, nil
}

// Provider implements ports.AuthProvider against Firebase Auth.
type Provider struct {
	rp     relyingParty
	logger *applog.Logger
}

// New creates a provider authenticated with the project's web API key.
func New(ctx context.Context, apiKey string, logger *applog.Logger, opts ...option.ClientOption) (*Provider, error) {
	if apiKey == "" {
		return nil, errors.New("firebase API key is required")
	}
	if logger == nil {
		logger = applog.Discard()
	}
	svc, err := identitytoolkit.NewService(ctx, append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("create identity toolkit service: %w", err)
	}
	return &Provider{rp: toolkit{svc: svc}, logger: logger.WithComponent(applog.ComponentAuth)}, nil
}

// SignInWithEmail implements ports.AuthProvider.
func (p *Provider) SignInWithEmail(ctx context.Context, email, password string) (core.Identity, error) {
	res, err := p.rp.verifyPassword(ctx, email, password)
	if err != nil {
		return core.Identity{}, providerError(err)
	}
	return identity(res)
}

// SignUpWithEmail implements ports.AuthProvider.
func (p *Provider) SignUpWithEmail(ctx context.Context, email, password string) (core.Identity, error) {
	res, err := p.rp.signUp(ctx, email, password)
	if err != nil {
		return core.Identity{}, providerError(err)
	}
	return identity(res)
}

// SignInWithFederatedProvider implements ports.AuthProvider. The credential
// comes from the external provider's own sign-in flow (for Google, the
// OAuth id_token or access_token).
func (p *Provider) SignInWithFederatedProvider(ctx context.Context, cred core.FederatedCredential) (core.Identity, error) {
	requestURI := cred.RequestURI
	if requestURI == "" {
		requestURI = defaultRequestURI
	}
	res, err := p.rp.verifyAssertion(ctx, AssertionBody(cred), requestURI)
	if err != nil {
		return core.Identity{}, providerError(err)
	}
	if res.ProviderID == "" {
		res.ProviderID = cred.ProviderID
	}
	return identity(res)
}

// AssertionBody encodes a federated credential as Identity Toolkit postBody.
func AssertionBody(cred core.FederatedCredential) string {
	v := url.Values{}
	v.Set("providerId", cred.ProviderID)
	if cred.IDToken != "" {
		v.Set("id_token", cred.IDToken)
	}
	if cred.AccessToken != "" {
		v.Set("access_token", cred.AccessToken)
	}
	return v.Encode()
}

// identity builds the session identity, taking the expiry from the token.
func identity(res tokenResult) (core.Identity, error) {
	claims, err := auth.ClaimsFromToken(res.IDToken)
	if err != nil {
		return core.Identity{}, err
	}
	uid := res.LocalID
	if uid == "" {
		uid = claims.UID
	}
	email := res.Email
	if email == "" {
		email = claims.Email
	}
	provider := res.ProviderID
	if claims.Provider != "" {
		provider = claims.Provider
	}
	return core.Identity{
		UID:          uid,
		Email:        email,
		Provider:     provider,
		IDToken:      res.IDToken,
		RefreshToken: res.RefreshToken,
		ExpiresAt:    claims.ExpiresAt,
	}, nil
}

func providerError(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Message != "" {
		return auth.ParseProviderReason(gerr.Message)
	}
	return err
}
