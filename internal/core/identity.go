package core

import "time"

// Identity is the signed-in user as reported by the auth provider.
type Identity struct {
	UID          string    `json:"uid" yaml:"uid"`
	Email        string    `json:"email" yaml:"email"`
	Provider     string    `json:"provider" yaml:"provider"`
	IDToken      string    `json:"idToken" yaml:"-"`
	RefreshToken string    `json:"refreshToken,omitempty" yaml:"-"`
	ExpiresAt    time.Time `json:"expiresAt" yaml:"expiresAt"`
}

// Expired reports whether the identity token is past its expiry at now.
// A zero ExpiresAt never expires.
func (i Identity) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && !now.Before(i.ExpiresAt)
}

// FederatedCredential is the token obtained from an external identity
// provider (for example "google.com") and exchanged for a session.
type FederatedCredential struct {
	ProviderID  string
	IDToken     string
	AccessToken string
	RequestURI  string
}
