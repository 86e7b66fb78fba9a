package auth

import (
	"errors"
	"strings"
)

var (
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrWeakPassword        = errors.New("password should be at least 6 characters")
	ErrInvalidEmail        = errors.New("invalid email address")
	ErrEmailExists         = errors.New("email already registered")
	ErrNotSignedIn         = errors.New("not signed in")
	ErrUnsupportedProvider = errors.New("sign-in provider not supported")
	ErrInvalidToken        = errors.New("invalid or expired token")
)

// ProviderError is a failure reported by the auth provider. Code is the
// provider's own reason, for example "EMAIL_NOT_FOUND".
type ProviderError struct {
	Code    string
	Message string
}

func (e *ProviderError) Error() string {
	if e.Message == "" || e.Message == e.Code {
		return "auth provider: " + e.Code
	}
	return "auth provider: " + e.Code + ": " + e.Message
}

// Is maps provider reasons onto the package sentinels.
func (e *ProviderError) Is(target error) bool {
	switch target {
	case ErrInvalidCredentials:
		switch e.Code {
		case "EMAIL_NOT_FOUND", "INVALID_PASSWORD", "INVALID_LOGIN_CREDENTIALS", "USER_DISABLED":
			return true
		}
	case ErrEmailExists:
		return e.Code == "EMAIL_EXISTS"
	case ErrWeakPassword:
		return e.Code == "WEAK_PASSWORD"
	case ErrInvalidEmail:
		return e.Code == "INVALID_EMAIL" || e.Code == "MISSING_EMAIL"
	case ErrInvalidToken:
		return e.Code == "INVALID_ID_TOKEN" || e.Code == "TOKEN_EXPIRED" || e.Code == "INVALID_IDP_RESPONSE"
	}
	return false
}

// ParseProviderReason splits a provider message such as
// "WEAK_PASSWORD : Password should be at least 6 characters".
func ParseProviderReason(msg string) *ProviderError {
	code, detail, _ := strings.Cut(msg, ":")
	return &ProviderError{Code: strings.TrimSpace(code), Message: strings.TrimSpace(detail)}
}

// Message returns the plain text shown to the user for an auth failure.
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrWeakPassword):
		return "Password should be at least 6 characters."
	case errors.Is(err, ErrInvalidEmail):
		return "Please enter a valid email address."
	case errors.Is(err, ErrInvalidCredentials):
		return "Incorrect email or password."
	case errors.Is(err, ErrEmailExists):
		return "An account with this email already exists."
	case errors.Is(err, ErrNotSignedIn):
		return "Please sign in first."
	case errors.Is(err, ErrInvalidToken):
		return "Your session has expired. Please sign in again."
	case errors.Is(err, ErrUnsupportedProvider):
		return "This sign-in method is not available."
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		if pe.Code == "TOO_MANY_ATTEMPTS_TRY_LATER" {
			return "Too many attempts. Try again later."
		}
		if pe.Message != "" {
			return pe.Message
		}
		return strings.ReplaceAll(strings.ToLower(pe.Code), "_", " ")
	}
	return "Authentication failed. Please try again."
}
