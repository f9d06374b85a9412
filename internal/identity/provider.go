// Package identity wraps the external identity provider and the per-session
// auth-state stream built on top of it.
package identity

import (
	"context"
	"errors"
)

var (
	// ErrInvalidCredentials means the account does not exist or the password is wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNetwork means the provider could not be reached.
	ErrNetwork = errors.New("identity provider unreachable")
	// ErrEmailExists is returned by CreateAccount for a taken address.
	ErrEmailExists = errors.New("email already in use")
	// ErrInvalidToken is returned by VerifyIDToken.
	ErrInvalidToken = errors.New("invalid or expired ID token")
	// ErrUserNotFound is returned by LookupUser.
	ErrUserNotFound = errors.New("identity user not found")
)

// AuthUser is the provider-side view of a signed-in account.
type AuthUser struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	IDToken     string `json:"-"` // Set only by SignIn
}

// Provider is the subset of identity provider operations the application uses.
type Provider interface {
	// Ready is the "auth ready" health probe.
	Ready(ctx context.Context) error
	CreateAccount(ctx context.Context, email, password string) (*AuthUser, error)
	UpdateDisplayName(ctx context.Context, uid, displayName string) error
	SignIn(ctx context.Context, email, password string) (*AuthUser, error)
	// SignOut revokes the account's refresh tokens.
	SignOut(ctx context.Context, uid string) error
	LookupUser(ctx context.Context, uid string) (*AuthUser, error)
	VerifyIDToken(ctx context.Context, idToken string) (*AuthUser, error)
}
