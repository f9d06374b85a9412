package identity

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"firebase.google.com/go/v4/auth"
	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/identitytoolkit/v3"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// firebaseProvider uses the Admin SDK for account management and token checks,
// and the Identity Toolkit REST API for email/password sign-in.
type firebaseProvider struct {
	authClient *auth.Client
	toolkit    *identitytoolkit.Service
	logger     *zap.Logger
}

// NewFirebaseProvider creates a Provider. apiKey is the web API key of the Firebase project.
func NewFirebaseProvider(ctx context.Context, authClient *auth.Client, apiKey string, logger *zap.Logger) (Provider, error) {
	if authClient == nil {
		return nil, errors.New("firebase auth client is nil")
	}
	toolkit, err := identitytoolkit.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("identitytoolkit.NewService: %w", err)
	}
	return &firebaseProvider{authClient: authClient, toolkit: toolkit, logger: logger}, nil
}

// Ready lists at most one account; an empty project is still healthy.
func (p *firebaseProvider) Ready(ctx context.Context) error {
	iter := p.authClient.Users(ctx, "")
	if _, err := iter.Next(); err != nil && err != iterator.Done {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	return nil
}

func (p *firebaseProvider) CreateAccount(ctx context.Context, email, password string) (*AuthUser, error) {
	params := (&auth.UserToCreate{}).Email(email).Password(password)
	record, err := p.authClient.CreateUser(ctx, params)
	if err != nil {
		if auth.IsEmailAlreadyExists(err) {
			return nil, ErrEmailExists
		}
		return nil, p.classify("create account", err)
	}
	return fromUserInfo(record.UserInfo), nil
}

func (p *firebaseProvider) UpdateDisplayName(ctx context.Context, uid, displayName string) error {
	params := (&auth.UserToUpdate{}).DisplayName(displayName)
	if _, err := p.authClient.UpdateUser(ctx, uid, params); err != nil {
		return p.classify("update display name", err)
	}
	return nil
}

func (p *firebaseProvider) SignIn(ctx context.Context, email, password string) (*AuthUser, error) {
	req := &identitytoolkit.IdentitytoolkitRelyingpartyVerifyPasswordRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	}
	resp, err := p.toolkit.Relyingparty.VerifyPassword(req).Context(ctx).Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && isCredentialError(apiErr) {
			return nil, ErrInvalidCredentials
		}
		return nil, p.classify("sign in", err)
	}
	return &AuthUser{
		UID:         resp.LocalId,
		Email:       resp.Email,
		DisplayName: resp.DisplayName,
		IDToken:     resp.IdToken,
	}, nil
}

func (p *firebaseProvider) SignOut(ctx context.Context, uid string) error {
	if err := p.authClient.RevokeRefreshTokens(ctx, uid); err != nil {
		return p.classify("sign out", err)
	}
	return nil
}

func (p *firebaseProvider) LookupUser(ctx context.Context, uid string) (*AuthUser, error) {
	record, err := p.authClient.GetUser(ctx, uid)
	if err != nil {
		if auth.IsUserNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, p.classify("lookup user", err)
	}
	return fromUserInfo(record.UserInfo), nil
}

func (p *firebaseProvider) VerifyIDToken(ctx context.Context, idToken string) (*AuthUser, error) {
	// Tokens issued before SignOut revoked the refresh tokens are rejected too.
	token, err := p.authClient.VerifyIDTokenAndCheckRevoked(ctx, idToken)
	if err != nil {
		if auth.IsIDTokenRevoked(err) {
			p.logger.Debug("ID token revoked", zap.Error(err))
		} else {
			p.logger.Debug("ID token rejected", zap.Error(err))
		}
		return nil, ErrInvalidToken
	}
	user := &AuthUser{UID: token.UID}
	if email, ok := token.Claims["email"].(string); ok {
		user.Email = email
	}
	if name, ok := token.Claims["name"].(string); ok {
		user.DisplayName = name
	}
	return user, nil
}

func (p *firebaseProvider) classify(op string, err error) error {
	var netErr net.Error
	var urlErr *url.Error
	if errors.As(err, &netErr) || errors.As(err, &urlErr) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w: %v", op, ErrNetwork, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isCredentialError(apiErr *googleapi.Error) bool {
	for _, code := range []string{"EMAIL_NOT_FOUND", "INVALID_PASSWORD", "INVALID_LOGIN_CREDENTIALS", "INVALID_EMAIL"} {
		if strings.Contains(apiErr.Message, code) {
			return true
		}
	}
	return false
}

func fromUserInfo(info *auth.UserInfo) *AuthUser {
	if info == nil {
		return &AuthUser{}
	}
	return &AuthUser{UID: info.UID, Email: info.Email, DisplayName: info.DisplayName}
}
