package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryProvider_SignInFlow(t *testing.T) {
	ctx := context.Background()
	p := NewMemoryProvider()

	created, err := p.CreateAccount(ctx, "ann@example.com", "secret1")
	require.NoError(t, err)
	require.NoError(t, p.UpdateDisplayName(ctx, created.UID, "Ann"))

	_, err = p.CreateAccount(ctx, "ANN@example.com", "other")
	assert.ErrorIs(t, err, ErrEmailExists)

	_, err = p.SignIn(ctx, "ann@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = p.SignIn(ctx, "nobody@example.com", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	user, err := p.SignIn(ctx, "ann@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "Ann", user.DisplayName)
	require.NotEmpty(t, user.IDToken)

	verified, err := p.VerifyIDToken(ctx, user.IDToken)
	require.NoError(t, err)
	assert.Equal(t, created.UID, verified.UID)

	require.NoError(t, p.SignOut(ctx, created.UID))
	_, err = p.VerifyIDToken(ctx, user.IDToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestMemoryProvider_Unreachable(t *testing.T) {
	ctx := context.Background()
	p := NewMemoryProvider()
	p.SetReachable(false)

	assert.ErrorIs(t, p.Ready(ctx), ErrNetwork)
	_, err := p.SignIn(ctx, "a@b.c", "x")
	assert.ErrorIs(t, err, ErrNetwork)

	p.SetReachable(true)
	assert.NoError(t, p.Ready(ctx))
}
