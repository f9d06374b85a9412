package identity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthState_AwaitBlocksUntilFirstEmission(t *testing.T) {
	state := NewAuthState()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := state.Await(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	go state.Set(context.Background(), &AuthUser{UID: "u1"})

	user, err := state.Await(context.Background())
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "u1", user.UID)
}

func TestAuthState_SignedOutResolves(t *testing.T) {
	state := NewAuthState()
	state.Set(context.Background(), nil)

	user, err := state.Await(context.Background())
	require.NoError(t, err)
	assert.Nil(t, user)
	assert.True(t, state.Resolved())
}

func TestAuthState_SubscribeReplaysResolvedState(t *testing.T) {
	ctx := context.Background()
	state := NewAuthState()

	var early []string
	state.Subscribe(ctx, func(_ context.Context, u *AuthUser) {
		if u == nil {
			early = append(early, "out")
			return
		}
		early = append(early, u.UID)
	})
	assert.Empty(t, early)

	state.Set(ctx, &AuthUser{UID: "u1"})

	var late []string
	unsubscribe := state.Subscribe(ctx, func(_ context.Context, u *AuthUser) {
		if u == nil {
			late = append(late, "out")
			return
		}
		late = append(late, u.UID)
	})
	unsubscribe()
	state.Set(ctx, nil)

	assert.Equal(t, []string{"u1", "out"}, early)
	assert.Equal(t, []string{"u1"}, late)
}
