package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"homegrid/internal/domain"
)

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	user, err := env.svc.Register(ctx, "alice", "alice@example.com", "secret-pass")
	require.NoError(t, err)
	require.NotEmpty(t, user.UserID)
	require.NotEmpty(t, user.PasswordHash)
	require.NotEqual(t, "secret-pass", user.PasswordHash)

	loggedIn, token, err := env.svc.Login(ctx, "alice", "secret-pass")
	require.NoError(t, err)
	require.Equal(t, user.UserID, loggedIn.UserID)
	require.NotEmpty(t, token)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.svc.Register(ctx, "alice", "alice@example.com", "secret-pass")
	require.NoError(t, err)

	_, err = env.svc.Register(ctx, "alice", "other@example.com", "secret-pass")
	require.ErrorIs(t, err, domain.ErrConflict)
}

func TestLoginBadCredentials(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.svc.Register(ctx, "alice", "alice@example.com", "secret-pass")
	require.NoError(t, err)

	// Unknown user and wrong password are indistinguishable.
	_, _, err = env.svc.Login(ctx, "nobody", "secret-pass")
	require.ErrorIs(t, err, domain.ErrUnauthorized)

	_, _, err = env.svc.Login(ctx, "alice", "wrong-pass")
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}
