package auth

import (
	"context"
	"testing"

	domainauth "github.com/socialadify/adify-console/internal/domain/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryKV_SetGetDelete(t *testing.T) {
	kv := NewMemoryKV()
	ctx := context.Background()

	_, ok, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, kv.Set(ctx, "k", "v"))
	v, ok, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)

	require.NoError(t, kv.Delete(ctx, "k"))
	require.NoError(t, kv.Delete(ctx, "k"))
	assert.Empty(t, kv.Snapshot())
}

func TestMemoryKV_InjectedFailures(t *testing.T) {
	kv := NewMemoryKV()
	kv.FailGet = ErrStorageDown
	kv.FailSet = ErrStorageDown
	ctx := context.Background()

	_, _, err := kv.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrStorageDown)
	assert.ErrorIs(t, kv.Set(ctx, "k", "v"), ErrStorageDown)
	assert.NoError(t, kv.Delete(ctx, "k"))
}

func TestFakeGateway_LoginAndFetch(t *testing.T) {
	g := NewFakeGateway()
	g.AddAccount("Str0ng!pass", domainauth.User{ID: "1", Email: "ada@example.com"})
	ctx := context.Background()

	_, err := g.Login(ctx, domainauth.Credentials{Email: "ada@example.com", Password: "wrong"})
	assert.Equal(t, domainauth.KindInvalidCredentials, domainauth.KindOf(err))

	tok, err := g.Login(ctx, domainauth.Credentials{Email: "ADA@example.com", Password: "Str0ng!pass"})
	require.NoError(t, err)

	u, err := g.FetchCurrentUser(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, "1", u.ID)

	g.RevokeToken(tok)
	_, err = g.FetchCurrentUser(ctx, tok)
	assert.True(t, domainauth.IsUnauthorized(err))
	assert.Equal(t, 2, g.Calls("FetchCurrentUser"))
	assert.Equal(t, 2, g.Calls("Login"))
}

func TestFakeGateway_SignupConflict(t *testing.T) {
	g := NewFakeGateway()
	ctx := context.Background()
	in := domainauth.SignupInput{Email: "new@example.com", Password: "Str0ng!pass", FirstName: "N", LastName: "U"}

	_, err := g.Signup(ctx, in)
	require.NoError(t, err)
	_, err = g.Signup(ctx, in)
	assert.Equal(t, domainauth.KindConflict, domainauth.KindOf(err))
}
