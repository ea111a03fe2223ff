package session_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskmagic/internal/service"
	"taskmagic/internal/session"
)

type stubAuth struct {
	token string
	err   error
	calls int
}

func (a *stubAuth) Login(ctx context.Context, email, password string) (string, error) {
	a.calls++
	return a.token, a.err
}

func newStore(t *testing.T) *session.Store {
	t.Helper()
	return session.NewStore(filepath.Join(t.TempDir(), "nested", "token.json"))
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	store := newStore(t)

	require.NoError(t, store.Save(session.New("abc123")))
	require.True(t, store.Exists())

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	sess, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "abc123", sess.Token())
}

func TestStore_LoadMissing(t *testing.T) {
	_, err := newStore(t).Load()
	assert.ErrorIs(t, err, session.ErrNoSession)
}

func TestStore_LoadEmptyToken(t *testing.T) {
	store := newStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(store.Path()), 0700))
	require.NoError(t, os.WriteFile(store.Path(), []byte(`{"access_token":"  "}`), 0600))

	_, err := store.Load()
	assert.ErrorIs(t, err, session.ErrNoSession)
}

func TestStore_LoadCorrupt(t *testing.T) {
	store := newStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(store.Path()), 0700))
	require.NoError(t, os.WriteFile(store.Path(), []byte("not json"), 0600))

	_, err := store.Load()
	require.Error(t, err)
	assert.False(t, errors.Is(err, session.ErrNoSession))
}

func TestStore_Clear(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.Save(session.New("abc")))

	removed, err := store.Clear()
	require.NoError(t, err)
	assert.True(t, removed)
	assert.False(t, store.Exists())

	removed, err = store.Clear()
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestSession_TokenSource(t *testing.T) {
	tok, err := session.New("abc").TokenSource().Token()
	require.NoError(t, err)
	assert.Equal(t, "abc", tok.AccessToken)
	assert.Equal(t, "Bearer", tok.Type())
}

func TestLogin_PersistsToken(t *testing.T) {
	store := newStore(t)
	auth := &stubAuth{token: "tok-1"}

	sess, err := session.Login(context.Background(), auth, store, "suman@example.com", "123456")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", sess.Token())

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "tok-1", loaded.Token())
}

func TestLogin_FailureWritesNothing(t *testing.T) {
	store := newStore(t)
	auth := &stubAuth{err: service.ErrLoginFailed}

	_, err := session.Login(context.Background(), auth, store, "suman@example.com", "wrong")
	assert.ErrorIs(t, err, service.ErrLoginFailed)
	assert.Equal(t, 1, auth.calls)
	assert.False(t, store.Exists())
}
