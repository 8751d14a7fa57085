package identity

import (
	"context"
	stderrors "errors"
	"testing"

	"firebase.google.com/go/v4/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gokeyring "github.com/zalando/go-keyring"

	"github.com/julianstephens/habitkeeper/internal/errors"
)

type fakeVerifier struct {
	uid string
	err error
}

func (f fakeVerifier) VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &auth.Token{UID: f.uid}, nil
}

type failingProvider struct{}

func (failingProvider) UID(ctx context.Context) (string, error) {
	return "", stderrors.New("boom")
}

func TestResolverChain(t *testing.T) {
	gokeyring.MockInit()
	ctx := context.Background()

	_, err := NewResolver(Static(""), Keyring{}).Current(ctx)
	assert.ErrorIs(t, err, errors.ErrNotAuthenticated)

	require.NoError(t, gokeyring.Set("habitkeeper", "session-uid", "from-keyring"))
	uid, err := NewResolver(Static(""), Keyring{}).Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "from-keyring", uid)

	uid, err = NewResolver(Static("from-flag"), Keyring{}).Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "from-flag", uid)

	uid, err = NewResolver(failingProvider{}, Keyring{}).Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "from-keyring", uid)
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("plain uid", func(t *testing.T) {
		gokeyring.MockInit()
		uid, err := Login(ctx, " u1 ", "", nil)
		require.NoError(t, err)
		assert.Equal(t, "u1", uid)

		got, err := Keyring{}.UID(ctx)
		require.NoError(t, err)
		assert.Equal(t, "u1", got)
	})

	t.Run("verified token wins over uid", func(t *testing.T) {
		gokeyring.MockInit()
		uid, err := Login(ctx, "ignored", "token", fakeVerifier{uid: "firebase-uid"})
		require.NoError(t, err)
		assert.Equal(t, "firebase-uid", uid)
	})

	t.Run("rejected token", func(t *testing.T) {
		gokeyring.MockInit()
		_, err := Login(ctx, "", "token", fakeVerifier{err: stderrors.New("expired")})
		assert.ErrorIs(t, err, errors.ErrNotAuthenticated)

		got, _ := Keyring{}.UID(ctx)
		assert.Equal(t, "", got)
	})

	t.Run("nothing supplied", func(t *testing.T) {
		gokeyring.MockInit()
		_, err := Login(ctx, "", "", nil)
		assert.ErrorIs(t, err, errors.ErrInvalidInput)
	})
}

func TestLogout(t *testing.T) {
	gokeyring.MockInit()
	ctx := context.Background()

	_, err := Login(ctx, "u1", "", nil)
	require.NoError(t, err)
	require.NoError(t, Logout())
	require.NoError(t, Logout())

	_, err = NewResolver(Keyring{}).Current(ctx)
	assert.ErrorIs(t, err, errors.ErrNotAuthenticated)
}
