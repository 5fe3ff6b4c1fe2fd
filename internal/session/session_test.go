package session_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mdouchement/lostfound/internal/apitest"
	"github.com/mdouchement/lostfound/internal/session"
	"github.com/mdouchement/lostfound/pkg/liblf"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*apitest.Backend, *session.Session, liblf.Client, func()) {
	backend := apitest.New([]byte("secret"))
	backend.AddAccount("owner@nowhere.lan", "Password", "Owner")

	server := httptest.NewServer(backend.Engine())
	client, err := liblf.NewDefaultClient(server.URL)
	require.NoError(t, err)

	identity := liblf.NewIdentity(http.DefaultClient, apitest.APIKey,
		apitest.IdentityEndpoint(server.URL), apitest.SecureTokenEndpoint(server.URL))

	log, _ := test.NewNullLogger()
	return backend, session.New(identity, client, log), client, server.Close
}

func TestSessionAnonymous(t *testing.T) {
	_, s, client, cleanup := setup(t)
	defer cleanup()

	assert.NoError(t, s.Start(context.Background(), liblf.Token{}))
	assert.False(t, s.SignedIn())
	assert.Equal(t, "", s.Email())

	_, err := s.IDToken(context.Background())
	assert.ErrorIs(t, err, liblf.ErrNotSignedIn)

	_, err = client.Recoveries(context.Background())
	assert.True(t, liblf.IsUnauthorized(err))
}

func TestSessionSignInOut(t *testing.T) {
	backend, s, client, cleanup := setup(t)
	defer cleanup()
	ctx := context.Background()

	var events []session.Event
	unsubscribe := s.Subscribe(func(e session.Event, profile liblf.Profile) {
		events = append(events, e)
		assert.Equal(t, "owner@nowhere.lan", profile.Email)
	})

	_, err := s.SignIn(ctx, "owner@nowhere.lan", "wrong")
	assert.EqualError(t, err, "could not sign in: INVALID_PASSWORD")
	assert.False(t, s.SignedIn())

	profile, err := s.SignIn(ctx, "owner@nowhere.lan", "Password")
	require.NoError(t, err)
	assert.Equal(t, "Owner", profile.Name)
	assert.NotEmpty(t, profile.UID)
	assert.True(t, s.SignedIn())
	assert.Equal(t, "owner@nowhere.lan", s.Email())
	assert.Equal(t, 1, backend.Sessions())

	user, ok := s.User()
	assert.True(t, ok)
	assert.Equal(t, profile, user)

	recoveries, err := client.Recoveries(ctx)
	assert.NoError(t, err)
	assert.Empty(t, recoveries)

	assert.NoError(t, s.SignOut(ctx))
	assert.False(t, s.SignedIn())
	assert.False(t, s.Token().Defined())
	assert.Equal(t, 0, backend.Sessions())
	assert.Equal(t, []session.Event{session.SignedIn, session.SignedOut}, events)

	unsubscribe()
	_, err = s.SignIn(ctx, "owner@nowhere.lan", "Password")
	assert.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestSessionRegister(t *testing.T) {
	_, s, _, cleanup := setup(t)
	defer cleanup()

	_, err := s.Register(context.Background(), "Owner", "owner@nowhere.lan", "Password", "")
	assert.EqualError(t, err, "could not register: EMAIL_EXISTS")

	profile, err := s.Register(context.Background(), "Finder", "finder@nowhere.lan", "Password", "https://nowhere.lan/finder.png")
	require.NoError(t, err)
	assert.Equal(t, "Finder", profile.Name)
	assert.Equal(t, "finder@nowhere.lan", profile.Email)
	assert.Equal(t, "https://nowhere.lan/finder.png", profile.PhotoURL)
}

func TestSessionRefresh(t *testing.T) {
	backend, s, _, cleanup := setup(t)
	defer cleanup()
	ctx := context.Background()

	backend.SetTokenTTL(10 * time.Second) // Shorter than the refresh margin
	_, err := s.SignIn(ctx, "owner@nowhere.lan", "Password")
	require.NoError(t, err)

	before := s.Token()
	_, err = s.IDToken(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, before.RefreshToken, s.Token().RefreshToken)
	assert.GreaterOrEqual(t, backend.Requests("POST /securetoken/v1/token"), 2)

	backend.SetTokenTTL(time.Hour)
	_, err = s.IDToken(ctx)
	require.NoError(t, err)

	requests := backend.Requests("POST /securetoken/v1/token")
	_, err = s.IDToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, requests, backend.Requests("POST /securetoken/v1/token"))
}

func TestSessionStart(t *testing.T) {
	_, s, _, cleanup := setup(t)
	defer cleanup()
	ctx := context.Background()

	_, err := s.SignIn(ctx, "owner@nowhere.lan", "Password")
	require.NoError(t, err)
	token := s.Token()

	_, restored, _, cleanup2 := setup(t)
	defer cleanup2()

	err = restored.Start(ctx, liblf.Token{IDToken: "garbage", RefreshToken: "garbage", Expiration: time.Now().Add(-time.Hour)})
	assert.Error(t, err)
	assert.False(t, restored.SignedIn())

	// The second backend does not know the first one's refresh token.
	expired := token
	expired.Expiration = time.Now().Add(-time.Minute)
	err = restored.Start(ctx, expired)
	assert.Error(t, err)
	assert.False(t, restored.Token().Defined())

	assert.NoError(t, s.Start(ctx, token))
	assert.True(t, s.SignedIn())
}
