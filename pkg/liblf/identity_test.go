package liblf_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mdouchement/lostfound/internal/apitest"
	"github.com/mdouchement/lostfound/pkg/liblf"
	"github.com/stretchr/testify/assert"
)

func TestIdentity(t *testing.T) {
	backend := apitest.New([]byte("secret"))
	backend.AddAccount("owner@nowhere.lan", "password", "Owner")
	server := httptest.NewServer(backend.Engine())
	defer server.Close()

	identity := liblf.NewIdentity(http.DefaultClient, apitest.APIKey,
		apitest.IdentityEndpoint(server.URL), apitest.SecureTokenEndpoint(server.URL))
	ctx := context.Background()

	_, err := identity.SignIn(ctx, "owner@nowhere.lan", "wrong")
	assert.EqualError(t, err, "INVALID_PASSWORD")
	assert.Equal(t, http.StatusBadRequest, liblf.StatusCode(err))

	token, err := identity.SignIn(ctx, "owner@nowhere.lan", "password")
	assert.NoError(t, err)
	assert.True(t, token.Defined())
	assert.WithinDuration(t, time.Now().Add(time.Hour), token.Expiration, 5*time.Second)

	claims, err := token.Claims()
	assert.NoError(t, err)
	assert.Equal(t, "owner@nowhere.lan", claims.Email)

	refreshed, err := identity.Refresh(ctx, token.RefreshToken)
	assert.NoError(t, err)
	assert.NotEqual(t, token.RefreshToken, refreshed.RefreshToken)

	_, err = identity.Refresh(ctx, token.RefreshToken)
	assert.EqualError(t, err, "INVALID_REFRESH_TOKEN")

	_, err = identity.SignUp(ctx, "owner@nowhere.lan", "password")
	assert.EqualError(t, err, "EMAIL_EXISTS")

	token, err = identity.SignUp(ctx, "finder@nowhere.lan", "secret-password")
	assert.NoError(t, err)

	token, err = identity.UpdateProfile(ctx, token.IDToken, "Finder", "https://nowhere.lan/finder.png")
	assert.NoError(t, err)

	claims, err = token.Claims()
	assert.NoError(t, err)
	assert.Equal(t, "Finder", claims.Name)
	assert.Equal(t, "https://nowhere.lan/finder.png", claims.Picture)
}
