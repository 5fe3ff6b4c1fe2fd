package liblf_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mdouchement/lostfound/pkg/liblf"
	"github.com/stretchr/testify/assert"
)

func TestStaticToken(t *testing.T) {
	token, err := liblf.StaticToken("id-token").IDToken(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, "id-token", token)

	_, err = liblf.StaticToken("").IDToken(context.Background())
	assert.ErrorIs(t, err, liblf.ErrNotSignedIn)
}

func TestTokenExpiration(t *testing.T) {
	now := time.Now()
	token := liblf.Token{
		IDToken:      "id",
		RefreshToken: "refresh",
		Expiration:   now.Add(time.Minute),
	}

	assert.True(t, token.Defined())
	assert.False(t, token.ExpiredAt(now))
	assert.True(t, token.ExpiredAt(now.Add(2*time.Minute)))
	assert.True(t, liblf.Token{}.Expired())
}

func TestParseClaims(t *testing.T) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":     "uid-42",
		"email":   "owner@nowhere.lan",
		"name":    "Owner",
		"picture": "https://nowhere.lan/owner.png",
	}).SignedString([]byte("whatever"))
	assert.NoError(t, err)

	claims, err := liblf.ParseClaims(signed)
	assert.NoError(t, err)
	assert.Equal(t, "uid-42", claims.UserID)
	assert.Equal(t, "owner@nowhere.lan", claims.Email)
	assert.Equal(t, "Owner", claims.Name)
	assert.Equal(t, "https://nowhere.lan/owner.png", claims.Picture)

	_, err = liblf.ParseClaims("garbage")
	assert.Error(t, err)
}
