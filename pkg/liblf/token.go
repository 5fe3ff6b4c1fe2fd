package liblf

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

type (
	// A TokenSource provides the ID token sent as bearer on authenticated calls.
	// It is called for each request so an expired token can be refreshed in between.
	TokenSource interface {
		IDToken(ctx context.Context) (string, error)
	}

	// A StaticToken is a TokenSource always returning the same token.
	StaticToken string

	// A Token is the pair of tokens issued by the identity provider.
	Token struct {
		IDToken      string    `json:"id_token"`
		RefreshToken string    `json:"refresh_token"`
		Expiration   time.Time `json:"expiration"`
	}

	// Claims are the identity fields carried by an ID token.
	Claims struct {
		UserID  string `json:"user_id"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
		jwt.RegisteredClaims
	}
)

// IDToken implements TokenSource.
func (t StaticToken) IDToken(context.Context) (string, error) {
	if t == "" {
		return "", ErrNotSignedIn
	}
	return string(t), nil
}

// Defined returns true if token's fields are defined.
func (t Token) Defined() bool {
	return t.IDToken != "" && t.RefreshToken != "" && !t.Expiration.IsZero()
}

// ExpiredAt returns true if the ID token is expired at the given time.
func (t Token) ExpiredAt(at time.Time) bool {
	return !t.Defined() || at.After(t.Expiration)
}

// Expired returns true if the ID token is expired.
func (t Token) Expired() bool {
	return t.ExpiredAt(time.Now())
}

// Claims returns the identity carried by the ID token.
func (t Token) Claims() (*Claims, error) {
	return ParseClaims(t.IDToken)
}

// ParseClaims decodes the claims of the given ID token.
// The signature is not verified, that is the job of the backend.
func ParseClaims(idToken string) (*Claims, error) {
	claims := new(Claims)
	_, _, err := jwt.NewParser().ParseUnverified(idToken, claims)
	if err != nil {
		return nil, errors.Wrap(err, "could not parse ID token")
	}

	if claims.UserID == "" {
		claims.UserID = claims.Subject
	}
	return claims, nil
}
