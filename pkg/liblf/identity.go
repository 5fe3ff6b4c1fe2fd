package liblf

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	// IdentityEndpoint is the default identity provider endpoint.
	IdentityEndpoint = "https://identitytoolkit.googleapis.com/v1"
	// SecureTokenEndpoint is the default endpoint used to refresh ID tokens.
	SecureTokenEndpoint = "https://securetoken.googleapis.com/v1"
)

type (
	// An Identity defines all interactions that can be performed on the identity provider.
	Identity interface {
		// SignIn authenticates a user with its email and password.
		SignIn(ctx context.Context, email, password string) (Token, error)
		// SignUp creates an account with the given email and password.
		SignUp(ctx context.Context, email, password string) (Token, error)
		// UpdateProfile sets the display name and photo of the account owning the ID token.
		UpdateProfile(ctx context.Context, idToken, name, photoURL string) (Token, error)
		// Refresh exchanges a refresh token for a new pair of tokens.
		Refresh(ctx context.Context, refreshToken string) (Token, error)
	}

	identity struct {
		http          *http.Client
		apiKey        string
		endpoint      string
		tokenEndpoint string
	}

	// Shape of the accounts:* responses.
	accountResponse struct {
		IDToken      string `json:"idToken"`
		RefreshToken string `json:"refreshToken"`
		ExpiresIn    string `json:"expiresIn"`
	}

	// Shape of the token refresh response.
	refreshResponse struct {
		IDToken      string `json:"id_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    string `json:"expires_in"`
	}
)

// NewDefaultIdentity returns a new Identity on the public endpoints with default HTTP client.
func NewDefaultIdentity(apiKey string) Identity {
	return NewIdentity(http.DefaultClient, apiKey, IdentityEndpoint, SecureTokenEndpoint)
}

// NewIdentity returns a new Identity.
func NewIdentity(c *http.Client, apiKey, endpoint, tokenEndpoint string) Identity {
	return &identity{
		http:          c,
		apiKey:        apiKey,
		endpoint:      strings.TrimSuffix(endpoint, "/"),
		tokenEndpoint: strings.TrimSuffix(tokenEndpoint, "/"),
	}
}

func (c *identity) SignIn(ctx context.Context, email, password string) (Token, error) {
	return c.account(ctx, "accounts:signInWithPassword", p{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	})
}

func (c *identity) SignUp(ctx context.Context, email, password string) (Token, error) {
	return c.account(ctx, "accounts:signUp", p{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	})
}

func (c *identity) UpdateProfile(ctx context.Context, idToken, name, photoURL string) (Token, error) {
	return c.account(ctx, "accounts:update", p{
		"idToken":           idToken,
		"displayName":       name,
		"photoUrl":          photoURL,
		"returnSecureToken": true,
	})
}

func (c *identity) account(ctx context.Context, method string, payload p) (Token, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Token{}, errors.Wrap(err, "could not serialize credentials")
	}

	//
	// Build request
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(c.endpoint, method), bytes.NewReader(body))
	if err != nil {
		return Token{}, errors.Wrap(err, "could not build request")
	}
	req.Header.Add("Content-Type", "application/json")
	req.Header.Add("Accept", "application/json")

	//
	// Perform request
	var account accountResponse
	if err = c.perform(req, &account); err != nil {
		return Token{}, err
	}

	return newToken(account.IDToken, account.RefreshToken, account.ExpiresIn)
}

func (c *identity) Refresh(ctx context.Context, refreshToken string) (Token, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)

	//
	// Build request
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(c.tokenEndpoint, "token"), strings.NewReader(form.Encode()))
	if err != nil {
		return Token{}, errors.Wrap(err, "could not build request")
	}
	req.Header.Add("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Add("Accept", "application/json")

	//
	// Perform request
	var refresh refreshResponse
	if err = c.perform(req, &refresh); err != nil {
		return Token{}, err
	}

	return newToken(refresh.IDToken, refresh.RefreshToken, refresh.ExpiresIn)
}

func (c *identity) url(endpoint, method string) string {
	query := url.Values{}
	query.Set("key", c.apiKey)
	return endpoint + "/" + method + "?" + query.Encode()
}

func (c *identity) perform(req *http.Request, v any) error {
	res, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "could not perform request")
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		return parseLFError(res.Body, res.StatusCode)
	}

	//
	// Process response
	dec := json.NewDecoder(res.Body)
	return errors.Wrap(dec.Decode(v), "could not parse response")
}

func newToken(id, refresh, expiresIn string) (Token, error) {
	seconds, err := strconv.Atoi(expiresIn)
	if err != nil {
		return Token{}, errors.Wrapf(err, "invalid token lifetime %q", expiresIn)
	}

	return Token{
		IDToken:      id,
		RefreshToken: refresh,
		Expiration:   time.Now().Add(time.Duration(seconds) * time.Second).UTC(),
	}, nil
}
