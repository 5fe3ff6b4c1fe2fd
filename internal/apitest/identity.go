package apitest

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
)

// identityError renders the identity provider error format.
func identityError(c echo.Context, code int, message string) error {
	return c.JSON(code, echo.Map{
		"error": echo.Map{
			"code":    code,
			"message": message,
		},
	})
}

// Accounts handles POST /identity/v1/accounts:<method>.
func (b *Backend) Accounts(c echo.Context) error {
	if c.QueryParam("key") != APIKey {
		return identityError(c, http.StatusBadRequest, "API_KEY_INVALID")
	}

	var params struct {
		Email       string `json:"email"`
		Password    string `json:"password"`
		IDToken     string `json:"idToken"`
		DisplayName string `json:"displayName"`
		PhotoURL    string `json:"photoUrl"`
	}
	if err := c.Bind(&params); err != nil {
		return identityError(c, http.StatusBadRequest, "INVALID_JSON_PAYLOAD")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	var a *account
	switch c.Param("*") {
	case "accounts:signInWithPassword":
		var ok bool
		a, ok = b.accounts[params.Email]
		if !ok {
			return identityError(c, http.StatusBadRequest, "EMAIL_NOT_FOUND")
		}
		if a.Password != params.Password {
			return identityError(c, http.StatusBadRequest, "INVALID_PASSWORD")
		}
	case "accounts:signUp":
		if _, ok := b.accounts[params.Email]; ok {
			return identityError(c, http.StatusBadRequest, "EMAIL_EXISTS")
		}
		if len(params.Password) < 6 {
			return identityError(c, http.StatusBadRequest, "WEAK_PASSWORD : Password should be at least 6 characters")
		}
		a = &account{
			UID:      newID(),
			Email:    params.Email,
			Password: params.Password,
		}
		b.accounts[a.Email] = a
	case "accounts:update":
		claims, err := b.verify(params.IDToken)
		if err != nil {
			return identityError(c, http.StatusBadRequest, "INVALID_ID_TOKEN")
		}
		var ok bool
		a, ok = b.accounts[claims.Email]
		if !ok {
			return identityError(c, http.StatusBadRequest, "USER_NOT_FOUND")
		}
		a.Name = params.DisplayName
		a.PhotoURL = params.PhotoURL
	default:
		return identityError(c, http.StatusNotFound, "NOT_FOUND")
	}

	id, refresh, err := b.issue(a)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{
		"localId":      a.UID,
		"email":        a.Email,
		"displayName":  a.Name,
		"idToken":      id,
		"refreshToken": refresh,
		"expiresIn":    strconv.Itoa(int(b.ttl.Seconds())),
	})
}

// RefreshToken handles POST /securetoken/v1/token.
func (b *Backend) RefreshToken(c echo.Context) error {
	if c.QueryParam("key") != APIKey {
		return identityError(c, http.StatusBadRequest, "API_KEY_INVALID")
	}
	if c.FormValue("grant_type") != "refresh_token" {
		return identityError(c, http.StatusBadRequest, "INVALID_GRANT_TYPE")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	email, ok := b.refresh[c.FormValue("refresh_token")]
	if !ok {
		return identityError(c, http.StatusBadRequest, "INVALID_REFRESH_TOKEN")
	}
	delete(b.refresh, c.FormValue("refresh_token"))

	a := b.accounts[email]
	id, refresh, err := b.issue(a)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{
		"user_id":       a.UID,
		"id_token":      id,
		"refresh_token": refresh,
		"expires_in":    strconv.Itoa(int(b.ttl.Seconds())),
	})
}

// issue must be called with the lock held.
func (b *Backend) issue(a *account) (id, refresh string, err error) {
	id, err = b.sign(a, time.Now().Add(b.ttl))
	if err != nil {
		return "", "", err
	}

	refresh = newID()
	b.refresh[refresh] = a.Email
	return id, refresh, nil
}
