package apitest

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/mdouchement/lostfound/pkg/liblf"
)

const sessionCookie = "lf_session"

// ListHighlights handles GET /highlights.
func (b *Backend) ListHighlights(c echo.Context) error {
	b.mu.Lock()
	highlights := append([]liblf.Highlight{}, b.highlights...)
	b.mu.Unlock()

	return c.JSON(http.StatusOK, highlights)
}

// Login handles POST /users/firebase-login.
// The ID token is checked and a session cookie is issued.
func (b *Backend) Login(c echo.Context) error {
	token := bearer(c.Request().Header.Get(echo.HeaderAuthorization))
	claims, err := b.verify(token)
	if err != nil {
		return NewError(http.StatusUnauthorized, "Invalid ID token")
	}

	session := newID()
	b.mu.Lock()
	b.sessions[session] = claims.Email
	b.mu.Unlock()

	c.SetCookie(&http.Cookie{
		Name:     sessionCookie,
		Value:    session,
		Path:     "/",
		HttpOnly: true,
	})

	return c.JSON(http.StatusOK, liblf.Profile{
		UID:       claims.UserID,
		Email:     claims.Email,
		Name:      claims.Name,
		PhotoURL:  claims.Picture,
		LastLogin: liblf.NewDate(time.Now().UTC()),
	})
}

// Logout handles POST /users/logout.
func (b *Backend) Logout(c echo.Context) error {
	if cookie, err := c.Cookie(sessionCookie); err == nil {
		b.mu.Lock()
		delete(b.sessions, cookie.Value)
		b.mu.Unlock()
	}

	c.SetCookie(&http.Cookie{
		Name:    sessionCookie,
		Value:   "",
		Path:    "/",
		MaxAge:  -1,
		Expires: time.Unix(0, 0),
	})
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// Sessions returns the number of opened backend sessions.
func (b *Backend) Sessions() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.sessions)
}
