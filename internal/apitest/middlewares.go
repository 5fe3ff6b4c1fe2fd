package apitest

import (
	"net/http"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/mdouchement/lostfound/pkg/liblf"
	"github.com/pkg/errors"
)

// currentUserContextKey is the key to retrieve the current user claims from echo.Context.
const currentUserContextKey = "current_user"

type (
	// An Error represents an error rendered by the backend.
	Error struct {
		Code    int    `json:"-"`
		Message string `json:"message"`
	}

	binder struct {
		echo.DefaultBinder
		methodsWithBody map[string]bool
	}
)

// NewError returns a new Error with the given code and message.
func NewError(code int, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Error implements error interface.
func (e *Error) Error() string {
	return e.Message
}

// NewBinder returns a wrapp of the default binder implementation with extra checks.
func NewBinder() echo.Binder {
	return &binder{
		methodsWithBody: map[string]bool{
			http.MethodPost:  true,
			http.MethodPatch: true,
			http.MethodPut:   true,
		},
	}
}

// Bind implements the echo.Bind interface.
func (b *binder) Bind(i any, c echo.Context) (err error) {
	if c.Request().ContentLength == 0 && b.methodsWithBody[c.Request().Method] {
		return echo.NewHTTPError(http.StatusBadRequest, "Request body can't be empty")
	}
	return b.DefaultBinder.Bind(i, c)
}

// HTTPErrorHandler is a middleware that formats rendered errors.
func (b *Backend) HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var apierr *Error
	var httperr *echo.HTTPError
	switch {
	case errors.As(err, &apierr):
		_ = c.JSON(apierr.Code, apierr)
	case errors.As(err, &httperr):
		_ = c.JSON(httperr.Code, echo.Map{
			"message": httperr.Message,
		})
	default:
		id := uuid.Must(uuid.NewV4()).String()
		b.log.WithField("id", id).Errorf("unexpected error: %s", err)

		_ = c.JSON(http.StatusInternalServerError, echo.Map{
			"message": "Unexpected error (id: " + id + ")",
		})
	}
}

// authenticate checks the bearer ID token and stores its claims into echo.Context.
func (b *Backend) authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := bearer(c.Request().Header.Get(echo.HeaderAuthorization))
		if token == "" {
			return NewError(http.StatusUnauthorized, "Unauthorized access")
		}

		claims, err := b.verify(token)
		if err != nil {
			return NewError(http.StatusUnauthorized, "Unauthorized access")
		}

		c.Set(currentUserContextKey, claims)
		return next(c)
	}
}

func currentUser(c echo.Context) *liblf.Claims {
	claims, ok := c.Get(currentUserContextKey).(*liblf.Claims)
	if ok {
		return claims
	}
	return nil
}

func bearer(authorization string) string {
	parts := strings.Split(authorization, " ")
	if strings.ToLower(parts[0]) != "bearer" {
		return ""
	}

	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}

////////////////////
//                //
// ID tokens      //
//                //
////////////////////

func (b *Backend) sign(a *account, expiration time.Time) (string, error) {
	claims := liblf.Claims{
		UserID:  a.UID,
		Email:   a.Email,
		Name:    a.Name,
		Picture: a.PhotoURL,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "apitest",
			Subject:   a.UID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expiration),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(b.secret)
	return token, errors.Wrap(err, "could not sign ID token")
}

func (b *Backend) verify(token string) (*liblf.Claims, error) {
	claims := new(liblf.Claims)
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return b.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, errors.Wrap(err, "invalid ID token")
	}
	return claims, nil
}
