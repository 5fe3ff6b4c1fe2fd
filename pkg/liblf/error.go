package liblf

import (
	"io"
	"net/http"

	"github.com/pkg/errors"
	"github.com/valyala/fastjson"
)

// ErrNotSignedIn is returned when an authenticated call is performed without session.
var ErrNotSignedIn = errors.New("not signed in")

// An LFError reprensents an HTTP error returned by the backend or the identity provider.
type LFError struct {
	StatusCode int
	Message    string
}

func parseLFError(r io.Reader, code int) error {
	body, err := io.ReadAll(io.LimitReader(r, 1<<20))
	if err != nil {
		return &LFError{StatusCode: code}
	}
	return &LFError{StatusCode: code, Message: errorMessage(body)}
}

// errorMessage extracts the message from the error bodies seen in the wild:
// {"message":"..."}, {"error":{"message":"..."}} and {"error":"..."}.
func errorMessage(body []byte) string {
	v, err := fastjson.ParseBytes(body)
	if err != nil {
		return ""
	}

	if m := v.GetStringBytes("message"); len(m) > 0 {
		return string(m)
	}
	if m := v.GetStringBytes("error", "message"); len(m) > 0 {
		return string(m)
	}
	if m := v.GetStringBytes("error"); len(m) > 0 {
		return string(m)
	}
	return ""
}

func (e *LFError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return http.StatusText(e.StatusCode)
}

// StatusCode returns the HTTP status code of the given error, 0 if it does not come from a response.
func StatusCode(err error) int {
	var lferr *LFError
	if errors.As(err, &lferr) {
		return lferr.StatusCode
	}
	return 0
}

// Message returns the server-provided message of the given error, empty if none.
func Message(err error) string {
	var lferr *LFError
	if errors.As(err, &lferr) {
		return lferr.Message
	}
	return ""
}

// IsNotFound returns true if err is a not found response.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// IsUnauthorized returns true if err is caused by a missing or rejected authentication.
func IsUnauthorized(err error) bool {
	if errors.Is(err, ErrNotSignedIn) {
		return true
	}
	code := StatusCode(err)
	return code == http.StatusUnauthorized || code == http.StatusForbidden
}
