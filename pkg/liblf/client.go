package liblf

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"path"

	"github.com/pkg/errors"
)

type (
	// A Client defines all interactions that can be performed on the lost-and-found backend.
	Client interface {
		// Items returns all the reported items. Filtering is done by the caller.
		Items(ctx context.Context) ([]Item, error)
		// Item returns the item for the given id.
		Item(ctx context.Context, id string) (Item, error)
		// CreateItem reports a new lost or found item.
		CreateItem(ctx context.Context, report ItemReport) (Item, error)
		// UpdateItem partially updates the item for the given id.
		UpdateItem(ctx context.Context, id string, patch ItemPatch) (Item, error)
		// DeleteItem deletes the item for the given id.
		DeleteItem(ctx context.Context, id string) error
		// Recover submits a recovery for the given item.
		Recover(ctx context.Context, itemID string, recovery Recovery) (Recovery, error)
		// Recoveries returns all the recoveries visible by the signed in user.
		Recoveries(ctx context.Context) ([]Recovery, error)
		// UpdateRecoveryStatus sets the status of the recovery for the given id.
		UpdateRecoveryStatus(ctx context.Context, id, status string) (Recovery, error)
		// Highlights returns the promotional slides.
		Highlights(ctx context.Context) ([]Highlight, error)
		// Login establishes a backend session with the given identity provider ID token.
		Login(ctx context.Context, idToken string) (Profile, error)
		// Logout clears the backend session.
		Logout(ctx context.Context) error
		// SetTokenSource sets the source of the bearer token used for authenticated calls.
		SetTokenSource(tokens TokenSource)
	}

	p      map[string]any
	client struct {
		http     *http.Client
		endpoint string
		tokens   TokenSource
	}
)

// NewDefaultClient returns a new Client with a default HTTP client keeping the backend session cookie.
func NewDefaultClient(endpoint string) (Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, errors.Wrap(err, "could not create cookie jar")
	}
	return NewClient(&http.Client{Jar: jar}, endpoint)
}

// NewClient returns a new Client.
func NewClient(c *http.Client, endpoint string) (Client, error) {
	_, err := url.Parse(endpoint)
	return &client{http: c, endpoint: endpoint, tokens: StaticToken("")}, errors.Wrap(err, "could not parse endpoint")
}

func (c *client) SetTokenSource(tokens TokenSource) {
	if tokens == nil {
		tokens = StaticToken("")
	}
	c.tokens = tokens
}

func (c *client) Items(ctx context.Context) ([]Item, error) {
	items := make([]Item, 0)
	err := c.do(ctx, http.MethodGet, "/inventory", false, nil, &items)
	return items, errors.Wrap(err, "could not list items")
}

func (c *client) Item(ctx context.Context, id string) (Item, error) {
	var item Item
	err := c.do(ctx, http.MethodGet, path.Join("/inventory", url.PathEscape(id)), false, nil, &item)
	return item, errors.Wrap(err, "could not get item")
}

func (c *client) CreateItem(ctx context.Context, report ItemReport) (Item, error) {
	var item Item
	err := c.do(ctx, http.MethodPost, "/inventory", true, report, &item)
	return item, errors.Wrap(err, "could not create item")
}

func (c *client) UpdateItem(ctx context.Context, id string, patch ItemPatch) (Item, error) {
	var item Item
	err := c.do(ctx, http.MethodPatch, path.Join("/inventory", url.PathEscape(id)), true, patch, &item)
	return item, errors.Wrap(err, "could not update item")
}

func (c *client) DeleteItem(ctx context.Context, id string) error {
	err := c.do(ctx, http.MethodDelete, path.Join("/inventory", url.PathEscape(id)), true, nil, nil)
	return errors.Wrap(err, "could not delete item")
}

func (c *client) Recover(ctx context.Context, itemID string, recovery Recovery) (Recovery, error) {
	recovery.ItemID = itemID

	var created Recovery
	err := c.do(ctx, http.MethodPost, path.Join("/inventory", url.PathEscape(itemID), "recover"), true, recovery, &created)
	return created, errors.Wrap(err, "could not submit recovery")
}

func (c *client) Recoveries(ctx context.Context) ([]Recovery, error) {
	recoveries := make([]Recovery, 0)
	err := c.do(ctx, http.MethodGet, "/recoveries", true, nil, &recoveries)
	return recoveries, errors.Wrap(err, "could not list recoveries")
}

func (c *client) UpdateRecoveryStatus(ctx context.Context, id, status string) (Recovery, error) {
	var recovery Recovery
	err := c.do(ctx, http.MethodPatch, path.Join("/recoveries", url.PathEscape(id)), true, p{"recoveryStatus": status}, &recovery)
	return recovery, errors.Wrap(err, "could not update recovery")
}

func (c *client) Highlights(ctx context.Context) ([]Highlight, error) {
	highlights := make([]Highlight, 0)
	err := c.do(ctx, http.MethodGet, "/highlights", false, nil, &highlights)
	return highlights, errors.Wrap(err, "could not list highlights")
}

func (c *client) Login(ctx context.Context, idToken string) (Profile, error) {
	var profile Profile
	err := c.request(ctx, http.MethodPost, "/users/firebase-login", idToken, nil, &profile)
	return profile, errors.Wrap(err, "could not login")
}

func (c *client) Logout(ctx context.Context) error {
	err := c.request(ctx, http.MethodPost, "/users/logout", "", nil, nil)
	return errors.Wrap(err, "could not logout")
}

// do performs a request, fetching a fresh ID token first when authenticated is set.
func (c *client) do(ctx context.Context, method, uri string, authenticated bool, in, out any) error {
	var bearer string
	if authenticated {
		token, err := c.tokens.IDToken(ctx)
		if err != nil {
			return errors.Wrap(err, "could not get ID token")
		}
		if token == "" {
			return ErrNotSignedIn
		}
		bearer = token
	}

	return c.request(ctx, method, uri, bearer, in, out)
}

func (c *client) request(ctx context.Context, method, uri, bearer string, in, out any) error {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return errors.Wrap(err, "could not parse endpoint")
	}
	u = u.JoinPath(uri)

	//
	// Build request
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "could not serialize payload")
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return errors.Wrap(err, "could not build request")
	}
	req.Header.Add("Content-Type", "application/json")
	req.Header.Add("Accept", "application/json")
	if bearer != "" {
		req.Header.Add("Authorization", fmt.Sprintf("Bearer %s", bearer))
	}

	//
	// Perform request
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
	if out == nil || res.StatusCode == http.StatusNoContent {
		return nil
	}

	dec := json.NewDecoder(res.Body)
	err = dec.Decode(out)
	if err == io.EOF {
		return nil
	}
	return errors.Wrap(err, "could not parse response")
}
