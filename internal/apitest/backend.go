// Package apitest is an in-memory lost-and-found backend and identity provider.
// It mimics the contracts consumed by liblf so the client stack can be exercised end to end.
package apitest

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/gofrs/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/mdouchement/lostfound/pkg/liblf"
	"github.com/sirupsen/logrus"
)

// APIKey is the identity provider API key accepted by the Backend.
const APIKey = "apitest-key"

type (
	// A Backend holds the state of the fake API.
	Backend struct {
		mu         sync.Mutex
		secret     []byte
		ttl        time.Duration
		log        logrus.FieldLogger
		items      map[string]liblf.Item
		itemOrder  []string
		recoveries map[string]liblf.Recovery
		recOrder   []string
		highlights []liblf.Highlight
		accounts   map[string]*account // by email
		refresh    map[string]string   // refresh token => email
		sessions   map[string]string   // session cookie => email
		requests   map[string]int      // "METHOD /path" => count
	}

	account struct {
		UID      string
		Email    string
		Password string
		Name     string
		PhotoURL string
	}
)

// New returns a new Backend signing its ID tokens with the given secret.
func New(secret []byte) *Backend {
	log := logrus.New()
	log.SetLevel(logrus.WarnLevel)

	return &Backend{
		secret:     secret,
		ttl:        time.Hour,
		log:        log,
		items:      make(map[string]liblf.Item),
		recoveries: make(map[string]liblf.Recovery),
		accounts:   make(map[string]*account),
		refresh:    make(map[string]string),
		sessions:   make(map[string]string),
		requests:   make(map[string]int),
	}
}

// SetTokenTTL sets the lifetime of the issued ID tokens.
func (b *Backend) SetTokenTTL(ttl time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ttl = ttl
}

// Engine instantiates the web server.
func (b *Backend) Engine() *echo.Echo {
	engine := echo.New()
	engine.HideBanner = true
	engine.Use(middleware.Recover())
	engine.Use(b.count)
	engine.Binder = NewBinder()
	engine.HTTPErrorHandler = b.HTTPErrorHandler

	////////////
	// Router //
	////////////

	router := engine.Group("")
	restricted := router.Group("")
	restricted.Use(b.authenticate)

	//
	// inventory handlers
	//
	router.GET("/inventory", b.ListItems)
	router.GET("/inventory/:id", b.ShowItem)
	restricted.POST("/inventory", b.CreateItem)
	restricted.PATCH("/inventory/:id", b.UpdateItem)
	restricted.DELETE("/inventory/:id", b.DeleteItem)
	restricted.POST("/inventory/:id/recover", b.Recover)

	//
	// recovery handlers
	//
	restricted.GET("/recoveries", b.ListRecoveries)
	restricted.PATCH("/recoveries/:id", b.UpdateRecovery)

	//
	// user handlers
	//
	router.GET("/highlights", b.ListHighlights)
	router.POST("/users/firebase-login", b.Login)
	router.POST("/users/logout", b.Logout)

	//
	// identity provider handlers
	//
	router.POST("/identity/v1/*", b.Accounts) // accounts:<method> does not fit the router syntax
	router.POST("/securetoken/v1/token", b.RefreshToken)

	return engine
}

// IdentityEndpoint returns the identity provider endpoint for the given server URL.
func IdentityEndpoint(serverURL string) string {
	return serverURL + "/identity/v1"
}

// SecureTokenEndpoint returns the token refresh endpoint for the given server URL.
func SecureTokenEndpoint(serverURL string) string {
	return serverURL + "/securetoken/v1"
}

////////////////////
//                //
// Seeding        //
//                //
////////////////////

// AddAccount registers an identity and returns its uid.
func (b *Backend) AddAccount(email, password, name string) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	a := &account{
		UID:      newID(),
		Email:    email,
		Password: password,
		Name:     name,
	}
	b.accounts[email] = a
	return a.UID
}

// Token returns a valid ID token for the given registered email.
func (b *Backend) Token(email string) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	a, ok := b.accounts[email]
	if !ok {
		panic(fmt.Sprintf("apitest: no account for %s", email))
	}
	token, err := b.sign(a, time.Now().Add(b.ttl))
	if err != nil {
		panic(err)
	}
	return token
}

// SeedItems stores the given items, generating missing ids.
func (b *Backend) SeedItems(items ...liblf.Item) []liblf.Item {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i := range items {
		if items[i].ID == "" {
			items[i].ID = newID()
		}
		if items[i].Status == "" {
			items[i].Status = liblf.StatusNotRecovered
		}
		b.putItem(items[i])
	}
	return items
}

// SeedRecoveries stores the given recoveries, generating missing ids.
func (b *Backend) SeedRecoveries(recoveries ...liblf.Recovery) []liblf.Recovery {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i := range recoveries {
		if recoveries[i].ID == "" {
			recoveries[i].ID = newID()
		}
		b.putRecovery(recoveries[i])
	}
	return recoveries
}

// SeedHighlights sets the promotional slides.
func (b *Backend) SeedHighlights(highlights ...liblf.Highlight) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.highlights = append(b.highlights, highlights...)
}

// Item returns the stored item for the given id.
func (b *Backend) Item(id string) (liblf.Item, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	item, ok := b.items[id]
	return item, ok
}

// Recoveries returns all the stored recoveries.
func (b *Backend) Recoveries() []liblf.Recovery {
	b.mu.Lock()
	defer b.mu.Unlock()

	recoveries := make([]liblf.Recovery, 0, len(b.recOrder))
	for _, id := range b.recOrder {
		recoveries = append(recoveries, b.recoveries[id])
	}
	return recoveries
}

// Requests returns how many times the given route has been requested (e.g. "GET /inventory").
func (b *Backend) Requests(route string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.requests[route]
}

////////////////////
//                //
// Internals      //
//                //
////////////////////

func (b *Backend) count(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		b.mu.Lock()
		b.requests[c.Request().Method+" "+c.Request().URL.Path]++
		b.mu.Unlock()
		return next(c)
	}
}

func (b *Backend) putItem(item liblf.Item) {
	if _, ok := b.items[item.ID]; !ok {
		b.itemOrder = append(b.itemOrder, item.ID)
	}
	b.items[item.ID] = item
}

func (b *Backend) deleteItem(id string) {
	delete(b.items, id)
	for i, oid := range b.itemOrder {
		if oid == id {
			b.itemOrder = append(b.itemOrder[:i], b.itemOrder[i+1:]...)
			break
		}
	}
}

func (b *Backend) putRecovery(recovery liblf.Recovery) {
	if _, ok := b.recoveries[recovery.ID]; !ok {
		b.recOrder = append(b.recOrder, recovery.ID)
	}
	b.recoveries[recovery.ID] = recovery
}

func (b *Backend) listItems() []liblf.Item {
	items := make([]liblf.Item, 0, len(b.itemOrder))
	for _, id := range b.itemOrder {
		if item, ok := b.items[id]; ok {
			items = append(items, item)
		}
	}
	return items
}

func newID() string {
	return uuid.Must(uuid.NewV4()).String()
}

// Routes returns the exposed routes sorted by path, used for diagnostics.
func Routes(e *echo.Echo) []string {
	routes := e.Routes()
	sort.Slice(routes, func(i int, j int) bool {
		if routes[i].Path == routes[j].Path {
			return routes[i].Method < routes[j].Method
		}
		return routes[i].Path < routes[j].Path
	})

	lines := make([]string, 0, len(routes))
	for _, route := range routes {
		lines = append(lines, fmt.Sprintf("%6s %s", route.Method, route.Path))
	}
	return lines
}
